package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Status func() (Result, error)
	Text   func(TextArgs) (Result, error)
	Done   func(SlotArgs) (Result, error)
	Undo   func(SlotArgs) (Result, error)
	Reset  func(ResetArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeStatus:
		if handlers.Status == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "status handler not configured"}
		}
		return handlers.Status()
	case TypeText:
		if handlers.Text == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "text handler not configured"}
		}
		return handlers.Text(*cmd.Text)
	case TypeDone:
		if handlers.Done == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "done handler not configured"}
		}
		return handlers.Done(*cmd.Slot)
	case TypeUndo:
		if handlers.Undo == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "undo handler not configured"}
		}
		return handlers.Undo(*cmd.Slot)
	case TypeReset:
		if handlers.Reset == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "reset handler not configured"}
		}
		return handlers.Reset(*cmd.Reset)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
