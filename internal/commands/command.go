package commands

import (
	"fmt"
	"strconv"
	"strings"
)

type Type string

const (
	TypeStatus Type = "status"
	TypeText   Type = "text"
	TypeDone   Type = "done"
	TypeUndo   Type = "undo"
	TypeReset  Type = "reset"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
	ErrCodeUnknownSlot     ErrorCode = "unknown_slot"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type TextArgs struct {
	Slot string
	Text string
}

type SlotArgs struct {
	Slot string
}

type ResetArgs struct {
	Confirmed bool
}

type Command struct {
	Type  Type
	Raw   string
	Text  *TextArgs
	Slot  *SlotArgs
	Reset *ResetArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeStatus:
		return Command{Type: TypeStatus, Raw: input}, nil
	case TypeText:
		return parseText(input, raw, args)
	case TypeDone, TypeUndo:
		return parseSlot(input, Type(head), args)
	case TypeReset:
		return parseReset(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// ParseArgs joins process arguments into one command line.
func ParseArgs(args []string) (Command, error) {
	if len(args) > 2 && strings.EqualFold(args[0], string(TypeText)) {
		// Keep the note text exactly as given, spaces included.
		return parseTextParts(strings.Join(args, " "), args[1], strings.Join(args[2:], " "))
	}
	return Parse(strings.Join(args, " "))
}

func parseText(input, raw string, args []string) (Command, error) {
	if len(args) < 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "text requires a slot"}
	}
	// Text after the slot keeps its inner spacing.
	rest := strings.TrimSpace(raw[len(string(TypeText)):])
	rest = strings.TrimSpace(rest[len(args[0]):])
	return parseTextParts(input, args[0], rest)
}

func parseTextParts(input, slot, text string) (Command, error) {
	if strings.TrimSpace(slot) == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "text requires a slot"}
	}
	return Command{Type: TypeText, Raw: input, Text: &TextArgs{Slot: slot, Text: text}}, nil
}

func parseSlot(raw string, typ Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires exactly one slot", typ)}
	}
	return Command{Type: typ, Raw: raw, Slot: &SlotArgs{Slot: args[0]}}, nil
}

func parseReset(raw string, args []string) (Command, error) {
	confirmed := false
	for _, arg := range args {
		switch strings.ToLower(arg) {
		case "--yes", "-y", "yes":
			confirmed = true
		default:
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unexpected reset argument: %s", arg)}
		}
	}
	return Command{Type: TypeReset, Raw: raw, Reset: &ResetArgs{Confirmed: confirmed}}, nil
}

// ResolveSlot accepts a slot id or a 1-based position.
func ResolveSlot(ref string, slotIDs []string) (string, error) {
	ref = strings.TrimSpace(ref)
	for _, id := range slotIDs {
		if strings.EqualFold(id, ref) {
			return id, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(slotIDs) {
		return slotIDs[n-1], nil
	}
	return "", &CommandError{Code: ErrCodeUnknownSlot, Message: fmt.Sprintf("no slot %q (use 1-%d or a slot id)", ref, len(slotIDs))}
}
