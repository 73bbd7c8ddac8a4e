package update

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dailytodo/internal/commands"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		_ = cmd
		m.Palette.Input = m.commandInput.Value()
	}
	return m
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.setError(err)
		return m
	}

	handlers := commands.ChecklistHandlers(m.Checklist)
	confirmNeeded := false
	base := handlers.Reset
	handlers.Reset = func(args commands.ResetArgs) (commands.Result, error) {
		if !args.Confirmed {
			confirmNeeded = true
			return commands.Result{Message: "confirm reset"}, nil
		}
		return base(args)
	}

	res, err := commands.Execute(cmd, handlers)
	if err != nil {
		m.setError(err)
		return m
	}
	if confirmNeeded {
		m.ConfirmReset = true
	}
	m.Status = StatusBar{Text: firstLine(res.Message)}
	if cmd.Type == commands.TypeStatus {
		m.notify("Status", res.Message, "info")
	}
	return m
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}
