package views

import (
	"fmt"
	"strings"
)

type ChecklistRowData struct {
	Index     int
	SlotID    string
	Summary   string
	Completed bool
	Selected  bool
}

type ChecklistPanelData struct {
	Date string
	Rows []ChecklistRowData
}

type NotesPaneData struct {
	SlotID       string
	Editing      bool
	EditorView   string
	MarkdownView string
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

func RenderChecklistPanel(data ChecklistPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("checklist for %s:\n", data.Date))
	for _, row := range data.Rows {
		cursor := " "
		if row.Selected {
			cursor = cursorStyle.Render(">")
		}
		box := "[ ]"
		if row.Completed {
			box = "[x]"
		}
		summary := row.Summary
		if summary == "" {
			summary = "(empty)"
		}
		if row.Completed {
			summary = doneStyle.Render(summary)
		}
		b.WriteString(fmt.Sprintf("%s %2d %s %s\n", cursor, row.Index, box, summary))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderNotesPane(data NotesPaneData) string {
	if strings.TrimSpace(data.SlotID) == "" {
		return "notes:\n(no selection)"
	}
	if data.Editing {
		return fmt.Sprintf("notes for %s (esc/ctrl+s to save):\n%s", data.SlotID, data.EditorView)
	}
	preview := data.MarkdownView
	if strings.TrimSpace(preview) == "" {
		preview = "(no notes, press enter to write)"
	}
	return fmt.Sprintf("notes for %s:\n%s", data.SlotID, preview)
}

func RenderConfirmPrompt(message string) string {
	if message == "" {
		return ""
	}
	return "\n" + promptStyle.Render(message+" [y/N]")
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("\ncommand: %s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("\nhelp:\n%s\n%s",
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
