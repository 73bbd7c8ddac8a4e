package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// AppData is one full frame. Width is the terminal width; zero means unknown.
type AppData struct {
	Width        int
	Header       string
	Progress     string
	LeftPane     string
	RightPane    string
	StatusLine   string
	StatusError  bool
	Footer       string
	Notification string
}

const (
	leftPaneWidth  = 52
	rightPaneWidth = 58
	// Below this the panes stack instead of sitting side by side.
	stackBelow = leftPaneWidth + rightPaneWidth + 8
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

func RenderApp(data AppData) string {
	var body string
	if data.Width > 0 && data.Width < stackBelow {
		w := max(data.Width-4, 20)
		body = lipgloss.JoinVertical(lipgloss.Left,
			panelStyle.Width(w).Render(data.LeftPane),
			panelStyle.Width(w).Render(data.RightPane),
		)
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			panelStyle.Width(leftPaneWidth).Render(data.LeftPane),
			panelStyle.Width(rightPaneWidth).Render(data.RightPane),
		)
	}

	style := statusStyle
	if data.StatusError {
		style = errorStyle
	}

	parts := []string{headerStyle.Render(data.Header)}
	if data.Progress != "" {
		parts = append(parts, data.Progress)
	}
	parts = append(parts, body, style.Render(data.StatusLine))
	if data.Notification != "" {
		parts = append(parts, panelStyle.Render(data.Notification))
	}
	if data.Footer != "" {
		parts = append(parts, footerStyle.Render(data.Footer))
	}
	return strings.Join(parts, "\n")
}

// RenderMarkdown renders task notes wrapped to width. Rendering errors fall back
// to the raw text.
func RenderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	if width <= 0 {
		width = rightPaneWidth - 4
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
