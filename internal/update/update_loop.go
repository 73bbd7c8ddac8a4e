package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dailytodo/internal/checklist"
	"github.com/sandeepkv93/dailytodo/internal/scheduler"
	"github.com/sandeepkv93/dailytodo/internal/views"
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForEventCmd(m.events),
		waitForSaveCmd(m.Checklist.SaveResults()),
		rolloverTickCmd(m.rolloverEvery),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.progressBar.Width = clamp(typed.Width-30, 10, 60)
		m.helpModel.Width = typed.Width
		return m, nil
	case tea.KeyMsg:
		if m.ConfirmReset {
			return m.handleConfirmKey(typed)
		}
		if m.Editing {
			return m.handleEditorKey(typed)
		}
		if m.Palette.Active {
			next := m.handlePaletteKey(typed)
			cmd := next.startSpinner()
			return next, cmd
		}
		return m.handleListKey(typed)
	case spinner.TickMsg:
		if !m.spinnerActive {
			return m, nil
		}
		if m.Checklist.PendingSaves() == 0 {
			m.spinnerActive = false
			return m, nil
		}
		var cmd tea.Cmd
		m.syncSpinner, cmd = m.syncSpinner.Update(typed)
		return m, cmd
	case CoreEventMsg:
		m.applyEvent(typed.Event)
		return m, waitForEventCmd(m.events)
	case SaveResultMsg:
		m.applySaveResult(typed.Result)
		return m, waitForSaveCmd(m.Checklist.SaveResults())
	case RolloverTickMsg:
		cmds := []tea.Cmd{rolloverTickCmd(m.rolloverEvery)}
		if m.Checklist.CheckDay() {
			m.Status = StatusBar{Text: "new day: checklist cleared"}
			if cmd := m.startSpinner(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		return m, tea.Batch(cmds...)
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	last := len(m.Checklist.SlotIDs()) - 1
	switch msg.String() {
	case m.Keys.Down, "down":
		m.Cursor = clamp(m.Cursor+1, 0, last)
	case m.Keys.Up, "up":
		m.Cursor = clamp(m.Cursor-1, 0, last)
	case "g", "home":
		m.Cursor = 0
	case "G", "end":
		m.Cursor = last
	case m.Keys.Toggle, " ":
		slot := m.SelectedSlot()
		done, err := m.Checklist.Toggle(slot)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		verb := "not done"
		if done {
			verb = "done"
		}
		m.Status = StatusBar{Text: fmt.Sprintf("%s marked %s", slot, verb)}
		cmd := m.startSpinner()
		return m, cmd
	case m.Keys.Edit:
		rec, err := m.Checklist.Record(m.SelectedSlot())
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.Editing = true
		m.notesEditor.SetValue(rec.Text)
		m.notesEditor.Focus()
		m.Status = StatusBar{Text: "editing notes"}
		return m, nil
	case m.Keys.Reset:
		m.ConfirmReset = true
		m.Status = StatusBar{Text: "confirm reset"}
	case m.Keys.Palette:
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette opened"}
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		if m.HelpVisible {
			m.Status = StatusBar{Text: "help shown"}
		} else {
			m.Status = StatusBar{Text: "help hidden"}
		}
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	default:
		if n := msg.String(); len(n) == 1 && n[0] >= '1' && n[0] <= '9' {
			m.Cursor = clamp(int(n[0]-'1'), 0, last)
		}
	}
	return m, nil
}

func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+s":
		slot := m.SelectedSlot()
		m.Editing = false
		m.notesEditor.Blur()
		if err := m.Checklist.SetText(slot, m.notesEditor.Value()); err != nil {
			m.setError(err)
			return m, nil
		}
		m.Status = StatusBar{Text: fmt.Sprintf("%s notes saved", slot)}
		cmd := m.startSpinner()
		return m, cmd
	case "ctrl+c":
		m.Quitting = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.notesEditor, cmd = m.notesEditor.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.ConfirmReset = false
	switch strings.ToLower(msg.String()) {
	case "y":
		return m.resetConfirmed()
	default:
		m.Status = StatusBar{Text: "reset cancelled"}
		return m, nil
	}
}

func (m Model) resetConfirmed() (tea.Model, tea.Cmd) {
	var (
		done bool
		err  error
	)
	if m.gate != nil {
		m.gate.Arm(true)
		done, err = m.Checklist.Reset(true)
	} else {
		done, err = m.Checklist.Reset(false)
	}
	if err != nil {
		m.setError(err)
		return m, nil
	}
	if !done {
		m.Status = StatusBar{Text: "reset cancelled"}
		return m, nil
	}
	m.Cursor = 0
	m.Status = StatusBar{Text: "checklist cleared"}
	cmd := m.startSpinner()
	return m, cmd
}

func (m *Model) applyEvent(ev CoreEvent) {
	switch ev.Kind {
	case EventCompleted:
		m.notify("Task", fmt.Sprintf("%s completed", ev.SlotID), "info")
	case EventUncompleted:
		m.notify("Task", fmt.Sprintf("%s reopened", ev.SlotID), "info")
	case EventFull:
		n := m.notify("Daily checklist", fmt.Sprintf("All %d tasks completed!", len(m.Checklist.SlotIDs())), "success")
		if m.DesktopEnabled && m.notifier != nil {
			if err := m.notifier.Send(n); err != nil {
				m.LastError = err
			}
		}
	case EventReset:
		if m.Editing {
			m.Editing = false
			m.notesEditor.Blur()
			m.Status = StatusBar{Text: "checklist cleared; edit discarded", IsError: true}
		}
		m.notify("Daily checklist", "checklist cleared", "info")
	}
}

func (m *Model) applySaveResult(res scheduler.Result) {
	m.LastSave = &res
	report := res.Report
	switch {
	case !report.Durable():
		m.Status = StatusBar{Text: "save failed: changes may not survive a reload", IsError: true}
		m.notify("Save", m.Status.Text, "error")
	case report.Remote.Failed():
		m.Status = StatusBar{Text: fmt.Sprintf("saved locally (cloud %s)", report.Remote)}
	}
}

func (m *Model) setError(err error) {
	m.LastError = err
	m.Status = StatusBar{Text: err.Error(), IsError: true}
}

func (m *Model) notify(title, body, level string) Notification {
	n := Notification{Title: title, Body: body, Level: level, At: time.Now()}
	if strings.TrimSpace(body) == "" {
		return n
	}
	m.Notifications = append(m.Notifications, n)
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
	return n
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinnerActive || m.Checklist.PendingSaves() == 0 {
		return nil
	}
	m.spinnerActive = true
	return m.syncSpinner.Tick
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	progress := m.Checklist.Progress()
	leftPane := m.renderChecklistView() +
		views.RenderCommandPalette(m.Palette.Active, m.commandInput.View())
	if m.ConfirmReset {
		leftPane += views.RenderConfirmPrompt(checklist.ResetPrompt)
	}
	rightPane := m.renderNotesView() + m.renderHelpIfVisible()

	notificationView := ""
	if m.spinnerActive {
		notificationView = "saving: " + m.syncSpinner.View()
	}
	if len(m.Notifications) > 0 {
		n := m.Notifications[len(m.Notifications)-1]
		notificationView = strings.TrimSpace(strings.Join([]string{notificationView, views.RenderNotification(n.Level, n.Body)}, "\n"))
	}

	return views.RenderApp(views.AppData{
		Width:        m.width,
		Header:       fmt.Sprintf("dailytodo | %s | user: %s", m.dateLabel(), m.Checklist.UserID()),
		Progress:     m.progressBar.ViewAs(progress.Percentage) + " " + progress.String(),
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		StatusError:  m.Status.IsError,
		Notification: notificationView,
		Footer: fmt.Sprintf("keys: %s/%s move | %s toggle | %s notes | %s reset | %s cmd | %s help | %s quit",
			m.Keys.Down, m.Keys.Up, m.Keys.Toggle, m.Keys.Edit, m.Keys.Reset, m.Keys.Palette, m.Keys.Help, m.Keys.Quit),
	})
}

func (m Model) renderChecklistView() string {
	ids := m.Checklist.SlotIDs()
	rows := make([]views.ChecklistRowData, 0, len(ids))
	selected := m.SelectedSlot()
	for i, id := range ids {
		rec, _ := m.Checklist.Record(id)
		rows = append(rows, views.ChecklistRowData{
			Index:     i + 1,
			SlotID:    id,
			Summary:   firstLine(rec.Text),
			Completed: rec.Completed,
			Selected:  id == selected,
		})
	}
	return views.RenderChecklistPanel(views.ChecklistPanelData{Date: m.dateLabel(), Rows: rows})
}

func (m Model) renderNotesView() string {
	slot := m.SelectedSlot()
	data := views.NotesPaneData{SlotID: slot, Editing: m.Editing}
	if m.Editing {
		data.EditorView = m.notesEditor.View()
		return views.RenderNotesPane(data)
	}
	rec, err := m.Checklist.Record(slot)
	if err == nil {
		vp := m.notesView
		vp.SetContent(views.RenderMarkdown(rec.Text, vp.Width-2))
		data.MarkdownView = strings.TrimSpace(vp.View())
	}
	return views.RenderNotesPane(data)
}

func (m Model) dateLabel() string {
	if d := m.Checklist.Snapshot().LastSavedDate; !d.IsZero() {
		return d.String()
	}
	return "today"
}
