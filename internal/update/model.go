// Package update is the bubbletea front end of the checklist engine.
package update

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/dailytodo/internal/commands"
	"github.com/sandeepkv93/dailytodo/internal/gateway"
	"github.com/sandeepkv93/dailytodo/internal/model"
	"github.com/sandeepkv93/dailytodo/internal/scheduler"
)

// Checklist is the engine surface the UI drives. *checklist.Engine satisfies it.
type Checklist interface {
	commands.Checklist
	Toggle(slotID string) (bool, error)
	CheckDay() bool
	PendingSaves() int
	SaveResults() <-chan scheduler.Result
	UserID() string
	LoadResult() gateway.LoadResult
	Snapshot() model.Snapshot
}

type StatusBar struct {
	Text    string
	IsError bool
}

type KeyMap struct {
	Up      string
	Down    string
	Toggle  string
	Edit    string
	Reset   string
	Palette string
	Help    string
	Quit    string
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:      "k",
		Down:    "j",
		Toggle:  "x",
		Edit:    "enter",
		Reset:   "R",
		Palette: "/",
		Help:    "?",
		Quit:    "q",
	}
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type Options struct {
	Events         <-chan CoreEvent
	Gate           *ConfirmGate
	DesktopEnabled bool
	Notifier       DesktopNotifier
	RolloverCheck  time.Duration
}

type Model struct {
	Checklist      Checklist
	Cursor         int
	Editing        bool
	ConfirmReset   bool
	Palette        CommandPaletteState
	HelpVisible    bool
	Notifications  []Notification
	DesktopEnabled bool
	Status         StatusBar
	Keys           KeyMap
	Quitting       bool
	LastSave       *scheduler.Result
	LastError      error

	notifier      DesktopNotifier
	events        <-chan CoreEvent
	gate          *ConfirmGate
	rolloverEvery time.Duration
	width         int

	commandInput  textinput.Model
	notesEditor   textarea.Model
	notesView     viewport.Model
	progressBar   progress.Model
	syncSpinner   spinner.Model
	spinnerActive bool
	helpModel     help.Model
}

func NewModel(list Checklist, opts Options) Model {
	if opts.Notifier == nil {
		opts.Notifier = NoopDesktopNotifier{}
	}
	if opts.RolloverCheck <= 0 {
		opts.RolloverCheck = time.Minute
	}
	m := Model{
		Checklist:      list,
		Keys:           DefaultKeyMap(),
		DesktopEnabled: opts.DesktopEnabled,
		notifier:       opts.Notifier,
		events:         opts.Events,
		gate:           opts.Gate,
		rolloverEvery:  opts.RolloverCheck,
		Status:         StatusBar{Text: loadStatus(list.LoadResult())},
	}
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.Placeholder = "done 3 | undo 3 | text 3 call mom | reset | status"
	m.commandInput.CharLimit = 512

	m.notesEditor = textarea.New()
	m.notesEditor.Placeholder = "task notes (markdown)"
	m.notesEditor.ShowLineNumbers = false
	m.notesEditor.CharLimit = 4000
	m.notesEditor.SetWidth(54)
	m.notesEditor.SetHeight(10)

	m.notesView = viewport.New(54, 12)

	m.progressBar = progress.New(progress.WithDefaultGradient())
	m.progressBar.Width = 40

	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
}

// SelectedSlot returns the slot under the cursor.
func (m Model) SelectedSlot() string {
	ids := m.Checklist.SlotIDs()
	if len(ids) == 0 {
		return ""
	}
	return ids[clamp(m.Cursor, 0, len(ids)-1)]
}

func loadStatus(res gateway.LoadResult) string {
	switch res.Source {
	case gateway.SourceRemote:
		return "loaded from cloud"
	case gateway.SourceLocal:
		if res.FellBack() {
			return fmt.Sprintf("cloud %s; loaded local copy", res.Remote)
		}
		return "loaded local copy"
	default:
		return "starting fresh"
	}
}

type DesktopNotifier interface {
	Send(Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Notification) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

func escapeAppleScript(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type CoreEventMsg struct {
	Event CoreEvent
}

type SaveResultMsg struct {
	Result scheduler.Result
}

type RolloverTickMsg struct {
	At time.Time
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
