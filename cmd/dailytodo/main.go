package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/sandeepkv93/dailytodo/internal/checklist"
	"github.com/sandeepkv93/dailytodo/internal/commands"
	"github.com/sandeepkv93/dailytodo/internal/config"
	"github.com/sandeepkv93/dailytodo/internal/update"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "dailytodo: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := config.RuntimeConfigFromEnv(config.DefaultRuntimeConfig())
	if err := cfg.Validate(); err != nil {
		return err
	}
	oneShot := len(args) > 0

	logger, closeLog := newLogger(cfg, oneShot)
	defer closeLog()

	var (
		cmd     commands.Command
		confirm checklist.Confirmer
		bridge  *update.EventBridge
		gate    *update.ConfirmGate
	)
	if oneShot {
		parsed, err := commands.ParseArgs(args)
		if err != nil {
			return err
		}
		cmd = parsed
		confirm = stdinConfirmer(os.Stdin, os.Stderr)
	} else {
		bridge = update.NewEventBridge(64)
		gate = &update.ConfirmGate{}
		confirm = gate
	}

	deps, err := wire(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	var notifier checklist.Notifier = checklist.NoopNotifier{}
	if bridge != nil {
		notifier = bridge
	}
	engine, err := checklist.New(checklist.Options{
		SlotIDs:     cfg.SlotIDs,
		Persistence: deps.gateway,
		Identity:    deps.identity,
		Notifier:    checklist.Notifiers{logNotifier{logger: logger}, notifier},
		Confirmer:   confirm,
		Logger:      logger,
		QueueBuffer: cfg.SaveBuffer,
	})
	if err != nil {
		return err
	}
	if err := engine.Start(context.Background()); err != nil {
		return err
	}
	defer closeEngine(engine, logger)

	if oneShot {
		res, err := commands.Execute(cmd, commands.ChecklistHandlers(engine))
		if err != nil {
			return err
		}
		fmt.Println(res.Message)
		return nil
	}

	var desktop update.DesktopNotifier = update.NoopDesktopNotifier{}
	if cfg.DesktopNotifications {
		desktop = update.ExecDesktopNotifier{}
	}
	program := tea.NewProgram(update.NewModel(engine, update.Options{
		Events:         bridge.C(),
		Gate:           gate,
		DesktopEnabled: cfg.DesktopNotifications,
		Notifier:       desktop,
		RolloverCheck:  cfg.RolloverCheck,
	}), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}

// newLogger writes to stderr for one-shot commands and to the log file while
// the full-screen UI owns the terminal.
func newLogger(cfg config.RuntimeConfig, oneShot bool) (*log.Logger, func()) {
	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	if oneShot {
		logger.SetOutput(os.Stderr)
		if !cfg.Debug {
			logger.SetLevel(log.WarnLevel)
		}
		return logger, func() {}
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err == nil {
		f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			logger.SetOutput(f)
			return logger, func() { _ = f.Close() }
		}
	}
	logger.SetOutput(io.Discard)
	return logger, func() {}
}

func closeEngine(engine *checklist.Engine, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := engine.Close(ctx); err != nil {
		logger.WithError(err).Error("pending saves not flushed before exit")
	}
}

func stdinConfirmer(in io.Reader, out io.Writer) checklist.Confirmer {
	reader := bufio.NewReader(in)
	return checklist.ConfirmFunc(func(message string) bool {
		fmt.Fprintf(out, "%s [y/N] ", message)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	})
}

// logNotifier records engine signals in the log.
type logNotifier struct {
	logger *log.Logger
}

func (n logNotifier) OnTaskCompleted(slotID string) {
	n.logger.WithField("slot", slotID).Debug("task completed")
}

func (n logNotifier) OnTaskUncompleted(slotID string) {
	n.logger.WithField("slot", slotID).Debug("task reopened")
}

func (n logNotifier) OnFullCompletion() {
	n.logger.Info("all tasks completed")
}

func (n logNotifier) OnDayReset() {
	n.logger.Info("checklist cleared")
}
