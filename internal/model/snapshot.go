package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of a CalendarDate.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("model: invalid calendar date")

// CalendarDate is a day without a time component. The zero value means "absent".
type CalendarDate string

func DateOf(t time.Time) CalendarDate {
	return CalendarDate(t.Format(DateLayout))
}

func ParseDate(raw string) (CalendarDate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if _, err := time.Parse(DateLayout, raw); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return CalendarDate(raw), nil
}

func (d CalendarDate) IsZero() bool { return d == "" }

func (d CalendarDate) String() string { return string(d) }

func (d CalendarDate) Before(other CalendarDate) bool { return d < other }

type Snapshot struct {
	Tasks         TaskCollection `json:"tasks"`
	LastSavedDate CalendarDate   `json:"lastSavedDate,omitempty"`
	UserID        string         `json:"userId"`
}

// EmptySnapshot is the result of a reset or of a load that found nothing.
func EmptySnapshot(userID string, date CalendarDate) Snapshot {
	return Snapshot{Tasks: TaskCollection{}, LastSavedDate: date, UserID: userID}
}

func (s Snapshot) Clone() Snapshot {
	out := s
	out.Tasks = s.Tasks.Clone()
	return out
}

func (s Snapshot) Validate() error {
	if err := s.Tasks.Validate(); err != nil {
		return err
	}
	if s.LastSavedDate.IsZero() {
		return nil
	}
	if _, err := ParseDate(string(s.LastSavedDate)); err != nil {
		return err
	}
	return nil
}

type ProgressState struct {
	CompletedCount int
	Total          int
	Percentage     float64
}

func NewProgress(completed, total int) ProgressState {
	pct := 0.0
	if total > 0 {
		pct = float64(completed) / float64(total)
	}
	return ProgressState{CompletedCount: completed, Total: total, Percentage: pct}
}

func (p ProgressState) Complete() bool {
	return p.Total > 0 && p.CompletedCount == p.Total
}

func (p ProgressState) String() string {
	return fmt.Sprintf("%d/%d completed", p.CompletedCount, p.Total)
}
