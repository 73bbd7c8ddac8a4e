package model

import (
	"errors"
	"fmt"
	"strings"
)

// TotalTasks is the fixed number of checklist slots.
const TotalTasks = 12

var (
	ErrInvalidSlotID  = errors.New("model: invalid slot id")
	ErrSlotCount      = errors.New("model: slot set must contain exactly 12 ids")
	ErrDuplicateSlots = errors.New("model: duplicate slot id")
)

type TaskRecord struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// DefaultRecord is the record every slot holds until it is first written.
func DefaultRecord() TaskRecord {
	return TaskRecord{Text: "", Completed: false}
}

// TaskCollection maps slot id to record. Missing keys read as DefaultRecord.
type TaskCollection map[string]TaskRecord

func (c TaskCollection) Get(slotID string) TaskRecord {
	if rec, ok := c[slotID]; ok {
		return rec
	}
	return DefaultRecord()
}

func (c TaskCollection) Clone() TaskCollection {
	out := make(TaskCollection, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func (c TaskCollection) CompletedCount() int {
	n := 0
	for _, rec := range c {
		if rec.Completed {
			n++
		}
	}
	return n
}

func (c TaskCollection) Validate() error {
	for id := range c {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: %q", ErrInvalidSlotID, id)
		}
	}
	return nil
}

// DefaultSlotIDs returns task-1 .. task-12.
func DefaultSlotIDs() []string {
	out := make([]string, 0, TotalTasks)
	for i := 1; i <= TotalTasks; i++ {
		out = append(out, fmt.Sprintf("task-%d", i))
	}
	return out
}

func ValidateSlotIDs(ids []string) error {
	if len(ids) != TotalTasks {
		return fmt.Errorf("%w: got %d", ErrSlotCount, len(ids))
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: %q", ErrInvalidSlotID, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: %q", ErrDuplicateSlots, id)
		}
		seen[id] = true
	}
	return nil
}
