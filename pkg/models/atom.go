package models

import (
	"fmt"
	"strings"
)

// AtomKind classifies what an atom is meant to be
type AtomKind string

const (
	AtomKindNote  AtomKind = "note"
	AtomKindTask  AtomKind = "task"
	AtomKindEvent AtomKind = "event"
)

// ParseAtomKind maps a stored or transmitted kind string to an AtomKind.
func ParseAtomKind(s string) (AtomKind, error) {
	switch k := AtomKind(s); k {
	case AtomKindNote, AtomKindTask, AtomKindEvent:
		return k, nil
	default:
		return "", fmt.Errorf("unknown atom kind %q", s)
	}
}

// TaskStatus is the lifecycle state carried by an atom of any kind
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TerminalStatuses lists statuses that remove an atom from the Inbox, Today and Upcoming sections.
var TerminalStatuses = []TaskStatus{TaskStatusDone, TaskStatusCancelled}

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone, TaskStatusCancelled:
		return true
	}
	return false
}

func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusDone || s == TaskStatusCancelled
}

// ParseTaskStatus maps a stored or transmitted status string to a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !status.IsValid() {
		return "", &InvalidTaskStatusError{Value: s}
	}
	return status, nil
}

// Atom is the universal content record: a note, a task or an event.
//
// StartAt and EndAt are epoch milliseconds. Either, both or neither may be set; which of them
// is set decides the section an open atom is listed in. RecurrenceRule and HLCTimestamp are
// stored as given and never interpreted.
type Atom struct {
	ID             AtomID      `json:"id"`
	Kind           AtomKind    `json:"kind"`
	Content        string      `json:"content"`
	PreviewText    *string     `json:"preview_text,omitempty"`
	PreviewImage   *string     `json:"preview_image,omitempty"`
	TaskStatus     *TaskStatus `json:"task_status,omitempty"`
	StartAt        *int64      `json:"start_at,omitempty"`
	EndAt          *int64      `json:"end_at,omitempty"`
	RecurrenceRule *string     `json:"recurrence_rule,omitempty"`
	HLCTimestamp   *string     `json:"hlc_timestamp,omitempty"`
	IsDeleted      bool        `json:"is_deleted"`
}

// NewAtom returns a live atom with a fresh id.
func NewAtom(kind AtomKind, content string) *Atom {
	return &Atom{
		ID:      NewAtomID(),
		Kind:    kind,
		Content: content,
	}
}

// Validate checks, in order, the content, the event window and the status of the atom.
func (a *Atom) Validate() error {
	if strings.TrimSpace(a.Content) == "" {
		return ErrEmptyContent
	}
	if err := ValidateEventWindow(a.StartAt, a.EndAt); err != nil {
		return err
	}
	if a.TaskStatus != nil && !a.TaskStatus.IsValid() {
		return &InvalidTaskStatusError{Value: string(*a.TaskStatus)}
	}
	return nil
}

// ValidateEventWindow rejects a window whose end lies before its start. Open windows pass.
func ValidateEventWindow(start, end *int64) error {
	if start != nil && end != nil && *end < *start {
		return &InvalidEventWindowError{Start: *start, End: *end}
	}
	return nil
}

// IsOpen reports whether the atom takes part in the Inbox, Today and Upcoming sections.
func (a *Atom) IsOpen() bool {
	if a.IsDeleted {
		return false
	}
	return a.TaskStatus == nil || !a.TaskStatus.IsTerminal()
}

// Clone returns a deep copy so callers can mutate optional fields independently.
func (a *Atom) Clone() *Atom {
	c := *a
	c.PreviewText = clonePtr(a.PreviewText)
	c.PreviewImage = clonePtr(a.PreviewImage)
	c.TaskStatus = clonePtr(a.TaskStatus)
	c.StartAt = clonePtr(a.StartAt)
	c.EndAt = clonePtr(a.EndAt)
	c.RecurrenceRule = clonePtr(a.RecurrenceRule)
	c.HLCTimestamp = clonePtr(a.HLCTimestamp)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v. Handy for the optional atom fields.
func Ptr[T any](v T) *T {
	return &v
}
