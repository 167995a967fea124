package service

import (
	"errors"
	"fmt"

	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/store"
)

var (
	ErrAtomNotFound       = errors.New("atom not found")
	ErrNodeNotFound       = errors.New("workspace node not found")
	ErrParentNotFound     = errors.New("parent node not found")
	ErrParentMustBeFolder = errors.New("parent must be a folder")
	ErrAtomNotNote        = errors.New("atom is not a live note")
	ErrCycleDetected      = errors.New("move would create a cycle")
	ErrInvalidDisplayName = errors.New("invalid display name")
)

type AtomNotFoundError struct {
	ID models.AtomID
}

func (e *AtomNotFoundError) Error() string        { return fmt.Sprintf("atom not found: %s", e.ID) }
func (e *AtomNotFoundError) Is(target error) bool { return target == ErrAtomNotFound }

type NodeNotFoundError struct {
	ID models.NodeID
}

func (e *NodeNotFoundError) Error() string        { return fmt.Sprintf("workspace node not found: %s", e.ID) }
func (e *NodeNotFoundError) Is(target error) bool { return target == ErrNodeNotFound }

type ParentNotFoundError struct {
	ParentID models.NodeID
}

func (e *ParentNotFoundError) Error() string        { return fmt.Sprintf("parent node not found: %s", e.ParentID) }
func (e *ParentNotFoundError) Is(target error) bool { return target == ErrParentNotFound }

type ParentMustBeFolderError struct {
	ParentID models.NodeID
}

func (e *ParentMustBeFolderError) Error() string {
	return fmt.Sprintf("parent must be a folder: %s", e.ParentID)
}
func (e *ParentMustBeFolderError) Is(target error) bool { return target == ErrParentMustBeFolder }

// AtomNotNoteError reports a note reference to an atom that is missing, deleted or not a note.
type AtomNotNoteError struct {
	AtomID models.AtomID
}

func (e *AtomNotNoteError) Error() string        { return fmt.Sprintf("atom is not a live note: %s", e.AtomID) }
func (e *AtomNotNoteError) Is(target error) bool { return target == ErrAtomNotNote }

type CycleDetectedError struct {
	NodeID   models.NodeID
	ParentID models.NodeID
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("moving %s under %s would create a cycle", e.NodeID, e.ParentID)
}
func (e *CycleDetectedError) Is(target error) bool { return target == ErrCycleDetected }

type InvalidDisplayNameError struct {
	Name string
}

func (e *InvalidDisplayNameError) Error() string        { return fmt.Sprintf("invalid display name %q", e.Name) }
func (e *InvalidDisplayNameError) Is(target error) bool { return target == ErrInvalidDisplayName }

// mapAtomError turns a repository not-found into AtomNotFoundError. Everything else passes
// through untouched.
func mapAtomError(id models.AtomID, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &AtomNotFoundError{ID: id}
	}
	return err
}
