package store

import (
	"context"

	"github.com/WYI1223/LazyLife/pkg/models"
)

// ReadOnlyAtomRepository wraps an AtomRepository and rejects writes while read-only mode is on.
//
// The read-only state is queried on every call through isReadOnly, so the application can
// toggle it (for instance while a schema migration or a sync pull is applied) without
// rebuilding the repository. Reads always pass through.
type ReadOnlyAtomRepository struct {
	AtomRepository
	isReadOnly func() bool
}

// NewReadOnlyAtomRepository creates a new read-only wrapper for an atom repository
func NewReadOnlyAtomRepository(repo AtomRepository, isReadOnly func() bool) *ReadOnlyAtomRepository {
	return &ReadOnlyAtomRepository{AtomRepository: repo, isReadOnly: isReadOnly}
}

// Unwrap returns the underlying repository
func (r *ReadOnlyAtomRepository) Unwrap() AtomRepository {
	return r.AtomRepository
}

func (r *ReadOnlyAtomRepository) Create(ctx context.Context, atom *models.Atom) (models.AtomID, error) {
	if err := checkReadOnly(r.isReadOnly); err != nil {
		return models.AtomID{}, err
	}
	return r.AtomRepository.Create(ctx, atom)
}

func (r *ReadOnlyAtomRepository) Update(ctx context.Context, atom *models.Atom) error {
	if err := checkReadOnly(r.isReadOnly); err != nil {
		return err
	}
	return r.AtomRepository.Update(ctx, atom)
}

func (r *ReadOnlyAtomRepository) SoftDelete(ctx context.Context, id models.AtomID) error {
	if err := checkReadOnly(r.isReadOnly); err != nil {
		return err
	}
	return r.AtomRepository.SoftDelete(ctx, id)
}

func (r *ReadOnlyAtomRepository) UpdateStatus(ctx context.Context, id models.AtomID, status *models.TaskStatus) error {
	if err := checkReadOnly(r.isReadOnly); err != nil {
		return err
	}
	return r.AtomRepository.UpdateStatus(ctx, id, status)
}

func (r *ReadOnlyAtomRepository) UpdateEventTimes(ctx context.Context, id models.AtomID, startAt, endAt *int64) error {
	if err := checkReadOnly(r.isReadOnly); err != nil {
		return err
	}
	return r.AtomRepository.UpdateEventTimes(ctx, id, startAt, endAt)
}

// ReadOnlyTagStore rejects tag writes while read-only mode is on.
type ReadOnlyTagStore struct {
	TagStore
	isReadOnly func() bool
}

func NewReadOnlyTagStore(tags TagStore, isReadOnly func() bool) *ReadOnlyTagStore {
	return &ReadOnlyTagStore{TagStore: tags, isReadOnly: isReadOnly}
}

func (r *ReadOnlyTagStore) SetTags(ctx context.Context, id models.AtomID, tags []string) error {
	if err := checkReadOnly(r.isReadOnly); err != nil {
		return err
	}
	return r.TagStore.SetTags(ctx, id, tags)
}

// ReadOnlyTreeRepository refuses to open write transactions while read-only mode is on.
type ReadOnlyTreeRepository struct {
	TreeRepository
	isReadOnly func() bool
}

func NewReadOnlyTreeRepository(repo TreeRepository, isReadOnly func() bool) *ReadOnlyTreeRepository {
	return &ReadOnlyTreeRepository{TreeRepository: repo, isReadOnly: isReadOnly}
}

func (r *ReadOnlyTreeRepository) InTx(ctx context.Context, fn func(tx TreeTx) error) error {
	if err := checkReadOnly(r.isReadOnly); err != nil {
		return err
	}
	return r.TreeRepository.InTx(ctx, fn)
}

func checkReadOnly(isReadOnly func() bool) error {
	if isReadOnly != nil && isReadOnly() {
		return ErrReadOnly
	}
	return nil
}
