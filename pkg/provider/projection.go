package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/store"
)

var hashEncMode cbor.EncMode

var errMissingID = errors.New("pulled atom has no id")

func init() {
	var err error
	hashEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// payload holds the atom fields a provider can observe. Keys are integers so the encoding
// stays stable when Go field names change.
type payload struct {
	Kind           string  `cbor:"1,keyasint"`
	Content        string  `cbor:"2,keyasint"`
	TaskStatus     *string `cbor:"3,keyasint,omitempty"`
	StartAt        *int64  `cbor:"4,keyasint,omitempty"`
	EndAt          *int64  `cbor:"5,keyasint,omitempty"`
	RecurrenceRule *string `cbor:"6,keyasint,omitempty"`
	IsDeleted      bool    `cbor:"7,keyasint"`
}

// PayloadHash returns the hex SHA-256 of the deterministic CBOR encoding of the atom's
// syncable fields. Equal atoms hash equally regardless of id or preview fields.
func PayloadHash(atom *models.Atom) (string, error) {
	p := payload{
		Kind:           string(atom.Kind),
		Content:        atom.Content,
		StartAt:        atom.StartAt,
		EndAt:          atom.EndAt,
		RecurrenceRule: atom.RecurrenceRule,
		IsDeleted:      atom.IsDeleted,
	}
	if atom.TaskStatus != nil {
		s := string(*atom.TaskStatus)
		p.TaskStatus = &s
	}
	data, err := hashEncMode.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode atom payload: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ProjectPushChange maps an atom to the change a provider receives. Notes are not synced and
// report ok=false.
func ProjectPushChange(atom *models.Atom) (change PushChange, ok bool, err error) {
	var kind EntityKind
	switch atom.Kind {
	case models.AtomKindTask:
		kind = EntityTask
	case models.AtomKindEvent:
		kind = EntityEvent
	default:
		return PushChange{}, false, nil
	}

	op := OperationUpsert
	if atom.IsDeleted {
		op = OperationDelete
	}
	hash, err := PayloadHash(atom)
	if err != nil {
		return PushChange{}, false, err
	}
	return PushChange{
		AtomID:      atom.ID.String(),
		EntityKind:  kind,
		Operation:   op,
		PayloadHash: hash,
	}, true, nil
}

// ProjectPushRequest projects every syncable atom, in order.
func ProjectPushRequest(atoms []*models.Atom) (PushRequest, error) {
	req := PushRequest{Changes: []PushChange{}}
	for _, atom := range atoms {
		change, ok, err := ProjectPushChange(atom)
		if err != nil {
			return PushRequest{}, err
		}
		if ok {
			req.Changes = append(req.Changes, change)
		}
	}
	return req, nil
}

// Rejection reports one pulled atom that was not written.
type Rejection struct {
	AtomID  models.AtomID `json:"atom_uuid"`
	Message string        `json:"message"`
	Err     error         `json:"-"`
}

func reject(id models.AtomID, err error) Rejection {
	return Rejection{AtomID: id, Message: err.Error(), Err: err}
}

type AcceptResult struct {
	Created   int         `json:"created"`
	Replaced  int         `json:"replaced"`
	Rejected  []Rejection `json:"rejected"`
	Conflicts []Conflict  `json:"conflicts"`
}

// AcceptPulled writes atoms received from a provider. Every atom is validated before the first
// write and invalid atoms are rejected without touching the store. Valid atoms are created or
// fully replaced; an atom that is soft-deleted locally is reported as a conflict instead.
func AcceptPulled(ctx context.Context, repo store.AtomRepository, atoms []*models.Atom) (*AcceptResult, error) {
	res := &AcceptResult{Rejected: []Rejection{}, Conflicts: []Conflict{}}

	valid := make([]*models.Atom, 0, len(atoms))
	for _, atom := range atoms {
		if atom.ID.IsZero() {
			res.Rejected = append(res.Rejected, reject(atom.ID, errMissingID))
			continue
		}
		if err := atom.Validate(); err != nil {
			res.Rejected = append(res.Rejected, reject(atom.ID, err))
			continue
		}
		valid = append(valid, atom)
	}

	for _, atom := range valid {
		existing, err := repo.Get(ctx, atom.ID, true)
		if err != nil {
			return res, err
		}
		switch {
		case existing == nil:
			if _, err := repo.Create(ctx, atom.Clone()); err != nil {
				return res, err
			}
			res.Created++
		case existing.IsDeleted:
			res.Conflicts = append(res.Conflicts, Conflict{AtomID: atom.ID.String(), Reason: ConflictDeletedLocally})
		default:
			if err := repo.Update(ctx, atom); err != nil {
				return res, err
			}
			res.Replaced++
		}
	}
	return res, nil
}
