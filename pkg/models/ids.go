package models

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// AtomID is a typed ID for atoms
type AtomID struct {
	uuid uuid.UUID
}

func NewAtomID() AtomID {
	return AtomID{uuid: uuid.New()}
}

func NewAtomIDFromUUID(id uuid.UUID) AtomID {
	return AtomID{uuid: id}
}

func ParseAtomID(s string) (AtomID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return AtomID{}, fmt.Errorf("invalid atom ID: %w", err)
	}
	return AtomID{uuid: id}, nil
}

func (a AtomID) UUID() uuid.UUID { return a.uuid }
func (a AtomID) String() string  { return a.uuid.String() }
func (a AtomID) IsZero() bool    { return a.uuid == uuid.Nil }

func (a AtomID) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.uuid.String())
}

func (a *AtomID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, "atom", &a.uuid)
}

// NodeID is a typed ID for workspace tree nodes
type NodeID struct {
	uuid uuid.UUID
}

func NewNodeID() NodeID {
	return NodeID{uuid: uuid.New()}
}

func NewNodeIDFromUUID(id uuid.UUID) NodeID {
	return NodeID{uuid: id}
}

func ParseNodeID(s string) (NodeID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NodeID{}, fmt.Errorf("invalid node ID: %w", err)
	}
	return NodeID{uuid: id}, nil
}

func (n NodeID) UUID() uuid.UUID { return n.uuid }
func (n NodeID) String() string  { return n.uuid.String() }
func (n NodeID) IsZero() bool    { return n.uuid == uuid.Nil }

func (n NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.uuid.String())
}

func (n *NodeID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, "node", &n.uuid)
}

// Helper functions

func unmarshalJSONID(data []byte, what string, target *uuid.UUID) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid %s ID: %w", what, err)
	}
	*target = id
	return nil
}
