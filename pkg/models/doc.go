// Package models defines the domain records of LazyLife.
//
// Two record types make up the core:
//
//   - Atom is the universal content unit. A note, a task and a calendar event are all atoms;
//     they differ only in Kind and in which of the optional fields are populated. Scheduling
//     lives in the StartAt/EndAt pair (epoch milliseconds), and a TaskStatus may be attached to
//     any kind of atom.
//   - WorkspaceNode is an entry of the workspace tree. Folders group other nodes, and NoteRef
//     nodes point at a note atom by id.
//
// Identifiers are typed wrappers around UUIDs so that an atom id can never be passed where a
// node id is expected. Both id types know how to travel through JSON, CBOR and database/sql.
//
// Validation is pure: Atom.Validate inspects the record and reports the first structural
// problem it finds without touching storage. Storage adapters run it before every write and
// after every read that rebuilds an atom from a row.
package models
