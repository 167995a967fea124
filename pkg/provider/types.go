// Package provider declares the boundary between the note core and external sync providers
// (calendars, task services). It carries no provider implementation: only the request and
// response shapes, a registry, and the projections between atoms and provider records.
package provider

import (
	"fmt"
	"strings"
)

type Stage string

const (
	StageAuth        Stage = "auth"
	StagePull        Stage = "pull"
	StagePush        Stage = "push"
	StageConflictMap Stage = "conflict_map"
)

type Health string

const (
	HealthHealthy     Health = "healthy"
	HealthDegraded    Health = "degraded"
	HealthUnavailable Health = "unavailable"
)

type AuthState string

const (
	AuthUnauthenticated AuthState = "unauthenticated"
	AuthAuthenticating  AuthState = "authenticating"
	AuthAuthenticated   AuthState = "authenticated"
	AuthExpired         AuthState = "expired"
)

// Status is a snapshot of a provider. It holds no credentials or content.
type Status struct {
	ProviderID   string    `json:"provider_id"`
	Health       Health    `json:"health"`
	AuthState    AuthState `json:"auth_state"`
	LastSyncAtMS *int64    `json:"last_sync_at_ms,omitempty"`
}

// Unauthenticated is the status of a provider that has never connected.
func Unauthenticated(providerID string) Status {
	return Status{
		ProviderID: providerID,
		Health:     HealthUnavailable,
		AuthState:  AuthUnauthenticated,
	}
}

// ErrorEnvelope is the error every provider operation fails with.
type ErrorEnvelope struct {
	ProviderID string `json:"provider_id"`
	Stage      Stage  `json:"stage"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Retriable  bool   `json:"retriable"`
}

func NewErrorEnvelope(providerID string, stage Stage, code, message string, retriable bool) *ErrorEnvelope {
	return &ErrorEnvelope{
		ProviderID: strings.TrimSpace(providerID),
		Stage:      stage,
		Code:       strings.TrimSpace(code),
		Message:    strings.TrimSpace(message),
		Retriable:  retriable,
	}
}

func (e *ErrorEnvelope) Error() string {
	return fmt.Sprintf("provider %s failed at %s: %s: %s", e.ProviderID, e.Stage, e.Code, e.Message)
}

type AuthRequest struct {
	Interactive bool     `json:"interactive"`
	Scopes      []string `json:"scopes"`
}

type AuthResult struct {
	State       AuthState `json:"state"`
	Granted     bool      `json:"granted"`
	ExpiresAtMS *int64    `json:"expires_at_ms,omitempty"`
}

type PullRequest struct {
	Cursor *string `json:"cursor,omitempty"`
	Limit  int     `json:"limit"`
}

// EntityKind is the kind of record a provider syncs. Notes have no provider counterpart.
type EntityKind string

const (
	EntityTask  EntityKind = "task"
	EntityEvent EntityKind = "event"
)

// Record is the remote side of a synced atom.
type Record struct {
	ExternalID  string     `json:"external_id"`
	EntityKind  EntityKind `json:"entity_kind"`
	UpdatedAtMS int64      `json:"updated_at_ms"`
	PayloadHash *string    `json:"payload_hash,omitempty"`
}

type PullResult struct {
	Records    []Record `json:"records"`
	NextCursor *string  `json:"next_cursor,omitempty"`
	HasMore    bool     `json:"has_more"`
}

type Operation string

const (
	OperationUpsert Operation = "upsert"
	OperationDelete Operation = "delete"
)

// PushChange is one local change offered to a provider.
type PushChange struct {
	AtomID       string     `json:"atom_uuid"`
	EntityKind   EntityKind `json:"entity_kind"`
	Operation    Operation  `json:"operation"`
	ExternalID   *string    `json:"external_id,omitempty"`
	LocalVersion *int64     `json:"local_version,omitempty"`
	PayloadHash  string     `json:"payload_hash"`
}

type PushRequest struct {
	Changes []PushChange `json:"changes"`
}

type ConflictReason string

const (
	ConflictVersionMismatch ConflictReason = "version_mismatch"
	ConflictDeletedRemotely ConflictReason = "deleted_remotely"
	ConflictDeletedLocally  ConflictReason = "deleted_locally"
	ConflictUnknown         ConflictReason = "unknown"
)

type Conflict struct {
	AtomID     string         `json:"atom_uuid"`
	ExternalID *string        `json:"external_id,omitempty"`
	Reason     ConflictReason `json:"reason"`
}

type PushResult struct {
	AcceptedCount      int        `json:"accepted_count"`
	FailedCount        int        `json:"failed_count"`
	ConflictCandidates []Conflict `json:"conflict_candidates"`
}

type Resolution string

const (
	ResolutionKeepLocal   Resolution = "keep_local"
	ResolutionKeepRemote  Resolution = "keep_remote"
	ResolutionManualMerge Resolution = "manual_merge"
)

type ConflictDecision struct {
	AtomID     string     `json:"atom_uuid"`
	Resolution Resolution `json:"resolution"`
}

type ConflictMapRequest struct {
	Conflicts []Conflict `json:"conflicts"`
}

type ConflictMapResult struct {
	Decisions []ConflictDecision `json:"decisions"`
}

// SyncSummary describes one sync run. It never carries content.
type SyncSummary struct {
	ProviderID        string  `json:"provider_id"`
	StartedAtMS       int64   `json:"started_at_ms"`
	FinishedAtMS      int64   `json:"finished_at_ms"`
	PulledRecords     int     `json:"pulled_records"`
	PushedChanges     int     `json:"pushed_changes"`
	ConflictsDetected int     `json:"conflicts_detected"`
	ConflictsResolved int     `json:"conflicts_resolved"`
	ErrorCode         *string `json:"error_code,omitempty"`
}

func FailedSummary(providerID string, startedAtMS, finishedAtMS int64, code string) SyncSummary {
	code = strings.TrimSpace(code)
	return SyncSummary{
		ProviderID:   strings.TrimSpace(providerID),
		StartedAtMS:  startedAtMS,
		FinishedAtMS: finishedAtMS,
		ErrorCode:    &code,
	}
}

// DurationMS is clamped at zero so a clock step back never yields a negative duration.
func (s SyncSummary) DurationMS() int64 {
	return max(s.FinishedAtMS-s.StartedAtMS, 0)
}
