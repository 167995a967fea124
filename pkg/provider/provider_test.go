package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WYI1223/LazyLife/pkg/models"
	"github.com/WYI1223/LazyLife/pkg/store/sqlstore"
)

type stubProvider struct {
	id     string
	status Status
}

func newStub(id string) *stubProvider {
	return &stubProvider{id: id, status: Unauthenticated(id)}
}

func (p *stubProvider) ID() string     { return p.id }
func (p *stubProvider) Status() Status { return p.status }

func (p *stubProvider) Auth(context.Context, AuthRequest) (*AuthResult, error) {
	return &AuthResult{State: AuthAuthenticated, Granted: true}, nil
}

func (p *stubProvider) Pull(context.Context, PullRequest) (*PullResult, error) {
	return &PullResult{}, nil
}

func (p *stubProvider) Push(_ context.Context, req PushRequest) (*PushResult, error) {
	return &PushResult{AcceptedCount: len(req.Changes)}, nil
}

func (p *stubProvider) ConflictMap(context.Context, ConflictMapRequest) (*ConflictMapResult, error) {
	return nil, NewErrorEnvelope(p.id, StageConflictMap, "not_supported", "no conflict mapping", false)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newStub("todoist")))
	require.NoError(t, reg.Register(newStub("google_calendar")))

	assert.ErrorIs(t, reg.Register(newStub("todoist")), ErrDuplicateProvider)
	assert.ErrorIs(t, reg.Register(newStub("  ")), ErrInvalidProviderID)

	statuses := reg.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "google_calendar", statuses[0].ProviderID)
	assert.Equal(t, "todoist", statuses[1].ProviderID)
	assert.Equal(t, HealthUnavailable, statuses[0].Health)
	assert.Equal(t, AuthUnauthenticated, statuses[0].AuthState)
	assert.Nil(t, statuses[0].LastSyncAtMS)

	_, ok := reg.Active()
	assert.False(t, ok)
	assert.ErrorIs(t, reg.Select("caldav"), ErrUnknownProvider)
	require.NoError(t, reg.Select("todoist"))
	active, ok := reg.Active()
	require.True(t, ok)
	assert.Equal(t, "todoist", active.ID())

	p, ok := reg.Get("google_calendar")
	require.True(t, ok)
	_, err := p.ConflictMap(context.Background(), ConflictMapRequest{})
	var env *ErrorEnvelope
	require.ErrorAs(t, err, &env)
	assert.Equal(t, StageConflictMap, env.Stage)
}

func TestErrorEnvelopeTrims(t *testing.T) {
	env := NewErrorEnvelope(" gcal ", StagePull, " rate_limited ", "  slow down ", true)
	assert.Equal(t, "gcal", env.ProviderID)
	assert.Equal(t, "rate_limited", env.Code)
	assert.Equal(t, "slow down", env.Message)
	assert.True(t, env.Retriable)
}

func TestSyncSummaryDuration(t *testing.T) {
	assert.Equal(t, int64(250), SyncSummary{StartedAtMS: 1000, FinishedAtMS: 1250}.DurationMS())
	assert.Zero(t, SyncSummary{StartedAtMS: 2000, FinishedAtMS: 1000}.DurationMS())

	failed := FailedSummary(" gcal ", 10, 20, " auth_expired ")
	assert.Equal(t, "gcal", failed.ProviderID)
	require.NotNil(t, failed.ErrorCode)
	assert.Equal(t, "auth_expired", *failed.ErrorCode)
}

func TestProjectPushChange(t *testing.T) {
	task := models.NewAtom(models.AtomKindTask, "pay rent")
	change, ok, err := ProjectPushChange(task)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, EntityTask, change.EntityKind)
	assert.Equal(t, OperationUpsert, change.Operation)
	assert.Equal(t, task.ID.String(), change.AtomID)
	assert.Len(t, change.PayloadHash, 64)

	start, end := int64(100), int64(200)
	event := models.NewAtom(models.AtomKindEvent, "dentist")
	event.StartAt, event.EndAt = &start, &end
	event.IsDeleted = true
	change, ok, err = ProjectPushChange(event)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, EntityEvent, change.EntityKind)
	assert.Equal(t, OperationDelete, change.Operation)

	_, ok, err = ProjectPushChange(models.NewAtom(models.AtomKindNote, "journal"))
	require.NoError(t, err)
	assert.False(t, ok)

	req, err := ProjectPushRequest([]*models.Atom{task, models.NewAtom(models.AtomKindNote, "x"), event})
	require.NoError(t, err)
	assert.Len(t, req.Changes, 2)
}

func TestPayloadHash(t *testing.T) {
	a := models.NewAtom(models.AtomKindTask, "buy milk")
	b := a.Clone()
	b.ID = models.NewAtomID()
	b.PreviewText = models.Ptr("milk")

	ha, err := PayloadHash(a)
	require.NoError(t, err)
	hb, err := PayloadHash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	b.TaskStatus = models.Ptr(models.TaskStatusDone)
	hc, err := PayloadHash(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}

func TestAcceptPulled(t *testing.T) {
	ctx := context.Background()
	db, err := sqlstore.OpenInMemory(ctx, sqlstore.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	repo, err := sqlstore.NewAtomRepository(ctx, db)
	require.NoError(t, err)

	existing := models.NewAtom(models.AtomKindTask, "old title")
	_, err = repo.Create(ctx, existing)
	require.NoError(t, err)
	tombstoned := models.NewAtom(models.AtomKindTask, "removed here")
	_, err = repo.Create(ctx, tombstoned)
	require.NoError(t, err)
	require.NoError(t, repo.SoftDelete(ctx, tombstoned.ID))

	renamed := existing.Clone()
	renamed.Content = "new title"
	fresh := models.NewAtom(models.AtomKindEvent, "offsite")
	fresh.StartAt, fresh.EndAt = models.Ptr(int64(10)), models.Ptr(int64(20))
	badWindow := models.NewAtom(models.AtomKindEvent, "backwards")
	badWindow.StartAt, badWindow.EndAt = models.Ptr(int64(20)), models.Ptr(int64(10))
	remoteTombstone := tombstoned.Clone()
	remoteTombstone.IsDeleted = false

	res, err := AcceptPulled(ctx, repo, []*models.Atom{renamed, fresh, badWindow, remoteTombstone})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Replaced)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, badWindow.ID, res.Rejected[0].AtomID)
	assert.ErrorIs(t, res.Rejected[0].Err, models.ErrValidation)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, ConflictDeletedLocally, res.Conflicts[0].Reason)

	got, err := repo.Get(ctx, existing.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Content)

	got, err = repo.Get(ctx, badWindow.ID, true)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.Get(ctx, tombstoned.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
}
