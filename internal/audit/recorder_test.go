package audit_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/hrm/internal/audit"
	"github.com/gosuda/hrm/internal/domain"
)

type memAppender struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	err     error
	ctxErr  error
}

func (m *memAppender) Append(ctx context.Context, e *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctxErr = ctx.Err()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *e)
	return nil
}

type memPublisher struct {
	mu   sync.Mutex
	got  []string
	fail bool
}

func (m *memPublisher) PublishActivity(_ context.Context, e *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("redis: connection refused")
	}
	m.got = append(m.got, e.ID)
	return nil
}

func int64Ptr(v int64) *int64 { return &v }

func TestRecord_StampsAndPublishes(t *testing.T) {
	t.Parallel()

	store := &memAppender{}
	pub := &memPublisher{}
	reg := prometheus.NewRegistry()
	rec := audit.NewRecorder(store, pub, reg)

	ctx := audit.WithOrigin(context.Background(), audit.Origin{IP: "10.0.0.7", UserAgent: "curl/8"})
	rec.Record(ctx, domain.AuditEntry{
		ActorID:    int64Ptr(1),
		CompanyID:  int64Ptr(3),
		Action:     domain.ActionUpdate,
		EntityType: domain.EntityEmployee,
		EntityID:   int64Ptr(42),
		OldValues:  map[string]any{"department": "Ops", "national_id_enc": "abc"},
		NewValues:  map[string]any{"department": "Finance"},
	})

	require.Len(t, store.entries, 1)
	got := store.entries[0]
	assert.Len(t, got.ID, 26, "ULID")
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, "10.0.0.7", got.IPAddress)
	assert.Equal(t, "curl/8", got.UserAgent)
	assert.Equal(t, "[REDACTED]", got.OldValues["national_id_enc"])
	assert.Equal(t, "Finance", got.NewValues["department"])

	assert.Equal(t, []string{got.ID}, pub.got)
	assert.InDelta(t, 1, testutil.ToFloat64(rec.Counter(domain.ActionUpdate)), 0)
}

func TestRecord_FailureIsSwallowedAndCounted(t *testing.T) {
	t.Parallel()

	store := &memAppender{err: errors.New("pg: relation audit_log does not exist")}
	pub := &memPublisher{}
	rec := audit.NewRecorder(store, pub, nil)

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), domain.AuditEntry{Action: domain.ActionDelete, EntityType: domain.EntityEmployee})
	})

	assert.Empty(t, pub.got, "failed entries are not published")
	assert.InDelta(t, 1, testutil.ToFloat64(rec.Failures()), 0)
}

func TestRecord_PublishFailureDoesNotAffectAppend(t *testing.T) {
	t.Parallel()

	store := &memAppender{}
	rec := audit.NewRecorder(store, &memPublisher{fail: true}, nil)

	rec.Record(context.Background(), domain.AuditEntry{Action: domain.ActionCreate})
	assert.Len(t, store.entries, 1)
	assert.Zero(t, testutil.ToFloat64(rec.Failures()))
}

func TestRecord_SurvivesCanceledRequestContext(t *testing.T) {
	t.Parallel()

	store := &memAppender{}
	rec := audit.NewRecorder(store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec.Record(ctx, domain.AuditEntry{Action: domain.ActionLogout})
	require.Len(t, store.entries, 1)
	assert.NoError(t, store.ctxErr)
}

func TestRecord_IDsFollowRecordingOrder(t *testing.T) {
	t.Parallel()

	store := &memAppender{}
	rec := audit.NewRecorder(store, nil, nil)

	for i := range 50 {
		rec.Record(context.Background(), domain.AuditEntry{
			Action:        domain.ActionUpdate,
			EntityType:    domain.EntityEmployee,
			EntityID:      int64Ptr(42),
			EntityVersion: int64(i + 1),
		})
	}

	ids := make([]string, 0, len(store.entries))
	for _, e := range store.entries {
		ids = append(ids, e.ID)
	}
	assert.True(t, sort.StringsAreSorted(ids), "ULIDs must sort in recording order")
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"name":             "Asha",
		"password":         "hunter22",
		"bank_account_enc": "Zm9v",
		"national_id":      "",
		"nested":           map[string]any{"token": "t0k", "ok": true},
	}
	out := audit.Sanitize(in)

	assert.Equal(t, "Asha", out["name"])
	assert.Equal(t, "[REDACTED]", out["password"])
	assert.Equal(t, "[REDACTED]", out["bank_account_enc"])
	assert.Equal(t, "", out["national_id"], "empty values stay empty")
	nested, ok := out["nested"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "[REDACTED]", nested["token"])
	assert.Equal(t, true, nested["ok"])

	assert.Equal(t, "hunter22", in["password"], "input must not be modified")
	assert.Nil(t, audit.Sanitize(nil))
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	type view struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	}

	m := audit.Snapshot(view{Name: "Asha", Status: "ACTIVE"})
	assert.Equal(t, map[string]any{"name": "Asha", "status": "ACTIVE"}, m)
	assert.Nil(t, audit.Snapshot(nil))
	assert.Nil(t, audit.Snapshot([]int{1, 2}))
}
