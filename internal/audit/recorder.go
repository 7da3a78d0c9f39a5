// Package audit appends change records after a mutation has committed.
//
// Recording is best-effort: a failed append is logged and counted but never
// returned to the caller, so the business result of a request does not
// depend on the audit trail being writable.
package audit

import (
	"context"
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/hrm/internal/domain"
)

const appendTimeout = 5 * time.Second

// Appender persists audit entries.
type Appender interface {
	Append(ctx context.Context, e *domain.AuditEntry) error
}

// Publisher fans recorded entries out to live subscribers.
type Publisher interface {
	PublishActivity(ctx context.Context, e *domain.AuditEntry) error
}

// Recorder writes audit entries.
type Recorder struct {
	store Appender
	pub   Publisher // optional
	now   func() time.Time

	mu      sync.Mutex
	entropy io.Reader

	recorded *prometheus.CounterVec
	failures prometheus.Counter
}

// NewRecorder creates a Recorder. pub and reg may be nil.
func NewRecorder(store Appender, pub Publisher, reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		store:   store,
		pub:     pub,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
		recorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hrm_audit_entries_total",
			Help: "Audit entries appended, by action.",
		}, []string{"action"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hrm_audit_record_failures_total",
			Help: "Audit entries that could not be appended.",
		}),
	}
	if reg != nil {
		reg.MustRegister(r.recorded, r.failures)
	}
	return r
}

// Record stamps and appends e. It never fails from the caller's point of
// view. The append runs on a context detached from request cancellation so
// a client hanging up after the commit does not drop the entry.
func (r *Recorder) Record(ctx context.Context, e domain.AuditEntry) {
	now := r.now().UTC()
	e.ID = r.newID(now)
	e.CreatedAt = now

	if e.IPAddress == "" && e.UserAgent == "" {
		o := OriginFromContext(ctx)
		e.IPAddress, e.UserAgent = o.IP, o.UserAgent
	}
	e.OldValues = Sanitize(e.OldValues)
	e.NewValues = Sanitize(e.NewValues)

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), appendTimeout)
	defer cancel()

	if err := r.store.Append(actx, &e); err != nil {
		r.failures.Inc()
		ev := log.Error().Err(err).
			Str("audit_id", e.ID).
			Str("action", string(e.Action)).
			Str("entity_type", e.EntityType)
		if e.EntityID != nil {
			ev = ev.Int64("entity_id", *e.EntityID)
		}
		ev.Msg("audit: append failed")
		return
	}
	r.recorded.WithLabelValues(string(e.Action)).Inc()

	if r.pub == nil {
		return
	}
	if err := r.pub.PublishActivity(actx, &e); err != nil {
		log.Warn().Err(err).Str("audit_id", e.ID).Msg("audit: publish failed")
	}
}

// Counter returns the appended-entries counter for one action.
func (r *Recorder) Counter(a domain.AuditAction) prometheus.Counter {
	return r.recorded.WithLabelValues(string(a))
}

// Failures returns the append failure counter.
func (r *Recorder) Failures() prometheus.Counter {
	return r.failures
}

func (r *Recorder) newID(at time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), r.entropy).String()
}
