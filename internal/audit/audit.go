// Package audit keeps an append-only trail of every committed mutation to
// forms, pages and routing conditions. It is independent of the made-live
// snapshot mechanism: revisions record who changed what and when, not
// what was published.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/paulexconde/formdeck/internal/logger"
	"github.com/paulexconde/formdeck/internal/pkg/store"
	"github.com/paulexconde/formdeck/internal/pkg/workerpool"
)

// Record kinds.
const (
	KindForm             = "form"
	KindPage             = "page"
	KindRoutingCondition = "routing_condition"
	KindMadeLiveForm     = "made_live_form"
)

// Revision inserts ride the worker pool; transient database errors are
// retried before an event is given up on.
const (
	persistRetries    = 3
	persistRetryDelay = 200 * time.Millisecond
)

// Event is one committed mutation as observed by the aggregate or the
// datastore after-commit hooks.
type Event struct {
	RecordKind string
	RecordID   string
	FormID     string
	Action     store.Action
	Actor      string
	Object     any
	OccurredAt time.Time
}

// Revision is the persisted form of an Event.
type Revision struct {
	ID         string         `db:"id" json:"id"`
	RecordKind string         `db:"record_kind" json:"record_kind"`
	RecordID   string         `db:"record_id" json:"record_id"`
	FormID     string         `db:"form_id" json:"form_id"`
	Action     string         `db:"action" json:"action"`
	Actor      string         `db:"actor" json:"actor"`
	Object     types.JSONText `db:"object" json:"object,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// Sink accepts mutation events. The aggregate services depend on this
// rather than on the recorder so tests can capture events in memory.
type Sink interface {
	Record(ev Event)
}

// Recorder writes revisions through the worker pool so request handling
// never waits on the audit trail.
type Recorder struct {
	ds   store.Datastorer[Revision]
	pool *workerpool.WorkerPool
	log  *logger.Logger
}

func NewRecorder(ds store.Datastorer[Revision], pool *workerpool.WorkerPool, log *logger.Logger) *Recorder {
	return &Recorder{
		ds:   ds,
		pool: pool,
		log:  log.With("component", "audit"),
	}
}

func (r *Recorder) Record(ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	object, err := json.Marshal(ev.Object)
	if err != nil {
		r.log.Error("marshal revision object", "record_id", ev.RecordID, "error", err)
		object = []byte("null")
	}

	rev := Revision{
		ID:         uuid.NewString(),
		RecordKind: ev.RecordKind,
		RecordID:   ev.RecordID,
		FormID:     ev.FormID,
		Action:     string(ev.Action),
		Actor:      ev.Actor,
		Object:     types.JSONText(object),
		CreatedAt:  ev.OccurredAt,
	}

	r.pool.Submit(workerpool.WithRetry(r.log, persistRetries, persistRetryDelay, func(ctx context.Context) error {
		return r.ds.Insert(ctx, rev.ID, &rev)
	}))
}

// ListByRecord returns the ordered revision history of one record.
func (r *Recorder) ListByRecord(ctx context.Context, recordID string) ([]Revision, error) {
	query := "SELECT * FROM " + store.TableRevisions + " WHERE record_id = $1 ORDER BY created_at ASC"
	return r.ds.Select(ctx, query, recordID)
}

// ListByForm returns every revision touching the form or its children.
func (r *Recorder) ListByForm(ctx context.Context, formID string) ([]Revision, error) {
	query := "SELECT * FROM " + store.TableRevisions + " WHERE form_id = $1 ORDER BY created_at ASC"
	return r.ds.Select(ctx, query, formID)
}

// HookFor adapts the sink into a datastore after-commit hook for records
// of one kind. formIDOf extracts the owning form id from the model; for
// form records themselves the record id is the form id, which also covers
// deletes where no model is available.
func HookFor(sink Sink, kind string, formIDOf func(model any) string) func(ctx context.Context, action store.Action, id string, model any) {
	return func(_ context.Context, action store.Action, id string, model any) {
		formID := ""
		if model != nil && formIDOf != nil {
			formID = formIDOf(model)
		}
		if formID == "" && kind == KindForm {
			formID = id
		}
		sink.Record(Event{
			RecordKind: kind,
			RecordID:   id,
			FormID:     formID,
			Action:     action,
			Object:     model,
		})
	}
}
