package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulexconde/formdeck/internal/logger"
	"github.com/paulexconde/formdeck/internal/pkg/store"
	"github.com/paulexconde/formdeck/internal/pkg/workerpool"
)

type fakeRevisionStore struct {
	mu       sync.Mutex
	failures int
	inserted []Revision
}

func (f *fakeRevisionStore) Insert(ctx context.Context, id string, model any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	f.inserted = append(f.inserted, *model.(*Revision))
	return nil
}

func (f *fakeRevisionStore) Update(ctx context.Context, id string, model any) error { return nil }
func (f *fakeRevisionStore) Delete(ctx context.Context, id string) error            { return nil }
func (f *fakeRevisionStore) Get(ctx context.Context, query string, args ...any) (*Revision, error) {
	return nil, nil
}
func (f *fakeRevisionStore) Select(ctx context.Context, query string, args ...any) ([]Revision, error) {
	return nil, nil
}
func (f *fakeRevisionStore) Count(ctx context.Context, query string, args ...any) (int, error) {
	return 0, nil
}
func (f *fakeRevisionStore) SetHooks(hooks store.Hooks) {}
func (f *fakeRevisionStore) Base() *sqlx.DB             { return nil }

func (f *fakeRevisionStore) snapshot() []Revision {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Revision, len(f.inserted))
	copy(out, f.inserted)
	return out
}

func TestRecorderPersistsRevision(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := &fakeRevisionStore{}
	pool := workerpool.NewWorkerPool(ctx, logger.NewNop(), 1, 8)
	recorder := NewRecorder(fake, pool, logger.NewNop())

	occurred := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recorder.Record(Event{
		RecordKind: KindPage,
		RecordID:   "p1",
		FormID:     "f1",
		Action:     store.ActionUpdate,
		Object:     map[string]string{"question_text": "What is your name?"},
		OccurredAt: occurred,
	})

	require.Eventually(t, func() bool {
		return len(fake.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)

	rev := fake.snapshot()[0]
	assert.NotEmpty(t, rev.ID)
	assert.Equal(t, KindPage, rev.RecordKind)
	assert.Equal(t, "p1", rev.RecordID)
	assert.Equal(t, "f1", rev.FormID)
	assert.Equal(t, string(store.ActionUpdate), rev.Action)
	assert.Equal(t, occurred, rev.CreatedAt)
	assert.JSONEq(t, `{"question_text": "What is your name?"}`, string(rev.Object))
}

func TestRecorderRetriesTransientFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := &fakeRevisionStore{failures: 1}
	pool := workerpool.NewWorkerPool(ctx, logger.NewNop(), 1, 8)
	recorder := NewRecorder(fake, pool, logger.NewNop())

	recorder.Record(Event{
		RecordKind: KindForm,
		RecordID:   "f1",
		FormID:     "f1",
		Action:     store.ActionUpdate,
	})

	require.Eventually(t, func() bool {
		return len(fake.snapshot()) == 1
	}, 3*time.Second, 25*time.Millisecond)
}

func TestHookForBuildsEventFromModel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := &fakeRevisionStore{}
	pool := workerpool.NewWorkerPool(ctx, logger.NewNop(), 1, 8)
	recorder := NewRecorder(fake, pool, logger.NewNop())

	type record struct {
		FormID string `json:"form_id"`
	}
	hook := HookFor(recorder, KindForm, func(model any) string {
		return model.(*record).FormID
	})

	hook(context.Background(), store.ActionCreate, "f1", &record{FormID: "f1"})

	require.Eventually(t, func() bool {
		return len(fake.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)

	rev := fake.snapshot()[0]
	assert.Equal(t, KindForm, rev.RecordKind)
	assert.Equal(t, "f1", rev.FormID)
	assert.Equal(t, string(store.ActionCreate), rev.Action)
}
