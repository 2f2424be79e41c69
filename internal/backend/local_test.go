package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaDevFox/task-systems/taskboard/internal/domain"
	"github.com/DaDevFox/task-systems/taskboard/internal/kvstore"
	"github.com/DaDevFox/task-systems/taskboard/internal/testsupport"
)

const testKey = "tasks"

// failingStore wraps a store and fails writes or reads on demand
type failingStore struct {
	kvstore.Store
	failGet bool
	failSet bool
	sets    int
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet {
		return nil, fmt.Errorf("disk unavailable")
	}
	return f.Store.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	f.sets++
	if f.failSet {
		return fmt.Errorf("quota exceeded")
	}
	return f.Store.Set(ctx, key, value)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func sequentialIDs(ids ...string) func() string {
	next := 0
	return func() string {
		id := ids[next%len(ids)]
		next++
		return id
	}
}

func TestLocalBackend(t *testing.T) {
	engines := []struct {
		name string
		open func(t *testing.T) kvstore.Store
	}{
		{
			name: "Memory",
			open: func(t *testing.T) kvstore.Store { return kvstore.NewMemory() },
		},
		{
			name: "Badger",
			open: func(t *testing.T) kvstore.Store {
				kv, err := kvstore.NewBadgerInMemory(quietLogger())
				require.NoError(t, err)
				return kv
			},
		},
	}

	tests := []struct {
		name string
		test func(*testing.T, kvstore.Store)
	}{
		{"LoadAbsentKey", testLocalLoadAbsentKey},
		{"CreateThenLoad", testLocalCreateThenLoad},
		{"CreateKeepsDraftID", testLocalCreateKeepsDraftID},
		{"CreateRejectsDuplicateID", testLocalCreateRejectsDuplicateID},
		{"CreateRetriesCollidingID", testLocalCreateRetriesCollidingID},
		{"Update", testLocalUpdate},
		{"UpdateUnknownTask", testLocalUpdateUnknownTask},
		{"Delete", testLocalDelete},
		{"DeleteUnknownTask", testLocalDeleteUnknownTask},
		{"StoredFormat", testLocalStoredFormat},
	}

	for _, engine := range engines {
		t.Run(engine.name, func(t *testing.T) {
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					kv := engine.open(t)
					t.Cleanup(func() { kv.Close() })
					tt.test(t, kv)
				})
			}
		})
	}
}

func testLocalLoadAbsentKey(t *testing.T, kv kvstore.Store) {
	local := NewLocal(kv, testKey, WithLocalLogger(quietLogger()))

	tasks, err := local.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func testLocalCreateThenLoad(t *testing.T, kv kvstore.Store) {
	ctx := context.Background()
	local := NewLocal(kv, testKey, WithLocalLogger(quietLogger()), WithIDGenerator(sequentialIDs("a1", "b2")))

	first, err := local.Create(ctx, domain.NewDraft("First", "one"), nil)
	require.NoError(t, err)
	assert.Equal(t, "a1", first.ID)

	second, err := local.Create(ctx, domain.NewDraft("Second", ""), []domain.Task{first})
	require.NoError(t, err)
	assert.Equal(t, "b2", second.ID)

	loaded, err := NewLocal(kv, testKey).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b2"}, testsupport.IDs(loaded))
	assert.Equal(t, "one", loaded[0].Description)
}

func testLocalCreateKeepsDraftID(t *testing.T, kv kvstore.Store) {
	local := NewLocal(kv, testKey, WithLocalLogger(quietLogger()))

	draft := domain.NewDraft("Imported", "")
	draft.ID = "imported-1"

	task, err := local.Create(context.Background(), draft, nil)
	require.NoError(t, err)
	assert.Equal(t, "imported-1", task.ID)
}

func testLocalCreateRejectsDuplicateID(t *testing.T, kv kvstore.Store) {
	ctx := context.Background()
	local := NewLocal(kv, testKey, WithLocalLogger(quietLogger()))
	current := testsupport.BaseTasks()

	draft := domain.NewDraft("Clash", "")
	draft.ID = current[0].ID

	_, err := local.Create(ctx, draft, current)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = kv.Get(ctx, testKey)
	assert.ErrorIs(t, err, kvstore.ErrKeyNotFound, "a rejected create writes nothing")
}

func testLocalCreateRetriesCollidingID(t *testing.T, kv kvstore.Store) {
	local := NewLocal(kv, testKey,
		WithLocalLogger(quietLogger()),
		WithIDGenerator(sequentialIDs("1", "2", "fresh")),
	)

	task, err := local.Create(context.Background(), domain.NewDraft("New", ""), testsupport.BaseTasks())
	require.NoError(t, err)
	assert.Equal(t, "fresh", task.ID)
}

func testLocalUpdate(t *testing.T, kv kvstore.Store) {
	ctx := context.Background()
	local := NewLocal(kv, testKey, WithLocalLogger(quietLogger()))
	current := testsupport.BaseTasks()

	changed := current[1].Clone()
	changed.Title = "Renamed"
	changed.Status = domain.StatusDone

	updated, err := local.Update(ctx, changed, current)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	loaded, err := local.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "Renamed", loaded[1].Title)
	assert.Equal(t, domain.StatusDone, loaded[1].Status)
	assert.Equal(t, "Test Task", loaded[0].Title)

	assert.Equal(t, "Alpha Task", current[1].Title, "the caller's slice is not modified")
}

func testLocalUpdateUnknownTask(t *testing.T, kv kvstore.Store) {
	local := NewLocal(kv, testKey, WithLocalLogger(quietLogger()))

	_, err := local.Update(context.Background(), domain.Task{ID: "missing"}, testsupport.BaseTasks())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func testLocalDelete(t *testing.T, kv kvstore.Store) {
	ctx := context.Background()
	local := NewLocal(kv, testKey, WithLocalLogger(quietLogger()))
	current := testsupport.BaseTasks()

	require.NoError(t, local.Delete(ctx, "2", current))

	loaded, err := local.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, testsupport.IDs(loaded))
	assert.Len(t, current, 3)
}

func testLocalDeleteUnknownTask(t *testing.T, kv kvstore.Store) {
	local := NewLocal(kv, testKey, WithLocalLogger(quietLogger()))

	err := local.Delete(context.Background(), "missing", testsupport.BaseTasks())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func testLocalStoredFormat(t *testing.T, kv kvstore.Store) {
	ctx := context.Background()
	local := NewLocal(kv, testKey, WithLocalLogger(quietLogger()), WithIDGenerator(sequentialIDs("x")))

	draft := domain.NewDraft("Format", "")
	draft.DueDate = testsupport.Date("2025-10-11")
	_, err := local.Create(ctx, draft, nil)
	require.NoError(t, err)

	data, err := kv.Get(ctx, testKey)
	require.NoError(t, err)

	var raw []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "x", raw[0]["id"])
	assert.Equal(t, "todo", raw[0]["status"])
	assert.Equal(t, "medium", raw[0]["priority"])
	assert.Equal(t, "2025-10-11T00:00:00Z", raw[0]["dueDate"])
}

func TestLocalBackendFailures(t *testing.T) {
	tests := []struct {
		name string
		test func(*testing.T)
	}{
		{"MalformedCollection", func(t *testing.T) {
			kv := kvstore.NewMemory()
			require.NoError(t, kv.Set(context.Background(), testKey, []byte("{not an array")))

			_, err := NewLocal(kv, testKey).Load(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to decode task collection")
		}},
		{"NullCollection", func(t *testing.T) {
			kv := kvstore.NewMemory()
			require.NoError(t, kv.Set(context.Background(), testKey, []byte("null")))

			tasks, err := NewLocal(kv, testKey).Load(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, tasks)
			assert.Empty(t, tasks)
		}},
		{"ReadFailure", func(t *testing.T) {
			kv := &failingStore{Store: kvstore.NewMemory(), failGet: true}

			_, err := NewLocal(kv, testKey).Load(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "disk unavailable")
		}},
		{"WriteFailure", func(t *testing.T) {
			ctx := context.Background()
			kv := &failingStore{Store: kvstore.NewMemory(), failSet: true}
			local := NewLocal(kv, testKey, WithLocalLogger(quietLogger()))
			current := testsupport.BaseTasks()

			_, err := local.Create(ctx, domain.NewDraft("x", ""), current)
			assert.ErrorContains(t, err, "quota exceeded")

			_, err = local.Update(ctx, current[0], current)
			assert.ErrorContains(t, err, "quota exceeded")

			err = local.Delete(ctx, current[0].ID, current)
			assert.ErrorContains(t, err, "quota exceeded")

			assert.Equal(t, 3, kv.sets)
		}},
		{"UnknownIDWritesNothing", func(t *testing.T) {
			ctx := context.Background()
			kv := &failingStore{Store: kvstore.NewMemory()}
			local := NewLocal(kv, testKey, WithLocalLogger(quietLogger()))

			_, err := local.Update(ctx, domain.Task{ID: "nope"}, nil)
			assert.ErrorIs(t, err, ErrTaskNotFound)
			assert.ErrorIs(t, local.Delete(ctx, "nope", nil), ErrTaskNotFound)
			assert.Zero(t, kv.sets)
		}},
		{"IDGeneratorExhausted", func(t *testing.T) {
			local := NewLocal(kvstore.NewMemory(), testKey, WithIDGenerator(sequentialIDs("1")))

			_, err := local.Create(context.Background(), domain.NewDraft("x", ""), testsupport.BaseTasks())
			assert.ErrorContains(t, err, "unique task ID")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.test)
	}
}
