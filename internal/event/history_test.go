package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskweave/taskweave/internal/testutil"
)

var historyEpoch = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

// emitSequence emits each named event and advances the clock one second
// between emits so every record has a distinct timestamp.
func emitSequence(t *testing.T, d *Dispatcher, clock *testutil.ManualClock, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, d.Emit(n, nil))
		clock.Advance(time.Second)
	}
}

func TestHistory_RecordsAllEmits(t *testing.T) {
	clock := testutil.NewManualClock(historyEpoch)
	d := newTestDispatcher(t, WithDispatcherClock(clock))
	d.RegisterNamespace("todo")

	emitSequence(t, d, clock, "todo:created", "todo:completed")

	records, err := d.History(HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "todo:created", records[0].Event.String())
	assert.Equal(t, "todo:completed", records[1].Event.String())
	assert.Equal(t, historyEpoch, records[0].Timestamp)
	assert.Equal(t, historyEpoch.Add(time.Second), records[1].Timestamp)
}

func TestHistory_BoundedEvictsOldest(t *testing.T) {
	clock := testutil.NewManualClock(historyEpoch)
	d := newTestDispatcher(t, WithDispatcherClock(clock), WithHistoryCapacity(3))
	d.RegisterNamespace("n")

	emitSequence(t, d, clock, "n:e1", "n:e2", "n:e3", "n:e4", "n:e5")

	records, err := d.History(HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "n:e3", records[0].Event.String())
	assert.Equal(t, "n:e4", records[1].Event.String())
	assert.Equal(t, "n:e5", records[2].Event.String())
}

func TestHistory_FilterByExactPattern(t *testing.T) {
	clock := testutil.NewManualClock(historyEpoch)
	d := newTestDispatcher(t, WithDispatcherClock(clock))
	d.RegisterNamespace("todo")
	d.RegisterNamespace("auth")

	emitSequence(t, d, clock, "todo:created", "auth:login", "todo:created")

	records, err := d.History(HistoryQuery{Pattern: "todo:created"})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestHistory_FilterByWildcard(t *testing.T) {
	clock := testutil.NewManualClock(historyEpoch)
	d := newTestDispatcher(t, WithDispatcherClock(clock))
	d.RegisterNamespace("todo")
	d.RegisterNamespace("auth")

	emitSequence(t, d, clock, "todo:created", "auth:login", "todo:completed")

	records, err := d.History(HistoryQuery{Pattern: "todo:*"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "todo:created", records[0].Event.String())
	assert.Equal(t, "todo:completed", records[1].Event.String())
}

func TestHistory_FilterSince(t *testing.T) {
	clock := testutil.NewManualClock(historyEpoch)
	d := newTestDispatcher(t, WithDispatcherClock(clock))
	d.RegisterNamespace("n")

	emitSequence(t, d, clock, "n:e1", "n:e2", "n:e3")

	records, err := d.History(HistoryQuery{Since: historyEpoch.Add(time.Second)})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "n:e2", records[0].Event.String())
}

func TestHistory_LimitKeepsMostRecent(t *testing.T) {
	clock := testutil.NewManualClock(historyEpoch)
	d := newTestDispatcher(t, WithDispatcherClock(clock))
	d.RegisterNamespace("n")

	emitSequence(t, d, clock, "n:e1", "n:e2", "n:e3", "n:e4")

	records, err := d.History(HistoryQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Still chronological, just truncated to the most recent two.
	assert.Equal(t, "n:e3", records[0].Event.String())
	assert.Equal(t, "n:e4", records[1].Event.String())
}

func TestHistory_BadPatternFails(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.History(HistoryQuery{Pattern: "not-a-name"})
	assert.True(t, IsSubscriptionError(err))
}

func TestReplay_ChronologicalOrder(t *testing.T) {
	clock := testutil.NewManualClock(historyEpoch)
	d := newTestDispatcher(t, WithDispatcherClock(clock))
	d.RegisterNamespace("n")

	emitSequence(t, d, clock, "n:e1", "n:e2", "n:e3")

	var seen []string
	err := d.Replay(func(_ any, event Name, _ time.Time) {
		seen = append(seen, event.String())
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"n:e1", "n:e2", "n:e3"}, seen)
}

func TestReplay_WithPattern(t *testing.T) {
	clock := testutil.NewManualClock(historyEpoch)
	d := newTestDispatcher(t, WithDispatcherClock(clock))
	d.RegisterNamespace("todo")
	d.RegisterNamespace("auth")

	emitSequence(t, d, clock, "todo:created", "auth:login", "todo:completed")

	var seen []string
	err := d.Replay(func(_ any, event Name, _ time.Time) {
		seen = append(seen, event.String())
	}, "todo:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"todo:created", "todo:completed"}, seen)
}

func TestReplay_DoesNotInvokeLiveListeners(t *testing.T) {
	d := newTestDispatcher(t)
	d.RegisterNamespace("n")

	require.NoError(t, d.Emit("n:e", nil))

	calls := 0
	_, err := d.On("n:e", func(any, Name) { calls++ })
	require.NoError(t, err)

	require.NoError(t, d.Replay(func(any, Name, time.Time) {}))
	assert.Equal(t, 0, calls)
}

func TestReplay_PanickingCallbackContinues(t *testing.T) {
	clock := testutil.NewManualClock(historyEpoch)
	d := newTestDispatcher(t, WithDispatcherClock(clock))
	d.RegisterNamespace("n")

	emitSequence(t, d, clock, "n:e1", "n:e2", "n:e3")

	var seen []string
	err := d.Replay(func(_ any, event Name, _ time.Time) {
		seen = append(seen, event.String())
		if event.Action == "e2" {
			panic("boom")
		}
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"n:e1", "n:e2", "n:e3"}, seen)
}

func TestReplay_NilCallbackFails(t *testing.T) {
	d := newTestDispatcher(t)

	assert.True(t, IsSubscriptionError(d.Replay(nil)))
}

func TestClearHistory(t *testing.T) {
	d := newTestDispatcher(t)
	d.RegisterNamespace("n")

	require.NoError(t, d.Emit("n:e", nil))
	calls := 0
	_, err := d.On("n:e", func(any, Name) { calls++ })
	require.NoError(t, err)

	d.ClearHistory()

	records, err := d.History(HistoryQuery{})
	require.NoError(t, err)
	assert.Empty(t, records)

	// Live listeners are unaffected.
	require.NoError(t, d.Emit("n:e", nil))
	assert.Equal(t, 1, calls)
}

func TestHistory_GoldenSerialization(t *testing.T) {
	clock := testutil.NewManualClock(historyEpoch)
	d := newTestDispatcher(t, WithDispatcherClock(clock))
	d.RegisterNamespace("todo")

	emits := []struct {
		name string
		data any
	}{
		{"todo:created", map[string]any{"id": 1, "title": "buy milk"}},
		{"todo:completed", map[string]any{"id": 1}},
		{"todo:created", map[string]any{"id": 2, "title": "water plants"}},
	}
	for _, e := range emits {
		require.NoError(t, d.Emit(e.name, e.data))
		clock.Advance(time.Second)
	}

	records, err := d.History(HistoryQuery{})
	require.NoError(t, err)

	data, err := json.MarshalIndent(records, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "todo_history", data)
}
