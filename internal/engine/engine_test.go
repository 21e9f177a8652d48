package engine

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/arcanaland/concentration/internal/card"
)

// manualScheduler runs scheduled work only when the test advances its clock.
type manualScheduler struct {
	mu           sync.Mutex
	now          time.Duration
	tasks        []*manualTask
	ignoreCancel bool
}

type manualTask struct {
	at        time.Duration
	fn        func()
	cancelled bool
	ran       bool
}

func (m *manualScheduler) ScheduleAfter(d time.Duration, fn func()) CancelFunc {
	m.mu.Lock()
	defer m.mu.Unlock()
	task := &manualTask{at: m.now + d, fn: fn}
	m.tasks = append(m.tasks, task)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.ignoreCancel || task.ran {
			return false
		}
		task.cancelled = true
		return true
	}
}

func (m *manualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	var due []*manualTask
	for _, task := range m.tasks {
		if !task.ran && !task.cancelled && task.at <= m.now {
			task.ran = true
			due = append(due, task)
		}
	}
	m.mu.Unlock()

	for _, task := range due {
		task.fn()
	}
}

func (m *manualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, task := range m.tasks {
		if !task.ran && !task.cancelled {
			n++
		}
	}
	return n
}

const testDelay = time.Second

func newTestEngine(t *testing.T, sched Scheduler, opts ...Option) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.MismatchDelay = testDelay
	opts = append([]Option{
		WithScheduler(sched),
		WithRand(rand.New(rand.NewPCG(11, 22))),
		WithIDSource(&CounterSource{Prefix: "c"}),
	}, opts...)
	e, err := New(imageSet(6), cfg, opts...)
	require.NoError(t, err)
	return e
}

// findPair returns the ids of two selectable cards sharing an image.
func findPair(t *testing.T, deck []card.Card) (string, string) {
	t.Helper()
	first := make(map[card.ImageRef]string)
	for _, c := range deck {
		if c.Locked {
			continue
		}
		if id, ok := first[c.Image]; ok {
			return id, c.ID
		}
		first[c.Image] = c.ID
	}
	t.Fatal("no selectable pair left")
	return "", ""
}

// findMismatch returns the ids of two selectable cards with different images.
func findMismatch(t *testing.T, deck []card.Card) (string, string) {
	t.Helper()
	for _, a := range deck {
		if a.Locked {
			continue
		}
		for _, b := range deck {
			if !b.Locked && b.Image != a.Image {
				return a.ID, b.ID
			}
		}
	}
	t.Fatal("no selectable mismatch left")
	return "", ""
}

func cardByID(t *testing.T, snap Snapshot, id string) card.Card {
	t.Helper()
	for _, c := range snap.Deck {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("card %s not in deck", id)
	return card.Card{}
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNoImages)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero max failed", Config{MismatchDelay: time.Second, MaxFailed: 0, Pairs: 6}},
		{"negative delay", Config{MismatchDelay: -time.Second, MaxFailed: 5, Pairs: 6}},
		{"too many pairs", Config{MismatchDelay: time.Second, MaxFailed: 5, Pairs: 7}},
		{"negative pairs", Config{MismatchDelay: time.Second, MaxFailed: 5, Pairs: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(imageSet(6), tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewDefaultsPairsToDistinctImages(t *testing.T) {
	e, err := New(imageSet(4), Config{MismatchDelay: time.Second, MaxFailed: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, e.Config().Pairs)

	snap := e.Snapshot()
	assert.Len(t, snap.Deck, 8)
	assert.Equal(t, 4, snap.Pairs)
	assert.Equal(t, 3, snap.MaxFailed)
}

func TestActivateLockedCardIsNoop(t *testing.T) {
	sched := &manualScheduler{}
	e := newTestEngine(t, sched)

	a, _ := findPair(t, e.Snapshot().Deck)
	require.Equal(t, EffectFirstPick, e.ActivateCard(a))

	before := e.Snapshot()
	assert.Equal(t, EffectIgnored, e.ActivateCard(a))
	assert.Equal(t, before, e.Snapshot())
}

func TestActivateUnknownCardIsNoop(t *testing.T) {
	e := newTestEngine(t, &manualScheduler{})

	before := e.Snapshot()
	assert.Equal(t, EffectIgnored, e.ActivateCard("no-such-card"))
	assert.Equal(t, before, e.Snapshot())
}

func TestMatch(t *testing.T) {
	sched := &manualScheduler{}
	e := newTestEngine(t, sched)

	a, b := findPair(t, e.Snapshot().Deck)
	assert.Equal(t, EffectFirstPick, e.ActivateCard(a))
	assert.Equal(t, 1, e.Snapshot().Selection)
	assert.Equal(t, EffectMatch, e.ActivateCard(b))

	snap := e.Snapshot()
	for _, id := range []string{a, b} {
		c := cardByID(t, snap, id)
		assert.True(t, c.Matched)
		assert.True(t, c.Locked)
		assert.True(t, c.FaceUp)
	}
	assert.Equal(t, 1, snap.Matched)
	assert.Equal(t, 0, snap.Failed)
	assert.Equal(t, 0, snap.Selection)
	assert.Zero(t, sched.Pending())
}

func TestMismatchRevertsAfterDelay(t *testing.T) {
	sched := &manualScheduler{}
	e := newTestEngine(t, sched)

	a, b := findMismatch(t, e.Snapshot().Deck)
	e.ActivateCard(a)
	assert.Equal(t, EffectMismatch, e.ActivateCard(b))

	snap := e.Snapshot()
	for _, id := range []string{a, b} {
		c := cardByID(t, snap, id)
		assert.True(t, c.FaceUp)
		assert.True(t, c.Locked)
		assert.False(t, c.Matched)
	}
	assert.Equal(t, 0, snap.Failed)
	assert.True(t, snap.Resolving())

	sched.Advance(testDelay - time.Millisecond)
	assert.True(t, cardByID(t, e.Snapshot(), a).FaceUp)

	sched.Advance(time.Millisecond)
	snap = e.Snapshot()
	for _, id := range []string{a, b} {
		c := cardByID(t, snap, id)
		assert.False(t, c.FaceUp)
		assert.False(t, c.Locked)
		assert.False(t, c.Matched)
	}
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, 0, snap.Selection)
	assert.False(t, snap.Resolving())
}

func TestActivationWhileMismatchPendingIsIgnored(t *testing.T) {
	sched := &manualScheduler{}
	e := newTestEngine(t, sched)

	a, b := findMismatch(t, e.Snapshot().Deck)
	e.ActivateCard(a)
	e.ActivateCard(b)

	var third string
	for _, c := range e.Snapshot().Deck {
		if !c.Locked {
			third = c.ID
			break
		}
	}
	require.NotEmpty(t, third)

	before := e.Snapshot()
	assert.Equal(t, EffectIgnored, e.ActivateCard(third))
	assert.Equal(t, before, e.Snapshot())
}

func TestNewGameDiscardsPendingMismatch(t *testing.T) {
	for _, ignoreCancel := range []bool{false, true} {
		name := "cancelled"
		if ignoreCancel {
			name = "cancel ignored by scheduler"
		}
		t.Run(name, func(t *testing.T) {
			sched := &manualScheduler{ignoreCancel: ignoreCancel}
			e := newTestEngine(t, sched)

			old := e.Snapshot()
			a, b := findMismatch(t, old.Deck)
			e.ActivateCard(a)
			e.ActivateCard(b)

			e.NewGame()
			fresh := e.Snapshot()
			assert.Greater(t, fresh.Generation, old.Generation)
			assert.Equal(t, 0, fresh.Failed)
			assert.Equal(t, 0, fresh.Matched)
			assert.Equal(t, 0, fresh.Selection)

			// Turn a card of the new deck over so a stale flip-back would show.
			x, _ := findPair(t, fresh.Deck)
			e.ActivateCard(x)
			before := e.Snapshot()

			sched.Advance(2 * testDelay)

			assert.Equal(t, before, e.Snapshot())
		})
	}
}

func TestNewGameReshufflesWithFreshIDs(t *testing.T) {
	e := newTestEngine(t, &manualScheduler{})

	seen := make(map[string]bool)
	for round := 0; round < 5; round++ {
		for _, c := range e.Snapshot().Deck {
			require.False(t, seen[c.ID], "id %s reused across games", c.ID)
			seen[c.ID] = true
		}
		e.NewGame()
	}
}

func TestLossBoundary(t *testing.T) {
	sched := &manualScheduler{}
	e := newTestEngine(t, sched)

	for i := 1; i <= 5; i++ {
		a, b := findMismatch(t, e.Snapshot().Deck)
		e.ActivateCard(a)
		require.Equal(t, EffectMismatch, e.ActivateCard(b))
		assert.False(t, e.Snapshot().Lost(), "lost before mismatch %d resolved", i)
		sched.Advance(testDelay)
		assert.Equal(t, i, e.Snapshot().Failed)
	}

	snap := e.Snapshot()
	require.True(t, snap.Lost())

	a, _ := findPair(t, snap.Deck)
	assert.Equal(t, EffectIgnored, e.ActivateCard(a))
	assert.Equal(t, snap, e.Snapshot())

	e.NewGame()
	assert.False(t, e.Snapshot().Lost())
}

func TestWin(t *testing.T) {
	e := newTestEngine(t, &manualScheduler{})

	for i := 0; i < 6; i++ {
		assert.False(t, e.Snapshot().Won())
		a, b := findPair(t, e.Snapshot().Deck)
		e.ActivateCard(a)
		require.Equal(t, EffectMatch, e.ActivateCard(b))
	}

	snap := e.Snapshot()
	assert.True(t, snap.Won())
	assert.Equal(t, 6, snap.Matched)
	for _, c := range snap.Deck {
		assert.True(t, c.Matched)
	}
}

func TestEndToEnd(t *testing.T) {
	sched := &manualScheduler{}
	e := newTestEngine(t, sched)

	snap := e.Snapshot()
	require.Len(t, snap.Deck, 12)

	a, b := findPair(t, snap.Deck)
	e.ActivateCard(a)
	assert.Equal(t, EffectMatch, e.ActivateCard(b))
	assert.Equal(t, 1, e.Snapshot().Matched)

	c, d := findMismatch(t, e.Snapshot().Deck)
	e.ActivateCard(c)
	assert.Equal(t, EffectMismatch, e.ActivateCard(d))

	sched.Advance(testDelay)

	snap = e.Snapshot()
	assert.False(t, cardByID(t, snap, c).FaceUp)
	assert.False(t, cardByID(t, snap, d).FaceUp)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, 1, snap.Matched)
	assert.True(t, cardByID(t, snap, a).Matched)
}

func TestOnChangeObservesEveryTransition(t *testing.T) {
	sched := &manualScheduler{}
	var got []Snapshot
	e := newTestEngine(t, sched, WithOnChange(func(s Snapshot) {
		got = append(got, s)
	}))

	a, b := findMismatch(t, e.Snapshot().Deck)
	e.ActivateCard(a)
	e.ActivateCard(b)
	e.ActivateCard("missing")
	sched.Advance(testDelay)
	e.NewGame()

	require.Len(t, got, 4)
	assert.Equal(t, 1, got[0].Selection)
	assert.Equal(t, 2, got[1].Selection)
	assert.Equal(t, 1, got[2].Failed)
	assert.Equal(t, 0, got[3].Failed)
}

func TestSnapshotIsACopy(t *testing.T) {
	e := newTestEngine(t, &manualScheduler{})

	snap := e.Snapshot()
	snap.Deck[0].FaceUp = true

	assert.False(t, e.Snapshot().Deck[0].FaceUp)
}

func TestTimerScheduler(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := DefaultConfig()
	cfg.MismatchDelay = 10 * time.Millisecond
	e, err := New(imageSet(6), cfg, WithScheduler(TimerScheduler{}))
	require.NoError(t, err)

	a, b := findMismatch(t, e.Snapshot().Deck)
	e.ActivateCard(a)
	require.Equal(t, EffectMismatch, e.ActivateCard(b))

	require.Eventually(t, func() bool {
		return e.Snapshot().Failed == 1
	}, time.Second, 5*time.Millisecond)
	assert.False(t, cardByID(t, e.Snapshot(), a).FaceUp)
}

func TestTimerSchedulerCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ran := make(chan struct{}, 1)
	cancel := TimerScheduler{}.ScheduleAfter(time.Hour, func() { ran <- struct{}{} })
	assert.True(t, cancel())

	select {
	case <-ran:
		t.Fatal("cancelled work ran")
	default:
	}
}
