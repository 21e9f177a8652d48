// Package engine implements the card-matching rules of a Concentration game.
//
// An Engine owns one session at a time: a shuffled deck of paired cards, the
// up-to-two cards currently selected, and the failed/matched counters. Callers
// drive it with NewGame and ActivateCard and read it with Snapshot. The only
// deferred work is turning a mismatched pair back face down, which is scheduled
// through a Scheduler and discarded if the game is reset first.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arcanaland/concentration/internal/card"
)

// ErrNoImages is returned by New when the image set is empty.
var ErrNoImages = errors.New("engine: image set is empty")

// Config holds the game rules supplied by the caller.
type Config struct {
	// MismatchDelay is how long a mismatched pair stays face up.
	MismatchDelay time.Duration
	// MaxFailed is the number of mismatches that ends the game.
	MaxFailed int
	// Pairs is the number of matches that wins the game. Zero means one per
	// distinct image.
	Pairs int
}

// DefaultConfig returns the standard rules: one second to memorise a
// mismatch, five mistakes allowed, six pairs to find.
func DefaultConfig() Config {
	return Config{
		MismatchDelay: time.Second,
		MaxFailed:     5,
		Pairs:         6,
	}
}

// Snapshot is a copy of the session state for rendering.
type Snapshot struct {
	Generation uint64
	Deck       []card.Card
	Selection  int // number of pending, unresolved cards
	Failed     int
	Matched    int
	MaxFailed  int
	Pairs      int
}

// Lost reports whether the failed counter reached the limit.
func (s Snapshot) Lost() bool { return s.Failed >= s.MaxFailed }

// Won reports whether every pair has been found.
func (s Snapshot) Won() bool { return s.Matched >= s.Pairs }

// Resolving reports whether a mismatched pair is waiting to be turned back.
func (s Snapshot) Resolving() bool { return s.Selection == 2 }

// Option configures an Engine.
type Option func(*Engine)

// WithScheduler sets the scheduler used for the mismatch delay.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.scheduler = s }
}

// WithRand sets the random source used to shuffle decks.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithIDSource sets the card identity generator.
func WithIDSource(ids IDSource) Option {
	return func(e *Engine) { e.ids = ids }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithOnChange registers fn to be called with a fresh snapshot after every
// applied transition, including deferred mismatch resolution. fn is called
// without the engine lock held and may call back into the Engine.
func WithOnChange(fn func(Snapshot)) Option {
	return func(e *Engine) { e.onChange = fn }
}

// Engine is safe for concurrent use; all transitions are serialised.
type Engine struct {
	cfg    Config
	images []card.ImageRef

	rng       Rand
	ids       IDSource
	scheduler Scheduler
	logger    *zap.Logger
	onChange  func(Snapshot)

	mu         sync.Mutex
	session    *session
	generation uint64
	cancel     CancelFunc
}

// New creates an Engine and deals the first game.
func New(images []card.ImageRef, cfg Config, opts ...Option) (*Engine, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	distinct := make(map[card.ImageRef]struct{}, len(images))
	for _, img := range images {
		distinct[img] = struct{}{}
	}
	if cfg.Pairs == 0 {
		cfg.Pairs = len(distinct)
	}
	if err := validateConfig(cfg, len(distinct)); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		images:    append([]card.ImageRef(nil), images...),
		rng:       globalRand{},
		ids:       UUIDSource{},
		scheduler: TimerScheduler{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.mu.Lock()
	e.deal()
	e.mu.Unlock()

	return e, nil
}

func validateConfig(cfg Config, distinct int) error {
	if cfg.MaxFailed <= 0 {
		return fmt.Errorf("engine: max failed must be positive, got %d", cfg.MaxFailed)
	}
	if cfg.MismatchDelay < 0 {
		return fmt.Errorf("engine: mismatch delay must not be negative, got %s", cfg.MismatchDelay)
	}
	if cfg.Pairs < 1 || cfg.Pairs > distinct {
		return fmt.Errorf("engine: pairs must be between 1 and %d, got %d", distinct, cfg.Pairs)
	}
	return nil
}

// Config returns the rules the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// NewGame discards the current session, including any pending mismatch
// resolution, and deals a freshly shuffled deck.
func (e *Engine) NewGame() {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.deal()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Info("new game", zap.Uint64("generation", snap.Generation), zap.Int("cards", len(snap.Deck)))
	e.notify(snap)
}

// deal replaces the session. Callers hold e.mu.
func (e *Engine) deal() {
	e.generation++
	e.session = newSession(e.generation, BuildDeck(e.images, e.rng, e.ids))
}

// ActivateCard turns over the card with the given id. Activating an unknown or
// locked card, or any card after the game is lost, is a no-op and returns
// EffectIgnored.
func (e *Engine) ActivateCard(id string) Effect {
	e.mu.Lock()
	s := e.session
	effect := s.activate(id, e.cfg.MaxFailed)
	if effect == EffectMismatch {
		gen := s.generation
		e.cancel = e.scheduler.ScheduleAfter(e.cfg.MismatchDelay, func() {
			e.resolveMismatch(gen)
		})
	}
	var snap Snapshot
	if effect != EffectIgnored {
		snap = e.snapshotLocked()
	}
	e.mu.Unlock()

	if effect == EffectIgnored {
		e.logger.Debug("activation ignored", zap.String("card", id))
		return effect
	}

	e.logger.Debug("card activated",
		zap.String("card", id),
		zap.Stringer("effect", effect),
		zap.Int("failed", snap.Failed),
		zap.Int("matched", snap.Matched))
	if effect == EffectMatch && snap.Won() {
		e.logger.Info("game won", zap.Uint64("generation", snap.Generation), zap.Int("failed", snap.Failed))
	}
	e.notify(snap)
	return effect
}

// resolveMismatch runs when the mismatch delay elapses. Work scheduled by an
// earlier generation is dropped.
func (e *Engine) resolveMismatch(gen uint64) {
	e.mu.Lock()
	s := e.session
	if s.generation != gen || !s.resolving() {
		e.mu.Unlock()
		e.logger.Debug("stale mismatch resolution discarded",
			zap.Uint64("scheduled_generation", gen),
			zap.Uint64("current_generation", s.generation))
		return
	}
	ids := s.pendingIDs()
	s.resolveMismatch()
	e.cancel = nil
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Debug("mismatch resolved", zap.Strings("cards", ids), zap.Int("failed", snap.Failed))
	if snap.Lost() {
		e.logger.Info("game lost", zap.Uint64("generation", snap.Generation))
	}
	e.notify(snap)
}

// Snapshot returns a copy of the current session.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	s := e.session
	return Snapshot{
		Generation: s.generation,
		Deck:       append([]card.Card(nil), s.deck...),
		Selection:  len(s.selection),
		Failed:     s.failed,
		Matched:    s.matched,
		MaxFailed:  e.cfg.MaxFailed,
		Pairs:      e.cfg.Pairs,
	}
}

func (e *Engine) notify(snap Snapshot) {
	if e.onChange != nil {
		e.onChange(snap)
	}
}
