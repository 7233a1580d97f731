// Package session keeps the locally cached authentication state of a keyhub
// client and gates commands on it.
//
// The cached state only mirrors a prior server assertion. It can be stale
// until the next RPC fails with an authentication error, at which point the
// caller clears it.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-keyforms/pkg/report"
)

// State is the authentication state of a store.
type State int

const (
	// StateUnknown is the initial state before the first Check.
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

var (
	// ErrNoCredential means no credential is persisted.
	ErrNoCredential = errors.New("session: no credential")
	// ErrMalformedCredential means persisted data could not be decoded.
	ErrMalformedCredential = errors.New("session: malformed credential")
	// ErrExpiredCredential means the persisted credential has expired.
	ErrExpiredCredential = errors.New("session: credential expired")
)

// Codec maps a credential to storage keys and back.
type Codec[C any] interface {
	// Keys lists every storage key the codec owns; Clear removes them all.
	Keys() []string
	Encode(cred C) (map[string]string, error)
	// Decode returns ErrNoCredential, ErrMalformedCredential or
	// ErrExpiredCredential (possibly wrapped) when values do not hold a
	// usable credential at now.
	Decode(values map[string]string, now time.Time) (C, error)
}

// Tagger is implemented by codecs whose credentials carry report scope tags.
type Tagger[C any] interface {
	Tags(cred C) map[string]string
}

// Listener observes state transitions.
type Listener func(State)

type options struct {
	clock    func() time.Time
	reporter report.Reporter
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*options)

// WithClock overrides the time source used for expiry checks.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithReporter sets the reporter receiving scope tags and storage failures.
func WithReporter(r report.Reporter) Option {
	return func(o *options) {
		if r != nil {
			o.reporter = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Store is the session state service shared by a client process. It is safe
// for concurrent use.
type Store[C any] struct {
	storage  Storage
	codec    Codec[C]
	clock    func() time.Time
	reporter report.Reporter
	logger   *slog.Logger

	mu        sync.Mutex
	state     State
	cred      C
	tags      []string
	listeners map[int]Listener
	nextID    int
}

// NewStore creates a store in StateUnknown.
func NewStore[C any](storage Storage, codec Codec[C], opts ...Option) (*Store[C], error) {
	if storage == nil {
		return nil, errors.New("session: storage is required")
	}
	if codec == nil {
		return nil, errors.New("session: codec is required")
	}
	cfg := options{
		clock:    time.Now,
		reporter: report.Nop{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Store[C]{
		storage:   storage,
		codec:     codec,
		clock:     cfg.clock,
		reporter:  cfg.reporter,
		logger:    cfg.logger,
		listeners: make(map[int]Listener),
	}, nil
}

// Check reads the persisted credential and transitions to Authenticated or
// Unauthenticated. It never fails: unreadable, malformed or expired data is
// purged and reported as Unauthenticated.
func (s *Store[C]) Check() State {
	s.mu.Lock()
	before := s.state

	values, err := s.read()
	var cred C
	if err == nil {
		cred, err = s.codec.Decode(values, s.clock())
	}
	if err != nil {
		if !errors.Is(err, ErrNoCredential) {
			s.logger.Info("session: discarding persisted credential", "reason", err.Error())
		}
		s.purgeLocked()
	} else {
		s.authenticateLocked(cred)
	}

	after := s.state
	listeners := s.snapshotListeners(before, after)
	s.mu.Unlock()

	notify(listeners, after)
	return after
}

// Set persists cred after a successful login exchange.
func (s *Store[C]) Set(cred C) error {
	values, err := s.codec.Encode(cred)
	if err != nil {
		return fmt.Errorf("session: encode credential: %w", err)
	}

	s.mu.Lock()
	before := s.state
	if err := s.storage.Set(values); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("session: persist credential: %w", err)
	}
	s.authenticateLocked(cred)
	listeners := s.snapshotListeners(before, s.state)
	s.mu.Unlock()

	notify(listeners, StateAuthenticated)
	return nil
}

// Clear removes the persisted credential after logout or a failed
// verification. The in-memory state becomes Unauthenticated even when the
// storage cannot be updated; that failure is returned.
func (s *Store[C]) Clear() error {
	s.mu.Lock()
	before := s.state
	err := s.purgeLocked()
	listeners := s.snapshotListeners(before, s.state)
	s.mu.Unlock()

	notify(listeners, StateUnauthenticated)
	return err
}

// State returns the current state without touching storage.
func (s *Store[C]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Credential returns the cached credential while authenticated.
func (s *Store[C]) Credential() (C, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated {
		var zero C
		return zero, false
	}
	return s.cred, true
}

// Subscribe registers fn for state transitions and returns a function that
// removes it.
func (s *Store[C]) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store[C]) read() (map[string]string, error) {
	values := make(map[string]string)
	for _, key := range s.codec.Keys() {
		value, ok, err := s.storage.Get(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedCredential, err)
		}
		if ok {
			values[key] = value
		}
	}
	return values, nil
}

func (s *Store[C]) authenticateLocked(cred C) {
	s.clearTagsLocked()
	if tagger, ok := s.codec.(Tagger[C]); ok {
		for key, value := range tagger.Tags(cred) {
			s.reporter.SetTag(key, value)
			s.tags = append(s.tags, key)
		}
	}
	s.cred = cred
	s.state = StateAuthenticated
}

func (s *Store[C]) purgeLocked() error {
	s.clearTagsLocked()
	var zero C
	s.cred = zero
	s.state = StateUnauthenticated
	if err := s.storage.Delete(s.codec.Keys()...); err != nil {
		s.logger.Warn("session: purge failed", "error", err)
		return fmt.Errorf("session: purge credential: %w", err)
	}
	return nil
}

func (s *Store[C]) clearTagsLocked() {
	for _, key := range s.tags {
		s.reporter.ClearTag(key)
	}
	s.tags = nil
}

func (s *Store[C]) snapshotListeners(before, after State) []Listener {
	if before == after {
		return nil
	}
	out := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []Listener, state State) {
	for _, fn := range listeners {
		fn(state)
	}
}
