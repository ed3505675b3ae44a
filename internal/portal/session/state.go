// Package session derives the signed-in identity from the stored credential
// and owns the process-wide session state.
package session

import (
	"fmt"
	"log/slog"
	"sync"

	"passport-portal/internal/core/domain"
	"passport-portal/internal/portal/credential"
)

// Snapshot is an immutable view of the session at one point in time.
type Snapshot struct {
	Identity      domain.Identity
	Authenticated bool
	HasCredential bool
}

// State is the only writer of the session. Restore, Login and Logout are its
// entry points; every selector reads under the same lock, so the credential
// store and the derived identity are never observed out of step.
type State struct {
	mu       sync.RWMutex
	store    credential.Store
	identity *domain.Identity
	logger   *slog.Logger

	subMu     sync.Mutex
	nextSubID int
	subs      map[int]func(Snapshot)
}

// New creates an empty session over the given store. Call Restore on start.
func New(store credential.Store, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		store:  store,
		logger: logger,
		subs:   make(map[int]func(Snapshot)),
	}
}

// Restore re-derives the identity from whatever the store currently holds.
// A stored credential that no longer decodes is dropped.
func (s *State) Restore() Snapshot {
	s.mu.Lock()
	cred, ok := s.store.Get()
	s.identity = nil
	if ok {
		if ident, derived := Derive(cred); derived {
			s.identity = &ident
		} else {
			s.logger.Warn("discarding stored credential that does not decode")
			if err := s.store.Clear(); err != nil {
				s.logger.Warn("clear credential", "error", err)
			}
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return snap
}

// Login stores the credential and derives the identity in one step.
func (s *State) Login(cred domain.Credential) (domain.Identity, error) {
	ident, ok := Derive(cred)
	if !ok {
		return domain.Identity{}, domain.ErrInvalidCredential
	}

	s.mu.Lock()
	if err := s.store.Set(cred); err != nil {
		s.logger.Warn("credential not persisted", "error", err)
	}
	if !s.store.Has() {
		s.mu.Unlock()
		return domain.Identity{}, fmt.Errorf("store credential: %w", domain.ErrInvalidCredential)
	}
	s.identity = &ident
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("session started", "subject_id", ident.SubjectID, "role", ident.Role)
	s.publish(snap)
	return ident, nil
}

// Logout clears the credential store and the identity together.
func (s *State) Logout() error {
	s.mu.Lock()
	return s.logoutLocked()
}

// LogoutIfBearer ends the session only while bearer is still the token in
// use. A rejection of a token that was already replaced by a newer login
// leaves the newer session alone.
func (s *State) LogoutIfBearer(bearer string) (bool, error) {
	s.mu.Lock()
	if s.bearerLocked() != bearer {
		s.mu.Unlock()
		return false, nil
	}
	return true, s.logoutLocked()
}

// logoutLocked expects s.mu held and releases it.
func (s *State) logoutLocked() error {
	err := s.store.Clear()
	s.identity = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("credential file not removed", "error", err)
	}
	s.publish(snap)
	return err
}

// Identity returns the current identity, if any.
func (s *State) Identity() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return domain.Identity{}, false
	}
	return *s.identity, true
}

func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

func (s *State) Role() domain.Role {
	ident, _ := s.Identity()
	return ident.Role
}

func (s *State) SubjectID() string {
	ident, _ := s.Identity()
	return ident.SubjectID
}

// HasCredential reports whether the store holds a credential, read under the
// session lock.
func (s *State) HasCredential() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Has()
}

// Bearer returns the token for outgoing requests. It is empty when signed out.
func (s *State) Bearer() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bearerLocked()
}

func (s *State) bearerLocked() string {
	if s.identity == nil {
		return ""
	}
	cred, ok := s.store.Get()
	if !ok {
		return ""
	}
	return cred.Token
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to run after every session transition.
// The returned func removes the subscription.
func (s *State) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *State) snapshotLocked() Snapshot {
	snap := Snapshot{HasCredential: s.store.Has()}
	if s.identity != nil {
		snap.Identity = *s.identity
		snap.Authenticated = true
	}
	return snap
}

func (s *State) publish(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
