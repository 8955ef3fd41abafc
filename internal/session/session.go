// Package session holds the authenticated user state the cart core reacts
// to. The OTP flow that creates sessions lives upstream; this is only the
// container and its login/logout transitions.
package session

import "sync"

// State is an immutable snapshot of the session.
type State struct {
	LoggedIn bool
	Username string
	Phone    string
	Token    string
}

// Session is an explicit state container replacing ambient globals: created
// at app start (or per user), reset to initial values on logout.
//
// Every login or logout bumps an epoch counter. In-flight asynchronous work
// started under one epoch (a login-triggered cart fetch, for instance) must
// be discarded when it completes under another.
type Session struct {
	mu    sync.Mutex
	state State
	epoch uint64
}

// New creates a logged-out session.
func New() *Session {
	return &Session{}
}

// Login records a successful OTP verification and returns the new epoch.
func (s *Session) Login(username, phone, token string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{
		LoggedIn: true,
		Username: username,
		Phone:    phone,
		Token:    token,
	}
	s.epoch++
	return s.epoch
}

// Logout resets the session to its initial values and returns the new epoch.
func (s *Session) Logout() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{}
	s.epoch++
	return s.epoch
}

// Current returns a snapshot of the session state.
func (s *Session) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Epoch returns the current epoch counter.
func (s *Session) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Snapshot returns the state together with the epoch it was observed at,
// read under a single lock acquisition so no transition can land between
// the two. Epoch fences must start from this pair, not from separate
// Current and Epoch calls.
func (s *Session) Snapshot() (State, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.epoch
}
