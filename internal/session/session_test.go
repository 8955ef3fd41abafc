package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginLogoutBumpEpoch(t *testing.T) {
	s := New()

	e1 := s.Login("alex", "+120155501234", "tok-1")
	st := s.Current()
	require.True(t, st.LoggedIn)
	assert.Equal(t, "alex", st.Username)
	assert.Equal(t, e1, s.Epoch())

	e2 := s.Logout()
	assert.Greater(t, e2, e1)
	assert.Equal(t, State{}, s.Current())
}

func TestSnapshotPairsStateWithEpoch(t *testing.T) {
	s := New()
	s.Login("alex", "+120155501234", "tok-1")

	st, epoch := s.Snapshot()
	assert.True(t, st.LoggedIn)
	assert.Equal(t, s.Epoch(), epoch)
}

// Snapshot must never observe a state from one epoch alongside the counter of
// another. Each transition below flips LoggedIn and bumps the epoch, so within
// any consistent pair the epoch's parity matches the state.
func TestSnapshotIsAtomicUnderTransitions(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.Login("alex", "+120155501234", "tok")
			s.Logout()
		}
	}()

	for i := 0; i < 1000; i++ {
		st, epoch := s.Snapshot()
		if st.LoggedIn {
			assert.Equal(t, uint64(1), epoch%2)
		} else {
			assert.Equal(t, uint64(0), epoch%2)
		}
	}
	wg.Wait()
}
