package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/livekit/livekit-callcore/pkg/rtc/types"
)

func TestConnectSupervisor(t *testing.T) {
	t.Run("expires once", func(t *testing.T) {
		expired := make(chan types.UserID, 2)
		c := NewConnectSupervisor(ConnectSupervisorParams{
			Timeout: 10 * time.Millisecond,
			OnTimeout: func(userID types.UserID) {
				expired <- userID
			},
		})

		c.Watch("bob")
		require.True(t, c.IsWatching("bob"))

		select {
		case userID := <-expired:
			require.Equal(t, types.UserID("bob"), userID)
		case <-time.After(time.Second):
			t.Fatal("connect timeout did not fire")
		}
		require.False(t, c.IsWatching("bob"))

		select {
		case <-expired:
			t.Fatal("expired twice")
		case <-time.After(30 * time.Millisecond):
		}
	})

	t.Run("unwatch disarms", func(t *testing.T) {
		expired := make(chan types.UserID, 1)
		c := NewConnectSupervisor(ConnectSupervisorParams{
			Timeout: 10 * time.Millisecond,
			OnTimeout: func(userID types.UserID) {
				expired <- userID
			},
		})

		c.Watch("bob")
		c.Unwatch("bob")

		select {
		case <-expired:
			t.Fatal("unwatched member expired")
		case <-time.After(40 * time.Millisecond):
		}
	})

	t.Run("executor is used for expiry", func(t *testing.T) {
		posted := make(chan func(), 1)
		expired := make(chan types.UserID, 1)
		c := NewConnectSupervisor(ConnectSupervisorParams{
			Timeout: 5 * time.Millisecond,
			Executor: func(f func()) {
				posted <- f
			},
			OnTimeout: func(userID types.UserID) {
				expired <- userID
			},
		})

		c.Watch("bob")
		f := <-posted
		require.Len(t, expired, 0)
		f()
		require.Equal(t, types.UserID("bob"), <-expired)
	})

	t.Run("stop cancels", func(t *testing.T) {
		expired := make(chan types.UserID, 1)
		c := NewConnectSupervisor(ConnectSupervisorParams{
			Timeout: 5 * time.Millisecond,
			OnTimeout: func(userID types.UserID) {
				expired <- userID
			},
		})
		c.Watch("bob")
		c.Stop()
		c.Watch("carol")

		select {
		case <-expired:
			t.Fatal("stopped supervisor expired a member")
		case <-time.After(30 * time.Millisecond):
		}
	})
}
