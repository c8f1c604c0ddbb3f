package roster

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/livekit/livekit-callcore/pkg/rtc/types"
)

func newMember(userID types.UserID, state types.ConnectState) *CallMember {
	return NewCallMember(types.MemberInfo{UserID: userID, ClientID: "c-" + types.ClientID(userID)}, false).WithConnectState(state)
}

func newTestRoster(params RosterParams) *Roster {
	if params.SelfID == "" {
		params.SelfID = "self"
	}
	return NewRoster(params)
}

type rosterRecorder struct {
	lock    sync.Mutex
	changes int
	counts  []int
	empties int
}

func (rec *rosterRecorder) attach(r *Roster) {
	r.OnChanged(func([]types.Member) {
		rec.lock.Lock()
		rec.changes++
		rec.lock.Unlock()
	})
	r.OnCountChanged(func(count int) {
		rec.lock.Lock()
		rec.counts = append(rec.counts, count)
		rec.lock.Unlock()
	})
	r.OnEmpty(func() {
		rec.lock.Lock()
		rec.empties++
		rec.lock.Unlock()
	})
}

func (rec *rosterRecorder) snapshot() (int, []int, int) {
	rec.lock.Lock()
	defer rec.lock.Unlock()
	return rec.changes, append([]int{}, rec.counts...), rec.empties
}

func TestRosterMembership(t *testing.T) {
	t.Run("duplicate add keeps more advanced connect state", func(t *testing.T) {
		r := newTestRoster(RosterParams{})
		defer r.Close()

		require.True(t, r.Add(newMember("bob", types.ConnectConnected)))
		require.False(t, r.Add(newMember("bob", types.ConnectConnecting)))

		m, ok := r.Get("bob")
		require.True(t, ok)
		require.Equal(t, types.ConnectConnected, m.ConnectState())

		require.True(t, r.Replace(newMember("bob", types.ConnectUnconnected)))
		m, _ = r.Get("bob")
		require.Equal(t, types.ConnectUnconnected, m.ConnectState())
		require.True(t, r.Add(newMember("bob", types.ConnectConnecting)))
	})

	t.Run("notifications", func(t *testing.T) {
		r := newTestRoster(RosterParams{})
		defer r.Close()
		rec := &rosterRecorder{}
		rec.attach(r)

		r.Add(newMember("bob", types.ConnectConnected))
		r.Add(newMember("carol", types.ConnectConnected))
		r.SetMute("bob", true)
		// no-op does not notify
		r.SetMute("bob", true)
		r.Remove("bob")
		r.Remove("carol")
		r.Remove("carol")

		changes, counts, empties := rec.snapshot()
		require.Equal(t, 5, changes)
		require.Equal(t, []int{1, 2, 1, 0}, counts)
		require.Equal(t, 1, empties)
	})

	t.Run("empty ignores self", func(t *testing.T) {
		r := newTestRoster(RosterParams{SelfID: "self"})
		defer r.Close()
		rec := &rosterRecorder{}
		rec.attach(r)

		r.Add(NewCallMember(types.MemberInfo{UserID: "self"}, true).WithConnectState(types.ConnectConnected))
		r.Add(newMember("bob", types.ConnectConnected))
		r.Remove("bob")

		_, _, empties := rec.snapshot()
		require.Equal(t, 1, empties)
		require.Equal(t, 1, r.Count())

		r.Clear()
		_, _, empties = rec.snapshot()
		require.Equal(t, 1, empties)
	})

	t.Run("mutations on unknown members are ignored", func(t *testing.T) {
		r := newTestRoster(RosterParams{})
		defer r.Close()
		require.False(t, r.SetConnectState("ghost", types.ConnectConnected))
		require.False(t, r.SetVideo("ghost", types.VideoStarted))
		require.False(t, r.SetActiveSpeaker("ghost", 1))
		require.Equal(t, 0, r.Count())
	})

	t.Run("count others", func(t *testing.T) {
		r := newTestRoster(RosterParams{SelfID: "self"})
		defer r.Close()
		r.Add(NewCallMember(types.MemberInfo{UserID: "self"}, true).WithConnectState(types.ConnectConnected))
		r.Add(newMember("bob", types.ConnectConnected))
		r.Add(newMember("carol", types.ConnectConnecting))
		r.Add(newMember("dave", types.ConnectUnconnected))

		require.Equal(t, 1, r.CountOthers(true))
		require.Equal(t, 2, r.CountOthers(false))
	})
}

func TestRosterSort(t *testing.T) {
	r := newTestRoster(RosterParams{SelfID: "self"})
	defer r.Close()

	r.Add(NewRoomParticipant(types.MemberInfo{UserID: "invited"}, false, types.InviteCalling))
	r.Add(NewRoomParticipant(types.MemberInfo{UserID: "rejected"}, false, types.InviteRejected))
	self := NewRoomParticipant(types.MemberInfo{UserID: "self"}, true, types.InviteAccepted)
	r.Add(self)

	video := NewRoomParticipant(types.MemberInfo{UserID: "video"}, false, types.InviteAccepted)
	video.WithConnectState(types.ConnectConnected)
	r.Add(video)
	r.SetVideo("video", types.VideoStarted)

	pinned := NewRoomParticipant(types.MemberInfo{UserID: "pinned"}, false, types.InviteAccepted)
	pinned.WithConnectState(types.ConnectConnected)
	r.Add(pinned)
	require.True(t, r.SetPinned("pinned", true))

	plain := NewRoomParticipant(types.MemberInfo{UserID: "plain"}, false, types.InviteAccepted)
	plain.WithConnectState(types.ConnectConnected)
	r.Add(plain)

	var order []types.UserID
	for _, m := range r.Members() {
		order = append(order, m.UserID())
	}
	require.Equal(t, []types.UserID{"pinned", "video", "plain", "self", "invited", "rejected"}, order)

	// connected self outranks pinned
	r.SetConnectState("self", types.ConnectConnected)
	require.Equal(t, types.UserID("self"), r.Members()[0].UserID())

	p, ok := r.Members()[1].(*RoomParticipant)
	require.True(t, ok)
	require.True(t, p.IsPinned())
}

func TestRosterConnectTimeout(t *testing.T) {
	t.Run("moves to unconnected", func(t *testing.T) {
		r := newTestRoster(RosterParams{ConnectTimeout: 20 * time.Millisecond})
		defer r.Close()
		r.Add(newMember("bob", types.ConnectConnecting))

		require.Eventually(t, func() bool {
			m, _ := r.Get("bob")
			return m.ConnectState() == types.ConnectUnconnected
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("removes when configured", func(t *testing.T) {
		r := newTestRoster(RosterParams{ConnectTimeout: 20 * time.Millisecond, RemoveWhenUnconnected: true})
		defer r.Close()
		rec := &rosterRecorder{}
		rec.attach(r)
		r.Add(newMember("bob", types.ConnectConnecting))

		require.Eventually(t, func() bool {
			return r.Count() == 0
		}, time.Second, 5*time.Millisecond)
		require.Eventually(t, func() bool {
			_, _, empties := rec.snapshot()
			return empties == 1
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("connected in time is left alone", func(t *testing.T) {
		r := newTestRoster(RosterParams{ConnectTimeout: 30 * time.Millisecond})
		defer r.Close()
		r.Add(newMember("bob", types.ConnectConnecting))
		r.SetConnectState("bob", types.ConnectConnected)

		time.Sleep(60 * time.Millisecond)
		m, _ := r.Get("bob")
		require.Equal(t, types.ConnectConnected, m.ConnectState())
	})
}

func TestRosterActiveSpeaker(t *testing.T) {
	r := newTestRoster(RosterParams{SpeakersDebounce: 5 * time.Millisecond})
	defer r.Close()

	now := time.Unix(1000, 0)
	r.now = func() time.Time { return now }

	speakers := make(chan []types.UserID, 10)
	r.OnActiveSpeakersChanged(func(s []types.UserID) {
		speakers <- s
	})

	r.Add(newMember("bob", types.ConnectConnected))
	r.Add(newMember("carol", types.ConnectConnected))

	// -20 dB is above the threshold, -60 dB is below it
	require.True(t, r.SetActiveSpeaker("bob", DBToVolume(-20)))
	require.False(t, r.SetActiveSpeaker("carol", DBToVolume(-60)))
	require.Equal(t, []types.UserID{"bob"}, r.ActiveSpeakers())

	select {
	case s := <-speakers:
		require.Equal(t, []types.UserID{"bob"}, s)
	case <-time.After(time.Second):
		t.Fatal("no active speaker notification")
	}

	// quiet samples within the resign window keep bob speaking
	now = now.Add(5 * time.Second)
	require.False(t, r.SetActiveSpeaker("carol", 0))
	require.Equal(t, []types.UserID{"bob"}, r.ActiveSpeakers())

	now = now.Add(6 * time.Second)
	require.True(t, r.SetActiveSpeaker("carol", 0))
	require.Empty(t, r.ActiveSpeakers())
}

func TestVolumeToDB(t *testing.T) {
	require.InDelta(t, 0, VolumeToDB(1), 0.0001)
	require.InDelta(t, -40, VolumeToDB(0.01), 0.0001)
	require.Equal(t, silentLevelDB, VolumeToDB(0))
	require.InDelta(t, 0.01, DBToVolume(-40), 0.0001)
}
