package transport

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/livekit/livekit-callcore/pkg/rtc/roster"
	"github.com/livekit/livekit-callcore/pkg/rtc/types"
	"github.com/livekit/livekit-callcore/pkg/rtc/types/typesfakes"
)

var (
	selfInfo   = types.MemberInfo{UserID: "alice", ClientID: "alice-1"}
	remoteInfo = types.MemberInfo{UserID: "bob", ClientID: "bob-1"}
)

type managerEvents struct {
	lock             sync.Mutex
	dataChannel      int
	established      int
	reconnecting     int
	roomEmpty        int
	lost             []error
	videoStateEvents map[types.UserID]types.VideoState
}

func (e *managerEvents) OnDataChannelEstablished() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.dataChannel++
}

func (e *managerEvents) OnEstablished() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.established++
}

func (e *managerEvents) OnReconnecting() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.reconnecting++
}

func (e *managerEvents) OnTransportLost(err error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.lost = append(e.lost, err)
}

func (e *managerEvents) OnRoomEmpty() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.roomEmpty++
}

func (e *managerEvents) OnVideoStateChanged(userID types.UserID, state types.VideoState) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.videoStateEvents == nil {
		e.videoStateEvents = make(map[types.UserID]types.VideoState)
	}
	e.videoStateEvents[userID] = state
}

func (e *managerEvents) counts() (dataChannel, established, reconnecting, roomEmpty, lost int) {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.dataChannel, e.established, e.reconnecting, e.roomEmpty, len(e.lost)
}

// fakeTransports hands out one fake session per NewTransport call and remembers the params.
type fakeTransports struct {
	lock     sync.Mutex
	factory  *typesfakes.FakeTransportFactory
	sessions []*typesfakes.FakeTransportSession
	params   []types.TransportParams
}

func newFakeTransports() *fakeTransports {
	f := &fakeTransports{factory: &typesfakes.FakeTransportFactory{}}
	f.factory.NewTransportStub = func(params types.TransportParams) (types.TransportSession, error) {
		s := &typesfakes.FakeTransportSession{}
		s.ModeReturns(params.Mode)
		f.lock.Lock()
		f.sessions = append(f.sessions, s)
		f.params = append(f.params, params)
		f.lock.Unlock()
		return s, nil
	}
	return f
}

func (f *fakeTransports) count() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.sessions)
}

func (f *fakeTransports) get(i int) (*typesfakes.FakeTransportSession, types.TransportParams) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.sessions[i], f.params[i]
}

func newTestManager(t *testing.T, timeout time.Duration) (*TransportManager, *fakeTransports, *managerEvents, *roster.Roster) {
	transports := newFakeTransports()
	events := &managerEvents{}
	r := roster.NewRoster(roster.RosterParams{
		ConversationID:        "conv",
		SelfID:                selfInfo.UserID,
		RemoveWhenUnconnected: true,
	})
	t.Cleanup(r.Close)

	m := NewTransportManager(TransportManagerParams{
		ConversationID:       "conv",
		Self:                 selfInfo,
		Factory:              transports.factory,
		Roster:               r,
		DirectConnectTimeout: timeout,
		Handler:              events,
	})
	return m, transports, events, r
}

func TestTransportManagerConnect(t *testing.T) {
	t.Run("one-to-one starts direct and is idempotent per room", func(t *testing.T) {
		m, transports, _, r := newTestManager(t, time.Minute)

		require.NoError(t, m.Connect(ConnectParams{RoomID: "room", RoomType: types.RoomTypeOneToOne, Members: []types.MemberInfo{remoteInfo}}))
		require.NoError(t, m.Connect(ConnectParams{RoomID: "room", RoomType: types.RoomTypeOneToOne}))
		require.ErrorIs(t, m.Connect(ConnectParams{RoomID: "other", RoomType: types.RoomTypeOneToOne}), ErrAlreadyConnected)

		require.Equal(t, 1, transports.count())
		s, params := transports.get(0)
		require.Equal(t, types.TransportDirect, params.Mode)
		require.Equal(t, 1, s.StartCallCount())

		mode, ok := m.Mode()
		require.True(t, ok)
		require.Equal(t, types.TransportDirect, mode)
		require.Equal(t, 2, r.Count())

		m.Leave("room")
		m.Leave("room")
		require.Equal(t, 1, s.CloseCallCount())
		require.False(t, m.IsConnected())
		require.Equal(t, 0, r.Count())
	})

	t.Run("group rooms go through the relay", func(t *testing.T) {
		m, transports, _, _ := newTestManager(t, time.Minute)

		require.NoError(t, m.Connect(ConnectParams{RoomID: "room", RoomType: types.RoomTypeGroup}))
		_, params := transports.get(0)
		require.Equal(t, types.TransportRelayed, params.Mode)
	})

	t.Run("factory failure for direct falls back at once", func(t *testing.T) {
		m, transports, _, _ := newTestManager(t, time.Minute)
		transports.factory.NewTransportStub = nil
		transports.factory.NewTransportReturnsOnCall(0, nil, errors.New("no ice"))
		relay := &typesfakes.FakeTransportSession{}
		relay.ModeReturns(types.TransportRelayed)
		transports.factory.NewTransportReturnsOnCall(1, relay, nil)

		require.NoError(t, m.Connect(ConnectParams{RoomID: "room", RoomType: types.RoomTypeOneToOne, Members: []types.MemberInfo{remoteInfo}}))
		mode, ok := m.Mode()
		require.True(t, ok)
		require.Equal(t, types.TransportRelayed, mode)
		require.Equal(t, 1, relay.StartCallCount())
	})
}

func TestTransportManagerFallback(t *testing.T) {
	t.Run("direct failure after connect swaps to relay silently", func(t *testing.T) {
		m, transports, events, _ := newTestManager(t, time.Minute)
		require.NoError(t, m.Connect(ConnectParams{RoomID: "room", RoomType: types.RoomTypeOneToOne, Members: []types.MemberInfo{remoteInfo}}))
		require.NoError(t, m.SetLocalAudioMuted(true))

		direct, directParams := transports.get(0)
		directParams.Handler.OnConnected()
		directParams.Handler.OnMediaEstablished()
		_, established, _, _, _ := events.counts()
		require.Equal(t, 1, established)

		directParams.Handler.OnDisconnected(ErrConnectivityCheckFailed, true)
		require.Equal(t, 1, direct.CloseCallCount())
		require.Equal(t, 2, transports.count())

		relay, relayParams := transports.get(1)
		require.Equal(t, types.TransportRelayed, relayParams.Mode)
		require.Equal(t, "room", relayParams.RoomID)
		// cached local state is re-applied on the new transport
		require.Equal(t, 1, relay.SetLocalAudioMutedCallCount())
		require.True(t, relay.SetLocalAudioMutedArgsForCall(0))

		// events from the disposed transport are ignored
		directParams.Handler.OnMediaEstablished()
		relayParams.Handler.OnConnected()
		relayParams.Handler.OnMediaEstablished()

		dataChannel, established, reconnecting, _, lost := events.counts()
		require.Equal(t, 1, dataChannel)
		require.Equal(t, 2, established)
		require.Equal(t, 1, reconnecting)
		require.Equal(t, 0, lost)
	})

	t.Run("direct timeout swaps to relay", func(t *testing.T) {
		m, transports, events, _ := newTestManager(t, 20*time.Millisecond)
		require.NoError(t, m.Connect(ConnectParams{RoomID: "room", RoomType: types.RoomTypeOneToOne, IsInitiator: true, Members: []types.MemberInfo{remoteInfo}}))

		require.Eventually(t, func() bool {
			return transports.count() == 2
		}, time.Second, 5*time.Millisecond)

		_, relayParams := transports.get(1)
		require.Equal(t, types.TransportRelayed, relayParams.Mode)
		_, _, reconnecting, _, _ := events.counts()
		require.Equal(t, 0, reconnecting)
	})

	t.Run("established direct transport cancels the fallback timer", func(t *testing.T) {
		m, transports, _, _ := newTestManager(t, 20*time.Millisecond)
		require.NoError(t, m.Connect(ConnectParams{RoomID: "room", RoomType: types.RoomTypeOneToOne, IsInitiator: true, Members: []types.MemberInfo{remoteInfo}}))
		_, directParams := transports.get(0)
		directParams.Handler.OnMediaEstablished()
		m.ArmDirectFallback()

		time.Sleep(60 * time.Millisecond)
		require.Equal(t, 1, transports.count())
	})

	t.Run("waiting side holds direct until armed", func(t *testing.T) {
		m, transports, _, _ := newTestManager(t, 20*time.Millisecond)
		require.NoError(t, m.Connect(ConnectParams{RoomID: "room", RoomType: types.RoomTypeOneToOne, Members: []types.MemberInfo{remoteInfo}}))

		time.Sleep(60 * time.Millisecond)
		require.Equal(t, 1, transports.count())
		mode, ok := m.Mode()
		require.True(t, ok)
		require.Equal(t, types.TransportDirect, mode)

		m.ArmDirectFallback()
		m.ArmDirectFallback()
		require.Eventually(t, func() bool {
			return transports.count() == 2
		}, time.Second, 5*time.Millisecond)
		time.Sleep(60 * time.Millisecond)
		require.Equal(t, 2, transports.count())

		// relay is already current
		m.ArmDirectFallback()
		mode, _ = m.Mode()
		require.Equal(t, types.TransportRelayed, mode)
	})

	t.Run("fatal relay loss is reported", func(t *testing.T) {
		m, transports, events, r := newTestManager(t, time.Minute)
		require.NoError(t, m.Connect(ConnectParams{RoomID: "room", RoomType: types.RoomTypeGroup, Members: []types.MemberInfo{remoteInfo}}))
		relay, relayParams := transports.get(0)

		relayParams.Handler.OnDisconnected(ErrRetryBudgetExceeded, true)
		require.Equal(t, 1, relay.CloseCallCount())
		require.False(t, m.IsConnected())
		require.Equal(t, 0, r.Count())

		_, _, _, _, lost := events.counts()
		require.Equal(t, 1, lost)
	})
}

func TestTransportManagerMembers(t *testing.T) {
	m, transports, events, r := newTestManager(t, time.Minute)
	require.NoError(t, m.Connect(ConnectParams{RoomID: "room", RoomType: types.RoomTypeGroup}))
	_, params := transports.get(0)
	h := params.Handler

	h.OnMemberJoined(remoteInfo)
	h.OnMemberJoined(types.MemberInfo{UserID: "carol", ClientID: "carol-1"})
	require.Equal(t, 2, r.CountOthers(true))

	h.OnMemberMuted("bob", true)
	h.OnMemberVideo("bob", types.VideoStarted)
	bob, ok := r.Get("bob")
	require.True(t, ok)
	require.True(t, bob.IsMuted())
	require.Equal(t, types.VideoStarted, bob.VideoState())

	events.lock.Lock()
	require.Equal(t, types.VideoStarted, events.videoStateEvents["bob"])
	events.lock.Unlock()

	h.OnMemberLeft("bob")
	_, ok = r.Get("bob")
	require.False(t, ok)

	h.OnMemberLeft("carol")
	_, _, _, roomEmpty, _ := events.counts()
	require.Equal(t, 1, roomEmpty)
	require.False(t, m.IsConnected())
}

func TestTransportManagerInviteState(t *testing.T) {
	m, transports, _, r := newTestManager(t, time.Minute)
	require.NoError(t, m.Connect(ConnectParams{RoomID: "room", RoomType: types.RoomTypeGroup, Members: []types.MemberInfo{remoteInfo}}))

	inviteState := func(userID types.UserID) types.InviteState {
		member, ok := r.Get(userID)
		require.True(t, ok)
		p, ok := member.(*roster.RoomParticipant)
		require.True(t, ok)
		return p.InviteState()
	}
	require.Equal(t, types.InviteAccepted, inviteState(selfInfo.UserID))
	require.Equal(t, types.InviteCalling, inviteState(remoteInfo.UserID))

	require.True(t, r.SetInviteState(remoteInfo.UserID, types.InviteNoResponse))
	require.Equal(t, types.InviteNoResponse, inviteState(remoteInfo.UserID))

	_, params := transports.get(0)
	params.Handler.OnMemberJoined(remoteInfo)
	require.Equal(t, types.InviteAccepted, inviteState(remoteInfo.UserID))
}

func TestTransportManagerLocalMedia(t *testing.T) {
	m, transports, _, r := newTestManager(t, time.Minute)

	// no transport, nothing to apply
	require.NoError(t, m.SetLocalVideo(types.VideoStarted))

	require.NoError(t, m.Connect(ConnectParams{RoomID: "room", RoomType: types.RoomTypeGroup}))
	s, _ := transports.get(0)
	require.Equal(t, types.VideoStarted, s.SetLocalVideoArgsForCall(0))

	require.NoError(t, m.SetScreenShare(true))
	require.Equal(t, 1, s.SetScreenShareCallCount())
	self, ok := r.Get(selfInfo.UserID)
	require.True(t, ok)
	require.Equal(t, types.VideoScreenSharing, self.VideoState())
}
