package rtc

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livekit/livekit-callcore/pkg/config"
	"github.com/livekit/livekit-callcore/pkg/rtc/signalling"
	"github.com/livekit/livekit-callcore/pkg/rtc/transport"
	"github.com/livekit/livekit-callcore/pkg/rtc/types"
)

const (
	convAB    types.ConversationID = "conv-alice-bob"
	convAC    types.ConversationID = "conv-alice-carol"
	convGroup types.ConversationID = "conv-group"
)

func oneToOneStart() *signalling.CallMessage {
	return signalling.NewStart(types.RoomTypeOneToOne, types.MediaAudioOnly, &signalling.VoiceAlert{CallerID: "bob"})
}

func groupStart() *signalling.CallMessage {
	return signalling.NewStart(types.RoomTypeGroup, types.MediaAudioOnly, &signalling.VoiceAlert{CallerID: "bob"})
}

func requireState(t *testing.T, rig *testRig, conversationID types.ConversationID, kind types.CallStateKind) {
	t.Helper()
	require.Eventually(t, func() bool {
		return rig.state(conversationID).Kind == kind
	}, 2*time.Second, 5*time.Millisecond, "expected %s, got %s", kind, rig.state(conversationID))
}

func TestOneToOneCall(t *testing.T) {
	t.Run("caller happy path", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		require.True(t, rig.registry.StartCall(convAB, types.RoomTypeOneToOne, types.MediaAudioOnly, []types.MemberInfo{bob}, ""))
		require.Equal(t, types.StateOutgoing, rig.state(convAB).Kind)
		require.True(t, rig.registry.IsInCalling())

		sent := rig.sent()
		require.Len(t, sent, 1)
		require.Equal(t, signalling.MethodStart, sent[0].Type)
		require.NotNil(t, sent[0].Alert)
		require.Equal(t, alice.UserID, sent[0].Alert.CallerID)

		require.Equal(t, 1, rig.numTransports())
		direct, params := rig.transport(0)
		require.Equal(t, types.TransportDirect, params.Mode)
		require.False(t, params.IsInitiator)
		require.Equal(t, testCapabilities, params.Capabilities)

		rig.receive(convAB, bob, signalling.NewAnswer(types.RoomTypeOneToOne, types.MediaAudioOnly))
		require.Equal(t, types.StateAnswered, rig.state(convAB).Kind)

		rig.establish(convAB)
		require.Equal(t, types.StateEstablished, rig.state(convAB).Kind)

		rig.receive(convAB, bob, signalling.NewEnd(types.RoomTypeOneToOne, types.MediaAudioOnly))
		requireState(t, rig, convAB, types.StateNone)
		require.False(t, rig.registry.IsInCalling())
		require.Equal(t, 1, direct.CloseCallCount())

		rig.telemetry.Flush()
		kinds := []types.CallStateKind{}
		for _, s := range rig.states(convAB) {
			kinds = append(kinds, s.Kind)
		}
		require.Equal(t, []types.CallStateKind{
			types.StateOutgoing,
			types.StateAnswered,
			types.StateEstablishedDataChannel,
			types.StateEstablished,
			types.StateTerminating,
			types.StateNone,
		}, kinds)
		require.Equal(t, []types.ClosureReason{types.ReasonNormal}, rig.terminations(convAB))
	})

	t.Run("callee answers and hangs up", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		rig.receive(convAB, bob, oneToOneStart())
		require.Equal(t, types.StateIncoming, rig.state(convAB).Kind)
		s, ok := rig.registry.Session(convAB)
		require.True(t, ok)
		require.Equal(t, bob, s.Starter())
		require.Equal(t, 0, rig.numTransports())

		require.True(t, rig.registry.AnswerCall(convAB, types.MediaVideo, nil, ""))
		require.Equal(t, types.StateAnsweredIncoming, rig.state(convAB).Kind)
		require.Equal(t, types.MediaVideo, s.MediaPolicy())

		_, params := rig.transport(0)
		require.True(t, params.IsInitiator)
		require.Equal(t, []types.MemberInfo{bob}, params.Members)

		rig.establish(convAB)
		require.Equal(t, types.StateEstablished, rig.state(convAB).Kind)

		require.True(t, rig.registry.EndCall(convAB, types.ReasonNormal))
		requireState(t, rig, convAB, types.StateNone)
		require.Equal(t, []signalling.Method{signalling.MethodAnswer, signalling.MethodEnd}, rig.sentMethods())
	})

	t.Run("operations from the wrong state are refused", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		require.False(t, rig.registry.AnswerCall(convAB, types.MediaAudioOnly, nil, ""))
		require.False(t, rig.registry.EndCall(convAB, types.ReasonNormal))

		require.True(t, rig.registry.StartCall(convAB, types.RoomTypeOneToOne, types.MediaAudioOnly, []types.MemberInfo{bob}, ""))
		require.False(t, rig.registry.StartCall(convAB, types.RoomTypeOneToOne, types.MediaAudioOnly, []types.MemberInfo{bob}, ""))
		require.False(t, rig.registry.RejectCall(convAB))
		require.False(t, rig.registry.AnswerCall(convAB, types.MediaAudioOnly, nil, ""))

		require.True(t, rig.registry.CancelCall(convAB))
		requireState(t, rig, convAB, types.StateNone)
		require.False(t, rig.registry.CancelCall(convAB))
		require.Equal(t, []signalling.Method{signalling.MethodStart, signalling.MethodCancel}, rig.sentMethods())
	})

	t.Run("reject ends a one-to-one call", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		rig.receive(convAB, bob, oneToOneStart())
		require.True(t, rig.registry.RejectCall(convAB))
		requireState(t, rig, convAB, types.StateNone)
		require.Equal(t, []types.ClosureReason{types.ReasonNormal}, rig.terminations(convAB))
		require.Equal(t, []signalling.Method{signalling.MethodReject}, rig.sentMethods())
	})

	t.Run("remote reject and cancel", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		require.True(t, rig.registry.StartCall(convAB, types.RoomTypeOneToOne, types.MediaAudioOnly, []types.MemberInfo{bob}, ""))
		rig.receive(convAB, bob, signalling.NewReject(types.RoomTypeOneToOne, types.MediaAudioOnly))
		requireState(t, rig, convAB, types.StateNone)

		rig.receive(convAB, bob, oneToOneStart())
		require.Equal(t, types.StateIncoming, rig.state(convAB).Kind)
		rig.receive(convAB, bob, signalling.NewCancel(types.RoomTypeOneToOne, types.MediaAudioOnly, nil))
		requireState(t, rig, convAB, types.StateNone)

		rig.telemetry.Flush()
		require.Equal(t, []types.ClosureReason{types.ReasonNormal, types.ReasonCanceled}, rig.terminations(convAB))
		missed := rig.missedCalls()
		require.Len(t, missed, 1)
		require.Equal(t, bob, missed[0].Caller)
	})

	t.Run("busy ends an outgoing call", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		require.True(t, rig.registry.StartCall(convAB, types.RoomTypeOneToOne, types.MediaAudioOnly, []types.MemberInfo{bob}, ""))
		// addressed to someone else
		rig.receive(convAB, bob, signalling.NewBusy(types.RoomTypeOneToOne, types.MediaAudioOnly, carol))
		require.Equal(t, types.StateOutgoing, rig.state(convAB).Kind)

		rig.receive(convAB, bob, signalling.NewBusy(types.RoomTypeOneToOne, types.MediaAudioOnly, alice))
		requireState(t, rig, convAB, types.StateNone)
		require.Equal(t, []types.ClosureReason{types.ReasonBusy}, rig.terminations(convAB))
	})
}

func TestGroupCall(t *testing.T) {
	t.Run("rejected group call can be answered later", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		rig.receive(convGroup, bob, groupStart())
		require.Equal(t, types.StateIncoming, rig.state(convGroup).Kind)

		require.True(t, rig.registry.RejectCall(convGroup))
		state := rig.state(convGroup)
		require.True(t, state.IsResumable(), state.String())
		require.False(t, rig.registry.IsInCalling())

		require.True(t, rig.registry.AnswerCall(convGroup, types.MediaAudioOnly, []types.MemberInfo{bob, carol}, "join-token"))
		require.Equal(t, types.StateAnsweredIncoming, rig.state(convGroup).Kind)
		require.True(t, rig.registry.IsInCalling())

		_, params := rig.transport(0)
		require.Equal(t, types.TransportRelayed, params.Mode)
		require.Equal(t, "join-token", params.JoinToken)
	})

	t.Run("leaving with others remaining keeps the call joinable", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		require.True(t, rig.registry.StartCall(convGroup, types.RoomTypeGroup, types.MediaAudioOnly, []types.MemberInfo{bob, carol}, ""))
		_, params := rig.transport(0)
		require.Equal(t, types.TransportRelayed, params.Mode)

		// alone in the room the caller keeps calling
		rig.establish(convGroup)
		require.Equal(t, types.StateOutgoing, rig.state(convGroup).Kind)

		params.Handler.OnMemberJoined(bob)
		params.Handler.OnMemberJoined(carol)
		rig.settle(convGroup)
		require.Equal(t, types.StateEstablished, rig.state(convGroup).Kind)

		require.True(t, rig.registry.EndCall(convGroup, types.ReasonNormal))
		state := rig.state(convGroup)
		require.True(t, state.IsResumable(), state.String())

		sent := rig.sent()
		leave := sent[len(sent)-1]
		require.Equal(t, signalling.MethodLeave, leave.Type)
		require.NotNil(t, leave.MemberCount)
		require.Equal(t, 2, *leave.MemberCount)

		require.True(t, rig.registry.AnswerCall(convGroup, types.MediaAudioOnly, nil, ""))
		require.Equal(t, types.StateAnsweredIncoming, rig.state(convGroup).Kind)
		require.Equal(t, 2, rig.numTransports())
	})

	t.Run("caller leaving an unanswered group call ends it", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		require.True(t, rig.registry.StartCall(convGroup, types.RoomTypeGroup, types.MediaAudioOnly, []types.MemberInfo{bob, carol}, ""))
		rig.establish(convGroup)
		require.Equal(t, types.StateOutgoing, rig.state(convGroup).Kind)

		require.True(t, rig.registry.EndCall(convGroup, types.ReasonNormal))
		requireState(t, rig, convGroup, types.StateNone)
		rig.telemetry.Flush()
		require.Equal(t, []types.ClosureReason{types.ReasonNormal}, rig.terminations(convGroup))

		sent := rig.sent()
		leave := sent[len(sent)-1]
		require.Equal(t, signalling.MethodLeave, leave.Type)
		require.NotNil(t, leave.MemberCount)
		require.Equal(t, 0, *leave.MemberCount)
	})

	t.Run("invitee responses update the roster", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		require.True(t, rig.registry.StartCall(convGroup, types.RoomTypeGroup, types.MediaAudioOnly, []types.MemberInfo{bob, carol}, ""))
		rig.receive(convGroup, bob, signalling.NewBusy(types.RoomTypeGroup, types.MediaAudioOnly, alice))
		// busy from one invitee does not end a group call
		require.Equal(t, types.StateOutgoing, rig.state(convGroup).Kind)
		rig.receive(convGroup, carol, signalling.NewAnswer(types.RoomTypeGroup, types.MediaAudioOnly))

		s, ok := rig.registry.Session(convGroup)
		require.True(t, ok)
		invites := map[types.UserID]types.InviteState{}
		for _, m := range s.Members() {
			if p, ok := m.(interface{ InviteState() types.InviteState }); ok {
				invites[m.UserID()] = p.InviteState()
			}
		}
		require.Equal(t, types.InviteNoResponse, invites[bob.UserID])
		require.Equal(t, types.InviteAccepted, invites[carol.UserID])
		require.Equal(t, types.InviteAccepted, invites[alice.UserID])
	})

	t.Run("leaving the last other member ends the call", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		require.True(t, rig.registry.StartCall(convGroup, types.RoomTypeGroup, types.MediaAudioOnly, []types.MemberInfo{bob}, ""))
		_, params := rig.transport(0)
		rig.establish(convGroup)
		params.Handler.OnMemberJoined(bob)
		rig.settle(convGroup)
		require.Equal(t, types.StateEstablished, rig.state(convGroup).Kind)

		require.True(t, rig.registry.EndCall(convGroup, types.ReasonNormal))
		requireState(t, rig, convGroup, types.StateNone)
		require.Equal(t, []types.ClosureReason{types.ReasonNormal}, rig.terminations(convGroup))
	})

	t.Run("room emptied by the others ends the call", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		require.True(t, rig.registry.StartCall(convGroup, types.RoomTypeGroup, types.MediaAudioOnly, []types.MemberInfo{bob}, ""))
		relay, params := rig.transport(0)
		rig.establish(convGroup)
		params.Handler.OnMemberJoined(bob)
		rig.settle(convGroup)

		params.Handler.OnMemberLeft(bob.UserID)
		requireState(t, rig, convGroup, types.StateNone)
		require.Equal(t, 1, relay.CloseCallCount())
		require.Equal(t, signalling.MethodLeave, rig.sentMethods()[1])
	})

	t.Run("resumable call closes when the last member leaves", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		rig.receive(convGroup, bob, groupStart())
		require.True(t, rig.registry.RejectCall(convGroup))
		require.True(t, rig.state(convGroup).IsResumable())

		rig.receive(convGroup, bob, signalling.NewLeave(types.RoomTypeGroup, types.MediaAudioOnly, 1))
		require.True(t, rig.state(convGroup).IsResumable())

		rig.receive(convGroup, carol, signalling.NewLeave(types.RoomTypeGroup, types.MediaAudioOnly, 0))
		requireState(t, rig, convGroup, types.StateNone)
		_, ok := rig.registry.Session(convGroup)
		require.False(t, ok)
	})

	t.Run("group timeout stays joinable", func(t *testing.T) {
		rig := newTestRig(t, alice, func(conf *config.Config) {
			conf.Call.IncomingTimeout = 20 * time.Millisecond
		}).ready()

		rig.receive(convGroup, bob, groupStart())
		require.Eventually(t, func() bool {
			return rig.state(convGroup).IsResumable()
		}, time.Second, 5*time.Millisecond)

		rig.telemetry.Flush()
		require.Len(t, rig.missedCalls(), 1)
	})
}

func TestCallTimeouts(t *testing.T) {
	t.Run("unanswered call times out exactly once", func(t *testing.T) {
		rig := newTestRig(t, alice, func(conf *config.Config) {
			conf.Call.ResponseTimeout = 20 * time.Millisecond
		}).ready()

		require.True(t, rig.registry.StartCall(convAB, types.RoomTypeOneToOne, types.MediaAudioOnly, []types.MemberInfo{bob}, ""))
		requireState(t, rig, convAB, types.StateNone)

		time.Sleep(50 * time.Millisecond)
		rig.telemetry.Flush()
		require.Equal(t, []types.ClosureReason{types.ReasonTimeout}, rig.terminations(convAB))
		require.Equal(t, []signalling.Method{signalling.MethodStart, signalling.MethodCancel}, rig.sentMethods())
		require.False(t, rig.registry.IsInCalling())
	})

	t.Run("answer cancels the response timer", func(t *testing.T) {
		rig := newTestRig(t, alice, func(conf *config.Config) {
			conf.Call.ResponseTimeout = 30 * time.Millisecond
		}).ready()

		require.True(t, rig.registry.StartCall(convAB, types.RoomTypeOneToOne, types.MediaAudioOnly, []types.MemberInfo{bob}, ""))
		rig.receive(convAB, bob, signalling.NewAnswer(types.RoomTypeOneToOne, types.MediaAudioOnly))
		rig.establish(convAB)

		time.Sleep(60 * time.Millisecond)
		require.Equal(t, types.StateEstablished, rig.state(convAB).Kind)
	})

	t.Run("media not established after answer", func(t *testing.T) {
		rig := newTestRig(t, alice, func(conf *config.Config) {
			conf.Call.ConnectTimeout = 20 * time.Millisecond
		}).ready()

		rig.receive(convAB, bob, oneToOneStart())
		require.True(t, rig.registry.AnswerCall(convAB, types.MediaAudioOnly, nil, ""))
		requireState(t, rig, convAB, types.StateNone)
		rig.telemetry.Flush()
		require.Equal(t, []types.ClosureReason{types.ReasonTimeout}, rig.terminations(convAB))
	})

	t.Run("unanswered incoming call is missed", func(t *testing.T) {
		rig := newTestRig(t, alice, func(conf *config.Config) {
			conf.Call.IncomingTimeout = 20 * time.Millisecond
		}).ready()

		rig.receive(convAB, bob, oneToOneStart())
		requireState(t, rig, convAB, types.StateNone)
		rig.telemetry.Flush()

		missed := rig.missedCalls()
		require.Len(t, missed, 1)
		require.Equal(t, bob, missed[0].Caller)
		require.False(t, missed[0].Stale)
		require.Empty(t, rig.sentMethods())
	})
}

func TestTeardownIsIdempotent(t *testing.T) {
	rig := newTestRig(t, alice).ready()

	require.True(t, rig.registry.StartCall(convAB, types.RoomTypeOneToOne, types.MediaAudioOnly, []types.MemberInfo{bob}, ""))
	rig.receive(convAB, bob, signalling.NewAnswer(types.RoomTypeOneToOne, types.MediaAudioOnly))
	rig.establish(convAB)
	direct, _ := rig.transport(0)

	end := rig.event(convAB, bob, signalling.NewEnd(types.RoomTypeOneToOne, types.MediaAudioOnly))
	var wg sync.WaitGroup
	var lock sync.Mutex
	ended := 0
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rig.registry.EndCall(convAB, types.ReasonNormal) {
				lock.Lock()
				ended++
				lock.Unlock()
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, rig.registry.Receive(end))
	}()
	wg.Wait()

	requireState(t, rig, convAB, types.StateNone)
	time.Sleep(20 * time.Millisecond)
	rig.telemetry.Flush()

	require.LessOrEqual(t, ended, 1)
	require.Len(t, rig.terminations(convAB), 1)
	require.Equal(t, 1, direct.CloseCallCount())
	require.False(t, rig.registry.EndCall(convAB, types.ReasonNormal))
}

func TestSelfDeviceCoherence(t *testing.T) {
	t.Run("answered on another device while ringing", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		rig.receive(convAB, bob, oneToOneStart())
		// our own echo is ignored
		rig.receive(convAB, alice, signalling.NewAnswer(types.RoomTypeOneToOne, types.MediaAudioOnly))
		require.Equal(t, types.StateIncoming, rig.state(convAB).Kind)

		rig.receive(convAB, aliceTablet, signalling.NewAnswer(types.RoomTypeOneToOne, types.MediaAudioOnly))
		requireState(t, rig, convAB, types.StateNone)
		require.Equal(t, []types.ClosureReason{types.ReasonAnsweredElsewhere}, rig.terminations(convAB))
		require.Empty(t, rig.sentMethods())
	})

	t.Run("answered on another device during a call", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		require.True(t, rig.registry.StartCall(convAB, types.RoomTypeOneToOne, types.MediaAudioOnly, []types.MemberInfo{bob}, ""))
		rig.receive(convAB, bob, signalling.NewAnswer(types.RoomTypeOneToOne, types.MediaAudioOnly))
		rig.establish(convAB)

		rig.receive(convAB, aliceTablet, signalling.NewAnswer(types.RoomTypeOneToOne, types.MediaAudioOnly))
		requireState(t, rig, convAB, types.StateNone)
		require.Equal(t, []types.ClosureReason{types.ReasonAnsweredElsewhere}, rig.terminations(convAB))
	})

	t.Run("rejected on another device", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		rig.receive(convAB, bob, oneToOneStart())
		rig.receive(convAB, aliceTablet, signalling.NewReject(types.RoomTypeOneToOne, types.MediaAudioOnly))
		requireState(t, rig, convAB, types.StateNone)
		require.Equal(t, []types.ClosureReason{types.ReasonRejectedElsewhere}, rig.terminations(convAB))
	})

	t.Run("call placed from another device does not ring", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		rig.receive(convAB, aliceTablet, oneToOneStart())
		_, ok := rig.registry.Session(convAB)
		require.False(t, ok)
	})
}

func TestDirectFallback(t *testing.T) {
	rig := newTestRig(t, alice, func(conf *config.Config) {
		conf.Transport.DirectConnectTimeout = 50 * time.Millisecond
	}).ready()

	require.True(t, rig.registry.StartCall(convAB, types.RoomTypeOneToOne, types.MediaAudioOnly, []types.MemberInfo{bob}, ""))

	// still ringing: the callee has not offered yet, so direct is kept
	time.Sleep(200 * time.Millisecond)
	require.Equal(t, types.StateOutgoing, rig.state(convAB).Kind)
	require.Equal(t, 1, rig.numTransports())
	_, directParams := rig.transport(0)
	require.Equal(t, types.TransportDirect, directParams.Mode)

	rig.receive(convAB, bob, signalling.NewAnswer(types.RoomTypeOneToOne, types.MediaAudioOnly))

	require.Eventually(t, func() bool {
		return rig.numTransports() == 2
	}, time.Second, 5*time.Millisecond)
	direct, _ := rig.transport(0)
	require.Equal(t, 1, direct.CloseCallCount())

	_, params := rig.transport(1)
	require.Equal(t, types.TransportRelayed, params.Mode)
	require.Equal(t, string(convAB), params.RoomID)

	rig.establish(convAB)
	require.Equal(t, types.StateEstablished, rig.state(convAB).Kind)
	s, _ := rig.registry.Session(convAB)
	mode, ok := s.TransportMode()
	require.True(t, ok)
	require.Equal(t, types.TransportRelayed, mode)

	// the swap is invisible to the other side
	require.Equal(t, []signalling.Method{signalling.MethodStart}, rig.sentMethods())
}

func TestTransportEvents(t *testing.T) {
	t.Run("reconnecting and back", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		require.True(t, rig.registry.StartCall(convGroup, types.RoomTypeGroup, types.MediaAudioOnly, []types.MemberInfo{bob}, ""))
		_, params := rig.transport(0)
		rig.establish(convGroup)
		params.Handler.OnMemberJoined(bob)
		rig.settle(convGroup)

		params.Handler.OnReconnecting()
		rig.settle(convGroup)
		require.Equal(t, types.StateReconnecting, rig.state(convGroup).Kind)

		params.Handler.OnMediaEstablished()
		rig.settle(convGroup)
		require.Equal(t, types.StateEstablished, rig.state(convGroup).Kind)
	})

	t.Run("fatal transport loss", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		require.True(t, rig.registry.StartCall(convGroup, types.RoomTypeGroup, types.MediaAudioOnly, []types.MemberInfo{bob, carol}, ""))
		_, params := rig.transport(0)
		rig.establish(convGroup)
		params.Handler.OnMemberJoined(bob)
		params.Handler.OnMemberJoined(carol)
		rig.settle(convGroup)

		params.Handler.OnDisconnected(transport.ErrRetryBudgetExceeded, true)
		requireState(t, rig, convGroup, types.StateNone)
		require.Equal(t, []types.ClosureReason{types.ReasonInternalError}, rig.terminations(convGroup))

		sent := rig.sent()
		leave := sent[len(sent)-1]
		require.Equal(t, signalling.MethodLeave, leave.Type)
		require.Equal(t, 2, *leave.MemberCount)
	})

	t.Run("media stopped by the host", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		require.True(t, rig.registry.StartCall(convAB, types.RoomTypeOneToOne, types.MediaAudioOnly, []types.MemberInfo{bob}, ""))
		require.False(t, rig.registry.OnMediaStopped(convAB))
		rig.receive(convAB, bob, signalling.NewAnswer(types.RoomTypeOneToOne, types.MediaAudioOnly))
		rig.establish(convAB)

		require.True(t, rig.registry.OnMediaStopped(convAB))
		require.Equal(t, types.StateMediaStopped, rig.state(convAB).Kind)
		require.True(t, rig.registry.OnMediaResumed(convAB))
		require.Equal(t, types.StateEstablished, rig.state(convAB).Kind)
	})

	t.Run("video changes reach the listener", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		require.True(t, rig.registry.StartCall(convAB, types.RoomTypeOneToOne, types.MediaVideo, []types.MemberInfo{bob}, ""))
		_, params := rig.transport(0)
		params.Handler.OnMemberJoined(bob)
		params.Handler.OnMemberVideo(bob.UserID, types.VideoStarted)
		rig.settle(convAB)

		require.Equal(t, 1, rig.listener.OnVideoStateChangedCallCount())
		conv, userID, state := rig.listener.OnVideoStateChangedArgsForCall(0)
		require.Equal(t, convAB, conv)
		require.Equal(t, bob.UserID, userID)
		require.Equal(t, types.VideoStarted, state)
		require.NotZero(t, rig.listener.OnRosterChangedCallCount())
	})
}

func TestDegradedCall(t *testing.T) {
	t.Run("flag follows pending states", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		require.True(t, rig.registry.StartCall(convAB, types.RoomTypeOneToOne, types.MediaAudioOnly, []types.MemberInfo{bob}, ""))
		require.True(t, rig.registry.SetDegraded(convAB, true))
		require.True(t, rig.state(convAB).Degraded)

		rig.receive(convAB, bob, signalling.NewAnswer(types.RoomTypeOneToOne, types.MediaAudioOnly))
		state := rig.state(convAB)
		require.Equal(t, types.StateAnswered, state.Kind)
		require.True(t, state.Degraded)
	})

	t.Run("established call ends", func(t *testing.T) {
		rig := newTestRig(t, alice).ready()

		require.True(t, rig.registry.StartCall(convAB, types.RoomTypeOneToOne, types.MediaAudioOnly, []types.MemberInfo{bob}, ""))
		rig.receive(convAB, bob, signalling.NewAnswer(types.RoomTypeOneToOne, types.MediaAudioOnly))
		rig.establish(convAB)

		require.True(t, rig.registry.SetDegraded(convAB, true))
		requireState(t, rig, convAB, types.StateNone)
		require.Equal(t, []types.ClosureReason{types.ReasonSecurityDegraded}, rig.terminations(convAB))
		require.Equal(t, signalling.MethodEnd, rig.sentMethods()[1])
	})
}
