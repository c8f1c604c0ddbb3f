package rtc

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/livekit/livekit-callcore/pkg/config"
	"github.com/livekit/livekit-callcore/pkg/rtc/signalling"
	"github.com/livekit/livekit-callcore/pkg/rtc/types"
	"github.com/livekit/livekit-callcore/pkg/rtc/types/typesfakes"
	"github.com/livekit/livekit-callcore/pkg/telemetry"
	"github.com/livekit/livekit-callcore/pkg/telemetry/prometheus"
)

func init() {
	prometheus.Init("test")
}

var (
	alice       = types.MemberInfo{UserID: "alice", ClientID: "alice-phone"}
	aliceTablet = types.MemberInfo{UserID: "alice", ClientID: "alice-tablet"}
	bob         = types.MemberInfo{UserID: "bob", ClientID: "bob-phone"}
	carol       = types.MemberInfo{UserID: "carol", ClientID: "carol-phone"}

	testCapabilities = types.Capabilities{RelayURL: "wss://relay.test/rtc"}
)

// testRig wires a registry to fake collaborators and records what it does.
type testRig struct {
	t         *testing.T
	self      types.MemberInfo
	conf      *config.Config
	registry  *Registry
	sender    *typesfakes.FakeSignalSender
	factory   *typesfakes.FakeTransportFactory
	listener  *typesfakes.FakeCallListener
	telemetry telemetry.TelemetryService

	lock       sync.Mutex
	sessions   []*typesfakes.FakeTransportSession
	params     []types.TransportParams
	serverTime time.Time
}

func newTestRig(t *testing.T, self types.MemberInfo, configure ...func(conf *config.Config)) *testRig {
	conf := config.DefaultConfig
	conf.Self = config.SelfConfig{UserID: string(self.UserID), ClientID: string(self.ClientID), Name: string(self.UserID)}
	for _, f := range configure {
		f(&conf)
	}

	rig := &testRig{
		t:          t,
		self:       self,
		conf:       &conf,
		sender:     &typesfakes.FakeSignalSender{},
		factory:    &typesfakes.FakeTransportFactory{},
		listener:   &typesfakes.FakeCallListener{},
		serverTime: time.Now(),
	}
	rig.factory.NewTransportStub = func(params types.TransportParams) (types.TransportSession, error) {
		s := &typesfakes.FakeTransportSession{}
		s.ModeReturns(params.Mode)
		rig.lock.Lock()
		rig.sessions = append(rig.sessions, s)
		rig.params = append(rig.params, params)
		rig.lock.Unlock()
		return s, nil
	}
	rig.telemetry = telemetry.NewTelemetryService(rig.listener, nil)

	registry, err := NewRegistry(RegistryParams{
		Self:       self,
		SelfName:   conf.Self.Name,
		Config:     &conf,
		Sender:     rig.sender,
		Transports: rig.factory,
		Telemetry:  rig.telemetry,
	})
	require.NoError(t, err)
	rig.registry = registry
	t.Cleanup(func() {
		registry.Close()
		rig.telemetry.Stop()
	})
	return rig
}

func (r *testRig) ready() *testRig {
	r.registry.SetReady(testCapabilities)
	return r
}

// settle waits for the work queued on a session, including follow-ups it posted itself,
// and for listener delivery.
func (r *testRig) settle(conversationID types.ConversationID) {
	if s, ok := r.registry.Session(conversationID); ok {
		for i := 0; i < 3; i++ {
			s.do(func() bool { return true })
		}
	}
	r.telemetry.Flush()
}

func (r *testRig) event(conversationID types.ConversationID, from types.MemberInfo, msg *signalling.CallMessage) types.InboundEvent {
	payload, err := signalling.EncodeCallMessage(msg)
	require.NoError(r.t, err)

	r.lock.Lock()
	r.serverTime = r.serverTime.Add(time.Millisecond)
	serverTime := r.serverTime
	r.lock.Unlock()

	return types.InboundEvent{
		Payload:         payload,
		LocalTimestamp:  time.Now(),
		ServerTimestamp: serverTime,
		ConversationID:  conversationID,
		SenderUserID:    from.UserID,
		SenderClientID:  from.ClientID,
	}
}

func (r *testRig) receive(conversationID types.ConversationID, from types.MemberInfo, msg *signalling.CallMessage) {
	require.NoError(r.t, r.registry.Receive(r.event(conversationID, from, msg)))
	r.settle(conversationID)
}

func (r *testRig) state(conversationID types.ConversationID) types.CallState {
	return r.registry.State(conversationID)
}

// states lists every state reported to the listener for a conversation.
func (r *testRig) states(conversationID types.ConversationID) []types.CallState {
	var states []types.CallState
	for i := 0; i < r.listener.OnCallStateChangedCallCount(); i++ {
		c, _, cur := r.listener.OnCallStateChangedArgsForCall(i)
		if c == conversationID {
			states = append(states, cur)
		}
	}
	return states
}

func (r *testRig) terminations(conversationID types.ConversationID) []types.ClosureReason {
	var reasons []types.ClosureReason
	for _, s := range r.states(conversationID) {
		if s.IsTerminating() {
			reasons = append(reasons, s.Reason)
		}
	}
	return reasons
}

func (r *testRig) missedCalls() []types.MissedCall {
	var calls []types.MissedCall
	for i := 0; i < r.listener.OnMissedCallCallCount(); i++ {
		calls = append(calls, r.listener.OnMissedCallArgsForCall(i))
	}
	return calls
}

func (r *testRig) sent() []*signalling.CallMessage {
	var msgs []*signalling.CallMessage
	for i := 0; i < r.sender.SendCallCount(); i++ {
		payload, _, sender, _ := r.sender.SendArgsForCall(i)
		require.Equal(r.t, r.self.UserID, sender)
		msg, err := signalling.DecodeCallMessage(payload)
		require.NoError(r.t, err)
		msgs = append(msgs, msg)
	}
	return msgs
}

func (r *testRig) sentMethods() []signalling.Method {
	var methods []signalling.Method
	for _, msg := range r.sent() {
		methods = append(methods, msg.Type)
	}
	return methods
}

func (r *testRig) numTransports() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return len(r.sessions)
}

func (r *testRig) transport(i int) (*typesfakes.FakeTransportSession, types.TransportParams) {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.sessions[i], r.params[i]
}

// establish reports the latest transport as fully connected.
func (r *testRig) establish(conversationID types.ConversationID) {
	_, params := r.transport(r.numTransports() - 1)
	params.Handler.OnConnected()
	params.Handler.OnMediaEstablished()
	r.settle(conversationID)
}
