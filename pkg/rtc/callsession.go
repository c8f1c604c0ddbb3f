package rtc

import (
	"sync"
	"time"

	"github.com/gammazero/workerpool"

	"github.com/livekit/livekit-callcore/pkg/config"
	"github.com/livekit/livekit-callcore/pkg/rtc/roster"
	"github.com/livekit/livekit-callcore/pkg/rtc/signalling"
	"github.com/livekit/livekit-callcore/pkg/rtc/transport"
	"github.com/livekit/livekit-callcore/pkg/rtc/types"
	"github.com/livekit/livekit-callcore/pkg/telemetry"
	"github.com/livekit/livekit-callcore/pkg/utils"
	"github.com/livekit/protocol/logger"
)

const (
	responseTimerName = "response"
	connectTimerName  = "connect"
	incomingTimerName = "incoming"
)

// CallSlot is the process-wide reservation that allows at most one active call.
type CallSlot interface {
	Reserve(conversationID types.ConversationID) bool
	Release(conversationID types.ConversationID)
}

type CallSessionParams struct {
	ConversationID       types.ConversationID
	RoomType             types.RoomType
	MediaPolicy          types.MediaPolicy
	Self                 types.MemberInfo
	SelfName             string
	Call                 config.CallConfig
	Roster               config.RosterConfig
	DirectConnectTimeout time.Duration
	Slot                 CallSlot
	Sender               types.SignalSender
	Transports           types.TransportFactory
	Capabilities         func() types.Capabilities
	Telemetry            telemetry.TelemetryService
	Scheduler            *utils.Scheduler
	// OnClosed is called on the session worker once the session reached none.
	OnClosed func(s *CallSession)
	Logger   logger.Logger
}

// CallSession runs the call state machine of one conversation. Every mutation runs on a
// single worker, so operations, remote signals, transport events and timers for the same
// conversation apply strictly in the order they were submitted.
type CallSession struct {
	params    CallSessionParams
	logger    logger.Logger
	roster    *roster.Roster
	transport *transport.TransportManager
	worker    *workerpool.WorkerPool

	lock   sync.Mutex
	closed bool

	stateLock   sync.RWMutex
	state       types.CallState
	mediaPolicy types.MediaPolicy
	starter     types.MemberInfo

	// owned by the worker
	degraded      bool
	holdsSlot     bool
	members       []types.MemberInfo
	joinToken     string
	dataReady     bool
	mediaReady    bool
	lastOthers    int
	establishedAt time.Time
}

func NewCallSession(params CallSessionParams) *CallSession {
	if params.Logger == nil {
		params.Logger = logger.GetLogger()
	}
	if params.Scheduler == nil {
		params.Scheduler = utils.NewScheduler()
	}
	if params.Telemetry == nil {
		params.Telemetry = telemetry.NewTelemetryService(nil, params.Logger)
	}
	if params.Capabilities == nil {
		params.Capabilities = func() types.Capabilities { return types.Capabilities{} }
	}
	if params.Call.StillOngoingMinRemaining <= 0 {
		params.Call.StillOngoingMinRemaining = config.DefaultConfig.Call.StillOngoingMinRemaining
	}

	c := &CallSession{
		params:      params,
		logger:      params.Logger.WithValues("conversation", params.ConversationID),
		worker:      workerpool.New(1),
		state:       types.NewCallState(types.StateNone),
		mediaPolicy: params.MediaPolicy,
	}

	c.roster = roster.NewRoster(roster.RosterParams{
		ConversationID:        params.ConversationID,
		SelfID:                params.Self.UserID,
		ConnectTimeout:        params.Roster.MemberConnectTimeout,
		RemoveWhenUnconnected: params.RoomType.IsGroup(),
		SpeakerThresholdDB:    params.Roster.SpeakerThresholdDB,
		SpeakerResignWindow:   params.Roster.SpeakerResignWindow,
		SpeakersDebounce:      params.Roster.SpeakersDebounce,
		Scheduler:             params.Scheduler,
		Executor:              c.execute,
		Logger:                c.logger,
	})
	c.roster.OnChanged(func(members []types.Member) {
		c.params.Telemetry.RosterChanged(c.params.ConversationID, members)
		c.post(c.onRosterChanged)
	})
	c.roster.OnCountChanged(func(count int) {
		c.params.Telemetry.MemberCountChanged(c.params.ConversationID, count)
		c.post(c.onMemberCountChanged)
	})

	c.transport = transport.NewTransportManager(transport.TransportManagerParams{
		ConversationID:       params.ConversationID,
		Self:                 params.Self,
		Factory:              params.Transports,
		Roster:               c.roster,
		DirectConnectTimeout: params.DirectConnectTimeout,
		Scheduler:            params.Scheduler,
		Executor:             c.execute,
		Handler:              sessionTransportEvents{c},
		Logger:               c.logger,
	})
	return c
}

func (c *CallSession) ConversationID() types.ConversationID {
	return c.params.ConversationID
}

func (c *CallSession) RoomType() types.RoomType {
	return c.params.RoomType
}

func (c *CallSession) State() types.CallState {
	c.stateLock.RLock()
	defer c.stateLock.RUnlock()

	return c.state
}

func (c *CallSession) MediaPolicy() types.MediaPolicy {
	c.stateLock.RLock()
	defer c.stateLock.RUnlock()

	return c.mediaPolicy
}

// Starter is the member who placed the call.
func (c *CallSession) Starter() types.MemberInfo {
	c.stateLock.RLock()
	defer c.stateLock.RUnlock()

	return c.starter
}

func (c *CallSession) Members() []types.Member {
	return c.roster.Members()
}

func (c *CallSession) TransportMode() (types.TransportMode, bool) {
	return c.transport.Mode()
}

// ---------------------------------------------------------------
// local operations

func (c *CallSession) StartCall(policy types.MediaPolicy, members []types.MemberInfo, joinToken string) bool {
	return c.do(func() bool {
		state := c.State()
		if state.Kind != types.StateNone {
			c.logger.Warnw("cannot start call", nil, "state", state.String())
			return false
		}
		if !c.reserve() {
			c.logger.Infow("cannot start call, another call is active")
			return false
		}

		c.setStarter(c.params.Self, policy)
		c.members = members
		c.joinToken = joinToken
		if !c.setState(c.degradable(types.StateOutgoing)) {
			c.release()
			return false
		}
		c.params.Telemetry.CallStarted(c.params.ConversationID, telemetry.DirectionOutgoing, c.params.RoomType)

		if !c.connect(false) {
			return false
		}
		c.send(signalling.NewStart(c.params.RoomType, policy, c.alert()), func(err error) {
			if c.State().Kind == types.StateOutgoing {
				c.terminate(types.ReasonInternalError)
			}
		})
		c.armTimer(responseTimerName, c.params.Call.ResponseTimeout, c.onResponseTimeout)
		return true
	})
}

// AnswerCall joins a ringing call, or a group call left earlier that is still ongoing.
func (c *CallSession) AnswerCall(policy types.MediaPolicy, members []types.MemberInfo, joinToken string) bool {
	return c.do(func() bool {
		state := c.State()
		if state.Kind != types.StateIncoming && !state.IsResumable() {
			c.logger.Warnw("cannot answer call", nil, "state", state.String())
			return false
		}
		if !c.reserve() {
			c.logger.Infow("cannot answer call, another call is active")
			return false
		}

		c.setMediaPolicy(policy)
		if len(members) > 0 {
			c.members = members
		}
		if joinToken != "" {
			c.joinToken = joinToken
		}
		c.cancelTimer(incomingTimerName)
		if !c.setState(c.degradable(types.StateAnsweredIncoming)) {
			c.release()
			return false
		}
		if state.IsResumable() {
			c.params.Telemetry.CallStarted(c.params.ConversationID, telemetry.DirectionIncoming, c.params.RoomType)
		}

		c.send(signalling.NewAnswer(c.params.RoomType, policy), nil)
		// the answering side offers on a direct link
		if !c.connect(true) {
			return false
		}
		c.armTimer(connectTimerName, c.params.Call.ConnectTimeout, c.onConnectTimeout)
		return true
	})
}

func (c *CallSession) RejectCall() bool {
	return c.do(func() bool {
		state := c.State()
		if state.Kind != types.StateIncoming {
			c.logger.Warnw("cannot reject call", nil, "state", state.String())
			return false
		}

		c.send(signalling.NewReject(c.params.RoomType, c.MediaPolicy()), nil)
		if c.params.RoomType.IsGroup() {
			c.terminate(types.ReasonStillOngoing)
		} else {
			c.terminate(types.ReasonNormal)
		}
		return true
	})
}

func (c *CallSession) CancelCall() bool {
	return c.do(func() bool {
		state := c.State()
		if state.Kind != types.StateOutgoing {
			c.logger.Warnw("cannot cancel call", nil, "state", state.String())
			return false
		}

		c.send(signalling.NewCancel(c.params.RoomType, c.MediaPolicy(), c.alert()), nil)
		c.terminate(types.ReasonCanceled)
		return true
	})
}

func (c *CallSession) EndCall(reason types.ClosureReason) bool {
	return c.do(func() bool {
		state := c.State()
		if !state.IsInCall() {
			c.logger.Debugw("cannot end call", "state", state.String())
			return false
		}
		c.endCall(reason)
		return true
	})
}

// SetDegraded reflects a trust level change of the conversation.
func (c *CallSession) SetDegraded(degraded bool) bool {
	return c.do(func() bool {
		c.degraded = degraded
		state := c.State()
		switch {
		case state.SupportsDegraded():
			if state.Degraded != degraded {
				next := state
				next.Degraded = degraded
				c.replaceState(next)
			}
		case degraded && state.IsEstablished():
			c.endCall(types.ReasonSecurityDegraded)
		}
		return true
	})
}

// OnMediaStopped is reported by the host when local media was interrupted.
func (c *CallSession) OnMediaStopped() bool {
	return c.do(func() bool {
		if c.State().Kind != types.StateEstablished {
			return false
		}
		return c.setState(types.NewCallState(types.StateMediaStopped))
	})
}

func (c *CallSession) OnMediaResumed() bool {
	return c.do(func() bool {
		if c.State().Kind != types.StateMediaStopped {
			return false
		}
		return c.setState(types.NewCallState(types.StateEstablished))
	})
}

func (c *CallSession) SetLocalAudioMuted(muted bool) error {
	return c.transport.SetLocalAudioMuted(muted)
}

func (c *CallSession) SetLocalVideo(state types.VideoState) error {
	return c.transport.SetLocalVideo(state)
}

func (c *CallSession) SetScreenShare(enabled bool) error {
	return c.transport.SetScreenShare(enabled)
}

func (c *CallSession) SetPinned(userID types.UserID, pinned bool) bool {
	return c.roster.SetPinned(userID, pinned)
}

// Close tears the session down for good, notifying the remote side of an active call.
// It must not be called from a listener callback that blocks the session worker.
func (c *CallSession) Close() {
	c.do(func() bool {
		state := c.State()
		switch {
		case state.IsInCall():
			c.endCall(types.ReasonTerminate)
		case state.Kind == types.StateIncoming:
			c.terminate(types.ReasonTerminate)
		}
		if c.State().IsResumable() {
			c.finish()
		}
		return true
	})
	c.shutdown()
}

// ---------------------------------------------------------------
// remote signals

func (c *CallSession) ReceiveStart(event types.InboundEvent, msg *signalling.CallMessage) {
	c.post(func() {
		state := c.State()
		sender := event.Sender()
		switch {
		case state.Kind == types.StateNone || state.IsResumable():
		default:
			// both sides started at once, or another member restarted a running call
			c.logger.Infow("ignoring start while in call", "state", state.String(), "sender", sender.String())
			return
		}

		if !c.reserve() {
			c.sendBusy(sender, msg)
			c.params.Telemetry.MissedCall(c.missedCall(sender, msg, event, false), telemetry.MissedCallBusy)
			if state.Kind == types.StateNone {
				c.finish()
			}
			return
		}

		c.setStarter(sender, msg.MediaPolicy)
		if state.Kind == types.StateNone || len(c.members) == 0 {
			c.members = []types.MemberInfo{sender}
		}
		if !c.setState(c.degradable(types.StateIncoming)) {
			c.release()
			return
		}
		c.params.Telemetry.CallStarted(c.params.ConversationID, telemetry.DirectionIncoming, c.params.RoomType)
		c.armTimer(incomingTimerName, c.params.Call.IncomingTimeout, c.onIncomingTimeout)
	})
}

func (c *CallSession) ReceiveAnswer(event types.InboundEvent, msg *signalling.CallMessage) {
	c.post(func() {
		state := c.State()
		sender := event.Sender()
		if c.isOtherSelfDevice(sender) {
			if state.Kind == types.StateIncoming || state.IsInCall() {
				c.terminate(types.ReasonAnsweredElsewhere)
			}
			return
		}

		if c.params.RoomType.IsGroup() {
			c.roster.SetInviteState(sender.UserID, types.InviteAccepted)
		}
		if state.Kind != types.StateOutgoing {
			return
		}

		c.cancelTimer(responseTimerName)
		if !c.setState(c.degradable(types.StateAnswered)) {
			return
		}
		c.armTimer(connectTimerName, c.params.Call.ConnectTimeout, c.onConnectTimeout)
		if !c.params.RoomType.IsGroup() {
			c.transport.ArmDirectFallback()
		}
		c.promote()
	})
}

func (c *CallSession) ReceiveReject(event types.InboundEvent, msg *signalling.CallMessage) {
	c.post(func() {
		state := c.State()
		sender := event.Sender()
		if c.isOtherSelfDevice(sender) {
			if state.Kind == types.StateIncoming || state.IsInCall() {
				c.terminate(types.ReasonRejectedElsewhere)
			}
			return
		}

		if c.params.RoomType.IsGroup() {
			c.roster.SetInviteState(sender.UserID, types.InviteRejected)
			return
		}
		if state.Kind == types.StateOutgoing {
			c.terminate(types.ReasonNormal)
		}
	})
}

func (c *CallSession) ReceiveCancel(event types.InboundEvent, msg *signalling.CallMessage) {
	c.post(func() {
		state := c.State()
		sender := event.Sender()
		switch {
		case state.IsResumable():
			c.finish()
		case state.Kind == types.StateIncoming && sender.UserID == c.Starter().UserID:
			c.params.Telemetry.MissedCall(c.missedCall(sender, msg, event, false), telemetry.MissedCallCanceled)
			c.terminate(types.ReasonCanceled)
		case state.Kind == types.StateAnsweredIncoming && !c.params.RoomType.IsGroup():
			c.terminate(types.ReasonCanceled)
		}
	})
}

func (c *CallSession) ReceiveEnd(event types.InboundEvent, msg *signalling.CallMessage) {
	c.post(func() {
		state := c.State()
		switch {
		case state.IsResumable():
			c.finish()
		case state.Kind == types.StateIncoming:
			c.params.Telemetry.MissedCall(c.missedCall(c.Starter(), msg, event, false), telemetry.MissedCallCanceled)
			c.terminate(types.ReasonNormal)
		case state.IsInCall():
			c.terminate(types.ReasonNormal)
		}
	})
}

func (c *CallSession) ReceiveLeave(event types.InboundEvent, msg *signalling.CallMessage) {
	c.post(func() {
		state := c.State()
		sender := event.Sender()
		if !c.params.RoomType.IsGroup() {
			if state.Kind == types.StateIncoming || state.IsInCall() {
				c.terminate(types.ReasonNormal)
			} else if state.IsResumable() {
				c.finish()
			}
			return
		}

		c.roster.Remove(sender.UserID)
		if msg.MemberCount == nil || *msg.MemberCount > 0 {
			return
		}
		// the last member left
		switch {
		case state.IsResumable():
			c.finish()
		case state.Kind == types.StateIncoming:
			c.params.Telemetry.MissedCall(c.missedCall(c.Starter(), msg, event, false), telemetry.MissedCallCanceled)
			c.terminate(types.ReasonNormal)
		}
	})
}

func (c *CallSession) ReceiveBusy(event types.InboundEvent, msg *signalling.CallMessage) {
	c.post(func() {
		if msg.Target == nil || msg.Target.UserID != c.params.Self.UserID {
			return
		}
		if msg.Target.ClientID != "" && msg.Target.ClientID != c.params.Self.ClientID {
			return
		}

		if c.params.RoomType.IsGroup() {
			c.roster.SetInviteState(event.SenderUserID, types.InviteNoResponse)
			return
		}
		if c.State().Kind == types.StateOutgoing {
			c.terminate(types.ReasonBusy)
		}
	})
}

// ---------------------------------------------------------------
// transport and roster events, on the worker

type sessionTransportEvents struct {
	c *CallSession
}

func (e sessionTransportEvents) OnDataChannelEstablished() { e.c.onDataChannelEstablished() }
func (e sessionTransportEvents) OnEstablished()            { e.c.onEstablished() }
func (e sessionTransportEvents) OnReconnecting()           { e.c.onReconnecting() }
func (e sessionTransportEvents) OnTransportLost(err error) { e.c.onTransportLost(err) }
func (e sessionTransportEvents) OnRoomEmpty()              { e.c.onRoomEmpty() }
func (e sessionTransportEvents) OnVideoStateChanged(userID types.UserID, state types.VideoState) {
	e.c.params.Telemetry.VideoStateChanged(e.c.params.ConversationID, userID, state)
}

func (c *CallSession) onDataChannelEstablished() {
	c.dataReady = true
	c.promote()
}

func (c *CallSession) onEstablished() {
	c.mediaReady = true
	switch c.State().Kind {
	case types.StateReconnecting, types.StateMediaStopped:
		c.setState(types.NewCallState(types.StateEstablished))
	default:
		c.promote()
	}
}

func (c *CallSession) onReconnecting() {
	switch c.State().Kind {
	case types.StateEstablished, types.StateEstablishedDataChannel:
		c.setState(types.NewCallState(types.StateReconnecting))
	}
}

func (c *CallSession) onTransportLost(err error) {
	state := c.State()
	if !state.IsInCall() {
		return
	}
	c.logger.Warnw("call transport lost", err, "state", state.String())
	// the roster is already cleared, announce the last known count
	c.sendEnd(c.lastOthers)
	c.terminate(types.ReasonInternalError)
}

func (c *CallSession) onRoomEmpty() {
	if !c.State().IsInCall() {
		return
	}
	c.logger.Infow("everyone else left the call")
	c.sendEnd(0)
	c.terminate(types.ReasonNormal)
}

func (c *CallSession) onMemberCountChanged() {
	if c.State().IsInCall() {
		c.lastOthers = c.roster.CountOthers(false)
	}
}

func (c *CallSession) onRosterChanged() {
	c.promote()
}

// promote advances a call that is waiting for its transport.
func (c *CallSession) promote() {
	state := c.State()
	switch state.Kind {
	case types.StateOutgoing:
		// a group caller alone in the room is still calling
		if c.params.RoomType.IsGroup() && c.roster.CountOthers(true) == 0 {
			return
		}
	case types.StateAnswered, types.StateAnsweredIncoming, types.StateEstablishedDataChannel:
	default:
		return
	}

	switch {
	case c.mediaReady:
		if c.setState(types.NewCallState(types.StateEstablished)) {
			c.establishedAt = time.Now()
			c.cancelTimer(responseTimerName)
			c.cancelTimer(connectTimerName)
		}
	case c.dataReady && state.Kind != types.StateEstablishedDataChannel:
		c.setState(types.NewCallState(types.StateEstablishedDataChannel))
	}
}

// ---------------------------------------------------------------
// timers

func (c *CallSession) onResponseTimeout() {
	if c.State().Kind != types.StateOutgoing {
		return
	}
	c.logger.Infow("call was not answered in time")
	c.endCall(types.ReasonTimeout)
}

func (c *CallSession) onConnectTimeout() {
	switch c.State().Kind {
	case types.StateAnswered, types.StateAnsweredIncoming, types.StateEstablishedDataChannel:
		c.logger.Infow("call media was not established in time")
		c.endCall(types.ReasonTimeout)
	}
}

func (c *CallSession) onIncomingTimeout() {
	if c.State().Kind != types.StateIncoming {
		return
	}
	starter := c.Starter()
	c.params.Telemetry.MissedCall(types.MissedCall{
		ConversationID: c.params.ConversationID,
		Caller:         starter,
		RoomType:       c.params.RoomType,
		MediaPolicy:    c.MediaPolicy(),
		At:             time.Now(),
	}, telemetry.MissedCallNoAnswer)
	c.terminate(c.groupReason(types.ReasonTimeout))
}

func (c *CallSession) timerKey(name string) string {
	return string(c.params.ConversationID) + "/" + name
}

func (c *CallSession) armTimer(name string, d time.Duration, onExpired func()) {
	scheduler := c.params.Scheduler
	scheduler.Schedule(c.timerKey(name), d, func(token utils.TimerToken) {
		c.post(func() {
			if !scheduler.Consume(token) {
				return
			}
			onExpired()
		})
	})
}

func (c *CallSession) cancelTimer(name string) {
	c.params.Scheduler.CancelKey(c.timerKey(name))
}

func (c *CallSession) cancelTimers() {
	c.cancelTimer(responseTimerName)
	c.cancelTimer(connectTimerName)
	c.cancelTimer(incomingTimerName)
}

// ---------------------------------------------------------------
// termination

// endCall leaves an active call, telling the others why.
func (c *CallSession) endCall(reason types.ClosureReason) {
	if !c.params.RoomType.IsGroup() {
		if c.State().Kind == types.StateOutgoing {
			c.send(signalling.NewCancel(c.params.RoomType, c.MediaPolicy(), c.alert()), nil)
		} else {
			c.sendEnd(0)
		}
		c.terminate(reason)
		return
	}

	// invitees that never answered do not keep the call alive
	remaining := c.roster.CountOthers(true)
	c.sendEnd(remaining)
	if reason == types.ReasonTimeout || remaining >= c.params.Call.StillOngoingMinRemaining {
		reason = types.ReasonStillOngoing
	}
	c.terminate(reason)
}

// terminate moves to terminating(reason), leaves the transport and frees the call slot.
// Calls that cannot be resumed then return to none.
func (c *CallSession) terminate(reason types.ClosureReason) {
	state := c.State()
	if state.Kind == types.StateNone || state.IsTerminating() {
		return
	}

	c.cancelTimers()
	if !c.setState(types.Terminating(reason)) {
		return
	}
	c.transport.Leave(string(c.params.ConversationID))
	c.release()
	c.params.Telemetry.CallEnded(c.params.ConversationID, reason, c.establishedAt)

	c.dataReady = false
	c.mediaReady = false
	c.lastOthers = 0
	c.establishedAt = time.Time{}

	if reason != types.ReasonStillOngoing {
		c.finish()
	}
}

func (c *CallSession) finish() {
	if c.State().Kind != types.StateNone {
		c.cancelTimers()
		c.setState(types.NewCallState(types.StateNone))
	}
	if c.params.OnClosed != nil {
		c.params.OnClosed(c)
	}
}

// groupReason maps a timeout to still ongoing for rooms others may still be in.
func (c *CallSession) groupReason(reason types.ClosureReason) types.ClosureReason {
	if c.params.RoomType.IsGroup() && reason == types.ReasonTimeout {
		return types.ReasonStillOngoing
	}
	return reason
}

// ---------------------------------------------------------------
// helpers

func (c *CallSession) connect(isInitiator bool) bool {
	err := c.transport.Connect(transport.ConnectParams{
		RoomID:       string(c.params.ConversationID),
		RoomType:     c.params.RoomType,
		MediaPolicy:  c.MediaPolicy(),
		IsInitiator:  isInitiator,
		Members:      c.members,
		JoinToken:    c.joinToken,
		Capabilities: c.params.Capabilities(),
	})
	if err != nil {
		c.logger.Warnw("could not connect call transport", err)
		c.terminate(types.ReasonInternalError)
		return false
	}
	return true
}

func (c *CallSession) setState(next types.CallState) bool {
	c.stateLock.Lock()
	prev := c.state
	if !prev.CanTransitionTo(next) {
		c.stateLock.Unlock()
		c.logger.Warnw("invalid call state transition", nil, "from", prev.String(), "to", next.String())
		return false
	}
	c.state = next
	c.stateLock.Unlock()

	c.logger.Infow("call state changed", "from", prev.String(), "to", next.String())
	c.params.Telemetry.CallStateChanged(c.params.ConversationID, prev, next)
	return true
}

// replaceState updates flags of the current state without a transition.
func (c *CallSession) replaceState(next types.CallState) {
	c.stateLock.Lock()
	prev := c.state
	c.state = next
	c.stateLock.Unlock()

	c.logger.Infow("call state updated", "from", prev.String(), "to", next.String())
	c.params.Telemetry.CallStateChanged(c.params.ConversationID, prev, next)
}

func (c *CallSession) degradable(kind types.CallStateKind) types.CallState {
	return types.CallState{Kind: kind, Degraded: c.degraded}
}

func (c *CallSession) setStarter(starter types.MemberInfo, policy types.MediaPolicy) {
	c.stateLock.Lock()
	defer c.stateLock.Unlock()

	c.starter = starter
	c.mediaPolicy = policy
}

func (c *CallSession) setMediaPolicy(policy types.MediaPolicy) {
	c.stateLock.Lock()
	defer c.stateLock.Unlock()

	c.mediaPolicy = policy
}

func (c *CallSession) reserve() bool {
	if c.holdsSlot {
		return true
	}
	if c.params.Slot != nil && !c.params.Slot.Reserve(c.params.ConversationID) {
		return false
	}
	c.holdsSlot = true
	return true
}

func (c *CallSession) release() {
	if !c.holdsSlot {
		return
	}
	c.holdsSlot = false
	if c.params.Slot != nil {
		c.params.Slot.Release(c.params.ConversationID)
	}
}

func (c *CallSession) isOtherSelfDevice(sender types.MemberInfo) bool {
	return sender.UserID == c.params.Self.UserID && sender.ClientID != c.params.Self.ClientID
}

func (c *CallSession) alert() *signalling.VoiceAlert {
	return &signalling.VoiceAlert{
		CallerID:   c.params.Self.UserID,
		CallerName: c.params.SelfName,
	}
}

func (c *CallSession) missedCall(caller types.MemberInfo, msg *signalling.CallMessage, event types.InboundEvent, stale bool) types.MissedCall {
	return types.MissedCall{
		ConversationID: c.params.ConversationID,
		Caller:         caller,
		RoomType:       c.params.RoomType,
		MediaPolicy:    msg.MediaPolicy,
		At:             msg.SentTime(event.ServerTimestamp),
		Stale:          stale,
	}
}

// sendEnd announces leaving: end for one-to-one calls, leave with the remaining count otherwise.
func (c *CallSession) sendEnd(remaining int) {
	if c.params.RoomType.IsGroup() {
		c.send(signalling.NewLeave(c.params.RoomType, c.MediaPolicy(), remaining), nil)
	} else {
		c.send(signalling.NewEnd(c.params.RoomType, c.MediaPolicy()), nil)
	}
}

func (c *CallSession) sendBusy(target types.MemberInfo, msg *signalling.CallMessage) {
	c.send(signalling.NewBusy(msg.RoomType, msg.MediaPolicy, target), nil)
}

// send hands a call message to the conversation transport. onFailed runs on the worker
// when delivery fails.
func (c *CallSession) send(msg *signalling.CallMessage, onFailed func(err error)) {
	payload, err := signalling.EncodeCallMessage(msg)
	if err != nil {
		c.logger.Errorw("could not encode call message", err, "method", msg.Type)
		return
	}
	if c.params.Sender == nil {
		return
	}
	c.params.Sender.Send(payload, c.params.ConversationID, c.params.Self.UserID, func(err error) {
		if err == nil {
			return
		}
		c.logger.Warnw("could not deliver call message", err, "method", msg.Type)
		if onFailed != nil {
			c.post(func() { onFailed(err) })
		}
	})
}

// ---------------------------------------------------------------
// worker

func (c *CallSession) execute(f func()) {
	c.post(f)
}

func (c *CallSession) post(f func()) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed {
		return false
	}
	c.worker.Submit(f)
	return true
}

// do runs op on the worker and waits for its result. It must not be called from the worker.
func (c *CallSession) do(op func() bool) bool {
	done := make(chan bool, 1)
	if !c.post(func() { done <- op() }) {
		return false
	}
	return <-done
}

// shutdown stops the worker after the queued work ran. It must not be called from the worker.
func (c *CallSession) shutdown() {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return
	}
	c.closed = true
	c.lock.Unlock()

	c.worker.StopWait()
	c.cancelTimers()
	c.transport.Leave("")
	c.roster.Close()
}
