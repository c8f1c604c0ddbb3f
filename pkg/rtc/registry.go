package rtc

import (
	"context"
	"sync"
	"time"

	"github.com/gammazero/deque"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/livekit/livekit-callcore/pkg/config"
	"github.com/livekit/livekit-callcore/pkg/rtc/signalling"
	"github.com/livekit/livekit-callcore/pkg/rtc/types"
	"github.com/livekit/livekit-callcore/pkg/telemetry"
	"github.com/livekit/livekit-callcore/pkg/telemetry/prometheus"
	"github.com/livekit/livekit-callcore/pkg/utils"
	"github.com/livekit/protocol/logger"
)

// dispositions of received signals
const (
	signalDispatched = "dispatched"
	signalBuffered   = "buffered"
	signalDuplicate  = "duplicate"
	signalStale      = "stale"
	signalEcho       = "echo"
	signalNoSession  = "no_session"
	signalBusy       = "busy"
	signalInvalid    = "invalid"
)

type RegistryParams struct {
	Self       types.MemberInfo
	SelfName   string
	Config     *config.Config
	Sender     types.SignalSender
	Transports types.TransportFactory
	Telemetry  telemetry.TelemetryService
	Scheduler  *utils.Scheduler
	Logger     logger.Logger
}

type signalKey struct {
	conversationID types.ConversationID
	clientID       types.ClientID
	serverTime     int64
	method         signalling.Method
}

type inboundSignal struct {
	event types.InboundEvent
	msg   *signalling.CallMessage
}

// Registry owns the call sessions of every conversation and the single active call slot.
type Registry struct {
	params RegistryParams
	logger logger.Logger
	seen   *lru.Cache[signalKey, struct{}]

	slotLock sync.Mutex
	active   types.ConversationID

	lock         sync.Mutex
	sessions     map[types.ConversationID]*CallSession
	ready        bool
	closed       bool
	pending      deque.Deque
	capabilities types.Capabilities
}

func NewRegistry(params RegistryParams) (*Registry, error) {
	if params.Config == nil {
		conf := config.DefaultConfig
		params.Config = &conf
	}
	if params.Logger == nil {
		params.Logger = logger.GetLogger()
	}
	if params.Scheduler == nil {
		params.Scheduler = utils.NewScheduler()
	}
	if params.Telemetry == nil {
		params.Telemetry = telemetry.NewTelemetryService(nil, params.Logger)
	}

	size := params.Config.Call.DedupeCacheSize
	if size <= 0 {
		size = config.DefaultConfig.Call.DedupeCacheSize
	}
	seen, err := lru.New[signalKey, struct{}](size)
	if err != nil {
		return nil, err
	}

	return &Registry{
		params:   params,
		logger:   params.Logger,
		seen:     seen,
		sessions: make(map[types.ConversationID]*CallSession),
	}, nil
}

// ---------------------------------------------------------------
// active call slot

func (r *Registry) Reserve(conversationID types.ConversationID) bool {
	r.slotLock.Lock()
	defer r.slotLock.Unlock()

	if r.active != "" && r.active != conversationID {
		return false
	}
	r.active = conversationID
	return true
}

func (r *Registry) Release(conversationID types.ConversationID) {
	r.slotLock.Lock()
	defer r.slotLock.Unlock()

	if r.active == conversationID {
		r.active = ""
	}
}

// IsInCalling reports whether any conversation holds the active call slot.
func (r *Registry) IsInCalling() bool {
	r.slotLock.Lock()
	defer r.slotLock.Unlock()

	return r.active != ""
}

func (r *Registry) ActiveConversation() (types.ConversationID, bool) {
	r.slotLock.Lock()
	defer r.slotLock.Unlock()

	return r.active, r.active != ""
}

// ---------------------------------------------------------------
// readiness

// Start fetches media capabilities, then replays the signals received so far.
func (r *Registry) Start(ctx context.Context, fetcher types.CapabilityFetcher) error {
	caps, err := fetcher.FetchCapabilities(ctx)
	if err != nil {
		return errors.Wrap(err, "could not fetch media capabilities")
	}
	r.SetReady(caps)
	return nil
}

func (r *Registry) SetReady(caps types.Capabilities) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return
	}
	r.capabilities = caps
	if r.ready {
		return
	}
	r.ready = true

	if r.pending.Len() > 0 {
		r.logger.Infow("replaying buffered call signals", "count", r.pending.Len())
	}
	for r.pending.Len() > 0 {
		in := r.pending.PopFront().(inboundSignal)
		r.dispatchLocked(in.event, in.msg)
	}
}

func (r *Registry) IsReady() bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.ready
}

func (r *Registry) Capabilities() types.Capabilities {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.capabilities
}

// ---------------------------------------------------------------
// inbound signals

// Receive accepts a call signal from the conversation transport. Only malformed payloads
// are reported; everything else resolves into session state.
func (r *Registry) Receive(event types.InboundEvent) error {
	msg, err := signalling.DecodeCallMessage(event.Payload)
	if err != nil {
		prometheus.RecordSignalReceived("unknown", signalInvalid)
		return err
	}
	if event.LocalTimestamp.IsZero() {
		event.LocalTimestamp = time.Now()
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}
	if !event.ServerTimestamp.IsZero() {
		key := signalKey{
			conversationID: event.ConversationID,
			clientID:       event.SenderClientID,
			serverTime:     event.ServerTimestamp.UnixMilli(),
			method:         msg.Type,
		}
		if found, _ := r.seen.ContainsOrAdd(key, struct{}{}); found {
			prometheus.RecordSignalReceived(string(msg.Type), signalDuplicate)
			return nil
		}
	}
	if !r.ready {
		r.pending.PushBack(inboundSignal{event: event, msg: msg})
		prometheus.RecordSignalReceived(string(msg.Type), signalBuffered)
		return nil
	}
	r.dispatchLocked(event, msg)
	return nil
}

func (r *Registry) dispatchLocked(event types.InboundEvent, msg *signalling.CallMessage) {
	sender := event.Sender()
	if sender == r.params.Self {
		prometheus.RecordSignalReceived(string(msg.Type), signalEcho)
		return
	}

	sentAt := msg.SentTime(event.ServerTimestamp)
	if age := event.LocalTimestamp.Sub(sentAt); !sentAt.IsZero() && age > r.params.Config.Call.StaleThreshold {
		prometheus.RecordSignalReceived(string(msg.Type), signalStale)
		if msg.Type == signalling.MethodStart && sender.UserID != r.params.Self.UserID {
			r.params.Telemetry.MissedCall(types.MissedCall{
				ConversationID: event.ConversationID,
				Caller:         sender,
				RoomType:       msg.RoomType,
				MediaPolicy:    msg.MediaPolicy,
				At:             sentAt,
				Stale:          true,
			}, telemetry.MissedCallStale)
		}
		r.logger.Debugw("dropping stale call signal",
			"conversation", event.ConversationID,
			"method", msg.Type,
			"age", age,
		)
		return
	}

	s := r.sessions[event.ConversationID]
	if msg.Type == signalling.MethodStart {
		if sender.UserID == r.params.Self.UserID {
			// placed from another device of ours
			prometheus.RecordSignalReceived(string(msg.Type), signalEcho)
			return
		}
		if s == nil {
			if active, ok := r.ActiveConversation(); ok && active != event.ConversationID {
				r.rejectBusy(event, msg)
				return
			}
			s = r.newSessionLocked(event.ConversationID, msg.RoomType, msg.MediaPolicy)
		}
		prometheus.RecordSignalReceived(string(msg.Type), signalDispatched)
		s.ReceiveStart(event, msg)
		return
	}

	if s == nil {
		prometheus.RecordSignalReceived(string(msg.Type), signalNoSession)
		r.logger.Debugw("no call session for signal", "conversation", event.ConversationID, "method", msg.Type)
		return
	}

	prometheus.RecordSignalReceived(string(msg.Type), signalDispatched)
	switch msg.Type {
	case signalling.MethodAnswer:
		s.ReceiveAnswer(event, msg)
	case signalling.MethodReject:
		s.ReceiveReject(event, msg)
	case signalling.MethodCancel:
		s.ReceiveCancel(event, msg)
	case signalling.MethodEnd:
		s.ReceiveEnd(event, msg)
	case signalling.MethodLeave:
		s.ReceiveLeave(event, msg)
	case signalling.MethodBusy:
		s.ReceiveBusy(event, msg)
	}
}

// rejectBusy answers a start received while another conversation holds the call slot.
func (r *Registry) rejectBusy(event types.InboundEvent, msg *signalling.CallMessage) {
	prometheus.RecordSignalReceived(string(msg.Type), signalBusy)

	payload, err := signalling.EncodeCallMessage(signalling.NewBusy(msg.RoomType, msg.MediaPolicy, event.Sender()))
	if err != nil {
		r.logger.Errorw("could not encode busy", err)
	} else if r.params.Sender != nil {
		conversationID := event.ConversationID
		r.params.Sender.Send(payload, conversationID, r.params.Self.UserID, func(err error) {
			if err != nil {
				r.logger.Warnw("could not deliver busy", err, "conversation", conversationID)
			}
		})
	}

	r.params.Telemetry.MissedCall(types.MissedCall{
		ConversationID: event.ConversationID,
		Caller:         event.Sender(),
		RoomType:       msg.RoomType,
		MediaPolicy:    msg.MediaPolicy,
		At:             msg.SentTime(event.ServerTimestamp),
	}, telemetry.MissedCallBusy)
}

// ---------------------------------------------------------------
// sessions

func (r *Registry) newSessionLocked(conversationID types.ConversationID, roomType types.RoomType, policy types.MediaPolicy) *CallSession {
	conf := r.params.Config
	s := NewCallSession(CallSessionParams{
		ConversationID:       conversationID,
		RoomType:             roomType,
		MediaPolicy:          policy,
		Self:                 r.params.Self,
		SelfName:             r.params.SelfName,
		Call:                 conf.Call,
		Roster:               conf.Roster,
		DirectConnectTimeout: conf.Transport.DirectConnectTimeout,
		Slot:                 r,
		Sender:               r.params.Sender,
		Transports:           r.params.Transports,
		Capabilities:         r.Capabilities,
		Telemetry:            r.params.Telemetry,
		Scheduler:            r.params.Scheduler,
		OnClosed:             r.onSessionClosed,
		Logger:               r.params.Logger,
	})
	r.sessions[conversationID] = s
	return s
}

func (r *Registry) onSessionClosed(s *CallSession) {
	r.removeSession(s)
}

func (r *Registry) removeSession(s *CallSession) {
	r.lock.Lock()
	if r.sessions[s.ConversationID()] == s {
		delete(r.sessions, s.ConversationID())
	}
	r.lock.Unlock()

	// may run on the session worker
	go s.shutdown()
}

func (r *Registry) Session(conversationID types.ConversationID) (*CallSession, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	s, ok := r.sessions[conversationID]
	return s, ok
}

// State of the call in a conversation, none when there is no session.
func (r *Registry) State(conversationID types.ConversationID) types.CallState {
	if s, ok := r.Session(conversationID); ok {
		return s.State()
	}
	return types.NewCallState(types.StateNone)
}

func (r *Registry) Members(conversationID types.ConversationID) []types.Member {
	if s, ok := r.Session(conversationID); ok {
		return s.Members()
	}
	return nil
}

// ---------------------------------------------------------------
// operations

func (r *Registry) StartCall(
	conversationID types.ConversationID,
	roomType types.RoomType,
	policy types.MediaPolicy,
	members []types.MemberInfo,
	joinToken string,
) bool {
	r.lock.Lock()
	if r.closed || !r.ready {
		r.lock.Unlock()
		r.logger.Infow("cannot start call, not ready", "conversation", conversationID)
		return false
	}
	if _, ok := r.sessions[conversationID]; ok {
		r.lock.Unlock()
		r.logger.Infow("cannot start call, conversation has a call", "conversation", conversationID)
		return false
	}
	s := r.newSessionLocked(conversationID, roomType, policy)
	r.lock.Unlock()

	if !s.StartCall(policy, members, joinToken) {
		if s.State().Kind == types.StateNone {
			r.removeSession(s)
		}
		return false
	}
	return true
}

func (r *Registry) AnswerCall(conversationID types.ConversationID, policy types.MediaPolicy, members []types.MemberInfo, joinToken string) bool {
	s, ok := r.Session(conversationID)
	if !ok {
		return false
	}
	return s.AnswerCall(policy, members, joinToken)
}

func (r *Registry) RejectCall(conversationID types.ConversationID) bool {
	s, ok := r.Session(conversationID)
	if !ok {
		return false
	}
	return s.RejectCall()
}

func (r *Registry) CancelCall(conversationID types.ConversationID) bool {
	s, ok := r.Session(conversationID)
	if !ok {
		return false
	}
	return s.CancelCall()
}

func (r *Registry) EndCall(conversationID types.ConversationID, reason types.ClosureReason) bool {
	s, ok := r.Session(conversationID)
	if !ok {
		return false
	}
	return s.EndCall(reason)
}

func (r *Registry) SetDegraded(conversationID types.ConversationID, degraded bool) bool {
	s, ok := r.Session(conversationID)
	if !ok {
		return false
	}
	return s.SetDegraded(degraded)
}

func (r *Registry) OnMediaStopped(conversationID types.ConversationID) bool {
	s, ok := r.Session(conversationID)
	if !ok {
		return false
	}
	return s.OnMediaStopped()
}

func (r *Registry) OnMediaResumed(conversationID types.ConversationID) bool {
	s, ok := r.Session(conversationID)
	if !ok {
		return false
	}
	return s.OnMediaResumed()
}

func (r *Registry) SetLocalAudioMuted(conversationID types.ConversationID, muted bool) error {
	s, ok := r.Session(conversationID)
	if !ok {
		return ErrNoSession
	}
	return s.SetLocalAudioMuted(muted)
}

func (r *Registry) SetLocalVideo(conversationID types.ConversationID, state types.VideoState) error {
	s, ok := r.Session(conversationID)
	if !ok {
		return ErrNoSession
	}
	return s.SetLocalVideo(state)
}

func (r *Registry) SetScreenShare(conversationID types.ConversationID, enabled bool) error {
	s, ok := r.Session(conversationID)
	if !ok {
		return ErrNoSession
	}
	return s.SetScreenShare(enabled)
}

// Close ends every call and drops all sessions. Signals received afterwards are refused.
func (r *Registry) Close() {
	r.lock.Lock()
	if r.closed {
		r.lock.Unlock()
		return
	}
	r.closed = true
	sessions := make([]*CallSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[types.ConversationID]*CallSession)
	for r.pending.Len() > 0 {
		r.pending.PopFront()
	}
	r.lock.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
