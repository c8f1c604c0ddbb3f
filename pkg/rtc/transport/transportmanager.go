package transport

import (
	"context"
	"sync"
	"time"

	"github.com/livekit/livekit-callcore/pkg/rtc/roster"
	"github.com/livekit/livekit-callcore/pkg/rtc/types"
	"github.com/livekit/livekit-callcore/pkg/telemetry/prometheus"
	"github.com/livekit/livekit-callcore/pkg/utils"
	"github.com/livekit/protocol/logger"
)

const DefaultDirectConnectTimeout = 30 * time.Second

// MemberRoster is the subset of the call roster the transport layer keeps up to date.
type MemberRoster interface {
	Add(m types.Member) bool
	Remove(userID types.UserID) bool
	Clear()
	Get(userID types.UserID) (types.Member, bool)
	SetConnectState(userID types.UserID, state types.ConnectState) bool
	SetMute(userID types.UserID, muted bool) bool
	SetVideo(userID types.UserID, state types.VideoState) bool
	SetActiveSpeaker(userID types.UserID, volume float64) bool
	OnEmpty(f func())
}

type TransportManagerHandler interface {
	OnDataChannelEstablished()
	OnEstablished()
	OnReconnecting()
	OnTransportLost(err error)
	// every member other than self left the room
	OnRoomEmpty()
	OnVideoStateChanged(userID types.UserID, state types.VideoState)
}

type TransportManagerParams struct {
	ConversationID       types.ConversationID
	Self                 types.MemberInfo
	Factory              types.TransportFactory
	Roster               MemberRoster
	DirectConnectTimeout time.Duration
	Scheduler            *utils.Scheduler
	// Executor serializes transport events with the rest of the call; nil runs them inline.
	Executor func(func())
	Handler  TransportManagerHandler
	Logger   logger.Logger
}

type ConnectParams struct {
	RoomID       string
	RoomType     types.RoomType
	MediaPolicy  types.MediaPolicy
	IsInitiator  bool
	Members      []types.MemberInfo
	JoinToken    string
	Capabilities types.Capabilities
}

// TransportManager owns the media transport of one call. One-to-one calls try a direct
// connection first and fall back to the relay; group rooms always go through the relay.
type TransportManager struct {
	params TransportManagerParams

	lock          sync.Mutex
	connect       *ConnectParams
	ctx           context.Context
	cancel        context.CancelFunc
	current       types.TransportSession
	generation    uint64
	dataChannelUp bool
	mediaUp       bool
	fallbackToken utils.TimerToken

	audioMuted  bool
	videoState  types.VideoState
	screenShare bool
}

func NewTransportManager(params TransportManagerParams) *TransportManager {
	if params.Logger == nil {
		params.Logger = logger.GetLogger()
	}
	if params.DirectConnectTimeout <= 0 {
		params.DirectConnectTimeout = DefaultDirectConnectTimeout
	}
	if params.Scheduler == nil {
		params.Scheduler = utils.NewScheduler()
	}
	if params.Executor == nil {
		params.Executor = func(f func()) { f() }
	}

	t := &TransportManager{
		params: params,
	}
	if params.Roster != nil {
		params.Roster.OnEmpty(func() {
			t.params.Executor(t.onRosterEmpty)
		})
	}
	return t
}

// Connect joins the room. Calling it again for the same room is a no-op.
func (t *TransportManager) Connect(params ConnectParams) error {
	t.lock.Lock()
	if t.connect != nil {
		roomID := t.connect.RoomID
		t.lock.Unlock()
		if roomID == params.RoomID {
			return nil
		}
		return ErrAlreadyConnected
	}
	cp := params
	t.connect = &cp
	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.dataChannelUp = false
	t.mediaUp = false
	t.lock.Unlock()

	t.params.Logger.Infow("connecting call transport",
		"room", params.RoomID,
		"roomType", params.RoomType.String(),
		"members", len(params.Members),
	)

	t.addMember(t.params.Self, true, types.ConnectConnecting)
	for _, m := range params.Members {
		if m.UserID == t.params.Self.UserID {
			continue
		}
		t.addMember(m, false, types.ConnectConnecting)
	}

	mode := types.TransportRelayed
	if params.RoomType == types.RoomTypeOneToOne {
		mode = types.TransportDirect
	}
	err := t.startTransport(mode)
	if err != nil && mode == types.TransportDirect {
		t.params.Logger.Warnw("could not start direct transport", err)
		prometheus.RecordTransportFallback(fallbackCause(err))
		err = t.startTransport(types.TransportRelayed)
	}
	if err != nil {
		t.Leave(params.RoomID)
		return err
	}
	return nil
}

// Leave disposes media then the transport and clears the roster. Idempotent.
func (t *TransportManager) Leave(roomID string) {
	t.lock.Lock()
	if t.connect == nil || (roomID != "" && t.connect.RoomID != roomID) {
		t.lock.Unlock()
		return
	}
	current := t.current
	t.current = nil
	t.connect = nil
	t.generation++
	t.dataChannelUp = false
	t.mediaUp = false
	if !t.fallbackToken.IsZero() {
		t.params.Scheduler.Cancel(t.fallbackToken)
		t.fallbackToken = utils.TimerToken{}
	}
	if t.cancel != nil {
		t.cancel()
	}
	t.lock.Unlock()

	if current != nil {
		current.Close()
	}
	t.params.Logger.Infow("left call transport", "room", roomID)

	if t.params.Roster != nil {
		t.params.Roster.Clear()
	}
}

func (t *TransportManager) IsConnected() bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.connect != nil
}

func (t *TransportManager) RoomID() string {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.connect == nil {
		return ""
	}
	return t.connect.RoomID
}

// Mode returns the mode of the active transport and false when there is none.
func (t *TransportManager) Mode() (types.TransportMode, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.current == nil {
		return types.TransportDirect, false
	}
	return t.current.Mode(), true
}

func (t *TransportManager) SetLocalAudioMuted(muted bool) error {
	t.lock.Lock()
	t.audioMuted = muted
	current := t.current
	t.lock.Unlock()

	if current == nil {
		return nil
	}
	t.updateSelf(func(r MemberRoster) { r.SetMute(t.params.Self.UserID, muted) })
	return current.SetLocalAudioMuted(muted)
}

func (t *TransportManager) SetLocalVideo(state types.VideoState) error {
	t.lock.Lock()
	t.videoState = state
	screenShare := t.screenShare
	current := t.current
	t.lock.Unlock()

	if current == nil {
		return nil
	}
	if !screenShare {
		t.updateSelf(func(r MemberRoster) { r.SetVideo(t.params.Self.UserID, state) })
	}
	return current.SetLocalVideo(state)
}

func (t *TransportManager) SetScreenShare(enabled bool) error {
	t.lock.Lock()
	t.screenShare = enabled
	videoState := t.videoState
	current := t.current
	t.lock.Unlock()

	if current == nil {
		return nil
	}
	if enabled {
		videoState = types.VideoScreenSharing
	}
	t.updateSelf(func(r MemberRoster) { r.SetVideo(t.params.Self.UserID, videoState) })
	return current.SetScreenShare(enabled)
}

func (t *TransportManager) startTransport(mode types.TransportMode) error {
	t.lock.Lock()
	cp := t.connect
	if cp == nil {
		t.lock.Unlock()
		return ErrNotConnected
	}
	t.generation++
	gen := t.generation
	ctx := t.ctx
	audioMuted, videoState, screenShare := t.audioMuted, t.videoState, t.screenShare
	t.lock.Unlock()

	ts, err := t.params.Factory.NewTransport(types.TransportParams{
		Mode:         mode,
		RoomID:       cp.RoomID,
		Self:         t.params.Self,
		MediaPolicy:  cp.MediaPolicy,
		IsInitiator:  cp.IsInitiator,
		Members:      cp.Members,
		JoinToken:    cp.JoinToken,
		Capabilities: cp.Capabilities,
		Handler:      &transportEventHandler{manager: t, generation: gen},
	})
	if err != nil {
		return err
	}

	// cached local state is applied before media starts flowing
	if err := ts.SetLocalAudioMuted(audioMuted); err != nil {
		t.params.Logger.Debugw("could not apply mute state", "error", err)
	}
	if err := ts.SetLocalVideo(videoState); err != nil {
		t.params.Logger.Debugw("could not apply video state", "error", err)
	}
	if screenShare {
		if err := ts.SetScreenShare(true); err != nil {
			t.params.Logger.Debugw("could not apply screen share", "error", err)
		}
	}

	t.lock.Lock()
	if t.generation != gen || t.connect == nil {
		t.lock.Unlock()
		ts.Close()
		return ErrTransportClosed
	}
	t.current = ts
	// the answering side offers right away; the caller's window opens once the answer arrives
	if mode == types.TransportDirect && cp.IsInitiator {
		t.armFallbackLocked(gen)
	}
	t.lock.Unlock()

	prometheus.RecordTransportStarted(mode.String())
	t.params.Logger.Debugw("starting transport", "mode", mode.String(), "generation", gen)

	if err := ts.Start(ctx); err != nil {
		if mode == types.TransportDirect {
			t.params.Executor(func() { t.fallbackToRelay(gen, err) })
			return nil
		}
		t.lock.Lock()
		if t.generation == gen {
			t.current = nil
		}
		t.lock.Unlock()
		ts.Close()
		return err
	}
	return nil
}

// ArmDirectFallback starts the direct connect window on the side that waits for the offer.
// No-op unless a direct transport is pending without a window.
func (t *TransportManager) ArmDirectFallback() {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.connect == nil || t.current == nil || t.current.Mode() != types.TransportDirect {
		return
	}
	if t.mediaUp || !t.fallbackToken.IsZero() {
		return
	}
	t.armFallbackLocked(t.generation)
}

func (t *TransportManager) armFallbackLocked(gen uint64) {
	t.fallbackToken = t.params.Scheduler.Schedule(t.fallbackKey(), t.params.DirectConnectTimeout, func(token utils.TimerToken) {
		t.params.Executor(func() {
			if t.params.Scheduler.Consume(token) {
				t.fallbackToRelay(gen, ErrDirectConnectTimeout)
			}
		})
	})
}

func (t *TransportManager) fallbackKey() string {
	return string(t.params.ConversationID) + "/direct"
}

// fallbackToRelay replaces a failed direct transport with a relayed one for the same room.
// No call signaling is involved.
func (t *TransportManager) fallbackToRelay(gen uint64, cause error) {
	t.lock.Lock()
	if t.generation != gen || t.connect == nil {
		t.lock.Unlock()
		return
	}
	current := t.current
	if current != nil && current.Mode() != types.TransportDirect {
		t.lock.Unlock()
		return
	}
	t.current = nil
	wasUp := t.dataChannelUp || t.mediaUp
	t.mediaUp = false
	if !t.fallbackToken.IsZero() {
		t.params.Scheduler.Cancel(t.fallbackToken)
		t.fallbackToken = utils.TimerToken{}
	}
	roomID := t.connect.RoomID
	t.lock.Unlock()

	t.params.Logger.Infow("falling back to relay", "room", roomID, "cause", cause)
	prometheus.RecordTransportFallback(fallbackCause(cause))

	if current != nil {
		current.Close()
	}
	if wasUp {
		t.params.Handler.OnReconnecting()
	}
	if err := t.startTransport(types.TransportRelayed); err != nil {
		if err == ErrTransportClosed || err == ErrNotConnected {
			return
		}
		t.params.Logger.Warnw("could not start relay transport", err, "room", roomID)
		t.Leave(roomID)
		t.params.Handler.OnTransportLost(err)
	}
}

func fallbackCause(err error) string {
	switch err {
	case ErrDirectConnectTimeout:
		return "timeout"
	case ErrConnectivityCheckFailed:
		return "connectivity"
	default:
		return "error"
	}
}

func (t *TransportManager) isCurrent(gen uint64) (types.TransportSession, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.generation != gen || t.connect == nil {
		return nil, false
	}
	return t.current, true
}

func (t *TransportManager) onConnected(gen uint64) {
	if _, ok := t.isCurrent(gen); !ok {
		return
	}
	t.lock.Lock()
	first := !t.dataChannelUp
	t.dataChannelUp = true
	t.lock.Unlock()

	if first {
		t.params.Handler.OnDataChannelEstablished()
	}
}

func (t *TransportManager) onMediaEstablished(gen uint64) {
	if _, ok := t.isCurrent(gen); !ok {
		return
	}
	t.lock.Lock()
	t.mediaUp = true
	if !t.fallbackToken.IsZero() {
		t.params.Scheduler.Cancel(t.fallbackToken)
		t.fallbackToken = utils.TimerToken{}
	}
	t.lock.Unlock()

	t.updateSelf(func(r MemberRoster) { r.SetConnectState(t.params.Self.UserID, types.ConnectConnected) })
	t.params.Handler.OnEstablished()
}

func (t *TransportManager) onReconnecting(gen uint64) {
	if _, ok := t.isCurrent(gen); !ok {
		return
	}
	t.lock.Lock()
	t.mediaUp = false
	t.lock.Unlock()

	t.params.Handler.OnReconnecting()
}

func (t *TransportManager) onDisconnected(gen uint64, err error, fatal bool) {
	current, ok := t.isCurrent(gen)
	if !ok {
		return
	}
	if current != nil && current.Mode() == types.TransportDirect {
		t.fallbackToRelay(gen, err)
		return
	}
	if !fatal {
		t.onReconnecting(gen)
		return
	}

	roomID := t.RoomID()
	t.params.Logger.Warnw("relay transport lost", err, "room", roomID)
	t.Leave(roomID)
	t.params.Handler.OnTransportLost(err)
}

func (t *TransportManager) onMemberJoined(gen uint64, info types.MemberInfo) {
	if _, ok := t.isCurrent(gen); !ok || t.params.Roster == nil {
		return
	}
	if info.UserID == t.params.Self.UserID {
		return
	}
	if _, exists := t.params.Roster.Get(info.UserID); exists {
		t.params.Roster.SetConnectState(info.UserID, types.ConnectConnected)
		return
	}
	t.addMember(info, false, types.ConnectConnected)
}

func (t *TransportManager) onMemberLeft(gen uint64, userID types.UserID) {
	if _, ok := t.isCurrent(gen); !ok || t.params.Roster == nil {
		return
	}
	if t.roomType() == types.RoomTypeOneToOne {
		t.params.Roster.SetConnectState(userID, types.ConnectUnconnected)
		return
	}
	t.params.Roster.Remove(userID)
}

func (t *TransportManager) onMemberMuted(gen uint64, userID types.UserID, muted bool) {
	if _, ok := t.isCurrent(gen); !ok || t.params.Roster == nil {
		return
	}
	t.params.Roster.SetMute(userID, muted)
}

func (t *TransportManager) onMemberVideo(gen uint64, userID types.UserID, state types.VideoState) {
	if _, ok := t.isCurrent(gen); !ok {
		return
	}
	if t.params.Roster != nil && !t.params.Roster.SetVideo(userID, state) {
		return
	}
	t.params.Handler.OnVideoStateChanged(userID, state)
}

func (t *TransportManager) onMemberVolume(gen uint64, userID types.UserID, volume float64) {
	if _, ok := t.isCurrent(gen); !ok || t.params.Roster == nil {
		return
	}
	t.params.Roster.SetActiveSpeaker(userID, volume)
}

func (t *TransportManager) onRosterEmpty() {
	roomID := t.RoomID()
	if roomID == "" {
		return
	}
	t.params.Logger.Infow("room is empty, leaving", "room", roomID)
	t.Leave(roomID)
	t.params.Handler.OnRoomEmpty()
}

func (t *TransportManager) roomType() types.RoomType {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.connect == nil {
		return types.RoomTypeOneToOne
	}
	return t.connect.RoomType
}

func (t *TransportManager) addMember(info types.MemberInfo, self bool, state types.ConnectState) {
	if t.params.Roster == nil {
		return
	}
	if t.roomType().IsGroup() {
		invite := types.InviteAccepted
		if !self && state != types.ConnectConnected {
			invite = types.InviteCalling
		}
		p := roster.NewRoomParticipant(info, self, invite)
		p.WithConnectState(state)
		t.params.Roster.Add(p)
		return
	}
	t.params.Roster.Add(roster.NewCallMember(info, self).WithConnectState(state))
}

func (t *TransportManager) updateSelf(f func(r MemberRoster)) {
	if t.params.Roster != nil {
		f(t.params.Roster)
	}
}

// ---------------------------------------------

// transportEventHandler posts transport callbacks onto the call executor, tagged with the
// generation of the transport that raised them.
type transportEventHandler struct {
	manager    *TransportManager
	generation uint64
}

func (h *transportEventHandler) post(f func(t *TransportManager, gen uint64)) {
	h.manager.params.Executor(func() {
		f(h.manager, h.generation)
	})
}

func (h *transportEventHandler) OnConnected() {
	h.post(func(t *TransportManager, gen uint64) { t.onConnected(gen) })
}

func (h *transportEventHandler) OnMediaEstablished() {
	h.post(func(t *TransportManager, gen uint64) { t.onMediaEstablished(gen) })
}

func (h *transportEventHandler) OnReconnecting() {
	h.post(func(t *TransportManager, gen uint64) { t.onReconnecting(gen) })
}

func (h *transportEventHandler) OnDisconnected(err error, fatal bool) {
	h.post(func(t *TransportManager, gen uint64) { t.onDisconnected(gen, err, fatal) })
}

func (h *transportEventHandler) OnMemberJoined(member types.MemberInfo) {
	h.post(func(t *TransportManager, gen uint64) { t.onMemberJoined(gen, member) })
}

func (h *transportEventHandler) OnMemberLeft(userID types.UserID) {
	h.post(func(t *TransportManager, gen uint64) { t.onMemberLeft(gen, userID) })
}

func (h *transportEventHandler) OnMemberMuted(userID types.UserID, muted bool) {
	h.post(func(t *TransportManager, gen uint64) { t.onMemberMuted(gen, userID, muted) })
}

func (h *transportEventHandler) OnMemberVideo(userID types.UserID, state types.VideoState) {
	h.post(func(t *TransportManager, gen uint64) { t.onMemberVideo(gen, userID, state) })
}

func (h *transportEventHandler) OnMemberVolume(userID types.UserID, volume float64) {
	h.post(func(t *TransportManager, gen uint64) { t.onMemberVolume(gen, userID, volume) })
}
