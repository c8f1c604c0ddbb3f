package transport

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/frostbyte73/core"
	"github.com/pion/webrtc/v3"
	"go.uber.org/atomic"

	"github.com/livekit/livekit-callcore/pkg/rtc/types"
	"github.com/livekit/protocol/logger"
)

const (
	callStateChannelLabel = "callstate"
	localStreamID         = "callcore"
	remoteReadBufferSize  = 1500
)

// PeerSignalSink receives the remote side's session descriptions and candidates.
type PeerSignalSink interface {
	HandleRemoteDescription(desc webrtc.SessionDescription) error
	HandleRemoteCandidate(candidate webrtc.ICECandidateInit) error
}

// PeerSignaller carries offer/answer and ICE candidates between the two endpoints of a
// direct transport.
type PeerSignaller interface {
	SendDescription(roomID string, to types.MemberInfo, desc webrtc.SessionDescription) error
	SendCandidate(roomID string, to types.MemberInfo, candidate webrtc.ICECandidateInit) error
	Register(roomID string, sink PeerSignalSink) (unregister func())
}

type DirectTransportParams struct {
	types.TransportParams
	Signaller PeerSignaller
	Logger    logger.Logger
}

// callStateMessage syncs mute and video state over the data channel.
type callStateMessage struct {
	Muted bool             `json:"muted"`
	Video types.VideoState `json:"video"`
}

// DirectTransport is a peer-to-peer media path between the two members of a one-to-one call.
type DirectTransport struct {
	params DirectTransportParams
	remote types.MemberInfo
	media  *mediaTable

	lock              sync.Mutex
	pc                *webrtc.PeerConnection
	dataChannel       *webrtc.DataChannel
	cameraTrack       *webrtc.TrackLocalStaticSample
	screenTrack       *webrtc.TrackLocalStaticSample
	pendingCandidates []webrtc.ICECandidateInit
	unregister        func()
	muted             bool
	video             types.VideoState
	screenShare       bool

	connected atomic.Bool
	closed    core.Fuse
}

func NewDirectTransport(params DirectTransportParams) (*DirectTransport, error) {
	if params.Logger == nil {
		params.Logger = logger.GetLogger()
	}

	var remote types.MemberInfo
	for _, m := range params.Members {
		if m.UserID != params.Self.UserID {
			remote = m
			break
		}
	}
	if remote.UserID == "" {
		return nil, ErrNoRemoteMember
	}

	return &DirectTransport{
		params: params,
		remote: remote,
		media:  newMediaTable(),
	}, nil
}

func (t *DirectTransport) Mode() types.TransportMode {
	return types.TransportDirect
}

func (t *DirectTransport) Start(_ context.Context) error {
	if t.closed.IsBroken() {
		return ErrTransportClosed
	}

	me := &webrtc.MediaEngine{}
	if err := me.RegisterDefaultCodecs(); err != nil {
		return err
	}
	se := webrtc.SettingEngine{LoggerFactory: newPionLoggerFactory(t.params.Logger)}
	api := webrtc.NewAPI(webrtc.WithMediaEngine(me), webrtc.WithSettingEngine(se))

	pc, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers: toWebRTCICEServers(t.params.Capabilities.ICEServers),
	})
	if err != nil {
		return err
	}

	t.lock.Lock()
	t.pc = pc
	t.lock.Unlock()

	pc.OnICECandidate(t.onICECandidate)
	pc.OnConnectionStateChange(t.onConnectionStateChange)
	pc.OnTrack(t.onTrack)
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() == callStateChannelLabel {
			t.setupDataChannel(dc)
		}
	})

	if err := t.addProducers(pc); err != nil {
		return err
	}

	if t.params.Signaller != nil {
		unregister := t.params.Signaller.Register(t.params.RoomID, t)
		t.lock.Lock()
		t.unregister = unregister
		t.lock.Unlock()
	}

	if !t.params.IsInitiator {
		return nil
	}

	dc, err := pc.CreateDataChannel(callStateChannelLabel, nil)
	if err != nil {
		return err
	}
	t.setupDataChannel(dc)

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return err
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		return err
	}
	return t.sendDescription(offer)
}

func (t *DirectTransport) addProducers(pc *webrtc.PeerConnection) error {
	audioTrack, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", localStreamID)
	if err != nil {
		return err
	}
	audioSender, err := pc.AddTrack(audioTrack)
	if err != nil {
		return err
	}
	audio := newDirectProducer(types.MediaKindAudio, audioSender, audioTrack)
	t.media.setProducer(audio)

	cameraTrack, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "camera", localStreamID)
	if err != nil {
		return err
	}
	screenTrack, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "screen", localStreamID)
	if err != nil {
		return err
	}
	videoSender, err := pc.AddTrack(cameraTrack)
	if err != nil {
		return err
	}
	video := newDirectProducer(types.MediaKindVideo, videoSender, cameraTrack)
	t.media.setProducer(video)

	t.lock.Lock()
	t.cameraTrack = cameraTrack
	t.screenTrack = screenTrack
	muted := t.muted
	videoOn := t.video.HasVideo() || t.screenShare
	if t.screenShare {
		video.swap(screenTrack)
	}
	t.lock.Unlock()

	if muted {
		if err := audio.Pause(); err != nil {
			return err
		}
	}
	// the video sender is always negotiated and stays paused until video starts
	if !videoOn {
		return video.Pause()
	}
	return nil
}

func (t *DirectTransport) HandleRemoteDescription(desc webrtc.SessionDescription) error {
	t.lock.Lock()
	pc := t.pc
	t.lock.Unlock()
	if pc == nil || t.closed.IsBroken() {
		return ErrTransportClosed
	}

	if err := pc.SetRemoteDescription(desc); err != nil {
		return err
	}

	t.lock.Lock()
	pending := t.pendingCandidates
	t.pendingCandidates = nil
	t.lock.Unlock()
	for _, c := range pending {
		if err := pc.AddICECandidate(c); err != nil {
			t.params.Logger.Warnw("could not add queued candidate", err)
		}
	}

	if desc.Type != webrtc.SDPTypeOffer {
		return nil
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return err
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		return err
	}
	return t.sendDescription(answer)
}

func (t *DirectTransport) HandleRemoteCandidate(candidate webrtc.ICECandidateInit) error {
	t.lock.Lock()
	pc := t.pc
	if pc == nil || pc.RemoteDescription() == nil {
		t.pendingCandidates = append(t.pendingCandidates, candidate)
		t.lock.Unlock()
		return nil
	}
	t.lock.Unlock()

	return pc.AddICECandidate(candidate)
}

func (t *DirectTransport) SetLocalAudioMuted(muted bool) error {
	t.lock.Lock()
	t.muted = muted
	t.lock.Unlock()

	if p := t.media.producer(types.MediaKindAudio); p != nil {
		var err error
		if muted {
			err = p.Pause()
		} else {
			err = p.Resume()
		}
		if err != nil {
			return err
		}
	}
	t.sendCallState()
	return nil
}

func (t *DirectTransport) SetLocalVideo(state types.VideoState) error {
	t.lock.Lock()
	t.video = state
	screenShare := t.screenShare
	t.lock.Unlock()

	if p := t.media.producer(types.MediaKindVideo); p != nil && !screenShare {
		var err error
		if state.HasVideo() {
			err = p.Resume()
		} else {
			err = p.Pause()
		}
		if err != nil {
			return err
		}
	}
	t.sendCallState()
	return nil
}

// SetScreenShare swaps the camera for the screen source on the video producer.
func (t *DirectTransport) SetScreenShare(enabled bool) error {
	t.lock.Lock()
	t.screenShare = enabled
	cameraOn := t.video.HasVideo()
	camera, screen := t.cameraTrack, t.screenTrack
	t.lock.Unlock()

	p, ok := t.media.producer(types.MediaKindVideo).(*directProducer)
	if ok && camera != nil {
		if enabled {
			p.swap(screen)
		} else {
			p.swap(camera)
		}
		var err error
		if enabled || cameraOn {
			err = p.Resume()
		} else {
			err = p.Pause()
		}
		if err != nil {
			return err
		}
	}
	t.sendCallState()
	return nil
}

func (t *DirectTransport) Close() {
	if t.closed.IsBroken() {
		return
	}
	t.closed.Break()

	t.media.closeAll()

	t.lock.Lock()
	pc := t.pc
	unregister := t.unregister
	t.pc = nil
	t.unregister = nil
	t.lock.Unlock()

	if unregister != nil {
		unregister()
	}
	if pc != nil {
		if err := pc.Close(); err != nil {
			t.params.Logger.Warnw("error closing peer connection", err)
		}
	}
}

func (t *DirectTransport) onICECandidate(c *webrtc.ICECandidate) {
	if c == nil || t.params.Signaller == nil || t.closed.IsBroken() {
		return
	}
	if err := t.params.Signaller.SendCandidate(t.params.RoomID, t.remote, c.ToJSON()); err != nil {
		t.params.Logger.Warnw("could not send candidate", err)
	}
}

func (t *DirectTransport) onConnectionStateChange(state webrtc.PeerConnectionState) {
	if t.closed.IsBroken() {
		return
	}
	t.params.Logger.Debugw("peer connection state changed", "state", state.String())

	switch state {
	case webrtc.PeerConnectionStateConnected:
		t.connected.Store(true)
		t.params.Handler.OnMemberJoined(t.remote)
		t.params.Handler.OnMediaEstablished()
	case webrtc.PeerConnectionStateDisconnected:
		if t.connected.Load() {
			t.params.Handler.OnReconnecting()
		}
	case webrtc.PeerConnectionStateFailed:
		t.params.Handler.OnDisconnected(ErrConnectivityCheckFailed, true)
	}
}

func (t *DirectTransport) onTrack(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	kind := types.MediaKindAudio
	if track.Kind() == webrtc.RTPCodecTypeVideo {
		kind = types.MediaKindVideo
	}

	c := &directConsumer{
		id:     track.ID(),
		userID: t.remote.UserID,
		kind:   kind,
	}
	t.media.setConsumer(c)

	go func() {
		buf := make([]byte, remoteReadBufferSize)
		for !c.stop.IsBroken() {
			if _, _, err := track.Read(buf); err != nil {
				return
			}
		}
	}()
}

func (t *DirectTransport) setupDataChannel(dc *webrtc.DataChannel) {
	t.lock.Lock()
	t.dataChannel = dc
	t.lock.Unlock()

	dc.OnOpen(func() {
		if t.closed.IsBroken() {
			return
		}
		t.params.Handler.OnConnected()
		t.sendCallState()
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		state := callStateMessage{}
		if err := json.Unmarshal(msg.Data, &state); err != nil {
			t.params.Logger.Warnw("invalid call state message", err)
			return
		}
		t.params.Handler.OnMemberMuted(t.remote.UserID, state.Muted)
		t.params.Handler.OnMemberVideo(t.remote.UserID, state.Video)
	})
}

func (t *DirectTransport) sendCallState() {
	t.lock.Lock()
	dc := t.dataChannel
	state := callStateMessage{Muted: t.muted, Video: t.video}
	if t.screenShare {
		state.Video = types.VideoScreenSharing
	}
	t.lock.Unlock()

	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return
	}
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := dc.SendText(string(data)); err != nil {
		t.params.Logger.Debugw("could not send call state", "error", err)
	}
}

func (t *DirectTransport) sendDescription(desc webrtc.SessionDescription) error {
	if t.params.Signaller == nil {
		return nil
	}
	return t.params.Signaller.SendDescription(t.params.RoomID, t.remote, desc)
}

func toWebRTCICEServers(servers []types.ICEServer) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		server := webrtc.ICEServer{URLs: s.URLs}
		if s.Username != "" {
			server.Username = s.Username
			server.Credential = s.Credential
		}
		out = append(out, server)
	}
	return out
}

// ------------------------------------------------

type directProducer struct {
	kind   types.MediaKind
	sender *webrtc.RTPSender

	lock   sync.Mutex
	track  webrtc.TrackLocal
	paused bool
}

func newDirectProducer(kind types.MediaKind, sender *webrtc.RTPSender, track webrtc.TrackLocal) *directProducer {
	return &directProducer{
		kind:   kind,
		sender: sender,
		track:  track,
	}
}

func (p *directProducer) ID() string {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.track.ID()
}

func (p *directProducer) Kind() types.MediaKind {
	return p.kind
}

func (p *directProducer) Pause() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.paused = true
	return p.sender.ReplaceTrack(nil)
}

func (p *directProducer) Resume() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.paused = false
	return p.sender.ReplaceTrack(p.track)
}

func (p *directProducer) swap(track webrtc.TrackLocal) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.track = track
	if !p.paused {
		_ = p.sender.ReplaceTrack(track)
	}
}

func (p *directProducer) Close() {
	_ = p.sender.Stop()
}

type directConsumer struct {
	id     string
	userID types.UserID
	kind   types.MediaKind
	stop   core.Fuse
}

func (c *directConsumer) ID() string            { return c.id }
func (c *directConsumer) UserID() types.UserID  { return c.userID }
func (c *directConsumer) Kind() types.MediaKind { return c.kind }
func (c *directConsumer) Close()                { c.stop.Break() }
