package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/frostbyte73/core"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"

	"github.com/livekit/livekit-callcore/pkg/rtc/signalling"
	"github.com/livekit/livekit-callcore/pkg/rtc/types"
	"github.com/livekit/livekit-callcore/pkg/telemetry/prometheus"
	"github.com/livekit/protocol/logger"
)

const (
	DefaultMaxReconnectAttempts     = 7
	DefaultInitialReconnectInterval = 300 * time.Millisecond
	DefaultMaxReconnectInterval     = 10 * time.Second

	writeWait = 10 * time.Second

	// relay protocol methods
	methodJoin            = "join"
	methodLeave           = "leave"
	methodProduce         = "produce"
	methodPauseProducer   = "pauseProducer"
	methodResumeProducer  = "resumeProducer"
	methodCloseProducer   = "closeProducer"
	methodNewConsumer     = "newConsumer"
	methodConsumerClosed  = "consumerClosed"
	methodPeerJoined      = "peerJoined"
	methodPeerLeft        = "peerLeft"
	methodPeerMuted       = "peerMuted"
	methodPeerVideo       = "peerVideo"
	methodVolumes         = "volumes"
	screenShareAppSource  = "screen"
	cameraAppSource       = "camera"
	microphoneAppSource   = "mic"
	relayRoomQueryParam   = "room"
	relayPeerQueryParam   = "peer"
	relayClientQueryParam = "client"
)

type RelayTransportParams struct {
	types.TransportParams
	Dialer                   *websocket.Dialer
	RequestTimeout           time.Duration
	MaxReconnectAttempts     int
	InitialReconnectInterval time.Duration
	MaxReconnectInterval     time.Duration
	Logger                   logger.Logger
}

type relayPeerInfo struct {
	UserID   types.UserID     `json:"userId"`
	ClientID types.ClientID   `json:"clientId,omitempty"`
	Muted    bool             `json:"muted,omitempty"`
	Video    types.VideoState `json:"video,omitempty"`
}

type joinRequest struct {
	RoomID      string            `json:"roomId"`
	UserID      types.UserID      `json:"userId"`
	ClientID    types.ClientID    `json:"clientId"`
	Token       string            `json:"token,omitempty"`
	MediaPolicy types.MediaPolicy `json:"media"`
}

type joinResponse struct {
	Peers []relayPeerInfo `json:"peers"`
}

type produceRequest struct {
	Kind   string `json:"kind"`
	Source string `json:"source"`
	Paused bool   `json:"paused"`
}

type produceResponse struct {
	ID string `json:"id"`
}

type producerRequest struct {
	ProducerID string `json:"producerId"`
}

type newConsumerRequest struct {
	ConsumerID string       `json:"consumerId"`
	UserID     types.UserID `json:"userId"`
	Kind       string       `json:"kind"`
}

type consumerClosedNotification struct {
	ConsumerID string `json:"consumerId"`
}

type peerMutedNotification struct {
	UserID types.UserID `json:"userId"`
	Muted  bool         `json:"muted"`
}

type peerVideoNotification struct {
	UserID types.UserID     `json:"userId"`
	Video  types.VideoState `json:"video"`
}

type volumeEntry struct {
	UserID types.UserID `json:"userId"`
	Volume float64      `json:"volume"`
}

// RelayTransport is a media path through a relay server, used for group calls and as the
// fallback for one-to-one calls.
type RelayTransport struct {
	params RelayTransportParams
	logger logger.Logger
	media  *mediaTable

	lock        sync.Mutex
	conn        *websocket.Conn
	peer        *signalling.Peer
	ctx         context.Context
	cancel      context.CancelFunc
	muted       bool
	video       types.VideoState
	screenShare bool

	hasConnected atomic.Bool
	reconnecting atomic.Bool
	closed       core.Fuse
}

func NewRelayTransport(params RelayTransportParams) (*RelayTransport, error) {
	if params.Capabilities.RelayURL == "" {
		return nil, ErrNoRelayURL
	}
	if params.Dialer == nil {
		params.Dialer = websocket.DefaultDialer
	}
	if params.Logger == nil {
		params.Logger = logger.GetLogger()
	}
	if params.MaxReconnectAttempts <= 0 {
		params.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if params.InitialReconnectInterval <= 0 {
		params.InitialReconnectInterval = DefaultInitialReconnectInterval
	}
	if params.MaxReconnectInterval <= 0 {
		params.MaxReconnectInterval = DefaultMaxReconnectInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RelayTransport{
		params: params,
		logger: params.Logger,
		media:  newMediaTable(),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (t *RelayTransport) Mode() types.TransportMode {
	return types.TransportRelayed
}

// Start connects and joins in the background.
func (t *RelayTransport) Start(_ context.Context) error {
	if t.closed.IsBroken() {
		return ErrTransportClosed
	}

	go func() {
		if err := t.connect(); err != nil {
			if t.closed.IsBroken() {
				return
			}
			t.logger.Warnw("could not join relay", err, "room", t.params.RoomID)
			t.params.Handler.OnDisconnected(err, true)
		}
	}()
	return nil
}

func (t *RelayTransport) connect() error {
	conn, err := t.dial()
	if err != nil {
		return err
	}

	peer := signalling.NewPeer(signalling.PeerParams{
		Sink:           &wsMessageSink{conn: conn},
		RequestTimeout: t.params.RequestTimeout,
		Logger:         t.logger,
	})
	peer.OnRequest(func(method string) bool {
		return method == methodNewConsumer
	}, t.handleRequest)
	peer.OnNotification(t.handleNotification)

	t.lock.Lock()
	if t.closed.IsBroken() {
		t.lock.Unlock()
		_ = conn.Close()
		return ErrTransportClosed
	}
	t.conn = conn
	t.peer = peer
	t.lock.Unlock()

	go t.readLoop(conn, peer)

	data, err := peer.Request(t.ctx, methodJoin, joinRequest{
		RoomID:      t.params.RoomID,
		UserID:      t.params.Self.UserID,
		ClientID:    t.params.Self.ClientID,
		Token:       t.params.JoinToken,
		MediaPolicy: t.params.MediaPolicy,
	})
	if err != nil {
		t.dropConnection(conn, peer)
		return err
	}
	resp := joinResponse{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &resp); err != nil {
			t.dropConnection(conn, peer)
			return err
		}
	}

	t.hasConnected.Store(true)
	t.params.Handler.OnConnected()
	for _, p := range resp.Peers {
		if p.UserID == t.params.Self.UserID {
			continue
		}
		t.params.Handler.OnMemberJoined(types.MemberInfo{UserID: p.UserID, ClientID: p.ClientID})
		t.params.Handler.OnMemberMuted(p.UserID, p.Muted)
		t.params.Handler.OnMemberVideo(p.UserID, p.Video)
	}

	if err := t.produceAll(peer); err != nil {
		t.dropConnection(conn, peer)
		return err
	}

	t.params.Handler.OnMediaEstablished()
	return nil
}

func (t *RelayTransport) dial() (*websocket.Conn, error) {
	u, err := url.Parse(t.params.Capabilities.RelayURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set(relayRoomQueryParam, t.params.RoomID)
	q.Set(relayPeerQueryParam, string(t.params.Self.UserID))
	q.Set(relayClientQueryParam, string(t.params.Self.ClientID))
	u.RawQuery = q.Encode()

	header := http.Header{}
	if t.params.JoinToken != "" {
		header.Set("Authorization", "Bearer "+t.params.JoinToken)
	}

	conn, _, err := t.params.Dialer.DialContext(t.ctx, u.String(), header)
	return conn, err
}

func (t *RelayTransport) produceAll(peer *signalling.Peer) error {
	t.lock.Lock()
	muted := t.muted
	videoOn := t.video.HasVideo()
	screenShare := t.screenShare
	t.lock.Unlock()

	if err := t.produce(peer, types.MediaKindAudio, microphoneAppSource, muted); err != nil {
		return err
	}
	if t.params.MediaPolicy == types.MediaVideo || videoOn || screenShare {
		source := cameraAppSource
		if screenShare {
			source = screenShareAppSource
		}
		if err := t.produce(peer, types.MediaKindVideo, source, !videoOn && !screenShare); err != nil {
			return err
		}
	}
	return nil
}

func (t *RelayTransport) produce(peer *signalling.Peer, kind types.MediaKind, source string, paused bool) error {
	data, err := peer.Request(t.ctx, methodProduce, produceRequest{Kind: kind.String(), Source: source, Paused: paused})
	if err != nil {
		return err
	}
	resp := produceResponse{}
	if err := json.Unmarshal(data, &resp); err != nil {
		return err
	}
	t.media.setProducer(&relayProducer{id: resp.ID, kind: kind, peer: peer, ctx: t.ctx})
	return nil
}

func (t *RelayTransport) readLoop(conn *websocket.Conn, peer *signalling.Peer) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if t.closed.IsBroken() || peer.IsClosed() {
				return
			}
			t.logger.Infow("relay connection lost", "error", err)
			t.onConnectionLost(conn, peer)
			return
		}
		if err := peer.HandleMessage(msg); err != nil {
			t.logger.Warnw("could not handle relay message", err)
		}
	}
}

func (t *RelayTransport) onConnectionLost(conn *websocket.Conn, peer *signalling.Peer) {
	t.dropConnection(conn, peer)

	// failures before the first join are reported by connect
	if !t.hasConnected.Load() || !t.reconnecting.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer t.reconnecting.Store(false)

		t.params.Handler.OnReconnecting()
		for attempt := 1; attempt <= t.params.MaxReconnectAttempts; attempt++ {
			delay := time.Duration(attempt*attempt) * t.params.InitialReconnectInterval
			if delay > t.params.MaxReconnectInterval {
				delay = t.params.MaxReconnectInterval
			}
			select {
			case <-t.closed.Watch():
				return
			case <-time.After(delay):
			}

			t.logger.Infow("reconnecting to relay", "attempt", attempt)
			err := t.connect()
			if err == nil {
				prometheus.RecordReconnect("success")
				return
			}
			if t.closed.IsBroken() {
				return
			}
			prometheus.RecordReconnect("failure")
			t.logger.Warnw("relay reconnect failed", err, "attempt", attempt)
		}

		t.params.Handler.OnDisconnected(ErrRetryBudgetExceeded, true)
	}()
}

func (t *RelayTransport) dropConnection(conn *websocket.Conn, peer *signalling.Peer) {
	peer.Close()
	_ = conn.Close()

	// the relay discards consumers and producers along with the connection
	t.media.closeConsumers()

	t.lock.Lock()
	if t.conn == conn {
		t.conn = nil
		t.peer = nil
	}
	t.lock.Unlock()
}

func (t *RelayTransport) handleRequest(method string, data json.RawMessage) {
	switch method {
	case methodNewConsumer:
		req := newConsumerRequest{}
		if err := json.Unmarshal(data, &req); err != nil {
			t.logger.Warnw("invalid newConsumer request", err)
			return
		}
		kind := types.MediaKindAudio
		if req.Kind == types.MediaKindVideo.String() {
			kind = types.MediaKindVideo
		}
		t.media.setConsumer(&relayConsumer{id: req.ConsumerID, userID: req.UserID, kind: kind})
	}
}

func (t *RelayTransport) handleNotification(method string, data json.RawMessage) {
	switch method {
	case methodPeerJoined:
		p := relayPeerInfo{}
		if err := json.Unmarshal(data, &p); err != nil {
			t.logger.Warnw("invalid peerJoined", err)
			return
		}
		t.params.Handler.OnMemberJoined(types.MemberInfo{UserID: p.UserID, ClientID: p.ClientID})

	case methodPeerLeft:
		p := relayPeerInfo{}
		if err := json.Unmarshal(data, &p); err != nil {
			t.logger.Warnw("invalid peerLeft", err)
			return
		}
		for _, c := range t.media.removeMemberConsumers(p.UserID) {
			c.Close()
		}
		t.params.Handler.OnMemberLeft(p.UserID)

	case methodPeerMuted:
		n := peerMutedNotification{}
		if err := json.Unmarshal(data, &n); err != nil {
			t.logger.Warnw("invalid peerMuted", err)
			return
		}
		t.params.Handler.OnMemberMuted(n.UserID, n.Muted)

	case methodPeerVideo:
		n := peerVideoNotification{}
		if err := json.Unmarshal(data, &n); err != nil {
			t.logger.Warnw("invalid peerVideo", err)
			return
		}
		t.params.Handler.OnMemberVideo(n.UserID, n.Video)

	case methodVolumes:
		var volumes []volumeEntry
		if err := json.Unmarshal(data, &volumes); err != nil {
			t.logger.Warnw("invalid volumes", err)
			return
		}
		for _, v := range volumes {
			t.params.Handler.OnMemberVolume(v.UserID, v.Volume)
		}

	case methodConsumerClosed:
		n := consumerClosedNotification{}
		if err := json.Unmarshal(data, &n); err != nil {
			t.logger.Warnw("invalid consumerClosed", err)
			return
		}
		if c := t.media.removeConsumerByID(n.ConsumerID); c != nil {
			c.Close()
		}

	default:
		t.logger.Debugw("unhandled relay notification", "method", method)
	}
}

func (t *RelayTransport) SetLocalAudioMuted(muted bool) error {
	t.lock.Lock()
	t.muted = muted
	t.lock.Unlock()

	p := t.media.producer(types.MediaKindAudio)
	if p == nil {
		return nil
	}
	if muted {
		return p.Pause()
	}
	return p.Resume()
}

func (t *RelayTransport) SetLocalVideo(state types.VideoState) error {
	t.lock.Lock()
	t.video = state
	screenShare := t.screenShare
	peer := t.peer
	t.lock.Unlock()

	if screenShare {
		return nil
	}
	p := t.media.producer(types.MediaKindVideo)
	if p == nil {
		if !state.HasVideo() || peer == nil {
			return nil
		}
		return t.produce(peer, types.MediaKindVideo, cameraAppSource, false)
	}
	if state.HasVideo() {
		return p.Resume()
	}
	return p.Pause()
}

// SetScreenShare replaces the video producer with one sourced from the screen, and back.
func (t *RelayTransport) SetScreenShare(enabled bool) error {
	t.lock.Lock()
	if t.screenShare == enabled {
		t.lock.Unlock()
		return nil
	}
	t.screenShare = enabled
	cameraOn := t.video.HasVideo()
	peer := t.peer
	t.lock.Unlock()

	if prev := t.media.removeProducer(types.MediaKindVideo); prev != nil {
		prev.Close()
	}
	if peer == nil {
		return nil
	}
	if enabled {
		return t.produce(peer, types.MediaKindVideo, screenShareAppSource, false)
	}
	if cameraOn || t.params.MediaPolicy == types.MediaVideo {
		return t.produce(peer, types.MediaKindVideo, cameraAppSource, !cameraOn)
	}
	return nil
}

func (t *RelayTransport) Close() {
	t.lock.Lock()
	if t.closed.IsBroken() {
		t.lock.Unlock()
		return
	}
	t.closed.Break()
	conn := t.conn
	peer := t.peer
	t.conn = nil
	t.peer = nil
	t.lock.Unlock()

	t.media.closeAll()
	if peer != nil {
		_ = peer.Notify(methodLeave, nil)
		peer.Close()
	}
	t.cancel()
	if conn != nil {
		_ = conn.Close()
	}
}

// ------------------------------------------------

type wsMessageSink struct {
	conn *websocket.Conn
}

func (s *wsMessageSink) WriteMessage(data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

type relayProducer struct {
	id   string
	kind types.MediaKind
	peer *signalling.Peer
	ctx  context.Context
}

func (p *relayProducer) ID() string            { return p.id }
func (p *relayProducer) Kind() types.MediaKind { return p.kind }

func (p *relayProducer) Pause() error {
	_, err := p.peer.Request(p.ctx, methodPauseProducer, producerRequest{ProducerID: p.id})
	return err
}

func (p *relayProducer) Resume() error {
	_, err := p.peer.Request(p.ctx, methodResumeProducer, producerRequest{ProducerID: p.id})
	return err
}

func (p *relayProducer) Close() {
	if p.peer.IsClosed() {
		return
	}
	_ = p.peer.Notify(methodCloseProducer, producerRequest{ProducerID: p.id})
}

type relayConsumer struct {
	id     string
	userID types.UserID
	kind   types.MediaKind
}

func (c *relayConsumer) ID() string            { return c.id }
func (c *relayConsumer) UserID() types.UserID  { return c.userID }
func (c *relayConsumer) Kind() types.MediaKind { return c.kind }
func (c *relayConsumer) Close()                {}
