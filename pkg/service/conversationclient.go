package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/frostbyte73/core"
	"github.com/gammazero/workerpool"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v3"
	"go.uber.org/atomic"

	"github.com/livekit/livekit-callcore/pkg/rtc/signalling"
	"github.com/livekit/livekit-callcore/pkg/rtc/transport"
	"github.com/livekit/livekit-callcore/pkg/rtc/types"
	"github.com/livekit/livekit-callcore/pkg/telemetry/prometheus"
	"github.com/livekit/protocol/logger"
)

const (
	// conversation server methods
	methodCallSignal     = "callSignal"
	methodSendCallSignal = "sendCallSignal"
	methodPeerSignal     = "peerSignal"

	userQueryParam   = "user"
	clientQueryParam = "client"

	conversationWriteWait = 10 * time.Second

	defaultInitialReconnectInterval = 500 * time.Millisecond
	defaultMaxReconnectInterval     = 30 * time.Second
)

type ConversationClientParams struct {
	URL                      string
	Token                    string
	Self                     types.MemberInfo
	Dialer                   *websocket.Dialer
	RequestTimeout           time.Duration
	InitialReconnectInterval time.Duration
	MaxReconnectInterval     time.Duration
	Logger                   logger.Logger
}

type callSignalFrame struct {
	ConversationID  types.ConversationID `json:"conversationId"`
	SenderUserID    types.UserID         `json:"senderUserId"`
	SenderClientID  types.ClientID       `json:"senderClientId,omitempty"`
	ServerTimestamp int64                `json:"serverTimestamp,omitempty"`
	Payload         json.RawMessage      `json:"payload"`
}

type peerSignalFrame struct {
	RoomID       string                     `json:"roomId"`
	FromUserID   types.UserID               `json:"fromUserId"`
	FromClientID types.ClientID             `json:"fromClientId,omitempty"`
	ToUserID     types.UserID               `json:"toUserId"`
	ToClientID   types.ClientID             `json:"toClientId,omitempty"`
	Description  *webrtc.SessionDescription `json:"description,omitempty"`
	Candidate    *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}

// ConversationClient is the connection to the conversation server. It carries call signals
// in both directions and relays peer signaling for direct transports.
type ConversationClient struct {
	params ConversationClientParams
	logger logger.Logger

	// outbound call signals keep their order
	sendPool *workerpool.WorkerPool

	lock         sync.Mutex
	peer         *signalling.Peer
	conn         *websocket.Conn
	onCallSignal func(event types.InboundEvent) error
	sinks        map[string]transport.PeerSignalSink
	stopped      bool

	connected atomic.Bool
	closed    core.Fuse
}

func NewConversationClient(params ConversationClientParams) *ConversationClient {
	if params.Dialer == nil {
		params.Dialer = websocket.DefaultDialer
	}
	if params.Logger == nil {
		params.Logger = logger.GetLogger()
	}
	if params.InitialReconnectInterval <= 0 {
		params.InitialReconnectInterval = defaultInitialReconnectInterval
	}
	if params.MaxReconnectInterval <= 0 {
		params.MaxReconnectInterval = defaultMaxReconnectInterval
	}

	return &ConversationClient{
		params:   params,
		logger:   params.Logger.WithValues("component", "conversation"),
		sendPool: workerpool.New(1),
		sinks:    make(map[string]transport.PeerSignalSink),
	}
}

// OnCallSignal registers the consumer of inbound call signals.
func (c *ConversationClient) OnCallSignal(f func(event types.InboundEvent) error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.onCallSignal = f
}

func (c *ConversationClient) IsConnected() bool {
	return c.connected.Load()
}

// Run keeps the connection up until ctx is done or the client is closed.
func (c *ConversationClient) Run(ctx context.Context) error {
	attempt := 0
	for {
		wasConnected, err := c.connectAndServe(ctx)
		if ctx.Err() != nil || c.closed.IsBroken() {
			return nil
		}
		if wasConnected {
			attempt = 0
		}
		attempt++

		delay := time.Duration(attempt*attempt) * c.params.InitialReconnectInterval
		if delay > c.params.MaxReconnectInterval {
			delay = c.params.MaxReconnectInterval
		}
		c.logger.Warnw("conversation connection lost", err, "attempt", attempt, "retryIn", delay)

		select {
		case <-ctx.Done():
			return nil
		case <-c.closed.Watch():
			return nil
		case <-time.After(delay):
		}
	}
}

func (c *ConversationClient) connectAndServe(ctx context.Context) (bool, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return false, err
	}

	peer := signalling.NewPeer(signalling.PeerParams{
		Sink:           &conversationSink{conn: conn},
		RequestTimeout: c.params.RequestTimeout,
		Logger:         c.logger,
	})
	peer.OnNotification(c.handleNotification)

	c.lock.Lock()
	if c.stopped {
		c.lock.Unlock()
		_ = conn.Close()
		return false, nil
	}
	c.conn = conn
	c.peer = peer
	c.lock.Unlock()

	c.connected.Store(true)
	c.logger.Infow("connected to conversation server", "url", c.params.URL)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-c.closed.Watch():
		case <-done:
			return
		}
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.drop(conn, peer)
			return true, err
		}
		if err := peer.HandleMessage(msg); err != nil {
			c.logger.Warnw("could not handle conversation frame", err)
		}
	}
}

func (c *ConversationClient) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.params.URL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set(userQueryParam, string(c.params.Self.UserID))
	q.Set(clientQueryParam, string(c.params.Self.ClientID))
	u.RawQuery = q.Encode()

	header := http.Header{}
	if c.params.Token != "" {
		header.Set("Authorization", "Bearer "+c.params.Token)
	}
	conn, _, err := c.params.Dialer.DialContext(ctx, u.String(), header)
	return conn, err
}

func (c *ConversationClient) drop(conn *websocket.Conn, peer *signalling.Peer) {
	peer.Close()
	_ = conn.Close()

	c.lock.Lock()
	if c.conn == conn {
		c.conn = nil
		c.peer = nil
		c.connected.Store(false)
	}
	c.lock.Unlock()
}

func (c *ConversationClient) currentPeer() *signalling.Peer {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.peer
}

func (c *ConversationClient) handleNotification(method string, data json.RawMessage) {
	prometheus.IncrementMessage(method, "received")

	switch method {
	case methodCallSignal:
		frame := callSignalFrame{}
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Warnw("invalid call signal frame", err)
			return
		}
		event := types.InboundEvent{
			Payload:        frame.Payload,
			LocalTimestamp: time.Now(),
			ConversationID: frame.ConversationID,
			SenderUserID:   frame.SenderUserID,
			SenderClientID: frame.SenderClientID,
		}
		if frame.ServerTimestamp > 0 {
			event.ServerTimestamp = time.UnixMilli(frame.ServerTimestamp)
		}

		c.lock.Lock()
		onCallSignal := c.onCallSignal
		c.lock.Unlock()
		if onCallSignal == nil {
			return
		}
		if err := onCallSignal(event); err != nil {
			c.logger.Infow("call signal not accepted",
				"conversation", frame.ConversationID,
				"sender", event.Sender().String(),
				"error", err,
			)
		}

	case methodPeerSignal:
		frame := peerSignalFrame{}
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Warnw("invalid peer signal frame", err)
			return
		}
		c.handlePeerSignal(frame)

	default:
		c.logger.Debugw("unhandled conversation notification", "method", method)
	}
}

func (c *ConversationClient) handlePeerSignal(frame peerSignalFrame) {
	if frame.ToUserID != c.params.Self.UserID {
		return
	}
	if frame.ToClientID != "" && frame.ToClientID != c.params.Self.ClientID {
		return
	}

	c.lock.Lock()
	sink := c.sinks[frame.RoomID]
	c.lock.Unlock()
	if sink == nil {
		c.logger.Debugw("no direct transport for peer signal", "room", frame.RoomID)
		return
	}

	if frame.Description != nil {
		if err := sink.HandleRemoteDescription(*frame.Description); err != nil {
			c.logger.Warnw("could not apply remote description", err, "room", frame.RoomID)
		}
	}
	if frame.Candidate != nil {
		if err := sink.HandleRemoteCandidate(*frame.Candidate); err != nil {
			c.logger.Warnw("could not apply remote candidate", err, "room", frame.RoomID)
		}
	}
}

// Send delivers a call signal to the conversation. onStatus receives the server's verdict.
func (c *ConversationClient) Send(payload []byte, conversationID types.ConversationID, senderID types.UserID, onStatus func(error)) {
	report := func(err error) {
		if err != nil {
			prometheus.IncrementMessage(methodSendCallSignal, "failure")
		} else {
			prometheus.IncrementMessage(methodSendCallSignal, "success")
		}
		if onStatus != nil {
			onStatus(err)
		}
	}

	task := func() {
		peer := c.currentPeer()
		if peer == nil {
			report(ErrNotConnected)
			return
		}
		_, err := peer.Request(context.Background(), methodSendCallSignal, callSignalFrame{
			ConversationID: conversationID,
			SenderUserID:   senderID,
			SenderClientID: c.params.Self.ClientID,
			Payload:        payload,
		})
		report(err)
	}

	c.lock.Lock()
	if c.stopped {
		c.lock.Unlock()
		report(ErrClientClosed)
		return
	}
	c.sendPool.Submit(task)
	c.lock.Unlock()
}

func (c *ConversationClient) SendDescription(roomID string, to types.MemberInfo, desc webrtc.SessionDescription) error {
	return c.notifyPeer(peerSignalFrame{
		RoomID:      roomID,
		ToUserID:    to.UserID,
		ToClientID:  to.ClientID,
		Description: &desc,
	})
}

func (c *ConversationClient) SendCandidate(roomID string, to types.MemberInfo, candidate webrtc.ICECandidateInit) error {
	return c.notifyPeer(peerSignalFrame{
		RoomID:     roomID,
		ToUserID:   to.UserID,
		ToClientID: to.ClientID,
		Candidate:  &candidate,
	})
}

func (c *ConversationClient) notifyPeer(frame peerSignalFrame) error {
	peer := c.currentPeer()
	if peer == nil {
		return ErrNotConnected
	}
	frame.FromUserID = c.params.Self.UserID
	frame.FromClientID = c.params.Self.ClientID
	return peer.Notify(methodPeerSignal, frame)
}

// Register routes peer signals of a room to sink until the returned function is called.
func (c *ConversationClient) Register(roomID string, sink transport.PeerSignalSink) func() {
	c.lock.Lock()
	c.sinks[roomID] = sink
	c.lock.Unlock()

	return func() {
		c.lock.Lock()
		defer c.lock.Unlock()

		if c.sinks[roomID] == sink {
			delete(c.sinks, roomID)
		}
	}
}

func (c *ConversationClient) Close() {
	c.lock.Lock()
	if c.stopped {
		c.lock.Unlock()
		return
	}
	c.stopped = true
	c.lock.Unlock()

	// queued signals still go out, the last ones are usually end or leave
	c.sendPool.StopWait()

	c.lock.Lock()
	peer, conn := c.peer, c.conn
	c.lock.Unlock()

	c.closed.Break()
	if peer != nil {
		peer.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

type conversationSink struct {
	conn *websocket.Conn
}

func (s *conversationSink) WriteMessage(data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(conversationWriteWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}
