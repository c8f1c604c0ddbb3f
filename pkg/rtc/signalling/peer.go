package signalling

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/frostbyte73/core"
	"github.com/pkg/errors"

	"github.com/livekit/protocol/logger"
)

const (
	DefaultRequestTimeout = 10 * time.Second

	errorCodeUnknownMethod = 404
	errorCodeClosed        = 410
)

type MessageSink interface {
	WriteMessage(data []byte) error
}

type PeerParams struct {
	Sink           MessageSink
	RequestTimeout time.Duration
	Logger         logger.Logger
}

// Peer correlates requests and responses over a MessageSink.
type Peer struct {
	params PeerParams

	lock           sync.Mutex
	pending        map[string]chan *Envelope
	acceptRequest  func(method string) bool
	onRequest      func(method string, data json.RawMessage)
	onNotification func(method string, data json.RawMessage)

	writeLock sync.Mutex
	closed    core.Fuse
}

func NewPeer(params PeerParams) *Peer {
	if params.RequestTimeout <= 0 {
		params.RequestTimeout = DefaultRequestTimeout
	}
	if params.Logger == nil {
		params.Logger = logger.GetLogger()
	}
	return &Peer{
		params:  params,
		pending: make(map[string]chan *Envelope),
	}
}

// OnRequest registers the handler for inbound requests. accept decides whether the
// request is acknowledged with success; the response is written before handle runs.
func (p *Peer) OnRequest(accept func(method string) bool, handle func(method string, data json.RawMessage)) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.acceptRequest = accept
	p.onRequest = handle
}

func (p *Peer) OnNotification(f func(method string, data json.RawMessage)) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.onNotification = f
}

// Request sends a request and waits for the correlated response, for at most RequestTimeout.
func (p *Peer) Request(ctx context.Context, method string, data any) (json.RawMessage, error) {
	if p.closed.IsBroken() {
		return nil, ErrPeerClosed
	}

	req, err := NewRequest(method, data)
	if err != nil {
		return nil, err
	}

	respCh := make(chan *Envelope, 1)
	p.lock.Lock()
	p.pending[req.ID] = respCh
	p.lock.Unlock()

	defer func() {
		p.lock.Lock()
		delete(p.pending, req.ID)
		p.lock.Unlock()
	}()

	if err := p.write(req); err != nil {
		return nil, err
	}

	timer := time.NewTimer(p.params.RequestTimeout)
	defer timer.Stop()

	select {
	case resp := <-respCh:
		if !resp.OK {
			return nil, errors.Wrapf(ErrRequestRejected, "%s: %d %s", method, resp.ErrorCode, resp.ErrorReason)
		}
		return resp.Data, nil
	case <-timer.C:
		p.params.Logger.Warnw("request timed out", nil, "method", method, "id", req.ID)
		return nil, errors.Wrap(ErrRequestTimeout, method)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.closed.Watch():
		return nil, ErrPeerClosed
	}
}

func (p *Peer) Notify(method string, data any) error {
	if p.closed.IsBroken() {
		return ErrPeerClosed
	}
	n, err := NewNotification(method, data)
	if err != nil {
		return err
	}
	return p.write(n)
}

// HandleMessage processes one inbound frame.
func (p *Peer) HandleMessage(raw []byte) error {
	e, err := DecodeEnvelope(raw)
	if err != nil {
		return err
	}

	switch {
	case e.Response:
		p.lock.Lock()
		respCh, ok := p.pending[e.ID]
		p.lock.Unlock()
		if !ok {
			p.params.Logger.Debugw("dropping response without waiter", "id", e.ID)
			return nil
		}
		select {
		case respCh <- e:
		default:
		}
		return nil

	case e.Request:
		return p.handleRequest(e)

	default:
		p.lock.Lock()
		onNotification := p.onNotification
		p.lock.Unlock()
		if onNotification != nil {
			onNotification(e.Method, e.Data)
		}
		return nil
	}
}

func (p *Peer) handleRequest(req *Envelope) error {
	p.lock.Lock()
	accept := p.acceptRequest
	handle := p.onRequest
	p.lock.Unlock()

	// every request is answered exactly once, before its payload is acted upon
	if p.closed.IsBroken() {
		return p.write(NewErrorResponse(req, errorCodeClosed, "closed"))
	}
	if handle == nil || (accept != nil && !accept(req.Method)) {
		if err := p.write(NewErrorResponse(req, errorCodeUnknownMethod, "unknown method "+req.Method)); err != nil {
			return err
		}
		if handle == nil {
			return ErrNoRequestHandler
		}
		return nil
	}

	resp, err := NewSuccessResponse(req, nil)
	if err != nil {
		return err
	}
	if err := p.write(resp); err != nil {
		return err
	}

	handle(req.Method, req.Data)
	return nil
}

func (p *Peer) write(e *Envelope) error {
	data, err := EncodeEnvelope(e)
	if err != nil {
		return err
	}

	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	return p.params.Sink.WriteMessage(data)
}

// Close fails all waiting requests.
func (p *Peer) Close() {
	p.closed.Break()
}

func (p *Peer) IsClosed() bool {
	return p.closed.IsBroken()
}
