package transport

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/livekit/livekit-callcore/pkg/rtc/types"
	"github.com/livekit/protocol/logger"
)

type FactoryParams struct {
	Signaller                PeerSignaller
	Dialer                   *websocket.Dialer
	RequestTimeout           time.Duration
	MaxReconnectAttempts     int
	InitialReconnectInterval time.Duration
	MaxReconnectInterval     time.Duration
	Logger                   logger.Logger
}

// Factory builds direct or relayed transports.
type Factory struct {
	params FactoryParams
}

func NewFactory(params FactoryParams) *Factory {
	if params.Logger == nil {
		params.Logger = logger.GetLogger()
	}
	return &Factory{params: params}
}

func (f *Factory) NewTransport(params types.TransportParams) (types.TransportSession, error) {
	l := f.params.Logger.WithValues("room", params.RoomID, "mode", params.Mode.String())

	switch params.Mode {
	case types.TransportDirect:
		t, err := NewDirectTransport(DirectTransportParams{
			TransportParams: params,
			Signaller:       f.params.Signaller,
			Logger:          l,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	case types.TransportRelayed:
		t, err := NewRelayTransport(RelayTransportParams{
			TransportParams:          params,
			Dialer:                   f.params.Dialer,
			RequestTimeout:           f.params.RequestTimeout,
			MaxReconnectAttempts:     f.params.MaxReconnectAttempts,
			InitialReconnectInterval: f.params.InitialReconnectInterval,
			MaxReconnectInterval:     f.params.MaxReconnectInterval,
			Logger:                   l,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, ErrUnknownMode
	}
}
