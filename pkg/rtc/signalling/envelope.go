package signalling

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Envelope is the request/response/notification frame spoken with the relay server.
type Envelope struct {
	Request      bool            `json:"request,omitempty"`
	Response     bool            `json:"response,omitempty"`
	Notification bool            `json:"notification,omitempty"`
	ID           string          `json:"id,omitempty"`
	Method       string          `json:"method,omitempty"`
	OK           bool            `json:"ok,omitempty"`
	ErrorCode    int             `json:"errorCode,omitempty"`
	ErrorReason  string          `json:"errorReason,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
}

func newRequestID() string {
	return uuid.NewString()
}

func NewRequest(method string, data any) (*Envelope, error) {
	raw, err := marshalData(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{Request: true, ID: newRequestID(), Method: method, Data: raw}, nil
}

func NewNotification(method string, data any) (*Envelope, error) {
	raw, err := marshalData(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{Notification: true, Method: method, Data: raw}, nil
}

func NewSuccessResponse(req *Envelope, data any) (*Envelope, error) {
	raw, err := marshalData(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{Response: true, ID: req.ID, OK: true, Data: raw}, nil
}

func NewErrorResponse(req *Envelope, code int, reason string) *Envelope {
	return &Envelope{Response: true, ID: req.ID, ErrorCode: code, ErrorReason: reason}
}

func marshalData(data any) (json.RawMessage, error) {
	if data == nil {
		return nil, nil
	}
	if raw, ok := data.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(data)
}

func EncodeEnvelope(e *Envelope) ([]byte, error) {
	return json.Marshal(e)
}

func DecodeEnvelope(raw []byte) (*Envelope, error) {
	e := &Envelope{}
	if err := json.Unmarshal(raw, e); err != nil {
		return nil, errors.Wrap(ErrUnknownProtocol, err.Error())
	}

	kinds := 0
	for _, set := range []bool{e.Request, e.Response, e.Notification} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return nil, errors.Wrap(ErrUnexpectedFrame, "frame must be exactly one of request, response or notification")
	}
	if (e.Request || e.Response) && e.ID == "" {
		return nil, errors.Wrap(ErrUnexpectedFrame, "missing id")
	}
	if (e.Request || e.Notification) && e.Method == "" {
		return nil, errors.Wrap(ErrUnexpectedFrame, "missing method")
	}
	return e, nil
}
