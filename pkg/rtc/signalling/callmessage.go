package signalling

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/livekit/livekit-callcore/pkg/rtc/types"
)

const CallMessageVersion = "1.0"

type Method string

const (
	MethodStart  Method = "start"
	MethodAnswer Method = "answer"
	MethodReject Method = "reject"
	MethodLeave  Method = "leave"
	MethodEnd    Method = "end"
	MethodCancel Method = "cancel"
	MethodBusy   Method = "busy"
)

var methodActions = map[Method]int{
	MethodStart:  0,
	MethodAnswer: 1,
	MethodReject: 2,
	MethodLeave:  3,
	MethodEnd:    4,
	MethodCancel: 5,
	MethodBusy:   6,
}

func (m Method) Action() (int, bool) {
	a, ok := methodActions[m]
	return a, ok
}

type Target struct {
	UserID   types.UserID   `json:"user_id"`
	ClientID types.ClientID `json:"client_id,omitempty"`
}

// VoiceAlert wakes a dormant receiver through the platform push channel.
type VoiceAlert struct {
	CallerID   types.UserID `json:"caller_id"`
	CallerName string       `json:"caller_name,omitempty"`
}

// CallMessage is the call-control payload carried by the conversation transport.
type CallMessage struct {
	Version     string            `json:"version"`
	Type        Method            `json:"type"`
	Action      int               `json:"action"`
	RoomType    types.RoomType    `json:"room_type"`
	MediaPolicy types.MediaPolicy `json:"media"`
	Target      *Target           `json:"target,omitempty"`
	MemberCount *int              `json:"member_count,omitempty"`
	Alert       *VoiceAlert       `json:"alert,omitempty"`
	SentAt      int64             `json:"sent_at,omitempty"`
}

func newCallMessage(method Method, roomType types.RoomType, policy types.MediaPolicy) *CallMessage {
	action, _ := method.Action()
	return &CallMessage{
		Version:     CallMessageVersion,
		Type:        method,
		Action:      action,
		RoomType:    roomType,
		MediaPolicy: policy,
		SentAt:      time.Now().UnixMilli(),
	}
}

func NewStart(roomType types.RoomType, policy types.MediaPolicy, alert *VoiceAlert) *CallMessage {
	msg := newCallMessage(MethodStart, roomType, policy)
	msg.Alert = alert
	return msg
}

func NewAnswer(roomType types.RoomType, policy types.MediaPolicy) *CallMessage {
	return newCallMessage(MethodAnswer, roomType, policy)
}

func NewReject(roomType types.RoomType, policy types.MediaPolicy) *CallMessage {
	return newCallMessage(MethodReject, roomType, policy)
}

func NewLeave(roomType types.RoomType, policy types.MediaPolicy, memberCount int) *CallMessage {
	msg := newCallMessage(MethodLeave, roomType, policy)
	msg.MemberCount = &memberCount
	return msg
}

func NewEnd(roomType types.RoomType, policy types.MediaPolicy) *CallMessage {
	return newCallMessage(MethodEnd, roomType, policy)
}

func NewCancel(roomType types.RoomType, policy types.MediaPolicy, alert *VoiceAlert) *CallMessage {
	msg := newCallMessage(MethodCancel, roomType, policy)
	msg.Alert = alert
	return msg
}

func NewBusy(roomType types.RoomType, policy types.MediaPolicy, target types.MemberInfo) *CallMessage {
	msg := newCallMessage(MethodBusy, roomType, policy)
	msg.Target = &Target{UserID: target.UserID, ClientID: target.ClientID}
	return msg
}

// SentTime returns the enclosed send time, falling back when the sender omitted it.
func (m *CallMessage) SentTime(fallback time.Time) time.Time {
	if m.SentAt <= 0 {
		return fallback
	}
	return time.UnixMilli(m.SentAt)
}

func (m *CallMessage) Validate() error {
	action, ok := m.Type.Action()
	if !ok {
		return errors.Wrapf(ErrUnknownProtocol, "method %q", m.Type)
	}
	if action != m.Action {
		return errors.Wrapf(ErrUnknownProtocol, "action %d does not match method %q", m.Action, m.Type)
	}
	if !m.RoomType.IsValid() {
		return errors.Wrapf(ErrUnknownProtocol, "room type %d", m.RoomType)
	}
	if !m.MediaPolicy.IsValid() {
		return errors.Wrapf(ErrUnknownProtocol, "media policy %d", m.MediaPolicy)
	}
	if m.Alert != nil && m.Type != MethodStart && m.Type != MethodCancel {
		return errors.Wrapf(ErrInvalidMessage, "alert not allowed on %q", m.Type)
	}
	if m.MemberCount != nil && *m.MemberCount < 0 {
		return errors.Wrap(ErrInvalidMessage, "negative member count")
	}
	return nil
}

func EncodeCallMessage(msg *CallMessage) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

func DecodeCallMessage(payload []byte) (*CallMessage, error) {
	msg := &CallMessage{}
	if err := json.Unmarshal(payload, msg); err != nil {
		return nil, errors.Wrap(ErrUnknownProtocol, err.Error())
	}
	if msg.Version == "" {
		return nil, errors.Wrap(ErrUnknownProtocol, "missing version")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg, nil
}
