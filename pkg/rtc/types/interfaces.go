package types

import (
	"context"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// SortKey orders roster members for display. Fields are compared in declaration order.
type SortKey struct {
	Connected  bool
	Self       bool
	Pinned     bool
	HasVideo   bool
	InviteRank int
	UserID     UserID
}

// Less reports whether k sorts before o.
func (k SortKey) Less(o SortKey) bool {
	if k.Connected != o.Connected {
		return k.Connected
	}
	if k.Self != o.Self {
		return k.Self
	}
	if k.Pinned != o.Pinned {
		return k.Pinned
	}
	if k.HasVideo != o.HasVideo {
		return k.HasVideo
	}
	if k.InviteRank != o.InviteRank {
		return k.InviteRank > o.InviteRank
	}
	return k.UserID < o.UserID
}

type Member interface {
	UserID() UserID
	ClientID() ClientID
	Info() MemberInfo
	IsSelf() bool
	ConnectState() ConnectState
	VideoState() VideoState
	IsMuted() bool
	IsSpeaking() bool
	NetworkQuality() NetworkQuality
	SortKey() SortKey
}

//counterfeiter:generate . SignalSender
type SignalSender interface {
	// Send hands a payload to the conversation transport. onStatus is invoked once with the
	// delivery result; it may be nil.
	Send(payload []byte, conversationID ConversationID, senderID UserID, onStatus func(error))
}

//counterfeiter:generate . CapabilityFetcher
type CapabilityFetcher interface {
	FetchCapabilities(ctx context.Context) (Capabilities, error)
}

type TransportParams struct {
	Mode         TransportMode
	RoomID       string
	Self         MemberInfo
	MediaPolicy  MediaPolicy
	IsInitiator  bool
	Members      []MemberInfo
	JoinToken    string
	Capabilities Capabilities
	Handler      TransportHandler
}

//counterfeiter:generate . TransportHandler
type TransportHandler interface {
	// signalling path to the remote side is up
	OnConnected()
	// media flows in both directions
	OnMediaEstablished()
	OnReconnecting()
	OnDisconnected(err error, fatal bool)

	OnMemberJoined(member MemberInfo)
	OnMemberLeft(userID UserID)
	OnMemberMuted(userID UserID, muted bool)
	OnMemberVideo(userID UserID, state VideoState)
	// volume is a linear sample in [0, 1]
	OnMemberVolume(userID UserID, volume float64)
}

//counterfeiter:generate . TransportSession
type TransportSession interface {
	Mode() TransportMode
	// Start begins connecting; progress is reported through the TransportHandler.
	Start(ctx context.Context) error
	SetLocalAudioMuted(muted bool) error
	SetLocalVideo(state VideoState) error
	SetScreenShare(enabled bool) error
	// Close releases consumers and producers, then the transport itself. Idempotent.
	Close()
}

//counterfeiter:generate . TransportFactory
type TransportFactory interface {
	NewTransport(params TransportParams) (TransportSession, error)
}

//counterfeiter:generate . CallListener
type CallListener interface {
	OnCallStateChanged(conversationID ConversationID, prev CallState, cur CallState)
	OnMemberCountChanged(conversationID ConversationID, count int)
	OnVideoStateChanged(conversationID ConversationID, userID UserID, state VideoState)
	OnRosterChanged(conversationID ConversationID, members []Member)
	OnMissedCall(call MissedCall)
}
