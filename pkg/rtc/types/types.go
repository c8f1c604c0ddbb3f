package types

import (
	"fmt"
	"time"
)

type ConversationID string
type UserID string
type ClientID string

type MemberInfo struct {
	UserID   UserID
	ClientID ClientID
}

func (m MemberInfo) String() string {
	return fmt.Sprintf("%s:%s", m.UserID, m.ClientID)
}

type RoomType int

const (
	RoomTypeOneToOne RoomType = iota
	RoomTypeGroup
	RoomTypeMultiPartyRoom
)

func (r RoomType) String() string {
	switch r {
	case RoomTypeOneToOne:
		return "oneToOne"
	case RoomTypeGroup:
		return "group"
	case RoomTypeMultiPartyRoom:
		return "multiPartyRoom"
	default:
		return fmt.Sprintf("%d", int(r))
	}
}

func (r RoomType) IsValid() bool {
	return r >= RoomTypeOneToOne && r <= RoomTypeMultiPartyRoom
}

func (r RoomType) IsGroup() bool {
	return r == RoomTypeGroup || r == RoomTypeMultiPartyRoom
}

type MediaPolicy int

const (
	MediaAudioOnly MediaPolicy = iota
	MediaVideo
)

func (m MediaPolicy) String() string {
	if m == MediaVideo {
		return "video"
	}
	return "audioOnly"
}

func (m MediaPolicy) IsValid() bool {
	return m == MediaAudioOnly || m == MediaVideo
}

type ConnectState int

const (
	ConnectUnconnected ConnectState = iota
	ConnectConnecting
	ConnectConnected
)

func (c ConnectState) String() string {
	switch c {
	case ConnectConnecting:
		return "connecting"
	case ConnectConnected:
		return "connected"
	default:
		return "unconnected"
	}
}

type VideoState int

const (
	VideoStopped VideoState = iota
	VideoStarted
	VideoPaused
	VideoBadConnection
	VideoScreenSharing
)

func (v VideoState) String() string {
	switch v {
	case VideoStarted:
		return "started"
	case VideoPaused:
		return "paused"
	case VideoBadConnection:
		return "badConnection"
	case VideoScreenSharing:
		return "screenSharing"
	default:
		return "stopped"
	}
}

// HasVideo is true when the member publishes camera or screen content.
func (v VideoState) HasVideo() bool {
	return v == VideoStarted || v == VideoScreenSharing
}

type InviteState int

const (
	InviteNotJoined InviteState = iota
	InviteNoResponse
	InviteAccepted
	InviteRejected
	InviteCalling
	InviteCallLimit
	InviteLeft
	InviteKicked
)

func (i InviteState) String() string {
	switch i {
	case InviteNoResponse:
		return "noResponse"
	case InviteAccepted:
		return "accepted"
	case InviteRejected:
		return "rejected"
	case InviteCalling:
		return "calling"
	case InviteCallLimit:
		return "callLimit"
	case InviteLeft:
		return "left"
	case InviteKicked:
		return "kicked"
	default:
		return "notJoined"
	}
}

// Rank orders invite states for display, higher first.
func (i InviteState) Rank() int {
	switch i {
	case InviteAccepted:
		return 6
	case InviteCalling:
		return 5
	case InviteNoResponse:
		return 4
	case InviteCallLimit:
		return 3
	case InviteRejected:
		return 2
	case InviteLeft, InviteKicked:
		return 1
	default:
		return 0
	}
}

type NetworkQuality int

const (
	QualityNormal NetworkQuality = iota
	QualityMedium
	QualityPoor
	QualityProblem
)

type MediaKind int

const (
	MediaKindAudio MediaKind = iota
	MediaKindVideo
)

func (m MediaKind) String() string {
	if m == MediaKindVideo {
		return "video"
	}
	return "audio"
}

type TransportMode int

const (
	TransportDirect TransportMode = iota
	TransportRelayed
)

func (t TransportMode) String() string {
	if t == TransportRelayed {
		return "relayed"
	}
	return "direct"
}

type ICEServer struct {
	URLs       []string `json:"urls" yaml:"urls,omitempty"`
	Username   string   `json:"username,omitempty" yaml:"username,omitempty"`
	Credential string   `json:"credential,omitempty" yaml:"credential,omitempty"`
}

// Capabilities is the media configuration fetched before any call can start.
type Capabilities struct {
	RelayURL   string      `json:"relay_url"`
	ICEServers []ICEServer `json:"ice_servers"`
}

// InboundEvent is a call signaling payload delivered by the conversation transport.
type InboundEvent struct {
	Payload         []byte
	LocalTimestamp  time.Time
	ServerTimestamp time.Time
	ConversationID  ConversationID
	SenderUserID    UserID
	SenderClientID  ClientID
}

func (e InboundEvent) Sender() MemberInfo {
	return MemberInfo{UserID: e.SenderUserID, ClientID: e.SenderClientID}
}

type MissedCall struct {
	ConversationID ConversationID
	Caller         MemberInfo
	RoomType       RoomType
	MediaPolicy    MediaPolicy
	At             time.Time
	// Stale is set when the start signal arrived too late to ring.
	Stale bool
}
