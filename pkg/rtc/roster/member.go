package roster

import (
	"time"

	"github.com/livekit/livekit-callcore/pkg/rtc/types"
)

type member interface {
	types.Member
	base() *CallMember
	clone() member
}

// CallMember is a participant of a one-to-one or group call.
type CallMember struct {
	userID       types.UserID
	clientID     types.ClientID
	self         bool
	connectState types.ConnectState
	videoState   types.VideoState
	muted        bool
	quality      types.NetworkQuality
	speaking     bool
	lastSpoke    time.Time
}

func NewCallMember(info types.MemberInfo, self bool) *CallMember {
	return &CallMember{
		userID:   info.UserID,
		clientID: info.ClientID,
		self:     self,
	}
}

func (m *CallMember) WithConnectState(state types.ConnectState) *CallMember {
	m.connectState = state
	return m
}

func (m *CallMember) UserID() types.UserID                 { return m.userID }
func (m *CallMember) ClientID() types.ClientID             { return m.clientID }
func (m *CallMember) IsSelf() bool                         { return m.self }
func (m *CallMember) ConnectState() types.ConnectState     { return m.connectState }
func (m *CallMember) VideoState() types.VideoState         { return m.videoState }
func (m *CallMember) IsMuted() bool                        { return m.muted }
func (m *CallMember) IsSpeaking() bool                     { return m.speaking }
func (m *CallMember) NetworkQuality() types.NetworkQuality { return m.quality }

func (m *CallMember) Info() types.MemberInfo {
	return types.MemberInfo{UserID: m.userID, ClientID: m.clientID}
}

func (m *CallMember) SortKey() types.SortKey {
	return types.SortKey{
		Connected: m.connectState == types.ConnectConnected,
		Self:      m.self,
		HasVideo:  m.videoState.HasVideo(),
		UserID:    m.userID,
	}
}

func (m *CallMember) base() *CallMember {
	return m
}

func (m *CallMember) clone() member {
	c := *m
	return &c
}

// RoomParticipant is a member of a multi-party room, carrying invitation and display state.
type RoomParticipant struct {
	CallMember

	inviteState   types.InviteState
	pinned        bool
	screenSharing bool
}

func NewRoomParticipant(info types.MemberInfo, self bool, inviteState types.InviteState) *RoomParticipant {
	return &RoomParticipant{
		CallMember:  *NewCallMember(info, self),
		inviteState: inviteState,
	}
}

func (p *RoomParticipant) InviteState() types.InviteState { return p.inviteState }
func (p *RoomParticipant) IsPinned() bool                 { return p.pinned }
func (p *RoomParticipant) IsScreenSharing() bool          { return p.screenSharing }

func (p *RoomParticipant) SortKey() types.SortKey {
	key := p.CallMember.SortKey()
	key.Pinned = p.pinned
	key.HasVideo = key.HasVideo || p.screenSharing
	key.InviteRank = p.inviteState.Rank()
	return key
}

func (p *RoomParticipant) base() *CallMember {
	return &p.CallMember
}

func (p *RoomParticipant) clone() member {
	c := *p
	return &c
}
