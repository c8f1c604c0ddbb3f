package roster

import (
	"sort"
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/livekit/livekit-callcore/pkg/rtc/supervisor"
	"github.com/livekit/livekit-callcore/pkg/rtc/types"
	"github.com/livekit/livekit-callcore/pkg/utils"
	"github.com/livekit/protocol/logger"
)

const DefaultSpeakersDebounce = 200 * time.Millisecond

type RosterParams struct {
	ConversationID        types.ConversationID
	SelfID                types.UserID
	ConnectTimeout        time.Duration
	RemoveWhenUnconnected bool
	SpeakerThresholdDB    float64
	SpeakerResignWindow   time.Duration
	SpeakersDebounce      time.Duration
	Scheduler             *utils.Scheduler
	Executor              func(func())
	Logger                logger.Logger
}

// Roster is the membership list of one call.
type Roster struct {
	params     RosterParams
	logger     logger.Logger
	detector   speakerDetector
	supervisor *supervisor.ConnectSupervisor
	debouncer  func(func())
	now        func() time.Time

	lock    sync.RWMutex
	members map[types.UserID]member
	sorted  []member
	dirty   bool

	onChanged        func(members []types.Member)
	onCountChanged   func(count int)
	onEmpty          func()
	onActiveSpeakers func(speakers []types.UserID)
}

func NewRoster(params RosterParams) *Roster {
	if params.Logger == nil {
		params.Logger = logger.GetLogger()
	}
	if params.SpeakersDebounce <= 0 {
		params.SpeakersDebounce = DefaultSpeakersDebounce
	}
	if params.Scheduler == nil {
		params.Scheduler = utils.NewScheduler()
	}

	r := &Roster{
		params:    params,
		logger:    params.Logger,
		detector:  newSpeakerDetector(params.SpeakerThresholdDB, params.SpeakerResignWindow),
		debouncer: debounce.New(params.SpeakersDebounce),
		now:       time.Now,
		members:   make(map[types.UserID]member),
	}
	r.supervisor = supervisor.NewConnectSupervisor(supervisor.ConnectSupervisorParams{
		Timeout:   params.ConnectTimeout,
		Scheduler: params.Scheduler,
		Executor:  params.Executor,
		OnTimeout: r.onConnectTimeout,
		Logger:    params.Logger,
	})
	return r
}

func (r *Roster) OnChanged(f func(members []types.Member)) {
	r.lock.Lock()
	r.onChanged = f
	r.lock.Unlock()
}

func (r *Roster) OnCountChanged(f func(count int)) {
	r.lock.Lock()
	r.onCountChanged = f
	r.lock.Unlock()
}

// OnEmpty fires when the last member other than self leaves.
func (r *Roster) OnEmpty(f func()) {
	r.lock.Lock()
	r.onEmpty = f
	r.lock.Unlock()
}

func (r *Roster) OnActiveSpeakersChanged(f func(speakers []types.UserID)) {
	r.lock.Lock()
	r.onActiveSpeakers = f
	r.lock.Unlock()
}

// Add inserts a member. When the id is already present the entry with the more advanced
// connect state is kept.
func (r *Roster) Add(m types.Member) bool {
	entry, ok := m.(member)
	if !ok {
		r.logger.Warnw("unsupported member type", nil, "userID", m.UserID())
		return false
	}
	entry = entry.clone()

	return r.mutate(func() bool {
		if existing, ok := r.members[entry.UserID()]; ok {
			if existing.ConnectState() >= entry.ConnectState() {
				return false
			}
		}
		r.members[entry.UserID()] = entry
		r.superviseLocked(entry)
		return true
	})
}

// Replace overwrites a member regardless of connect state.
func (r *Roster) Replace(m types.Member) bool {
	entry, ok := m.(member)
	if !ok {
		r.logger.Warnw("unsupported member type", nil, "userID", m.UserID())
		return false
	}
	entry = entry.clone()

	return r.mutate(func() bool {
		r.members[entry.UserID()] = entry
		r.superviseLocked(entry)
		return true
	})
}

func (r *Roster) Remove(userID types.UserID) bool {
	return r.mutate(func() bool {
		if _, ok := r.members[userID]; !ok {
			return false
		}
		delete(r.members, userID)
		r.supervisor.Unwatch(userID)
		return true
	})
}

func (r *Roster) Clear() {
	r.mutate(func() bool {
		if len(r.members) == 0 {
			return false
		}
		for userID := range r.members {
			r.supervisor.Unwatch(userID)
		}
		r.members = make(map[types.UserID]member)
		return true
	})
}

func (r *Roster) SetConnectState(userID types.UserID, state types.ConnectState) bool {
	return r.update(userID, func(m member) bool {
		b := m.base()
		if b.connectState == state {
			return false
		}
		b.connectState = state
		r.superviseLocked(m)
		return true
	})
}

func (r *Roster) SetMute(userID types.UserID, muted bool) bool {
	return r.update(userID, func(m member) bool {
		b := m.base()
		if b.muted == muted {
			return false
		}
		b.muted = muted
		return true
	})
}

func (r *Roster) SetVideo(userID types.UserID, state types.VideoState) bool {
	return r.update(userID, func(m member) bool {
		b := m.base()
		changed := b.videoState != state
		b.videoState = state
		if p, ok := m.(*RoomParticipant); ok {
			sharing := state == types.VideoScreenSharing
			changed = changed || p.screenSharing != sharing
			p.screenSharing = sharing
		}
		return changed
	})
}

func (r *Roster) SetNetworkQuality(userID types.UserID, quality types.NetworkQuality) bool {
	return r.update(userID, func(m member) bool {
		b := m.base()
		if b.quality == quality {
			return false
		}
		b.quality = quality
		return true
	})
}

// SetPinned applies to multi-party participants only.
func (r *Roster) SetPinned(userID types.UserID, pinned bool) bool {
	return r.update(userID, func(m member) bool {
		p, ok := m.(*RoomParticipant)
		if !ok || p.pinned == pinned {
			return false
		}
		p.pinned = pinned
		return true
	})
}

func (r *Roster) SetInviteState(userID types.UserID, state types.InviteState) bool {
	return r.update(userID, func(m member) bool {
		p, ok := m.(*RoomParticipant)
		if !ok || p.inviteState == state {
			return false
		}
		p.inviteState = state
		return true
	})
}

// SetActiveSpeaker records a volume sample for a member and resigns speakers that have
// been quiet for longer than the resign window.
func (r *Roster) SetActiveSpeaker(userID types.UserID, volume float64) bool {
	var speakersChanged bool
	changed := r.mutate(func() bool {
		now := r.now()
		changed := false
		if m, ok := r.members[userID]; ok && r.detector.isAudible(volume) {
			b := m.base()
			b.lastSpoke = now
			if !b.speaking {
				b.speaking = true
				changed = true
			}
		}
		for _, m := range r.members {
			b := m.base()
			if b.speaking && r.detector.hasResigned(b.lastSpoke, now) {
				b.speaking = false
				changed = true
			}
		}
		speakersChanged = changed
		return changed
	})

	if speakersChanged {
		r.notifyActiveSpeakers()
	}
	return changed
}

func (r *Roster) Get(userID types.UserID) (types.Member, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	m, ok := r.members[userID]
	if !ok {
		return nil, false
	}
	return m.clone(), true
}

// Members returns a sorted snapshot.
func (r *Roster) Members() []types.Member {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.snapshotLocked()
}

func (r *Roster) Count() int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return len(r.members)
}

// CountOthers counts members other than self. With connectedOnly false, members still
// connecting are included.
func (r *Roster) CountOthers(connectedOnly bool) int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	count := 0
	for _, m := range r.members {
		if m.IsSelf() || m.UserID() == r.params.SelfID {
			continue
		}
		switch m.ConnectState() {
		case types.ConnectConnected:
			count++
		case types.ConnectConnecting:
			if !connectedOnly {
				count++
			}
		}
	}
	return count
}

func (r *Roster) ActiveSpeakers() []types.UserID {
	r.lock.Lock()
	defer r.lock.Unlock()

	var speakers []types.UserID
	for _, m := range r.sortedLocked() {
		if m.IsSpeaking() {
			speakers = append(speakers, m.UserID())
		}
	}
	return speakers
}

func (r *Roster) Close() {
	r.supervisor.Stop()
}

func (r *Roster) onConnectTimeout(userID types.UserID) {
	r.mutate(func() bool {
		m, ok := r.members[userID]
		if !ok || m.ConnectState() != types.ConnectConnecting {
			return false
		}
		if r.params.RemoveWhenUnconnected {
			delete(r.members, userID)
		} else {
			m.base().connectState = types.ConnectUnconnected
		}
		r.logger.Infow("member failed to connect", "userID", userID, "removed", r.params.RemoveWhenUnconnected)
		return true
	})
}

func (r *Roster) update(userID types.UserID, f func(m member) bool) bool {
	return r.mutate(func() bool {
		m, ok := r.members[userID]
		if !ok {
			return false
		}
		return f(m)
	})
}

func (r *Roster) mutate(f func() bool) bool {
	r.lock.Lock()
	prevCount := len(r.members)
	prevOthers := r.othersLocked()
	if !f() {
		r.lock.Unlock()
		return false
	}
	r.dirty = true
	count := len(r.members)
	others := r.othersLocked()
	onChanged := r.onChanged
	onCountChanged := r.onCountChanged
	onEmpty := r.onEmpty
	var members []types.Member
	if onChanged != nil {
		members = r.snapshotLocked()
	}
	r.lock.Unlock()

	if onChanged != nil {
		onChanged(members)
	}
	if count != prevCount && onCountChanged != nil {
		onCountChanged(count)
	}
	if others == 0 && prevOthers > 0 && onEmpty != nil {
		onEmpty()
	}
	return true
}

func (r *Roster) othersLocked() int {
	count := 0
	for _, m := range r.members {
		if !m.IsSelf() && m.UserID() != r.params.SelfID {
			count++
		}
	}
	return count
}

func (r *Roster) superviseLocked(m member) {
	if m.ConnectState() == types.ConnectConnecting {
		if !r.supervisor.IsWatching(m.UserID()) {
			r.supervisor.Watch(m.UserID())
		}
	} else {
		r.supervisor.Unwatch(m.UserID())
	}
}

func (r *Roster) sortedLocked() []member {
	if !r.dirty && r.sorted != nil {
		return r.sorted
	}

	sorted := make([]member, 0, len(r.members))
	for _, m := range r.members {
		sorted = append(sorted, m)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].SortKey().Less(sorted[j].SortKey())
	})
	r.sorted = sorted
	r.dirty = false
	return sorted
}

func (r *Roster) snapshotLocked() []types.Member {
	sorted := r.sortedLocked()
	members := make([]types.Member, 0, len(sorted))
	for _, m := range sorted {
		members = append(members, m.clone())
	}
	return members
}

func (r *Roster) notifyActiveSpeakers() {
	r.lock.RLock()
	onActiveSpeakers := r.onActiveSpeakers
	r.lock.RUnlock()
	if onActiveSpeakers == nil {
		return
	}

	r.debouncer(func() {
		onActiveSpeakers(r.ActiveSpeakers())
	})
}
