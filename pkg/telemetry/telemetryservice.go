package telemetry

import (
	"sync"
	"time"

	"github.com/gammazero/workerpool"

	"github.com/livekit/livekit-callcore/pkg/rtc/types"
	"github.com/livekit/livekit-callcore/pkg/telemetry/prometheus"
	"github.com/livekit/protocol/logger"
)

type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// causes reported with missed calls
const (
	MissedCallStale    = "stale"
	MissedCallBusy     = "busy"
	MissedCallNoAnswer = "no_answer"
	MissedCallCanceled = "canceled"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 . TelemetryService
type TelemetryService interface {
	// CallStarted - a call was placed locally or started ringing
	CallStarted(conversationID types.ConversationID, direction Direction, roomType types.RoomType)
	// CallEnded - the call reached a terminating state, startedAt may be zero when it never started
	CallEnded(conversationID types.ConversationID, reason types.ClosureReason, startedAt time.Time)

	CallStateChanged(conversationID types.ConversationID, prev types.CallState, cur types.CallState)
	MemberCountChanged(conversationID types.ConversationID, count int)
	VideoStateChanged(conversationID types.ConversationID, userID types.UserID, state types.VideoState)
	RosterChanged(conversationID types.ConversationID, members []types.Member)
	MissedCall(call types.MissedCall, cause string)

	// Flush blocks until every queued notification has been delivered.
	Flush()
	Stop()
}

type telemetryService struct {
	listener types.CallListener
	logger   logger.Logger

	// listener callbacks are delivered in order on a single worker
	notifyPool *workerpool.WorkerPool

	lock    sync.Mutex
	stopped bool
}

// NewTelemetryService records call metrics and forwards lifecycle events to listener,
// which may be nil.
func NewTelemetryService(listener types.CallListener, lgr logger.Logger) TelemetryService {
	if lgr == nil {
		lgr = logger.GetLogger()
	}
	return &telemetryService{
		listener:   listener,
		logger:     lgr,
		notifyPool: workerpool.New(1),
	}
}

func (t *telemetryService) CallStarted(conversationID types.ConversationID, direction Direction, roomType types.RoomType) {
	prometheus.CallStarted(string(direction), roomType.String())
	t.logger.Debugw("call started", "conversation", conversationID, "direction", direction, "roomType", roomType.String())
}

func (t *telemetryService) CallEnded(conversationID types.ConversationID, reason types.ClosureReason, startedAt time.Time) {
	prometheus.CallEnded(reason.String(), startedAt)
	t.logger.Debugw("call ended", "conversation", conversationID, "reason", reason.String())
}

func (t *telemetryService) CallStateChanged(conversationID types.ConversationID, prev types.CallState, cur types.CallState) {
	t.enqueue(func(l types.CallListener) {
		l.OnCallStateChanged(conversationID, prev, cur)
	})
}

func (t *telemetryService) MemberCountChanged(conversationID types.ConversationID, count int) {
	t.enqueue(func(l types.CallListener) {
		l.OnMemberCountChanged(conversationID, count)
	})
}

func (t *telemetryService) VideoStateChanged(conversationID types.ConversationID, userID types.UserID, state types.VideoState) {
	t.enqueue(func(l types.CallListener) {
		l.OnVideoStateChanged(conversationID, userID, state)
	})
}

func (t *telemetryService) RosterChanged(conversationID types.ConversationID, members []types.Member) {
	t.enqueue(func(l types.CallListener) {
		l.OnRosterChanged(conversationID, members)
	})
}

func (t *telemetryService) MissedCall(call types.MissedCall, cause string) {
	prometheus.RecordMissedCall(cause)
	t.logger.Infow("missed call",
		"conversation", call.ConversationID,
		"caller", call.Caller.String(),
		"cause", cause,
	)
	t.enqueue(func(l types.CallListener) {
		l.OnMissedCall(call)
	})
}

func (t *telemetryService) Flush() {
	done := make(chan struct{})
	if !t.submit(func() { close(done) }) {
		return
	}
	<-done
}

func (t *telemetryService) Stop() {
	t.lock.Lock()
	if t.stopped {
		t.lock.Unlock()
		return
	}
	t.stopped = true
	t.lock.Unlock()

	t.notifyPool.StopWait()
}

func (t *telemetryService) enqueue(op func(l types.CallListener)) {
	if t.listener == nil {
		return
	}
	t.submit(func() {
		op(t.listener)
	})
}

func (t *telemetryService) submit(task func()) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.stopped {
		return false
	}
	t.notifyPool.Submit(task)
	return true
}
