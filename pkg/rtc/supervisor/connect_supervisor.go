package supervisor

import (
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/livekit/livekit-callcore/pkg/rtc/types"
	"github.com/livekit/livekit-callcore/pkg/utils"
	"github.com/livekit/protocol/logger"
)

const (
	DefaultConnectTimeout = 60 * time.Second

	connectKeyPrefix = "connect/"
)

type ConnectSupervisorParams struct {
	Timeout   time.Duration
	Scheduler *utils.Scheduler
	// Executor serializes expiry with the owner's other mutations. Runs inline when nil.
	Executor  func(func())
	OnTimeout func(userID types.UserID)
	Logger    logger.Logger
}

// ConnectSupervisor bounds how long a member may stay in the connecting state.
type ConnectSupervisor struct {
	params ConnectSupervisorParams

	lock    sync.Mutex
	watched map[types.UserID]utils.TimerToken

	isStopped atomic.Bool
}

func NewConnectSupervisor(params ConnectSupervisorParams) *ConnectSupervisor {
	if params.Timeout <= 0 {
		params.Timeout = DefaultConnectTimeout
	}
	if params.Scheduler == nil {
		params.Scheduler = utils.NewScheduler()
	}
	if params.Logger == nil {
		params.Logger = logger.GetLogger()
	}
	return &ConnectSupervisor{
		params:  params,
		watched: make(map[types.UserID]utils.TimerToken),
	}
}

// Watch arms the connect timer for a member, restarting it if already armed.
func (c *ConnectSupervisor) Watch(userID types.UserID) {
	if c.isStopped.Load() {
		return
	}

	token := c.params.Scheduler.Schedule(connectKeyPrefix+string(userID), c.params.Timeout, func(token utils.TimerToken) {
		c.execute(func() {
			c.expire(userID, token)
		})
	})

	c.lock.Lock()
	c.watched[userID] = token
	c.lock.Unlock()
}

func (c *ConnectSupervisor) Unwatch(userID types.UserID) {
	c.lock.Lock()
	token, ok := c.watched[userID]
	delete(c.watched, userID)
	c.lock.Unlock()

	if ok {
		c.params.Scheduler.Cancel(token)
	}
}

func (c *ConnectSupervisor) IsWatching(userID types.UserID) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	_, ok := c.watched[userID]
	return ok
}

func (c *ConnectSupervisor) Stop() {
	if c.isStopped.Swap(true) {
		return
	}

	c.lock.Lock()
	watched := c.watched
	c.watched = make(map[types.UserID]utils.TimerToken)
	c.lock.Unlock()

	for _, token := range watched {
		c.params.Scheduler.Cancel(token)
	}
}

func (c *ConnectSupervisor) expire(userID types.UserID, token utils.TimerToken) {
	if c.isStopped.Load() || !c.params.Scheduler.Consume(token) {
		return
	}

	c.lock.Lock()
	current, ok := c.watched[userID]
	if ok && current == token {
		delete(c.watched, userID)
	}
	c.lock.Unlock()
	if !ok || current != token {
		return
	}

	c.params.Logger.Infow("member connect timed out", "userID", userID, "timeout", c.params.Timeout)
	if c.params.OnTimeout != nil {
		c.params.OnTimeout(userID)
	}
}

func (c *ConnectSupervisor) execute(f func()) {
	if c.params.Executor != nil {
		c.params.Executor(f)
		return
	}
	f()
}
