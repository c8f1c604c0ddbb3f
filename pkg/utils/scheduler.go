// Copyright 2023 LiveKit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utils

import (
	"sync"
	"time"
)

// TimerToken identifies one arming of a keyed timer.
type TimerToken struct {
	Key string
	id  uint64
}

func (t TimerToken) IsZero() bool {
	return t.id == 0
}

type scheduledTask struct {
	id    uint64
	timer *time.Timer
	fired bool
}

// Scheduler runs keyed one-shot timers. Re-arming a key invalidates the previous token,
// so a callback that was already in flight can detect it lost the race via Consume.
type Scheduler struct {
	lock    sync.Mutex
	nextID  uint64
	tasks   map[string]*scheduledTask
	stopped bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		tasks: make(map[string]*scheduledTask),
	}
}

// Schedule arms fn to run after d. fn runs on a timer goroutine and receives the token
// it was armed with.
func (s *Scheduler) Schedule(key string, d time.Duration, fn func(token TimerToken)) TimerToken {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.stopped {
		return TimerToken{}
	}

	if prev, ok := s.tasks[key]; ok {
		prev.timer.Stop()
	}

	s.nextID++
	token := TimerToken{Key: key, id: s.nextID}
	task := &scheduledTask{id: token.id}
	task.timer = time.AfterFunc(d, func() {
		s.lock.Lock()
		current, ok := s.tasks[key]
		if !ok || current.id != token.id {
			s.lock.Unlock()
			return
		}
		current.fired = true
		s.lock.Unlock()

		fn(token)
	})
	s.tasks[key] = task
	return token
}

// Consume returns true exactly once for a token that fired and was neither cancelled nor
// replaced since.
func (s *Scheduler) Consume(token TimerToken) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	task, ok := s.tasks[token.Key]
	if !ok || task.id != token.id || !task.fired {
		return false
	}
	delete(s.tasks, token.Key)
	return true
}

func (s *Scheduler) Cancel(token TimerToken) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	task, ok := s.tasks[token.Key]
	if !ok || task.id != token.id {
		return false
	}
	task.timer.Stop()
	delete(s.tasks, token.Key)
	return true
}

func (s *Scheduler) CancelKey(key string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	task, ok := s.tasks[key]
	if !ok {
		return false
	}
	task.timer.Stop()
	delete(s.tasks, key)
	return true
}

func (s *Scheduler) IsArmed(key string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	_, ok := s.tasks[key]
	return ok
}

// Stop cancels every pending timer; later Schedule calls are ignored.
func (s *Scheduler) Stop() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.stopped = true
	for key, task := range s.tasks {
		task.timer.Stop()
		delete(s.tasks, key)
	}
}
