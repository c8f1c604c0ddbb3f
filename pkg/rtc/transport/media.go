package transport

import (
	"sync"

	"github.com/livekit/livekit-callcore/pkg/rtc/types"
)

// Producer is a local media source published on a transport.
type Producer interface {
	ID() string
	Kind() types.MediaKind
	Pause() error
	Resume() error
	Close()
}

// Consumer is a remote member's media received on a transport.
type Consumer interface {
	ID() string
	UserID() types.UserID
	Kind() types.MediaKind
	Close()
}

type consumerKey struct {
	userID types.UserID
	kind   types.MediaKind
}

// mediaTable tracks the producers and consumers owned by one transport.
type mediaTable struct {
	lock      sync.Mutex
	producers map[types.MediaKind]Producer
	consumers map[consumerKey]Consumer
}

func newMediaTable() *mediaTable {
	return &mediaTable{
		producers: make(map[types.MediaKind]Producer),
		consumers: make(map[consumerKey]Consumer),
	}
}

func (m *mediaTable) setProducer(p Producer) {
	m.lock.Lock()
	prev := m.producers[p.Kind()]
	m.producers[p.Kind()] = p
	m.lock.Unlock()

	if prev != nil && prev != p {
		prev.Close()
	}
}

func (m *mediaTable) producer(kind types.MediaKind) Producer {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.producers[kind]
}

func (m *mediaTable) removeProducer(kind types.MediaKind) Producer {
	m.lock.Lock()
	defer m.lock.Unlock()

	p := m.producers[kind]
	delete(m.producers, kind)
	return p
}

func (m *mediaTable) setConsumer(c Consumer) {
	key := consumerKey{userID: c.UserID(), kind: c.Kind()}
	m.lock.Lock()
	prev := m.consumers[key]
	m.consumers[key] = c
	m.lock.Unlock()

	if prev != nil && prev != c {
		prev.Close()
	}
}

func (m *mediaTable) consumer(userID types.UserID, kind types.MediaKind) Consumer {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.consumers[consumerKey{userID: userID, kind: kind}]
}

func (m *mediaTable) removeConsumerByID(id string) Consumer {
	m.lock.Lock()
	defer m.lock.Unlock()

	for key, c := range m.consumers {
		if c.ID() == id {
			delete(m.consumers, key)
			return c
		}
	}
	return nil
}

func (m *mediaTable) removeMemberConsumers(userID types.UserID) []Consumer {
	m.lock.Lock()
	defer m.lock.Unlock()

	var removed []Consumer
	for key, c := range m.consumers {
		if key.userID == userID {
			delete(m.consumers, key)
			removed = append(removed, c)
		}
	}
	return removed
}

func (m *mediaTable) numConsumers() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return len(m.consumers)
}

// closeConsumers releases every consumer, keeping producers.
func (m *mediaTable) closeConsumers() {
	m.lock.Lock()
	consumers := m.consumers
	m.consumers = make(map[consumerKey]Consumer)
	m.lock.Unlock()

	for _, c := range consumers {
		c.Close()
	}
}

// closeAll releases consumers first, then producers.
func (m *mediaTable) closeAll() {
	m.closeConsumers()

	m.lock.Lock()
	producers := m.producers
	m.producers = make(map[types.MediaKind]Producer)
	m.lock.Unlock()

	for _, p := range producers {
		p.Close()
	}
}
