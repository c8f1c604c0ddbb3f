package transport

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livekit/livekit-callcore/pkg/rtc/types"
)

type closeLog struct {
	lock  sync.Mutex
	order []string
}

func (l *closeLog) add(id string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.order = append(l.order, id)
}

type testProducer struct {
	id   string
	kind types.MediaKind
	log  *closeLog
}

func (p *testProducer) ID() string            { return p.id }
func (p *testProducer) Kind() types.MediaKind { return p.kind }
func (p *testProducer) Pause() error          { return nil }
func (p *testProducer) Resume() error         { return nil }
func (p *testProducer) Close()                { p.log.add(p.id) }

type testConsumer struct {
	id     string
	userID types.UserID
	kind   types.MediaKind
	log    *closeLog
}

func (c *testConsumer) ID() string            { return c.id }
func (c *testConsumer) UserID() types.UserID  { return c.userID }
func (c *testConsumer) Kind() types.MediaKind { return c.kind }
func (c *testConsumer) Close()                { c.log.add(c.id) }

func TestMediaTable(t *testing.T) {
	t.Run("replacing an entry closes the previous one", func(t *testing.T) {
		log := &closeLog{}
		m := newMediaTable()
		m.setProducer(&testProducer{id: "mic-1", kind: types.MediaKindAudio, log: log})
		m.setProducer(&testProducer{id: "mic-2", kind: types.MediaKindAudio, log: log})
		m.setConsumer(&testConsumer{id: "bob-a1", userID: "bob", kind: types.MediaKindAudio, log: log})
		m.setConsumer(&testConsumer{id: "bob-a2", userID: "bob", kind: types.MediaKindAudio, log: log})

		require.Equal(t, []string{"mic-1", "bob-a1"}, log.order)
		require.Equal(t, "mic-2", m.producer(types.MediaKindAudio).ID())
		require.Equal(t, "bob-a2", m.consumer("bob", types.MediaKindAudio).ID())
		require.Equal(t, 1, m.numConsumers())
	})

	t.Run("member consumers are removed together", func(t *testing.T) {
		log := &closeLog{}
		m := newMediaTable()
		m.setConsumer(&testConsumer{id: "bob-a", userID: "bob", kind: types.MediaKindAudio, log: log})
		m.setConsumer(&testConsumer{id: "bob-v", userID: "bob", kind: types.MediaKindVideo, log: log})
		m.setConsumer(&testConsumer{id: "carol-a", userID: "carol", kind: types.MediaKindAudio, log: log})

		require.Len(t, m.removeMemberConsumers("bob"), 2)
		require.Equal(t, 1, m.numConsumers())
		require.NotNil(t, m.removeConsumerByID("carol-a"))
		require.Nil(t, m.removeConsumerByID("carol-a"))
	})

	t.Run("close all releases consumers before producers", func(t *testing.T) {
		log := &closeLog{}
		m := newMediaTable()
		m.setProducer(&testProducer{id: "mic", kind: types.MediaKindAudio, log: log})
		m.setConsumer(&testConsumer{id: "bob-a", userID: "bob", kind: types.MediaKindAudio, log: log})

		m.closeAll()
		require.Equal(t, []string{"bob-a", "mic"}, log.order)
		require.Nil(t, m.producer(types.MediaKindAudio))
		require.Equal(t, 0, m.numConsumers())
	})
}
