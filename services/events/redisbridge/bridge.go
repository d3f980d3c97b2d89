// Package redisbridge relays store change events between processes sharing one store,
// the way the browser's storage event reaches the other tabs of an origin.
package redisbridge

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/services/events"
)

type message struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

type Bridge struct {
	rdb     *redis.Client
	channel string
	bus     *events.Bus
	logger  core.Logger

	mu          sync.Mutex
	pubsub      *redis.PubSub
	unsubscribe func()
	done        chan struct{}
}

func New(rdb *redis.Client, channel string, bus *events.Bus, logger core.Logger) *Bridge {
	return &Bridge{
		rdb:     rdb,
		channel: channel,
		bus:     bus,
		logger:  logger,
	}
}

// Start subscribes to the redis channel and to the local bus.
// Local events are published to peers; peer events are republished locally as remote events.
// Like the browser signal, a process never receives its own writes back.
func (br *Bridge) Start(ctx context.Context) error {
	br.mu.Lock()
	defer br.mu.Unlock()

	if br.pubsub != nil {
		return errors.New("redisbridge: already started")
	}

	pubsub := br.rdb.Subscribe(ctx, br.channel)
	// wait for the subscription confirmation so no peer event published after Start is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return errors.Wrap(err, "redisbridge: subscribing")
	}
	br.pubsub = pubsub
	br.done = make(chan struct{})
	br.unsubscribe = br.bus.Subscribe(br.relay)

	go br.listen(pubsub.Channel(), br.done)
	return nil
}

// relay publishes a local event to the peers.
func (br *Bridge) relay(ev events.Event) {
	if ev.Remote {
		return
	}
	data, err := json.Marshal(message{ID: ev.ID.String(), Key: ev.Key, Origin: ev.Origin})
	if err != nil {
		br.logger.Error("redisbridge: encoding event", err)
		return
	}
	if err := br.rdb.Publish(context.Background(), br.channel, data).Err(); err != nil {
		br.logger.Warn("redisbridge: publishing event", err, map[string]interface{}{"key": ev.Key})
	}
}

func (br *Bridge) listen(ch <-chan *redis.Message, done chan struct{}) {
	defer close(done)
	for msg := range ch {
		var m message
		if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
			br.logger.Warn("redisbridge: dropping malformed message", err)
			continue
		}
		if m.Origin == br.bus.Origin() {
			continue
		}
		ev := events.NewEvent(m.Key, nil)
		ev.Origin = m.Origin
		ev.Remote = true
		br.bus.Publish(ev)
	}
}

// Close stops relaying in both directions.
func (br *Bridge) Close() error {
	br.mu.Lock()
	defer br.mu.Unlock()

	if br.pubsub == nil {
		return nil
	}
	br.unsubscribe()
	err := br.pubsub.Close()
	<-br.done
	br.pubsub = nil
	return err
}
