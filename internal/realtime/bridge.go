package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "realtime:"

type wireEvent struct {
	Origin string      `json:"origin"`
	Event  ChangeEvent `json:"event"`
}

// Bridge replicates feed events across service instances over Redis pub/sub.
// Locally produced events are delivered to the local feed immediately and
// published to Redis; events arriving from other instances are injected into
// the local feed. Origin tagging prevents echo loops.
type Bridge struct {
	feed       *Feed
	rdb        *redis.Client
	instanceID string
}

// NewBridge wires a feed to a Redis client.
func NewBridge(feed *Feed, rdb *redis.Client) *Bridge {
	return &Bridge{feed: feed, rdb: rdb, instanceID: uuid.NewString()}
}

// PublishChange implements Publisher: local delivery plus cross-instance
// replication. The Redis publish is best-effort; a missed replication only
// delays remote readers until their next poll.
func (b *Bridge) PublishChange(ctx context.Context, ev ChangeEvent) {
	b.feed.Publish(ev)

	body, err := json.Marshal(wireEvent{Origin: b.instanceID, Event: ev})
	if err != nil {
		return
	}
	if err := b.rdb.Publish(ctx, channelPrefix+ev.Table, body).Err(); err != nil {
		log.Printf("realtime bridge publish failed: %v", err)
	}
}

// Run consumes replicated events from other instances until ctx is done.
func (b *Bridge) Run(ctx context.Context) {
	pubsub := b.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var wire wireEvent
			if err := json.Unmarshal([]byte(msg.Payload), &wire); err != nil {
				log.Printf("realtime bridge: bad payload: %v", err)
				continue
			}
			if wire.Origin == b.instanceID {
				continue
			}
			if err := wire.Event.Validate(); err != nil {
				log.Printf("realtime bridge: invalid event: %v", err)
				continue
			}
			b.feed.Publish(wire.Event)
		}
	}
}
