package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustInsert(t *testing.T, table string, row any) ChangeEvent {
	t.Helper()
	ev, err := Insert(table, row)
	require.NoError(t, err)
	return ev
}

func TestPublishReachesTableSubscribersOnly(t *testing.T) {
	feed := NewFeed()
	presenceSub := feed.Subscribe(TablePresence)
	defer presenceSub.Close()
	messagesSub := feed.Subscribe(TableMessages)
	defer messagesSub.Close()

	feed.Publish(mustInsert(t, TablePresence, presenceRow{UserID: "u1"}))

	select {
	case ev := <-presenceSub.Events():
		assert.Equal(t, TablePresence, ev.Table)
	default:
		t.Fatal("presence subscriber should have received the event")
	}

	select {
	case <-messagesSub.Events():
		t.Fatal("messages subscriber must not see presence events")
	default:
	}
}

func TestPublishDropsInvalidEvents(t *testing.T) {
	feed := NewFeed()
	sub := feed.Subscribe(TablePresence)
	defer sub.Close()

	feed.Publish(ChangeEvent{Type: EventInsert, Table: TablePresence})

	select {
	case <-sub.Events():
		t.Fatal("invalid event must be dropped at the boundary")
	default:
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	feed := NewFeed()
	sub := feed.Subscribe(TablePresence)
	defer sub.Close()

	// Overfill the buffer; publishing must never block.
	for i := 0; i < subscriptionBuffer+10; i++ {
		feed.Publish(mustInsert(t, TablePresence, presenceRow{UserID: "u1"}))
	}

	assert.Len(t, sub.Events(), subscriptionBuffer)
}

func TestCloseUnsubscribesAndClosesChannel(t *testing.T) {
	feed := NewFeed()
	sub := feed.Subscribe(TablePresence)

	sub.Close()
	sub.Close()

	_, open := <-sub.Events()
	assert.False(t, open)

	// Publishing after close must not panic on the closed channel.
	feed.Publish(mustInsert(t, TablePresence, presenceRow{UserID: "u1"}))
}
