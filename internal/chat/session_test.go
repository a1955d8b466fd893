package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bodygoal/internal/models"
	"bodygoal/internal/realtime"
)

type fakeMessageStore struct {
	page []models.Message
	err  error
}

func (s *fakeMessageStore) ListRecent(_ context.Context, _ string, _, _ int) ([]models.Message, error) {
	return s.page, s.err
}

type fakeProfileStore struct {
	mu        sync.Mutex
	senders   map[string]models.Sender
	bulkErr   error
	pointErr  error
	pointHits int
}

func (s *fakeProfileStore) GetSender(_ context.Context, userID string) (models.Sender, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointHits++
	if s.pointErr != nil {
		return models.Sender{}, s.pointErr
	}
	sender, ok := s.senders[userID]
	if !ok {
		return models.Sender{}, errors.New("no such profile")
	}
	return sender, nil
}

func (s *fakeProfileStore) GetSenders(_ context.Context, userIDs []string) ([]models.Sender, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bulkErr != nil {
		return nil, s.bulkErr
	}
	var out []models.Sender
	for _, id := range userIDs {
		if sender, ok := s.senders[id]; ok {
			out = append(out, sender)
		}
	}
	return out, nil
}

func (s *fakeProfileStore) lookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointHits
}

type fakeReadMarker struct {
	mu     sync.Mutex
	marked []string
	err    error
}

func (r *fakeReadMarker) MarkRead(_ context.Context, chatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.marked = append(r.marked, chatID+":"+userID)
	return r.err
}

func textMessage(id, chatID, senderID, content string, at time.Time) models.Message {
	return models.Message{
		ID:          id,
		ChatID:      chatID,
		SenderID:    senderID,
		Content:     &content,
		MessageType: models.MessageText,
		CreatedAt:   at,
	}
}

// startSession opens s and registers teardown. Hooks must be set on s before
// calling this; the session loop reads them once running.
func startSession(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.Open(context.Background()))
	t.Cleanup(s.Close)
}

func TestOpenLoadsTranscriptOldestFirst(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	messages := &fakeMessageStore{page: []models.Message{
		textMessage("m2", "chat1", "friend", "second", base.Add(time.Minute)),
		textMessage("m1", "chat1", "me", "first", base),
	}}
	profiles := &fakeProfileStore{senders: map[string]models.Sender{
		"me":     {UserID: "me", Name: "Me"},
		"friend": {UserID: "friend", Name: "Friend"},
	}}
	reads := &fakeReadMarker{}

	s := NewSession(messages, profiles, reads, realtime.NewFeed(), "chat1", "me", "friend")
	startSession(t, s)

	transcript := s.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, "m1", transcript[0].ID)
	assert.Equal(t, "m2", transcript[1].ID)
	require.NotNil(t, transcript[1].Sender)
	assert.Equal(t, "Friend", transcript[1].Sender.Name)

	assert.Equal(t, []string{"chat1:me"}, reads.marked)
}

func TestOpenRendersCachedSendersOnly(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	messages := &fakeMessageStore{page: []models.Message{
		textMessage("m2", "chat1", "ghost", "who", base.Add(time.Minute)),
		textMessage("m1", "chat1", "me", "hi", base),
	}}
	// "ghost" has no profile row; its message still renders, sender-less.
	profiles := &fakeProfileStore{senders: map[string]models.Sender{
		"me": {UserID: "me", Name: "Me"},
	}}

	s := NewSession(messages, profiles, &fakeReadMarker{}, realtime.NewFeed(), "chat1", "me", "friend")
	startSession(t, s)

	transcript := s.Transcript()
	require.Len(t, transcript, 2)
	require.NotNil(t, transcript[0].Sender)
	assert.Equal(t, "Me", transcript[0].Sender.Name)
	assert.Nil(t, transcript[1].Sender)
}

func TestOpenSurvivesSenderPrefetchFailure(t *testing.T) {
	messages := &fakeMessageStore{page: []models.Message{
		textMessage("m1", "chat1", "friend", "hi", time.Now()),
	}}
	profiles := &fakeProfileStore{bulkErr: errors.New("profiles down")}
	reads := &fakeReadMarker{}

	s := NewSession(messages, profiles, reads, realtime.NewFeed(), "chat1", "me", "friend")
	startSession(t, s)

	transcript := s.Transcript()
	require.Len(t, transcript, 1)
	assert.Nil(t, transcript[0].Sender)
}

func TestAppendResolvesSenderFromCache(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	messages := &fakeMessageStore{page: []models.Message{
		textMessage("m1", "chat1", "friend", "hello", base),
	}}
	profiles := &fakeProfileStore{senders: map[string]models.Sender{
		"friend": {UserID: "friend", Name: "Friend"},
	}}
	feed := realtime.NewFeed()

	s := NewSession(messages, profiles, &fakeReadMarker{}, feed, "chat1", "me", "friend")
	appended := make(chan models.MessageView, 1)
	s.OnAppend = func(view models.MessageView) { appended <- view }
	startSession(t, s)

	ev, err := realtime.Insert(realtime.TableMessages, textMessage("m2", "chat1", "friend", "again", base.Add(time.Minute)))
	require.NoError(t, err)
	feed.Publish(ev)

	select {
	case view := <-appended:
		require.NotNil(t, view.Sender)
		assert.Equal(t, "Friend", view.Sender.Name)
	case <-time.After(time.Second):
		t.Fatal("expected an append")
	}

	// The sender was already cached at open; no point lookup happened.
	assert.Equal(t, 0, profiles.lookups())
}

func TestAppendPointLookupOnCacheMiss(t *testing.T) {
	messages := &fakeMessageStore{}
	profiles := &fakeProfileStore{senders: map[string]models.Sender{
		"newcomer": {UserID: "newcomer", Name: "New"},
	}}
	feed := realtime.NewFeed()

	s := NewSession(messages, profiles, &fakeReadMarker{}, feed, "chat1", "me", "friend")
	appended := make(chan models.MessageView, 1)
	s.OnAppend = func(view models.MessageView) { appended <- view }
	startSession(t, s)

	ev, err := realtime.Insert(realtime.TableMessages, textMessage("m1", "chat1", "newcomer", "hi", time.Now()))
	require.NoError(t, err)
	feed.Publish(ev)

	select {
	case view := <-appended:
		require.NotNil(t, view.Sender)
		assert.Equal(t, "New", view.Sender.Name)
	case <-time.After(time.Second):
		t.Fatal("expected an append")
	}
	assert.Equal(t, 1, profiles.lookups())
}

func TestAppendNeverBlocksOnFailedResolution(t *testing.T) {
	messages := &fakeMessageStore{}
	profiles := &fakeProfileStore{pointErr: errors.New("profiles down")}
	feed := realtime.NewFeed()

	s := NewSession(messages, profiles, &fakeReadMarker{}, feed, "chat1", "me", "friend")
	appended := make(chan models.MessageView, 1)
	s.OnAppend = func(view models.MessageView) { appended <- view }
	startSession(t, s)

	ev, err := realtime.Insert(realtime.TableMessages, textMessage("m1", "chat1", "stranger", "hi", time.Now()))
	require.NoError(t, err)
	feed.Publish(ev)

	select {
	case view := <-appended:
		assert.Nil(t, view.Sender)
		assert.Equal(t, "m1", view.ID)
	case <-time.After(time.Second):
		t.Fatal("message delivery must not wait on sender resolution")
	}
}

func TestAppendIgnoresOtherChatsAndNonInserts(t *testing.T) {
	messages := &fakeMessageStore{}
	profiles := &fakeProfileStore{}
	feed := realtime.NewFeed()

	s := NewSession(messages, profiles, &fakeReadMarker{}, feed, "chat1", "me", "friend")
	startSession(t, s)

	other, err := realtime.Insert(realtime.TableMessages, textMessage("m1", "chat999", "x", "hi", time.Now()))
	require.NoError(t, err)
	feed.Publish(other)

	edit, err := realtime.Update(realtime.TableMessages, nil, textMessage("m2", "chat1", "x", "edited", time.Now()))
	require.NoError(t, err)
	feed.Publish(edit)

	assert.Never(t, func() bool {
		return len(s.Transcript()) > 0
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func TestTranscriptStaysSortedByCreatedAt(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	messages := &fakeMessageStore{}
	profiles := &fakeProfileStore{}
	feed := realtime.NewFeed()

	s := NewSession(messages, profiles, &fakeReadMarker{}, feed, "chat1", "me", "friend")
	appended := make(chan struct{}, 2)
	s.OnAppend = func(models.MessageView) { appended <- struct{}{} }
	startSession(t, s)

	// Later message arrives first.
	late, err := realtime.Insert(realtime.TableMessages, textMessage("late", "chat1", "x", "b", base.Add(time.Minute)))
	require.NoError(t, err)
	feed.Publish(late)
	early, err := realtime.Insert(realtime.TableMessages, textMessage("early", "chat1", "x", "a", base))
	require.NoError(t, err)
	feed.Publish(early)

	for i := 0; i < 2; i++ {
		select {
		case <-appended:
		case <-time.After(time.Second):
			t.Fatal("expected two appends")
		}
	}

	transcript := s.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, "early", transcript[0].ID)
	assert.Equal(t, "late", transcript[1].ID)
}

func TestProfileUpdatePatchesRenderedMessages(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	messages := &fakeMessageStore{page: []models.Message{
		textMessage("m2", "chat1", "friend", "two", base.Add(time.Minute)),
		textMessage("m1", "chat1", "friend", "one", base),
	}}
	profiles := &fakeProfileStore{senders: map[string]models.Sender{
		"friend": {UserID: "friend", Name: "Old Name"},
	}}
	feed := realtime.NewFeed()

	s := NewSession(messages, profiles, &fakeReadMarker{}, feed, "chat1", "me", "friend")
	patched := make(chan models.Sender, 1)
	s.OnPatch = func(sender models.Sender) { patched <- sender }
	startSession(t, s)

	ev, err := realtime.Update(realtime.TableProfiles, nil, models.Sender{UserID: "friend", Name: "New Name"})
	require.NoError(t, err)
	feed.Publish(ev)

	select {
	case sender := <-patched:
		assert.Equal(t, "New Name", sender.Name)
	case <-time.After(time.Second):
		t.Fatal("expected a profile patch")
	}

	for _, view := range s.Transcript() {
		require.NotNil(t, view.Sender)
		assert.Equal(t, "New Name", view.Sender.Name)
	}

	cached, ok := s.Sender("friend")
	require.True(t, ok)
	assert.Equal(t, "New Name", cached.Name)
}

func TestProfileUpdatesForStrangersAreIgnored(t *testing.T) {
	messages := &fakeMessageStore{}
	profiles := &fakeProfileStore{}
	feed := realtime.NewFeed()

	s := NewSession(messages, profiles, &fakeReadMarker{}, feed, "chat1", "me", "friend")
	startSession(t, s)

	ev, err := realtime.Update(realtime.TableProfiles, nil, models.Sender{UserID: "stranger", Name: "X"})
	require.NoError(t, err)
	feed.Publish(ev)

	assert.Never(t, func() bool {
		_, ok := s.Sender("stranger")
		return ok
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func TestCloseTearsDownAllSubscriptions(t *testing.T) {
	messages := &fakeMessageStore{}
	profiles := &fakeProfileStore{}
	feed := realtime.NewFeed()

	s := NewSession(messages, profiles, &fakeReadMarker{}, feed, "chat1", "me", "friend")
	require.NoError(t, s.Open(context.Background()))

	s.Close()
	s.Close()

	// Events published after Close change nothing.
	ev, err := realtime.Insert(realtime.TableMessages, textMessage("m1", "chat1", "friend", "hi", time.Now()))
	require.NoError(t, err)
	feed.Publish(ev)

	assert.Empty(t, s.Transcript())
}
