package chat

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"bodygoal/internal/models"
	"bodygoal/internal/realtime"
)

// DefaultPageSize is the initial transcript page length.
const DefaultPageSize = 50

// MessageStore loads transcript pages.
type MessageStore interface {
	ListRecent(ctx context.Context, chatID string, limit, offset int) ([]models.Message, error)
}

// ProfileStore resolves sender display metadata.
type ProfileStore interface {
	GetSender(ctx context.Context, userID string) (models.Sender, error)
	GetSenders(ctx context.Context, userIDs []string) ([]models.Sender, error)
}

// ReadMarker records that the user has seen a conversation.
type ReadMarker interface {
	MarkRead(ctx context.Context, chatID, userID string) error
}

// Session keeps one open conversation's transcript current: new messages are
// appended as they arrive, and sender display metadata reflects the *current*
// profile, not a snapshot, so profile updates retroactively patch rendered
// messages. The profile cache is owned by this session and dies with it.
type Session struct {
	chatID   string
	userID   string
	friendID string

	messages MessageStore
	profiles ProfileStore
	reads    ReadMarker
	feed     *realtime.Feed

	mu         sync.RWMutex
	cache      map[string]models.Sender
	transcript []models.MessageView

	// OnAppend, when set before Open, is invoked for every realtime append.
	OnAppend func(models.MessageView)
	// OnPatch, when set before Open, is invoked after a profile update
	// rewrites cached sender metadata.
	OnPatch func(models.Sender)

	msgSub    *realtime.Subscription
	friendSub *realtime.Subscription
	selfSub   *realtime.Subscription
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession builds a session for one user viewing one conversation.
func NewSession(messages MessageStore, profiles ProfileStore, reads ReadMarker, feed *realtime.Feed, chatID, userID, friendID string) *Session {
	return &Session{
		chatID:   chatID,
		userID:   userID,
		friendID: friendID,
		messages: messages,
		profiles: profiles,
		reads:    reads,
		feed:     feed,
		cache:    make(map[string]models.Sender),
	}
}

// Open loads the initial page, primes the sender cache, marks the chat read,
// and subscribes to message inserts plus both participants' profile updates.
func (s *Session) Open(ctx context.Context) error {
	page, err := s.messages.ListRecent(ctx, s.chatID, DefaultPageSize, 0)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	// Newest-first from the store; the transcript reads oldest-first.
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}

	senderIDs := make([]string, 0, 2)
	seen := map[string]struct{}{}
	for _, msg := range page {
		if _, ok := seen[msg.SenderID]; !ok {
			seen[msg.SenderID] = struct{}{}
			senderIDs = append(senderIDs, msg.SenderID)
		}
	}

	senders, err := s.profiles.GetSenders(ctx, senderIDs)
	if err != nil {
		// Display metadata is best-effort; the transcript still loads.
		log.Printf("chat session: sender prefetch failed: %v", err)
		senders = nil
	}

	s.mu.Lock()
	for _, sender := range senders {
		s.cache[sender.UserID] = sender
	}
	s.transcript = make([]models.MessageView, 0, len(page))
	for _, msg := range page {
		s.transcript = append(s.transcript, s.viewLocked(msg))
	}
	s.mu.Unlock()

	if err := s.reads.MarkRead(ctx, s.chatID, s.userID); err != nil {
		log.Printf("chat session: mark read failed: %v", err)
	}

	s.msgSub = s.feed.Subscribe(realtime.TableMessages)
	s.friendSub = s.feed.Subscribe(realtime.TableProfiles)
	s.selfSub = s.feed.Subscribe(realtime.TableProfiles)

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(loopCtx)
	return nil
}

// viewLocked renders a message, attaching a copy of the cached sender when
// one is present. Callers hold s.mu.
func (s *Session) viewLocked(msg models.Message) models.MessageView {
	view := models.MessageView{Message: msg}
	if sender, ok := s.cache[msg.SenderID]; ok {
		copied := sender
		view.Sender = &copied
	}
	return view
}

func (s *Session) loop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.msgSub.Events():
			if !ok {
				return
			}
			s.handleMessage(ctx, ev)
		case ev, ok := <-s.friendSub.Events():
			if !ok {
				return
			}
			s.handleProfile(ev, s.friendID)
		case ev, ok := <-s.selfSub.Events():
			if !ok {
				return
			}
			s.handleProfile(ev, s.userID)
		}
	}
}

// handleMessage appends an inserted message for this chat. Sender resolution
// goes cache first, then a point lookup; a failed lookup never blocks
// delivery, the message just lands with a nil sender.
func (s *Session) handleMessage(ctx context.Context, ev realtime.ChangeEvent) {
	if ev.Type != realtime.EventInsert {
		return
	}
	var msg models.Message
	if err := ev.DecodeAfter(&msg); err != nil {
		return
	}
	if msg.ChatID != s.chatID {
		return
	}

	s.mu.RLock()
	sender, cached := s.cache[msg.SenderID]
	s.mu.RUnlock()

	if !cached {
		resolved, err := s.profiles.GetSender(ctx, msg.SenderID)
		if err != nil {
			log.Printf("chat session: sender lookup failed for %s: %v", msg.SenderID, err)
		} else {
			sender, cached = resolved, true
			s.mu.Lock()
			s.cache[msg.SenderID] = resolved
			s.mu.Unlock()
		}
	}

	view := models.MessageView{Message: msg}
	if cached {
		copied := sender
		view.Sender = &copied
	}

	s.mu.Lock()
	s.transcript = append(s.transcript, view)
	// Realtime arrival order is not server order; keep the transcript sorted
	// by creation time (stable, so equal timestamps keep arrival order).
	sort.SliceStable(s.transcript, func(i, j int) bool {
		return s.transcript[i].CreatedAt.Before(s.transcript[j].CreatedAt)
	})
	s.mu.Unlock()

	if s.OnAppend != nil {
		s.OnAppend(view)
	}
}

// handleProfile overwrites the cached sender and retroactively patches every
// rendered message from that sender.
func (s *Session) handleProfile(ev realtime.ChangeEvent, wantUserID string) {
	if ev.Type != realtime.EventUpdate && ev.Type != realtime.EventInsert {
		return
	}
	var sender models.Sender
	if err := ev.DecodeAfter(&sender); err != nil {
		return
	}
	if sender.UserID != wantUserID {
		return
	}

	s.mu.Lock()
	s.cache[sender.UserID] = sender
	for i := range s.transcript {
		if s.transcript[i].SenderID == sender.UserID {
			copied := sender
			s.transcript[i].Sender = &copied
		}
	}
	s.mu.Unlock()

	if s.OnPatch != nil {
		s.OnPatch(sender)
	}
}

// Transcript returns a copy of the rendered messages, oldest first.
func (s *Session) Transcript() []models.MessageView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MessageView, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Sender returns the cached display metadata for a user, if present.
func (s *Session) Sender(userID string) (models.Sender, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sender, ok := s.cache[userID]
	return sender, ok
}

// Close tears down all three subscriptions. Mandatory on conversation close;
// leaked listeners compound across repeated opens.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
			<-s.done
		}
		for _, sub := range []*realtime.Subscription{s.msgSub, s.friendSub, s.selfSub} {
			if sub != nil {
				sub.Close()
			}
		}
	})
}
