package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"bodygoal/internal/llm"
	"bodygoal/internal/models"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateOrGetDirectChat(ctx context.Context, userID, friendID string) (models.Chat, error) {
	args := m.Called(ctx, userID, friendID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) DirectPeer(ctx context.Context, chatID, userID string) (string, error) {
	args := m.Called(ctx, chatID, userID)
	return args.String(0), args.Error(1)
}

func (m *ChatRepositoryMock) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ChatSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatSummary)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) MarkRead(ctx context.Context, chatID, userID string) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) TouchLastMessage(ctx context.Context, chatID string) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var stored models.Message
	if val := args.Get(0); val != nil {
		stored = val.(models.Message)
	}
	return stored, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListRecent(ctx context.Context, chatID string, limit, offset int) ([]models.Message, error) {
	args := m.Called(ctx, chatID, limit, offset)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) EditMessage(ctx context.Context, messageID, senderID, content string) (models.Message, error) {
	args := m.Called(ctx, messageID, senderID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteMessage(ctx context.Context, messageID, senderID string) (models.Message, error) {
	args := m.Called(ctx, messageID, senderID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) Get(ctx context.Context, userID string) (models.Profile, error) {
	args := m.Called(ctx, userID)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) Update(ctx context.Context, profile models.Profile) (models.Profile, error) {
	args := m.Called(ctx, profile)
	var updated models.Profile
	if val := args.Get(0); val != nil {
		updated = val.(models.Profile)
	}
	return updated, args.Error(1)
}

func (m *ProfileRepositoryMock) SetAvatarURL(ctx context.Context, userID, avatarURL string) error {
	args := m.Called(ctx, userID, avatarURL)
	return args.Error(0)
}

func (m *ProfileRepositoryMock) GetSender(ctx context.Context, userID string) (models.Sender, error) {
	args := m.Called(ctx, userID)
	var sender models.Sender
	if val := args.Get(0); val != nil {
		sender = val.(models.Sender)
	}
	return sender, args.Error(1)
}

func (m *ProfileRepositoryMock) GetSenders(ctx context.Context, userIDs []string) ([]models.Sender, error) {
	args := m.Called(ctx, userIDs)
	var senders []models.Sender
	if val := args.Get(0); val != nil {
		senders = val.([]models.Sender)
	}
	return senders, args.Error(1)
}

func (m *ProfileRepositoryMock) Search(ctx context.Context, query string, limit int) ([]models.Sender, error) {
	args := m.Called(ctx, query, limit)
	var senders []models.Sender
	if val := args.Get(0); val != nil {
		senders = val.([]models.Sender)
	}
	return senders, args.Error(1)
}

func (m *ProfileRepositoryMock) ListRecent(ctx context.Context, limit int) ([]models.Sender, error) {
	args := m.Called(ctx, limit)
	var senders []models.Sender
	if val := args.Get(0); val != nil {
		senders = val.([]models.Sender)
	}
	return senders, args.Error(1)
}

type FriendshipRepositoryMock struct {
	mock.Mock
}

func (m *FriendshipRepositoryMock) CreateRequest(ctx context.Context, requesterID, addresseeID string) (models.Friendship, error) {
	args := m.Called(ctx, requesterID, addresseeID)
	var friendship models.Friendship
	if val := args.Get(0); val != nil {
		friendship = val.(models.Friendship)
	}
	return friendship, args.Error(1)
}

func (m *FriendshipRepositoryMock) Get(ctx context.Context, friendshipID string) (models.Friendship, error) {
	args := m.Called(ctx, friendshipID)
	var friendship models.Friendship
	if val := args.Get(0); val != nil {
		friendship = val.(models.Friendship)
	}
	return friendship, args.Error(1)
}

func (m *FriendshipRepositoryMock) UpdateStatus(ctx context.Context, friendshipID, status string) (models.Friendship, error) {
	args := m.Called(ctx, friendshipID, status)
	var friendship models.Friendship
	if val := args.Get(0); val != nil {
		friendship = val.(models.Friendship)
	}
	return friendship, args.Error(1)
}

func (m *FriendshipRepositoryMock) Delete(ctx context.Context, friendshipID string) error {
	args := m.Called(ctx, friendshipID)
	return args.Error(0)
}

func (m *FriendshipRepositoryMock) ListFriends(ctx context.Context, userID string) ([]models.FriendshipView, error) {
	args := m.Called(ctx, userID)
	var list []models.FriendshipView
	if val := args.Get(0); val != nil {
		list = val.([]models.FriendshipView)
	}
	return list, args.Error(1)
}

func (m *FriendshipRepositoryMock) ListPending(ctx context.Context, userID string) ([]models.FriendshipView, error) {
	args := m.Called(ctx, userID)
	var list []models.FriendshipView
	if val := args.Get(0); val != nil {
		list = val.([]models.FriendshipView)
	}
	return list, args.Error(1)
}

func (m *FriendshipRepositoryMock) ListSent(ctx context.Context, userID string) ([]models.FriendshipView, error) {
	args := m.Called(ctx, userID)
	var list []models.FriendshipView
	if val := args.Get(0); val != nil {
		list = val.([]models.FriendshipView)
	}
	return list, args.Error(1)
}

func (m *FriendshipRepositoryMock) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Bool(0), args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, email, passwordHash, name string) (models.User, error) {
	args := m.Called(ctx, email, passwordHash, name)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type WeightRepositoryMock struct {
	mock.Mock
}

func (m *WeightRepositoryMock) Create(ctx context.Context, rec models.WeightRecord) (models.WeightRecord, error) {
	args := m.Called(ctx, rec)
	var stored models.WeightRecord
	if val := args.Get(0); val != nil {
		stored = val.(models.WeightRecord)
	}
	return stored, args.Error(1)
}

func (m *WeightRepositoryMock) List(ctx context.Context, userID string, since time.Time, limit int) ([]models.WeightRecord, error) {
	args := m.Called(ctx, userID, since, limit)
	var list []models.WeightRecord
	if val := args.Get(0); val != nil {
		list = val.([]models.WeightRecord)
	}
	return list, args.Error(1)
}

func (m *WeightRepositoryMock) Latest(ctx context.Context, userID string) (models.WeightRecord, error) {
	args := m.Called(ctx, userID)
	var rec models.WeightRecord
	if val := args.Get(0); val != nil {
		rec = val.(models.WeightRecord)
	}
	return rec, args.Error(1)
}

func (m *WeightRepositoryMock) Delete(ctx context.Context, recordID, userID string) error {
	args := m.Called(ctx, recordID, userID)
	return args.Error(0)
}

type MealPlanRepositoryMock struct {
	mock.Mock
}

func (m *MealPlanRepositoryMock) Create(ctx context.Context, plan models.MealPlan) (models.MealPlan, error) {
	args := m.Called(ctx, plan)
	var stored models.MealPlan
	if val := args.Get(0); val != nil {
		stored = val.(models.MealPlan)
	}
	return stored, args.Error(1)
}

func (m *MealPlanRepositoryMock) Get(ctx context.Context, planID, userID string) (models.MealPlan, error) {
	args := m.Called(ctx, planID, userID)
	var plan models.MealPlan
	if val := args.Get(0); val != nil {
		plan = val.(models.MealPlan)
	}
	return plan, args.Error(1)
}

func (m *MealPlanRepositoryMock) List(ctx context.Context, userID string) ([]models.MealPlan, error) {
	args := m.Called(ctx, userID)
	var list []models.MealPlan
	if val := args.Get(0); val != nil {
		list = val.([]models.MealPlan)
	}
	return list, args.Error(1)
}

func (m *MealPlanRepositoryMock) Delete(ctx context.Context, planID, userID string) error {
	args := m.Called(ctx, planID, userID)
	return args.Error(0)
}

type PresenceStoreMock struct {
	mock.Mock
}

func (m *PresenceStoreMock) Upsert(ctx context.Context, rec models.PresenceRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *PresenceStoreMock) Query(ctx context.Context, userIDs []string) ([]models.PresenceRecord, error) {
	args := m.Called(ctx, userIDs)
	var records []models.PresenceRecord
	if val := args.Get(0); val != nil {
		records = val.([]models.PresenceRecord)
	}
	return records, args.Error(1)
}

func (m *PresenceStoreMock) SweepStale(ctx context.Context, cutoff, seenAt time.Time) ([]models.PresenceRecord, error) {
	args := m.Called(ctx, cutoff, seenAt)
	var records []models.PresenceRecord
	if val := args.Get(0); val != nil {
		records = val.([]models.PresenceRecord)
	}
	return records, args.Error(1)
}

type PlanGeneratorMock struct {
	mock.Mock
}

func (m *PlanGeneratorMock) GenerateMealPlan(ctx context.Context, req llm.MealPlanRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type PhotoAnalyzerMock struct {
	mock.Mock
}

func (m *PhotoAnalyzerMock) AnalyzeFoodPhoto(ctx context.Context, imageBase64 string) (llm.PhotoAnalysis, error) {
	args := m.Called(ctx, imageBase64)
	var analysis llm.PhotoAnalysis
	if val := args.Get(0); val != nil {
		analysis = val.(llm.PhotoAnalysis)
	}
	return analysis, args.Error(1)
}
