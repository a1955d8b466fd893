package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bodygoal/internal/media"
	"bodygoal/internal/models"
	"bodygoal/internal/realtime"
	"bodygoal/internal/repositories"
)

const maxUploadBytes = 25 << 20

// ChatHandler manages direct chat endpoints.
type ChatHandler struct {
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
	profileRepo repositories.ProfileRepository
	friendRepo  repositories.FriendshipRepository
	storage     *media.Storage
	events      realtime.Publisher
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository, profileRepo repositories.ProfileRepository, friendRepo repositories.FriendshipRepository, storage *media.Storage, events realtime.Publisher) *ChatHandler {
	return &ChatHandler{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		profileRepo: profileRepo,
		friendRepo:  friendRepo,
		storage:     storage,
		events:      events,
	}
}

// ListChats returns the chats visible to the authenticated user.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetString("userID")

	chats, err := h.chatRepo.ListChats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}

	friendIDs := make([]string, 0, len(chats))
	for _, chat := range chats {
		friendIDs = append(friendIDs, chat.FriendID)
	}

	senders, err := h.profileRepo.GetSenders(c.Request.Context(), friendIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load friend info"})
		return
	}

	senderByID := map[string]models.Sender{}
	for _, sender := range senders {
		senderByID[sender.UserID] = sender
	}

	type chatResponse struct {
		models.ChatSummary
		Friend models.Sender `json:"friend"`
	}

	responses := make([]chatResponse, 0, len(chats))
	for _, chat := range chats {
		responses = append(responses, chatResponse{
			ChatSummary: chat,
			Friend:      senderByID[chat.FriendID],
		})
	}

	c.JSON(http.StatusOK, gin.H{"chats": responses})
}

// StartChat creates or returns an existing direct chat between friends.
func (h *ChatHandler) StartChat(c *gin.Context) {
	var req struct {
		FriendID string `json:"friend_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userID")
	if userID == req.FriendID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
		return
	}

	friends, err := h.friendRepo.AreFriends(c.Request.Context(), userID, req.FriendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate friendship"})
		return
	}
	if !friends {
		c.JSON(http.StatusForbidden, gin.H{"error": "users are not friends"})
		return
	}

	chat, err := h.chatRepo.CreateOrGetDirectChat(c.Request.Context(), userID, req.FriendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat_id": chat.ID})
}

// GetChatMessages returns a transcript page, newest first.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	chatID := c.Param("chat_id")
	userID := c.GetString("userID")

	if !h.requireMembership(c, chatID, userID) {
		return
	}

	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	msgs, err := h.messageRepo.ListRecent(c.Request.Context(), chatID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	if err := h.chatRepo.MarkRead(c.Request.Context(), chatID, userID); err != nil {
		log.Printf("mark read failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostChatMessage stores a text message and emits the insert event that live
// sessions append from.
func (h *ChatHandler) PostChatMessage(c *gin.Context) {
	chatID := c.Param("chat_id")
	userID := c.GetString("userID")

	if !h.requireMembership(c, chatID, userID) {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), models.Message{
		ChatID:      chatID,
		SenderID:    userID,
		Content:     &req.Content,
		MessageType: models.MessageText,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store message"})
		return
	}

	h.afterMessageWrite(c, msg)
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// PostChatMedia stores an uploaded file and the message referencing it.
func (h *ChatHandler) PostChatMedia(c *gin.Context) {
	chatID := c.Param("chat_id")
	userID := c.GetString("userID")

	if !h.requireMembership(c, chatID, userID) {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	stored, err := h.storage.Upload(c.Request.Context(), fileHeader.Filename, mimeType, userID, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}

	fileURL := h.storage.PublicURL(stored.ID)
	fileName := fileHeader.Filename
	fileSize := fileHeader.Size
	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), models.Message{
		ChatID:      chatID,
		SenderID:    userID,
		MessageType: messageTypeForMime(mimeType),
		FileURL:     &fileURL,
		FileName:    &fileName,
		FileSize:    &fileSize,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store message"})
		return
	}

	h.afterMessageWrite(c, msg)
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// EditMessage rewrites the sender's own message.
func (h *ChatHandler) EditMessage(c *gin.Context) {
	chatID := c.Param("chat_id")
	messageID := c.Param("message_id")
	userID := c.GetString("userID")

	if !h.requireMembership(c, chatID, userID) {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messageRepo.EditMessage(c.Request.Context(), messageID, userID, req.Content)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	if errors.Is(err, repositories.ErrNotMessageOwner) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your message"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not edit message"})
		return
	}

	if ev, err := realtime.Update(realtime.TableMessages, nil, msg); err == nil {
		h.events.PublishChange(c.Request.Context(), ev)
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// DeleteMessage soft-deletes the sender's own message.
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	chatID := c.Param("chat_id")
	messageID := c.Param("message_id")
	userID := c.GetString("userID")

	if !h.requireMembership(c, chatID, userID) {
		return
	}

	msg, err := h.messageRepo.DeleteMessage(c.Request.Context(), messageID, userID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	if errors.Is(err, repositories.ErrNotMessageOwner) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your message"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete message"})
		return
	}

	if ev, err := realtime.Delete(realtime.TableMessages, msg); err == nil {
		h.events.PublishChange(c.Request.Context(), ev)
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *ChatHandler) requireMembership(c *gin.Context, chatID, userID string) bool {
	member, err := h.chatRepo.IsParticipant(c.Request.Context(), chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return false
	}
	return true
}

func (h *ChatHandler) afterMessageWrite(c *gin.Context, msg models.Message) {
	if err := h.chatRepo.TouchLastMessage(c.Request.Context(), msg.ChatID); err != nil {
		log.Printf("touch last message failed: %v", err)
	}
	ev, err := realtime.Insert(realtime.TableMessages, msg)
	if err != nil {
		log.Printf("message event build failed: %v", err)
		return
	}
	h.events.PublishChange(c.Request.Context(), ev)
}

func messageTypeForMime(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return models.MessageImage
	case strings.HasPrefix(mimeType, "video/"):
		return models.MessageVideo
	default:
		return models.MessageFile
	}
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return fallback
	}
	return val
}
