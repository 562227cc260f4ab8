package service

import (
	"errors"
	"strings"

	"dmchat/backend/internal/apperr"
	"dmchat/backend/internal/models"
	"dmchat/backend/internal/storage"
)

const (
	// MaxBodyLen is the hard cap on a message body, in characters.
	MaxBodyLen = 1000
	// HistoryLimit bounds how many messages a history fetch returns.
	HistoryLimit = 50
)

// ChatService owns conversation identity and the message pipeline.
type ChatService struct {
	storage storage.Storage
}

func NewChatService(s storage.Storage) *ChatService {
	return &ChatService{storage: s}
}

// NormalizePair orders two user ids ascending. The canonical (low, high)
// order is what makes the pair's unique index admit exactly one conversation
// per unordered pair.
func NormalizePair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// NormalizeBody caps a body at MaxBodyLen characters, then trims whitespace.
// An empty result means the message must not be sent.
func NormalizeBody(body string) string {
	if runes := []rune(body); len(runes) > MaxBodyLen {
		body = string(runes[:MaxBodyLen])
	}
	return strings.TrimSpace(body)
}

// GetOrCreateConversation resolves the single conversation for (myID,
// partnerID), creating it on first contact. The lookup-then-insert is not
// atomic: a concurrent loser of the insert re-fetches the winner's row
// instead of failing.
func (s *ChatService) GetOrCreateConversation(myID, partnerID uint) (*models.Conversation, error) {
	if partnerID == 0 || partnerID == myID {
		return nil, apperr.ErrInvalidPartner
	}

	if _, err := s.storage.GetUserByID(partnerID); err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			return nil, apperr.ErrPartnerNotFound
		}
		return nil, err
	}

	low, high := NormalizePair(myID, partnerID)

	conv, err := s.storage.GetConversationByPair(low, high)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, apperr.ErrConversationNotFound) {
		return nil, err
	}

	conv = &models.Conversation{User1ID: low, User2ID: high}
	if err := s.storage.CreateConversation(conv); err != nil {
		if errors.Is(err, apperr.ErrConversationExists) {
			return s.storage.GetConversationByPair(low, high)
		}
		return nil, err
	}
	return conv, nil
}

// Authorize loads a conversation and checks the user is one of its two
// participants. Every join and every send goes through here against durable
// storage; in-memory room membership is never trusted for authorization.
func (s *ChatService) Authorize(conversationID, userID uint) (*models.Conversation, error) {
	conv, err := s.storage.GetConversationByID(conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, apperr.ErrNotParticipant
	}
	return conv, nil
}

// RecentHistory returns the newest HistoryLimit messages of a conversation in
// ascending order, after checking the caller's participancy.
func (s *ChatService) RecentHistory(conversationID, myID uint) ([]models.MessageView, error) {
	if conversationID == 0 {
		return nil, apperr.ErrConversationIDRequired
	}
	if _, err := s.Authorize(conversationID, myID); err != nil {
		return nil, err
	}
	return s.storage.RecentMessages(conversationID, HistoryLimit)
}

// SendMessage re-validates the sender's participancy, persists the message
// and returns the stored record with the sender's display name resolved.
// Callers must reject empty bodies before calling; the cap is enforced here
// as well so the pipeline is safe on its own.
func (s *ChatService) SendMessage(conversationID, senderID uint, senderName, body string) (*models.MessageView, error) {
	if _, err := s.Authorize(conversationID, senderID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           NormalizeBody(body),
	}
	if err := s.storage.SaveMessage(msg); err != nil {
		return nil, err
	}

	return &models.MessageView{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		SenderName:     senderName,
		Body:           msg.Body,
		CreatedAt:      msg.CreatedAt,
	}, nil
}
