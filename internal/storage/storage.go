package storage

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"dmchat/backend/internal/apperr"
	"dmchat/backend/internal/models"
)

// Storage is the persistence boundary of the system. The relational store
// behind it is the single source of truth; everything the router keeps in
// memory is rebuilt from here.
type Storage interface {
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	ListUsersExcept(id uint) ([]models.PublicUser, error)

	CreateConversation(conv *models.Conversation) error
	GetConversationByID(id uint) (*models.Conversation, error)
	GetConversationByPair(user1, user2 uint) (*models.Conversation, error)

	SaveMessage(msg *models.Message) error
	RecentMessages(conversationID uint, limit int) ([]models.MessageView, error)
}

// Service implements Storage over gorm. The *gorm.DB must be opened with
// TranslateError enabled so unique-index violations surface as
// gorm.ErrDuplicatedKey on every supported driver.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Migrate creates or updates the schema for all persisted entities.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Message{},
	)
}

// CreateUser inserts a new user. The insert races directly to the unique
// index on username; there is no pre-check, so two concurrent registrations
// cannot both win.
func (s *Service) CreateUser(user *models.User) error {
	if err := s.DB.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.ErrUsernameTaken
		}
		log.Printf("ERROR: failed to create user %q: %v", user.Username, err)
		return apperr.Wrap(apperr.CodeInternal, "failed to create user", err)
	}
	return nil
}

func (s *Service) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		log.Printf("ERROR: failed to look up user %q: %v", username, err)
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to look up user", err)
	}
	return &user, nil
}

func (s *Service) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		log.Printf("ERROR: failed to look up user %d: %v", id, err)
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to look up user", err)
	}
	return &user, nil
}

// ListUsersExcept returns all users but the given one, ordered by username.
func (s *Service) ListUsersExcept(id uint) ([]models.PublicUser, error) {
	var users []models.PublicUser
	err := s.DB.Model(&models.User{}).
		Where("id <> ?", id).
		Order("username ASC").
		Find(&users).Error
	if err != nil {
		log.Printf("ERROR: failed to list users: %v", err)
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to list users", err)
	}
	return users, nil
}

// CreateConversation inserts a canonical pair. A duplicate-insert loser gets
// ErrConversationExists so the caller can fall back to fetching the winner.
func (s *Service) CreateConversation(conv *models.Conversation) error {
	if err := s.DB.Create(conv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.ErrConversationExists
		}
		log.Printf("ERROR: failed to create conversation (%d,%d): %v", conv.User1ID, conv.User2ID, err)
		return apperr.Wrap(apperr.CodeInternal, "failed to create conversation", err)
	}
	return nil
}

func (s *Service) GetConversationByID(id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.DB.First(&conv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrConversationNotFound
		}
		log.Printf("ERROR: failed to get conversation %d: %v", id, err)
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to get conversation", err)
	}
	return &conv, nil
}

// GetConversationByPair looks up by canonical order; callers must pass
// user1 < user2.
func (s *Service) GetConversationByPair(user1, user2 uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.DB.Where("user1_id = ? AND user2_id = ?", user1, user2).First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrConversationNotFound
		}
		log.Printf("ERROR: failed to get conversation (%d,%d): %v", user1, user2, err)
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to get conversation", err)
	}
	return &conv, nil
}

// SaveMessage appends one message. The id and server timestamp are assigned
// here; append order is the ordering authority for broadcast.
func (s *Service) SaveMessage(msg *models.Message) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: failed to save message for conversation %d: %v", msg.ConversationID, err)
		return apperr.Wrap(apperr.CodeInternal, "failed to save message", err)
	}
	return nil
}

// RecentMessages returns the newest `limit` messages of a conversation in
// ascending chronological order. The query fetches newest-first for the
// bound and the result is reversed before returning.
func (s *Service) RecentMessages(conversationID uint, limit int) ([]models.MessageView, error) {
	var views []models.MessageView
	err := s.DB.Table("messages").
		Select("messages.id, messages.conversation_id, messages.sender_id, users.username AS sender_name, messages.body, messages.created_at").
		Joins("JOIN users ON users.id = messages.sender_id").
		Where("messages.conversation_id = ?", conversationID).
		Order("messages.created_at DESC, messages.id DESC").
		Limit(limit).
		Scan(&views).Error
	if err != nil {
		log.Printf("ERROR: failed to get history for conversation %d: %v", conversationID, err)
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to get history", err)
	}

	for i, j := 0, len(views)-1; i < j; i, j = i+1, j-1 {
		views[i], views[j] = views[j], views[i]
	}
	return views, nil
}
