package service_test

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dmchat/backend/internal/apperr"
	"dmchat/backend/internal/models"
	"dmchat/backend/internal/service"
	"dmchat/backend/internal/storage"
)

func TestNormalizePair_Symmetric(t *testing.T) {
	pairs := [][2]uint{{1, 2}, {2, 1}, {7, 100}, {100, 7}, {3, 4}}
	for _, p := range pairs {
		l1, h1 := service.NormalizePair(p[0], p[1])
		l2, h2 := service.NormalizePair(p[1], p[0])
		assert.Equal(t, l1, l2)
		assert.Equal(t, h1, h2)
		assert.Less(t, l1, h1)
	}
}

func TestNormalizeBody(t *testing.T) {
	assert.Equal(t, "hi", service.NormalizeBody("  hi  "))
	assert.Equal(t, "", service.NormalizeBody("   \n\t "))

	long := strings.Repeat("x", 2000)
	assert.Equal(t, service.MaxBodyLen, len(service.NormalizeBody(long)))

	// The cap counts characters, not bytes.
	wide := strings.Repeat("あ", 1200)
	capped := service.NormalizeBody(wide)
	assert.Equal(t, service.MaxBodyLen, len([]rune(capped)))
}

func TestGetOrCreateConversation_Validation(t *testing.T) {
	storageMock := new(MockStorage)
	svc := service.NewChatService(storageMock)

	_, err := svc.GetOrCreateConversation(1, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidPartner)

	_, err = svc.GetOrCreateConversation(1, 1)
	assert.ErrorIs(t, err, apperr.ErrInvalidPartner, "no self-conversations")

	storageMock.AssertNotCalled(t, "GetConversationByPair", mock.Anything, mock.Anything)
}

func TestGetOrCreateConversation_PartnerMissing(t *testing.T) {
	storageMock := new(MockStorage)
	svc := service.NewChatService(storageMock)

	storageMock.On("GetUserByID", uint(99)).Return(nil, apperr.ErrUserNotFound)

	_, err := svc.GetOrCreateConversation(1, 99)
	assert.ErrorIs(t, err, apperr.ErrPartnerNotFound)
}

func TestGetOrCreateConversation_ReturnsExisting(t *testing.T) {
	storageMock := new(MockStorage)
	svc := service.NewChatService(storageMock)

	existing := &models.Conversation{ID: 5, User1ID: 1, User2ID: 2}
	storageMock.On("GetUserByID", uint(1)).Return(&models.User{ID: 1}, nil)
	storageMock.On("GetConversationByPair", uint(1), uint(2)).Return(existing, nil)

	// Caller id 2, partner id 1: the pair is normalized before lookup.
	conv, err := svc.GetOrCreateConversation(2, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(5), conv.ID)
	storageMock.AssertNotCalled(t, "CreateConversation", mock.Anything)
}

func TestGetOrCreateConversation_CreatesOnFirstContact(t *testing.T) {
	storageMock := new(MockStorage)
	svc := service.NewChatService(storageMock)

	storageMock.On("GetUserByID", uint(2)).Return(&models.User{ID: 2}, nil)
	storageMock.On("GetConversationByPair", uint(1), uint(2)).Return(nil, apperr.ErrConversationNotFound)
	storageMock.On("CreateConversation", mock.AnythingOfType("*models.Conversation")).
		Run(func(args mock.Arguments) {
			args.Get(0).(*models.Conversation).ID = 7
		}).
		Return(nil)

	conv, err := svc.GetOrCreateConversation(1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(7), conv.ID)
	assert.Equal(t, uint(1), conv.User1ID)
	assert.Equal(t, uint(2), conv.User2ID)
}

func TestGetOrCreateConversation_RaceLoserFetchesWinner(t *testing.T) {
	storageMock := new(MockStorage)
	svc := service.NewChatService(storageMock)

	winner := &models.Conversation{ID: 9, User1ID: 1, User2ID: 2}
	storageMock.On("GetUserByID", uint(2)).Return(&models.User{ID: 2}, nil)
	// The lookup misses, the insert loses to a concurrent identical request,
	// and the loser must come back with the winner's id, not an error.
	storageMock.On("GetConversationByPair", uint(1), uint(2)).Return(nil, apperr.ErrConversationNotFound).Once()
	storageMock.On("CreateConversation", mock.AnythingOfType("*models.Conversation")).Return(apperr.ErrConversationExists)
	storageMock.On("GetConversationByPair", uint(1), uint(2)).Return(winner, nil).Once()

	conv, err := svc.GetOrCreateConversation(1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(9), conv.ID)
}

// TestGetOrCreateConversation_Concurrent runs the real storage layer: ten
// identical requests against one database must yield exactly one row and ten
// identical ids.
func TestGetOrCreateConversation_Concurrent(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "race.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store := storage.NewService(db)
	require.NoError(t, store.Migrate())

	alice := &models.User{Username: "alice", PasswordHash: "x"}
	bob := &models.User{Username: "bob", PasswordHash: "x"}
	require.NoError(t, store.CreateUser(alice))
	require.NoError(t, store.CreateUser(bob))

	svc := service.NewChatService(store)

	const calls = 10
	ids := make(chan uint, calls)
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			my, partner := alice.ID, bob.ID
			if i%2 == 1 {
				my, partner = bob.ID, alice.ID
			}
			conv, err := svc.GetOrCreateConversation(my, partner)
			assert.NoError(t, err)
			if conv != nil {
				ids <- conv.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint]bool)
	count := 0
	for id := range ids {
		seen[id] = true
		count++
	}
	assert.Equal(t, calls, count)
	assert.Len(t, seen, 1, "all concurrent calls resolve to the same conversation")

	var rows int64
	require.NoError(t, db.Model(&models.Conversation{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows, "exactly one stored conversation row")
}

func TestRecentHistory_Authorization(t *testing.T) {
	storageMock := new(MockStorage)
	svc := service.NewChatService(storageMock)

	_, err := svc.RecentHistory(0, 1)
	assert.ErrorIs(t, err, apperr.ErrConversationIDRequired)

	storageMock.On("GetConversationByID", uint(3)).
		Return(&models.Conversation{ID: 3, User1ID: 1, User2ID: 2}, nil)

	_, err = svc.RecentHistory(3, 5)
	assert.ErrorIs(t, err, apperr.ErrNotParticipant)
	storageMock.AssertNotCalled(t, "RecentMessages", mock.Anything, mock.Anything)
}

func TestRecentHistory_Participant(t *testing.T) {
	storageMock := new(MockStorage)
	svc := service.NewChatService(storageMock)

	history := []models.MessageView{{ID: 1, ConversationID: 3, SenderID: 1, Body: "hi"}}
	storageMock.On("GetConversationByID", uint(3)).
		Return(&models.Conversation{ID: 3, User1ID: 1, User2ID: 2}, nil)
	storageMock.On("RecentMessages", uint(3), service.HistoryLimit).Return(history, nil)

	got, err := svc.RecentHistory(3, 2)
	require.NoError(t, err)
	assert.Equal(t, history, got)
}

func TestSendMessage_NonParticipantRejected(t *testing.T) {
	storageMock := new(MockStorage)
	svc := service.NewChatService(storageMock)

	storageMock.On("GetConversationByID", uint(3)).
		Return(&models.Conversation{ID: 3, User1ID: 1, User2ID: 2}, nil)

	view, err := svc.SendMessage(3, 9, "mallory", "hi")
	assert.Nil(t, view)
	assert.ErrorIs(t, err, apperr.ErrNotParticipant)

	// A rejected send stores nothing.
	storageMock.AssertNotCalled(t, "SaveMessage", mock.Anything)
}

func TestSendMessage_ConversationMissing(t *testing.T) {
	storageMock := new(MockStorage)
	svc := service.NewChatService(storageMock)

	storageMock.On("GetConversationByID", uint(8)).Return(nil, apperr.ErrConversationNotFound)

	_, err := svc.SendMessage(8, 1, "alice", "hi")
	assert.ErrorIs(t, err, apperr.ErrConversationNotFound)
}

func TestSendMessage_PersistsAndResolvesSender(t *testing.T) {
	storageMock := new(MockStorage)
	svc := service.NewChatService(storageMock)

	storageMock.On("GetConversationByID", uint(3)).
		Return(&models.Conversation{ID: 3, User1ID: 1, User2ID: 2}, nil)
	storageMock.On("SaveMessage", mock.AnythingOfType("*models.Message")).
		Run(func(args mock.Arguments) {
			args.Get(0).(*models.Message).ID = 11
		}).
		Return(nil)

	view, err := svc.SendMessage(3, 1, "alice", "  hi  ")
	require.NoError(t, err)
	assert.Equal(t, uint(11), view.ID)
	assert.Equal(t, uint(3), view.ConversationID)
	assert.Equal(t, uint(1), view.SenderID)
	assert.Equal(t, "alice", view.SenderName)
	assert.Equal(t, "hi", view.Body, "body is trimmed before persisting")
}
