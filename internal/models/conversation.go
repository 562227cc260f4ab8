package models

// Conversation is a durable two-party DM thread. Participants are stored in
// canonical order (User1ID < User2ID) so the composite unique index admits at
// most one row per unordered pair.
type Conversation struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	User1ID uint `gorm:"uniqueIndex:idx_conversation_pair;not null" json:"user1_id"`
	User2ID uint `gorm:"uniqueIndex:idx_conversation_pair;not null" json:"user2_id"`
}

// HasParticipant reports whether the given user is one of the two parties.
func (c *Conversation) HasParticipant(userID uint) bool {
	return userID == c.User1ID || userID == c.User2ID
}
