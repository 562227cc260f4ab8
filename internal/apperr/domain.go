package apperr

var (
	// Credential store
	ErrUsernameTaken      = AlreadyExists("username is already taken")
	ErrUsernameTooShort   = InvalidArg("username must be at least 3 characters")
	ErrPasswordTooShort   = InvalidArg("password must be at least 8 characters")
	ErrInvalidCredentials = Unauthorized("invalid username or password")

	// Session tokens
	ErrNotLoggedIn  = Unauthorized("not logged in")
	ErrTokenExpired = Unauthorized("token expired")
	ErrInvalidToken = Unauthorized("invalid token")

	// Conversations and messages
	ErrUserNotFound           = NotFound("user not found")
	ErrInvalidPartner         = InvalidArg("invalid partner id")
	ErrPartnerNotFound        = NotFound("partner does not exist")
	ErrConversationExists     = AlreadyExists("conversation already exists")
	ErrConversationNotFound   = NotFound("conversation does not exist")
	ErrNotParticipant         = Forbidden("not a participant of this conversation")
	ErrConversationIDRequired = InvalidArg("conversationId is required")
)
