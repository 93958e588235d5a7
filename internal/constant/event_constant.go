package constant

// Activity events published on the internal bus (and NATS when configured).
const (
	ActivityTopic = "bitbraniac.activity"

	EventUserRegistered    = "user.registered"
	EventUserLoggedIn      = "user.logged_in"
	EventUserDeleted       = "user.deleted"
	EventChatTurnCompleted = "chat.turn_completed"
	EventSessionDeleted    = "session.deleted"
	EventSessionsCleared   = "session.cleared"
)
