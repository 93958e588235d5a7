package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type BySessionIDs struct {
	SessionIDs []uuid.UUID
}

func (s BySessionIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id IN ?", s.SessionIDs)
}

// OwnedSession resolves a session id only when it belongs to the user and
// has not been soft-deleted.
func OwnedSession(sessionId, userId uuid.UUID) []Specification {
	return []Specification{
		ByID{ID: sessionId},
		UserOwnedBy{UserID: userId},
		ActiveOnly(),
	}
}
