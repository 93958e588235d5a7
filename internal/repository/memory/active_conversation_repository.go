package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ActiveConversationRepository remembers which persisted session each user
// chatted in last. It stores ids only; message text always comes from the
// database.
type ActiveConversationRepository struct {
	cache *cache.Cache
}

func NewActiveConversationRepository(ttl time.Duration) *ActiveConversationRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ActiveConversationRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *ActiveConversationRepository) Set(userId, sessionId uuid.UUID) {
	r.cache.Set(userId.String(), sessionId, cache.DefaultExpiration)
}

func (r *ActiveConversationRepository) Get(userId uuid.UUID) (uuid.UUID, bool) {
	if x, found := r.cache.Get(userId.String()); found {
		return x.(uuid.UUID), true
	}
	return uuid.Nil, false
}

func (r *ActiveConversationRepository) Delete(userId uuid.UUID) {
	r.cache.Delete(userId.String())
}

// ForgetSession drops the pointer only if it still targets sessionId.
func (r *ActiveConversationRepository) ForgetSession(userId, sessionId uuid.UUID) {
	if current, ok := r.Get(userId); ok && current == sessionId {
		r.Delete(userId)
	}
}
