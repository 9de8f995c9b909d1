package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mentorhub_backend/internal/logger"
)

// redisStore keeps presence records in Redis so that multiple server
// instances share one view. Online records carry a TTL: if a process dies
// without a clean disconnect, the key ages out instead of pinning the user
// online forever.
type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string) Store {
	return &redisStore{
		client: client,
		prefix: prefix,
		ttl:    5 * time.Minute,
	}
}

func (s *redisStore) key(userID string) string {
	return fmt.Sprintf("%s:presence:%s", s.prefix, userID)
}

func (s *redisStore) SetOnline(userID string) Record {
	rec := Record{UserID: userID, Status: StatusOnline, LastSeen: time.Now()}
	s.write(rec, s.ttl)
	return rec
}

func (s *redisStore) SetOffline(userID string, lastSeen time.Time) Record {
	rec := Record{UserID: userID, Status: StatusOffline, LastSeen: lastSeen}
	s.write(rec, 0)
	return rec
}

func (s *redisStore) write(rec Record, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	payload, _ := json.Marshal(rec)
	if err := s.client.Set(ctx, s.key(rec.UserID), payload, ttl).Err(); err != nil {
		logger.Error("presence: redis write failed", "user_id", rec.UserID, "error", err)
	}
}

func (s *redisStore) Get(userID string) (Record, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		return Record{UserID: userID, Status: StatusOffline}, false
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{UserID: userID, Status: StatusOffline}, false
	}
	return rec, true
}
