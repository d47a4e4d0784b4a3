package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"timed-quiz-service/internal/domain"
)

// SessionStore keeps timed sessions in Redis so every service instance shares them.
// Layout:
//
//	timed:session:{id}                    session JSON
//	timed:session:owner:{quizID}:{userID} session id, the (user, quiz) uniqueness index
//	timed:sessions:active                 set of in-progress session ids
//
// Sessions are permanent records and carry no TTL.
type SessionStore struct {
	client     *redis.Client
	maxRetries int
}

// createScript sets the owner index, the session document and the active marker in
// one server-side step unless the owner index already exists.
var createScript = redis.NewScript(`
local existing = redis.call('GET', KEYS[1])
if existing then
  return {0, existing}
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('SET', KEYS[2], ARGV[2])
redis.call('SADD', KEYS[3], ARGV[1])
return {1, ARGV[1]}
`)

const activeSessionsKey = "timed:sessions:active"

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client, maxRetries: 16}
}

func (s *SessionStore) CreateIfAbsent(ctx context.Context, session domain.Session) (domain.Session, bool, error) {
	blob, err := json.Marshal(session)
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("marshal session: %w", err)
	}

	keys := []string{ownerKey(session.UserID, session.QuizID), sessionKey(session.ID), activeSessionsKey}
	res, err := createScript.Run(ctx, s.client, keys, session.ID, blob).Slice()
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("create session: %w", err)
	}
	if len(res) != 2 {
		return domain.Session{}, false, fmt.Errorf("create session: unexpected reply %v", res)
	}
	created, _ := res[0].(int64)
	id, _ := res[1].(string)
	if created == 1 {
		return session.Clone(), true, nil
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return domain.Session{}, false, err
	}
	return existing, false, nil
}

func (s *SessionStore) AppendAnswerAndAdvance(ctx context.Context, sessionID string, expectedIndex int, answer domain.Answer, now time.Time) (domain.Session, error) {
	key := sessionKey(sessionID)
	var updated domain.Session

	apply := func(tx *redis.Tx) error {
		session, err := readSession(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := session.Apply(expectedIndex, answer, now); err != nil {
			return err
		}
		blob, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, blob, 0)
			if session.IsCompleted {
				pipe.SRem(ctx, activeSessionsKey, sessionID)
			}
			return nil
		})
		if err == nil {
			updated = session
		}
		return err
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.client.Watch(ctx, apply, key)
		if errors.Is(err, redis.TxFailedErr) {
			// another writer touched the session; re-read and re-check the index
			continue
		}
		if err != nil {
			return domain.Session{}, err
		}
		return updated, nil
	}
	return domain.Session{}, domain.ErrStaleSubmission
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (domain.Session, error) {
	return readSession(ctx, s.client, sessionKey(sessionID))
}

func (s *SessionStore) FindByUserQuiz(ctx context.Context, userID, quizID string) (domain.Session, error) {
	id, err := s.client.Get(ctx, ownerKey(userID, quizID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("lookup session owner: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *SessionStore) ListInProgress(ctx context.Context) ([]domain.Session, error) {
	ids, err := s.client.SMembers(ctx, activeSessionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
	}
	blobs, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load active sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(blobs))
	for _, raw := range blobs {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var session domain.Session
		if err := json.Unmarshal([]byte(str), &session); err != nil {
			return nil, fmt.Errorf("unmarshal session: %w", err)
		}
		if !session.IsCompleted {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readSession(ctx context.Context, c getter, key string) (domain.Session, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}

func sessionKey(id string) string {
	return "timed:session:" + id
}

func ownerKey(userID, quizID string) string {
	return "timed:session:owner:" + quizID + ":" + userID
}
