package cache

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/quizdeck/quiz-service/internal/utils"
	"github.com/redis/go-redis/v9"
)

// ResponseTTL is how long a cached per-question response lives: 48 hours
// from write time. Expiry is passive; Redis drops the key on its own.
const ResponseTTL = 172800 * time.Second

// QuizResponse is the cached record of one answered question. Its lifecycle
// is independent of the durable QuizAttempt: losing a cache entry never
// invalidates the attempt.
type QuizResponse struct {
	UserID     uuid.UUID   `json:"user_id"`
	CompanyID  uuid.UUID   `json:"company_id"`
	QuizID     uuid.UUID   `json:"quiz_id"`
	QuestionID uuid.UUID   `json:"question_id"`
	AnswerIDs  []uuid.UUID `json:"answer_ids"`
	IsCorrect  bool        `json:"is_correct"`
	AnsweredAt time.Time   `json:"answered_at"`
}

// ResponseStore is the ephemeral per-question response cache.
type ResponseStore interface {
	// StoreResponse writes one entry with the fixed TTL. Each write is an
	// independent transaction; there is no cross-question atomicity.
	StoreResponse(ctx context.Context, response *QuizResponse) error

	// GetQuizResponses returns every live entry for the (user, quiz) pair
	// sorted by answered-at ascending. Expired entries are simply absent;
	// an empty result is not an error.
	GetQuizResponses(ctx context.Context, userID, quizID uuid.UUID) ([]*QuizResponse, error)

	// DeleteQuizResponses drops all entries for the pair and returns how
	// many keys were removed.
	DeleteQuizResponses(ctx context.Context, userID, quizID uuid.UUID) (int64, error)
}

type redisResponseStore struct {
	client *redis.Client
	logger utils.Logger
	ttl    time.Duration
}

func NewResponseStore(client *redis.Client, logger utils.Logger) ResponseStore {
	return &redisResponseStore{
		client: client,
		logger: logger,
		ttl:    ResponseTTL,
	}
}

func (s *redisResponseStore) StoreResponse(ctx context.Context, response *QuizResponse) error {
	key := ResponseKey(response.UserID, response.QuizID, response.QuestionID)

	data, err := json.Marshal(response)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return err
	}

	s.logger.Debug("Stored quiz response", "key", key)
	return nil
}

func (s *redisResponseStore) GetQuizResponses(ctx context.Context, userID, quizID uuid.UUID) ([]*QuizResponse, error) {
	pattern := ResponsePattern(userID, quizID)

	keys, err := s.scanKeys(ctx, pattern)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*QuizResponse{}, nil
	}

	responses := make([]*QuizResponse, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			// A key can expire between SCAN and GET.
			if err == redis.Nil {
				continue
			}
			return nil, err
		}

		var response QuizResponse
		if err := json.Unmarshal(data, &response); err != nil {
			s.logger.Warn("Skipping unreadable cached response", "key", key, "error", err)
			continue
		}
		responses = append(responses, &response)
	}

	sort.Slice(responses, func(i, j int) bool {
		return responses[i].AnsweredAt.Before(responses[j].AnsweredAt)
	})

	return responses, nil
}

func (s *redisResponseStore) DeleteQuizResponses(ctx context.Context, userID, quizID uuid.UUID) (int64, error) {
	keys, err := s.scanKeys(ctx, ResponsePattern(userID, quizID))
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return s.client.Del(ctx, keys...).Result()
}

func (s *redisResponseStore) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}
