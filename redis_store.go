package guidestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the managed document backend. Each collection is a hash of
// id → JSON document plus a list recording insertion order; tutorials also
// keep a hash of case-folded search text. Categories are one JSON document,
// so replacing them is a single atomic SET.
//
// Key layout under prefix p:
//
//	p:collections              set of registered collection names
//	p:users, p:users:order     user documents
//	p:users:by-username        username → id
//	p:tutorials, p:tutorials:order, p:tutorials:fold
//	p:categories               JSON array
//	p:publicCategories         legacy JSON array, read only
//	p:feedback                 list of JSON documents
type RedisStore struct {
	client  *redis.Client
	prefix  string
	breaker *CircuitBreaker
}

// NewRedisStore wraps a connected client. prefix namespaces every key.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{
		client:  client,
		prefix:  prefix,
		breaker: NewCircuitBreaker(DefaultBreakerFailures, DefaultBreakerReset),
	}
}

func (s *RedisStore) Kind() BackendKind {
	return KindRedis
}

func (s *RedisStore) key(parts ...string) string {
	k := s.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

// EnsureCollections registers the four collections and seeds an empty
// category document. Both steps only create what is missing.
func (s *RedisStore) EnsureCollections(ctx context.Context) error {
	return s.exec(ctx, "ensure_collections", func() error {
		members := make([]interface{}, len(Collections))
		for i, c := range Collections {
			members[i] = c
		}
		if err := s.client.SAdd(ctx, s.key("collections"), members...).Err(); err != nil {
			return err
		}
		return s.client.SetNX(ctx, s.key(CollectionCategories), "[]", 0).Err()
	})
}

// exec runs fn through the circuit breaker and tags failures with op.
func (s *RedisStore) exec(ctx context.Context, op string, fn func() error) error {
	err := s.breaker.Execute(ctx, fn)
	if err != nil && !errors.Is(err, ErrBackendUnavailable) {
		return fmt.Errorf("redis %s: %w", op, err)
	}
	return err
}

func (s *RedisStore) InsertUser(ctx context.Context, u User) error {
	doc, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	var result int
	err = s.exec(ctx, "insert_user", func() error {
		var err error
		result, err = insertUserScript.Run(ctx, s.client,
			[]string{s.key(CollectionUsers), s.key(CollectionUsers, "order"), s.key(CollectionUsers, "by-username")},
			u.ID, u.Username, doc,
		).Int()
		return err
	})
	if err != nil {
		return err
	}

	switch result {
	case -1:
		return WithContext(ErrAlreadyExists, map[string]interface{}{
			"collection": CollectionUsers,
			"id":         u.ID,
		})
	case -2:
		return WithContext(ErrAlreadyExists, map[string]interface{}{
			"collection": CollectionUsers,
			"username":   u.Username,
		})
	}
	return nil
}

func (s *RedisStore) FindUser(ctx context.Context, id string) (*User, error) {
	var u User
	if err := s.getHashDoc(ctx, "find_user", s.key(CollectionUsers), id, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *RedisStore) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	var id string
	err := s.exec(ctx, "find_user_by_username", func() error {
		var err error
		id, err = s.client.HGet(ctx, s.key(CollectionUsers, "by-username"), username).Result()
		if errors.Is(err, redis.Nil) {
			id = ""
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrNotFound
	}
	return s.FindUser(ctx, id)
}

func (s *RedisStore) Users(ctx context.Context) ([]User, error) {
	raws, err := s.runList(ctx, "list_users", listDocsScript,
		[]string{s.key(CollectionUsers, "order"), s.key(CollectionUsers)})
	if err != nil {
		return nil, err
	}
	return decodeDocs[User](raws)
}

func (s *RedisStore) InsertTutorial(ctx context.Context, t Tutorial) error {
	doc, fold, err := encodeTutorial(&t)
	if err != nil {
		return err
	}

	var result int
	err = s.exec(ctx, "insert_tutorial", func() error {
		var err error
		result, err = insertDocScript.Run(ctx, s.client, s.tutorialKeys(), t.ID, doc, fold).Int()
		return err
	})
	if err != nil {
		return err
	}
	if result == 0 {
		return WithContext(ErrAlreadyExists, map[string]interface{}{
			"collection": CollectionTutorials,
			"id":         t.ID,
		})
	}
	return nil
}

func (s *RedisStore) FindTutorial(ctx context.Context, id string) (*Tutorial, error) {
	var t Tutorial
	if err := s.getHashDoc(ctx, "find_tutorial", s.key(CollectionTutorials), id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *RedisStore) UpdateTutorial(ctx context.Context, id string, apply func(*Tutorial)) (*Tutorial, error) {
	t, err := s.FindTutorial(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(t)
	t.ID = id

	doc, fold, err := encodeTutorial(t)
	if err != nil {
		return nil, err
	}

	var result int
	err = s.exec(ctx, "update_tutorial", func() error {
		var err error
		result, err = replaceDocScript.Run(ctx, s.client,
			[]string{s.key(CollectionTutorials), s.key(CollectionTutorials, "fold")},
			id, doc, fold,
		).Int()
		return err
	})
	if err != nil {
		return nil, err
	}
	if result == 0 {
		// Deleted between the read and the write.
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *RedisStore) RemoveTutorial(ctx context.Context, id string) error {
	return s.exec(ctx, "remove_tutorial", func() error {
		return removeDocScript.Run(ctx, s.client, s.tutorialKeys(), id).Err()
	})
}

func (s *RedisStore) QueryTutorials(ctx context.Context, f TutorialFilter) ([]Tutorial, error) {
	raws, err := s.runList(ctx, "query_tutorials", queryTutorialsScript,
		[]string{s.key(CollectionTutorials, "order"), s.key(CollectionTutorials), s.key(CollectionTutorials, "fold")},
		f.Category, f.Model, f.Search,
	)
	if err != nil {
		return nil, err
	}
	return decodeDocs[Tutorial](raws)
}

func (s *RedisStore) Categories(ctx context.Context) ([]Category, error) {
	categories := []Category{}
	if err := s.getDoc(ctx, "get_categories", s.key(CollectionCategories), &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *RedisStore) ReplaceCategories(ctx context.Context, categories []Category) error {
	doc, err := json.Marshal(nonNil(categories))
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}
	return s.exec(ctx, "set_categories", func() error {
		return s.client.Set(ctx, s.key(CollectionCategories), doc, 0).Err()
	})
}

func (s *RedisStore) LegacyPublicCategories(ctx context.Context) ([]LegacyPublicCategory, error) {
	legacy := []LegacyPublicCategory{}
	if err := s.getDoc(ctx, "get_legacy_categories", s.key(LegacyPublicCategoriesKey), &legacy); err != nil {
		return nil, err
	}
	return legacy, nil
}

func (s *RedisStore) AppendFeedback(ctx context.Context, f Feedback) error {
	doc, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}
	return s.exec(ctx, "append_feedback", func() error {
		return s.client.RPush(ctx, s.key(CollectionFeedback), doc).Err()
	})
}

func (s *RedisStore) Feedback(ctx context.Context) ([]Feedback, error) {
	var raws []string
	err := s.exec(ctx, "list_feedback", func() error {
		var err error
		raws, err = s.client.LRange(ctx, s.key(CollectionFeedback), 0, -1).Result()
		return err
	})
	if err != nil {
		return nil, err
	}
	return decodeDocs[Feedback](raws)
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) tutorialKeys() []string {
	return []string{
		s.key(CollectionTutorials),
		s.key(CollectionTutorials, "order"),
		s.key(CollectionTutorials, "fold"),
	}
}

// getHashDoc decodes one field of a hash, mapping a missing field to ErrNotFound.
func (s *RedisStore) getHashDoc(ctx context.Context, op, key, field string, dest interface{}) error {
	var raw []byte
	err := s.exec(ctx, op, func() error {
		var err error
		raw, err = s.client.HGet(ctx, key, field).Bytes()
		if errors.Is(err, redis.Nil) {
			raw = nil
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrNotFound
	}
	return decodeDoc(raw, dest)
}

// getDoc decodes a string key, leaving dest untouched when the key is missing.
func (s *RedisStore) getDoc(ctx context.Context, op, key string, dest interface{}) error {
	var raw []byte
	err := s.exec(ctx, op, func() error {
		var err error
		raw, err = s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			raw = nil
			return nil
		}
		return err
	})
	if err != nil || raw == nil {
		return err
	}
	return decodeDoc(raw, dest)
}

func (s *RedisStore) runList(ctx context.Context, op string, script *redis.Script, keys []string, args ...interface{}) ([]string, error) {
	var raws []string
	err := s.exec(ctx, op, func() error {
		var err error
		raws, err = script.Run(ctx, s.client, keys, args...).StringSlice()
		if errors.Is(err, redis.Nil) {
			raws = nil
			return nil
		}
		return err
	})
	return raws, err
}

// encodeTutorial returns the stored document and its search fold entry.
func encodeTutorial(t *Tutorial) (doc, fold []byte, err error) {
	doc, err = json.Marshal(t)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal tutorial: %w", err)
	}
	title, summary := searchFold(t)
	fold, err = json.Marshal(map[string]string{"t": title, "s": summary})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal search fold: %w", err)
	}
	return doc, fold, nil
}

func decodeDoc(raw []byte, dest interface{}) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return WithContext(ErrInvalidData, map[string]interface{}{
			"error": err.Error(),
		})
	}
	return nil
}

func decodeDocs[T any](raws []string) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := decodeDoc([]byte(raw), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
