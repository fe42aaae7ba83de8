package guidestore

import (
	"context"
	"fmt"
	"sync"
)

// FileStore keeps every collection in a single container document on a
// blob Backend. Each write reads the whole container, mutates it and writes
// it back. The mutex only orders callers inside this process; two processes
// sharing the file still race and the last write wins.
type FileStore struct {
	backend Backend
	key     string
	mu      sync.Mutex
}

// NewFileStore creates a flat-file document store for the container at key.
func NewFileStore(backend Backend, key string) *FileStore {
	return &FileStore{
		backend: backend,
		key:     key,
	}
}

// Init creates the container with four empty collections when it does not
// exist, and otherwise checks that the existing one parses. It never
// overwrites an existing container.
func (s *FileStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.backend.Exists(ctx, s.key)
	if err != nil {
		return fmt.Errorf("check container %s: %w", s.key, err)
	}
	if !exists {
		return s.save(ctx, NewContainer())
	}

	_, err = s.load(ctx)
	return err
}

func (s *FileStore) Kind() BackendKind {
	return KindFile
}

// load reads the container. A missing container reads as empty so a file
// removed after Init is recreated on the next write.
func (s *FileStore) load(ctx context.Context) (*Container, error) {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if IsNotFound(err) {
			return NewContainer(), nil
		}
		return nil, fmt.Errorf("read container %s: %w", s.key, err)
	}
	c, err := DecodeContainer(data)
	if err != nil {
		return nil, fmt.Errorf("parse container %s: %w", s.key, err)
	}
	return c, nil
}

func (s *FileStore) save(ctx context.Context, c *Container) error {
	data, err := EncodeContainer(c)
	if err != nil {
		return fmt.Errorf("encode container: %w", err)
	}
	if err := s.backend.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("write container %s: %w", s.key, err)
	}
	return nil
}

func (s *FileStore) view(ctx context.Context, fn func(*Container) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx)
	if err != nil {
		return err
	}
	return fn(c)
}

// update runs fn on a fresh copy of the container and persists the result
// unless fn returns an error.
func (s *FileStore) update(ctx context.Context, fn func(*Container) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	return s.save(ctx, c)
}

func (s *FileStore) InsertUser(ctx context.Context, u User) error {
	return s.update(ctx, func(c *Container) error {
		for _, existing := range c.Users {
			if existing.ID == u.ID {
				return WithContext(ErrAlreadyExists, map[string]interface{}{
					"collection": CollectionUsers,
					"id":         u.ID,
				})
			}
			if existing.Username == u.Username {
				return WithContext(ErrAlreadyExists, map[string]interface{}{
					"collection": CollectionUsers,
					"username":   u.Username,
				})
			}
		}
		c.Users = append(c.Users, u)
		return nil
	})
}

func (s *FileStore) FindUser(ctx context.Context, id string) (*User, error) {
	return s.findUser(ctx, func(u *User) bool { return u.ID == id })
}

func (s *FileStore) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.findUser(ctx, func(u *User) bool { return u.Username == username })
}

func (s *FileStore) findUser(ctx context.Context, match func(*User) bool) (*User, error) {
	var found *User
	err := s.view(ctx, func(c *Container) error {
		for i := range c.Users {
			if match(&c.Users[i]) {
				found = &c.Users[i]
				return nil
			}
		}
		return ErrNotFound
	})
	return found, err
}

func (s *FileStore) Users(ctx context.Context) ([]User, error) {
	var users []User
	err := s.view(ctx, func(c *Container) error {
		users = c.Users
		return nil
	})
	return users, err
}

func (s *FileStore) InsertTutorial(ctx context.Context, t Tutorial) error {
	return s.update(ctx, func(c *Container) error {
		if tutorialIndex(c.Tutorials, t.ID) >= 0 {
			return WithContext(ErrAlreadyExists, map[string]interface{}{
				"collection": CollectionTutorials,
				"id":         t.ID,
			})
		}
		c.Tutorials = append(c.Tutorials, t)
		return nil
	})
}

func (s *FileStore) FindTutorial(ctx context.Context, id string) (*Tutorial, error) {
	var found *Tutorial
	err := s.view(ctx, func(c *Container) error {
		i := tutorialIndex(c.Tutorials, id)
		if i < 0 {
			return ErrNotFound
		}
		found = &c.Tutorials[i]
		return nil
	})
	return found, err
}

func (s *FileStore) UpdateTutorial(ctx context.Context, id string, apply func(*Tutorial)) (*Tutorial, error) {
	var updated Tutorial
	err := s.update(ctx, func(c *Container) error {
		i := tutorialIndex(c.Tutorials, id)
		if i < 0 {
			return ErrNotFound
		}
		t := c.Tutorials[i]
		apply(&t)
		t.ID = id
		c.Tutorials[i] = t
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *FileStore) RemoveTutorial(ctx context.Context, id string) error {
	return s.update(ctx, func(c *Container) error {
		kept := c.Tutorials[:0]
		for _, t := range c.Tutorials {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		c.Tutorials = kept
		return nil
	})
}

func (s *FileStore) QueryTutorials(ctx context.Context, f TutorialFilter) ([]Tutorial, error) {
	var result []Tutorial
	err := s.view(ctx, func(c *Container) error {
		result = filterTutorials(c.Tutorials, f)
		return nil
	})
	return result, err
}

func (s *FileStore) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := s.view(ctx, func(c *Container) error {
		categories = c.Categories
		return nil
	})
	return categories, err
}

func (s *FileStore) ReplaceCategories(ctx context.Context, categories []Category) error {
	return s.update(ctx, func(c *Container) error {
		c.Categories = categories
		return nil
	})
}

func (s *FileStore) LegacyPublicCategories(ctx context.Context) ([]LegacyPublicCategory, error) {
	var legacy []LegacyPublicCategory
	err := s.view(ctx, func(c *Container) error {
		var err error
		legacy, err = c.LegacyPublicCategories()
		return err
	})
	return legacy, err
}

func (s *FileStore) AppendFeedback(ctx context.Context, f Feedback) error {
	return s.update(ctx, func(c *Container) error {
		c.Feedback = append(c.Feedback, f)
		return nil
	})
}

func (s *FileStore) Feedback(ctx context.Context) ([]Feedback, error) {
	var feedback []Feedback
	err := s.view(ctx, func(c *Container) error {
		feedback = c.Feedback
		return nil
	})
	return feedback, err
}

func (s *FileStore) Ping(ctx context.Context) error {
	_, err := s.backend.Exists(ctx, s.key)
	return err
}

func (s *FileStore) Close() error {
	return s.backend.Close()
}

func tutorialIndex(ts []Tutorial, id string) int {
	for i := range ts {
		if ts[i].ID == id {
			return i
		}
	}
	return -1
}
