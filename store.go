package guidestore

import (
	"context"
	"errors"
	"sort"
	"time"
)

// Store is the record store every caller goes through. It owns id
// generation, defaults and timestamps, and delegates persistence to the
// DocumentStore chosen at startup.
type Store struct {
	docs    DocumentStore
	logger  Logger
	metrics Metrics
	now     func() time.Time
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to NoOpLogger.
func WithLogger(logger Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector. Defaults to NoOpMetrics.
func WithMetrics(metrics Metrics) Option {
	return func(s *Store) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithClock overrides time.Now for createdAt/updatedAt/timestamp stamping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides NewID.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewStore wraps an initialized document store.
func NewStore(docs DocumentStore, opts ...Option) *Store {
	s := &Store{
		docs:    docs,
		logger:  &NoOpLogger{},
		metrics: &NoOpMetrics{},
		now:     time.Now,
		newID:   NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind reports which backend was selected.
func (s *Store) Kind() BackendKind {
	return s.docs.Kind()
}

// Ping checks the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.observe("ping", s.docs.Ping(ctx))
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.docs.Close()
}

// track starts timing op; call the returned func with the outcome.
func (s *Store) track(op string) func(error) error {
	start := time.Now()
	tags := []string{"operation", op, "backend", string(s.docs.Kind())}
	return func(err error) error {
		s.metrics.Timing(MetricStoreDuration, time.Since(start), tags...)
		s.metrics.Increment(MetricStoreOps, tags...)
		return s.observe(op, err)
	}
}

// observe logs and counts a failed operation. Misses are not failures.
func (s *Store) observe(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	s.metrics.Increment(MetricStoreErrors, "operation", op, "backend", string(s.docs.Kind()))
	s.logger.Error("store operation failed",
		"operation", op,
		"backend", s.docs.Kind(),
		"error", err,
	)
	return err
}

// found turns ErrNotFound into found == false.
func found[T any](v *T, err error) (*T, bool, error) {
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// CreateUser stores a new user. An empty id is generated and an empty role
// defaults to RoleCreator.
func (s *Store) CreateUser(ctx context.Context, u User) (*User, error) {
	done := s.track("create_user")

	if u.Username == "" {
		return nil, done(WithContext(ErrInvalidData, map[string]interface{}{
			"field": "username",
		}))
	}
	if u.Role == "" {
		u.Role = RoleCreator
	}
	if !u.Role.Valid() {
		return nil, done(WithContext(ErrInvalidData, map[string]interface{}{
			"field": "role",
			"role":  u.Role,
		}))
	}
	if u.ID == "" {
		u.ID = s.newID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}

	if err := done(s.docs.InsertUser(ctx, u)); err != nil {
		return nil, err
	}
	s.logger.Info("user created", "id", u.ID, "username", u.Username, "role", u.Role)
	return &u, nil
}

// GetUserByID returns the user with the given id; found is false when
// there is none.
func (s *Store) GetUserByID(ctx context.Context, id string) (*User, bool, error) {
	done := s.track("get_user")
	if id == "" {
		return nil, false, done(WithContext(ErrInvalidData, map[string]interface{}{
			"field": "id",
		}))
	}
	u, err := s.docs.FindUser(ctx, id)
	return found(u, done(err))
}

// GetUserByUsername returns the user with exactly this username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, bool, error) {
	done := s.track("get_user_by_username")
	u, err := s.docs.FindUserByUsername(ctx, username)
	return found(u, done(err))
}

// ListUsers returns all users in creation order.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	done := s.track("list_users")
	users, err := s.docs.Users(ctx)
	return users, done(err)
}

// ListTutorials returns the tutorials matching f in creation order. The
// zero filter returns everything.
func (s *Store) ListTutorials(ctx context.Context, f TutorialFilter) ([]Tutorial, error) {
	done := s.track("list_tutorials")
	tutorials, err := s.docs.QueryTutorials(ctx, f.Normalize())
	if err = done(err); err != nil {
		return nil, err
	}
	s.metrics.Histogram(MetricQueryResults, float64(len(tutorials)), "backend", string(s.docs.Kind()))
	return tutorials, nil
}

// GetTutorial returns the tutorial with the given id.
func (s *Store) GetTutorial(ctx context.Context, id string) (*Tutorial, bool, error) {
	done := s.track("get_tutorial")
	t, err := s.docs.FindTutorial(ctx, id)
	return found(t, done(err))
}

// CreateTutorial stores t, generating an id when it has none.
func (s *Store) CreateTutorial(ctx context.Context, t Tutorial) (*Tutorial, error) {
	done := s.track("create_tutorial")
	if t.ID == "" {
		t.ID = s.newID()
	}
	if err := done(s.docs.InsertTutorial(ctx, t)); err != nil {
		return nil, err
	}
	s.logger.Debug("tutorial created", "id", t.ID, "category", t.Category)
	return &t, nil
}

// UpdateTutorial merges patch into the stored tutorial and returns the
// result. found is false for unknown ids.
func (s *Store) UpdateTutorial(ctx context.Context, id string, patch TutorialPatch) (*Tutorial, bool, error) {
	done := s.track("update_tutorial")
	t, err := s.docs.UpdateTutorial(ctx, id, patch.Apply)
	return found(t, done(err))
}

// DeleteTutorial removes a tutorial. Unknown ids are ignored.
func (s *Store) DeleteTutorial(ctx context.Context, id string) error {
	done := s.track("delete_tutorial")
	return done(s.docs.RemoveTutorial(ctx, id))
}

// GetCategories returns the full category tree, including hidden categories.
func (s *Store) GetCategories(ctx context.Context) ([]Category, error) {
	done := s.track("get_categories")
	categories, err := s.docs.Categories(ctx)
	return categories, done(err)
}

// SetCategories replaces the whole category collection.
func (s *Store) SetCategories(ctx context.Context, categories []Category) ([]Category, error) {
	done := s.track("set_categories")
	categories = nonNil(categories)
	if err := done(s.docs.ReplaceCategories(ctx, categories)); err != nil {
		return nil, err
	}
	return categories, nil
}

// EditCategories reads the category tree, applies fn (typically one of the
// catalog helpers) and writes the result back. Concurrent editors are not
// detected; the last write wins.
func (s *Store) EditCategories(ctx context.Context, fn func(categories []Category, now time.Time) ([]Category, error)) ([]Category, error) {
	categories, err := s.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	edited, err := fn(categories, s.now().UTC())
	if err != nil {
		return nil, err
	}
	return s.SetCategories(ctx, edited)
}

// GetPublicCategories returns the categories not marked private, ordered
// by displayOrder and then name. Only the unified collection is consulted.
func (s *Store) GetPublicCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	return publicCategories(categories), nil
}

func publicCategories(categories []Category) []Category {
	public := make([]Category, 0, len(categories))
	for _, c := range categories {
		if c.Public() {
			public = append(public, c)
		}
	}
	sort.SliceStable(public, func(i, j int) bool {
		if public[i].DisplayOrder != public[j].DisplayOrder {
			return public[i].DisplayOrder < public[j].DisplayOrder
		}
		return public[i].Name < public[j].Name
	})
	return public
}

// LegacyPublicCategories returns the pre-hierarchy list, if the backend has one.
func (s *Store) LegacyPublicCategories(ctx context.Context) ([]LegacyPublicCategory, error) {
	done := s.track("get_legacy_categories")
	legacy, err := s.docs.LegacyPublicCategories(ctx)
	return legacy, done(err)
}

// MigratePublicCategoriesToCategories folds the legacy public-category list
// into the unified collection. Existing categories always win; running it
// again changes nothing. The legacy list is left in place.
func (s *Store) MigratePublicCategoriesToCategories(ctx context.Context) (MigrationReport, error) {
	legacy, err := s.LegacyPublicCategories(ctx)
	if err != nil {
		return MigrationReport{}, err
	}
	categories, err := s.GetCategories(ctx)
	if err != nil {
		return MigrationReport{}, err
	}

	merged, report := mergeLegacyCategories(categories, legacy, s.now().UTC())
	for range report.Added {
		s.metrics.Increment(MetricMigrationAdded)
	}
	for range report.Skipped {
		s.metrics.Increment(MetricMigrationSkipped)
	}

	if !report.Changed() {
		s.logger.Info("category migration: nothing to do",
			"legacy", report.Legacy,
			"skipped", len(report.Skipped),
		)
		return report, nil
	}

	if _, err := s.SetCategories(ctx, merged); err != nil {
		return MigrationReport{}, err
	}
	s.logger.Info("category migration complete",
		"legacy", report.Legacy,
		"added", len(report.Added),
		"skipped", len(report.Skipped),
	)
	return report, nil
}

// CreateFeedback appends a feedback entry, stamping the time if unset.
func (s *Store) CreateFeedback(ctx context.Context, f Feedback) (*Feedback, error) {
	done := s.track("create_feedback")
	if f.Timestamp.IsZero() {
		f.Timestamp = s.now().UTC()
	}
	if err := done(s.docs.AppendFeedback(ctx, f)); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFeedback returns all feedback in the order it was received.
func (s *Store) ListFeedback(ctx context.Context) ([]Feedback, error) {
	done := s.track("list_feedback")
	feedback, err := s.docs.Feedback(ctx)
	return feedback, done(err)
}
