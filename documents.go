package guidestore

import "context"

// BackendKind names the document store chosen at startup.
type BackendKind string

const (
	KindFile  BackendKind = "file"
	KindRedis BackendKind = "redis"
)

// Collection names shared by both document stores.
const (
	CollectionUsers      = "users"
	CollectionTutorials  = "tutorials"
	CollectionCategories = "categories"
	CollectionFeedback   = "feedback"

	// LegacyPublicCategoriesKey holds the pre-hierarchy category list.
	// It is read by the migration and never written.
	LegacyPublicCategoriesKey = "publicCategories"
)

// Collections lists the four logical collections every backend provides.
var Collections = []string{
	CollectionUsers,
	CollectionTutorials,
	CollectionCategories,
	CollectionFeedback,
}

// DocumentStore is the storage contract behind Store. FileStore and
// RedisStore implement it with the same observable behavior: lookups
// return ErrNotFound on a miss, inserts return ErrAlreadyExists on a
// duplicate id (or username), lists keep insertion order.
type DocumentStore interface {
	Kind() BackendKind

	InsertUser(ctx context.Context, u User) error
	FindUser(ctx context.Context, id string) (*User, error)
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	Users(ctx context.Context) ([]User, error)

	InsertTutorial(ctx context.Context, t Tutorial) error
	FindTutorial(ctx context.Context, id string) (*Tutorial, error)
	// UpdateTutorial loads the tutorial, lets apply mutate it and stores
	// the result. The id is restored after apply runs.
	UpdateTutorial(ctx context.Context, id string, apply func(*Tutorial)) (*Tutorial, error)
	// RemoveTutorial is a no-op for unknown ids.
	RemoveTutorial(ctx context.Context, id string) error
	// QueryTutorials expects a normalized filter.
	QueryTutorials(ctx context.Context, f TutorialFilter) ([]Tutorial, error)

	Categories(ctx context.Context) ([]Category, error)
	ReplaceCategories(ctx context.Context, categories []Category) error
	LegacyPublicCategories(ctx context.Context) ([]LegacyPublicCategory, error)

	AppendFeedback(ctx context.Context, f Feedback) error
	Feedback(ctx context.Context) ([]Feedback, error)

	Ping(ctx context.Context) error
	Close() error
}
