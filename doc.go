// Package guidestore is the persistence layer of a repair-guide site:
// tutorials, the device catalog (category, brand, model, part), users and
// visitor feedback.
//
// # Backends
//
// The same Store API runs over one of two document stores, chosen once by
// Open:
//
//   - RedisStore keeps each collection in Redis hashes and lists. Filtering
//     and search run server-side in a fixed Lua script that takes the filter
//     values as arguments.
//   - FileStore keeps every collection in one JSON container document on a
//     blob Backend (local disk, a bbolt file, S3, MinIO or GCS) and filters
//     in memory.
//
// When Redis is configured but cannot be reached, Open logs a warning and
// uses the flat-file store instead.
//
// # Quick Start
//
//	cfg := guidestore.ConfigFromEnv()
//	store, err := guidestore.Open(ctx, cfg, guidestore.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	tutorials, err := store.ListTutorials(ctx, guidestore.TutorialFilter{
//		Category: "Phones",
//		Search:   "screen",
//	})
//
// Lookups report a miss with found == false rather than an error:
//
//	t, found, err := store.GetTutorial(ctx, id)
//
// # Categories
//
// Categories are read and written as a whole list. Use the catalog helpers
// (AddBrand, AddModel, AddPart, ...) through Store.EditCategories for
// tree edits. Older data may still carry a flat "publicCategories" list;
// MigratePublicCategoriesToCategories folds it into the category list once
// and is safe to run again.
package guidestore
