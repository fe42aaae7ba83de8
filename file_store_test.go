package guidestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestFileStoreInitCreatesContainer(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	docs := NewFileStore(NewFilesystemBackend(dir), DefaultContainerKey)

	if err := docs.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, DefaultContainerKey))
	if err != nil {
		t.Fatalf("container not created: %v", err)
	}
	want := "{\n  \"users\": [],\n  \"tutorials\": [],\n  \"categories\": [],\n  \"feedback\": []\n}\n"
	if string(data) != want {
		t.Errorf("container =\n%s", data)
	}
}

func TestFileStoreInitNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	existing := `{"users": [{"id": "u1", "username": "admin", "role": "admin"}], "tutorials": [], "categories": [], "feedback": []}`
	if err := os.WriteFile(filepath.Join(dir, DefaultContainerKey), []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}

	docs := NewFileStore(NewFilesystemBackend(dir), DefaultContainerKey)
	if err := docs.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, DefaultContainerKey))
	if string(data) != existing {
		t.Error("Init rewrote an existing container")
	}
	u, err := docs.FindUserByUsername(ctx, "admin")
	if err != nil || u.ID != "u1" {
		t.Errorf("FindUserByUsername = %+v, %v", u, err)
	}
}

func TestFileStoreInitMalformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultContainerKey), []byte(`{"users": [`), 0644); err != nil {
		t.Fatal(err)
	}

	docs := NewFileStore(NewFilesystemBackend(dir), DefaultContainerKey)
	if err := docs.Init(context.Background()); !errors.Is(err, ErrInvalidData) {
		t.Errorf("Init error = %v, want ErrInvalidData", err)
	}
}

func TestFileStorePreservesLegacyKey(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	existing := `{
  "users": [],
  "tutorials": [],
  "categories": [],
  "feedback": [],
  "publicCategories": [{"id": "tablets", "name": "Tablets", "path": "/device/tablets"}]
}`
	if err := os.WriteFile(filepath.Join(dir, DefaultContainerKey), []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}
	docs := NewFileStore(NewFilesystemBackend(dir), DefaultContainerKey)
	if err := docs.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if err := docs.InsertTutorial(ctx, Tutorial{ID: "t1", Title: "Fix"}); err != nil {
		t.Fatalf("InsertTutorial failed: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, DefaultContainerKey))
	if !strings.Contains(string(data), `"publicCategories"`) {
		t.Errorf("legacy key lost on rewrite:\n%s", data)
	}
	legacy, err := docs.LegacyPublicCategories(ctx)
	if err != nil || len(legacy) != 1 || legacy[0].Name != "Tablets" {
		t.Errorf("LegacyPublicCategories = %+v, %v", legacy, err)
	}
}

func TestFileStoreFailedWriteLeavesContainer(t *testing.T) {
	ctx := context.Background()
	docs := newTestFileStore(t)

	if err := docs.InsertUser(ctx, User{ID: "u1", Username: "alice"}); err != nil {
		t.Fatal(err)
	}
	if err := docs.InsertUser(ctx, User{ID: "u2", Username: "alice"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("error = %v, want ErrAlreadyExists", err)
	}
	users, _ := docs.Users(ctx)
	if len(users) != 1 {
		t.Errorf("rejected insert was persisted: %+v", users)
	}
}

func TestFileStoreConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	docs := newTestFileStore(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fb := Feedback{Name: "visitor", Request: string(rune('a' + i))}
			if err := docs.AppendFeedback(ctx, fb); err != nil {
				t.Errorf("AppendFeedback failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	feedback, err := docs.Feedback(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(feedback) != n {
		t.Errorf("expected %d entries, got %d (lost update)", n, len(feedback))
	}
}

func TestFileStoreRecreatesDeletedContainer(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	docs := NewFileStore(NewFilesystemBackend(dir), DefaultContainerKey)
	if err := docs.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, DefaultContainerKey)); err != nil {
		t.Fatal(err)
	}

	tutorials, err := docs.QueryTutorials(ctx, TutorialFilter{})
	if err != nil || len(tutorials) != 0 {
		t.Errorf("QueryTutorials on missing container = %+v, %v", tutorials, err)
	}
	if err := docs.AppendFeedback(ctx, Feedback{Name: "Ann"}); err != nil {
		t.Fatalf("AppendFeedback failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, DefaultContainerKey)); err != nil {
		t.Errorf("container not recreated: %v", err)
	}
}
