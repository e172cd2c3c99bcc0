package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"portfolio/app/internal/content"
	appdb "portfolio/app/internal/db"
	"portfolio/app/internal/storage"
)

func TestNewStoreRequiresDatabase(t *testing.T) {
	t.Parallel()

	if _, err := NewStore(nil, nil); err == nil {
		t.Fatalf("expected error when database is nil")
	}
}

func TestGetPostBySlugReturnsNilForMissingPost(t *testing.T) {
	t.Parallel()

	store := setupStore(t)

	post, err := store.GetPostBySlug(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetPostBySlug returned error: %v", err)
	}
	if post != nil {
		t.Fatalf("expected nil post for missing slug, got %#v", post)
	}
}

func TestCreatePostRoundTrip(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	ctx := context.Background()

	created, err := store.CreatePost(ctx, content.InsertPost{
		Slug:    "software-should-think",
		Title:   "Software should think before it speaks",
		Content: "The era of dumb input/output is over.",
		Type:    content.PostTypeThinking,
	})
	if err != nil {
		t.Fatalf("CreatePost returned error: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if created.PublishedAt.IsZero() {
		t.Fatalf("expected publishedAt to default to creation time")
	}

	stored, err := store.GetPostBySlug(ctx, "software-should-think")
	if err != nil {
		t.Fatalf("GetPostBySlug returned error: %v", err)
	}
	if stored == nil {
		t.Fatalf("expected stored post to be present")
	}
	createdJSON, _ := json.Marshal(created)
	storedJSON, _ := json.Marshal(stored)
	if string(createdJSON) != string(storedJSON) {
		t.Fatalf("expected stored post %s to equal created post %s", storedJSON, createdJSON)
	}
}

func TestCreatePostRejectsDuplicateSlug(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	ctx := context.Background()

	input := content.InsertPost{Slug: "why-kue-exists", Title: "Why Kue Exists", Type: content.PostTypeKue}
	if _, err := store.CreatePost(ctx, input); err != nil {
		t.Fatalf("CreatePost returned error: %v", err)
	}

	_, err := store.CreatePost(ctx, input)
	if !eris.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreatePostValidatesInput(t *testing.T) {
	t.Parallel()

	store := setupStore(t)

	_, err := store.CreatePost(context.Background(), content.InsertPost{Slug: "x", Title: "X", Type: "diary"})
	var verr *content.ValidationError
	if !errors.As(err, &verr) || verr.Field != "type" {
		t.Fatalf("expected type validation error, got %v", err)
	}
}

func TestListPostsFiltersByTypeNewestFirst(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	inputs := []content.InsertPost{
		{Slug: "old-thinking", Title: "Old", Type: content.PostTypeThinking, PublishedAt: timePtr(base)},
		{Slug: "new-kue", Title: "New Kue", Type: content.PostTypeKue, PublishedAt: timePtr(base.Add(48 * time.Hour))},
		{Slug: "mid-thinking", Title: "Mid", Type: content.PostTypeThinking, PublishedAt: timePtr(base.Add(24 * time.Hour))},
		{Slug: "old-kue", Title: "Old Kue", Type: content.PostTypeKue, PublishedAt: timePtr(base.Add(time.Hour))},
	}
	for _, input := range inputs {
		if _, err := store.CreatePost(ctx, input); err != nil {
			t.Fatalf("CreatePost(%s) returned error: %v", input.Slug, err)
		}
	}

	all, err := store.ListPosts(ctx, nil)
	if err != nil {
		t.Fatalf("ListPosts returned error: %v", err)
	}
	assertSlugs(t, all, []string{"new-kue", "mid-thinking", "old-kue", "old-thinking"})

	kue := content.PostTypeKue
	onlyKue, err := store.ListPosts(ctx, &kue)
	if err != nil {
		t.Fatalf("ListPosts(kue) returned error: %v", err)
	}
	assertSlugs(t, onlyKue, []string{"new-kue", "old-kue"})
	for _, post := range onlyKue {
		if post.Type != content.PostTypeKue {
			t.Fatalf("expected only kue posts, got %q", post.Type)
		}
	}
}

func TestListBeliefsAscendingByOrder(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.CreateBelief(ctx, content.InsertBelief{Content: "Y", Order: 1}); err != nil {
		t.Fatalf("CreateBelief returned error: %v", err)
	}
	if _, err := store.CreateBelief(ctx, content.InsertBelief{Content: "X", Order: 0}); err != nil {
		t.Fatalf("CreateBelief returned error: %v", err)
	}

	beliefs, err := store.ListBeliefs(ctx)
	if err != nil {
		t.Fatalf("ListBeliefs returned error: %v", err)
	}
	if len(beliefs) != 2 {
		t.Fatalf("expected 2 beliefs, got %d", len(beliefs))
	}
	if beliefs[0].Content != "X" || beliefs[1].Content != "Y" {
		t.Fatalf("expected [X Y], got [%s %s]", beliefs[0].Content, beliefs[1].Content)
	}
}

func TestListNowUpdatesNewestFirst(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	ctx := context.Background()

	current := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	for _, text := range []string{"first", "second", "third"} {
		if _, err := store.CreateNowUpdate(ctx, content.InsertNowUpdate{Content: text}); err != nil {
			t.Fatalf("CreateNowUpdate returned error: %v", err)
		}
		current = current.Add(time.Minute)
	}

	updates, err := store.ListNowUpdates(ctx)
	if err != nil {
		t.Fatalf("ListNowUpdates returned error: %v", err)
	}

	expected := []string{"third", "second", "first"}
	if len(updates) != len(expected) {
		t.Fatalf("expected %d updates, got %d", len(expected), len(updates))
	}
	for i, text := range expected {
		if updates[i].Content != text {
			t.Fatalf("expected %q at index %d, got %q", text, i, updates[i].Content)
		}
	}
}

func TestCreateMessageAssignsIDAndTimestamp(t *testing.T) {
	t.Parallel()

	store := setupStore(t)

	fixed := time.Date(2025, 2, 3, 4, 5, 6, 789123456, time.UTC)
	store.now = func() time.Time { return fixed }

	message, err := store.CreateMessage(context.Background(), content.InsertMessage{
		Name:    "Ada",
		Email:   "ada@example.com",
		Message: "Hello there",
	})
	if err != nil {
		t.Fatalf("CreateMessage returned error: %v", err)
	}
	if message.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if !message.CreatedAt.Equal(content.Timestamp(fixed)) {
		t.Fatalf("expected createdAt %v, got %v", content.Timestamp(fixed), message.CreatedAt)
	}
}

func TestPingReportsHealthyDatabase(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
}

func setupStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "store.db")
	gormDB, err := appdb.Open(appdb.Options{Path: path})
	if err != nil {
		t.Fatalf("db.Open returned error: %v", err)
	}

	t.Cleanup(func() {
		if closeErr := appdb.Close(gormDB); closeErr != nil {
			t.Fatalf("closing database failed: %v", closeErr)
		}
	})

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	if err := Migrate(context.Background(), gormDB, logger); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}

	store, err := NewStore(gormDB, logger)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}

	return store
}

func assertSlugs(t *testing.T, posts []content.Post, expected []string) {
	t.Helper()

	if len(posts) != len(expected) {
		t.Fatalf("expected %d posts, got %d", len(expected), len(posts))
	}
	for i, slug := range expected {
		if posts[i].Slug != slug {
			t.Fatalf("expected slug %q at index %d, got %q", slug, i, posts[i].Slug)
		}
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
