package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"dominicanews/internal/apperr"
	"dominicanews/internal/models"
)

func newTestArticle(user *models.User, cat *models.Category, title string, status models.ArticleStatus, published *time.Time) *models.Article {
	return &models.Article{
		Title:       title,
		Slug:        "store-test-" + uuid.NewString()[:8],
		Content:     "Body text for " + title,
		CategoryID:  cat.ID,
		AuthorID:    user.ID,
		Status:      status,
		PublishedAt: published,
	}
}

func TestArticleStoreCreateAndFind(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	cat := testCategory(t, db)
	s := NewArticleStore(db)
	ctx := context.Background()

	excerpt := "Short summary"
	in := newTestArticle(user, cat, "Harbour works begin", models.StatusDraft, nil)
	in.Excerpt = &excerpt

	created, err := s.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == uuid.Nil || created.Content != in.Content {
		t.Errorf("unexpected article: %+v", created)
	}
	if created.Category == nil || created.Category.Slug != cat.Slug {
		t.Errorf("category summary missing: %+v", created.Category)
	}
	if created.Author == nil || created.Author.FullName != user.FullName {
		t.Errorf("author summary missing: %+v", created.Author)
	}

	// Drafts are hidden from the public slug lookup.
	got, err := s.FindPublishedBySlug(ctx, created.Slug)
	if err != nil || got != nil {
		t.Errorf("FindPublishedBySlug draft: got %v, %v", got, err)
	}

	missing, err := s.FindByID(ctx, uuid.New())
	if err != nil || missing != nil {
		t.Errorf("FindByID unknown: got %v, %v", missing, err)
	}
}

func TestArticleStoreUpdate(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	cat := testCategory(t, db)
	s := NewArticleStore(db)
	ctx := context.Background()

	a, err := s.Create(ctx, newTestArticle(user, cat, "Cabinet reshuffle", models.StatusDraft, nil))
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	a.Title = "Cabinet reshuffle confirmed"
	a.Status = models.StatusPublished
	a.PublishedAt = &now

	updated, err := s.Update(ctx, a)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Cabinet reshuffle confirmed" || !updated.IsPublished() {
		t.Errorf("update not applied: %+v", updated)
	}
	if updated.PublishedAt == nil || !updated.PublishedAt.Equal(now) {
		t.Errorf("publishedAt: got %v, want %v", updated.PublishedAt, now)
	}

	public, err := s.FindPublishedBySlug(ctx, a.Slug)
	if err != nil || public == nil || public.ID != a.ID {
		t.Errorf("FindPublishedBySlug: got %v, %v", public, err)
	}

	a.ID = uuid.New()
	gone, err := s.Update(ctx, a)
	if err != nil || gone != nil {
		t.Errorf("Update unknown: got %v, %v", gone, err)
	}
}

func TestArticleStoreDuplicateSlug(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	cat := testCategory(t, db)
	s := NewArticleStore(db)
	ctx := context.Background()

	first, err := s.Create(ctx, newTestArticle(user, cat, "First", models.StatusDraft, nil))
	if err != nil {
		t.Fatal(err)
	}

	dup := newTestArticle(user, cat, "Second", models.StatusDraft, nil)
	dup.Slug = first.Slug
	if _, err := s.Create(ctx, dup); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("expected conflict, got %v", err)
	}

	exists, err := s.SlugExists(ctx, first.Slug, nil)
	if err != nil || !exists {
		t.Errorf("SlugExists: got %v, %v", exists, err)
	}
	exists, err = s.SlugExists(ctx, first.Slug, &first.ID)
	if err != nil || exists {
		t.Errorf("SlugExists excluding self: got %v, %v", exists, err)
	}
}

func TestArticleStoreList(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	cat := testCategory(t, db)
	s := NewArticleStore(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	var published []*models.Article
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		a, err := s.Create(ctx, newTestArticle(user, cat, "Published story", models.StatusPublished, &at))
		if err != nil {
			t.Fatal(err)
		}
		published = append(published, a)
	}
	if _, err := s.Create(ctx, newTestArticle(user, cat, "Draft story", models.StatusDraft, nil)); err != nil {
		t.Fatal(err)
	}

	t.Run("published in category newest first", func(t *testing.T) {
		items, total, err := s.List(ctx, models.ArticleFilter{
			Status:         models.StatusPublished,
			CategoryID:     &cat.ID,
			PublishedOrder: true,
		}, 10, 0)
		if err != nil {
			t.Fatal(err)
		}
		if total != 3 || len(items) != 3 {
			t.Fatalf("got %d items, total %d", len(items), total)
		}
		if items[0].ID != published[2].ID || items[2].ID != published[0].ID {
			t.Error("not sorted by publication date descending")
		}
		if items[0].Content != "" {
			t.Error("list view should leave out content")
		}
	})

	t.Run("all statuses", func(t *testing.T) {
		_, total, err := s.List(ctx, models.ArticleFilter{CategoryID: &cat.ID}, 10, 0)
		if err != nil || total != 4 {
			t.Errorf("got total %d, %v", total, err)
		}
	})

	t.Run("paging", func(t *testing.T) {
		items, total, err := s.List(ctx, models.ArticleFilter{CategoryID: &cat.ID}, 3, 3)
		if err != nil || total != 4 || len(items) != 1 {
			t.Errorf("got %d items, total %d, %v", len(items), total, err)
		}
	})

	t.Run("exclude one", func(t *testing.T) {
		items, _, err := s.List(ctx, models.ArticleFilter{
			Status:     models.StatusPublished,
			CategoryID: &cat.ID,
			ExcludeID:  &published[0].ID,
		}, 10, 0)
		if err != nil {
			t.Fatal(err)
		}
		for _, a := range items {
			if a.ID == published[0].ID {
				t.Error("excluded article returned")
			}
		}
		if len(items) != 2 {
			t.Errorf("got %d items, want 2", len(items))
		}
	})
}

func TestArticleStoreDelete(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	cat := testCategory(t, db)
	s := NewArticleStore(db)
	ctx := context.Background()

	a, err := s.Create(ctx, newTestArticle(user, cat, "Short lived", models.StatusDraft, nil))
	if err != nil {
		t.Fatal(err)
	}
	ok, err := s.Delete(ctx, a.ID)
	if err != nil || !ok {
		t.Fatalf("Delete: got %v, %v", ok, err)
	}
	ok, err = s.Delete(ctx, a.ID)
	if err != nil || ok {
		t.Errorf("second Delete: got %v, %v", ok, err)
	}
}
