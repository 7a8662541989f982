package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"dominicanews/internal/models"
)

// ArticleStore manages articles. Every read joins the category and author
// summaries so handlers can return them without extra queries.
type ArticleStore struct {
	db *sql.DB
}

// NewArticleStore returns a new ArticleStore.
func NewArticleStore(db *sql.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// articleSelect selects an article with its category and author. The
// content column is swapped for an empty string in list views.
const articleSelect = `
	SELECT a.id, a.title, a.slug, a.excerpt, %s, a.featured_image,
	       a.category_id, a.author_id, a.status, a.published_at,
	       a.created_at, a.updated_at,
	       c.id, c.name, c.slug, c.description,
	       u.id, u.full_name
	FROM articles a
	JOIN categories c ON c.id = a.category_id
	JOIN users u ON u.id = a.author_id`

func selectArticles(withContent bool) string {
	if withContent {
		return fmt.Sprintf(articleSelect, "a.content")
	}
	return fmt.Sprintf(articleSelect, "''")
}

// scanArticle scans a joined article row.
func scanArticle(scanner rowScanner) (*models.Article, error) {
	var (
		a   models.Article
		cat models.CategoryRef
		au  models.AuthorRef
	)
	err := scanner.Scan(
		&a.ID, &a.Title, &a.Slug, &a.Excerpt, &a.Content, &a.FeaturedImage,
		&a.CategoryID, &a.AuthorID, &a.Status, &a.PublishedAt,
		&a.CreatedAt, &a.UpdatedAt,
		&cat.ID, &cat.Name, &cat.Slug, &cat.Description,
		&au.ID, &au.FullName,
	)
	if err != nil {
		return nil, err
	}
	a.Category = &cat
	a.Author = &au
	return &a, nil
}

// filterWhere renders the conditions of f.
func filterWhere(f models.ArticleFilter) *where {
	w := &where{}
	if f.Status != "" {
		w.add("a.status = ?", f.Status)
	}
	if f.CategoryID != nil {
		w.add("a.category_id = ?", *f.CategoryID)
	}
	if f.ExcludeID != nil {
		w.add("a.id <> ?", *f.ExcludeID)
	}
	return w
}

// List returns one page of articles matching f and the total number of
// matches.
func (s *ArticleStore) List(ctx context.Context, f models.ArticleFilter, limit, offset int) ([]models.Article, int, error) {
	w := filterWhere(f)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles a`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	order := " ORDER BY a.updated_at DESC, a.id"
	if f.PublishedOrder {
		order = " ORDER BY a.published_at DESC NULLS LAST, a.id"
	}
	query := selectArticles(f.WithContent) + w.sql() + order +
		" LIMIT " + w.next(limit) + " OFFSET " + w.next(offset)

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	items := []models.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, *a)
	}
	return items, total, rows.Err()
}

// FindByID retrieves an article in any status. Returns nil if not found.
func (s *ArticleStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	return s.findOne(ctx, "find article by id", " WHERE a.id = $1", id)
}

// FindPublishedBySlug retrieves a published article by slug. Drafts are
// reported as not found.
func (s *ArticleStore) FindPublishedBySlug(ctx context.Context, slug string) (*models.Article, error) {
	return s.findOne(ctx, "find article by slug", " WHERE a.slug = $1 AND a.status = 'published'", slug)
}

func (s *ArticleStore) findOne(ctx context.Context, op, cond string, arg any) (*models.Article, error) {
	row := s.db.QueryRowContext(ctx, selectArticles(true)+cond, arg)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// SlugExists reports whether another article already uses slug. The
// article with ID exclude, if given, is ignored.
func (s *ArticleStore) SlugExists(ctx context.Context, slug string, exclude *uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM articles WHERE slug = $1 AND ($2::uuid IS NULL OR id <> $2))
	`, slug, exclude).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check article slug: %w", err)
	}
	return exists, nil
}

// Create inserts a new article and returns it with its joined summaries.
func (s *ArticleStore) Create(ctx context.Context, a *models.Article) (*models.Article, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO articles (title, slug, excerpt, content, featured_image,
			category_id, author_id, status, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		a.Title, a.Slug, a.Excerpt, a.Content, a.FeaturedImage,
		a.CategoryID, a.AuthorID, a.Status, a.PublishedAt,
	).Scan(&id)
	if err != nil {
		return nil, wrapErr("create article", err)
	}
	return s.FindByID(ctx, id)
}

// Update writes all editable fields of a and returns the stored article,
// or nil if it no longer exists. The author never changes.
func (s *ArticleStore) Update(ctx context.Context, a *models.Article) (*models.Article, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE articles SET
			title = $1, slug = $2, excerpt = $3, content = $4,
			featured_image = $5, category_id = $6, status = $7,
			published_at = $8, updated_at = NOW()
		WHERE id = $9`,
		a.Title, a.Slug, a.Excerpt, a.Content, a.FeaturedImage,
		a.CategoryID, a.Status, a.PublishedAt, a.ID,
	)
	if err != nil {
		return nil, wrapErr("update article", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.FindByID(ctx, a.ID)
}

// Delete removes an article and reports whether a row was deleted.
func (s *ArticleStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return false, wrapErr("delete article", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete article: %w", err)
	}
	return n > 0, nil
}
