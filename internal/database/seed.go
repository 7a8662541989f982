package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// defaultCategory is one of the sections every deployment starts with.
type defaultCategory struct {
	name        string
	slug        string
	description string
}

// DefaultCategories are the site sections in navigation order.
var defaultCategories = []defaultCategory{
	{"World", "world", "International news and global events"},
	{"Dominica", "dominica", "Local news from the Nature Island of the Caribbean"},
	{"Economy", "economy", "Economic news and business developments"},
	{"Agriculture", "agriculture", "Agricultural news and farming updates"},
	{"Education", "education", "Educational news and academic developments"},
	{"Entertainment", "entertainment", "Entertainment news and cultural events"},
	{"Lifestyle", "lifestyle", "Lifestyle, health, and wellness news"},
	{"Sports", "sports", "Sports news and athletic achievements"},
}

// sampleArticle is demo content created alongside the development admin.
type sampleArticle struct {
	title    string
	slug     string
	excerpt  string
	content  string
	category string
	age      time.Duration
}

var sampleArticles = []sampleArticle{
	{
		title:    "Welcome to Dominica News",
		slug:     "welcome-to-dominica-news",
		excerpt:  "Local and international news from the Nature Island of the Caribbean.",
		content:  "<p>Dominica News covers the stories that matter to the island, from Roseau council meetings to regional trade talks.</p><p>Reporters and contributors publish here every day.</p>",
		category: "dominica",
	},
	{
		title:    "Tourism Arrivals Climb Ahead of the Season",
		slug:     "tourism-arrivals-climb-ahead-of-the-season",
		excerpt:  "Hotels and tour operators report stronger bookings for the coming months.",
		content:  "<p>Visitor arrivals rose again this quarter as whale watching and hiking tours drew travellers back to the island.</p><p>Operators expect the trend to continue into the winter season.</p>",
		category: "economy",
		age:      24 * time.Hour,
	},
	{
		title:    "Farmers Join New Crop Support Programme",
		slug:     "farmers-join-new-crop-support-programme",
		excerpt:  "Seed, training and small grants are on offer for growers across the parishes.",
		content:  "<p>More than five hundred growers have signed up for a programme that supplies seed and training for plantain, dasheen and other staple crops.</p><p>Extension officers begin farm visits next month.</p>",
		category: "agriculture",
		age:      48 * time.Hour,
	},
	{
		title:    "Secondary Schools Receive Tablets for Digital Lessons",
		slug:     "secondary-schools-receive-tablets-for-digital-lessons",
		excerpt:  "The first phase of the digital learning rollout reaches secondary schools.",
		content:  "<p>Students at secondary schools received tablets this week as part of a phased rollout of digital lessons.</p><p>Primary schools follow once teacher training is complete.</p>",
		category: "education",
		age:      72 * time.Hour,
	},
}

// SeedOptions controls what Seed creates besides the default categories.
type SeedOptions struct {
	// AdminEmail and AdminPassword create an admin account when both are
	// set and no user with that email exists.
	AdminEmail    string
	AdminPassword string
	AdminName     string
	// SampleArticles adds demo articles authored by the admin.
	SampleArticles bool
}

// Seed inserts the default categories and, when requested, a development
// admin with sample articles. Existing rows are left untouched, so Seed is
// safe to run on every start.
func Seed(ctx context.Context, db *sql.DB, opts SeedOptions) error {
	created, err := seedCategories(ctx, db)
	if err != nil {
		return err
	}
	if created > 0 {
		slog.Info("seeded default categories", "count", created)
	}

	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		return nil
	}

	adminID, err := seedAdmin(ctx, db, opts)
	if err != nil {
		return err
	}

	if opts.SampleArticles {
		return seedArticles(ctx, db, adminID)
	}
	return nil
}

func seedCategories(ctx context.Context, db *sql.DB) (int, error) {
	var created int
	for i, c := range defaultCategories {
		res, err := db.ExecContext(ctx, `
			INSERT INTO categories (name, slug, description, display_order)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
		`, c.name, c.slug, c.description, i+1)
		if err != nil {
			return created, fmt.Errorf("seed category %s: %w", c.name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			created++
		}
	}
	return created, nil
}

func seedAdmin(ctx context.Context, db *sql.DB, opts SeedOptions) (string, error) {
	var id string
	err := db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = $1`, opts.AdminEmail).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("seed check admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("seed bcrypt: %w", err)
	}

	name := opts.AdminName
	if name == "" {
		name = "Admin User"
	}

	err = db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, full_name, role)
		VALUES ($1, $2, $3, 'admin')
		RETURNING id
	`, opts.AdminEmail, string(hash), name).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("seeded development admin user", "email", opts.AdminEmail)
	return id, nil
}

func seedArticles(ctx context.Context, db *sql.DB, authorID string) error {
	now := time.Now()
	for _, a := range sampleArticles {
		_, err := db.ExecContext(ctx, `
			INSERT INTO articles (title, slug, excerpt, content, category_id, author_id, status, published_at)
			SELECT $1, $2, $3, $4, c.id, $6, 'published', $7
			FROM categories c WHERE c.slug = $5
			ON CONFLICT DO NOTHING
		`, a.title, a.slug, a.excerpt, a.content, a.category, authorID, now.Add(-a.age))
		if err != nil {
			return fmt.Errorf("seed article %s: %w", a.slug, err)
		}
	}
	return nil
}
