// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"dominicanews/internal/models"
)

// ImageStore handles image metadata. The files themselves live in
// storage.Backend.
type ImageStore struct {
	db *sql.DB
}

// NewImageStore creates a new ImageStore with the given database connection.
func NewImageStore(db *sql.DB) *ImageStore {
	return &ImageStore{db: db}
}

// imageSelect selects an image with its uploader summary.
const imageSelect = `
	SELECT i.id, i.filename, i.original_name, i.file_path, i.file_size,
	       i.mime_type, i.width, i.height, i.uploaded_by, i.created_at,
	       u.id, u.full_name
	FROM images i
	JOIN users u ON u.id = i.uploaded_by`

// scanImage scans an image row and fills its public URLs.
func scanImage(scanner rowScanner) (*models.Image, error) {
	var (
		m  models.Image
		up models.AuthorRef
	)
	err := scanner.Scan(
		&m.ID, &m.Filename, &m.OriginalName, &m.FilePath, &m.FileSize,
		&m.MimeType, &m.Width, &m.Height, &m.UploadedBy, &m.CreatedAt,
		&up.ID, &up.FullName,
	)
	if err != nil {
		return nil, err
	}
	m.Uploader = &up
	m.SetURLs()
	return &m, nil
}

// Create inserts a new image record and returns it with its uploader.
func (s *ImageStore) Create(ctx context.Context, m *models.Image) (*models.Image, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO images (filename, original_name, file_path, file_size,
			mime_type, width, height, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		m.Filename, m.OriginalName, m.FilePath, m.FileSize,
		m.MimeType, m.Width, m.Height, m.UploadedBy,
	).Scan(&id)
	if err != nil {
		return nil, wrapErr("create image", err)
	}
	return s.FindByID(ctx, id)
}

// FindByID retrieves a single image by its UUID. Returns nil if not found.
func (s *ImageStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	m, err := scanImage(s.db.QueryRowContext(ctx, imageSelect+` WHERE i.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find image by id: %w", err)
	}
	return m, nil
}

// List returns one page of images, newest first, and the total count.
func (s *ImageStore) List(ctx context.Context, limit, offset int) ([]models.Image, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count images: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, imageSelect+`
		ORDER BY i.created_at DESC, i.id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	items := []models.Image{}
	for rows.Next() {
		m, err := scanImage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan image: %w", err)
		}
		items = append(items, *m)
	}
	return items, total, rows.Err()
}

// Delete removes an image record and returns it so the caller can clean
// up the stored files. Returns nil if no such image exists.
func (s *ImageStore) Delete(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	m, err := s.FindByID(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return nil, wrapErr("delete image", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return m, nil
}
