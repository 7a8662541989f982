// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// ThumbnailDir is the storage directory holding thumbnails.
	ThumbnailDir = "thumbnails"
	// thumbnailPrefix is prepended to the image filename for its thumbnail.
	thumbnailPrefix = "thumb-"
	// imageURLPrefix is the public route images are served from.
	imageURLPrefix = "/api/images/"
)

// Image is an uploaded picture. The optimized file and its thumbnail live in
// file storage; this record holds their metadata.
type Image struct {
	ID           uuid.UUID  `json:"id"`
	Filename     string     `json:"filename"`
	OriginalName string     `json:"originalName"`
	FilePath     string     `json:"filePath"`
	FileSize     int64      `json:"fileSize"`
	MimeType     string     `json:"mimeType"`
	Width        *int       `json:"width,omitempty"`
	Height       *int       `json:"height,omitempty"`
	UploadedBy   uuid.UUID  `json:"-"`
	Uploader     *AuthorRef `json:"uploader,omitempty"`
	URL          string     `json:"url"`
	ThumbnailURL string     `json:"thumbnailUrl"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// ThumbnailName returns the thumbnail filename for an image filename.
func ThumbnailName(filename string) string {
	return thumbnailPrefix + filename
}

// ThumbnailKey returns the storage key of an image's thumbnail.
func ThumbnailKey(filename string) string {
	return ThumbnailDir + "/" + ThumbnailName(filename)
}

// SetURLs fills URL and ThumbnailURL from the filename.
func (m *Image) SetURLs() {
	m.URL = imageURLPrefix + m.Filename
	m.ThumbnailURL = imageURLPrefix + ThumbnailDir + "/" + ThumbnailName(m.Filename)
}

// HumanSize returns a human-readable file size string.
func (m *Image) HumanSize() string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case m.FileSize >= mb:
		return fmt.Sprintf("%.1f MB", float64(m.FileSize)/float64(mb))
	case m.FileSize >= kb:
		return fmt.Sprintf("%.0f KB", float64(m.FileSize)/float64(kb))
	default:
		return fmt.Sprintf("%d B", m.FileSize)
	}
}
