package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"dominicanews/internal/apperr"
	"dominicanews/internal/auth"
	"dominicanews/internal/cache"
	"dominicanews/internal/imaging"
	"dominicanews/internal/middleware"
	"dominicanews/internal/models"
	"dominicanews/internal/storage"
	"dominicanews/internal/store"
)

const (
	imageCachePattern = "image:"

	// imageCacheControl lets browsers and proxies keep served images for a
	// year; filenames are never reused.
	imageCacheControl = "public, max-age=31536000"

	// multipartOverhead is the allowance for form boundaries and headers
	// on top of the file size limit.
	multipartOverhead = 1 << 20
)

// Images handles image upload, the admin image library and public serving.
type Images struct {
	images  *store.ImageStore
	files   storage.Backend
	cache   *cache.TTL
	maxSize int64
	dev     bool
	now     func() time.Time
}

// NewImages creates a new Images handler group. maxSize is the largest
// accepted upload in bytes.
func NewImages(images *store.ImageStore, files storage.Backend, c *cache.TTL, maxSize int64, dev bool) *Images {
	return &Images{
		images:  images,
		files:   files,
		cache:   c,
		maxSize: maxSize,
		dev:     dev,
		now:     time.Now,
	}
}

// Upload accepts a single image in the multipart field "image", stores an
// optimized copy and a thumbnail and records its metadata.
func (h *Images) Upload(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if err := auth.Authorize(id, models.RoleAdmin); err != nil {
		fail(w, err, h.dev)
		return
	}

	data, originalName, err := h.readUpload(w, r)
	if err != nil {
		fail(w, err, h.dev)
		return
	}

	res, err := imaging.Process(data)
	if errors.Is(err, imaging.ErrUnsupportedType) {
		fail(w, apperr.BadRequest("Only JPEG, PNG, and WebP images are allowed"), h.dev)
		return
	}
	if err != nil {
		fail(w, &apperr.Error{Kind: apperr.KindValidation, Message: "Invalid image file", Err: err}, h.dev)
		return
	}

	filename := h.newFilename(res.Ext)
	if err := h.storeFiles(r, filename, res); err != nil {
		fail(w, err, h.dev)
		return
	}

	width, height := res.Width, res.Height
	img, err := h.images.Create(r.Context(), &models.Image{
		Filename:     filename,
		OriginalName: originalName,
		FilePath:     filename,
		FileSize:     int64(len(data)),
		MimeType:     res.MimeType,
		Width:        &width,
		Height:       &height,
		UploadedBy:   id.UserID,
	})
	if err != nil {
		h.removeFiles(r, filename)
		fail(w, err, h.dev)
		return
	}

	slog.Info("image uploaded", "filename", filename, "size", img.HumanSize(), "user_id", id.UserID)
	writeCreated(w, "Image uploaded successfully", map[string]any{"image": img})
}

// List returns one page of the image library, newest first.
func (h *Images) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r, defaultImageLimit, maxPageLimit)
	offset := models.NewPagination("totalImages", page, limit, 0).Offset()

	items, total, err := h.images.List(r.Context(), limit, offset)
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	writeOK(w, "", map[string]any{
		"images":     items,
		"pagination": models.NewPagination("totalImages", page, limit, total),
	})
}

// Get returns the metadata of a single image.
func (h *Images) Get(w http.ResponseWriter, r *http.Request) {
	imageID, err := pathID(r, "image")
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	img, err := h.images.FindByID(r.Context(), imageID)
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	if img == nil {
		fail(w, apperr.NotFound("Image not found"), h.dev)
		return
	}
	writeOK(w, "", map[string]any{"image": img})
}

// Delete removes the image record, then both stored files.
func (h *Images) Delete(w http.ResponseWriter, r *http.Request) {
	imageID, err := pathID(r, "image")
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	img, err := h.images.Delete(r.Context(), imageID)
	if err != nil {
		fail(w, err, h.dev)
		return
	}
	if img == nil {
		fail(w, apperr.NotFound("Image not found"), h.dev)
		return
	}

	h.removeFiles(r, img.Filename)
	h.cache.Invalidate(imageCachePattern)
	writeOK(w, "Image deleted successfully", nil)
}

// Serve streams an uploaded image by filename.
func (h *Images) Serve(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "", "Image not found")
}

// ServeThumbnail streams a thumbnail by filename.
func (h *Images) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, models.ThumbnailDir+"/", "Thumbnail not found")
}

func (h *Images) serve(w http.ResponseWriter, r *http.Request, prefix, notFound string) {
	filename := chi.URLParam(r, "filename")
	if !safeFilename(filename) {
		fail(w, apperr.BadRequest("Invalid filename"), h.dev)
		return
	}

	obj, err := h.files.Open(r.Context(), prefix+filename)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
		fail(w, apperr.NotFound(notFound), h.dev)
		return
	}
	if err != nil {
		fail(w, apperr.Upstream("Failed to read image", err), h.dev)
		return
	}
	defer obj.Body.Close()

	hdr := w.Header()
	hdr.Set("Content-Type", obj.ContentType)
	hdr.Set("Cache-Control", imageCacheControl)
	if obj.Size > 0 {
		hdr.Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		slog.Warn("image stream interrupted", "filename", filename, "error", err)
	}
}

// readUpload returns the bytes and client filename of the "image" field.
func (h *Images) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	tooLarge := apperr.BadRequest(fmt.Sprintf("File size too large. Maximum size is %d MB", h.maxSize>>20))

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, "", tooLarge
		}
		return nil, "", apperr.BadRequest("No image file provided")
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", apperr.BadRequest("No image file provided")
	}
	defer file.Close()

	if header.Size > h.maxSize {
		return nil, "", tooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > h.maxSize {
		return nil, "", tooLarge
	}
	if len(data) == 0 {
		return nil, "", apperr.BadRequest("No image file provided")
	}
	return data, header.Filename, nil
}

// newFilename returns "image-<unix ms>-<9 random digits><ext>".
func (h *Images) newFilename(ext string) string {
	return fmt.Sprintf("image-%d-%d%s", h.now().UnixMilli(), rand.IntN(1e9), ext)
}

// storeFiles writes the optimized image and its thumbnail. If the
// thumbnail fails the original is removed again.
func (h *Images) storeFiles(r *http.Request, filename string, res *imaging.Result) error {
	if err := h.files.Put(r.Context(), filename, res.MimeType, res.Data); err != nil {
		return apperr.Upstream("Failed to store image", err)
	}
	if err := h.files.Put(r.Context(), models.ThumbnailKey(filename), imaging.MimeJPEG, res.Thumbnail); err != nil {
		h.removeFiles(r, filename)
		return apperr.Upstream("Failed to store thumbnail", err)
	}
	return nil
}

// removeFiles deletes an image and its thumbnail. Failures are logged.
func (h *Images) removeFiles(r *http.Request, filename string) {
	for _, key := range []string{filename, models.ThumbnailKey(filename)} {
		if err := h.files.Delete(r.Context(), key); err != nil {
			slog.Warn("delete image file failed", "key", key, "error", err)
		}
	}
}

// safeFilename rejects anything that could leave the upload directory.
func safeFilename(name string) bool {
	return name != "" && !strings.Contains(name, "..") && !strings.ContainsAny(name, `/\`)
}
