// Package covers attaches cover images to books.
//
// A cover is stored in one of two ways, chosen once by configuration:
//
//   - inline: the image bytes and MIME type live on the book record. The
//     form submits a JSON payload {"type": "image/png", "data": "<base64>"}.
//   - file: the image is written to a FileStore and the book keeps only
//     the generated filename.
//
// Payloads whose MIME type is not in the allow-list never reach storage;
// they are dropped without error and the book keeps no new cover.
package covers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/metrics"
)

const (
	StrategyInline = "inline"
	StrategyFile   = "file"
)

// DefaultAllowedTypes are the raster formats accepted out of the box.
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/gif"}

// Config is passed to NewAdapter.
type Config struct {
	Strategy       string
	AllowedTypes   []string
	MaxUploadBytes int64
}

// Source carries the cover submitted with a book form.
// Encoded is used by the inline strategy, Upload by the file strategy.
type Source struct {
	Encoded string
	Upload  *Upload
}

// IsEmpty reports whether no cover was submitted.
func (s Source) IsEmpty() bool {
	return strings.TrimSpace(s.Encoded) == "" && s.Upload == nil
}

// Upload is a received cover file.
type Upload struct {
	Filename    string
	ContentType string // as declared by the client
	Data        []byte
}

// UploadFromFileHeader reads a multipart file, refusing files above maxBytes.
func UploadFromFileHeader(fh *multipart.FileHeader, maxBytes int64) (*Upload, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, entities.NewValidationError("cover", fmt.Sprintf("must be at most %d bytes", maxBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, entities.NewValidationError("cover", fmt.Sprintf("must be at most %d bytes", maxBytes))
	}

	return &Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// inlineEnvelopeBytes allows for the JSON wrapper around an inline cover.
const inlineEnvelopeBytes = 256

// MaxInlineBytes is the longest encoded inline cover whose image can fit in
// maxBytes. Zero means no limit.
func MaxInlineBytes(maxBytes int64) int64 {
	if maxBytes <= 0 {
		return 0
	}
	return int64(base64.StdEncoding.EncodedLen(int(maxBytes))) + inlineEnvelopeBytes
}

// CheckInlineSize refuses encoded inline covers too long to hold an image of
// at most maxBytes.
func CheckInlineSize(encoded string, maxBytes int64) error {
	if limit := MaxInlineBytes(maxBytes); limit > 0 && int64(len(encoded)) > limit {
		return entities.NewValidationError("cover", fmt.Sprintf("must be at most %d bytes", maxBytes))
	}
	return nil
}

// Adapter applies submitted covers to books using the configured strategy.
type Adapter struct {
	cfg   Config
	store FileStore
}

// NewAdapter validates cfg. The store is required by the file strategy and
// used by both strategies to serve previously stored files.
func NewAdapter(cfg Config, store FileStore) (*Adapter, error) {
	switch cfg.Strategy {
	case "":
		cfg.Strategy = StrategyInline
	case StrategyInline, StrategyFile:
	default:
		return nil, fmt.Errorf("unknown cover strategy %q", cfg.Strategy)
	}
	if cfg.Strategy == StrategyFile && store == nil {
		return nil, fmt.Errorf("file cover strategy requires a file store")
	}
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = DefaultAllowedTypes
	}
	return &Adapter{cfg: cfg, store: store}, nil
}

func (a *Adapter) Strategy() string {
	return a.cfg.Strategy
}

// Apply sets the cover on book from src. It returns the name of the file it
// wrote, if any, so the caller can Discard it when the book fails to save.
// Rejected payloads leave book untouched and return no error.
func (a *Adapter) Apply(ctx context.Context, book *entities.Book, src Source) (string, error) {
	if src.IsEmpty() {
		return "", nil
	}
	if a.cfg.Strategy == StrategyFile {
		return a.applyFile(ctx, book, src.Upload)
	}
	a.applyInline(book, src.Encoded)
	return "", nil
}

// Discard deletes a file written by Apply. Failures are logged only.
func (a *Adapter) Discard(ctx context.Context, name string) {
	if name == "" || a.store == nil {
		return
	}
	if err := a.store.Delete(ctx, name); err != nil {
		metrics.CoverCompensations.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Str("file", name).Msg("Failed to remove cover file of unsaved book")
		return
	}
	metrics.CoverCompensations.WithLabelValues("deleted").Inc()
	log.Debug().Str("file", name).Msg("Removed cover file of unsaved book")
}

// Open returns the cover content of book and its MIME type.
// A book without a cover yields entities.ErrNotFound.
func (a *Adapter) Open(ctx context.Context, book *entities.Book) (io.ReadCloser, string, error) {
	if book.HasInlineCover() {
		return io.NopCloser(bytes.NewReader(book.CoverImage)), book.CoverImageType, nil
	}
	if book.CoverImageName == "" || a.store == nil {
		return nil, "", fmt.Errorf("book %s cover: %w", book.ID, entities.ErrNotFound)
	}

	rc, err := a.store.Open(ctx, book.CoverImageName)
	if err != nil {
		return nil, "", err
	}
	contentType := mime.TypeByExtension(filepath.Ext(book.CoverImageName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return rc, contentType, nil
}

type inlinePayload struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

func (a *Adapter) applyInline(book *entities.Book, encoded string) {
	var payload inlinePayload
	if err := json.Unmarshal([]byte(encoded), &payload); err != nil {
		a.reject("malformed")
		return
	}
	if !a.allowed(payload.Type) {
		a.reject("type")
		return
	}
	data, err := base64.StdEncoding.DecodeString(payload.Data)
	if err != nil || len(data) == 0 {
		a.reject("malformed")
		return
	}

	book.ClearCover()
	book.CoverImage = data
	book.CoverImageType = mediaType(payload.Type)
	metrics.CoversStored.WithLabelValues(StrategyInline).Inc()
}

func (a *Adapter) applyFile(ctx context.Context, book *entities.Book, upload *Upload) (string, error) {
	if upload == nil || len(upload.Data) == 0 {
		a.reject("empty")
		return "", nil
	}

	contentType := mediaType(upload.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mediaType(mimetype.Detect(upload.Data).String())
	}
	if !a.allowed(contentType) {
		a.reject("type")
		return "", nil
	}

	name := uuid.NewString() + extensionFor(contentType)
	err := a.store.Put(ctx, name, bytes.NewReader(upload.Data), int64(len(upload.Data)), contentType)
	if err != nil {
		return "", entities.NewStorageError("store cover", err)
	}

	book.ClearCover()
	book.CoverImageName = name
	metrics.CoversStored.WithLabelValues(StrategyFile).Inc()
	return name, nil
}

func (a *Adapter) allowed(contentType string) bool {
	if contentType == "" {
		return false
	}
	return mimetype.EqualsAny(contentType, a.cfg.AllowedTypes...)
}

func (a *Adapter) reject(reason string) {
	metrics.CoversRejected.WithLabelValues(a.cfg.Strategy, reason).Inc()
	log.Debug().Str("strategy", a.cfg.Strategy).Str("reason", reason).Msg("Cover rejected")
}

func mediaType(contentType string) string {
	t, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(t))
}

func extensionFor(contentType string) string {
	if m := mimetype.Lookup(contentType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}
