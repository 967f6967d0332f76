// Package assets stores uploaded images on local disk. Verification documents
// and product photos are normalized to WebP and capped in size before they are
// written.
package assets

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"rentloop/internal/config"
	"rentloop/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// DocumentMaxSize bounds the longest edge of a stored document image.
	DocumentMaxSize = 1600
	// ProductImageMaxSize bounds the longest edge of a stored product photo.
	ProductImageMaxSize = 2048
	// WebPQuality is the encoder quality for stored images.
	WebPQuality = 75

	defaultMaxUploadBytes = 10 * 1024 * 1024
)

const (
	kindDocument = "documents"
	kindProduct  = "products"
)

// Store persists uploaded images and resolves their public URLs.
type Store interface {
	SaveDocument(ctx context.Context, userID uint, content []byte, contentType string) (string, error)
	SaveProductImage(ctx context.Context, ownerID uint, content []byte, contentType string) (string, error)
	Delete(relPath string) error
	DeleteAll(relPaths []string)
	URL(relPath string) string
}

// DiskStore is a local filesystem Store.
type DiskStore struct {
	root           string
	baseURL        string
	maxUploadBytes int64
}

// NewDiskStore creates a Store rooted at the configured asset directory.
func NewDiskStore(cfg *config.Config) *DiskStore {
	root := cfg.AssetRoot
	if root == "" {
		root = "./storage"
	}
	baseURL := cfg.AssetBaseURL
	if baseURL == "" {
		baseURL = "/assets"
	}
	return &DiskStore{
		root:           root,
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		maxUploadBytes: defaultMaxUploadBytes,
	}
}

// Root returns the filesystem directory assets are stored under.
func (s *DiskStore) Root() string {
	return s.root
}

// SaveDocument normalizes and stores an identity document image, returning
// its relative path.
func (s *DiskStore) SaveDocument(_ context.Context, userID uint, content []byte, contentType string) (string, error) {
	return s.save(kindDocument, userID, content, contentType, DocumentMaxSize)
}

// SaveProductImage normalizes and stores a product photo, returning its
// relative path.
func (s *DiskStore) SaveProductImage(_ context.Context, ownerID uint, content []byte, contentType string) (string, error) {
	return s.save(kindProduct, ownerID, content, contentType, ProductImageMaxSize)
}

func (s *DiskStore) save(kind string, ownerID uint, content []byte, contentType string, maxSize int) (string, error) {
	if ownerID == 0 {
		return "", models.NewValidationError("Invalid owner")
	}
	if len(content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > s.maxUploadBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(content)
	if !isAllowedImageMIME(detectedType) {
		return "", models.NewValidationError("Invalid image type")
	}
	if provided := normalizeContentType(contentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, detectedType) {
		return "", models.NewValidationError("Image content type mismatch")
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}

	normalized := resizeToFit(decoded, maxSize, maxSize)
	encoded, err := encodeWebP(normalized, WebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	hash := contentHash(ownerID, encoded)
	rel := filepath.ToSlash(filepath.Join(kind, fmt.Sprintf("%s.webp", hash)))
	if err := writeBytesToFile(filepath.Join(s.root, rel), encoded); err != nil {
		return "", models.NewInternalError(err)
	}
	return rel, nil
}

// Delete removes a stored asset. Missing files are not an error.
func (s *DiskStore) Delete(relPath string) error {
	clean, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(clean); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// DeleteAll removes stored assets best effort.
func (s *DiskStore) DeleteAll(relPaths []string) {
	for _, p := range relPaths {
		_ = s.Delete(p)
	}
}

// URL returns the public URL for a stored asset.
func (s *DiskStore) URL(relPath string) string {
	return s.baseURL + "/" + strings.TrimPrefix(filepath.ToSlash(relPath), "/")
}

// resolve joins a relative path under the root and rejects traversal outside it.
func (s *DiskStore) resolve(relPath string) (string, error) {
	clean := filepath.Clean(filepath.Join(s.root, relPath))
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	cleanAbs, err := filepath.Abs(clean)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if cleanAbs != rootAbs && !strings.HasPrefix(cleanAbs, rootAbs+string(os.PathSeparator)) {
		return "", models.NewValidationError("Invalid asset path")
	}
	return cleanAbs, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func contentHash(ownerID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", ownerID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
