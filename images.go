package newsdesk

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/eringen/newsdesk/apperr"
	"github.com/eringen/newsdesk/content"
)

const (
	maxCoverWidth  = 1200
	jpegQuality    = 82
	maxUploadSize  = 10 << 20 // 10MB
	uploadsSubdir  = "uploads"
	coverFormField = "coverImageFile"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// processCover sniffs and decodes an uploaded image, scales it down to
// maxCoverWidth and re-encodes it as JPEG.
func processCover(src io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadSize {
		return nil, apperr.NewValidation("coverImageFile", "Cover image is too large (max 10MB).")
	}
	if ct := http.DetectContentType(data); !allowedImageTypes[ct] {
		return nil, apperr.NewValidation("coverImageFile", "Cover image must be a JPEG, PNG, GIF or WebP file.")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.NewValidationWrap("coverImageFile", "Cover image could not be decoded.", err)
	}

	bounds := img.Bounds()
	if w, h := bounds.Dx(), bounds.Dy(); w > maxCoverWidth {
		newH := h * maxCoverWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxCoverWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// coverFilename names an upload after the upload time and the original name.
func (a *App) coverFilename(original string) string {
	base := content.Slugify(strings.TrimSuffix(original, filepath.Ext(original)))
	stamp := strconv.FormatInt(a.now().UnixMilli(), 10)
	if base == "" {
		return stamp + ".jpg"
	}
	return stamp + "-" + base + ".jpg"
}

func (a *App) uploadDir() string {
	return filepath.Join(a.staticDir, uploadsSubdir)
}

// saveCoverUpload stores the request's cover image file, if one was sent,
// and returns its public URL.
func (a *App) saveCoverUpload(c echo.Context) (string, bool, error) {
	file, err := c.FormFile(coverFormField)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperr.NewValidationWrap(coverFormField, "Cover image upload failed.", err)
	}
	if file.Size > maxUploadSize {
		return "", false, apperr.NewValidation(coverFormField, "Cover image is too large (max 10MB).")
	}

	src, err := file.Open()
	if err != nil {
		return "", false, err
	}
	defer src.Close()

	data, err := processCover(src)
	if err != nil {
		return "", false, err
	}

	dir := a.uploadDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("create uploads dir: %w", err)
	}
	name := a.coverFilename(file.Filename)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", false, fmt.Errorf("write cover: %w", err)
	}
	a.Log.Info("cover uploaded", "file", name, "bytes", len(data))
	return "/" + uploadsSubdir + "/" + name, true, nil
}
