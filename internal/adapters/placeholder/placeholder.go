// Package placeholder bundles the static covers returned when live image
// generation is unavailable, and a generator that falls back to them.
package placeholder

import (
	"context"
	"embed"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/vibecover/internal/core/domain"
	"github.com/ewilliams-labs/vibecover/internal/core/ports"
)

//go:embed images/*.png
var imagesFS embed.FS

var covers = mustLoadCovers()

func mustLoadCovers() []domain.ImageReference {
	refs, err := loadCovers(imagesFS, "images")
	if err != nil {
		panic("placeholder: " + err.Error())
	}
	return refs
}

func loadCovers(fsys fs.FS, dir string) ([]domain.ImageReference, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	refs := make([]domain.ImageReference, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		refs = append(refs, domain.InlineImage("image/png", base64.StdEncoding.EncodeToString(data)))
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("no images in %s", dir)
	}
	return refs, nil
}

// Covers returns the placeholder set, truncated to count when count is
// smaller than the set. The slice is a fresh copy.
func Covers(count int) []domain.ImageReference {
	n := len(covers)
	if count > 0 && count < n {
		n = count
	}
	out := make([]domain.ImageReference, n)
	copy(out, covers[:n])
	return out
}

// Fallback wraps an image generator so that any failure or empty result is
// replaced by the placeholder set. Its Generate never returns an error.
type Fallback struct {
	next   ports.ImageGenerator
	logger *zap.Logger
}

var _ ports.ImageGenerator = (*Fallback)(nil)

// NewFallback wraps next. A nil next always yields placeholders.
func NewFallback(next ports.ImageGenerator, logger *zap.Logger) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{next: next, logger: logger}
}

// Generate implements ports.ImageGenerator.
func (f *Fallback) Generate(ctx context.Context, prompt string, count int) ([]domain.ImageReference, error) {
	if f.next == nil {
		f.logger.Warn("image generation disabled, serving placeholders")
		return Covers(count), nil
	}

	refs, err := f.next.Generate(ctx, prompt, count)
	if err == nil && len(refs) == 0 {
		err = errors.New("no images returned")
	}
	if err != nil {
		f.logger.Warn("image generation failed, serving placeholders", zap.Error(err))
		return Covers(count), nil
	}
	return refs, nil
}
