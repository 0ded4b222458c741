package openrouter

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/samber/lo"

	"github.com/ewilliams-labs/vibecover/internal/core/domain"
)

// normalizeImages flattens every image across all choices into display
// references, keeping upstream order and at most count entries.
func normalizeImages(resp chatResponse, count int) []domain.ImageReference {
	items := lo.FlatMap(resp.Choices, func(c chatChoice, _ int) []imageItem {
		return c.Message.Images
	})
	refs := lo.FilterMap(items, func(item imageItem, _ int) (domain.ImageReference, bool) {
		return normalizeImage(item)
	})
	if count > 0 && len(refs) > count {
		refs = refs[:count]
	}
	return refs
}

// normalizeImage handles the shapes the image endpoint is known to return:
//
//	{"b64_json": "<url | data uri | payload>"}
//	{"inlineData": {"mimeType": "image/png", "data": "<url | data uri | payload>"}}
//	{"image_url": "<url | data uri | payload>"}
//	{"image_url": {"url": "<url | data uri | payload>"}}
//	{"image_url": {"b64_json": "<payload>"}}
func normalizeImage(item imageItem) (domain.ImageReference, bool) {
	switch {
	case item.B64JSON != "":
		return domain.ParseImageReference(item.B64JSON)
	case item.InlineData != nil && item.InlineData.Data != "":
		return normalizeInlineData(*item.InlineData)
	case len(item.ImageURL) > 0:
		return normalizeImageURL(item.ImageURL)
	default:
		return domain.ImageReference{}, false
	}
}

// normalizeInlineData keeps the declared mimeType only for bare payloads; a
// data URI already carries its own and a URL has none.
func normalizeInlineData(d inlineData) (domain.ImageReference, bool) {
	ref, ok := domain.ParseImageReference(d.Data)
	if !ok {
		return ref, false
	}
	bare := !strings.HasPrefix(strings.TrimSpace(d.Data), "data:")
	if ref.Kind == domain.ImageInline && bare && d.MimeType != "" {
		ref.MIMEType = d.MimeType
	}
	return ref, true
}

func normalizeImageURL(raw json.RawMessage) (domain.ImageReference, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return domain.ImageReference{}, false
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return domain.ImageReference{}, false
		}
		return domain.ParseImageReference(s)
	case '{':
		var obj imageURLObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return domain.ImageReference{}, false
		}
		for _, candidate := range []string{obj.URL, obj.B64JSON, obj.Data} {
			if ref, ok := domain.ParseImageReference(candidate); ok {
				return ref, true
			}
		}
	}
	return domain.ImageReference{}, false
}
