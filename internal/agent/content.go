package agent

import (
	"encoding/base64"
	"log/slog"

	"github.com/haasonsaas/tonari/pkg/models"
)

// BuildContent turns a raw turn (text plus optional base64 image) into the
// canonical message.
//
// Without an image the text is returned unchanged, even when empty. A
// malformed image payload logs a warning and falls back to text-only; the
// caller never sees the failure. With a valid image the result is a
// two-part message whose text part is never empty — the message protocol
// rejects an empty text part when any part is present, so an empty prompt
// becomes a single space.
func BuildContent(logger *slog.Logger, text, imageBase64, imageFormat string) models.Content {
	if imageBase64 == "" {
		return models.PlainContent(text)
	}

	decoded, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		if logger != nil {
			logger.Warn("invalid image payload, falling back to text", "error", err)
		}
		return models.PlainContent(text)
	}

	if imageFormat == "" {
		imageFormat = models.DefaultImageFormat
	}
	textPart := text
	if textPart == "" {
		textPart = " "
	}

	return models.Content{
		Parts: []models.ContentPart{
			{Text: textPart},
			{Image: &models.ImagePart{Format: imageFormat, Bytes: decoded}},
		},
	}
}
