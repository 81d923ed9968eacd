// Feedcast - Real-time Social Feed Distribution
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcast

package feed

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tomtom215/feedcast/internal/database"
	"github.com/tomtom215/feedcast/internal/logging"
)

// ImageData is a post's stored file encoded for inline display.
type ImageData struct {
	MediaType string `json:"-"`
	DataURI   string `json:"imageData"`
}

// Image loads the file attached to postID. The privacy check runs before the
// file reference is inspected so a private post never reveals whether it
// has a file.
func (e *Engine) Image(ctx context.Context, requester, postID string) (ImageData, error) {
	post, err := e.posts.FindByID(ctx, postID)
	if errors.Is(err, database.ErrNotFound) {
		return ImageData{}, ErrNotFound
	}
	if err != nil {
		return ImageData{}, fmt.Errorf("find post: %w", err)
	}

	if !post.VisibleTo(requester) {
		return ImageData{}, ErrForbidden
	}
	if !post.HasFile() {
		return ImageData{}, ErrNoImage
	}

	data, err := e.objects.Get(ctx, post.FilePath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ImageData{}, ctxErr
		}
		logging.Ctx(ctx).Warn().Err(err).Str("post_id", post.ID).Str("backend", e.objects.Name()).Msg("Stored file unavailable")
		return ImageData{}, fmt.Errorf("%w: %w", ErrFileUnavailable, err)
	}

	mediaType := detectMediaType(post.FilePath, data)
	return ImageData{
		MediaType: mediaType,
		DataURI:   "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// detectMediaType sniffs data and falls back to image/<ext> when the
// content is not recognised.
func detectMediaType(filePath string, data []byte) string {
	detected := mimetype.Detect(data)
	if !detected.Is("application/octet-stream") {
		base, _, _ := strings.Cut(detected.String(), ";")
		return strings.TrimSpace(base)
	}
	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(filePath)), "."); ext != "" {
		return "image/" + ext
	}
	return detected.String()
}
