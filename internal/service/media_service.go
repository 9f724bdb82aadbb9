package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/glowpost/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var allowedMediaTypes = map[string]struct{}{
	"jpg": {}, "png": {}, "webp": {}, "mp4": {}, "mov": {},
}

type MediaService interface {
	Upload(ctx context.Context, userID int64, file []byte) (*transfer.MediaUploadResponse, error)
}

type mediaService struct {
	uploader   ObjectUploader
	configured bool
	publicURL  string
	maxBytes   int64
}

// NewMediaService stores uploads through uploader and links them under
// publicURL. A service built with configured=false rejects every upload.
func NewMediaService(uploader ObjectUploader, configured bool, publicURL string, maxBytes int64) MediaService {
	return &mediaService{
		uploader:   uploader,
		configured: configured,
		publicURL:  publicURL,
		maxBytes:   maxBytes,
	}
}

func (s *mediaService) Upload(ctx context.Context, userID int64, file []byte) (*transfer.MediaUploadResponse, error) {
	if !s.configured {
		return nil, &ConfigurationError{Message: "Media storage is not configured"}
	}
	if len(file) == 0 {
		return nil, &ValidationError{Message: "file is required"}
	}
	if s.maxBytes > 0 && int64(len(file)) > s.maxBytes {
		return nil, &ValidationError{Message: fmt.Sprintf("file must be at most %d bytes", s.maxBytes)}
	}

	kind, err := filetype.Match(file)
	if err != nil || kind == types.Unknown {
		return nil, &ValidationError{Message: "unsupported file type"}
	}
	if _, ok := allowedMediaTypes[kind.Extension]; !ok {
		return nil, &ValidationError{Message: fmt.Sprintf("file type %s is not allowed", kind.Extension)}
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	key := fmt.Sprintf("users/%d/%s.%s", userID, id, kind.Extension)

	if err := s.uploader.Upload(ctx, key, file, kind.MIME.Value); err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	return &transfer.MediaUploadResponse{
		URL:         s.publicURL + "/" + key,
		ContentType: kind.MIME.Value,
		Size:        int64(len(file)),
	}, nil
}
