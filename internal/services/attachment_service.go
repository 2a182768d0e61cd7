package services

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"

	"ebox-messaging/internal/domain/message"
	"ebox-messaging/internal/domain/user"
	"ebox-messaging/internal/storage"
	ebox_errors "ebox-messaging/pkg/errors"
)

// AttachmentService stores attachment blobs in object storage and hands
// back descriptors for Send to embed in messages.
type AttachmentService struct {
	storage *storage.Client
}

func NewAttachmentService(client *storage.Client) *AttachmentService {
	return &AttachmentService{storage: client}
}

func (s *AttachmentService) Upload(ctx context.Context, actor user.Identity, fileName, contentType string, size int64, body io.Reader) (message.Attachment, error) {
	if fileName == "" {
		return message.Attachment{}, ebox_errors.Validationf("file name is required")
	}
	if s.storage == nil {
		return message.Attachment{}, ebox_errors.Validationf("attachment storage is not configured")
	}

	id := uuid.New()
	key := fmt.Sprintf("attachments/%s/%s%s", actor.ID, id, path.Ext(fileName))
	if err := s.storage.Upload(ctx, key, contentType, body); err != nil {
		return message.Attachment{}, ebox_errors.Persistence(err)
	}

	return message.Attachment{
		ID:          id,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   size,
		StorageKey:  key,
	}, nil
}

func (s *AttachmentService) DownloadURL(ctx context.Context, key string) (string, error) {
	if s.storage == nil {
		return "", ebox_errors.Validationf("attachment storage is not configured")
	}
	url, err := s.storage.PresignGet(ctx, key)
	if err != nil {
		return "", ebox_errors.Persistence(err)
	}
	return url, nil
}
