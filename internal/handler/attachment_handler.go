package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ebox-messaging/internal/services"
	"ebox-messaging/internal/transport/httpdto"
)

type AttachmentHandler struct {
	attachments *services.AttachmentService
}

func NewAttachmentHandler(attachments *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

func (h *AttachmentHandler) Upload(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("file is required", "INVALID_REQUEST"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	attachment, err := h.attachments.Upload(c.Request.Context(), actor, header.Filename, contentType, header.Size, file)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.AttachmentDTO{
		ID:          attachment.ID.String(),
		FileName:    attachment.FileName,
		ContentType: attachment.ContentType,
		SizeBytes:   attachment.SizeBytes,
		StorageKey:  attachment.StorageKey,
	}))
}

func (h *AttachmentHandler) DownloadURL(c *gin.Context) {
	if _, ok := identity(c); !ok {
		return
	}
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("key is required", "INVALID_REQUEST"))
		return
	}

	url, err := h.attachments.DownloadURL(c.Request.Context(), key)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.AttachmentURLResponse{URL: url}))
}
