package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cdrcgi/internal/application/docs"
	"cdrcgi/internal/shared/cdrid"
)

// ImageHandler streams stored image blobs as JPEG, optionally scaled.
type ImageHandler struct {
	images *docs.ImageService
}

func NewImageHandler(imageService *docs.ImageService) *ImageHandler {
	return &ImageHandler{images: imageService}
}

func (h *ImageHandler) Handle(c *gin.Context) {
	id, err := cdrid.Parse(c.Query("id"))
	if err != nil {
		failHTML(c, err)
		return
	}

	opts := docs.ImageOptions{
		Width:   parseIntDefault(c.Query("width"), 0),
		Quality: parseIntDefault(c.Query("quality"), docs.DefaultJPEGQuality),
	}

	data, err := h.images.Fetch(c.Request.Context(), uint(id), opts)
	if err != nil {
		failHTML(c, err)
		return
	}

	c.Header("Content-Length", fmt.Sprintf("%d", len(data)))
	c.Data(http.StatusOK, "image/jpeg", data)
}

// parseIntDefault tolerates missing or unparsable numbers.
func parseIntDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
