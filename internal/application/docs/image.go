package docs

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	domainDocs "cdrcgi/internal/domain/docs"
	"cdrcgi/internal/shared/errors"
)

// DefaultJPEGQuality applies when the request omits quality or sends
// something unparsable.
const DefaultJPEGQuality = 75

// ImageOptions scale and re-encode a stored image. A zero Width keeps
// the original dimensions; Width never scales up.
type ImageOptions struct {
	Width   int
	Quality int
}

// ImageService serves stored image blobs, optionally scaled down.
type ImageService struct {
	docs domainDocs.Repository
}

func NewImageService(docs domainDocs.Repository) *ImageService {
	return &ImageService{docs: docs}
}

// Fetch returns a document's image blob as JPEG bytes, scaled to the
// requested width with the aspect ratio preserved.
func (s *ImageService) Fetch(ctx context.Context, id uint, opts ImageOptions) ([]byte, error) {
	blob, err := s.docs.GetBlob(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		return nil, errors.NewInputError("no image found for this document")
	}

	src, _, err := image.Decode(bytes.NewReader(blob))
	if err != nil {
		return nil, errors.NewInputError("document blob is not a supported image")
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	bounds := src.Bounds()
	if opts.Width > 0 && opts.Width < bounds.Dx() {
		height := bounds.Dy() * opts.Width / bounds.Dx()
		if height < 1 {
			height = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, opts.Width, height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, bounds, draw.Over, nil)
		src = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errors.NewInfrastructureError("encoding image", err.Error())
	}
	return buf.Bytes(), nil
}
