package docs

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainDocs "cdrcgi/internal/domain/docs"
	"cdrcgi/internal/shared/errors"
)

type mockDocRepo struct {
	docs  map[uint]*domainDocs.Document
	blobs map[uint][]byte
	lists map[string][]domainDocs.DocTitle
}

func (m *mockDocRepo) GetByID(_ context.Context, id uint) (*domainDocs.Document, error) {
	return m.docs[id], nil
}

func (m *mockDocRepo) GetVersionXML(_ context.Context, id uint, num int) (string, error) {
	return "", nil
}

func (m *mockDocRepo) GetBlob(_ context.Context, id uint) ([]byte, error) {
	return m.blobs[id], nil
}

func (m *mockDocRepo) ListByDoctype(_ context.Context, doctype string) ([]domainDocs.DocTitle, error) {
	return m.lists[doctype], nil
}

func (m *mockDocRepo) Doctypes(_ context.Context) ([]string, error) {
	return nil, nil
}

func TestSchemaList(t *testing.T) {
	repo := &mockDocRepo{lists: map[string][]domainDocs.DocTitle{
		"Schema": {{ID: 1, Title: "Country.xml"}, {ID: 2, Title: "Summary.xml"}},
	}}
	svc := NewSchemaService(repo)

	titles, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, titles, 2)
	assert.Equal(t, "Country.xml", titles[0].Title)
}

func TestSchemaGetUnknown(t *testing.T) {
	svc := NewSchemaService(&mockDocRepo{docs: map[uint]*domainDocs.Document{}})

	_, err := svc.Get(context.Background(), 123)
	require.Error(t, err)
	assert.True(t, errors.IsInputError(err))
}

func TestSchemaGet(t *testing.T) {
	repo := &mockDocRepo{docs: map[uint]*domainDocs.Document{
		123: {ID: 123, Doctype: "Schema", Title: "Country.xml", XML: "<schema/>"},
	}}
	svc := NewSchemaService(repo)

	doc, err := svc.Get(context.Background(), 123)
	require.NoError(t, err)
	assert.Equal(t, "<schema/>", doc.XML)
}

func testImageBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageScaledToWidth(t *testing.T) {
	repo := &mockDocRepo{blobs: map[uint][]byte{
		12345: testImageBytes(t, 400, 300),
	}}
	svc := NewImageService(repo)

	data, err := svc.Fetch(context.Background(), 12345, ImageOptions{Width: 200})
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, decoded.Bounds().Dx())
	assert.Equal(t, 150, decoded.Bounds().Dy())
}

func TestImageNeverScalesUp(t *testing.T) {
	repo := &mockDocRepo{blobs: map[uint][]byte{
		1: testImageBytes(t, 100, 80),
	}}
	svc := NewImageService(repo)

	data, err := svc.Fetch(context.Background(), 1, ImageOptions{Width: 500})
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())
}

func TestImageQualityDefaulted(t *testing.T) {
	repo := &mockDocRepo{blobs: map[uint][]byte{
		1: testImageBytes(t, 100, 80),
	}}
	svc := NewImageService(repo)

	// Zero and out-of-range both fall back to the default.
	lowQ, err := svc.Fetch(context.Background(), 1, ImageOptions{Quality: 0})
	require.NoError(t, err)
	outOfRange, err := svc.Fetch(context.Background(), 1, ImageOptions{Quality: 400})
	require.NoError(t, err)
	assert.Equal(t, len(lowQ), len(outOfRange))
}

func TestImageMissingBlob(t *testing.T) {
	svc := NewImageService(&mockDocRepo{blobs: map[uint][]byte{}})

	_, err := svc.Fetch(context.Background(), 7, ImageOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsInputError(err))
}

func TestImageBadBlob(t *testing.T) {
	svc := NewImageService(&mockDocRepo{blobs: map[uint][]byte{
		7: []byte("not an image"),
	}})

	_, err := svc.Fetch(context.Background(), 7, ImageOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsInputError(err))
}
