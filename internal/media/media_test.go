package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"tush00nka/chato/internal/storage"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFitKeepsAspectAndNeverUpscales(t *testing.T) {
	cases := []struct {
		w, h         int
		wantW, wantH int
	}{
		{2048, 1024, 1024, 512},
		{1000, 3000, 341, 1024},
		{300, 200, 300, 200},
	}

	for _, tc := range cases {
		img := image.NewRGBA(image.Rect(0, 0, tc.w, tc.h))
		got := Fit(img, Size{Width: 1024, Height: 1024}).Bounds()
		assert.Equal(t, tc.wantW, got.Dx(), "%dx%d", tc.w, tc.h)
		assert.Equal(t, tc.wantH, got.Dy(), "%dx%d", tc.w, tc.h)
	}
}

func TestProcessStoresEncodedImage(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := NewProcessor(storage.NewLocalStorage(fs, "/uploads"), 0)

	stored, err := p.Process(context.Background(), pngBytes(t, 64, 32), Size{Width: 16, Height: 16}, PNG)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.Key, "attachments/"))
	assert.True(t, strings.HasSuffix(stored.Key, ".png"))
	assert.Equal(t, "/uploads/"+stored.Key, stored.URL)

	data, err := afero.ReadFile(fs, "/"+stored.Key)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())

	require.NoError(t, p.Discard(context.Background(), stored.Key))
	exists, err := afero.Exists(fs, "/"+stored.Key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestProcessRejectsNonImage(t *testing.T) {
	p := NewProcessor(storage.NewLocalStorage(afero.NewMemMapFs(), "/uploads"), 0)

	_, err := p.Process(context.Background(), []byte("definitely not an image"), Size{Width: 10, Height: 10}, JPEG)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

// withDimensions переписывает ширину и высоту в заголовке IHDR
func withDimensions(t *testing.T, raw []byte, w, h uint32) []byte {
	t.Helper()
	require.Equal(t, "IHDR", string(raw[12:16]))
	out := bytes.Clone(raw)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestProcessRejectsOversizedDimensions(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := NewProcessor(storage.NewLocalStorage(fs, "/uploads"), 0)

	raw := withDimensions(t, pngBytes(t, 1, 1), 12000, 12000)
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, 12000, cfg.Width)

	_, err = p.Process(context.Background(), raw, Size{Width: 1024, Height: 1024}, PNG)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	exists, err := afero.DirExists(fs, "/attachments")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestProcessPixelLimitIsConfigurable(t *testing.T) {
	p := NewProcessor(storage.NewLocalStorage(afero.NewMemMapFs(), "/uploads"), 64*32-1)

	_, err := p.Process(context.Background(), pngBytes(t, 64, 32), Size{Width: 16, Height: 16}, PNG)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	p = NewProcessor(storage.NewLocalStorage(afero.NewMemMapFs(), "/uploads"), 64*32)
	_, err = p.Process(context.Background(), pngBytes(t, 64, 32), Size{Width: 16, Height: 16}, PNG)
	assert.NoError(t, err)
}
