package service

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeImage(t *testing.T) {
	t.Run("downscales large photos", func(t *testing.T) {
		encoded, err := EncodeImage(testPNG(t, 4096, 1024))
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
		require.NoError(t, err)
		assert.Equal(t, 2048, cfg.Width)
		assert.Equal(t, 512, cfg.Height)
	})

	t.Run("keeps small photos at size", func(t *testing.T) {
		encoded, err := EncodeImage(testPNG(t, 300, 200))
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
		require.NoError(t, err)
		assert.Equal(t, 300, cfg.Width)
		assert.Equal(t, 200, cfg.Height)
	})

	t.Run("rejects oversized dimensions before decoding", func(t *testing.T) {
		_, err := EncodeImage(pngHeader(t, 100_000, 100_000))
		assert.ErrorIs(t, err, ErrEncodingFailed)
		assert.Contains(t, err.Error(), "100000x100000")
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := EncodeImage([]byte("definitely not a photo"))
		assert.ErrorIs(t, err, ErrEncodingFailed)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := EncodeImage(nil)
		assert.ErrorIs(t, err, ErrEncodingFailed)
	})
}

// pngHeader returns a PNG holding only a valid IHDR chunk that declares w x h RGB pixels.
func pngHeader(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolor

	chunk := append([]byte("IHDR"), ihdr...)
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(len(ihdr))))
	buf.Write(chunk)
	require.NoError(t, binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk)))
	return buf.Bytes()
}
