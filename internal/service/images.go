package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif" // register gif
	"image/jpeg"
	_ "image/png" // register png

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register webp
)

const (
	// maxImageSide bounds the longest edge sent to the model.
	maxImageSide = 2048
	jpegQuality  = 70
	// maxImagePixels caps the declared size of a photo before it is decoded (about 50 MP).
	maxImagePixels = 50_000_000
)

// EncodeImage decodes a photo, downscales it so the longest side is at most maxImageSide,
// and returns it as base64 JPEG. Anything that is not a decodable image is EncodingFailed.
func EncodeImage(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", newAnalysisError(KindEncodingFailed, nil, "image is empty")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", newAnalysisError(KindEncodingFailed, err, "failed to decode image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return "", newAnalysisError(KindEncodingFailed, nil, "image is %dx%d, larger than %d pixels", cfg.Width, cfg.Height, maxImagePixels)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", newAnalysisError(KindEncodingFailed, err, "failed to decode image")
	}

	img = downscale(img, maxImageSide)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", newAnalysisError(KindEncodingFailed, err, "failed to re-encode %s image as jpeg", format)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// EncodeImages encodes every photo, failing on the first bad one.
func EncodeImages(images [][]byte) ([]string, error) {
	out := make([]string, 0, len(images))
	for i, raw := range images {
		encoded, err := EncodeImage(raw)
		if err != nil {
			if ae, ok := err.(*AnalysisError); ok {
				ae.Message = fmt.Sprintf("%s (photo %d)", ae.Message, i+1)
			}
			return nil, err
		}
		out = append(out, encoded)
	}
	return out, nil
}

func downscale(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return img
	}
	if w >= h {
		h = h * maxSide / w
		w = maxSide
	} else {
		w = w * maxSide / h
		h = maxSide
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func dataURI(base64JPEG string) string {
	return "data:image/jpeg;base64," + base64JPEG
}
