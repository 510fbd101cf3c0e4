package estimator

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// maxInlineDimension bounds the longest side of frames sent to the model.
// Keypoints come back in normalized coordinates, so downscaling the wire
// copy does not affect pixel-space conversion against the source frame.
const maxInlineDimension = 768

// downscaleForInline re-encodes frame data as a JPEG no larger than
// maxInlineDimension on its longest side. Frames already within the bound
// are passed through untouched.
func downscaleForInline(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxInlineDimension && h <= maxInlineDimension {
		return data, nil
	}

	newW, newH := w, h
	if w >= h {
		newW = maxInlineDimension
		newH = h * maxInlineDimension / w
	} else {
		newH = maxInlineDimension
		newW = w * maxInlineDimension / h
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	resized := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode downscaled frame: %w", err)
	}
	return buf.Bytes(), nil
}
