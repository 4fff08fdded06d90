// Package imaging turns uploaded leaf photos into classifier input tensors.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"

	"github.com/Brownie44l1/plant-disease-api/internal/domain"
)

// Preprocessing contract of the trained model. Changing either value does not
// fail loudly, it only degrades accuracy.
const (
	Size         = 224
	Channels     = 3
	ChannelScale = 255.0
)

// DefaultMaxPixels bounds decoded image area to keep decompression bombs out.
const DefaultMaxPixels = 40_000_000

// Tensor is a [1, Size, Size, Channels] NHWC float tensor with values in [0, 1].
type Tensor struct {
	Data []float32
}

// Shape returns the tensor shape as the model expects it.
func Shape() []int64 {
	return []int64{1, Size, Size, Channels}
}

// Len is the number of float values in a tensor.
func Len() int {
	return Size * Size * Channels
}

// TensorFromValues wraps pre-normalized values after checking length and range.
func TensorFromValues(values []float32) (Tensor, error) {
	if len(values) != Len() {
		return Tensor{}, domain.WrapError(domain.ErrInvalidImage, "tensor from values",
			fmt.Errorf("expected %d values, got %d", Len(), len(values)))
	}
	for i, v := range values {
		if !(v >= 0 && v <= 1) {
			return Tensor{}, domain.WrapError(domain.ErrInvalidImage, "tensor from values",
				fmt.Errorf("value %d is %v, outside [0, 1]", i, v))
		}
	}
	data := make([]float32, len(values))
	copy(data, values)
	return Tensor{Data: data}, nil
}

type Normalizer struct {
	MaxPixels int
}

func NewNormalizer(maxPixels int) *Normalizer {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Normalizer{MaxPixels: maxPixels}
}

// Normalize decodes a JPEG or PNG, resizes it to Size x Size with Lanczos3
// and scales channels into [0, 1].
func (n *Normalizer) Normalize(raw []byte) (Tensor, error) {
	img, err := n.decode(raw)
	if err != nil {
		return Tensor{}, domain.WrapError(domain.ErrInvalidImage, "normalize", err)
	}

	resized := resize.Resize(Size, Size, toOpaqueRGB(img), resize.Lanczos3)

	bounds := resized.Bounds()
	if bounds.Dx() != Size || bounds.Dy() != Size {
		return Tensor{}, domain.WrapError(domain.ErrInvalidImage, "normalize",
			fmt.Errorf("resized to %dx%d", bounds.Dx(), bounds.Dy()))
	}

	data := make([]float32, Len())
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			offset := (y*Size + x) * Channels
			data[offset] = float32(r>>8) / ChannelScale
			data[offset+1] = float32(g>>8) / ChannelScale
			data[offset+2] = float32(b>>8) / ChannelScale
		}
	}

	return Tensor{Data: data}, nil
}

func (n *Normalizer) decode(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty upload")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%s image has no pixels", format)
	}
	maxPixels := n.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("%s image is %dx%d, above the %d pixel limit", format, cfg.Width, cfg.Height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return img, nil
}

// toOpaqueRGB drops alpha without compositing, so translucent pixels keep
// their stored colour.
func toOpaqueRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := dst.PixOffset(x, y)
			dst.Pix[i] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = 0xff
		}
	}
	return dst
}
