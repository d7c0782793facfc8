package assets

import (
	"fmt"
	"image"
	"os"
)

// Info summarizes a stored image.
type Info struct {
	Width        int
	Height       int
	Ratio        float64
	PrimaryColor string
}

// Describe decodes the image at file and computes its ratio and dominant colour.
func Describe(file string) (Info, error) {
	fh, err := os.Open(file)
	if err != nil {
		return Info{}, fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer fh.Close()

	img, _, err := image.Decode(fh)
	if err != nil {
		return Info{}, fmt.Errorf("failed to decode %s: %w", file, err)
	}
	return DescribeImage(img), nil
}

// DescribeImage computes the ratio and dominant colour of img.
func DescribeImage(img image.Image) Info {
	b := img.Bounds()
	info := Info{Width: b.Dx(), Height: b.Dy()}
	if info.Height > 0 {
		info.Ratio = float64(info.Width) / float64(info.Height)
	}
	info.PrimaryColor = dominantColor(img)
	return info
}

// dominantColor buckets pixels into a 4 bit per channel histogram and returns
// the mean colour of the most populated bucket as #rrggbb.
func dominantColor(img image.Image) string {
	type acc struct{ n, r, g, b uint64 }
	buckets := make(map[uint16]*acc)

	b := img.Bounds()
	step := max(1, max(b.Dx(), b.Dy())/200)
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, a := img.At(x, y).RGBA()
			if a < 0x8000 {
				continue
			}
			r8, g8, b8 := r>>8, g>>8, bl>>8
			key := uint16(r8>>4)<<8 | uint16(g8>>4)<<4 | uint16(b8>>4)
			c, ok := buckets[key]
			if !ok {
				c = &acc{}
				buckets[key] = c
			}
			c.n++
			c.r += uint64(r8)
			c.g += uint64(g8)
			c.b += uint64(b8)
		}
	}

	var best *acc
	var bestKey uint16
	for k, c := range buckets {
		if best == nil || c.n > best.n || (c.n == best.n && k < bestKey) {
			best, bestKey = c, k
		}
	}
	if best == nil {
		return ""
	}
	return fmt.Sprintf("#%02x%02x%02x", best.r/best.n, best.g/best.n, best.b/best.n)
}
