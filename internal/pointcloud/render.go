package pointcloud

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"mission_go/pkg/utils"
)

// RenderPNG desenha o quadro sobre fundo preto. Os círculos já vêm ordenados
// do fundo para a frente.
func RenderPNG(frame *Frame) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+3] = 255
	}

	for _, c := range frame.Circles {
		fillCircle(img, c.X, c.Y, c.Radius, utils.HSLToRGBA(c.Hue, 70, 60))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fillCircle(img *image.RGBA, cx, cy, r float64, c color.RGBA) {
	bounds := img.Bounds()
	minX := int(math.Floor(cx - r))
	maxX := int(math.Ceil(cx + r))
	minY := int(math.Floor(cy - r))
	maxY := int(math.Ceil(cy + r))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if !(image.Point{X: x, Y: y}).In(bounds) {
				continue
			}
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, c)
			}
		}
	}
}
