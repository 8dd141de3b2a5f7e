package utils

import (
	"fmt"
	"image/color"
	"math"
)

// HSLString monta a cor CSS hsl(h, s%, l%) usada pelos canvases do painel.
// O matiz não é normalizado: o navegador trata o valor de forma cíclica.
func HSLString(hue, saturation, lightness float64) string {
	return fmt.Sprintf("hsl(%s, %s%%, %s%%)",
		FormatFloat(hue, 3), FormatFloat(saturation, 3), FormatFloat(lightness, 3))
}

// HSLToRGBA converte HSL (matiz em graus, s e l em 0..100) para RGBA opaco.
// O matiz é reduzido ao ciclo [0,360) como faria o CSS.
func HSLToRGBA(hue, saturation, lightness float64) color.RGBA {
	h := math.Mod(hue, 360)
	if h < 0 {
		h += 360
	}
	s := clamp01(saturation / 100)
	l := clamp01(lightness / 100)

	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return color.RGBA{
		R: toByte((r + m) * 255),
		G: toByte((g + m) * 255),
		B: toByte((b + m) * 255),
		A: 255,
	}
}

// ClampByte limita v a [0,255] e arredonda
func ClampByte(v float64) uint8 {
	return toByte(v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func toByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
