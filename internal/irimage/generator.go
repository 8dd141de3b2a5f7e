// Package irimage simula quadros de câmeras infravermelhas: um gradiente
// diagonal de matiz aleatório com ruído por pixel.
package irimage

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"sync"

	"mission_go/pkg/utils"
)

// Dimensões padrão de um quadro IR
const (
	DefaultWidth  = 320
	DefaultHeight = 240
)

const (
	noiseAmplitude = 50.0
	dataURLPrefix  = "data:image/png;base64,"
)

// Generator renderiza quadros IR simulados
type Generator struct {
	Width  int
	Height int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator cria um gerador. seed == 0 usa uma semente aleatória.
func NewGenerator(width, height int, seed int64) *Generator {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Generator{Width: width, Height: height, rng: rand.New(rand.NewSource(seed))}
}

// Render desenha um quadro com matiz base sorteado em [0,360)
func (g *Generator) Render() *image.RGBA {
	g.mu.Lock()
	defer g.mu.Unlock()

	hue := g.rng.Float64() * 360
	stops := [3]color.RGBA{
		utils.HSLToRGBA(hue, 70, 20),
		utils.HSLToRGBA(hue+60, 70, 50),
		utils.HSLToRGBA(hue+120, 70, 80),
	}

	w, h := g.Width, g.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	// gradiente de (0,0) até (w,h): t é a projeção do pixel nesse vetor
	fw, fh := float64(w), float64(h)
	norm := fw*fw + fh*fh

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := (float64(x)*fw + float64(y)*fh) / norm
			base := gradientAt(stops, t)

			noise := (g.rng.Float64() - 0.5) * noiseAmplitude
			i := img.PixOffset(x, y)
			img.Pix[i] = utils.ClampByte(float64(base.R) + noise)
			img.Pix[i+1] = utils.ClampByte(float64(base.G) + noise)
			img.Pix[i+2] = utils.ClampByte(float64(base.B) + noise)
			img.Pix[i+3] = 255
		}
	}

	return img
}

// PNG renderiza e codifica um quadro
func (g *Generator) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, g.Render()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataURL renderiza um quadro no formato aceito por <img src>
func (g *Generator) DataURL() (string, error) {
	data, err := g.PNG()
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(data), nil
}

// gradientAt interpola entre as paradas 0, 0.5 e 1
func gradientAt(stops [3]color.RGBA, t float64) color.RGBA {
	if t <= 0 {
		return stops[0]
	}
	if t >= 1 {
		return stops[2]
	}

	from, to := stops[0], stops[1]
	local := t * 2
	if t >= 0.5 {
		from, to = stops[1], stops[2]
		local = (t - 0.5) * 2
	}

	return color.RGBA{
		R: lerp(from.R, to.R, local),
		G: lerp(from.G, to.G, local),
		B: lerp(from.B, to.B, local),
		A: 255,
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return utils.ClampByte(float64(a) + (float64(b)-float64(a))*t)
}
