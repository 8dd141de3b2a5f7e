package pointcloud

import (
	"math"
	"sort"

	"mission_go/internal/models"
	"mission_go/pkg/utils"
)

const (
	projectionScale = 2.0
	maxPointRadius  = 3.0
	minPointRadius  = 1.0
	depthFactor     = 0.01
)

// TrailFill é pintado por cima do quadro anterior no lugar de limpar o canvas,
// deixando um rastro que some aos poucos
const TrailFill = "rgba(0, 0, 0, 0.1)"

// Circle é um ponto já projetado, pronto para ser desenhado
type Circle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"r"`
	Z      float64 `json:"z"`
	Hue    float64 `json:"hue"`
	Color  string  `json:"color"`
}

// Frame é um quadro de nuvem de pontos projetado para uma câmera
type Frame struct {
	Camera   int      `json:"camera"`
	Topic    string   `json:"topic"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Rotation float64  `json:"rotation"`
	Fill     string   `json:"fill"`
	Circles  []Circle `json:"circles"`
}

// Project gira os pontos em torno de Y, projeta ortograficamente com escala 2
// a partir do centro do canvas, descarta o que cai fora e ordena do mais
// distante (z maior) para o mais próximo. Canvas sem área devolve nil.
func Project(points []models.Point, rotation float64, width, height int) []Circle {
	if width <= 0 || height <= 0 {
		return nil
	}

	centerX := float64(width) / 2
	centerY := float64(height) / 2
	cosR := math.Cos(rotation)
	sinR := math.Sin(rotation)

	circles := make([]Circle, 0, len(points))
	for _, p := range points {
		rx := p.X*cosR - p.Z*sinR
		rz := p.X*sinR + p.Z*cosR

		sx := centerX + rx*projectionScale
		sy := centerY + p.Y*projectionScale
		if sx < 0 || sx >= float64(width) || sy < 0 || sy >= float64(height) {
			continue
		}

		circles = append(circles, Circle{
			X:      sx,
			Y:      sy,
			Radius: math.Max(minPointRadius, maxPointRadius-rz*depthFactor),
			Z:      rz,
			Hue:    p.Hue,
			Color:  utils.HSLString(p.Hue, 70, 60),
		})
	}

	sort.SliceStable(circles, func(i, j int) bool {
		return circles[i].Z > circles[j].Z
	})

	return circles
}

// NewFrame projeta os pontos de uma câmera. Retorna nil para canvas sem área,
// e o quadro deve ser pulado.
func NewFrame(camera int, topic string, points []models.Point, rotation float64, width, height int) *Frame {
	circles := Project(points, rotation, width, height)
	if circles == nil {
		return nil
	}
	return &Frame{
		Camera:   camera,
		Topic:    topic,
		Width:    width,
		Height:   height,
		Rotation: rotation,
		Fill:     TrailFill,
		Circles:  circles,
	}
}
