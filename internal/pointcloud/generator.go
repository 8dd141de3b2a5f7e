// Package pointcloud gera nuvens de pontos sintéticas por câmera e as projeta
// no canvas 2D do painel.
package pointcloud

import (
	"math"
	"math/rand"
	"sync"

	"mission_go/internal/models"
)

// DefaultNumPoints é a quantidade de pontos por nuvem
const DefaultNumPoints = 1000

const (
	baseRadius   = 50.0
	radiusNoise  = 20.0
	radiusWobble = 10.0
	hueSpan      = 30.0
	hueRange     = 240.0
)

// Generator produz esferas ruidosas cujo raio oscila no tempo
type Generator struct {
	NumPoints int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator cria um gerador com semente fixa (útil em testes) ou aleatória
// quando seed == 0
func NewGenerator(numPoints int, seed int64) *Generator {
	if numPoints <= 0 {
		numPoints = DefaultNumPoints
	}
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Generator{NumPoints: numPoints, rng: rand.New(rand.NewSource(seed))}
}

// Generate devolve uma nuvem nova para a câmera no instante timeMs (ms).
// Todo ponto tem 40 <= |p| < 80.
func (g *Generator) Generate(camera int, timeMs float64) []models.Point {
	g.mu.Lock()
	defer g.mu.Unlock()

	wobble := math.Sin(timeMs*0.001+float64(camera)) * radiusWobble

	points := make([]models.Point, g.NumPoints)
	for i := range points {
		theta := g.rng.Float64() * 2 * math.Pi
		phi := g.rng.Float64() * math.Pi
		radius := baseRadius + g.rng.Float64()*radiusNoise + wobble

		x := radius * math.Sin(phi) * math.Cos(theta)
		y := radius * math.Sin(phi) * math.Sin(theta)
		z := radius * math.Cos(phi)

		distance := math.Sqrt(x*x + y*y + z*z)

		// sem clamp: pode sair de [0,240] e o matiz é cíclico
		points[i] = models.Point{
			X:   x,
			Y:   y,
			Z:   z,
			Hue: (distance - baseRadius) / hueSpan * hueRange,
		}
	}
	return points
}
