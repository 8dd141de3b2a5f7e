package telemetry

import (
	"math/rand"
	"sync"
	"time"

	"mission_go/internal/models"
)

// Source produz amostras de um canal de gráfico. Fontes reais de sensores
// implementam a mesma interface.
type Source interface {
	Topic() string
	NextSample(now time.Time) models.Sample
}

// fieldRange gera base + U(0,span)
type fieldRange struct {
	name string
	base float64
	span float64
}

// SimulatedSource sorteia cada campo de maneira uniforme na sua faixa
type SimulatedSource struct {
	topic  string
	fields []fieldRange

	mu  sync.Mutex
	rng *rand.Rand
}

func newSimulated(topic string, seed int64, fields []fieldRange) *SimulatedSource {
	if seed == 0 {
		seed = rand.Int63()
	}
	return &SimulatedSource{topic: topic, fields: fields, rng: rand.New(rand.NewSource(seed))}
}

// NewMotorSource simula /motor_status
func NewMotorSource(seed int64) *SimulatedSource {
	return newSimulated(TopicMotorStatus, seed, []fieldRange{
		{"motor0_pos", 0, 1000},
		{"motor1_pos", 0, 1000},
		{"motor0_current", 0, 100},
		{"motor1_current", 0, 100},
	})
}

// NewLuxSource simula /lux
func NewLuxSource(seed int64) *SimulatedSource {
	return newSimulated(TopicLux, seed, []fieldRange{
		{"oxygen", 20, 2},
		{"temperature", 22, 5},
		{"pressure", 1013, 10},
		{"percentage", 0, 100},
	})
}

// NewSen66Source simula /sen66_data
func NewSen66Source(seed int64) *SimulatedSource {
	return newSimulated(TopicSen66, seed, []fieldRange{
		{"pm1p0", 0, 50},
		{"pm2p5", 0, 75},
		{"pm10p0", 0, 100},
		{"humidity", 40, 20},
		{"temperature", 20, 10},
		{"co2", 400, 200},
	})
}

// DefaultSources retorna as três fontes simuladas
func DefaultSources() []Source {
	return []Source{NewMotorSource(0), NewLuxSource(0), NewSen66Source(0)}
}

// Topic retorna o canal da fonte
func (s *SimulatedSource) Topic() string { return s.topic }

// NextSample sorteia uma nova leitura
func (s *SimulatedSource) NextSample(now time.Time) models.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make(map[string]float64, len(s.fields))
	for _, f := range s.fields {
		values[f.name] = f.base + s.rng.Float64()*f.span
	}
	return models.Sample{Topic: s.topic, Timestamp: now, Values: values}
}
