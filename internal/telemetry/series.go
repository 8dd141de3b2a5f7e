package telemetry

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"mission_go/internal/models"
)

// DefaultSeriesCapacity é o tamanho da janela dos gráficos
const DefaultSeriesCapacity = 20

// Series guarda as últimas amostras de um canal, da mais antiga para a mais
// recente. Ao passar da capacidade a mais antiga é descartada.
type Series struct {
	mu       sync.RWMutex
	capacity int
	samples  []models.Sample
}

// NewSeries cria uma série vazia
func NewSeries(capacity int) *Series {
	if capacity <= 0 {
		capacity = DefaultSeriesCapacity
	}
	return &Series{capacity: capacity, samples: make([]models.Sample, 0, capacity)}
}

// Append adiciona uma amostra ao fim
func (s *Series) Append(sample models.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.samples) == s.capacity {
		copy(s.samples, s.samples[1:])
		s.samples = s.samples[:len(s.samples)-1]
	}
	s.samples = append(s.samples, sample)
}

// Samples retorna uma cópia das amostras
func (s *Series) Samples() []models.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Latest retorna a amostra mais recente
func (s *Series) Latest() (models.Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.samples) == 0 {
		return models.Sample{}, false
	}
	return s.samples[len(s.samples)-1], true
}

// Len retorna quantas amostras estão guardadas
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// Capacity retorna o limite da janela
func (s *Series) Capacity() int {
	return s.capacity
}

// Fields retorna os nomes de campo presentes, em ordem alfabética
func (s *Series) Fields() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	for _, sample := range s.samples {
		for k := range sample.Values {
			seen[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Column retorna os valores de um campo ao longo da janela
func (s *Series) Column(field string) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make([]float64, 0, len(s.samples))
	for _, sample := range s.samples {
		if v, ok := sample.Values[field]; ok {
			values = append(values, v)
		}
	}
	return values
}

// Summary calcula média, desvio padrão, mínimo e máximo de cada campo
func (s *Series) Summary() map[string]models.FieldSummary {
	out := map[string]models.FieldSummary{}
	for _, field := range s.Fields() {
		values := s.Column(field)
		if len(values) == 0 {
			continue
		}

		mean, std := stat.MeanStdDev(values, nil)
		if len(values) == 1 {
			std = 0
		}
		out[field] = models.FieldSummary{
			Mean:   mean,
			StdDev: std,
			Min:    floats.Min(values),
			Max:    floats.Max(values),
		}
	}
	return out
}
