package telemetry

import (
	"sync"

	"mission_go/internal/models"
)

// Selection é o conjunto de canais marcados pelo operador, na ordem em que
// foram marcados
type Selection struct {
	mu       sync.RWMutex
	selected []string
}

// NewSelection cria uma seleção inicial. Nomes fora do catálogo são erro.
func NewSelection(initial ...string) (*Selection, error) {
	s := &Selection{}
	if err := s.Set(initial); err != nil {
		return nil, err
	}
	return s, nil
}

// Toggle marca ou desmarca um canal e devolve o novo estado
func (s *Selection) Toggle(name string) (bool, error) {
	if _, err := LookupTopic(name); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.selected {
		if t == name {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return false, nil
		}
	}
	s.selected = append(s.selected, name)
	return true, nil
}

// Set substitui a seleção inteira. Duplicados são ignorados.
func (s *Selection) Set(names []string) error {
	next := make([]string, 0, len(names))
	seen := map[string]bool{}
	for _, name := range names {
		if _, err := LookupTopic(name); err != nil {
			return err
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		next = append(next, name)
	}

	s.mu.Lock()
	s.selected = next
	s.mu.Unlock()
	return nil
}

// Selected retorna uma cópia da seleção atual
func (s *Selection) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.selected))
	copy(out, s.selected)
	return out
}

// IsSelected indica se o canal está marcado
func (s *Selection) IsSelected(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.selected {
		if t == name {
			return true
		}
	}
	return false
}

// ByType filtra a seleção pelo tipo de visualização
func (s *Selection) ByType(kind models.TopicType) []string {
	var out []string
	for _, name := range s.Selected() {
		if t, err := LookupTopic(name); err == nil && t.Type == kind {
			out = append(out, name)
		}
	}
	return out
}
