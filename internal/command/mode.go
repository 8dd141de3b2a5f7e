package command

import (
	"strconv"
	"strings"
)

// Categorias de comando
const (
	CategoryMotor        = 0
	CategoryCorePosition = 1
	CategoryGoalPosition = 2
	CategoryVisualTarget = 3
	CategoryCave         = 4
)

// Variantes das categorias que não são de motor
const (
	SubModeNone           = 0
	SubModeCoordinates    = 1
	SubModeVertex         = 2
	SubModeInvertedVertex = 3
)

const (
	maxMotorSubMode      = 2
	maxPositionalSubMode = SubModeInvertedVertex
	motorPositionSubMode = 1
	motorPositionControl = 5
	motorDefaultControl  = 0
)

// Mode é o modo de operação "<categoria>[.<variante>]" já decodificado
type Mode struct {
	Category int
	SubMode  int
}

// ParseMode decodifica "0.1", "2.3", "4"... Categorias e variantes fora da
// tabela conhecida são rejeitadas.
func ParseMode(s string) (Mode, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Mode{}, parseErr("mode", s, "modo vazio", nil)
	}

	catText, subText, hasSub := strings.Cut(raw, ".")

	category, err := strconv.Atoi(catText)
	if err != nil {
		return Mode{}, parseErr("mode", s, "categoria não numérica", err)
	}

	subMode := 0
	if hasSub {
		subMode, err = strconv.Atoi(subText)
		if err != nil {
			return Mode{}, parseErr("mode", s, "variante não numérica", err)
		}
	}

	m := Mode{Category: category, SubMode: subMode}
	if !m.valid() {
		return Mode{}, parseErr("mode", s, "modo desconhecido", nil)
	}
	return m, nil
}

func (m Mode) valid() bool {
	if m.SubMode < 0 {
		return false
	}
	switch {
	case m.Category == CategoryMotor:
		return m.SubMode <= maxMotorSubMode
	case m.Category >= CategoryCorePosition && m.Category <= CategoryCave:
		return m.SubMode <= maxPositionalSubMode
	}
	return false
}

// String retorna a forma canônica ("1" para variante zero)
func (m Mode) String() string {
	if m.SubMode == 0 {
		return strconv.Itoa(m.Category)
	}
	return strconv.Itoa(m.Category) + "." + strconv.Itoa(m.SubMode)
}

// IsMotor indica comando direto de motores
func (m Mode) IsMotor() bool { return m.Category == CategoryMotor }

// NeedsCoordinates indica que o comando leva (x,y,z)
func (m Mode) NeedsCoordinates() bool {
	return !m.IsMotor() && m.SubMode == SubModeCoordinates
}

// NeedsVertices indica que o comando leva uma lista de vértices
func (m Mode) NeedsVertices() bool {
	return !m.IsMotor() && (m.SubMode == SubModeVertex || m.SubMode == SubModeInvertedVertex)
}

// AttachesAmount é falso apenas para 0.1, 0.2, 1.1 e 2.1
func (m Mode) AttachesAmount() bool {
	switch m {
	case Mode{0, 1}, Mode{0, 2}, Mode{1, 1}, Mode{2, 1}:
		return false
	}
	return true
}

// Fields lista os campos de entrada que o modo consome
func (m Mode) Fields() []string {
	var fields []string
	if m.IsMotor() {
		fields = append(fields, "motorIds", "motorGoals")
	}
	if m.NeedsCoordinates() {
		fields = append(fields, "position")
	}
	if m.NeedsVertices() {
		fields = append(fields, "vertices")
	}
	if m.AttachesAmount() {
		fields = append(fields, "amount")
	}
	return fields
}

// ModeInfo descreve um modo selecionável no painel
type ModeInfo struct {
	Value  string   `json:"value"`
	Label  string   `json:"label"`
	Fields []string `json:"fields"`
}

var categoryLabels = map[int]string{
	CategoryMotor:        "Motor",
	CategoryCorePosition: "Core Position",
	CategoryGoalPosition: "Goal Position",
	CategoryVisualTarget: "Visual Target",
	CategoryCave:         "Cave",
}

var motorLabels = []string{"Direct", "Position", "Current"}

var subModeLabels = []string{"", "Coordinates", "Vertex Direction", "Inverted Vertex Direction"}

// Modes retorna o catálogo de modos na ordem do seletor
func Modes() []ModeInfo {
	var out []ModeInfo
	for sub := 0; sub <= maxMotorSubMode; sub++ {
		m := Mode{Category: CategoryMotor, SubMode: sub}
		out = append(out, ModeInfo{
			Value:  m.String(),
			Label:  categoryLabels[CategoryMotor] + ": " + motorLabels[sub],
			Fields: m.Fields(),
		})
	}
	for cat := CategoryCorePosition; cat <= CategoryCave; cat++ {
		for sub := 0; sub <= maxPositionalSubMode; sub++ {
			m := Mode{Category: cat, SubMode: sub}
			label := categoryLabels[cat]
			if sub != SubModeNone {
				label += ": " + subModeLabels[sub]
			}
			out = append(out, ModeInfo{Value: m.String(), Label: label, Fields: m.Fields()})
		}
	}
	return out
}
