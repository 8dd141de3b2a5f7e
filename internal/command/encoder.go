// Package command converte o modo de operação e os campos de texto do painel
// em um models.CommandRecord pronto para o transporte.
package command

import (
	"math"
	"strconv"
	"strings"

	"mission_go/internal/models"
)

// Input são os valores crus do formulário do operador
type Input struct {
	Mode       string  `json:"mode"`
	MotorIDs   string  `json:"motorIds"`
	MotorGoals string  `json:"motorGoals"`
	Position   string  `json:"position"`
	Vertices   string  `json:"vertices"`
	Amount     float64 `json:"amount"`
}

// Encoder monta registros de comando. É puro e pode ser usado por várias
// goroutines ao mesmo tempo.
type Encoder struct {
	AmountMin float64
	AmountMax float64
}

// NewEncoder cria um encoder com a faixa permitida para amount
func NewEncoder(amountMin, amountMax float64) *Encoder {
	return &Encoder{AmountMin: amountMin, AmountMax: amountMax}
}

// Encode converte a entrada em um registro. Campos que o modo não usa são
// ignorados sem validação.
func (e *Encoder) Encode(in Input) (models.CommandRecord, error) {
	var rec models.CommandRecord

	mode, err := ParseMode(in.Mode)
	if err != nil {
		return rec, err
	}

	if mode.IsMotor() {
		control := motorDefaultControl
		if mode.SubMode == motorPositionSubMode {
			control = motorPositionControl
		}
		rec.ControlMode = &control

		ids, err := parseIntList("motorIds", in.MotorIDs)
		if err != nil {
			return models.CommandRecord{}, err
		}
		goals, err := parseIntList("motorGoals", in.MotorGoals)
		if err != nil {
			return models.CommandRecord{}, err
		}
		if len(goals) != len(ids) {
			return models.CommandRecord{}, parseErr("motorGoals", in.MotorGoals,
				"quantidade de metas diferente da quantidade de motores ("+strconv.Itoa(len(ids))+")", nil)
		}
		rec.MotorIDs = ids
		rec.MotorGoals = goals
	} else {
		robot := robotModeFor(mode.Category)
		rec.RobotMode = &robot

		if mode.NeedsCoordinates() {
			coords, err := parseCoordinates(in.Position)
			if err != nil {
				return models.CommandRecord{}, err
			}
			rec.Coordinates = &coords
		}
		if mode.NeedsVertices() {
			vertices, err := parseIntList("vertices", in.Vertices)
			if err != nil {
				return models.CommandRecord{}, err
			}
			for _, v := range vertices {
				if v < 0 {
					return models.CommandRecord{}, parseErr("vertices", in.Vertices, "índice de vértice negativo", nil)
				}
			}
			inverted := mode.SubMode == SubModeInvertedVertex
			rec.Vertices = vertices
			rec.Inverted = &inverted
		}
	}

	if mode.AttachesAmount() {
		amount := in.Amount
		if math.IsNaN(amount) || math.IsInf(amount, 0) {
			return models.CommandRecord{}, parseErr("amount", formatAmount(amount), "valor não finito", nil)
		}
		if amount < e.AmountMin || amount > e.AmountMax {
			return models.CommandRecord{}, parseErr("amount", formatAmount(amount),
				"fora da faixa ["+formatAmount(e.AmountMin)+", "+formatAmount(e.AmountMax)+"]", nil)
		}
		rec.Amount = &amount
	}

	return rec, nil
}

// robotModeFor preserva o mapeamento histórico 1→0, 2→1, n→n-1
func robotModeFor(category int) int {
	switch category {
	case CategoryCorePosition:
		return 0
	case CategoryGoalPosition:
		return 1
	default:
		return category - 1
	}
}

// splitList aceita "1,2,3" ou "1 2 3". Com vírgula, cada item é aparado e
// itens vazios são erro.
func splitList(field, text string) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, parseErr(field, text, "lista vazia", nil)
	}

	if !strings.Contains(trimmed, ",") {
		return strings.Fields(trimmed), nil
	}

	parts := strings.Split(trimmed, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
		if parts[i] == "" {
			return nil, parseErr(field, text, "item vazio na posição "+strconv.Itoa(i+1), nil)
		}
	}
	return parts, nil
}

func parseIntList(field, text string) ([]int, error) {
	tokens, err := splitList(field, text)
	if err != nil {
		return nil, err
	}

	values := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, parseErr(field, text, "inteiro inválido "+strconv.Quote(tok), err)
		}
		values = append(values, v)
	}
	return values, nil
}

func parseCoordinates(text string) ([3]float64, error) {
	var coords [3]float64

	tokens, err := splitList("position", text)
	if err != nil {
		return coords, err
	}
	if len(tokens) != len(coords) {
		return coords, parseErr("position", text, "esperado x, y e z", nil)
	}

	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return coords, parseErr("position", text, "número inválido "+strconv.Quote(tok), err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return coords, parseErr("position", text, "coordenada não finita", nil)
		}
		coords[i] = v
	}
	return coords, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
