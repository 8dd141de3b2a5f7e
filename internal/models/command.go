package models

import "time"

// CommandRecord é a representação estruturada, pronta para transporte, de um
// comando do operador. Campos nulos indicam "não anexado" e somem do JSON.
type CommandRecord struct {
	ControlMode *int        `json:"controlMode,omitempty"`
	RobotMode   *int        `json:"robotMode,omitempty"`
	MotorIDs    []int       `json:"motorIds,omitempty"`
	MotorGoals  []int       `json:"motorGoals,omitempty"`
	Coordinates *[3]float64 `json:"coordinates,omitempty"`
	Vertices    []int       `json:"vertices,omitempty"`
	Inverted    *bool       `json:"inverted,omitempty"`
	Amount      *float64    `json:"amount,omitempty"`
}

// CommandEnvelope acompanha o registro durante o despacho (não faz parte da
// saída do encoder)
type CommandEnvelope struct {
	ID       string        `json:"id"`
	Mode     string        `json:"mode"`
	IssuedAt time.Time     `json:"issuedAt"`
	Record   CommandRecord `json:"record"`
}

// GoalStatus é o estado de um comando despachado
type GoalStatus string

const (
	GoalIdle      GoalStatus = "idle"
	GoalPending   GoalStatus = "pending"
	GoalSucceeded GoalStatus = "succeeded"
	GoalFailed    GoalStatus = "failed"
)

// CommandStatus é publicado a cada transição de um comando despachado
type CommandStatus struct {
	ID        string     `json:"id"`
	Mode      string     `json:"mode"`
	Status    GoalStatus `json:"status"`
	Transport string     `json:"transport"`
	Error     string     `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
