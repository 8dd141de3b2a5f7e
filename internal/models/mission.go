package models

import "time"

// ConnectionStatus é o estado simulado do enlace com o robô
type ConnectionStatus string

const (
	ConnectionDisconnected ConnectionStatus = "disconnected"
	ConnectionConnecting   ConnectionStatus = "connecting"
	ConnectionConnected    ConnectionStatus = "connected"
)

// AdvancedSettings corresponde ao painel "Advanced Configuration"
type AdvancedSettings struct {
	BufferSizeMB int  `json:"bufferSizeMb"`
	Compression  bool `json:"compression"`
	RealTime     bool `json:"realTime"`
	Encryption   bool `json:"encryption"`
	MultiFactor  bool `json:"multiFactor"`
	AuditTrail   bool `json:"auditTrail"`
}

// MissionState é o snapshot do estado do painel do operador
type MissionState struct {
	Recording     bool             `json:"recording"`
	MissionTime   int              `json:"missionTime"`
	MissionClock  string           `json:"missionClock"`
	SelectedMode  string           `json:"selectedMode"`
	OperationMode string           `json:"operationMode"`
	OutputFile    string           `json:"outputFile"`
	SaveLocation  string           `json:"saveLocation"`
	Channels      []string         `json:"channels"`
	Advanced      AdvancedSettings `json:"advanced"`
	Connection    ConnectionStatus `json:"connection"`
	GoalStatus    GoalStatus       `json:"goalStatus"`
	LastCommand   *CommandStatus   `json:"lastCommand,omitempty"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}
