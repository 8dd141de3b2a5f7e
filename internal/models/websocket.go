package models

import "time"

// Tipos de mensagem enviados pelo servidor
const (
	MessageWelcome         = "welcome"
	MessageSample          = "sample"
	MessageImageFrame      = "ir_frame"
	MessagePointCloudFrame = "pointcloud_frame"
	MessageMissionState    = "mission_state"
	MessageCommandStatus   = "command_status"
	MessageSeries          = "series"
	MessageSelection       = "selection"
	MessagePing            = "ping"
	MessagePong            = "pong"
	MessageError           = "error"
)

// WebSocketMessage representa a estrutura base de todas as mensagens WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
}

// CommandMessage é uma mensagem de comando do cliente para o servidor
type CommandMessage struct {
	Type   string                 `json:"type"`
	Params map[string]interface{} `json:"params,omitempty"`
	ID     string                 `json:"id,omitempty"`
}

// ClientCommand é um CommandMessage já associado ao cliente de origem
type ClientCommand struct {
	Command   string
	Params    map[string]interface{}
	RequestID string
	ClientID  string
}

// PongMessage responde a um ping do cliente
type PongMessage struct {
	Time       int64 `json:"time"`
	ServerTime int64 `json:"serverTime"`
}
