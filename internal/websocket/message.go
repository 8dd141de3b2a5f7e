package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"mission_go/internal/models"
)

// NewMessage embrulha data no envelope padrão
func NewMessage(msgType string, data interface{}) models.WebSocketMessage {
	return models.WebSocketMessage{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewErrorMessage cria uma nova mensagem de erro
func NewErrorMessage(message, errorCode, requestID string) models.WebSocketMessage {
	return models.WebSocketMessage{
		Type:      models.MessageError,
		Timestamp: time.Now(),
		Error:     message,
		RequestID: requestID,
		Data:      map[string]string{"code": errorCode},
	}
}

// SerializeMessage serializa uma mensagem para JSON
func SerializeMessage(message interface{}) ([]byte, error) {
	return json.Marshal(message)
}

// ParseClientCommand analisa um comando recebido do cliente
func ParseClientCommand(data []byte) (models.CommandMessage, error) {
	var command models.CommandMessage
	err := json.Unmarshal(data, &command)
	return command, err
}

// ParamString lê um parâmetro de texto
func ParamString(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key].(string)
	return v, ok
}

// ParamFloat lê um parâmetro numérico (JSON decodifica números como float64)
func ParamFloat(params map[string]interface{}, key string) (float64, bool) {
	v, ok := params[key].(float64)
	return v, ok
}

// ParamInt lê um parâmetro numérico inteiro
func ParamInt(params map[string]interface{}, key string) (int, error) {
	v, ok := ParamFloat(params, key)
	if !ok {
		return 0, fmt.Errorf("parâmetro %q ausente ou não numérico", key)
	}
	if v != float64(int(v)) {
		return 0, fmt.Errorf("parâmetro %q deve ser inteiro", key)
	}
	return int(v), nil
}

// ParamStrings lê uma lista de textos
func ParamStrings(params map[string]interface{}, key string) ([]string, error) {
	raw, ok := params[key].([]interface{})
	if !ok {
		return nil, fmt.Errorf("parâmetro %q deve ser uma lista", key)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("parâmetro %q deve conter apenas textos", key)
		}
		out = append(out, s)
	}
	return out, nil
}
