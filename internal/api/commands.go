package api

import (
	"fmt"

	"mission_go/internal/command"
	"mission_go/internal/models"
	"mission_go/internal/telemetry"
	"mission_go/internal/websocket"
)

// Comandos aceitos pelo WebSocket
const (
	CommandSelectTopics = "select_topics"
	CommandRotate       = "rotate"
	CommandExecute      = "execute_command"
	CommandGetSeries    = "get_series"
	CommandGetStatus    = "get_status"
)

// HandleClientCommand implementa websocket.CommandHandler com a mesma
// lógica dos endpoints REST
func (h *Handler) HandleClientCommand(cmd models.ClientCommand) (string, interface{}, error) {
	params := cmd.Params
	if params == nil {
		params = map[string]interface{}{}
	}

	switch cmd.Command {
	case CommandSelectTopics:
		return h.wsSelectTopics(params)
	case CommandRotate:
		return h.wsRotate(params)
	case CommandExecute:
		status, err := h.mission.Execute(inputFromParams(params))
		if err != nil {
			return "", nil, err
		}
		return models.MessageCommandStatus, status, nil
	case CommandGetSeries:
		topic, _ := websocket.ParamString(params, "topic")
		view, err := h.seriesView(topic)
		if err != nil {
			return "", nil, err
		}
		return models.MessageSeries, view, nil
	case CommandGetStatus:
		return models.MessageMissionState, h.mission.State(), nil
	default:
		return "", nil, fmt.Errorf("comando desconhecido: %s", cmd.Command)
	}
}

// wsSelectTopics aceita {"topics": [...]} para substituir ou {"topic": "..."}
// para alternar um canal
func (h *Handler) wsSelectTopics(params map[string]interface{}) (string, interface{}, error) {
	selection := h.telemetry.Selection()

	if _, ok := params["topics"]; ok {
		topics, err := websocket.ParamStrings(params, "topics")
		if err != nil {
			return "", nil, err
		}
		if err := selection.Set(topics); err != nil {
			return "", nil, err
		}
	} else {
		topic, ok := websocket.ParamString(params, "topic")
		if !ok {
			return "", nil, fmt.Errorf("informe topic ou topics")
		}
		if _, err := selection.Toggle(topic); err != nil {
			return "", nil, err
		}
	}

	return models.MessageSelection, h.selectionView(), nil
}

// wsRotate aplica o arrasto e devolve o quadro já com o novo ângulo
func (h *Handler) wsRotate(params map[string]interface{}) (string, interface{}, error) {
	camera, err := websocket.ParamInt(params, "camera")
	if err != nil {
		return "", nil, err
	}
	deltaX, ok := websocket.ParamFloat(params, "deltaX")
	if !ok {
		return "", nil, errMissingDrag
	}
	if _, ok := params["buttons"]; !ok {
		return "", nil, errMissingDrag
	}
	buttons, err := websocket.ParamInt(params, "buttons")
	if err != nil {
		return "", nil, err
	}

	if _, err := h.telemetry.Rotator().Drag(camera, deltaX, buttons); err != nil {
		return "", nil, err
	}

	frame := h.telemetry.PointCloudFrame(camera, h.clock.Now())
	if frame == nil {
		return "", nil, fmt.Errorf("canvas da câmera %d sem área", camera)
	}
	return models.MessagePointCloudFrame, frame, nil
}

func inputFromParams(params map[string]interface{}) command.Input {
	var in command.Input
	in.Mode, _ = websocket.ParamString(params, "mode")
	in.MotorIDs, _ = websocket.ParamString(params, "motorIds")
	in.MotorGoals, _ = websocket.ParamString(params, "motorGoals")
	in.Position, _ = websocket.ParamString(params, "position")
	in.Vertices, _ = websocket.ParamString(params, "vertices")
	in.Amount, _ = websocket.ParamFloat(params, "amount")
	return in
}

// Welcome monta o estado inicial enviado a cada cliente WebSocket
func (h *Handler) Welcome() interface{} {
	return map[string]interface{}{
		"topics":    telemetry.Topics(),
		"selected":  h.telemetry.Selection().Selected(),
		"rotations": h.telemetry.Rotator().Angles(),
		"mission":   h.mission.State(),
		"modes":     command.Modes(),
	}
}

var _ websocket.CommandHandler = (*Handler)(nil)
