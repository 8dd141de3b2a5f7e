package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"mission_go/internal/command"
	"mission_go/internal/mission"
	"mission_go/internal/models"
)

// MissionSettings é uma atualização parcial do painel; campos ausentes
// não mudam
type MissionSettings struct {
	Mode          *string                  `json:"mode,omitempty"`
	OperationMode *string                  `json:"operationMode,omitempty"`
	OutputFile    *string                  `json:"outputFile,omitempty"`
	SaveLocation  *string                  `json:"saveLocation,omitempty"`
	Channels      *string                  `json:"channels,omitempty"`
	Advanced      *models.AdvancedSettings `json:"advanced,omitempty"`
	BufferSizeMB  *int                     `json:"bufferSizeMB,omitempty"`
}

// GetModes lista os modos de operação e os campos que cada um usa
func (h *Handler) GetModes(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, command.Modes())
}

// EncodeCommand codifica sem despachar
func (h *Handler) EncodeCommand(w http.ResponseWriter, r *http.Request) {
	var in command.Input
	if !h.decodeJSON(w, r, &in) {
		return
	}

	record, err := h.mission.Encode(in)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, record)
}

// ExecuteCommand codifica e despacha; o resultado chega por WebSocket
func (h *Handler) ExecuteCommand(w http.ResponseWriter, r *http.Request) {
	var in command.Input
	if !h.decodeJSON(w, r, &in) {
		return
	}

	status, err := h.mission.Execute(in)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusAccepted, status)
}

// GetCommandLog retorna os últimos comandos publicados no Redis
func (h *Handler) GetCommandLog(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.history == nil {
		h.respondWithJSON(w, http.StatusOK, []models.CommandEnvelope{})
		return
	}

	entries, err := h.history.GetCommandLog(limit)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	if entries == nil {
		entries = []models.CommandEnvelope{}
	}

	h.respondWithJSON(w, http.StatusOK, entries)
}

// GetMission retorna o estado do painel
func (h *Handler) GetMission(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.mission.State())
}

// MissionAction executa deploy, halt ou reset
func (h *Handler) MissionAction(w http.ResponseWriter, r *http.Request) {
	var err error
	switch mux.Vars(r)["action"] {
	case "deploy":
		err = h.mission.Deploy()
	case "halt":
		err = h.mission.Halt()
	case "reset":
		err = h.mission.Reset()
	}
	if err != nil {
		h.respondWithErr(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, h.mission.State())
}

// ConnectionAction conecta ou desconecta o robô simulado
func (h *Handler) ConnectionAction(w http.ResponseWriter, r *http.Request) {
	var err error
	switch mux.Vars(r)["action"] {
	case "connect":
		err = h.mission.Connect()
	case "disconnect":
		err = h.mission.Disconnect()
	}
	if err != nil {
		h.respondWithErr(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, h.mission.State())
}

// UpdateSettings aplica os campos presentes em ordem; o primeiro erro
// interrompe e os anteriores já ficam aplicados
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body MissionSettings
	if !h.decodeJSON(w, r, &body) {
		return
	}

	if err := applySettings(h.mission, body); err != nil {
		h.respondWithErr(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, h.mission.State())
}

func applySettings(vm *mission.ViewModel, s MissionSettings) error {
	if s.Mode != nil {
		if err := vm.SetMode(*s.Mode); err != nil {
			return err
		}
	}
	if s.OperationMode != nil {
		if err := vm.SetOperationMode(*s.OperationMode); err != nil {
			return err
		}
	}
	if s.OutputFile != nil || s.SaveLocation != nil {
		var file, location string
		if s.OutputFile != nil {
			file = *s.OutputFile
		}
		if s.SaveLocation != nil {
			location = *s.SaveLocation
		}
		if err := vm.SetOutput(file, location); err != nil {
			return err
		}
	}
	if s.Channels != nil {
		if err := vm.SetChannels(mission.ParseChannels(*s.Channels)); err != nil {
			return err
		}
	}
	if s.Advanced != nil {
		if err := vm.SetAdvanced(*s.Advanced); err != nil {
			return err
		}
	}
	if s.BufferSizeMB != nil {
		if err := vm.SetBufferSize(*s.BufferSizeMB); err != nil {
			return err
		}
	}
	return nil
}
