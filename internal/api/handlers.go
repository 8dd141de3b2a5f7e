// Package api expõe a telemetria, o encoder de comandos e o painel da missão
// via REST.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"mission_go/internal/command"
	"mission_go/internal/mission"
	"mission_go/internal/models"
	"mission_go/internal/pointcloud"
	"mission_go/internal/redis"
	"mission_go/internal/telemetry"
	"mission_go/internal/timeutil"
	"mission_go/pkg/logger"
)

var log = logger.For("api")

// maxBodyBytes limita o corpo das requisições JSON
const maxBodyBytes = 1 << 20

// HistoryStore lê o histórico persistido (Service do Redis)
type HistoryStore interface {
	IsConnected() bool
	GetHistory(topic string, limit int) ([]models.Sample, error)
	GetCommandLog(limit int) ([]models.CommandEnvelope, error)
}

// Dependencies reúne os serviços usados pelos handlers. History e Clock
// podem ser nil.
type Dependencies struct {
	Telemetry *telemetry.Service
	Mission   *mission.ViewModel
	History   HistoryStore
	ModelPath string
	Clock     timeutil.Clock
}

// Handler contém os handlers HTTP para a API
type Handler struct {
	telemetry *telemetry.Service
	mission   *mission.ViewModel
	history   HistoryStore
	modelPath string
	clock     timeutil.Clock
}

// NewHandler cria um novo handler de API
func NewHandler(deps Dependencies) *Handler {
	clock := deps.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Handler{
		telemetry: deps.Telemetry,
		mission:   deps.Mission,
		history:   deps.History,
		modelPath: deps.ModelPath,
		clock:     clock,
	}
}

// topicView é um canal do catálogo com o estado de seleção
type topicView struct {
	models.Topic
	Selected bool `json:"selected"`
}

// seriesView é a janela de um canal com o resumo estatístico
type seriesView struct {
	Topic    string                         `json:"topic"`
	Capacity int                            `json:"capacity"`
	Samples  []models.Sample                `json:"samples"`
	Summary  map[string]models.FieldSummary `json:"summary"`
}

// GetStatus retorna o estado geral do servidor
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	state := h.mission.State()

	response := map[string]interface{}{
		"telemetry":  h.telemetry.GetStats(),
		"connection": state.Connection,
		"goalStatus": state.GoalStatus,
		"recording":  state.Recording,
		"redis":      h.history != nil && h.history.IsConnected(),
		"timestamp":  h.clock.Now().UnixMilli(),
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// GetTopics lista o catálogo de canais
func (h *Handler) GetTopics(w http.ResponseWriter, r *http.Request) {
	selection := h.telemetry.Selection()

	topics := telemetry.Topics()
	out := make([]topicView, 0, len(topics))
	for _, t := range topics {
		out = append(out, topicView{Topic: t, Selected: selection.IsSelected(t.Name)})
	}

	h.respondWithJSON(w, http.StatusOK, out)
}

// GetSelection retorna os canais marcados
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.selectionView())
}

// SetSelection substitui a seleção: {"topics": [...]}
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Topics []string `json:"topics"`
	}
	if !h.decodeJSON(w, r, &body) {
		return
	}

	if err := h.telemetry.Selection().Set(body.Topics); err != nil {
		h.respondWithErr(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, h.selectionView())
}

// ToggleSelection marca ou desmarca um canal: {"topic": "..."}
func (h *Handler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Topic string `json:"topic"`
	}
	if !h.decodeJSON(w, r, &body) {
		return
	}

	selected, err := h.telemetry.Selection().Toggle(body.Topic)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"topic":    body.Topic,
		"selected": selected,
	})
}

func (h *Handler) selectionView() map[string]interface{} {
	return map[string]interface{}{"selected": h.telemetry.Selection().Selected()}
}

// GetSeries retorna a janela em memória de um canal de gráfico
func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	view, err := h.seriesView(r.URL.Query().Get("topic"))
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, view)
}

func (h *Handler) seriesView(topic string) (seriesView, error) {
	if topic == "" {
		return seriesView{}, errMissingTopic
	}
	series, err := h.telemetry.Series(topic)
	if err != nil {
		return seriesView{}, err
	}
	return seriesView{
		Topic:    topic,
		Capacity: series.Capacity(),
		Samples:  series.Samples(),
		Summary:  series.Summary(),
	}, nil
}

// GetSeriesHistory retorna o histórico longo guardado no Redis
func (h *Handler) GetSeriesHistory(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		h.respondWithErr(w, errMissingTopic)
		return
	}
	if _, err := h.telemetry.Series(topic); err != nil {
		h.respondWithErr(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.history == nil {
		h.respondWithErr(w, redis.ErrOffline)
		return
	}

	samples, err := h.history.GetHistory(topic, limit)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	if samples == nil {
		samples = []models.Sample{}
	}

	h.respondWithJSON(w, http.StatusOK, samples)
}

// GetSeriesChart renderiza a janela do canal como gráfico HTML interativo
func (h *Handler) GetSeriesChart(w http.ResponseWriter, r *http.Request) {
	view, err := h.seriesView(r.URL.Query().Get("topic"))
	if err != nil {
		h.respondWithErr(w, err)
		return
	}

	page, err := renderSeriesChart(view.Topic, view.Samples)
	if err != nil {
		log.Errorf("Erro ao renderizar gráfico de %s: %v", view.Topic, err)
		h.respondWithError(w, http.StatusInternalServerError, "Erro ao renderizar gráfico")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

// GetSeriesPlot renderiza a janela do canal como PNG
func (h *Handler) GetSeriesPlot(w http.ResponseWriter, r *http.Request) {
	view, err := h.seriesView(r.URL.Query().Get("topic"))
	if err != nil {
		h.respondWithErr(w, err)
		return
	}

	img, err := renderSeriesPlot(view.Topic, view.Samples)
	if err != nil {
		log.Errorf("Erro ao renderizar plot de %s: %v", view.Topic, err)
		h.respondWithError(w, http.StatusInternalServerError, "Erro ao renderizar plot")
		return
	}

	h.respondWithPNG(w, img)
}

var (
	errMissingTopic = errors.New("parâmetro topic obrigatório")
	errMissingDrag  = errors.New("deltaX e buttons são obrigatórios")
)

// statusFor traduz os erros do domínio para códigos HTTP
func statusFor(err error) int {
	var parseErr *command.ParseError
	switch {
	case errors.As(err, &parseErr),
		errors.Is(err, mission.ErrInvalidSetting),
		errors.Is(err, errMissingTopic),
		errors.Is(err, errMissingDrag):
		return http.StatusBadRequest
	case errors.Is(err, mission.ErrRecording):
		return http.StatusConflict
	case errors.Is(err, telemetry.ErrUnknownTopic),
		errors.Is(err, pointcloud.ErrUnknownCamera):
		return http.StatusNotFound
	case errors.Is(err, mission.ErrClosed),
		errors.Is(err, redis.ErrOffline):
		return http.StatusServiceUnavailable
	default:
		// falha de Redis ou PLC conectados
		return http.StatusBadGateway
	}
}

// respondWithErr responde com o status derivado do erro
func (h *Handler) respondWithErr(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Warnf("Erro na requisição: %v", err)
	}
	h.respondWithError(w, code, err.Error())
}

// respondWithError responde com erro em formato JSON
func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON responde com JSON
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("Erro ao codificar resposta JSON: %v", err)
		fmt.Fprintf(w, `{"error":"Erro interno ao processar resposta"}`)
	}
}

func (h *Handler) respondWithPNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// decodeJSON lê o corpo da requisição; responde 400 e devolve false em caso de erro
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "JSON inválido: "+err.Error())
		return false
	}
	return true
}

// queryInt lê um inteiro opcional da query string
func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("parâmetro %s inválido: %q", key, raw)
	}
	return v, nil
}
