package api

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"
)

// Router gerencia as rotas da API
type Router struct {
	handler     *Handler
	mux         *mux.Router
	basePath    string
	middlewares []Middleware

	chainMu sync.Mutex
	chain   http.Handler
}

// NewRouter cria um novo router para a API
func NewRouter(deps Dependencies, basePath string) *Router {
	// Normalizar base path
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimSuffix(basePath, "/")

	return &Router{
		handler:  NewHandler(deps),
		mux:      mux.NewRouter(),
		basePath: basePath,
		middlewares: []Middleware{
			LoggingMiddleware,
			RecoveryMiddleware,
			CorsMiddleware,
		},
	}
}

// Setup configura todas as rotas
func (r *Router) Setup() {
	api := r.mux.PathPrefix(r.basePath).Subrouter()
	h := r.handler

	api.HandleFunc("/status", h.GetStatus).Methods(http.MethodGet)

	// Canais de telemetria
	api.HandleFunc("/topics", h.GetTopics).Methods(http.MethodGet)
	api.HandleFunc("/selection", h.GetSelection).Methods(http.MethodGet)
	api.HandleFunc("/selection", h.SetSelection).Methods(http.MethodPut)
	api.HandleFunc("/selection/toggle", h.ToggleSelection).Methods(http.MethodPost)
	api.HandleFunc("/series", h.GetSeries).Methods(http.MethodGet)
	api.HandleFunc("/series/history", h.GetSeriesHistory).Methods(http.MethodGet)
	api.HandleFunc("/series/chart", h.GetSeriesChart).Methods(http.MethodGet)
	api.HandleFunc("/series/plot.png", h.GetSeriesPlot).Methods(http.MethodGet)

	// Comandos
	api.HandleFunc("/modes", h.GetModes).Methods(http.MethodGet)
	api.HandleFunc("/encode", h.EncodeCommand).Methods(http.MethodPost)
	api.HandleFunc("/execute", h.ExecuteCommand).Methods(http.MethodPost)
	api.HandleFunc("/commands/log", h.GetCommandLog).Methods(http.MethodGet)

	// Painel da missão
	api.HandleFunc("/mission", h.GetMission).Methods(http.MethodGet)
	api.HandleFunc("/mission/settings", h.UpdateSettings).Methods(http.MethodPut)
	api.HandleFunc("/mission/{action:deploy|halt|reset}", h.MissionAction).Methods(http.MethodPost)
	api.HandleFunc("/connection/{action:connect|disconnect}", h.ConnectionAction).Methods(http.MethodPost)

	// Câmeras e modelo 3D
	api.HandleFunc("/pointcloud/{camera:[0-9]+}", h.GetPointCloud).Methods(http.MethodGet)
	api.HandleFunc("/pointcloud/{camera:[0-9]+}/frame.png", h.GetPointCloudPNG).Methods(http.MethodGet)
	api.HandleFunc("/pointcloud/{camera:[0-9]+}/rotate", h.RotatePointCloud).Methods(http.MethodPost)
	api.HandleFunc("/ir/{camera:[0-9]+}", h.GetIRFrame).Methods(http.MethodGet)
	api.HandleFunc("/ir/{camera:[0-9]+}/frame.png", h.GetIRPNG).Methods(http.MethodGet)
	api.HandleFunc("/model", h.GetModel).Methods(http.MethodGet)

	log.Infof("API configurada com base path: %s", r.basePath)
}

// Mux expõe o roteador para rotas fora da API (/ws, /health, estáticos)
func (r *Router) Mux() *mux.Router {
	return r.mux
}

// Handler retorna o handler HTTP final com todos os middlewares aplicados.
// Os middlewares envolvem o roteador inteiro para que 404, 405 e preflight
// também passem por eles. A cadeia é montada uma vez e refeita só depois de
// AddMiddleware.
func (r *Router) Handler() http.Handler {
	r.chainMu.Lock()
	defer r.chainMu.Unlock()
	if r.chain == nil {
		r.chain = r.applyMiddleware(r.mux)
	}
	return r.chain
}

// AddMiddleware adiciona um novo middleware
func (r *Router) AddMiddleware(middleware Middleware) {
	r.chainMu.Lock()
	defer r.chainMu.Unlock()
	r.middlewares = append(r.middlewares, middleware)
	r.chain = nil
}

func (r *Router) applyMiddleware(handler http.Handler) http.Handler {
	if len(r.middlewares) == 0 {
		return handler
	}
	return Chain(r.middlewares...)(handler)
}

// ServeHTTP implementa a interface http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Handler().ServeHTTP(w, req)
}

// APIHandler retorna os handlers, usados também como CommandHandler do hub
func (r *Router) APIHandler() *Handler {
	return r.handler
}
