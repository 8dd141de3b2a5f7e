package server

import (
	"encoding/json"
	"net/http"
	"time"

	"mission_go/internal/discovery"
	"mission_go/internal/websocket"
)

// setupRoutes adiciona ao roteador da API as rotas do servidor
func (s *Server) setupRoutes() {
	router := s.router.Mux()
	wsHandler := websocket.NewHandler(s.wsHub, s.config.Server.AllowedOrigins...)

	router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	router.HandleFunc("/info", s.infoHandler).Methods(http.MethodGet)

	router.Handle("/ws", wsHandler)
	router.HandleFunc("/ws/health", wsHandler.GetHealthHandler()).Methods(http.MethodGet)

	// Painel estático (opcional)
	if s.config.Server.StaticDir != "" {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.Server.StaticDir)))
	}
}

// healthHandler responde com o status de saúde do servidor
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	telemetryStatus := "ok"
	if !s.telemetry.IsRunning() {
		telemetryStatus = "offline"
	}

	plcStatus := "disabled"
	if s.plcService != nil {
		switch {
		case s.plcService.IsRunning() && s.plcService.IsConnected():
			plcStatus = "ok"
		default:
			plcStatus = "offline"
		}
	}

	redisStatus := "disabled"
	if s.config.Redis.Enabled {
		redisStatus = "ok"
		if !s.redisService.IsConnected() {
			redisStatus = "offline"
		}
	}

	discoveryStatus := "disabled"
	if s.discoveryService != nil {
		discoveryStatus = "ok"
		if !s.discoveryService.IsRunning() {
			discoveryStatus = "offline"
		}
	}

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"transport": s.transport.Name(),
		"services": map[string]string{
			"telemetry": telemetryStatus,
			"redis":     redisStatus,
			"plc":       plcStatus,
			"websocket": "ok",
			"discovery": discoveryStatus,
		},
	}

	// Serviço que carrega os comandos fora do ar degrada o servidor
	if telemetryStatus == "offline" ||
		(s.transport.Name() == "redis" && redisStatus == "offline") ||
		(s.transport.Name() == "plc" && plcStatus == "offline") {
		response["status"] = "degraded"
	}

	json.NewEncoder(w).Encode(response)
}

// infoHandler retorna informações básicas sobre o servidor
func (s *Server) infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	info := s.GetServerInfo()
	uptime := time.Since(info.StartTime).Round(time.Second)

	discoveryInfo := map[string]interface{}{
		"enabled":     s.discoveryService != nil,
		"running":     s.discoveryService != nil && s.discoveryService.IsRunning(),
		"serviceType": discovery.ServiceType,
	}
	if s.discoveryService != nil {
		discoveryInfo["instanceName"] = s.discoveryService.GetInstanceName()
	}

	response := map[string]interface{}{
		"name":        "Mission Control",
		"version":     info.Version,
		"ip":          info.IP,
		"port":        info.Port,
		"websocket":   info.WebSocketURL,
		"api":         info.APIURL,
		"startTime":   info.StartTime,
		"uptime":      uptime.String(),
		"connections": info.Connections,
		"transport":   s.transport.Name(),
		"discovery":   discoveryInfo,
		"hub":         s.wsHub.GetStats(),
	}

	json.NewEncoder(w).Encode(response)
}
