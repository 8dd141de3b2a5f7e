// Package server monta e liga todos os componentes do backend.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"mission_go/internal/api"
	"mission_go/internal/command"
	"mission_go/internal/config"
	"mission_go/internal/discovery"
	"mission_go/internal/mission"
	"mission_go/internal/plc"
	"mission_go/internal/redis"
	"mission_go/internal/telemetry"
	"mission_go/internal/timeutil"
	"mission_go/internal/transport"
	"mission_go/internal/websocket"
	"mission_go/pkg/logger"
)

// Version é a versão anunciada em /info e no mDNS
const Version = "1.0.0"

// Server encapsula o servidor HTTP com todos os componentes
type Server struct {
	config           *config.Config
	clock            timeutil.Clock
	httpServer       *http.Server
	router           *api.Router
	telemetry        *telemetry.Service
	mission          *mission.ViewModel
	transport        transport.Transport
	redisService     *redis.Service
	plcService       *plc.PLCService
	wsHub            *websocket.Hub
	discoveryService *discovery.DiscoveryService
	serverInfo       ServerInfo

	ctx    context.Context
	cancel context.CancelFunc
}

// ServerInfo contém informações sobre o servidor
type ServerInfo struct {
	IP           string
	Port         int
	StartTime    time.Time
	Connections  int
	Version      string
	WebSocketURL string
	APIURL       string
}

// NewServer cria uma nova instância do servidor. Nada é iniciado até Start.
func NewServer(cfg *config.Config) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())

	server := &Server{
		config: cfg,
		clock:  timeutil.RealClock{},
		serverInfo: ServerInfo{
			StartTime: time.Now(),
			Version:   Version,
			Port:      cfg.Server.Port,
			IP:        getLocalIP(),
		},
		ctx:    ctx,
		cancel: cancel,
	}

	server.serverInfo.WebSocketURL = fmt.Sprintf("ws://%s:%d/ws", server.serverInfo.IP, cfg.Server.Port)
	server.serverInfo.APIURL = fmt.Sprintf("http://%s:%d/api", server.serverInfo.IP, cfg.Server.Port)

	if err := server.initComponents(); err != nil {
		cancel()
		return nil, err
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return server, nil
}

// initComponents inicializa todos os componentes do servidor
func (s *Server) initComponents() error {
	s.wsHub = websocket.NewHub()

	// Redis desabilitado ou fora do ar vira modo offline
	redisService, err := redis.NewService(s.config.Redis)
	if err != nil {
		return fmt.Errorf("erro ao inicializar serviço Redis: %w", err)
	}
	s.redisService = redisService

	if s.config.PLC.Enabled {
		s.plcService = plc.NewPLCService(s.config.PLC)
	}

	tr, err := newTransport(s.config, s.clock, s.redisService, s.plcService)
	if err != nil {
		return err
	}
	s.transport = tr

	telemetryService, err := telemetry.NewService(s.config.Telemetry, s.clock, s.wsHub, s.redisService)
	if err != nil {
		return fmt.Errorf("erro ao inicializar telemetria: %w", err)
	}
	s.telemetry = telemetryService

	encoder := command.NewEncoder(s.config.Command.AmountMin, s.config.Command.AmountMax)
	vm, err := mission.New(s.config.Mission, encoder, s.transport, s.clock, s.wsHub, s.redisService)
	if err != nil {
		return fmt.Errorf("erro ao inicializar painel da missão: %w", err)
	}
	s.mission = vm

	s.router = api.NewRouter(api.Dependencies{
		Telemetry: s.telemetry,
		Mission:   s.mission,
		History:   s.redisService,
		ModelPath: s.config.Assets.ModelPath,
		Clock:     s.clock,
	}, "/api")
	s.router.Setup()

	s.wsHub.SetCommandHandler(s.router.APIHandler())
	s.wsHub.SetWelcome(s.router.APIHandler().Welcome)

	if s.config.Discovery.Enabled {
		s.discoveryService = discovery.NewDiscoveryService(s.config.Server.Port, discovery.Info{
			Transport: s.transport.Name(),
			Cameras:   s.config.Telemetry.Cameras,
			APIPath:   "/api",
			WSPath:    "/ws",
		})
	}

	return nil
}

// newTransport escolhe o destino dos comandos conforme a configuração
func newTransport(cfg *config.Config, clock timeutil.Clock, redisService *redis.Service, plcService *plc.PLCService) (transport.Transport, error) {
	switch cfg.Transport.Kind {
	case transport.KindSimulated, "":
		return transport.NewSimulated(clock, cfg.Mission.GoalDelayMin, cfg.Mission.GoalDelayMax, time.Now().UnixNano()), nil
	case transport.KindRedis:
		if redisService == nil {
			return nil, fmt.Errorf("transporte redis exige o serviço Redis")
		}
		if !redisService.IsConnected() {
			logger.Warnf("Transporte redis com Redis offline: comandos vão falhar até a reconexão")
		}
		return transport.NewRedis(redisService), nil
	case transport.KindPLC:
		if plcService == nil {
			return nil, fmt.Errorf("transporte plc exige plc.enabled")
		}
		return transport.NewPLC(plcService), nil
	default:
		return nil, fmt.Errorf("transporte desconhecido: %s", cfg.Transport.Kind)
	}
}

// Start inicia os serviços e bloqueia servindo HTTP até o Shutdown
func (s *Server) Start() error {
	if err := s.startServices(); err != nil {
		return err
	}

	s.logServerInfo()

	logger.Infof("Iniciando servidor HTTP na porta %d", s.config.Server.Port)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("erro ao iniciar servidor HTTP: %w", err)
	}

	return nil
}

// startServices inicia hub, produtores e serviços opcionais
func (s *Server) startServices() error {
	go s.wsHub.Run()

	if err := s.telemetry.Start(s.ctx); err != nil {
		return fmt.Errorf("erro ao iniciar telemetria: %w", err)
	}

	if s.plcService != nil {
		if err := s.plcService.Start(); err != nil {
			logger.Errorf("Erro ao iniciar serviço PLC: %v", err)
		}
	}

	// Não abortar se o mDNS falhar
	if s.discoveryService != nil {
		if err := s.discoveryService.Start(); err != nil {
			logger.Warnf("Erro ao iniciar serviço de descoberta: %v", err)
		}
	}

	return nil
}

// Shutdown encerra graciosamente o servidor e todos os serviços
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Iniciando shutdown do servidor")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("Erro ao encerrar servidor HTTP: %v", err)
	}

	if s.discoveryService != nil {
		s.discoveryService.Stop()
	}

	s.cancel()
	s.telemetry.Stop()
	s.mission.Close()

	if s.plcService != nil {
		s.plcService.Stop()
	}

	s.wsHub.Shutdown()
	s.redisService.Shutdown()

	logger.Info("Shutdown completo")
	return nil
}

// Handler retorna o handler HTTP completo (usado também nos testes)
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// getLocalIP obtém o endereço IP local
func getLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "localhost"
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}

	return "localhost"
}

// GetServerInfo retorna informações sobre o servidor
func (s *Server) GetServerInfo() ServerInfo {
	info := s.serverInfo
	info.Connections = s.wsHub.ClientCount()
	return info
}

// logServerInfo exibe informações do servidor no log
func (s *Server) logServerInfo() {
	logger.Info("===============================================")
	logger.Info("            Mission Control Server             ")
	logger.Info("===============================================")
	logger.Infof("Versão: %s", s.serverInfo.Version)
	logger.Infof("Endereço IP: %s", s.serverInfo.IP)
	logger.Infof("Porta HTTP: %d", s.serverInfo.Port)
	logger.Infof("WebSocket URL: %s", s.serverInfo.WebSocketURL)
	logger.Infof("API URL: %s", s.serverInfo.APIURL)
	logger.Infof("Transporte de comandos: %s", s.transport.Name())
	if s.discoveryService != nil {
		logger.Infof("mDNS: %s.%s.%s",
			s.discoveryService.GetInstanceName(),
			discovery.ServiceType,
			discovery.ServiceDomain)
	}
	logger.Info("===============================================")
	logger.Info("Servidor pronto para conexões!")
}
