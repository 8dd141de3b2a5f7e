package websocket

import (
	"context"
	"sync"
	"time"

	"mission_go/internal/models"
	"mission_go/pkg/logger"
)

var log = logger.For("hub")

// CommandHandler executa comandos recebidos dos clientes. O retorno vira a
// resposta enviada apenas ao cliente de origem.
type CommandHandler interface {
	HandleClientCommand(cmd models.ClientCommand) (msgType string, data interface{}, err error)
}

// WelcomeFunc monta o estado inicial enviado a cada cliente novo
type WelcomeFunc func() interface{}

// Stats resume o tráfego do hub
type Stats struct {
	Clients           int     `json:"clients"`
	TotalClients      int64   `json:"totalClients"`
	TotalMessages     int64   `json:"totalMessages"`
	DroppedMessages   int64   `json:"droppedMessages"`
	MessagesPerSecond float64 `json:"messagesPerSecond"`
}

// Hub gerencia todas as conexões WebSocket e distribuição de mensagens
type Hub struct {
	// Clientes registrados
	clients map[*Client]bool

	// Canal para registrar clientes
	register chan *Client

	// Canal para desregistrar clientes
	unregister chan *Client

	// Canal para mensagens de broadcast
	broadcast chan []byte

	// Comando recebido dos clientes
	commands chan models.ClientCommand

	// Protege clients e o fechamento dos canais send
	mu sync.RWMutex

	handler CommandHandler
	welcome WelcomeFunc

	stats struct {
		totalMessages      int64
		totalClients       int64
		droppedMessages    int64
		messagesPerSecond  float64
		lastStatsReset     time.Time
		messagesSinceReset int64
	}
	statsLock sync.Mutex

	// Sinal para encerramento do hub
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub cria uma nova instância do Hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		commands:   make(chan models.ClientCommand, 100),
		ctx:        ctx,
		cancel:     cancel,
	}

	h.stats.lastStatsReset = time.Now()

	return h
}

// SetCommandHandler define quem executa os comandos dos clientes.
// Deve ser chamado antes de Run.
func (h *Hub) SetCommandHandler(handler CommandHandler) {
	h.handler = handler
}

// SetWelcome define o estado inicial enviado na conexão. Deve ser chamado antes de Run.
func (h *Hub) SetWelcome(fn WelcomeFunc) {
	h.welcome = fn
}

// Run inicia o loop principal do hub para gerenciar clientes e mensagens
func (h *Hub) Run() {
	log.Infof("Iniciando WebSocket Hub")

	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			log.Infof("Encerrando WebSocket Hub")
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

			h.statsLock.Lock()
			h.stats.totalClients++
			h.statsLock.Unlock()

			log.Infof("Cliente conectado: %s (%s), total: %d", client.id, client.ipAddress, h.ClientCount())
			h.sendInitialDataToClient(client)

		case client := <-h.unregister:
			if h.removeClient(client) {
				log.Infof("Cliente desconectado: %s, total: %d", client.id, h.ClientCount())
			}

		case message := <-h.broadcast:
			h.fanOut(message)

		case cmd := <-h.commands:
			// comandos podem tocar transporte e Redis; não seguram o loop
			go h.handleClientCommand(cmd)

		case <-statsTicker.C:
			h.updateStats()
		}
	}
}

// fanOut entrega a mensagem a todos os clientes; quem está com o buffer
// cheio é desconectado
func (h *Hub) fanOut(message []byte) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		if h.removeClient(client) {
			log.Warnf("Cliente %s removido: buffer cheio", client.id)
		}
	}

	h.statsLock.Lock()
	h.stats.totalMessages++
	h.stats.messagesSinceReset++
	h.statsLock.Unlock()
}

// removeClient fecha o canal send uma única vez
func (h *Hub) removeClient(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return false
	}
	delete(h.clients, client)
	close(client.send)
	return true
}

// Publish envia uma mensagem a todos os clientes. Nunca bloqueia: com a
// fila cheia a mensagem é descartada e contada.
func (h *Hub) Publish(msgType string, data interface{}) {
	payload, err := SerializeMessage(NewMessage(msgType, data))
	if err != nil {
		log.Errorf("Erro ao serializar mensagem %s: %v", msgType, err)
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.statsLock.Lock()
		h.stats.droppedMessages++
		h.statsLock.Unlock()
	}
}

// sendInitialDataToClient envia a mensagem de boas-vindas com o estado atual
func (h *Hub) sendInitialDataToClient(client *Client) {
	welcome := map[string]interface{}{
		"clientId":   client.id,
		"serverTime": time.Now().UnixMilli(),
	}
	if h.welcome != nil {
		welcome["state"] = h.welcome()
	}

	h.sendToClient(client, NewMessage(models.MessageWelcome, welcome))
}

// handleClientCommand executa o comando e responde só ao cliente de origem
func (h *Hub) handleClientCommand(cmd models.ClientCommand) {
	client := h.getClientByID(cmd.ClientID)
	if client == nil {
		return
	}

	if h.handler == nil {
		h.sendToClient(client, NewErrorMessage("Comando não suportado: "+cmd.Command, "unknown_command", cmd.RequestID))
		return
	}

	msgType, data, err := h.handler.HandleClientCommand(cmd)
	if err != nil {
		log.Debugf("Comando %s do cliente %s falhou: %v", cmd.Command, cmd.ClientID, err)
		h.sendToClient(client, NewErrorMessage(err.Error(), "command_failed", cmd.RequestID))
		return
	}

	msg := NewMessage(msgType, data)
	msg.RequestID = cmd.RequestID
	h.sendToClient(client, msg)
}

// sendToClient envia uma mensagem direta; descarta se o cliente já saiu
// ou está com o buffer cheio
func (h *Hub) sendToClient(client *Client, msg models.WebSocketMessage) {
	payload, err := SerializeMessage(msg)
	if err != nil {
		log.Errorf("Erro ao serializar mensagem para %s: %v", client.id, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.send <- payload:
	default:
		log.Warnf("Buffer do cliente %s cheio, mensagem %s descartada", client.id, msg.Type)
	}
}

func (h *Hub) updateStats() {
	h.statsLock.Lock()
	defer h.statsLock.Unlock()

	elapsed := time.Since(h.stats.lastStatsReset).Seconds()
	if elapsed > 0 {
		h.stats.messagesPerSecond = float64(h.stats.messagesSinceReset) / elapsed
	}
	h.stats.messagesSinceReset = 0
	h.stats.lastStatsReset = time.Now()

	log.Debugf("Estatísticas: %d clientes, %.1f msgs/s, %d descartadas",
		h.ClientCount(), h.stats.messagesPerSecond, h.stats.droppedMessages)
}

// GetStats retorna as estatísticas do hub
func (h *Hub) GetStats() Stats {
	h.statsLock.Lock()
	defer h.statsLock.Unlock()

	return Stats{
		Clients:           h.ClientCount(),
		TotalClients:      h.stats.totalClients,
		TotalMessages:     h.stats.totalMessages,
		DroppedMessages:   h.stats.droppedMessages,
		MessagesPerSecond: h.stats.messagesPerSecond,
	}
}

// Shutdown encerra o hub e desconecta todos os clientes
func (h *Hub) Shutdown() {
	h.cancel()
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// ClientCount retorna o número de clientes conectados
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) getClientByID(id string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.id == id {
			return client
		}
	}
	return nil
}
