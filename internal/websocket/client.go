package websocket

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mission_go/internal/models"
)

const (
	// Tempo permitido para escrever uma mensagem para o peer.
	writeWait = 10 * time.Second

	// Tempo permitido para ler a próxima mensagem do peer.
	pongWait = 60 * time.Second

	// Envia pings ao peer com esse intervalo. Deve ser menor que pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Tamanho máximo da mensagem recebida.
	maxMessageSize = 512 * 1024

	// Quadros de nuvem chegam a 20 Hz por câmera
	sendBufferSize = 512
)

// Client representa uma conexão WebSocket individual
type Client struct {
	hub *Hub

	conn *websocket.Conn

	// Buffer de mensagens para envio. Só o hub fecha.
	send chan []byte

	id string

	userAgent string
	ipAddress string

	connectedAt time.Time
}

func newClient(hub *Hub, conn *websocket.Conn, userAgent, ipAddress string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		id:          uuid.New().String(),
		userAgent:   userAgent,
		ipAddress:   ipAddress,
		connectedAt: time.Now(),
	}
}

// ID retorna o identificador do cliente
func (c *Client) ID() string { return c.id }

// readPump bombeia mensagens do WebSocket para o hub.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				log.Errorf("Erro de leitura WebSocket: %v", err)
			}
			break
		}

		c.processIncomingMessage(message)
	}
}

// writePump bombeia mensagens do hub para a conexão WebSocket.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// O hub fechou o canal.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// uma mensagem por frame: os quadros já são JSON grandes e o
			// painel faz JSON.parse por evento
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processIncomingMessage decodifica o comando e o entrega ao hub
func (c *Client) processIncomingMessage(message []byte) {
	var cmd models.CommandMessage
	decoder := json.NewDecoder(bytes.NewReader(message))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&cmd); err != nil {
		log.Warnf("Erro ao decodificar mensagem do cliente %s: %v", c.id, err)
		c.hub.sendToClient(c, NewErrorMessage("Formato de mensagem inválido", "invalid_format", ""))
		return
	}

	if cmd.Type == models.MessagePing {
		c.handlePing(cmd)
		return
	}

	clientCmd := models.ClientCommand{
		Command:   cmd.Type,
		Params:    cmd.Params,
		RequestID: cmd.ID,
		ClientID:  c.id,
	}

	select {
	case c.hub.commands <- clientCmd:
	case <-c.hub.ctx.Done():
	}
}

// handlePing responde na hora, sem passar pelo hub
func (c *Client) handlePing(cmd models.CommandMessage) {
	var pingTime int64
	if v, ok := ParamFloat(cmd.Params, "time"); ok {
		pingTime = int64(v)
	}

	msg := NewMessage(models.MessagePong, models.PongMessage{
		Time:       pingTime,
		ServerTime: time.Now().UnixMilli(),
	})
	msg.RequestID = cmd.ID
	c.hub.sendToClient(c, msg)
}
