package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mission_go/internal/models"
)

type fakeHandler struct {
	got chan models.ClientCommand
}

func (f *fakeHandler) HandleClientCommand(cmd models.ClientCommand) (string, interface{}, error) {
	f.got <- cmd
	if cmd.Command == "explode" {
		return "", nil, errors.New("falhou")
	}
	return models.MessageSelection, map[string]interface{}{"echo": cmd.Params["topic"]}, nil
}

type received struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	RequestID string          `json:"requestId"`
}

func startHub(t *testing.T, handler CommandHandler) (*Hub, *gorilla.Conn) {
	t.Helper()

	hub := NewHub()
	hub.SetCommandHandler(handler)
	hub.SetWelcome(func() interface{} { return map[string]string{"mode": "1"} })
	go hub.Run()

	srv := httptest.NewServer(NewHandler(hub))
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return hub, conn
}

func readMessage(t *testing.T, conn *gorilla.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg received
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWelcomeCarriesState(t *testing.T) {
	_, conn := startHub(t, nil)

	msg := readMessage(t, conn)
	assert.Equal(t, models.MessageWelcome, msg.Type)

	var data struct {
		ClientID string            `json:"clientId"`
		State    map[string]string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.NotEmpty(t, data.ClientID)
	assert.Equal(t, "1", data.State["mode"])
}

func TestPublishReachesClient(t *testing.T) {
	hub, conn := startHub(t, nil)
	readMessage(t, conn)

	hub.Publish(models.MessageSample, map[string]float64{"temperature": 21.5})

	msg := readMessage(t, conn)
	assert.Equal(t, models.MessageSample, msg.Type)
	assert.JSONEq(t, `{"temperature":21.5}`, string(msg.Data))
	assert.Equal(t, 1, hub.ClientCount())
}

func TestPingAnsweredWithRequestID(t *testing.T) {
	_, conn := startHub(t, nil)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":   "ping",
		"id":     "req-1",
		"params": map[string]interface{}{"time": 42},
	}))

	msg := readMessage(t, conn)
	assert.Equal(t, models.MessagePong, msg.Type)
	assert.Equal(t, "req-1", msg.RequestID)

	var pong models.PongMessage
	require.NoError(t, json.Unmarshal(msg.Data, &pong))
	assert.Equal(t, int64(42), pong.Time)
}

func TestCommandRoutedToHandler(t *testing.T) {
	handler := &fakeHandler{got: make(chan models.ClientCommand, 1)}
	_, conn := startHub(t, handler)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":   "select_topics",
		"id":     "req-2",
		"params": map[string]interface{}{"topic": "/motors"},
	}))

	cmd := <-handler.got
	assert.Equal(t, "select_topics", cmd.Command)
	assert.NotEmpty(t, cmd.ClientID)

	msg := readMessage(t, conn)
	assert.Equal(t, models.MessageSelection, msg.Type)
	assert.Equal(t, "req-2", msg.RequestID)
	assert.JSONEq(t, `{"echo":"/motors"}`, string(msg.Data))
}

func TestCommandErrorBecomesErrorMessage(t *testing.T) {
	handler := &fakeHandler{got: make(chan models.ClientCommand, 1)}
	_, conn := startHub(t, handler)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "explode", "id": "req-3"}))
	<-handler.got

	msg := readMessage(t, conn)
	assert.Equal(t, models.MessageError, msg.Type)
	assert.Equal(t, "falhou", msg.Error)
	assert.Equal(t, "req-3", msg.RequestID)
}

func TestUnknownFieldsRejected(t *testing.T) {
	_, conn := startHub(t, nil)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "ping", "bogus": true}))

	msg := readMessage(t, conn)
	assert.Equal(t, models.MessageError, msg.Type)
	assert.JSONEq(t, `{"code":"invalid_format"}`, string(msg.Data))
}

func TestPublishWithoutRunDoesNotBlock(t *testing.T) {
	hub := NewHub()
	for i := 0; i < 300; i++ {
		hub.Publish(models.MessageSample, i)
	}
	assert.Equal(t, int64(300-256), hub.GetStats().DroppedMessages)
}

func TestAllowedOrigins(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(NewHandler(hub, "http://painel.local:3000/"))
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := gorilla.DefaultDialer.Dial(url, http.Header{"Origin": {"http://outro.local"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := gorilla.DefaultDialer.Dial(url, http.Header{"Origin": {"http://painel.local:3000"}})
	require.NoError(t, err)
	conn.Close()
}

func TestParamHelpers(t *testing.T) {
	params := map[string]interface{}{
		"n":      float64(3),
		"f":      1.5,
		"topics": []interface{}{"/a", "/b"},
		"mixed":  []interface{}{"/a", 1.0},
	}

	n, err := ParamInt(params, "n")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = ParamInt(params, "f")
	assert.Error(t, err)
	_, err = ParamInt(params, "missing")
	assert.Error(t, err)

	topics, err := ParamStrings(params, "topics")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, topics)

	_, err = ParamStrings(params, "mixed")
	assert.Error(t, err)
}
