package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mission_go/internal/config"
	"mission_go/internal/models"
	"mission_go/internal/plc"
	"mission_go/internal/redis"
	"mission_go/internal/timeutil"
	"mission_go/internal/transport"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Discovery.Enabled = false
	cfg.Redis.Enabled = false
	cfg.PLC.Enabled = false
	cfg.Server.StaticDir = ""
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	go srv.wsHub.Run()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return srv, ts
}

func getJSON(t *testing.T, url string) map[string]interface{} {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthReportsServices(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	body := getJSON(t, ts.URL+"/health")
	// produtores só começam no Start
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, transport.KindSimulated, body["transport"])

	services := body["services"].(map[string]interface{})
	assert.Equal(t, "disabled", services["redis"])
	assert.Equal(t, "disabled", services["plc"])
	assert.Equal(t, "disabled", services["discovery"])
}

func TestInfo(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	body := getJSON(t, ts.URL+"/info")
	assert.Equal(t, "Mission Control", body["name"])
	assert.Equal(t, Version, body["version"])
	assert.Equal(t, float64(8080), body["port"])
}

func TestAPIMountedUnderServer(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, err := http.Get(ts.URL + "/api/modes")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestWebSocketThroughMiddleware(t *testing.T) {
	srv, ts := newTestServer(t, testConfig())

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var welcome models.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, models.MessageWelcome, welcome.Type)

	// comandos do socket chegam ao painel
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "get_status", "id": "s1"}))

	var reply models.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, models.MessageMissionState, reply.Type)
	assert.Equal(t, "s1", reply.RequestID)
	assert.Equal(t, 1, srv.GetServerInfo().Connections)
}

func TestNewTransport(t *testing.T) {
	clock := timeutil.NewMockClock(time.Now())
	offline, err := redis.NewService(config.Default().Redis)
	require.NoError(t, err)

	cfg := testConfig()
	tr, err := newTransport(cfg, clock, offline, nil)
	require.NoError(t, err)
	assert.Equal(t, transport.KindSimulated, tr.Name())

	cfg.Transport.Kind = transport.KindRedis
	tr, err = newTransport(cfg, clock, offline, nil)
	require.NoError(t, err)
	assert.Equal(t, transport.KindRedis, tr.Name())

	cfg.Transport.Kind = transport.KindPLC
	_, err = newTransport(cfg, clock, offline, nil)
	assert.Error(t, err)

	tr, err = newTransport(cfg, clock, offline, plc.NewPLCService(cfg.PLC))
	require.NoError(t, err)
	assert.Equal(t, transport.KindPLC, tr.Name())

	cfg.Transport.Kind = "carrier-pigeon"
	_, err = newTransport(cfg, clock, offline, nil)
	assert.Error(t, err)
}
