package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mission_go/internal/command"
	"mission_go/internal/config"
	"mission_go/internal/mission"
	"mission_go/internal/models"
	"mission_go/internal/pointcloud"
	"mission_go/internal/telemetry"
	"mission_go/internal/timeutil"
	"mission_go/internal/transport"
)

var epoch = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

type fakeHistory struct {
	samples []models.Sample
	log     []models.CommandEnvelope
	limit   int
}

func (f *fakeHistory) IsConnected() bool { return true }

func (f *fakeHistory) GetHistory(topic string, limit int) ([]models.Sample, error) {
	f.limit = limit
	return f.samples, nil
}

func (f *fakeHistory) GetCommandLog(limit int) ([]models.CommandEnvelope, error) {
	f.limit = limit
	return f.log, nil
}

type fixture struct {
	clock     *timeutil.MockClock
	telemetry *telemetry.Service
	mission   *mission.ViewModel
	handler   *Handler
	server    http.Handler
}

func newFixture(t *testing.T, history HistoryStore, modelPath string) *fixture {
	t.Helper()

	cfg := config.Default()
	clock := timeutil.NewMockClock(epoch)

	tel, err := telemetry.NewService(cfg.Telemetry, clock, nil, nil)
	require.NoError(t, err)

	tr := transport.NewSimulated(clock, cfg.Mission.GoalDelayMin, cfg.Mission.GoalDelayMax, 1)
	vm, err := mission.New(cfg.Mission, command.NewEncoder(cfg.Command.AmountMin, cfg.Command.AmountMax), tr, clock, nil, nil)
	require.NoError(t, err)
	t.Cleanup(vm.Close)

	router := NewRouter(Dependencies{
		Telemetry: tel,
		Mission:   vm,
		History:   history,
		ModelPath: modelPath,
		Clock:     clock,
	}, "/api")
	router.Setup()

	return &fixture{clock: clock, telemetry: tel, mission: vm, handler: router.handler, server: router.Handler()}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestTopicsShowDefaultSelection(t *testing.T) {
	f := newFixture(t, nil, "")

	rec := f.do(t, http.MethodGet, "/api/topics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var topics []topicView
	decode(t, rec, &topics)
	require.Len(t, topics, 5)

	selected := map[string]bool{}
	for _, tv := range topics {
		selected[tv.Name] = tv.Selected
	}
	assert.True(t, selected[telemetry.TopicIR])
	assert.True(t, selected[telemetry.TopicPointCloud])
	assert.False(t, selected[telemetry.TopicLux])
}

func TestToggleThenReadSeries(t *testing.T) {
	f := newFixture(t, nil, "")

	rec := f.do(t, http.MethodPost, "/api/selection/toggle", map[string]string{"topic": telemetry.TopicLux})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"topic":"/lux","selected":true}`, rec.Body.String())

	for i := 0; i < 3; i++ {
		f.telemetry.ProducePlots(epoch.Add(time.Duration(i) * time.Second))
	}

	rec = f.do(t, http.MethodGet, "/api/series?topic=/lux", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view seriesView
	decode(t, rec, &view)
	assert.Equal(t, telemetry.TopicLux, view.Topic)
	assert.Len(t, view.Samples, 3)
	assert.Equal(t, 20, view.Capacity)
	assert.NotEmpty(t, view.Summary)
}

func TestSelectionRejectsUnknownTopic(t *testing.T) {
	f := newFixture(t, nil, "")

	rec := f.do(t, http.MethodPut, "/api/selection", map[string][]string{"topics": {"/nope"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/selection", map[string][]string{"topics": {telemetry.TopicMotorStatus}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"selected":["/motor_status"]}`, rec.Body.String())
}

func TestSeriesErrors(t *testing.T) {
	f := newFixture(t, nil, "")

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/series", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/series?topic=/nope", nil).Code)
	// imagens não têm janela de amostras
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/series?topic=/camera/cam*/ir", nil).Code)
}

func TestSeriesChartAndPlot(t *testing.T) {
	f := newFixture(t, nil, "")
	_, err := f.telemetry.Selection().Toggle(telemetry.TopicSen66)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		f.telemetry.ProducePlots(epoch.Add(time.Duration(i) * time.Second))
	}

	rec := f.do(t, http.MethodGet, "/api/series/chart?topic=/sen66_data", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "echarts")

	rec = f.do(t, http.MethodGet, "/api/series/plot.png?topic=/sen66_data", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), pngMagic))
}

func TestSeriesHistory(t *testing.T) {
	f := newFixture(t, nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodGet, "/api/series/history?topic=/lux", nil).Code)

	store := &fakeHistory{samples: []models.Sample{{Topic: telemetry.TopicLux, Timestamp: epoch, Values: map[string]float64{"lux": 300}}}}
	f = newFixture(t, store, "")

	rec := f.do(t, http.MethodGet, "/api/series/history?topic=/lux&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, store.limit)

	var samples []models.Sample
	decode(t, rec, &samples)
	assert.Empty(t, cmp.Diff(store.samples, samples))

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/series/history?topic=/lux&limit=x", nil).Code)
}

func TestEncodeCommand(t *testing.T) {
	f := newFixture(t, nil, "")

	rec := f.do(t, http.MethodPost, "/api/encode", command.Input{
		Mode:       "0.1",
		MotorIDs:   "1,2,3",
		MotorGoals: "1000,1500,2000",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"controlMode":5,"motorIds":[1,2,3],"motorGoals":[1000,1500,2000]}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/encode", command.Input{Mode: "1.1", Position: "1,2"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Contains(t, body["error"], "position")
}

func TestEncodeRejectsUnknownFields(t *testing.T) {
	f := newFixture(t, nil, "")
	rec := f.do(t, http.MethodPost, "/api/encode", map[string]string{"mode": "4", "speed": "fast"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteReturnsPending(t *testing.T) {
	f := newFixture(t, nil, "")

	rec := f.do(t, http.MethodPost, "/api/execute", command.Input{Mode: "4", Amount: 10})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var status models.CommandStatus
	decode(t, rec, &status)
	assert.Equal(t, models.GoalPending, status.Status)
	assert.Equal(t, "4", status.Mode)
	assert.Equal(t, transport.KindSimulated, status.Transport)
	assert.Equal(t, models.GoalPending, f.mission.State().GoalStatus)
}

func TestMissionActions(t *testing.T) {
	f := newFixture(t, nil, "")

	rec := f.do(t, http.MethodPost, "/api/mission/deploy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.mission.State().Recording)

	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/api/mission/reset", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/mission/halt", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/mission/reset", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/mission/explode", nil).Code)
}

func TestConnectionAction(t *testing.T) {
	f := newFixture(t, nil, "")

	rec := f.do(t, http.MethodPost, "/api/connection/connect", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ConnectionConnecting, f.mission.State().Connection)

	f.clock.Advance(2 * time.Second)
	assert.Equal(t, models.ConnectionConnected, f.mission.State().Connection)

	f.do(t, http.MethodPost, "/api/connection/disconnect", nil)
	assert.Equal(t, models.ConnectionDisconnected, f.mission.State().Connection)
}

func TestUpdateSettings(t *testing.T) {
	f := newFixture(t, nil, "")

	rec := f.do(t, http.MethodPut, "/api/mission/settings", map[string]interface{}{
		"mode":          "2.3",
		"operationMode": "Manual",
		"channels":      "/a, /b /c",
		"bufferSizeMB":  512,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	state := f.mission.State()
	assert.Equal(t, "2.3", state.SelectedMode)
	assert.Equal(t, mission.OperationManual, state.OperationMode)
	assert.Equal(t, []string{"/a", "/b", "/c"}, state.Channels)
	assert.Equal(t, 512, state.Advanced.BufferSizeMB)
	assert.Equal(t, "mission_data.bag", state.OutputFile)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/api/mission/settings", map[string]int{"bufferSizeMB": 300}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/api/mission/settings", map[string]string{"mode": "9"}).Code)
}

func TestPointCloudEndpoints(t *testing.T) {
	f := newFixture(t, nil, "")

	rec := f.do(t, http.MethodGet, "/api/pointcloud/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var frame pointcloud.Frame
	decode(t, rec, &frame)
	assert.Equal(t, 1, frame.Camera)
	assert.Equal(t, "/camera/cam1/pointcloud", frame.Topic)
	assert.NotEmpty(t, frame.Circles)
	for _, c := range frame.Circles {
		assert.True(t, c.X >= 0 && c.X < 300 && c.Y >= 0 && c.Y < 200)
	}

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/pointcloud/7", nil).Code)

	rec = f.do(t, http.MethodPost, "/api/pointcloud/1/rotate", map[string]float64{"deltaX": 100, "buttons": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"camera":1,"rotation":1}`, rec.Body.String())

	// sem botão pressionado o ângulo não muda
	rec = f.do(t, http.MethodPost, "/api/pointcloud/1/rotate", map[string]float64{"deltaX": 100, "buttons": 0})
	assert.JSONEq(t, `{"camera":1,"rotation":1}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/pointcloud/0/frame.png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), pngMagic))
}

func TestRotateRequiresDragParams(t *testing.T) {
	f := newFixture(t, nil, "")

	rec := f.do(t, http.MethodPost, "/api/pointcloud/1/rotate", map[string]float64{"deltaX": 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/pointcloud/1/rotate", map[string]int{"buttons": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, _, err := f.handler.HandleClientCommand(models.ClientCommand{
		Command: CommandRotate,
		Params:  map[string]interface{}{"camera": float64(1), "deltaX": float64(100)},
	})
	assert.ErrorIs(t, err, errMissingDrag)
	assert.Zero(t, f.telemetry.Rotator().Angle(1))

	// o mesmo arrasto tem o mesmo efeito nos dois canais
	msgType, _, err := f.handler.HandleClientCommand(models.ClientCommand{
		Command: CommandRotate,
		Params:  map[string]interface{}{"camera": float64(1), "deltaX": float64(100), "buttons": float64(1)},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MessagePointCloudFrame, msgType)
	assert.Equal(t, 1.0, f.telemetry.Rotator().Angle(1))

	rec = f.do(t, http.MethodPost, "/api/pointcloud/1/rotate", map[string]float64{"deltaX": 100, "buttons": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"camera":1,"rotation":2}`, rec.Body.String())
}

func TestIREndpoints(t *testing.T) {
	f := newFixture(t, nil, "")

	rec := f.do(t, http.MethodGet, "/api/ir/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var frame models.ImageFrame
	decode(t, rec, &frame)
	assert.Equal(t, "/camera/cam2/ir", frame.Topic)
	assert.True(t, strings.HasPrefix(frame.DataURL, "data:image/png;base64,"))

	rec = f.do(t, http.MethodGet, "/api/ir/3/frame.png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), pngMagic))

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/ir/4/frame.png", nil).Code)
}

func TestModelAsset(t *testing.T) {
	f := newFixture(t, nil, filepath.Join(t.TempDir(), "missing.gltf"))
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/model", nil).Code)

	path := filepath.Join(t.TempDir(), "robot.gltf")
	require.NoError(t, os.WriteFile(path, []byte(`{"asset":{"version":"2.0"}}`), 0o644))

	f = newFixture(t, nil, path)
	rec := f.do(t, http.MethodGet, "/api/model", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "model/gltf+json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"asset":{"version":"2.0"}}`, rec.Body.String())
}

func TestCorsPreflight(t *testing.T) {
	f := newFixture(t, nil, "")

	rec := f.do(t, http.MethodOptions, "/api/execute", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterBuildsChainOnce(t *testing.T) {
	router := NewRouter(Dependencies{Telemetry: newFixture(t, nil, "").telemetry}, "/api")
	router.Setup()

	builds := 0
	router.AddMiddleware(func(next http.Handler) http.Handler {
		builds++
		return next
	})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/topics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, builds)

	router.AddMiddleware(func(next http.Handler) http.Handler { return next })
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/topics", nil))
	assert.Equal(t, 2, builds)
}

func TestCommandLog(t *testing.T) {
	f := newFixture(t, nil, "")
	rec := f.do(t, http.MethodGet, "/api/commands/log", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	store := &fakeHistory{log: []models.CommandEnvelope{{ID: "c1", Mode: "4", IssuedAt: epoch}}}
	f = newFixture(t, store, "")
	rec = f.do(t, http.MethodGet, "/api/commands/log", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, store.limit)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, nil, "")

	rec := f.do(t, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "disconnected", body["connection"])
	assert.Equal(t, "idle", body["goalStatus"])
	assert.Equal(t, false, body["redis"])
	assert.Equal(t, float64(epoch.UnixMilli()), body["timestamp"])
}

func TestStatusForMapping(t *testing.T) {
	_, err := command.ParseMode("7")
	assert.Equal(t, http.StatusBadRequest, statusFor(err))
	assert.Equal(t, http.StatusConflict, statusFor(mission.ErrRecording))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(mission.ErrClosed))
	assert.Equal(t, http.StatusBadGateway, statusFor(assert.AnError))
}
