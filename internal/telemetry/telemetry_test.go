package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mission_go/internal/config"
	"mission_go/internal/models"
	"mission_go/internal/pointcloud"
	"mission_go/internal/timeutil"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu       sync.Mutex
	messages map[string][]interface{}
}

func newRecorder() *recorder {
	return &recorder{messages: map[string][]interface{}{}}
}

func (r *recorder) Publish(msgType string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[msgType] = append(r.messages[msgType], data)
}

func (r *recorder) count(msgType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages[msgType])
}

type memoryStore struct {
	mu      sync.Mutex
	samples []models.Sample
	fail    bool
}

func (m *memoryStore) IsConnected() bool { return true }

func (m *memoryStore) WriteSample(sample models.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("offline")
	}
	m.samples = append(m.samples, sample)
	return nil
}

func testConfig() config.TelemetryConfig {
	cfg := config.Default().Telemetry
	cfg.ImageWidth = 8
	cfg.ImageHeight = 6
	cfg.PointsPerCloud = 50
	return cfg
}

func TestSeriesEvictsOldest(t *testing.T) {
	s := NewSeries(20)
	for i := 0; i < 25; i++ {
		s.Append(models.Sample{Timestamp: epoch.Add(time.Duration(i) * time.Second), Values: map[string]float64{"v": float64(i)}})
	}

	require.Equal(t, 20, s.Len())
	samples := s.Samples()
	assert.Equal(t, 5.0, samples[0].Values["v"])
	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, 24.0, latest.Values["v"])
}

func TestSeriesSummary(t *testing.T) {
	s := NewSeries(0)
	assert.Equal(t, DefaultSeriesCapacity, s.Capacity())
	_, ok := s.Latest()
	assert.False(t, ok)

	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Append(models.Sample{Values: map[string]float64{"a": v}})
	}
	s.Append(models.Sample{Values: map[string]float64{"b": 1}})

	summary := s.Summary()
	assert.InDelta(t, 5.0, summary["a"].Mean, 1e-12)
	assert.InDelta(t, 2.138, summary["a"].StdDev, 1e-3)
	assert.Equal(t, 2.0, summary["a"].Min)
	assert.Equal(t, 9.0, summary["a"].Max)
	assert.Equal(t, models.FieldSummary{Mean: 1, Min: 1, Max: 1}, summary["b"])
	assert.Equal(t, []string{"a", "b"}, s.Fields())
}

func TestSelectionToggle(t *testing.T) {
	sel, err := NewSelection()
	require.NoError(t, err)

	on, err := sel.Toggle(TopicLux)
	require.NoError(t, err)
	assert.True(t, on)
	_, _ = sel.Toggle(TopicIR)
	assert.Equal(t, []string{TopicLux, TopicIR}, sel.Selected())
	assert.Equal(t, []string{TopicLux}, sel.ByType(models.TopicPlot))

	on, _ = sel.Toggle(TopicLux)
	assert.False(t, on)
	assert.False(t, sel.IsSelected(TopicLux))

	_, err = sel.Toggle("/nada")
	assert.ErrorIs(t, err, ErrUnknownTopic)

	require.NoError(t, sel.Set([]string{TopicSen66, TopicSen66}))
	assert.Equal(t, []string{TopicSen66}, sel.Selected())
	assert.ErrorIs(t, sel.Set([]string{"/x"}), ErrUnknownTopic)
}

func TestCameraTopics(t *testing.T) {
	assert.Len(t, Topics(), 5)
	assert.Equal(t, "/camera/cam3/ir", CameraTopic(TopicIR, 3))

	pattern, cam, err := ParseCameraTopic("/camera/cam2/pointcloud")
	require.NoError(t, err)
	assert.Equal(t, TopicPointCloud, pattern)
	assert.Equal(t, 2, cam)

	_, _, err = ParseCameraTopic("/camera/camx/ir")
	assert.ErrorIs(t, err, ErrUnknownTopic)
}

func TestSimulatedSourceRanges(t *testing.T) {
	ranges := map[string][2]float64{
		"oxygen": {20, 22}, "temperature": {22, 27}, "pressure": {1013, 1023}, "percentage": {0, 100},
	}
	src := NewLuxSource(9)
	for i := 0; i < 200; i++ {
		sample := src.NextSample(epoch)
		assert.Equal(t, TopicLux, sample.Topic)
		for k, r := range ranges {
			assert.GreaterOrEqual(t, sample.Values[k], r[0], k)
			assert.Less(t, sample.Values[k], r[1], k)
		}
	}

	sen := NewSen66Source(1).NextSample(epoch)
	assert.Len(t, sen.Values, 6)
	assert.GreaterOrEqual(t, sen.Values["co2"], 400.0)
	motor := NewMotorSource(1).NextSample(epoch)
	assert.Less(t, motor.Values["motor0_current"], 100.0)
}

func TestProducePlotsOnlySelected(t *testing.T) {
	rec := newRecorder()
	store := &memoryStore{}
	svc, err := NewService(testConfig(), timeutil.NewMockClock(epoch), rec, store)
	require.NoError(t, err)
	svc.SetAsyncStore(false)

	svc.ProducePlots(epoch)
	assert.Zero(t, rec.count(models.MessageSample))

	_, _ = svc.Selection().Toggle(TopicMotorStatus)
	for i := 0; i < 22; i++ {
		svc.ProducePlots(epoch.Add(time.Duration(i) * time.Second))
	}

	assert.Equal(t, 22, rec.count(models.MessageSample))
	series, err := svc.Series(TopicMotorStatus)
	require.NoError(t, err)
	assert.Equal(t, 20, series.Len())
	lux, _ := svc.Series(TopicLux)
	assert.Zero(t, lux.Len())
	assert.Len(t, store.samples, 22)

	stats := svc.GetStats()
	assert.EqualValues(t, 22, stats.PlotSamples)
	assert.EqualValues(t, 1, stats.SkippedTicks)

	_, err = svc.Series(TopicIR)
	assert.ErrorIs(t, err, ErrUnknownTopic)
}

func TestStoreErrorsAreCounted(t *testing.T) {
	svc, err := NewService(testConfig(), nil, nil, &memoryStore{fail: true})
	require.NoError(t, err)
	svc.SetAsyncStore(false)
	_, _ = svc.Selection().Toggle(TopicLux)

	svc.ProducePlots(epoch)
	assert.EqualValues(t, 1, svc.GetStats().StoreErrors)
}

func TestProduceCameraFrames(t *testing.T) {
	rec := newRecorder()
	svc, err := NewService(testConfig(), nil, rec, nil)
	require.NoError(t, err)

	svc.ProduceImages(epoch)
	svc.ProducePointClouds(epoch)
	assert.Equal(t, 4, rec.count(models.MessageImageFrame))
	assert.Equal(t, 4, rec.count(models.MessagePointCloudFrame))

	frame := rec.messages[models.MessagePointCloudFrame][3].(*pointcloud.Frame)
	assert.Equal(t, "/camera/cam3/pointcloud", frame.Topic)
	img := rec.messages[models.MessageImageFrame][0].(models.ImageFrame)
	assert.Equal(t, "/camera/cam0/ir", img.Topic)

	require.NoError(t, svc.Selection().Set(nil))
	svc.ProduceImages(epoch)
	assert.Equal(t, 4, rec.count(models.MessageImageFrame))
}

func TestPointCloudFrameUsesRotation(t *testing.T) {
	svc, err := NewService(testConfig(), nil, nil, nil)
	require.NoError(t, err)

	_, err = svc.Rotator().Drag(1, 100, 1)
	require.NoError(t, err)

	frame := svc.PointCloudFrame(1, epoch)
	require.NotNil(t, frame)
	assert.InDelta(t, 1.0, frame.Rotation, 1e-12)
	assert.Nil(t, svc.PointCloudFrame(9, epoch))

	_, err = svc.ImagePNG(-1)
	assert.ErrorIs(t, err, pointcloud.ErrUnknownCamera)
}

func TestZeroCanvasSkipsFrames(t *testing.T) {
	cfg := testConfig()
	cfg.CanvasWidth = 0
	rec := newRecorder()
	svc, err := NewService(cfg, nil, rec, nil)
	require.NoError(t, err)

	svc.ProducePointClouds(epoch)
	assert.Zero(t, rec.count(models.MessagePointCloudFrame))
}

func TestServiceRunsOnClock(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	rec := newRecorder()
	svc, err := NewService(testConfig(), clock, rec, nil)
	require.NoError(t, err)
	_, _ = svc.Selection().Toggle(TopicSen66)

	require.NoError(t, svc.Start(context.Background()))
	require.Eventually(t, func() bool { return clock.ActiveTickers() == 3 }, time.Second, time.Millisecond)

	clock.Advance(1000 * time.Millisecond)

	require.Eventually(t, func() bool {
		return rec.count(models.MessageSample) == 1 &&
			rec.count(models.MessageImageFrame) == 8 &&
			rec.count(models.MessagePointCloudFrame) == 80
	}, 2*time.Second, 5*time.Millisecond)

	svc.Stop()
	assert.False(t, svc.IsRunning())
	assert.Zero(t, clock.ActiveTickers())
}

func TestNewServiceRejectsBadSelection(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultSelected = []string{"/camera"}
	_, err := NewService(cfg, nil, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownTopic)
}
