// Package telemetry produz as amostras simuladas de gráficos, imagens IR e
// nuvens de pontos, e mantém a janela de cada canal.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"mission_go/internal/config"
	"mission_go/internal/irimage"
	"mission_go/internal/models"
	"mission_go/internal/pointcloud"
	"mission_go/internal/timeutil"
	"mission_go/pkg/logger"
)

// Publisher recebe cada item produzido (o hub WebSocket o implementa)
type Publisher interface {
	Publish(msgType string, data interface{})
}

// SampleStore persiste amostras de gráfico (o serviço Redis o implementa)
type SampleStore interface {
	IsConnected() bool
	WriteSample(sample models.Sample) error
}

// Stats são contadores de produção desde o Start
type Stats struct {
	Running      bool  `json:"running"`
	PlotSamples  int64 `json:"plotSamples"`
	ImageFrames  int64 `json:"imageFrames"`
	CloudFrames  int64 `json:"cloudFrames"`
	StoreErrors  int64 `json:"storeErrors"`
	SkippedTicks int64 `json:"skippedTicks"`
}

var log = logger.For("telemetry")

// Service coordena os três produtores. Cada produtor roda em sua própria
// goroutine com seu próprio ticker e só toca o próprio estado.
type Service struct {
	cfg       config.TelemetryConfig
	clock     timeutil.Clock
	publisher Publisher
	store     SampleStore

	sources   []Source
	series    map[string]*Series
	selection *Selection
	clouds    *pointcloud.Generator
	rotator   *pointcloud.Rotator
	images    *irimage.Generator

	asyncStore bool

	mutex   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	stats struct {
		plotSamples  int64
		imageFrames  int64
		cloudFrames  int64
		storeErrors  int64
		skippedTicks int64
	}
}

// NewService cria o serviço. publisher e store podem ser nil.
func NewService(cfg config.TelemetryConfig, clock timeutil.Clock, publisher Publisher, store SampleStore) (*Service, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	selection, err := NewSelection(cfg.DefaultSelected...)
	if err != nil {
		return nil, fmt.Errorf("seleção inicial inválida: %w", err)
	}

	s := &Service{
		cfg:        cfg,
		clock:      clock,
		publisher:  publisher,
		store:      store,
		selection:  selection,
		clouds:     pointcloud.NewGenerator(cfg.PointsPerCloud, 0),
		rotator:    pointcloud.NewRotator(cfg.Cameras),
		images:     irimage.NewGenerator(cfg.ImageWidth, cfg.ImageHeight, 0),
		asyncStore: true,
	}
	s.SetSources(DefaultSources()...)

	return s, nil
}

// SetSources troca as fontes de gráfico. Deve ser chamado antes do Start.
func (s *Service) SetSources(sources ...Source) {
	s.sources = sources
	s.series = make(map[string]*Series, len(sources))
	for _, src := range sources {
		s.series[src.Topic()] = NewSeries(s.cfg.SeriesCapacity)
	}
}

// SetAsyncStore configura a gravação assíncrona no store
func (s *Service) SetAsyncStore(async bool) {
	s.asyncStore = async
}

// Selection retorna a seleção de canais compartilhada
func (s *Service) Selection() *Selection { return s.selection }

// Rotator retorna os ângulos das câmeras de nuvem de pontos
func (s *Service) Rotator() *pointcloud.Rotator { return s.rotator }

// Cameras retorna a quantidade de câmeras simuladas
func (s *Service) Cameras() int { return s.cfg.Cameras }

// Start inicia os produtores; ctx encerra todos eles
func (s *Service) Start(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	log.Infof("Iniciando produtores (gráficos %v, imagens %v, nuvens %v, %d câmeras)",
		s.cfg.PlotRate, s.cfg.ImageRate, s.cfg.PointCloudRate, s.cfg.Cameras)

	s.wg.Add(3)
	go s.run(ctx, s.cfg.PlotRate, s.ProducePlots)
	go s.run(ctx, s.cfg.ImageRate, s.ProduceImages)
	go s.run(ctx, s.cfg.PointCloudRate, s.ProducePointClouds)

	return nil
}

// Stop para os produtores e espera as goroutines terminarem
func (s *Service) Stop() {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return
	}
	log.Infof("Parando produtores")
	s.cancel()
	s.running = false
	s.mutex.Unlock()

	s.wg.Wait()
}

// IsRunning verifica se os produtores estão ativos
func (s *Service) IsRunning() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}

// GetStats retorna os contadores atuais
func (s *Service) GetStats() Stats {
	return Stats{
		Running:      s.IsRunning(),
		PlotSamples:  atomic.LoadInt64(&s.stats.plotSamples),
		ImageFrames:  atomic.LoadInt64(&s.stats.imageFrames),
		CloudFrames:  atomic.LoadInt64(&s.stats.cloudFrames),
		StoreErrors:  atomic.LoadInt64(&s.stats.storeErrors),
		SkippedTicks: atomic.LoadInt64(&s.stats.skippedTicks),
	}
}

func (s *Service) run(ctx context.Context, period time.Duration, produce func(time.Time)) {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C():
			produce(now)
		}
	}
}

// ProducePlots gera uma amostra para cada canal de gráfico selecionado
func (s *Service) ProducePlots(now time.Time) {
	produced := false
	for _, src := range s.sources {
		if !s.selection.IsSelected(src.Topic()) {
			continue
		}
		produced = true

		sample := src.NextSample(now)
		s.series[src.Topic()].Append(sample)
		atomic.AddInt64(&s.stats.plotSamples, 1)

		s.publish(models.MessageSample, sample)
		s.persist(sample)
	}
	if !produced {
		atomic.AddInt64(&s.stats.skippedTicks, 1)
	}
}

// ProduceImages gera um quadro IR por câmera quando o canal está marcado
func (s *Service) ProduceImages(now time.Time) {
	if !s.selection.IsSelected(TopicIR) {
		atomic.AddInt64(&s.stats.skippedTicks, 1)
		return
	}

	for camera := 0; camera < s.cfg.Cameras; camera++ {
		frame, err := s.ImageFrame(camera, now)
		if err != nil {
			log.Errorf("Erro ao gerar quadro IR da câmera %d: %v", camera, err)
			continue
		}
		atomic.AddInt64(&s.stats.imageFrames, 1)
		s.publish(models.MessageImageFrame, frame)
	}
}

// ProducePointClouds gera e projeta uma nuvem por câmera quando o canal está
// marcado. Quadros de canvas sem área são pulados.
func (s *Service) ProducePointClouds(now time.Time) {
	if !s.selection.IsSelected(TopicPointCloud) {
		atomic.AddInt64(&s.stats.skippedTicks, 1)
		return
	}

	for camera := 0; camera < s.cfg.Cameras; camera++ {
		frame := s.PointCloudFrame(camera, now)
		if frame == nil {
			continue
		}
		atomic.AddInt64(&s.stats.cloudFrames, 1)
		s.publish(models.MessagePointCloudFrame, frame)
	}
}

// ImageFrame renderiza um quadro IR avulso
func (s *Service) ImageFrame(camera int, now time.Time) (models.ImageFrame, error) {
	if err := s.checkCamera(camera); err != nil {
		return models.ImageFrame{}, err
	}
	url, err := s.images.DataURL()
	if err != nil {
		return models.ImageFrame{}, err
	}
	return models.ImageFrame{
		Camera:    camera,
		Topic:     CameraTopic(TopicIR, camera),
		Width:     s.images.Width,
		Height:    s.images.Height,
		DataURL:   url,
		Timestamp: now,
	}, nil
}

// ImagePNG renderiza um quadro IR avulso em PNG
func (s *Service) ImagePNG(camera int) ([]byte, error) {
	if err := s.checkCamera(camera); err != nil {
		return nil, err
	}
	return s.images.PNG()
}

// PointCloudFrame gera e projeta uma nuvem avulsa com o ângulo atual da
// câmera. Retorna nil para câmera inexistente ou canvas sem área.
func (s *Service) PointCloudFrame(camera int, now time.Time) *pointcloud.Frame {
	if s.checkCamera(camera) != nil {
		return nil
	}
	points := s.clouds.Generate(camera, float64(now.UnixMilli()))
	return pointcloud.NewFrame(camera, CameraTopic(TopicPointCloud, camera), points,
		s.rotator.Angle(camera), s.cfg.CanvasWidth, s.cfg.CanvasHeight)
}

// Series retorna a janela de um canal de gráfico
func (s *Service) Series(topic string) (*Series, error) {
	series, ok := s.series[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	return series, nil
}

func (s *Service) checkCamera(camera int) error {
	if camera < 0 || camera >= s.cfg.Cameras {
		return fmt.Errorf("%w: %d", pointcloud.ErrUnknownCamera, camera)
	}
	return nil
}

func (s *Service) publish(msgType string, data interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(msgType, data)
	}
}

// persist grava a amostra sem bloquear o produtor quando asyncStore está ligado
func (s *Service) persist(sample models.Sample) {
	if s.store == nil || !s.store.IsConnected() {
		return
	}

	write := func(sample models.Sample) {
		if err := s.store.WriteSample(sample); err != nil {
			atomic.AddInt64(&s.stats.storeErrors, 1)
			log.Errorf("Erro ao gravar amostra de %s: %v", sample.Topic, err)
		}
	}

	if s.asyncStore {
		go write(sample)
		return
	}
	write(sample)
}
