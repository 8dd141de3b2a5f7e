package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"mission_go/internal/config"
	"mission_go/internal/models"
	"mission_go/pkg/logger"
)

// ErrOffline é devolvido pelas leituras quando o Redis está desligado ou caiu
var ErrOffline = errors.New("Redis não conectado ou desabilitado")

// Service gerencia a conexão e operações com o Redis
type Service struct {
	client    *redis.Client
	ctx       context.Context
	cancel    context.CancelFunc
	prefix    string
	config    config.RedisConfig
	connected bool
	mutex     sync.RWMutex

	historyMax int64
}

// NewService cria um novo serviço Redis. Falha de conexão não é erro: o
// serviço segue em modo offline.
func NewService(cfg config.RedisConfig) (*Service, error) {
	historyMax := int64(cfg.HistoryMax)
	if historyMax <= 0 {
		historyMax = 1000
	}

	if !cfg.Enabled {
		logger.Info("Serviço Redis desabilitado por configuração")
		return &Service{
			config:     cfg,
			prefix:     cfg.Prefix,
			historyMax: historyMax,
		}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	service := &Service{
		client:     client,
		ctx:        ctx,
		cancel:     cancel,
		prefix:     cfg.Prefix,
		config:     cfg,
		historyMax: historyMax,
	}

	if err := service.TestConnection(); err != nil {
		logger.Warnf("Aviso: %v. O Redis será utilizado em modo offline.", err)
		return service, nil
	}

	return service, nil
}

// TestConnection testa a conexão com o Redis
func (s *Service) TestConnection() error {
	if !s.config.Enabled || s.client == nil {
		return fmt.Errorf("serviço Redis desabilitado")
	}

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	result, err := s.client.Ping(ctx).Result()
	if err != nil {
		s.setConnected(false)
		return fmt.Errorf("erro ao conectar ao Redis: %w", err)
	}

	logger.Infof("Conexão com o Redis estabelecida. Resposta: %s", result)
	s.setConnected(true)
	return nil
}

// IsConnected verifica se o serviço está conectado
func (s *Service) IsConnected() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.connected && s.config.Enabled
}

func (s *Service) setConnected(connected bool) {
	s.mutex.Lock()
	s.connected = connected
	s.mutex.Unlock()
}

// key monta "<prefixo>:<partes...>"
func (s *Service) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

// CommandChannel é o canal pub/sub onde os comandos são publicados
func (s *Service) CommandChannel() string {
	return s.key("commands")
}

// WriteSample grava a amostra como valor atual do canal e no histórico
// ordenado por timestamp, limitado a HistoryMax entradas
func (s *Service) WriteSample(sample models.Sample) error {
	if !s.IsConnected() {
		return nil
	}

	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("erro ao serializar amostra: %w", err)
	}

	timestamp := sample.Timestamp.UnixMilli()
	histKey := s.key("topic", sample.Topic, "history")

	pipe := s.client.Pipeline()
	pipe.Set(s.ctx, s.key("topic", sample.Topic, "latest"), data, 0)
	pipe.Set(s.ctx, s.key("topic", sample.Topic, "timestamp"), timestamp, 0)
	pipe.ZAdd(s.ctx, histKey, &redis.Z{Score: float64(timestamp), Member: data})
	pipe.ZRemRangeByRank(s.ctx, histKey, 0, -(s.historyMax + 1))

	if _, err := pipe.Exec(s.ctx); err != nil {
		s.setConnected(false)
		return fmt.Errorf("erro ao escrever amostra no Redis: %w", err)
	}
	return nil
}

// GetHistory retorna as últimas limit amostras do canal, da mais antiga para
// a mais recente
func (s *Service) GetHistory(topic string, limit int) ([]models.Sample, error) {
	if !s.IsConnected() {
		return nil, ErrOffline
	}
	if limit <= 0 {
		limit = int(s.historyMax)
	}

	members, err := s.client.ZRange(s.ctx, s.key("topic", topic, "history"), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("erro ao obter histórico de %s: %w", topic, err)
	}
	return decodeSamples(members), nil
}

// PublishCommand publica o comando no canal pub/sub e o registra no log
func (s *Service) PublishCommand(ctx context.Context, envelope models.CommandEnvelope) error {
	if !s.IsConnected() {
		return ErrOffline
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("erro ao serializar comando: %w", err)
	}

	pipe := s.client.TxPipeline()
	published := pipe.Publish(ctx, s.CommandChannel(), data)
	pipe.LPush(ctx, s.key("command_log"), data)
	pipe.LTrim(ctx, s.key("command_log"), 0, s.historyMax-1)

	if _, err := pipe.Exec(ctx); err != nil {
		if ctx.Err() == nil {
			s.setConnected(false)
		}
		return fmt.Errorf("erro ao publicar comando no Redis: %w", err)
	}

	logger.Debugf("Comando %s publicado para %d assinantes", envelope.ID, published.Val())
	return nil
}

// GetCommandLog retorna os últimos comandos publicados, do mais recente para
// o mais antigo
func (s *Service) GetCommandLog(limit int) ([]models.CommandEnvelope, error) {
	if !s.IsConnected() {
		return nil, ErrOffline
	}
	if limit <= 0 {
		limit = 50
	}

	items, err := s.client.LRange(s.ctx, s.key("command_log"), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("erro ao obter log de comandos: %w", err)
	}
	return decodeEnvelopes(items), nil
}

// WriteCommandStatus guarda a última transição de cada comando
func (s *Service) WriteCommandStatus(status models.CommandStatus) error {
	if !s.IsConnected() {
		return nil
	}

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("erro ao serializar status: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.HSet(s.ctx, s.key("command_status"), status.ID, data)
	pipe.Set(s.ctx, s.key("goal_status"), string(status.Status), 0)

	if _, err := pipe.Exec(s.ctx); err != nil {
		s.setConnected(false)
		return fmt.Errorf("erro ao escrever status de comando no Redis: %w", err)
	}
	return nil
}

// WriteMissionState guarda o snapshot do painel
func (s *Service) WriteMissionState(state models.MissionState) error {
	if !s.IsConnected() {
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("erro ao serializar estado da missão: %w", err)
	}

	if err := s.client.Set(s.ctx, s.key("mission_state"), data, 0).Err(); err != nil {
		s.setConnected(false)
		return fmt.Errorf("erro ao escrever estado da missão no Redis: %w", err)
	}
	return nil
}

// Shutdown encerra graciosamente o serviço Redis
func (s *Service) Shutdown() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logger.Errorf("Erro ao fechar conexão com Redis: %v", err)
		} else {
			logger.Info("Conexão com o Redis fechada")
		}
	}

	s.connected = false
}

func decodeSamples(members []string) []models.Sample {
	samples := make([]models.Sample, 0, len(members))
	for _, m := range members {
		var sample models.Sample
		if err := json.Unmarshal([]byte(m), &sample); err != nil {
			continue
		}
		samples = append(samples, sample)
	}
	return samples
}

func decodeEnvelopes(items []string) []models.CommandEnvelope {
	out := make([]models.CommandEnvelope, 0, len(items))
	for _, item := range items {
		var env models.CommandEnvelope
		if err := json.Unmarshal([]byte(item), &env); err != nil {
			continue
		}
		out = append(out, env)
	}
	return out
}
