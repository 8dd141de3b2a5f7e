package plc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mission_go/internal/config"
	"mission_go/internal/models"
	"mission_go/internal/timeutil"
	"mission_go/pkg/logger"
)

var log = logger.For("plc")

// ErrDisabled é devolvido quando o PLC está desligado na configuração
var ErrDisabled = errors.New("serviço PLC desabilitado")

// ErrRejected indica que o PLC confirmou o comando com falha
var ErrRejected = errors.New("comando rejeitado pelo PLC")

// DefaultPollInterval é o intervalo de leitura da confirmação
const DefaultPollInterval = 100 * time.Millisecond

// PLCService escreve comandos no DB configurado e espera a confirmação.
// Um comando por vez: o DB tem um único slot.
type PLCService struct {
	client BlockClient
	config config.PLCConfig
	clock  timeutil.Clock

	pollInterval time.Duration

	writeMutex sync.Mutex
	sequence   int16

	mutex   sync.RWMutex
	running bool
}

// NewPLCService cria um serviço com o cliente S7 real
func NewPLCService(cfg config.PLCConfig) *PLCService {
	return NewPLCServiceWithClient(cfg, NewS7Client(cfg), timeutil.RealClock{})
}

// NewPLCServiceWithClient permite injetar o acesso aos DBs e o relógio
func NewPLCServiceWithClient(cfg config.PLCConfig, client BlockClient, clock timeutil.Clock) *PLCService {
	return &PLCService{
		client:       client,
		config:       cfg,
		clock:        clock,
		pollInterval: DefaultPollInterval,
	}
}

// SetPollInterval ajusta a frequência de leitura da confirmação
func (s *PLCService) SetPollInterval(d time.Duration) {
	if d > 0 {
		s.pollInterval = d
	}
}

// Start conecta ao PLC. Falha de conexão não impede o início: a próxima
// escrita tenta de novo.
func (s *PLCService) Start() error {
	if !s.config.Enabled {
		log.Infof("Serviço PLC desabilitado por configuração")
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return nil
	}

	if err := s.client.Connect(); err != nil {
		log.Warnf("PLC indisponível na inicialização: %v", err)
	}

	s.running = true
	log.Infof("Serviço PLC iniciado (DB%d)", s.config.CommandDB)
	return nil
}

// Stop desconecta do PLC
func (s *PLCService) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return
	}

	s.client.Disconnect()
	s.running = false
	log.Infof("Serviço PLC parado")
}

// IsRunning verifica se o serviço está em execução
func (s *PLCService) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.running
}

// IsConnected indica se o último acesso ao PLC funcionou
func (s *PLCService) IsConnected() bool {
	return s.client.IsConnected()
}

// WriteCommand escreve o comando no DB e espera o PLC confirmar a mesma
// sequência com sucesso ou falha. ctx limita a espera.
func (s *PLCService) WriteCommand(ctx context.Context, envelope models.CommandEnvelope) error {
	if !s.config.Enabled {
		return ErrDisabled
	}

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	s.sequence++
	if s.sequence <= 0 {
		s.sequence = 1
	}
	seq := s.sequence

	data, err := EncodeCommand(seq, envelope.Record)
	if err != nil {
		return err
	}

	if err := s.client.WriteDataBlock(s.config.CommandDB, 0, data); err != nil {
		return err
	}
	log.Debugf("Comando %s escrito no DB%d (sequência %d)", envelope.ID, s.config.CommandDB, seq)

	return s.waitAck(ctx, seq)
}

func (s *PLCService) waitAck(ctx context.Context, seq int16) error {
	ticker := s.clock.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("sem confirmação do PLC para a sequência %d: %w", seq, ctx.Err())
		case <-ticker.C():
		}

		raw, err := s.client.ReadDataBlock(s.config.CommandDB, AckOffset, AckSize)
		if err != nil {
			log.Warnf("Erro ao ler confirmação do PLC: %v", err)
			continue
		}

		ackSeq, result, err := DecodeAck(raw)
		if err != nil {
			return err
		}
		if ackSeq != seq {
			continue
		}

		switch result {
		case ResultSuccess:
			return nil
		case ResultFailure:
			return fmt.Errorf("%w (sequência %d)", ErrRejected, seq)
		}
	}
}
