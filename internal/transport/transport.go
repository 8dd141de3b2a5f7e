// Package transport entrega comandos codificados ao robô. A implementação
// padrão apenas simula a confirmação atrasada.
package transport

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"mission_go/internal/models"
	"mission_go/internal/timeutil"
	"mission_go/pkg/logger"
)

// Nomes dos transportes disponíveis
const (
	KindSimulated = "simulated"
	KindRedis     = "redis"
	KindPLC       = "plc"
)

// Transport envia um comando e retorna quando o destino confirma (nil) ou
// recusa (erro). Deve respeitar o cancelamento de ctx.
type Transport interface {
	Name() string
	Send(ctx context.Context, envelope models.CommandEnvelope) error
}

var log = logger.For("transport")

// Simulated registra o comando e confirma com sucesso depois de um atraso
// uniforme em [MinDelay, MaxDelay]
type Simulated struct {
	MinDelay time.Duration
	MaxDelay time.Duration

	clock timeutil.Clock
	mu    sync.Mutex
	rng   *rand.Rand
}

// NewSimulated cria o transporte simulado. seed == 0 usa semente aleatória.
func NewSimulated(clock timeutil.Clock, minDelay, maxDelay time.Duration, seed int64) *Simulated {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Simulated{
		MinDelay: minDelay,
		MaxDelay: maxDelay,
		clock:    clock,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Name retorna "simulated"
func (s *Simulated) Name() string { return KindSimulated }

// Send espera o atraso sorteado e confirma
func (s *Simulated) Send(ctx context.Context, envelope models.CommandEnvelope) error {
	delay := s.nextDelay()
	log.Infof("Comando %s (modo %s) enviado, confirmação em %v", envelope.ID, envelope.Mode, delay)

	acked := make(chan struct{})
	timer := s.clock.AfterFunc(delay, func() { close(acked) })

	select {
	case <-acked:
		return nil
	case <-ctx.Done():
		timer.Stop()
		return fmt.Errorf("comando %s cancelado: %w", envelope.ID, ctx.Err())
	}
}

func (s *Simulated) nextDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	span := s.MaxDelay - s.MinDelay
	if span <= 0 {
		return s.MinDelay
	}
	return s.MinDelay + time.Duration(s.rng.Int63n(int64(span)+1))
}

// CommandPublisher publica comandos em um barramento (Service do Redis)
type CommandPublisher interface {
	PublishCommand(ctx context.Context, envelope models.CommandEnvelope) error
}

// Redis publica o comando no canal pub/sub. A confirmação é a própria
// publicação.
type Redis struct {
	publisher CommandPublisher
}

// NewRedis cria o transporte por Redis
func NewRedis(publisher CommandPublisher) *Redis {
	return &Redis{publisher: publisher}
}

// Name retorna "redis"
func (r *Redis) Name() string { return KindRedis }

// Send publica o comando
func (r *Redis) Send(ctx context.Context, envelope models.CommandEnvelope) error {
	if err := r.publisher.PublishCommand(ctx, envelope); err != nil {
		return fmt.Errorf("falha ao publicar comando %s: %w", envelope.ID, err)
	}
	return nil
}

// CommandWriter escreve comandos em um controlador (PLCService)
type CommandWriter interface {
	WriteCommand(ctx context.Context, envelope models.CommandEnvelope) error
}

// PLC escreve o comando no DB do controlador e espera a confirmação
type PLC struct {
	writer CommandWriter
}

// NewPLC cria o transporte por PLC
func NewPLC(writer CommandWriter) *PLC {
	return &PLC{writer: writer}
}

// Name retorna "plc"
func (p *PLC) Name() string { return KindPLC }

// Send escreve o comando e espera o resultado
func (p *PLC) Send(ctx context.Context, envelope models.CommandEnvelope) error {
	if err := p.writer.WriteCommand(ctx, envelope); err != nil {
		return fmt.Errorf("falha ao escrever comando %s no PLC: %w", envelope.ID, err)
	}
	return nil
}
