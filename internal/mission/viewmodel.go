// Package mission mantém o estado do painel do operador: gravação da missão,
// modo de operação, configurações avançadas, conexão simulada e o status do
// último comando despachado.
package mission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mission_go/internal/command"
	"mission_go/internal/config"
	"mission_go/internal/models"
	"mission_go/internal/timeutil"
	"mission_go/internal/transport"
	"mission_go/pkg/logger"
	"mission_go/pkg/utils"
)

// Faixa do buffer de gravação (MB)
const (
	BufferMinMB  = 256
	BufferMaxMB  = 4096
	BufferStepMB = 256
)

// Modos do seletor do painel de controle
const (
	OperationAutonomous = "autonomous"
	OperationManual     = "manual"
	OperationStandby    = "standby"
)

const missionTick = time.Second

// Notifier recebe cada mudança de estado (o hub WebSocket o implementa)
type Notifier interface {
	Publish(msgType string, data interface{})
}

// StateStore persiste snapshots e transições de comando (Service do Redis)
type StateStore interface {
	WriteMissionState(state models.MissionState) error
	WriteCommandStatus(status models.CommandStatus) error
}

var log = logger.For("mission")

// ViewModel é o estado explícito do painel com seus setters. É seguro para
// uso concorrente.
type ViewModel struct {
	cfg       config.MissionConfig
	encoder   *command.Encoder
	transport transport.Transport
	clock     timeutil.Clock
	notifier  Notifier
	store     StateStore

	mu    sync.Mutex
	state models.MissionState

	// gen invalida ticks de uma gravação anterior já parada
	gen         int
	stopTicker  chan struct{}
	connectTime timeutil.Timer
	closed      bool

	ctx      context.Context
	cancel   context.CancelFunc
	dispatch sync.WaitGroup
}

// DefaultState retorna o estado inicial do painel
func DefaultState(defaultMode string) models.MissionState {
	return models.MissionState{
		MissionClock:  utils.FormatMissionTime(0),
		SelectedMode:  defaultMode,
		OperationMode: OperationAutonomous,
		OutputFile:    "mission_data.bag",
		SaveLocation:  "/missions/logs/",
		Channels:      []string{"/nav/odometry", "/sensors/lidar", "/camera/rgb"},
		Advanced: models.AdvancedSettings{
			BufferSizeMB: 1024,
			Compression:  false,
			RealTime:     true,
			Encryption:   true,
			MultiFactor:  true,
			AuditTrail:   false,
		},
		Connection: models.ConnectionDisconnected,
		GoalStatus: models.GoalIdle,
	}
}

// New cria o view-model. notifier e store podem ser nil.
func New(cfg config.MissionConfig, encoder *command.Encoder, tr transport.Transport,
	clock timeutil.Clock, notifier Notifier, store StateStore) (*ViewModel, error) {

	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if _, err := command.ParseMode(cfg.DefaultMode); err != nil {
		return nil, fmt.Errorf("modo padrão inválido: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	vm := &ViewModel{
		cfg:       cfg,
		encoder:   encoder,
		transport: tr,
		clock:     clock,
		notifier:  notifier,
		store:     store,
		state:     DefaultState(cfg.DefaultMode),
		ctx:       ctx,
		cancel:    cancel,
	}
	vm.state.UpdatedAt = clock.Now()
	return vm, nil
}

// State retorna uma cópia do estado atual
func (vm *ViewModel) State() models.MissionState {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.snapshotLocked()
}

func (vm *ViewModel) snapshotLocked() models.MissionState {
	s := vm.state
	s.Channels = append([]string(nil), vm.state.Channels...)
	if vm.state.LastCommand != nil {
		last := *vm.state.LastCommand
		s.LastCommand = &last
	}
	return s
}

// update aplica fn sob o lock e publica o snapshot resultante
func (vm *ViewModel) update(fn func(s *models.MissionState) error) error {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return ErrClosed
	}
	if err := fn(&vm.state); err != nil {
		vm.mu.Unlock()
		return err
	}
	vm.state.MissionClock = utils.FormatMissionTime(vm.state.MissionTime)
	vm.state.UpdatedAt = vm.clock.Now()
	snapshot := vm.snapshotLocked()
	vm.mu.Unlock()

	vm.emitState(snapshot)
	return nil
}

func (vm *ViewModel) emitState(state models.MissionState) {
	if vm.notifier != nil {
		vm.notifier.Publish(models.MessageMissionState, state)
	}
	if vm.store != nil {
		if err := vm.store.WriteMissionState(state); err != nil {
			log.Warnf("Erro ao gravar estado da missão: %v", err)
		}
	}
}

func (vm *ViewModel) emitCommand(status models.CommandStatus) {
	if vm.notifier != nil {
		vm.notifier.Publish(models.MessageCommandStatus, status)
	}
	if vm.store != nil {
		if err := vm.store.WriteCommandStatus(status); err != nil {
			log.Warnf("Erro ao gravar status do comando %s: %v", status.ID, err)
		}
	}
}

// Deploy inicia a gravação e o cronômetro de 1 s. Sem efeito se já estiver
// gravando.
func (vm *ViewModel) Deploy() error {
	return vm.update(func(s *models.MissionState) error {
		if s.Recording {
			return nil
		}
		s.Recording = true
		vm.gen++
		vm.stopTicker = make(chan struct{})
		go vm.runMissionClock(vm.gen, vm.stopTicker)
		log.Infof("Missão iniciada (modo %s)", s.SelectedMode)
		return nil
	})
}

// Halt para a gravação e zera o cronômetro
func (vm *ViewModel) Halt() error {
	return vm.update(func(s *models.MissionState) error {
		if s.Recording {
			log.Infof("Missão parada em %s", utils.FormatMissionTime(s.MissionTime))
		}
		vm.stopClockLocked()
		s.Recording = false
		s.MissionTime = 0
		return nil
	})
}

// Reset zera o cronômetro. Recusado durante a gravação.
func (vm *ViewModel) Reset() error {
	return vm.update(func(s *models.MissionState) error {
		if s.Recording {
			return ErrRecording
		}
		s.MissionTime = 0
		return nil
	})
}

func (vm *ViewModel) stopClockLocked() {
	if vm.stopTicker != nil {
		close(vm.stopTicker)
		vm.stopTicker = nil
	}
	vm.gen++
}

func (vm *ViewModel) runMissionClock(gen int, stop <-chan struct{}) {
	ticker := vm.clock.NewTicker(missionTick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-vm.ctx.Done():
			return
		case <-ticker.C():
			_ = vm.update(func(s *models.MissionState) error {
				if vm.gen != gen || !s.Recording {
					return errStale
				}
				s.MissionTime++
				return nil
			})
		}
	}
}

// SetMode escolhe o modo de operação usado quando o comando não traz um
func (vm *ViewModel) SetMode(mode string) error {
	parsed, err := command.ParseMode(mode)
	if err != nil {
		return err
	}
	return vm.update(func(s *models.MissionState) error {
		s.SelectedMode = parsed.String()
		return nil
	})
}

// SetOperationMode escolhe entre autonomous, manual e standby
func (vm *ViewModel) SetOperationMode(op string) error {
	op = strings.ToLower(strings.TrimSpace(op))
	switch op {
	case OperationAutonomous, OperationManual, OperationStandby:
	default:
		return fmt.Errorf("%w: modo de operação %q", ErrInvalidSetting, op)
	}
	return vm.update(func(s *models.MissionState) error {
		s.OperationMode = op
		return nil
	})
}

// SetOutput define o arquivo de saída e o diretório da gravação. Campos
// vazios mantêm o valor atual.
func (vm *ViewModel) SetOutput(file, location string) error {
	return vm.update(func(s *models.MissionState) error {
		if f := strings.TrimSpace(file); f != "" {
			s.OutputFile = f
		}
		if l := strings.TrimSpace(location); l != "" {
			s.SaveLocation = l
		}
		return nil
	})
}

// ParseChannels separa "/a /b,/c" em canais
func ParseChannels(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	return fields
}

// SetChannels define os canais de dados gravados. Todo canal começa com "/".
func (vm *ViewModel) SetChannels(channels []string) error {
	clean := make([]string, 0, len(channels))
	for _, c := range channels {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !strings.HasPrefix(c, "/") {
			return fmt.Errorf("%w: canal %q deve começar com /", ErrInvalidSetting, c)
		}
		clean = append(clean, c)
	}
	return vm.update(func(s *models.MissionState) error {
		s.Channels = clean
		return nil
	})
}

// ValidateAdvanced confere a faixa e o passo do buffer
func ValidateAdvanced(a models.AdvancedSettings) error {
	if a.BufferSizeMB < BufferMinMB || a.BufferSizeMB > BufferMaxMB || a.BufferSizeMB%BufferStepMB != 0 {
		return fmt.Errorf("%w: buffer de %d MB (faixa %d..%d, passo %d)",
			ErrInvalidSetting, a.BufferSizeMB, BufferMinMB, BufferMaxMB, BufferStepMB)
	}
	return nil
}

// SetAdvanced substitui as configurações avançadas
func (vm *ViewModel) SetAdvanced(a models.AdvancedSettings) error {
	if err := ValidateAdvanced(a); err != nil {
		return err
	}
	return vm.update(func(s *models.MissionState) error {
		s.Advanced = a
		return nil
	})
}

// SetBufferSize altera só o tamanho do buffer
func (vm *ViewModel) SetBufferSize(mb int) error {
	return vm.update(func(s *models.MissionState) error {
		next := s.Advanced
		next.BufferSizeMB = mb
		if err := ValidateAdvanced(next); err != nil {
			return err
		}
		s.Advanced = next
		return nil
	})
}

// Connect inicia a conexão simulada: connecting e, depois de ConnectDelay,
// connected. Sem efeito se já estiver conectando ou conectado.
func (vm *ViewModel) Connect() error {
	return vm.update(func(s *models.MissionState) error {
		if s.Connection != models.ConnectionDisconnected {
			return nil
		}
		s.Connection = models.ConnectionConnecting
		vm.connectTime = vm.clock.AfterFunc(vm.cfg.ConnectDelay, func() {
			_ = vm.update(func(s *models.MissionState) error {
				if s.Connection != models.ConnectionConnecting {
					return errStale
				}
				s.Connection = models.ConnectionConnected
				log.Infof("Conectado ao robô")
				return nil
			})
		})
		return nil
	})
}

// Disconnect derruba a conexão simulada
func (vm *ViewModel) Disconnect() error {
	return vm.update(func(s *models.MissionState) error {
		if vm.connectTime != nil {
			vm.connectTime.Stop()
			vm.connectTime = nil
		}
		s.Connection = models.ConnectionDisconnected
		return nil
	})
}

// Encode codifica a entrada sem despachar. Modo vazio usa o modo selecionado.
func (vm *ViewModel) Encode(in command.Input) (models.CommandRecord, error) {
	in.Mode = vm.modeFor(in.Mode)
	return vm.encoder.Encode(in)
}

func (vm *ViewModel) modeFor(mode string) string {
	if strings.TrimSpace(mode) != "" {
		return mode
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state.SelectedMode
}

// Execute codifica e despacha o comando. Retorna logo após marcar pending;
// o resultado do transporte chega como succeeded ou failed pelo Notifier.
// Erros de codificação não mudam o status.
func (vm *ViewModel) Execute(in command.Input) (models.CommandStatus, error) {
	in.Mode = vm.modeFor(in.Mode)

	rec, err := vm.encoder.Encode(in)
	if err != nil {
		return models.CommandStatus{}, err
	}
	mode, _ := command.ParseMode(in.Mode)

	envelope := models.CommandEnvelope{
		ID:       uuid.NewString(),
		Mode:     mode.String(),
		IssuedAt: vm.clock.Now(),
		Record:   rec,
	}
	status := models.CommandStatus{
		ID:        envelope.ID,
		Mode:      envelope.Mode,
		Status:    models.GoalPending,
		Transport: vm.transport.Name(),
		Timestamp: envelope.IssuedAt,
	}

	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return models.CommandStatus{}, ErrClosed
	}
	vm.dispatch.Add(1)
	vm.mu.Unlock()

	if err := vm.setCommandStatus(status); err != nil {
		vm.dispatch.Done()
		return models.CommandStatus{}, err
	}

	go vm.send(envelope, status)
	return status, nil
}

func (vm *ViewModel) send(envelope models.CommandEnvelope, status models.CommandStatus) {
	defer vm.dispatch.Done()

	ctx := vm.ctx
	if vm.cfg.DispatchLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(vm.ctx, vm.cfg.DispatchLimit)
		defer cancel()
	}

	err := vm.transport.Send(ctx, envelope)

	status.Timestamp = vm.clock.Now()
	if err != nil {
		status.Status = models.GoalFailed
		status.Error = err.Error()
		log.Warnf("Comando %s falhou via %s: %v", envelope.ID, status.Transport, err)
	} else {
		status.Status = models.GoalSucceeded
		log.Infof("Comando %s confirmado via %s", envelope.ID, status.Transport)
	}

	if err := vm.setCommandStatus(status); err != nil && !errors.Is(err, ErrClosed) {
		log.Warnf("Erro ao atualizar status do comando %s: %v", envelope.ID, err)
	}
}

// setCommandStatus publica a transição e, se o comando ainda for o último
// despachado, atualiza o status do painel
func (vm *ViewModel) setCommandStatus(status models.CommandStatus) error {
	vm.emitCommand(status)
	err := vm.update(func(s *models.MissionState) error {
		if status.Status != models.GoalPending && s.LastCommand != nil && s.LastCommand.ID != status.ID {
			return errStale
		}
		last := status
		s.LastCommand = &last
		s.GoalStatus = status.Status
		return nil
	})
	if errors.Is(err, errStale) {
		return nil
	}
	return err
}

// Close para o cronômetro, cancela despachos em andamento e espera terminarem
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	vm.stopClockLocked()
	if vm.connectTime != nil {
		vm.connectTime.Stop()
		vm.connectTime = nil
	}
	vm.closed = true
	vm.mu.Unlock()

	vm.cancel()
	vm.dispatch.Wait()
}
