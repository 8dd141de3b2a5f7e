package plc

import (
	"errors"
	"fmt"
	"math"

	"mission_go/internal/models"
	"mission_go/pkg/utils"
)

// Layout do DB de comandos (big-endian, tipos S7):
//
//	0   INT   sequência do comando
//	2   INT   controlMode (-1 ausente)
//	4   INT   robotMode (-1 ausente)
//	6   BYTE  flags: bit0 inverted, bit1 coordenadas, bit2 amount
//	7   BYTE  reservado
//	8   REAL  x, 12 REAL y, 16 REAL z
//	20  REAL  amount
//	24  INT   quantidade de motores, 26 INT[8] ids, 42 INT[8] metas
//	58  INT   quantidade de vértices, 60 INT[16] vértices
//	92  INT   sequência confirmada (escrita pelo PLC)
//	94  INT   resultado (0 em andamento, 1 sucesso, 2 falha)
const (
	offSequence    = 0
	offControlMode = 2
	offRobotMode   = 4
	offFlags       = 6
	offCoords      = 8
	offAmount      = 20
	offMotorCount  = 24
	offMotorIDs    = 26
	offMotorGoals  = 42
	offVertexCount = 58
	offVertices    = 60

	// CommandBlockSize é o trecho escrito pelo servidor
	CommandBlockSize = 92

	// AckOffset é onde o PLC confirma o comando
	AckOffset = 92
	AckSize   = 4

	MaxMotors   = 8
	MaxVertices = 16

	flagInverted    = 1 << 0
	flagCoordinates = 1 << 1
	flagAmount      = 1 << 2

	absent = -1
)

// ErrOutOfRange indica um valor que não cabe num INT do S7
var ErrOutOfRange = errors.New("valor fora da faixa de um INT")

// Resultados escritos pelo PLC
const (
	ResultPending = 0
	ResultSuccess = 1
	ResultFailure = 2
)

// EncodeCommand serializa o registro no layout acima
func EncodeCommand(sequence int16, rec models.CommandRecord) ([]byte, error) {
	if len(rec.MotorIDs) > MaxMotors || len(rec.MotorGoals) > MaxMotors {
		return nil, fmt.Errorf("máximo de %d motores por comando", MaxMotors)
	}
	if len(rec.Vertices) > MaxVertices {
		return nil, fmt.Errorf("máximo de %d vértices por comando", MaxVertices)
	}

	if err := checkInt16("controlMode", optionalInt(rec.ControlMode)); err != nil {
		return nil, err
	}
	if err := checkInt16("robotMode", optionalInt(rec.RobotMode)); err != nil {
		return nil, err
	}
	for _, field := range []struct {
		name   string
		values []int
	}{
		{"motorIds", rec.MotorIDs},
		{"motorGoals", rec.MotorGoals},
		{"vertices", rec.Vertices},
	} {
		for i, v := range field.values {
			if err := checkInt16(fmt.Sprintf("%s[%d]", field.name, i), v); err != nil {
				return nil, err
			}
		}
	}

	buf := make([]byte, CommandBlockSize)
	putInt := func(offset int, v int) {
		copy(buf[offset:], utils.Int16ToBytes(int16(v)))
	}
	putReal := func(offset int, v float64) {
		copy(buf[offset:], utils.Float32ToBytes(float32(v)))
	}

	putInt(offSequence, int(sequence))
	putInt(offControlMode, optionalInt(rec.ControlMode))
	putInt(offRobotMode, optionalInt(rec.RobotMode))

	var flags byte
	if rec.Inverted != nil && *rec.Inverted {
		flags |= flagInverted
	}
	if rec.Coordinates != nil {
		flags |= flagCoordinates
		for i, v := range rec.Coordinates {
			putReal(offCoords+i*4, v)
		}
	}
	if rec.Amount != nil {
		flags |= flagAmount
		putReal(offAmount, *rec.Amount)
	}
	buf[offFlags] = flags

	putInt(offMotorCount, len(rec.MotorIDs))
	for i, id := range rec.MotorIDs {
		putInt(offMotorIDs+i*2, id)
	}
	for i, goal := range rec.MotorGoals {
		putInt(offMotorGoals+i*2, goal)
	}

	putInt(offVertexCount, len(rec.Vertices))
	for i, v := range rec.Vertices {
		putInt(offVertices+i*2, v)
	}

	return buf, nil
}

// DecodeAck lê a confirmação do PLC
func DecodeAck(data []byte) (sequence int16, result int16, err error) {
	if len(data) < AckSize {
		return 0, 0, fmt.Errorf("confirmação curta: %d bytes", len(data))
	}
	return utils.BytesToInt16(data[0:2]), utils.BytesToInt16(data[2:4]), nil
}

func optionalInt(v *int) int {
	if v == nil {
		return absent
	}
	return *v
}

func checkInt16(field string, v int) error {
	if v < math.MinInt16 || v > math.MaxInt16 {
		return fmt.Errorf("%w: %s=%d", ErrOutOfRange, field, v)
	}
	return nil
}
