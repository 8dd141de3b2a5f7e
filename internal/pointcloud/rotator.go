package pointcloud

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownCamera é devolvido para índices fora do conjunto de câmeras
var ErrUnknownCamera = errors.New("câmera inexistente")

// DragSensitivity converte pixels de arrasto em radianos
const DragSensitivity = 0.01

// primaryButton é o valor de MouseEvent.buttons com só o botão esquerdo
const primaryButton = 1

// Rotator guarda o ângulo acumulado de cada câmera
type Rotator struct {
	mu     sync.RWMutex
	angles []float64
}

// NewRotator cria um rotator com todos os ângulos em zero
func NewRotator(cameras int) *Rotator {
	return &Rotator{angles: make([]float64, cameras)}
}

// Drag aplica um movimento horizontal do ponteiro. Só gira quando apenas o
// botão primário está pressionado; devolve o ângulo resultante.
func (r *Rotator) Drag(camera int, deltaX float64, buttons int) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if camera < 0 || camera >= len(r.angles) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownCamera, camera)
	}
	if buttons == primaryButton {
		r.angles[camera] += deltaX * DragSensitivity
	}
	return r.angles[camera], nil
}

// Angle retorna o ângulo atual da câmera (zero para câmera inexistente)
func (r *Rotator) Angle(camera int) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if camera < 0 || camera >= len(r.angles) {
		return 0
	}
	return r.angles[camera]
}

// Angles retorna uma cópia de todos os ângulos
func (r *Rotator) Angles() []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]float64, len(r.angles))
	copy(out, r.angles)
	return out
}

// Cameras retorna a quantidade de câmeras
func (r *Rotator) Cameras() int {
	return len(r.angles)
}
