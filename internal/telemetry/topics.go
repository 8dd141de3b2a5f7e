package telemetry

import (
	"errors"
	"fmt"
	"strings"

	"mission_go/internal/models"
)

// Canais conhecidos
const (
	TopicMotorStatus = "/motor_status"
	TopicLux         = "/lux"
	TopicSen66       = "/sen66_data"
	TopicIR          = "/camera/cam*/ir"
	TopicPointCloud  = "/camera/cam*/pointcloud"
)

// ErrUnknownTopic é devolvido para canais fora do catálogo
var ErrUnknownTopic = errors.New("tópico desconhecido")

var catalogue = []models.Topic{
	{Name: TopicMotorStatus, Type: models.TopicPlot, Description: "Motor positions, currents, velocities"},
	{Name: TopicLux, Type: models.TopicPlot, Description: "Environmental sensors"},
	{Name: TopicSen66, Type: models.TopicPlot, Description: "Air quality sensors"},
	{Name: TopicIR, Type: models.TopicImage, Description: "IR camera feeds (4 cameras)"},
	{Name: TopicPointCloud, Type: models.TopicPointCloud, Description: "Point cloud data (4 cameras)"},
}

// Topics retorna o catálogo de canais selecionáveis
func Topics() []models.Topic {
	out := make([]models.Topic, len(catalogue))
	copy(out, catalogue)
	return out
}

// LookupTopic procura um canal pelo nome exato do catálogo
func LookupTopic(name string) (models.Topic, error) {
	for _, t := range catalogue {
		if t.Name == name {
			return t, nil
		}
	}
	return models.Topic{}, fmt.Errorf("%w: %s", ErrUnknownTopic, name)
}

// CameraTopic troca o curinga do canal pelo índice da câmera:
// CameraTopic(TopicIR, 2) == "/camera/cam2/ir"
func CameraTopic(pattern string, camera int) string {
	return strings.Replace(pattern, "cam*", fmt.Sprintf("cam%d", camera), 1)
}

// ParseCameraTopic faz o caminho inverso, devolvendo o padrão e o índice
func ParseCameraTopic(name string) (string, int, error) {
	for _, pattern := range []string{TopicIR, TopicPointCloud} {
		prefix, suffix, _ := strings.Cut(pattern, "*")
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		middle := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
		var camera int
		if _, err := fmt.Sscanf(middle, "%d", &camera); err != nil || fmt.Sprint(camera) != middle {
			break
		}
		return pattern, camera, nil
	}
	return "", 0, fmt.Errorf("%w: %s", ErrUnknownTopic, name)
}
