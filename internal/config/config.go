package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultPath é o arquivo de configuração procurado quando nenhum é informado
const DefaultPath = "config.json"

// Config representa a configuração completa da aplicação
type Config struct {
	Server    ServerConfig    `json:"server"`
	Telemetry TelemetryConfig `json:"telemetry"`
	Command   CommandConfig   `json:"command"`
	Mission   MissionConfig   `json:"mission"`
	Transport TransportConfig `json:"transport"`
	Redis     RedisConfig     `json:"redis"`
	PLC       PLCConfig       `json:"plc"`
	Discovery DiscoveryConfig `json:"discovery"`
	Assets    AssetsConfig    `json:"assets"`
	Log       LogConfig       `json:"log"`
}

// ServerConfig contém configurações do servidor HTTP/WebSocket
type ServerConfig struct {
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout"`
	StaticDir       string        `json:"staticDir"`
	// AllowedOrigins restringe o upgrade do WebSocket; vazio aceita qualquer origem
	AllowedOrigins []string `json:"allowedOrigins"`
}

// TelemetryConfig contém os períodos dos produtores simulados
type TelemetryConfig struct {
	PlotRate        time.Duration `json:"plotRate"`
	ImageRate       time.Duration `json:"imageRate"`
	PointCloudRate  time.Duration `json:"pointCloudRate"`
	SeriesCapacity  int           `json:"seriesCapacity"`
	Cameras         int           `json:"cameras"`
	PointsPerCloud  int           `json:"pointsPerCloud"`
	CanvasWidth     int           `json:"canvasWidth"`
	CanvasHeight    int           `json:"canvasHeight"`
	ImageWidth      int           `json:"imageWidth"`
	ImageHeight     int           `json:"imageHeight"`
	DefaultSelected []string      `json:"defaultSelected"`
}

// CommandConfig contém os limites do encoder de comandos
type CommandConfig struct {
	AmountMin float64 `json:"amountMin"`
	AmountMax float64 `json:"amountMax"`
}

// MissionConfig contém os atrasos das simulações do painel
type MissionConfig struct {
	DefaultMode   string        `json:"defaultMode"`
	ConnectDelay  time.Duration `json:"connectDelay"`
	GoalDelayMin  time.Duration `json:"goalDelayMin"`
	GoalDelayMax  time.Duration `json:"goalDelayMax"`
	DispatchLimit time.Duration `json:"dispatchLimit"`
}

// TransportConfig seleciona por onde os comandos saem
type TransportConfig struct {
	// Kind: "simulated", "redis" ou "plc"
	Kind string `json:"kind"`
}

// RedisConfig contém configurações do Redis
type RedisConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	Prefix     string `json:"prefix"`
	Enabled    bool   `json:"enabled"`
	HistoryMax int    `json:"historyMax"`
}

// PLCConfig contém configurações para comunicação com o PLC S7
type PLCConfig struct {
	Enabled      bool          `json:"enabled"`
	Host         string        `json:"host"`
	Rack         int           `json:"rack"`
	Slot         int           `json:"slot"`
	CommandDB    int           `json:"commandDb"`
	ReadTimeout  time.Duration `json:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout"`
}

// DiscoveryConfig contém configurações do anúncio mDNS
type DiscoveryConfig struct {
	Enabled bool `json:"enabled"`
}

// AssetsConfig aponta para arquivos estáticos servidos pela API
type AssetsConfig struct {
	ModelPath string `json:"modelPath"`
}

// LogConfig contém configurações do logger
type LogConfig struct {
	Level  string `json:"level"`
	Dir    string `json:"dir"`
	Prefix string `json:"prefix"`
	File   bool   `json:"file"`
}

// Load carrega a configuração do arquivo (se existir) sobre os valores padrão,
// aplica as variáveis de ambiente e valida o resultado
func Load(path string) (*Config, error) {
	config := getDefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err == nil {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		if err := decoder.Decode(&config); err != nil {
			return nil, fmt.Errorf("erro ao decodificar %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("arquivo de configuração não encontrado: %s", path)
	}

	if err := applyEnvironmentOverrides(&config, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default retorna a configuração padrão já validada
func Default() *Config {
	config := getDefaultConfig()
	return &config
}

// lookupFunc tem a assinatura de os.LookupEnv
type lookupFunc func(key string) (string, bool)

// applyEnvironmentOverrides sobrescreve configurações com variáveis de ambiente
func applyEnvironmentOverrides(config *Config, lookup lookupFunc) error {
	ints := map[string]*int{
		"MISSION_SERVER_PORT": &config.Server.Port,
		"MISSION_REDIS_PORT":  &config.Redis.Port,
		"MISSION_REDIS_DB":    &config.Redis.DB,
		"MISSION_PLC_RACK":    &config.PLC.Rack,
		"MISSION_PLC_SLOT":    &config.PLC.Slot,
	}
	strs := map[string]*string{
		"MISSION_REDIS_HOST":     &config.Redis.Host,
		"MISSION_REDIS_PASSWORD": &config.Redis.Password,
		"MISSION_REDIS_PREFIX":   &config.Redis.Prefix,
		"MISSION_PLC_HOST":       &config.PLC.Host,
		"MISSION_TRANSPORT":      &config.Transport.Kind,
		"MISSION_LOG_LEVEL":      &config.Log.Level,
		"MISSION_MODEL_PATH":     &config.Assets.ModelPath,
		"MISSION_STATIC_DIR":     &config.Server.StaticDir,
	}
	bools := map[string]*bool{
		"MISSION_REDIS_ENABLED":     &config.Redis.Enabled,
		"MISSION_PLC_ENABLED":       &config.PLC.Enabled,
		"MISSION_DISCOVERY_ENABLED": &config.Discovery.Enabled,
		"MISSION_LOG_FILE":          &config.Log.File,
	}
	durations := map[string]*time.Duration{
		"MISSION_PLOT_RATE":       &config.Telemetry.PlotRate,
		"MISSION_IMAGE_RATE":      &config.Telemetry.ImageRate,
		"MISSION_POINTCLOUD_RATE": &config.Telemetry.PointCloudRate,
		"MISSION_CONNECT_DELAY":   &config.Mission.ConnectDelay,
	}

	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s inválido: %w", key, err)
			}
			*dst = n
		}
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s inválido: %w", key, err)
			}
			*dst = b
		}
	}
	for key, dst := range durations {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s inválido: %w", key, err)
			}
			*dst = d
		}
	}

	return nil
}

// Validate verifica combinações inválidas antes de subir os serviços
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("porta do servidor inválida: %d", c.Server.Port)
	}
	if c.Telemetry.PlotRate <= 0 || c.Telemetry.ImageRate <= 0 || c.Telemetry.PointCloudRate <= 0 {
		return fmt.Errorf("períodos de telemetria devem ser positivos")
	}
	if c.Telemetry.SeriesCapacity <= 0 {
		return fmt.Errorf("capacidade da série deve ser positiva: %d", c.Telemetry.SeriesCapacity)
	}
	if c.Telemetry.Cameras <= 0 {
		return fmt.Errorf("número de câmeras deve ser positivo: %d", c.Telemetry.Cameras)
	}
	if c.Command.AmountMin > c.Command.AmountMax {
		return fmt.Errorf("amountMin (%g) maior que amountMax (%g)", c.Command.AmountMin, c.Command.AmountMax)
	}
	if c.Mission.GoalDelayMin > c.Mission.GoalDelayMax {
		return fmt.Errorf("goalDelayMin maior que goalDelayMax")
	}

	switch c.Transport.Kind {
	case "simulated", "redis":
	case "plc":
		if !c.PLC.Enabled {
			return fmt.Errorf("transporte plc exige plc.enabled=true")
		}
	default:
		return fmt.Errorf("transporte desconhecido: %q", c.Transport.Kind)
	}
	if c.Transport.Kind == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("transporte redis exige redis.enabled=true")
	}

	return nil
}
