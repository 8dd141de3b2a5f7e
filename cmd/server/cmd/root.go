package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mission_go/internal/config"
	"mission_go/pkg/logger"
)

var (
	// Global flags
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "mission",
	Short: "Mission Control backend",
	Long: `Backend do painel de controle de missão: telemetria simulada, nuvens de
pontos, câmeras IR e despacho de comandos para o robô.

Examples:
  mission serve --config config.json          # Sobe o servidor HTTP/WebSocket
  mission encode --mode 0.1 --motor-ids 1,2,3 --motor-goals 1000,1500,2000
  mission pointcloud --camera 2 --png cloud.png
  mission discover --timeout 3s               # Procura servidores na rede`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "arquivo de configuração (padrão: config.json se existir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "nível de log (debug, info, warn, error)")
}

// loadConfig carrega a configuração e aplica --log-level por cima dela
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar configurações: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// setupLogger configura o logger. Os comandos de uma só execução mandam o
// log para stderr para não misturar com a saída.
func setupLogger(cfg *config.Config, toStderr bool) error {
	logger.Init()
	if toStderr {
		logger.SetOutput(os.Stderr)
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	if cfg.Log.File {
		if err := logger.EnableFileLogging(cfg.Log.Dir, cfg.Log.Prefix); err != nil {
			return err
		}
	}
	return nil
}
