package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mission_go/internal/server"
	"mission_go/pkg/logger"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Inicia o servidor HTTP/WebSocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort > 0 {
			cfg.Server.Port = servePort
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		if err := setupLogger(cfg, false); err != nil {
			return err
		}
		defer logger.Sync()

		logger.Infof("Configuração carregada: porta %d, transporte %s, Redis em %s:%d (habilitado: %v)",
			cfg.Server.Port, cfg.Transport.Kind, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Enabled)

		srv, err := server.NewServer(cfg)
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		// Captura de sinais para shutdown gracioso
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case err := <-errCh:
			if err != nil {
				logger.Error("Erro ao iniciar o servidor", err)
				return err
			}
		case <-quit:
			logger.Info("Desligando servidor...")
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Erro durante o shutdown do servidor", err)
			return err
		}

		logger.Info("Servidor encerrado com sucesso")
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "porta HTTP (sobrescreve a configuração)")
	rootCmd.AddCommand(serveCmd)
}
