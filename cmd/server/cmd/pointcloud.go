package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mission_go/internal/pointcloud"
	"mission_go/internal/telemetry"
)

var (
	cloudCamera   int
	cloudPoints   int
	cloudSeed     int64
	cloudRotation float64
	cloudTimeMs   float64
	cloudPNG      string
)

var pointcloudCmd = &cobra.Command{
	Use:   "pointcloud",
	Short: "Gera e projeta uma nuvem de pontos",
	Long: `Gera uma nuvem sintética para a câmera e imprime o quadro projetado em JSON,
ou grava um PNG com --png.

Examples:
  mission pointcloud --camera 1 --rotation 0.5
  mission pointcloud --camera 3 --png cloud.png`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := setupLogger(cfg, true); err != nil {
			return err
		}

		if cloudCamera < 0 || cloudCamera >= cfg.Telemetry.Cameras {
			return fmt.Errorf("%w: %d", pointcloud.ErrUnknownCamera, cloudCamera)
		}
		points := cloudPoints
		if points <= 0 {
			points = cfg.Telemetry.PointsPerCloud
		}
		timeMs := cloudTimeMs
		if !cmd.Flags().Changed("time") {
			timeMs = float64(time.Now().UnixMilli())
		}

		cloud := pointcloud.NewGenerator(points, cloudSeed).Generate(cloudCamera, timeMs)
		frame := pointcloud.NewFrame(cloudCamera, telemetry.CameraTopic(telemetry.TopicPointCloud, cloudCamera),
			cloud, cloudRotation, cfg.Telemetry.CanvasWidth, cfg.Telemetry.CanvasHeight)
		if frame == nil {
			return fmt.Errorf("canvas sem área: %dx%d", cfg.Telemetry.CanvasWidth, cfg.Telemetry.CanvasHeight)
		}

		if cloudPNG != "" {
			img, err := pointcloud.RenderPNG(frame)
			if err != nil {
				return err
			}
			if err := os.WriteFile(cloudPNG, img, 0o644); err != nil {
				return fmt.Errorf("erro ao gravar %s: %w", cloudPNG, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d pontos projetados em %s\n", len(frame.Circles), cloudPNG)
			return nil
		}

		return json.NewEncoder(cmd.OutOrStdout()).Encode(frame)
	},
}

func init() {
	f := pointcloudCmd.Flags()
	f.IntVar(&cloudCamera, "camera", 0, "índice da câmera")
	f.IntVar(&cloudPoints, "points", 0, "quantidade de pontos (padrão: configuração)")
	f.Int64Var(&cloudSeed, "seed", 0, "semente do gerador (0 sorteia uma)")
	f.Float64Var(&cloudRotation, "rotation", 0, "rotação em radianos em torno de Y")
	f.Float64Var(&cloudTimeMs, "time", 0, "instante da animação em ms (padrão: agora)")
	f.StringVar(&cloudPNG, "png", "", "grava o quadro em PNG neste arquivo")
	rootCmd.AddCommand(pointcloudCmd)
}
