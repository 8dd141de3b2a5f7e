package config

import "time"

// getDefaultConfig retorna uma configuração padrão
func getDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			StaticDir:       "./static",
		},
		Telemetry: TelemetryConfig{
			PlotRate:        1000 * time.Millisecond,
			ImageRate:       500 * time.Millisecond,
			PointCloudRate:  50 * time.Millisecond,
			SeriesCapacity:  20,
			Cameras:         4,
			PointsPerCloud:  1000,
			CanvasWidth:     300,
			CanvasHeight:    200,
			ImageWidth:      320,
			ImageHeight:     240,
			// gráficos começam desmarcados, câmeras começam ligadas
			DefaultSelected: []string{"/camera/cam*/ir", "/camera/cam*/pointcloud"},
		},
		Command: CommandConfig{
			AmountMin: 0,
			AmountMax: 100,
		},
		Mission: MissionConfig{
			DefaultMode:   "1",
			ConnectDelay:  2000 * time.Millisecond,
			GoalDelayMin:  1000 * time.Millisecond,
			GoalDelayMax:  3000 * time.Millisecond,
			DispatchLimit: 10 * time.Second,
		},
		Transport: TransportConfig{
			Kind: "simulated",
		},
		Redis: RedisConfig{
			Host:       "localhost",
			Port:       6379,
			Password:   "",
			DB:         0,
			Prefix:     "mission_control",
			Enabled:    false,
			HistoryMax: 1000,
		},
		PLC: PLCConfig{
			Enabled:      false,
			Host:         "192.168.1.100",
			Rack:         0,
			Slot:         1,
			CommandDB:    20,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Discovery: DiscoveryConfig{
			Enabled: true,
		},
		Assets: AssetsConfig{
			ModelPath: "./assets/robot_model.gltf",
		},
		Log: LogConfig{
			Level:  "info",
			Dir:    "./logs",
			Prefix: "mission",
			File:   false,
		},
	}
}
