package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"mission_go/internal/command"
)

var (
	encodeInput  command.Input
	encodeModes  bool
	encodeIndent bool
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Codifica um comando e imprime o registro em JSON",
	Long: `Codifica os campos do formulário de comando sem despachar.

Examples:
  mission encode --mode 0.1 --motor-ids 1,2,3 --motor-goals 1000,1500,2000
  mission encode --mode 1.1 --position "1.5 2 0"
  mission encode --mode 2.3 --vertices 4,5 --amount 30
  mission encode --list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := setupLogger(cfg, true); err != nil {
			return err
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		if encodeIndent {
			encoder.SetIndent("", "  ")
		}

		if encodeModes {
			return encoder.Encode(command.Modes())
		}

		record, err := command.NewEncoder(cfg.Command.AmountMin, cfg.Command.AmountMax).Encode(encodeInput)
		if err != nil {
			return err
		}
		return encoder.Encode(record)
	},
}

func init() {
	f := encodeCmd.Flags()
	f.StringVarP(&encodeInput.Mode, "mode", "m", "", "modo de operação, ex.: 0.1, 2.2, 4")
	f.StringVar(&encodeInput.MotorIDs, "motor-ids", "", "IDs dos motores separados por vírgula")
	f.StringVar(&encodeInput.MotorGoals, "motor-goals", "", "alvos dos motores separados por vírgula")
	f.StringVar(&encodeInput.Position, "position", "", "coordenadas x y z")
	f.StringVar(&encodeInput.Vertices, "vertices", "", "vértices separados por vírgula")
	f.Float64Var(&encodeInput.Amount, "amount", 0, "valor do controle deslizante")
	f.BoolVar(&encodeModes, "list", false, "lista os modos e os campos de cada um")
	f.BoolVar(&encodeIndent, "indent", false, "JSON indentado")
	rootCmd.AddCommand(encodeCmd)
}
