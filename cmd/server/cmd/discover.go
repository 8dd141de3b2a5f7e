package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mission_go/internal/discovery"
)

var discoverTimeout time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Procura servidores Mission Control na rede local (mDNS)",
	RunE: func(cmd *cobra.Command, args []string) error {
		instances, err := discovery.Browse(cmd.Context(), discoverTimeout)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(instances) == 0 {
			fmt.Fprintf(out, "Nenhum servidor %s encontrado em %v\n", discovery.ServiceType, discoverTimeout)
			return nil
		}

		fmt.Fprintf(out, "Encontrado(s) %d servidor(es):\n", len(instances))
		for _, inst := range instances {
			fmt.Fprintf(out, "  %s  %s:%d  [%s]  transport=%s cameras=%s\n",
				inst.Name, inst.Host, inst.Port, strings.Join(inst.Addresses, ", "),
				inst.Text["transport"], inst.Text["cameras"])
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().DurationVarP(&discoverTimeout, "timeout", "t", 3*time.Second, "tempo de procura")
	rootCmd.AddCommand(discoverCmd)
}
