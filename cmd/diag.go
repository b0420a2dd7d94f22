package cmd

import (
	"fmt"

	"github.com/arcrtr/srv6d/sys"
	"github.com/spf13/cobra"
)

var diagCmd = &cobra.Command{
	Use:     "diag",
	Short:   "Dump local SRv6 forwarding state for troubleshooting",
	GroupID: "diag",
	Run: func(cmd *cobra.Command, args []string) {
		out, err := sys.ExecOutput("ip", "-6", "route", "show", "table", "all")
		if err != nil {
			fmt.Println(out)
			panic(err)
		}
		fmt.Println(out)

		out, err = sys.ExecOutput("ip", "vrf", "show")
		if err == nil {
			fmt.Println(out)
		}
	},
}

func init() {
	rootCmd.AddCommand(diagCmd)
}
