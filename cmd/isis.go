package cmd

import (
	"log/slog"
	"net"

	"github.com/arcrtr/srv6d/broker"
	"github.com/arcrtr/srv6d/core"
	"github.com/arcrtr/srv6d/daemon"
	"github.com/spf13/cobra"
)

var (
	isisConfigPath string
	isisBrokerSock string
)

var isisCmd = &cobra.Command{
	Use:     "isis",
	Short:   "Run the IS-IS SRv6 locator/adjacency-SID daemon",
	GroupID: "daemon",
	Run: func(cmd *cobra.Command, args []string) {
		dial := func() (net.Conn, error) { return net.Dial("unix", isisBrokerSock) }
		client, err := broker.NewReconnectingClient(dial, slog.Default())
		if err != nil {
			panic(err)
		}

		mod := daemon.NewISISModule(isisConfigPath, client)

		s, err := core.Start("isis", isisConfigPath, logPath, logLevel, []core.Module{mod})
		if err != nil {
			panic(err)
		}

		daemon.ListenAndDispatch(s, client, []daemon.Reevaluator{mod})

		if err := core.Run(s); err != nil {
			panic(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(isisCmd)
	isisCmd.Flags().StringVarP(&isisConfigPath, "config", "c", "/etc/srv6d/isis.yaml", "locator and health-check declarations")
	isisCmd.Flags().StringVarP(&isisBrokerSock, "broker-socket", "b", "/var/run/srv6d/broker.sock", "broker Unix socket to connect to")
}
