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
	staticConfigPath string
	staticBrokerSock string
)

var staticCmd = &cobra.Command{
	Use:     "static",
	Short:   "Run the static-SID daemon",
	GroupID: "daemon",
	Run: func(cmd *cobra.Command, args []string) {
		dial := func() (net.Conn, error) { return net.Dial("unix", staticBrokerSock) }
		client, err := broker.NewReconnectingClient(dial, slog.Default())
		if err != nil {
			panic(err)
		}

		mod := daemon.NewStaticModule(staticConfigPath, client)

		s, err := core.Start("static", staticConfigPath, logPath, logLevel, []core.Module{mod})
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
	rootCmd.AddCommand(staticCmd)
	staticCmd.Flags().StringVarP(&staticConfigPath, "config", "c", "/etc/srv6d/static.yaml", "static SID declarations")
	staticCmd.Flags().StringVarP(&staticBrokerSock, "broker-socket", "b", "/var/run/srv6d/broker.sock", "broker Unix socket to connect to")
}
