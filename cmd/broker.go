package cmd

import (
	"net"

	"github.com/arcrtr/srv6d/core"
	"github.com/arcrtr/srv6d/daemon"
	"github.com/arcrtr/srv6d/sys"
	"github.com/spf13/cobra"
)

var (
	brokerListenPath string
	brokerFPMAddr    string
	brokerTable      uint32
)

var brokerCmd = &cobra.Command{
	Use:     "broker",
	Short:   "Run the central routing-information broker daemon",
	GroupID: "daemon",
	Run: func(cmd *cobra.Command, args []string) {
		fpmConn, err := net.Dial("tcp", brokerFPMAddr)
		if err != nil {
			panic(err)
		}

		mod := daemon.NewBrokerModule(brokerListenPath, fpmConn, brokerTable)

		s, err := core.Start("broker", "", logPath, logLevel, []core.Module{mod})
		if err != nil {
			panic(err)
		}

		if err := sys.VerifyIPv6Forwarding(); err != nil {
			s.Log.Warn("IPv6 forwarding check failed, continuing as an FPM-mirroring-only broker", "error", err)
		}

		if err := core.Run(s); err != nil {
			panic(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(brokerCmd)
	brokerCmd.Flags().StringVarP(&brokerListenPath, "listen", "L", "/var/run/srv6d/broker.sock", "Unix socket to accept daemon connections on")
	brokerCmd.Flags().StringVarP(&brokerFPMAddr, "fpm-addr", "f", "127.0.0.1:2620", "downstream Forwarding Plane Manager address")
	brokerCmd.Flags().Uint32VarP(&brokerTable, "table", "t", 254, "kernel routing table id to mirror local SIDs into")
}
