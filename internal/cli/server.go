package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cgc-labs/marketd/internal/config"
	"github.com/cgc-labs/marketd/internal/node"
	"github.com/cgc-labs/marketd/internal/rpc"
)

var (
	// Server flags
	standalone bool
	bindAddr   string
	port       int
)

// serverCmd starts the daemon. It is also the default command.
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the marketplace ledger daemon",
	Long: `Start the marketd server: it restores the last ledger snapshot,
opens the transaction journal and serves the JSON-RPC API until
interrupted.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.RunE = serverCmd.RunE

	serverCmd.Flags().BoolVar(&standalone, "standalone", false, "run with no peers and accept unsigned submissions")
	serverCmd.Flags().StringVar(&bindAddr, "bind", "", "address to bind the RPC listener to")
	serverCmd.Flags().IntVarP(&port, "port", "p", 0, "RPC listen port (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if standalone {
		cfg.Engine.Standalone = true
	}
	if bindAddr != "" {
		cfg.Server.Host = bindAddr
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := node.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer n.Close()

	if !quiet {
		fmt.Printf("marketd listening on %s (store=%s standalone=%v ledger_seq=%d)\n",
			cfg.RPCAddr(), n.StoreName(), cfg.Engine.Standalone, n.Ledger().Seq())
	}

	server := rpc.NewServer(n, cfg.RPCAddr())
	return server.Run(ctx)
}
