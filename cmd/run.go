package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/qai-labs/mavdiscovery/internal/config"
	"github.com/qai-labs/mavdiscovery/logging"

	"github.com/qai-labs/mavdiscovery/internal/runtime"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start the discovery daemon",
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		rpcConfigPath, _ := cobraCmd.Flags().GetString("rpc-config")
		pkgConfigPath, _ := cobraCmd.Flags().GetString("package-config")
		if rpcConfigPath == "" || pkgConfigPath == "" {
			return fmt.Errorf("both -rpc_config and -package_config are required")
		}

		pkgCfg, err := config.LoadPackage(pkgConfigPath)
		if err != nil {
			return fmt.Errorf("package config: %w", err)
		}
		rpcCfg, err := config.LoadRPC(rpcConfigPath)
		if err != nil {
			return fmt.Errorf("rpc config: %w", err)
		}

		if err := logging.Configure(pkgCfg.LogFile, pkgCfg.LogLevel); err != nil {
			return fmt.Errorf("configuring logging: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		daemon := runtime.New(pkgCfg, rpcCfg, nil)
		return daemon.Run(ctx)
	},
}

func init() {
	runCmd.Flags().String("rpc-config", "", "path to the RPC config JSON file")
	runCmd.Flags().String("rpc_config", "", "alias of --rpc-config")
	runCmd.Flags().String("package-config", "", "path to the package config JSON file")
	runCmd.Flags().String("package_config", "", "alias of --package-config")

	runCmd.PreRunE = func(cobraCmd *cobra.Command, args []string) error {
		if v, _ := cobraCmd.Flags().GetString("rpc_config"); v != "" {
			cobraCmd.Flags().Set("rpc-config", v)
		}
		if v, _ := cobraCmd.Flags().GetString("package_config"); v != "" {
			cobraCmd.Flags().Set("package-config", v)
		}
		return nil
	}

	CMD.AddCommand(runCmd)
}
