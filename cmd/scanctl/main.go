package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wms-platform/scanner-service/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scanctl",
		Short: "Terminal client for scanner-service sessions",
		Long: `scanctl opens barcode scan sessions on pickings, forwards a keyboard-wedge
scanner to them and shows the reconciled progress.`,
		SilenceUsage: true,
	}
	cli.AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(cli.StartCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.ListenCmd())
	rootCmd.AddCommand(cli.CameraCmd())
	rootCmd.AddCommand(cli.ToggleCmd())
	rootCmd.AddCommand(cli.ReloadCmd())
	rootCmd.AddCommand(cli.ValidateCmd())
	rootCmd.AddCommand(cli.CloseCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
