package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "appservice-gateway",
		Short: "Resolve App Service session cookies into authenticated principals",
		Long: `appservice-gateway authenticates requests by forwarding their session
cookies and X-ZUMO-* headers to the App Service /.auth/me endpoint.
Use "serve" to run the HTTP gateway and "check" to try a single session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCheckCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
