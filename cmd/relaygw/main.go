package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/halcyon-ai/relaygw/internal/logging"
)

var (
	configPath string
	portFlag   int
	debugFlag  bool
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "relaygw",
		Short:         "relaygw translates OpenAI-compatible requests to an upstream agent protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "relaygw.yaml", "path to the YAML config file")
	root.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the gateway HTTP server",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "override the configured port")
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		logging.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
