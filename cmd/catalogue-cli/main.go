package main

import (
	"context"
	"fmt"
	"os"

	"catalogue/pkg/client"
	"catalogue/pkg/config"
	"catalogue/pkg/log"

	"github.com/spf13/cobra"
)

var (
	configFile  string
	user        string
	password    string
	serviceHost string
	servicePort int
	jsonOutput  bool
	verbose     bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "catalogue-cli",
		Short: "Manage the dataset catalogue service",
		Long: `Command line client of the catalogue service. Settings are read from
client_config.json unless -c is given; flags override the file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.SetOutput(os.Stderr, false)
			if verbose {
				log.SetDebugMode()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "client config file path")
	rootCmd.PersistentFlags().StringVarP(&user, "user", "u", "", "service user")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "service password")
	rootCmd.PersistentFlags().StringVar(&serviceHost, "host", "", "service host")
	rootCmd.PersistentFlags().IntVar(&servicePort, "port", 0, "service port")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON lines instead of tables")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(
		datasetsCmd(),
		cdnsCmd(),
		usersCmd(),
		statusCmd(),
	)
	return rootCmd
}

// newClient loads the client configuration and builds a service client.
func newClient(withCredentials bool) (*client.Client, error) {
	cfg, err := config.LoadClient(configFile, map[string]any{
		"user":         user,
		"password":     password,
		"service_host": serviceHost,
		"service_port": servicePort,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot read configuration: %w", err)
	}
	if err := cfg.Validate(withCredentials); err != nil {
		return nil, err
	}

	log.Debug().Str("url", cfg.BaseURL()).Str("user", cfg.User).Msg("Using catalogue service")
	return client.NewFromConfig(cfg), nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show service name and version",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(false)
			if err != nil {
				return err
			}

			status, err := c.Status(context.Background())
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), status)
		},
	}
}
