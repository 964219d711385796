package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/sashba/config"
)

type rootOptions struct {
	envFiles []string
	logLevel string

	cfg config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "hbasim",
		Short: "hbasim runs remote device lifecycle scenarios on a simulated HBA.",
		Long: `hbasim drives the remote device lifecycle manager of a ` +
			`simulated SAS host bus adapter through scripted scenarios. ` +
			`Tunables are read from dotenv files and the environment.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup()
		},
	}

	rootCmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file",
		[]string{".env"}, "dotenv files to read the configuration from")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newRunCmd(opts))

	return rootCmd
}

func (o *rootOptions) setup() error {
	level, err := log.ParseLevel(o.logLevel)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	log.SetLevel(level)

	o.cfg, err = config.Load(o.envFiles...)
	if err != nil {
		return err
	}

	return nil
}
