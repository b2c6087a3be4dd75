package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/waves-previewer/cmd/waves-previewer/exportcmd"
	"github.com/tphakala/waves-previewer/cmd/waves-previewer/probe"
	"github.com/tphakala/waves-previewer/cmd/waves-previewer/scan"
	"github.com/tphakala/waves-previewer/cmd/waves-previewer/serve"
	"github.com/tphakala/waves-previewer/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "waves-previewer",
		Short: "Waveform previewer and batch editor CLI",
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		log.Printf("error setting up flags: %v\n", err)
	}

	scanCmd := scan.Command(settings)
	probeCmd := probe.Command(settings)
	exportCmd := exportcmd.Command(settings)
	serveCmd := serve.Command(settings)

	rootCmd.AddCommand(scanCmd, probeCmd, exportCmd, serveCmd)

	return rootCmd
}

// setupFlags defines flags global to the command line interface.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
