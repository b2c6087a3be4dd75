// Package serve implements the "serve" CLI subcommand: run the read-only
// status/SSE HTTP server against a freshly constructed engine, list model,
// and job coordinator.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/waves-previewer/internal/conf"
	"github.com/tphakala/waves-previewer/internal/engine"
	"github.com/tphakala/waves-previewer/internal/httpapi"
	"github.com/tphakala/waves-previewer/internal/jobs"
	"github.com/tphakala/waves-previewer/internal/listmodel"
)

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the read-only status HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
			go func() {
				<-sigChan
				fmt.Fprintln(cmd.ErrOrStderr(), "\nreceived interrupt, shutting down...")
				cancel()
			}()
			defer signal.Stop(sigChan)

			sampleRate := settings.Device.SampleRate
			if sampleRate <= 0 {
				sampleRate = 48000
			}
			channels := settings.Device.Channels
			if channels <= 0 {
				channels = 2
			}

			eng := engine.NewTestEngine(sampleRate, channels)
			list := listmodel.New()
			coord := jobs.NewCoordinator(
				settings.ListPreview.CacheMaxEntries,
				settings.ListPreview.PrefetchInflightMax,
				settings.Metadata.WorkerPoolSize,
				256,
			)

			addr := viper.GetString("serve.addr")
			if addr == "" {
				addr = ":8090"
			}

			srv := httpapi.New(eng, list, coord)
			fmt.Fprintf(cmd.ErrOrStderr(), "status server listening on %s\n", addr)
			return srv.Run(ctx, addr)
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cmd.Flags().String("addr", ":8090", "Address for the status HTTP server to listen on")
	if err := viper.BindPFlag("serve.addr", cmd.Flags().Lookup("addr")); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}
