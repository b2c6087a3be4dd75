// Package scan implements the "scan" CLI subcommand: walk a folder and
// report newly discovered audio files.
package scan

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/waves-previewer/internal/conf"
	"github.com/tphakala/waves-previewer/internal/jobs"
)

// Command creates the scan command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Walk a folder and list audio files",
		Long:  "Recursively scan a directory for audio files supported for preview/export, reporting progress as it goes.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
			go func() {
				<-sigChan
				fmt.Fprintln(cmd.ErrOrStderr(), "\nreceived interrupt, stopping scan...")
				cancel()
			}()
			defer signal.Stop(sigChan)

			batchSize := viper.GetInt("scan.batch_size")
			if batchSize <= 0 {
				batchSize = 64
			}

			progressCh := jobs.ScanFolder(ctx, args[0], batchSize)
			var total int
			for p := range progressCh {
				if p.Err != nil {
					return fmt.Errorf("scanning %s: %w", args[0], p.Err)
				}
				for _, path := range p.NewPaths {
					fmt.Fprintln(cmd.OutOrStdout(), path)
				}
				total += len(p.NewPaths)
				if p.Done {
					break
				}
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "scanned %d file(s)\n", total)
			return nil
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cmd.Flags().Int("batch-size", 64, "Number of paths reported per progress batch")
	if err := viper.BindPFlag("scan.batch_size", cmd.Flags().Lookup("batch-size")); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}
