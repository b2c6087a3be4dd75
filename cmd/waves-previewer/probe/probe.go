// Package probe implements the "probe" CLI subcommand: read and print an
// audio file's format metadata without decoding it into memory.
package probe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/waves-previewer/internal/conf"
	"github.com/tphakala/waves-previewer/internal/dsp"
)

// Command creates the probe command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe [path]",
		Short: "Print an audio file's format metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := dsp.ProbeFile(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("probing %s: %w", args[0], err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	return cmd
}
