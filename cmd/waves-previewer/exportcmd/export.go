// Package exportcmd implements the "export" CLI subcommand: batch-export a
// set of audio files through the same planner/worker internal/export uses
// for the desktop front end's export dialog.
package exportcmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/waves-previewer/internal/conf"
	"github.com/tphakala/waves-previewer/internal/dsp"
	"github.com/tphakala/waves-previewer/internal/export"
	"github.com/tphakala/waves-previewer/internal/listmodel"
)

var supportedExportExts = dsp.SupportedOutputExtensions

// Command creates the export command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [paths...]",
		Short: "Batch export audio files",
		Long:  "Plan and execute an export run over one or more source files, honoring the configured save mode, name template, and conflict policy.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromFlags(settings)
			list := listmodel.New()

			tasks := make([]export.Task, 0, len(args))
			for _, path := range args {
				p, err := dsp.ProbeFile(context.Background(), path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipping %s: probe failed: %v\n", path, err)
					continue
				}

				item, err := list.Add(path, displayNameFromPath(path))
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipping %s: %v\n", path, err)
					continue
				}

				planItem := export.PlanItem{
					Item:       item,
					SampleRate: p.SampleRate,
					SourceBits: p.BitDepth,
				}
				tasks = append(tasks, export.Plan(planItem, cfg, export.PerItemOverride{}, supportedExportExts))
			}

			undoStack := export.NewOverwriteUndoStack()
			result := export.Run(tasks, cfg, undoStack)

			for _, p := range result.SuccessPaths {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
			}
			for _, p := range result.FailedPaths {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed %s\n", p)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "export finished: %d ok, %d failed\n", result.OK, result.Failed)

			if result.Failed > 0 {
				return fmt.Errorf("%d of %d exports failed", result.Failed, len(tasks))
			}
			return nil
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := setupFlags(cmd); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("dest", "", "Destination folder for new-file exports")
	cmd.Flags().String("name-template", "{name}", "Output filename template ({name}, {gain_db} tokens)")
	cmd.Flags().Bool("overwrite", false, "Overwrite source files instead of writing new ones")
	cmd.Flags().Bool("backup-bak", true, "Keep a .bak sibling when overwriting")
	cmd.Flags().String("conflict", "rename", "Conflict policy when destination exists: overwrite, skip, rename")
	cmd.Flags().String("format", "", "Force an output format for every item (wav, mp3, m4a)")

	return viper.BindPFlags(cmd.Flags())
}

func configFromFlags(settings *conf.Settings) export.Config {
	cfg := export.Config{
		DestFolder:     viper.GetString("dest"),
		NameTemplate:   viper.GetString("name-template"),
		BackupBak:      viper.GetBool("backup-bak"),
		FormatOverride: viper.GetString("format"),
	}
	if viper.GetBool("overwrite") {
		cfg.SaveMode = export.SaveOverwrite
	} else {
		cfg.SaveMode = export.SaveNewFile
	}

	switch viper.GetString("conflict") {
	case "overwrite":
		cfg.Conflict = export.ConflictOverwrite
	case "skip":
		cfg.Conflict = export.ConflictSkip
	default:
		cfg.Conflict = export.ConflictRename
	}

	if cfg.DestFolder == "" {
		cfg.DestFolder = settings.Export.DestFolder
	}
	return cfg
}

func displayNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
