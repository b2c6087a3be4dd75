// Command waves-previewer is the CLI entry point for the waveform
// previewer/batch editor: folder scanning, single-file metadata probing,
// batch export, and a read-only status HTTP server, all over the same
// internal packages the (separate) desktop front end would drive.
package main

import (
	"fmt"
	"os"

	"github.com/tphakala/waves-previewer/internal/conf"
	"github.com/tphakala/waves-previewer/internal/logging"
)

func main() {
	settings, err := conf.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init()

	if err := RootCommand(settings).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
