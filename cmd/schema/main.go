package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/rssdigest/pkg/config"
)

type options struct {
	Output string `short:"o" long:"output" default:"schema.json" description:"schema output file"`
	Check  bool   `long:"check" description:"verify the embedded config schema matches the config types"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	lgr.Setup()

	if opts.Check {
		if err := config.CheckEmbeddedSchema(); err != nil {
			lgr.Fatalf("[ERROR] %v", err)
		}
		fmt.Println("embedded schema is up to date")
		return
	}

	data, err := json.MarshalIndent(config.GenerateSchema(), "", "  ")
	if err != nil {
		lgr.Fatalf("[ERROR] failed to marshal schema: %v", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(opts.Output, data, 0o600); err != nil { //nolint:gosec // schema file is not sensitive
		lgr.Fatalf("[ERROR] failed to write schema file: %v", err)
	}
	lgr.Printf("[INFO] schema written to %s", opts.Output)
}
