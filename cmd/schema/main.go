// Command schema writes the JSON schema of the plainly config, or checks that a committed copy is up to date.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/plainly/pkg/config"
)

type options struct {
	Check bool `long:"check" description:"compare with the existing file instead of writing it"`
	Args  struct {
		Output string `positional-arg-name:"output" description:"schema file path"`
	} `positional-args:"yes"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}
	if opts.Args.Output == "" {
		opts.Args.Output = "schema.json"
	}
	if err := generate(opts.Args.Output, opts.Check); err != nil {
		lgr.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

// generate renders the schema and writes it to path. In check mode the file is left untouched
// and a mismatch is reported as an error.
func generate(path string, check bool) error {
	data, err := json.MarshalIndent(config.GenerateSchema(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	data = append(data, '\n')

	if check {
		existing, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if !bytes.Equal(bytes.TrimSpace(existing), bytes.TrimSpace(data)) {
			return errors.New(path + " is stale, run go generate ./pkg/config")
		}
		lgr.Printf("[INFO] %s is up to date", path)
		return nil
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	lgr.Printf("[INFO] schema generated at %s", path)
	return nil
}
