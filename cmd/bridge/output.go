// FILE: lixenwraith/bridge/cmd/bridge/output.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/lixenwraith/bridge"
	"golang.org/x/term"
)

// Output formats accepted by --format.
const (
	formatJSON   = "json"
	formatDump   = "dump"
	formatScript = "script"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// writeValue prints v in the requested format. JSON is indented when
// writing to a terminal.
func writeValue(w io.Writer, v bridge.Value, format string) error {
	switch format {
	case "", formatJSON:
		data, err := v.MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		if isTerminal(w) {
			var buf bytes.Buffer
			if err := json.Indent(&buf, data, "", "  "); err == nil {
				data = buf.Bytes()
			}
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case formatDump:
		dumper.Fdump(w, v)
		return nil

	case formatScript:
		_, err := fmt.Fprintln(w, v.String())
		return err

	default:
		return fmt.Errorf("unknown output format %q (want json, dump or script)", format)
	}
}

// readInput reads a file, or stdin for "-"
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(io.LimitReader(os.Stdin, bridge.MaxDocumentSize))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", path, err)
	}
	return data, nil
}
