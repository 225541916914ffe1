package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// outputJSON writes v as pretty-printed JSON to stdout.
func (a *app) outputJSON(v interface{}) error {
	encoder := json.NewEncoder(a.stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// outputRaw writes a Jira response body unchanged, newline-terminated.
func outputRaw(w io.Writer, body []byte) {
	_, _ = w.Write(body)
	if !bytes.HasSuffix(body, []byte("\n")) {
		_, _ = io.WriteString(w, "\n")
	}
}
