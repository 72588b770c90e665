package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

type output struct {
	w    io.Writer
	json bool
}

func newOutput(w io.Writer, format string) *output {
	return &output{w: w, json: format == "json"}
}

// Print writes v as indented JSON in json mode and text otherwise.
func (o *output) Print(text string, v any) {
	if o.json && v != nil {
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
		return
	}
	fmt.Fprintln(o.w, text)
}

// Say writes a text-only line. It is silent in json mode.
func (o *output) Say(format string, args ...any) {
	if o.json {
		return
	}
	fmt.Fprintf(o.w, format+"\n", args...)
}
