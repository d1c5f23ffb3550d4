package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"scim-patch/internal/config"
	"scim-patch/internal/diagnostic"
	"scim-patch/internal/patch"
)

// printer writes to one stream, colored when the stream is a terminal or
// color is forced.
type printer struct {
	w io.Writer

	green  func(string, ...any) string
	red    func(string, ...any) string
	yellow func(string, ...any) string
	faint  func(string, ...any) string
}

func newPrinter(w io.Writer, mode string) *printer {
	enabled := useColor(w, mode)

	sprintf := func(attrs ...color.Attribute) func(string, ...any) string {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}

		return c.SprintfFunc()
	}

	return &printer{
		w:      w,
		green:  sprintf(color.FgGreen),
		red:    sprintf(color.FgRed, color.Bold),
		yellow: sprintf(color.FgYellow),
		faint:  sprintf(color.Faint),
	}
}

func useColor(w io.Writer, mode string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// node prints one status line per node.
func (p *printer) node(n *patch.Node) {
	state := fmt.Sprintf("%-13s", n.State())

	switch n.State() {
	case patch.StateApplied:
		state = p.green("%s", state)
	case patch.StateReverted:
		state = p.yellow("%s", state)
	case patch.StateApplyFailed, patch.StateRevertFailed:
		state = p.red("%s", state)
	default:
		state = p.faint("%s", state)
	}

	p.printf("%s %s\n", state, n.Label())
}

// report prints the diagnostics of a batch.
func (p *printer) report(r diagnostic.Report) {
	for _, d := range r.Errors {
		p.printf("%s %s\n", p.red("error:"), d)
	}

	for _, d := range r.Warnings {
		p.printf("%s %s\n", p.yellow("warning:"), d)
	}
}

// diff prints a line diff of two values, removed lines in red and added
// lines in green. Equal values print nothing.
func (p *printer) diff(before, after any) {
	d := cmp.Diff(before, after)
	if d == "" {
		return
	}

	for _, line := range strings.Split(strings.TrimRight(d, "\n"), "\n") {
		trimmed := strings.TrimLeft(line, " \t")

		switch {
		case strings.HasPrefix(trimmed, "-"):
			line = p.red("%s", line)
		case strings.HasPrefix(trimmed, "+"):
			line = p.green("%s", line)
		}

		p.printf("%s\n", line)
	}
}

// value prints v as JSON or YAML.
func (p *printer) value(v any, format string) error {
	data, err := encode(v, format)
	if err != nil {
		return err
	}

	_, err = p.w.Write(data)

	return err
}

// encode renders v through its JSON form, so both formats follow the json
// tags of the resource types.
func encode(v any, format string) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}

	if format != config.FormatYAML {
		return append(data, '\n'), nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}

	blockStyle(&doc)

	return yaml.Marshal(&doc)
}

// blockStyle drops the flow and quoting styles the JSON input left on n.
func blockStyle(n *yaml.Node) {
	n.Style = 0

	for _, c := range n.Content {
		blockStyle(c)
	}
}
