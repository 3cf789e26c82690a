// Package output renders CLI results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
)

// Format is the value of a command's --output flag.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

var formatAliases = map[string]Format{
	"":      FormatTable,
	"table": FormatTable,
	"json":  FormatJSON,
	"yaml":  FormatYAML,
	"yml":   FormatYAML,
}

// ParseFormat accepts table, json, yaml or yml in any case. Empty means
// table.
func ParseFormat(s string) (Format, error) {
	if f, ok := formatAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f, nil
	}
	return "", fmt.Errorf("invalid output format %q: want table, json or yaml", s)
}

// Printer renders results in one Format.
type Printer struct {
	w      io.Writer
	format Format
	color  bool
}

func NewPrinter(w io.Writer, format Format, color bool) *Printer {
	return &Printer{w: w, format: format, color: color}
}

// DefaultPrinter prints to stdout, in color when stdout is a terminal.
func DefaultPrinter(format Format) *Printer {
	return NewPrinter(os.Stdout, format, IsTerminal(os.Stdout))
}

// IsTerminal reports whether f is a terminal, Cygwin ptys included.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Print renders data. Table output needs a TableRenderer; anything else is
// printed as JSON.
func (p *Printer) Print(data any) error {
	if p.format == FormatYAML {
		return PrintYAML(p.w, data)
	}
	if r, ok := data.(TableRenderer); ok && p.format == FormatTable {
		return PrintTable(p.w, r)
	}
	return PrintJSON(p.w, data)
}

const (
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiReset  = "\033[0m"
)

func (p *Printer) Success(msg string) { p.line(ansiGreen, msg) }

func (p *Printer) Warning(msg string) { p.line(ansiYellow, msg) }

func (p *Printer) line(color, msg string) {
	if p.color {
		msg = color + msg + ansiReset
	}
	_, _ = fmt.Fprintln(p.w, msg)
}

// PrintJSON writes data as JSON indented by two spaces.
func PrintJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintYAML writes data as YAML indented by two spaces.
func PrintYAML(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}
