package printer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/HumanPrinter/enkoni-sub003/internal/domain"
	"github.com/HumanPrinter/enkoni-sub003/internal/usecase"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

var (
	// Color definitions
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Printer writes command output. Colors follow fatih/color, which honours
// NO_COLOR and disables itself when stdout is not a terminal.
type Printer struct {
	out io.Writer
	err io.Writer
}

// New returns a printer writing regular output to out and errors to errOut.
func New(out, errOut io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Printer{out: out, err: errOut}
}

// Success prints a success message in green with a checkmark prefix
func (p *Printer) Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprintln(p.out, msg)
}

// Info prints an informational message in the default color
func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.out, format+"\n", a...)
}

// Warning prints a warning message in yellow
func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.err, "⚠️  %s\n", fmt.Sprintf(format, a...))
}

// Step prints a step message with emphasis
func (p *Printer) Step(format string, a ...any) {
	cyan.Fprintf(p.out, "→ %s\n", fmt.Sprintf(format, a...))
}

// Error prints title, explanation and suggestions to the error writer and
// returns a plain error carrying the title for Cobra.
func (p *Printer) Error(title, explanation string, suggestions []string) error {
	red.Fprintf(p.err, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(p.err, "%s\n", explanation)
	}
	if len(suggestions) > 0 {
		fmt.Fprintf(p.err, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(p.err, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(p.err, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(p.err, "  %d. %s\n", i+1, suggestion)
			}
		}
	}
	return fmt.Errorf("%s", title)
}

// YAML writes v as a YAML document.
func (p *Printer) YAML(v any) error {
	enc := yaml.NewEncoder(p.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// Contacts writes contacts as an aligned table.
func (p *Printer) Contacts(contacts []*domain.Contact) error {
	tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tIBAN\tBIRTHDAY\tBALANCE")
	for _, c := range contacts {
		birthday := ""
		if c.Birthday != nil {
			birthday = c.Birthday.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%.2f\n", c.ID, c.Name, c.Email, c.Phone, c.IBAN, birthday, c.Balance)
	}
	return tw.Flush()
}

// ValidationResults prints one line per checked value.
func (p *Printer) ValidationResults(results []usecase.Result) {
	for _, r := range results {
		if r.Valid {
			detail := ""
			if r.Detail != "" {
				detail = " (" + r.Detail + ")"
			}
			green.Fprintf(p.out, "✓ %s%s\n", r.Value, detail)
			continue
		}
		red.Fprintf(p.out, "✗ %s", r.Value)
		fmt.Fprintf(p.out, ": %s [%s]\n", r.Message, r.Code)
	}
}
