package runner

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// lineWidth is the column count status lines are padded to.
const lineWidth = 79

// Status is a hook's outcome.
type Status int

const (
	Passed Status = iota
	Failed
	Skipped
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "Passed"
	case Failed:
		return "Failed"
	default:
		return "Skipped"
	}
}

func (s Status) color() string {
	switch s {
	case Passed:
		return "\x1b[42m"
	case Failed:
		return "\x1b[41m"
	default:
		return "\x1b[43;30m"
	}
}

// statusLine renders `name....note Status` padded to lineWidth by display width.
func statusLine(name, note string, status Status, color bool) string {
	label := status.String()
	dots := lineWidth - runewidth.StringWidth(name) - runewidth.StringWidth(note) - len(label)
	if dots < 1 {
		dots = 1
	}
	if color {
		label = status.color() + label + "\x1b[0m"
	}
	return name + strings.Repeat(".", dots) + note + label
}

type reporter struct {
	w       io.Writer
	color   bool
	verbose bool
}

func (r *reporter) report(res Result) {
	note := ""
	if res.Status == Skipped {
		note = res.SkipReason
	}
	fmt.Fprintln(r.w, statusLine(res.Name, note, res.Status, r.color)) //nolint:errcheck // CLI output

	if res.Status == Skipped {
		return
	}
	if res.Status == Failed || r.verbose || res.Verbose {
		fmt.Fprintf(r.w, "- hook id: %s\n", res.HookID) //nolint:errcheck // CLI output
		if res.Status == Failed && res.Code != 0 {
			fmt.Fprintf(r.w, "- exit code: %d\n", res.Code) //nolint:errcheck // CLI output
		}
		if r.verbose {
			fmt.Fprintf(r.w, "- duration: %.2fs\n", res.Duration.Seconds()) //nolint:errcheck // CLI output
		}
		if len(res.Output) > 0 && res.LogFile == "" {
			fmt.Fprintf(r.w, "\n%s", res.Output) //nolint:errcheck // CLI output
			if !strings.HasSuffix(string(res.Output), "\n") {
				fmt.Fprintln(r.w) //nolint:errcheck // CLI output
			}
		}
		fmt.Fprintln(r.w) //nolint:errcheck // CLI output
	}
}
