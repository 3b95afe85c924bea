// Package output renders walk results and watch events for the terminal,
// with colors resolved against the destination writer.
package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/globwalk/pkg/dirwalk"
)

// Printer writes walk results with optional color and long-listing columns.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	styles Styles
	long   bool
}

// New creates a Printer. colorMode is one of "auto", "always", "never";
// in auto mode color is enabled only when out is a terminal.
func New(out, errOut io.Writer, colorMode string, long bool) *Printer {
	return &Printer{
		out:    out,
		errOut: errOut,
		styles: GetStyles(!useColor(colorMode, out)),
		long:   long,
	}
}

// Entry prints one walk result: the relative path, with a trailing separator
// for directories. In long mode the mode, size, and mtime columns precede it.
func (p *Printer) Entry(e *dirwalk.Entry) {
	name := e.Rel()
	switch {
	case e.IsDir():
		name = p.styles.Dir.Render(name + "/")
	case e.IsSymlink():
		name = p.styles.Symlink.Render(name)
	}

	if !p.long {
		_, _ = fmt.Fprintln(p.out, name)
		return
	}

	info, err := e.Info()
	if err != nil {
		// Stat failed after the entry was read. Print what we have.
		_, _ = fmt.Fprintln(p.out, name)
		return
	}

	meta := fmt.Sprintf("%s %9s %s",
		info.Mode().String(),
		FormatBytes(info.Size()),
		info.ModTime().Format("2006-01-02 15:04"))
	_, _ = fmt.Fprintf(p.out, "%s %s\n", p.styles.Meta.Render(meta), name)
}

// WalkError prints a non-fatal walk error to the error stream.
func (p *Printer) WalkError(err error) {
	_, _ = fmt.Fprintln(p.errOut, p.styles.Error.Render(fmt.Sprintf("globwalk: %v", err)))
}

// Summary prints the match totals for a finished walk.
func (p *Printer) Summary(files, dirs, errs int) {
	msg := fmt.Sprintf("%d files, %d dirs", files, dirs)
	if errs > 0 {
		msg += fmt.Sprintf(", %d errors", errs)
	}
	_, _ = fmt.Fprintln(p.out, p.styles.Summary.Render(msg))
}

// Delta prints one diff line. mark is "+", "-", or "~".
func (p *Printer) Delta(mark, rel string) {
	style := p.styles.Modified
	switch mark {
	case "+":
		style = p.styles.Created
	case "-":
		style = p.styles.Deleted
	}
	_, _ = fmt.Fprintf(p.out, "%s %s\n", style.Render(mark), rel)
}

// Event prints one watch event with a timestamp and the operation name.
func (p *Printer) Event(at time.Time, op, rel string) {
	style := p.styles.Modified
	switch op {
	case "CREATE":
		style = p.styles.Created
	case "DELETE":
		style = p.styles.Deleted
	}

	_, _ = fmt.Fprintf(p.out, "%s %s %s\n",
		p.styles.Meta.Render(at.Format("15:04:05")),
		style.Render(fmt.Sprintf("%-6s", op)),
		rel)
}

// useColor resolves a color mode against the destination writer.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return IsTTY(w)
}

// IsTTY reports whether w is attached to a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}

	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return false
}

// FormatBytes formats bytes in human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
