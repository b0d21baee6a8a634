package present

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"freecal/internal/model"
)

const clockFormat = "15:04"

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF8C00"))
	silentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
)

// Formatter renders free intervals as text.
type Formatter struct {
	// Reference is the working-window zone; times are always shown in it.
	Reference *time.Location
	// Display, if set, adds a converted copy of every interval.
	Display *time.Location
	Names   ZoneNames
	// Color enables terminal styling of headings.
	Color bool
}

// FormatInterval renders one interval as "HH:MM - HH:MM", or, with a
// display zone, "ET HH:MM - HH:MM, CT: HH:MM - HH:MM".
func (f Formatter) FormatInterval(iv model.Interval) string {
	ref := iv.In(f.reference())
	plain := ref.Start.Format(clockFormat) + " - " + ref.End.Format(clockFormat)
	if f.Display == nil {
		return plain
	}

	names := f.Names
	if names == nil {
		names = DefaultZoneNames()
	}
	disp := iv.In(f.Display)
	return fmt.Sprintf("%s %s - %s, %s: %s",
		names.Label(f.Display, iv.Start),
		disp.Start.Format(clockFormat),
		disp.End.Format(clockFormat),
		names.Label(f.reference(), iv.Start),
		plain,
	)
}

// FormatDay renders the heading and one line per free interval.
func (f Formatter) FormatDay(day model.DayAvailability) string {
	var b strings.Builder

	heading := "Availability for " + day.Date.Format("Monday (Jan 02)")
	if f.Color {
		heading = headingStyle.Render(heading)
	}
	b.WriteString(heading)
	b.WriteString("\n")

	if len(day.Free) == 0 {
		none := "No availability"
		if f.Color {
			none = silentStyle.Render(none)
		}
		b.WriteString(none)
		b.WriteString("\n")
		return b.String()
	}

	for _, iv := range day.Free {
		b.WriteString(f.FormatInterval(iv))
		b.WriteString("\n")
	}
	return b.String()
}

// Write renders every day to w, separated by blank lines.
func (f Formatter) Write(w io.Writer, days []model.DayAvailability) error {
	for i, day := range days {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, f.FormatDay(day)); err != nil {
			return err
		}
	}
	return nil
}

func (f Formatter) reference() *time.Location {
	if f.Reference == nil {
		return time.UTC
	}
	return f.Reference
}

// ShouldColor reports whether w is a terminal and NO_COLOR is unset.
func ShouldColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
