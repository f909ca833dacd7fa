package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold       = color.New(color.Bold).SprintFunc()
	Dim        = color.New(color.Faint).SprintFunc()
	Cyan       = color.New(color.FgCyan).SprintFunc()
	Green      = color.New(color.FgGreen).SprintFunc()
	Red        = color.New(color.FgRed).SprintFunc()
	Yellow     = color.New(color.FgYellow).SprintFunc()
	Magenta    = color.New(color.FgMagenta).SprintFunc()
	BoldCyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen  = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed    = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldWhite  = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PrintLogo renders the colored heddle logo to stderr.
func PrintLogo() {
	w := os.Stderr
	frame := color.New(color.FgCyan)
	threads := color.New(color.FgCyan, color.Faint)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +----------------------+")
	threads.Fprintln(w, "   |  | | | | | | | | |  |")
	frame.Fprintln(w, "   |==|=|=|=|=|=|=|=|=|==|")
	brand.Fprintln(w, "   |  H  E  D  D  L  E   |")
	frame.Fprintln(w, "   |==|=|=|=|=|=|=|=|=|==|")
	threads.Fprintln(w, "   |  | | | | | | | | |  |")
	frame.Fprintln(w, "   +----------------------+")
	tag.Fprintf(w, "   %s Task assignment reasoning\n", Dim("🧵"))
	fmt.Fprintln(w)
}

// taskColors is a palette of distinct bold colors for differentiating tasks.
var taskColors = []func(a ...interface{}) string{
	color.New(color.Bold, color.FgMagenta).SprintFunc(),
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// taskColorIndex hashes a task ID to a palette index.
func taskColorIndex(taskID string) int {
	var h uint32
	for _, c := range taskID {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(taskColors)))
}

// TaskPrefix returns a colored [task-id] prefix string.
// Each task ID gets a distinct color from the palette.
func TaskPrefix(taskID string) string {
	c := taskColors[taskColorIndex(taskID)]
	return Dim("[") + c(taskID) + Dim("]")
}

// VerdictIcon returns a colored icon for an assignment decision.
func VerdictIcon(allow bool, safetyCritical bool) string {
	switch {
	case allow:
		return Green("✓")
	case safetyCritical:
		return BoldRed("✗")
	default:
		return Red("✗")
	}
}

// EdgeArrow renders a dependency edge with its strength.
func EdgeArrow(hard bool) string {
	if hard {
		return BoldWhite("⇒")
	}
	return Dim("→")
}

// StatusIcon returns a colored status icon for compact table display.
func StatusIcon(status string) string {
	switch status {
	case "done":
		return Green("✓")
	case "in_progress":
		return Cyan("●")
	case "blocked":
		return Red("⊘")
	default:
		return Dim("◌")
	}
}
