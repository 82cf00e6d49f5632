package doctor

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"runedoc/internal/validation"
)

// Render writes a validation result to out in the selected format.
func Render(out io.Writer, result *validation.Result, format OutputFormat) {
	switch format {
	case FormatJSON:
		renderJSON(out, result)
	case FormatQuickfix:
		renderQuickfix(out, result)
	default:
		renderTerminal(out, result)
	}
}

func renderJSON(out io.Writer, result *validation.Result) {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		fmt.Fprintln(out, "{}")
	}
}

// renderQuickfix prints one line per issue in the file:line:column format
// editors jump on. Positions are 1-based here; a missing location defaults
// to line 1.
func renderQuickfix(out io.Writer, result *validation.Result) {
	for _, issue := range result.Errors {
		message := "error: " + issue.Message
		if issue.Documentation != "" {
			message += fmt.Sprintf(" (see: %s)", issue.Documentation)
		}
		fmt.Fprintf(out, "%s%s\n", quickfixLocation(issue), message)
	}
	for _, issue := range result.Warnings {
		message := "warning: " + issue.Message
		if issue.Suggestion != "" {
			message += fmt.Sprintf(" (hint: %s)", issue.Suggestion)
		}
		fmt.Fprintf(out, "%s%s\n", quickfixLocation(issue), message)
	}
}

func quickfixLocation(issue validation.Issue) string {
	if issue.Line != nil && issue.Column != nil {
		return fmt.Sprintf("%s:%d:%d: ", issue.File, *issue.Line+1, *issue.Column+1)
	}
	return fmt.Sprintf("%s:1: ", issue.File)
}

var (
	errorColor      = color.New(color.FgRed, color.Bold)
	warningColor    = color.New(color.FgYellow)
	suggestionColor = color.New(color.FgCyan)
	okColor         = color.New(color.FgGreen)
)

func renderTerminal(out io.Writer, result *validation.Result) {
	for _, issue := range result.Errors {
		errorColor.Fprintf(out, "error")
		fmt.Fprintf(out, ": %s\n", issue.Message)
		if issue.Line != nil && issue.Column != nil {
			fmt.Fprintf(out, "  --> %s:%d:%d\n", issue.File, *issue.Line+1, *issue.Column+1)
		} else {
			fmt.Fprintf(out, "  --> %s\n", issue.File)
		}
		if issue.Context != "" {
			fmt.Fprintf(out, "  = %s\n", issue.Context)
		}
		if issue.Documentation != "" {
			fmt.Fprintf(out, "  = see: %s\n", issue.Documentation)
		}
	}

	for _, issue := range result.Warnings {
		warningColor.Fprintf(out, "warning")
		fmt.Fprintf(out, ": %s\n", issue.Message)
		if issue.Line != nil && issue.Column != nil {
			fmt.Fprintf(out, "  --> %s:%d:%d\n", issue.File, *issue.Line+1, *issue.Column+1)
		} else {
			fmt.Fprintf(out, "  --> %s\n", issue.File)
		}
		if issue.Suggestion != "" {
			fmt.Fprintf(out, "  = hint: %s\n", issue.Suggestion)
		}
	}

	for _, suggestion := range result.Suggestions {
		suggestionColor.Fprintf(out, "suggestion")
		fmt.Fprintf(out, ": %s\n", suggestion.Message)
		if suggestion.Example != "" {
			for _, line := range splitLines(suggestion.Example) {
				fmt.Fprintf(out, "    %s\n", line)
			}
		}
	}

	if result.ErrorCount() == 0 && result.WarningCount() == 0 {
		okColor.Fprintf(out, "ok")
		fmt.Fprintln(out, ": no issues found")
		return
	}
	fmt.Fprintf(out, "\n%d error(s), %d warning(s)\n", result.ErrorCount(), result.WarningCount())
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}
