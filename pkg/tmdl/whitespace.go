package tmdl

import (
	"fmt"
	"strings"
)

// IndentationError describes one line that violates TMDL's tab-only
// indentation rule.
type IndentationError struct {
	LineNumber  int // 1-based
	Message     string
	LineContent string // truncated to 50 chars
}

// Indent returns tab indentation for the given level. Levels below zero are
// treated as zero.
func Indent(level int) string {
	if level <= 0 {
		return ""
	}
	return strings.Repeat("\t", level)
}

// ValidateIndentation checks that content uses only tab indentation and
// returns an error entry for each line that starts with a space.
func ValidateIndentation(content string) []IndentationError {
	var errs []IndentationError
	for i, line := range strings.Split(content, "\n") {
		if line == "" || line[0] != ' ' {
			continue
		}
		spaces := len(line) - len(strings.TrimLeft(line, " "))
		truncated := line
		if len(truncated) > 50 {
			truncated = truncated[:50]
		}
		errs = append(errs, IndentationError{
			LineNumber:  i + 1,
			Message:     fmt.Sprintf("line %d: %d leading space(s); TMDL requires tab indentation", i+1, spaces),
			LineContent: truncated,
		})
	}
	return errs
}

// mustBeTabIndented wraps ValidateIndentation for use by generators: any
// space-indented line in generated output is a generator bug.
func mustBeTabIndented(name, content string) error {
	errs := ValidateIndentation(content)
	if len(errs) == 0 {
		return nil
	}
	messages := make([]string, len(errs))
	for i, e := range errs {
		messages[i] = e.Message
	}
	return fmt.Errorf("generated %s has indentation errors: %s", name, strings.Join(messages, "; "))
}
