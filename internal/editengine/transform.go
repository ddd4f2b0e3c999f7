package editengine

import (
	"errors"
	"fmt"
	"strings"
)

// Edit modes. The set is closed: anything else is rejected rather than
// silently treated as an overwrite.
const (
	ModeOverwrite = "overwrite"
	ModeNDiff     = "unified_diff"
	ModeLineEdit  = "line_edit"
	ModeSpanEdit  = "span_edit"
)

var (
	ErrLineOutOfRange = errors.New("line number out of range")
	ErrSpanOutOfRange = errors.New("span out of range")
	ErrMalformedPatch = errors.New("invalid ndiff format: no diff line prefixes found")
	ErrUnknownMode    = errors.New("unknown edit mode")
)

// Request carries the parameters of one edit. Pointer fields distinguish
// "absent" from zero values, because which fields are required depends on
// the mode.
type Request struct {
	Mode       string
	Content    *string
	DiffText   *string
	LineNumber *int
	NewContent *string
	StartLine  *int
	EndLine    *int
}

// ModeOrDefault returns the effective mode, treating an empty mode as
// overwrite.
func (r Request) ModeOrDefault() string {
	if r.Mode == "" {
		return ModeOverwrite
	}
	return r.Mode
}

// Transform applies the requested edit to lines and returns the new line
// sequence. Pure: no I/O. Every line in the input and output carries its
// trailing newline.
func Transform(lines []string, req Request) ([]string, error) {
	switch req.ModeOrDefault() {
	case ModeNDiff:
		if req.DiffText == nil || *req.DiffText == "" {
			return nil, errors.New("diff_text required for unified_diff mode")
		}
		return NDiffApply(lines, *req.DiffText)
	case ModeLineEdit:
		if req.LineNumber == nil || req.NewContent == nil {
			return nil, errors.New("line_number and new_content required for line_edit mode")
		}
		return LineEdit(lines, *req.LineNumber, *req.NewContent)
	case ModeSpanEdit:
		if req.StartLine == nil || req.EndLine == nil || req.NewContent == nil {
			return nil, errors.New("start_line, end_line, and new_content required for span_edit mode")
		}
		return SpanEdit(lines, *req.StartLine, *req.EndLine, *req.NewContent)
	case ModeOverwrite:
		if req.Content == nil {
			return nil, errors.New("content required for default edit")
		}
		return Overwrite(*req.Content), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, req.Mode)
	}
}

// Validate re-runs only the parameter-shape and range checks and returns
// human-readable messages. It never touches the filesystem or computes a
// transform.
func Validate(lineCount int, fileExists bool, req Request) []string {
	var errs []string
	switch req.ModeOrDefault() {
	case ModeNDiff:
		if req.DiffText == nil || *req.DiffText == "" {
			errs = append(errs, "diff_text required for unified_diff mode")
		}
	case ModeLineEdit:
		if req.LineNumber == nil || req.NewContent == nil {
			errs = append(errs, "line_number and new_content required for line_edit mode")
		} else if *req.LineNumber < 1 || (fileExists && *req.LineNumber > lineCount) {
			errs = append(errs, "line_number out of range")
		}
	case ModeSpanEdit:
		if req.StartLine == nil || req.EndLine == nil || req.NewContent == nil {
			errs = append(errs, "start_line, end_line, and new_content required for span_edit mode")
		} else if *req.StartLine < 1 || *req.EndLine < *req.StartLine || (fileExists && *req.EndLine > lineCount) {
			errs = append(errs, "span out of range")
		}
	case ModeOverwrite:
		if req.Content == nil {
			errs = append(errs, "content required for default edit")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown edit mode: %s", req.Mode))
	}
	return errs
}

// Overwrite replaces the entire content, splitting on newlines and
// re-terminating every resulting line. A trailing newline closes the last
// line rather than opening an empty one, so writing a file's own content
// back is a no-op.
func Overwrite(content string) []string {
	return terminateLines(splitLines(content))
}

// LineEdit replaces one 1-based line.
func LineEdit(lines []string, lineNumber int, newContent string) ([]string, error) {
	if lineNumber < 1 || lineNumber > len(lines) {
		return nil, ErrLineOutOfRange
	}
	out := make([]string, len(lines))
	copy(out, lines)
	out[lineNumber-1] = ensureNewline(newContent)
	return out, nil
}

// SpanEdit splices the replacement's lines over the 1-based inclusive
// [start, end] range. The replacement may contain a different number of
// lines than the original span; an empty replacement deletes the span.
func SpanEdit(lines []string, start, end int, newContent string) ([]string, error) {
	if start < 1 || end > len(lines) || start > end {
		return nil, ErrSpanOutOfRange
	}
	replacement := terminateLines(splitLines(newContent))
	out := make([]string, 0, len(lines)-(end-start+1)+len(replacement))
	out = append(out, lines[:start-1]...)
	out = append(out, replacement...)
	out = append(out, lines[end:]...)
	return out, nil
}

// NDiffApply reconstructs the target content by replaying a line-tagged
// transcript: "  " context lines and "+ " insertions are kept, "- "
// deletions and "? " hints are dropped. This is the human-readable differ
// format, not a unified-diff hunk format.
func NDiffApply(_ []string, diffText string) ([]string, error) {
	diffLines := strings.Split(diffText, "\n")
	tagged := false
	for _, line := range diffLines {
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") {
			tagged = true
			break
		}
	}
	if !tagged {
		return nil, ErrMalformedPatch
	}
	var out []string
	for _, line := range diffLines {
		if len(line) < 2 {
			continue
		}
		switch line[:2] {
		case "  ", "+ ":
			out = append(out, ensureNewline(line[2:]))
		}
	}
	return out, nil
}

// SplitKeepEnds splits text into lines, each retaining its trailing
// newline; the final line may lack one.
func SplitKeepEnds(text string) []string {
	if text == "" {
		return nil
	}
	var lines []string
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
		if text == "" {
			break
		}
	}
	return lines
}

// splitLines splits on "\n" and drops the empty fragment a trailing
// newline leaves behind, so "" yields no lines and "a\n" yields one.
func splitLines(content string) []string {
	parts := strings.Split(content, "\n")
	if n := len(parts); parts[n-1] == "" {
		parts = parts[:n-1]
	}
	return parts
}

func terminateLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = ensureNewline(line)
	}
	return out
}

func ensureNewline(line string) string {
	if strings.HasSuffix(line, "\n") {
		return line
	}
	return line + "\n"
}
