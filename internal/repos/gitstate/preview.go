package gitstate

import "fmt"

const (
	previewHeadLinesConstant       = 2
	previewTailLinesConstant       = 2
	skippedCommitsTemplateConstant = "... skipped %d commits"
)

// AbbreviateLog keeps the first and last lines of a long log with a marker for the omitted middle.
func AbbreviateLog(lines []string) []string {
	if len(lines) <= previewHeadLinesConstant+previewTailLinesConstant+1 {
		return lines
	}
	abbreviated := make([]string, 0, previewHeadLinesConstant+previewTailLinesConstant+1)
	abbreviated = append(abbreviated, lines[:previewHeadLinesConstant]...)
	abbreviated = append(abbreviated, fmt.Sprintf(skippedCommitsTemplateConstant, len(lines)-previewHeadLinesConstant-previewTailLinesConstant))
	return append(abbreviated, lines[len(lines)-previewTailLinesConstant:]...)
}
