package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/temirov/ingit/internal/repos/gitstate"
	"github.com/temirov/ingit/internal/workflow"
)

// OutputFormat selects how reports are rendered.
type OutputFormat string

// Supported output formats.
const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
)

const (
	documentIndent             = "  "
	unsupportedFormatTemplate  = "%w: %q (expected table, json or yaml)"
	renderErrorTemplate        = "render %s: %w"
	totalsTemplate             = "%d succeeded, %d skipped, %d failed, %d missing, %d unresolvable"
	runFooterTemplate          = "run %s"
	syncTemplate               = "+%d/-%d"
	noTrackingLabel            = "no tracking"
	detachedLabel              = "(detached)"
	dirtyLabel                 = "dirty"
	cleanLabel                 = "clean"
	detailHeaderTemplate       = "%s (%s)\n"
	detailLineTemplate         = "  %s\n"
	detailListTemplate         = "  %s:\n"
	detailNestedLineTemplate   = "    %s\n"
	driftLineTemplate          = "  remote %s: %s"
	driftURLTemplate           = " (registry %s, disk %s)"
	driftRenameFromTemplate    = ", renamed from %s?"
	driftRenameToTemplate      = ", renamed to %s?"
	notPushedLabel             = "not pushed"
	notMergedLabel             = "not merged"
	branchActionTemplate       = "  %s: %s\n"
	headerRepository           = "REPOSITORY"
	headerStatus               = "RESULT"
	headerMessage              = "MESSAGE"
	headerBranch               = "BRANCH"
	headerSync                 = "AHEAD/BEHIND"
	headerWorkingTree          = "WORKING TREE"
	headerDrift                = "REMOTE DRIFT"
	driftCountTemplate         = "%d remotes"
	repositoryWithPathTemplate = "%s\n"
)

// ErrUnsupportedOutputFormat indicates an unknown --output value.
var ErrUnsupportedOutputFormat = errors.New("unsupported output format")

// ParseOutputFormat validates an --output value.
func ParseOutputFormat(value string) (OutputFormat, error) {
	switch format := OutputFormat(strings.ToLower(strings.TrimSpace(value))); format {
	case OutputTable, OutputJSON, OutputYAML:
		return format, nil
	case "":
		return OutputTable, nil
	default:
		return "", fmt.Errorf(unsupportedFormatTemplate, ErrUnsupportedOutputFormat, value)
	}
}

// ReportRenderer writes reports and summaries in the selected format.
type ReportRenderer struct {
	writer io.Writer
	format OutputFormat
}

// NewReportRenderer constructs a renderer writing to writer.
func NewReportRenderer(writer io.Writer, format OutputFormat) *ReportRenderer {
	if len(format) == 0 {
		format = OutputTable
	}
	return &ReportRenderer{writer: writer, format: format}
}

// RenderReport writes the outcome of a batch run.
func (renderer *ReportRenderer) RenderReport(report workflow.Report) error {
	switch renderer.format {
	case OutputJSON, OutputYAML:
		return renderer.encode(report.Command, newReportDocument(report))
	default:
		return renderer.renderReportTable(report)
	}
}

func (renderer *ReportRenderer) renderReportTable(report workflow.Report) error {
	withStatus := hasGitStatus(report)

	writer := newTableWriter()
	if withStatus {
		writer.AppendHeader(table.Row{headerRepository, headerStatus, headerBranch, headerSync, headerWorkingTree, headerDrift, headerMessage})
	} else {
		writer.AppendHeader(table.Row{headerRepository, headerStatus, headerMessage})
	}

	for _, outcome := range report.Outcomes {
		if withStatus {
			branch, sync, workingTree, drift := describeGitStatus(outcome.GitStatus)
			writer.AppendRow(table.Row{outcome.Repository, string(outcome.Status), branch, sync, workingTree, drift, outcome.Message})
			continue
		}
		writer.AppendRow(table.Row{outcome.Repository, string(outcome.Status), outcome.Message})
	}
	writer.AppendFooter(table.Row{fmt.Sprintf(runFooterTemplate, report.RunID), fmt.Sprintf(totalsTemplate,
		report.Count(workflow.OutcomeSucceeded),
		report.Count(workflow.OutcomeSkipped),
		report.Count(workflow.OutcomeFailed),
		report.Count(workflow.OutcomeMissing),
		report.Count(workflow.OutcomeUnresolvable),
	)})

	var output strings.Builder
	for _, outcome := range report.Outcomes {
		writeStatusDetails(&output, outcome)
		writeMergeDetails(&output, outcome)
	}
	output.WriteString(writer.Render())
	output.WriteString("\n")

	if _, writeError := io.WriteString(renderer.writer, output.String()); writeError != nil {
		return fmt.Errorf(renderErrorTemplate, report.Command, writeError)
	}
	return nil
}

func (renderer *ReportRenderer) encode(subject string, document any) error {
	var encoded []byte
	switch renderer.format {
	case OutputJSON:
		content, encodeError := json.Marshal(document, json.Deterministic(true), jsontext.WithIndent(documentIndent))
		if encodeError != nil {
			return fmt.Errorf(renderErrorTemplate, subject, encodeError)
		}
		encoded = append(content, '\n')
	default:
		var buffer strings.Builder
		encoder := yaml.NewEncoder(&buffer)
		encoder.SetIndent(len(documentIndent))
		if encodeError := encoder.Encode(document); encodeError != nil {
			return fmt.Errorf(renderErrorTemplate, subject, encodeError)
		}
		if closeError := encoder.Close(); closeError != nil {
			return fmt.Errorf(renderErrorTemplate, subject, closeError)
		}
		encoded = []byte(buffer.String())
	}

	if _, writeError := renderer.writer.Write(encoded); writeError != nil {
		return fmt.Errorf(renderErrorTemplate, subject, writeError)
	}
	return nil
}

func newTableWriter() table.Writer {
	style := table.StyleLight
	style.Format.Footer = text.FormatDefault
	writer := table.NewWriter()
	writer.SetStyle(style)
	return writer
}

func hasGitStatus(report workflow.Report) bool {
	for _, outcome := range report.Outcomes {
		if outcome.GitStatus != nil {
			return true
		}
	}
	return false
}

func describeGitStatus(status *gitstate.Status) (string, string, string, string) {
	if status == nil || status.State != gitstate.StateInspected {
		return "", "", "", ""
	}

	branch := status.Branch
	sync := noTrackingLabel
	if status.Detached {
		branch = detachedLabel
	}
	if current, found := status.Current(); found && current.TrackingExists {
		sync = fmt.Sprintf(syncTemplate, current.Ahead, current.Behind)
	}

	workingTree := cleanLabel
	if status.Dirty {
		workingTree = dirtyLabel
	}

	drift := ""
	if status.HasDrift() {
		drift = fmt.Sprintf(driftCountTemplate, len(status.Drift))
	}
	return branch, sync, workingTree, drift
}

func writeStatusDetails(output *strings.Builder, outcome workflow.Outcome) {
	status := outcome.GitStatus
	if status == nil || status.State != gitstate.StateInspected {
		return
	}
	current, _ := status.Current()
	if !status.Dirty && !status.HasDrift() && len(status.Ignored) == 0 && current.Ahead == 0 && current.Behind == 0 {
		return
	}

	fmt.Fprintf(output, detailHeaderTemplate, outcome.Repository, outcome.Path)
	for _, line := range status.StatusLines {
		fmt.Fprintf(output, detailLineTemplate, line)
	}
	writeDetailList(output, notPushedLabel, status.Preview.NotPushed)
	writeDetailList(output, notMergedLabel, status.Preview.NotMerged)
	for _, drift := range status.Drift {
		output.WriteString(describeDrift(drift))
		output.WriteString("\n")
	}
}

func writeDetailList(output *strings.Builder, label string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(output, detailListTemplate, label)
	for _, line := range lines {
		fmt.Fprintf(output, detailNestedLineTemplate, line)
	}
}

func describeDrift(drift gitstate.RemoteDrift) string {
	description := fmt.Sprintf(driftLineTemplate, drift.Remote, drift.Kind)
	switch {
	case drift.Kind == gitstate.DriftURLMismatch:
		description += fmt.Sprintf(driftURLTemplate, drift.RegistryURL, drift.DiskURL)
	case len(drift.RenamedFrom) > 0:
		description += fmt.Sprintf(driftRenameFromTemplate, drift.RenamedFrom)
	case len(drift.RenameTo) > 0:
		description += fmt.Sprintf(driftRenameToTemplate, drift.RenameTo)
	}
	return description
}

func writeMergeDetails(output *strings.Builder, outcome workflow.Outcome) {
	if outcome.Merge == nil || len(outcome.Merge.Branches) == 0 {
		return
	}
	fmt.Fprintf(output, repositoryWithPathTemplate, outcome.Repository)
	for _, branch := range outcome.Merge.Branches {
		fmt.Fprintf(output, branchActionTemplate, branch.Branch.Name, branch.Action)
	}
}
