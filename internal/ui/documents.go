package ui

import (
	"github.com/temirov/ingit/internal/repos/gitstate"
	"github.com/temirov/ingit/internal/workflow"
)

type reportDocument struct {
	RunID        string            `json:"run_id" yaml:"run_id"`
	Command      string            `json:"command" yaml:"command"`
	Repositories []outcomeDocument `json:"repositories" yaml:"repositories"`
	Totals       map[string]int    `json:"totals" yaml:"totals"`
}

type outcomeDocument struct {
	Name      string           `json:"name" yaml:"name"`
	Path      string           `json:"path,omitempty" yaml:"path,omitempty"`
	Status    string           `json:"status" yaml:"status"`
	Message   string           `json:"message,omitempty" yaml:"message,omitempty"`
	Error     string           `json:"error,omitempty" yaml:"error,omitempty"`
	Steps     []stepDocument   `json:"steps,omitempty" yaml:"steps,omitempty"`
	GitStatus *statusDocument  `json:"git_status,omitempty" yaml:"git_status,omitempty"`
	Merge     []branchDocument `json:"merge,omitempty" yaml:"merge,omitempty"`
}

type stepDocument struct {
	Description string `json:"description" yaml:"description"`
	ExitCode    int    `json:"exit_code" yaml:"exit_code"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

type statusDocument struct {
	State       string           `json:"state" yaml:"state"`
	Branch      string           `json:"branch,omitempty" yaml:"branch,omitempty"`
	Detached    bool             `json:"detached" yaml:"detached"`
	Commit      string           `json:"commit,omitempty" yaml:"commit,omitempty"`
	Dirty       bool             `json:"dirty" yaml:"dirty"`
	Branches    []branchDocument `json:"branches,omitempty" yaml:"branches,omitempty"`
	StatusLines []string         `json:"status_lines,omitempty" yaml:"status_lines,omitempty"`
	Untracked   []string         `json:"untracked,omitempty" yaml:"untracked,omitempty"`
	Ignored     []string         `json:"ignored,omitempty" yaml:"ignored,omitempty"`
	NotPushed   []string         `json:"not_pushed,omitempty" yaml:"not_pushed,omitempty"`
	NotMerged   []string         `json:"not_merged,omitempty" yaml:"not_merged,omitempty"`
	Drift       []driftDocument  `json:"drift,omitempty" yaml:"drift,omitempty"`
}

type branchDocument struct {
	Name     string `json:"name" yaml:"name"`
	Tracking string `json:"tracking,omitempty" yaml:"tracking,omitempty"`
	Ahead    int    `json:"ahead" yaml:"ahead"`
	Behind   int    `json:"behind" yaml:"behind"`
	Action   string `json:"action,omitempty" yaml:"action,omitempty"`
}

type driftDocument struct {
	Remote      string `json:"remote" yaml:"remote"`
	Kind        string `json:"kind" yaml:"kind"`
	RegistryURL string `json:"registry_url,omitempty" yaml:"registry_url,omitempty"`
	DiskURL     string `json:"disk_url,omitempty" yaml:"disk_url,omitempty"`
	RenamedFrom string `json:"renamed_from,omitempty" yaml:"renamed_from,omitempty"`
	RenameTo    string `json:"rename_to,omitempty" yaml:"rename_to,omitempty"`
}

func newReportDocument(report workflow.Report) reportDocument {
	document := reportDocument{
		RunID:        report.RunID,
		Command:      report.Command,
		Repositories: make([]outcomeDocument, 0, len(report.Outcomes)),
		Totals:       map[string]int{},
	}
	for _, status := range []workflow.OutcomeStatus{workflow.OutcomeSucceeded, workflow.OutcomeSkipped, workflow.OutcomeFailed, workflow.OutcomeMissing, workflow.OutcomeUnresolvable} {
		document.Totals[string(status)] = report.Count(status)
	}

	for _, outcome := range report.Outcomes {
		entry := outcomeDocument{
			Name:    outcome.Repository,
			Path:    outcome.Path,
			Status:  string(outcome.Status),
			Message: outcome.Message,
		}
		if outcome.Err != nil {
			entry.Error = outcome.Err.Error()
		}
		for _, step := range outcome.Steps {
			stepEntry := stepDocument{Description: step.Step.Description, ExitCode: step.Result.ExitCode}
			if step.Err != nil {
				stepEntry.Error = step.Err.Error()
			}
			entry.Steps = append(entry.Steps, stepEntry)
		}
		if outcome.GitStatus != nil {
			entry.GitStatus = newStatusDocument(*outcome.GitStatus)
		}
		if outcome.Merge != nil {
			for _, branch := range outcome.Merge.Branches {
				branchEntry := newBranchDocument(branch.Branch)
				branchEntry.Action = string(branch.Action)
				entry.Merge = append(entry.Merge, branchEntry)
			}
		}
		document.Repositories = append(document.Repositories, entry)
	}
	return document
}

func newStatusDocument(status gitstate.Status) *statusDocument {
	document := &statusDocument{
		State:       string(status.State),
		Branch:      status.Branch,
		Detached:    status.Detached,
		Commit:      status.Commit,
		Dirty:       status.Dirty,
		StatusLines: status.StatusLines,
		Untracked:   status.Untracked,
		Ignored:     status.Ignored,
		NotPushed:   status.Preview.NotPushed,
		NotMerged:   status.Preview.NotMerged,
	}
	for _, branch := range status.Branches {
		document.Branches = append(document.Branches, newBranchDocument(branch))
	}
	for _, drift := range status.Drift {
		document.Drift = append(document.Drift, driftDocument{
			Remote:      drift.Remote,
			Kind:        string(drift.Kind),
			RegistryURL: drift.RegistryURL,
			DiskURL:     drift.DiskURL,
			RenamedFrom: drift.RenamedFrom,
			RenameTo:    drift.RenameTo,
		})
	}
	return document
}

func newBranchDocument(branch gitstate.BranchSync) branchDocument {
	return branchDocument{Name: branch.Name, Tracking: branch.Tracking, Ahead: branch.Ahead, Behind: branch.Behind}
}
