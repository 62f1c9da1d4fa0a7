// Package workflow runs ingit commands across resolved repositories.
//
// Commands are expressed as Actions. Most actions build a Plan of git or shell steps and hand it
// to the PlanRunner; the Executor fans actions out over repositories with bounded parallelism and
// collects one Outcome per repository into a Report identified by a ULID run id.
package workflow
