package registry

import (
	"fmt"
	"strings"
)

const (
	defaultMachineNameConstant        = ""
	machineNotFoundTemplateConstant   = "%w for %q"
	machineRegisteredTemplateConstant = "%w: %q"
)

// SelectMachine returns the first machine listing hostname, else the first default machine
// (one listing the empty name). The returned machine records hostname as its ActiveName.
func SelectMachine(machines []Machine, hostname string) (Machine, error) {
	for _, candidateName := range []string{hostname, defaultMachineNameConstant} {
		for _, machine := range machines {
			if machine.Matches(candidateName) {
				machine.ActiveName = hostname
				return machine, nil
			}
		}
	}
	return Machine{}, fmt.Errorf(machineNotFoundTemplateConstant, ErrMachineNotFound, hostname)
}

// RegisterMachine appends DefaultMachine(hostname) to the document. It fails when a machine
// already matches hostname or a default machine exists.
func RegisterMachine(document *RuntimeDocument, hostname string) (Machine, error) {
	trimmedHostname := strings.TrimSpace(hostname)
	for _, machine := range document.Machines {
		if machine.Matches(trimmedHostname) || machine.Matches(defaultMachineNameConstant) {
			return Machine{}, fmt.Errorf(machineRegisteredTemplateConstant, ErrMachineAlreadyRegistered, trimmedHostname)
		}
	}
	machine := DefaultMachine(trimmedHostname)
	document.Machines = append(document.Machines, machine)
	return machine, nil
}
