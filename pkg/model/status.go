package model

import "github.com/gruyaume/oai-5g-cu-operator/pkg/hooktools"

// Status is a unit workload status as shown by `juju status`.
type Status struct {
	Name    hooktools.StatusName
	Message string
}

func (s Status) String() string {
	if s.Message == "" {
		return string(s.Name)
	}
	return string(s.Name) + ": " + s.Message
}

func ActiveStatus() Status {
	return Status{Name: hooktools.StatusActive}
}

func BlockedStatus(message string) Status {
	return Status{Name: hooktools.StatusBlocked, Message: message}
}

func WaitingStatus(message string) Status {
	return Status{Name: hooktools.StatusWaiting, Message: message}
}

func MaintenanceStatus(message string) Status {
	return Status{Name: hooktools.StatusMaintenance, Message: message}
}
