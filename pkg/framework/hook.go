package framework

import (
	"github.com/gruyaume/oai-5g-cu-operator/pkg/model"
)

// EventFromEnvironment turns the current hook into an event named after the
// hook ("install", "fiveg-n2-relation-changed", "cu-pebble-ready").
func EventFromEnvironment(env model.Environment) (*Event, error) {
	event := NewEvent(env.HookName)
	event.RelationName = env.RelationName
	event.RemoteApp = env.RemoteApp
	event.RemoteUnit = env.RemoteUnit

	if env.RelationID != "" {
		id, err := model.ParseRelationID(env.RelationID)
		if err != nil {
			return nil, err
		}
		event.RelationID = id
	}
	if env.WorkloadName != "" {
		event.Attributes = map[string]string{"workload": env.WorkloadName}
	}
	return event, nil
}
