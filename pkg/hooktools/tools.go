package hooktools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Tools wraps the hook tools used by the charm with typed arguments and
// decoded results. Every call hits the Juju agent; nothing is cached.
type Tools struct {
	Runner Runner
}

// StatusName is one of the workload status values accepted by status-set.
type StatusName string

const (
	StatusActive      StatusName = "active"
	StatusBlocked     StatusName = "blocked"
	StatusWaiting     StatusName = "waiting"
	StatusMaintenance StatusName = "maintenance"
)

// LogLevel is a juju-log severity.
type LogLevel string

const (
	LogDebug   LogLevel = "DEBUG"
	LogInfo    LogLevel = "INFO"
	LogWarning LogLevel = "WARNING"
	LogError   LogLevel = "ERROR"
)

func New(runner Runner) *Tools {
	return &Tools{Runner: runner}
}

func (t *Tools) runJSON(ctx context.Context, out interface{}, tool string, args ...string) error {
	args = append([]string{"--format=json"}, args...)
	raw, err := t.Runner.Run(ctx, tool, args...)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s output: %w", tool, err)
	}
	return nil
}

// ConfigGet returns every charm option, including unset ones with defaults.
func (t *Tools) ConfigGet(ctx context.Context) (map[string]interface{}, error) {
	config := map[string]interface{}{}
	if err := t.runJSON(ctx, &config, "config-get", "--all"); err != nil {
		return nil, err
	}
	return config, nil
}

func (t *Tools) IsLeader(ctx context.Context) (bool, error) {
	var leader bool
	if err := t.runJSON(ctx, &leader, "is-leader"); err != nil {
		return false, err
	}
	return leader, nil
}

// RelationIDs returns the relation ids ("fiveg-n2:3") established under the
// given relation name.
func (t *Tools) RelationIDs(ctx context.Context, relationName string) ([]string, error) {
	ids := []string{}
	if err := t.runJSON(ctx, &ids, "relation-ids", relationName); err != nil {
		return nil, err
	}
	return ids, nil
}

// RelationGet reads the whole application bucket of app in the given relation.
func (t *Tools) RelationGet(ctx context.Context, relationID, app string) (map[string]string, error) {
	data := map[string]string{}
	if err := t.runJSON(ctx, &data, "relation-get", "-r", relationID, "--app", "-", app); err != nil {
		return nil, err
	}
	return data, nil
}

// RelationSet writes the given keys into the local application bucket of the
// relation. Only the leader unit may do this.
func (t *Tools) RelationSet(ctx context.Context, relationID string, data map[string]string) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := []string{"-r", relationID, "--app"}
	for _, k := range keys {
		args = append(args, fmt.Sprintf("%s=%s", k, data[k]))
	}
	_, err := t.Runner.Run(ctx, "relation-set", args...)
	return err
}

// RelationListApp returns the remote application name of a relation, or an
// empty string if no remote application has joined yet.
func (t *Tools) RelationListApp(ctx context.Context, relationID string) (string, error) {
	raw, err := t.Runner.Run(ctx, "relation-list", "-r", relationID, "--app")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func (t *Tools) StatusSet(ctx context.Context, status StatusName, message string) error {
	_, err := t.Runner.Run(ctx, "status-set", string(status), message)
	return err
}

func (t *Tools) Log(ctx context.Context, level LogLevel, message string) error {
	_, err := t.Runner.Run(ctx, "juju-log", "--log-level", string(level), message)
	return err
}

// StateGet returns the value stored in unit state under key and whether it was set.
func (t *Tools) StateGet(ctx context.Context, key string) (string, bool, error) {
	state := map[string]string{}
	if err := t.runJSON(ctx, &state, "state-get"); err != nil {
		return "", false, err
	}
	value, ok := state[key]
	return value, ok, nil
}

func (t *Tools) StateSet(ctx context.Context, key, value string) error {
	_, err := t.Runner.Run(ctx, "state-set", fmt.Sprintf("%s=%s", key, value))
	return err
}

func (t *Tools) StateDelete(ctx context.Context, key string) error {
	_, err := t.Runner.Run(ctx, "state-delete", key)
	return err
}
