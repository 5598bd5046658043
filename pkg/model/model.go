package model

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/mitchellh/mapstructure"

	"github.com/gruyaume/oai-5g-cu-operator/pkg/hooktools"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/utils"
)

// Environment is the hook context Juju passes through environment variables.
type Environment struct {
	HookName     string
	UnitName     string
	AppName      string
	ModelName    string
	RelationName string
	RelationID   string
	RemoteApp    string
	RemoteUnit   string
	WorkloadName string
}

// ReadEnvironment builds the hook context from getenv (usually os.Getenv).
func ReadEnvironment(getenv func(string) string) Environment {
	hookName := getenv("JUJU_HOOK_NAME")
	if dispatchPath := getenv("JUJU_DISPATCH_PATH"); dispatchPath != "" {
		hookName = path.Base(dispatchPath)
	}
	unitName := getenv("JUJU_UNIT_NAME")

	return Environment{
		HookName:     hookName,
		UnitName:     unitName,
		AppName:      utils.AppNameFromUnit(unitName),
		ModelName:    getenv("JUJU_MODEL_NAME"),
		RelationName: getenv("JUJU_RELATION"),
		RelationID:   getenv("JUJU_RELATION_ID"),
		RemoteApp:    getenv("JUJU_REMOTE_APP"),
		RemoteUnit:   getenv("JUJU_REMOTE_UNIT"),
		WorkloadName: getenv("JUJU_WORKLOAD_NAME"),
	}
}

// Model is the charm's live view of its application, unit and relations.
type Model struct {
	Tools *hooktools.Tools
	Env   Environment
	Log   logr.Logger
}

func New(tools *hooktools.Tools, env Environment, log logr.Logger) *Model {
	return &Model{Tools: tools, Env: env, Log: log}
}

// Relation is one established instance of a named relation.
type Relation struct {
	Name  string
	ID    int
	RawID string
	// App is the remote application name, empty if none has joined yet.
	App string

	model *Model
}

// ParseRelationID extracts the numeric id from "name:N".
func ParseRelationID(rawID string) (int, error) {
	idx := strings.LastIndex(rawID, ":")
	id, err := strconv.Atoi(rawID[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("invalid relation id %q: %w", rawID, err)
	}
	return id, nil
}

// Relation returns the first instance of the named relation, or nil if the
// relation has not been created.
func (m *Model) Relation(ctx context.Context, name string) (*Relation, error) {
	ids, err := m.Tools.RelationIDs(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return m.newRelation(ctx, name, ids[0])
}

// RelationByID returns the instance of the named relation with the given id,
// or nil if no such instance exists.
func (m *Model) RelationByID(ctx context.Context, name string, id int) (*Relation, error) {
	ids, err := m.Tools.RelationIDs(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, rawID := range ids {
		n, err := ParseRelationID(rawID)
		if err != nil {
			return nil, err
		}
		if n == id {
			return m.newRelation(ctx, name, rawID)
		}
	}
	return nil, nil
}

func (m *Model) newRelation(ctx context.Context, name, rawID string) (*Relation, error) {
	id, err := ParseRelationID(rawID)
	if err != nil {
		return nil, err
	}

	app := ""
	if m.Env.RelationID == rawID && m.Env.RemoteApp != "" {
		app = m.Env.RemoteApp
	} else {
		app, err = m.Tools.RelationListApp(ctx, rawID)
		if err != nil {
			return nil, err
		}
	}

	return &Relation{Name: name, ID: id, RawID: rawID, App: app, model: m}, nil
}

// RemoteAppData reads the remote application bucket. It returns nil when no
// remote application is attached to the relation.
func (r *Relation) RemoteAppData(ctx context.Context) (map[string]string, error) {
	if r.App == "" {
		return nil, nil
	}
	return r.model.Tools.RelationGet(ctx, r.RawID, r.App)
}

func (r *Relation) LocalAppData(ctx context.Context) (map[string]string, error) {
	return r.model.Tools.RelationGet(ctx, r.RawID, r.model.Env.AppName)
}

// UpdateLocalAppData overwrites the given keys in the local application
// bucket, leaving other keys untouched.
func (r *Relation) UpdateLocalAppData(ctx context.Context, data map[string]string) error {
	return r.model.Tools.RelationSet(ctx, r.RawID, data)
}

func (m *Model) IsLeader(ctx context.Context) (bool, error) {
	return m.Tools.IsLeader(ctx)
}

// Config decodes the charm options into out, a pointer to a struct tagged
// with `mapstructure:"option-name"`. Fields of unset options keep their value.
func (m *Model) Config(ctx context.Context, out interface{}) error {
	raw, err := m.Tools.ConfigGet(ctx)
	if err != nil {
		return err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode charm config: %w", err)
	}
	return nil
}

func (m *Model) SetStatus(ctx context.Context, status Status) error {
	m.Log.V(1).Info("Setting unit status", "Status", status.Name, "Message", status.Message)
	return m.Tools.StatusSet(ctx, status.Name, status.Message)
}
