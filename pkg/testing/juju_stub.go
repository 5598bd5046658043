package testing

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gruyaume/oai-5g-cu-operator/pkg/hooktools"
)

// JujuStub is an in-memory stand-in for the Juju agent. It implements
// hooktools.Runner by interpreting the hook tool command lines produced by
// hooktools.Tools against local state, so tests can drive the charm end to end
// without a controller.
type JujuStub struct {
	mu sync.Mutex

	LocalApp string
	Leader   bool
	Config   map[string]interface{}
	State    map[string]string

	Status        hooktools.StatusName
	StatusMessage string
	StatusHistory []string
	Calls         []string

	// FailTools makes the named hook tool return the given error.
	FailTools map[string]error

	relations []*StubRelation
	nextID    int
}

// StubRelation is one relation instance with a data bucket per application.
type StubRelation struct {
	Name      string
	ID        string
	RemoteApp string
	Data      map[string]map[string]string
}

func NewJujuStub(localApp string) *JujuStub {
	return &JujuStub{
		LocalApp:  localApp,
		Config:    map[string]interface{}{},
		State:     map[string]string{},
		FailTools: map[string]error{},
	}
}

// AddRelation creates a relation instance and returns its id ("name:N").
// remoteApp may be empty to model a relation no application has joined yet.
func (s *JujuStub) AddRelation(name, remoteApp string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("%s:%d", name, s.nextID)
	s.nextID++
	s.relations = append(s.relations, &StubRelation{
		Name:      name,
		ID:        id,
		RemoteApp: remoteApp,
		Data:      map[string]map[string]string{},
	})
	return id
}

// RelationNumber returns the numeric part of a relation id.
func RelationNumber(id string) int {
	n, _ := strconv.Atoi(id[strings.LastIndex(id, ":")+1:])
	return n
}

func (s *JujuStub) RemoveRelation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.relations {
		if r.ID == id {
			s.relations = append(s.relations[:i], s.relations[i+1:]...)
			return
		}
	}
}

// SetRelationData merges data into the bucket of app in relation id.
func (s *JujuStub) SetRelationData(id, app string, data map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.findRelation(id)
	if r == nil {
		return
	}
	bucket, ok := r.Data[app]
	if !ok {
		bucket = map[string]string{}
		r.Data[app] = bucket
	}
	for k, v := range data {
		bucket[k] = v
	}
}

// RelationData returns a copy of the bucket of app in relation id.
func (s *JujuStub) RelationData(id, app string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[string]string{}
	if r := s.findRelation(id); r != nil {
		for k, v := range r.Data[app] {
			out[k] = v
		}
	}
	return out
}

func (s *JujuStub) findRelation(id string) *StubRelation {
	for _, r := range s.relations {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (s *JujuStub) Run(ctx context.Context, tool string, args ...string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Calls = append(s.Calls, strings.TrimSpace(tool+" "+strings.Join(args, " ")))
	if err, ok := s.FailTools[tool]; ok {
		return nil, err
	}

	args = stripFlag(args, "--format=json")
	switch tool {
	case "config-get":
		return json.Marshal(s.Config)
	case "is-leader":
		return json.Marshal(s.Leader)
	case "relation-ids":
		if len(args) != 1 {
			return nil, fmt.Errorf("relation-ids: expected relation name, got %v", args)
		}
		ids := []string{}
		for _, r := range s.relations {
			if r.Name == args[0] {
				ids = append(ids, r.ID)
			}
		}
		return json.Marshal(ids)
	case "relation-get":
		// -r <id> --app - <app>
		if len(args) != 5 {
			return nil, fmt.Errorf("relation-get: unexpected arguments %v", args)
		}
		r := s.findRelation(args[1])
		if r == nil {
			return nil, fmt.Errorf("ERROR invalid value %q for option -r: relation not found", args[1])
		}
		bucket := r.Data[args[4]]
		if bucket == nil {
			bucket = map[string]string{}
		}
		return json.Marshal(bucket)
	case "relation-set":
		// -r <id> --app k=v...
		if len(args) < 3 {
			return nil, fmt.Errorf("relation-set: unexpected arguments %v", args)
		}
		r := s.findRelation(args[1])
		if r == nil {
			return nil, fmt.Errorf("ERROR invalid value %q for option -r: relation not found", args[1])
		}
		if !s.Leader {
			return nil, fmt.Errorf("ERROR cannot write relation settings")
		}
		bucket, ok := r.Data[s.LocalApp]
		if !ok {
			bucket = map[string]string{}
			r.Data[s.LocalApp] = bucket
		}
		for _, kv := range args[3:] {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 || parts[1] == "" {
				delete(bucket, parts[0])
				continue
			}
			bucket[parts[0]] = parts[1]
		}
		return nil, nil
	case "relation-list":
		if len(args) != 3 {
			return nil, fmt.Errorf("relation-list: unexpected arguments %v", args)
		}
		r := s.findRelation(args[1])
		if r == nil {
			return nil, fmt.Errorf("ERROR invalid value %q for option -r: relation not found", args[1])
		}
		return []byte(r.RemoteApp + "\n"), nil
	case "status-set":
		if len(args) < 1 {
			return nil, fmt.Errorf("status-set: missing status")
		}
		s.Status = hooktools.StatusName(args[0])
		s.StatusMessage = ""
		if len(args) > 1 {
			s.StatusMessage = args[1]
		}
		s.StatusHistory = append(s.StatusHistory, strings.TrimSpace(args[0]+" "+s.StatusMessage))
		return nil, nil
	case "juju-log":
		return nil, nil
	case "state-get":
		return json.Marshal(s.State)
	case "state-set":
		for _, kv := range args {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) == 2 {
				s.State[parts[0]] = parts[1]
			}
		}
		return nil, nil
	case "state-delete":
		for _, k := range args {
			delete(s.State, k)
		}
		return nil, nil
	}

	return nil, fmt.Errorf("%s: command not found", tool)
}

func stripFlag(args []string, flag string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a != flag {
			out = append(out, a)
		}
	}
	return out
}
