package pebble

import (
	"fmt"
	"strings"

	"github.com/canonical/pebble/client"
	"github.com/go-logr/logr"
)

// Supervisor drives the Pebble daemon of one workload container over its
// unix socket. Calls block until Pebble answers.
type Supervisor struct {
	Container string
	client    *client.Client
	log       logr.Logger
}

// NewSupervisor returns a Supervisor talking to the Pebble socket at socketPath.
func NewSupervisor(container, socketPath string, log logr.Logger) (*Supervisor, error) {
	c, err := client.New(&client.Config{Socket: socketPath})
	if err != nil {
		return nil, fmt.Errorf("failed to create pebble client for %s: %w", container, err)
	}
	return &Supervisor{Container: container, client: c, log: log}, nil
}

// CanConnect reports whether Pebble in the workload container answers.
func (s *Supervisor) CanConnect() bool {
	if _, err := s.client.SysInfo(); err != nil {
		s.log.V(1).Info("Cannot connect to Pebble", "Container", s.Container, "err", err)
		return false
	}
	return true
}

// Push writes content to path in the workload container, creating parent
// directories as needed and replacing any existing file.
func (s *Supervisor) Push(path, content string) error {
	err := s.client.Push(&client.PushOptions{
		Source:   strings.NewReader(content),
		Path:     path,
		MakeDirs: true,
	})
	if err != nil {
		return fmt.Errorf("failed to push %s to %s: %w", path, s.Container, err)
	}
	s.log.Info("Wrote file to container", "Container", s.Container, "Path", path)
	return nil
}

// AddLayer merges layer into the plan under label.
func (s *Supervisor) AddLayer(label string, layer *Layer) error {
	data, err := layer.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode layer %s: %w", label, err)
	}
	if err := s.client.AddLayer(&client.AddLayerOptions{
		Combine:   true,
		Label:     label,
		LayerData: data,
	}); err != nil {
		return fmt.Errorf("failed to add layer %s to %s: %w", label, s.Container, err)
	}
	return nil
}

// Replan starts or restarts services whose configuration changed, and waits
// for the change to finish.
func (s *Supervisor) Replan() error {
	changeID, err := s.client.Replan(&client.ServiceOptions{})
	if err != nil {
		return fmt.Errorf("failed to replan %s: %w", s.Container, err)
	}
	if _, err := s.client.WaitChange(changeID, &client.WaitChangeOptions{}); err != nil {
		return fmt.Errorf("failed waiting for replan of %s: %w", s.Container, err)
	}
	return nil
}

// ServiceRunning reports whether the named service exists and is active.
func (s *Supervisor) ServiceRunning(name string) (bool, error) {
	services, err := s.client.Services(&client.ServicesOptions{Names: []string{name}})
	if err != nil {
		return false, fmt.Errorf("failed to get services of %s: %w", s.Container, err)
	}
	for _, svc := range services {
		if svc.Name == name {
			return string(svc.Current) == "active", nil
		}
	}
	return false, nil
}
