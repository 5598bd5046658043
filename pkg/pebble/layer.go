package pebble

import (
	"sigs.k8s.io/yaml"
)

// Layer is a declarative Pebble configuration layer.
type Layer struct {
	Summary     string             `json:"summary,omitempty"`
	Description string             `json:"description,omitempty"`
	Services    map[string]Service `json:"services,omitempty"`
}

// Service describes one supervised process of a layer.
type Service struct {
	Override string `json:"override"`
	Summary  string `json:"summary,omitempty"`
	Command  string `json:"command"`
	Startup  string `json:"startup,omitempty"`
}

// Marshal encodes the layer as YAML. Keys are sorted, so equal layers
// always encode to the same bytes.
func (l *Layer) Marshal() ([]byte, error) {
	return yaml.Marshal(l)
}

// ParseLayer decodes a YAML layer.
func ParseLayer(data []byte) (*Layer, error) {
	layer := &Layer{}
	if err := yaml.Unmarshal(data, layer); err != nil {
		return nil, err
	}
	return layer, nil
}
