package cuOperator

import (
	"context"
	"errors"

	"github.com/gruyaume/oai-5g-cu-operator/pkg/kubernetes"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/pebble"
)

// fakeSupervisor records what the charm asks of Pebble.
type fakeSupervisor struct {
	connected  bool
	running    bool
	serviceErr error

	files     map[string]string
	pushes    int
	layers    []*pebble.Layer
	layerData [][]byte
	replans   int
}

func newFakeSupervisor() *fakeSupervisor {
	return &fakeSupervisor{files: map[string]string{}}
}

func (f *fakeSupervisor) CanConnect() bool {
	return f.connected
}

func (f *fakeSupervisor) Push(path, content string) error {
	if !f.connected {
		return errors.New("cannot connect to pebble")
	}
	f.files[path] = content
	f.pushes++
	return nil
}

func (f *fakeSupervisor) AddLayer(label string, layer *pebble.Layer) error {
	data, err := layer.Marshal()
	if err != nil {
		return err
	}
	f.layers = append(f.layers, layer)
	f.layerData = append(f.layerData, data)
	return nil
}

func (f *fakeSupervisor) Replan() error {
	f.replans++
	if len(f.layers) > 0 {
		f.running = true
	}
	return nil
}

func (f *fakeSupervisor) ServiceRunning(name string) (bool, error) {
	if f.serviceErr != nil {
		return false, f.serviceErr
	}
	return f.running, nil
}

// fakeKubernetes stands in for the load balancer, StatefulSet and Service calls.
type fakeKubernetes struct {
	hostname string
	ip       string
	lbErr    error

	patched    bool
	patchCalls int
	exposures  []kubernetes.ServiceExposure
	calls      []string
}

func (f *fakeKubernetes) GetServiceLoadBalancerAddress(ctx context.Context, name string) (string, string, error) {
	f.calls = append(f.calls, "get-service")
	return f.hostname, f.ip, f.lbErr
}

func (f *fakeKubernetes) StatefulSetIsPatched(ctx context.Context, name string) (bool, error) {
	f.calls = append(f.calls, "statefulset-is-patched")
	return f.patched, nil
}

func (f *fakeKubernetes) PatchStatefulSet(ctx context.Context, name string) error {
	f.calls = append(f.calls, "patch-statefulset")
	f.patchCalls++
	f.patched = true
	return nil
}

func (f *fakeKubernetes) EnsureService(ctx context.Context, appName string, exposure kubernetes.ServiceExposure) error {
	f.calls = append(f.calls, "ensure-service")
	f.exposures = append(f.exposures, exposure)
	return nil
}
