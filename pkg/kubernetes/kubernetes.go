package kubernetes

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// NetAdminCapability is added to the workload container so the radio stack
// can configure its network interfaces.
const NetAdminCapability corev1.Capability = "NET_ADMIN"

// Client wraps a controller-runtime client scoped to the model namespace.
type Client struct {
	client.Client
	Namespace     string
	ContainerName string
	Logger        logr.Logger
}

// NewScheme returns a scheme with the built-in Kubernetes types registered.
func NewScheme() (*runtime.Scheme, error) {
	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		return nil, err
	}
	return scheme, nil
}

// NewInClusterClient builds a Client from the pod's service account.
func NewInClusterClient(namespace, containerName string, log logr.Logger) (*Client, error) {
	config, err := ctrl.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get Kubernetes config: %w", err)
	}
	scheme, err := NewScheme()
	if err != nil {
		return nil, err
	}
	c, err := client.New(config, client.Options{Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	return &Client{Client: c, Namespace: namespace, ContainerName: containerName, Logger: log}, nil
}

// GetServiceLoadBalancerAddress returns the hostname and IPv4 address of the
// first ingress point of the named LoadBalancer Service. Either value is
// empty while the load balancer has not assigned it yet; a missing Service is
// treated the same way.
func (c *Client) GetServiceLoadBalancerAddress(ctx context.Context, name string) (string, string, error) {
	service := &corev1.Service{}
	if err := c.Get(ctx, types.NamespacedName{Namespace: c.Namespace, Name: name}, service); err != nil {
		if errors.IsNotFound(err) {
			c.Logger.Info("Service not found", "Namespace", c.Namespace, "Name", name)
			return "", "", nil
		}
		return "", "", fmt.Errorf("failed to get service %s/%s: %w", c.Namespace, name, err)
	}

	ingress := service.Status.LoadBalancer.Ingress
	if len(ingress) == 0 {
		c.Logger.V(1).Info("Service has no load balancer ingress yet", "Name", name)
		return "", "", nil
	}
	return ingress[0].Hostname, ingress[0].IP, nil
}

// StatefulSetIsPatched reports whether the workload container already runs
// privileged with the NET_ADMIN capability.
func (c *Client) StatefulSetIsPatched(ctx context.Context, name string) (bool, error) {
	statefulSet := &appsv1.StatefulSet{}
	if err := c.Get(ctx, types.NamespacedName{Namespace: c.Namespace, Name: name}, statefulSet); err != nil {
		return false, fmt.Errorf("failed to get statefulset %s/%s: %w", c.Namespace, name, err)
	}

	container := findContainer(statefulSet.Spec.Template.Spec.Containers, c.ContainerName)
	if container == nil {
		return false, fmt.Errorf("container %s not found in statefulset %s", c.ContainerName, name)
	}
	return containerIsPatched(container), nil
}

// PatchStatefulSet makes the workload container privileged and adds the
// NET_ADMIN capability. The pod is re-created by Kubernetes as a result.
func (c *Client) PatchStatefulSet(ctx context.Context, name string) error {
	statefulSet := &appsv1.StatefulSet{}
	if err := c.Get(ctx, types.NamespacedName{Namespace: c.Namespace, Name: name}, statefulSet); err != nil {
		return fmt.Errorf("failed to get statefulset %s/%s: %w", c.Namespace, name, err)
	}
	original := statefulSet.DeepCopy()

	container := findContainer(statefulSet.Spec.Template.Spec.Containers, c.ContainerName)
	if container == nil {
		return fmt.Errorf("container %s not found in statefulset %s", c.ContainerName, name)
	}
	if container.SecurityContext == nil {
		container.SecurityContext = &corev1.SecurityContext{}
	}
	privileged := true
	container.SecurityContext.Privileged = &privileged
	if container.SecurityContext.Capabilities == nil {
		container.SecurityContext.Capabilities = &corev1.Capabilities{}
	}
	if !hasCapability(container.SecurityContext.Capabilities.Add, NetAdminCapability) {
		container.SecurityContext.Capabilities.Add = append(container.SecurityContext.Capabilities.Add, NetAdminCapability)
	}

	c.Logger.Info("Calling KubeAPI to patch StatefulSet", "Namespace", c.Namespace, "Name", name)
	if err := c.Patch(ctx, statefulSet, client.MergeFrom(original)); err != nil {
		return fmt.Errorf("failed to patch statefulset %s/%s: %w", c.Namespace, name, err)
	}
	return nil
}

func findContainer(containers []corev1.Container, name string) *corev1.Container {
	for i := range containers {
		if containers[i].Name == name {
			return &containers[i]
		}
	}
	return nil
}

func containerIsPatched(container *corev1.Container) bool {
	sc := container.SecurityContext
	if sc == nil || sc.Privileged == nil || !*sc.Privileged || sc.Capabilities == nil {
		return false
	}
	return hasCapability(sc.Capabilities.Add, NetAdminCapability)
}

func hasCapability(capabilities []corev1.Capability, capability corev1.Capability) bool {
	for _, c := range capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
