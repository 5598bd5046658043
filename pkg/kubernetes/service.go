package kubernetes

import (
	"context"
	"fmt"
	"reflect"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/intstr"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/gruyaume/oai-5g-cu-operator/pkg/utils"
)

// ServicePort is one named port the workload is reachable on.
type ServicePort struct {
	Name       string
	Protocol   corev1.Protocol
	Port       int32
	TargetPort int32
}

// ServiceExposure is the desired external exposure of the application.
type ServiceExposure struct {
	Type  corev1.ServiceType
	Ports []ServicePort
}

func (e ServiceExposure) servicePorts() []corev1.ServicePort {
	ports := make([]corev1.ServicePort, 0, len(e.Ports))
	for _, p := range e.Ports {
		ports = append(ports, corev1.ServicePort{
			Name:       p.Name,
			Protocol:   p.Protocol,
			Port:       p.Port,
			TargetPort: intstr.FromInt32(p.TargetPort),
		})
	}
	return ports
}

// EnsureService creates the Service named after the application with the
// given exposure, or patches the existing one if its type or ports differ.
func (c *Client) EnsureService(ctx context.Context, appName string, exposure ServiceExposure) error {
	service := &corev1.Service{}
	err := c.Get(ctx, types.NamespacedName{Namespace: c.Namespace, Name: appName}, service)
	if err != nil && !errors.IsNotFound(err) {
		return fmt.Errorf("failed to get service %s/%s: %w", c.Namespace, appName, err)
	}

	if errors.IsNotFound(err) {
		service = &corev1.Service{
			ObjectMeta: metav1.ObjectMeta{
				Name:      appName,
				Namespace: c.Namespace,
				Labels:    map[string]string{utils.AppNameLabel: appName},
			},
			Spec: corev1.ServiceSpec{
				Type:     exposure.Type,
				Selector: map[string]string{utils.AppNameLabel: appName},
				Ports:    exposure.servicePorts(),
			},
		}
		c.Logger.Info("Calling KubeAPI to create Service", "Namespace", c.Namespace, "Name", appName)
		if err := c.Create(ctx, service); err != nil {
			return fmt.Errorf("failed to create service %s/%s: %w", c.Namespace, appName, err)
		}
		return nil
	}

	if serviceIsPatched(service, exposure) {
		c.Logger.V(1).Info("Service already exposes the desired ports", "Name", appName)
		return nil
	}

	original := service.DeepCopy()
	service.Spec.Type = exposure.Type
	service.Spec.Ports = exposure.servicePorts()
	if service.Spec.Selector == nil {
		service.Spec.Selector = map[string]string{utils.AppNameLabel: appName}
	}

	c.Logger.Info("Calling KubeAPI to patch Service", "Namespace", c.Namespace, "Name", appName)
	if err := c.Patch(ctx, service, client.MergeFrom(original)); err != nil {
		return fmt.Errorf("failed to patch service %s/%s: %w", c.Namespace, appName, err)
	}
	return nil
}

// serviceIsPatched compares the fields EnsureService owns. NodePorts
// allocated by the cluster are ignored.
func serviceIsPatched(service *corev1.Service, exposure ServiceExposure) bool {
	if service.Spec.Type != exposure.Type {
		return false
	}

	current := make([]corev1.ServicePort, 0, len(service.Spec.Ports))
	for _, p := range service.Spec.Ports {
		p.NodePort = 0
		current = append(current, p)
	}
	return reflect.DeepEqual(current, exposure.servicePorts())
}
