package kubernetes

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

const (
	testNamespace = "whatever"
	testAppName   = "oai-5g-cu"
)

func newTestClient(t *testing.T, objs ...client.Object) *Client {
	logf.SetLogger(zap.New(zap.UseDevMode(true), zap.WriteTo(os.Stderr)))

	scheme, err := NewScheme()
	require.NoError(t, err)
	fakeClient := fake.NewClientBuilder().WithScheme(scheme).WithObjects(objs...).Build()

	return &Client{
		Client:        fakeClient,
		Namespace:     testNamespace,
		ContainerName: "cu",
		Logger:        ctrl.Log.WithName("kubernetes"),
	}
}

func testStatefulSet() *appsv1.StatefulSet {
	return &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{Name: testAppName, Namespace: testNamespace},
		Spec: appsv1.StatefulSetSpec{
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{Name: "charm", Image: "charm-base"},
						{Name: "cu", Image: "oai-gnb"},
					},
				},
			},
		},
	}
}

func TestGetServiceLoadBalancerAddress(t *testing.T) {
	t.Run("Resolve load balancer address", func(t *testing.T) {
		ctx := context.Background()

		t.Logf("TEST: Service missing - Should return empty address without error")
		c := newTestClient(t)
		hostname, ip, err := c.GetServiceLoadBalancerAddress(ctx, testAppName)
		require.NoError(t, err)
		require.Empty(t, hostname)
		require.Empty(t, ip)

		t.Logf("TEST: Service without ingress - Should return empty address")
		service := &corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: testAppName, Namespace: testNamespace},
			Spec:       corev1.ServiceSpec{Type: corev1.ServiceTypeLoadBalancer},
		}
		c = newTestClient(t, service.DeepCopy())
		_, ip, err = c.GetServiceLoadBalancerAddress(ctx, testAppName)
		require.NoError(t, err)
		require.Empty(t, ip)

		t.Logf("TEST: Service with ingress - Should Succeed")
		service.Status.LoadBalancer.Ingress = []corev1.LoadBalancerIngress{{IP: "1.2.3.4", Hostname: "cu.example.com"}}
		c = newTestClient(t, service)
		hostname, ip, err = c.GetServiceLoadBalancerAddress(ctx, testAppName)
		require.NoError(t, err)
		require.Equal(t, "cu.example.com", hostname)
		require.Equal(t, "1.2.3.4", ip)
	})
}

func TestPatchStatefulSet(t *testing.T) {
	t.Run("Patch workload container capabilities", func(t *testing.T) {
		ctx := context.Background()
		c := newTestClient(t, testStatefulSet())

		t.Logf("TEST: StatefulSetIsPatched() before patch - Should be false")
		patched, err := c.StatefulSetIsPatched(ctx, testAppName)
		require.NoError(t, err)
		require.False(t, patched)

		t.Logf("TEST: PatchStatefulSet() - Should Succeed")
		require.NoError(t, c.PatchStatefulSet(ctx, testAppName))
		patched, err = c.StatefulSetIsPatched(ctx, testAppName)
		require.NoError(t, err)
		require.True(t, patched)

		t.Logf("TEST: PatchStatefulSet() twice - Should not duplicate capability")
		require.NoError(t, c.PatchStatefulSet(ctx, testAppName))
		statefulSet := &appsv1.StatefulSet{}
		require.NoError(t, c.Get(ctx, types.NamespacedName{Namespace: testNamespace, Name: testAppName}, statefulSet))
		cu := statefulSet.Spec.Template.Spec.Containers[1]
		require.Equal(t, []corev1.Capability{NetAdminCapability}, cu.SecurityContext.Capabilities.Add)
		require.Nil(t, statefulSet.Spec.Template.Spec.Containers[0].SecurityContext)
	})

	t.Run("Missing StatefulSet or container", func(t *testing.T) {
		ctx := context.Background()

		t.Logf("TEST: StatefulSet missing - Should fail")
		c := newTestClient(t)
		_, err := c.StatefulSetIsPatched(ctx, testAppName)
		require.Error(t, err)
		require.Error(t, c.PatchStatefulSet(ctx, testAppName))

		t.Logf("TEST: container missing - Should fail")
		statefulSet := testStatefulSet()
		statefulSet.Spec.Template.Spec.Containers = statefulSet.Spec.Template.Spec.Containers[:1]
		c = newTestClient(t, statefulSet)
		_, err = c.StatefulSetIsPatched(ctx, testAppName)
		require.Error(t, err)
	})
}

func testExposure() ServiceExposure {
	return ServiceExposure{
		Type: corev1.ServiceTypeLoadBalancer,
		Ports: []ServicePort{
			{Name: "s1c", Protocol: corev1.ProtocolSCTP, Port: 36412, TargetPort: 36412},
			{Name: "s1u", Protocol: corev1.ProtocolUDP, Port: 2152, TargetPort: 2152},
			{Name: "x2c", Protocol: corev1.ProtocolUDP, Port: 36422, TargetPort: 36422},
			{Name: "f1", Protocol: corev1.ProtocolUDP, Port: 2153, TargetPort: 2153},
		},
	}
}

func TestEnsureService(t *testing.T) {
	t.Run("Create missing Service", func(t *testing.T) {
		ctx := context.Background()
		c := newTestClient(t)

		require.NoError(t, c.EnsureService(ctx, testAppName, testExposure()))

		service := &corev1.Service{}
		require.NoError(t, c.Get(ctx, types.NamespacedName{Namespace: testNamespace, Name: testAppName}, service))
		require.Equal(t, corev1.ServiceTypeLoadBalancer, service.Spec.Type)
		require.Len(t, service.Spec.Ports, 4)
		require.Equal(t, corev1.ProtocolSCTP, service.Spec.Ports[0].Protocol)
		require.Equal(t, int32(36412), service.Spec.Ports[0].TargetPort.IntVal)
		require.Equal(t, testAppName, service.Spec.Selector["app.kubernetes.io/name"])

		t.Logf("TEST: EnsureService() again - Should leave Service untouched")
		resourceVersion := service.ResourceVersion
		require.NoError(t, c.EnsureService(ctx, testAppName, testExposure()))
		require.NoError(t, c.Get(ctx, types.NamespacedName{Namespace: testNamespace, Name: testAppName}, service))
		require.Equal(t, resourceVersion, service.ResourceVersion)
	})

	t.Run("Patch existing Service", func(t *testing.T) {
		ctx := context.Background()
		existing := &corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: testAppName, Namespace: testNamespace},
			Spec: corev1.ServiceSpec{
				Type:     corev1.ServiceTypeClusterIP,
				Selector: map[string]string{"app.kubernetes.io/name": testAppName},
				Ports:    []corev1.ServicePort{{Name: "placeholder", Port: 65535}},
			},
		}
		c := newTestClient(t, existing)

		require.NoError(t, c.EnsureService(ctx, testAppName, testExposure()))

		service := &corev1.Service{}
		require.NoError(t, c.Get(ctx, types.NamespacedName{Namespace: testNamespace, Name: testAppName}, service))
		require.Equal(t, corev1.ServiceTypeLoadBalancer, service.Spec.Type)
		require.Len(t, service.Spec.Ports, 4)
		require.Equal(t, "f1", service.Spec.Ports[3].Name)
	})
}
