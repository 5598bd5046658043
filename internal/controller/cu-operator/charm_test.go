package cuOperator

import (
	"errors"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"

	"github.com/gruyaume/oai-5g-cu-operator/pkg/hooktools"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/model"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/utils"
)

var _ = Describe("CU Operator Charm", func() {
	var h *testHarness

	BeforeEach(func() {
		h = newTestHarness()
	})

	Context("on install", func() {
		It("should expose the Service before patching the StatefulSet", func() {
			Expect(h.dispatch("install")).To(Succeed())

			Expect(h.kube.calls).To(Equal([]string{"ensure-service", "statefulset-is-patched", "patch-statefulset"}))
			Expect(h.kube.patchCalls).To(Equal(1))
			Expect(h.status()).To(Equal(model.MaintenanceStatus(StatusPatchingStatefulSet)))
			Expect(h.kube.exposures).To(HaveLen(1))
			Expect(h.kube.exposures[0].Type).To(Equal(corev1.ServiceTypeLoadBalancer))
			Expect(h.kube.exposures[0].Ports).To(HaveLen(4))
		})

		It("should not patch an already patched StatefulSet", func() {
			h.kube.patched = true

			Expect(h.dispatch("install")).To(Succeed())
			Expect(h.kube.patchCalls).To(Equal(0))
			Expect(h.juju.StatusHistory).To(BeEmpty())
		})

		It("should re-apply the Service on upgrade", func() {
			h.juju.Config["f1-port"] = 38472

			Expect(h.dispatch("upgrade-charm")).To(Succeed())
			Expect(h.kube.exposures).To(HaveLen(1))
			Expect(h.kube.exposures[0].Ports[3].Port).To(Equal(int32(38472)))
			Expect(h.kube.patchCalls).To(Equal(0))
		})
	})

	Context("on config changed", func() {
		It("should defer and wait when the workload is unreachable", func() {
			h.createAMFRelationWithValidData()
			h.kube.ip = "1.2.3.4"

			Expect(h.dispatch("config-changed")).To(Succeed())

			Expect(h.status()).To(Equal(model.WaitingStatus(StatusWaitingForPebble)))
			Expect(h.fw.Pending()).To(Equal(1))
			Expect(h.workload.pushes).To(Equal(0))
			Expect(h.workload.replans).To(Equal(0))
		})

		It("should block when the AMF relation is missing", func() {
			h.workload.connected = true

			Expect(h.dispatch("config-changed")).To(Succeed())

			Expect(h.status()).To(Equal(model.BlockedStatus(StatusWaitingForAMFRelation)))
			Expect(h.workload.pushes).To(Equal(0))
		})

		DescribeTable("should wait while the AMF address is not in relation data",
			func(remoteApp string, data map[string]string) {
				h.workload.connected = true
				h.kube.ip = "1.2.3.4"
				id := h.juju.AddRelation(utils.N2RelationName, remoteApp)
				if data != nil {
					h.juju.SetRelationData(id, remoteApp, data)
				}

				Expect(h.dispatchRelation("fiveg-n2-relation-changed", utils.N2RelationName, id)).To(Succeed())

				Expect(h.status()).To(Equal(model.WaitingStatus(StatusWaitingForAMFAddress)))
				Expect(h.juju.StatusHistory).NotTo(ContainElement(string(hooktools.StatusActive)))
				Expect(h.workload.pushes).To(Equal(0))
			},
			Entry("no remote application", "", map[string]string(nil)),
			Entry("empty bucket", "amf", map[string]string(nil)),
			Entry("other keys only", "amf", map[string]string{"amf_hostname": "amf.example"}),
			Entry("empty address", "amf", map[string]string{"amf_address": ""}),
		)

		It("should defer and wait when the load balancer has no address", func() {
			h.workload.connected = true
			h.createAMFRelationWithValidData()

			Expect(h.dispatch("config-changed")).To(Succeed())

			Expect(h.status()).To(Equal(model.WaitingStatus(StatusWaitingForLoadBalancer)))
			Expect(h.fw.Pending()).To(Equal(1))
			Expect(h.workload.pushes).To(Equal(0))
		})

		It("should push the rendered configuration file", func() {
			h.workload.connected = true
			h.kube.ip = "1.2.3.4"
			id, _ := h.createAMFRelationWithValidData()

			Expect(h.dispatchRelation("fiveg-n2-relation-changed", utils.N2RelationName, id)).To(Succeed())

			expected, err := os.ReadFile("../../../pkg/gnbconfig/testdata/gnb.conf.golden")
			Expect(err).NotTo(HaveOccurred())
			Expect(h.workload.files).To(HaveKeyWithValue(utils.ConfigFilePath, string(expected)))
		})

		It("should add the CU layer, replan and go active", func() {
			h.workload.connected = true
			h.kube.ip = "1.2.3.4"
			h.createAMFRelationWithValidData()

			Expect(h.dispatch("config-changed")).To(Succeed())

			Expect(h.workload.layers).To(HaveLen(1))
			Expect(h.workload.layers[0]).To(Equal(CULayer()))
			Expect(h.workload.layers[0].Services[utils.ServiceName].Command).To(Equal(
				"/opt/oai-gnb/bin/nr-softmodem -O /opt/oai-gnb/etc/gnb.conf --sa -E --rfsim --log_config.global_log_options level nocolor time"))
			Expect(h.workload.replans).To(Equal(1))
			Expect(h.status()).To(Equal(model.ActiveStatus()))
			Expect(h.fw.Pending()).To(Equal(0))
		})

		It("should produce the same file and layer when repeated", func() {
			h.workload.connected = true
			h.kube.ip = "1.2.3.4"
			h.createAMFRelationWithValidData()

			Expect(h.dispatch("config-changed")).To(Succeed())
			first := h.workload.files[utils.ConfigFilePath]
			Expect(h.dispatch("config-changed")).To(Succeed())

			Expect(h.workload.files[utils.ConfigFilePath]).To(Equal(first))
			Expect(h.workload.layerData).To(HaveLen(2))
			Expect(h.workload.layerData[1]).To(Equal(h.workload.layerData[0]))
			Expect(h.status()).To(Equal(model.ActiveStatus()))
		})

		It("should configure the workload on pebble ready", func() {
			h.workload.connected = true
			h.kube.ip = "1.2.3.4"
			h.createAMFRelationWithValidData()

			Expect(h.dispatch("cu-pebble-ready")).To(Succeed())

			Expect(h.workload.pushes).To(Equal(1))
			Expect(h.status()).To(Equal(model.ActiveStatus()))
		})

		It("should complete a deferred configuration once the workload is reachable", func() {
			h.kube.ip = "1.2.3.4"
			h.createAMFRelationWithValidData()

			Expect(h.dispatch("config-changed")).To(Succeed())
			Expect(h.fw.Pending()).To(Equal(1))

			h.workload.connected = true
			Expect(h.dispatch("update-status")).To(Succeed())

			Expect(h.workload.pushes).To(Equal(1))
			Expect(h.status()).To(Equal(model.ActiveStatus()))
			Expect(h.fw.Pending()).To(Equal(0))
		})

		It("should render configured PLMN values", func() {
			h.workload.connected = true
			h.kube.ip = "1.2.3.4"
			h.juju.Config["mcc"] = "001"
			h.juju.Config["mnc"] = "01"
			h.createAMFRelationWithValidData()

			Expect(h.dispatch("config-changed")).To(Succeed())

			Expect(h.workload.files[utils.ConfigFilePath]).To(ContainSubstring("mcc = 001; mnc = 01; mnc_length = 2"))
		})
	})

	Context("on fiveg-f1 relation joined", func() {
		var relationID string

		BeforeEach(func() {
			relationID = h.juju.AddRelation(utils.F1RelationName, "du")
		})

		joined := func() error {
			return h.dispatchRelation("fiveg-f1-relation-joined", utils.F1RelationName, relationID)
		}

		It("should publish the CU address and port", func() {
			h.juju.Leader = true
			h.workload.connected = true
			h.workload.running = true
			h.kube.ip = "5.6.7.8"

			Expect(joined()).To(Succeed())

			Expect(h.juju.RelationData(relationID, testAppName)).To(Equal(map[string]string{
				"cu_address": "5.6.7.8",
				"cu_port":    "2153",
			}))
		})

		It("should publish the configured F1 port", func() {
			h.juju.Leader = true
			h.juju.Config["f1-port"] = 38472
			h.workload.connected = true
			h.workload.running = true
			h.kube.ip = "5.6.7.8"

			Expect(joined()).To(Succeed())
			Expect(h.juju.RelationData(relationID, testAppName)).To(HaveKeyWithValue("cu_port", "38472"))
		})

		It("should not touch relation data on a non leader unit", func() {
			h.workload.connected = true
			h.workload.running = true
			h.kube.ip = "5.6.7.8"

			Expect(joined()).To(Succeed())

			Expect(h.juju.RelationData(relationID, testAppName)).To(BeEmpty())
			Expect(h.fw.Pending()).To(Equal(0))
		})

		It("should defer until the CU service is running", func() {
			h.juju.Leader = true
			h.workload.connected = true
			h.kube.ip = "5.6.7.8"

			Expect(joined()).To(Succeed())
			Expect(h.fw.Pending()).To(Equal(1))
			Expect(h.juju.RelationData(relationID, testAppName)).To(BeEmpty())

			h.workload.running = true
			Expect(h.dispatch("update-status")).To(Succeed())

			Expect(h.fw.Pending()).To(Equal(0))
			Expect(h.juju.RelationData(relationID, testAppName)).To(HaveKeyWithValue("cu_address", "5.6.7.8"))
		})

		It("should drop a deferred event once the relation is removed", func() {
			h.juju.Leader = true
			h.workload.connected = true
			h.kube.ip = "5.6.7.8"

			Expect(joined()).To(Succeed())
			Expect(h.fw.Pending()).To(Equal(1))

			h.juju.RemoveRelation(relationID)
			h.workload.running = true

			Expect(h.dispatch("update-status")).To(Succeed())
			Expect(h.fw.Pending()).To(Equal(0))

			h.createAMFRelationWithValidData()
			Expect(h.dispatch("config-changed")).To(Succeed())
			Expect(h.workload.pushes).To(Equal(1))
			Expect(h.status()).To(Equal(model.ActiveStatus()))
		})

		It("should ignore a join for a relation that no longer exists", func() {
			h.juju.Leader = true
			h.workload.connected = true
			h.workload.running = true
			h.kube.ip = "5.6.7.8"
			h.juju.RemoveRelation(relationID)

			Expect(joined()).To(Succeed())
			Expect(h.fw.Pending()).To(Equal(0))
		})

		It("should defer when the service cannot be queried", func() {
			h.juju.Leader = true
			h.workload.connected = true
			h.workload.serviceErr = errors.New("service \"cu\" not found")
			h.kube.ip = "5.6.7.8"

			Expect(joined()).To(Succeed())
			Expect(h.fw.Pending()).To(Equal(1))
		})

		It("should fail when the load balancer has no address", func() {
			h.juju.Leader = true
			h.workload.connected = true
			h.workload.running = true

			err := joined()
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, ErrLoadBalancerAddressUnavailable)).To(BeTrue())
			Expect(h.juju.RelationData(relationID, testAppName)).To(BeEmpty())
		})
	})
})
