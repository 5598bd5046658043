/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cuOperator

import (
	"fmt"
	"strconv"

	corev1 "k8s.io/api/core/v1"

	"github.com/gruyaume/oai-5g-cu-operator/pkg/gnbconfig"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/kubernetes"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/pebble"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/utils"
)

// Fixed radio parameters of the CU. They are not exposed as charm options.
const (
	cuName           = "oai-cu-rfsim"
	cuID             = "e00"
	trackingAreaCode = "1"
	interfaceName    = "eth0"

	// The DU side of F1 is not read from relation data yet.
	f1DUIPv4Address = "127.0.0.1"
	f1DUPort        = "2153"

	// Not used by the CU, the radio stack requires a value.
	amfIPv6Address = "192:168:30::17"
)

// CharmConfig holds the charm options. PLMN and slice values are passed
// through to gnb.conf verbatim.
type CharmConfig struct {
	MCC       string `mapstructure:"mcc"`
	MNC       string `mapstructure:"mnc"`
	MNCLength string `mapstructure:"mnc-length"`
	NSSAISST  string `mapstructure:"nssai-sst"`
	NSSAISD   string `mapstructure:"nssai-sd"`

	S1CPort int `mapstructure:"s1c-port"`
	S1UPort int `mapstructure:"s1u-port"`
	X2CPort int `mapstructure:"x2c-port"`
	F1Port  int `mapstructure:"f1-port"`
}

// DefaultCharmConfig returns the option defaults from config.yaml.
func DefaultCharmConfig() CharmConfig {
	return CharmConfig{
		MCC:       "208",
		MNC:       "99",
		MNCLength: "2",
		NSSAISST:  "1",
		NSSAISD:   "0x0027db",
		S1CPort:   utils.DefaultS1CPort,
		S1UPort:   utils.DefaultS1UPort,
		X2CPort:   utils.DefaultX2CPort,
		F1Port:    utils.DefaultF1Port,
	}
}

// WorkloadConfig combines the options with the addresses resolved during
// reconciliation. Own NG and F1 addresses are all the load balancer address.
func (c CharmConfig) WorkloadConfig(cuIPv4Address, amfIPv4Address string) gnbconfig.Config {
	return gnbconfig.Config{
		CUName:           cuName,
		CUID:             cuID,
		TAC:              trackingAreaCode,
		MCC:              c.MCC,
		MNC:              c.MNC,
		MNCLength:        c.MNCLength,
		NSSAISST:         c.NSSAISST,
		NSSAISD:          c.NSSAISD,
		F1InterfaceName:  interfaceName,
		F1CUIPv4Address:  cuIPv4Address,
		F1CUPort:         strconv.Itoa(c.F1Port),
		F1DUIPv4Address:  f1DUIPv4Address,
		F1DUPort:         f1DUPort,
		AMFIPv4Address:   amfIPv4Address,
		AMFIPv6Address:   amfIPv6Address,
		NGAInterfaceName: interfaceName,
		NGAIPv4Address:   cuIPv4Address,
		NGUInterfaceName: interfaceName,
		NGUIPv4Address:   cuIPv4Address,
		S1UPort:          strconv.Itoa(c.S1UPort),
	}
}

// ServiceExposure is the LoadBalancer Service the CU must be reachable through.
func (c CharmConfig) ServiceExposure() kubernetes.ServiceExposure {
	return kubernetes.ServiceExposure{
		Type: corev1.ServiceTypeLoadBalancer,
		Ports: []kubernetes.ServicePort{
			{Name: "s1c", Protocol: corev1.ProtocolSCTP, Port: int32(c.S1CPort), TargetPort: int32(c.S1CPort)},
			{Name: "s1u", Protocol: corev1.ProtocolUDP, Port: int32(c.S1UPort), TargetPort: int32(c.S1UPort)},
			{Name: "x2c", Protocol: corev1.ProtocolUDP, Port: int32(c.X2CPort), TargetPort: int32(c.X2CPort)},
			{Name: "f1", Protocol: corev1.ProtocolUDP, Port: int32(c.F1Port), TargetPort: int32(c.F1Port)},
		},
	}
}

// CULayer is the Pebble layer supervising the radio stack.
func CULayer() *pebble.Layer {
	return &pebble.Layer{
		Summary:     "cu layer",
		Description: "pebble config layer for cu",
		Services: map[string]pebble.Service{
			utils.ServiceName: {
				Override: "replace",
				Summary:  "cu",
				Command:  fmt.Sprintf("%s -O %s %s", utils.WorkloadBinary, utils.ConfigFilePath, utils.WorkloadFlags),
				Startup:  "enabled",
			},
		},
	}
}
