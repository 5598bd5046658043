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
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-logr/logr"

	"github.com/gruyaume/oai-5g-cu-operator/pkg/framework"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/gnbconfig"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/interfaces/n2"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/kubernetes"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/model"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/pebble"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/utils"
)

const (
	StatusWaitingForPebble       = "Waiting for Pebble in workload container"
	StatusWaitingForAMFRelation  = "Waiting for relation to AMF to be created"
	StatusWaitingForAMFAddress   = "Waiting for AMF IPv4 address to be available in relation data"
	StatusWaitingForLoadBalancer = "Waiting for load balancer IPv4 address"
	StatusPatchingStatefulSet    = "Patching StatefulSet for NET_ADMIN capability"
)

// ErrLoadBalancerAddressUnavailable aborts the F1 publication when the
// Service has no IPv4 address to publish.
var ErrLoadBalancerAddressUnavailable = errors.New("load balancer doesn't have an IP address")

// UnitModel is the part of the Juju model the charm reads and writes.
type UnitModel interface {
	IsLeader(ctx context.Context) (bool, error)
	SetStatus(ctx context.Context, status model.Status) error
	Config(ctx context.Context, out interface{}) error
	Relation(ctx context.Context, name string) (*model.Relation, error)
	RelationByID(ctx context.Context, name string, id int) (*model.Relation, error)
}

// AMFAddressSource exposes the address published by the AMF over fiveg-n2.
type AMFAddressSource interface {
	AMFAddressAvailable(ctx context.Context) (bool, error)
	AMFAddress(ctx context.Context) (string, error)
}

// CUAddressPublisher publishes the CU address into a fiveg-f1 relation.
type CUAddressPublisher interface {
	SetCUInformation(ctx context.Context, cuAddress, cuPort string, relationID int) error
}

type LoadBalancerResolver interface {
	GetServiceLoadBalancerAddress(ctx context.Context, name string) (string, string, error)
}

type StatefulSetPatcher interface {
	StatefulSetIsPatched(ctx context.Context, name string) (bool, error)
	PatchStatefulSet(ctx context.Context, name string) error
}

type ServiceExposer interface {
	EnsureService(ctx context.Context, appName string, exposure kubernetes.ServiceExposure) error
}

// Supervisor is the process supervisor of the workload container.
type Supervisor interface {
	CanConnect() bool
	Push(path, content string) error
	AddLayer(label string, layer *pebble.Layer) error
	Replan() error
	ServiceRunning(name string) (bool, error)
}

// CUOperatorCharm reconciles the CU workload on lifecycle and relation events.
// Handlers run one at a time; every external call is synchronous.
type CUOperatorCharm struct {
	AppName      string
	Model        UnitModel
	AMF          AMFAddressSource
	F1           CUAddressPublisher
	LoadBalancer LoadBalancerResolver
	StatefulSet  StatefulSetPatcher
	Service      ServiceExposer
	Workload     Supervisor
	Logger       logr.Logger
}

// Register observes the events the charm reacts to. The service exposure
// observer is registered before the install handler so the Service exists
// before the StatefulSet is patched.
func (r *CUOperatorCharm) Register(fw *framework.Framework) {
	fw.Observe("install", "service-patcher", r.onServicePatch)
	fw.Observe("upgrade-charm", "service-patcher", r.onServicePatch)
	fw.Observe("install", "charm", r.onInstall)
	fw.Observe("config-changed", "charm", r.onConfigChanged)
	fw.Observe(utils.N2RelationName+"-relation-changed", "charm", r.onConfigChanged)
	fw.Observe(utils.ContainerName+"-pebble-ready", "charm", r.onConfigChanged)
	fw.Observe(utils.F1RelationName+"-relation-joined", "charm", r.onF1RelationJoined)
	fw.Observe(n2.AMFAvailableEvent, "charm", r.onAMFAvailable)
}

func (r *CUOperatorCharm) onServicePatch(ctx context.Context, event *framework.Event) error {
	config, err := r.readConfig(ctx)
	if err != nil {
		return err
	}
	return r.Service.EnsureService(ctx, r.AppName, config.ServiceExposure())
}

func (r *CUOperatorCharm) onInstall(ctx context.Context, event *framework.Event) error {
	patched, err := r.StatefulSet.StatefulSetIsPatched(ctx, r.AppName)
	if err != nil {
		return err
	}
	if patched {
		r.Logger.V(1).Info("StatefulSet already patched", "Name", r.AppName)
		return nil
	}
	if err := r.Model.SetStatus(ctx, model.MaintenanceStatus(StatusPatchingStatefulSet)); err != nil {
		return err
	}
	return r.StatefulSet.PatchStatefulSet(ctx, r.AppName)
}

// onConfigChanged renders gnb.conf and (re)starts the CU once the workload is
// reachable and the AMF has published its address.
func (r *CUOperatorCharm) onConfigChanged(ctx context.Context, event *framework.Event) error {
	if !r.Workload.CanConnect() {
		event.Defer()
		return r.Model.SetStatus(ctx, model.WaitingStatus(StatusWaitingForPebble))
	}

	relation, err := r.Model.Relation(ctx, utils.N2RelationName)
	if err != nil {
		return err
	}
	if relation == nil {
		return r.Model.SetStatus(ctx, model.BlockedStatus(StatusWaitingForAMFRelation))
	}

	available, err := r.AMF.AMFAddressAvailable(ctx)
	if err != nil {
		return err
	}
	if !available {
		return r.Model.SetStatus(ctx, model.WaitingStatus(StatusWaitingForAMFAddress))
	}

	_, cuIPv4Address, err := r.LoadBalancer.GetServiceLoadBalancerAddress(ctx, r.AppName)
	if err != nil {
		return err
	}
	if cuIPv4Address == "" {
		r.Logger.Info("Load balancer address not assigned yet, deferring event", "Service", r.AppName)
		event.Defer()
		return r.Model.SetStatus(ctx, model.WaitingStatus(StatusWaitingForLoadBalancer))
	}

	amfAddress, err := r.AMF.AMFAddress(ctx)
	if err != nil {
		return err
	}
	config, err := r.readConfig(ctx)
	if err != nil {
		return err
	}

	content, err := gnbconfig.Render(config.WorkloadConfig(cuIPv4Address, amfAddress))
	if err != nil {
		return err
	}
	if err := r.Workload.Push(utils.ConfigFilePath, content); err != nil {
		return err
	}

	if err := r.Workload.AddLayer(utils.ServiceName, CULayer()); err != nil {
		return err
	}
	if err := r.Workload.Replan(); err != nil {
		return err
	}

	return r.Model.SetStatus(ctx, model.ActiveStatus())
}

// onF1RelationJoined publishes the CU address to the DU. A missing load
// balancer address is fatal here, unlike in onConfigChanged where it defers.
func (r *CUOperatorCharm) onF1RelationJoined(ctx context.Context, event *framework.Event) error {
	leader, err := r.Model.IsLeader(ctx)
	if err != nil {
		return err
	}
	if !leader {
		return nil
	}

	relation, err := r.Model.RelationByID(ctx, utils.F1RelationName, event.RelationID)
	if err != nil {
		return err
	}
	if relation == nil {
		r.Logger.Info("Relation gone, dropping event", "Relation", utils.F1RelationName, "RelationID", event.RelationID)
		return nil
	}

	if !r.cuServiceStarted() {
		r.Logger.Info("CU service not started yet, deferring event")
		event.Defer()
		return nil
	}

	_, cuIPv4Address, err := r.LoadBalancer.GetServiceLoadBalancerAddress(ctx, r.AppName)
	if err != nil {
		return err
	}
	if cuIPv4Address == "" {
		return ErrLoadBalancerAddressUnavailable
	}

	config, err := r.readConfig(ctx)
	if err != nil {
		return err
	}
	if err := r.F1.SetCUInformation(ctx, cuIPv4Address, strconv.Itoa(config.F1Port), event.RelationID); err != nil {
		return fmt.Errorf("failed to publish CU information: %w", err)
	}
	r.Logger.Info("Published CU information", "RelationID", event.RelationID, "Address", cuIPv4Address)
	return nil
}

func (r *CUOperatorCharm) onAMFAvailable(ctx context.Context, event *framework.Event) error {
	r.Logger.Info("AMF address available", "Address", event.Attributes[n2.AMFAddressKey])
	return nil
}

func (r *CUOperatorCharm) cuServiceStarted() bool {
	if !r.Workload.CanConnect() {
		return false
	}
	running, err := r.Workload.ServiceRunning(utils.ServiceName)
	if err != nil {
		r.Logger.V(1).Info("Failed to get CU service", "err", err)
		return false
	}
	return running
}

func (r *CUOperatorCharm) readConfig(ctx context.Context) (CharmConfig, error) {
	config := DefaultCharmConfig()
	if err := r.Model.Config(ctx, &config); err != nil {
		return CharmConfig{}, err
	}
	return config, nil
}
