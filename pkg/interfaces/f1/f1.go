// Package f1 implements the fiveg-f1 relation interface: the CU provides its
// F1 address and port and the DU requires them.
package f1

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/gruyaume/oai-5g-cu-operator/pkg/framework"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/interfaces"
)

const (
	CUAddressKey = "cu_address"
	CUPortKey    = "cu_port"

	// CUAvailableEvent is emitted on the DU side once both keys are published.
	CUAvailableEvent = "cu-available"
)

var ErrRelationNotFound = errors.New("relation not created yet")

// Provider is used by the CU charm providing the F1 interface.
type Provider struct {
	RelationName string
	relations    interfaces.RelationGetter
}

// NewProvider returns a Provider publishing into relationName.
func NewProvider(relations interfaces.RelationGetter, relationName string) *Provider {
	return &Provider{RelationName: relationName, relations: relations}
}

// SetCUInformation overwrites the CU address and port in the relation with
// the given id. It fails if that relation does not exist.
func (p *Provider) SetCUInformation(ctx context.Context, cuAddress, cuPort string, relationID int) error {
	relation, err := p.relations.RelationByID(ctx, p.RelationName, relationID)
	if err != nil {
		return err
	}
	if relation == nil {
		return fmt.Errorf("relation %s: %w", p.RelationName, ErrRelationNotFound)
	}
	return relation.UpdateLocalAppData(ctx, map[string]string{
		CUAddressKey: cuAddress,
		CUPortKey:    cuPort,
	})
}

// Requirer is used by the DU charm requiring the F1 interface.
type Requirer struct {
	RelationName string
	relations    interfaces.RelationGetter
	fw           *framework.Framework
	log          logr.Logger
}

// NewRequirer returns a Requirer and registers its relation-changed observer on fw.
func NewRequirer(fw *framework.Framework, relations interfaces.RelationGetter, relationName string, log logr.Logger) *Requirer {
	r := &Requirer{
		RelationName: relationName,
		relations:    relations,
		fw:           fw,
		log:          log,
	}
	fw.Observe(relationName+"-relation-changed", relationName+"-requirer", r.onRelationChanged)
	return r
}

func (r *Requirer) onRelationChanged(ctx context.Context, event *framework.Event) error {
	relation, err := r.relations.RelationByID(ctx, r.RelationName, event.RelationID)
	if err != nil {
		return err
	}
	if relation == nil || relation.App == "" {
		r.log.Info("No remote application in relation", "Relation", r.RelationName)
		return nil
	}

	data, err := relation.RemoteAppData(ctx)
	if err != nil {
		return err
	}
	address, addressOk := data[CUAddressKey]
	port, portOk := data[CUPortKey]
	if !addressOk || !portOk {
		r.log.Info("CU information not complete in relation data - Not triggering cu_available event")
		return nil
	}

	available := framework.NewEvent(CUAvailableEvent)
	available.RelationName = r.RelationName
	available.RelationID = relation.ID
	available.Attributes = map[string]string{CUAddressKey: address, CUPortKey: port}
	return r.fw.Emit(ctx, available)
}

func (r *Requirer) remoteValue(ctx context.Context, key string) (string, error) {
	relation, err := r.relations.Relation(ctx, r.RelationName)
	if err != nil || relation == nil {
		return "", err
	}
	data, err := relation.RemoteAppData(ctx)
	if err != nil {
		return "", err
	}
	return data[key], nil
}

// CUAddress returns the published CU address, or an empty string if absent.
func (r *Requirer) CUAddress(ctx context.Context) (string, error) {
	return r.remoteValue(ctx, CUAddressKey)
}

// CUPort returns the published CU F1 port, or an empty string if absent.
func (r *Requirer) CUPort(ctx context.Context) (string, error) {
	return r.remoteValue(ctx, CUPortKey)
}

// CUAddressAvailable reports whether the CU has published its address.
func (r *Requirer) CUAddressAvailable(ctx context.Context) (bool, error) {
	address, err := r.CUAddress(ctx)
	if err != nil {
		return false, err
	}
	return address != "", nil
}
