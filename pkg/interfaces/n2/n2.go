// Package n2 implements the fiveg-n2 relation interface: the AMF provides its
// N2 address and the CU requires it.
package n2

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/gruyaume/oai-5g-cu-operator/pkg/framework"
	"github.com/gruyaume/oai-5g-cu-operator/pkg/interfaces"
)

const (
	// AMFAddressKey is the application bucket key holding the AMF address.
	AMFAddressKey = "amf_address"

	// AMFAvailableEvent is emitted when the AMF address shows up in relation data.
	AMFAvailableEvent = "amf-available"
)

var ErrRelationNotFound = errors.New("relation not created yet")

// Requirer is used by the charm requiring the N2 interface.
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
	address, ok := data[AMFAddressKey]
	if !ok {
		r.log.Info("No amf_address in relation data - Not triggering amf_available event")
		return nil
	}

	available := framework.NewEvent(AMFAvailableEvent)
	available.RelationName = r.RelationName
	available.RelationID = relation.ID
	available.Attributes = map[string]string{AMFAddressKey: address}
	return r.fw.Emit(ctx, available)
}

// AMFAddressAvailable reports whether the AMF has published its address.
func (r *Requirer) AMFAddressAvailable(ctx context.Context) (bool, error) {
	address, err := r.AMFAddress(ctx)
	if err != nil {
		return false, err
	}
	return address != "", nil
}

// AMFAddress returns the published AMF address, or an empty string when the
// relation, the remote application or the key is missing.
func (r *Requirer) AMFAddress(ctx context.Context) (string, error) {
	relation, err := r.relations.Relation(ctx, r.RelationName)
	if err != nil || relation == nil {
		return "", err
	}
	data, err := relation.RemoteAppData(ctx)
	if err != nil {
		return "", err
	}
	return data[AMFAddressKey], nil
}

// Provider is used by the AMF charm providing the N2 interface.
type Provider struct {
	RelationName string
	relations    interfaces.RelationGetter
}

// NewProvider returns a Provider publishing into relationName.
func NewProvider(relations interfaces.RelationGetter, relationName string) *Provider {
	return &Provider{RelationName: relationName, relations: relations}
}

// SetAMFInformation publishes the AMF address into the relation with the given id.
func (p *Provider) SetAMFInformation(ctx context.Context, amfAddress string, relationID int) error {
	relation, err := p.relations.RelationByID(ctx, p.RelationName, relationID)
	if err != nil {
		return err
	}
	if relation == nil {
		return fmt.Errorf("relation %s: %w", p.RelationName, ErrRelationNotFound)
	}
	return relation.UpdateLocalAppData(ctx, map[string]string{AMFAddressKey: amfAddress})
}
