// Package interfaces groups the relation interface libraries shared by the
// two sides of each relation. Every library exposes a Requirer, which reads
// the remote application bucket, and a Provider, which publishes into the
// local application bucket.
package interfaces

import (
	"context"

	"github.com/gruyaume/oai-5g-cu-operator/pkg/model"
)

// RelationGetter looks up live relation instances. *model.Model implements it.
type RelationGetter interface {
	Relation(ctx context.Context, name string) (*model.Relation, error)
	RelationByID(ctx context.Context, name string, id int) (*model.Relation, error)
}
