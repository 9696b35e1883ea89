// Package catalog manages the movies, rooms and seats an administrator maintains.
package catalog

import (
	"errors"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/joaobarbosa/cinema-api/services"
)

// translate maps repository sentinels onto domain errors. notFound,
// duplicate and referenced may be nil when the operation cannot produce them.
func translate(err error, id uuid.UUID, notFound, duplicate, referenced *services.DomainError) error {
	switch {
	case err == nil:
		return nil
	case notFound != nil && errors.Is(err, repositories.ErrNotFound):
		return notFound.WithDetail("id", id.String())
	case duplicate != nil && errors.Is(err, repositories.ErrDuplicate):
		return duplicate
	case referenced != nil && errors.Is(err, repositories.ErrReferenced):
		return referenced.Wrap(err)
	}
	return services.ErrDatabaseError.Wrap(err)
}
