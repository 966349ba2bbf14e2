package services

import (
	"errors"
	"procurement/models"
	"procurement/storage"
)

func requireTenant(tenant models.TenantContext) error {
	if tenant.CompanyID == "" {
		return validationErr("company_id", "is required")
	}
	return nil
}

// notFoundOr turns storage.ErrNotFound into a NotFoundError for the entity and passes
// every other error through.
func notFoundOr(err error, entity, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return err
}
