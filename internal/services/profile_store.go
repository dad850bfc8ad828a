package services

import (
	"context"

	"github.com/petjoyful/profile-service/internal/models"
)

// ProfileStore persists profiles keyed by owner.
//
// Upsert is an atomic merge-or-create of a single document: on insert the
// document gets accountType=tutor and createdAt, every write refreshes
// updatedAt, and the post-update document is returned. Concurrent upserts for
// the same new owner produce exactly one document.
type ProfileStore interface {
	// FindByOwner returns an apperror NotFound when no profile exists.
	FindByOwner(ctx context.Context, owner models.OwnerID) (*models.Profile, error)
	Upsert(ctx context.Context, owner models.OwnerID, fields models.FieldSet) (*models.Profile, error)
	Exists(ctx context.Context, owner models.OwnerID) (bool, error)
}

// protectedFields can never reach a store write.
var protectedFields = map[string]bool{
	models.FieldOwnerID:   true,
	models.FieldCreatedAt: true,
	models.FieldUpdatedAt: true,
	"_id":                 true,
}
