package services

import (
	"github.com/petjoyful/profile-service/internal/apperror"
	"github.com/petjoyful/profile-service/internal/models"
)

// AuthorizeOwner checks that the caller owns target and returns the target in
// canonical form. Both sides go through ParseOwnerID, so an ObjectID hex in
// any letter case matches its lower-case form.
func AuthorizeOwner(identity models.Identity, target string) (models.OwnerID, error) {
	owner, err := models.ParseOwnerID(target)
	if err != nil {
		return models.OwnerID{}, apperror.Validation([]apperror.FieldError{
			{Field: models.FieldOwnerID, Message: "is required"},
		})
	}
	if identity.Subject.IsZero() {
		return models.OwnerID{}, apperror.Unauthenticated("token has no subject")
	}
	if !identity.Subject.Equal(owner) {
		return models.OwnerID{}, apperror.Forbidden("you can only modify your own profile", nil)
	}
	return owner, nil
}
