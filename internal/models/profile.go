package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AccountType string

const (
	AccountTutor       AccountType = "tutor"
	AccountInstitution AccountType = "institution"
	AccountClinic      AccountType = "clinic"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountTutor, AccountInstitution, AccountClinic:
		return true
	}
	return false
}

// Stored field names (JSON and BSON).
const (
	FieldOwnerID     = "ownerId"
	FieldDisplayName = "displayName"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldBirthDate   = "birthDate"
	FieldAccountType = "accountType"
	FieldPhotoURL    = "photoUrl"
	FieldBio         = "bio"
	FieldCity        = "city"
	FieldState       = "state"
	FieldPostalCode  = "postalCode"
	FieldStreet      = "street"
	FieldNumber      = "number"
	FieldComplement  = "complement"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
)

// EditableFields is the allow-list for client-supplied partial updates.
var EditableFields = []string{
	FieldDisplayName,
	FieldPhone,
	FieldBirthDate,
	FieldPhotoURL,
	FieldBio,
	FieldCity,
	FieldState,
	FieldPostalCode,
	FieldStreet,
	FieldNumber,
	FieldComplement,
}

// LegacyFieldAliases maps the field names used by the first web client to
// the stored names.
var LegacyFieldAliases = map[string]string{
	"nome":            FieldDisplayName,
	"telefone":        FieldPhone,
	"data_nascimento": FieldBirthDate,
	"foto_perfil":     FieldPhotoURL,
	"cidade":          FieldCity,
	"estado":          FieldState,
	"cep":             FieldPostalCode,
	"endereco":        FieldStreet,
	"numero":          FieldNumber,
	"complemento":     FieldComplement,
}

// FieldSet is a sanitized partial update: stored field name -> string or time.Time.
type FieldSet map[string]any

// Profile is the per-user profile document, keyed by OwnerID.
type Profile struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID     OwnerID            `json:"ownerId" bson:"ownerId"`
	DisplayName string             `json:"displayName,omitempty" bson:"displayName,omitempty"`
	Email       string             `json:"email,omitempty" bson:"email,omitempty"`
	Phone       string             `json:"phone,omitempty" bson:"phone,omitempty"`
	BirthDate   *time.Time         `json:"birthDate,omitempty" bson:"birthDate,omitempty"`
	AccountType AccountType        `json:"accountType" bson:"accountType"`
	PhotoURL    string             `json:"photoUrl,omitempty" bson:"photoUrl,omitempty"`
	Bio         string             `json:"bio,omitempty" bson:"bio,omitempty"`
	City        string             `json:"city,omitempty" bson:"city,omitempty"`
	State       string             `json:"state,omitempty" bson:"state,omitempty"`
	PostalCode  string             `json:"postalCode,omitempty" bson:"postalCode,omitempty"`
	Street      string             `json:"street,omitempty" bson:"street,omitempty"`
	Number      string             `json:"number,omitempty" bson:"number,omitempty"`
	Complement  string             `json:"complement,omitempty" bson:"complement,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// NewProfile returns the document created on first write.
func NewProfile(owner OwnerID, now time.Time) *Profile {
	return &Profile{
		ID:          primitive.NewObjectID(),
		OwnerID:     owner,
		AccountType: AccountTutor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply merges fields onto p. Identity and timestamp fields are never
// touched; unknown keys are an error.
func (p *Profile) Apply(fields FieldSet) error {
	for key, value := range fields {
		if key == FieldBirthDate {
			t, ok := value.(time.Time)
			if !ok {
				return fmt.Errorf("profile: %s must be a time.Time, got %T", key, value)
			}
			t = t.UTC()
			p.BirthDate = &t
			continue
		}

		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("profile: %s must be a string, got %T", key, value)
		}
		switch key {
		case FieldDisplayName:
			p.DisplayName = s
		case FieldEmail:
			p.Email = s
		case FieldPhone:
			p.Phone = s
		case FieldAccountType:
			if !AccountType(s).Valid() {
				return fmt.Errorf("profile: invalid account type %q", s)
			}
			p.AccountType = AccountType(s)
		case FieldPhotoURL:
			p.PhotoURL = s
		case FieldBio:
			p.Bio = s
		case FieldCity:
			p.City = s
		case FieldState:
			p.State = s
		case FieldPostalCode:
			p.PostalCode = s
		case FieldStreet:
			p.Street = s
		case FieldNumber:
			p.Number = s
		case FieldComplement:
			p.Complement = s
		default:
			return fmt.Errorf("profile: field %q cannot be updated", key)
		}
	}
	return nil
}

// PhotoUpload is a validated image taken from a multipart request.
type PhotoUpload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// PhotoResult is returned after a successful profile photo upload.
type PhotoResult struct {
	PhotoURL string `json:"photoUrl"`
	BlobID   string `json:"blobId"`
}
