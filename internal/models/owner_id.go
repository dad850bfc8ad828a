package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrEmptyOwnerID = errors.New("owner id is empty")

// OwnerID is the canonical form of a user identity. A 24-hex string in any
// letter case and the matching ObjectID are the same OwnerID; any other
// string is kept as-is after trimming.
type OwnerID struct {
	oid primitive.ObjectID
	raw string
}

func ParseOwnerID(s string) (OwnerID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return OwnerID{}, ErrEmptyOwnerID
	}
	if len(s) == 24 {
		if oid, err := primitive.ObjectIDFromHex(s); err == nil {
			return OwnerID{oid: oid}, nil
		}
	}
	return OwnerID{raw: s}, nil
}

// MustOwnerID is for tests and constants.
func MustOwnerID(s string) OwnerID {
	id, err := ParseOwnerID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func OwnerIDFromObjectID(oid primitive.ObjectID) OwnerID {
	return OwnerID{oid: oid}
}

func (o OwnerID) IsZero() bool {
	return o.raw == "" && o.oid.IsZero()
}

func (o OwnerID) IsObjectID() bool {
	return o.raw == "" && !o.oid.IsZero()
}

func (o OwnerID) String() string {
	if o.raw != "" {
		return o.raw
	}
	if o.oid.IsZero() {
		return ""
	}
	return o.oid.Hex()
}

func (o OwnerID) Equal(other OwnerID) bool {
	return !o.IsZero() && o.String() == other.String()
}

// MarshalBSONValue stores ObjectID-shaped ids as BSON ObjectIDs so documents
// written by other services that reference users by ObjectID stay compatible.
func (o OwnerID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if o.IsObjectID() {
		return bson.MarshalValue(o.oid)
	}
	return bson.MarshalValue(o.raw)
}

func (o *OwnerID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.ObjectID:
		*o = OwnerIDFromObjectID(rv.ObjectID())
	case bsontype.String:
		parsed, err := ParseOwnerID(rv.StringValue())
		if err != nil {
			return err
		}
		*o = parsed
	case bsontype.Null, bsontype.Undefined:
		*o = OwnerID{}
	default:
		return fmt.Errorf("owner id: unsupported bson type %s", t)
	}
	return nil
}

func (o OwnerID) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *OwnerID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*o = OwnerID{}
		return nil
	}
	parsed, err := ParseOwnerID(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Identity is the authenticated caller as extracted from a bearer token.
type Identity struct {
	Subject OwnerID
	Email   string
	Role    string
}
