package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseOwnerID_HexCaseInsensitive(t *testing.T) {
	lower, err := ParseOwnerID("507f1f77bcf86cd799439011")
	require.NoError(t, err)
	upper, err := ParseOwnerID("  507F1F77BCF86CD799439011 ")
	require.NoError(t, err)

	assert.True(t, lower.IsObjectID())
	assert.True(t, lower.Equal(upper))
	assert.Equal(t, "507f1f77bcf86cd799439011", upper.String())
}

func TestParseOwnerID_CompactAndTextualFormsAreEqual(t *testing.T) {
	oid, err := primitive.ObjectIDFromHex("507f1f77bcf86cd799439011")
	require.NoError(t, err)

	fromBinary := OwnerIDFromObjectID(oid)
	fromText := MustOwnerID("507f1f77bcf86cd799439011")

	assert.True(t, fromBinary.Equal(fromText))
	assert.True(t, fromText.Equal(fromBinary))
}

func TestParseOwnerID_OpaqueStrings(t *testing.T) {
	id, err := ParseOwnerID(" firebase-uid-123 ")
	require.NoError(t, err)

	assert.False(t, id.IsObjectID())
	assert.Equal(t, "firebase-uid-123", id.String())
	assert.False(t, id.Equal(MustOwnerID("FIREBASE-UID-123")))

	// 24 characters but not hex.
	notHex, err := ParseOwnerID("zzzzzzzzzzzzzzzzzzzzzzzz")
	require.NoError(t, err)
	assert.False(t, notHex.IsObjectID())
}

func TestParseOwnerID_Empty(t *testing.T) {
	_, err := ParseOwnerID("   ")
	assert.ErrorIs(t, err, ErrEmptyOwnerID)

	var zero OwnerID
	assert.True(t, zero.IsZero())
	assert.False(t, zero.Equal(OwnerID{}))
}

func TestOwnerID_BSONRepresentation(t *testing.T) {
	type doc struct {
		OwnerID OwnerID `bson:"ownerId"`
	}

	raw, err := bson.Marshal(doc{OwnerID: MustOwnerID("507f1f77bcf86cd799439011")})
	require.NoError(t, err)
	assert.Equal(t, bsontype.ObjectID, bson.Raw(raw).Lookup("ownerId").Type)

	var decoded doc
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, "507f1f77bcf86cd799439011", decoded.OwnerID.String())

	raw, err = bson.Marshal(doc{OwnerID: MustOwnerID("uid-1")})
	require.NoError(t, err)
	assert.Equal(t, bsontype.String, bson.Raw(raw).Lookup("ownerId").Type)

	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, "uid-1", decoded.OwnerID.String())
}

func TestOwnerID_JSON(t *testing.T) {
	out, err := json.Marshal(MustOwnerID("507F1F77BCF86CD799439011"))
	require.NoError(t, err)
	assert.JSONEq(t, `"507f1f77bcf86cd799439011"`, string(out))

	var id OwnerID
	require.NoError(t, json.Unmarshal([]byte(`"uid-9"`), &id))
	assert.Equal(t, "uid-9", id.String())
}
