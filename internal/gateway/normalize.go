package gateway

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDField is the store's unique identifier field.
const IDField = "_id"

// Record is a loosely typed document as returned to API clients.
type Record map[string]any

// Normalize rewrites each document's identifier to its string form and
// leaves every other field untouched. The result is never nil, so an empty
// collection encodes as [] rather than null. Documents without an
// identifier, or with a null one, pass through unchanged.
func Normalize(raw []bson.M) []Record {
	out := make([]Record, 0, len(raw))
	for _, doc := range raw {
		rec := Record(doc)
		if id, ok := rec[IDField]; ok && id != nil {
			rec[IDField] = IDString(id)
		}
		out = append(out, rec)
	}
	return out
}

// IDString returns the canonical string form of a store identifier.
// ObjectIDs become their 24-character hex form, which ObjectIDFromHex
// turns back into the same identifier.
func IDString(id any) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
