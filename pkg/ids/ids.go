// Package ids generates stable identifiers for semantic model objects.
//
// Identifiers are UUIDv5 values derived from a fixed project namespace and a
// "type:name" composite key, so regenerating the same schema always
// reproduces the same IDs. Stable IDs keep diffs clean between a freshly
// generated definition and a previously deployed one.
package ids

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Namespace for all semantic model UUIDs. Generated once, committed as a
// constant; changing it would re-key every deployed model.
var namespace = uuid.MustParse("b8a7d3f2-6c1e-4a59-9d2b-8f3e7c5a1d04")

// Deterministic returns a stable UUID for a semantic model object.
// The object type is normalized to lowercase; the object name keeps its case
// because source systems may be case-sensitive. Both are trimmed of
// surrounding whitespace and must be non-empty after trimming.
func Deterministic(objectType, objectName string) (uuid.UUID, error) {
	normalizedType := strings.ToLower(strings.TrimSpace(objectType))
	normalizedName := strings.TrimSpace(objectName)

	if normalizedType == "" {
		return uuid.Nil, fmt.Errorf("object type cannot be empty")
	}
	if normalizedName == "" {
		return uuid.Nil, fmt.Errorf("object name cannot be empty")
	}

	return uuid.NewSHA1(namespace, []byte(normalizedType+":"+normalizedName)), nil
}

// ForRelationship returns the stable ID for a relationship between two
// columns. The composite name encodes direction: from -> to.
func ForRelationship(fromTable, fromColumn, toTable, toColumn string) uuid.UUID {
	name := fmt.Sprintf("%s.%s->%s.%s", fromTable, fromColumn, toTable, toColumn)
	// Inputs are validated table/column names, never empty.
	id, _ := Deterministic("relationship", name)
	return id
}
