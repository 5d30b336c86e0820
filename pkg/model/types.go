package model

import (
	"fmt"

	"github.com/google/uuid"
)

// TableClassification categorizes a table by its key-column density.
type TableClassification string

const (
	ClassificationDimension    TableClassification = "dimension"    // Exactly one key column
	ClassificationFact         TableClassification = "fact"         // Two or more key columns
	ClassificationUnclassified TableClassification = "unclassified" // No key columns
)

// Relationship cardinality and filtering defaults. Inferred relationships
// are always many-to-one from fact to dimension with one-directional
// cross filtering.
const (
	CrossFilterOneDirection = "oneDirection"
	CardinalityMany         = "many"
	CardinalityOne          = "one"
)

// ColumnMetadata is immutable metadata for a discovered warehouse column.
// Construct via NewColumnMetadata so invariants hold.
type ColumnMetadata struct {
	Name             string
	SQLType          string
	IsNullable       bool
	OrdinalPosition  int
	MaxLength        *int64 // character types only
	NumericPrecision *int64
	NumericScale     *int64
}

// NewColumnMetadata validates and builds a ColumnMetadata.
// An empty name or non-positive ordinal position indicates a bug in the
// discovery layer and fails fast.
func NewColumnMetadata(name, sqlType string, isNullable bool, ordinalPosition int) (ColumnMetadata, error) {
	if name == "" {
		return ColumnMetadata{}, fmt.Errorf("column name cannot be empty")
	}
	if ordinalPosition < 1 {
		return ColumnMetadata{}, fmt.Errorf("ordinal position must be >= 1, got %d for column %q", ordinalPosition, name)
	}
	return ColumnMetadata{
		Name:            name,
		SQLType:         sqlType,
		IsNullable:      isNullable,
		OrdinalPosition: ordinalPosition,
	}, nil
}

// TableMetadata is immutable metadata for a discovered warehouse table.
// Columns preserve source ordinal order.
type TableMetadata struct {
	SchemaName string
	TableName  string
	Columns    []ColumnMetadata
}

// QualifiedName returns the schema-qualified table name, e.g. "dbo.FactSales".
func (t TableMetadata) QualifiedName() string {
	return t.SchemaName + "." + t.TableName
}

// Key returns the identity used for classification lookups.
func (t TableMetadata) Key() TableKey {
	return TableKey{Schema: t.SchemaName, Table: t.TableName}
}

// TableKey identifies a table by its (schema, table) pair. Comparable,
// usable as a map key.
type TableKey struct {
	Schema string
	Table  string
}

func (k TableKey) String() string {
	return k.Schema + "." + k.Table
}

// Relationship is a single fact-to-dimension relationship produced by
// inference. The ID is deterministic for a given column pair so repeated
// generation of the same schema yields identical model definitions.
type Relationship struct {
	ID                  uuid.UUID
	FromTable           string // qualified "schema.table" on the fact side
	FromColumn          string
	ToTable             string // qualified "schema.table" on the dimension side
	ToColumn            string
	IsActive            bool
	CrossFilterBehavior string
	FromCardinality     string
	ToCardinality       string
}
