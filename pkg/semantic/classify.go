// Package semantic classifies warehouse tables and infers star-schema
// relationships between them.
//
// Both operations are pure functions over in-memory metadata: classification
// counts key columns per table, inference matches fact key columns against
// dimension key columns by naming convention. Neither touches the warehouse.
package semantic

import (
	"strings"

	"github.com/fabworks/semgen/pkg/model"
)

// isKeyColumn reports whether a column name starts with any of the supplied
// prefixes. Matching is case-sensitive.
func isKeyColumn(name string, keyPrefixes []string) bool {
	for _, prefix := range keyPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// ClassifyTable classifies a single table by counting key columns:
// one key column makes a dimension, two or more make a fact, none leaves the
// table unclassified. Empty columns or prefixes yield unclassified.
func ClassifyTable(columns []model.ColumnMetadata, keyPrefixes []string) model.TableClassification {
	keyCount := 0
	for _, col := range columns {
		if isKeyColumn(col.Name, keyPrefixes) {
			keyCount++
		}
	}

	switch {
	case keyCount == 1:
		return model.ClassificationDimension
	case keyCount >= 2:
		return model.ClassificationFact
	default:
		return model.ClassificationUnclassified
	}
}

// ClassifyTables classifies every table independently, returning one entry
// per input table keyed by (schema, table).
func ClassifyTables(tables []model.TableMetadata, keyPrefixes []string) map[model.TableKey]model.TableClassification {
	classifications := make(map[model.TableKey]model.TableClassification, len(tables))
	for _, t := range tables {
		classifications[t.Key()] = ClassifyTable(t.Columns, keyPrefixes)
	}
	return classifications
}
