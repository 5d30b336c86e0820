package semantic

import (
	"sort"
	"strings"

	"github.com/fabworks/semgen/pkg/ids"
	"github.com/fabworks/semgen/pkg/model"
)

// StripKeyPrefix removes the first matching key prefix from a column name.
// Prefixes are tried in the order given; the first match wins. Returns the
// remainder and true on a match (the remainder is empty when the column name
// equals the bare prefix), or "" and false when no prefix matches.
func StripKeyPrefix(columnName string, keyPrefixes []string) (string, bool) {
	for _, prefix := range keyPrefixes {
		if strings.HasPrefix(columnName, prefix) {
			return columnName[len(prefix):], true
		}
	}
	return "", false
}

// IsExactPrefixMatch reports whether a column name equals one of the bare
// prefixes. Such columns structurally cannot be foreign keys and never
// participate in relationship inference.
func IsExactPrefixMatch(columnName string, keyPrefixes []string) bool {
	for _, prefix := range keyPrefixes {
		if columnName == prefix {
			return true
		}
	}
	return false
}

// dimensionEntry is a candidate match target: one dimension table identified
// by its single qualifying key column.
type dimensionEntry struct {
	keyColumn string // full key-column name, e.g. "ID_Customer"
	qualified string // "schema.table" of the dimension
}

// InferRelationships infers fact-to-dimension relationships from key-column
// naming conventions.
//
// A dimension qualifies for matching only when it has exactly one key column
// that is not a bare prefix; dimensions with zero or several are silently
// excluded. A fact key column matches a dimension when its name equals the
// dimension's key-column name or extends it with an underscore suffix (the
// role-playing convention, e.g. "ID_Customer_ShipTo"). Candidate dimensions
// are scanned in lexicographic order of their key-column name and the first
// match wins, which keeps "first matching dimension" deterministic.
//
// When one fact references the same dimension through several columns, the
// group is sorted by from-column name and only the first stays active. The
// result is sorted by (fromTable, fromColumn, toTable, toColumn); repeated
// runs on identical input produce identical output, including IDs.
func InferRelationships(
	tables []model.TableMetadata,
	classifications map[model.TableKey]model.TableClassification,
	keyPrefixes []string,
) []model.Relationship {
	if len(tables) == 0 {
		return nil
	}

	var facts, dimensions []model.TableMetadata
	for _, t := range tables {
		switch classifications[t.Key()] {
		case model.ClassificationFact:
			facts = append(facts, t)
		case model.ClassificationDimension:
			dimensions = append(dimensions, t)
		}
	}

	lookup := buildDimensionLookup(dimensions, keyPrefixes)

	var relationships []model.Relationship
	for _, fact := range facts {
		for _, col := range fact.Columns {
			if !isKeyColumn(col.Name, keyPrefixes) || IsExactPrefixMatch(col.Name, keyPrefixes) {
				continue
			}
			for _, dim := range lookup {
				if col.Name != dim.keyColumn && !strings.HasPrefix(col.Name, dim.keyColumn+"_") {
					continue
				}
				relationships = append(relationships, model.Relationship{
					ID:                  ids.ForRelationship(fact.QualifiedName(), col.Name, dim.qualified, dim.keyColumn),
					FromTable:           fact.QualifiedName(),
					FromColumn:          col.Name,
					ToTable:             dim.qualified,
					ToColumn:            dim.keyColumn,
					IsActive:            true,
					CrossFilterBehavior: model.CrossFilterOneDirection,
					FromCardinality:     model.CardinalityMany,
					ToCardinality:       model.CardinalityOne,
				})
				break // a fact column matches at most one dimension
			}
		}
	}

	resolveRolePlaying(relationships)

	sort.Slice(relationships, func(i, j int) bool {
		a, b := relationships[i], relationships[j]
		if a.FromTable != b.FromTable {
			return a.FromTable < b.FromTable
		}
		if a.FromColumn != b.FromColumn {
			return a.FromColumn < b.FromColumn
		}
		if a.ToTable != b.ToTable {
			return a.ToTable < b.ToTable
		}
		return a.ToColumn < b.ToColumn
	})

	return relationships
}

// buildDimensionLookup collects dimensions with exactly one non-exact-match
// key column, sorted by key-column name (then qualified name) so the
// first-match-wins scan has a defined order.
func buildDimensionLookup(dimensions []model.TableMetadata, keyPrefixes []string) []dimensionEntry {
	var entries []dimensionEntry
	for _, dim := range dimensions {
		var qualifying []string
		for _, col := range dim.Columns {
			base, ok := StripKeyPrefix(col.Name, keyPrefixes)
			if ok && base != "" {
				qualifying = append(qualifying, col.Name)
			}
		}
		if len(qualifying) == 1 {
			entries = append(entries, dimensionEntry{keyColumn: qualifying[0], qualified: dim.QualifiedName()})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].keyColumn != entries[j].keyColumn {
			return entries[i].keyColumn < entries[j].keyColumn
		}
		return entries[i].qualified < entries[j].qualified
	})
	return entries
}

// resolveRolePlaying deactivates all but one relationship in every
// (fromTable, toTable) group. The survivor is the lexicographically smallest
// from-column; IDs and other fields are left untouched.
func resolveRolePlaying(relationships []model.Relationship) {
	type tablePair struct{ from, to string }

	groups := make(map[tablePair][]int)
	for i, rel := range relationships {
		pair := tablePair{from: rel.FromTable, to: rel.ToTable}
		groups[pair] = append(groups[pair], i)
	}

	for _, indices := range groups {
		if len(indices) < 2 {
			continue
		}
		sort.Slice(indices, func(i, j int) bool {
			return relationships[indices[i]].FromColumn < relationships[indices[j]].FromColumn
		})
		for _, idx := range indices[1:] {
			relationships[idx].IsActive = false
		}
	}
}
