package schema

import (
	"github.com/fabworks/semgen/pkg/model"
)

// FilterTables filters tables by include and exclude lists. Include applies
// first, then exclude, both as exact case-sensitive matches on the bare table
// name. A nil list means no filtering on that side.
func FilterTables(tables []model.TableMetadata, include, exclude []string) []model.TableMetadata {
	result := tables

	if include != nil {
		includeSet := make(map[string]struct{}, len(include))
		for _, name := range include {
			includeSet[name] = struct{}{}
		}
		kept := make([]model.TableMetadata, 0, len(result))
		for _, table := range result {
			if _, ok := includeSet[table.TableName]; ok {
				kept = append(kept, table)
			}
		}
		result = kept
	}

	if exclude != nil {
		excludeSet := make(map[string]struct{}, len(exclude))
		for _, name := range exclude {
			excludeSet[name] = struct{}{}
		}
		kept := make([]model.TableMetadata, 0, len(result))
		for _, table := range result {
			if _, ok := excludeSet[table.TableName]; !ok {
				kept = append(kept, table)
			}
		}
		result = kept
	}

	return result
}
