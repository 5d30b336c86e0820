package tmdl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fabworks/semgen/pkg/ids"
	"github.com/fabworks/semgen/pkg/model"
)

// classificationRank orders tables for output: dimensions, then facts, then
// unclassified.
func classificationRank(c model.TableClassification) int {
	switch c {
	case model.ClassificationDimension:
		return 0
	case model.ClassificationFact:
		return 1
	default:
		return 2
	}
}

// sortTablesForOutput returns tables ordered dimension-first, each group
// sorted by (schema, table).
func sortTablesForOutput(tables []model.TableMetadata, classifications map[model.TableKey]model.TableClassification) []model.TableMetadata {
	sorted := make([]model.TableMetadata, len(tables))
	copy(sorted, tables)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri := classificationRank(classifications[sorted[i].Key()])
		rj := classificationRank(classifications[sorted[j].Key()])
		if ri != rj {
			return ri < rj
		}
		if sorted[i].SchemaName != sorted[j].SchemaName {
			return sorted[i].SchemaName < sorted[j].SchemaName
		}
		return sorted[i].TableName < sorted[j].TableName
	})
	return sorted
}

// GenerateDatabase renders database.tmdl.
func GenerateDatabase() (string, error) {
	content := "database\n" + Indent(1) + "compatibilityLevel: 1604\n"
	if err := mustBeTabIndented("database.tmdl", content); err != nil {
		return "", err
	}
	return content, nil
}

// GenerateModel renders model.tmdl: the model header plus one "ref table"
// line per table, dimensions before facts before unclassified.
func GenerateModel(tables []model.TableMetadata, classifications map[model.TableKey]model.TableClassification) (string, error) {
	indent1 := Indent(1)

	lines := []string{
		"model Model",
		indent1 + "culture: en-US",
		indent1 + "defaultPowerBIDataSourceVersion: powerBI_V3",
		indent1 + "discourageImplicitMeasures",
		"",
	}

	for _, t := range sortTablesForOutput(tables, classifications) {
		quoted, err := QuoteIdentifier(t.TableName)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", t.QualifiedName(), err)
		}
		lines = append(lines, "ref table "+quoted)
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := mustBeTabIndented("model.tmdl", content); err != nil {
		return "", err
	}
	return content, nil
}

// GenerateExpressions renders expressions.tmdl with the DirectLake
// expression for the catalog.
func GenerateExpressions(catalogName string) (string, error) {
	lineageTag, err := ids.Deterministic("expression", catalogName)
	if err != nil {
		return "", fmt.Errorf("expression lineage tag: %w", err)
	}

	content := fmt.Sprintf(`expression 'DirectLake - %s' =
%slet
%sSource = AzureStorage.DataLake("", [HierarchicalNavigation=true])
%sin
%sSource
%slineageTag: %s

%sannotation PBI_IncludeFutureArtifacts = False
`,
		catalogName,
		Indent(2), Indent(3), Indent(2), Indent(3),
		Indent(1), lineageTag,
		Indent(1),
	)

	if err := mustBeTabIndented("expressions.tmdl", content); err != nil {
		return "", err
	}
	return content, nil
}

// generateColumn renders one column block within a table definition.
func generateColumn(column model.ColumnMetadata, tableQualifiedName string) (string, error) {
	quoted, err := QuoteIdentifier(column.Name)
	if err != nil {
		return "", fmt.Errorf("column in %s: %w", tableQualifiedName, err)
	}

	dataType, err := MapSQLType(column.SQLType)
	if err != nil {
		return "", fmt.Errorf("column %s.%s: %w", tableQualifiedName, column.Name, err)
	}

	lineageTag, err := ids.Deterministic("column", tableQualifiedName+"."+column.Name)
	if err != nil {
		return "", fmt.Errorf("column lineage tag: %w", err)
	}

	indent1, indent2 := Indent(1), Indent(2)
	lines := []string{
		indent1 + "column " + quoted,
		indent2 + "dataType: " + string(dataType),
		indent2 + "lineageTag: " + lineageTag.String(),
		indent2 + "summarizeBy: none",
		indent2 + "sourceColumn: " + column.Name,
		"",
		indent2 + "annotation SummarizationSetBy = Automatic",
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// generatePartition renders the DirectLake partition block for a table.
func generatePartition(table model.TableMetadata, catalogName string) (string, error) {
	quoted, err := QuoteIdentifier(table.TableName)
	if err != nil {
		return "", fmt.Errorf("partition for %s: %w", table.QualifiedName(), err)
	}

	return fmt.Sprintf(`%spartition %s = entity
%smode: directLake
%ssource
%sentityName: %s
%sschemaName: %s
%sexpressionSource: 'DirectLake - %s'
`,
		Indent(1), quoted,
		Indent(2), Indent(2),
		Indent(3), table.TableName,
		Indent(3), table.SchemaName,
		Indent(3), catalogName,
	), nil
}

// GenerateTable renders the complete TMDL definition for one table: lineage
// tag, DirectLake partition, then columns with key columns first and each
// group sorted alphabetically.
func GenerateTable(table model.TableMetadata, keyPrefixes []string, catalogName string) (string, error) {
	quoted, err := QuoteIdentifier(table.TableName)
	if err != nil {
		return "", fmt.Errorf("table %s: %w", table.QualifiedName(), err)
	}

	lineageTag, err := ids.Deterministic("table", table.QualifiedName())
	if err != nil {
		return "", fmt.Errorf("table lineage tag: %w", err)
	}

	var keyColumns, otherColumns []model.ColumnMetadata
	for _, col := range table.Columns {
		isKey := false
		for _, prefix := range keyPrefixes {
			if strings.HasPrefix(col.Name, prefix) {
				isKey = true
				break
			}
		}
		if isKey {
			keyColumns = append(keyColumns, col)
		} else {
			otherColumns = append(otherColumns, col)
		}
	}
	sort.Slice(keyColumns, func(i, j int) bool { return keyColumns[i].Name < keyColumns[j].Name })
	sort.Slice(otherColumns, func(i, j int) bool { return otherColumns[i].Name < otherColumns[j].Name })

	var columnSections strings.Builder
	for _, col := range append(keyColumns, otherColumns...) {
		section, err := generateColumn(col, table.QualifiedName())
		if err != nil {
			return "", err
		}
		columnSections.WriteString(section)
	}

	partition, err := generatePartition(table, catalogName)
	if err != nil {
		return "", err
	}

	content := fmt.Sprintf("table %s\n%slineageTag: %s\n\n%s\n%s",
		quoted, Indent(1), lineageTag, partition, columnSections.String())

	if err := mustBeTabIndented(table.TableName+".tmdl", content); err != nil {
		return "", err
	}
	return content, nil
}

// GenerateRelationships renders relationships.tmdl. Active relationships
// come first, then inactive, each group sorted by the column name tuple.
// No relationships yields empty content.
func GenerateRelationships(relationships []model.Relationship) (string, error) {
	if len(relationships) == 0 {
		return "", nil
	}

	sorted := make([]model.Relationship, len(relationships))
	copy(sorted, relationships)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.IsActive != b.IsActive {
			return a.IsActive
		}
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

	indent1 := Indent(1)
	sections := make([]string, 0, len(sorted))
	for _, rel := range sorted {
		// Relationship column references always single-quote the table name
		// and never quote the column name.
		fromTable := escapeTableName(rel.FromTable)
		toTable := escapeTableName(rel.ToTable)

		lines := []string{"relationship " + rel.ID.String()}
		if !rel.IsActive {
			lines = append(lines, indent1+"isActive: false")
		}
		lines = append(lines,
			fmt.Sprintf("%sfromColumn: '%s'.%s", indent1, fromTable, rel.FromColumn),
			fmt.Sprintf("%stoColumn: '%s'.%s", indent1, toTable, rel.ToColumn),
		)
		sections = append(sections, strings.Join(lines, "\n"))
	}

	content := strings.Join(sections, "\n\n") + "\n"
	if err := mustBeTabIndented("relationships.tmdl", content); err != nil {
		return "", err
	}
	return content, nil
}

// escapeTableName strips the schema qualifier and escapes single quotes for
// use inside an always-quoted relationship column reference.
func escapeTableName(qualified string) string {
	name := qualified
	if idx := strings.Index(qualified, "."); idx >= 0 {
		name = qualified[idx+1:]
	}
	return strings.ReplaceAll(name, "'", "''")
}

// GenerateAll renders the complete semantic model as a map of relative file
// paths to content: Fabric metadata JSON, the definition TMDL files, and one
// table file per input table.
func GenerateAll(
	modelName string,
	tables []model.TableMetadata,
	classifications map[model.TableKey]model.TableClassification,
	relationships []model.Relationship,
	keyPrefixes []string,
	catalogName string,
) (map[string]string, error) {
	files := make(map[string]string)

	platform, err := GeneratePlatform(modelName)
	if err != nil {
		return nil, fmt.Errorf("generate .platform: %w", err)
	}
	files[".platform"] = platform

	pbism, err := GenerateDefinitionPBISM(modelName, "", "", "")
	if err != nil {
		return nil, fmt.Errorf("generate definition.pbism: %w", err)
	}
	files["definition.pbism"] = pbism

	database, err := GenerateDatabase()
	if err != nil {
		return nil, err
	}
	files["definition/database.tmdl"] = database

	modelFile, err := GenerateModel(tables, classifications)
	if err != nil {
		return nil, err
	}
	files["definition/model.tmdl"] = modelFile

	expressions, err := GenerateExpressions(catalogName)
	if err != nil {
		return nil, err
	}
	files["definition/expressions.tmdl"] = expressions

	relFile, err := GenerateRelationships(relationships)
	if err != nil {
		return nil, err
	}
	files["definition/relationships.tmdl"] = relFile

	for _, t := range sortTablesForOutput(tables, classifications) {
		content, err := GenerateTable(t, keyPrefixes, catalogName)
		if err != nil {
			return nil, err
		}
		files["definition/tables/"+t.TableName+".tmdl"] = content
	}

	layout, err := GenerateDiagramLayout(tables, classifications)
	if err != nil {
		return nil, fmt.Errorf("generate diagramLayout.json: %w", err)
	}
	files["diagramLayout.json"] = layout

	return files, nil
}
