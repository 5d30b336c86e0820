package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fabworks/semgen/pkg/model"
)

// discoveryQuery joins INFORMATION_SCHEMA.TABLES with COLUMNS, filtered to
// BASE TABLE so views are excluded. Rows come back ordered by schema, table,
// and ordinal position, so each table's columns arrive contiguously.
const discoveryQuery = `
SELECT
    t.TABLE_SCHEMA,
    t.TABLE_NAME,
    c.COLUMN_NAME,
    c.DATA_TYPE,
    c.IS_NULLABLE,
    c.ORDINAL_POSITION,
    c.CHARACTER_MAXIMUM_LENGTH,
    c.NUMERIC_PRECISION,
    c.NUMERIC_SCALE
FROM INFORMATION_SCHEMA.TABLES t
INNER JOIN INFORMATION_SCHEMA.COLUMNS c
    ON t.TABLE_SCHEMA = c.TABLE_SCHEMA
    AND t.TABLE_NAME = c.TABLE_NAME
WHERE t.TABLE_TYPE = 'BASE TABLE'
    AND t.TABLE_SCHEMA IN (%s)
ORDER BY t.TABLE_SCHEMA, t.TABLE_NAME, c.ORDINAL_POSITION`

// DiscoverTables reads table and column metadata for the given schemas.
// An empty schema list returns no tables without querying.
func DiscoverTables(ctx context.Context, db *sql.DB, schemas []string, logger *zap.Logger) ([]model.TableMetadata, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(schemas) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(schemas))
	args := make([]any, len(schemas))
	for i, schema := range schemas {
		placeholders[i] = fmt.Sprintf("@p%d", i+1)
		args[i] = schema
	}
	query := fmt.Sprintf(discoveryQuery, strings.Join(placeholders, ", "))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query INFORMATION_SCHEMA: %w", err)
	}
	defer rows.Close()

	grouped := map[model.TableKey][]model.ColumnMetadata{}
	var order []model.TableKey

	for rows.Next() {
		var (
			schemaName, tableName, columnName, dataType, isNullable string
			ordinalPosition                                         int
			maxLength, numericPrecision, numericScale               sql.NullInt64
		)
		if err := rows.Scan(
			&schemaName, &tableName, &columnName, &dataType, &isNullable,
			&ordinalPosition, &maxLength, &numericPrecision, &numericScale,
		); err != nil {
			return nil, fmt.Errorf("scan metadata row: %w", err)
		}

		col, err := model.NewColumnMetadata(columnName, dataType, isNullable == "YES", ordinalPosition)
		if err != nil {
			return nil, fmt.Errorf("column %s.%s.%s: %w", schemaName, tableName, columnName, err)
		}
		col.MaxLength = nullableInt(maxLength)
		col.NumericPrecision = nullableInt(numericPrecision)
		col.NumericScale = nullableInt(numericScale)

		key := model.TableKey{Schema: schemaName, Table: tableName}
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read metadata rows: %w", err)
	}

	tables := make([]model.TableMetadata, 0, len(order))
	for _, key := range order {
		cols := grouped[key]
		sort.Slice(cols, func(i, j int) bool {
			return cols[i].OrdinalPosition < cols[j].OrdinalPosition
		})
		tables = append(tables, model.TableMetadata{
			SchemaName: key.Schema,
			TableName:  key.Table,
			Columns:    cols,
		})
	}

	logger.Info("discovered tables",
		zap.Strings("schemas", schemas),
		zap.Int("tables", len(tables)))
	return tables, nil
}

func nullableInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	value := v.Int64
	return &value
}
