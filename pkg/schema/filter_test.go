package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fabworks/semgen/pkg/model"
)

func sampleTables() []model.TableMetadata {
	names := []string{"DimCustomer", "DimProduct", "FactSales", "FactOrders"}
	tables := make([]model.TableMetadata, len(names))
	for i, name := range names {
		col, _ := model.NewColumnMetadata("ID", "bigint", false, 1)
		tables[i] = model.TableMetadata{
			SchemaName: "dbo",
			TableName:  name,
			Columns:    []model.ColumnMetadata{col},
		}
	}
	return tables
}

func tableNames(tables []model.TableMetadata) []string {
	names := make([]string, len(tables))
	for i, table := range tables {
		names[i] = table.TableName
	}
	return names
}

func TestFilterTables_IncludeKeepsSpecified(t *testing.T) {
	got := FilterTables(sampleTables(), []string{"DimCustomer", "FactSales"}, nil)
	assert.Equal(t, []string{"DimCustomer", "FactSales"}, tableNames(got))
}

func TestFilterTables_IncludeSingle(t *testing.T) {
	got := FilterTables(sampleTables(), []string{"DimProduct"}, nil)
	assert.Equal(t, []string{"DimProduct"}, tableNames(got))
}

func TestFilterTables_IncludeNonexistentReturnsEmpty(t *testing.T) {
	got := FilterTables(sampleTables(), []string{"NoSuchTable"}, nil)
	assert.Empty(t, got)
}

func TestFilterTables_IncludeEmptyListReturnsEmpty(t *testing.T) {
	got := FilterTables(sampleTables(), []string{}, nil)
	assert.Empty(t, got)
}

func TestFilterTables_ExcludeRemovesSpecified(t *testing.T) {
	got := FilterTables(sampleTables(), nil, []string{"FactOrders"})
	assert.Equal(t, []string{"DimCustomer", "DimProduct", "FactSales"}, tableNames(got))
}

func TestFilterTables_ExcludeMultiple(t *testing.T) {
	got := FilterTables(sampleTables(), nil, []string{"FactOrders", "FactSales"})
	assert.Equal(t, []string{"DimCustomer", "DimProduct"}, tableNames(got))
}

func TestFilterTables_ExcludeNonexistentReturnsAll(t *testing.T) {
	got := FilterTables(sampleTables(), nil, []string{"NoSuchTable"})
	assert.Len(t, got, 4)
}

func TestFilterTables_ExcludeEmptyListReturnsAll(t *testing.T) {
	got := FilterTables(sampleTables(), nil, []string{})
	assert.Len(t, got, 4)
}

func TestFilterTables_IncludeThenExclude(t *testing.T) {
	got := FilterTables(sampleTables(),
		[]string{"DimCustomer", "DimProduct", "FactSales"},
		[]string{"DimProduct"})
	assert.Equal(t, []string{"DimCustomer", "FactSales"}, tableNames(got))
}

func TestFilterTables_NoFiltersReturnsAllInOrder(t *testing.T) {
	tables := sampleTables()
	got := FilterTables(tables, nil, nil)
	assert.Equal(t, tableNames(tables), tableNames(got))
}

func TestFilterTables_EmptyInput(t *testing.T) {
	assert.Empty(t, FilterTables(nil, []string{"DimCustomer"}, nil))
	assert.Empty(t, FilterTables(nil, nil, nil))
}

func TestFilterTables_CaseSensitiveMatching(t *testing.T) {
	got := FilterTables(sampleTables(), []string{"dimcustomer"}, nil)
	assert.Empty(t, got, "matching is exact and case-sensitive")
}
