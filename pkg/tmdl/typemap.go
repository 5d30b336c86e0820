package tmdl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fabworks/semgen/pkg/apperrors"
)

// DataType is a tabular model data type.
type DataType string

const (
	TypeInt64    DataType = "int64"
	TypeDouble   DataType = "double"
	TypeBoolean  DataType = "boolean"
	TypeString   DataType = "string"
	TypeDateTime DataType = "dateTime"
	TypeDecimal  DataType = "decimal"
	TypeBinary   DataType = "binary"
)

// sqlToTMDL maps Fabric warehouse SQL types to tabular model data types.
var sqlToTMDL = map[string]DataType{
	"bit":      TypeBoolean,
	"smallint": TypeInt64,
	"int":      TypeInt64,
	"bigint":   TypeInt64,

	"decimal": TypeDecimal,
	"numeric": TypeDecimal,
	"float":   TypeDouble,
	"real":    TypeDouble,

	"char":    TypeString,
	"varchar": TypeString,

	"date":      TypeDateTime,
	"datetime2": TypeDateTime,
	"time":      TypeDateTime,

	"varbinary":        TypeBinary,
	"uniqueidentifier": TypeBinary,
}

// MapSQLType maps a warehouse SQL type name (case-insensitive) to its TMDL
// data type. Unknown types are an error naming every supported type, since
// an unmapped column would silently corrupt the generated model.
func MapSQLType(sqlType string) (DataType, error) {
	normalized := strings.ToLower(strings.TrimSpace(sqlType))
	if normalized == "" {
		return "", fmt.Errorf("SQL type cannot be empty")
	}

	mapped, ok := sqlToTMDL[normalized]
	if !ok {
		supported := make([]string, 0, len(sqlToTMDL))
		for name := range sqlToTMDL {
			supported = append(supported, name)
		}
		sort.Strings(supported)
		return "", fmt.Errorf("%w: %q (supported: %s)", apperrors.ErrUnsupportedType, sqlType, strings.Join(supported, ", "))
	}
	return mapped, nil
}
