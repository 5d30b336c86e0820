package apperrors

import "errors"

var (
	ErrFolderExists      = errors.New("output folder already exists")
	ErrModelExists       = errors.New("semantic model already exists")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrItemNotFound      = errors.New("item not found")
	ErrAmbiguousName     = errors.New("name matches multiple items")
	ErrUnsupportedType   = errors.New("unsupported SQL type")
)
