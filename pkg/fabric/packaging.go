package fabric

import (
	"encoding/base64"
	"sort"
)

// DefinitionPart is one file of an item definition, inline base64 encoded.
type DefinitionPart struct {
	Path        string `json:"path"`
	Payload     string `json:"payload"`
	PayloadType string `json:"payloadType"`
}

// Definition is the item definition body the Fabric API expects.
type Definition struct {
	Parts []DefinitionPart `json:"parts"`
}

// PackageDefinition converts generated files into an item definition. Parts
// are sorted by path so the payload is deterministic. Content is encoded as
// UTF-8 base64 with payloadType InlineBase64.
func PackageDefinition(files map[string]string) Definition {
	parts := make([]DefinitionPart, 0, len(files))
	for path, content := range files {
		parts = append(parts, DefinitionPart{
			Path:        path,
			Payload:     base64.StdEncoding.EncodeToString([]byte(content)),
			PayloadType: "InlineBase64",
		})
	}
	sort.Slice(parts, func(i, j int) bool {
		return parts[i].Path < parts[j].Path
	})
	return Definition{Parts: parts}
}
