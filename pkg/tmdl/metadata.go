package tmdl

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fabworks/semgen/pkg/ids"
	"github.com/fabworks/semgen/pkg/model"
)

const (
	platformSchemaURL = "https://developer.microsoft.com/json-schemas/fabric/gitIntegration/platformProperties/2.0.0/schema.json"
	pbismSchemaURL    = "https://developer.microsoft.com/json-schemas/fabric/item/semanticModel/definitionProperties/1.0.0/schema.json"
)

// Diagram layout geometry. Facts sit in the left column, dimensions in a
// second column to the right, each stacked vertically.
const (
	layoutFactX      = 40
	layoutDimensionX = 420
	layoutTableWidth = 220
	layoutTableHeight = 180
	layoutRowSpacing = 200
)

type platformMetadata struct {
	Type        string `json:"type"`
	DisplayName string `json:"displayName"`
}

type platformConfig struct {
	Version   string `json:"version"`
	LogicalID string `json:"logicalId"`
}

type platformFile struct {
	Schema   string           `json:"$schema"`
	Metadata platformMetadata `json:"metadata"`
	Config   platformConfig   `json:"config"`
}

// GeneratePlatform renders the .platform JSON file. The logicalId is
// deterministic per model name so regeneration never re-keys the git item.
func GeneratePlatform(modelName string) (string, error) {
	logicalID, err := ids.Deterministic("semanticmodel", modelName)
	if err != nil {
		return "", fmt.Errorf("logical id: %w", err)
	}

	return marshalIndented(platformFile{
		Schema: platformSchemaURL,
		Metadata: platformMetadata{
			Type:        "SemanticModel",
			DisplayName: modelName,
		},
		Config: platformConfig{
			Version:   "2.0",
			LogicalID: logicalID.String(),
		},
	})
}

type pbismFile struct {
	Schema      string         `json:"$schema"`
	Version     string         `json:"version"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Author      string         `json:"author"`
	CreatedAt   string         `json:"createdAt"`
	ModifiedAt  string         `json:"modifiedAt"`
	Settings    map[string]any `json:"settings"`
}

// GenerateDefinitionPBISM renders definition.pbism. An empty timestamp uses
// the current UTC time; passing one makes the output fully deterministic.
func GenerateDefinitionPBISM(modelName, description, author, timestamp string) (string, error) {
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	return marshalIndented(pbismFile{
		Schema:      pbismSchemaURL,
		Version:     "4.2",
		Name:        modelName,
		Description: description,
		Author:      author,
		CreatedAt:   timestamp,
		ModifiedAt:  timestamp,
		Settings:    map[string]any{},
	})
}

type layoutTable struct {
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type layoutFile struct {
	Version string        `json:"version"`
	Tables  []layoutTable `json:"tables"`
}

// GenerateDiagramLayout renders diagramLayout.json. Facts occupy one vertical
// column and dimensions another, so the star shape is visible when the model
// is first opened. Positions depend only on sorted input, so output is
// deterministic.
func GenerateDiagramLayout(tables []model.TableMetadata, classifications map[model.TableKey]model.TableClassification) (string, error) {
	entries := make([]layoutTable, 0, len(tables))
	factRow, dimensionRow := 0, 0

	for _, t := range sortTablesForOutput(tables, classifications) {
		entry := layoutTable{
			Name:   t.TableName,
			Width:  layoutTableWidth,
			Height: layoutTableHeight,
		}
		if classifications[t.Key()] == model.ClassificationFact {
			entry.X = layoutFactX
			entry.Y = factRow * layoutRowSpacing
			factRow++
		} else {
			entry.X = layoutDimensionX
			entry.Y = dimensionRow * layoutRowSpacing
			dimensionRow++
		}
		entries = append(entries, entry)
	}

	return marshalIndented(layoutFile{
		Version: "1.0",
		Tables:  entries,
	})
}

func marshalIndented(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json: %w", err)
	}
	return string(data) + "\n", nil
}
