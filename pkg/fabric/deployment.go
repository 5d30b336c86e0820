package fabric

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fabworks/semgen/pkg/apperrors"
)

// deploymentTimestampLayout matches the folder suffix the output writer uses,
// so dev deployments and dev folders line up.
const deploymentTimestampLayout = "20060102T150405Z"

// FindSemanticModelByName returns the ID of the semantic model with the given
// display name, or "" when no model matches.
func (c *Client) FindSemanticModelByName(ctx context.Context, workspaceID, modelName string) (string, error) {
	var list itemList
	if err := c.getJSON(ctx, "workspaces/"+workspaceID+"/semanticModels", &list); err != nil {
		return "", err
	}
	for _, item := range list.Value {
		if item.DisplayName == modelName {
			return item.ID, nil
		}
	}
	return "", nil
}

type createModelRequest struct {
	DisplayName string     `json:"displayName"`
	Definition  Definition `json:"definition"`
}

type createModelResponse struct {
	ID string `json:"id"`
}

// CreateSemanticModel creates a model in the workspace. A 201 response
// returns the model ID directly; a 202 returns an operation ID to poll.
func (c *Client) CreateSemanticModel(ctx context.Context, workspaceID, displayName string, definition Definition) (modelID, operationID string, err error) {
	resp, err := c.do(ctx, http.MethodPost, "workspaces/"+workspaceID+"/semanticModels", createModelRequest{
		DisplayName: displayName,
		Definition:  definition,
	})
	if err != nil {
		return "", "", err
	}

	switch resp.Status {
	case http.StatusCreated:
		var created createModelResponse
		if err := json.Unmarshal(resp.Body, &created); err != nil {
			return "", "", fmt.Errorf("parse create response: %w", err)
		}
		return created.ID, "", nil
	case http.StatusAccepted:
		return "", resp.OperationID, nil
	default:
		return "", "", fmt.Errorf("unexpected status %d creating semantic model", resp.Status)
	}
}

type updateDefinitionRequest struct {
	Definition Definition `json:"definition"`
}

// UpdateSemanticModelDefinition replaces the definition of an existing model.
// Returns an operation ID when the update runs as a long-running operation,
// or "" when it completed immediately.
func (c *Client) UpdateSemanticModelDefinition(ctx context.Context, workspaceID, modelID string, definition Definition) (string, error) {
	path := "workspaces/" + workspaceID + "/semanticModels/" + modelID + "/updateDefinition?updateMetadata=True"
	resp, err := c.do(ctx, http.MethodPost, path, updateDefinitionRequest{Definition: definition})
	if err != nil {
		return "", err
	}
	if resp.Status == http.StatusAccepted {
		return resp.OperationID, nil
	}
	return "", nil
}

// resolveWorkspace accepts a workspace GUID or display name.
func (c *Client) resolveWorkspace(ctx context.Context, workspace string) (string, error) {
	if IsGUID(workspace) {
		return workspace, nil
	}
	return c.ResolveWorkspaceID(ctx, workspace)
}

// DeployDev deploys the files as a new model named <modelName>_<timestamp>,
// so iterating never touches an existing model. An empty timestamp uses the
// current UTC time. Returns the created model ID.
func (c *Client) DeployDev(ctx context.Context, workspace, modelName string, files map[string]string, timestamp string) (string, error) {
	workspaceID, err := c.resolveWorkspace(ctx, workspace)
	if err != nil {
		return "", err
	}

	if timestamp == "" {
		timestamp = time.Now().UTC().Format(deploymentTimestampLayout)
	}
	deploymentName := modelName + "_" + timestamp

	c.logger.Info("deploying semantic model",
		zap.String("workspace_id", workspaceID),
		zap.String("model", deploymentName),
		zap.Bool("dev_mode", true))

	modelID, operationID, err := c.CreateSemanticModel(ctx, workspaceID, deploymentName, PackageDefinition(files))
	if err != nil {
		return "", err
	}
	if operationID != "" {
		if _, err := c.PollOperation(ctx, operationID); err != nil {
			return "", err
		}
		result, err := c.GetOperationResult(ctx, operationID)
		if err != nil {
			return "", err
		}
		modelID = result.ID
	}
	return modelID, nil
}

// DeployProd deploys the files under the bare model name. An existing model
// is an error unless confirmOverwrite is set, in which case its definition is
// updated in place. Returns the created or updated model ID.
func (c *Client) DeployProd(ctx context.Context, workspace, modelName string, files map[string]string, confirmOverwrite bool) (string, error) {
	workspaceID, err := c.resolveWorkspace(ctx, workspace)
	if err != nil {
		return "", err
	}

	existingID, err := c.FindSemanticModelByName(ctx, workspaceID, modelName)
	if err != nil {
		return "", err
	}
	if existingID != "" && !confirmOverwrite {
		return "", fmt.Errorf("%w: %q (confirm overwrite to replace it)", apperrors.ErrModelExists, modelName)
	}

	c.logger.Info("deploying semantic model",
		zap.String("workspace_id", workspaceID),
		zap.String("model", modelName),
		zap.Bool("overwrite", existingID != ""))

	definition := PackageDefinition(files)

	if existingID != "" {
		operationID, err := c.UpdateSemanticModelDefinition(ctx, workspaceID, existingID, definition)
		if err != nil {
			return "", err
		}
		if operationID != "" {
			if _, err := c.PollOperation(ctx, operationID); err != nil {
				return "", err
			}
		}
		return existingID, nil
	}

	modelID, operationID, err := c.CreateSemanticModel(ctx, workspaceID, modelName, definition)
	if err != nil {
		return "", err
	}
	if operationID != "" {
		if _, err := c.PollOperation(ctx, operationID); err != nil {
			return "", err
		}
		result, err := c.GetOperationResult(ctx, operationID)
		if err != nil {
			return "", err
		}
		modelID = result.ID
	}
	return modelID, nil
}
