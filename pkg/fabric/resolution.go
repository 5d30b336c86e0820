package fabric

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/fabworks/semgen/pkg/apperrors"
)

// Item types resolvable inside a workspace.
const (
	ItemTypeLakehouse = "Lakehouse"
	ItemTypeWarehouse = "Warehouse"
)

var guidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// IsGUID reports whether value is a GUID in canonical 8-4-4-4-12 form.
func IsGUID(value string) bool {
	return guidPattern.MatchString(strings.ToLower(value))
}

type fabricItem struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type itemList struct {
	Value []fabricItem `json:"value"`
}

// findByDisplayName returns the single item matching name. Missing and
// ambiguous names are distinct errors so callers can report them precisely.
func findByDisplayName(items []fabricItem, name, kind string) (string, error) {
	var matches []fabricItem
	for _, item := range items {
		if item.DisplayName == name {
			matches = append(matches, item)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s %q", apperrors.ErrItemNotFound, kind, name)
	case 1:
		return matches[0].ID, nil
	default:
		return "", fmt.Errorf("%w: %d %ss named %q", apperrors.ErrAmbiguousName, len(matches), kind, name)
	}
}

// ResolveWorkspaceID resolves a workspace display name to its GUID.
func (c *Client) ResolveWorkspaceID(ctx context.Context, workspaceName string) (string, error) {
	var list itemList
	if err := c.getJSON(ctx, "workspaces", &list); err != nil {
		return "", err
	}
	id, err := findByDisplayName(list.Value, workspaceName, "workspace")
	if errors.Is(err, apperrors.ErrItemNotFound) {
		return "", fmt.Errorf("%w: %q", apperrors.ErrWorkspaceNotFound, workspaceName)
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// ResolveItemID resolves a lakehouse or warehouse display name to its GUID
// within a workspace.
func (c *Client) ResolveItemID(ctx context.Context, workspaceID, itemName, itemType string) (string, error) {
	var path string
	switch itemType {
	case ItemTypeLakehouse:
		path = "workspaces/" + workspaceID + "/lakehouses"
	case ItemTypeWarehouse:
		path = "workspaces/" + workspaceID + "/warehouses"
	default:
		return "", fmt.Errorf("unsupported item type: %s", itemType)
	}

	var list itemList
	if err := c.getJSON(ctx, path, &list); err != nil {
		return "", err
	}
	return findByDisplayName(list.Value, itemName, strings.ToLower(itemType))
}

// BuildDirectLakeURL builds the OneLake connection URL for a resolved
// workspace and lakehouse pair.
func BuildDirectLakeURL(workspaceID, lakehouseID string) string {
	return "https://onelake.dfs.fabric.microsoft.com/" + workspaceID + "/" + lakehouseID
}

// ResolveDirectLakeURL resolves workspace and lakehouse identifiers, which
// may be display names or GUIDs, into a Direct Lake URL. GUIDs pass through
// without API calls.
func (c *Client) ResolveDirectLakeURL(ctx context.Context, workspace, lakehouse, itemType string) (string, error) {
	workspaceID := workspace
	if !IsGUID(workspace) {
		id, err := c.ResolveWorkspaceID(ctx, workspace)
		if err != nil {
			return "", err
		}
		workspaceID = id
	}

	lakehouseID := lakehouse
	if !IsGUID(lakehouse) {
		id, err := c.ResolveItemID(ctx, workspaceID, lakehouse, itemType)
		if err != nil {
			return "", err
		}
		lakehouseID = id
	}

	return BuildDirectLakeURL(workspaceID, lakehouseID), nil
}
