// Package fabric deploys semantic models through the Fabric REST API.
package fabric

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// FabricAPIScope is the OAuth scope for the Fabric REST API.
const FabricAPIScope = "https://api.fabric.microsoft.com/.default"

// TokenProvider supplies bearer tokens for Fabric API calls.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// azureTokenProvider acquires tokens through the DefaultAzureCredential
// chain: managed identity, environment variables, Azure CLI.
type azureTokenProvider struct {
	credential *azidentity.DefaultAzureCredential
}

// NewAzureTokenProvider builds a TokenProvider backed by DefaultAzureCredential.
func NewAzureTokenProvider() (TokenProvider, error) {
	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("create default azure credential: %w", err)
	}
	return &azureTokenProvider{credential: credential}, nil
}

func (p *azureTokenProvider) Token(ctx context.Context) (string, error) {
	token, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{FabricAPIScope},
	})
	if err != nil {
		return "", fmt.Errorf("acquire fabric token: %w", err)
	}
	return token.Token, nil
}

// StaticTokenProvider returns a fixed token. Useful for tests and for
// callers that manage token acquisition themselves.
type StaticTokenProvider string

func (p StaticTokenProvider) Token(context.Context) (string, error) {
	return string(p), nil
}
