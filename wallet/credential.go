package wallet

import (
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azkeys"
)

const (
	// IdentityManaged authorizes against the key with the identity
	// of the runtime the service is deployed to
	IdentityManaged = "managed"

	// IdentitySecret exchanges an application identifier and secret
	// for a token before accessing the key
	IdentitySecret = "secret"
)

// CredentialProps selects the identity used to access the key service
type CredentialProps struct {
	Identity  string
	TenantID  string
	AppID     string
	AppSecret string
}

// NewCredential creates the credential for the identity variant
// selected in props
func NewCredential(props CredentialProps) (azcore.TokenCredential, error) {
	switch props.Identity {
	case IdentitySecret:
		return azidentity.NewClientSecretCredential(props.TenantID, props.AppID, props.AppSecret, nil)
	default:
		return azidentity.NewManagedIdentityCredential(managedIdentityOptions(props))
	}
}

// managedIdentityOptions selects the user assigned identity named by
// AppID. Without AppID the system assigned identity is used
func managedIdentityOptions(props CredentialProps) *azidentity.ManagedIdentityCredentialOptions {
	if len(props.AppID) == 0 {
		return nil
	}

	return &azidentity.ManagedIdentityCredentialOptions{ID: azidentity.ClientID(props.AppID)}
}

// NewKeyClient creates a client for the key vault that holds the key
// identified by keyURI
func NewKeyClient(keyURI string, cred azcore.TokenCredential) (*azkeys.Client, error) {
	ref, err := ParseKeyURI(keyURI)
	if err != nil {
		return nil, err
	}

	return azkeys.NewClient(ref.VaultURL, cred, nil)
}
