// Package secrets resolves connection strings and keys from Azure Key Vault
// at startup, overriding values loaded from the environment.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/pkg/config"
)

// ErrSecretNotFound is returned when a provider has no value for the name.
var ErrSecretNotFound = errors.New("secret not found")

// Provider fetches a secret value by name.
type Provider interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// KeyVault reads the latest version of each secret using the default Azure
// credential chain (managed identity, workload identity, CLI login).
type KeyVault struct {
	client *azsecrets.Client
}

// NewKeyVault builds a client for vaultURL.
func NewKeyVault(vaultURL string) (*KeyVault, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("create azure credential: %w", err)
	}
	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create key vault client: %w", err)
	}
	return &KeyVault{client: client}, nil
}

// GetSecret implements Provider.
func (k *KeyVault) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := k.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("get secret %s: %w", name, ErrSecretNotFound)
	}
	return *resp.Value, nil
}

// Static serves secrets from a fixed map. Tests and local runs use it in
// place of a vault.
type Static map[string]string

// GetSecret implements Provider.
func (s Static) GetSecret(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok {
		return "", fmt.Errorf("get secret %s: %w", name, ErrSecretNotFound)
	}
	return v, nil
}

// Apply overrides cfg fields with vault values. Only entries with a mapped
// secret name are fetched. A failed fetch keeps the environment value and is
// logged; it never aborts startup.
func Apply(ctx context.Context, cfg *config.Config, provider Provider, timeout time.Duration, logger *zap.Logger) int {
	if provider == nil {
		return 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	targets := map[string]*string{
		config.SecretDatabasePassword:     &cfg.Database.Password,
		config.SecretRedisPassword:        &cfg.Redis.Password,
		config.SecretMongoURI:             &cfg.Mongo.URI,
		config.SecretServiceBusConnection: &cfg.ServiceBus.ConnectionString,
		config.SecretStorageAccountKey:    &cfg.Storage.AzureAccountKey,
		config.SecretJWT:                  &cfg.JWT.Secret,
	}
	keys := make([]string, 0, len(targets))
	for key := range targets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	applied := 0
	for _, key := range keys {
		name := cfg.KeyVault.SecretNames[key]
		if name == "" {
			continue
		}
		fetchCtx, cancel := context.WithTimeout(ctx, timeout)
		value, err := provider.GetSecret(fetchCtx, name)
		cancel()
		if err != nil {
			logger.Warn("secret lookup failed, keeping environment value", zap.String("secret", name), zap.Error(err))
			continue
		}
		*targets[key] = value
		applied++
	}
	logger.Info("secrets resolved", zap.Int("applied", applied))
	return applied
}
