package azure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BrooksCoder/RegistrationApp/pkg/config"
)

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{AzureContainer: "item-images"})
	assert.ErrorContains(t, err, "account name and key")

	_, err = New(context.Background(), config.StorageConfig{AzureAccountName: "acct", AzureAccountKey: "a2V5"})
	assert.ErrorContains(t, err, "container")
}
