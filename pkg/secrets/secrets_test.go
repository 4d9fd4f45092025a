package secrets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BrooksCoder/RegistrationApp/pkg/config"
)

func TestApplyOverridesMappedFields(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Password = "from-env"
	cfg.Redis.Password = "redis-env"
	cfg.KeyVault.SecretNames = map[string]string{
		config.SecretDatabasePassword:     "db-password",
		config.SecretServiceBusConnection: "sb-conn",
		config.SecretMongoURI:             "missing-in-vault",
	}
	provider := Static{
		"db-password": "from-vault",
		"sb-conn":     "Endpoint=sb://ns.servicebus.windows.net/",
	}

	applied := Apply(context.Background(), cfg, provider, time.Second, nil)

	assert.Equal(t, 2, applied)
	assert.Equal(t, "from-vault", cfg.Database.Password)
	assert.Equal(t, "Endpoint=sb://ns.servicebus.windows.net/", cfg.ServiceBus.ConnectionString)
	assert.Equal(t, "redis-env", cfg.Redis.Password)
	assert.Empty(t, cfg.Mongo.URI)
}

func TestApplyWithoutProvider(t *testing.T) {
	assert.Equal(t, 0, Apply(context.Background(), &config.Config{}, nil, time.Second, nil))
}

func TestStaticMissing(t *testing.T) {
	_, err := Static{}.GetSecret(context.Background(), "x")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}
