package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFetcher struct {
	values map[string]string
	calls  int
}

func (f *fakeFetcher) GetSecret(_ context.Context, name string, _ string, _ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	f.calls++
	value, ok := f.values[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, errors.New("SecretNotFound")
	}
	resp := azsecrets.GetSecretResponse{}
	resp.Value = &value
	return resp, nil
}

func TestResolveSource(t *testing.T) {
	tests := []struct {
		source SecretSource
		env    string
		want   SecretSource
	}{
		{SourceAuto, "development", SourceEnvironment},
		{SourceAuto, "", SourceEnvironment},
		{SourceAuto, "production", SourceVault},
		{SourceAuto, "staging", SourceVault},
		{SourceEnvironment, "production", SourceEnvironment},
		{SourceVault, "development", SourceVault},
	}

	for _, tt := range tests {
		t.Run(string(tt.source)+"/"+tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveSource(tt.source, tt.env))
		})
	}
}

func TestProvider_Environment(t *testing.T) {
	t.Setenv("ZOHO_CLIENT_ID", "client-from-env")

	p, err := NewProvider(&ProviderConfig{Source: SourceAuto, Environment: "development"}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsVaultEnabled())

	value, err := p.GetSecret(context.Background(), "ZOHO_CLIENT_ID")
	require.NoError(t, err)
	assert.Equal(t, "client-from-env", value)

	_, err = p.GetSecret(context.Background(), "ZOHO_MISSING")
	assert.Error(t, err)
}

func TestProvider_VaultRequiresName(t *testing.T) {
	_, err := NewProvider(&ProviderConfig{Source: SourceVault}, zap.NewNop())
	assert.Error(t, err)
}

func TestProvider_EnvOverridesVault(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "override")
	fetcher := &fakeFetcher{values: map[string]string{"admin-api-key": "from-vault"}}
	p := &Provider{
		source:      SourceVault,
		vaultClient: newVaultClient(fetcher, &VaultConfig{VaultName: "kv"}, zap.NewNop()),
		logger:      zap.NewNop(),
	}

	value, err := p.GetSecretOrEnv(context.Background(), "admin-api-key", "ADMIN_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "override", value)
	assert.Equal(t, 0, fetcher.calls)
}

func TestVaultClient_Cache(t *testing.T) {
	fetcher := &fakeFetcher{values: map[string]string{"zoho-refresh-token": "token"}}
	client := newVaultClient(fetcher, &VaultConfig{VaultName: "kv", CacheEnabled: true, CacheTTL: time.Minute}, zap.NewNop())
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		value, err := client.GetSecret(context.Background(), "zoho-refresh-token")
		require.NoError(t, err)
		assert.Equal(t, "token", value)
	}
	assert.Equal(t, 1, fetcher.calls)

	now = now.Add(2 * time.Minute)
	_, err := client.GetSecret(context.Background(), "zoho-refresh-token")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)

	client.ClearCache()
	_, err = client.GetSecret(context.Background(), "zoho-refresh-token")
	require.NoError(t, err)
	assert.Equal(t, 3, fetcher.calls)
}

func TestVaultClient_Missing(t *testing.T) {
	client := newVaultClient(&fakeFetcher{}, &VaultConfig{VaultName: "kv"}, zap.NewNop())

	_, err := client.GetSecret(context.Background(), "jwt-secret")
	assert.Error(t, err)
}
