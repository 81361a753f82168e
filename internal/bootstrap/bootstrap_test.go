package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-storefront-service/config"
	"github.com/fekuna/omnipos-storefront-service/internal/payment"
	"github.com/fekuna/omnipos-storefront-service/pkg/blob"
)

func TestBlobDriver(t *testing.T) {
	store, err := Blob(config.BlobConfig{Driver: "local", LocalDir: t.TempDir(), PublicURL: "http://x/uploads"})
	require.NoError(t, err)
	assert.IsType(t, &blob.LocalStore{}, store)

	store, err = Blob(config.BlobConfig{Driver: "sftp", SFTPAddr: "files:22"})
	require.NoError(t, err)
	assert.IsType(t, &blob.SFTPStore{}, store)

	_, err = Blob(config.BlobConfig{Driver: "s3"})
	assert.Error(t, err)
}

func TestAuthorizerProvider(t *testing.T) {
	a, err := Authorizer(config.PaymentConfig{Provider: "sandbox"})
	require.NoError(t, err)
	assert.IsType(t, &payment.SandboxAuthorizer{}, a)

	_, err = Authorizer(config.PaymentConfig{Provider: "gateway"})
	assert.Error(t, err)

	a, err = Authorizer(config.PaymentConfig{Provider: "gateway", GatewayURL: "https://pay.test", GatewaySecretKey: "sk"})
	require.NoError(t, err)
	assert.Equal(t, "gateway", a.Name())

	_, err = Authorizer(config.PaymentConfig{Provider: "cash"})
	assert.Error(t, err)
}
