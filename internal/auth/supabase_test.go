package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// fakeDeviceStore 设备 Key 哈希的内存实现
type fakeDeviceStore struct {
	byHash map[string]*models.DeviceIdentity
}

func (f *fakeDeviceStore) GetByAPIKeyHash(_ context.Context, keyHash string) (*models.DeviceIdentity, error) {
	if identity, ok := f.byHash[keyHash]; ok {
		return identity, nil
	}
	return nil, fmt.Errorf("device not found")
}

func TestVerifyUserToken_Success(t *testing.T) {
	var gotAuth, gotAPIKey string
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/user", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotAPIKey = r.Header.Get("apikey")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "user-1", "email": "a@b.c"})
	}))
	defer endpoint.Close()

	v := NewSupabaseVerifier(endpoint.URL, "anon-key", &fakeDeviceStore{}, zap.NewNop())

	identity, err := v.VerifyUserToken(context.Background(), "tok-123")

	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "a@b.c", identity.Email)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "anon-key", gotAPIKey)
}

func TestVerifyUserToken_Rejected(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer endpoint.Close()

	v := NewSupabaseVerifier(endpoint.URL, "anon-key", &fakeDeviceStore{}, zap.NewNop())

	identity, err := v.VerifyUserToken(context.Background(), "bad-token")

	assert.Error(t, err)
	assert.Nil(t, identity)
}

func TestVerifyUserToken_EmptyToken(t *testing.T) {
	v := NewSupabaseVerifier("http://localhost:0", "anon-key", &fakeDeviceStore{}, zap.NewNop())

	_, err := v.VerifyUserToken(context.Background(), "")

	assert.Error(t, err)
}

func TestVerifyDeviceKey_Success(t *testing.T) {
	store := &fakeDeviceStore{
		byHash: map[string]*models.DeviceIdentity{
			HashAPIKey("secret-key"): {DeviceID: "dev-1", PlantID: "plant-7"},
		},
	}
	v := NewSupabaseVerifier("http://localhost:0", "anon-key", store, zap.NewNop())

	identity, err := v.VerifyDeviceKey(context.Background(), "secret-key")

	require.NoError(t, err)
	assert.Equal(t, "dev-1", identity.DeviceID)
	assert.Equal(t, "plant-7", identity.PlantID)
}

func TestVerifyDeviceKey_UnknownKey(t *testing.T) {
	v := NewSupabaseVerifier("http://localhost:0", "anon-key", &fakeDeviceStore{}, zap.NewNop())

	identity, err := v.VerifyDeviceKey(context.Background(), "wrong-key")

	assert.Error(t, err)
	assert.Nil(t, identity)
}

func TestHashAPIKey_Deterministic(t *testing.T) {
	assert.Equal(t, HashAPIKey("key"), HashAPIKey("key"))
	assert.NotEqual(t, HashAPIKey("key"), HashAPIKey("other"))
	assert.Len(t, HashAPIKey("key"), 64)
}
