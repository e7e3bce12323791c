package sdk_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pachada/ReactBase/pkg/sdk"
)

func newTestStore(t *testing.T) (*sdk.CredentialStore, *sdk.MemoryKV, *sdk.MemoryKV) {
	t.Helper()
	durable, ephemeral := sdk.NewMemoryKV(), sdk.NewMemoryKV()
	store, err := sdk.NewCredentialStore(durable, ephemeral)
	require.NoError(t, err)
	return store, durable, ephemeral
}

func sampleRecord() sdk.SessionRecord {
	return sdk.SessionRecord{
		User: &sdk.User{
			ID:       "7",
			Username: "alex",
			Name:     "Alex Doe",
			Email:    "alex@example.com",
			RoleID:   "3",
			RoleName: "admin",
		},
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Status:       sdk.StatusAuthenticated,
	}
}

func keyExists(t *testing.T, kv sdk.KV, key string) bool {
	t.Helper()
	_, ok, err := kv.Get(context.Background(), key)
	require.NoError(t, err)
	return ok
}

func TestCredentialStoreRoundTrip(t *testing.T) {
	for _, remember := range []bool{true, false} {
		store, _, _ := newTestStore(t)
		ctx := context.Background()

		require.NoError(t, store.Save(ctx, sampleRecord(), remember))
		assert.Equal(t, remember, store.RememberMe(ctx))

		loaded := store.Load(ctx)
		require.True(t, loaded.IsAuthenticated())
		assert.Equal(t, sampleRecord(), loaded)
	}
}

func TestCredentialStoreTierExclusivity(t *testing.T) {
	store, durable, ephemeral := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecord(), true))
	assert.True(t, keyExists(t, durable, sdk.SessionKey))
	assert.False(t, keyExists(t, ephemeral, sdk.SessionKey))

	require.NoError(t, store.Save(ctx, sampleRecord(), false))
	assert.False(t, keyExists(t, durable, sdk.SessionKey))
	assert.True(t, keyExists(t, ephemeral, sdk.SessionKey))

	pref, ok, err := durable.Get(ctx, sdk.RememberMeKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "false", pref)
}

func TestCredentialStoreAnonymousClearsBothTiers(t *testing.T) {
	store, durable, ephemeral := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecord(), true))
	require.NoError(t, ephemeral.Set(ctx, sdk.SessionKey, "stale"))

	require.NoError(t, store.Save(ctx, sdk.AnonymousRecord(), false))
	assert.False(t, keyExists(t, durable, sdk.SessionKey))
	assert.False(t, keyExists(t, ephemeral, sdk.SessionKey))
	assert.False(t, keyExists(t, durable, sdk.RememberMeKey))
	assert.Equal(t, sdk.StatusAnonymous, store.Load(ctx).Status)
}

func TestCredentialStoreRejectsIncompleteAuthenticatedRecord(t *testing.T) {
	store, _, _ := newTestStore(t)
	record := sampleRecord()
	record.AccessToken = ""

	err := store.Save(context.Background(), record, true)
	assert.Error(t, err)
}

func TestCredentialStoreFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "{definitely not json"},
		{name: "missing token", raw: `{"status":"authenticated","user":{"id":1,"username":"a","email":"a@x"}}`},
		{name: "empty token", raw: `{"status":"authenticated","accessToken":"","user":{"id":1,"username":"a","email":"a@x"}}`},
		{name: "anonymous status", raw: `{"status":"anonymous","accessToken":"t","user":{"id":1,"username":"a","email":"a@x"}}`},
		{name: "missing user", raw: `{"status":"authenticated","accessToken":"t"}`},
		{name: "user without email", raw: `{"status":"authenticated","accessToken":"t","user":{"id":1,"username":"a"}}`},
		{name: "user id object", raw: `{"status":"authenticated","accessToken":"t","user":{"id":{},"username":"a","email":"a@x"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, durable, _ := newTestStore(t)
			ctx := context.Background()
			require.NoError(t, durable.Set(ctx, sdk.RememberMeKey, "true"))
			require.NoError(t, durable.Set(ctx, sdk.SessionKey, tt.raw))

			loaded := store.Load(ctx)
			assert.Equal(t, sdk.AnonymousRecord(), loaded)
			assert.False(t, keyExists(t, durable, sdk.SessionKey), "untrusted record must be deleted")
		})
	}
}

func TestCredentialStoreAcceptsNumericUserID(t *testing.T) {
	store, durable, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, durable.Set(ctx, sdk.RememberMeKey, "true"))
	require.NoError(t, durable.Set(ctx, sdk.SessionKey,
		`{"status":"authenticated","accessToken":"t","user":{"id":12,"username":"a","email":"a@x","roleName":"user"}}`))

	loaded := store.Load(ctx)
	require.True(t, loaded.IsAuthenticated())
	assert.Equal(t, sdk.EntityID("12"), loaded.User.ID)
	assert.Equal(t, "user", loaded.User.RoleName)
}

func TestCredentialStoreReadsSelectedTierOnly(t *testing.T) {
	store, durable, ephemeral := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecord(), false))
	// A durable copy is ignored while the preference points at the ephemeral tier.
	other := sampleRecord()
	other.AccessToken = "other"
	require.NoError(t, store.Save(ctx, other, true))
	require.NoError(t, durable.Set(ctx, sdk.RememberMeKey, "false"))

	assert.Equal(t, sdk.AnonymousRecord(), store.Load(ctx))
	assert.False(t, keyExists(t, ephemeral, sdk.SessionKey))
}

func TestCredentialStoreDeviceID(t *testing.T) {
	store, durable, _ := newTestStore(t)
	ctx := context.Background()

	first, err := store.DeviceID(ctx)
	require.NoError(t, err)
	_, err = uuid.Parse(first)
	require.NoError(t, err)

	second, err := store.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, durable.Set(ctx, sdk.DeviceKey, "garbage"))
	third, err := store.DeviceID(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "garbage", third)
}

func TestNewCredentialStoreRequiresTiers(t *testing.T) {
	_, err := sdk.NewCredentialStore(nil, sdk.NewMemoryKV())
	assert.Error(t, err)
}
