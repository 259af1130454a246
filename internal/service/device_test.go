package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/knoweat/backend/internal/models"
	"github.com/pageza/knoweat/backend/internal/store"
	"github.com/pageza/knoweat/backend/internal/taxonomy"
	"github.com/pageza/knoweat/backend/internal/types"
)

const testSecret = "test-secret"

func TestDeviceService_Register(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewDeviceService(st, nil, testSecret, time.Hour, nil)
	ctx := context.Background()

	profile := models.NewUserProfile(" Italian ")
	profile.Restrictions[taxonomy.CategoryAllergen] = []string{"peanuts", "gluten", "peanuts"}

	device, token, err := svc.Register(ctx, "ios", profile)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, device.ID)
	assert.NotEmpty(t, token)

	stored, err := st.GetProfile(ctx, device.ID)
	require.NoError(t, err)
	assert.Equal(t, "Italian", stored.NativeLanguage)
	assert.Equal(t, []string{"gluten", "peanuts"}, stored.IDs(taxonomy.CategoryAllergen))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, device.ID, claims.DeviceID)
	assert.Equal(t, device.ID.String(), claims.Subject)
}

func TestDeviceService_RegisterRejectsBadProfile(t *testing.T) {
	svc := NewDeviceService(store.NewMemoryStore(), nil, testSecret, time.Hour, nil)

	profile := models.NewUserProfile("English")
	profile.Restrictions[taxonomy.CategoryDiet] = []string{"peanuts"}
	_, _, err := svc.Register(context.Background(), "android", profile)
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, _, err = svc.Register(context.Background(), "android", models.NewUserProfile(""))
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestDeviceService_ValidateToken(t *testing.T) {
	svc := NewDeviceService(store.NewMemoryStore(), nil, testSecret, time.Hour, nil)
	id := uuid.New()

	t.Run("valid", func(t *testing.T) {
		token, err := svc.GenerateToken(id)
		require.NoError(t, err)
		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, id, claims.DeviceID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewDeviceService(store.NewMemoryStore(), nil, "other-secret", time.Hour, nil)
		token, err := other.GenerateToken(id)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		claims := &types.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    tokenIssuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
			DeviceID: id,
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestDeviceService_Touch(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewDeviceService(st, nil, testSecret, time.Hour, nil)
	ctx := context.Background()

	device, _, err := svc.Register(ctx, "ios", models.NewUserProfile("English"))
	require.NoError(t, err)
	before := device.LastSeenAt

	time.Sleep(5 * time.Millisecond)
	svc.Touch(ctx, device.ID)
	svc.Touch(ctx, uuid.New())

	got, err := st.GetDevice(ctx, device.ID)
	require.NoError(t, err)
	assert.True(t, got.LastSeenAt.After(before))
}
