package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/knoweat/backend/internal/models"
	"github.com/pageza/knoweat/backend/internal/store"
	"github.com/pageza/knoweat/backend/internal/taxonomy"
)

func newRegisteredDevice(t *testing.T, st *store.MemoryStore, profile *models.UserProfile) uuid.UUID {
	t.Helper()
	device := &models.Device{ID: uuid.New(), Platform: "test"}
	require.NoError(t, st.CreateDevice(context.Background(), device, profile))
	return device.ID
}

func TestProfileService_UpdateProfile(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewProfileService(st, nil, nil)
	ctx := context.Background()
	id := newRegisteredDevice(t, st, models.NewUserProfile("English"))

	update := models.NewUserProfile("Spanish")
	update.SaveHistory = false
	update.Restrictions[taxonomy.CategoryIntolerance] = []string{"lactose"}
	update.Restrictions[taxonomy.CategorySituation] = []string{"pregnant"}

	saved, err := svc.UpdateProfile(ctx, id, update)
	require.NoError(t, err)
	assert.Equal(t, id, saved.DeviceID)

	got, err := svc.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Spanish", got.NativeLanguage)
	assert.False(t, got.SaveHistory)
	assert.Equal(t, []string{"lactose", "pregnant"}, got.ActiveRestrictions())

	bad := models.NewUserProfile("Spanish")
	bad.Restrictions[taxonomy.CategoryAllergen] = []string{"vegan"}
	_, err = svc.UpdateProfile(ctx, id, bad)
	assert.ErrorIs(t, err, ErrInvalidProfile)

	got, err = svc.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"lactose", "pregnant"}, got.ActiveRestrictions(), "a rejected update leaves the profile alone")
}

func TestProfileService_ToggleRestriction(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewProfileService(st, nil, nil)
	ctx := context.Background()
	id := newRegisteredDevice(t, st, models.NewUserProfile("English"))

	selected, profile, err := svc.ToggleRestriction(ctx, id, "allergens", "sesame")
	require.NoError(t, err)
	assert.True(t, selected)
	assert.True(t, profile.IsSelected(taxonomy.CategoryAllergen, "sesame"))

	selected, profile, err = svc.ToggleRestriction(ctx, id, "allergen", "sesame")
	require.NoError(t, err)
	assert.False(t, selected)
	assert.Zero(t, profile.RestrictionCount())

	_, _, err = svc.ToggleRestriction(ctx, id, "moods", "happy")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, _, err = svc.ToggleRestriction(ctx, id, "diet", "sesame")
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, _, err = svc.ToggleRestriction(ctx, uuid.New(), "diet", "vegan")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
