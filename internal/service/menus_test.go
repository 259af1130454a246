package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/knoweat/backend/internal/matcher"
	"github.com/pageza/knoweat/backend/internal/models"
	"github.com/pageza/knoweat/backend/internal/store"
	"github.com/pageza/knoweat/backend/internal/taxonomy"
)

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) AnalyzeMenu(ctx context.Context, images [][]byte, lang string) (*models.Menu, error) {
	args := m.Called(ctx, images, lang)
	if menu, ok := args.Get(0).(*models.Menu); ok {
		return menu, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAnalyzer) AnalyzeMenuText(ctx context.Context, text, lang string) (*models.Menu, error) {
	args := m.Called(ctx, text, lang)
	if menu, ok := args.Get(0).(*models.Menu); ok {
		return menu, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRetranslator struct {
	mock.Mock
}

func (m *mockRetranslator) Retranslate(ctx context.Context, dishes []models.Dish, lang string) ([]models.Dish, error) {
	args := m.Called(ctx, dishes, lang)
	if out, ok := args.Get(0).([]models.Dish); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) Archive(ctx context.Context, menuID uuid.UUID, photos [][]byte) ([]string, error) {
	args := m.Called(ctx, menuID, photos)
	keys, _ := args.Get(0).([]string)
	return keys, args.Error(1)
}

func (m *mockArchive) URL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockArchive) Delete(ctx context.Context, keys []string) error {
	return m.Called(ctx, keys).Error(0)
}

// failingMenuStore fails every menu write and read.
type failingMenuStore struct {
	store.MenuStore
}

func (failingMenuStore) CreateMenu(context.Context, *models.Menu) error {
	return errors.New("disk full")
}

func (failingMenuStore) UpdateMenu(context.Context, *models.Menu) error {
	return errors.New("disk full")
}

func (failingMenuStore) ListMenus(context.Context, uuid.UUID) ([]models.Menu, error) {
	return nil, errors.New("disk on fire")
}

func sampleMenu(restaurant string) *models.Menu {
	return models.NewMenu(restaurant, []models.Dish{
		models.NewDish("Pad Thai", "", "12", "Noodles", []string{"Rice noodles", "Peanuts", "Egg"}, []string{"peanuts", "eggs"}),
		models.NewDish("Green Curry", "", "14", "Curries", []string{"Coconut milk", "Chicken"}, []string{"vegetarian", "vegan"}),
		models.NewDish("Mango Sticky Rice", "", "7", "Desserts", []string{"Rice", "Mango"}, []string{}),
	}, "rice", "Thai")
}

type menuFixture struct {
	svc          *MenuService
	st           *store.MemoryStore
	analyzer     *mockAnalyzer
	retranslator *mockRetranslator
	archive      *mockArchive
	device       uuid.UUID
}

func newMenuFixture(t *testing.T, profile *models.UserProfile) *menuFixture {
	t.Helper()
	f := &menuFixture{
		st:           store.NewMemoryStore(),
		analyzer:     &mockAnalyzer{},
		retranslator: &mockRetranslator{},
		archive:      &mockArchive{},
	}
	f.device = newRegisteredDevice(t, f.st, profile)
	f.svc = NewMenuService(MenuServiceDeps{
		Menus:        f.st,
		Profiles:     f.st,
		Analyzer:     f.analyzer,
		Retranslator: f.retranslator,
		Archive:      f.archive,
	})
	return f
}

func peanutProfile(lang string) *models.UserProfile {
	p := models.NewUserProfile(lang)
	p.Restrictions[taxonomy.CategoryAllergen] = []string{"peanuts"}
	p.Restrictions[taxonomy.CategoryDiet] = []string{"vegan"}
	return p
}

func TestMenuService_AnalyzeUsesProfile(t *testing.T) {
	f := newMenuFixture(t, peanutProfile("German"))
	ctx := context.Background()
	photos := [][]byte{[]byte("photo")}
	menu := sampleMenu("Bangkok House")

	f.analyzer.On("AnalyzeMenu", mock.Anything, photos, "German").Return(menu, nil)
	f.archive.On("Archive", mock.Anything, menu.ID, photos).Return([]string{"menu-scans/x/01"}, nil)

	analysis, err := f.svc.Analyze(ctx, f.device, AnalyzeInput{Images: photos})
	require.NoError(t, err)

	assert.Equal(t, f.device, analysis.Menu.DeviceID)
	assert.Equal(t, []string{"menu-scans/x/01"}, []string(analysis.Menu.PhotoKeys))
	require.Len(t, analysis.Dishes, 3)
	assert.Equal(t, matcher.Dangerous, analysis.Dishes[0].Severity)
	assert.Equal(t, matcher.Advisory, analysis.Dishes[1].Severity)
	assert.Equal(t, matcher.Safe, analysis.Dishes[2].Severity)
	assert.Equal(t, 1, analysis.SafeCount)
	assert.Equal(t, 2, analysis.UnsafeCount)
	assert.False(t, analysis.NeedsName)

	history := f.svc.List(ctx, f.device)
	assert.Empty(t, history, "analysis alone does not save")
	f.analyzer.AssertExpectations(t)
	f.archive.AssertExpectations(t)
}

func TestMenuService_AnalyzeLanguageOverride(t *testing.T) {
	f := newMenuFixture(t, models.NewUserProfile("German"))
	menu := sampleMenu("Unknown")

	f.analyzer.On("AnalyzeMenuText", mock.Anything, "pad thai 12", "French").Return(menu, nil)

	analysis, err := f.svc.Analyze(context.Background(), f.device, AnalyzeInput{Text: "pad thai 12", Language: "French"})
	require.NoError(t, err)
	assert.True(t, analysis.NeedsName)
	assert.Equal(t, 3, analysis.SafeCount)
	f.archive.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything, mock.Anything)
}

func TestMenuService_AnalyzeWithoutProfile(t *testing.T) {
	f := newMenuFixture(t, models.NewUserProfile("German"))
	stranger := uuid.New()
	menu := sampleMenu("Bangkok House")

	f.analyzer.On("AnalyzeMenuText", mock.Anything, "menu", DefaultLanguage).Return(menu, nil)

	analysis, err := f.svc.Analyze(context.Background(), stranger, AnalyzeInput{Text: "menu"})
	require.NoError(t, err)
	assert.Equal(t, 3, analysis.SafeCount, "an empty profile flags nothing")
}

func TestMenuService_AnalyzeSkipsArchiveWhenHistoryOff(t *testing.T) {
	profile := models.NewUserProfile("English")
	profile.SaveHistory = false
	f := newMenuFixture(t, profile)
	photos := [][]byte{[]byte("photo")}

	f.analyzer.On("AnalyzeMenu", mock.Anything, photos, "English").Return(sampleMenu("Thai Palace"), nil)

	_, err := f.svc.Analyze(context.Background(), f.device, AnalyzeInput{Images: photos})
	require.NoError(t, err)
	f.archive.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything, mock.Anything)
}

func TestMenuService_AnalyzeRetries(t *testing.T) {
	f := newMenuFixture(t, models.NewUserProfile("English"))
	f.svc.retry = RetryPolicy{MaxAttempts: 2}

	f.analyzer.On("AnalyzeMenuText", mock.Anything, "menu", "English").Return(nil, ErrTimeout).Once()
	f.analyzer.On("AnalyzeMenuText", mock.Anything, "menu", "English").Return(sampleMenu("Thai Palace"), nil).Once()

	analysis, err := f.svc.Analyze(context.Background(), f.device, AnalyzeInput{Text: "menu"})
	require.NoError(t, err)
	assert.Equal(t, "Thai Palace", analysis.Menu.Restaurant)
	f.analyzer.AssertNumberOfCalls(t, "AnalyzeMenuText", 2)
}

func TestMenuService_AnalyzeFailure(t *testing.T) {
	f := newMenuFixture(t, models.NewUserProfile("English"))
	f.analyzer.On("AnalyzeMenuText", mock.Anything, "menu", "English").Return(nil, ErrUnreadableMenu)

	_, err := f.svc.Analyze(context.Background(), f.device, AnalyzeInput{Text: "menu"})
	assert.ErrorIs(t, err, ErrUnreadableMenu)
	f.analyzer.AssertNumberOfCalls(t, "AnalyzeMenuText", 1)
}

func TestMenuService_SaveAndHistory(t *testing.T) {
	f := newMenuFixture(t, peanutProfile("English"))
	ctx := context.Background()

	_, err := f.svc.Save(ctx, f.device, sampleMenu("Unknown"), "")
	assert.ErrorIs(t, err, ErrRestaurantNameRequired)

	_, err = f.svc.Save(ctx, f.device, sampleMenu("Unknown"), "A name that is far too long to fit")
	assert.ErrorIs(t, err, ErrRestaurantNameTooLong)

	first, err := f.svc.Save(ctx, f.device, sampleMenu("Unknown"), "Thai Palace")
	require.NoError(t, err)
	require.NotNil(t, first.Persisted)
	assert.True(t, *first.Persisted)
	assert.Equal(t, "Thai Palace", first.Menu.Restaurant)

	second, err := f.svc.Save(ctx, f.device, sampleMenu("Bangkok House"), "")
	require.NoError(t, err)

	history := f.svc.List(ctx, f.device)
	require.Len(t, history, 2)
	assert.Equal(t, second.Menu.ID, history[0].ID, "newest first")
	assert.Equal(t, first.Menu.ID, history[1].ID)
	assert.Equal(t, 3, history[0].DishCount)
	assert.Equal(t, 2, history[0].UnsafeCount)
	assert.Equal(t, "rice", history[0].CategoryIcon)

	got, err := f.svc.Get(ctx, f.device, first.Menu.ID)
	require.NoError(t, err)
	assert.Equal(t, "Thai Palace", got.Menu.Restaurant)

	_, err = f.svc.Get(ctx, uuid.New(), first.Menu.ID)
	assert.ErrorIs(t, err, store.ErrNotFound, "menus are scoped to their device")
}

func TestMenuService_SaveSurvivesStoreFailure(t *testing.T) {
	f := newMenuFixture(t, models.NewUserProfile("English"))
	f.svc.menus = failingMenuStore{}

	analysis, err := f.svc.Save(context.Background(), f.device, sampleMenu("Thai Palace"), "")
	require.NoError(t, err)
	require.NotNil(t, analysis.Persisted)
	assert.False(t, *analysis.Persisted)

	history := f.svc.List(context.Background(), f.device)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestMenuService_RenameAndRetranslate(t *testing.T) {
	f := newMenuFixture(t, peanutProfile("English"))
	ctx := context.Background()

	saved, err := f.svc.Save(ctx, f.device, sampleMenu("Thai Palace"), "")
	require.NoError(t, err)
	id := saved.Menu.ID

	renamed, err := f.svc.Rename(ctx, f.device, id, "  Siam  ")
	require.NoError(t, err)
	assert.Equal(t, "Siam", renamed.Menu.Restaurant)

	_, err = f.svc.Rename(ctx, f.device, id, " ")
	assert.ErrorIs(t, err, ErrRestaurantNameRequired)
	_, err = f.svc.Rename(ctx, f.device, uuid.New(), "Other")
	assert.ErrorIs(t, err, store.ErrNotFound)

	translated := []models.Dish{
		models.NewDish("Pad Thaï", "", "12", "Nouilles", []string{"Nouilles de riz", "Cacahuètes"}, []string{"peanuts"}),
		models.NewDish("Curry vert", "", "14", "Currys", []string{"Lait de coco"}, []string{"vegan"}),
		models.NewDish("Riz gluant", "", "7", "Desserts", []string{"Riz"}, []string{}),
	}
	f.retranslator.On("Retranslate", mock.Anything, mock.Anything, "French").Return(translated, nil)

	out, err := f.svc.Retranslate(ctx, f.device, id, "French")
	require.NoError(t, err)
	assert.Equal(t, "French", out.Menu.MenuLanguage)
	assert.Equal(t, "Pad Thaï", out.Menu.Dishes[0].Name)
	assert.Equal(t, matcher.Dangerous, out.Dishes[0].Severity)

	stored, err := f.svc.Get(ctx, f.device, id)
	require.NoError(t, err)
	assert.Equal(t, "Curry vert", stored.Menu.Dishes[1].Name)
	assert.Equal(t, "Siam", stored.Menu.Restaurant)
}

func TestMenuService_RetranslateFailureKeepsMenu(t *testing.T) {
	f := newMenuFixture(t, models.NewUserProfile("English"))
	ctx := context.Background()

	saved, err := f.svc.Save(ctx, f.device, sampleMenu("Thai Palace"), "")
	require.NoError(t, err)

	f.retranslator.On("Retranslate", mock.Anything, mock.Anything, "Japanese").Return(nil, ErrInvalidResponse)

	_, err = f.svc.Retranslate(ctx, f.device, saved.Menu.ID, "Japanese")
	assert.ErrorIs(t, err, ErrInvalidResponse)

	stored, err := f.svc.Get(ctx, f.device, saved.Menu.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pad Thai", stored.Menu.Dishes[0].Name)
	assert.Equal(t, "Thai", stored.Menu.MenuLanguage)
}

func TestMenuService_DeleteRemovesPhotos(t *testing.T) {
	f := newMenuFixture(t, models.NewUserProfile("English"))
	ctx := context.Background()

	photos := [][]byte{[]byte("front"), []byte("back")}
	scanned := sampleMenu("Thai Palace")
	f.analyzer.On("AnalyzeMenu", mock.Anything, photos, "English").Return(scanned, nil)
	f.archive.On("Archive", mock.Anything, scanned.ID, photos).Return([]string{"k1", "k2"}, nil)
	analysis, err := f.svc.Analyze(ctx, f.device, AnalyzeInput{Images: photos})
	require.NoError(t, err)

	a, err := f.svc.Save(ctx, f.device, analysis.Menu, "")
	require.NoError(t, err)
	_, err = f.svc.Save(ctx, f.device, sampleMenu("Siam"), "")
	require.NoError(t, err)

	f.archive.On("URL", mock.Anything, "k1").Return("https://example.test/k1", nil)
	f.archive.On("URL", mock.Anything, "k2").Return("", errors.New("presign failed"))
	got, err := f.svc.Get(ctx, f.device, a.Menu.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.test/k1"}, got.PhotoURLs)

	f.archive.On("Delete", mock.Anything, []string{"k1", "k2"}).Return(nil).Once()
	require.NoError(t, f.svc.Delete(ctx, f.device, a.Menu.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, f.device, a.Menu.ID), store.ErrNotFound)

	n, err := f.svc.DeleteAll(ctx, f.device)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, f.svc.List(ctx, f.device))

	f.archive.AssertExpectations(t)
}

func TestMenuService_SaveIgnoresClientIdentity(t *testing.T) {
	f := newMenuFixture(t, peanutProfile("English"))
	ctx := context.Background()
	other := newRegisteredDevice(t, f.st, models.NewUserProfile("English"))

	original, err := f.svc.Save(ctx, f.device, sampleMenu("Thai Palace"), "")
	require.NoError(t, err)
	victimID := original.Menu.ID
	scannedAt := original.Menu.ScannedAt

	tests := []struct {
		name   string
		device uuid.UUID
	}{
		{"another device reuses the id", other},
		{"same device resubmits the id", f.device},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forged := sampleMenu("Hijacked")
			forged.ID = victimID
			forged.ScannedAt = scannedAt.Add(-48 * time.Hour)

			out, err := f.svc.Save(ctx, tt.device, forged, "")
			require.NoError(t, err)
			require.True(t, *out.Persisted)
			assert.NotEqual(t, victimID, out.Menu.ID)
			assert.True(t, out.Menu.ScannedAt.After(forged.ScannedAt), "scan time is set on save")
		})
	}

	kept, err := f.svc.Get(ctx, f.device, victimID)
	require.NoError(t, err)
	assert.Equal(t, "Thai Palace", kept.Menu.Restaurant)
	assert.Len(t, f.svc.List(ctx, other), 1)

	_, err = f.svc.Rename(ctx, other, victimID, "Mine now")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMenuService_SavePhotoOwnership(t *testing.T) {
	f := newMenuFixture(t, models.NewUserProfile("English"))
	ctx := context.Background()
	other := newRegisteredDevice(t, f.st, models.NewUserProfile("English"))

	t.Run("client supplied keys are dropped", func(t *testing.T) {
		forged := sampleMenu("Thai Palace")
		forged.PhotoKeys = models.JSONBStringArray{"menu-scans/someone-else/01"}

		out, err := f.svc.Save(ctx, other, forged, "")
		require.NoError(t, err)
		assert.Empty(t, out.Menu.PhotoKeys)

		got, err := f.svc.Get(ctx, other, out.Menu.ID)
		require.NoError(t, err)
		assert.Empty(t, got.PhotoURLs)

		require.NoError(t, f.svc.Delete(ctx, other, out.Menu.ID))
		f.archive.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("archived keys go to the analyzing device once", func(t *testing.T) {
		photos := [][]byte{[]byte("photo")}
		scanned := sampleMenu("Siam")
		f.analyzer.On("AnalyzeMenu", mock.Anything, photos, "English").Return(scanned, nil).Once()
		f.archive.On("Archive", mock.Anything, scanned.ID, photos).Return([]string{"menu-scans/siam/01"}, nil).Once()

		analysis, err := f.svc.Analyze(ctx, f.device, AnalyzeInput{Images: photos})
		require.NoError(t, err)
		analysisID := analysis.Menu.ID

		stolen := sampleMenu("Siam")
		stolen.ID = analysisID
		out, err := f.svc.Save(ctx, other, stolen, "")
		require.NoError(t, err)
		assert.Empty(t, out.Menu.PhotoKeys, "another device cannot claim the photos")

		resubmitted := sampleMenu("Siam")
		resubmitted.ID = analysisID
		out, err = f.svc.Save(ctx, f.device, resubmitted, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"menu-scans/siam/01"}, []string(out.Menu.PhotoKeys))

		again := sampleMenu("Siam")
		again.ID = analysisID
		out, err = f.svc.Save(ctx, f.device, again, "")
		require.NoError(t, err)
		assert.Empty(t, out.Menu.PhotoKeys, "photos are claimed once")
	})
}

func TestPendingPhotos(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := newPendingPhotos(time.Hour)
	p.now = func() time.Time { return now }

	first, second := uuid.New(), uuid.New()
	assert.Empty(t, p.remember(alice, first, []string{"a/01"}))
	assert.Nil(t, p.claim(bob, first))
	assert.Equal(t, []string{"a/01"}, p.claim(alice, first))
	assert.Nil(t, p.claim(alice, first))

	p.remember(alice, second, []string{"a/02"})
	now = now.Add(2 * time.Hour)
	assert.Nil(t, p.claim(alice, second), "expired entries cannot be claimed")
	assert.Equal(t, []string{"a/02"}, p.remember(bob, uuid.New(), nil), "expired keys are handed back for deletion")
}
