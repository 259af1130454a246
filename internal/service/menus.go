package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/knoweat/backend/internal/matcher"
	"github.com/pageza/knoweat/backend/internal/metrics"
	"github.com/pageza/knoweat/backend/internal/models"
	"github.com/pageza/knoweat/backend/internal/store"
	"github.com/pageza/knoweat/backend/internal/types"
)

var (
	ErrRestaurantNameRequired = errors.New("the restaurant name is unknown, please provide one")
	ErrRestaurantNameTooLong  = fmt.Errorf("restaurant name must be at most %d characters", models.MaxRestaurantNameLength)
)

// MenuService runs analyses for a device and manages its menu history.
type MenuService struct {
	menus        store.MenuStore
	profiles     store.ProfileStore
	analyzer     IMenuAnalyzer
	retranslator IRetranslator
	matcher      *matcher.Matcher
	archive      PhotoArchive
	pending      *pendingPhotos
	retry        RetryPolicy
	logger       *zap.Logger
}

// Ensure MenuService implements IMenuService
var _ IMenuService = (*MenuService)(nil)

// MenuServiceDeps groups the collaborators of a MenuService. Archive may be nil.
type MenuServiceDeps struct {
	Menus        store.MenuStore
	Profiles     store.ProfileStore
	Analyzer     IMenuAnalyzer
	Retranslator IRetranslator
	Matcher      *matcher.Matcher
	Archive      PhotoArchive
	Retry        RetryPolicy
	Logger       *zap.Logger
}

// NewMenuService creates a new MenuService instance
func NewMenuService(deps MenuServiceDeps) *MenuService {
	if deps.Matcher == nil {
		deps.Matcher = matcher.New(nil)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Retry.Logger == nil {
		deps.Retry.Logger = deps.Logger
	}
	return &MenuService{
		menus:        deps.Menus,
		profiles:     deps.Profiles,
		analyzer:     deps.Analyzer,
		retranslator: deps.Retranslator,
		matcher:      deps.Matcher,
		archive:      deps.Archive,
		pending:      newPendingPhotos(PendingPhotoTTL),
		retry:        deps.Retry,
		logger:       deps.Logger,
	}
}

// AnalyzeInput is one analysis request. Exactly one of Images or Text is used; Images win.
type AnalyzeInput struct {
	Images   [][]byte
	Text     string
	Language string
}

// Analyze reads a menu and grades it against the device's profile. The menu is not saved.
func (s *MenuService) Analyze(ctx context.Context, deviceID uuid.UUID, in AnalyzeInput) (*types.MenuAnalysis, error) {
	profile := s.loadProfile(ctx, deviceID)

	language := strings.TrimSpace(in.Language)
	if language == "" {
		language = profile.NativeLanguage
	}

	var menu *models.Menu
	err := s.retry.Do(ctx, "analyze", func(ctx context.Context) error {
		var err error
		if len(in.Images) > 0 {
			menu, err = s.analyzer.AnalyzeMenu(ctx, in.Images, language)
		} else {
			menu, err = s.analyzer.AnalyzeMenuText(ctx, in.Text, language)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	menu.DeviceID = deviceID

	if s.archive != nil && profile.SaveHistory && len(in.Images) > 0 {
		keys, err := s.archive.Archive(ctx, menu.ID, in.Images)
		if err != nil {
			s.logger.Warn("failed to archive menu photos", zap.String("menu_id", menu.ID.String()), zap.Error(err))
		}
		menu.PhotoKeys = keys
		s.deletePhotos(ctx, s.pending.remember(deviceID, menu.ID, keys))
	}

	analysis := s.analyze(menu, profile)
	for _, d := range analysis.Dishes {
		metrics.DishVerdicts.WithLabelValues(d.Severity.String()).Inc()
	}
	return analysis, nil
}

// Save adds an analyzed menu to the history under a new id. A menu without a readable
// restaurant name needs one from the caller. Photos are attached only when this device
// analyzed the menu here; the id the client sends is used for nothing else.
func (s *MenuService) Save(ctx context.Context, deviceID uuid.UUID, menu *models.Menu, restaurant string) (*types.MenuAnalysis, error) {
	if name := strings.TrimSpace(restaurant); name != "" {
		if err := validateRestaurantName(name); err != nil {
			return nil, err
		}
		menu.Rename(name)
	} else if menu.IsUnnamed() {
		return nil, ErrRestaurantNameRequired
	}

	menu.PhotoKeys = nil
	if menu.ID != uuid.Nil {
		menu.PhotoKeys = s.pending.claim(deviceID, menu.ID)
	}
	menu.ID = uuid.New()
	menu.DeviceID = deviceID
	menu.ScannedAt = time.Now().UTC()
	if menu.Dishes == nil {
		menu.Dishes = models.Dishes{}
	}

	persisted := s.persist(ctx, menu, s.menus.CreateMenu)
	if !persisted {
		s.deletePhotos(ctx, menu.PhotoKeys)
	}
	analysis := s.analyze(menu, s.loadProfile(ctx, deviceID))
	analysis.Persisted = &persisted
	return analysis, nil
}

// List returns the history newest first. A store failure yields an empty history.
func (s *MenuService) List(ctx context.Context, deviceID uuid.UUID) []types.MenuSummary {
	menus, err := s.menus.ListMenus(ctx, deviceID)
	if err != nil {
		s.logger.Warn("failed to read menu history", zap.String("device_id", deviceID.String()), zap.Error(err))
		return []types.MenuSummary{}
	}

	active := s.loadProfile(ctx, deviceID).ActiveRestrictions()
	out := make([]types.MenuSummary, 0, len(menus))
	for i := range menus {
		m := &menus[i]
		out = append(out, types.MenuSummary{
			ID:           m.ID,
			Restaurant:   m.Restaurant,
			ScannedAt:    m.ScannedAt,
			CategoryIcon: m.CategoryIcon,
			MenuLanguage: m.MenuLanguage,
			DishCount:    len(m.Dishes),
			UnsafeCount:  matcher.UnsafeCount(s.matcher.Analyze(m, active)),
		})
	}
	return out
}

// Get returns one saved menu graded against the current profile
func (s *MenuService) Get(ctx context.Context, deviceID, menuID uuid.UUID) (*types.MenuAnalysis, error) {
	menu, err := s.menus.GetMenu(ctx, deviceID, menuID)
	if err != nil {
		return nil, err
	}
	analysis := s.analyze(menu, s.loadProfile(ctx, deviceID))
	analysis.PhotoURLs = s.photoURLs(ctx, menu)
	return analysis, nil
}

// Rename changes the restaurant name of a saved menu
func (s *MenuService) Rename(ctx context.Context, deviceID, menuID uuid.UUID, name string) (*types.MenuAnalysis, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrRestaurantNameRequired
	}
	if err := validateRestaurantName(name); err != nil {
		return nil, err
	}

	menu, err := s.menus.GetMenu(ctx, deviceID, menuID)
	if err != nil {
		return nil, err
	}
	menu.Rename(name)

	persisted := s.persist(ctx, menu, s.menus.UpdateMenu)
	analysis := s.analyze(menu, s.loadProfile(ctx, deviceID))
	analysis.Persisted = &persisted
	return analysis, nil
}

// Retranslate replaces the dishes of a saved menu with a translation and re-grades them
func (s *MenuService) Retranslate(ctx context.Context, deviceID, menuID uuid.UUID, targetLanguage string) (*types.MenuAnalysis, error) {
	targetLanguage = strings.TrimSpace(targetLanguage)
	menu, err := s.menus.GetMenu(ctx, deviceID, menuID)
	if err != nil {
		return nil, err
	}

	var dishes []models.Dish
	err = s.retry.Do(ctx, "retranslate", func(ctx context.Context) error {
		var err error
		dishes, err = s.retranslator.Retranslate(ctx, menu.Dishes, targetLanguage)
		return err
	})
	if err != nil {
		return nil, err
	}
	menu.ReplaceDishes(dishes, targetLanguage)

	persisted := s.persist(ctx, menu, s.menus.UpdateMenu)
	analysis := s.analyze(menu, s.loadProfile(ctx, deviceID))
	analysis.Persisted = &persisted
	return analysis, nil
}

// Delete removes one menu and its archived photos
func (s *MenuService) Delete(ctx context.Context, deviceID, menuID uuid.UUID) error {
	menu, err := s.menus.GetMenu(ctx, deviceID, menuID)
	if err != nil {
		return err
	}
	if err := s.menus.DeleteMenu(ctx, deviceID, menuID); err != nil {
		return err
	}
	s.deletePhotos(ctx, menu.PhotoKeys)
	return nil
}

// DeleteAll clears the history and returns how many menus were removed
func (s *MenuService) DeleteAll(ctx context.Context, deviceID uuid.UUID) (int, error) {
	removed, err := s.menus.DeleteAllMenus(ctx, deviceID)
	if err != nil {
		return 0, err
	}
	var keys []string
	for _, m := range removed {
		keys = append(keys, m.PhotoKeys...)
	}
	s.deletePhotos(ctx, keys)
	return len(removed), nil
}

func (s *MenuService) analyze(menu *models.Menu, profile *models.UserProfile) *types.MenuAnalysis {
	dishes := s.matcher.AnalyzeProfile(menu, profile)
	return &types.MenuAnalysis{
		Menu:        menu,
		Dishes:      dishes,
		SafeCount:   matcher.SafeCount(dishes),
		UnsafeCount: matcher.UnsafeCount(dishes),
		NeedsName:   menu.IsUnnamed(),
	}
}

// loadProfile never fails: a missing or unreadable profile is treated as an empty one.
func (s *MenuService) loadProfile(ctx context.Context, deviceID uuid.UUID) *models.UserProfile {
	profile, err := s.profiles.GetProfile(ctx, deviceID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("failed to read profile", zap.String("device_id", deviceID.String()), zap.Error(err))
		}
		return models.NewUserProfile(DefaultLanguage)
	}
	return profile
}

// persist writes menu and reports whether it worked. A failed write is logged, not returned.
func (s *MenuService) persist(ctx context.Context, menu *models.Menu, write func(context.Context, *models.Menu) error) bool {
	if err := write(ctx, menu); err != nil {
		s.logger.Warn("failed to persist menu", zap.String("menu_id", menu.ID.String()), zap.Error(err))
		return false
	}
	return true
}

func (s *MenuService) photoURLs(ctx context.Context, menu *models.Menu) []string {
	if s.archive == nil || len(menu.PhotoKeys) == 0 {
		return nil
	}
	urls := make([]string, 0, len(menu.PhotoKeys))
	for _, key := range menu.PhotoKeys {
		url, err := s.archive.URL(ctx, key)
		if err != nil {
			s.logger.Warn("failed to presign photo", zap.String("key", key), zap.Error(err))
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

func (s *MenuService) deletePhotos(ctx context.Context, keys []string) {
	if s.archive == nil || len(keys) == 0 {
		return
	}
	if err := s.archive.Delete(ctx, keys); err != nil {
		s.logger.Warn("failed to delete archived photos", zap.Int("count", len(keys)), zap.Error(err))
	}
}

func validateRestaurantName(name string) error {
	if utf8.RuneCountInString(name) > models.MaxRestaurantNameLength {
		return ErrRestaurantNameTooLong
	}
	return nil
}
