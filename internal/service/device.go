package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/knoweat/backend/internal/models"
	"github.com/pageza/knoweat/backend/internal/store"
	"github.com/pageza/knoweat/backend/internal/taxonomy"
	"github.com/pageza/knoweat/backend/internal/types"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

const tokenIssuer = "knoweat"

// DeviceService registers anonymous devices and issues their bearer tokens.
type DeviceService struct {
	store     store.DeviceStore
	tax       *taxonomy.Taxonomy
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
}

// Ensure DeviceService implements IDeviceService
var _ IDeviceService = (*DeviceService)(nil)

// NewDeviceService creates a new DeviceService instance. A zero tokenTTL issues tokens valid for a year.
func NewDeviceService(st store.DeviceStore, tax *taxonomy.Taxonomy, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *DeviceService {
	if tax == nil {
		tax = taxonomy.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = 365 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeviceService{
		store:     st,
		tax:       tax,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Register creates a device with its onboarding profile and returns a token for it
func (s *DeviceService) Register(ctx context.Context, platform string, profile *models.UserProfile) (*models.Device, string, error) {
	if err := profile.Normalize(s.tax); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	now := time.Now().UTC()
	device := &models.Device{
		ID:         uuid.New(),
		CreatedAt:  now,
		LastSeenAt: now,
		Platform:   platform,
	}
	if err := s.store.CreateDevice(ctx, device, profile); err != nil {
		return nil, "", err
	}

	token, err := s.GenerateToken(device.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("device registered",
		zap.String("device_id", device.ID.String()),
		zap.String("platform", platform),
		zap.Int("restrictions", profile.RestrictionCount()))
	return device, token, nil
}

// GenerateToken signs a token for deviceID
func (s *DeviceService) GenerateToken(deviceID uuid.UUID) (string, error) {
	now := time.Now()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   deviceID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		DeviceID: deviceID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken parses and verifies a device token
func (s *DeviceService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.DeviceID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Touch records device activity. Failures are logged only.
func (s *DeviceService) Touch(ctx context.Context, deviceID uuid.UUID) {
	if err := s.store.TouchDevice(ctx, deviceID, time.Now().UTC()); err != nil {
		s.logger.Debug("failed to update device last seen", zap.String("device_id", deviceID.String()), zap.Error(err))
	}
}
