package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/student-affairs-api/internal/dto"
	"github.com/noah-isme/student-affairs-api/internal/models"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
)

type settingsRepository interface {
	List(ctx context.Context) ([]models.Setting, error)
	Get(ctx context.Context, key string) (*models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
}

type externalUserLookup interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

const settingsCachePrefix = "settings:"

var settingDescriptions = map[string]string{
	models.FeatureLeave:        "Leave applications and approvals",
	models.FeatureResult:       "Result publication",
	models.FeatureRegistration: "Course registration and section changes",
	models.FeatureMessaging:    "Messaging",
	models.FeatureAnalytics:    "Analytics dashboards",
}

// FeatureFlagConfig supplies defaults for keys with no stored row.
type FeatureFlagConfig struct {
	Defaults map[string]bool
	CacheTTL time.Duration
}

// cachedSetting distinguishes a stored value from an absent row.
type cachedSetting struct {
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// FeatureFlagService answers feature toggles and manages the settings that
// back them.
type FeatureFlagService struct {
	repo      settingsRepository
	cache     *CacheService
	audit     auditLogger
	users     externalUserLookup
	validator *validator.Validate
	logger    *zap.Logger
	defaults  map[string]bool
	ttl       time.Duration
}

// FeatureFlagOption configures optional collaborators.
type FeatureFlagOption func(*FeatureFlagService)

// WithFlagUsers resolves admin callers to internal user ids for updated_by and
// the audit trail. Without it those columns stay empty.
func WithFlagUsers(users externalUserLookup) FeatureFlagOption {
	return func(s *FeatureFlagService) { s.users = users }
}

// NewFeatureFlagService constructs the service.
func NewFeatureFlagService(repo settingsRepository, cache *CacheService, audit auditLogger, validate *validator.Validate, logger *zap.Logger, cfg FeatureFlagConfig, opts ...FeatureFlagOption) *FeatureFlagService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := make(map[string]bool, len(settingDescriptions))
	for key := range settingDescriptions {
		defaults[key] = true
	}
	for key, value := range cfg.Defaults {
		defaults[key] = value
	}
	s := &FeatureFlagService{
		repo:      repo,
		cache:     cache,
		audit:     audit,
		validator: validate,
		logger:    logger,
		defaults:  defaults,
		ttl:       cfg.CacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsEnabled reports whether key is switched on. Any stored value other than a
// case-insensitive "false" counts as enabled.
func (s *FeatureFlagService) IsEnabled(ctx context.Context, key string) (bool, error) {
	value, found, err := s.lookup(ctx, key)
	if err != nil {
		return false, err
	}
	if !found {
		return s.defaults[key], nil
	}
	return parseFlag(value), nil
}

// Require returns FEATURE_DISABLED when key is switched off.
func (s *FeatureFlagService) Require(ctx context.Context, key string) error {
	enabled, err := s.IsEnabled(ctx, key)
	if err != nil {
		return err
	}
	if !enabled {
		return appErrors.WithDetails(appErrors.ErrFeatureDisabled, "", map[string]interface{}{"feature": key})
	}
	return nil
}

// List returns every known setting merged with defaults.
func (s *FeatureFlagService) List(ctx context.Context) ([]dto.SettingItem, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list settings")
	}
	stored := make(map[string]models.Setting, len(rows))
	for _, row := range rows {
		stored[row.Key] = row
	}

	keys := make([]string, 0, len(settingDescriptions))
	for key := range settingDescriptions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	items := make([]dto.SettingItem, 0, len(keys))
	for _, key := range keys {
		if row, ok := stored[key]; ok {
			items = append(items, s.item(key, row.Value, true))
			continue
		}
		items = append(items, s.item(key, "", false))
	}
	return items, nil
}

// Get returns a single setting.
func (s *FeatureFlagService) Get(ctx context.Context, key string) (*dto.SettingItem, error) {
	if err := requireKnownSetting(key); err != nil {
		return nil, err
	}
	value, found, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	item := s.item(key, value, found)
	return &item, nil
}

// Update stores a new value, drops the cached copy and records an audit entry.
func (s *FeatureFlagService) Update(ctx context.Context, key string, req dto.UpdateSettingRequest, actor *models.JWTClaims) (*dto.SettingItem, error) {
	if err := requireKnownSetting(key); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid setting payload")
	}
	value := strings.TrimSpace(req.Value)

	prev, err := s.repo.Get(ctx, key)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to fetch setting")
	}

	actorID := s.actorID(ctx, actor)
	setting := &models.Setting{Key: key, Value: value, UpdatedBy: actorID}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, appErrors.Internal(err, "failed to update setting")
	}
	s.cache.Forget(ctx, settingsCachePrefix+key)

	oldValue := ""
	if prev != nil {
		oldValue = prev.Value
	}
	s.emitAudit(ctx, actorID, key, oldValue, value)
	s.logger.Info("setting updated", zap.String("key", key), zap.String("value", value))

	item := s.item(key, value, true)
	return &item, nil
}

func (s *FeatureFlagService) lookup(ctx context.Context, key string) (string, bool, error) {
	cacheKey := settingsCachePrefix + key
	var cached cachedSetting
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached.Value, cached.Found, nil
	}

	setting, err := s.repo.Get(ctx, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		cached = cachedSetting{}
	case err != nil:
		return "", false, appErrors.Internal(err, "failed to read setting")
	default:
		cached = cachedSetting{Value: setting.Value, Found: true}
	}
	s.cache.Set(ctx, cacheKey, cached, s.ttl)
	return cached.Value, cached.Found, nil
}

func (s *FeatureFlagService) item(key, value string, persisted bool) dto.SettingItem {
	enabled := s.defaults[key]
	if persisted {
		enabled = parseFlag(value)
	} else {
		value = boolString(enabled)
	}
	return dto.SettingItem{
		Key:         key,
		Value:       value,
		Enabled:     enabled,
		Description: settingDescriptions[key],
		Persisted:   persisted,
	}
}

// actorID maps the caller's provider uid to users.id. Unknown callers are
// recorded without a user.
func (s *FeatureFlagService) actorID(ctx context.Context, actor *models.JWTClaims) *string {
	if s.users == nil || actor == nil || strings.TrimSpace(actor.UserID) == "" {
		return nil
	}
	user, err := s.users.FindByExternalID(ctx, actor.UserID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to resolve setting actor", zap.String("uid", actor.UserID), zap.Error(err))
		}
		return nil
	}
	return &user.ID
}

func (s *FeatureFlagService) emitAudit(ctx context.Context, actorID *string, key, oldValue, newValue string) {
	if s.audit == nil {
		return
	}
	oldBytes, _ := json.Marshal(map[string]string{"key": key, "value": oldValue})
	newBytes, _ := json.Marshal(map[string]string{"key": key, "value": newValue})
	log := &models.AuditLog{
		UserID:     actorID,
		Action:     models.AuditActionSettingUpdate,
		Resource:   "setting",
		ResourceID: &key,
		OldValues:  oldBytes,
		NewValues:  newBytes,
		IPAddress:  "system",
		UserAgent:  "feature-flag-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record setting audit", zap.Error(err))
	}
}

func requireKnownSetting(key string) error {
	if _, ok := settingDescriptions[key]; !ok {
		return appErrors.Clone(appErrors.ErrSettingNotFound, "unknown setting key")
	}
	return nil
}

func parseFlag(value string) bool {
	return !strings.EqualFold(strings.TrimSpace(value), "false")
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func strPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
