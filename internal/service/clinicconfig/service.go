package clinicconfig

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-queue/internal/model"
	"github.com/jwalitptl/clinic-queue/internal/repository"
)

// Hard-coded fallbacks applied when neither settings level has a value.
const (
	DefaultConsultationMins = 15
	DefaultBufferMins       = 5
	DefaultArrivalWindowMin = 15
	DefaultTokenReset       = model.ResetDaily
	DefaultBookingMode      = model.BookingModeHybrid
	DefaultMaxQueueLength   = 0 // unbounded
)

const (
	cacheTTL        = 30 * time.Second
	cleanupInterval = 5 * time.Minute
)

// Service resolves the effective per-department configuration.
// Department values override hospital defaults field by field; settings
// change rarely, so resolved configs are cached with a short TTL.
type Service struct {
	repo  repository.SettingsRepository
	cache *cache.Cache
}

func NewService(repo repository.SettingsRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(cacheTTL, cleanupInterval),
	}
}

func (s *Service) Resolve(ctx context.Context, hospitalID, departmentID uuid.UUID) (*model.EffectiveDepartmentConfig, error) {
	key := hospitalID.String() + ":" + departmentID.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.EffectiveDepartmentConfig), nil
	}

	hospital, err := s.repo.GetHospitalSettings(ctx, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hospital settings: %w", err)
	}

	department, err := s.repo.GetDepartmentSettings(ctx, hospitalID, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve department settings: %w", err)
	}

	cfg := merge(hospitalID, departmentID, hospital, department)
	s.cache.Set(key, cfg, cache.DefaultExpiration)
	return cfg, nil
}

// merge applies department overrides on top of hospital defaults, then
// fills remaining gaps with the hard-coded fallbacks. Missing rows at
// either level are fine.
func merge(hospitalID, departmentID uuid.UUID, hospital *model.HospitalSettings, department *model.DepartmentSettings) *model.EffectiveDepartmentConfig {
	cfg := &model.EffectiveDepartmentConfig{
		HospitalID:       hospitalID,
		DepartmentID:     departmentID,
		BookingMode:      DefaultBookingMode,
		ConsultationMins: DefaultConsultationMins,
		BufferMins:       DefaultBufferMins,
		ArrivalWindowMin: DefaultArrivalWindowMin,
		TokenReset:       DefaultTokenReset,
		MaxQueueLength:   DefaultMaxQueueLength,
	}

	if hospital != nil {
		applyHospital(cfg, hospital)
	}
	if department != nil {
		applyDepartment(cfg, department)
	}
	return cfg
}

func applyHospital(cfg *model.EffectiveDepartmentConfig, s *model.HospitalSettings) {
	if s.BookingMode != nil {
		cfg.BookingMode = *s.BookingMode
	}
	if s.ConsultationMins != nil {
		cfg.ConsultationMins = *s.ConsultationMins
	}
	if s.BufferMins != nil {
		cfg.BufferMins = *s.BufferMins
	}
	if s.ArrivalWindowMin != nil {
		cfg.ArrivalWindowMin = *s.ArrivalWindowMin
	}
	if s.TokenReset != nil {
		cfg.TokenReset = *s.TokenReset
	}
	if s.MaxQueueLength != nil {
		cfg.MaxQueueLength = *s.MaxQueueLength
	}
	if s.TokenPrefix != nil {
		cfg.TokenPrefix = *s.TokenPrefix
	}
}

func applyDepartment(cfg *model.EffectiveDepartmentConfig, s *model.DepartmentSettings) {
	if s.BookingMode != nil {
		cfg.BookingMode = *s.BookingMode
	}
	if s.ConsultationMins != nil {
		cfg.ConsultationMins = *s.ConsultationMins
	}
	if s.BufferMins != nil {
		cfg.BufferMins = *s.BufferMins
	}
	if s.ArrivalWindowMin != nil {
		cfg.ArrivalWindowMin = *s.ArrivalWindowMin
	}
	if s.TokenReset != nil {
		cfg.TokenReset = *s.TokenReset
	}
	if s.MaxQueueLength != nil {
		cfg.MaxQueueLength = *s.MaxQueueLength
	}
	if s.TokenPrefix != nil {
		cfg.TokenPrefix = *s.TokenPrefix
	}
}
