package clinicconfig

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-queue/internal/model"
)

type fakeSettingsRepo struct {
	hospital   *model.HospitalSettings
	department *model.DepartmentSettings
	calls      int
}

func (f *fakeSettingsRepo) GetHospitalSettings(_ context.Context, _ uuid.UUID) (*model.HospitalSettings, error) {
	f.calls++
	return f.hospital, nil
}

func (f *fakeSettingsRepo) GetDepartmentSettings(_ context.Context, _, _ uuid.UUID) (*model.DepartmentSettings, error) {
	return f.department, nil
}

func intPtr(v int) *int { return &v }

func TestResolveFallbacksWhenNoSettingsExist(t *testing.T) {
	svc := NewService(&fakeSettingsRepo{})

	cfg, err := svc.Resolve(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, DefaultConsultationMins, cfg.ConsultationMins)
	assert.Equal(t, DefaultBufferMins, cfg.BufferMins)
	assert.Equal(t, DefaultArrivalWindowMin, cfg.ArrivalWindowMin)
	assert.Equal(t, model.ResetDaily, cfg.TokenReset)
}

func TestResolveDepartmentOverridesHospitalFieldwise(t *testing.T) {
	weekly := model.ResetWeekly
	repo := &fakeSettingsRepo{
		hospital: &model.HospitalSettings{
			ConsultationMins: intPtr(20),
			BufferMins:       intPtr(10),
			TokenReset:       &weekly,
		},
		department: &model.DepartmentSettings{
			ConsultationMins: intPtr(30),
		},
	}
	svc := NewService(repo)

	cfg, err := svc.Resolve(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.ConsultationMins, "department value wins")
	assert.Equal(t, 10, cfg.BufferMins, "hospital value fills the gap")
	assert.Equal(t, model.ResetWeekly, cfg.TokenReset)
	assert.Equal(t, DefaultArrivalWindowMin, cfg.ArrivalWindowMin, "fallback when neither level sets it")
}

func TestResolveCachesByHospitalAndDepartment(t *testing.T) {
	repo := &fakeSettingsRepo{}
	svc := NewService(repo)
	hospitalID, departmentID := uuid.New(), uuid.New()

	_, err := svc.Resolve(context.Background(), hospitalID, departmentID)
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), hospitalID, departmentID)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls, "second resolve must hit the cache")
}
