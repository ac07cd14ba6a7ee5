package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/model-workshop/internal/models"
)

func TestStudentRestrictions(t *testing.T) {
	restrictedModels := map[models.ModelType]bool{
		models.ModelLinearRegression:   true,
		models.ModelLogisticRegression: true,
		models.ModelTransformers:       true,
	}
	for _, m := range models.Models {
		assert.Equal(t, restrictedModels[m.Value], IsRestrictedFor(models.RoleStudent, m.Value), m.Value)
	}

	restrictedModes := map[models.ModeType]bool{
		models.ModeGPU:     true,
		models.ModePySpark: true,
	}
	for _, m := range models.Modes {
		assert.Equal(t, restrictedModes[m.Value], IsRestrictedFor(models.RoleStudent, m.Value), m.Value)
	}

	assert.False(t, CanUpload(models.RoleStudent))
}

func TestPrivilegedRolesHaveNoRestrictions(t *testing.T) {
	for _, role := range []models.Role{models.RoleAdmin, models.RoleAlpha} {
		for _, m := range models.Models {
			assert.False(t, IsRestrictedFor(role, m.Value))
		}
		for _, m := range models.Modes {
			assert.False(t, IsRestrictedFor(role, m.Value))
		}
		assert.True(t, CanUpload(role))
		assert.Len(t, AllowedModels(role), len(models.Models))
		assert.Len(t, AllowedModes(role), len(models.Modes))
	}
}

func TestUnknownRoleIsDeniedLikeStudent(t *testing.T) {
	role := models.Role("guest")
	assert.True(t, IsRestrictedFor(role, models.ModeGPU))
	assert.False(t, IsRestrictedFor(role, models.ModeCPU))
	assert.False(t, CanUpload(role))
}

func TestUnknownItemsAreRestricted(t *testing.T) {
	assert.True(t, IsRestrictedFor(models.RoleStudent, models.ModelType("SVM")))
	assert.False(t, IsRestrictedFor(models.RoleAdmin, models.ModelType("SVM")))
}

func TestCatalog(t *testing.T) {
	view := Catalog(models.RoleStudent)
	assert.True(t, view.Limited)
	assert.False(t, view.CanUpload)
	assert.Len(t, view.Models, 6)
	assert.Len(t, view.Modes, 3)
	assert.Equal(t, []models.ModelType{models.ModelANN, models.ModelCNN, models.ModelLSTM}, AllowedModels(models.RoleStudent))
	assert.Equal(t, []models.ModeType{models.ModeCPU}, AllowedModes(models.RoleStudent))

	admin := Catalog(models.RoleAdmin)
	assert.False(t, admin.Limited)
	for _, m := range admin.Models {
		assert.False(t, m.Disabled)
	}
}
