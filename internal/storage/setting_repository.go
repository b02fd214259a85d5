package storage

import (
	"time"

	"tg-autodelete/internal/models"

	"gorm.io/gorm"
)

// SettingRepository handles database operations for GroupSetting
type SettingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new SettingRepository
func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// MigrateTable ensures the GroupSetting table exists with the right schema
func (r *SettingRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.GroupSetting{})
}

// GetSetting retrieves a group's setting by GroupID, nil if not configured
func (r *SettingRepository) GetSetting(groupID int64) (*models.GroupSetting, error) {
	var setting models.GroupSetting
	result := r.db.Where("group_id = ?", groupID).First(&setting)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &setting, nil
}

// GetAllSettings retrieves every configured group setting
func (r *SettingRepository) GetAllSettings() ([]*models.GroupSetting, error) {
	var settings []*models.GroupSetting
	result := r.db.Find(&settings)
	if result.Error != nil {
		return nil, result.Error
	}
	return settings, nil
}

// UpsertSetting inserts a setting if the group has none, otherwise overwrites it
func (r *SettingRepository) UpsertSetting(setting *models.GroupSetting) error {
	var existing models.GroupSetting
	result := r.db.Where("group_id = ?", setting.GroupID).First(&existing)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			setting.CreatedAt = time.Now()
			setting.UpdatedAt = time.Now()
			return r.db.Create(setting).Error
		}
		return result.Error
	}

	setting.ID = existing.ID
	setting.CreatedAt = existing.CreatedAt
	setting.UpdatedAt = time.Now()

	return r.db.Save(setting).Error
}
