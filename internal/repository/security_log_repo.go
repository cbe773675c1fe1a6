package repository

import (
	"context"

	"github.com/fillipgms/admin-playfiver-sub001/internal/entity"

	"gorm.io/gorm"
)

type SecurityLogRepository interface {
	Log(ctx context.Context, log *entity.SecurityLog) error
}

type securityLogRepository struct {
	db *gorm.DB
}

func NewSecurityLogRepository(db *gorm.DB) SecurityLogRepository {
	return &securityLogRepository{db: db}
}

func (r *securityLogRepository) Log(ctx context.Context, log *entity.SecurityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// Migrate creates the tables owned by this service.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&entity.Session{}, &entity.SecurityLog{})
}
