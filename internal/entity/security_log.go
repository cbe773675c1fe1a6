package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SecurityAction string

const (
	LoginSuccess         SecurityAction = "login_success"
	LoginFailed          SecurityAction = "login_failed"
	TwoFactorRegistering SecurityAction = "two_factor_registering"
	TwoFactorRequired    SecurityAction = "two_factor_required"
	TwoFactorFailed      SecurityAction = "two_factor_failed"
	Logout               SecurityAction = "logout"
)

type SecurityLog struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	SessionID *uuid.UUID `gorm:"type:uuid;index"`
	Email     string     `gorm:"type:varchar(255);index"`

	IPAddress *string        `gorm:"type:varchar(45)"`
	Action    SecurityAction `gorm:"type:varchar(32);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}
