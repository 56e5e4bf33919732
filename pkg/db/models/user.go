package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/magislabs/pricing-backend/pkg/enums"
)

// User is a back-office operator account.
type User struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string           `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Name         string           `gorm:"column:name;not null" json:"name"`
	PasswordHash string           `gorm:"column:password_hash;not null" json:"-"`
	Role         enums.MemberRole `gorm:"column:role;not null;default:'staff'" json:"role"`
	Authorized   bool             `gorm:"column:authorized;not null;default:false" json:"authorized"`
	Phone        *string          `gorm:"column:phone" json:"phone,omitempty"`
	Department   *string          `gorm:"column:department" json:"department,omitempty"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
