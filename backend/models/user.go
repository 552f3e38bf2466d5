package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

type Capability string

const (
	CapTakeTests       Capability = "take_tests"
	CapGenerateContent Capability = "generate_content"
	CapManageUsers     Capability = "manage_users"
	CapManageFiles     Capability = "manage_files"
)

var roleCapabilities = map[Role][]Capability{
	RoleStudent: {CapTakeTests, CapGenerateContent},
	RoleAdmin:   {CapTakeTests, CapGenerateContent, CapManageUsers, CapManageFiles},
}

func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role grants the capability. Unknown roles grant nothing.
func (r Role) Can(capability Capability) bool {
	for _, c := range roleCapabilities[r] {
		if c == capability {
			return true
		}
	}
	return false
}

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Role         Role           `gorm:"type:varchar(16);default:student;not null" json:"role"`
	IsActive     bool           `gorm:"default:true;not null" json:"isActive"`
	LastLogin    *time.Time     `json:"lastLogin,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeSave keeps the stored email in its canonical form.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = RoleStudent
	}
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
