package models

import (
	"strings"
	"time"
)

// User is a platform account. Only the fields the gateway needs to authenticate are modelled.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:180;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Roles        string    `gorm:"size:512;not null;default:''" json:"-"`
	Disabled     bool      `gorm:"not null;default:false" json:"disabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName pins the table name regardless of gorm naming strategy.
func (User) TableName() string {
	return "users"
}

// RoleList splits the stored comma separated roles.
func (u *User) RoleList() []string {
	if u.Roles == "" {
		return nil
	}
	parts := strings.Split(u.Roles, ",")
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		if r := strings.TrimSpace(p); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

// SetRoles stores roles as a comma separated list.
func (u *User) SetRoles(roles []string) {
	u.Roles = strings.Join(roles, ",")
}
