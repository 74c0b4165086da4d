package models

import "time"

// User is an account that can sign in. Role membership lives in the
// roles_users join table.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:35;not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Active    bool      `gorm:"not null" json:"active"`
	Roles     []Role    `gorm:"many2many:roles_users;" json:"roles,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) PrimaryKey() uint { return u.ID }

func (u User) String() string { return u.Email }

// HasRole reports whether the already-loaded Roles contain name exactly.
func (u User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

func (u User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
