package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/item-admin/internal/models"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/services"
	"gorm.io/gorm"
)

func NewUserView(db *gorm.DB, hasher *services.PasswordHasher) *ModelView[models.User] {
	store := NewGormStore[models.User](db)
	store.Preload = []string{"Roles"}
	store.Order = "email"
	store.Replace = []string{"Roles"}
	store.DeleteWith = []string{"Roles"}

	v := NewModelView[models.User]("User", "user", store)
	v.Columns = []Column[models.User]{
		{Header: "Email", Value: func(u *models.User) string { return u.Email }},
		{Header: "Active", Value: func(u *models.User) string { return strconv.FormatBool(u.Active) }},
		{Header: "Roles", Value: func(u *models.User) string { return strings.Join(u.RoleNames(), ", ") }},
	}
	v.Fields = []Field[models.User]{
		emailField().Require().Max(35).UniqueOn("email"),
		passwordField(hasher),
		BoolField("active", "Active", func(u *models.User) *bool { return &u.Active }),
		rolesField(db),
	}
	return v
}

func NewRoleView(db *gorm.DB) *ModelView[models.Role] {
	store := NewGormStore[models.Role](db)
	store.Preload = []string{"Users"}
	store.Order = "name"
	store.DeleteWith = []string{"Users"}

	v := NewModelView[models.Role]("Role", "role", store)
	v.Columns = []Column[models.Role]{
		{Header: "Name", Value: func(r *models.Role) string { return r.Name }},
		{Header: "Description", Value: func(r *models.Role) string { return r.Description }},
		{Header: "Users", Value: func(r *models.Role) string { return strconv.Itoa(len(r.Users)) }},
	}
	v.Fields = []Field[models.Role]{
		StringField("name", "Name", func(r *models.Role) *string { return &r.Name }).
			Require().Max(35).UniqueOn("name"),
		StringField("description", "Description", func(r *models.Role) *string { return &r.Description }).Max(150),
	}
	return v
}

func emailField() Field[models.User] {
	f := StringField("email", "Email", func(u *models.User) *string { return &u.Email })
	set := f.Set
	f.Set = func(u *models.User, vals []string) error {
		if err := set(u, vals); err != nil {
			return err
		}
		u.Email = strings.ToLower(u.Email)
		return nil
	}
	return f
}

// passwordField hashes on the way in. Leaving it blank on edit keeps the
// current password.
func passwordField(hasher *services.PasswordHasher) Field[models.User] {
	return Field[models.User]{
		Name:  "password",
		Label: "Password",
		Type:  FieldPassword,
		Get:   func(*models.User) []string { return nil },
		Set: func(u *models.User, vals []string) error {
			raw := first(vals)
			if raw == "" {
				if u.ID == 0 {
					return errors.New("Password is required.")
				}
				return nil
			}
			if len(raw) < 8 {
				return errors.New("Password must be at least 8 characters.")
			}
			hash, err := hasher.Hash(raw)
			if err != nil {
				return err
			}
			u.Password = hash
			return nil
		},
	}
}

func rolesField(db *gorm.DB) Field[models.User] {
	return Field[models.User]{
		Name:  "roles",
		Label: "Roles",
		Type:  FieldMultiSelect,
		Get: func(u *models.User) []string {
			ids := make([]string, len(u.Roles))
			for i, r := range u.Roles {
				ids[i] = strconv.FormatUint(uint64(r.ID), 10)
			}
			return ids
		},
		Set: func(u *models.User, vals []string) error {
			ids, err := parseIDs(vals)
			if err != nil {
				return errInvalidChoice("Roles")
			}
			roles := []models.Role{}
			if len(ids) > 0 {
				if err := db.Where("id IN ?", ids).Find(&roles).Error; err != nil {
					return err
				}
				if len(roles) != len(ids) {
					return errInvalidChoice("Roles")
				}
			}
			u.Roles = roles
			return nil
		},
		Options: func() ([]Option, error) {
			var roles []models.Role
			if err := db.Order("name").Find(&roles).Error; err != nil {
				return nil, err
			}
			opts := make([]Option, len(roles))
			for i, r := range roles {
				opts[i] = Option{Value: strconv.FormatUint(uint64(r.ID), 10), Label: r.Name}
			}
			return opts, nil
		},
	}
}

func errInvalidChoice(label string) error {
	return errors.New(label + ": not a valid choice.")
}
