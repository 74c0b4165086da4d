package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/item-admin/internal/models"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrUserNotFound  = errors.New("user not found")
	ErrRoleNotFound  = errors.New("role not found")
	ErrRoleExists    = errors.New("role already exists")
	ErrEmailRequired = errors.New("email is required")
	ErrPasswordShort = errors.New("password must be at least 8 characters")
)

const minPasswordLength = 8

// IdentityService is the user datastore: it owns users, roles and the
// roles_users association between them.
type IdentityService struct {
	db     *gorm.DB
	hasher *PasswordHasher
}

func NewIdentityService(db *gorm.DB, hasher *PasswordHasher) *IdentityService {
	return &IdentityService{db: db, hasher: hasher}
}

func (s *IdentityService) Hasher() *PasswordHasher {
	return s.hasher
}

func (s *IdentityService) FindUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Roles").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return &user, nil
}

func (s *IdentityService) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Roles").Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %q: %w", email, err)
	}
	return &user, nil
}

// CreateUser hashes password and stores a new user holding roles. Roles
// that do not exist yet are created.
func (s *IdentityService) CreateUser(email, password string, active bool, roles ...string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordShort
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := models.User{Email: email, Password: hash, Active: active}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, name := range roles {
			role, err := findOrCreateRole(tx, name, "")
			if err != nil {
				return err
			}
			user.Roles = append(user.Roles, *role)
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func (s *IdentityService) CreateRole(name, description string) (*models.Role, error) {
	var count int64
	if err := s.db.Model(&models.Role{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check role: %w", err)
	}
	if count > 0 {
		return nil, ErrRoleExists
	}
	role := models.Role{Name: name, Description: description}
	if err := s.db.Create(&role).Error; err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	return &role, nil
}

func (s *IdentityService) FindOrCreateRole(name, description string) (*models.Role, error) {
	return findOrCreateRole(s.db, name, description)
}

func (s *IdentityService) FindRole(name string) (*models.Role, error) {
	var role models.Role
	if err := s.db.Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to load role %q: %w", name, err)
	}
	return &role, nil
}

func (s *IdentityService) AddRoleToUser(email, roleName string) error {
	user, role, err := s.userAndRole(email, roleName)
	if err != nil {
		return err
	}
	if user.HasRole(role.Name) {
		return nil
	}
	if err := s.db.Model(user).Association("Roles").Append(role); err != nil {
		return fmt.Errorf("failed to add role: %w", err)
	}
	return nil
}

func (s *IdentityService) RemoveRoleFromUser(email, roleName string) error {
	user, role, err := s.userAndRole(email, roleName)
	if err != nil {
		return err
	}
	if err := s.db.Model(user).Association("Roles").Delete(role); err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}
	return nil
}

func (s *IdentityService) SetActive(email string, active bool) error {
	res := s.db.Model(&models.User{}).Where("email = ?", normalizeEmail(email)).Update("active", active)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// HasRole reports whether the user holds a role named exactly name.
func (s *IdentityService) HasRole(userID uint, name string) (bool, error) {
	var count int64
	err := s.db.Table("roles_users").
		Joins("JOIN roles ON roles.id = roles_users.role_id").
		Where("roles_users.user_id = ? AND roles.name = ?", userID, name).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role %q for user %d: %w", name, userID, err)
	}
	return count > 0, nil
}

func (s *IdentityService) RoleNames(userID uint) ([]string, error) {
	var names []string
	err := s.db.Table("roles").
		Joins("JOIN roles_users ON roles_users.role_id = roles.id").
		Where("roles_users.user_id = ?", userID).
		Order("roles.name").
		Pluck("roles.name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list roles for user %d: %w", userID, err)
	}
	return names, nil
}

func (s *IdentityService) userAndRole(email, roleName string) (*models.User, *models.Role, error) {
	user, err := s.FindUserByEmail(email)
	if err != nil {
		return nil, nil, err
	}
	role, err := s.FindRole(roleName)
	if err != nil {
		return nil, nil, err
	}
	return user, role, nil
}

func findOrCreateRole(db *gorm.DB, name, description string) (*models.Role, error) {
	role := models.Role{Name: name}
	err := db.Where(models.Role{Name: name}).Attrs(models.Role{Description: description}).FirstOrCreate(&role).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find or create role %q: %w", name, err)
	}
	return &role, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
