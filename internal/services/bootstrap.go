package services

import (
	"errors"
	"log/slog"
)

// Bootstrap ensures adminRole exists and, when email is set, that an active
// account with that email holds it. An existing account keeps its password.
func (s *IdentityService) Bootstrap(adminRole, email, password string) error {
	if _, err := s.FindOrCreateRole(adminRole, "Administrator"); err != nil {
		return err
	}
	if email == "" {
		return nil
	}

	_, err := s.FindUserByEmail(email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		user, err := s.CreateUser(email, password, true, adminRole)
		if err != nil {
			return err
		}
		slog.Info("bootstrap admin created", "user_id", user.ID)
		return nil
	case err != nil:
		return err
	}
	return s.AddRoleToUser(email, adminRole)
}
