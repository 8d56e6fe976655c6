package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dan9191/account-record-service/internal/auth"
	"github.com/Dan9191/account-record-service/internal/models"
	"github.com/Dan9191/account-record-service/internal/repository"
	"github.com/sirupsen/logrus"
)

const AdminUsername = "admin"

// SeedAdmin creates the administrator account once
func SeedAdmin(ctx context.Context, users repository.UserStore, email, password string, log logrus.FieldLogger) error {
	exists, err := users.ExistsByUsername(ctx, AdminUsername)
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if exists {
		log.Debug("Admin user already present")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{
		Username:     AdminUsername,
		Email:        email,
		PasswordHash: hash,
		Enabled:      true,
		Roles:        []string{models.RoleAdmin},
	}
	if err := users.CreateUser(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	log.WithField("username", AdminUsername).Info("Admin user created")
	return nil
}
