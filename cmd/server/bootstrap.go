// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/smokewatch/internal/auth"
	"github.com/tomtom215/smokewatch/internal/config"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/models"
)

type adminStore interface {
	CountUsersByRole(ctx context.Context, role models.Role) (int, error)
	CreateUser(ctx context.Context, u *models.User) error
}

// bootstrapAdmin creates the first system administrator from
// SECURITY_ADMIN_EMAIL and SECURITY_ADMIN_PASSWORD. It does nothing once
// any system_admin exists, so changing the variables later has no effect.
func bootstrapAdmin(ctx context.Context, store adminStore, sec *config.SecurityConfig) error {
	if sec.AdminEmail == "" || sec.AdminPassword == "" {
		return nil
	}

	n, err := store.CountUsersByRole(ctx, models.RoleSystemAdmin)
	if err != nil {
		return fmt.Errorf("count administrators: %w", err)
	}
	if n > 0 {
		return nil
	}

	if err := auth.ValidatePasswordStrength(sec.AdminPassword); err != nil {
		return fmt.Errorf("admin password: %w", err)
	}
	hash, err := auth.HashPassword(sec.AdminPassword, sec.BcryptCost)
	if err != nil {
		return err
	}

	u := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(sec.AdminEmail)),
		PasswordHash: hash,
		FullName:     "System Administrator",
		Role:         models.RoleSystemAdmin,
		IsActive:     true,
	}
	if err := store.CreateUser(ctx, u); err != nil {
		return fmt.Errorf("create administrator: %w", err)
	}

	logging.Info().Str("email", logging.SanitizeEmail(u.Email)).Msg("Created initial system administrator")
	return nil
}
