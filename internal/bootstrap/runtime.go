// Package bootstrap wires process-wide runtime concerns shared by the
// command entrypoints.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Thejus-u/charity-forum/internal/config"
	"github.com/Thejus-u/charity-forum/internal/middleware"
	"github.com/Thejus-u/charity-forum/internal/models"
	"github.com/Thejus-u/charity-forum/internal/observability"
	"github.com/Thejus-u/charity-forum/internal/repository"
	"github.com/Thejus-u/charity-forum/internal/service"

	"gorm.io/gorm"
)

const serviceVersion = "1.0.0"

// Runtime holds resources that live for the whole process.
type Runtime struct {
	shutdownTracing func(context.Context) error
}

// InitRuntime configures the global logger and tracer for cfg.
func InitRuntime(cfg *config.Config, serviceName string) (*Runtime, error) {
	middleware.InitLogger(cfg.Env)

	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}
	if cfg.TracingEnabled {
		middleware.Logger.Info("Tracing enabled",
			slog.String("exporter", cfg.TracingExporter),
			slog.Float64("sample_ratio", cfg.TracingSampleRatio))
	}

	return &Runtime{shutdownTracing: shutdown}, nil
}

// Shutdown flushes pending spans.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil || r.shutdownTracing == nil {
		return nil
	}
	return r.shutdownTracing(ctx)
}

// EnsureDevAdmin creates or promotes the development admin account when
// DEV_BOOTSTRAP_ADMIN is set in the development environment. It returns nil
// when bootstrapping is disabled.
func EnsureDevAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) (*models.User, error) {
	if cfg == nil || db == nil {
		return nil, nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil, nil
	}

	username := strings.TrimSpace(cfg.DevAdminUsername)
	if username == "" {
		username = "charity_admin"
	}
	email := strings.ToLower(strings.TrimSpace(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@charity.local"
	}
	if cfg.DevAdminPassword == "" {
		return nil, errors.New("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	userRepo := repository.NewUserRepository(db)
	users := service.NewUserService(userRepo, nil)

	admin, err := users.EnsureUser(ctx, &models.User{
		Username: username,
		Email:    email,
		Role:     models.RoleAdmin,
	}, cfg.DevAdminPassword)
	if err != nil {
		return nil, fmt.Errorf("ensure admin account: %w", err)
	}

	if admin.Role != models.RoleAdmin {
		if err := userRepo.UpdateRole(ctx, admin.ID, models.RoleAdmin); err != nil {
			return nil, fmt.Errorf("promote admin account: %w", err)
		}
		admin.Role = models.RoleAdmin
	}

	middleware.Logger.Info("Development admin bootstrap ensured",
		slog.Uint64("user_id", uint64(admin.ID)),
		slog.String("email", email))
	return admin, nil
}
