package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"quill/internal/config"
	"quill/internal/middleware"

	"gorm.io/gorm"
)

// Schema management modes selected by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaStatus describes what ApplySchema would do for the current config.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

// schemaPlan is the resolved set of steps for one mode and environment.
type schemaPlan struct {
	mode    string
	sql     bool
	auto    bool
	warning string
}

// Steps per mode, split by whether the environment holds real posts.
var schemaModes = map[string]struct{ dev, shared schemaPlan }{
	SchemaModeSQL:    {dev: schemaPlan{sql: true}, shared: schemaPlan{sql: true}},
	SchemaModeHybrid: {dev: schemaPlan{sql: true, auto: true}, shared: schemaPlan{sql: true}},
	SchemaModeAuto:   {dev: schemaPlan{auto: true}, shared: schemaPlan{auto: true}},
}

var sharedEnvs = map[string]bool{"production": true, "prod": true, "staging": true, "stage": true}

func planSchema(cfg *config.Config) (schemaPlan, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		mode = SchemaModeHybrid
	}
	steps, ok := schemaModes[mode]
	if !ok {
		return schemaPlan{}, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}

	plan := steps.dev
	if sharedEnvs[strings.ToLower(strings.TrimSpace(cfg.Env))] {
		plan = steps.shared
		if plan.auto {
			if !cfg.DBAutoMigrateDestructive {
				return schemaPlan{}, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
			}
			plan.warning = "AutoMigrate against a shared database; review posts/users schema diffs first"
		}
	}
	plan.mode = mode
	return plan, nil
}

func schemaPolicy(cfg *config.Config) (runSQL bool, runAuto bool, err error) {
	plan, err := planSchema(cfg)
	return plan.sql, plan.auto, err
}

// AutoMigrate creates or updates tables for every persistent model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the users and posts tables up to date using the steps
// DB_SCHEMA_MODE selects for the current environment.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}
	log := middleware.Logger.With(slog.String("schema_mode", plan.mode), slog.String("env", cfg.Env))

	if plan.sql {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if !plan.auto {
		return nil
	}
	if plan.warning != "" {
		log.Warn(plan.warning)
	}
	log.Info("syncing models with AutoMigrate")
	if err := AutoMigrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus reports the resolved plan and, when SQL migrations are in
// play, which registered versions have not been applied yet.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               plan.mode,
		Environment:        cfg.Env,
		WillRunSQL:         plan.sql,
		WillRunAutoMigrate: plan.auto,
	}
	if !plan.sql {
		return status, nil
	}

	if status.AppliedVersions, err = NewMigrationStore(db).GetAppliedMigrations(ctx); err != nil {
		return nil, err
	}
	status.PendingMigrations = unapplied(GetMigrations(), status.AppliedVersions)
	return status, nil
}

func unapplied(registered []Migration, applied []int) []Migration {
	done := make(map[int]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}
	var pending []Migration
	for _, m := range registered {
		if _, ok := done[m.Version]; !ok {
			pending = append(pending, m)
		}
	}
	return pending
}
