package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// EmbeddedDir is the migrations path inside the embedded filesystem.
const EmbeddedDir = "migrations"

// SourceDir is where migration files live in the repository, used by the
// create/validate commands.
const SourceDir = "pkg/migrate/migrations"

func setDialect(driver string) error {
	switch driver {
	case "sqlite", "sqlite3":
		return goose.SetDialect("sqlite3")
	case "postgres":
		return goose.SetDialect("postgres")
	default:
		return fmt.Errorf("unsupported migration dialect %q", driver)
	}
}

// Run executes a goose command against the embedded migrations.
func Run(ctx context.Context, sqlDB *sql.DB, driver string, command string, args ...string) error {
	if sqlDB == nil {
		return fmt.Errorf("db is required")
	}
	if err := setDialect(driver); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	goose.SetBaseFS(embeddedMigrations)
	defer goose.SetBaseFS(nil)

	if err := goose.RunContext(ctx, command, sqlDB, EmbeddedDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up applies all pending migrations.
func Up(ctx context.Context, sqlDB *sql.DB, driver string) error {
	return Run(ctx, sqlDB, driver, "up")
}

// MigrateToVersion migrates up or down to the requested version.
func MigrateToVersion(ctx context.Context, sqlDB *sql.DB, driver string, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}
	if err := setDialect(driver); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	goose.SetBaseFS(embeddedMigrations)
	defer goose.SetBaseFS(nil)

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	current, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, sqlDB, EmbeddedDir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return nil
	default:
		if err := goose.DownToContext(ctx, sqlDB, EmbeddedDir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	}
}
