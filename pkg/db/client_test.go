package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/pkg/config"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollsBack(t *testing.T) {
	client := &Client{conn: newTestDB(t)}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := client.conn.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := client.conn.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestWithTx_RetriesLockedTransactions(t *testing.T) {
	client := &Client{
		conn:   newTestDB(t),
		sqlite: true,
		cfg:    config.DBConfig{Driver: config.DBDriverSQLite, LockedRetries: 2},
	}

	calls := 0
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return tx.Create(&testModel{Name: "eventually"}).Error
	})
	if err != nil {
		t.Fatalf("expected locked transaction to be retried: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestPing(t *testing.T) {
	client := &Client{conn: newTestDB(t)}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestSQLiteDSNCarriesPragmas(t *testing.T) {
	dsn := sqliteDSN(config.DBConfig{Path: "data/test.db"})
	for _, fragment := range []string{"_journal_mode=WAL", "_busy_timeout=10000", "_foreign_keys=on"} {
		if !strings.Contains(dsn, fragment) {
			t.Fatalf("expected %q in dsn %q", fragment, dsn)
		}
	}
}
