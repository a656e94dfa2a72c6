package database

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/Thejus-u/charity-forum/internal/config"
	"github.com/Thejus-u/charity-forum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T, cfg *config.Config, applySchema bool) *gorm.DB {
	t.Helper()
	db, err := ConnectWithOptions(sqlite.Open("file::memory:"), cfg, applySchema)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, configurePool(db, &config.Config{}))
	assert.Equal(t, 25, sqlDB.Stats().MaxOpenConnections)
}

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "db",
		DBPort:     "5432",
		DBUser:     "charity",
		DBPassword: "secret",
		DBName:     "charity_forum",
	}
	assert.Equal(t, "host=db port=5432 user=charity password=secret dbname=charity_forum sslmode=disable", DSN(cfg))

	cfg.DBSSLMode = "require"
	assert.Contains(t, DSN(cfg), "sslmode=require")
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		mode        string
		destructive bool
		wantSQL     bool
		wantAuto    bool
		wantErr     bool
	}{
		{"Hybrid in development", "development", "hybrid", false, true, true, false},
		{"Empty mode defaults to hybrid", "test", "", false, true, true, false},
		{"Hybrid in production", "production", "hybrid", false, true, false, false},
		{"SQL only", "development", "sql", false, true, false, false},
		{"Auto in development", "development", "auto", false, false, true, false},
		{"Auto refused in staging", "staging", "auto", false, false, false, true},
		{"Auto allowed in production when destructive", "production", "auto", true, false, true, false},
		{"Unknown mode", "development", "yolo", false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Env: tt.env, DBSchemaMode: tt.mode, DBAutoMigrateAllowDestructive: tt.destructive}
			runSQL, runAuto, err := schemaPolicy(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestApplySchema_AutoMode(t *testing.T) {
	cfg := &config.Config{Env: "test", DBSchemaMode: SchemaModeAuto, DBMaxOpenConns: 1}
	db := openSQLite(t, cfg, true)

	for _, model := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(model))
	}

	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.False(t, status.WillRunSQL)
	assert.True(t, status.WillRunAutoMigrate)
	assert.Empty(t, status.PendingMigrations)
}

func TestEmbeddedMigrations(t *testing.T) {
	registered := GetMigrations()
	require.NotEmpty(t, registered)
	for i, m := range registered {
		assert.NotEmpty(t, m.UpScript, m.String())
		assert.NotEmpty(t, m.DownScript, m.String())
		if i > 0 {
			assert.Greater(t, m.Version, registered[i-1].Version)
		}
	}
	assert.Equal(t, "000001_init", registered[0].String())
	assert.Nil(t, GetMigrationByVersion(9999))
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_second.up.sql":   {Data: []byte("CREATE TABLE b (id INTEGER);")},
		"m/000002_second.down.sql": {Data: []byte("DROP TABLE b;")},
		"m/000001_first.up.sql":    {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"m/000001_first.down.sql":  {Data: []byte("DROP TABLE a;")},
		"m/README.md":              {Data: []byte("ignored")},
		"m/bad.up.sql":             {Data: []byte("ignored")},
	}

	got, err := LoadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Version)
	assert.Equal(t, "first", got[0].Name)
	assert.Equal(t, "second", got[1].Name)

	delete(fsys, "m/000002_second.down.sql")
	_, err = LoadMigrations(fsys, "m")
	assert.Error(t, err)
}

func TestRunMigrations_AppliesPendingAndRollsBack(t *testing.T) {
	db := openSQLite(t, &config.Config{Env: "test", DBMaxOpenConns: 1}, false)
	ctx := context.Background()

	registered := []Migration{
		{Version: 1, Name: "first", UpScript: "CREATE TABLE a (id INTEGER);", DownScript: "DROP TABLE a;"},
		{Version: 2, Name: "second", UpScript: "CREATE TABLE b (id INTEGER);", DownScript: "DROP TABLE b;"},
	}

	require.NoError(t, runMigrations(ctx, db, registered[:1]))
	require.NoError(t, runMigrations(ctx, db, registered))
	require.NoError(t, runMigrations(ctx, db, registered))

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, applied)
	assert.True(t, db.Migrator().HasTable("b"))

	require.NoError(t, rollbackMigration(ctx, db, &registered[1], 2))
	assert.False(t, db.Migrator().HasTable("b"))
	assert.Error(t, rollbackMigration(ctx, db, &registered[1], 2))
	assert.Error(t, rollbackMigration(ctx, db, nil, 7))

	err = runMigrations(ctx, db, nil)
	assert.ErrorContains(t, err, "000001")
}

func TestRunMigrations_FailedScriptIsNotRecorded(t *testing.T) {
	db := openSQLite(t, &config.Config{Env: "test", DBMaxOpenConns: 1}, false)
	ctx := context.Background()

	err := runMigrations(ctx, db, []Migration{{Version: 1, Name: "broken", UpScript: "CREATE TABLE ("}})
	require.Error(t, err)

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestConnectWithOptions_TranslatesDuplicateKey(t *testing.T) {
	db := openSQLite(t, &config.Config{Env: "test", DBSchemaMode: SchemaModeAuto, DBMaxOpenConns: 1}, true)

	require.NoError(t, db.Create(&models.User{Username: "alice", Email: "alice@example.com", Password: "x"}).Error)
	err := db.Create(&models.User{Username: "alice", Email: "other@example.com", Password: "x"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
