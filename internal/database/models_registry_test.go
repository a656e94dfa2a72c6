package database

import (
	"sync"
	"testing"

	modelspkg "github.com/Thejus-u/charity-forum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestPersistentModels_IncludesChildTables(t *testing.T) {
	var hasDonor, hasReaction bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *modelspkg.DonorEntry:
			hasDonor = true
		case *modelspkg.PostReaction:
			hasReaction = true
		}
	}
	require.True(t, hasDonor, "PersistentModels should include DonorEntry")
	require.True(t, hasReaction, "PersistentModels should include PostReaction")
}

func TestPersistentModels_TablesMatchMigrations(t *testing.T) {
	m := GetMigrationByVersion(1)
	require.NotNil(t, m)

	for _, model := range PersistentModels() {
		s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
		require.NoError(t, err)
		assert.Contains(t, m.UpScript, "CREATE TABLE IF NOT EXISTS "+s.Table+" (",
			"initial migration should create %s", s.Table)
	}
}
