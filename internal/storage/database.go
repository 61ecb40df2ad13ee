package storage

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/game"
	"github.com/ericogr/saga-combat/internal/logging"
)

// OpenAndMigrate opens the sqlite database at dataSourceName, migrates the
// schema and seeds any configured character that is not stored yet.
func OpenAndMigrate(dataSourceName string, characters []game.Combatant) (*gorm.DB, error) {
	if dir := filepath.Dir(dataSourceName); dir != "." && dataSourceName != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Keep schema updated via AutoMigrate; deleting the file resets the party.
	if err := db.AutoMigrate(&CharacterRecord{}, &EncounterReport{}); err != nil {
		return nil, err
	}
	if err := seedCharacters(db, characters); err != nil {
		return nil, err
	}
	logging.Info("database ready", logging.Fields{constants.LogFieldPath: dataSourceName, "characters": len(characters)})
	return db, nil
}
