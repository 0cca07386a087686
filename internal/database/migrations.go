package database

import (
	"errors"
	"time"

	"github.com/jotlabs/jot/internal/notes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillRenderIDs = "2026-08-12_backfill_render_ids"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillRenderIDs, apply: backfillRenderIDs},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Rows imported from before render identifiers existed carry an empty
// render_id; seed them from the server id so clients can key mutations.
func backfillRenderIDs(db *gorm.DB) error {
	return db.Model(&notes.Note{}).
		Where("render_id = '' OR render_id IS NULL").
		Update("render_id", gorm.Expr("id")).Error
}
