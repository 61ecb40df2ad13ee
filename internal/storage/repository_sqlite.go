package storage

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ericogr/saga-combat/internal/game"
)

type sqliteRepository struct {
	db *gorm.DB
	// configByID maps character id -> content definition (stats, abilities).
	configByID map[string]game.Combatant
}

// NewSQLiteRepository builds a Repository on db. Stats and abilities of
// loaded characters are taken from configured; content is the source of
// truth for everything a combat does not change.
func NewSQLiteRepository(db *gorm.DB, configured []game.Combatant) Repository {
	m := make(map[string]game.Combatant, len(configured))
	for _, c := range configured {
		m[c.ID] = c
	}
	return &sqliteRepository{db: db, configByID: m}
}

func seedCharacters(db *gorm.DB, characters []game.Combatant) error {
	if len(characters) == 0 {
		return nil
	}
	records := make([]CharacterRecord, 0, len(characters))
	for i := range characters {
		records = append(records, recordFromCombatant(&characters[i]))
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "character_id"}},
		DoNothing: true,
	}).Create(&records).Error
}

func (r *sqliteRepository) SeedCharacters(characters []game.Combatant) error {
	return seedCharacters(r.db, characters)
}

func (r *sqliteRepository) toCombatant(rec CharacterRecord) *game.Combatant {
	c := &game.Combatant{
		ID:            rec.CharacterID,
		Name:          rec.Name,
		Kind:          game.KindParty,
		CurrentHealth: rec.CurrentHealth,
		MaxHealth:     rec.MaxHealth,
		Status:        game.HealthStatus(rec.Status),
		Effects:       append([]game.Effect(nil), rec.Effects...),
	}
	if conf, ok := r.configByID[rec.CharacterID]; ok {
		cp := conf.Clone()
		c.Stats = cp.Stats
		c.Abilities = cp.Abilities
		if c.Name == "" {
			c.Name = conf.Name
		}
	}
	if c.Status == "" {
		c.RefreshStatus()
	}
	return c
}

func (r *sqliteRepository) ListCharacters() ([]*game.Combatant, error) {
	var recs []CharacterRecord
	if err := r.db.Order("character_id").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*game.Combatant, 0, len(recs))
	for _, rec := range recs {
		out = append(out, r.toCombatant(rec))
	}
	return out, nil
}

func (r *sqliteRepository) GetParty(ids []string) ([]*game.Combatant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var recs []CharacterRecord
	if err := r.db.Where("character_id IN ?", ids).Find(&recs).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]CharacterRecord, len(recs))
	for _, rec := range recs {
		byID[rec.CharacterID] = rec
	}
	out := make([]*game.Combatant, 0, len(ids))
	for _, id := range ids {
		rec, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCharacterNotFound, id)
		}
		out = append(out, r.toCombatant(rec))
	}
	return out, nil
}

func (r *sqliteRepository) SaveParty(party []*game.Combatant) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, c := range party {
			rec := recordFromCombatant(c)
			res := tx.Model(&CharacterRecord{}).
				Where("character_id = ?", c.ID).
				Select("current_health", "max_health", "status", "effects").
				Updates(&rec)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: %s", ErrCharacterNotFound, c.ID)
			}
		}
		return nil
	})
}

func (r *sqliteRepository) SaveEncounterReport(rep *EncounterReport) error {
	return r.db.Create(rep).Error
}

func (r *sqliteRepository) ListEncounterReports(limit int) ([]EncounterReport, error) {
	if limit <= 0 {
		limit = 20
	}
	var reps []EncounterReport
	if err := r.db.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&reps).Error; err != nil {
		return nil, err
	}
	return reps, nil
}
