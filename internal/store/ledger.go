/*
Package store
File: ledger.go
Description:
    The production ledger: an append-only SQLite table with one row per
    resource movement per tick. It answers "what did this building do"
    and "how much of each resource has the floor made".

    The ledger is a history, not a save file. Nothing is ever read back
    into the Factory.
*/

package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/everforgeworks/factory-sim/internal/game"
)

const (
	Consumed = "consumed"
	Produced = "produced"
)

// Sources of a record. A step row carries the tick it belongs to; a produce
// row carries the last completed tick at the time of the call.
const (
	SourceStep    = "step"
	SourceProduce = "produce"
)

// ProductionRecord is one resource movement inside one building.
type ProductionRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Tick       uint64  `gorm:"index" json:"tick"`
	Source     string  `gorm:"index;size:16" json:"source"`
	BuildingID string  `gorm:"index;size:36" json:"building_id"`
	Building   string  `json:"building"`
	Resource   string  `gorm:"index" json:"resource"`
	Direction  string  `json:"direction"`
	Amount     float64 `json:"amount"`
}

// Total is the summed amount of one resource in one direction.
type Total struct {
	Resource  string  `json:"resource"`
	Direction string  `json:"direction"`
	Amount    float64 `json:"amount"`
}

// Ledger records tick reports.
type Ledger struct {
	db *gorm.DB
}

// Open connects to a SQLite file (or ":memory:") and migrates the schema.
func Open(path string) (*Ledger, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; an in-memory database exists per connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&ProductionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the connection.
func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record writes every movement of a step or a single produce call in one
// transaction.
func (l *Ledger) Record(ctx context.Context, tick uint64, source string, reports []game.Report) error {
	var rows []ProductionRecord
	for _, r := range reports {
		rows = append(rows, toRecords(tick, source, r, Consumed, r.Consumed)...)
		rows = append(rows, toRecords(tick, source, r, Produced, r.Produced)...)
	}
	if len(rows) == 0 {
		return nil
	}

	if err := l.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("record %s tick %d: %w", source, tick, err)
	}
	return nil
}

func toRecords(tick uint64, source string, r game.Report, dir string, amounts map[game.ResourceType]float64) []ProductionRecord {
	out := make([]ProductionRecord, 0, len(amounts))
	for _, res := range game.ResourceTypes {
		amt, ok := amounts[res]
		if !ok {
			continue
		}
		out = append(out, ProductionRecord{
			Tick:       tick,
			Source:     source,
			BuildingID: r.BuildingID,
			Building:   r.Type.String(),
			Resource:   res.String(),
			Direction:  dir,
			Amount:     amt,
		})
	}
	return out
}

// History returns the newest records for one building, newest first.
// An empty buildingID returns records for every building.
func (l *Ledger) History(ctx context.Context, buildingID string, limit int) ([]ProductionRecord, error) {
	q := l.db.WithContext(ctx).Order("tick desc, id desc")
	if buildingID != "" {
		q = q.Where("building_id = ?", buildingID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var recs []ProductionRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return recs, nil
}

// Totals sums every resource per direction over the whole history.
func (l *Ledger) Totals(ctx context.Context) ([]Total, error) {
	var totals []Total
	err := l.db.WithContext(ctx).
		Model(&ProductionRecord{}).
		Select("resource, direction, SUM(amount) AS amount").
		Group("resource, direction").
		Order("resource, direction").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("totals: %w", err)
	}
	return totals, nil
}
