package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"paper_go/internal/domain"
	"paper_go/pkg/quant"
)

// Store persists account snapshots, the event journal, and engine settings
// in a local SQLite database.
type Store struct {
	db *gorm.DB
}

// accountRow is the singleton cash row.
type accountRow struct {
	ID         uint `gorm:"primaryKey"`
	CashMicros int64
	TakenUnixM int64
}

// positionRow mirrors domain.Position for persistence.
type positionRow struct {
	Symbol              string `gorm:"primaryKey"`
	QtySats             int64
	AvgEntryPriceMicros int64
	RealizedPnLMicros   int64
}

// orderRow mirrors an open domain.Order for persistence.
type orderRow struct {
	ID           string `gorm:"primaryKey"`
	Symbol       string
	Side         string
	Type         string
	PriceMicros  int64
	QtySats      int64
	FilledSats   int64
	Status       string
	CreatedUnixM int64
}

// eventRow is one journaled engine event.
type eventRow struct {
	Seq     uint64 `gorm:"primaryKey"`
	Type    string
	Payload string
}

// settingRow is a key-value engine setting.
type settingRow struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// NewStore opens (or creates) the database at path. An empty path selects
// the per-user data directory.
func NewStore(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = defaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&accountRow{}, &positionRow{}, &orderRow{}, &eventRow{}, &settingRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// defaultDBPath resolves the database file path based on OS.
func defaultDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "PaperGo", "data", "paper.db"), nil
}

// SaveSnapshot replaces the stored account state in one transaction.
func (s *Store) SaveSnapshot(snap domain.AccountSnapshot) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return saveSnapshotTx(tx, snap)
	})
}

// Checkpoint atomically replaces the snapshot and drops the journal rows it
// supersedes. Either both land or neither does; a half-applied shutdown would
// otherwise make the next start replay events the snapshot already contains.
func (s *Store) Checkpoint(snap domain.AccountSnapshot, journalUpTo uint64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := saveSnapshotTx(tx, snap); err != nil {
			return err
		}
		return tx.Where("seq <= ?", journalUpTo).Delete(&eventRow{}).Error
	})
}

func saveSnapshotTx(tx *gorm.DB, snap domain.AccountSnapshot) error {
	acct := accountRow{ID: 1, CashMicros: snap.CashMicros, TakenUnixM: int64(snap.TakenUnixM)}
	if err := tx.Save(&acct).Error; err != nil {
		return err
	}

	if err := tx.Where("1 = 1").Delete(&positionRow{}).Error; err != nil {
		return err
	}
	for _, p := range snap.Positions {
		row := positionRow{
			Symbol:              p.Symbol,
			QtySats:             int64(p.QtySats),
			AvgEntryPriceMicros: int64(p.AvgEntryPriceMicros),
			RealizedPnLMicros:   p.RealizedPnLMicros,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}

	if err := tx.Where("1 = 1").Delete(&orderRow{}).Error; err != nil {
		return err
	}
	for _, o := range snap.OpenOrders {
		row := orderRow{
			ID:           o.ID,
			Symbol:       o.Symbol,
			Side:         string(o.Side),
			Type:         string(o.Type),
			PriceMicros:  int64(o.PriceMicros),
			QtySats:      int64(o.QtySats),
			FilledSats:   int64(o.FilledSats),
			Status:       string(o.Status),
			CreatedUnixM: int64(o.CreatedUnixM),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}

	return nil
}

// LoadSnapshot returns the stored account state, or nil when the store is
// fresh. Not found is not an error.
func (s *Store) LoadSnapshot() (*domain.AccountSnapshot, error) {
	var acct accountRow
	err := s.db.First(&acct, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var positions []positionRow
	if err := s.db.Order("symbol").Find(&positions).Error; err != nil {
		return nil, err
	}
	var orders []orderRow
	if err := s.db.Order("created_unix_m, id").Find(&orders).Error; err != nil {
		return nil, err
	}

	snap := &domain.AccountSnapshot{
		CashMicros: acct.CashMicros,
		TakenUnixM: quant.TimeStamp(acct.TakenUnixM),
	}
	for _, p := range positions {
		snap.Positions = append(snap.Positions, domain.Position{
			Symbol:              p.Symbol,
			QtySats:             quant.QtySats(p.QtySats),
			AvgEntryPriceMicros: quant.PriceMicros(p.AvgEntryPriceMicros),
			RealizedPnLMicros:   p.RealizedPnLMicros,
		})
	}
	for _, o := range orders {
		snap.OpenOrders = append(snap.OpenOrders, domain.Order{
			ID:           o.ID,
			Symbol:       o.Symbol,
			Side:         domain.Side(o.Side),
			Type:         domain.OrderType(o.Type),
			PriceMicros:  quant.PriceMicros(o.PriceMicros),
			QtySats:      quant.QtySats(o.QtySats),
			FilledSats:   quant.QtySats(o.FilledSats),
			Status:       domain.OrderStatus(o.Status),
			CreatedUnixM: quant.TimeStamp(o.CreatedUnixM),
		})
	}

	return snap, nil
}

// AppendEvent journals one admitted engine event (WAL-first contract).
func (s *Store) AppendEvent(seq uint64, typ string, ev any) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	row := eventRow{Seq: seq, Type: typ, Payload: string(payload)}
	return s.db.Create(&row).Error
}

// ReplayEvents streams journaled events with seq > after, in order.
func (s *Store) ReplayEvents(after uint64, fn func(seq uint64, typ string, payload []byte) error) error {
	var rows []eventRow
	if err := s.db.Where("seq > ?", after).Order("seq").Find(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		if err := fn(row.Seq, row.Type, []byte(row.Payload)); err != nil {
			return err
		}
	}
	return nil
}

// PruneEvents drops journal entries with seq <= upTo. Called after a
// snapshot makes them redundant.
func (s *Store) PruneEvents(upTo uint64) error {
	return s.db.Where("seq <= ?", upTo).Delete(&eventRow{}).Error
}

// SaveSetting stores one engine setting.
func (s *Store) SaveSetting(key, value string) error {
	row := settingRow{Key: key, Value: value}
	return s.db.Save(&row).Error
}

// LoadSettings returns all stored engine settings as a map.
func (s *Store) LoadSettings() (map[string]string, error) {
	var rows []settingRow
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]string)
	for _, row := range rows {
		result[row.Key] = row.Value
	}
	return result, nil
}
