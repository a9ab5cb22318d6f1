package history

import (
	"fmt"
	"slices"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HistoryManager struct {
	db *gorm.DB
}

// RunEntry records one generation run.
type RunEntry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`

	RunID     string `gorm:"uniqueIndex"`
	Root      string `gorm:"index"`
	Source    string
	Overrides string
	Output    string
	Format    string
	RuleCount int
	Err       string
}

// Failed reports whether the run ended in an error.
func (e RunEntry) Failed() bool {
	return e.Err != ""
}

func NewHistoryManager(dbFilePath string) (*HistoryManager, error) {
	// - busy_timeout(5000): concurrent runs wait on the lock instead of failing
	// - synchronous(1): NORMAL mode for durability/performance balance
	// - temp_store(2): MEMORY
	connectionString := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(1)&_pragma=temp_store(2)", dbFilePath)

	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database %s: %w", dbFilePath, err)
	}

	if err := db.AutoMigrate(&RunEntry{}); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// SQLite serializes writes anyway, so multiple connections add overhead
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &HistoryManager{
		db: db,
	}, nil
}

// Close closes the database connection. Tests need this to remove the
// temporary database file on Windows.
func (historyManager *HistoryManager) Close() error {
	sqlDB, err := historyManager.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record stores a run. A run ID is assigned when the entry has none.
func (historyManager *HistoryManager) Record(entry RunEntry) (*RunEntry, error) {
	if entry.RunID == "" {
		entry.RunID = uuid.NewString()
	}

	result := historyManager.db.Create(&entry)
	if result.Error != nil {
		return nil, result.Error
	}

	return &entry, nil
}

// GetRecentEntries returns the newest limit runs, oldest first.
func (historyManager *HistoryManager) GetRecentEntries(limit int) ([]RunEntry, error) {
	var entries []RunEntry
	result := historyManager.db.Order("created_at desc").Order("id desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	slices.Reverse(entries)
	return entries, nil
}

// GetEntriesForRoot returns every run of the given root command, newest first.
func (historyManager *HistoryManager) GetEntriesForRoot(root string) ([]RunEntry, error) {
	var entries []RunEntry
	result := historyManager.db.Where("root = ?", root).
		Order("created_at desc").
		Order("id desc").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}

func (historyManager *HistoryManager) GetTotalCount() (int64, error) {
	var count int64
	result := historyManager.db.Model(&RunEntry{}).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

func (historyManager *HistoryManager) DeleteEntry(id uint) error {
	result := historyManager.db.Delete(&RunEntry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no run found with id %d", id)
	}

	return nil
}

func (historyManager *HistoryManager) ResetHistory() error {
	result := historyManager.db.Exec("DELETE FROM run_entries")
	if result.Error != nil {
		return result.Error
	}

	return nil
}
