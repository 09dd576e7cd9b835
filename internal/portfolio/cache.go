package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"EarningsTicker/internal/model"
)

// snapshot is the on-disk shape of the cache file.
type snapshot struct {
	Investments []model.InvestmentRecord `json:"investments"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// Cache keeps the last fetched investment list in a JSON file.
type Cache struct {
	mu       sync.Mutex
	filePath string
}

// NewCache creates a Cache backed by filePath.
func NewCache(filePath string) *Cache {
	return &Cache{filePath: filePath}
}

// Load reads the cached investments. Returns an empty list if the file doesn't exist.
func (c *Cache) Load() ([]model.InvestmentRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse cache: %w", err)
	}
	return snap.Investments, nil
}

// Save writes the investments to the cache file, creating its directory if needed.
func (c *Cache) Save(records []model.InvestmentRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(snapshot{Investments: records, UpdatedAt: time.Now()}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.filePath), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	return os.WriteFile(c.filePath, data, 0644)
}
