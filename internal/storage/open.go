package storage

import (
	"fmt"
	"time"

	"github.com/pders01/headlines/internal/news"
)

const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

// ArticleStore is what both backends provide.
type ArticleStore interface {
	Query(p news.Partition, page, pageSize int) ([]news.Article, error)
	InsertAll(p news.Partition, articles []news.Article) error
	StoredURLs() (map[string]struct{}, error)
	Count(p news.Partition) (int, error)
	Partitions() ([]PartitionCount, error)
	Close() error
}

var (
	_ ArticleStore = (*Store)(nil)
	_ ArticleStore = (*SQLiteStore)(nil)
)

// Open selects the backend by driver name. An empty driver means bolt.
func Open(driver, path string, timeout time.Duration) (ArticleStore, error) {
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	switch driver {
	case "", DriverBolt:
		return newStore(path, timeout)
	case DriverSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}
