package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/pders01/headlines/internal/news"
)

// SQLiteStore keeps the same record layout in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS articles (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			title        TEXT NOT NULL DEFAULT '',
			url_to_image TEXT NOT NULL DEFAULT '',
			author       TEXT NOT NULL DEFAULT '',
			description  TEXT NOT NULL DEFAULT '',
			category     TEXT NOT NULL DEFAULT '',
			keyword      TEXT NOT NULL DEFAULT '',
			url          TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category, id);
		CREATE INDEX IF NOT EXISTS idx_articles_keyword ON articles(keyword, id);
		CREATE INDEX IF NOT EXISTS idx_articles_url ON articles(url);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertAll(p news.Partition, articles []news.Article) error {
	if _, ok := partitionColumn(p); !ok {
		return persistErr("insert", fmt.Errorf("%w: %s", ErrInvalidPartition, p))
	}
	if len(articles) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return persistErr("insert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO articles (title, url_to_image, author, description, category, keyword, url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return persistErr("insert", err)
	}
	defer stmt.Close()

	for _, a := range articles {
		r := newRecord(p, a)
		if _, err := stmt.Exec(r.Title, r.URLToImage, r.Author, r.Description, r.Category, r.Keyword, r.URL); err != nil {
			return persistErr("insert", err)
		}
	}
	return persistErr("insert", tx.Commit())
}

func (s *SQLiteStore) Query(p news.Partition, page, pageSize int) ([]news.Article, error) {
	articles := []news.Article{}
	column, ok := partitionColumn(p)
	if !ok || pageSize <= 0 {
		return articles, nil
	}

	rows, err := s.db.Query(`
		SELECT title, url_to_image, author, description, url
		FROM articles WHERE `+column+` = ?
		ORDER BY id LIMIT ? OFFSET ?`,
		p.Value, pageSize, offset(page, pageSize))
	if err != nil {
		return articles, persistErr("query", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Title, &r.URLToImage, &r.Author, &r.Description, &r.URL); err != nil {
			return []news.Article{}, persistErr("query", err)
		}
		articles = append(articles, r.Article())
	}
	if err := rows.Err(); err != nil {
		return []news.Article{}, persistErr("query", err)
	}
	return articles, nil
}

func (s *SQLiteStore) StoredURLs() (map[string]struct{}, error) {
	rows, err := s.db.Query(`SELECT DISTINCT url FROM articles WHERE url != ''`)
	if err != nil {
		return nil, persistErr("urls", err)
	}
	defer rows.Close()

	urls := make(map[string]struct{})
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, persistErr("urls", err)
		}
		urls[u] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("urls", err)
	}
	return urls, nil
}

func (s *SQLiteStore) Count(p news.Partition) (int, error) {
	column, ok := partitionColumn(p)
	if !ok {
		return 0, nil
	}
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM articles WHERE `+column+` = ?`, p.Value).Scan(&n)
	return n, persistErr("count", err)
}

func (s *SQLiteStore) Partitions() ([]PartitionCount, error) {
	rows, err := s.db.Query(`
		SELECT 'category', category, COUNT(*) FROM articles WHERE category != '' GROUP BY category
		UNION ALL
		SELECT 'keyword', keyword, COUNT(*) FROM articles WHERE keyword != '' GROUP BY keyword
		ORDER BY 1, 2`)
	if err != nil {
		return nil, persistErr("partitions", err)
	}
	defer rows.Close()

	var out []PartitionCount
	for rows.Next() {
		var scheme, value string
		var n int
		if err := rows.Scan(&scheme, &value, &n); err != nil {
			return nil, persistErr("partitions", err)
		}
		p := news.Category(value)
		if scheme == "keyword" {
			p = news.Keyword(value)
		}
		out = append(out, PartitionCount{Partition: p, Count: n})
	}
	return out, persistErr("partitions", rows.Err())
}

func partitionColumn(p news.Partition) (string, bool) {
	if p.Value == "" {
		return "", false
	}
	switch p.Scheme {
	case news.SchemeCategory:
		return "category", true
	case news.SchemeKeyword:
		return "keyword", true
	default:
		return "", false
	}
}
