package storage

import (
	"errors"
	"fmt"

	"github.com/pders01/headlines/internal/news"
)

// Record is the persisted form of an article. Exactly one of Category and
// Keyword is set; the other is stored empty.
type Record struct {
	Title       string `json:"title"`
	URLToImage  string `json:"urlToImage"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Keyword     string `json:"keyword"`
	URL         string `json:"url"`
}

func newRecord(p news.Partition, a news.Article) Record {
	r := Record{
		Title:       a.Title,
		URLToImage:  a.ImageURL,
		Author:      a.Author,
		Description: a.Description,
		URL:         a.URL,
	}
	if p.Scheme == news.SchemeKeyword {
		r.Keyword = p.Value
	} else {
		r.Category = p.Value
	}
	return r
}

func (r Record) Article() news.Article {
	return news.Article{
		Author:      r.Author,
		Title:       r.Title,
		Description: r.Description,
		ImageURL:    r.URLToImage,
		URL:         r.URL,
	}
}

// PartitionCount is one row of the per-partition statistics.
type PartitionCount struct {
	Partition news.Partition
	Count     int
}

// ErrInvalidPartition is returned when articles are filed under a partition
// with an unknown scheme or an empty value.
var ErrInvalidPartition = errors.New("invalid partition")

// PersistenceError reports a failed store read or write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// offset returns the number of records to skip for a 1-based page.
func offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
