package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pders01/headlines/internal/news"
)

var (
	articlesBucket = []byte("articles")
	indexBucket    = []byte("index")
	urlsBucket     = []byte("urls")

	present = []byte{1}

	schemeBuckets = map[news.Scheme][]byte{
		news.SchemeCategory: []byte("category"),
		news.SchemeKeyword:  []byte("keyword"),
	}
)

// Store is the bbolt-backed article store. Records live in the articles
// bucket under their insertion sequence; index/<scheme>/<value> holds the
// sequence ids of each partition so a page is a cursor walk.
type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return newStore(dbPath, 1*time.Second)
}

func newStore(dbPath string, timeout time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database dir: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{articlesBucket, urlsBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		idx, createErr := tx.CreateBucketIfNotExists(indexBucket)
		if createErr != nil {
			return createErr
		}
		for _, name := range schemeBuckets {
			if _, createErr := idx.CreateBucketIfNotExists(name); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InsertAll appends every article tagged with p. It does not check for
// existing urls.
func (s *Store) InsertAll(p news.Partition, articles []news.Article) error {
	name, ok := schemeBuckets[p.Scheme]
	if !ok || p.Value == "" {
		return persistErr("insert", fmt.Errorf("%w: %s", ErrInvalidPartition, p))
	}
	if len(articles) == 0 {
		return nil
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		part, err := tx.Bucket(indexBucket).Bucket(name).CreateBucketIfNotExists([]byte(p.Value))
		if err != nil {
			return err
		}
		urls := tx.Bucket(urlsBucket)

		for _, article := range articles {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			key := itob(seq)
			data, err := json.Marshal(newRecord(p, article))
			if err != nil {
				return err
			}
			if err := b.Put(key, data); err != nil {
				return err
			}
			if err := part.Put(key, present); err != nil {
				return err
			}
			if article.URL != "" && urls.Get([]byte(article.URL)) == nil {
				if err := urls.Put([]byte(article.URL), key); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return persistErr("insert", err)
}

// Query returns one page of the partition in insertion order. Unknown
// partitions and windows past the end yield an empty slice.
func (s *Store) Query(p news.Partition, page, pageSize int) ([]news.Article, error) {
	articles := []news.Article{}
	if pageSize <= 0 {
		return articles, nil
	}
	skip := offset(page, pageSize)

	err := s.db.View(func(tx *bolt.Tx) error {
		part := s.partitionBucket(tx, p)
		if part == nil {
			return nil
		}
		b := tx.Bucket(articlesBucket)
		c := part.Cursor()
		for k, _ := c.First(); k != nil && len(articles) < pageSize; k, _ = c.Next() {
			if skip > 0 {
				skip--
				continue
			}
			data := b.Get(k)
			if data == nil {
				continue
			}
			var r Record
			if err := json.Unmarshal(data, &r); err != nil {
				return fmt.Errorf("decoding record %d: %w", binary.BigEndian.Uint64(k), err)
			}
			articles = append(articles, r.Article())
		}
		return nil
	})
	if err != nil {
		return []news.Article{}, persistErr("query", err)
	}
	return articles, nil
}

// StoredURLs returns every persisted url across all partitions.
func (s *Store) StoredURLs() (map[string]struct{}, error) {
	urls := make(map[string]struct{})
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(urlsBucket).ForEach(func(k, _ []byte) error {
			urls[string(k)] = struct{}{}
			return nil
		})
	})
	if err != nil {
		return nil, persistErr("urls", err)
	}
	return urls, nil
}

func (s *Store) Count(p news.Partition) (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		part := s.partitionBucket(tx, p)
		if part == nil {
			return nil
		}
		n = part.Stats().KeyN
		return nil
	})
	return n, persistErr("count", err)
}

// Partitions lists every partition with at least one record, categories
// first, each group sorted by value.
func (s *Store) Partitions() ([]PartitionCount, error) {
	var out []PartitionCount
	err := s.db.View(func(tx *bolt.Tx) error {
		idx := tx.Bucket(indexBucket)
		for _, scheme := range []news.Scheme{news.SchemeCategory, news.SchemeKeyword} {
			sb := idx.Bucket(schemeBuckets[scheme])
			var group []PartitionCount
			err := sb.ForEach(func(k, v []byte) error {
				if v != nil {
					return nil
				}
				part := sb.Bucket(k)
				group = append(group, PartitionCount{
					Partition: news.Partition{Scheme: scheme, Value: string(k)},
					Count:     part.Stats().KeyN,
				})
				return nil
			})
			if err != nil {
				return err
			}
			sort.Slice(group, func(i, j int) bool {
				return group[i].Partition.Value < group[j].Partition.Value
			})
			out = append(out, group...)
		}
		return nil
	})
	return out, persistErr("partitions", err)
}

func (s *Store) partitionBucket(tx *bolt.Tx, p news.Partition) *bolt.Bucket {
	name, ok := schemeBuckets[p.Scheme]
	if !ok || p.Value == "" {
		return nil
	}
	return tx.Bucket(indexBucket).Bucket(name).Bucket([]byte(p.Value))
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
