// Package pager keeps an append-only article list for one query partition
// in step with the local store and the remote search service.
//
// A Controller is owned by a single goroutine. Every operation must be called
// from it, and remote results come back to it through a Loop, so the view
// state and the Renderer never need locking.
package pager

import (
	"context"

	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/newsapi"
)

// Store is the slice of the article store the controller needs.
type Store interface {
	Query(p news.Partition, page, pageSize int) ([]news.Article, error)
	InsertAll(p news.Partition, articles []news.Article) error
	StoredURLs() (map[string]struct{}, error)
}

// Searcher executes one remote search. It may block and is always called
// off the owning goroutine.
type Searcher interface {
	Search(ctx context.Context, p news.Partition, page, pageSize int) (*newsapi.SearchResult, error)
}

// Renderer is the presentation port. Calls arrive on the owning goroutine.
type Renderer interface {
	// ReplaceAll replaces the whole visible list.
	ReplaceAll(articles []news.Article)
	// AppendMore adds a page to the end of the visible list.
	AppendMore(articles []news.Article)
	SetLoading(loading bool)
}

// Loop runs posted functions on the owning goroutine, in order.
type Loop interface {
	Post(fn func())
}

// Policy holds the behaviours that differ between the category and keyword
// screens.
type Policy struct {
	// FallbackToCacheOnFailure re-reads the current page from the store when
	// a search fails and nothing is on screen.
	FallbackToCacheOnFailure bool
	// DiscardStaleResponses drops results issued for a partition or page the
	// view no longer shows.
	DiscardStaleResponses bool
}

func CategoryPolicy() Policy {
	return Policy{}
}

func KeywordPolicy() Policy {
	return Policy{FallbackToCacheOnFailure: true}
}

// State is the controller's request state.
type State int

const (
	Idle State = iota
	LoadingNewQuery
	LoadingNextPage
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingNewQuery:
		return "loading-new-query"
	case LoadingNextPage:
		return "loading-next-page"
	default:
		return "unknown"
	}
}

// ViewState is a copy of what the controller believes is on screen.
type ViewState struct {
	Partition news.Partition
	Page      int
	Loading   bool
	Articles  []news.Article
}
