package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/pager"
)

var (
	flagFetchCategory string
	flagFetchKeyword  string
	flagFetchPages    int
	flagFetchJSON     bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch articles without the UI and print them",
	Long: `Fetch runs the same cache-then-remote cycle as the UI for one keyword or
category and prints the resulting list. New articles are stored as usual,
which makes it useful for warming the cache from cron.`,
	Example: `  headlines fetch --keyword golang --pages 2
  headlines fetch --category technology --json`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&flagFetchCategory, "category", "", "category to fetch ("+strings.Join(news.Categories, ", ")+")")
	fetchCmd.Flags().StringVar(&flagFetchKeyword, "keyword", "", "keyword to search for")
	fetchCmd.Flags().IntVar(&flagFetchPages, "pages", 1, "number of pages to load")
	fetchCmd.Flags().BoolVar(&flagFetchJSON, "json", false, "print articles as JSON")
	fetchCmd.MarkFlagsMutuallyExclusive("category", "keyword")
	fetchCmd.MarkFlagsOneRequired("category", "keyword")
}

// listRenderer mirrors what a screen would show.
type listRenderer struct {
	articles []news.Article
	progress io.Writer
}

func (r *listRenderer) ReplaceAll(articles []news.Article) {
	r.articles = articles
}

func (r *listRenderer) AppendMore(articles []news.Article) {
	r.articles = append(r.articles, articles...)
}

func (r *listRenderer) SetLoading(loading bool) {
	if loading && r.progress != nil {
		fmt.Fprint(r.progress, ".")
	}
}

func runFetch(cmd *cobra.Command, args []string) error {
	if flagFetchPages < 1 {
		return fmt.Errorf("--pages must be at least 1")
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	scheme, value := news.SchemeKeyword, flagFetchKeyword
	if flagFetchCategory != "" {
		scheme, value = news.SchemeCategory, flagFetchCategory
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	queue := pager.NewQueue(4)
	ctrl := pager.New(e.store, e.client, queue,
		pager.WithScheme(scheme),
		pager.WithPageSize(e.cfg.Pager.PageSize),
		pager.WithMetrics(e.recorder),
	)
	r := &listRenderer{progress: cmd.ErrOrStderr()}
	ctrl.Attach(r)
	defer ctrl.Detach()

	if err := ctrl.Search(ctx, value); err != nil {
		return err
	}
	if err := waitIdle(ctx, ctrl, queue); err != nil {
		return err
	}
	for page := 2; page <= flagFetchPages; page++ {
		before := len(r.articles)
		ctrl.LoadNextPage(ctx)
		if err := waitIdle(ctx, ctrl, queue); err != nil {
			return err
		}
		if len(r.articles) == before {
			break
		}
	}
	fmt.Fprintln(cmd.ErrOrStderr())

	return printArticles(cmd.OutOrStdout(), r.articles, flagFetchJSON)
}

// waitIdle runs continuations on this goroutine until the controller has
// no request outstanding.
func waitIdle(ctx context.Context, ctrl *pager.Controller, queue *pager.Queue) error {
	for ctrl.State() != pager.Idle {
		if err := queue.RunNext(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return fmt.Errorf("fetch interrupted")
			}
			return err
		}
	}
	return nil
}

func printArticles(w io.Writer, articles []news.Article, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(articles)
	}
	if len(articles) == 0 {
		fmt.Fprintln(w, "No articles.")
		return nil
	}
	for i, a := range articles {
		title := a.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(w, "%3d. %s\n", i+1, title)
		fmt.Fprintf(w, "     By: %s\n", a.Byline())
		if a.HasURL() {
			fmt.Fprintf(w, "     %s\n", a.URL)
		}
	}
	return nil
}
