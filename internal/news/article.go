// Package news holds the article value type and the partition model shared
// by the store, the remote client and the pager.
package news

// Article is a single headline. Empty strings stand for absent fields.
type Article struct {
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"urlToImage"`
	URL         string `json:"url"`
}

// HasURL reports whether the article carries a dedup key.
func (a Article) HasURL() bool {
	return a.URL != ""
}

// Byline returns the author for display, falling back to "Unknown".
func (a Article) Byline() string {
	if a.Author == "" {
		return "Unknown"
	}
	return a.Author
}
