package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/headlines/internal/news"
)

// articleMarkdown lays out an article for the reader.
func articleMarkdown(article news.Article) string {
	var b strings.Builder
	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "*By: %s*\n\n", article.Byline())

	if article.HasURL() {
		fmt.Fprintf(&b, "[Read Online](%s)\n\n", article.URL)
	}
	if article.ImageURL != "" {
		fmt.Fprintf(&b, "[Image](%s)\n\n", article.ImageURL)
	}

	b.WriteString("---\n\n")
	if desc := strings.TrimSpace(article.Description); desc != "" {
		b.WriteString(desc)
	} else {
		b.WriteString("_No description available._")
	}
	b.WriteString("\n")
	return b.String()
}

// renderArticle renders off the program goroutine. The renderer is built by
// the caller because it is cached on the App.
func renderArticle(article news.Article, r *glamour.TermRenderer) tea.Cmd {
	return func() tea.Msg {
		md := articleMarkdown(article)
		if r == nil {
			return articleRenderedMsg{content: md}
		}
		rendered, err := r.Render(md)
		if err != nil {
			return articleRenderedMsg{content: fmt.Sprintf("Failed to render article: %v\n\nPress Esc to go back.", err)}
		}
		return articleRenderedMsg{content: rendered}
	}
}

func (a *App) openLink(article news.Article) tea.Cmd {
	launcher := a.launcher
	return func() tea.Msg {
		if err := launcher.OpenArticle(article); err != nil {
			return errorMsg{err: wrapErr("open link", err)}
		}
		return statusMsg{text: MsgOpenedLink + ": " + truncateMiddle(article.URL, 60), kind: StatusSuccess}
	}
}

func (a *App) openImage(article news.Article) tea.Cmd {
	launcher := a.launcher
	return func() tea.Msg {
		if err := launcher.OpenImage(article); err != nil {
			return errorMsg{err: wrapErr("open image", err)}
		}
		return statusMsg{text: MsgOpenedImage, kind: StatusSuccess}
	}
}
