package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgLoading        = "Loading…"
	MsgLoadingArticle = "Loading article…"
	MsgOpenedLink     = "Opened article in browser"
	MsgOpenedImage    = "Opened image"

	MsgEmptySearch = "There's no news for your search or you have no cached news for it. " +
		"Please, check your internet connection or try another search or browse available categories."

	MsgEmptyCategory = "There's no recent news in this category or you have no cached news in it. " +
		"Please, check your internet connection or choose another one or use the search bar on the previous page"
)

func MsgSearching(value string) string {
	return fmt.Sprintf("Searching '%s'…", strings.TrimSpace(value))
}

func MsgArticleCount(n int) string {
	if n == 1 {
		return "1 article"
	}
	return fmt.Sprintf("%d articles", n)
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
}

func (a *App) clearStatus() {
	a.status = ""
	a.statusKind = StatusInfo
}
