package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateEnd(t *testing.T) {
	assert.Equal(t, "", truncateEnd("headline", 0))
	assert.Equal(t, "headline", truncateEnd("headline", 8))
	assert.Equal(t, "head…", truncateEnd("headline", 5))
	assert.Equal(t, "…", truncateEnd("headline", 1))
	assert.Equal(t, "Zür…", truncateEnd("Zürich news", 4))
}

func TestTruncateMiddle(t *testing.T) {
	assert.Equal(t, "https://a.b", truncateMiddle("https://a.b", 20))
	assert.Equal(t, "http…/x/y", truncateMiddle("https://example.com/x/y", 9))
	assert.Equal(t, "…", truncateMiddle("https://example.com", 1))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, clamp(1, 5, 10))
	assert.Equal(t, 10, clamp(11, 5, 10))
	assert.Equal(t, 7, clamp(7, 5, 10))
}
