package controller

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffHTML(t *testing.T) {
	got := string(DiffHTML("the quick brown fox", "the slow brown fox"))

	assert.Contains(t, got, "<del>quick</del>")
	assert.Contains(t, got, "<ins>slow</ins>")
	assert.Contains(t, got, "<span>the </span>")
}

func TestDiffHTMLEscapes(t *testing.T) {
	got := string(DiffHTML("<p>old</p>", "<p>new</p>"))

	// Revision text must not leak raw markup into the diff view.
	assert.NotContains(t, got, "<p>")
	assert.Contains(t, got, "&lt;p&gt;")
}

func TestDiffHTMLEqual(t *testing.T) {
	got := string(DiffHTML("same", "same"))
	assert.Equal(t, "<span>same</span>", got)
	assert.False(t, strings.Contains(got, "<ins>"))
}
