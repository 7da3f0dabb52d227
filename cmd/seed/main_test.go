package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectURLs(t *testing.T) {
	got := collectURLs(" https://a.example , ,https://b.example", []string{"https://a.example", "https://c.example"})
	assert.Equal(t, []string{"https://a.example", "https://b.example", "https://c.example"}, got)

	assert.Empty(t, collectURLs("", nil))
}
