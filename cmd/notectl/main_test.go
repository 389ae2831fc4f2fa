package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notechat/internal/rag"
)

func TestQueryCommand_RequiresText(t *testing.T) {
	app := newCLI()
	var out bytes.Buffer
	app.Writer = &out

	err := app.Run([]string{"notectl", "query", "--k", "3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query text is required")
}

func TestCLI_Commands(t *testing.T) {
	app := newCLI()
	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.ElementsMatch(t, []string{"ingest", "query", "count", "folders", "stats"}, names)
}

func TestPrintResults(t *testing.T) {
	t.Run("no results", func(t *testing.T) {
		var out bytes.Buffer
		printResults(&out, rag.QueryResponse{MaxDistance: 19})
		assert.Equal(t, "no chunks within distance 19.00\n", out.String())
	})

	t.Run("ranked results", func(t *testing.T) {
		var out bytes.Buffer
		printResults(&out, rag.QueryResponse{Results: []rag.Result{
			{Rank: 1, NoteTitle: "Trip", FolderName: "Travel", Distance: 0.25, ChunkIndex: 0, Content: "Title: Trip\n\nContent: Paris"},
		}})
		assert.Equal(t, "1. Trip [Travel] distance=0.2500 chunk=0\n   Title: Trip Content: Paris\n", out.String())
	})
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b", preview("a\n\n b", 10))
	assert.Equal(t, "abc...", preview("abcdef", 3))
}
