package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planora/provider-discovery/internal/taxonomy"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "discover", "locate", "categories"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "provider-discovery", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestDiscoverCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range discoverCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["category"])
	assert.True(t, names["text"])
	assert.True(t, names["batch"])

	format := discoverCmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "json", format.DefValue)
}

func TestDiscoverCategoryCommand_Flags(t *testing.T) {
	for _, name := range []string{"name", "category", "location", "lat", "lng"} {
		assert.NotNil(t, discoverCategoryCmd.Flags().Lookup(name), name)
	}
}

func TestDiscoverTextCommand_Flags(t *testing.T) {
	for _, name := range []string{"query", "location", "lat", "lng"} {
		assert.NotNil(t, discoverTextCmd.Flags().Lookup(name), name)
	}
}

func TestBatchCommand_Flags(t *testing.T) {
	require.NotNil(t, discoverBatchCmd.Flags().Lookup("file"))
	flag := discoverBatchCmd.Flags().Lookup("concurrency")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestLocateSearchCommand_Flags(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range locateCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["search"])

	for _, name := range []string{"query", "lat", "lng"} {
		assert.NotNil(t, locateSearchCmd.Flags().Lookup(name), name)
	}
}

func TestCategoriesCommand_PrintsTable(t *testing.T) {
	var buf bytes.Buffer
	categoriesCmd.SetOut(&buf)
	t.Cleanup(func() { categoriesCmd.SetOut(nil) })

	require.NoError(t, categoriesCmd.RunE(categoriesCmd, nil))

	var got []categoryEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, len(taxonomy.Categories()))
	assert.Equal(t, taxonomy.Categories()[0], got[0].Name)
	assert.Equal(t, taxonomy.TypesFor(got[0].Name), got[0].PlaceTypes)
}
