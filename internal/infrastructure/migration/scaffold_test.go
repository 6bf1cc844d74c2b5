package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"add unit pricing":   "add_unit_pricing",
		"Add-Unit-Pricing":   "add_unit_pricing",
		"  billing!! v2  ":   "billing_v2",
		"ALREADY_GOOD":       "already_good",
		"///":                "",
		"drop   extra  gaps": "drop_extra_gaps",
	}
	for in, want := range cases {
		assert.Equal(t, want, slugify(in), "input %q", in)
	}
}

func TestScaffoldWritesPair(t *testing.T) {
	dir := t.TempDir()

	sm, err := Scaffold(dir, "add unit pricing")
	require.NoError(t, err)
	require.Len(t, sm.Version, len(versionLayout))

	assert.Equal(t, filepath.Join(dir, sm.Version+"_add_unit_pricing.up.sql"), sm.UpPath)
	assert.Equal(t, filepath.Join(dir, sm.Version+"_add_unit_pricing.down.sql"), sm.DownPath)

	up, err := os.ReadFile(sm.UpPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(up), "-- add_unit_pricing"))

	down, err := os.ReadFile(sm.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "rollback of add_unit_pricing")
}

func TestScaffoldCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := Scaffold(dir, "init")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestScaffoldRejectsEmptySlug(t *testing.T) {
	_, err := Scaffold(t.TempDir(), "!!!")
	assert.Error(t, err)
}

func TestListReturnsSortedPairs(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{
		"20260301000002_add_meters.up.sql",
		"20260301000002_add_meters.down.sql",
		"20260301000001_create_billing_tables.up.sql",
		"20260301000001_create_billing_tables.down.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- x\n"), 0o644))
	}

	names, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"20260301000001_create_billing_tables",
		"20260301000002_add_meters",
	}, names)
}

func TestListMissingDirectory(t *testing.T) {
	names, err := List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestListSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.up.sql"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301000001_init.up.sql"), []byte("-- x\n"), 0o644))

	names, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260301000001_init"}, names)
}
