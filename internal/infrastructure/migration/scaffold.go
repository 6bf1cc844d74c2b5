package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// versionLayout is the golang-migrate sortable version prefix
const versionLayout = "20060102150405"

// ScaffoldedMigration names the file pair Scaffold wrote
type ScaffoldedMigration struct {
	Version  string
	UpPath   string
	DownPath string
}

// Scaffold writes an empty <version>_<slug>.up.sql / .down.sql pair
// into dir, creating the directory when needed. The version is the
// current UTC time so pairs sort in creation order.
func Scaffold(dir, name string) (*ScaffoldedMigration, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	slug := slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}

	now := time.Now().UTC()
	sm := &ScaffoldedMigration{
		Version:  now.Format(versionLayout),
		UpPath:   filepath.Join(dir, now.Format(versionLayout)+"_"+slug+".up.sql"),
		DownPath: filepath.Join(dir, now.Format(versionLayout)+"_"+slug+".down.sql"),
	}

	header := fmt.Sprintf("-- %s\n-- created %s\n\n", slug, now.Format(time.RFC3339))
	if err := os.WriteFile(sm.UpPath, []byte(header), 0o644); err != nil {
		return nil, fmt.Errorf("write up migration: %w", err)
	}
	if err := os.WriteFile(sm.DownPath, []byte(header+"-- rollback of "+slug+"\n"), 0o644); err != nil {
		// Half a pair would confuse golang-migrate; remove the up file.
		_ = os.Remove(sm.UpPath)
		return nil, fmt.Errorf("write down migration: %w", err)
	}
	return sm, nil
}

// List returns the base names of the migration pairs in dir, sorted by
// version. A missing directory is treated as no migrations.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	names := make([]string, 0, len(entries)/2)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base, ok := strings.CutSuffix(entry.Name(), ".up.sql")
		if !ok {
			continue
		}
		names = append(names, base)
	}
	sort.Strings(names)
	return names, nil
}

// slugify lowercases name and collapses everything that is not
// [a-z0-9] into single underscores.
func slugify(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}
