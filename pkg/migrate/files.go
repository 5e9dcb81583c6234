package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	versionLayout = "20060102150405"
	upMarker      = "-- +goose Up"
	downMarker    = "-- +goose Down"
)

var (
	unsafeNameRe = regexp.MustCompile(`[^a-z0-9_]+`)
	fileNameRe   = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
)

// File is one versioned SQL migration on disk.
type File struct {
	Version string
	Name    string
	Path    string
}

func slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = unsafeNameRe.ReplaceAllString(strings.ReplaceAll(s, " ", "_"), "_")
	return strings.Trim(s, "_")
}

// CreateSQLMigration writes an empty goose migration named
// <dir>/<YYYYMMDDHHMMSS>_<slug>.sql and returns its path.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := slug(name)
	if safe == "" {
		return "", fmt.Errorf("migration name %q is empty once sanitized", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", time.Now().UTC().Format(versionLayout), safe))
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("migration already exists: %s", path)
	}

	body := strings.Join([]string{
		upMarker,
		"-- +goose StatementBegin",
		"-- " + safe,
		"-- +goose StatementEnd",
		"",
		downMarker,
		"-- +goose StatementBegin",
		"-- revert " + safe,
		"-- +goose StatementEnd",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

// ListFiles returns the SQL migrations in dir ordered by version.
func ListFiles(dir string) ([]File, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	var files []File
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		m := fileNameRe.FindStringSubmatch(entry.Name())
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", entry.Name())
		}
		files = append(files, File{Version: m[1], Name: m[2], Path: filepath.Join(dir, entry.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

// ValidateDir checks names, unique versions, and that every file carries
// both goose sections.
func ValidateDir(dir string) error {
	files, err := ListFiles(dir)
	if err != nil {
		return err
	}
	for i, file := range files {
		if i > 0 && files[i-1].Version == file.Version {
			return fmt.Errorf("duplicate migration version %s (%s, %s)", file.Version, files[i-1].Name, file.Name)
		}
		raw, err := os.ReadFile(file.Path)
		if err != nil {
			return fmt.Errorf("read file %q: %w", file.Path, err)
		}
		text := string(raw)
		up := strings.Index(text, upMarker)
		down := strings.Index(text, downMarker)
		switch {
		case up < 0:
			return fmt.Errorf("migration %q missing %q", file.Path, upMarker)
		case down < 0:
			return fmt.Errorf("migration %q missing %q", file.Path, downMarker)
		case down < up:
			return fmt.Errorf("migration %q has its down section before the up section", file.Path)
		}
	}
	return nil
}
