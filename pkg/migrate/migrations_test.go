package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/ppekeeper-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestAssignmentsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_assignments.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS assignments",
		"FOREIGN KEY (employee_id) REFERENCES employees(id) ON DELETE CASCADE",
		"FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE RESTRICT",
		"FOREIGN KEY (master_item_id) REFERENCES master_items(id) ON DELETE SET NULL",
		"DROP TABLE IF EXISTS assignments",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCatalogMigrationGuardsStock(t *testing.T) {
	content := readMigration(t, "*_create_catalog.sql")

	checks := []string{
		"CHECK (current_stock >= 0)",
		"CONSTRAINT uq_master_items_code UNIQUE (code)",
		"CONSTRAINT uq_categories_name UNIQUE (name)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestSettingsMigrationSeedsCapacityDefaults(t *testing.T) {
	content := readMigration(t, "*_create_audit_and_settings.sql")

	for _, row := range []string{
		"('max_active_suits', 3)",
		"('max_active_hats', 3)",
		"('max_active_safety_shoes', 1)",
		"('max_active_canvas_shoes', 1)",
	} {
		if !strings.Contains(content, row) {
			t.Errorf("missing default row %q", row)
		}
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Locker Index!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_locker_index.sql") {
		t.Fatalf("unexpected migration path %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestValidateDirRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n")
	for _, name := range []string{"20260101000000_first.sql", "20260101000000_second.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected duplicate version error")
	}
}

func TestListFilesOrdersByVersion(t *testing.T) {
	files, err := migrate.ListFiles("migrations")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) < 2 {
		t.Fatalf("expected migrations, got %d", len(files))
	}
	if files[0].Name != "create_ppe_enums" {
		t.Fatalf("first migration = %s", files[0].Name)
	}
	for i := 1; i < len(files); i++ {
		if files[i-1].Version >= files[i].Version {
			t.Fatalf("files out of order: %s then %s", files[i-1].Version, files[i].Version)
		}
	}
}
