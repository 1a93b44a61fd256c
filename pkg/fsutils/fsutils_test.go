package fsutils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateDir(t *testing.T) {
	tempDir := t.TempDir()

	// Test 1: Create a new directory
	newDirPath := filepath.Join(tempDir, "new_dir")
	if err := CreateDir(newDirPath); err != nil {
		t.Fatalf("Test 1 failed: CreateDir(%q) returned error: %v", newDirPath, err)
	}
	if _, err := os.Stat(newDirPath); os.IsNotExist(err) {
		t.Fatalf("Test 1 failed: Directory %q was not created", newDirPath)
	}

	// Test 2: Create a directory that already exists
	if err := CreateDir(newDirPath); err != nil {
		t.Fatalf("Test 2 failed: CreateDir(%q) on existing dir returned error: %v", newDirPath, err)
	}

	// Test 3: Create nested directories
	nestedDirPath := filepath.Join(tempDir, "parent", "child")
	if err := CreateDir(nestedDirPath); err != nil {
		t.Fatalf("Test 3 failed: CreateDir(%q) for nested dirs returned error: %v", nestedDirPath, err)
	}
	if _, err := os.Stat(nestedDirPath); os.IsNotExist(err) {
		t.Fatalf("Test 3 failed: Nested directory %q was not created", nestedDirPath)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "data.json")

	if err := WriteFileAtomic(path, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("WriteFileAtomic() first write failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("WriteFileAtomic() overwrite failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Error reading back %q: %v", path, err)
	}
	if string(got) != `{"a":2}` {
		t.Errorf("WriteFileAtomic() content = %q, want %q", got, `{"a":2}`)
	}

	// No temp files may be left behind.
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file in %s, found %d entries", tempDir, len(entries))
	}
}

func TestWriteFileAtomic_MissingDirLeavesNothing(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "missing", "data.json")

	if err := WriteFileAtomic(path, []byte("x")); err == nil {
		t.Fatalf("WriteFileAtomic() into a missing directory succeeded, expected error")
	}
	if FileExists(path) {
		t.Errorf("target %q should not exist after a failed write", path)
	}
}

func TestWriteFileAtomic_FailedRenameKeepsOldContent(t *testing.T) {
	tempDir := t.TempDir()
	// A directory at the target path makes the final rename fail.
	target := filepath.Join(tempDir, "occupied")
	if err := os.MkdirAll(filepath.Join(target, "child"), 0755); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if err := WriteFileAtomic(target, []byte("new")); err == nil {
		t.Fatalf("WriteFileAtomic() over a non-empty directory succeeded, expected error")
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		t.Errorf("target directory should be untouched, stat err=%v", err)
	}
}

func TestFileExists(t *testing.T) {
	tempDir := t.TempDir()

	filePath := filepath.Join(tempDir, "exists.txt")
	if err := os.WriteFile(filePath, []byte("test"), 0644); err != nil {
		t.Fatalf("Setup failed: could not create test file %q: %v", filePath, err)
	}
	if !FileExists(filePath) {
		t.Errorf("FileExists(%q) = false, want true for an existing file", filePath)
	}

	if FileExists(filepath.Join(tempDir, "nope.txt")) {
		t.Errorf("FileExists() = true, want false for a missing file")
	}

	if FileExists(tempDir) {
		t.Errorf("FileExists(%q) = true, want false for a directory", tempDir)
	}
}

func TestSanitizeFilename(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"aetheria_page_data", "aetheria_page_data"},
		{"  spaced key  ", "spaced_key"},
		{"../../etc/passwd", "_etc_passwd"},
		{"a/b\\c", "a_b_c"},
		{".hidden", "_hidden"},
		{"***", "_"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if actual := SanitizeFilename(tc.input); actual != tc.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.input, actual, tc.expected)
			}
		})
	}
}
