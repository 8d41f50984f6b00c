package service

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/pytree/domain"
)

func createTestFile(t *testing.T, dirPath, fileName, content string) string {
	t.Helper()
	filePath := filepath.Join(dirPath, fileName)

	err := os.MkdirAll(filepath.Dir(filePath), 0755)
	require.NoError(t, err)

	err = os.WriteFile(filePath, []byte(content), 0644)
	require.NoError(t, err)

	return filePath
}

func createTestDirectoryStructure(t *testing.T) string {
	tmpDir := t.TempDir()

	createTestFile(t, tmpDir, "main.py", "def main(): pass\n")
	createTestFile(t, tmpDir, "utils.py", "def helper(): return 42\n")
	createTestFile(t, tmpDir, "types.pyi", "def func() -> int: ...\n")
	createTestFile(t, tmpDir, "README.md", "# Documentation\n")
	createTestFile(t, tmpDir, "notes.py.txt", "not python\n")
	createTestFile(t, tmpDir, "subpackage/__init__.py", "")
	createTestFile(t, tmpDir, "subpackage/module.py", "class Test: pass\n")
	createTestFile(t, tmpDir, "package/nested/deep/file.py", "def nested(): pass\n")
	createTestFile(t, tmpDir, ".hidden/secret.py", "x = 1\n")
	createTestFile(t, tmpDir, "tests/test_main.py", "def test(): pass\n")

	// A directory whose name ends with the suffix is not a file
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "weird.py"), 0755))

	return tmpDir
}

func relPaths(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestFileReader_CollectSourceFiles(t *testing.T) {
	root := createTestDirectoryStructure(t)
	reader := NewFileReader()

	files, err := reader.CollectSourceFiles(root, ".py", nil, nil)
	require.NoError(t, err)

	// Lexical walk order, every regular .py file including hidden directories
	assert.Equal(t, []string{
		".hidden/secret.py",
		"main.py",
		"package/nested/deep/file.py",
		"subpackage/__init__.py",
		"subpackage/module.py",
		"tests/test_main.py",
		"utils.py",
	}, relPaths(t, root, files))
}

func TestFileReader_CollectSourceFiles_Patterns(t *testing.T) {
	root := createTestDirectoryStructure(t)
	reader := NewFileReader()

	tests := []struct {
		name     string
		include  []string
		exclude  []string
		expected []string
	}{
		{
			name:     "exclude directory",
			exclude:  []string{"tests/**", ".hidden/**"},
			expected: []string{"main.py", "package/nested/deep/file.py", "subpackage/__init__.py", "subpackage/module.py", "utils.py"},
		},
		{
			name:     "include subtree",
			include:  []string{"package/**"},
			expected: []string{"package/nested/deep/file.py"},
		},
		{
			name:     "base name pattern",
			include:  []string{"__init__.py"},
			expected: []string{"subpackage/__init__.py"},
		},
		{
			name:     "exclusion wins over inclusion",
			include:  []string{"subpackage/**"},
			exclude:  []string{"**/__init__.py"},
			expected: []string{"subpackage/module.py"},
		},
		{
			name:     "nothing matches",
			include:  []string{"nothing/**"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := reader.CollectSourceFiles(root, ".py", tt.include, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, relPaths(t, root, files))
		})
	}
}

func TestFileReader_CollectSourceFiles_EmptyDirectory(t *testing.T) {
	files, err := NewFileReader().CollectSourceFiles(t.TempDir(), ".py", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestFileReader_CollectSourceFiles_MissingRoot(t *testing.T) {
	_, err := NewFileReader().CollectSourceFiles(filepath.Join(t.TempDir(), "missing"), ".py", nil, nil)
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeFileNotFound, domain.ErrorCode(err))
}

func TestFileReader_CollectSourceFiles_SingleFileRoot(t *testing.T) {
	dir := t.TempDir()
	py := createTestFile(t, dir, "single.py", "x = 1\n")
	txt := createTestFile(t, dir, "single.txt", "x = 1\n")
	reader := NewFileReader()

	files, err := reader.CollectSourceFiles(py, ".py", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{py}, files)

	files, err = reader.CollectSourceFiles(txt, ".py", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileReader_CollectSourceFiles_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	target := createTestFile(t, t.TempDir(), "target.txt", "x = 1\n")
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "linked.py")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone.txt"), filepath.Join(dir, "dangling.py")))

	files, err := NewFileReader().CollectSourceFiles(dir, ".py", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"linked.py"}, relPaths(t, dir, files))
}

func TestFileReader_CollectSourceFiles_UnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	dir := t.TempDir()
	createTestFile(t, dir, "ok.py", "x = 1\n")
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Mkdir(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	_, err := NewFileReader().CollectSourceFiles(dir, ".py", nil, nil)
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeInvalidInput, domain.ErrorCode(err))
}

func TestFileReader_ReadFile(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "a.py", "print('hi')\n")
	reader := NewFileReader()

	content, err := reader.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", string(content))

	_, err = reader.ReadFile(filepath.Join(dir, "missing.py"))
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeFileNotFound, domain.ErrorCode(err))
}

func TestFileReader_Matches(t *testing.T) {
	root := createTestDirectoryStructure(t)
	reader := NewFileReader()

	assert.True(t, reader.Matches(root, filepath.Join(root, "main.py"), ".py", nil, nil))
	assert.False(t, reader.Matches(root, filepath.Join(root, "types.pyi"), ".py", nil, nil))
	assert.False(t, reader.Matches(root, filepath.Join(root, "weird.py"), ".py", nil, nil))
	assert.False(t, reader.Matches(root, filepath.Join(root, "deleted.py"), ".py", nil, nil))
	assert.False(t, reader.Matches(root, filepath.Join(root, "tests", "test_main.py"), ".py", nil, []string{"tests/**"}))
	assert.True(t, reader.Matches(root, filepath.Join(root, "subpackage", "module.py"), ".py", []string{"subpackage/**"}, nil))
}
