package versioning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

const selectorTemplate = `(function () {
    // Replaced by a script
    const versions = []

    function createSelector(currentVersion) {
        return versions.length
    }
})()
`

func publishedTree(t *testing.T, dirs ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	return root
}

func TestScanExcludesMainAndHidden(t *testing.T) {
	root := publishedTree(t, "main", ".git", "0.0.2", "0.0.10")
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), nil, 0o644))

	versions, err := Scan(root, ScanOptions{})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"0.0.2", "0.0.10"}, versions)
}

func TestScanFollowsSymlinks(t *testing.T) {
	root := publishedTree(t, "0.1.0")
	require.NoError(t, os.Symlink("0.1.0", filepath.Join(root, "0.2.0")))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), nil, 0o644))
	require.NoError(t, os.Symlink("notes.txt", filepath.Join(root, "0.3.0")))
	require.NoError(t, os.Symlink("missing", filepath.Join(root, "0.4.0")))

	versions, err := Scan(root, ScanOptions{})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"0.1.0", "0.2.0"}, versions)
}

func TestScanInvalidDirectory(t *testing.T) {
	root := publishedTree(t, "0.1.0", "_static")

	_, err := Scan(root, ScanOptions{})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	versions, err := Scan(root, ScanOptions{SkipInvalid: true})
	require.NoError(t, err)
	require.Equal(t, []string{"0.1.0"}, versions)
}

func TestOrder(t *testing.T) {
	entries := Order([]string{"0.0.2", "0.0.10", "1.0.0-rc.1", "0.9.0"})
	require.Equal(t, []Entry{
		{"main", "git-main"},
		{"1.0.0-rc.1", "latest"},
		{"1.0.0-rc.1", "1.0.0-rc.1"},
		{"0.9.0", "0.9.0"},
		{"0.0.10", "0.0.10"},
		{"0.0.2", "0.0.2"},
	}, entries)
}

func TestOrderWithoutPublishedVersions(t *testing.T) {
	entries := Order(nil)
	require.Equal(t, []Entry{{"main", "git-main"}}, entries)
	_, ok := Latest(entries)
	require.False(t, ok)
}

func TestLiteral(t *testing.T) {
	require.Equal(t,
		"[['main', 'git-main'], ['0.0.3', 'latest'], ['0.0.3', '0.0.3']]",
		Literal(Order([]string{"0.0.3"})))
	require.Equal(t, `[['it\'s', 'a\\b']]`, Literal([]Entry{{`it's`, `a\b`}}))
}

func TestRenderSelectorReplacesOnlyMarker(t *testing.T) {
	out, err := RenderSelector(selectorTemplate, Order([]string{"0.0.3"}))
	require.NoError(t, err)

	want := `(function () {
    // Replaced by a script
    const versions = [['main', 'git-main'], ['0.0.3', 'latest'], ['0.0.3', '0.0.3']]

    function createSelector(currentVersion) {
        return versions.length
    }
})()
`
	require.Equal(t, want, out)

	_, err = RenderSelector("const versions = ['x']", nil)
	require.Error(t, err)
}

func TestRenderIndex(t *testing.T) {
	out, err := RenderIndex(`<meta http-equiv="refresh" content="0; url={{latest_version}}/index.html">`, Order([]string{"0.1.0", "0.2.0"}))
	require.NoError(t, err)
	require.Equal(t, `<meta http-equiv="refresh" content="0; url=0.2.0/index.html">`, out)

	_, err = RenderIndex("{{latest_version}}", Order(nil))
	require.Error(t, err)
}

func TestGenerate(t *testing.T) {
	root := publishedTree(t, "main", ".git", "0.0.3", "0.1.0")
	tmplDir := t.TempDir()
	selectorPath := filepath.Join(tmplDir, "version-selector.js.in")
	indexPath := filepath.Join(tmplDir, "index.html.in")
	require.NoError(t, os.WriteFile(selectorPath, []byte(selectorTemplate), 0o644))
	require.NoError(t, os.WriteFile(indexPath, []byte("go to {{latest_version}}"), 0o644))

	res, err := Generate(GenerateOptions{Dir: root, SelectorTemplate: selectorPath, IndexTemplate: indexPath})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, SelectorFile), res.SelectorPath)

	selector, err := os.ReadFile(res.SelectorPath)
	require.NoError(t, err)
	require.Contains(t, string(selector), "const versions = [['main', 'git-main'], ['0.1.0', 'latest'], ['0.1.0', '0.1.0'], ['0.0.3', '0.0.3']]")

	index, err := os.ReadFile(res.IndexPath)
	require.NoError(t, err)
	require.Equal(t, "go to 0.1.0", string(index))
}

func TestGenerateMissingTemplate(t *testing.T) {
	root := publishedTree(t, "0.0.1")
	_, err := Generate(GenerateOptions{Dir: root, SelectorTemplate: filepath.Join(root, "nope"), IndexTemplate: filepath.Join(root, "nope")})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}
