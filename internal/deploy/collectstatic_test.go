package deploy_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greencart/internal/deploy"
	"greencart/pkg/errors"
)

type fakeUploader struct {
	ensured int
	keys    []string
	err     error
}

func (u *fakeUploader) EnsureBucket(context.Context) error {
	u.ensured++
	return u.err
}

func (u *fakeUploader) PutFile(_ context.Context, rel, _ string) error {
	u.keys = append(u.keys, rel)
	return nil
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
}

func TestCollectStatic_FirstSourceWins(t *testing.T) {
	base := t.TempDir()
	first := filepath.Join(base, "app")
	second := filepath.Join(base, "vendor")
	root := filepath.Join(base, "staticfiles")
	writeTree(t, first, map[string]string{"css/app.css": "first", "js/app.js": "js"})
	writeTree(t, second, map[string]string{"css/app.css": "second", "img/logo.svg": "<svg/>"})

	stats, err := deploy.NewCollectStaticStep([]string{first, second}, root, nil).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Copied)
	assert.Equal(t, 0, stats.Unmodified)
	got, err := os.ReadFile(filepath.Join(root, "css", "app.css"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
	assert.FileExists(t, filepath.Join(root, "img", "logo.svg"))
}

func TestCollectStatic_UnchangedFilesAreNotCopied(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "static")
	root := filepath.Join(base, "staticfiles")
	writeTree(t, src, map[string]string{"a.txt": "aaa", "b.txt": "bbb"})
	step := deploy.NewCollectStaticStep([]string{src}, root, nil)

	_, err := step.Collect(context.Background())
	require.NoError(t, err)

	writeTree(t, src, map[string]string{"b.txt": "BBB"})
	var out bytes.Buffer
	require.NoError(t, step.Run(context.Background(), &out))

	assert.Contains(t, out.String(), "1 static files copied to '"+root+"', 1 unmodified.")
	assert.Contains(t, out.String(), "Collected 6 B in 2 files.")
	got, err := os.ReadFile(filepath.Join(root, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "BBB", string(got))
}

func TestCollectStatic_MissingSourceIsIgnored(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "staticfiles")

	stats, err := deploy.NewCollectStaticStep([]string{filepath.Join(base, "missing")}, root, nil).Collect(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Copied)
	assert.DirExists(t, root)
}

func TestCollectStatic_Uploads(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "static")
	writeTree(t, src, map[string]string{"css/app.css": "x", "index.js": "y"})
	up := &fakeUploader{}

	var out bytes.Buffer
	step := deploy.NewCollectStaticStep([]string{src}, filepath.Join(base, "out"), up)
	require.NoError(t, step.Run(context.Background(), &out))

	sort.Strings(up.keys)
	assert.Equal(t, []string{"css/app.css", "index.js"}, up.keys)
	assert.Equal(t, 1, up.ensured)
	assert.Contains(t, out.String(), "Uploaded 2 files to object storage.")
}

func TestCollectStatic_BucketFailureIsFatal(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "static")
	writeTree(t, src, map[string]string{"a.css": "x"})
	boom := errors.New("access denied")

	step := deploy.NewCollectStaticStep([]string{src}, filepath.Join(base, "out"), &fakeUploader{err: boom})
	err := step.Run(context.Background(), &bytes.Buffer{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, deploy.Fatal, step.Policy())
}

func TestCollectStatic_RequiresRoot(t *testing.T) {
	_, err := deploy.NewCollectStaticStep(nil, "", nil).Collect(context.Background())
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr))
}
