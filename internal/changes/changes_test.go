package changes

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/danmuck/cictl/internal/testutil/testlog"
)

type fakeTree struct {
	status   []string
	diff     []string
	resolved string

	statusCalls int
	diffArgs    []string
	fetchArgs   []string
}

func (f *fakeTree) StatusPaths(context.Context) ([]string, error) {
	f.statusCalls++
	return f.status, nil
}

func (f *fakeTree) DiffNames(_ context.Context, sha string) ([]string, error) {
	f.diffArgs = append(f.diffArgs, sha)
	return f.diff, nil
}

func (f *fakeTree) EnsureFetched(_ context.Context, ref string) (string, error) {
	f.fetchArgs = append(f.fetchArgs, ref)
	return f.resolved, nil
}

func TestFilesWithoutBaseUsesStatus(t *testing.T) {
	testlog.Start(t)
	tree := &fakeTree{status: []string{"pubsub/lib/a.rb"}}
	r := NewResolver(tree, t.TempDir())

	files, err := r.Files(context.Background(), "")
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if !reflect.DeepEqual(files, []string{"pubsub/lib/a.rb"}) {
		t.Fatalf("files = %q", files)
	}
	if tree.statusCalls != 1 || len(tree.fetchArgs) != 0 {
		t.Fatalf("status calls = %d, fetches = %q", tree.statusCalls, tree.fetchArgs)
	}
}

func TestFilesWithBaseResolvesThenDiffs(t *testing.T) {
	testlog.Start(t)
	tree := &fakeTree{diff: []string{"pubsub/lib/a.rb"}, resolved: "feedbeef"}
	r := NewResolver(tree, t.TempDir())

	if _, err := r.Files(context.Background(), "main"); err != nil {
		t.Fatalf("Files: %v", err)
	}
	if !reflect.DeepEqual(tree.fetchArgs, []string{"main"}) {
		t.Fatalf("fetchArgs = %q", tree.fetchArgs)
	}
	if !reflect.DeepEqual(tree.diffArgs, []string{"feedbeef"}) {
		t.Fatalf("diffArgs = %q, want the resolved sha", tree.diffArgs)
	}
}

func TestDirsIgnoresRootFiles(t *testing.T) {
	testlog.Start(t)
	r := NewResolver(&fakeTree{}, t.TempDir())

	if dirs := r.Dirs([]string{"README.md", "Gemfile"}); len(dirs) != 0 {
		t.Fatalf("dirs = %q, want none", dirs)
	}
}

func TestDirsDeduplicatesAndSorts(t *testing.T) {
	testlog.Start(t)
	r := NewResolver(&fakeTree{}, t.TempDir())

	dirs := r.Dirs([]string{
		"storage/lib/a.rb",
		"bigquery/lib/b.rb",
		"storage/test/a_test.rb",
	})
	want := []string{"bigquery", "storage"}
	if !reflect.DeepEqual(dirs, want) {
		t.Fatalf("dirs = %q, want %q", dirs, want)
	}
}

func TestDirsAddsWrapperWhenPresent(t *testing.T) {
	testlog.Start(t)
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "pubsub"), 0o755); err != nil {
		t.Fatal(err)
	}
	r := NewResolver(&fakeTree{}, root)

	dirs := r.Dirs([]string{"pubsub-v2/lib/a.rb"})
	want := []string{"pubsub", "pubsub-v2"}
	if !reflect.DeepEqual(dirs, want) {
		t.Fatalf("dirs = %q, want %q", dirs, want)
	}
}

func TestDirsSkipsWrapperWhenAbsent(t *testing.T) {
	testlog.Start(t)
	r := NewResolver(&fakeTree{}, t.TempDir())

	dirs := r.Dirs([]string{"pubsub-v2/lib/a.rb"})
	want := []string{"pubsub-v2"}
	if !reflect.DeepEqual(dirs, want) {
		t.Fatalf("dirs = %q, want %q", dirs, want)
	}
}

func TestDirsHandlesPrereleaseSuffixes(t *testing.T) {
	testlog.Start(t)
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "vision"), 0o755); err != nil {
		t.Fatal(err)
	}
	r := NewResolver(&fakeTree{}, root)

	dirs := r.Dirs([]string{"vision-v1p3beta1/lib/a.rb"})
	want := []string{"vision", "vision-v1p3beta1"}
	if !reflect.DeepEqual(dirs, want) {
		t.Fatalf("dirs = %q, want %q", dirs, want)
	}
}
