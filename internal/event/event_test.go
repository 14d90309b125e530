package event

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/cictl/internal/testutil/testlog"
)

func writePayload(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "event.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInterpretPullRequest(t *testing.T) {
	testlog.Start(t)
	path := writePayload(t, `{"pull_request":{"base":{"ref":"main"}}}`)

	refs, err := Interpret(PullRequest, path, "", "")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if refs.Base != "main" || refs.Head != "" || refs.All {
		t.Fatalf("refs = %+v", refs)
	}
}

func TestInterpretPush(t *testing.T) {
	testlog.Start(t)
	path := writePayload(t, `{"before":"feedbeef"}`)

	refs, err := Interpret(Push, path, "", "")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if refs.Base != "feedbeef" {
		t.Fatalf("base = %q, want feedbeef", refs.Base)
	}
}

func TestInterpretWorkflowDispatch(t *testing.T) {
	testlog.Start(t)
	path := writePayload(t, `{"inputs":{"base":"main","head":"topic"}}`)

	refs, err := Interpret(WorkflowDispatch, path, "", "")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if refs.Base != "main" || refs.Head != "topic" {
		t.Fatalf("refs = %+v", refs)
	}
}

func TestInterpretNormalizesEmptyInputs(t *testing.T) {
	testlog.Start(t)
	path := writePayload(t, `{"inputs":{"base":"","head":"  "}}`)

	refs, err := Interpret(WorkflowDispatch, path, "", "")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if refs.Base != "" || refs.Head != "" {
		t.Fatalf("refs = %+v, want absent refs", refs)
	}
}

func TestInterpretScheduleRunsEverything(t *testing.T) {
	testlog.Start(t)
	refs, err := Interpret(Schedule, "", "ignored", "ignored")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if !refs.All || refs.Base != "" || refs.Head != "" {
		t.Fatalf("refs = %+v, want all-packages signal", refs)
	}
}

func TestInterpretLocalFallback(t *testing.T) {
	testlog.Start(t)
	refs, err := Interpret("", "", "HEAD^", "")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if refs.Base != "HEAD^" {
		t.Fatalf("base = %q, want HEAD^", refs.Base)
	}
}

func TestInterpretMissingPayloadIsFatal(t *testing.T) {
	testlog.Start(t)
	if _, err := Interpret(PullRequest, filepath.Join(t.TempDir(), "absent.json"), "", ""); !errors.Is(err, ErrPayload) {
		t.Fatalf("err = %v, want ErrPayload", err)
	}
	if _, err := Interpret(Push, "", "", ""); !errors.Is(err, ErrPayload) {
		t.Fatalf("err = %v, want ErrPayload for empty path", err)
	}
}

func TestInterpretMalformedPayloadIsFatal(t *testing.T) {
	testlog.Start(t)
	path := writePayload(t, `{"before":`)

	if _, err := Interpret(Push, path, "", ""); !errors.Is(err, ErrPayload) {
		t.Fatalf("err = %v, want ErrPayload", err)
	}
}

type fakeRepo struct {
	head      string
	resolved  string
	checkouts []string
	fetches   []string
}

func (f *fakeRepo) Head(context.Context) (string, error) { return f.head, nil }

func (f *fakeRepo) EnsureFetched(_ context.Context, ref string) (string, error) {
	f.fetches = append(f.fetches, ref)
	return f.resolved, nil
}

func (f *fakeRepo) Checkout(_ context.Context, hash string) error {
	f.checkouts = append(f.checkouts, hash)
	return nil
}

func TestPrepareHeadChecksOutWhenDifferent(t *testing.T) {
	testlog.Start(t)
	repo := &fakeRepo{head: "oldhash", resolved: "newhash"}

	if err := PrepareHead(context.Background(), repo, Refs{Head: "topic"}); err != nil {
		t.Fatalf("PrepareHead: %v", err)
	}
	if len(repo.checkouts) != 1 || repo.checkouts[0] != "newhash" {
		t.Fatalf("checkouts = %q, want [newhash]", repo.checkouts)
	}
}

func TestPrepareHeadSkipsWhenCurrent(t *testing.T) {
	testlog.Start(t)
	repo := &fakeRepo{head: "samehash", resolved: "samehash"}

	if err := PrepareHead(context.Background(), repo, Refs{Head: "topic"}); err != nil {
		t.Fatalf("PrepareHead: %v", err)
	}
	if len(repo.checkouts) != 0 {
		t.Fatalf("checkouts = %q, want none", repo.checkouts)
	}
}

func TestPrepareHeadNoopWithoutHead(t *testing.T) {
	testlog.Start(t)
	repo := &fakeRepo{}

	if err := PrepareHead(context.Background(), repo, Refs{}); err != nil {
		t.Fatalf("PrepareHead: %v", err)
	}
	if len(repo.fetches) != 0 {
		t.Fatalf("fetches = %q, want none", repo.fetches)
	}
}
