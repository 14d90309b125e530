package report

import (
	"reflect"
	"strings"
	"testing"

	"github.com/danmuck/cictl/internal/testutil/testlog"
)

func TestCollectorRecordsInOrder(t *testing.T) {
	testlog.Start(t)
	c := NewCollector()
	c.Record("storage", "bundle")
	c.Record("pubsub", "test")
	c.Record("pubsub", "rubocop")

	want := []Failure{
		{Dir: "storage", Task: "bundle"},
		{Dir: "pubsub", Task: "test"},
		{Dir: "pubsub", Task: "rubocop"},
	}
	if got := c.Failures(); !reflect.DeepEqual(got, want) {
		t.Fatalf("failures = %v, want %v", got, want)
	}
	if c.OK() {
		t.Fatal("collector with failures reports OK")
	}
}

func TestCollectorAppendPreservesBatchOrder(t *testing.T) {
	testlog.Start(t)
	c := NewCollector()
	c.Append([]Failure{{Dir: "a", Task: "test"}, {Dir: "a", Task: "yard"}})
	c.Append(nil)
	c.Append([]Failure{{Dir: "b", Task: "build"}})

	want := []Failure{
		{Dir: "a", Task: "test"},
		{Dir: "a", Task: "yard"},
		{Dir: "b", Task: "build"},
	}
	if got := c.Failures(); !reflect.DeepEqual(got, want) {
		t.Fatalf("failures = %v, want %v", got, want)
	}
}

func TestSummarizeCleanRun(t *testing.T) {
	testlog.Start(t)
	ok, text := Summarize(nil)
	if !ok {
		t.Fatal("empty failures should summarize as ok")
	}
	if !strings.Contains(text, "CI passed") {
		t.Fatalf("text = %q, want a pass banner", text)
	}
	if ExitCode(ok) != 0 {
		t.Fatalf("exit = %d, want 0", ExitCode(ok))
	}
}

func TestSummarizeListsEveryFailureOnce(t *testing.T) {
	testlog.Start(t)
	failures := []Failure{
		{Dir: "storage", Task: "bundle"},
		{Dir: "pubsub", Task: "test"},
	}
	ok, text := Summarize(failures)
	if ok {
		t.Fatal("failures should summarize as not ok")
	}
	if !strings.Contains(text, "CI failed") {
		t.Fatalf("text = %q, want a fail banner", text)
	}
	storage := strings.Index(text, "storage: bundle")
	pubsub := strings.Index(text, "pubsub: test")
	if storage < 0 || pubsub < 0 {
		t.Fatalf("text = %q, want both failures listed", text)
	}
	if storage > pubsub {
		t.Fatalf("text = %q, want recorded order preserved", text)
	}
	if strings.Count(text, "storage: bundle") != 1 {
		t.Fatalf("text = %q, want each failure exactly once", text)
	}
	if ExitCode(ok) != 1 {
		t.Fatalf("exit = %d, want 1", ExitCode(ok))
	}
}
