package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// useTempLog points the trace at a temp home and closes it after the test.
func useTempLog(t *testing.T) string {
	t.Helper()
	Close()
	dir := t.TempDir()
	path := filepath.Join(dir, LogDirName, LogFileName)
	orig := logPath
	logPath = func() (string, error) { return path, nil }
	t.Cleanup(func() {
		Close()
		logPath = orig
	})
	return path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestInitDisabledDropsTraces(t *testing.T) {
	path := useTempLog(t)

	if err := Init(false); err != nil {
		t.Fatalf("Init(false): %v", err)
	}
	if Enabled() {
		t.Fatal("tracing should be off")
	}
	Log("store: reconciled", 3)
	Logf("poll: tick %d", 1)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("no trace file expected, stat err = %v", err)
	}
}

func TestInitEnabledWritesSessionHeaderAndTraces(t *testing.T) {
	path := useTempLog(t)

	if err := Init(true); err != nil {
		t.Fatalf("Init(true): %v", err)
	}
	if !Enabled() {
		t.Fatal("tracing should be on")
	}
	Log("store: restored snapshot")
	Logf("optimistic: applied %s to %s", "status=done", "42")

	got := readLog(t, path)
	for _, want := range []string{"issueboard session", "store: restored snapshot", "optimistic: applied status=done to 42"} {
		if !strings.Contains(got, want) {
			t.Fatalf("trace missing %q:\n%s", want, got)
		}
	}
}

func TestInitKeepsPreviousSessionAsBackup(t *testing.T) {
	path := useTempLog(t)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("last session\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := Init(true); err != nil {
		t.Fatalf("Init(true): %v", err)
	}
	if got := readLog(t, path); strings.Contains(got, "last session") {
		t.Fatalf("active trace still holds the previous session:\n%s", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() == LogFileName {
			continue
		}
		if strings.Contains(readLog(t, filepath.Join(dir, e.Name())), "last session") {
			return
		}
	}
	t.Fatal("previous session was not kept as a backup")
}

func TestCloseStopsTracing(t *testing.T) {
	path := useTempLog(t)
	if err := Init(true); err != nil {
		t.Fatalf("Init(true): %v", err)
	}

	Close()
	Close()
	if Enabled() {
		t.Fatal("Close should turn tracing off")
	}
	Logf("after close")
	if strings.Contains(readLog(t, path), "after close") {
		t.Fatal("trace written after Close")
	}
}

func TestInitReportsUnusableLogPath(t *testing.T) {
	path := useTempLog(t)
	blocker := filepath.Dir(path)
	if err := os.WriteFile(blocker, []byte("not a directory"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := Init(true); err == nil {
		t.Fatal("expected an error when the log directory is a file")
	}
	if Enabled() {
		t.Fatal("a failed Init must leave tracing off")
	}
}

func TestGetLogPathLivesUnderIssueboardDir(t *testing.T) {
	path, err := GetLogPath()
	if err != nil {
		t.Fatalf("GetLogPath: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(LogDirName, LogFileName)) {
		t.Fatalf("GetLogPath() = %q", path)
	}
}
