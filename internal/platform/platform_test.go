package platform

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"dawpresence/internal/logging"
)

type fakeRunner struct {
	outputs map[string]string
	errs    map[string]error
	block   bool
	calls   []string
}

func (f *fakeRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	key := name
	for _, a := range args {
		key += " " + a
	}
	f.calls = append(f.calls, key)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := f.errs[key]; ok {
		return []byte(f.outputs[key]), err
	}
	out, ok := f.outputs[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(out), nil
}

func TestVersionFromText(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"REAPER v7.15 - x64", "7.15", true},
		{"bitwig-studio 5.1.2 (build 42)", "5.1.2", true},
		{"no version 42 here", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := VersionFromText(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("VersionFromText(%q) = %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestVersionFromPath(t *testing.T) {
	if got := VersionFromPath("/opt/bitwig-5.2.1/bitwig"); got != "5.2.1" {
		t.Fatalf("expected path version, got %q", got)
	}
	if got := VersionFromPath("/opt/app/reaper-7.0.1"); got != "7.0.1" {
		t.Fatalf("expected file name version, got %q", got)
	}
	if got := VersionFromPath("/usr/bin/reaper"); got != UnknownVersion {
		t.Fatalf("expected unknown version, got %q", got)
	}
	if got := VersionFromPath(""); got != UnknownVersion {
		t.Fatalf("expected unknown version for empty path, got %q", got)
	}
}

func TestVersionReaderUsesFirstFlagWithVersion(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"/usr/bin/reaper --version": "usage: reaper [options]",
		"/usr/bin/reaper -v":        "REAPER v7.22",
	}}
	p := versionReader{runner: runner, timeout: time.Second, enabled: true, logger: logging.NewNop()}
	if got := p.read(context.Background(), "/usr/bin/reaper"); got != "7.22" {
		t.Fatalf("expected 7.22, got %q", got)
	}
	if len(runner.calls) != 2 {
		t.Fatalf("expected lookups to stop after -v, calls=%v", runner.calls)
	}
}

func TestProcessVersionCachedPerExecutable(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"/usr/bin/reaper --version": "REAPER v7.22",
		"/usr/bin/ardour --version": "Ardour 8.4.0",
	}}
	p := versionReader{runner: runner, timeout: time.Second, enabled: true, logger: logging.NewNop()}
	for i := 0; i < 3; i++ {
		if got := p.read(context.Background(), "/usr/bin/reaper"); got != "7.22" {
			t.Fatalf("tick %d: expected 7.22, got %q", i, got)
		}
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected one execution for repeated lookups, calls=%v", runner.calls)
	}
	if got := p.read(context.Background(), "/usr/bin/ardour"); got != "8.4.0" {
		t.Fatalf("expected 8.4.0, got %q", got)
	}
	if len(runner.calls) != 2 {
		t.Fatalf("expected a new executable to run once, calls=%v", runner.calls)
	}
}

func TestUnknownVersionIsCachedToo(t *testing.T) {
	runner := &fakeRunner{}
	p := versionReader{runner: runner, timeout: time.Second, enabled: true, logger: logging.NewNop()}
	for i := 0; i < 2; i++ {
		if got := p.read(context.Background(), "/usr/bin/mystery"); got != UnknownVersion {
			t.Fatalf("expected unknown version, got %q", got)
		}
	}
	if len(runner.calls) != len(versionFlags) {
		t.Fatalf("expected flags tried during the first lookup only, calls=%v", runner.calls)
	}
}

func TestCancelledLookupIsNotCached(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{"/usr/bin/reaper --version": "REAPER v7.22"}}
	p := versionReader{runner: runner, timeout: time.Second, enabled: true, logger: logging.NewNop()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = p.read(ctx, "/usr/bin/reaper")
	if got := p.read(context.Background(), "/usr/bin/reaper"); got != "7.22" {
		t.Fatalf("expected fresh lookup after cancellation, got %q", got)
	}
}

func TestVersionReaderAcceptsNonZeroExitOutput(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{"/bin/daw --version": "daw 1.2.3"},
		errs:    map[string]error{"/bin/daw --version": &exec.ExitError{}},
	}
	p := versionReader{runner: runner, timeout: time.Second, enabled: true, logger: logging.NewNop()}
	if got := p.read(context.Background(), "/bin/daw"); got != "1.2.3" {
		t.Fatalf("expected 1.2.3, got %q", got)
	}
}

func TestVersionReaderTimeoutFallsBackToPath(t *testing.T) {
	runner := &fakeRunner{block: true}
	p := versionReader{runner: runner, timeout: 10 * time.Millisecond, enabled: true, logger: logging.NewNop()}
	if got := p.read(context.Background(), "/opt/ardour-8.4/ardour"); got != "8.4" {
		t.Fatalf("expected path fallback, got %q", got)
	}
	if len(runner.calls) != len(versionFlags) {
		t.Fatalf("expected every flag to be tried, calls=%v", runner.calls)
	}
}

func TestVersionReaderDisabledSkipsExecution(t *testing.T) {
	runner := &fakeRunner{}
	p := versionReader{runner: runner, timeout: time.Second, enabled: false, logger: logging.NewNop()}
	if got := p.read(context.Background(), "/usr/bin/reaper"); got != UnknownVersion {
		t.Fatalf("expected unknown version, got %q", got)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("expected no executions, got %v", runner.calls)
	}
}

func TestStaticProvider(t *testing.T) {
	s := Static{Title: "Song - REAPER"}
	if s.WindowTitle(context.Background(), 1) != "Song - REAPER" {
		t.Fatal("unexpected title")
	}
	if s.ProcessVersion(context.Background(), "x") != UnknownVersion {
		t.Fatal("expected unknown version for empty static version")
	}
}

func TestNewReturnsProvider(t *testing.T) {
	if New(Options{}) == nil {
		t.Fatal("expected provider")
	}
}
