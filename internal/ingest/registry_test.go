package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mupacs/internal/ingest"
	"mupacs/internal/logging"
	"mupacs/internal/metadata"
	"mupacs/internal/metrics"
	"mupacs/internal/store"
	"mupacs/internal/testsupport"
)

// suffixSniffer stands in for the magic-marker sniff so pipeline tests can
// use tiny placeholder files.
type suffixSniffer struct{}

func (suffixSniffer) IsArchiveFile(path string) (bool, error) {
	if strings.Contains(filepath.Base(path), "unsniffable") {
		return false, errors.New("sniff failed")
	}
	return strings.HasSuffix(path, ".dcm"), nil
}

// stubReader resolves attributes by file base name.
type stubReader struct {
	mu    sync.Mutex
	attrs map[string]metadata.Attributes
	errs  map[string]error
}

func newStubReader() *stubReader {
	return &stubReader{
		attrs: make(map[string]metadata.Attributes),
		errs:  make(map[string]error),
	}
}

func (r *stubReader) add(name string, attrs metadata.Attributes) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attrs[name] = attrs
}

func (r *stubReader) fail(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[name] = err
}

func (r *stubReader) ReadFile(path string) (metadata.Attributes, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := filepath.Base(path)
	if err, ok := r.errs[name]; ok {
		return metadata.Attributes{}, err
	}
	attrs, ok := r.attrs[name]
	if !ok {
		return metadata.Attributes{}, fmt.Errorf("no stub attributes for %s", name)
	}
	return attrs, nil
}

func newTestRegistry(t *testing.T, reader metadata.Reader) (*ingest.Registry, *store.Store) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	reg := ingest.NewRegistry(cfg, st, reader, suffixSniffer{}, logging.NewNop(), metrics.New())
	reg.Start(context.Background())
	t.Cleanup(reg.Stop)
	return reg, st
}

// placeholderFile writes a small file; pipeline tests decode via the stub
// reader, so content does not matter.
func placeholderFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// seedFolder lays out two series of the sample study, two files each, plus
// one non-archive file.
func seedFolder(t *testing.T, dir string, reader *stubReader) {
	t.Helper()

	for i, name := range []string{"a.dcm", "b.dcm", "c.dcm", "d.dcm"} {
		attrs := testsupport.SampleAttributes()
		series := 1 + i/2
		attrs.SeriesInstanceUID = fmt.Sprintf("1.2.3.4.%d", series)
		attrs.SOPInstanceUID = fmt.Sprintf("1.2.3.4.%d.%d", series, 1+i%2)
		attrs.InstanceNumber = fmt.Sprintf("%d", 1+i%2)
		reader.add(name, attrs)
		placeholderFile(t, filepath.Join(dir, name))
	}
	testsupport.WriteTextFile(t, filepath.Join(dir, "notes.txt"))
}

func TestRegistryImportsFolder(t *testing.T) {
	reader := newStubReader()
	reg, st := newTestRegistry(t, reader)

	dir := t.TempDir()
	seedFolder(t, dir, reader)

	job, err := reg.Add(dir)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	job.Wait()

	info := job.Info()
	if info.Imported() != 4 {
		t.Errorf("imported = %d, want 4", info.Imported())
	}
	if info.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", info.Skipped)
	}
	if info.Failures != 0 {
		t.Errorf("failures = %d, want 0", info.Failures)
	}

	counts, err := st.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Patients != 1 || counts.Studies != 1 || counts.Series != 2 || counts.Instances != 4 {
		t.Errorf("counts = %+v, want 1 patient, 1 study, 2 series, 4 instances", counts)
	}
}

func TestRegistryReimportCountsDuplicates(t *testing.T) {
	reader := newStubReader()
	reg, st := newTestRegistry(t, reader)

	first := t.TempDir()
	seedFolder(t, first, reader)
	job, err := reg.Add(first)
	if err != nil {
		t.Fatalf("Add first: %v", err)
	}
	job.Wait()

	// Same files under a different root, so the registry accepts the job
	// but every instance is already archived.
	second := t.TempDir()
	seedFolder(t, second, reader)
	job, err = reg.Add(second)
	if err != nil {
		t.Fatalf("Add second: %v", err)
	}
	job.Wait()

	info := job.Info()
	if info.Imported() != 0 {
		t.Errorf("imported = %d, want 0", info.Imported())
	}
	if info.Duplicates != 4 {
		t.Errorf("duplicates = %d, want 4", info.Duplicates)
	}

	counts, err := st.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Instances != 4 {
		t.Errorf("instances = %d, want 4 after re-import", counts.Instances)
	}
}

func TestRegistryAddDeduplicatesEquivalentSpellings(t *testing.T) {
	reader := newStubReader()
	reg, _ := newTestRegistry(t, reader)

	dir := t.TempDir()
	seedFolder(t, dir, reader)

	job1, err := reg.Add(dir)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	// A different spelling of the same root resolves to the same job.
	alias := filepath.Join(dir, "..", filepath.Base(dir))
	job2, err := reg.Add("  " + alias + "  ")
	if err != nil {
		t.Fatalf("Add alias: %v", err)
	}
	if job1 != job2 {
		t.Error("equivalent path spellings created distinct jobs")
	}
	if got := len(reg.Jobs()); got != 1 {
		t.Errorf("tracked jobs = %d, want 1", got)
	}
	job1.Wait()
}

func TestRegistryAddRejectsInvalidPath(t *testing.T) {
	reader := newStubReader()
	reg, _ := newTestRegistry(t, reader)

	for _, path := range []string{"", "   ", filepath.Join(t.TempDir(), "does-not-exist")} {
		if _, err := reg.Add(path); !errors.Is(err, ingest.ErrInvalidPath) {
			t.Errorf("Add(%q) = %v, want ErrInvalidPath", path, err)
		}
	}
	if got := len(reg.Jobs()); got != 0 {
		t.Errorf("tracked jobs = %d, want 0", got)
	}
}

func TestRegistrySingleFileRoot(t *testing.T) {
	reader := newStubReader()
	reg, st := newTestRegistry(t, reader)

	path := filepath.Join(t.TempDir(), "solo.dcm")
	reader.add("solo.dcm", testsupport.SampleAttributes())
	placeholderFile(t, path)

	job, err := reg.Add(path)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	job.Wait()

	if got := job.Info().Imported(); got != 1 {
		t.Errorf("imported = %d, want 1", got)
	}
	counts, err := st.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Instances != 1 {
		t.Errorf("instances = %d, want 1", counts.Instances)
	}
}

func TestRegistryPerFileFailureIsolation(t *testing.T) {
	reader := newStubReader()
	reg, st := newTestRegistry(t, reader)

	dir := t.TempDir()
	seedFolder(t, dir, reader)
	reader.fail("b.dcm", errors.New("truncated header"))

	missing := testsupport.SampleAttributes()
	missing.SOPInstanceUID = ""
	reader.add("e.dcm", missing)
	placeholderFile(t, filepath.Join(dir, "e.dcm"))

	placeholderFile(t, filepath.Join(dir, "unsniffable.dcm"))

	job, err := reg.Add(dir)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	job.Wait()

	info := job.Info()
	if info.Imported() != 3 {
		t.Errorf("imported = %d, want 3", info.Imported())
	}
	if info.Failures != 3 {
		t.Errorf("failures = %d, want 3 (decode, validation, sniff)", info.Failures)
	}

	counts, err := st.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Instances != 3 {
		t.Errorf("instances = %d, want 3", counts.Instances)
	}
}

func TestRegistryWalksNestedFolders(t *testing.T) {
	reader := newStubReader()
	reg, _ := newTestRegistry(t, reader)

	dir := t.TempDir()
	for i, rel := range []string{"a.dcm", "sub/b.dcm", "sub/deeper/c.dcm"} {
		attrs := testsupport.SampleAttributes()
		attrs.SOPInstanceUID = fmt.Sprintf("1.2.3.4.1.%d", i+1)
		reader.add(filepath.Base(rel), attrs)
		placeholderFile(t, filepath.Join(dir, rel))
	}

	job, err := reg.Add(dir)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	job.Wait()

	if got := job.Info().Imported(); got != 3 {
		t.Errorf("imported = %d, want 3", got)
	}
}

func TestRegistryCleanupCompleted(t *testing.T) {
	reader := newStubReader()
	reg, _ := newTestRegistry(t, reader)

	dir := t.TempDir()
	seedFolder(t, dir, reader)

	job, err := reg.Add(dir)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	job.Wait()

	if got := len(reg.List()); got != 1 {
		t.Fatalf("tracked statuses = %d, want 1", got)
	}
	if removed := reg.CleanupCompleted(); removed != 1 {
		t.Errorf("CleanupCompleted = %d, want 1", removed)
	}
	if got := len(reg.List()); got != 0 {
		t.Errorf("tracked statuses after cleanup = %d, want 0", got)
	}

	// After cleanup the same root may be imported again as a new job.
	rerun, err := reg.Add(dir)
	if err != nil {
		t.Fatalf("Add after cleanup: %v", err)
	}
	if rerun == job {
		t.Error("cleanup did not release the path for a new job")
	}
	rerun.Wait()
	if got := rerun.Info().Duplicates; got != 4 {
		t.Errorf("rerun duplicates = %d, want 4", got)
	}
}

func TestRegistryStopDrainsBacklog(t *testing.T) {
	reader := newStubReader()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	reg := ingest.NewRegistry(cfg, st, reader, suffixSniffer{}, logging.NewNop(), metrics.New())

	// The pool is never started, so both jobs sit in the backlog when
	// Stop runs.
	first := t.TempDir()
	second := t.TempDir()
	seedFolder(t, first, reader)
	seedFolder(t, second, reader)

	job1, err := reg.Add(first)
	if err != nil {
		t.Fatalf("Add first: %v", err)
	}
	job2, err := reg.Add(second)
	if err != nil {
		t.Fatalf("Add second: %v", err)
	}

	reg.Stop()

	done := make(chan struct{})
	go func() {
		reg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait still blocked after Stop")
	}

	for _, job := range []*ingest.Job{job1, job2} {
		if !job.Done() {
			t.Errorf("job %s still reported running after Stop", job.Path)
		}
		if got := job.Info().Imported(); got != 0 {
			t.Errorf("job %s imported = %d, want 0", job.Path, got)
		}
	}
}

func TestJobStatusLine(t *testing.T) {
	reader := newStubReader()
	reg, _ := newTestRegistry(t, reader)

	dir := t.TempDir()
	seedFolder(t, dir, reader)

	job, err := reg.Add(dir)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	job.Wait()

	status := job.Status()
	if !strings.HasPrefix(status, "[done] ") {
		t.Errorf("status = %q, want [done] prefix", status)
	}
	if !strings.Contains(status, "4 imported") {
		t.Errorf("status = %q, want imported count", status)
	}
}
