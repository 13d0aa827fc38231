package advdec

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tsrajpurohit/AdvDec/internal/recorder"
	"github.com/tsrajpurohit/AdvDec/internal/table"
)

type fakeFetcher struct {
	mostActive      interface{}
	mostActiveErr   error
	failMostActive  int
	mostActiveCalls int

	advDec    interface{}
	advDecErr error
}

func (f *fakeFetcher) MostActive() (interface{}, error) {
	f.mostActiveCalls++
	if f.mostActiveCalls <= f.failMostActive {
		return nil, errors.New("connection reset")
	}
	if f.mostActiveErr != nil {
		return nil, f.mostActiveErr
	}
	return f.mostActive, nil
}

func (f *fakeFetcher) AdvancesDeclines() (interface{}, error) {
	if f.advDecErr != nil {
		return nil, f.advDecErr
	}
	return f.advDec, nil
}

type fakeUploader struct {
	err     error
	uploads map[string]*table.Table
}

func (u *fakeUploader) Upload(t *table.Table, tabName string) error {
	if u.err != nil {
		return u.err
	}
	if u.uploads == nil {
		u.uploads = map[string]*table.Table{}
	}
	u.uploads[tabName] = t
	return nil
}

type fakeRecorder struct {
	records []*recorder.RunRecord
}

func (r *fakeRecorder) RecordRun(rec *recorder.RunRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeRecorder) Close() error {
	return nil
}

func (r *fakeRecorder) byDataset(name string) *recorder.RunRecord {
	for _, rec := range r.records {
		if rec.Dataset == name {
			return rec
		}
	}
	return nil
}

type fakeNotifier struct {
	messages []string
	errors   []string
}

func (n *fakeNotifier) SendText(text string) error {
	n.messages = append(n.messages, text)
	return nil
}

func (n *fakeNotifier) SendError(text string) error {
	n.errors = append(n.errors, text)
	return nil
}

func rawValue(t *testing.T, raw string) interface{} {
	t.Helper()
	v, err := table.DecodeValue(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("decode error: %s", err.Error())
	}
	return v
}

func newTestJob(t *testing.T, fetcher *fakeFetcher, uploader *fakeUploader) (*AdvDec, *fakeRecorder) {
	t.Helper()
	rec := &fakeRecorder{}
	job := &AdvDec{
		Settings: &Settings{
			OutputDir:    t.TempDir(),
			FetchRetries: DefaultFetchRetries,
			RetryDelay:   DefaultRetryDelay,
		},
		API:      fetcher,
		Sheets:   uploader,
		Recorder: rec,
		sleep:    func(time.Duration) {},
	}
	return job, rec
}

func TestRunBothDatasets(t *testing.T) {
	fetcher := &fakeFetcher{
		mostActive: rawValue(t, `[{"symbol": "ABC", "value": 100}]`),
		advDec:     rawValue(t, `[{"index": "NIFTY", "advances": 10}]`),
	}
	uploader := &fakeUploader{}
	job, rec := newTestJob(t, fetcher, uploader)

	job.Run()

	if len(uploader.uploads) != 2 {
		t.Fatalf("invalid upload count: expected %d got %d", 2, len(uploader.uploads))
	}
	if uploader.uploads[MostActiveTab] == nil || uploader.uploads[AdvDecTab] == nil {
		t.Errorf("missing upload tabs: got %v", uploader.uploads)
	}
	for _, name := range []string{MostActiveCSV, AdvDecCSV} {
		if _, err := os.Stat(filepath.Join(job.Settings.OutputDir, name)); err != nil {
			t.Errorf("missing CSV file %s: %s", name, err.Error())
		}
	}
	if len(rec.records) != 2 {
		t.Fatalf("invalid run record count: expected %d got %d", 2, len(rec.records))
	}
	for _, r := range rec.records {
		if r.Status != recorder.StatusOK {
			t.Errorf("invalid status for %s: got %s (%s)", r.Dataset, r.Status, r.Error)
		}
		if r.Rows != 1 {
			t.Errorf("invalid row count for %s: expected %d got %d", r.Dataset, 1, r.Rows)
		}
	}
}

func TestRunDatasetsIndependent(t *testing.T) {
	fetcher := &fakeFetcher{
		failMostActive: 100,
		advDec:         rawValue(t, `[{"index": "NIFTY", "advances": 10}]`),
	}
	uploader := &fakeUploader{}
	job, rec := newTestJob(t, fetcher, uploader)

	job.Run()

	if uploader.uploads[AdvDecTab] == nil {
		t.Error("advances-declines upload should not be blocked by most-active failure")
	}
	if _, err := os.Stat(filepath.Join(job.Settings.OutputDir, AdvDecCSV)); err != nil {
		t.Errorf("missing CSV file: %s", err.Error())
	}
	if _, err := os.Stat(filepath.Join(job.Settings.OutputDir, MostActiveCSV)); err == nil {
		t.Error("most-active CSV should not exist after fetch failure")
	}

	failed := rec.byDataset("most-active")
	if failed == nil || failed.Status != recorder.StatusFailed || failed.Stage != "fetch" {
		t.Errorf("invalid most-active record: %+v", failed)
	}
}

func TestFetchRetrySucceedsWithinBound(t *testing.T) {
	fetcher := &fakeFetcher{
		failMostActive: 2,
		mostActive:     rawValue(t, `[{"symbol": "ABC"}]`),
	}
	job, _ := newTestJob(t, fetcher, &fakeUploader{})

	sleeps := 0
	job.sleep = func(time.Duration) { sleeps++ }

	raw, err := job.fetchMostActive()
	if err != nil {
		t.Fatalf("error returned: %s", err.Error())
	}
	if raw == nil {
		t.Fatal("expected payload after retries")
	}
	if fetcher.mostActiveCalls != 3 {
		t.Errorf("invalid attempt count: expected %d got %d", 3, fetcher.mostActiveCalls)
	}
	if sleeps != 2 {
		t.Errorf("invalid sleep count: expected %d got %d", 2, sleeps)
	}
}

func TestFetchRetryExhausted(t *testing.T) {
	fetcher := &fakeFetcher{failMostActive: 100}
	job, _ := newTestJob(t, fetcher, &fakeUploader{})

	if _, err := job.fetchMostActive(); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if fetcher.mostActiveCalls != DefaultFetchRetries {
		t.Errorf("invalid attempt count: expected %d got %d", DefaultFetchRetries, fetcher.mostActiveCalls)
	}
}

func TestRetryDelayBounds(t *testing.T) {
	fetcher := &fakeFetcher{failMostActive: 100}
	job, _ := newTestJob(t, fetcher, &fakeUploader{})

	delay := job.Settings.RetryDelay
	job.sleep = func(d time.Duration) {
		if d < delay || d >= 2*delay {
			t.Errorf("sleep %s outside [%s, %s)", d, delay, 2*delay)
		}
	}

	job.fetchMostActive()
}

func TestUploadFailureStillWritesCSV(t *testing.T) {
	fetcher := &fakeFetcher{
		mostActive: rawValue(t, `[{"symbol": "ABC"}]`),
		advDec:     rawValue(t, `[{"index": "NIFTY"}]`),
	}
	uploader := &fakeUploader{err: errors.New("invalid credentials")}
	job, rec := newTestJob(t, fetcher, uploader)

	job.Run()

	for _, name := range []string{MostActiveCSV, AdvDecCSV} {
		if _, err := os.Stat(filepath.Join(job.Settings.OutputDir, name)); err != nil {
			t.Errorf("missing CSV file %s: %s", name, err.Error())
		}
	}
	r := rec.byDataset("most-active")
	if r == nil || r.Status != recorder.StatusFailed || r.Stage != "upload" {
		t.Errorf("invalid run record: %+v", r)
	}
}

func TestCSVFailureStillUploads(t *testing.T) {
	fetcher := &fakeFetcher{
		mostActive: rawValue(t, `[{"symbol": "ABC"}]`),
	}
	uploader := &fakeUploader{}
	job, rec := newTestJob(t, fetcher, uploader)
	job.Settings.OutputDir = filepath.Join(job.Settings.OutputDir, "missing")

	job.Run()

	if uploader.uploads[MostActiveTab] == nil {
		t.Error("upload should not be blocked by CSV failure")
	}
	r := rec.byDataset("most-active")
	if r == nil || r.Status != recorder.StatusFailed || r.Stage != "csv" {
		t.Errorf("invalid run record: %+v", r)
	}
}

func TestEmptyDatasetSkipped(t *testing.T) {
	fetcher := &fakeFetcher{
		mostActive: rawValue(t, `[{"symbol": "ABC"}]`),
		advDec:     nil,
	}
	uploader := &fakeUploader{}
	job, rec := newTestJob(t, fetcher, uploader)

	job.Run()

	if _, ok := uploader.uploads[AdvDecTab]; ok {
		t.Error("empty dataset should not be uploaded")
	}
	r := rec.byDataset("advances-declines")
	if r == nil || r.Status != recorder.StatusSkipped {
		t.Errorf("invalid run record: %+v", r)
	}
}

func TestBadShapeSkipsSinks(t *testing.T) {
	fetcher := &fakeFetcher{
		mostActive: rawValue(t, `[1, 2, 3]`),
	}
	uploader := &fakeUploader{}
	job, rec := newTestJob(t, fetcher, uploader)

	job.Run()

	if _, ok := uploader.uploads[MostActiveTab]; ok {
		t.Error("malformed dataset should not be uploaded")
	}
	if _, err := os.Stat(filepath.Join(job.Settings.OutputDir, MostActiveCSV)); err == nil {
		t.Error("malformed dataset should not be written to CSV")
	}
	r := rec.byDataset("most-active")
	if r == nil || r.Status != recorder.StatusFailed || r.Stage != "normalize" {
		t.Errorf("invalid run record: %+v", r)
	}
}

func TestNotifySummary(t *testing.T) {
	fetcher := &fakeFetcher{
		mostActive: rawValue(t, `[{"symbol": "ABC"}, {"symbol": "XYZ"}]`),
		advDec:     rawValue(t, `[{"index": "NIFTY"}]`),
	}
	notifier := &fakeNotifier{}
	job, _ := newTestJob(t, fetcher, &fakeUploader{})
	job.Notifier = notifier

	job.Run()

	if len(notifier.errors) != 0 {
		t.Fatalf("clean run should not use the error channel: got %v", notifier.errors)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("invalid message count: expected %d got %d", 1, len(notifier.messages))
	}
	msg := notifier.messages[0]
	if !strings.Contains(msg, "most-active: 2 rows") {
		t.Errorf("summary missing most-active line: %q", msg)
	}
	if !strings.Contains(msg, "advances-declines: 1 rows") {
		t.Errorf("summary missing advances-declines line: %q", msg)
	}
}

func TestNotifyFailureUsesErrorChannel(t *testing.T) {
	fetcher := &fakeFetcher{
		mostActive: rawValue(t, `[{"symbol": "ABC"}, {"symbol": "XYZ"}]`),
		advDecErr:  errors.New("connection reset"),
	}
	notifier := &fakeNotifier{}
	job, _ := newTestJob(t, fetcher, &fakeUploader{})
	job.Notifier = notifier

	job.Run()

	if len(notifier.messages) != 0 {
		t.Fatalf("failed run should not use the text channel: got %v", notifier.messages)
	}
	if len(notifier.errors) != 1 {
		t.Fatalf("invalid error message count: expected %d got %d", 1, len(notifier.errors))
	}
	msg := notifier.errors[0]
	if !strings.Contains(msg, "most-active: 2 rows") {
		t.Errorf("summary missing most-active line: %q", msg)
	}
	if !strings.Contains(msg, "advances-declines: failed at fetch") {
		t.Errorf("summary missing failure line: %q", msg)
	}
}
