package usecase

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"AethFlow/internal/domain/models"
	applogger "AethFlow/pkg/logger"
)

type fakeRegistry struct {
	states map[string]*models.JobState
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{states: map[string]*models.JobState{}}
}

func (f *fakeRegistry) Create(_ context.Context, id string) error {
	f.states[id] = &models.JobState{ID: id, Status: models.StatusQueued}
	return nil
}

func (f *fakeRegistry) Get(_ context.Context, id string) (*models.JobState, error) {
	return f.states[id], nil
}

func (f *fakeRegistry) SetProgress(_ context.Context, id string, status models.JobStatus, percent int, message string) error {
	s := f.states[id]
	s.Status = status
	s.Progress = percent
	s.Message = message
	return nil
}

func (f *fakeRegistry) SetResult(_ context.Context, id string, result *models.JobResult) error {
	s := f.states[id]
	s.Status = models.StatusCompleted
	s.Progress = 100
	s.Result = result
	return nil
}

func (f *fakeRegistry) Fail(_ context.Context, id string, message string) error {
	s := f.states[id]
	s.Status = models.StatusError
	s.Message = message
	return nil
}

type fakeFiles struct {
	dir     string
	written map[string][]models.ProcessedRecord
}

func newFakeFiles(dir string) *fakeFiles {
	return &fakeFiles{dir: dir, written: map[string][]models.ProcessedRecord{}}
}

func (f *fakeFiles) SaveUpload(name string, r io.Reader) (string, error) {
	path := filepath.Join(f.dir, name)
	b, _ := io.ReadAll(r)
	return path, os.WriteFile(path, b, 0o644)
}

func (f *fakeFiles) WriteResult(name string, records []models.ProcessedRecord) (string, error) {
	f.written[name] = records
	return filepath.Join(f.dir, name), nil
}

func (f *fakeFiles) OpenResult(name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(f.dir, name))
}

func (f *fakeFiles) ResultPath(name string) (string, error) {
	return filepath.Join(f.dir, name), nil
}

type fakeMetrics struct {
	finished map[string]int
	errors   map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{finished: map[string]int{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordJobStarted() {}

func (m *fakeMetrics) RecordJobFinished(status string, _ float64) { m.finished[status]++ }

func (m *fakeMetrics) RecordRowsRead(int64) {}

func (m *fakeMetrics) RecordRowsSkipped(int64) {}

func (m *fakeMetrics) RecordWindowsEmitted(int64) {}

func (m *fakeMetrics) RecordStageLatency(string, float64) {}

func (m *fakeMetrics) RecordError(kind string) { m.errors[kind]++ }

type fakeEvents struct {
	events []models.JobEvent
}

func (f *fakeEvents) PublishJobEvent(_ context.Context, ev models.JobEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEvents) Close() error { return nil }

func writeTempCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func newTestPipeline(t *testing.T, dir string) (*Pipeline, *fakeRegistry, *fakeFiles, *fakeMetrics, *fakeEvents) {
	t.Helper()
	reg := newFakeRegistry()
	files := newFakeFiles(dir)
	m := newFakeMetrics()
	ev := &fakeEvents{}
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	p := NewPipeline(reg, files, nil, ev, m, l, PipelineConfig{
		ChunkSize:     10,
		JoinTolerance: 5 * time.Minute,
		ProgressEvery: 1,
	})
	return p, reg, files, m, ev
}

const pipelineCSV = `Timestamp,Blue ATN1,Blue BC1
2024-03-01 00:00:00,0.000,100
2024-03-01 00:01:00,0.005,110
2024-03-01 00:02:00,0.012,120
2024-03-01 00:03:00,0.020,130
2024-03-01 00:04:00,0.030,140
`

func TestPipelineRunCompletes(t *testing.T) {
	dir := t.TempDir()
	p, reg, files, m, ev := newTestPipeline(t, dir)
	dataPath := writeTempCSV(t, dir, "input.csv", pipelineCSV)

	ctx := context.Background()
	_ = reg.Create(ctx, "job-1")

	err := p.Run(ctx, ProcessRequest{
		JobID:      "job-1",
		DataPath:   dataPath,
		ATNMin:     0.01,
		Wavelength: "Blue",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	state := reg.states["job-1"]
	if state.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", state.Status, state.Message)
	}
	res := state.Result
	if res == nil {
		t.Fatalf("no result stored")
	}
	if res.TotalRecords != 2 {
		t.Fatalf("expected 2 records, got %d", res.TotalRecords)
	}
	if res.RowsRead != 5 || res.RowsSkipped != 0 {
		t.Fatalf("unexpected counters: %d read, %d skipped", res.RowsRead, res.RowsSkipped)
	}
	if *res.Records[0].ProcessedBC != 110 || *res.Records[1].ProcessedBC != 135 {
		t.Fatalf("wrong processed values: %v, %v", *res.Records[0].ProcessedBC, *res.Records[1].ProcessedBC)
	}
	if !strings.HasPrefix(res.DownloadPath, "/api/download/") {
		t.Fatalf("bad download path %q", res.DownloadPath)
	}
	if len(files.written["job-1.csv"]) != 2 {
		t.Fatalf("result CSV not written")
	}
	if m.finished["completed"] != 1 {
		t.Fatalf("completion not recorded")
	}
	if len(ev.events) != 1 || ev.events[0].Status != models.StatusCompleted {
		t.Fatalf("expected one completion event, got %v", ev.events)
	}
}

func TestPipelineRunWithWeather(t *testing.T) {
	dir := t.TempDir()
	p, reg, _, _, _ := newTestPipeline(t, dir)
	dataPath := writeTempCSV(t, dir, "input.csv", pipelineCSV)
	weatherPath := writeTempCSV(t, dir, "weather.csv", `Timestamp,Temperature
2024-03-01 00:00:00,20
2024-03-01 00:02:00,21
2024-03-01 00:04:00,22
`)

	ctx := context.Background()
	_ = reg.Create(ctx, "job-2")

	err := p.Run(ctx, ProcessRequest{
		JobID:       "job-2",
		DataPath:    dataPath,
		WeatherPath: weatherPath,
		ATNMin:      0.01,
		Wavelength:  "Blue",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	res := reg.states["job-2"].Result
	if res == nil {
		t.Fatalf("no result stored")
	}
	w, ok := res.Weather["temperature"]
	if !ok {
		t.Fatalf("expected temperature correlation, got %v", res.Weather)
	}
	if w.Insufficient {
		t.Fatalf("2 pairs are enough to compute: %+v", w)
	}
	if w.SampleSize != 2 {
		t.Fatalf("expected 2 pairs, got %d", w.SampleSize)
	}
	// two strictly increasing pairs: perfect but insignificant
	if w.PearsonR < 0.999 || w.PearsonP != 1 {
		t.Fatalf("unexpected correlation: %+v", w)
	}
}

func TestPipelineRunEmptyInputFails(t *testing.T) {
	dir := t.TempDir()
	p, reg, _, m, _ := newTestPipeline(t, dir)
	dataPath := writeTempCSV(t, dir, "empty.csv", "Timestamp,Blue ATN1,Blue BC1\n")

	ctx := context.Background()
	_ = reg.Create(ctx, "job-3")

	err := p.Run(ctx, ProcessRequest{
		JobID:      "job-3",
		DataPath:   dataPath,
		ATNMin:     0.01,
		Wavelength: "Blue",
	})
	if err == nil {
		t.Fatalf("expected data quality failure")
	}

	state := reg.states["job-3"]
	if state.Status != models.StatusError {
		t.Fatalf("expected error status, got %s", state.Status)
	}
	if m.errors["data_quality"] != 1 {
		t.Fatalf("expected data_quality error metric, got %v", m.errors)
	}
	if m.finished["error"] != 1 {
		t.Fatalf("failure not recorded in metrics")
	}
}

func TestPipelineRunUnknownWavelength(t *testing.T) {
	dir := t.TempDir()
	p, reg, _, _, _ := newTestPipeline(t, dir)

	ctx := context.Background()
	_ = reg.Create(ctx, "job-4")

	err := p.Run(ctx, ProcessRequest{
		JobID:      "job-4",
		DataPath:   filepath.Join(dir, "missing.csv"),
		ATNMin:     0.01,
		Wavelength: "Ultraviolet",
	})
	if err == nil {
		t.Fatalf("expected wavelength error")
	}
	if reg.states["job-4"].Status != models.StatusError {
		t.Fatalf("job not failed")
	}
}

func TestPipelineRunMissingChannelColumns(t *testing.T) {
	dir := t.TempDir()
	p, reg, _, m, _ := newTestPipeline(t, dir)
	dataPath := writeTempCSV(t, dir, "wrong.csv", "Timestamp,Red ATN1,Red BC1\n2024-03-01 00:00:00,0.1,5\n")

	ctx := context.Background()
	_ = reg.Create(ctx, "job-5")

	err := p.Run(ctx, ProcessRequest{
		JobID:      "job-5",
		DataPath:   dataPath,
		ATNMin:     0.01,
		Wavelength: "Blue",
	})
	if err == nil {
		t.Fatalf("expected configuration error")
	}
	if m.errors["config"] != 1 {
		t.Fatalf("expected config error metric, got %v", m.errors)
	}
	if !strings.Contains(reg.states["job-5"].Message, "Blue") {
		t.Fatalf("error message should name the channel: %q", reg.states["job-5"].Message)
	}
}
