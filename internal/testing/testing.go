// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/desertthunder/alignx/internal/models"
)

// AlignmentTask builds a task with a single alignment target.
func AlignmentTask(id, status, audioURL string) *models.Task {
	return &models.Task{
		ID:      id,
		Status:  status,
		Targets: []models.Target{{Model: models.ModelAlignment, Status: status, URL: audioURL}},
	}
}

// MockTaskAPI is a scripted test double for the task API consumed by the tasks package.
//
// GetTask pops the next scripted response for an id; the last response repeats once the script runs out.
type MockTaskAPI struct {
	mu sync.Mutex

	Created     *models.Task
	CreateErr   error
	Scripts     map[string][]*models.Task
	GetErr      error
	GetErrs     map[string]error
	List        []*models.Task
	ListErr     error
	Transcripts map[string]*models.Transcript
	FetchErr    error

	CreateCalls int
	GetCalls    map[string]int
	ListLimits  []int
	Submitted   []string
}

// NewMockTaskAPI creates an empty MockTaskAPI.
func NewMockTaskAPI() *MockTaskAPI {
	return &MockTaskAPI{
		Scripts:     make(map[string][]*models.Task),
		GetErrs:     make(map[string]error),
		Transcripts: make(map[string]*models.Transcript),
		GetCalls:    make(map[string]int),
	}
}

// Script queues responses for GetTask(id).
func (m *MockTaskAPI) Script(id string, responses ...*models.Task) *MockTaskAPI {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Scripts[id] = append(m.Scripts[id], responses...)
	return m
}

func (m *MockTaskAPI) CreateTask(ctx context.Context, audioURL string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	m.Submitted = append(m.Submitted, audioURL)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	return m.Created.Clone(), nil
}

func (m *MockTaskAPI) GetTask(ctx context.Context, id string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls[id]++
	if err := m.GetErrs[id]; err != nil {
		return nil, err
	}
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	script := m.Scripts[id]
	if len(script) == 0 {
		return nil, fmt.Errorf("task not found: %s", id)
	}
	next := script[0]
	if len(script) > 1 {
		m.Scripts[id] = script[1:]
	}
	return next.Clone(), nil
}

func (m *MockTaskAPI) ListTasks(ctx context.Context, limit int) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListLimits = append(m.ListLimits, limit)
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]*models.Task, len(m.List))
	for i, t := range m.List {
		out[i] = t.Clone()
	}
	return out, nil
}

func (m *MockTaskAPI) FetchTranscript(ctx context.Context, url string) (*models.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	tr, ok := m.Transcripts[url]
	if !ok {
		return nil, fmt.Errorf("no transcript at %s", url)
	}
	return tr, nil
}

// Calls returns how many times GetTask was called for id.
func (m *MockTaskAPI) Calls(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GetCalls[id]
}

// MockAssetSource returns a fixed manifest.
type MockAssetSource struct {
	Assets []models.Asset
	Err    error
}

func (m *MockAssetSource) FetchManifest(ctx context.Context) ([]models.Asset, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.Asset(nil), m.Assets...), nil
}

// MemoryRecordStore is an in-memory record store keyed by task id.
type MemoryRecordStore struct {
	mu      sync.Mutex
	Records map[string]models.AlignmentRecord
	PutErr  error
}

// NewMemoryRecordStore creates an empty MemoryRecordStore.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{Records: make(map[string]models.AlignmentRecord)}
}

func (s *MemoryRecordStore) GetAll() ([]models.AlignmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AlignmentRecord, 0, len(s.Records))
	for _, r := range s.Records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out, nil
}

func (s *MemoryRecordStore) Put(rec models.AlignmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.Records[rec.TaskID] = rec
	return nil
}

func (s *MemoryRecordStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Records = make(map[string]models.AlignmentRecord)
	return nil
}

func (s *MemoryRecordStore) ReplaceAll(records []models.AlignmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.Records = make(map[string]models.AlignmentRecord, len(records))
	for _, r := range records {
		s.Records[r.TaskID] = r
	}
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
