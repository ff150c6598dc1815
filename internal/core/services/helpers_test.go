package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/postprocessors/chunker"
)

// --- Shared fakes for service tests ---

// sleepRecorder records requested waits without sleeping.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.waits...)
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// fakeIndex wraps the in-memory index with scripted failures and call counts.
type fakeIndex struct {
	*memory.VectorIndex

	mu           sync.Mutex
	upsertErrs   []error
	queryErrs    []error
	deleteErr    error
	heartbeatErr error
	upsertCalls  int
	queryCalls   int
	deleteCalls  int
	batchSizes   []int
	ops          []string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{VectorIndex: memory.NewVectorIndex()}
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (f *fakeIndex) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	f.mu.Lock()
	f.upsertCalls++
	f.batchSizes = append(f.batchSizes, len(entries))
	if len(entries) > 0 {
		f.ops = append(f.ops, "upsert:"+entries[0].Metadata.DocID)
	}
	err := pop(&f.upsertErrs)
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.VectorIndex.Upsert(ctx, entries)
}

func (f *fakeIndex) Delete(ctx context.Context, ids []string) error {
	f.mu.Lock()
	f.deleteCalls++
	f.ops = append(f.ops, fmt.Sprintf("delete:%d", len(ids)))
	err := f.deleteErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.VectorIndex.Delete(ctx, ids)
}

func (f *fakeIndex) Query(
	ctx context.Context, text string, k int, filter domain.SearchFilter,
) ([]domain.SearchHit, error) {
	f.mu.Lock()
	f.queryCalls++
	err := pop(&f.queryErrs)
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.VectorIndex.Query(ctx, text, k, filter)
}

func (f *fakeIndex) Heartbeat(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heartbeatErr
}

// newTestVectorStore builds a vector store over idx that never sleeps.
func newTestVectorStore(idx *fakeIndex) (*VectorStore, *memory.MetadataStore) {
	meta := memory.NewMetadataStore()
	vs := NewVectorStore(idx, meta, chunker.New(), VectorStoreConfig{}, nil)
	vs.sleep = noSleep
	vs.index.sleep = noSleep
	return vs, meta
}

// fakeRepo serves a file tree keyed by path. Every call is recorded.
type fakeRepo struct {
	mu        sync.Mutex
	head      string
	headErr   map[string]error
	files     map[string][]byte
	fetchErrs map[string]error
	changes   []domain.FileChange
	calls     []string
}

func newFakeRepo(head string, files map[string]string) *fakeRepo {
	r := &fakeRepo{
		head:      head,
		headErr:   make(map[string]error),
		files:     make(map[string][]byte),
		fetchErrs: make(map[string]error),
	}
	for p, c := range files {
		r.files[p] = []byte(c)
	}
	return r
}

func (r *fakeRepo) record(call string) {
	r.calls = append(r.calls, call)
}

func (r *fakeRepo) callLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *fakeRepo) resetCalls() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *fakeRepo) LatestRevision(_ context.Context, src domain.Source) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("latest")
	if err := r.headErr[src.URL]; err != nil {
		return "", err
	}
	return r.head, nil
}

func (r *fakeRepo) ListFiles(_ context.Context, _ domain.Source, revision string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("list@" + revision)
	paths := make([]string, 0, len(r.files))
	for p := range r.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (r *fakeRepo) Compare(_ context.Context, _ domain.Source, base, head string) ([]domain.FileChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("compare " + base + "..." + head)
	return r.changes, nil
}

func (r *fakeRepo) FetchFile(_ context.Context, _ domain.Source, path, revision string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("fetch " + path + "@" + revision)
	if err := r.fetchErrs[path]; err != nil {
		return nil, err
	}
	data, ok := r.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	return data, nil
}

func (r *fakeRepo) Close() error { return nil }

// fakeExtractor handles .pdf by returning the bytes as text,
// or ErrNoText for inputs shorter than 5 bytes.
type fakeExtractor struct{}

func (fakeExtractor) Supports(ext string) bool { return ext == ".pdf" }

func (fakeExtractor) Extract(_ context.Context, _ string, data []byte) (string, error) {
	if len(data) < 5 {
		return "", domain.ErrNoText
	}
	return "extracted " + string(data), nil
}
