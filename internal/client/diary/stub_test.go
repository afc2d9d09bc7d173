package diary

import (
	"context"
	"sort"
	"sync"

	"github.com/nchiang/moodiary/internal/client/models"
	"github.com/nchiang/moodiary/internal/common"
	"github.com/nchiang/moodiary/internal/logging"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (nopLogger) With(args ...any) logging.Logger                    { return nopLogger{} }

// fakeStore is an in-memory document store with per-path fault injection.
type fakeStore struct {
	mu          sync.Mutex
	collections map[string]map[string]models.RawDocument
	readErr     map[string]error
	writeErr    map[string]error
	pingErr     error
	setCalls    int
	absentCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		collections: make(map[string]map[string]models.RawDocument),
		readErr:     make(map[string]error),
		writeErr:    make(map[string]error),
	}
}

func (f *fakeStore) put(path, id string, doc models.RawDocument) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.collections[path] == nil {
		f.collections[path] = make(map[string]models.RawDocument)
	}
	f.collections[path][id] = doc
}

func (f *fakeStore) get(path, id string) (models.RawDocument, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.collections[path][id]
	return doc, ok
}

func (f *fakeStore) ReadCollection(ctx context.Context, path string) ([]models.RawDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.readErr[path]; err != nil {
		return nil, err
	}
	docs := make([]models.RawDocument, 0, len(f.collections[path]))
	for _, d := range f.collections[path] {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].String("date") > docs[j].String("date")
	})
	return docs, nil
}

func (f *fakeStore) Get(ctx context.Context, path string, id string) (models.RawDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.readErr[path]; err != nil {
		return nil, err
	}
	doc, ok := f.collections[path][id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return doc, nil
}

func (f *fakeStore) Set(ctx context.Context, path string, id string, doc models.RawDocument) error {
	f.mu.Lock()
	f.setCalls++
	err := f.writeErr[path]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.put(path, id, doc)
	return nil
}

func (f *fakeStore) SetIfAbsent(ctx context.Context, path string, id string, doc models.RawDocument) error {
	f.mu.Lock()
	f.absentCalls++
	if err := f.writeErr[path]; err != nil {
		f.mu.Unlock()
		return err
	}
	if _, exists := f.collections[path][id]; exists {
		f.mu.Unlock()
		return common.ErrConflict
	}
	f.mu.Unlock()
	f.put(path, id, doc)
	return nil
}

func (f *fakeStore) Update(ctx context.Context, path string, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.writeErr[path]; err != nil {
		return err
	}
	doc, ok := f.collections[path][id]
	if !ok {
		return common.ErrNotFound
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, path string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.writeErr[path]; err != nil {
		return err
	}
	delete(f.collections[path], id)
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

// fakePending is an in-memory pending store.
type fakePending struct {
	mu     sync.Mutex
	items  map[string]models.PendingWrite
	putErr error
}

func newFakePending() *fakePending {
	return &fakePending{items: make(map[string]models.PendingWrite)}
}

func (f *fakePending) Put(ctx context.Context, w *models.PendingWrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.items[w.ID] = *w
	return nil
}

func (f *fakePending) GetAll(ctx context.Context) ([]*models.PendingWrite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.PendingWrite, 0, len(f.items))
	for _, w := range f.items {
		cp := w
		cp.LocalPending = true
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakePending) Remove(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

func (f *fakePending) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
