package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/platebook/platebook-backend/internal/utils/errors"
)

// MockClient mocks storage client functionality for unit tests. It keeps documents in memory and applies
// committed batches by replacing top-level fields, like Client.
type MockClient struct {
	mu   sync.Mutex
	docs map[string]map[string]interface{}

	// Commits holds the size of every successfully committed batch.
	Commits []int
	// ReadErrors fails ReadAll of the given collection.
	ReadErrors map[string]error
	// CommitHook is called before each commit with its 1-based number; a returned error fails that commit.
	CommitHook func(ctx context.Context, n int) error
}

// NewMockClient creates an empty in-memory store.
func NewMockClient() *MockClient {
	return &MockClient{docs: map[string]map[string]interface{}{}}
}

// Put stores a document under the "collection/id" ref.
func (m *MockClient) Put(ref string, data map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[ref] = copyFields(data)
}

// Data returns a copy of the stored fields, nil when absent.
func (m *MockClient) Data(ref string) map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d, ok := m.docs[ref]; ok {
		return copyFields(d)
	}
	return nil
}

// ReadAll returns the documents of the collection ordered by ID.
func (m *MockClient) ReadAll(ctx context.Context, collectionName string) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ReadErrors[collectionName]; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := collectionName + "/"
	var docs []Document
	for ref, data := range m.docs {
		if !strings.HasPrefix(ref, prefix) {
			continue
		}
		docs = append(docs, Document{Ref: ref, ID: strings.TrimPrefix(ref, prefix), Data: copyFields(data)})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	return docs, nil
}

// Get returns one document, NotFoundError when absent.
func (m *MockClient) Get(_ context.Context, collectionName string, id string) (*Document, error) {
	ref := collectionName + "/" + id
	data := m.Data(ref)
	if data == nil {
		return nil, &errors.NotFoundError{Msg: fmt.Sprintf("Could not find %v", ref)}
	}
	return &Document{Ref: ref, ID: id, Data: data}, nil
}

// Find returns the documents of the collection whose field equals value, ordered by ID.
func (m *MockClient) Find(ctx context.Context, collectionName string, field string, value interface{}) ([]Document, error) {
	docs, err := m.ReadAll(ctx, collectionName)
	if err != nil {
		return nil, err
	}

	var found []Document
	for _, doc := range docs {
		if v, ok := doc.Data[field]; ok && reflect.DeepEqual(v, value) {
			found = append(found, doc)
		}
	}
	return found, nil
}

// NewBatch starts an in-memory batch.
func (m *MockClient) NewBatch() Batch {
	return &mockBatch{client: m}
}

type mockUpdate struct {
	ref    string
	fields map[string]interface{}
}

type mockBatch struct {
	client  *MockClient
	updates []mockUpdate
}

func (b *mockBatch) Update(ref string, fields map[string]interface{}) {
	b.updates = append(b.updates, mockUpdate{ref: ref, fields: copyFields(fields)})
}

func (b *mockBatch) Len() int {
	return len(b.updates)
}

func (b *mockBatch) Commit(ctx context.Context) error {
	m := b.client

	m.mu.Lock()
	n := len(m.Commits) + 1
	hook := m.CommitHook
	m.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, n); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range b.updates {
		doc, ok := m.docs[u.ref]
		if !ok {
			doc = map[string]interface{}{}
			m.docs[u.ref] = doc
		}
		for k, v := range u.fields {
			doc[k] = v
		}
	}
	m.Commits = append(m.Commits, len(b.updates))

	return nil
}

func copyFields(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
