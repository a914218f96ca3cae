package realtimedb

import (
	"context"
	"encoding/json"
	"sync"

	"firebase.google.com/go/db"
)

// RealtimeDB is a Realtime DB abstraction layer interface
type RealtimeDB interface {
	Set(ctx context.Context, path string, v interface{}) error
	RunTransaction(ctx context.Context, path string, f db.UpdateFn) error
}

// Client to interact with Realtime DB
type Client struct {
	DB *db.Client
}

// Set overwrites the value at path in Realtime DB
func (c Client) Set(ctx context.Context, path string, v interface{}) error {
	return c.DB.NewRef(path).Set(ctx, v)
}

// RunTransaction runs f in a transaction at given path in Realtime DB
func (c Client) RunTransaction(ctx context.Context, path string, f db.UpdateFn) error {
	return c.DB.NewRef(path).Transaction(ctx, f)
}

// MockClient mocks Realtime DB for unit tests. It remembers every value written to a path, transactions included.
type MockClient struct {
	mu     sync.Mutex
	Values map[string][]interface{}
}

// Set records v under path
func (m *MockClient) Set(_ context.Context, path string, v interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.append(path, v)
	return nil
}

// Last returns the latest value written to path, nil when nothing was written.
func (m *MockClient) Last(path string) interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	values := m.Values[path]
	if len(values) == 0 {
		return nil
	}
	return values[len(values)-1]
}

// RunTransaction runs f against the latest value at path and records its result
func (m *MockClient) RunTransaction(_ context.Context, path string, f db.UpdateFn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current interface{}
	if values := m.Values[path]; len(values) > 0 {
		current = values[len(values)-1]
	}

	raw, err := json.Marshal(current)
	if err != nil {
		return err
	}

	next, err := f(mockNode(raw))
	if err != nil {
		return err
	}

	m.append(path, next)
	return nil
}

func (m *MockClient) append(path string, v interface{}) {
	if m.Values == nil {
		m.Values = map[string][]interface{}{}
	}
	m.Values[path] = append(m.Values[path], v)
}

type mockNode []byte

func (n mockNode) Unmarshal(v interface{}) error {
	return json.Unmarshal(n, v)
}
