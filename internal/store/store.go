package store

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/platebook/platebook-backend/internal/utils/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Document is a stored record: its path ("collection/id"), own ID and fields.
type Document struct {
	Ref  string
	ID   string
	Data map[string]interface{}
}

// Storer is a storage abstraction layer interface
type Storer interface {
	ReadAll(ctx context.Context, collectionName string) ([]Document, error)
	Get(ctx context.Context, collectionName string, id string) (*Document, error)
	Find(ctx context.Context, collectionName string, field string, value interface{}) ([]Document, error)
	NewBatch() Batch
}

// Batch collects field updates and commits them atomically.
type Batch interface {
	Update(ref string, fields map[string]interface{})
	Len() int
	Commit(ctx context.Context) error
}

// Client to interact with Firestore
type Client struct {
	Firestore *firestore.Client
}

// ReadAll reads every document of the collection.
func (c Client) ReadAll(ctx context.Context, collectionName string) ([]Document, error) {
	it := c.Firestore.Collection(collectionName).Documents(ctx)
	defer it.Stop()

	var docs []Document

	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read collection %v: %w", collectionName, err)
		}

		docs = append(docs, Document{
			Ref:  collectionName + "/" + snap.Ref.ID,
			ID:   snap.Ref.ID,
			Data: snap.Data(),
		})
	}

	return docs, nil
}

// Get reads one document, NotFoundError when it does not exist.
func (c Client) Get(ctx context.Context, collectionName string, id string) (*Document, error) {
	snap, err := c.Firestore.Collection(collectionName).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, &errors.NotFoundError{Msg: fmt.Sprintf("Could not find %v/%v", collectionName, id)}
		}
		return nil, fmt.Errorf("Error while querying Firestore: %w", err)
	}

	return &Document{
		Ref:  collectionName + "/" + snap.Ref.ID,
		ID:   snap.Ref.ID,
		Data: snap.Data(),
	}, nil
}

// Find reads the documents whose field equals value.
func (c Client) Find(ctx context.Context, collectionName string, field string, value interface{}) ([]Document, error) {
	it := c.Firestore.Collection(collectionName).Where(field, "==", value).Documents(ctx)
	defer it.Stop()

	var docs []Document

	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not query collection %v: %w", collectionName, err)
		}

		docs = append(docs, Document{
			Ref:  collectionName + "/" + snap.Ref.ID,
			ID:   snap.Ref.ID,
			Data: snap.Data(),
		})
	}

	return docs, nil
}

// NewBatch starts a Firestore write batch.
func (c Client) NewBatch() Batch {
	return &batch{client: c.Firestore, wb: c.Firestore.Batch()}
}

type batch struct {
	client *firestore.Client
	wb     *firestore.WriteBatch
	size   int
}

// Update replaces each given top-level field of the document, leaving other fields intact. Map values replace the
// stored map as a whole.
func (b *batch) Update(ref string, fields map[string]interface{}) {
	b.wb.Set(b.client.Doc(ref), fields, firestore.Merge(topLevelPaths(fields)...))
	b.size++
}

func topLevelPaths(fields map[string]interface{}) []firestore.FieldPath {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	paths := make([]firestore.FieldPath, len(keys))
	for i, k := range keys {
		paths[i] = firestore.FieldPath{k}
	}
	return paths
}

func (b *batch) Len() int {
	return b.size
}

func (b *batch) Commit(ctx context.Context) error {
	_, err := b.wb.Commit(ctx)
	return err
}
