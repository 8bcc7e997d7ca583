// Package repotest provides in-memory repositories for tests that do not
// need a MongoDB server.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/prperemyshlev/user-auth-service/internal/apperror"
	"github.com/prperemyshlev/user-auth-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInjected is returned by a store whose FailWith was set without an error
var ErrInjected = errors.New("injected store failure")

// memStore keeps documents in their bson form so filters and updates behave
// like the real collection for the supported subset.
type memStore[T any] struct {
	mu   sync.RWMutex
	docs []bson.M
	fail error
}

// FailWith makes every subsequent call return err (ErrInjected when nil)
func (s *memStore[T]) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	s.fail = err
}

// Reset clears documents and injected failures
func (s *memStore[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
	s.fail = nil
}

// Len returns the number of stored documents
func (s *memStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func decode[T any](m bson.M) (*T, error) {
	raw, err := bson.Marshal(m)
	if err != nil {
		return nil, err
	}
	var doc T
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *memStore[T]) insert(doc *T) (*T, error) {
	m, err := toM(doc)
	if err != nil {
		return nil, apperror.NewStoreError(apperror.StoreUnknownClient, err, "Invalid document: %s", err.Error())
	}
	if _, ok := m["_id"]; !ok {
		m["_id"] = primitive.NewObjectID()
	}
	s.docs = append(s.docs, m)
	return decode[T](m)
}

func (s *memStore[T]) Create(_ context.Context, doc *T) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	return s.insert(doc)
}

// indexes returns positions of matching documents; caller holds the lock
func (s *memStore[T]) indexes(filter repository.Filter, limit int) ([]int, error) {
	f, err := toM(filter)
	if err != nil {
		return nil, err
	}
	var out []int
	for i, d := range s.docs {
		ok, err := matches(d, f)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, i)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *memStore[T]) FindOne(_ context.Context, filter repository.Filter) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fail != nil {
		return nil, s.fail
	}
	idx, err := s.indexes(filter, 1)
	if err != nil || len(idx) == 0 {
		return nil, err
	}
	return decode[T](s.docs[idx[0]])
}

func (s *memStore[T]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.FindOne(ctx, repository.Filter{"_id": oid})
}

func (s *memStore[T]) Find(_ context.Context, filter repository.Filter) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fail != nil {
		return nil, s.fail
	}
	idx, err := s.indexes(filter, 0)
	if err != nil {
		return nil, err
	}

	matched := make([]bson.M, 0, len(idx))
	for _, i := range idx {
		matched = append(matched, s.docs[i])
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, _ := matched[i]["createdAt"].(primitive.DateTime)
		b, _ := matched[j]["createdAt"].(primitive.DateTime)
		return a < b
	})

	out := make([]T, 0, len(matched))
	for _, m := range matched {
		doc, err := decode[T](m)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, nil
}

func (s *memStore[T]) UpdateByID(_ context.Context, id string, update repository.Update) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return false, s.fail
	}
	idx, err := s.indexes(repository.Filter{"_id": oid}, 1)
	if err != nil || len(idx) == 0 {
		return false, err
	}
	return true, applyUpdate(s.docs[idx[0]], update)
}

func (s *memStore[T]) DeleteOne(_ context.Context, filter repository.Filter) (int64, error) {
	return s.delete(filter, 1)
}

func (s *memStore[T]) DeleteMany(_ context.Context, filter repository.Filter) (int64, error) {
	return s.delete(filter, 0)
}

func (s *memStore[T]) delete(filter repository.Filter, limit int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return 0, s.fail
	}
	idx, err := s.indexes(filter, limit)
	if err != nil {
		return 0, err
	}
	for n := len(idx) - 1; n >= 0; n-- {
		i := idx[n]
		s.docs = append(s.docs[:i], s.docs[i+1:]...)
	}
	return int64(len(idx)), nil
}

func (s *memStore[T]) Exists(_ context.Context, filter repository.Filter) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fail != nil {
		return false, s.fail
	}
	idx, err := s.indexes(filter, 1)
	return len(idx) > 0, err
}

// applyUpdate supports $set and $push on top-level fields
func applyUpdate(doc bson.M, update repository.Update) error {
	u, err := toM(update)
	if err != nil {
		return err
	}
	for op, arg := range u {
		fields, ok := asM(arg)
		if !ok {
			return fmt.Errorf("%s expects a document", op)
		}
		switch op {
		case "$set":
			for k, v := range fields {
				doc[k] = v
			}
		case "$push":
			for k, v := range fields {
				arr, _ := doc[k].(bson.A)
				doc[k] = append(arr, v)
			}
		default:
			return fmt.Errorf("unsupported update operator %s", op)
		}
	}
	return nil
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperror.NewStoreError(apperror.StoreCast, repository.ErrInvalidID,
			"The value %s is not valid for the field _id", id)
	}
	return oid, nil
}
