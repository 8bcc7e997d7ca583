package repotest

import (
	"context"
	"sort"

	"github.com/prperemyshlev/user-auth-service/internal/domain"
	"github.com/prperemyshlev/user-auth-service/internal/repository"
)

// LogErrors is an in-memory repository.LogErrorRepository
type LogErrors struct {
	*memStore[domain.LogError]
}

var _ repository.LogErrorRepository = (*LogErrors)(nil)

// NewLogErrors creates an empty store
func NewLogErrors() *LogErrors {
	return &LogErrors{memStore: &memStore[domain.LogError]{}}
}

// All returns every stored record in insertion order
func (l *LogErrors) All() []domain.LogError {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.LogError, 0, len(l.docs))
	for _, m := range l.docs {
		doc, err := decode[domain.LogError](m)
		if err == nil {
			out = append(out, *doc)
		}
	}
	return out
}

func (l *LogErrors) GroupByCode(ctx context.Context, filter repository.Filter) ([]domain.ErrorsGroupedByCode, error) {
	records, err := l.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	counts := map[int]int{}
	for _, r := range records {
		counts[r.Code]++
	}

	grouped := make([]domain.ErrorsGroupedByCode, 0, len(counts))
	for code, n := range counts {
		grouped = append(grouped, domain.ErrorsGroupedByCode{Code: code, Quantity: n})
	}
	sort.Slice(grouped, func(i, j int) bool {
		if grouped[i].Quantity != grouped[j].Quantity {
			return grouped[i].Quantity > grouped[j].Quantity
		}
		return grouped[i].Code < grouped[j].Code
	})
	return grouped, nil
}
