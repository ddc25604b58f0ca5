package usecase

import (
	"context"

	"github.com/mfedorov/legalrag/internal/core/ports"
)

type HealthUseCase struct {
	store ports.VectorStore
}

var _ ports.HealthService = (*HealthUseCase)(nil)

func NewHealthUseCase(store ports.VectorStore) *HealthUseCase {
	return &HealthUseCase{store: store}
}

// Check reports "ok" with the collection size, or "degraded" with zero when
// the vector store is unreachable. It never returns an error; health is a
// state, not a failure.
func (uc *HealthUseCase) Check(ctx context.Context) (string, int) {
	count, err := uc.store.Count(ctx)
	if err != nil {
		return "degraded", 0
	}
	return "ok", count
}
