package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"scenario-assessment-service/internal/domain"
)

func TestCatalogRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		CatalogLoader: NewStaticCatalogLoader(map[string]domain.Catalog{
			"game-1": sampleCatalog(t),
		}),
	}
	repo := NewCatalogRepository(loader, time.Minute)

	if _, err := repo.GetCatalog(context.Background(), "game-1"); err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetCatalog(context.Background(), "game-1"); err != nil {
		t.Fatalf("get catalog 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestCatalogRepositoryPropagatesMiss(t *testing.T) {
	repo := NewCatalogRepository(NewStaticCatalogLoader(nil), time.Minute)
	_, err := repo.GetCatalog(context.Background(), "missing")
	if !errors.Is(err, domain.ErrCatalogNotFound) {
		t.Fatalf("expected catalog not found, got %v", err)
	}
}

type countingLoader struct {
	CatalogLoader
	calls int
}

func (l *countingLoader) LoadCatalog(ctx context.Context, gameID string) (domain.Catalog, error) {
	l.calls++
	return l.CatalogLoader.LoadCatalog(ctx, gameID)
}

func sampleCatalog(t *testing.T) domain.Catalog {
	t.Helper()
	catalog, err := domain.NewCatalog("game-1", []domain.Stage{
		{
			ID:     "s1",
			Prompt: "Pick the safe option",
			Options: []domain.Option{
				{ID: "o1", Label: "Unsafe", Reflection: "Risky."},
				{ID: "o2", Label: "Safe", Reflection: "Correct.", Correct: true},
			},
			Reward: 5,
		},
	})
	if err != nil {
		t.Fatalf("sample catalog: %v", err)
	}
	return catalog
}
