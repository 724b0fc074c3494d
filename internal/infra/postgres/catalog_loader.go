package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"scenario-assessment-service/internal/domain"
)

// CatalogLoader loads stage-catalog JSONB from Postgres and revalidates it
// through domain.NewCatalog, so authoring mistakes surface as CatalogError at
// load time rather than mid-game.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context, gameID string) (domain.Catalog, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM catalogs WHERE game_id=$1`, gameID).Scan(&raw)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load catalog: %w", err)
	}
	var decoded domain.Catalog
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return domain.Catalog{}, fmt.Errorf("unmarshal catalog: %w", err)
	}
	return domain.NewCatalog(gameID, decoded.Stages)
}
