package datatruck

import (
	"context"

	"github.com/dkchapman16/loadwatch/internal/models"
)

// Fetcher возвращает полный набор перевозок в каноническом виде.
type Fetcher interface {
	FetchLoads(ctx context.Context) ([]*models.Load, error)
}
