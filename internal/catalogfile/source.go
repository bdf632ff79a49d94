// Package catalogfile loads the catalog from a local JSON file and reloads it
// when the file changes.
package catalogfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"menu-advisor/internal/common/config"
	apperrors "menu-advisor/internal/common/errors"
	"menu-advisor/internal/common/logger"
	"menu-advisor/internal/common/metrics"
	"menu-advisor/internal/common/validation"
	"menu-advisor/internal/models"
)

// Source reads either a bare dish array or {"platillos": [...]}.
type Source struct {
	path string
	log  logger.Logger
}

func NewSource(path string, log logger.Logger) *Source {
	return &Source{path: path, log: log.Component("catalogfile")}
}

func (s *Source) Path() string { return s.path }

// FetchCatalog reads and validates the file.
func (s *Source) FetchCatalog(ctx context.Context) (models.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		metrics.CatalogLoads.WithLabelValues(config.SourceFile, metrics.OutcomeFailure).Inc()
		return nil, apperrors.NewCatalogLoadFailedError(err)
	}

	catalog, err := Parse(raw)
	if err != nil {
		metrics.CatalogLoads.WithLabelValues(config.SourceFile, metrics.OutcomeFailure).Inc()
		return nil, err
	}

	metrics.CatalogLoads.WithLabelValues(config.SourceFile, metrics.OutcomeSuccess).Inc()
	s.log.Info("catalog read", map[string]interface{}{"path": s.path, "dishes": len(catalog)})
	return catalog, nil
}

// Parse accepts the service's response shape or the bare array the service
// itself serves from.
func Parse(raw []byte) (models.Catalog, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		trimmed = []byte(fmt.Sprintf(`{"platillos":%s}`, trimmed))
	}

	if result := validation.CatalogResponse.ValidateBytes(trimmed); !result.Valid {
		return nil, apperrors.NewCatalogMalformedError(result.Error())
	}
	var resp models.CatalogResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, apperrors.NewCatalogMalformedError(err.Error())
	}
	return models.Catalog(resp.Dishes), nil
}
