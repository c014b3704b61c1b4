package analytics

import (
	"context"

	"portfolio-analytics/internal/models"
)

// ESGDataProvider supplies environmental/social/governance scores for a set
// of holdings. Implementations live outside the engine; the engine only
// aggregates whatever the provider reports.
type ESGDataProvider interface {
	Scores(ctx context.Context, snapshot *models.PortfolioSnapshot) (*models.ESGReport, error)
}

// UnavailableESGProvider is the default provider: it reports that no ESG data
// source is configured. Scores are never invented.
type UnavailableESGProvider struct{}

func NewUnavailableESGProvider() *UnavailableESGProvider {
	return &UnavailableESGProvider{}
}

func (p *UnavailableESGProvider) Scores(ctx context.Context, snapshot *models.PortfolioSnapshot) (*models.ESGReport, error) {
	return &models.ESGReport{
		Available:     false,
		Reason:        models.ReasonESGUnavailable,
		Environmental: models.MetricUnavailable(models.ReasonESGUnavailable),
		Social:        models.MetricUnavailable(models.ReasonESGUnavailable),
		Governance:    models.MetricUnavailable(models.ReasonESGUnavailable),
		Composite:     models.MetricUnavailable(models.ReasonESGUnavailable),
	}, nil
}
