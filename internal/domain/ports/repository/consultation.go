package repository

import (
	"context"
	"time"

	"justice-agent-tools/internal/domain/model"
)

// ConsultationRepository persists finished consultation outcomes. It never
// stores in-flight job state; rows are written once, after the envelope has
// already been produced.
type ConsultationRepository interface {
	Save(ctx context.Context, c *model.Consultation) error
	// ListRecent returns the newest consultations, newest first.
	ListRecent(ctx context.Context, limit int) ([]*model.Consultation, error)
	// LatestCompletedByIdentifier returns the newest successful consultation
	// for an identifier not older than since, or nil when there is none.
	LatestCompletedByIdentifier(ctx context.Context, identifier string, since time.Time) (*model.Consultation, error)
	// CountByToolStatus aggregates totals for the ops stats endpoint.
	CountByToolStatus(ctx context.Context) (map[string]map[string]int, error)
}
