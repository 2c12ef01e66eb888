package consultation

import (
	"context"

	"go.uber.org/zap"

	"telemed-portal/internal/apperr"
)

// Source is the remote consultation data source. Declared here, on the
// consumer side, so the gateway does not depend on the concrete client.
type Source interface {
	GetConsultation(ctx context.Context, id string) (*Record, error)
	ListMyConsultations(ctx context.Context) ([]Record, error)
}

// Gateway resolves a consultation by id across the two permission paths: a
// record-level grant (direct fetch) and a list-level grant (the physician's
// own consultation list). A physician's list grant can legitimately be
// broader than the record grant, so a denied direct fetch falls back to
// scanning the list.
type Gateway struct {
	source Source
	logger *zap.Logger
}

func NewGateway(source Source, logger *zap.Logger) *Gateway {
	return &Gateway{source: source, logger: logger}
}

// Get fetches the consultation by id. Only an access-denied outcome on the
// direct fetch triggers the list fallback; every other error class (not
// found, validation, server, network) propagates unchanged. No caching:
// callers that need freshness call again.
func (g *Gateway) Get(ctx context.Context, id string) (*Record, error) {
	record, err := g.source.GetConsultation(ctx, id)
	if err == nil {
		return record, nil
	}
	if !apperr.Is(err, apperr.AccessDenied) {
		return nil, err
	}

	g.logger.Info("direct consultation access denied, scanning assigned list",
		zap.String("consultation_id", id),
	)

	list, listErr := g.source.ListMyConsultations(ctx)
	if listErr != nil {
		if apperr.Is(listErr, apperr.AccessDenied) {
			return nil, notAssigned(id)
		}
		return nil, listErr
	}
	for i := range list {
		if list[i].ID == id || list[i].ConsultationID == id {
			return &list[i], nil
		}
	}
	return nil, notAssigned(id)
}

func notAssigned(id string) error {
	return apperr.Newf(apperr.AccessDenied,
		"consultation %s is not assigned to you or does not exist", id)
}
