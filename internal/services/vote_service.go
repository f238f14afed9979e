package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-review-backend/internal/domain"
)

// VoteService applies trust votes to product reviews. Repeat votes from the
// same visitor are not de-duplicated.
type VoteService struct {
	Catalog Catalog
}

// Apply records one "upvote" or "downvote" for slug and returns the
// verification score after the update.
//
// Errors:
//   - ErrInvalidInput for a blank slug or an unknown action.
//   - ErrProductNotFound when slug does not exist; nothing is mutated.
func (s *VoteService) Apply(ctx context.Context, slug, action string) (int, error) {
	tr := otel.Tracer("services/VoteService")
	ctx, span := tr.Start(ctx, "Apply",
		trace.WithAttributes(
			attribute.String("product.slug", slug),
			attribute.String("vote.action", action),
		),
	)
	defer span.End()

	if slug == "" {
		return 0, invalid("productId is required")
	}
	dir, ok := domain.ParseVoteDirection(action)
	if !ok {
		return 0, invalid("action must be upvote or downvote")
	}
	score, err := s.Catalog.IncrementVote(ctx, slug, dir)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int("vote.score", score))
	return score, nil
}
