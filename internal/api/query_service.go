package api

import (
	"context"

	"mupacs/internal/query"
	"mupacs/internal/store"
)

// QueryService answers level-scoped archive queries with DTO matches.
type QueryService struct {
	matcher *query.Matcher
	store   *store.Store
}

// NewQueryService constructs a QueryService over the archive store.
func NewQueryService(st *store.Store) *QueryService {
	if st == nil {
		return nil
	}
	return &QueryService{matcher: query.NewMatcher(st), store: st}
}

// Query resolves a cursor at the given level and drains it.
func (s *QueryService) Query(ctx context.Context, level query.Level, keys query.Keys) ([]map[string]string, error) {
	cursor, err := query.NewCursor(ctx, s.matcher, level, keys)
	if err != nil {
		return nil, err
	}

	matches := make([]map[string]string, 0, cursor.MatchCount())
	for cursor.HasMoreMatches() {
		match, err := cursor.NextMatch()
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// Counts reports the hierarchy cardinalities.
func (s *QueryService) Counts(ctx context.Context) (ArchiveCounts, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return ArchiveCounts{}, err
	}
	return ArchiveCounts{
		Patients:  counts.Patients,
		Studies:   counts.Studies,
		Series:    counts.Series,
		Instances: counts.Instances,
	}, nil
}
