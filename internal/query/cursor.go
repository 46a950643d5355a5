package query

import (
	"context"
	"errors"
)

// ErrCursorExhausted is returned by NextMatch once every candidate has been
// consumed.
var ErrCursorExhausted = errors.New("query: cursor exhausted")

// Cursor walks the candidates of one resolved query. Candidates are fixed at
// construction time; imports that land mid-iteration do not appear.
type Cursor struct {
	level      Level
	template   Keys
	candidates []Keys
	next       int
}

// NewPatientCursor resolves a patient-level query and returns its cursor.
func NewPatientCursor(ctx context.Context, m *Matcher, keys Keys) (*Cursor, error) {
	candidates, err := m.MatchPatients(ctx, keys)
	if err != nil {
		return nil, err
	}
	return newCursor(LevelPatient, keys, candidates), nil
}

// NewStudyCursor resolves a study-level query and returns its cursor.
func NewStudyCursor(ctx context.Context, m *Matcher, keys Keys) (*Cursor, error) {
	candidates, err := m.MatchStudies(ctx, keys)
	if err != nil {
		return nil, err
	}
	return newCursor(LevelStudy, keys, candidates), nil
}

// NewSeriesCursor resolves a series-level query and returns its cursor.
func NewSeriesCursor(ctx context.Context, m *Matcher, keys Keys) (*Cursor, error) {
	candidates, err := m.MatchSeries(ctx, keys)
	if err != nil {
		return nil, err
	}
	return newCursor(LevelSeries, keys, candidates), nil
}

// NewImageCursor resolves an image-level query and returns its cursor.
func NewImageCursor(ctx context.Context, m *Matcher, keys Keys) (*Cursor, error) {
	candidates, err := m.MatchImages(ctx, keys)
	if err != nil {
		return nil, err
	}
	return newCursor(LevelImage, keys, candidates), nil
}

// NewCursor resolves a query at the named level and returns its cursor.
func NewCursor(ctx context.Context, m *Matcher, level Level, keys Keys) (*Cursor, error) {
	switch level {
	case LevelPatient:
		return NewPatientCursor(ctx, m, keys)
	case LevelStudy:
		return NewStudyCursor(ctx, m, keys)
	case LevelSeries:
		return NewSeriesCursor(ctx, m, keys)
	case LevelImage:
		return NewImageCursor(ctx, m, keys)
	}
	return nil, errors.New("query: unknown level " + string(level))
}

func newCursor(level Level, keys Keys, candidates []Keys) *Cursor {
	return &Cursor{level: level, template: keys.Clone(), candidates: candidates}
}

// Level reports the hierarchy level the cursor iterates.
func (c *Cursor) Level() Level {
	return c.level
}

// MatchCount reports the total number of candidates the query resolved to.
func (c *Cursor) MatchCount() int {
	return len(c.candidates)
}

// HasMoreMatches reports whether NextMatch will yield another response.
func (c *Cursor) HasMoreMatches() bool {
	return c.next < len(c.candidates)
}

// NextMatch returns the next response: the requested key set with every
// field the matched entity carries a non-blank value for filled in. Fields
// the caller asked about that the entity left blank keep their requested
// shape so the response echoes the full key set back.
func (c *Cursor) NextMatch() (Keys, error) {
	if !c.HasMoreMatches() {
		return nil, ErrCursorExhausted
	}
	candidate := c.candidates[c.next]
	c.next++

	response := c.template.Clone()
	for field, value := range candidate {
		if value != "" {
			response[field] = value
		}
	}
	return response, nil
}
