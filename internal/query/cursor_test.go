package query_test

import (
	"context"
	"errors"
	"testing"

	"mupacs/internal/query"
)

func TestCursorYieldsEveryMatchThenExhausts(t *testing.T) {
	m := newSeededMatcher(t)

	cursor, err := query.NewPatientCursor(context.Background(), m, query.Keys{
		query.FieldPatientName: "*",
	})
	if err != nil {
		t.Fatalf("NewPatientCursor: %v", err)
	}
	if cursor.MatchCount() != 2 {
		t.Fatalf("MatchCount = %d, want 2", cursor.MatchCount())
	}

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		if !cursor.HasMoreMatches() {
			t.Fatalf("HasMoreMatches false before match %d", i+1)
		}
		match, err := cursor.NextMatch()
		if err != nil {
			t.Fatalf("NextMatch %d: %v", i+1, err)
		}
		seen[match[query.FieldPatientName]] = true
	}
	if !seen["Doe^John"] || !seen["Roe^Jane"] {
		t.Errorf("matched patients = %v, want both seeded patients", seen)
	}

	if cursor.HasMoreMatches() {
		t.Error("HasMoreMatches true after final match")
	}
	if _, err := cursor.NextMatch(); !errors.Is(err, query.ErrCursorExhausted) {
		t.Errorf("NextMatch past end = %v, want ErrCursorExhausted", err)
	}
}

func TestCursorResponseOverlaysTemplate(t *testing.T) {
	m := newSeededMatcher(t)

	// Ask for a field the entity has no value for; the response keeps the
	// requested (blank) shape instead of dropping the field.
	cursor, err := query.NewPatientCursor(context.Background(), m, query.Keys{
		query.FieldPatientName:      "Roe^Jane",
		query.FieldPatientBirthDate: "",
	})
	if err != nil {
		t.Fatalf("NewPatientCursor: %v", err)
	}
	match, err := cursor.NextMatch()
	if err != nil {
		t.Fatalf("NextMatch: %v", err)
	}
	if got, ok := match[query.FieldPatientBirthDate]; !ok || got != "" {
		t.Errorf("PatientBirthDate = %q (present=%v), want blank and present", got, ok)
	}
	if got := match[query.FieldPatientID]; got != "PAT002" {
		t.Errorf("PatientID = %q, want PAT002", got)
	}
}

func TestCursorEmptyResult(t *testing.T) {
	m := newSeededMatcher(t)

	cursor, err := query.NewStudyCursor(context.Background(), m, query.Keys{
		query.FieldStudyInstanceUID: "9.9.9",
	})
	if err != nil {
		t.Fatalf("NewStudyCursor: %v", err)
	}
	if cursor.HasMoreMatches() {
		t.Error("HasMoreMatches true with no candidates")
	}
	if _, err := cursor.NextMatch(); !errors.Is(err, query.ErrCursorExhausted) {
		t.Errorf("NextMatch = %v, want ErrCursorExhausted", err)
	}
}

func TestNewCursorDispatchesByLevel(t *testing.T) {
	m := newSeededMatcher(t)
	ctx := context.Background()

	counts := map[query.Level]int{
		query.LevelPatient: 2,
		query.LevelStudy:   2,
		query.LevelSeries:  2,
		query.LevelImage:   4,
	}
	for level, want := range counts {
		cursor, err := query.NewCursor(ctx, m, level, query.Keys{})
		if err != nil {
			t.Fatalf("NewCursor(%s): %v", level, err)
		}
		if cursor.Level() != level {
			t.Errorf("Level = %s, want %s", cursor.Level(), level)
		}
		if cursor.MatchCount() != want {
			t.Errorf("MatchCount(%s) = %d, want %d", level, cursor.MatchCount(), want)
		}
	}

	if _, err := query.NewCursor(ctx, m, query.Level("FRAME"), query.Keys{}); err == nil {
		t.Error("NewCursor with unknown level succeeded, want error")
	}
}
