package main

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"
)

// storeHarness describes a Store implementation under test.
type storeHarness struct {
	newStore func(t *testing.T) Store
	// unusedID returns a well formed id that no sighting carries.
	unusedID func() string
	// spellings returns other accepted spellings of id.
	spellings func(id string) []string
}

// runStoreSuite exercises the behaviour every Store must share.
func runStoreSuite(t *testing.T, h storeHarness) {
	ctx := context.Background()
	when := time.Date(2023, 1, 1, 12, 30, 0, 0, time.UTC)

	seed := func(t *testing.T, st Store) []string {
		t.Helper()
		in := []*Sighting{
			{Description: "ABCDEF", Food: []string{"rice", "noodles"}, Datetime: when},
			{Description: "stall near block 3", Food: []string{"fried rice"}, Datetime: when.Add(time.Hour)},
			{Description: "", Food: []string{}, Datetime: when.Add(2 * time.Hour)},
		}
		ids := make([]string, len(in))
		for i, s := range in {
			id, err := st.Insert(ctx, s)
			assertNoError(t, err)
			if id == "" {
				t.Fatalf("empty id for sighting %d", i)
			}
			assertNoError(t, st.ValidateID(id))
			ids[i] = id
		}
		return ids
	}

	t.Run("FindAllInInsertionOrder", func(t *testing.T) {
		st := h.newStore(t)
		ids := seed(t, st)
		got, err := st.Find(ctx, SearchFilter{})
		assertNoError(t, err)
		assertEqual(t, ids, sightingIDs(got))
		if !got[0].Datetime.Equal(when) {
			t.Errorf("datetime = %s, want %s", got[0].Datetime, when)
		}
		assertEqual(t, []string{"rice", "noodles"}, got[0].Food)
		assertEqual(t, []string{}, got[2].Food)
	})

	t.Run("DescriptionCaseInsensitiveSubstring", func(t *testing.T) {
		st := h.newStore(t)
		ids := seed(t, st)
		got, err := st.Find(ctx, SearchFilter{Description: "abc"})
		assertNoError(t, err)
		assertEqual(t, []string{ids[0]}, sightingIDs(got))

		got, err = st.Find(ctx, SearchFilter{Description: "BLOCK"})
		assertNoError(t, err)
		assertEqual(t, []string{ids[1]}, sightingIDs(got))

		got, err = st.Find(ctx, SearchFilter{Description: "a.c"})
		assertNoError(t, err)
		assertEqual(t, []string{}, sightingIDs(got))
	})

	t.Run("FoodExactElement", func(t *testing.T) {
		st := h.newStore(t)
		ids := seed(t, st)
		got, err := st.Find(ctx, SearchFilter{Food: "rice"})
		assertNoError(t, err)
		assertEqual(t, []string{ids[0]}, sightingIDs(got))

		got, err = st.Find(ctx, SearchFilter{Food: "fried rice"})
		assertNoError(t, err)
		assertEqual(t, []string{ids[1]}, sightingIDs(got))

		got, err = st.Find(ctx, SearchFilter{Food: "Rice"})
		assertNoError(t, err)
		assertEqual(t, []string{}, sightingIDs(got))
	})

	t.Run("CombinedFilters", func(t *testing.T) {
		st := h.newStore(t)
		ids := seed(t, st)
		got, err := st.Find(ctx, SearchFilter{Description: "abc", Food: "noodles"})
		assertNoError(t, err)
		assertEqual(t, []string{ids[0]}, sightingIDs(got))

		got, err = st.Find(ctx, SearchFilter{Description: "block", Food: "noodles"})
		assertNoError(t, err)
		assertEqual(t, []string{}, sightingIDs(got))
	})

	t.Run("UpdateReplacesFields", func(t *testing.T) {
		st := h.newStore(t)
		ids := seed(t, st)
		later := when.Add(48 * time.Hour)
		err := st.Update(ctx, ids[0], &Sighting{ID: ids[0], Description: "moved", Food: []string{"laksa"}, Datetime: later})
		assertNoError(t, err)

		got, err := st.Find(ctx, SearchFilter{})
		assertNoError(t, err)
		assertEqual(t, ids, sightingIDs(got))
		assertEqual(t, "moved", got[0].Description)
		assertEqual(t, []string{"laksa"}, got[0].Food)
		if !got[0].Datetime.Equal(later) {
			t.Errorf("datetime = %s, want %s", got[0].Datetime, later)
		}

		got, err = st.Find(ctx, SearchFilter{Food: "rice"})
		assertNoError(t, err)
		assertEqual(t, []string{}, sightingIDs(got))
		got, err = st.Find(ctx, SearchFilter{Food: "laksa"})
		assertNoError(t, err)
		assertEqual(t, []string{ids[0]}, sightingIDs(got))
	})

	t.Run("UpdateMissingIsNoop", func(t *testing.T) {
		st := h.newStore(t)
		ids := seed(t, st)
		missing := h.unusedID()
		assertNoError(t, st.Update(ctx, missing, &Sighting{ID: missing, Description: "ghost", Food: []string{}, Datetime: when}))
		got, err := st.Find(ctx, SearchFilter{})
		assertNoError(t, err)
		assertEqual(t, ids, sightingIDs(got))
	})

	t.Run("Delete", func(t *testing.T) {
		st := h.newStore(t)
		ids := seed(t, st)
		assertNoError(t, st.Delete(ctx, ids[0]))
		assertNoError(t, st.Delete(ctx, ids[0]))
		assertNoError(t, st.Delete(ctx, h.unusedID()))

		got, err := st.Find(ctx, SearchFilter{})
		assertNoError(t, err)
		assertEqual(t, ids[1:], sightingIDs(got))
		got, err = st.Find(ctx, SearchFilter{Food: "rice"})
		assertNoError(t, err)
		assertEqual(t, []string{}, sightingIDs(got))
	})

	t.Run("AlternateIDSpellings", func(t *testing.T) {
		st := h.newStore(t)
		id, err := st.Insert(ctx, &Sighting{Description: "old", Food: []string{"rice"}, Datetime: when})
		assertNoError(t, err)

		for i, alt := range h.spellings(id) {
			assertNoError(t, st.ValidateID(alt))
			desc := fmt.Sprintf("update %d", i)
			assertNoError(t, st.Update(ctx, alt, &Sighting{Description: desc, Food: []string{"rice"}, Datetime: when}))
			got, err := st.Find(ctx, SearchFilter{})
			assertNoError(t, err)
			assertEqual(t, []string{id}, sightingIDs(got))
			if got[0].Description != desc {
				t.Fatalf("update via %q: description = %q, want %q", alt, got[0].Description, desc)
			}
		}

		alts := h.spellings(id)
		assertNoError(t, st.Delete(ctx, alts[len(alts)-1]))
		got, err := st.Find(ctx, SearchFilter{})
		assertNoError(t, err)
		assertEqual(t, []string{}, sightingIDs(got))
	})

	t.Run("DatetimeOutsideNanosecondRange", func(t *testing.T) {
		st := h.newStore(t)
		future := time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)
		past := time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC)
		id, err := st.Insert(ctx, &Sighting{Food: []string{}, Datetime: future})
		assertNoError(t, err)
		_, err = st.Insert(ctx, &Sighting{Food: []string{}, Datetime: past})
		assertNoError(t, err)

		got, err := st.Find(ctx, SearchFilter{})
		assertNoError(t, err)
		if len(got) != 2 {
			t.Fatalf("expected 2 sightings, got %d", len(got))
		}
		if !got[0].Datetime.Equal(future) {
			t.Errorf("datetime = %s, want %s", got[0].Datetime, future)
		}
		if !got[1].Datetime.Equal(past) {
			t.Errorf("datetime = %s, want %s", got[1].Datetime, past)
		}

		far := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
		assertNoError(t, st.Update(ctx, id, &Sighting{Food: []string{}, Datetime: far}))
		got, err = st.Find(ctx, SearchFilter{})
		assertNoError(t, err)
		if !got[0].Datetime.Equal(far) {
			t.Errorf("updated datetime = %s, want %s", got[0].Datetime, far)
		}
	})

	t.Run("MalformedID", func(t *testing.T) {
		st := h.newStore(t)
		for _, id := range []string{"", "not-an-id", "1234"} {
			if err := st.ValidateID(id); !errors.Is(err, ErrInvalidIdentifier) {
				t.Errorf("ValidateID(%q) = %v, want ErrInvalidIdentifier", id, err)
			}
			if err := st.Update(ctx, id, &Sighting{Food: []string{}}); !errors.Is(err, ErrInvalidIdentifier) {
				t.Errorf("Update(%q) = %v, want ErrInvalidIdentifier", id, err)
			}
			if err := st.Delete(ctx, id); !errors.Is(err, ErrInvalidIdentifier) {
				t.Errorf("Delete(%q) = %v, want ErrInvalidIdentifier", id, err)
			}
		}
	})
}

// uuidSpellings lists the forms uuid.Parse accepts besides the canonical one.
func uuidSpellings(id string) []string {
	return []string{
		strings.ToUpper(id),
		"{" + id + "}",
		"urn:uuid:" + id,
		strings.ReplaceAll(id, "-", ""),
	}
}

func sightingIDs(sightings []*Sighting) []string {
	ids := make([]string, 0, len(sightings))
	for _, s := range sightings {
		ids = append(ids, s.ID)
	}
	return ids
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}
