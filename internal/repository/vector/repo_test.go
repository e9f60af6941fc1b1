package vector

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/domain/plan"
	"github.com/inkwell-labs/inkwell/internal/domain/search/result"
)

type mockStore struct {
	lastQuery *db.KNNQuery
	resp      *db.SearchResult
	err       error
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastQuery = q
	return m.resp, m.err
}

func TestSearch_BuildsQuery(t *testing.T) {
	store := &mockStore{resp: &db.SearchResult{}}
	repo := New(store, "entries:idx", zap.NewNop())

	tr := &plan.TimeRange{
		Start: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 4, 8, 0, 0, 0, 0, time.UTC),
	}
	repo.Search(context.Background(), "u1", []float32{0.1, 0.2}, 0.3, tr, 10)

	q := store.lastQuery
	if q == nil {
		t.Fatal("expected a KNN query")
	}
	if q.IndexName != "entries:idx" || q.Owner != "u1" || q.K != 10 {
		t.Errorf("unexpected query: %+v", q)
	}
	if q.MinSimilarity != 0.3 {
		t.Errorf("expected similarity threshold 0.3, got %g", q.MinSimilarity)
	}
	if q.Start == nil || !q.Start.Equal(tr.Start) {
		t.Error("time range not propagated")
	}
}

func TestSearch_ParsesEntries(t *testing.T) {
	created := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)
	store := &mockStore{resp: &db.SearchResult{
		Total: 1,
		Entries: []db.SearchEntry{{
			Key:   db.KeyPrefix + "e42",
			Score: 0.91,
			Fields: map[string]string{
				"__content":       "slept badly again",
				"created_at":      strconv.FormatInt(created.Unix(), 10),
				"themes":          "sleep,health",
				"emotion_anxious": "0.6",
			},
		}},
	}}
	repo := New(store, "idx", zap.NewNop())

	results := repo.Search(context.Background(), "u1", []float32{0.1}, 0, nil, 5)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.ID() != "e42" || r.Content() != "slept badly again" {
		t.Errorf("unexpected result: id=%q content=%q", r.ID(), r.Content())
	}
	if s, ok := r.Score(); !ok || s != 0.91 {
		t.Errorf("expected similarity score 0.91, got %g", s)
	}
	if r.Source() != result.SourceVector {
		t.Errorf("expected vector source, got %s", r.Source())
	}
	if !r.CreatedAt().Equal(created) {
		t.Errorf("expected created_at %v, got %v", created, r.CreatedAt())
	}
	if got := r.Metadata().Themes; len(got) != 2 {
		t.Errorf("expected 2 themes, got %v", got)
	}
	if r.Metadata().Emotions["anxious"] != 0.6 {
		t.Errorf("expected anxious score 0.6, got %v", r.Metadata().Emotions)
	}
}

func TestSearch_ErrorYieldsEmpty(t *testing.T) {
	store := &mockStore{err: errors.New("connection refused")}
	repo := New(store, "idx", zap.NewNop())

	results := repo.Search(context.Background(), "u1", []float32{0.1}, 0.3, nil, 5)
	if results != nil {
		t.Errorf("backend errors must degrade to empty results, got %d", len(results))
	}
}
