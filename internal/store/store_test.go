package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rickgao/bitcoin-explorer/internal/model"
)

func TestStore_EnsureSchema(t *testing.T) {
	db := &fakeDB{}
	s := New(DefaultConfig(), db, nil)

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	if len(db.execSQL) != 1 || !strings.Contains(db.execSQL[0], "CREATE TABLE IF NOT EXISTS blocks") {
		t.Errorf("execSQL = %v, want one CREATE TABLE", db.execSQL)
	}
}

func TestStore_EnsureSchema_Error(t *testing.T) {
	db := &fakeDB{execErr: errors.New("permission denied")}
	s := New(DefaultConfig(), db, nil)

	err := s.EnsureSchema(context.Background())
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *StoreError, got %T: %v", err, err)
	}
	if storeErr.Op != "ensure_schema" {
		t.Errorf("Op = %q, want ensure_schema", storeErr.Op)
	}
}

func TestStore_Append(t *testing.T) {
	db := &fakeDB{}
	s := New(DefaultConfig(), db, nil)

	observedAt := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	obs := model.Observation{PeerCount: 12000, MediumFeePerKb: 15.3, Price: 50000.0, ObservedAt: observedAt}

	got, err := s.Append(context.Background(), obs)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if got.ID != 1 {
		t.Errorf("ID = %d, want 1", got.ID)
	}
	if db.count() != 1 {
		t.Fatalf("rows = %d, want 1", db.count())
	}
	row := db.rows[0]
	if row[1] != 12000 || row[2] != 15.3 || row[3] != 50000.0 || !row[4].(time.Time).Equal(observedAt) {
		t.Errorf("stored row = %v", row)
	}
	if !db.deadlines[0] {
		t.Error("append should run under the query timeout")
	}
}

func TestStore_Append_Error(t *testing.T) {
	db := &fakeDB{insertErr: errors.New("conn closed")}
	s := New(DefaultConfig(), db, nil)

	_, err := s.Append(context.Background(), model.Observation{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *StoreError, got %T", err)
	}
	if storeErr.Op != "append" {
		t.Errorf("Op = %q, want append", storeErr.Op)
	}
	if err.Error() != "store append: conn closed" {
		t.Errorf("Error() = %q", err.Error())
	}
	if db.count() != 0 {
		t.Errorf("rows = %d, want 0", db.count())
	}
}

func TestStore_Recent_NewestFirst(t *testing.T) {
	db := &fakeDB{}
	s := New(DefaultConfig(), db, nil)
	ctx := context.Background()

	base := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		obs := model.Observation{
			PeerCount:      1000 + i,
			MediumFeePerKb: float64(i),
			Price:          40000 + float64(i),
			ObservedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		if _, err := s.Append(ctx, obs); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}

	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	for i, obs := range got {
		wantID := int64(15 - i)
		if obs.ID != wantID {
			t.Errorf("got[%d].ID = %d, want %d", i, obs.ID, wantID)
		}
		if obs.PeerCount != 1000+14-i {
			t.Errorf("got[%d].PeerCount = %d, want %d", i, obs.PeerCount, 1000+14-i)
		}
		wantTime := base.Add(time.Duration(14-i) * time.Minute)
		if !obs.ObservedAt.Equal(wantTime) {
			t.Errorf("got[%d].ObservedAt = %v, want %v", i, obs.ObservedAt, wantTime)
		}
	}
	if db.lastLimit != 10 {
		t.Errorf("query limit = %d, want 10", db.lastLimit)
	}
}

func TestStore_Recent_FewerThanLimit(t *testing.T) {
	db := &fakeDB{}
	s := New(DefaultConfig(), db, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s.Append(ctx, model.Observation{PeerCount: i, ObservedAt: time.Now()})
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestStore_Recent_Empty(t *testing.T) {
	s := New(DefaultConfig(), &fakeDB{}, nil)

	got, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Recent() = %v, want empty non-nil slice", got)
	}
}

func TestStore_Recent_ZeroLimit(t *testing.T) {
	db := &fakeDB{}
	s := New(DefaultConfig(), db, nil)

	got, err := s.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
	if len(db.deadlines) != 0 {
		t.Error("zero limit should not query the database")
	}
}

func TestStore_Recent_Error(t *testing.T) {
	db := &fakeDB{queryErr: errors.New("connection refused")}
	s := New(DefaultConfig(), db, nil)

	_, err := s.Recent(context.Background(), 10)
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *StoreError, got %T: %v", err, err)
	}
	if storeErr.Op != "recent" {
		t.Errorf("Op = %q, want recent", storeErr.Op)
	}
}

func TestStore_NoTimeout(t *testing.T) {
	db := &fakeDB{}
	s := New(Config{}, db, nil)

	if _, err := s.Append(context.Background(), model.Observation{ObservedAt: time.Now()}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if db.deadlines[0] {
		t.Error("zero QueryTimeout should not add a deadline")
	}
}
