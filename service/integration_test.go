//go:build integration

package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/addy2510/policymanager/config"
	"github.com/addy2510/policymanager/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres runs a disposable database with the schema applied.
// Run with: go test -tags=integration -timeout 180s ./service/...
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("policy"),
		postgres.WithUsername("policy"),
		postgres.WithPassword("policy"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			log.Printf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := NewPostgresPool(ctx, config.StoreConfig{DatabaseURL: connStr, MaxConns: 10, ConnectRetries: 5})
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	// applying twice must be harmless
	if err := EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("failed to re-apply schema: %v", err)
	}
	return pool
}

func TestPostgresPolicyStore(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	store := NewPostgresPolicyStore(pool)

	full := testPolicy(12345, "Ravi Kumar", "123456", "2024-01-01")
	full.Premium = model.DecimalPtr("1500.50")
	full.DOB = model.DatePtr(model.MustParseDate("1980-05-17"))
	seedStore(t, store,
		full,
		testPolicy(12399, "ravindra 100%_Singh", "654321", "2024-06-15"),
		testPolicy(54321, "Meera Iyer", "123999", "2025-01-01"),
		testPolicy(60000, "No Maturity", "", ""),
	)

	t.Run("get round-trips values", func(t *testing.T) {
		got, err := store.Get(ctx, 12345)
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if got.Premium == nil || !got.Premium.Equal(*full.Premium) {
			t.Errorf("Expected premium 1500.50, got %v", got.Premium)
		}
		if got.DOB == nil || got.DOB.String() != "1980-05-17" {
			t.Errorf("Expected dob 1980-05-17, got %v", got.DOB)
		}
		if got.SumAssured != nil {
			t.Errorf("Expected absent sum assured to stay nil, got %v", got.SumAssured)
		}
		if _, err := store.Get(ctx, 1); !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("Expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("duplicate key", func(t *testing.T) {
		if err := store.Insert(ctx, testPolicy(12345, "Dup", "", "")); !errors.Is(err, ErrDuplicateKey) {
			t.Errorf("Expected ErrDuplicateKey, got %v", err)
		}
	})

	t.Run("prefix and contains", func(t *testing.T) {
		page, _ := store.FindByPrefix(ctx, FieldPolicyNo, "123", allRows)
		if !equalInt64s(policyNumbers(page), []int64{12345, 12399}) {
			t.Errorf("Expected [12345 12399], got %v", policyNumbers(page))
		}
		page, _ = store.FindByPrefix(ctx, FieldHolder, "RAVI", allRows)
		if !equalInt64s(policyNumbers(page), []int64{12345, 12399}) {
			t.Errorf("Expected case-insensitive holder prefix, got %v", policyNumbers(page))
		}
		page, _ = store.FindByContains(ctx, FieldHolder, "100%_", allRows)
		if !equalInt64s(policyNumbers(page), []int64{12399}) {
			t.Errorf("Expected LIKE metacharacters matched literally, got %v", policyNumbers(page))
		}
		page, _ = store.FindByPrefix(ctx, FieldGroupCode, "_", allRows)
		if len(page.Content) != 0 {
			t.Errorf("Expected underscore prefix to match nothing, got %v", policyNumbers(page))
		}
	})

	t.Run("maturity boundaries", func(t *testing.T) {
		jan := model.MustParseDate("2024-01-01")
		jun := model.MustParseDate("2024-06-15")
		next := model.MustParseDate("2025-01-01")

		before, _ := store.FindMaturityBefore(ctx, jun, allRows)
		between, _ := store.FindMaturityBetween(ctx, jan, next, allRows)
		after, _ := store.FindMaturityAfter(ctx, jun, allRows)
		if !equalInt64s(policyNumbers(before), []int64{12345}) {
			t.Errorf("Unexpected before %v", policyNumbers(before))
		}
		if !equalInt64s(policyNumbers(between), []int64{12345, 12399, 54321}) {
			t.Errorf("Unexpected between %v", policyNumbers(between))
		}
		if !equalInt64s(policyNumbers(after), []int64{54321}) {
			t.Errorf("Unexpected after %v", policyNumbers(after))
		}
		n, _ := store.CountMaturityBefore(ctx, jun)
		if n != 1 {
			t.Errorf("Expected 1 matured, got %d", n)
		}
	})

	t.Run("save merges in place", func(t *testing.T) {
		p, _ := store.Get(ctx, 12399)
		p.Premium = model.DecimalPtr("99.99")
		if err := store.Save(ctx, p); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
		page, _ := store.FindAll(ctx, allRows)
		if !equalInt64s(policyNumbers(page), []int64{12345, 12399, 54321, 60000}) {
			t.Errorf("Expected insertion order after save, got %v", policyNumbers(page))
		}
		total, _ := store.Count(ctx)
		if total != 4 {
			t.Errorf("Expected 4 policies, got %d", total)
		}
	})

	t.Run("paging", func(t *testing.T) {
		page, err := store.FindAll(ctx, model.PageRequest{Page: 1, Size: 3})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !equalInt64s(policyNumbers(page), []int64{60000}) || page.TotalPages != 2 || !page.Last {
			t.Errorf("Unexpected second page %+v", page)
		}
	})
}

func TestPostgresInsertUniqueGroupCodeIsAtomic(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	store := NewPostgresPolicyStore(pool)

	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0
	for i := int64(1); i <= 10; i++ {
		wg.Add(1)
		go func(no int64) {
			defer wg.Done()
			err := store.InsertUniqueGroupCode(ctx, testPolicy(no, "X", "777777", ""))
			if err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			} else if !errors.Is(err, ErrGroupCodeTaken) {
				t.Errorf("Unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if won != 1 {
		t.Errorf("Expected exactly one writer to claim the code, got %d", won)
	}
}

func TestPostgresArtifactStore(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	seedStore(t, NewPostgresPolicyStore(pool), testPolicy(1001, "Asha", "", ""))
	store := NewPostgresArtifactStore(pool)

	uploaded := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
	for _, name := range []string{"a.pdf", "b.png", "c.pdf"} {
		a := &model.Artifact{PolicyNo: 1001, FileName: name, ContentType: "application/pdf", Size: 10, Location: "1001/" + name, UploadedAt: uploaded}
		if err := store.Create(ctx, a); err != nil {
			t.Fatalf("Failed to create artifact: %v", err)
		}
		if a.ID == 0 {
			t.Error("Expected an assigned id")
		}
	}

	page, err := store.FindByPolicy(ctx, 1001, model.PageRequest{Page: 0, Size: 2})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(page.Content) != 2 || page.TotalElements != 3 || page.Content[0].FileName != "a.pdf" {
		t.Errorf("Unexpected page %+v", page)
	}

	got, err := store.Get(ctx, page.Content[1].ID)
	if err != nil || got.Location != "1001/b.png" || !got.UploadedAt.Equal(uploaded) {
		t.Errorf("Unexpected artifact %+v (%v)", got, err)
	}
	if _, err := store.Get(ctx, 9999); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}
