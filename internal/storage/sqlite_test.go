package storage

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gohmmer/internal/hmm"
	"github.com/dshills/gohmmer/internal/search"
	"github.com/dshills/gohmmer/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func testRun() *Run {
	return &Run{
		ModelName:      "motif8",
		ModelAccession: "PF99999.1",
		ModelLength:    8,
		SeqSource:      "targets.fa",
		NSeqs:          4,
		NResidues:      120,
		Z:              4,
		DomZ:           2,
		NReported:      1,
		NIncluded:      1,
	}
}

func testHit(rank int, name string) *types.HitRecord {
	return &types.HitRecord{
		Rank:        rank,
		Name:        name,
		Description: "two copies of the motif",
		Score:       59.66,
		LnP:         -40,
		Reported:    true,
		Included:    true,
		Domains: []types.DomainRecord{
			{Index: 1, BitScore: 33.5, LnP: -26.3, EnvFrom: 1, EnvTo: 8, AliFrom: 1, AliTo: 8, HMMFrom: 1, HMMTo: 8, Reported: true, Included: true},
			{Index: 2, BitScore: 33.4, LnP: -26.2, EnvFrom: 21, EnvTo: 28, AliFrom: 21, AliTo: 28, HMMFrom: 1, HMMTo: 8, Reported: true},
		},
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	assert.NotNil(t, storage.db)

	v, err := SchemaVersion(context.Background(), storage.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v)
}

func TestBuildMode(t *testing.T) {
	switch BuildMode {
	case "purego":
		assert.Equal(t, "sqlite", DriverName)
	case "cgo":
		assert.Equal(t, "sqlite3", DriverName)
	default:
		t.Fatalf("unknown build mode %q", BuildMode)
	}
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, ApplyMigrations(ctx, storage.db))

	var n int
	require.NoError(t, storage.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&n))
	assert.Equal(t, len(AllMigrations), n)
}

func TestRollbackMigration(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, RollbackMigration(ctx, storage.db))
	v, err := SchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", v)

	var name string
	err = storage.db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='domains'").Scan(&name)
	assert.Error(t, err, "domains table is dropped")

	require.NoError(t, ApplyMigrations(ctx, storage.db))
	v, err = SchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v)

	require.NoError(t, RollbackMigration(ctx, storage.db))
	require.NoError(t, RollbackMigration(ctx, storage.db))
	v, err = SchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0", v)
	assert.Error(t, RollbackMigration(ctx, storage.db))
}

func TestCreateAndGetRun(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	run := testRun()
	require.NoError(t, storage.CreateRun(ctx, run))
	assert.Greater(t, run.ID, int64(0))
	assert.False(t, run.CreatedAt.IsZero())

	got, err := storage.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ModelName, got.ModelName)
	assert.Equal(t, run.ModelAccession, got.ModelAccession)
	assert.Equal(t, 8, got.ModelLength)
	assert.Equal(t, int64(120), got.NResidues)
	assert.Equal(t, 4.0, got.Z)
	assert.Equal(t, 2.0, got.DomZ)
}

func TestGetRun_NotFound(t *testing.T) {
	storage := setupTestDB(t)

	_, err := storage.GetRun(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRuns(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		run := testRun()
		run.ModelName = name
		require.NoError(t, storage.CreateRun(ctx, run))
	}

	runs, err := storage.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "third", runs[0].ModelName, "newest first")

	runs, err = storage.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSaveHit(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	run := testRun()
	require.NoError(t, storage.CreateRun(ctx, run))

	hit, err := storage.SaveHit(ctx, run.ID, testHit(1, "double"))
	require.NoError(t, err)
	assert.Greater(t, hit.ID, int64(0))
	assert.Equal(t, 2, hit.NDomains)
	assert.InEpsilon(t, math.Exp(-40)*4, hit.EValue, 1e-12)

	hits, err := storage.ListHits(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "double", hits[0].Name)
	assert.Equal(t, "", hits[0].Accession)
	assert.Equal(t, 2, hits[0].NDomains)
	assert.True(t, hits[0].Included)
	assert.InEpsilon(t, math.Exp(-40)*4, hits[0].EValue, 1e-12)

	domains, err := storage.ListDomains(ctx, hits[0].ID)
	require.NoError(t, err)
	require.Len(t, domains, 2)
	assert.Equal(t, 21, domains[1].EnvFrom)
	assert.Equal(t, 28, domains[1].AliTo)
	assert.True(t, domains[0].Included)
	assert.False(t, domains[1].Included)
	assert.InEpsilon(t, math.Exp(-26.3)*4, domains[0].EValue, 1e-12)

	rec := hits[0].ToRecord(domains)
	assert.Equal(t, 1, rec.Rank)
	require.Len(t, rec.Domains, 2)
	assert.Equal(t, 2, rec.Domains[1].Index)
	assert.NoError(t, rec.Validate())
}

func TestSaveHit_Errors(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	_, err := storage.SaveHit(ctx, 99, testHit(1, "orphan"))
	assert.ErrorIs(t, err, ErrNotFound)

	run := testRun()
	require.NoError(t, storage.CreateRun(ctx, run))

	bad := testHit(1, "empty")
	bad.Domains = nil
	_, err = storage.SaveHit(ctx, run.ID, bad)
	assert.ErrorIs(t, err, types.ErrNoDomains)

	_, err = storage.SaveHit(ctx, run.ID, testHit(1, "a"))
	require.NoError(t, err)
	_, err = storage.SaveHit(ctx, run.ID, testHit(1, "b"))
	assert.Error(t, err, "rank is unique within a run")
}

func TestDeleteRun_Cascades(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	run := testRun()
	require.NoError(t, storage.CreateRun(ctx, run))
	hit, err := storage.SaveHit(ctx, run.ID, testHit(1, "double"))
	require.NoError(t, err)

	require.NoError(t, storage.DeleteRun(ctx, run.ID))

	_, err = storage.GetRun(ctx, run.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	hits, err := storage.ListHits(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, hits)
	domains, err := storage.ListDomains(ctx, hit.ID)
	require.NoError(t, err)
	assert.Empty(t, domains)

	assert.ErrorIs(t, storage.DeleteRun(ctx, run.ID), ErrNotFound)
}

func TestTransaction_Rollback(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)

	run := testRun()
	require.NoError(t, tx.CreateRun(ctx, run))
	_, err = tx.SaveHit(ctx, run.ID, testHit(1, "double"))
	require.NoError(t, err)

	got, err := tx.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "motif8", got.ModelName)

	_, err = tx.BeginTx(ctx)
	assert.Error(t, err)

	require.NoError(t, tx.Rollback())

	runs, err := storage.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestTransaction_Commit(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)
	run := testRun()
	require.NoError(t, tx.CreateRun(ctx, run))
	require.NoError(t, tx.Commit())

	_, err = storage.GetRun(ctx, run.ID)
	assert.NoError(t, err)
}

func TestSaveResult(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	models, err := hmm.LoadAll("../../testdata/motif.hmm")
	require.NoError(t, err)
	x, err := search.New(models[0])
	require.NoError(t, err)
	defer x.Close()
	require.NoError(t, x.SearchFile("../../testdata/targets.fa", search.Unlimited))
	res := x.Finalize()

	run, err := SaveResult(ctx, storage, "targets.fa", res)
	require.NoError(t, err)
	assert.Equal(t, "motif8", run.ModelName)
	assert.Equal(t, int64(4), run.NSeqs)
	assert.Equal(t, res.ReportedCount(), run.NReported)

	hits, err := storage.ListHits(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, hits, res.ReportedCount())

	i := 0
	for h := range res.Hits() {
		assert.Equal(t, h.Name(), hits[i].Name)
		assert.Equal(t, i+1, hits[i].Rank)
		assert.InEpsilon(t, h.EValue(), hits[i].EValue, 1e-9)
		assert.Equal(t, h.DomainCount(), hits[i].NDomains)
		i++
	}
}
