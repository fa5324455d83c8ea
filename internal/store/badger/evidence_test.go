package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/anamnesis/internal/model"
	"github.com/ppiankov/anamnesis/internal/store"
)

func testUnit(id string, t model.EvidenceType, text string) model.EvidenceUnit {
	return model.EvidenceUnit{
		EvidenceID:   id,
		EvidenceType: t,
		SourceFile:   "case01.jsonl",
		RawText:      text,
		PatientScope: model.ScopePatient,
	}
}

func TestEvidenceRepository_PutAndGet(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	unit := testUnit("N000001", model.EvidenceTypeNote, "liver failure with coagulopathy")

	require.NoError(t, repo.PutUnits(ctx, unit))

	got, err := repo.GetUnit(ctx, "N000001")
	require.NoError(t, err)
	assert.Equal(t, unit, got)

	_, err = repo.GetUnit(ctx, "N999999")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEvidenceRepository_IdempotentReingest(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	unit := testUnit("L000059", model.EvidenceTypeLab, "PTT 76.6")

	require.NoError(t, repo.PutUnits(ctx, unit))
	require.NoError(t, repo.PutUnits(ctx, unit), "byte-identical re-ingest must be a no-op")

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Same id, different bytes: rejected.
	conflicting := testUnit("L000059", model.EvidenceTypeLab, "PTT 80.1")
	err = repo.PutUnits(ctx, conflicting)
	assert.ErrorIs(t, err, store.ErrDuplicateID)
}

func TestEvidenceRepository_AllUnitsOrdered(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, repo.PutUnits(ctx,
		testUnit("N000002", model.EvidenceTypeNote, "second note"),
		testUnit("L000001", model.EvidenceTypeLab, "lactate 4.0"),
		testUnit("N000001", model.EvidenceTypeNote, "first note"),
	))

	units, err := repo.AllUnits(ctx)
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, "L000001", units[0].EvidenceID)
	assert.Equal(t, "N000001", units[1].EvidenceID)
	assert.Equal(t, "N000002", units[2].EvidenceID)
}

func TestEvidenceRepository_UnitsByType(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, repo.PutUnits(ctx,
		testUnit("N000001", model.EvidenceTypeNote, "note"),
		testUnit("L000001", model.EvidenceTypeLab, "lab"),
		testUnit("L000002", model.EvidenceTypeLab, "lab two"),
	))

	ids, err := repo.UnitsByType(ctx, model.EvidenceTypeLab)
	require.NoError(t, err)
	assert.Equal(t, []string{"L000001", "L000002"}, ids)
}

func TestEvidenceRepository_ClearAndSnapshot(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, repo.PutUnits(ctx, testUnit("N000001", model.EvidenceTypeNote, "note")))

	snap, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())

	require.NoError(t, repo.Clear(ctx))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
