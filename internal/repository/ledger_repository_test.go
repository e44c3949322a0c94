package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siteops-api/internal/models"
)

func TestLedgerTransactCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sub_activity_summaries SET pending_work = pending_work + $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Transact(context.Background(), func(tx LedgerTx) error {
		updated, err := tx.AddPending(context.Background(), "sub-1", 5)
		require.NoError(t, err)
		assert.True(t, updated)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerTransactRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := repo.Transact(context.Background(), func(tx LedgerTx) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerTransactRetriesSerializationFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	// First attempt fails with a serialization error, second commits.
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err := repo.Transact(context.Background(), func(tx LedgerTx) error {
		calls++
		if calls == 1 {
			return &pq.Error{Code: "40001"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerTransactExhaustsRetries(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	for i := 0; i < 4; i++ {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	calls := 0
	err := repo.Transact(context.Background(), func(tx LedgerTx) error {
		calls++
		return &pq.Error{Code: "40P01"}
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted retries")
	assert.Equal(t, 4, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerAddPendingMissingEntry(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sub_activity_summaries SET pending_work = pending_work + $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Transact(context.Background(), func(tx LedgerTx) error {
		updated, err := tx.AddPending(context.Background(), "ghost", 5)
		require.NoError(t, err)
		assert.False(t, updated)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerMovePendingToDoneGradeColumn(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("work_grade_b = work_grade_b").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Transact(context.Background(), func(tx LedgerTx) error {
		updated, err := tx.MovePendingToDone(context.Background(), "sub-1", 7, models.GradeB)
		require.NoError(t, err)
		assert.True(t, updated)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerMovePendingToDoneRejectsUnknownGrade(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.Transact(context.Background(), func(tx LedgerTx) error {
		_, err := tx.MovePendingToDone(context.Background(), "sub-1", 7, models.WorkGrade("Z"))
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown work grade")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerZoneUpdatesNeverInsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE zone_progress SET pending_work = pending_work + $1")).
		WithArgs(3.0, "sub-1", "Ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Transact(context.Background(), func(tx LedgerTx) error {
		updated, err := tx.AddZonePending(context.Background(), "sub-1", "Ghost", 3)
		require.NoError(t, err)
		assert.False(t, updated)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerApplyProjectProgress(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE project_summaries")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Transact(context.Background(), func(tx LedgerTx) error {
		return tx.ApplyProjectProgress(context.Background(), "proj-1", 12.5, time.Now().UTC())
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerSummariesForUpdateEmptyInput(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := repo.Transact(context.Background(), func(tx LedgerTx) error {
		result, err := tx.SummariesForUpdate(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, result)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
