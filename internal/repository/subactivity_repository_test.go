package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubActivityDeleteRollsBackOnLookupFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubActivityRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT sub_activity_id, project_id").
		WithArgs("sub-1").
		WillReturnError(errors.New("read tcp: connection reset"))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "sub-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock sub-activity summary")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubActivityDeleteWithoutSummary(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubActivityRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT sub_activity_id, project_id").
		WithArgs("sub-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("DELETE FROM zone_progress").
		WithArgs("sub-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM sub_activity_summaries").
		WithArgs("sub-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM sub_activities").
		WithArgs("sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
