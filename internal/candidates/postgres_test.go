package candidates_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/ignite/candidate-ingest/internal/candidates"
	"github.com/ignite/candidate-ingest/internal/ingest"
)

func TestPostgresDatastoreInsertMany(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO candidates").WillReturnResult(sqlmock.NewResult(0, 2))

	ds := candidates.NewPostgresDatastore(db)
	batch := []ingest.CandidateRecord{
		{FullName: "Ada Lovelace", Email: "ada@x.io"},
		{FullName: "Grace Hopper", Phone: "14155551234"},
	}
	err = ds.InsertMany(context.Background(), batch)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDatastoreInsertManyEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := candidates.NewPostgresDatastore(db)
	err = ds.InsertMany(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDatastoreInsertManyError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO candidates").WillReturnError(sqlmock.ErrCancelled)

	ds := candidates.NewPostgresDatastore(db)
	err = ds.InsertMany(context.Background(), []ingest.CandidateRecord{{Email: "ada@x.io"}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
