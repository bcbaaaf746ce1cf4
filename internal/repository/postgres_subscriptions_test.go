package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockSubscriptionsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *SubscriptionsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewSubscriptionsRepository(db, zap.NewNop())
	return db, mock, repo
}

func TestGetSubscribers_MultipleUsers(t *testing.T) {
	db, mock, repo := setupMockSubscriptionsDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"user_id"}).
		AddRow("user-1").
		AddRow("user-2").
		AddRow("user-3")

	mock.ExpectQuery(`SELECT`).
		WithArgs("plant-7").
		WillReturnRows(rows)

	subscribers, err := repo.GetSubscribers(context.Background(), "plant-7")

	require.NoError(t, err)
	assert.Len(t, subscribers, 3)
	_, ok := subscribers["user-2"]
	assert.True(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSubscribers_Empty(t *testing.T) {
	db, mock, repo := setupMockSubscriptionsDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("plant-7").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	subscribers, err := repo.GetSubscribers(context.Background(), "plant-7")

	require.NoError(t, err)
	assert.Empty(t, subscribers)
	// 空集合也要返回非 nil map，调用方可直接做成员判断
	assert.NotNil(t, subscribers)
}

func TestGetSubscribers_QueryError(t *testing.T) {
	db, mock, repo := setupMockSubscriptionsDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("plant-7").
		WillReturnError(errors.New("connection refused"))

	subscribers, err := repo.GetSubscribers(context.Background(), "plant-7")

	assert.Error(t, err)
	assert.Nil(t, subscribers)
}
