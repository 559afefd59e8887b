package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserExists(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
	}{
		{"present", true},
		{"absent", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			repo := NewUserRepository(mock)

			mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM users WHERE id = \\$1\\)").
				WithArgs(testUserID).
				WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(tt.exists))

			got, err := repo.Exists(context.Background(), testUserID)
			require.NoError(t, err)
			assert.Equal(t, tt.exists, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserExists_NonUUIDSkipsQuery(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	got, err := repo.Exists(context.Background(), "not-a-uuid")
	require.NoError(t, err)
	assert.False(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserExists_Error(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(testUserID).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Exists(context.Background(), testUserID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check user")
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
