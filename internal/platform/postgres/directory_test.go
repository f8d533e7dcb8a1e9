package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticDirectory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := NewStaticDirectory(map[string]string{"acme": "100"})

	chat, err := d.Lookup(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "100", chat)

	_, err = d.Lookup(ctx, "globex")
	assert.ErrorIs(t, err, ErrDestinationNotFound)

	require.NoError(t, d.Link(ctx, "globex", "200"))
	chat, err = d.Lookup(ctx, "globex")
	require.NoError(t, err)
	assert.Equal(t, "200", chat)

	assert.ErrorIs(t, d.Link(ctx, "", "1"), ErrInvalidDestination)
	assert.ErrorIs(t, d.Link(ctx, "acme", " "), ErrInvalidDestination)
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, ErrDestinationNotFound},
		{"check violation", &pgconn.PgError{Code: checkViolationCode, ConstraintName: "tenant_destinations_chat_id_check"}, ErrInvalidDestination},
		{"not null", &pgconn.PgError{Code: notNullViolationCode, ColumnName: "chat_id"}, ErrInvalidDestination},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := MapError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	other := errors.New("connection reset")
	assert.Equal(t, other, MapError(other))
}

func TestMigrationsEmbedded(t *testing.T) {
	t.Parallel()

	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	body, err := fs.ReadFile(migrations, files[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "tenant_destinations")
}

func TestDirectory_LinkValidatesBeforeQuery(t *testing.T) {
	t.Parallel()

	// A nil db is never touched when validation fails
	d := NewDirectory(nil, nil)
	assert.ErrorIs(t, d.Link(context.Background(), "", "1"), ErrInvalidDestination)
}
