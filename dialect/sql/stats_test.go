package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/eq/dialect"
)

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var slow []string
	drv := NewStatsDriver(OpenDB(dialect.MySQL, db),
		WithSlowThreshold(0),
		WithSlowQueryHook(func(_ context.Context, query string, _ []any, _ time.Duration) {
			slow = append(slow, query)
		}),
	)
	ctx := context.Background()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"Id"}).AddRow(1))
	rows := &Rows{}
	require.NoError(t, drv.Query(ctx, "SELECT `Id` FROM `Users`", []any{}, rows))
	require.NoError(t, rows.Close())

	mock.ExpectExec("INSERT").WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	require.Error(t, drv.Exec(ctx, "INSERT INTO `Users` (`Id`) VALUES (?)", []any{1}, nil))

	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, drv.Exec(ctx, "UPDATE `Users` SET `Name`=?", []any{"a"}, nil))

	mock.ExpectExec("DELETE").WillReturnError(errors.New("boom"))
	require.Error(t, drv.Exec(ctx, " DELETE FROM `Users`", []any{}, nil))
	require.NoError(t, mock.ExpectationsWereMet())

	s := drv.QueryStats().Stats()
	assert.Equal(t, int64(1), s.Queries)
	assert.Equal(t, int64(3), s.Execs)
	assert.Equal(t, int64(2), s.Errors)
	assert.Equal(t, int64(1), s.Constraints)
	assert.Equal(t, int64(1), s.Selects)
	assert.Equal(t, int64(1), s.Inserts)
	assert.Equal(t, int64(1), s.Updates)
	assert.Equal(t, int64(1), s.Deletes)
	assert.Equal(t, int64(4), s.Slow)
	assert.Len(t, slow, 4)
	assert.Contains(t, s.String(), "constraints=1")

	drv.QueryStats().Reset()
	assert.Zero(t, drv.QueryStats().Stats().Queries)
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	drv := NewDebugDriver(OpenDB(dialect.SQLite, db), l)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "DELETE FROM `Users` WHERE `Id`=?", []any{1}, nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, "level=DEBUG msg=begin dialect=sqlite\n"+
		"level=DEBUG msg=exec dialect=sqlite tx=true sql=\"DELETE FROM `Users` WHERE `Id`=?\" args=[1]\n"+
		"level=DEBUG msg=commit dialect=sqlite tx=true\n", buf.String())
}
