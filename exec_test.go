package eq_test

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
	_ "modernc.org/sqlite"

	"github.com/syssam/eq"
	"github.com/syssam/eq/dialect"
	"github.com/syssam/eq/dialect/sql"
)

func mock(t *testing.T, name string) (*sql.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, m, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, m.ExpectationsWereMet())
		db.Close()
	})
	return sql.OpenDB(name, db), m
}

func TestExec_MySQL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := newConfig(t)
	drv, m := mock(t, dialect.MySQL)

	m.ExpectExec("INSERT INTO `Users` (`Name`,`Age`) VALUES (?,?)").
		WithArgs("Ann", 30).
		WillReturnResult(sqlmock.NewResult(1, 1))
	n, err := eq.Insert(ctx, cfg, drv, &Account{Name: "Ann", Age: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	m.ExpectQuery("INSERT INTO `Users` (`Name`,`Age`) VALUES (?,?);SELECT LAST_INSERT_ID() AS _id").
		WithArgs("Bob", 40).
		WillReturnRows(sqlmock.NewRows([]string{"_id"}).AddRow(7))
	id, err := eq.InsertAndGetID(ctx, cfg, drv, &Account{Name: "Bob", Age: 40})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	m.ExpectQuery("SELECT `Id`, `Name`, `Age` FROM `Users` WHERE `Id`=?").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"Id", "Name", "Age"}).AddRow(7, "Bob", nil))
	a, err := eq.SelectByID[Account](ctx, cfg, drv, 7)
	require.NoError(t, err)
	assert.Equal(t, &Account{Id: 7, Name: "Bob"}, a)

	m.ExpectQuery("SELECT `Id`, `Name`, `Age` FROM `Users` WHERE `Id`=?").
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"Id", "Name", "Age"}))
	_, err = eq.SelectByID[Account](ctx, cfg, drv, 8)
	require.True(t, eq.IsNotFound(err))
	var nf *eq.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, 8, nf.ID())

	m.ExpectQuery("SELECT `Id`, `Name`, `Age` FROM `Users` WHERE (Name=?)").
		WithArgs("Bob").
		WillReturnRows(sqlmock.NewRows([]string{"Id", "Name", "Age"}).AddRow(7, "Bob", 40).AddRow(9, "Bob", 41))
	list, err := eq.Select[Account](ctx, cfg, drv, "Name=@Name", sql.Params{"Name": "Bob"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 41, list[1].Age)

	m.ExpectQuery("SELECT `Id`, `Name`, `Age` FROM `Users` WHERE `Id`=?").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"Id", "Name", "Age"}).AddRow(7, "Bob", 40).AddRow(7, "Bob", 40))
	_, err = eq.SelectByEntity(ctx, cfg, drv, &Account{Id: 7})
	assert.True(t, eq.IsNotSingular(err))

	m.ExpectExec("UPDATE `Users` SET `Name`=?,`Age`=? WHERE `Id`=?").
		WithArgs("Bob", 41, 7).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'Bob' for key 'Name'"})
	_, err = eq.Update(ctx, cfg, drv, &Account{Id: 7, Name: "Bob", Age: 41})
	require.Error(t, err)
	assert.True(t, eq.IsMutationError(err))
	assert.True(t, eq.IsConstraintError(err))

	m.ExpectExec("INSERT INTO `Users` (`Id`,`Name`,`Age`) VALUES (?,?,?) ON DUPLICATE KEY UPDATE `Name`=?,`Age`=?").
		WithArgs(7, "Bob", 42, "Bob", 42).
		WillReturnResult(sqlmock.NewResult(0, 2))
	n, err = eq.Upsert(ctx, cfg, drv, &Account{Id: 7, Name: "Bob", Age: 42})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	m.ExpectQuery("SELECT `Id`, `Name`, `Age` FROM `Users`").
		WillReturnError(errors.New("connection reset"))
	_, err = eq.SelectAll[Account](ctx, cfg, drv)
	assert.True(t, eq.IsQueryError(err))
}

func TestExec_Postgres(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := newConfig(t, eq.WithDialect(dialect.Postgres))
	drv, m := mock(t, dialect.Postgres)

	m.ExpectQuery(`SELECT "Id", "Name", "Age" FROM "Users" WHERE (Name <> '@Age' OR Age > $1)`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"Id", "Name", "Age"}))
	list, err := eq.Select[Account](ctx, cfg, drv, "Name <> '@Age' OR Age > @Age", map[string]int{"age": 3})
	require.NoError(t, err)
	assert.Empty(t, list)

	m.ExpectQuery(`SELECT "Id", "Name", "Age" FROM "Users" WHERE (Age < $1 OR Age > $1)`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"Id", "Name", "Age"}).AddRow(1, "Ann", 2))
	list, err = eq.Select[Account](ctx, cfg, drv, "Age < @Age OR Age > @Age", map[string]int{"age": 3})
	require.NoError(t, err)
	require.Len(t, list, 1)

	m.ExpectQuery(`INSERT INTO "Users" ("Name","Age") VALUES ($1,$2) RETURNING "Id" AS _id`).
		WithArgs("Cid", 5).
		WillReturnRows(sqlmock.NewRows([]string{"_id"}).AddRow(int64(12)))
	id, err := eq.InsertAndGetID(ctx, cfg, drv, &Account{Name: "Cid", Age: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	m.ExpectExec(`UPDATE "Users" SET "Age"="Age"+$1 WHERE (Name=$2)`).
		WithArgs(1, "Cid").
		WillReturnResult(sqlmock.NewResult(0, 1))
	n, err := eq.UpdateSetWhere[Account](ctx, cfg, drv, `"Age"="Age"+@Step`, "Name=@Name", struct {
		Step int
		Name string
	}{1, "Cid"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestExec_UsageErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := newConfig(t)
	drv, _ := mock(t, dialect.MySQL)

	_, err := eq.Select[Account](ctx, cfg, drv, "Name=@Nick", sql.Params{"Name": "x"})
	assert.True(t, eq.IsUsageError(err))
	_, err = eq.Select[Account](ctx, cfg, drv, "Name=@Name", 42)
	assert.True(t, eq.IsUsageError(err))
	_, err = eq.DeleteWhere[Account](ctx, cfg, drv, "  ", nil)
	assert.True(t, eq.IsUsageError(err))
	_, err = eq.UpdateSetWhere[Account](ctx, cfg, drv, "", "Id=1", nil)
	assert.True(t, eq.IsUsageError(err))
	_, err = eq.UpsertSetWhere[Account](ctx, cfg, drv, "", "", nil)
	assert.True(t, eq.IsUsageError(err))
	_, err = eq.UpsertSetWhere[Account](ctx, cfg, drv, "`Age`=@Age", "Age < 3", &Account{Id: 1})
	require.True(t, eq.IsUsageError(err))
	assert.Contains(t, err.Error(), "ON DUPLICATE KEY UPDATE")
	_, err = eq.Insert[Account](ctx, cfg, drv, nil)
	assert.True(t, eq.IsUsageError(err))
	_, err = eq.InsertList(ctx, cfg, drv, []*Account{nil})
	assert.True(t, eq.IsUsageError(err))
	_, err = eq.SelectByID[Account](ctx, cfg, drv, nil)
	assert.True(t, eq.IsUsageError(err))
	_, err = eq.SelectByID[KeyMaster](ctx, cfg, drv, 1)
	assert.True(t, eq.IsUsageError(err))
	_, err = eq.SelectByID[KeyMaster](ctx, cfg, drv, struct{ Key1 int }{1})
	require.True(t, eq.IsUsageError(err))
	assert.Contains(t, err.Error(), "cannot find id value from argument")
	_, err = eq.SelectByID[Event](ctx, cfg, drv, 1)
	assert.True(t, eq.IsSchemaError(err))
	_, err = eq.InsertAndGetID(ctx, cfg, drv, &City{Name: "x"})
	assert.True(t, eq.IsUsageError(err))
	_, err = eq.Select[Account](ctx, cfg, drv, "WHERE Id=1", nil)
	assert.True(t, eq.IsUsageError(err))
}

// openSQLite opens a private in-memory database and runs the given DDL.
func openSQLite(t *testing.T, name string, ddl ...string) *sql.Driver {
	t.Helper()
	drv, err := sql.Open(dialect.SQLite, "file:"+name+"?mode=memory&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { drv.Close() })
	for _, stmt := range ddl {
		require.NoError(t, drv.Exec(context.Background(), stmt, nil, nil))
	}
	return drv
}

func TestExec_SQLite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := newConfig(t, eq.WithDialect(dialect.SQLite))
	drv := openSQLite(t, "exec_users",
		"CREATE TABLE `Users` (`Id` INTEGER PRIMARY KEY AUTOINCREMENT, `Name` TEXT NOT NULL UNIQUE, `Age` INTEGER)",
	)

	id1, err := eq.InsertAndGetID(ctx, cfg, drv, &Account{Name: "User1", Age: 10})
	require.NoError(t, err)
	assert.Positive(t, id1)
	n, err := eq.Insert(ctx, cfg, drv, &Account{Name: "User2", Age: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	id3, err := eq.InsertAndGetID(ctx, cfg, drv, &Account{Name: "User3", Age: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(2), id3-id1)

	a, err := eq.SelectByID[Account](ctx, cfg, drv, id1)
	require.NoError(t, err)
	assert.Equal(t, "User1", a.Name)
	assert.Equal(t, 10, a.Age)

	list, err := eq.Select[Account](ctx, cfg, drv, "Age > @Age", sql.Params{"Age": 15})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	all, err := eq.SelectAll[Account](ctx, cfg, drv)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	a.Age = 11
	n, err = eq.Update(ctx, cfg, drv, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	a, err = eq.SelectByEntity(ctx, cfg, drv, a)
	require.NoError(t, err)
	assert.Equal(t, 11, a.Age)

	n, err = eq.UpdateSetWhere[Account](ctx, cfg, drv, "`Age`=`Age`+@Step", "Name=@Name", sql.Params{"Step": 1, "Name": "User2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = eq.Upsert(ctx, cfg, drv, &Account{Id: int(id1), Name: "User1+", Age: 12})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	a, err = eq.SelectByID[Account](ctx, cfg, drv, id1)
	require.NoError(t, err)
	assert.Equal(t, &Account{Id: int(id1), Name: "User1+", Age: 12}, a)

	n, err = eq.UpsertSetWhere[Account](ctx, cfg, drv, "`Age`=excluded.`Age`", "excluded.`Age` > `Users`.`Age`",
		&Account{Id: int(id1), Name: "Nobody", Age: 5})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = eq.UpsertList(ctx, cfg, drv, []*Account{
		{Id: 100, Name: "User100", Age: 1},
		{Id: 101, Name: "User101", Age: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = eq.InsertList(ctx, cfg, drv, []*Account{{Name: "A", Age: 1}, {Name: "B", Age: 2}, {Name: "C", Age: 3}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = eq.Insert(ctx, cfg, drv, &Account{Name: "A"})
	require.Error(t, err)
	assert.True(t, eq.IsConstraintError(err))
	assert.True(t, sql.IsUniqueConstraintError(err))

	n, err = eq.DeleteByID[Account](ctx, cfg, drv, id1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = eq.SelectByID[Account](ctx, cfg, drv, id1)
	assert.True(t, eq.IsNotFound(err))

	n, err = eq.Delete(ctx, cfg, drv, &Account{Id: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = eq.DeleteWhere[Account](ctx, cfg, drv, "Age <= @Age", sql.Params{"Age": 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	all, err = eq.SelectAll[Account](ctx, cfg, drv)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestExec_SQLite_Keys(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := newConfig(t, eq.WithDialect(dialect.SQLite))
	drv := openSQLite(t, "exec_keys",
		"CREATE TABLE `KeyMaster` (`Key1` INTEGER NOT NULL, `Key2` INTEGER NOT NULL, PRIMARY KEY (`Key1`, `Key2`))",
		"CREATE TABLE `City` (`Name` TEXT PRIMARY KEY, `Population` INTEGER NOT NULL)",
	)

	n, err := eq.InsertList(ctx, cfg, drv, []*KeyMaster{{1, 1}, {1, 2}, {2, 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	_, err = eq.Insert(ctx, cfg, drv, &KeyMaster{1, 1})
	assert.True(t, eq.IsConstraintError(err))

	list, err := eq.Select[KeyMaster](ctx, cfg, drv, "Key1=@Key1", sql.Params{"Key1": 1})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	k, err := eq.SelectByID[KeyMaster](ctx, cfg, drv, map[string]any{"Key1": 1, "Key2": 2})
	require.NoError(t, err)
	assert.Equal(t, &KeyMaster{1, 2}, k)
	k, err = eq.SelectByID[KeyMaster](ctx, cfg, drv, struct{ Key1, Key2, Extra int }{2, 2, 9})
	require.NoError(t, err)
	assert.Equal(t, &KeyMaster{2, 2}, k)

	n, err = eq.Delete(ctx, cfg, drv, &KeyMaster{1, 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = eq.SelectByEntity(ctx, cfg, drv, &KeyMaster{1, 1})
	assert.True(t, eq.IsNotFound(err))

	_, err = eq.Insert(ctx, cfg, drv, &City{Name: "Sydney", Population: 31000})
	require.NoError(t, err)
	c, err := eq.SelectByID[City](ctx, cfg, drv, "Sydney")
	require.NoError(t, err)
	assert.Equal(t, 31000, c.Population)
	n, err = eq.DeleteByID[City](ctx, cfg, drv, "Sydney")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

type Profile struct {
	Id    int
	Nick  *string
	Score int
	Label string `eq:"column=display_label"`
}

func TestExec_SQLite_Columns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := newConfig(t, eq.WithDialect(dialect.SQLite))
	drv := openSQLite(t, "exec_columns",
		"CREATE TABLE `Profile` (`Id` INTEGER PRIMARY KEY AUTOINCREMENT, `Nick` TEXT, `Score` INTEGER, `display_label` TEXT)",
		"INSERT INTO `Profile` (`Id`) VALUES (1)",
	)

	p, err := eq.SelectByID[Profile](ctx, cfg, drv, 1)
	require.NoError(t, err)
	assert.Equal(t, &Profile{Id: 1}, p, "NULL columns leave zero values")

	nick := "neo"
	id, err := eq.InsertAndGetID(ctx, cfg, drv, &Profile{Nick: &nick, Score: 7, Label: "one"})
	require.NoError(t, err)
	p, err = eq.SelectByID[Profile](ctx, cfg, drv, id)
	require.NoError(t, err)
	require.NotNil(t, p.Nick)
	assert.Equal(t, "neo", *p.Nick)
	assert.Equal(t, "one", p.Label)

	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	_, err = eq.DeleteWhere[Profile](ctx, cfg, tx, "Score > @Score", sql.Params{"Score": 0})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	all, err := eq.SelectAll[Profile](ctx, cfg, drv)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

type Stamp struct {
	Author string
}

type draft struct {
	Body string
}

type Memo struct {
	Id int
	*Stamp
}

type Draft struct {
	Id int
	*draft
}

func TestExec_SQLite_EmbeddedPointers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := newConfig(t, eq.WithDialect(dialect.SQLite))
	drv := openSQLite(t, "exec_embedded",
		"CREATE TABLE `Memo` (`Id` INTEGER PRIMARY KEY, `Author` TEXT)",
		"CREATE TABLE `Draft` (`Id` INTEGER PRIMARY KEY, `Body` TEXT)",
		"INSERT INTO `Memo` (`Id`, `Author`) VALUES (1, 'a8m')",
		"INSERT INTO `Draft` (`Id`, `Body`) VALUES (1, 'hello')",
	)

	m, err := eq.SelectByID[Memo](ctx, cfg, drv, 1)
	require.NoError(t, err)
	require.NotNil(t, m.Stamp)
	assert.Equal(t, "a8m", m.Author)

	_, err = eq.SelectByID[Draft](ctx, cfg, drv, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field Body")
	assert.Contains(t, err.Error(), "unexported struct eq_test.draft")
}

// TestExec_SQLite_Drivers runs the helpers through the statistics and debug
// driver wrappers.
func TestExec_SQLite_Drivers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := newConfig(t, eq.WithDialect(dialect.SQLite))
	base := openSQLite(t, "exec_drivers", "CREATE TABLE `City` (`Name` TEXT PRIMARY KEY, `Population` INTEGER)")

	t.Run("Stats", func(t *testing.T) {
		drv := sql.NewStatsDriver(base, sql.WithSlowThreshold(time.Hour))
		_, err := eq.Insert(ctx, cfg, drv, &City{Name: "Oslo", Population: 1})
		require.NoError(t, err)
		n, err := eq.InsertList(ctx, cfg, drv, []*City{{Name: "Bergen", Population: 2}, {Name: "Tromso", Population: 3}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		_, err = eq.Insert(ctx, cfg, drv, &City{Name: "Oslo"})
		require.True(t, eq.IsConstraintError(err))
		all, err := eq.SelectAll[City](ctx, cfg, drv)
		require.NoError(t, err)
		assert.Len(t, all, 3)
		n, err = eq.Update(ctx, cfg, drv, &City{Name: "Oslo", Population: 5})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		n, err = eq.DeleteByID[City](ctx, cfg, drv, "Bergen")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		s := drv.QueryStats().Stats()
		assert.Equal(t, int64(1), s.Queries)
		assert.Equal(t, int64(6), s.Execs)
		assert.Equal(t, int64(1), s.Errors)
		assert.Equal(t, int64(1), s.Constraints)
		assert.Equal(t, int64(1), s.Selects)
		assert.Equal(t, int64(4), s.Inserts)
		assert.Equal(t, int64(1), s.Updates)
		assert.Equal(t, int64(1), s.Deletes)
		assert.Zero(t, s.Slow)
	})

	t.Run("Debug", func(t *testing.T) {
		var buf bytes.Buffer
		l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		drv := sql.NewDebugDriver(base, l)
		c, err := eq.SelectByID[City](ctx, cfg, drv, "Oslo")
		require.NoError(t, err)
		assert.Equal(t, 5, c.Population)
		assert.Contains(t, buf.String(), "msg=query dialect=sqlite")
		assert.Contains(t, buf.String(), "SELECT `Name`, `Population` FROM `City` WHERE `Name`=?")
		assert.Contains(t, buf.String(), "args=[Oslo]")
	})
}
