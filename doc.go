// Package eq compiles SQL statements from record type metadata.
//
// A record type is a Go struct whose exported fields map to columns. Field
// markers are declared with the `eq` struct tag and an explicit table name
// with a TableName method or a sqlschema annotation:
//
//	type User struct {
//	    Id      int       `eq:"key"`
//	    Name    string
//	    UserId  int       `eq:"column=user_id_custom"`
//	    Created time.Time `eq:"readonly"`
//	    Scratch int       `eq:"-"`
//	}
//
//	func (User) TableName() string { return "Users" }
//
// # Building Statements
//
// A Builder accumulates the text of one statement. Placeholders name the
// fields they are bound from:
//
//	q, err := eq.Of[User](cfg, "").Select().Build()
//	// SELECT `Id`, `Name`, `user_id_custom` AS `UserId`, `Created` FROM `Users` WHERE `Id`=@Id
//
//	q, err = eq.Of[User](cfg, "").UpdateWithoutWhere().Where("Age=9").And("Name='x'").Build()
//
// # Caching
//
// Column lists and other per-type fragments are rendered once per Config.
// A builder created with a non-empty key stores the whole statement on its
// first Build; later builders with the same key skip every composition:
//
//	q := eq.For[User]("users.by_age").SelectWhere("Age > @Age").OrderBy("Name").MustBuild()
//
// Config.SetCacheEnabled(false) turns both caches off.
//
// # Dialects
//
// MySQL is the default. PostgreSQL and SQLite change identifier quoting,
// the conflict clause of upserts and the identity fetch of
// InsertWithIdentity.
//
// # Execution
//
// The generic helpers (Insert, SelectByID, Update, DeleteWhere, ...) bind the
// named placeholders of a compiled statement and run it on any
// dialect.ExecQuerier, such as a dialect/sql Driver or Tx:
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db")
//	id, err := eq.InsertAndGetID(ctx, cfg, drv, &User{Name: "a8m"})
//	u, err := eq.SelectByID[User](ctx, cfg, drv, id)
package eq
