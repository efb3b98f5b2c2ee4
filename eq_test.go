package eq_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/syssam/eq"
	"github.com/syssam/eq/dialect/sqlschema"
	"github.com/syssam/eq/naming"
	"github.com/syssam/eq/schema"
	"github.com/syssam/eq/schema/field"
)

type Account struct {
	Id   int `eq:"key"`
	Name string
	Age  int
}

func (Account) TableName() string { return "Users" }

type UserEditableSettings struct {
	Id   int
	Name string
	Age  int
}

type User struct {
	UserEditableSettings
	ScheduledDayOff *time.Weekday
	CreatedDate     time.Time `eq:"readonly"`
	NotMappedInt    int       `eq:"-"`
}

func (User) TableName() string { return "Users" }

type Member struct {
	Id     int
	UserId int `eq:"column=user_id_custom"`
	Name   string
}

type Car struct {
	CarId         int `eq:"key"`
	Id            *int
	Make          string
	Model         string
	Users         []User
	MakeWithModel string `eq:"editable=false"`
}

type City struct {
	Name       string `eq:"key"`
	Population int
}

type CarLog struct {
	Id       int
	LogNotes string
}

func (CarLog) Annotations() []schema.Annotation {
	return []schema.Annotation{
		sqlschema.Annotation{Table: "CarLog", Schema: "Log"},
	}
}

type KeyMaster struct {
	Key1 int `eq:"key,required"`
	Key2 int `eq:"key,required"`
}

type StrangeColumnNames struct {
	Id            int `eq:"key,column=ItemId"`
	Word          string
	StrangeWord   string  `eq:"column=colstringstrangeword"`
	Select        *string `eq:"column=KeywordedProperty"`
	ExtraProperty string  `eq:"editable=false"`
}

type UserAccount struct {
	Id       int
	FullName string
}

type Event struct {
	Message string
	Level   int
}

// typeOf loads the record type T through cfg.
func typeOf[T any](t *testing.T, cfg *eq.Config) *schema.Type {
	t.Helper()
	b := eq.Of[T](cfg, "")
	require.NoError(t, b.Err())
	return b.Type()
}

func newConfig(t *testing.T, opts ...eq.Option) *eq.Config {
	t.Helper()
	cfg, err := eq.NewConfig(opts...)
	require.NoError(t, err)
	return cfg
}

func tableFunc(fn func(string) string) naming.TableResolver {
	return naming.TableResolverFunc(func(t *schema.Type) string { return fn(t.Name) })
}

func columnFunc(fn func(string) string) naming.ColumnResolver {
	return naming.ColumnResolverFunc(func(_ *schema.Type, f *field.Descriptor) string { return fn(f.Name) })
}
