package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/eq/dialect/sqlschema"
	"github.com/syssam/eq/schema"
	"github.com/syssam/eq/schema/field"
)

// mockAnnotation is an annotation without table markers.
type mockAnnotation struct{}

func (mockAnnotation) Name() string { return "Mock" }

func TestType(t *testing.T) {
	typ := &schema.Type{
		Name: "User",
		Fields: []*field.Descriptor{
			field.Int("Id").Key().Descriptor(),
			field.String("Name").Descriptor(),
		},
	}
	assert.False(t, typ.HasTable())
	assert.Equal(t, "User", typ.String())
	require.NoError(t, typ.Err())

	f, ok := typ.Field("Name")
	require.True(t, ok)
	assert.Equal(t, "Name", f.Name)
	_, ok = typ.Field("name")
	assert.False(t, ok)
}

func TestType_Annotate(t *testing.T) {
	typ := &schema.Type{Name: "CarLog"}
	typ.Annotate(mockAnnotation{}, sqlschema.Table("Logs"), sqlschema.Annotation{Table: "CarLog", Schema: "Log"})
	assert.True(t, typ.HasTable())
	assert.Equal(t, "Log.CarLog", typ.QualifiedTable())

	typ = &schema.Type{Name: "Plain", Table: "plain"}
	assert.Equal(t, "plain", typ.QualifiedTable())
}

func TestType_Err(t *testing.T) {
	broken := field.Int("Id").Descriptor()
	broken.Err = broken.Parse("primary")
	require.Error(t, broken.Err)
	typ := &schema.Type{
		Name: "Broken",
		Fields: []*field.Descriptor{
			broken,
			field.New("Shape", field.Type(200)).Descriptor(),
			field.String("Name").Descriptor(),
			field.String("Name").Descriptor(),
		},
	}
	err := typ.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid type")
	assert.Contains(t, err.Error(), `field "Name" declared twice`)
	assert.Contains(t, err.Error(), `unknown option "primary"`)

	assert.Error(t, (&schema.Type{}).Err())
}
