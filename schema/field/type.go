package field

import (
	"database/sql/driver"
	"reflect"
	"time"
)

// A Type represents a field storage kind.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeTime
	TypeDuration
	TypeUUID
	TypeBytes
	TypeEnum
	TypeString
	TypeDecimal
	TypeValueScanner
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeOther
	endTypes
)

var typeNames = [...]string{
	TypeInvalid:      "invalid",
	TypeBool:         "bool",
	TypeTime:         "time.Time",
	TypeDuration:     "time.Duration",
	TypeUUID:         "uuid",
	TypeBytes:        "[]byte",
	TypeEnum:         "enum",
	TypeString:       "string",
	TypeDecimal:      "decimal",
	TypeValueScanner: "valuer",
	TypeInt8:         "int8",
	TypeInt16:        "int16",
	TypeInt32:        "int32",
	TypeInt:          "int",
	TypeInt64:        "int64",
	TypeUint8:        "uint8",
	TypeUint16:       "uint16",
	TypeUint32:       "uint32",
	TypeUint:         "uint",
	TypeUint64:       "uint64",
	TypeFloat32:      "float32",
	TypeFloat64:      "float64",
	TypeOther:        "other",
}

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type if known type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t >= TypeInt8 && t < endTypes && t != TypeOther
}

// Integer reports if the given type is an integer type.
func (t Type) Integer() bool {
	return t >= TypeInt8 && t <= TypeUint64
}

// Float reports if the given type is a float type.
func (t Type) Float() bool {
	return t == TypeFloat32 || t == TypeFloat64
}

// Storable reports if values of the type map to a single column. Composite
// kinds (structs, slices, maps) reported as TypeOther are not storable, and
// neither are uuids: a uuid field is stored only when marked editable.
func (t Type) Storable() bool {
	return t.Valid() && t != TypeOther && t != TypeUUID
}

// ParseType returns the Type for the given name as used in schema files.
// Aliases such as "text", "long" or "datetime" are accepted.
func ParseType(name string) (Type, bool) {
	switch name {
	case "text", "varchar", "char":
		return TypeString, true
	case "long", "bigint":
		return TypeInt64, true
	case "integer":
		return TypeInt, true
	case "short", "smallint":
		return TypeInt16, true
	case "byte", "tinyint":
		return TypeUint8, true
	case "double", "float":
		return TypeFloat64, true
	case "boolean":
		return TypeBool, true
	case "datetime", "timestamp", "time":
		return TypeTime, true
	case "duration", "timespan":
		return TypeDuration, true
	case "bytes", "blob", "binary":
		return TypeBytes, true
	case "numeric":
		return TypeDecimal, true
	}
	for t := TypeBool; t < endTypes; t++ {
		if typeNames[t] == name {
			return t, true
		}
	}
	return TypeInvalid, false
}

// TypeInfo holds the information regarding field type.
type TypeInfo struct {
	Type     Type
	Ident    string
	PkgPath  string
	Nillable bool
	RType    reflect.Type
}

// String returns the string representation of a type.
func (t TypeInfo) String() string {
	switch {
	case t.Ident != "":
		return t.Ident
	case t.Type < endTypes:
		return t.Type.String()
	default:
		return typeNames[TypeInvalid]
	}
}

// Integer reports if the field type is an integer kind.
func (t TypeInfo) Integer() bool { return t.Type.Integer() }

// Storable reports if the field type maps to a single column.
func (t TypeInfo) Storable() bool { return t.Type.Storable() }

// ValueScanner reports if the Go type implements driver.Valuer.
func (t TypeInfo) ValueScanner() bool {
	return t.RType != nil && (t.RType.Implements(valuerType) || reflect.PointerTo(t.RType).Implements(valuerType))
}

// EnumValues defines the interface for getting the enum values of a Go type.
// Named string and integer types that implement it are classified as enums.
type EnumValues interface {
	Values() []string
}

var (
	valuerType   = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	enumType     = reflect.TypeOf((*EnumValues)(nil)).Elem()
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	bytesType    = reflect.TypeOf([]byte(nil))
)

// TypeOf returns the storage information of the given Go type. Pointer types
// are unwrapped and reported as nillable, the same as the database/sql Null
// wrappers that implement driver.Valuer.
func TypeOf(rt reflect.Type) *TypeInfo {
	info := &TypeInfo{RType: rt, Ident: rt.String(), PkgPath: rt.PkgPath()}
	for rt.Kind() == reflect.Pointer {
		info.Nillable = true
		rt = rt.Elem()
	}
	if info.PkgPath == "" {
		info.PkgPath = rt.PkgPath()
	}
	info.Type = kindOf(rt)
	if info.Type == TypeValueScanner {
		info.Nillable = true
	}
	return info
}

func kindOf(rt reflect.Type) Type {
	switch {
	case rt == timeType:
		return TypeTime
	case rt == durationType:
		return TypeDuration
	case rt == bytesType, rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.Uint8:
		return TypeBytes
	case implements(rt, enumType) && (rt.Kind() == reflect.String || isIntKind(rt.Kind())):
		return TypeEnum
	case implements(rt, valuerType):
		switch {
		case rt.Kind() == reflect.Array && rt.Len() == 16 && rt.Elem().Kind() == reflect.Uint8:
			return TypeUUID
		case rt.Name() == "Decimal":
			return TypeDecimal
		case rt.Kind() == reflect.String:
			return TypeString
		}
		return TypeValueScanner
	}
	switch rt.Kind() {
	case reflect.Bool:
		return TypeBool
	case reflect.String:
		return TypeString
	case reflect.Int:
		return TypeInt
	case reflect.Int8:
		return TypeInt8
	case reflect.Int16:
		return TypeInt16
	case reflect.Int32:
		return TypeInt32
	case reflect.Int64:
		return TypeInt64
	case reflect.Uint:
		return TypeUint
	case reflect.Uint8:
		return TypeUint8
	case reflect.Uint16:
		return TypeUint16
	case reflect.Uint32:
		return TypeUint32
	case reflect.Uint64:
		return TypeUint64
	case reflect.Float32:
		return TypeFloat32
	case reflect.Float64:
		return TypeFloat64
	}
	return TypeOther
}

func implements(rt, iface reflect.Type) bool {
	return rt.Implements(iface) || reflect.PointerTo(rt).Implements(iface)
}

func isIntKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Uint64
}
