package eq

import (
	"fmt"

	"github.com/syssam/eq/schema"
)

// Op is a statement kind that depends on the record type only.
type Op string

// Statement kinds.
const (
	OpSelect         Op = "select"          // select by identity
	OpSelectAll      Op = "select_all"      // select without filter
	OpInsert         Op = "insert"          // insert
	OpInsertIdentity Op = "insert_identity" // insert returning the generated identity
	OpUpsert         Op = "upsert"          // insert or update on conflict
	OpUpdate         Op = "update"          // update by identity
	OpDelete         Op = "delete"          // delete by identity
)

// Ops lists the statement kinds in a stable order.
var Ops = []Op{OpSelect, OpSelectAll, OpInsert, OpInsertIdentity, OpUpsert, OpUpdate, OpDelete}

// ParseOp returns the statement kind named s.
func ParseOp(s string) (Op, error) {
	for _, op := range Ops {
		if string(op) == s {
			return op, nil
		}
	}
	switch s {
	case "identity":
		return OpInsertIdentity, nil
	case "all":
		return OpSelectAll, nil
	}
	return "", fmt.Errorf("eq: unknown statement kind %q", s)
}

// Compile returns the statement of kind op for t. The statement is cached
// under the name of op.
func Compile(cfg *Config, t *schema.Type, op Op) (string, error) {
	b := New(cfg, t, string(op))
	switch op {
	case OpSelect:
		b.Select()
	case OpSelectAll:
		b.SelectWithoutWhere()
	case OpInsert:
		b.Insert()
	case OpInsertIdentity:
		b.InsertWithIdentity()
	case OpUpsert:
		b.Upsert()
	case OpUpdate:
		b.Update()
	case OpDelete:
		b.Delete()
	default:
		return "", NewUsageError("Compile", fmt.Sprintf("unknown statement kind %q", op))
	}
	return b.Build()
}
