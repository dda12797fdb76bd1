package column

import (
	"errors"
	"fmt"
	"strings"
)

var errInvalidSchemaSpec = errors.New("invalid schema specification")

// Column describes a single column: a free-form name, a storage type
// and whether NULLs are allowed. Column identity is positional; names
// may repeat and operators binding by name take the first match.
type Column struct {
	Name     string
	Type     Type
	Nullable bool
}

// Schema is the ordered list of columns fixed at file creation. Once
// the header is on disk it never changes for the lifetime of the file.
type Schema []Column

func (s Schema) Len() int {
	return len(s)
}

// LocateColumn finds the first column of a given name.
func (s Schema) LocateColumn(name string) (int, bool) {
	for j, col := range s {
		if col.Name == name {
			return j, true
		}
	}
	return 0, false
}

// Equal compares two schemas on arity, names and types. Nullability is
// deliberately excluded - union treats a nullability mismatch as a
// warning, not an error.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for j := range s {
		if s[j].Name != other[j].Name || s[j].Type != other[j].Type {
			return false
		}
	}
	return true
}

func (s Schema) String() string {
	var sb strings.Builder
	for j, col := range s {
		if j > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(col.Name)
		sb.WriteByte(':')
		sb.WriteString(col.Type.String())
		if col.Nullable {
			sb.WriteString(":null")
		}
	}
	return sb.String()
}

// ParseSchema parses the textual form produced by String - a comma
// separated list of name:type[:null] triples. Used by the CLI to spell
// schemas on the command line.
func ParseSchema(spec string) (Schema, error) {
	var schema Schema
	for _, part := range strings.Split(spec, ",") {
		fields := strings.Split(part, ":")
		if len(fields) != 2 && len(fields) != 3 {
			return nil, fmt.Errorf("%w: %q", errInvalidSchemaSpec, part)
		}
		var ctype Type
		switch fields[1] {
		case "u32":
			ctype = TypeU32
		case "u64":
			ctype = TypeU64
		case "string":
			ctype = TypeString
		default:
			return nil, fmt.Errorf("%w: unknown type %q", errInvalidSchemaSpec, fields[1])
		}
		nullable := false
		if len(fields) == 3 {
			if fields[2] != "null" {
				return nil, fmt.Errorf("%w: expecting 'null', got %q", errInvalidSchemaSpec, fields[2])
			}
			nullable = true
		}
		schema = append(schema, Column{Name: fields[0], Type: ctype, Nullable: nullable})
	}
	if len(schema) == 0 {
		return nil, fmt.Errorf("%w: no columns", errInvalidSchemaSpec)
	}
	return schema, nil
}
