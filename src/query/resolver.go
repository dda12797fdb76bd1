package query

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/flatrel/flatrel/src/relation"
	"github.com/flatrel/flatrel/src/relation/expr"
)

var errUnresolvedName = errors.New("relation name not defined")
var errEmptyUnion = errors.New("union resolved to no members")
var errSchemaMismatch = errors.New("union members have mismatching schemas")
var errResolveTooDeep = errors.New("relation definitions nest too deeply (cycle?)")

// definitions are a DAG in practice; anything deeper is a cycle
const maxResolveDepth = 64

// Resolve materialises the named relation as an operator tree. The
// caller owns the result and must Close it.
func (d *Definitions) Resolve(name string) (relation.Relation, error) {
	return d.resolve(name, 0)
}

func (d *Definitions) resolve(name string, depth int) (relation.Relation, error) {
	if depth > maxResolveDepth {
		return nil, fmt.Errorf("%w: at %q", errResolveTooDeep, name)
	}
	stmt, ok := d.stmts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnresolvedName, name)
	}

	switch stmt.kind {
	case stmtFile:
		return relation.OpenFile(unquote(stmt.args[0]))
	case stmtUnion:
		return d.resolveUnion(name, stmt, depth)
	case stmtProject, stmtUnique:
		base, err := d.resolve(stmt.args[0], depth+1)
		if err != nil {
			return nil, err
		}
		cols := stmt.args[1:]
		var rel relation.Relation
		if stmt.kind == stmtProject {
			rel, err = relation.NewProjection(base, cols)
		} else {
			rel, err = relation.NewUnique(base, cols)
		}
		if err != nil {
			base.Close()
			return nil, fmt.Errorf("%v in %q: %w", stmt.kind, name, err)
		}
		return rel, nil
	case stmtRestrict:
		base, err := d.resolve(stmt.base, depth+1)
		if err != nil {
			return nil, err
		}
		e, err := expr.Parse(stmt.expr, relation.Schema(base))
		if err != nil {
			base.Close()
			return nil, fmt.Errorf("restrict in %q: %w", name, err)
		}
		return relation.NewRestriction(base, e), nil
	default:
		panic(fmt.Sprintf("unknown statement kind %v", stmt.kind))
	}
}

// union members come in three spellings: "file", /regex/ over a
// directory's entries, or the name of another defined relation.
func (d *Definitions) resolveUnion(name string, stmt statement, depth int) (relation.Relation, error) {
	co := relation.NewConcat()
	fail := func(err error) (relation.Relation, error) {
		co.Close()
		return nil, err
	}

	for _, arg := range stmt.args {
		switch {
		case strings.HasPrefix(arg, `"`):
			fr, err := relation.OpenFile(unquote(arg))
			if err != nil {
				return fail(err)
			}
			if !co.Add(fr) {
				fr.Close()
				return fail(fmt.Errorf("%w: %q in %q", errSchemaMismatch, arg, name))
			}
		case strings.HasPrefix(arg, "/"):
			if err := d.addMatchingFiles(co, arg, name); err != nil {
				return fail(err)
			}
		default:
			rel, err := d.resolve(arg, depth+1)
			if err != nil {
				return fail(err)
			}
			if !co.Add(rel) {
				rel.Close()
				return fail(fmt.Errorf("%w: %q in %q", errSchemaMismatch, arg, name))
			}
		}
	}
	if co.Size() == 0 {
		return fail(fmt.Errorf("%w: %q", errEmptyUnion, name))
	}
	return co, nil
}

// addMatchingFiles opens every entry of <dir> whose name matches
// <regex>, where the /-quoted token splits on its last slash ("." when
// there is no path component). Entries come back from ReadDir sorted,
// so the union's order is deterministic.
func (d *Definitions) addMatchingFiles(co *relation.ConcatRelation, arg, name string) error {
	unquoted := strings.TrimSuffix(strings.TrimPrefix(arg, "/"), "/")
	dir, pattern := ".", unquoted
	if idx := strings.LastIndexByte(unquoted, '/'); idx != -1 {
		dir, pattern = unquoted[:idx], unquoted[idx+1:]
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("bad filename regex in %q: %w", name, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !re.MatchString(entry.Name()) {
			continue
		}
		fr, err := relation.OpenFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		if !co.Add(fr) {
			fr.Close()
			return fmt.Errorf("%w: %q in %q", errSchemaMismatch, entry.Name(), name)
		}
	}
	return nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
