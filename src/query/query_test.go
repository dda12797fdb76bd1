package query

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/flatrel/flatrel/src/codec"
	"github.com/flatrel/flatrel/src/column"
	"github.com/flatrel/flatrel/src/relation"
)

func TestTokenizerQuoting(t *testing.T) {
	tk := newTokenizer(`hello = world {b r a c e} "q u o t {e} d" /re.*gex/`)
	want := []string{"hello"}
	tok, ok := tk.token()
	if !ok || tok != "hello" {
		t.Fatalf("expected %q, got (%q, %v)", want[0], tok, ok)
	}
	tk.skipSpace()
	if !tk.expect("=") {
		t.Fatal("expected '='")
	}
	for _, want := range []string{"world", "{b r a c e}", `"q u o t {e} d"`, "/re.*gex/"} {
		tk.skipSpace()
		tok, ok := tk.token()
		if !ok || tok != want {
			t.Errorf("expected %q, got (%q, %v)", want, tok, ok)
		}
	}
}

func TestTokenizerUnterminatedQuote(t *testing.T) {
	tk := newTokenizer(`"never closed`)
	if tok, ok := tk.token(); ok {
		t.Errorf("expected an unterminated quote to read as no token, got %q", tok)
	}
}

func TestParseStatements(t *testing.T) {
	defs, err := Parse("a = file \"one.dat\"\nb = project a x y\r\nc = union a b \"two.dat\"\nd = unique c x\ne = restrict a (x == 4)\n")
	if err != nil {
		t.Fatal(err)
	}
	names := defs.Names()
	want := []string{"a", "b", "c", "d", "e"}
	if len(names) != len(want) {
		t.Fatalf("expected %v definitions, got %v", want, names)
	}
	for j := range want {
		if names[j] != want[j] {
			t.Errorf("definition %v: expected %q, got %q", j, want[j], names[j])
		}
	}
	if st := defs.stmts["e"]; st.base != "a" || st.expr != "(x == 4)" {
		t.Errorf("restrict parsed wrong: %+v", st)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"a file \"x.dat\"\n",       // missing =
		"a = blend x y\n",          // unknown operator
		"a = file\n",               // missing filename
		"a = file \"x.dat\" junk\n", // trailing token
		"a = union\n",              // no members
		"a = restrict b\n",         // no predicate
	}
	for _, input := range tests {
		if _, err := Parse(input); err == nil {
			t.Errorf("expected %q to fail to parse", input)
		}
	}
}

func writeU32File(t *testing.T, path, colname string, values ...uint32) {
	t.Helper()
	schema := column.Schema{{Name: colname, Type: column.TypeU32, Nullable: false}}
	app, err := codec.Create(path, schema)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range values {
		if err := app.AppendRow([]column.Value{column.U32(v)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := app.Close(); err != nil {
		t.Fatal(err)
	}
}

func collect(t *testing.T, rel relation.Relation) []uint32 {
	t.Helper()
	var out []uint32
	for rel.Read() {
		out = append(out, rel.Value(0).AsU32())
	}
	return out
}

func TestResolveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.dat")
	writeU32File(t, path, "v", 1, 2, 3)

	defs, err := Parse(fmt.Sprintf("a = file %q\n", path))
	if err != nil {
		t.Fatal(err)
	}
	rel, err := defs.Resolve("a")
	if err != nil {
		t.Fatal(err)
	}
	defer rel.Close()
	if got := collect(t, rel); len(got) != 3 {
		t.Errorf("expected 3 rows, got %v", got)
	}
}

func TestResolveUnionMixedArguments(t *testing.T) {
	dir := t.TempDir()
	writeU32File(t, filepath.Join(dir, "part_1.dat"), "v", 1)
	writeU32File(t, filepath.Join(dir, "part_2.dat"), "v", 2)
	writeU32File(t, filepath.Join(dir, "extra.dat"), "v", 9)

	src := fmt.Sprintf("base = file %q\nall = union /%s/part_.*\\.dat/ base\n",
		filepath.Join(dir, "extra.dat"), dir)
	defs, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	rel, err := defs.Resolve("all")
	if err != nil {
		t.Fatal(err)
	}
	defer rel.Close()
	// directory entries come sorted, then the named relation
	got := collect(t, rel)
	want := []uint32{1, 2, 9}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for j := range want {
		if got[j] != want[j] {
			t.Errorf("row %v: expected %v, got %v", j, want[j], got[j])
		}
	}
}

func TestResolveUnionSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	writeU32File(t, filepath.Join(dir, "a.dat"), "v", 1)
	writeU32File(t, filepath.Join(dir, "b.dat"), "w", 2) // different column name

	src := fmt.Sprintf("all = union %q %q\n", filepath.Join(dir, "a.dat"), filepath.Join(dir, "b.dat"))
	defs, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := defs.Resolve("all"); err == nil {
		t.Error("expected a schema mismatch to fail the resolution")
	}
}

func TestResolveOperatorPipeline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.dat")
	schema := column.Schema{
		{Name: "k", Type: column.TypeU32, Nullable: false},
		{Name: "v", Type: column.TypeString, Nullable: true},
	}
	app, err := codec.Create(path, schema)
	if err != nil {
		t.Fatal(err)
	}
	rows := [][]column.Value{
		{column.U32(1), column.String("x")},
		{column.U32(1), column.String("x")},
		{column.U32(4), column.String("y")},
		{column.U32(4), column.Null()},
	}
	for _, row := range rows {
		if err := app.AppendRow(row); err != nil {
			t.Fatal(err)
		}
	}
	if err := app.Close(); err != nil {
		t.Fatal(err)
	}

	src := fmt.Sprintf("raw = file %q\ndeduped = unique raw\nfours = restrict deduped k == 4 and v is not null\nnarrow = project fours k\n", path)
	defs, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	rel, err := defs.Resolve("narrow")
	if err != nil {
		t.Fatal(err)
	}
	defer rel.Close()
	if rel.Length() != 1 || rel.Name(0) != "k" {
		t.Fatalf("projection schema wrong: arity %v, name %q", rel.Length(), rel.Name(0))
	}
	got := collect(t, rel)
	if len(got) != 1 || got[0] != 4 {
		t.Errorf("expected a single 4, got %v", got)
	}
}

func TestResolveUnresolvedName(t *testing.T) {
	defs, err := Parse("a = project ghost x\n")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := defs.Resolve("a"); err == nil {
		t.Error("expected resolution of an undefined base to fail")
	}
	if _, err := defs.Resolve("nosuch"); err == nil {
		t.Error("expected resolution of an undefined name to fail")
	}
}

func TestResolveCycleAborts(t *testing.T) {
	defs, err := Parse("a = project b x\nb = project a x\n")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := defs.Resolve("a"); err == nil {
		t.Error("expected a definition cycle to abort resolution")
	}
}

func FuzzParseDefinitions(f *testing.F) {
	f.Add("a = file \"x.dat\"\nb = union a a\n")
	f.Add("c = restrict a (x == 4)\n")
	f.Fuzz(func(t *testing.T, raw string) {
		// must never panic; errors are fine
		Parse(raw)
	})
}
