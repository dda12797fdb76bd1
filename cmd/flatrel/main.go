package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flatrel/flatrel/src/codec"
	"github.com/flatrel/flatrel/src/column"
	"github.com/flatrel/flatrel/src/query"
	"github.com/flatrel/flatrel/src/relation"
)

// NULL spelling in the TSV the CLI reads and writes
const nullLiteral = `\N`

func main() {
	if err := rootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "flatrel",
		Short:         "inspect, write and query flat relation files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(schemaCmd(), catCmd(), writeCmd(), queryCmd(), pushCmd(), fetchCmd())
	return root
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema FILE",
		Short: "print a file's schema header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, err := relation.OpenFile(args[0])
			if err != nil {
				return err
			}
			defer rel.Close()
			for _, col := range relation.Schema(rel) {
				nullable := ""
				if col.Nullable {
					nullable = "\tnullable"
				}
				fmt.Printf("%s\t%s%s\n", col.Name, col.Type, nullable)
			}
			return nil
		},
	}
}

func catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat FILE",
		Short: "stream a file's rows as TSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, err := relation.OpenFile(args[0])
			if err != nil {
				return err
			}
			defer rel.Close()
			return dumpTSV(rel, os.Stdout)
		},
	}
}

func dumpTSV(rel relation.Relation, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for rel.Read() {
		for i := 0; i < rel.Length(); i++ {
			if i > 0 {
				bw.WriteByte('\t')
			}
			v := rel.Value(i)
			if v.IsNull() {
				bw.WriteString(nullLiteral)
			} else {
				bw.WriteString(v.String())
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func writeCmd() *cobra.Command {
	var schemaSpec string
	var appendTo bool
	cmd := &cobra.Command{
		Use:   "write FILE",
		Short: "create or append to a file from TSV on stdin",
		Long: "Reads tab-separated rows from stdin and appends them. A new file\n" +
			"needs --schema (e.g. 'id:u32,note:string:null'); --append re-reads\n" +
			"the schema stored in the file. NULL is spelled \\N.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var app *codec.Appender
			var err error
			if appendTo {
				app, err = codec.OpenAppend(args[0])
			} else {
				if schemaSpec == "" {
					return errors.New("creating a new file needs --schema")
				}
				var schema column.Schema
				schema, err = column.ParseSchema(schemaSpec)
				if err != nil {
					return err
				}
				app, err = codec.Create(args[0], schema)
			}
			if err != nil {
				return err
			}

			nrows, err := ingest(app, os.Stdin)
			if cerr := app.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			log.Printf("wrote %d rows to %s", nrows, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaSpec, "schema", "", "schema for a new file (name:type[:null],...)")
	cmd.Flags().BoolVar(&appendTo, "append", false, "append to an existing file")
	return cmd
}

func ingest(app *codec.Appender, r io.Reader) (int, error) {
	schema := app.Schema()
	values := make([]column.Value, schema.Len())
	nrows := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<20), 1<<24)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != schema.Len() {
			return nrows, fmt.Errorf("line %d: expected %d fields, got %d", nrows+1, schema.Len(), len(fields))
		}
		for j, field := range fields {
			v, err := parseValue(field, schema[j].Type)
			if err != nil {
				return nrows, fmt.Errorf("line %d, column %q: %w", nrows+1, schema[j].Name, err)
			}
			values[j] = v
		}
		if err := app.AppendRow(values); err != nil {
			return nrows, fmt.Errorf("line %d: %w", nrows+1, err)
		}
		nrows++
	}
	return nrows, scanner.Err()
}

func parseValue(field string, ctype column.Type) (column.Value, error) {
	if field == nullLiteral {
		return column.Null(), nil
	}
	switch ctype {
	case column.TypeU32:
		v, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			return column.Value{}, err
		}
		return column.U32(uint32(v)), nil
	case column.TypeU64:
		v, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return column.Value{}, err
		}
		return column.U64(v), nil
	default:
		return column.String(field), nil
	}
}

func queryCmd() *cobra.Command {
	var defsPath string
	cmd := &cobra.Command{
		Use:   "query NAME",
		Short: "resolve a relation from a definitions file and stream it as TSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(defsPath)
			if err != nil {
				return err
			}
			defs, err := query.Parse(string(src))
			if err != nil {
				return err
			}
			rel, err := defs.Resolve(args[0])
			if err != nil {
				return err
			}
			defer rel.Close()
			return dumpTSV(rel, os.Stdout)
		},
	}
	cmd.Flags().StringVarP(&defsPath, "defs", "f", "relations.def", "relation definitions file")
	return cmd
}
