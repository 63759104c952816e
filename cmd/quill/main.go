package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/quillsearch/quill/quill"
	"github.com/quillsearch/quill/quill/storage"
	"github.com/quillsearch/quill/quill/storage/postgres"
	"github.com/quillsearch/quill/quill/storage/sqlite"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	ctx := context.Background()

	switch command {
	case "create":
		handleCreate(ctx, os.Args[2:])
	case "put":
		handlePut(ctx, os.Args[2:])
	case "get":
		handleGet(ctx, os.Args[2:])
	case "delete":
		handleDelete(ctx, os.Args[2:])
	case "search":
		handleSearch(ctx, os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("quill - a personal note index with an AQL search frontend")
	fmt.Println("\nUsage:")
	fmt.Println("  quill create -i <path> [--backend sqlite|postgres] [--driver pure|cgo] [--schema <schema.json>]")
	fmt.Println("  quill put -i <path> [--backend ...]                (JSON note per line on stdin)")
	fmt.Println("  quill get -i <path> --id <note-id> [--backend ...]")
	fmt.Println("  quill delete -i <path> --id <note-id> [--backend ...]")
	fmt.Println("  quill search -i <path> -q <query> [--limit n] [--explain] [--backend ...]")
	fmt.Println("\nQuery examples:")
	fmt.Println("  quill search -i notes.db -q 'title:standup date:>2025-01-01'")
	fmt.Println("  quill search -i notes.db -q 'tags:work,urgent OR status:open'")
	fmt.Println("  quill search -i notes.db -q '\"quarterly review\" -status:done'")
}

type connOptions struct {
	path    string
	backend string
	driver  string
}

func bindConnFlags(fs *flag.FlagSet, o *connOptions) {
	fs.StringVar(&o.path, "i", "", "index path (sqlite file) or DSN (postgres)")
	fs.StringVar(&o.backend, "backend", "sqlite", "storage backend: sqlite or postgres")
	fs.StringVar(&o.driver, "driver", "pure", "sqlite driver: pure (modernc) or cgo (mattn)")
}

func (o connOptions) adapter() (storage.Adapter, error) {
	if o.path == "" {
		return nil, fmt.Errorf("missing -i <path>")
	}
	switch o.backend {
	case "sqlite":
		switch o.driver {
		case "pure":
			return sqlite.New(o.path), nil
		case "cgo":
			return sqlite.NewWithDriver(o.path, "sqlite3"), nil
		default:
			return nil, fmt.Errorf("unknown sqlite driver: %s", o.driver)
		}
	case "postgres":
		return postgres.New(o.path), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", o.backend)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func handleCreate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	var conn connOptions
	bindConnFlags(fs, &conn)
	schemaPath := fs.String("schema", "", "schema JSON file (default: built-in note schema)")
	fs.Parse(args)

	adapter, err := conn.adapter()
	if err != nil {
		fatal(err)
	}

	schema := quill.NoteSchema()
	if *schemaPath != "" {
		b, err := os.ReadFile(*schemaPath)
		if err != nil {
			fatal(err)
		}
		schema, err = quill.SchemaFromJSON(b)
		if err != nil {
			fatal(err)
		}
	}

	ix, err := quill.Create(ctx, adapter, schema, quill.DefaultIndexOptions())
	if err != nil {
		fatal(err)
	}
	defer ix.Close()
	fmt.Println("Index created.")
}

func openIndex(ctx context.Context, conn connOptions) *quill.Index {
	adapter, err := conn.adapter()
	if err != nil {
		fatal(err)
	}
	ix, err := quill.Open(ctx, adapter, quill.DefaultIndexOptions())
	if err != nil {
		fatal(err)
	}
	return ix
}

func handlePut(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("put", flag.ExitOnError)
	var conn connOptions
	bindConnFlags(fs, &conn)
	fs.Parse(args)

	ix := openIndex(ctx, conn)
	defer ix.Close()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<24)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" {
			continue
		}
		var note quill.Note
		if err := json.Unmarshal([]byte(text), &note); err != nil {
			fatal(fmt.Errorf("line %d: %w", line, err))
		}
		id, err := ix.Put(ctx, note)
		if err != nil {
			fatal(fmt.Errorf("line %d: %w", line, err))
		}
		fmt.Println(id)
	}
	if err := scanner.Err(); err != nil {
		fatal(err)
	}
}

func handleGet(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	var conn connOptions
	bindConnFlags(fs, &conn)
	id := fs.String("id", "", "note ID")
	fs.Parse(args)

	if *id == "" {
		fatal(fmt.Errorf("missing --id"))
	}
	ix := openIndex(ctx, conn)
	defer ix.Close()

	note, err := ix.Get(ctx, *id)
	if err != nil {
		fatal(err)
	}
	out, err := json.MarshalIndent(note, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(out))
}

func handleDelete(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	var conn connOptions
	bindConnFlags(fs, &conn)
	id := fs.String("id", "", "note ID")
	fs.Parse(args)

	if *id == "" {
		fatal(fmt.Errorf("missing --id"))
	}
	ix := openIndex(ctx, conn)
	defer ix.Close()

	if err := ix.Delete(ctx, *id); err != nil {
		fatal(err)
	}
	fmt.Println("Deleted.")
}

func handleSearch(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	var conn connOptions
	bindConnFlags(fs, &conn)
	query := fs.String("q", "", "AQL query")
	limit := fs.Int("limit", quill.DefaultSearchLimit, "max results")
	explain := fs.Bool("explain", false, "print the lowered SQL and steps")
	fs.Parse(args)

	if *query == "" {
		fatal(fmt.Errorf("missing -q <query>"))
	}
	ix := openIndex(ctx, conn)
	defer ix.Close()

	result, err := ix.Search(ctx, *query, quill.SearchOptions{Limit: *limit, Explain: *explain})
	if err != nil {
		fatal(err)
	}

	if *explain {
		fmt.Fprintln(os.Stderr, "-- query:")
		fmt.Fprint(os.Stderr, result.ExplainQuery)
		fmt.Fprintln(os.Stderr, "-- steps:")
		for _, step := range result.ExplainSteps {
			fmt.Fprintf(os.Stderr, "--   %s\n", step)
		}
		fmt.Fprintf(os.Stderr, "-- sql: %s\n", result.ExplainSQL)
	}
	for _, note := range result.Notes {
		out, err := json.Marshal(note)
		if err != nil {
			fatal(err)
		}
		fmt.Println(string(out))
	}
	if result.HasMore {
		fmt.Fprintln(os.Stderr, "(more results available; raise --limit)")
	}
}
