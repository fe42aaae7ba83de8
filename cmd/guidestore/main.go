// guidestore - maintenance commands for the repair-guide data store
//
// Backend selection follows the GUIDESTORE_* environment variables, the
// same way the site does at startup.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/adrianmcphee/guidestore"
	"github.com/adrianmcphee/guidestore/internal/export"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		printHelp()
		os.Exit(2)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "migrate":
		runMigrate(args)
	case "export":
		runExport(args)
	case "import":
		runImport(args)
	case "seed-admin":
		runSeedAdmin(args)
	case "public-categories":
		runPublicCategories(args)
	case "help", "--help", "-h":
		printHelp()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printHelp()
		os.Exit(2)
	}
}

func printHelp() {
	fmt.Println(`guidestore - repair-guide data store maintenance

Usage:
  guidestore migrate [flags]            Fold legacy public categories into categories
  guidestore export [flags]             Write the active backend as a container document
  guidestore import -in file [flags]    Load a container document into the active backend
  guidestore seed-admin [flags]         Create the initial admin account
  guidestore public-categories [flags]  Print the public category list as JSON

Common flags:
  --data string          Data directory for the flat-file backend (overrides GUIDESTORE_DATA_PATH)
  --metrics-file string  Write Prometheus metrics in textfile-collector format on exit

Export flags:
  --out string   Output file (default stdout)
  --summary      Print collection counts instead of the document

Seed-admin flags:
  --username string  Admin username (default "admin")
  --email string     Admin email
  --password string  Admin password (default $GUIDESTORE_ADMIN_PASSWORD)

Environment:
  GUIDESTORE_REDIS_ADDR selects the Redis backend; when it is unset or
  unreachable the flat-file container is used.`)
}

// cli holds what every subcommand shares.
type cli struct {
	flags       *flag.FlagSet
	dataDir     *string
	metricsFile *string
}

func newCLI(name string) *cli {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &cli{
		flags:       fs,
		dataDir:     fs.String("data", "", "Data directory for the flat-file backend"),
		metricsFile: fs.String("metrics-file", "", "Write Prometheus metrics to this file on exit"),
	}
}

// open parses args, selects the backend and returns the store with a
// cleanup func that flushes logs and metrics.
func (c *cli) open(ctx context.Context, args []string) (*guidestore.Store, func()) {
	c.flags.Parse(args)

	cfg := guidestore.ConfigFromEnv()
	if *c.dataDir != "" {
		cfg.Blob.Type = "filesystem"
		cfg.Blob.Bucket = *c.dataDir
	}
	if cfg.Blob.Type == "filesystem" {
		if err := os.MkdirAll(cfg.Blob.Bucket, guidestore.DefaultDirPermissions); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	logger, err := guidestore.NewProductionZapLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	registry := prometheus.NewRegistry()
	store, err := guidestore.Open(ctx, cfg,
		guidestore.WithLogger(logger),
		guidestore.WithMetrics(guidestore.NewPrometheusMetrics(registry)),
	)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	return store, func() {
		store.Close()
		if *c.metricsFile != "" {
			if err := prometheus.WriteToTextfile(*c.metricsFile, registry); err != nil {
				log.Printf("Failed to write metrics: %v", err)
			}
		}
		_ = logger.Sync()
	}
}

func runMigrate(args []string) {
	ctx := context.Background()
	store, done := newCLI("migrate").open(ctx, args)
	defer done()

	report, err := store.MigratePublicCategoriesToCategories(ctx)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	fmt.Printf("backend: %s\n", store.Kind())
	fmt.Printf("legacy entries: %d, added: %d, already present: %d\n",
		report.Legacy, len(report.Added), len(report.Skipped))
	for _, id := range report.Added {
		fmt.Printf("  + %s\n", id)
	}
}

func runExport(args []string) {
	ctx := context.Background()
	c := newCLI("export")
	out := c.flags.String("out", "", "Output file (default stdout)")
	summary := c.flags.Bool("summary", false, "Print collection counts only")
	store, done := c.open(ctx, args)
	defer done()

	if *summary {
		snapshot, err := export.Snapshot(ctx, store)
		if err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		fmt.Printf("backend: %s\n%s", store.Kind(), export.Summary(snapshot))
		return
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *out, err)
		}
		defer f.Close()
		w = f
	}
	if err := export.Export(ctx, store, w); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
}

func runImport(args []string) {
	ctx := context.Background()
	c := newCLI("import")
	in := c.flags.String("in", "", "Container document to load")
	store, done := c.open(ctx, args)
	defer done()

	if *in == "" {
		log.Fatal("import requires -in")
	}
	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *in, err)
	}
	container, err := guidestore.DecodeContainer(data)
	if err != nil {
		log.Fatalf("Failed to parse %s: %v", *in, err)
	}

	report, err := export.Import(ctx, store, container)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	fmt.Printf("backend: %s\n", store.Kind())
	fmt.Printf("users: %d, tutorials: %d, categories: %d, feedback: %d, existing: %d\n",
		report.Users, report.Tutorials, report.Categories, report.Feedback, report.Existing)
}

func runSeedAdmin(args []string) {
	ctx := context.Background()
	c := newCLI("seed-admin")
	username := c.flags.String("username", "admin", "Admin username")
	email := c.flags.String("email", "", "Admin email")
	password := c.flags.String("password", os.Getenv("GUIDESTORE_ADMIN_PASSWORD"), "Admin password")
	store, done := c.open(ctx, args)
	defer done()

	if *password == "" {
		log.Fatal("seed-admin requires -password or GUIDESTORE_ADMIN_PASSWORD")
	}

	if existing, found, err := store.GetUserByUsername(ctx, *username); err != nil {
		log.Fatalf("Lookup failed: %v", err)
	} else if found {
		fmt.Printf("user %q already exists (id %s), nothing to do\n", existing.Username, existing.ID)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user, err := store.CreateUser(ctx, guidestore.User{
		Username:     *username,
		Email:        *email,
		PasswordHash: string(hash),
		Role:         guidestore.RoleAdmin,
	})
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}
	fmt.Printf("created admin %q (id %s) on %s backend at %s\n",
		user.Username, user.ID, store.Kind(), user.CreatedAt.Format(time.RFC3339))
}

func runPublicCategories(args []string) {
	ctx := context.Background()
	store, done := newCLI("public-categories").open(ctx, args)
	defer done()

	categories, err := store.GetPublicCategories(ctx)
	if err != nil {
		log.Fatalf("Failed to read categories: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(categories); err != nil {
		log.Fatalf("Failed to write categories: %v", err)
	}
}
