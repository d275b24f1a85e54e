package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/chrissnell/fracgrad/internal/log"
	"github.com/chrissnell/fracgrad/pkg/config"
	"github.com/chrissnell/fracgrad/pkg/migrate"
	_ "modernc.org/sqlite" // SQLite driver
)

func main() {
	var (
		dbPath         = flag.String("db", "", "Path to the SQLite configuration database")
		migrationDir   = flag.String("dir", "", "Migration directory (default: migrations built into the binary)")
		migrationTable = flag.String("table", "schema_migrations", "Migration table name")
		command        = flag.String("command", "up", "Migration command: up, down, to, version, status")
		targetVersion  = flag.String("target", "", "Target version for down/to commands")
		debug          = flag.Bool("debug", false, "Turn on debugging output")
		helpFlag       = flag.Bool("help", false, "Show help")
	)

	flag.Parse()

	if *helpFlag {
		showHelp()
		return
	}

	if *dbPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -db flag is required\n")
		showHelp()
		os.Exit(1)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fatalf("Failed to ping database: %v", err)
	}

	var provider migrate.MigrationProvider = config.MigrationProvider()
	if *migrationDir != "" {
		provider = migrate.NewFSProvider(os.DirFS(*migrationDir), ".", *migrationTable)
	}
	migrator := migrate.NewMigrator(db, provider, log.GetSugaredLogger())

	switch *command {
	case "up":
		err = migrator.MigrateUp()
	case "down":
		err = migrator.MigrateDown(requireTarget(*targetVersion, "down"))
	case "to":
		err = migrator.MigrateTo(requireTarget(*targetVersion, "to"))
	case "version":
		version, err := migrator.GetCurrentVersion()
		if err != nil {
			fatalf("Failed to get current version: %v", err)
		}
		fmt.Printf("Current version: %d\n", version)
		return
	case "status":
		err = showStatus(migrator)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", *command)
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		fatalf("Migration command failed: %v", err)
	}

	fmt.Println("Migration completed successfully")
}

func requireTarget(target, command string) int {
	if target == "" {
		fmt.Fprintf(os.Stderr, "Error: -target flag is required for %s command\n", command)
		os.Exit(1)
	}
	v, err := strconv.Atoi(target)
	if err != nil {
		fatalf("Invalid target version: %v", err)
	}
	return v
}

func fatalf(template string, args ...interface{}) {
	log.Errorf(template, args...)
	log.Sync()
	os.Exit(1)
}

func showStatus(migrator *migrate.Migrator) error {
	currentVersion, err := migrator.GetCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	pending, err := migrator.GetPendingMigrations()
	if err != nil {
		return fmt.Errorf("failed to get pending migrations: %w", err)
	}

	fmt.Printf("Current version: %d\n", currentVersion)
	fmt.Printf("Pending migrations: %d\n", len(pending))

	if len(pending) > 0 {
		fmt.Println("\nPending migrations:")
		for _, migration := range pending {
			fmt.Printf("  %d: %s\n", migration.Version, migration.Name)
		}
	}

	return nil
}

func showHelp() {
	fmt.Println("Configuration Database Migration Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  migrate [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -db string         SQLite configuration database (required)")
	fmt.Println("  -dir string        Migration directory (default: built in)")
	fmt.Println("  -table string      Migration table name for -dir (default: schema_migrations)")
	fmt.Println("  -command string    Migration command (default: up)")
	fmt.Println("  -target string     Target version for down/to commands")
	fmt.Println("  -help              Show this help message")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up                 Apply all pending migrations")
	fmt.Println("  down               Roll back to target version")
	fmt.Println("  to                 Migrate to specific version (up or down)")
	fmt.Println("  version            Show current migration version")
	fmt.Println("  status             Show migration status")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  migrate -db config.db -command up")
	fmt.Println("  migrate -db config.db -command down -target 0")
	fmt.Println("  migrate -db config.db -command status")
}
