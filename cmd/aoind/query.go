package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jchantrell/aoind/internal/catalog"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Query the catalog database from the command line",
	Long: `Query executes SQL against the catalog, lists its tables or shows a
table schema. Imported index files and stored segmentation runs can be
listed directly with --files, --runs and --run <id>.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		listTables, _ := cmd.Flags().GetBool("tables")
		schemaTable, _ := cmd.Flags().GetString("schema")
		listFiles, _ := cmd.Flags().GetBool("files")
		listRuns, _ := cmd.Flags().GetBool("runs")
		runID, _ := cmd.Flags().GetString("run")

		slog.Debug("Query parameters",
			"database", cfg.Database,
			"tables", listTables,
			"schema", schemaTable,
			"files", listFiles,
			"runs", listRuns,
			"run", runID)

		db, err := catalog.NewDatabase(catalog.DefaultDatabaseOptions(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		switch {
		case listTables:
			tables, err := db.Tables(ctx)
			if err != nil {
				return err
			}
			fmt.Println("Available tables:")
			for _, name := range tables {
				n, err := db.Count(ctx, name)
				if err != nil {
					return err
				}
				fmt.Printf("  %-22s %d rows\n", name, n)
			}
			return nil

		case schemaTable != "":
			return printSchema(ctx, db, schemaTable)

		case listFiles:
			files, err := db.Files(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%-10s %-12s %-8s %-6s %-9s %s\n", "Asset", "Shape", "Offset", "Size", "Records", "Path")
			fmt.Println(strings.Repeat("-", 80))
			for _, f := range files {
				size := fmt.Sprintf("%d", f.RecordSize)
				if f.Fallback {
					size += "*"
				}
				fmt.Printf("%-10s %-12s %-8d %-6s %-9d %s\n", f.Asset, f.Shape, f.HeaderOffset, size, f.RecordCount, f.Path)
			}
			return nil

		case listRuns:
			runs, err := db.Runs(ctx)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Printf("%s  %s  %-6s %-16s %dx%d  %s\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Mode, r.Rule, r.Width, r.Height, r.Image)
			}
			return nil

		case runID != "":
			id, err := uuid.Parse(runID)
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", runID, err)
			}
			run, err := db.Run(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%dx%d, %s, %s)\n", run.Image, run.Width, run.Height, run.Mode, run.Rule)
			for i, r := range run.Regions {
				fmt.Printf("  %4d  x=%-5d y=%-5d w=%-5d h=%d\n", i+1, r.X, r.Y, r.W, r.H)
			}
			return nil

		case len(args) > 0:
			return printQuery(ctx, db, args[0])
		}

		return fmt.Errorf("no query provided, use --tables to list tables or --schema <table> to show schema")
	},
}

func printSchema(ctx context.Context, db *catalog.Database, table string) error {
	slog.Debug("Getting table schema", "table", table)

	rows, err := db.Query(ctx, `PRAGMA table_info(`+catalog.QuoteIdentifier(table)+`)`)
	if err != nil {
		return fmt.Errorf("getting schema for table %s: %w", table, err)
	}
	defer rows.Close()

	fmt.Printf("Schema for table '%s':\n", table)
	fmt.Printf("%-20s %-15s %-10s %-10s %-5s\n", "Column", "Type", "NotNull", "Default", "Primary")
	fmt.Println(strings.Repeat("-", 64))

	found := false
	for rows.Next() {
		var cid, notNull, primaryKey int
		var name, dataType string
		var defaultValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &primaryKey); err != nil {
			return fmt.Errorf("scanning schema row: %w", err)
		}
		found = true

		defaultStr := "NULL"
		if defaultValue != nil {
			defaultStr = fmt.Sprintf("%v", defaultValue)
		}

		fmt.Printf("%-20s %-15s %-10s %-10s %-5s\n", name, dataType, yesNo(notNull != 0), defaultStr, yesNo(primaryKey != 0))
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating schema: %w", err)
	}
	if !found {
		return fmt.Errorf("table %s does not exist", table)
	}

	return nil
}

func printQuery(ctx context.Context, db *catalog.Database, query string) error {
	slog.Debug("Executing SQL query", "query", query)

	rows, err := db.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("getting column names: %w", err)
	}

	fmt.Println(strings.Join(columns, "\t"))
	separators := make([]string, len(columns))
	for i, col := range columns {
		separators[i] = strings.Repeat("-", len(col))
	}
	fmt.Println(strings.Join(separators, "\t"))

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}

		cells := make([]string, len(values))
		for i, val := range values {
			switch v := val.(type) {
			case nil:
				cells[i] = "NULL"
			case []byte:
				cells[i] = string(v)
			default:
				cells[i] = fmt.Sprint(v)
			}
		}
		fmt.Println(strings.Join(cells, "\t"))
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}

	return nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().Bool("tables", false, "List available tables")
	queryCmd.Flags().String("schema", "", "Show schema for specified table")
	queryCmd.Flags().Bool("files", false, "List imported index files")
	queryCmd.Flags().Bool("runs", false, "List stored segmentation runs")
	queryCmd.Flags().String("run", "", "Show the regions of a segmentation run")
}
