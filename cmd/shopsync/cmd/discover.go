package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/shopsync/internal/config"
	"github.com/dbsmedya/shopsync/internal/discover"
	"github.com/dbsmedya/shopsync/internal/extract"
	"github.com/dbsmedya/shopsync/internal/gql"
	"github.com/dbsmedya/shopsync/internal/logger"
)

var discoverNoColor bool

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List extractable entities and their key metadata",
	Long: `Discover introspects the remote schema and prints every extractable
entity with its query field, backing type, primary key and incremental
replication key. Entities without a primary key are not extractable and
do not appear.

Example:
  shopsync discover --config shopsync.yaml`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverNoColor, "no-color", false,
		"Disable colored output")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.PollInterval, overrides.PollTimeout, overrides.Bulk)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if discoverNoColor {
		color.Disable()
	}

	ctx := context.Background()

	client := gql.NewClient(cfg, log)
	svc, err := extract.NewService(cfg, client, noopEmitter{}, noopCheckpoints{}, log)
	if err != nil {
		return err
	}
	if err := svc.Initialize(ctx); err != nil {
		return err
	}

	entities, err := svc.Entities()
	if err != nil {
		return err
	}

	cmd.Print(renderEntityTable(entities))
	cmd.Printf("\n%d entities discovered\n", len(entities))

	return nil
}

// renderEntityTable renders the discovered entities as an aligned table.
func renderEntityTable(entities []*discover.Entity) string {
	headers := []string{"ENTITY", "QUERY FIELD", "TYPE", "PRIMARY KEY", "REPLICATION KEY"}

	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		rk := e.ReplicationKey
		if rk == "" {
			rk = "-"
		}
		rows = append(rows, []string{
			e.Name,
			e.QueryName,
			e.TypeName,
			strings.Join(e.PrimaryKeys, ", "),
			rk,
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(color.Bold.Render(pad(h, widths[i])))
		if i < len(headers)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteString("\n")

	for _, row := range rows {
		for i, cell := range row {
			text := pad(cell, widths[i])
			switch i {
			case 0:
				text = color.Cyan.Render(text)
			case 4:
				if cell != "-" {
					text = color.Green.Render(text)
				}
			}
			b.WriteString(text)
			if i < len(row)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// pad right-pads a cell to the display width of its column.
func pad(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
