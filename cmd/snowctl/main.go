// snowctl is the operations CLI: it seeds the holiday table and runs
// dry-run assignments against live data without touching ServiceNow.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/ticketwise-io/ticketwise/internal/assignment"
	"github.com/ticketwise-io/ticketwise/internal/config"
	"github.com/ticketwise-io/ticketwise/internal/directory"
	"github.com/ticketwise-io/ticketwise/internal/holiday"
	"github.com/ticketwise-io/ticketwise/internal/models"
	"github.com/ticketwise-io/ticketwise/internal/similarity"
	"github.com/ticketwise-io/ticketwise/internal/skills"
	"github.com/ticketwise-io/ticketwise/internal/workload"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "snowctl",
	Short:   "Ticketwise operations CLI",
	Long:    "snowctl manages the ticket assignment service: seed holiday calendars and run dry-run assignments.",
	Version: version,
}

var seedHolidaysCmd = &cobra.Command{
	Use:   "seed-holidays",
	Short: "Load a holiday seed file into the holidays table",
	RunE:  runSeedHolidays,
}

var (
	seedFileFlag string
	seedYearFlag int
)

func init() {
	seedHolidaysCmd.Flags().StringVar(&seedFileFlag, "file", "holidays.yaml", "Holiday seed file (YAML)")
	seedHolidaysCmd.Flags().IntVar(&seedYearFlag, "year", time.Now().UTC().Year(), "Year to expand recurring holidays into")

	rootCmd.AddCommand(seedHolidaysCmd)
	rootCmd.AddCommand(assignCmd)
}

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Run a dry-run assignment for a hypothetical ticket",
	Long: `Assign evaluates the full engine against live team data and prints the
decision as JSON. Nothing is persisted and nobody is notified.`,
	RunE: runAssign,
}

var (
	ticketIDFlag    string
	titleFlag       string
	descriptionFlag string
	categoryFlag    string
	priorityFlag    string
)

func init() {
	assignCmd.Flags().StringVar(&ticketIDFlag, "ticket-id", "DRYRUN-0001", "Ticket id to report in the decision")
	assignCmd.Flags().StringVar(&titleFlag, "title", "", "Ticket title (required)")
	assignCmd.Flags().StringVar(&descriptionFlag, "description", "", "Ticket description (required)")
	assignCmd.Flags().StringVar(&categoryFlag, "category", "", "Ticket category")
	assignCmd.Flags().StringVar(&priorityFlag, "priority", "3 - Medium", "Ticket priority")
	assignCmd.MarkFlagRequired("title")
	assignCmd.MarkFlagRequired("description")
}

func loadConfigAndDB() (*config.Config, *sqlx.DB, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs"
	}
	config.MustLoad(configPath)
	cfg := config.Get()

	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, db, nil
}

func runSeedHolidays(cmd *cobra.Command, args []string) error {
	seed, err := holiday.LoadSeed(seedFileFlag)
	if err != nil {
		return err
	}

	_, db, err := loadConfigAndDB()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := holiday.SeedDB(cmd.Context(), db, seed, seedYearFlag)
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d holidays for %d\n", n, seedYearFlag)
	return nil
}

// dataOracle mirrors the worker's wiring: directory for the roster,
// workload for the runtime snapshot.
type dataOracle struct {
	members *directory.Service
	runtime *workload.Service
}

func (o dataOracle) ListMembers(ctx context.Context) ([]models.TeamMember, error) {
	return o.members.ListMembers(ctx)
}

func (o dataOracle) LoadRuntime(ctx context.Context, memberIDs []string, today time.Time) (map[string]*models.MemberRuntime, error) {
	return o.runtime.LoadRuntime(ctx, memberIDs, today)
}

func runAssign(cmd *cobra.Command, args []string) error {
	cfg, db, err := loadConfigAndDB()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := log.New(os.Stderr, "[snowctl] ", log.LstdFlags)
	ctx := cmd.Context()

	ticket := models.Ticket{
		TicketID:    ticketIDFlag,
		Title:       titleFlag,
		Description: descriptionFlag,
		Category:    categoryFlag,
		Priority:    models.ParsePriority(priorityFlag),
	}

	holidays := holiday.NewService(db, nil, nil, logger)
	oracle := dataOracle{
		members: directory.NewService(db, logger),
		runtime: workload.NewService(db, holidays, logger),
	}

	var extractor assignment.SkillExtractor = skills.KeywordExtractor{}
	var similar []models.SimilarTicket

	if cfg.Gemini.APIKey != "" {
		gclient, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.Gemini.APIKey})
		if err != nil {
			return fmt.Errorf("failed to create gemini client: %w", err)
		}
		extractor = skills.NewGeminiExtractor(gclient, cfg.Gemini.Model, logger)

		embedder := similarity.NewGeminiEmbedder(gclient, cfg.Gemini.EmbeddingModel)
		index := similarity.NewPGVectorProvider(db, embedder,
			cfg.Engine.SimilarityTopK, cfg.Engine.SimilarityFloor, logger)
		similar, err = index.FindSimilar(ctx, ticket)
		if err != nil {
			return fmt.Errorf("similarity search failed: %w", err)
		}
	} else {
		logger.Println("GEMINI_API_KEY not set: using keyword skills and no similarity search")
	}

	engine := assignment.NewEngine(oracle, extractor, nil, logger)
	decision, err := engine.Assign(ctx, ticket, similar)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
