package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/bellapacxx/bingo-engine/config"
	"github.com/bellapacxx/bingo-engine/game"
	"github.com/bellapacxx/bingo-engine/services"
	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func openDB() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return config.SetupDatabase(cfg.DatabaseURL)
}

// MigrateCmd creates or updates the tables.
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := openDB(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Database migration completed")
			return nil
		},
	}
}

// SeedCardsCmd fills the card pool with generated cards.
func SeedCardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-cards",
		Short: "Generate cards into the card pool",
		RunE:  seedCards,
	}
	cmd.Flags().IntP("count", "n", 400, "number of cards to generate")
	cmd.Flags().Int64("seed", 0, "random seed, 0 for a random one")
	return cmd
}

func seedCards(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	seed, _ := cmd.Flags().GetInt64("seed")
	if count < 1 {
		return fmt.Errorf("count must be positive")
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	if seed == 0 {
		if seed, err = game.NewSeed(); err != nil {
			return err
		}
	}
	store := services.NewCardStore(db)
	n, err := seedInto(cmd.Context(), store, game.NewGenerator(game.NewRand(seed), clock.New()), count)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d cards\n", n)
	return nil
}

func seedInto(ctx context.Context, store game.CardStore, gen *game.Generator, count int) (int, error) {
	for i := 0; i < count; i++ {
		if err := store.Save(ctx, gen.Generate()); err != nil {
			return i, err
		}
	}
	return count, nil
}

// ImportCardsCmd loads cards from a cards.json file.
func ImportCardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-cards <file>",
		Short: "Import cards from a JSON file in B/I/N/G/O column format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			n, err := services.LoadCards(cmd.Context(), args[0], services.NewCardStore(db), clock.New())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d cards\n", n)
			return nil
		},
	}
}

// PriceCmd prints the price table, from PRESETS_FILE when given.
func PriceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Print card prices for every allowed count",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("presets")
			presets, err := config.LoadPresets(file)
			if err != nil {
				return err
			}
			table := game.DefaultPriceTable()
			if presets.Prices != nil {
				table = *presets.Prices
			}
			return printPrices(cmd, table)
		},
	}
	cmd.Flags().String("presets", "", "TOML presets file")
	return cmd
}

func printPrices(cmd *cobra.Command, table game.PriceTable) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CARDS\tPRICE\tDISCOUNT")
	for n := 1; n <= table.MaxCards; n++ {
		price, err := table.Price(n)
		if err != nil {
			return err
		}
		discount, _ := table.Discount(n)
		fmt.Fprintf(w, "%d\t%d\t%d%%\n", n, price, discount)
	}
	return w.Flush()
}
