// cmd/seeder/main.go
//
// Seeds the database from CSV files exported from the old spreadsheet, or
// with generated sample data for local development:
//
//	seeder -items items.csv -sales sales.csv -expenses expenses.csv
//	seeder -sample
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bruizy/lego-flip-tracker/internal/adapters/db"
	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
	"github.com/Bruizy/lego-flip-tracker/internal/pkg/config"
	"github.com/Bruizy/lego-flip-tracker/internal/pkg/logger"
	"github.com/Bruizy/lego-flip-tracker/internal/workers"
)

func main() {
	itemsPath := flag.String("items", "", "CSV file of inventory items")
	salesPath := flag.String("sales", "", "CSV file of sales (requires item_id column)")
	expensesPath := flag.String("expenses", "", "CSV file of expenses")
	sample := flag.Bool("sample", false, "seed generated sample data instead of CSV files")
	migrate := flag.Bool("migrate", true, "run migrations before seeding")
	flag.Parse()

	slogger := logger.SetupLogger("info", "text")

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx := context.Background()

	if *migrate {
		migrationConfig := &db.MigrationConfig{
			DatabaseURL: cfg.GetDatabaseURL(),
			SourcePath:  cfg.Database.MigrationPath,
			TableName:   "schema_migrations",
			SchemaName:  "public",
		}
		if err := db.RunMigrationsWithRetry(ctx, migrationConfig, slogger.Logger, 3); err != nil {
			slogger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Database:       cfg.Database.Name,
		SSLMode:        cfg.Database.SSLMode,
		MaxConnections: 5,
		MinConnections: 1,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	}, slogger.Logger)
	if err != nil {
		slogger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Close()

	seeder := &seeder{
		items:    db.NewInventoryRepository(database, slogger.Logger),
		sales:    db.NewSaleRepository(database, slogger.Logger),
		expenses: db.NewExpenseRepository(database, slogger.Logger),
		logger:   slogger.Logger,
	}

	if *sample {
		if err := seeder.seedSample(ctx); err != nil {
			slogger.Error("sample seeding failed", slog.Any("error", err))
			os.Exit(1)
		}
		slogger.Info("sample data seeded")
		return
	}

	if *itemsPath == "" && *salesPath == "" && *expensesPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if *itemsPath != "" {
		if err := seeder.seedItems(ctx, *itemsPath); err != nil {
			slogger.Error("item seeding failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
	if *salesPath != "" {
		if err := seeder.seedSales(ctx, *salesPath); err != nil {
			slogger.Error("sale seeding failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
	if *expensesPath != "" {
		if err := seeder.seedExpenses(ctx, *expensesPath); err != nil {
			slogger.Error("expense seeding failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	slogger.Info("seeding complete")
}

type seeder struct {
	items    ports.InventoryRepository
	sales    ports.SaleRepository
	expenses ports.ExpenseRepository
	logger   *slog.Logger
}

func (s *seeder) seedItems(ctx context.Context, path string) error {
	records, err := readCSV(path)
	if err != nil {
		return err
	}

	items := make([]domain.InventoryItem, 0, len(records))
	for _, record := range records {
		item := domain.ItemFromRecord(record)
		if item.Name == "" {
			continue
		}
		if err := item.Validate(); err != nil {
			return fmt.Errorf("invalid item %q: %w", record["name"], err)
		}
		item.PrepareForStorage()
		items = append(items, item)
	}

	if err := s.items.SaveBatch(ctx, items); err != nil {
		return fmt.Errorf("failed to save items: %w", err)
	}
	s.logger.Info("items seeded", slog.Int("count", len(items)), slog.String("file", path))
	return nil
}

func (s *seeder) seedSales(ctx context.Context, path string) error {
	records, err := readCSV(path)
	if err != nil {
		return err
	}

	count := 0
	for _, record := range records {
		itemID, err := uuid.Parse(strings.TrimSpace(record["item_id"]))
		if err != nil {
			s.logger.Warn("skipping sale without valid item_id", slog.String("item_id", record["item_id"]))
			continue
		}
		item, err := s.items.FindByID(ctx, itemID)
		if err != nil || item == nil {
			s.logger.Warn("skipping sale for unknown item", slog.String("item_id", record["item_id"]))
			continue
		}

		sale := domain.SaleFromRecord(record)
		sale.ItemID = item.ID
		if err := sale.Validate(); err != nil {
			return fmt.Errorf("invalid sale for item %s: %w", item.ID, err)
		}
		sale.PrepareForStorage()
		if err := s.sales.Save(ctx, &sale); err != nil {
			return fmt.Errorf("failed to save sale: %w", err)
		}

		item.Status = domain.StatusSold
		if err := s.items.Update(ctx, item); err != nil {
			return fmt.Errorf("failed to mark item sold: %w", err)
		}
		count++
	}

	s.logger.Info("sales seeded", slog.Int("count", count), slog.String("file", path))
	return nil
}

func (s *seeder) seedExpenses(ctx context.Context, path string) error {
	records, err := readCSV(path)
	if err != nil {
		return err
	}

	expenses := make([]domain.ExpenseRecord, 0, len(records))
	for _, record := range records {
		expense := domain.ExpenseFromRecord(record)
		if expense.Amount.IsZero() {
			continue
		}
		expense.PrepareForStorage()
		expenses = append(expenses, expense)
	}

	if err := s.expenses.SaveBatch(ctx, expenses); err != nil {
		return fmt.Errorf("failed to save expenses: %w", err)
	}
	s.logger.Info("expenses seeded", slog.Int("count", len(expenses)), slog.String("file", path))
	return nil
}

var sampleSets = []struct {
	name      string
	setNumber string
	cost      int64
}{
	{"Medieval Blacksmith", "21325", 105},
	{"Hogwarts Castle", "71043", 250},
	{"Lion Knights' Castle", "10305", 320},
	{"Rivendell", "10316", 380},
	{"Bag of mixed bricks", "", 15},
	{"Police Station", "10278", 140},
	{"Assorted minifigures", "", 40},
	{"Eldorado Fortress", "10320", 160},
}

// seedSample writes a small realistic dataset: some items sold across two
// months, one traded, a few still in stock, plus shipping and material
// expenses for the allocation view.
func (s *seeder) seedSample(ctx context.Context) error {
	rng := rand.New(rand.NewSource(42))
	today := domain.Today()

	items := make([]domain.InventoryItem, 0, len(sampleSets))
	for i, set := range sampleSets {
		item := domain.InventoryItem{
			Name:         set.name,
			SetNumber:    set.setNumber,
			PurchaseDate: today.AddDays(-120 + i*10),
			PurchaseCost: decimal.NewFromInt(set.cost),
			MaterialCost: decimal.NewFromInt(int64(rng.Intn(8))),
			Condition:    domain.ConditionOrder[i%len(domain.ConditionOrder)],
			Batch:        sampleBatch(i),
			BoughtFrom:   "Facebook Marketplace",
			HasBox:       i%2 == 0,
			HasManual:    i%3 != 0,
		}
		if err := item.Validate(); err != nil {
			return err
		}
		item.PrepareForStorage()
		items = append(items, item)
	}
	if err := s.items.SaveBatch(ctx, items); err != nil {
		return fmt.Errorf("failed to save sample items: %w", err)
	}

	// Sell the first half of the items.
	for i := 0; i < len(items)/2; i++ {
		item := items[i]
		margin := decimal.NewFromInt(int64(20 + rng.Intn(80)))
		sale := domain.SaleRecord{
			ItemID:          item.ID,
			SaleDate:        today.AddDays(-60 + i*15),
			SalePrice:       item.PurchaseCost.Add(margin),
			ShippingCharged: decimal.NewFromInt(12),
			ShippingPaid:    decimal.NewFromFloat(9.80),
			Fees:            item.PurchaseCost.Mul(decimal.NewFromFloat(0.13)),
			Marketplace:     []string{"eBay", "BrickLink", "Facebook Marketplace"}[i%3],
		}
		if err := sale.Validate(); err != nil {
			return err
		}
		sale.PrepareForStorage()
		if err := s.sales.Save(ctx, &sale); err != nil {
			return fmt.Errorf("failed to save sample sale: %w", err)
		}
		item.Status = domain.StatusSold
		if err := s.items.Update(ctx, &item); err != nil {
			return err
		}
	}

	// Trade one of the remaining items away.
	traded := items[len(items)-1]
	traded.Status = domain.StatusTraded
	if err := s.items.Update(ctx, &traded); err != nil {
		return err
	}

	expenses := []domain.ExpenseRecord{
		{Amount: decimal.NewFromFloat(34.99), Category: "Bubble mailers", Date: today.AddDays(-70)},
		{Amount: decimal.NewFromFloat(18.50), Category: "Packing tape", Date: today.AddDays(-45)},
		{Amount: decimal.NewFromFloat(62.00), Category: "Shipping labels", Date: today.AddDays(-30)},
		{Amount: decimal.NewFromFloat(12.75), Category: "Brick cleaning supplies", Date: today.AddDays(-20)},
	}
	for i := range expenses {
		expenses[i].PrepareForStorage()
	}
	if err := s.expenses.SaveBatch(ctx, expenses); err != nil {
		return fmt.Errorf("failed to save sample expenses: %w", err)
	}

	return nil
}

func sampleBatch(i int) string {
	switch {
	case i < 3:
		return "Estate Sale"
	case i < 5:
		return "Garage Sale Lot"
	default:
		return ""
	}
}

func readCSV(path string) ([]domain.RawRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	records, err := workers.ReadRecords(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}
