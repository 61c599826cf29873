//go:build integration
// +build integration

package db_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/Bruizy/lego-flip-tracker/internal/adapters/db"
	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
	"github.com/Bruizy/lego-flip-tracker/test/helpers"
)

type InventoryRepositorySuite struct {
	suite.Suite
	testDB *helpers.TestDB
	repo   ports.InventoryRepository
	ctx    context.Context
}

func (s *InventoryRepositorySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.repo = db.NewInventoryRepository(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *InventoryRepositorySuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

func (s *InventoryRepositorySuite) TestSave() {
	item := helpers.CreateTestItem()

	err := s.repo.Save(s.ctx, item)
	s.NoError(err)

	saved, err := s.repo.FindByID(s.ctx, item.ID)
	s.NoError(err)
	s.NotNil(saved)
	s.Equal(item.Name, saved.Name)
	s.Equal(item.SetNumber, saved.SetNumber)
	s.Equal(item.Condition, saved.Condition)
	s.Equal(item.Status, saved.Status)
	s.True(item.PurchaseCost.Equal(saved.PurchaseCost))
	s.True(item.MaterialCost.Equal(saved.MaterialCost))
	s.Equal(item.PurchaseDate.String(), saved.PurchaseDate.String())
}

func (s *InventoryRepositorySuite) TestSave_WithoutPurchaseDate() {
	item := helpers.CreateTestItem(func(i *domain.InventoryItem) {
		i.PurchaseDate = domain.Date{}
	})

	err := s.repo.Save(s.ctx, item)
	s.NoError(err)

	saved, err := s.repo.FindByID(s.ctx, item.ID)
	s.NoError(err)
	s.NotNil(saved)
	s.True(saved.PurchaseDate.IsZero())
}

func (s *InventoryRepositorySuite) TestSaveBatch() {
	items := helpers.CreateTestItems(5)

	err := s.repo.SaveBatch(s.ctx, items)
	s.NoError(err)

	count, err := s.repo.Count(s.ctx)
	s.NoError(err)
	s.Equal(int64(5), count)

	for _, item := range items {
		saved, err := s.repo.FindByID(s.ctx, item.ID)
		s.NoError(err)
		s.NotNil(saved)
		s.Equal(item.Name, saved.Name)
	}
}

func (s *InventoryRepositorySuite) TestUpdate() {
	item := helpers.CreateTestItem()
	s.NoError(s.repo.Save(s.ctx, item))

	item.Name = "Hogwarts Castle"
	item.SetNumber = "71043"
	item.Status = domain.StatusSold
	item.PurchaseCost = decimal.NewFromFloat(250)
	item.Notes = "complete with minifigs"

	err := s.repo.Update(s.ctx, item)
	s.NoError(err)

	updated, err := s.repo.FindByID(s.ctx, item.ID)
	s.NoError(err)
	s.Equal("Hogwarts Castle", updated.Name)
	s.Equal("71043", updated.SetNumber)
	s.Equal(domain.StatusSold, updated.Status)
	s.True(decimal.NewFromFloat(250).Equal(updated.PurchaseCost))
	s.Equal("complete with minifigs", updated.Notes)
}

func (s *InventoryRepositorySuite) TestUpdate_MissingItem() {
	item := helpers.CreateTestItem()

	err := s.repo.Update(s.ctx, item)
	s.Error(err)
}

func (s *InventoryRepositorySuite) TestFindByID_NonExistent() {
	found, err := s.repo.FindByID(s.ctx, uuid.New())
	s.NoError(err)
	s.Nil(found)
}

func (s *InventoryRepositorySuite) TestFindAll_NewestFirst() {
	for i := 0; i < 3; i++ {
		item := helpers.CreateTestItem(func(it *domain.InventoryItem) {
			it.Name = fmt.Sprintf("Set %d", i)
			it.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		})
		s.NoError(s.repo.Save(s.ctx, item))
	}

	items, err := s.repo.FindAll(s.ctx)
	s.NoError(err)
	s.Len(items, 3)
	s.Equal("Set 2", items[0].Name)
	s.Equal("Set 0", items[2].Name)
}

func (s *InventoryRepositorySuite) TestDelete() {
	item := helpers.CreateTestItem()
	s.NoError(s.repo.Save(s.ctx, item))

	exists, err := s.repo.Exists(s.ctx, item.ID)
	s.NoError(err)
	s.True(exists)

	err = s.repo.Delete(s.ctx, item.ID)
	s.NoError(err)

	exists, err = s.repo.Exists(s.ctx, item.ID)
	s.NoError(err)
	s.False(exists)
}

func (s *InventoryRepositorySuite) TestBatches() {
	batches := []string{"Spring Haul", "Spring Haul", "Garage Sale", ""}
	for i, b := range batches {
		item := helpers.CreateTestItem(func(it *domain.InventoryItem) {
			it.Name = fmt.Sprintf("Set %d", i)
			it.Batch = b
		})
		s.NoError(s.repo.Save(s.ctx, item))
	}

	found, err := s.repo.Batches(s.ctx)
	s.NoError(err)
	s.ElementsMatch([]string{"Spring Haul", "Garage Sale"}, found)
}

func TestInventoryRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(InventoryRepositorySuite))
}
