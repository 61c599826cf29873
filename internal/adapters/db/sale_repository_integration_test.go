//go:build integration
// +build integration

package db_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/Bruizy/lego-flip-tracker/internal/adapters/db"
	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
	"github.com/Bruizy/lego-flip-tracker/test/helpers"
)

type SaleRepositorySuite struct {
	suite.Suite
	testDB *helpers.TestDB
	items  ports.InventoryRepository
	repo   ports.SaleRepository
	ctx    context.Context
}

func (s *SaleRepositorySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.items = db.NewInventoryRepository(s.testDB.Database, helpers.TestLogger())
	s.repo = db.NewSaleRepository(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *SaleRepositorySuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

func (s *SaleRepositorySuite) saveItem() *domain.InventoryItem {
	item := helpers.CreateTestItem()
	s.Require().NoError(s.items.Save(s.ctx, item))
	return item
}

func (s *SaleRepositorySuite) TestSave() {
	item := s.saveItem()
	sale := helpers.CreateTestSale(item.ID)

	err := s.repo.Save(s.ctx, sale)
	s.NoError(err)

	saved, err := s.repo.FindByID(s.ctx, sale.ID)
	s.NoError(err)
	s.NotNil(saved)
	s.Equal(item.ID, saved.ItemID)
	s.True(sale.SalePrice.Equal(saved.SalePrice))
	s.True(sale.Fees.Equal(saved.Fees))
	s.Equal("eBay", saved.Marketplace)
	s.Equal("brickfan42", saved.Buyer)
}

func (s *SaleRepositorySuite) TestSave_OneSalePerItem() {
	item := s.saveItem()
	s.NoError(s.repo.Save(s.ctx, helpers.CreateTestSale(item.ID)))

	// second sale for the same item violates the unique constraint
	err := s.repo.Save(s.ctx, helpers.CreateTestSale(item.ID))
	s.Error(err)
}

func (s *SaleRepositorySuite) TestSave_WithoutSaleDate() {
	item := s.saveItem()
	sale := helpers.CreateTestSale(item.ID, func(sa *domain.SaleRecord) {
		sa.SaleDate = domain.Date{}
	})

	s.NoError(s.repo.Save(s.ctx, sale))

	saved, err := s.repo.FindByID(s.ctx, sale.ID)
	s.NoError(err)
	s.True(saved.SaleDate.IsZero())
}

func (s *SaleRepositorySuite) TestUpdate() {
	item := s.saveItem()
	sale := helpers.CreateTestSale(item.ID)
	s.NoError(s.repo.Save(s.ctx, sale))

	sale.SalePrice = decimal.NewFromFloat(210)
	sale.Marketplace = "BrickLink"
	err := s.repo.Update(s.ctx, sale)
	s.NoError(err)

	updated, err := s.repo.FindByID(s.ctx, sale.ID)
	s.NoError(err)
	s.True(decimal.NewFromFloat(210).Equal(updated.SalePrice))
	s.Equal("BrickLink", updated.Marketplace)
}

func (s *SaleRepositorySuite) TestFindByItemID() {
	item := s.saveItem()
	sale := helpers.CreateTestSale(item.ID)
	s.NoError(s.repo.Save(s.ctx, sale))

	found, err := s.repo.FindByItemID(s.ctx, item.ID)
	s.NoError(err)
	s.NotNil(found)
	s.Equal(sale.ID, found.ID)

	missing, err := s.repo.FindByItemID(s.ctx, uuid.New())
	s.NoError(err)
	s.Nil(missing)
}

func (s *SaleRepositorySuite) TestFindAll() {
	for i := 0; i < 3; i++ {
		item := s.saveItem()
		s.NoError(s.repo.Save(s.ctx, helpers.CreateTestSale(item.ID)))
	}

	sales, err := s.repo.FindAll(s.ctx)
	s.NoError(err)
	s.Len(sales, 3)
}

func (s *SaleRepositorySuite) TestDelete() {
	item := s.saveItem()
	sale := helpers.CreateTestSale(item.ID)
	s.NoError(s.repo.Save(s.ctx, sale))

	s.NoError(s.repo.Delete(s.ctx, sale.ID))

	found, err := s.repo.FindByID(s.ctx, sale.ID)
	s.NoError(err)
	s.Nil(found)
}

func (s *SaleRepositorySuite) TestDeleteByItemID() {
	item := s.saveItem()
	s.NoError(s.repo.Save(s.ctx, helpers.CreateTestSale(item.ID)))

	s.NoError(s.repo.DeleteByItemID(s.ctx, item.ID))

	found, err := s.repo.FindByItemID(s.ctx, item.ID)
	s.NoError(err)
	s.Nil(found)

	// no sale for the item is not an error
	s.NoError(s.repo.DeleteByItemID(s.ctx, uuid.New()))
}

func (s *SaleRepositorySuite) TestDeletingItemCascades() {
	item := s.saveItem()
	sale := helpers.CreateTestSale(item.ID)
	s.NoError(s.repo.Save(s.ctx, sale))

	s.NoError(s.items.Delete(s.ctx, item.ID))

	found, err := s.repo.FindByID(s.ctx, sale.ID)
	s.NoError(err)
	s.Nil(found)
}

func TestSaleRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SaleRepositorySuite))
}
