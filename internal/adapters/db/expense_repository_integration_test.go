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

type ExpenseRepositorySuite struct {
	suite.Suite
	testDB *helpers.TestDB
	repo   ports.ExpenseRepository
	ctx    context.Context
}

func (s *ExpenseRepositorySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.repo = db.NewExpenseRepository(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *ExpenseRepositorySuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

func (s *ExpenseRepositorySuite) TestSave() {
	expense := helpers.CreateTestExpense()

	err := s.repo.Save(s.ctx, expense)
	s.NoError(err)

	saved, err := s.repo.FindByID(s.ctx, expense.ID)
	s.NoError(err)
	s.NotNil(saved)
	s.True(expense.Amount.Equal(saved.Amount))
	s.Equal("Shipping supplies", saved.Category)
	s.Equal(expense.Date.String(), saved.Date.String())
}

func (s *ExpenseRepositorySuite) TestSave_WithoutDate() {
	expense := helpers.CreateTestExpense(func(e *domain.ExpenseRecord) {
		e.Date = domain.Date{}
	})

	s.NoError(s.repo.Save(s.ctx, expense))

	saved, err := s.repo.FindByID(s.ctx, expense.ID)
	s.NoError(err)
	s.True(saved.Date.IsZero())
}

func (s *ExpenseRepositorySuite) TestSaveBatch() {
	expenses := []domain.ExpenseRecord{
		*helpers.CreateTestExpense(func(e *domain.ExpenseRecord) { e.Category = "Bubble mailers" }),
		*helpers.CreateTestExpense(func(e *domain.ExpenseRecord) { e.Category = "Postage" }),
		*helpers.CreateTestExpense(func(e *domain.ExpenseRecord) { e.Category = "Storage bins" }),
	}

	s.NoError(s.repo.SaveBatch(s.ctx, expenses))

	all, err := s.repo.FindAll(s.ctx)
	s.NoError(err)
	s.Len(all, 3)
}

func (s *ExpenseRepositorySuite) TestUpdate() {
	expense := helpers.CreateTestExpense()
	s.NoError(s.repo.Save(s.ctx, expense))

	expense.Amount = decimal.NewFromFloat(22.10)
	expense.Note = "restocked tape"
	s.NoError(s.repo.Update(s.ctx, expense))

	updated, err := s.repo.FindByID(s.ctx, expense.ID)
	s.NoError(err)
	s.True(decimal.NewFromFloat(22.10).Equal(updated.Amount))
	s.Equal("restocked tape", updated.Note)
}

func (s *ExpenseRepositorySuite) TestFindByID_NonExistent() {
	found, err := s.repo.FindByID(s.ctx, uuid.New())
	s.NoError(err)
	s.Nil(found)
}

func (s *ExpenseRepositorySuite) TestDelete() {
	expense := helpers.CreateTestExpense()
	s.NoError(s.repo.Save(s.ctx, expense))

	s.NoError(s.repo.Delete(s.ctx, expense.ID))

	found, err := s.repo.FindByID(s.ctx, expense.ID)
	s.NoError(err)
	s.Nil(found)
}

func TestExpenseRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ExpenseRepositorySuite))
}
