// Package exporter renders inventory data to downloadable formats.
package exporter

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/Bruizy/lego-flip-tracker/internal/core/analytics"
	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
)

// WriteWorkbook renders a full profit-and-loss workbook: a summary sheet
// from the report plus raw inventory, sales and expenses sheets from the
// snapshot.
func WriteWorkbook(w io.Writer, snap *analytics.Snapshot, report *analytics.Report) error {
	f := xlsx.NewFile()

	if err := addSummarySheet(f, report); err != nil {
		return err
	}
	if err := addInventorySheet(f, snap.Items); err != nil {
		return err
	}
	if err := addSalesSheet(f, snap); err != nil {
		return err
	}
	if err := addExpensesSheet(f, snap.Expenses); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func addSummarySheet(f *xlsx.File, report *analytics.Report) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}

	s := report.Summary
	addKV := func(label string, value interface{}) {
		row := sheet.AddRow()
		row.AddCell().Value = label
		setCell(row.AddCell(), value)
	}

	addKV("Date Range", string(report.Scope.DateRange))
	if report.Scope.Batch != "" {
		addKV("Batch", report.Scope.Batch)
	}
	addKV("Total Revenue", s.TotalRevenue)
	addKV("Direct Cost", s.TotalDirectCost)
	addKV("Allocated Overhead", s.TotalAllocatedCost)
	addKV("Net Profit", s.NetProfit)
	addKV("Margin %", s.MarginPct)
	addKV("Sold", s.SoldCount)
	addKV("Unsold", s.UnsoldCount)
	addKV("Traded", s.TradedCount)
	addKV("Sell-Through %", s.SellThroughPct)
	addKV("Avg Days To Sell", s.AvgDaysToSell)
	addKV("Invested In Unsold", s.InvestedUnsold)

	sheet.AddRow()
	header := sheet.AddRow()
	header.AddCell().Value = "Month"
	header.AddCell().Value = "Revenue"
	header.AddCell().Value = "Net Profit"
	header.AddCell().Value = "Sales"
	for _, point := range report.Monthly {
		row := sheet.AddRow()
		row.AddCell().Value = point.Month
		setCell(row.AddCell(), point.Revenue)
		setCell(row.AddCell(), point.NetProfit)
		row.AddCell().SetInt(point.SaleCount)
	}

	return nil
}

func addInventorySheet(f *xlsx.File, items []domain.InventoryItem) error {
	sheet, err := f.AddSheet("Inventory")
	if err != nil {
		return fmt.Errorf("failed to add inventory sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range []string{
		"ID", "Name", "Set Number", "Purchase Date", "Purchase Cost",
		"Material Cost", "Condition", "Batch", "Bought From",
		"Payment Method", "Has Box", "Has Manual", "Status", "Notes",
	} {
		header.AddCell().Value = h
	}

	for _, item := range items {
		row := sheet.AddRow()
		row.AddCell().Value = item.ID.String()
		row.AddCell().Value = item.Name
		row.AddCell().Value = item.SetNumber
		row.AddCell().Value = item.PurchaseDate.String()
		setCell(row.AddCell(), item.PurchaseCost)
		setCell(row.AddCell(), item.MaterialCost)
		row.AddCell().Value = string(item.Condition)
		row.AddCell().Value = item.BatchLabel()
		row.AddCell().Value = item.BoughtFrom
		row.AddCell().Value = item.PaymentMethod
		row.AddCell().SetBool(item.HasBox)
		row.AddCell().SetBool(item.HasManual)
		row.AddCell().Value = string(item.Status)
		row.AddCell().Value = item.Notes
	}

	return nil
}

func addSalesSheet(f *xlsx.File, snap *analytics.Snapshot) error {
	sheet, err := f.AddSheet("Sales")
	if err != nil {
		return fmt.Errorf("failed to add sales sheet: %w", err)
	}

	names := make(map[string]string, len(snap.Items))
	for _, item := range snap.Items {
		names[item.ID.String()] = item.Name
	}

	header := sheet.AddRow()
	for _, h := range []string{
		"ID", "Item", "Sale Date", "Sale Price", "Shipping Charged",
		"Shipping Paid", "Fees", "Revenue", "Marketplace", "Buyer", "Notes",
	} {
		header.AddCell().Value = h
	}

	for _, sale := range snap.Sales {
		row := sheet.AddRow()
		row.AddCell().Value = sale.ID.String()
		row.AddCell().Value = names[sale.ItemID.String()]
		row.AddCell().Value = sale.SaleDate.String()
		setCell(row.AddCell(), sale.SalePrice)
		setCell(row.AddCell(), sale.ShippingCharged)
		setCell(row.AddCell(), sale.ShippingPaid)
		setCell(row.AddCell(), sale.Fees)
		setCell(row.AddCell(), sale.Revenue())
		row.AddCell().Value = sale.MarketplaceLabel()
		row.AddCell().Value = sale.BuyerLabel()
		row.AddCell().Value = sale.Notes
	}

	return nil
}

func addExpensesSheet(f *xlsx.File, expenses []domain.ExpenseRecord) error {
	sheet, err := f.AddSheet("Expenses")
	if err != nil {
		return fmt.Errorf("failed to add expenses sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range []string{"ID", "Date", "Category", "Bucket", "Amount", "Note"} {
		header.AddCell().Value = h
	}

	for _, expense := range expenses {
		row := sheet.AddRow()
		row.AddCell().Value = expense.ID.String()
		row.AddCell().Value = expense.Date.String()
		row.AddCell().Value = expense.Category
		row.AddCell().Value = string(expense.Bucket())
		setCell(row.AddCell(), expense.Amount)
		row.AddCell().Value = expense.Note
	}

	return nil
}

func setCell(cell *xlsx.Cell, value interface{}) {
	switch v := value.(type) {
	case decimal.Decimal:
		f, _ := v.Float64()
		cell.SetFloatWithFormat(f, "0.00")
	case float64:
		cell.SetFloatWithFormat(v, "0.00")
	case int:
		cell.SetInt(v)
	case string:
		cell.Value = v
	default:
		cell.SetValue(v)
	}
}
