package tests

import (
	"strings"
	"testing"

	"nutrijus/internal/domain"
	"nutrijus/internal/service"

	"github.com/stretchr/testify/assert"
)

func deliveredOrder(id, date string, total int, delivery string, items ...domain.OrderItem) domain.Order {
	return domain.Order{
		ID:           id,
		Items:        items,
		Total:        total,
		Date:         date,
		Status:       domain.StatusDelivered,
		Delivery:     delivery,
		CustomerInfo: domain.CustomerInfo{Name: "Customer " + id, Phone: "699000000"},
	}
}

func TestComputeReport_Empty(t *testing.T) {
	report := service.ComputeReport(nil, catalog, "", "")
	assert.Zero(t, report.Revenue)
	assert.Zero(t, report.Margin)
	assert.Zero(t, report.Profit)
	assert.Zero(t, report.OrderCount)
	assert.Empty(t, report.Rows)
}

func TestComputeReport_OnlyDeliveredCount(t *testing.T) {
	orders := []domain.Order{
		deliveredOrder("1", "2026-01-10", 2500, "Akwa", domain.OrderItem{ProductID: "p1", Quantity: 1}),
		{ID: "2", Total: 9999, Date: "2026-01-10", Status: domain.StatusPending},
		{ID: "3", Total: 9999, Date: "2026-01-10", Status: domain.StatusCancelled},
	}

	report := service.ComputeReport(orders, catalog, "", "")
	assert.Equal(t, 1, report.OrderCount)
	assert.Equal(t, 2500, report.Revenue)
}

func TestComputeReport_DateBoundsInclusive(t *testing.T) {
	orders := []domain.Order{
		deliveredOrder("1", "2026-01-09", 1000, "Akwa"),
		deliveredOrder("2", "2026-01-10", 1000, "Akwa"),
		deliveredOrder("3", "2026-01-15", 1000, "Akwa"),
		deliveredOrder("4", "2026-01-16", 1000, "Akwa"),
	}

	report := service.ComputeReport(orders, catalog, "2026-01-10", "2026-01-15")
	assert.Equal(t, 2, report.OrderCount)

	openStart := service.ComputeReport(orders, catalog, "", "2026-01-10")
	assert.Equal(t, 2, openStart.OrderCount)
}

func TestComputeReport_Totals(t *testing.T) {
	orders := []domain.Order{
		// 2 x p1 (price 1500, cost 600) delivered to a paid zone.
		deliveredOrder("1", "2026-02-01", 4000, "Bonapriso", domain.OrderItem{ProductID: "p1", Quantity: 2}),
		// 1 x p2 picked up, no delivery fee.
		deliveredOrder("2", "2026-02-02", 1000, domain.DeliveryPickup, domain.OrderItem{ProductID: "p2", Quantity: 1}),
	}

	report := service.ComputeReport(orders, catalog, "", "")
	assert.Equal(t, 5000, report.Revenue)
	assert.Equal(t, 1000, report.DeliveryFeeTotal)
	assert.Equal(t, 2*600+400, report.ProductionCostTotal)
	assert.Equal(t, 2*(1500-600)+(1000-400), report.Margin)
	assert.Equal(t, 5000-1000-1600, report.Profit)
	assert.Contains(t, report.Rows[0].Products, "Ginger Blast x2")
}

func TestComputeReport_UnknownProductContributesNoCost(t *testing.T) {
	orders := []domain.Order{
		deliveredOrder("1", "2026-02-01", 2000, "Akwa", domain.OrderItem{ProductID: "ghost", Quantity: 3}),
	}

	report := service.ComputeReport(orders, catalog, "", "")
	assert.Equal(t, 2000, report.Revenue)
	assert.Zero(t, report.Margin)
	assert.Zero(t, report.ProductionCostTotal)
	assert.Contains(t, report.Rows[0].Products, "ghost x3")
}

func TestComputeReport_MissingQuantityCountsAsOne(t *testing.T) {
	orders := []domain.Order{
		deliveredOrder("1", "2026-02-01", 1500, "Akwa", domain.OrderItem{ProductID: "p1"}),
	}

	report := service.ComputeReport(orders, catalog, "", "")
	assert.Equal(t, 600, report.ProductionCostTotal)
	assert.Contains(t, report.Rows[0].Products, "x1")
}

func TestExportCSV(t *testing.T) {
	report := domain.Report{Rows: []domain.ReportRow{
		{
			Customer: `Ngo "Nini" Bassa`, Phone: "699000000",
			Products: "Ginger Blast x2 | Mango Fresh x1",
			Total:    4000, Date: "2026-02-01", Delivery: "Akwa",
			Status: "delivered", ProductionCost: 1600,
		},
	}}

	data, err := service.ExportCSV(report)
	assert.NoError(t, err)

	out := string(data)
	assert.True(t, strings.HasPrefix(out, "Customer,Phone,Products,Total,Date,Delivery,Status,ProductionCost\r\n"))
	assert.Contains(t, out, `"Ngo ""Nini"" Bassa"`)
	assert.Contains(t, out, "4000")
	assert.True(t, strings.HasSuffix(out, "\r\n"))
}

func TestExportCSV_EmptyReport(t *testing.T) {
	_, err := service.ExportCSV(domain.Report{})
	assert.ErrorIs(t, err, service.ErrNothingToExport)
}
