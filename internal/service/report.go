package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"nutrijus/internal/domain"
)

var ErrNothingToExport = errors.New("no orders to export")

type ReportService struct {
	orders   OrderRepository
	products ProductRepository
}

func NewReportService(orders OrderRepository, products ProductRepository) *ReportService {
	return &ReportService{orders: orders, products: products}
}

// Build loads both collections and computes the report for [start, end].
func (s *ReportService) Build(start, end string) (domain.Report, error) {
	orders, err := s.orders.ListOrders()
	if err != nil {
		return domain.Report{}, err
	}
	products, err := s.products.ListProducts()
	if err != nil {
		return domain.Report{}, err
	}
	return ComputeReport(orders, products, start, end), nil
}

// ComputeReport aggregates delivered orders whose date falls within
// [start, end] inclusive. Line items that do not resolve to a known product
// contribute nothing to margin and production cost; their stored totals still
// count toward revenue. A missing quantity counts as 1.
func ComputeReport(orders []domain.Order, products []domain.Product, start, end string) domain.Report {
	report := domain.Report{Rows: []domain.ReportRow{}}
	for _, order := range orders {
		if order.Status != domain.StatusDelivered {
			continue
		}
		if start != "" && order.Date < start {
			continue
		}
		if end != "" && order.Date > end {
			continue
		}

		report.OrderCount++
		report.Revenue += order.Total
		if order.Delivery != domain.DeliveryPickup {
			report.DeliveryFeeTotal += domain.DeliveryFee
		}

		orderCost := 0
		names := make([]string, 0, len(order.Items))
		for _, item := range order.Items {
			qty := item.Quantity
			if qty < 1 {
				qty = 1
			}
			prod, ok := FindProduct(products, item.ProductID)
			if ok {
				report.Margin += (prod.Price - prod.ProductionCost) * qty
				orderCost += prod.ProductionCost * qty
				names = append(names, fmt.Sprintf("%s x%d", prod.Name, qty))
			} else {
				names = append(names, fmt.Sprintf("%s x%d", item.ProductID, qty))
			}
		}
		report.ProductionCostTotal += orderCost

		report.Rows = append(report.Rows, domain.ReportRow{
			Customer:       order.CustomerInfo.Name,
			Phone:          order.CustomerInfo.Phone,
			Products:       strings.Join(names, " | "),
			Total:          order.Total,
			Date:           order.Date,
			Delivery:       order.Delivery,
			Status:         string(order.Status),
			ProductionCost: orderCost,
		})
	}
	report.Profit = report.Revenue - report.DeliveryFeeTotal - report.ProductionCostTotal
	return report
}

// ExportCSV renders the report rows as quoted CSV with CRLF line endings.
// An empty report is an error so callers surface "nothing to export" instead
// of producing a header-only file.
func ExportCSV(report domain.Report) ([]byte, error) {
	if len(report.Rows) == 0 {
		return nil, ErrNothingToExport
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	records := [][]string{
		{"Customer", "Phone", "Products", "Total", "Date", "Delivery", "Status", "ProductionCost"},
	}
	for _, row := range report.Rows {
		records = append(records, []string{
			row.Customer,
			row.Phone,
			row.Products,
			fmt.Sprintf("%d", row.Total),
			row.Date,
			row.Delivery,
			row.Status,
			fmt.Sprintf("%d", row.ProductionCost),
		})
	}
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportFilename matches the original export naming: one file per day.
func ExportFilename() string {
	return "nutrijus-accounting-" + time.Now().Format("2006-01-02") + ".csv"
}
