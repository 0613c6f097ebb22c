/*
report.go - Sales summaries derived from the ledger

PURPOSE:
  Read-only reporting over completed transactions: overall and same-day
  revenue, cost-price based profit, a daily series, and best sellers.

PROFIT:
  Profit is computed from the cost price (HPP) snapshotted into each
  sold line. Lines whose product carried no cost price contribute zero
  profit, not zero revenue.

All functions are pure reads; nothing here mutates engine state.
*/
package pos

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SalesSummary aggregates the whole ledger plus today's slice of it.
type SalesSummary struct {
	TransactionCount int             `json:"transactionCount"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	TotalProfit      decimal.Decimal `json:"totalProfit"`
	AverageSale      decimal.Decimal `json:"averageSale"`
	TodayCount       int             `json:"todayCount"`
	TodayRevenue     decimal.Decimal `json:"todayRevenue"`
	TodayProfit      decimal.Decimal `json:"todayProfit"`
}

// DailySales is one day's bucket in the daily series.
type DailySales struct {
	Date    string          `json:"date"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
}

// ProductSales ranks a product by units sold.
type ProductSales struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// lineProfit is (price - cost) * quantity when the snapshotted product
// carries a positive cost price, zero otherwise.
func lineProfit(l CartLine) decimal.Decimal {
	if l.Product.CostPrice == nil || !l.Product.CostPrice.IsPositive() {
		return decimal.Zero
	}
	margin := l.Product.Price.Sub(*l.Product.CostPrice)
	return margin.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func transactionProfit(tx Transaction) decimal.Decimal {
	profit := decimal.Zero
	for _, l := range tx.Lines {
		profit = profit.Add(lineProfit(l))
	}
	return profit
}

// SalesSummary aggregates the full ledger. "Today" is the engine
// clock's local date.
func (e *Engine) SalesSummary() SalesSummary {
	txs := e.Transactions()
	today := e.Now().Format("2006-01-02")

	s := SalesSummary{
		TransactionCount: len(txs),
		TotalRevenue:     decimal.Zero,
		TotalProfit:      decimal.Zero,
		AverageSale:      decimal.Zero,
		TodayRevenue:     decimal.Zero,
		TodayProfit:      decimal.Zero,
	}
	for _, tx := range txs {
		profit := transactionProfit(tx)
		s.TotalRevenue = s.TotalRevenue.Add(tx.Total)
		s.TotalProfit = s.TotalProfit.Add(profit)
		if tx.Timestamp.Format("2006-01-02") == today {
			s.TodayCount++
			s.TodayRevenue = s.TodayRevenue.Add(tx.Total)
			s.TodayProfit = s.TodayProfit.Add(profit)
		}
	}
	if s.TransactionCount > 0 {
		s.AverageSale = s.TotalRevenue.Div(decimal.NewFromInt(int64(s.TransactionCount))).Round(2)
	}
	return s
}

// DailySales buckets the last `days` days (ending today) by date.
// Days without sales appear with zero values so charts get a dense
// series.
func (e *Engine) DailySales(days int) []DailySales {
	if days <= 0 {
		days = 7
	}
	txs := e.Transactions()
	now := e.Now()

	byDate := make(map[string]*DailySales, days)
	out := make([]DailySales, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		out = append(out, DailySales{Date: date, Revenue: decimal.Zero, Profit: decimal.Zero})
		byDate[date] = &out[len(out)-1]
	}

	for _, tx := range txs {
		bucket, ok := byDate[tx.Timestamp.Format("2006-01-02")]
		if !ok {
			continue
		}
		bucket.Count++
		bucket.Revenue = bucket.Revenue.Add(tx.Total)
		bucket.Profit = bucket.Profit.Add(transactionProfit(tx))
	}
	return out
}

// TopProducts ranks products by units sold across the whole ledger,
// limited to the given count. Ties break by revenue, then name for a
// stable order.
func (e *Engine) TopProducts(limit int) []ProductSales {
	if limit <= 0 {
		limit = 5
	}
	txs := e.Transactions()

	byName := make(map[string]*ProductSales)
	for _, tx := range txs {
		for _, l := range tx.Lines {
			ps, ok := byName[l.Product.Name]
			if !ok {
				ps = &ProductSales{Name: l.Product.Name, Revenue: decimal.Zero}
				byName[l.Product.Name] = ps
			}
			ps.Quantity += l.Quantity
			ps.Revenue = ps.Revenue.Add(l.Subtotal())
		}
	}

	out := make([]ProductSales, 0, len(byName))
	for _, ps := range byName {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
