package billing

import (
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/albertcolmenero/invoicehub/models"
)

const dashboardListSize = 5

type MonthlyRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

type ClientRevenue struct {
	ClientID     string          `json:"client_id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	Outstanding  decimal.Decimal `json:"outstanding_amount"`
	InvoiceCount int             `json:"invoice_count"`
}

// Summary is the owner's dashboard.
type Summary struct {
	TotalRevenue        decimal.Decimal              `json:"total_revenue"`
	CurrentMonthRevenue decimal.Decimal              `json:"current_month_revenue"`
	Outstanding         decimal.Decimal              `json:"outstanding_payments"`
	InvoicesByStatus    map[models.InvoiceStatus]int `json:"invoices_by_status"`
	MonthlyRevenue      []MonthlyRevenue             `json:"monthly_revenue"`
	RecentInvoices      []models.Invoice             `json:"recent_invoices"`
	RecentlyPaid        []models.Invoice             `json:"recently_paid"`
	TopClients          []ClientRevenue              `json:"top_clients"`
}

// Summarize aggregates one owner's invoices. Revenue counts PAID invoices
// only and is bucketed by creation month of the current year.
func Summarize(invoices []models.Invoice, clients []models.Client, now time.Time) Summary {
	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	s := Summary{
		TotalRevenue:        decimal.Zero,
		CurrentMonthRevenue: decimal.Zero,
		Outstanding:         decimal.Zero,
		InvoicesByStatus: map[models.InvoiceStatus]int{
			models.StatusDraft: 0,
			models.StatusSent:  0,
			models.StatusPaid:  0,
		},
		MonthlyRevenue: make([]MonthlyRevenue, 12),
	}
	for m := range s.MonthlyRevenue {
		s.MonthlyRevenue[m] = MonthlyRevenue{
			Month:   time.Month(m + 1).String()[:3],
			Revenue: decimal.Zero,
		}
	}

	byClient := make(map[string]*ClientRevenue, len(clients))
	for _, c := range clients {
		byClient[c.ID] = &ClientRevenue{
			ClientID:     c.ID,
			Name:         c.Name,
			Email:        c.Email,
			TotalRevenue: decimal.Zero,
			Outstanding:  decimal.Zero,
		}
	}

	for _, inv := range invoices {
		s.InvoicesByStatus[inv.Status]++
		cr := byClient[inv.ClientID]
		if cr != nil {
			cr.InvoiceCount++
		}

		if inv.Status != models.StatusPaid {
			s.Outstanding = s.Outstanding.Add(inv.Total)
			if cr != nil {
				cr.Outstanding = cr.Outstanding.Add(inv.Total)
			}
			continue
		}
		s.TotalRevenue = s.TotalRevenue.Add(inv.Total)
		if cr != nil {
			cr.TotalRevenue = cr.TotalRevenue.Add(inv.Total)
		}
		created := inv.CreatedAt.UTC()
		if !created.Before(monthStart) {
			s.CurrentMonthRevenue = s.CurrentMonthRevenue.Add(inv.Total)
		}
		if created.Year() == now.Year() {
			b := &s.MonthlyRevenue[created.Month()-1]
			b.Revenue = b.Revenue.Add(inv.Total)
		}
	}

	recent := append([]models.Invoice(nil), invoices...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	s.RecentInvoices = lo.Subset(recent, 0, dashboardListSize)

	paid := lo.Filter(invoices, func(inv models.Invoice, _ int) bool { return inv.Status == models.StatusPaid })
	sort.SliceStable(paid, func(i, j int) bool { return paid[i].UpdatedAt.After(paid[j].UpdatedAt) })
	s.RecentlyPaid = lo.Subset(paid, 0, dashboardListSize)

	top := lo.Map(clients, func(c models.Client, _ int) ClientRevenue { return *byClient[c.ID] })
	sort.SliceStable(top, func(i, j int) bool { return top[i].TotalRevenue.GreaterThan(top[j].TotalRevenue) })
	s.TopClients = lo.Subset(top, 0, dashboardListSize)

	return s
}
