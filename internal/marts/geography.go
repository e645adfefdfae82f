package marts

import (
	"sort"

	"github.com/samber/lo"

	"github.com/azniosman/project-samba-insight/internal/rank"
	"github.com/azniosman/project-samba-insight/internal/warehouse"
)

// GeoRow is one row of mart_geo_performance, one per customer state.
type GeoRow struct {
	State     string  `json:"customer_state"`
	Revenue   float64 `json:"revenue"`
	Orders    int     `json:"orders"`
	Customers int     `json:"customers"`

	RevenueSharePct  *float64 `json:"revenue_share_pct"`
	OrderSharePct    *float64 `json:"order_share_pct"`
	CustomerSharePct *float64 `json:"customer_share_pct"`
	AvgOrderValue    *float64 `json:"avg_order_value"`
	LateDeliveryPct  *float64 `json:"late_delivery_pct"`

	RevenueRank       int    `json:"revenue_rank"`
	MarketMaturity    string `json:"market_maturity"`
	ExpansionPriority string `json:"expansion_priority"`
	StrategicTier     string `json:"strategic_tier"`
	RiskFlag          string `json:"risk_flag"`
}

// CategoryRow is one row of mart_category_performance, one per product
// category (English name).
type CategoryRow struct {
	Category  string  `json:"category"`
	Revenue   float64 `json:"revenue"`
	Orders    int     `json:"orders"`
	Customers int     `json:"customers"`

	RevenueSharePct *float64 `json:"revenue_share_pct"`
	OrderSharePct   *float64 `json:"order_share_pct"`
	AvgReviewScore  *float64 `json:"avg_review_score"`

	RevenueRank       int    `json:"revenue_rank"`
	PerformanceStatus string `json:"performance_status"`
}

// BuildGeoPerformance aggregates countable orders per customer state and
// assigns shares, ranks and strategy labels.
func BuildGeoPerformance(facts []warehouse.FactOrder) []GeoRow {
	type geoAgg struct {
		revenue   float64
		orders    int
		customers map[string]struct{}
		delivered int
		late      int
	}
	byState := make(map[string]*geoAgg)

	var totalRevenue float64
	var totalOrders, totalCustomers int
	allCustomers := make(map[string]struct{})

	for _, f := range facts {
		if !f.IsCountable() {
			continue
		}
		state := stateOrUnknown(f.CustomerState)
		agg := byState[state]
		if agg == nil {
			agg = &geoAgg{customers: make(map[string]struct{})}
			byState[state] = agg
		}
		agg.revenue += f.TotalOrderValue
		agg.orders++
		agg.customers[f.CustomerID] = struct{}{}
		if f.IsDelivered {
			agg.delivered++
			if f.IsLateDelivery {
				agg.late++
			}
		}
		totalRevenue += f.TotalOrderValue
		totalOrders++
		allCustomers[f.CustomerID] = struct{}{}
	}
	totalCustomers = len(allCustomers)

	rows := make([]GeoRow, 0, len(byState))
	for state, agg := range byState {
		row := GeoRow{
			State:            state,
			Revenue:          agg.revenue,
			Orders:           agg.orders,
			Customers:        len(agg.customers),
			RevenueSharePct:  sharePct(agg.revenue, totalRevenue),
			OrderSharePct:    ratioPct(agg.orders, totalOrders),
			CustomerSharePct: ratioPct(len(agg.customers), totalCustomers),
			AvgOrderValue:    divide(agg.revenue, float64(agg.orders)),
			LateDeliveryPct:  ratioPct(agg.late, agg.delivered),
		}
		rows = append(rows, row)
	}

	ranked := rank.Assign(rows,
		func(r GeoRow) float64 { return r.Revenue },
		func(r GeoRow) string { return r.State })

	out := make([]GeoRow, 0, len(ranked))
	for _, r := range ranked {
		row := r.Item
		row.RevenueRank = r.Rank
		row.MarketMaturity = marketMaturity(row.RevenueSharePct)
		row.ExpansionPriority = expansionPriority(row.RevenueSharePct)
		row.StrategicTier = strategicTier(row.RevenueRank)
		row.RiskFlag = geoRiskFlag(row.RevenueSharePct, row.LateDeliveryPct)
		out = append(out, row)
	}
	return out
}

// BuildCategoryPerformance aggregates order-item revenue per product
// category. Orders and customers count each category an order touches once.
func BuildCategoryPerformance(facts []warehouse.FactOrder, categoryRevenue map[string]map[string]float64) []CategoryRow {
	factByOrder := lo.KeyBy(facts, func(f warehouse.FactOrder) string { return f.OrderID })

	type catAgg struct {
		revenue   float64
		orders    map[string]struct{}
		customers map[string]struct{}
		reviewSum int
		reviews   int
	}
	byCategory := make(map[string]*catAgg)
	var totalRevenue float64
	totalOrders := make(map[string]struct{})

	for orderID, categories := range categoryRevenue {
		f, ok := factByOrder[orderID]
		if !ok || !f.IsCountable() {
			continue
		}
		totalOrders[orderID] = struct{}{}
		for category, revenue := range categories {
			agg := byCategory[category]
			if agg == nil {
				agg = &catAgg{orders: make(map[string]struct{}), customers: make(map[string]struct{})}
				byCategory[category] = agg
			}
			agg.revenue += revenue
			totalRevenue += revenue
			if _, seen := agg.orders[orderID]; !seen {
				agg.orders[orderID] = struct{}{}
				agg.customers[f.CustomerID] = struct{}{}
				if f.ReviewScore != nil {
					agg.reviewSum += *f.ReviewScore
					agg.reviews++
				}
			}
		}
	}

	rows := make([]CategoryRow, 0, len(byCategory))
	for category, agg := range byCategory {
		row := CategoryRow{
			Category:        category,
			Revenue:         agg.revenue,
			Orders:          len(agg.orders),
			Customers:       len(agg.customers),
			RevenueSharePct: sharePct(agg.revenue, totalRevenue),
			OrderSharePct:   ratioPct(len(agg.orders), len(totalOrders)),
		}
		if agg.reviews > 0 {
			row.AvgReviewScore = ptr(float64(agg.reviewSum) / float64(agg.reviews))
		}
		rows = append(rows, row)
	}

	ranked := rank.Assign(rows,
		func(r CategoryRow) float64 { return r.Revenue },
		func(r CategoryRow) string { return r.Category })

	out := make([]CategoryRow, 0, len(ranked))
	for _, r := range ranked {
		row := r.Item
		row.RevenueRank = r.Rank
		row.PerformanceStatus = categoryStatus(row.RevenueSharePct, row.AvgReviewScore)
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].RevenueRank < out[j].RevenueRank })
	return out
}

func marketMaturity(share *float64) string {
	switch {
	case share == nil:
		return "emerging"
	case *share >= 15:
		return "developed"
	case *share >= 5:
		return "growth"
	default:
		return "emerging"
	}
}

func expansionPriority(share *float64) string {
	switch {
	case share == nil:
		return "high"
	case *share >= 15:
		return "low" // already saturated
	case *share >= 5:
		return "medium"
	default:
		return "high"
	}
}

func strategicTier(revenueRank int) string {
	switch {
	case revenueRank <= 3:
		return "core"
	case revenueRank <= 10:
		return "secondary"
	default:
		return "frontier"
	}
}

func geoRiskFlag(share, latePct *float64) string {
	switch {
	case share != nil && *share >= 30:
		return "concentration_risk"
	case latePct != nil && *latePct > 30:
		return "service_risk"
	default:
		return "none"
	}
}

func categoryStatus(share, avgReview *float64) string {
	if avgReview != nil && *avgReview < 3.5 {
		return "underperforming"
	}
	switch {
	case share != nil && *share >= 10:
		return "star"
	case share != nil && *share >= 3:
		return "solid"
	default:
		return "niche"
	}
}
