package marts

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/azniosman/project-samba-insight/internal/staging"
	"github.com/azniosman/project-samba-insight/internal/warehouse"
)

// Sub-score weights. They sum to 1.0 so the composite stays in [0,100].
const (
	weightRecency      = 0.35
	weightEngagement   = 0.20
	weightSpend        = 0.20
	weightSatisfaction = 0.15
	weightService      = 0.05
	weightCancellation = 0.05
)

// Churn status labels by days since last order.
const (
	StatusActive    = "Active"
	StatusDeclining = "Declining"
	StatusAtRisk    = "At Risk"
	StatusChurned   = "Churned"
)

// Risk segments by composite score.
const (
	RiskHealthy  = "Healthy"
	RiskLow      = "Low"
	RiskMedium   = "Medium"
	RiskHigh     = "High"
	RiskCritical = "Critical"
)

// Value tiers by lifetime revenue.
const (
	TierPremium  = "premium"
	TierGold     = "gold"
	TierStandard = "standard"
	TierBasic    = "basic"
)

// ChurnRow is one row of mart_churn_risk: one customer's behavioral risk
// snapshot as of the scoring time.
type ChurnRow struct {
	CustomerID string `json:"customer_id"`
	State      string `json:"customer_state"`

	TotalOrders        int       `json:"total_orders"`
	LifetimeRevenue    float64   `json:"lifetime_revenue"`
	LastOrderAt        time.Time `json:"last_order_at"`
	DaysSinceLastOrder int       `json:"days_since_last_order"`
	AvgRevenuePerMonth *float64  `json:"avg_revenue_per_month"`

	RecencyScore      float64 `json:"recency_score"`
	EngagementScore   float64 `json:"engagement_score"`
	SpendScore        float64 `json:"spend_score"`
	SatisfactionScore float64 `json:"satisfaction_score"`
	ServiceScore      float64 `json:"service_score"`
	CancellationScore float64 `json:"cancellation_score"`
	CompositeScore    float64 `json:"composite_score"`

	ChurnStatus       string `json:"churn_status"`
	RiskSegment       string `json:"risk_segment"`
	ValueTier         string `json:"value_tier"`
	RetentionPriority string `json:"retention_priority"`
	RecommendedAction string `json:"recommended_action"`
}

// ScoreChurn scores every customer present in the order fact as of now.
// Customers whose orders were all canceled or unavailable are skipped: they
// never became active, so there is nothing to churn from.
func ScoreChurn(facts []warehouse.FactOrder, now time.Time) []ChurnRow {
	byCustomer := lo.GroupBy(facts, func(f warehouse.FactOrder) string { return f.CustomerID })

	ids := lo.Keys(byCustomer)
	sort.Strings(ids)

	rows := make([]ChurnRow, 0, len(ids))
	for _, id := range ids {
		if row, ok := scoreCustomer(id, byCustomer[id], now); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func scoreCustomer(id string, facts []warehouse.FactOrder, now time.Time) (ChurnRow, bool) {
	var (
		countable   []warehouse.FactOrder
		canceled    int
		delivered   int
		late        int
		reviewSum   int
		reviewCount int
	)
	for _, f := range facts {
		if f.Status == staging.StatusCanceled {
			canceled++
		}
		if f.IsCountable() {
			countable = append(countable, f)
		}
		if f.IsDelivered {
			delivered++
			if f.IsLateDelivery {
				late++
			}
		}
		if f.ReviewScore != nil {
			reviewSum += *f.ReviewScore
			reviewCount++
		}
	}
	if len(countable) == 0 {
		return ChurnRow{}, false
	}

	row := ChurnRow{
		CustomerID:  id,
		State:       stateOrUnknown(facts[0].CustomerState),
		TotalOrders: len(countable),
	}

	first, last := countable[0].PurchasedAt, countable[0].PurchasedAt
	for _, f := range countable {
		row.LifetimeRevenue += f.TotalOrderValue
		if f.PurchasedAt.Before(first) {
			first = f.PurchasedAt
		}
		if f.PurchasedAt.After(last) {
			last = f.PurchasedAt
		}
	}
	row.LastOrderAt = last
	row.DaysSinceLastOrder = int(now.Sub(last).Hours() / 24)

	monthsActive := PeriodDiff(TruncatePeriod(first, GranularityMonth), TruncatePeriod(last, GranularityMonth), GranularityMonth) + 1
	row.AvgRevenuePerMonth = divide(row.LifetimeRevenue, float64(monthsActive))

	// Trailing 90 days vs the 90 days before that.
	cut90 := now.AddDate(0, 0, -90)
	cut180 := now.AddDate(0, 0, -180)
	var ordersLast, ordersPrev int
	var revenueLast, revenuePrev float64
	for _, f := range countable {
		switch {
		case f.PurchasedAt.After(cut90):
			ordersLast++
			revenueLast += f.TotalOrderValue
		case f.PurchasedAt.After(cut180):
			ordersPrev++
			revenuePrev += f.TotalOrderValue
		}
	}

	row.RecencyScore = recencyScore(row.DaysSinceLastOrder)
	row.EngagementScore = engagementScore(ordersLast, ordersPrev)
	row.SpendScore = spendScore(revenueLast, revenuePrev)
	row.SatisfactionScore = satisfactionScore(reviewSum, reviewCount)
	row.ServiceScore = serviceScore(late, delivered)
	row.CancellationScore = cancellationScore(canceled, len(facts))

	// The composite is computed exactly once; every label below reads it.
	row.CompositeScore = weightRecency*row.RecencyScore +
		weightEngagement*row.EngagementScore +
		weightSpend*row.SpendScore +
		weightSatisfaction*row.SatisfactionScore +
		weightService*row.ServiceScore +
		weightCancellation*row.CancellationScore

	row.ChurnStatus = churnStatus(row.DaysSinceLastOrder)
	row.RiskSegment = riskSegment(row.CompositeScore)
	row.ValueTier = valueTier(row.LifetimeRevenue)
	row.RetentionPriority = retentionPriority(row.RiskSegment, row.ValueTier)
	row.RecommendedAction = recommendedAction(row.CompositeScore, row.ChurnStatus)

	return row, true
}

func recencyScore(days int) float64 {
	switch {
	case days > 180:
		return 100
	case days > 120:
		return 80
	case days > 90:
		return 60
	case days > 60:
		return 40
	case days > 30:
		return 20
	default:
		return 0
	}
}

func engagementScore(last, prev int) float64 {
	switch {
	case last == 0:
		return 100 // stopped ordering entirely
	case last < prev:
		return 60
	case last == prev:
		return 30
	default:
		return 0
	}
}

func spendScore(last, prev float64) float64 {
	switch {
	case last == 0:
		return 100 // stopped spending entirely
	case last < prev/2:
		return 70
	case last < prev:
		return 40
	default:
		return 0
	}
}

func satisfactionScore(sum, count int) float64 {
	if count == 0 {
		return 0 // never reviewed, no signal
	}
	avg := float64(sum) / float64(count)
	switch {
	case avg < 2.5:
		return 80
	case avg < 3.5:
		return 50
	case avg < 4.0:
		return 20
	default:
		return 0
	}
}

func serviceScore(late, delivered int) float64 {
	if delivered == 0 {
		return 0
	}
	rate := float64(late) / float64(delivered)
	switch {
	case rate > 0.5:
		return 70
	case rate > 0.3:
		return 40
	case rate > 0.15:
		return 20
	default:
		return 0
	}
}

func cancellationScore(canceled, total int) float64 {
	if total == 0 {
		return 0
	}
	rate := float64(canceled) / float64(total)
	switch {
	case rate > 0.2:
		return 60
	case rate > 0.1:
		return 30
	default:
		return 0
	}
}

func churnStatus(days int) string {
	switch {
	case days <= 60:
		return StatusActive
	case days <= 90:
		return StatusDeclining
	case days <= 180:
		return StatusAtRisk
	default:
		return StatusChurned
	}
}

func riskSegment(composite float64) string {
	switch {
	case composite < 20:
		return RiskHealthy
	case composite < 40:
		return RiskLow
	case composite < 60:
		return RiskMedium
	case composite < 80:
		return RiskHigh
	default:
		return RiskCritical
	}
}

func valueTier(revenue float64) string {
	switch {
	case revenue >= 1000:
		return TierPremium
	case revenue >= 500:
		return TierGold
	case revenue >= 100:
		return TierStandard
	default:
		return TierBasic
	}
}

// retentionPriority is a fixed decision table over risk segment and value
// tier: the riskier and the more valuable, the sooner someone should call.
func retentionPriority(segment, tier string) string {
	highValue := tier == TierPremium || tier == TierGold
	switch segment {
	case RiskCritical, RiskHigh:
		if highValue {
			return "urgent"
		}
		return "high"
	case RiskMedium:
		if highValue {
			return "high"
		}
		return "medium"
	case RiskLow:
		if highValue {
			return "medium"
		}
		return "low"
	default:
		return "low"
	}
}

func recommendedAction(composite float64, status string) string {
	if status == StatusChurned {
		return "win_back_campaign"
	}
	switch {
	case composite >= 80:
		return "immediate_outreach"
	case composite >= 60:
		return "personalized_offer"
	case composite >= 40:
		return "engagement_nudge"
	case composite >= 20:
		return "monitor"
	default:
		return "none"
	}
}
