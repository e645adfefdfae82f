package marts

import (
	"sort"
	"time"

	"github.com/azniosman/project-samba-insight/internal/warehouse"
)

// Strategic health score bucket caps. The six buckets sum to at most 100.
const (
	capRevenueGrowth     = 20
	capRetention         = 25
	capSatisfaction      = 20
	capGeoDiversity      = 15
	capCategoryDiversity = 10
	capOperational       = 10
)

// ExecutiveRow is one row of mart_executive_kpi, one per calendar quarter.
type ExecutiveRow struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`

	Revenue   float64 `json:"revenue"`
	Orders    int     `json:"orders"`
	Customers int     `json:"customers"`

	QoQGrowthPct *float64 `json:"qoq_growth_pct"`
	YoYGrowthPct *float64 `json:"yoy_growth_pct"`

	NextQuarterRetentionPct *float64 `json:"next_quarter_retention_pct"`
	ChurnedCustomers        int      `json:"churned_customers"`
	AtRiskCustomers         int      `json:"at_risk_customers"`

	TopState            string   `json:"top_state"`
	TopStateSharePct    *float64 `json:"top_state_share_pct"`
	TopCategory         string   `json:"top_category"`
	TopCategorySharePct *float64 `json:"top_category_share_pct"`

	AvgReviewScore  *float64 `json:"avg_review_score"`
	OnTimePct       *float64 `json:"on_time_pct"`
	AvgDeliveryDays *float64 `json:"avg_delivery_days"`

	RevenueGrowthPoints     int `json:"revenue_growth_points"`
	RetentionPoints         int `json:"retention_points"`
	SatisfactionPoints      int `json:"satisfaction_points"`
	GeoDiversityPoints      int `json:"geo_diversity_points"`
	CategoryDiversityPoints int `json:"category_diversity_points"`
	OperationalPoints       int `json:"operational_points"`
	StrategicHealthScore    int `json:"strategic_health_score"`
}

// ExecutiveInputs are the already-materialized upstream outputs the rollup
// consumes. It never recomputes cohorts or churn scores.
type ExecutiveInputs struct {
	Facts            []warehouse.FactOrder
	QuarterlyCohorts []CohortRow
	Churn            []ChurnRow
	// OrderCategories maps order ID to category to item revenue, the same
	// shape the category mart consumes.
	OrderCategories map[string]map[string]float64
}

type quarterKey struct {
	year    int
	quarter int
}

func (q quarterKey) start() time.Time {
	return time.Date(q.year, time.Month((q.quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
}

func (q quarterKey) before(o quarterKey) bool {
	if q.year != o.year {
		return q.year < o.year
	}
	return q.quarter < o.quarter
}

func quarterOf(t time.Time) quarterKey {
	return quarterKey{year: t.Year(), quarter: (int(t.Month())-1)/3 + 1}
}

type quarterAgg struct {
	revenue     float64
	orders      int
	customers   map[string]struct{}
	reviewSum   int
	reviews     int
	delivered   int
	onTime      int
	deliveryDay int
	withDays    int
	stateRev    map[string]float64
	categoryRev map[string]float64
}

// BuildExecutiveRollup produces one KPI row per calendar quarter present in
// the order history, including the additive strategic health score.
func BuildExecutiveRollup(in ExecutiveInputs) []ExecutiveRow {
	byQuarter := make(map[quarterKey]*quarterAgg)
	for _, f := range in.Facts {
		if !f.IsCountable() {
			continue
		}
		qk := quarterOf(f.PurchasedAt)
		agg := byQuarter[qk]
		if agg == nil {
			agg = &quarterAgg{
				customers:   make(map[string]struct{}),
				stateRev:    make(map[string]float64),
				categoryRev: make(map[string]float64),
			}
			byQuarter[qk] = agg
		}
		agg.revenue += f.TotalOrderValue
		agg.orders++
		agg.customers[f.CustomerID] = struct{}{}
		agg.stateRev[stateOrUnknown(f.CustomerState)] += f.TotalOrderValue
		for category, revenue := range in.OrderCategories[f.OrderID] {
			agg.categoryRev[category] += revenue
		}
		if f.ReviewScore != nil {
			agg.reviewSum += *f.ReviewScore
			agg.reviews++
		}
		if f.IsDelivered {
			agg.delivered++
			if f.IsOnTimeDelivery {
				agg.onTime++
			}
			if f.DeliveryDays != nil {
				agg.deliveryDay += *f.DeliveryDays
				agg.withDays++
			}
		}
	}

	quarters := make([]quarterKey, 0, len(byQuarter))
	for qk := range byQuarter {
		quarters = append(quarters, qk)
	}
	sort.Slice(quarters, func(i, j int) bool { return quarters[i].before(quarters[j]) })

	retention := retentionByQuarter(in.QuarterlyCohorts)
	churned, atRisk := churnByQuarter(in.Churn)

	rows := make([]ExecutiveRow, 0, len(quarters))
	for _, qk := range quarters {
		agg := byQuarter[qk]
		row := ExecutiveRow{
			Year:      qk.year,
			Quarter:   qk.quarter,
			Revenue:   agg.revenue,
			Orders:    agg.orders,
			Customers: len(agg.customers),

			NextQuarterRetentionPct: retention[qk],
			ChurnedCustomers:        churned[qk],
			AtRiskCustomers:         atRisk[qk],
		}

		if prev, ok := byQuarter[prevQuarter(qk)]; ok {
			row.QoQGrowthPct = sharePct(agg.revenue-prev.revenue, prev.revenue)
		}
		if prior, ok := byQuarter[quarterKey{year: qk.year - 1, quarter: qk.quarter}]; ok {
			row.YoYGrowthPct = sharePct(agg.revenue-prior.revenue, prior.revenue)
		}

		row.TopState, row.TopStateSharePct = topShare(agg.stateRev, agg.revenue)
		catTotal := 0.0
		for _, v := range agg.categoryRev {
			catTotal += v
		}
		row.TopCategory, row.TopCategorySharePct = topShare(agg.categoryRev, catTotal)

		if agg.reviews > 0 {
			row.AvgReviewScore = ptr(float64(agg.reviewSum) / float64(agg.reviews))
		}
		row.OnTimePct = ratioPct(agg.onTime, agg.delivered)
		if agg.withDays > 0 {
			row.AvgDeliveryDays = ptr(float64(agg.deliveryDay) / float64(agg.withDays))
		}

		row.RevenueGrowthPoints = revenueGrowthPoints(row.QoQGrowthPct)
		row.RetentionPoints = retentionPoints(row.NextQuarterRetentionPct)
		row.SatisfactionPoints = satisfactionPoints(row.AvgReviewScore)
		row.GeoDiversityPoints = geoDiversityPoints(row.TopStateSharePct)
		row.CategoryDiversityPoints = categoryDiversityPoints(row.TopCategorySharePct)
		row.OperationalPoints = operationalPoints(row.OnTimePct)
		row.StrategicHealthScore = row.RevenueGrowthPoints + row.RetentionPoints +
			row.SatisfactionPoints + row.GeoDiversityPoints +
			row.CategoryDiversityPoints + row.OperationalPoints

		rows = append(rows, row)
	}
	return rows
}

// retentionByQuarter aggregates offset-1 cohort activity across states:
// of everyone whose first purchase fell in the quarter, how many came back
// the following quarter.
func retentionByQuarter(cohorts []CohortRow) map[quarterKey]*float64 {
	size := make(map[quarterKey]int)
	active := make(map[quarterKey]int)
	for _, c := range cohorts {
		qk := quarterOf(c.CohortPeriod)
		switch c.PeriodsSince {
		case 0:
			size[qk] += c.CohortSize
		case 1:
			active[qk] += c.ActiveCustomers
		}
	}

	out := make(map[quarterKey]*float64, len(size))
	for qk, n := range size {
		out[qk] = ratioPct(active[qk], n)
	}
	return out
}

// churnByQuarter attributes each scored customer to the quarter of their
// last order, counting those now churned or at risk.
func churnByQuarter(churn []ChurnRow) (churned, atRisk map[quarterKey]int) {
	churned = make(map[quarterKey]int)
	atRisk = make(map[quarterKey]int)
	for _, c := range churn {
		qk := quarterOf(c.LastOrderAt)
		switch c.ChurnStatus {
		case StatusChurned:
			churned[qk]++
		case StatusAtRisk:
			atRisk[qk]++
		}
	}
	return churned, atRisk
}

func prevQuarter(qk quarterKey) quarterKey {
	if qk.quarter == 1 {
		return quarterKey{year: qk.year - 1, quarter: 4}
	}
	return quarterKey{year: qk.year, quarter: qk.quarter - 1}
}

func topShare(revenueByKey map[string]float64, total float64) (string, *float64) {
	top := ""
	best := -1.0
	for key, v := range revenueByKey {
		if v > best || (v == best && key < top) {
			top, best = key, v
		}
	}
	if top == "" {
		return "", nil
	}
	return top, sharePct(best, total)
}

func revenueGrowthPoints(qoq *float64) int {
	switch {
	case qoq == nil:
		return 0
	case *qoq > 15:
		return capRevenueGrowth
	case *qoq > 10:
		return 15
	case *qoq > 5:
		return 10
	case *qoq > 0:
		return 5
	default:
		return 0
	}
}

func retentionPoints(retention *float64) int {
	switch {
	case retention == nil:
		return 0
	case *retention >= 40:
		return capRetention
	case *retention >= 30:
		return 20
	case *retention >= 20:
		return 15
	case *retention >= 10:
		return 10
	case *retention > 0:
		return 5
	default:
		return 0
	}
}

func satisfactionPoints(avg *float64) int {
	switch {
	case avg == nil:
		return 0
	case *avg >= 4.5:
		return capSatisfaction
	case *avg >= 4.0:
		return 15
	case *avg >= 3.5:
		return 10
	case *avg >= 3.0:
		return 5
	default:
		return 0
	}
}

func geoDiversityPoints(topShare *float64) int {
	switch {
	case topShare == nil:
		return 0
	case *topShare <= 30:
		return capGeoDiversity
	case *topShare <= 40:
		return 10
	case *topShare <= 50:
		return 5
	default:
		return 0
	}
}

func categoryDiversityPoints(topShare *float64) int {
	switch {
	case topShare == nil:
		return 0
	case *topShare <= 20:
		return capCategoryDiversity
	case *topShare <= 30:
		return 7
	case *topShare <= 40:
		return 4
	default:
		return 0
	}
}

func operationalPoints(onTime *float64) int {
	switch {
	case onTime == nil:
		return 0
	case *onTime >= 95:
		return capOperational
	case *onTime >= 90:
		return 7
	case *onTime >= 85:
		return 4
	default:
		return 0
	}
}
