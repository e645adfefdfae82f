package marts

import (
	"sort"
	"time"

	"github.com/azniosman/project-samba-insight/internal/warehouse"
)

// Granularity selects the cohort period length.
type Granularity string

const (
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
)

// CohortRow is one row of mart_cohort_retention: cohort period x state x
// periods-since-cohort. The offset-0 cohort size is the denominator for
// retention at every offset.
type CohortRow struct {
	CohortPeriod      time.Time `json:"cohort_period"`
	State             string    `json:"customer_state"`
	PeriodsSince      int       `json:"periods_since_cohort"`
	CohortSize        int       `json:"cohort_size"`
	ActiveCustomers   int       `json:"active_customers"`
	RetentionPct      *float64  `json:"retention_pct"`
	CumulativeRevenue float64   `json:"cumulative_revenue"`
	CumulativeOrders  int       `json:"cumulative_orders"`
	LTVToDate         *float64  `json:"ltv_to_date"`
}

type cohortKey struct {
	period time.Time
	state  string
}

type offsetBucket struct {
	customers map[string]struct{}
	revenue   float64
	orders    int
}

// BuildCohorts assigns every customer to the period of their earliest
// non-canceled order, scoped per state, and produces retention, cumulative
// revenue/orders and LTV-to-date for each later period offset. Customers
// with only canceled or unavailable orders have no cohort membership.
func BuildCohorts(facts []warehouse.FactOrder, g Granularity) []CohortRow {
	// First qualifying order per customer defines the cohort.
	type membership struct {
		period time.Time
		state  string
	}
	first := make(map[string]membership)
	for _, f := range facts {
		if !f.IsCountable() {
			continue
		}
		p := TruncatePeriod(f.PurchasedAt, g)
		m, seen := first[f.CustomerID]
		if !seen || p.Before(m.period) {
			first[f.CustomerID] = membership{period: p, state: stateOrUnknown(f.CustomerState)}
		}
	}

	// Bucket every qualifying order by (cohort, offset).
	buckets := make(map[cohortKey]map[int]*offsetBucket)
	for _, f := range facts {
		if !f.IsCountable() {
			continue
		}
		m, ok := first[f.CustomerID]
		if !ok {
			continue
		}
		key := cohortKey{period: m.period, state: m.state}
		offset := PeriodDiff(m.period, TruncatePeriod(f.PurchasedAt, g), g)

		offsets := buckets[key]
		if offsets == nil {
			offsets = make(map[int]*offsetBucket)
			buckets[key] = offsets
		}
		b := offsets[offset]
		if b == nil {
			b = &offsetBucket{customers: make(map[string]struct{})}
			offsets[offset] = b
		}
		b.customers[f.CustomerID] = struct{}{}
		b.revenue += f.TotalOrderValue
		b.orders++
	}

	// Running totals ordered by offset within each cohort partition.
	var rows []CohortRow
	for key, offsets := range buckets {
		size := 0
		if zero, ok := offsets[0]; ok {
			size = len(zero.customers)
		}

		sorted := make([]int, 0, len(offsets))
		for off := range offsets {
			sorted = append(sorted, off)
		}
		sort.Ints(sorted)

		cumRevenue := 0.0
		cumOrders := 0
		for _, off := range sorted {
			b := offsets[off]
			cumRevenue += b.revenue
			cumOrders += b.orders
			rows = append(rows, CohortRow{
				CohortPeriod:      key.period,
				State:             key.state,
				PeriodsSince:      off,
				CohortSize:        size,
				ActiveCustomers:   len(b.customers),
				RetentionPct:      ratioPct(len(b.customers), size),
				CumulativeRevenue: cumRevenue,
				CumulativeOrders:  cumOrders,
				LTVToDate:         divide(cumRevenue, float64(size)),
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.CohortPeriod.Equal(b.CohortPeriod) {
			return a.CohortPeriod.Before(b.CohortPeriod)
		}
		if a.State != b.State {
			return a.State < b.State
		}
		return a.PeriodsSince < b.PeriodsSince
	})
	return rows
}

// TruncatePeriod truncates t to the start of its month or quarter.
func TruncatePeriod(t time.Time, g Granularity) time.Time {
	if g == GranularityQuarter {
		qm := time.Month((int(t.Month())-1)/3*3 + 1)
		return time.Date(t.Year(), qm, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// PeriodDiff returns the number of granularity units from a to b.
func PeriodDiff(a, b time.Time, g Granularity) int {
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if g == GranularityQuarter {
		return months / 3
	}
	return months
}

func stateOrUnknown(state string) string {
	if state == "" {
		return "unknown"
	}
	return state
}
