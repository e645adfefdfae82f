package marts

import (
	"testing"
	"time"

	"github.com/azniosman/project-samba-insight/internal/warehouse"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func order(id, customer, state, status string, at time.Time, value float64) warehouse.FactOrder {
	return warehouse.FactOrder{
		OrderID:         id,
		CustomerID:      customer,
		CustomerState:   state,
		Status:          status,
		PurchasedAt:     at,
		TotalOrderValue: value,
	}
}

func TestBuildCohorts_OffsetZeroIsAlwaysFullRetention(t *testing.T) {
	facts := []warehouse.FactOrder{
		order("o1", "c1", "SP", "delivered", date(2017, 1, 10), 100),
		order("o2", "c2", "SP", "delivered", date(2017, 1, 20), 50),
		order("o3", "c1", "SP", "delivered", date(2017, 2, 5), 80),
	}

	rows := BuildCohorts(facts, GranularityMonth)

	for _, r := range rows {
		if r.PeriodsSince == 0 {
			if r.RetentionPct == nil || *r.RetentionPct != 100 {
				t.Errorf("offset 0 retention must be exactly 100, got %v", r.RetentionPct)
			}
			if r.ActiveCustomers != r.CohortSize {
				t.Errorf("offset 0 active count must equal cohort size: %+v", r)
			}
		}
	}
}

func TestBuildCohorts_RetentionUsesCohortSizeDenominator(t *testing.T) {
	facts := []warehouse.FactOrder{
		order("o1", "c1", "SP", "delivered", date(2017, 1, 10), 100),
		order("o2", "c2", "SP", "delivered", date(2017, 1, 20), 50),
		order("o3", "c1", "SP", "delivered", date(2017, 2, 5), 80),
	}

	rows := BuildCohorts(facts, GranularityMonth)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(rows), rows)
	}

	later := rows[1]
	if later.PeriodsSince != 1 {
		t.Fatalf("expected offset 1, got %d", later.PeriodsSince)
	}
	// 1 of 2 cohort members active: 50%, not 100% of the later active count.
	if later.RetentionPct == nil || *later.RetentionPct != 50 {
		t.Errorf("expected 50%% retention, got %v", later.RetentionPct)
	}
	if later.CohortSize != 2 {
		t.Errorf("cohort size must stay 2 at every offset, got %d", later.CohortSize)
	}
}

func TestBuildCohorts_CumulativeSums(t *testing.T) {
	facts := []warehouse.FactOrder{
		order("o1", "c1", "SP", "delivered", date(2017, 1, 10), 100),
		order("o2", "c1", "SP", "delivered", date(2017, 2, 5), 80),
		order("o3", "c1", "SP", "delivered", date(2017, 3, 5), 20),
	}

	rows := BuildCohorts(facts, GranularityMonth)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	wantRevenue := []float64{100, 180, 200}
	wantOrders := []int{1, 2, 3}
	for i, r := range rows {
		if r.CumulativeRevenue != wantRevenue[i] {
			t.Errorf("offset %d cumulative revenue = %.2f, want %.2f", r.PeriodsSince, r.CumulativeRevenue, wantRevenue[i])
		}
		if r.CumulativeOrders != wantOrders[i] {
			t.Errorf("offset %d cumulative orders = %d, want %d", r.PeriodsSince, r.CumulativeOrders, wantOrders[i])
		}
	}

	// LTV to date is cumulative revenue over cohort size (1 customer).
	last := rows[2]
	if last.LTVToDate == nil || *last.LTVToDate != 200 {
		t.Errorf("expected LTV 200, got %v", last.LTVToDate)
	}
}

func TestBuildCohorts_CanceledOrdersExcluded(t *testing.T) {
	facts := []warehouse.FactOrder{
		order("o1", "c1", "SP", "canceled", date(2017, 1, 10), 100),
		order("o2", "c1", "SP", "delivered", date(2017, 3, 10), 60),
		order("o3", "c2", "RS", "canceled", date(2017, 1, 15), 40),
	}

	rows := BuildCohorts(facts, GranularityMonth)

	// c2 only ever canceled: no cohort membership at all.
	for _, r := range rows {
		if r.State == "RS" {
			t.Errorf("customer with only canceled orders must not form a cohort: %+v", r)
		}
	}

	// c1's cohort is March (first non-canceled order), not January.
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if !rows[0].CohortPeriod.Equal(time.Date(2017, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("cohort period must come from the first non-canceled order, got %v", rows[0].CohortPeriod)
	}
}

func TestBuildCohorts_QuarterGranularity(t *testing.T) {
	facts := []warehouse.FactOrder{
		order("o1", "c1", "SP", "delivered", date(2017, 2, 10), 100), // Q1
		order("o2", "c1", "SP", "delivered", date(2017, 8, 10), 50),  // Q3 -> offset 2
	}

	rows := BuildCohorts(facts, GranularityQuarter)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].CohortPeriod.Equal(time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Q1 cohort should truncate to Jan 1, got %v", rows[0].CohortPeriod)
	}
	if rows[1].PeriodsSince != 2 {
		t.Errorf("Feb to Aug should be 2 quarters, got %d", rows[1].PeriodsSince)
	}
}

func TestBuildCohorts_GeographyPartitions(t *testing.T) {
	facts := []warehouse.FactOrder{
		order("o1", "c1", "SP", "delivered", date(2017, 1, 10), 100),
		order("o2", "c2", "RS", "delivered", date(2017, 1, 20), 50),
	}

	rows := BuildCohorts(facts, GranularityMonth)
	if len(rows) != 2 {
		t.Fatalf("expected one row per state, got %d", len(rows))
	}
	for _, r := range rows {
		if r.CohortSize != 1 {
			t.Errorf("each state cohort has 1 member, got %d for %s", r.CohortSize, r.State)
		}
	}
}

func TestPeriodDiff(t *testing.T) {
	jan := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		to   time.Time
		g    Granularity
		want int
	}{
		{time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC), GranularityMonth, 0},
		{time.Date(2017, 4, 1, 0, 0, 0, 0, time.UTC), GranularityMonth, 3},
		{time.Date(2018, 2, 1, 0, 0, 0, 0, time.UTC), GranularityMonth, 13},
		{time.Date(2017, 10, 1, 0, 0, 0, 0, time.UTC), GranularityQuarter, 3},
	}
	for _, c := range cases {
		if got := PeriodDiff(jan, c.to, c.g); got != c.want {
			t.Errorf("PeriodDiff(jan, %v, %s) = %d, want %d", c.to, c.g, got, c.want)
		}
	}
}
