package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/azniosman/project-samba-insight/internal/marts"
	"github.com/azniosman/project-samba-insight/internal/warehouse"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "warehouse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testFact(orderID string, purchased time.Time) warehouse.FactOrder {
	days := 8
	score := 5
	sentiment := "positive"
	return warehouse.FactOrder{
		OrderID:          orderID,
		CustomerID:       "c-" + orderID,
		Status:           "delivered",
		CustomerCity:     "sao paulo",
		CustomerState:    "SP",
		PurchasedAt:      purchased,
		DeliveryDays:     &days,
		IsDelivered:      true,
		IsOnTimeDelivery: true,
		ItemCount:        2,
		ItemsValue:       80,
		FreightValue:     20,
		TotalOrderValue:  100,
		PaymentValue:     100,
		ReviewScore:      &score,
		ReviewSentiment:  &sentiment,
	}
}

func TestFactRoundTrip(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertFacts([]warehouse.FactOrder{
		testFact("o2", base.Add(24*time.Hour)),
		testFact("o1", base),
	}))

	facts, err := s.LoadFacts()
	require.NoError(t, err)
	require.Len(t, facts, 2)
	require.Equal(t, "o1", facts[0].OrderID)
	require.Equal(t, "o2", facts[1].OrderID)

	require.NotNil(t, facts[0].DeliveryDays)
	require.Equal(t, 8, *facts[0].DeliveryDays)
	require.Nil(t, facts[0].ApprovedAt)
	require.NotNil(t, facts[0].ReviewSentiment)
	require.Equal(t, "positive", *facts[0].ReviewSentiment)
}

func TestUpsertFactsReplacesByOrderID(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertFacts([]warehouse.FactOrder{testFact("o1", base)}))

	updated := testFact("o1", base)
	updated.Status = "canceled"
	updated.TotalOrderValue = 250
	require.NoError(t, s.UpsertFacts([]warehouse.FactOrder{updated}))

	facts, err := s.LoadFacts()
	require.NoError(t, err)
	require.Len(t, facts, 1)
	require.Equal(t, "canceled", facts[0].Status)
	require.Equal(t, 250.0, facts[0].TotalOrderValue)
}

func TestFactWatermark(t *testing.T) {
	s := openTestStore(t)

	wm, err := s.FactWatermark()
	require.NoError(t, err)
	require.Nil(t, wm)

	latest := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.UpsertFacts([]warehouse.FactOrder{
		testFact("o1", latest.Add(-48*time.Hour)),
		testFact("o2", latest),
	}))

	wm, err = s.FactWatermark()
	require.NoError(t, err)
	require.NotNil(t, wm)
	require.True(t, wm.Equal(latest))
}

func TestReplaceCustomerDims(t *testing.T) {
	s := openTestStore(t)

	first := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	avg := 4.5
	require.NoError(t, s.ReplaceCustomerDims([]warehouse.CustomerDim{
		{CustomerID: "c1", State: "SP", TotalOrders: 3, TotalRevenue: 300, FirstOrderAt: &first, AvgReviewScore: &avg, Segment: warehouse.SegmentRepeat},
	}))
	require.NoError(t, s.ReplaceCustomerDims([]warehouse.CustomerDim{
		{CustomerID: "c2", State: "RJ", TotalOrders: 1, TotalRevenue: 50, Segment: warehouse.SegmentOneTime},
	}))

	dims, err := s.LoadCustomerDims()
	require.NoError(t, err)
	require.Len(t, dims, 1, "replace must drop prior rows")
	require.Equal(t, "c2", dims[0].CustomerID)
	require.Nil(t, dims[0].FirstOrderAt)
	require.Nil(t, dims[0].AvgReviewScore)
}

func TestCohortGranularitiesAreIsolated(t *testing.T) {
	s := openTestStore(t)

	period := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	monthly := []marts.CohortRow{{CohortPeriod: period, State: "SP", CohortSize: 10, ActiveCustomers: 10}}
	quarterly := []marts.CohortRow{
		{CohortPeriod: period, State: "SP", CohortSize: 10, ActiveCustomers: 10},
		{CohortPeriod: period, State: "RJ", CohortSize: 4, ActiveCustomers: 4},
	}

	require.NoError(t, s.ReplaceCohorts(marts.GranularityMonth, monthly))
	require.NoError(t, s.ReplaceCohorts(marts.GranularityQuarter, quarterly))

	// Rewriting one granularity must not disturb the other.
	require.NoError(t, s.ReplaceCohorts(marts.GranularityMonth, monthly))

	got, err := s.LoadCohorts(marts.GranularityQuarter)
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = s.LoadCohorts(marts.GranularityMonth)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Nil(t, got[0].RetentionPct)
}

func TestChurnRoundTrip(t *testing.T) {
	s := openTestStore(t)

	last := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.ReplaceChurn([]marts.ChurnRow{
		{CustomerID: "c1", State: "SP", TotalOrders: 2, LastOrderAt: last, CompositeScore: 40, ChurnStatus: marts.StatusDeclining, RiskSegment: marts.RiskMedium, ValueTier: marts.TierStandard, RetentionPriority: "medium", RecommendedAction: "engagement_nudge"},
		{CustomerID: "c2", State: "RJ", TotalOrders: 5, LastOrderAt: last, CompositeScore: 85, ChurnStatus: marts.StatusChurned, RiskSegment: marts.RiskCritical, ValueTier: marts.TierGold, RetentionPriority: "critical", RecommendedAction: "win_back_campaign"},
	}))

	rows, err := s.LoadChurn()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "c2", rows[0].CustomerID, "highest risk first")
	require.Nil(t, rows[0].AvgRevenuePerMonth)
}

func TestExecutiveRoundTrip(t *testing.T) {
	s := openTestStore(t)

	qoq := 12.5
	require.NoError(t, s.ReplaceExecutive([]marts.ExecutiveRow{
		{Year: 2024, Quarter: 2, Revenue: 1500, Orders: 20, Customers: 18, QoQGrowthPct: &qoq, TopState: "SP", StrategicHealthScore: 72},
		{Year: 2024, Quarter: 1, Revenue: 1000, Orders: 15, Customers: 14, TopState: "SP", StrategicHealthScore: 55},
	}))

	rows, err := s.LoadExecutive()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, 1, rows[0].Quarter)
	require.Nil(t, rows[0].QoQGrowthPct)
	require.NotNil(t, rows[1].QoQGrowthPct)
	require.Equal(t, 12.5, *rows[1].QoQGrowthPct)
}

func TestGeoCategoryEconomicsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	share := 60.0
	require.NoError(t, s.ReplaceGeo([]marts.GeoRow{
		{State: "SP", Revenue: 600, Orders: 6, Customers: 5, RevenueSharePct: &share, RevenueRank: 1, MarketMaturity: "developed", ExpansionPriority: "low", StrategicTier: "core", RiskFlag: "concentration_risk"},
	}))
	require.NoError(t, s.ReplaceCategories([]marts.CategoryRow{
		{Category: "electronics", Revenue: 400, Orders: 4, Customers: 4, RevenueRank: 1, PerformanceStatus: "star"},
	}))
	ltv := 120.0
	require.NoError(t, s.ReplaceEconomics([]marts.EconomicsRow{
		{State: "SP", Customers: 5, Orders: 6, Revenue: 600, LTV: &ltv, CAC: 40, Viability: "healthy"},
	}))

	geo, err := s.LoadGeo()
	require.NoError(t, err)
	require.Len(t, geo, 1)
	require.Equal(t, "concentration_risk", geo[0].RiskFlag)

	cats, err := s.LoadCategories()
	require.NoError(t, err)
	require.Len(t, cats, 1)
	require.Nil(t, cats[0].AvgReviewScore)

	econ, err := s.LoadEconomics()
	require.NoError(t, err)
	require.Len(t, econ, 1)
	require.NotNil(t, econ[0].LTV)
	require.Equal(t, 120.0, *econ[0].LTV)
}

func TestBuildRuns(t *testing.T) {
	s := openTestStore(t)

	run, err := s.LastRun()
	require.NoError(t, err)
	require.Nil(t, run)

	started := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	latest := started.Add(-2 * time.Hour)
	require.NoError(t, s.RecordRun(BuildRun{
		ID: "run-1", StartedAt: started.Add(-time.Hour), FinishedAt: started.Add(-time.Hour + time.Minute),
		FullRebuild: true, FactsBuilt: 10,
	}))
	require.NoError(t, s.RecordRun(BuildRun{
		ID: "run-2", StartedAt: started, FinishedAt: started.Add(time.Minute),
		FactsBuilt: 3, SourceLatest: &latest,
	}))

	run, err = s.LastRun()
	require.NoError(t, err)
	require.NotNil(t, run)
	require.Equal(t, "run-2", run.ID)
	require.False(t, run.FullRebuild)
	require.NotNil(t, run.SourceLatest)
	require.True(t, run.SourceLatest.Equal(latest))
}

func TestTableCounts(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertFacts([]warehouse.FactOrder{testFact("o1", base)}))

	counts, err := s.TableCounts()
	require.NoError(t, err)
	require.Equal(t, 1, counts["fact_orders"])
	require.Equal(t, 0, counts["mart_churn_risk"])
}
