package marts

import (
	"math"
	"testing"

	"github.com/azniosman/project-samba-insight/internal/warehouse"
)

func geoFixture() []warehouse.FactOrder {
	facts := []warehouse.FactOrder{
		order("o1", "c1", "SP", "delivered", date(2017, 1, 10), 500),
		order("o2", "c2", "SP", "delivered", date(2017, 2, 10), 300),
		order("o3", "c3", "RJ", "delivered", date(2017, 3, 10), 150),
		order("o4", "c4", "RS", "delivered", date(2017, 4, 10), 50),
		order("o5", "c5", "RS", "canceled", date(2017, 5, 10), 999),
	}
	return facts
}

func TestBuildGeoPerformance_SharesSumToWhole(t *testing.T) {
	rows := BuildGeoPerformance(geoFixture())

	var revShare, orderShare, customerShare float64
	for _, r := range rows {
		if r.RevenueSharePct != nil {
			revShare += *r.RevenueSharePct
		}
		if r.OrderSharePct != nil {
			orderShare += *r.OrderSharePct
		}
		if r.CustomerSharePct != nil {
			customerShare += *r.CustomerSharePct
		}
	}
	for name, sum := range map[string]float64{
		"revenue": revShare, "orders": orderShare, "customers": customerShare,
	} {
		if math.Abs(sum-100) > 0.01 {
			t.Errorf("%s shares sum to %.4f, want 100 within 0.01", name, sum)
		}
	}
}

func TestBuildGeoPerformance_RankingAndLabels(t *testing.T) {
	rows := BuildGeoPerformance(geoFixture())
	if len(rows) != 3 {
		t.Fatalf("expected 3 states, got %d", len(rows))
	}

	if rows[0].State != "SP" || rows[0].RevenueRank != 1 {
		t.Errorf("SP should rank first: %+v", rows[0])
	}
	// SP holds 800 of 1000: heavy concentration.
	if rows[0].RiskFlag != "concentration_risk" {
		t.Errorf("SP risk flag = %s, want concentration_risk", rows[0].RiskFlag)
	}
	if rows[0].MarketMaturity != "developed" {
		t.Errorf("SP maturity = %s, want developed", rows[0].MarketMaturity)
	}
	if rows[0].StrategicTier != "core" {
		t.Errorf("SP tier = %s, want core", rows[0].StrategicTier)
	}

	// RS: 50 of 1000 = 5% share exactly, small emerging market.
	last := rows[2]
	if last.State != "RS" {
		t.Fatalf("expected RS last, got %s", last.State)
	}
	if last.ExpansionPriority != "medium" {
		t.Errorf("RS at 5%% share should be medium priority, got %s", last.ExpansionPriority)
	}
}

func TestBuildGeoPerformance_ExcludesCanceled(t *testing.T) {
	rows := BuildGeoPerformance(geoFixture())
	for _, r := range rows {
		if r.State == "RS" && r.Revenue != 50 {
			t.Errorf("canceled order revenue must not count: %+v", r)
		}
	}
}

func TestBuildCategoryPerformance(t *testing.T) {
	facts := geoFixture()
	categoryRevenue := map[string]map[string]float64{
		"o1": {"toys": 500},
		"o2": {"toys": 100, "housewares": 200},
		"o3": {"housewares": 150},
		"o4": {"garden": 50},
		"o5": {"garden": 999}, // canceled, must be ignored
	}

	rows := BuildCategoryPerformance(facts, categoryRevenue)
	if len(rows) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(rows))
	}

	if rows[0].Category != "toys" || rows[0].Revenue != 600 {
		t.Errorf("toys should lead with 600: %+v", rows[0])
	}
	if rows[0].Orders != 2 || rows[0].Customers != 2 {
		t.Errorf("toys touches 2 orders and 2 customers: %+v", rows[0])
	}

	var shareSum float64
	for _, r := range rows {
		if r.RevenueSharePct != nil {
			shareSum += *r.RevenueSharePct
		}
	}
	if math.Abs(shareSum-100) > 0.01 {
		t.Errorf("category revenue shares sum to %.4f", shareSum)
	}

	for _, r := range rows {
		if r.Category == "garden" && r.Revenue != 50 {
			t.Errorf("canceled order revenue leaked into garden: %+v", r)
		}
	}
}

func TestCategoryStatus(t *testing.T) {
	if categoryStatus(ptr(12), ptr(4.2)) != "star" {
		t.Error("high share with good reviews is a star")
	}
	if categoryStatus(ptr(12), ptr(3.0)) != "underperforming" {
		t.Error("bad reviews override share")
	}
	if categoryStatus(ptr(5), nil) != "solid" {
		t.Error("mid share without reviews is solid")
	}
	if categoryStatus(ptr(1), nil) != "niche" {
		t.Error("small share is niche")
	}
}
