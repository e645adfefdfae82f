package marts

import (
	"testing"
	"time"

	"github.com/azniosman/project-samba-insight/internal/warehouse"
)

func executiveFixture() ExecutiveInputs {
	facts := []warehouse.FactOrder{
		order("o1", "c1", "SP", "delivered", date(2017, 1, 10), 100),
		order("o2", "c2", "SP", "delivered", date(2017, 2, 10), 100),
		order("o3", "c1", "RS", "delivered", date(2017, 4, 10), 150),
		order("o4", "c3", "SP", "delivered", date(2017, 5, 10), 150),
	}
	for i := range facts {
		score := 5
		facts[i].ReviewScore = &score
		facts[i].IsDelivered = true
		facts[i].IsOnTimeDelivery = true
		days := 7
		facts[i].DeliveryDays = &days
	}

	cohorts := BuildCohorts(facts, GranularityQuarter)
	churn := ScoreChurn(facts, date(2017, 6, 1))

	return ExecutiveInputs{
		Facts:            facts,
		QuarterlyCohorts: cohorts,
		Churn:            churn,
		OrderCategories: map[string]map[string]float64{
			"o1": {"toys": 100},
			"o2": {"toys": 60, "housewares": 40},
			"o3": {"housewares": 150},
			"o4": {"toys": 150},
		},
	}
}

func TestBuildExecutiveRollup_QuarterTotalsAndGrowth(t *testing.T) {
	rows := BuildExecutiveRollup(executiveFixture())
	if len(rows) != 2 {
		t.Fatalf("expected 2 quarters, got %d", len(rows))
	}

	q1, q2 := rows[0], rows[1]
	if q1.Year != 2017 || q1.Quarter != 1 || q1.Revenue != 200 || q1.Orders != 2 || q1.Customers != 2 {
		t.Errorf("unexpected Q1: %+v", q1)
	}
	if q2.Revenue != 300 || q2.Orders != 2 {
		t.Errorf("unexpected Q2: %+v", q2)
	}

	if q1.QoQGrowthPct != nil {
		t.Error("first quarter has no QoQ growth")
	}
	if q2.QoQGrowthPct == nil || *q2.QoQGrowthPct != 50 {
		t.Errorf("Q2 QoQ growth = %v, want 50", q2.QoQGrowthPct)
	}
	if q2.YoYGrowthPct != nil {
		t.Error("no prior year present, YoY must be nil")
	}
}

func TestBuildExecutiveRollup_ConsumesCohortRetention(t *testing.T) {
	rows := BuildExecutiveRollup(executiveFixture())
	q1 := rows[0]

	// Q1 cohort is c1 and c2; only c1 returned in Q2: 50%.
	if q1.NextQuarterRetentionPct == nil || *q1.NextQuarterRetentionPct != 50 {
		t.Errorf("Q1 next-quarter retention = %v, want 50", q1.NextQuarterRetentionPct)
	}
}

func TestBuildExecutiveRollup_HealthScoreIsBucketSum(t *testing.T) {
	rows := BuildExecutiveRollup(executiveFixture())
	for _, r := range rows {
		sum := r.RevenueGrowthPoints + r.RetentionPoints + r.SatisfactionPoints +
			r.GeoDiversityPoints + r.CategoryDiversityPoints + r.OperationalPoints
		if r.StrategicHealthScore != sum {
			t.Errorf("health score %d != bucket sum %d", r.StrategicHealthScore, sum)
		}
		if r.StrategicHealthScore < 0 || r.StrategicHealthScore > 100 {
			t.Errorf("health score out of range: %d", r.StrategicHealthScore)
		}
		if r.RevenueGrowthPoints > capRevenueGrowth || r.RetentionPoints > capRetention ||
			r.SatisfactionPoints > capSatisfaction || r.GeoDiversityPoints > capGeoDiversity ||
			r.CategoryDiversityPoints > capCategoryDiversity || r.OperationalPoints > capOperational {
			t.Errorf("bucket exceeded its cap: %+v", r)
		}
	}
}

func TestBuildExecutiveRollup_Concentration(t *testing.T) {
	rows := BuildExecutiveRollup(executiveFixture())
	q1 := rows[0]

	if q1.TopState != "SP" || q1.TopStateSharePct == nil || *q1.TopStateSharePct != 100 {
		t.Errorf("Q1 top state = %s (%v), want SP at 100%%", q1.TopState, q1.TopStateSharePct)
	}
	if q1.TopCategory != "toys" || q1.TopCategorySharePct == nil || *q1.TopCategorySharePct != 80 {
		t.Errorf("Q1 top category = %s (%v), want toys at 80%%", q1.TopCategory, q1.TopCategorySharePct)
	}
}

func TestBucketLadders(t *testing.T) {
	t.Run("revenue growth", func(t *testing.T) {
		if revenueGrowthPoints(nil) != 0 {
			t.Error("nil growth scores 0")
		}
		if revenueGrowthPoints(ptr(16)) != 20 || revenueGrowthPoints(ptr(12)) != 15 ||
			revenueGrowthPoints(ptr(7)) != 10 || revenueGrowthPoints(ptr(1)) != 5 ||
			revenueGrowthPoints(ptr(-5)) != 0 {
			t.Error("revenue growth ladder wrong")
		}
	})
	t.Run("geo diversity rewards spread", func(t *testing.T) {
		if geoDiversityPoints(ptr(25)) != 15 || geoDiversityPoints(ptr(35)) != 10 ||
			geoDiversityPoints(ptr(45)) != 5 || geoDiversityPoints(ptr(80)) != 0 {
			t.Error("geo diversity ladder wrong")
		}
	})
	t.Run("operational", func(t *testing.T) {
		if operationalPoints(ptr(96)) != 10 || operationalPoints(ptr(92)) != 7 ||
			operationalPoints(ptr(86)) != 4 || operationalPoints(ptr(50)) != 0 {
			t.Error("operational ladder wrong")
		}
	})
}

func TestQuarterHelpers(t *testing.T) {
	qk := quarterOf(time.Date(2017, 11, 3, 0, 0, 0, 0, time.UTC))
	if qk.year != 2017 || qk.quarter != 4 {
		t.Errorf("unexpected quarter: %+v", qk)
	}
	if prev := prevQuarter(quarterKey{2017, 1}); prev.year != 2016 || prev.quarter != 4 {
		t.Errorf("Q1 wraps to prior year Q4, got %+v", prev)
	}
}
