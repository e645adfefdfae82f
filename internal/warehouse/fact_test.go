package warehouse

import (
	"reflect"
	"testing"
	"time"

	"github.com/azniosman/project-samba-insight/internal/staging"
)

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func snapshotFixture() *staging.Snapshot {
	return &staging.Snapshot{
		Orders: []staging.Order{
			{OrderID: "o1", CustomerID: "c1", Status: "delivered", PurchasedAt: ts("2017-10-02 10:00:00")},
			{OrderID: "o2", CustomerID: "c2", Status: "shipped", PurchasedAt: ts("2017-11-05 09:00:00")},
		},
		Items: []staging.OrderItem{
			{OrderID: "o1", ItemSequence: 1, ProductID: "p1", SellerID: "s1", Price: 58.90, FreightValue: 13.29},
			{OrderID: "o1", ItemSequence: 2, ProductID: "p2", SellerID: "s1", Price: 20.00, FreightValue: 5.00},
		},
		Payments: []staging.Payment{
			{OrderID: "o1", Sequential: 1, Type: "credit_card", Installments: 2, Value: 97.19},
		},
		Reviews: []staging.Review{
			{ReviewID: "r1", OrderID: "o1", Score: 5, Sentiment: "positive"},
		},
		Customers: []staging.Customer{
			{CustomerID: "c1", City: "sao paulo", State: "SP"},
			{CustomerID: "c2", City: "porto alegre", State: "RS"},
		},
	}
}

func TestBuildFacts_Aggregates(t *testing.T) {
	facts := BuildFacts(snapshotFixture(), nil)
	if len(facts) != 2 {
		t.Fatalf("expected 2 facts, got %d", len(facts))
	}

	f := facts[0]
	if f.OrderID != "o1" {
		t.Fatalf("expected o1 first, got %s", f.OrderID)
	}
	if f.ItemCount != 2 {
		t.Errorf("expected 2 items, got %d", f.ItemCount)
	}
	if f.TotalOrderValue != 97.19 {
		t.Errorf("expected total 97.19, got %.2f", f.TotalOrderValue)
	}
	if f.HasPaymentMismatch {
		t.Error("payment equals items+freight, no mismatch expected")
	}
	if f.ReviewScore == nil || *f.ReviewScore != 5 {
		t.Errorf("expected review score 5, got %v", f.ReviewScore)
	}
	if f.CustomerState != "SP" {
		t.Errorf("expected customer state SP, got %q", f.CustomerState)
	}

	// o2 has no items, payments or reviews.
	f2 := facts[1]
	if f2.ItemCount != 0 || f2.PaymentValue != 0 || f2.ReviewScore != nil {
		t.Errorf("expected empty aggregates for o2: %+v", f2)
	}
	if f2.HasPaymentMismatch {
		t.Error("order without payments must not be a payment mismatch")
	}
}

func TestBuildFacts_PaymentMismatch(t *testing.T) {
	snap := snapshotFixture()
	snap.Payments[0].Value = 50.00 // differs from 97.19 by far more than 0.01

	facts := BuildFacts(snap, nil)
	if !facts[0].HasPaymentMismatch {
		t.Error("expected payment mismatch flag")
	}
	if !facts[0].HasDataQualityIssue {
		t.Error("payment mismatch must set the quality flag")
	}
}

func TestBuildFacts_IncrementalCutoff(t *testing.T) {
	after := ts("2017-10-15 00:00:00")
	facts := BuildFacts(snapshotFixture(), &after)
	if len(facts) != 1 || facts[0].OrderID != "o2" {
		t.Fatalf("expected only o2 past the watermark, got %+v", facts)
	}
}

func TestBuildFacts_LatestReviewWins(t *testing.T) {
	snap := snapshotFixture()
	early := ts("2017-10-05 00:00:00")
	late := ts("2017-10-20 00:00:00")
	snap.Reviews = []staging.Review{
		{ReviewID: "r1", OrderID: "o1", Score: 2, Sentiment: "negative", CreatedAt: &early},
		{ReviewID: "r2", OrderID: "o1", Score: 4, Sentiment: "positive", CreatedAt: &late},
	}

	facts := BuildFacts(snap, nil)
	if *facts[0].ReviewScore != 4 {
		t.Errorf("expected the most recent review score 4, got %d", *facts[0].ReviewScore)
	}
}

func TestMergeFacts(t *testing.T) {
	prior := BuildFacts(snapshotFixture(), nil)

	t.Run("no fresh rows is identity", func(t *testing.T) {
		merged := MergeFacts(prior, nil)
		if !reflect.DeepEqual(merged, prior) {
			t.Error("merge with no fresh rows must return the prior set unchanged")
		}
	})

	t.Run("upsert by order id", func(t *testing.T) {
		updated := prior[0]
		updated.Status = "canceled"
		fresh := []FactOrder{
			updated,
			{OrderID: "o3", CustomerID: "c1", Status: "created", PurchasedAt: ts("2018-01-01 00:00:00")},
		}

		merged := MergeFacts(prior, fresh)
		if len(merged) != 3 {
			t.Fatalf("expected 3 rows after merge, got %d", len(merged))
		}
		if merged[0].Status != "canceled" {
			t.Errorf("expected o1 refreshed in place, got status %s", merged[0].Status)
		}
		if merged[2].OrderID != "o3" {
			t.Errorf("expected o3 appended, got %s", merged[2].OrderID)
		}
	})
}

func TestWatermark(t *testing.T) {
	facts := BuildFacts(snapshotFixture(), nil)
	wm := Watermark(facts)
	if wm == nil || !wm.Equal(ts("2017-11-05 09:00:00")) {
		t.Errorf("expected watermark 2017-11-05, got %v", wm)
	}
	if Watermark(nil) != nil {
		t.Error("empty facts must have nil watermark")
	}
}
