package quality

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FormatReport renders a quality run as an operator-facing text report.
func FormatReport(report *Report) string {
	var b strings.Builder

	b.WriteString("Warehouse Data Quality Report\n")
	b.WriteString("=============================\n\n")

	check := func(ok bool) string {
		if ok {
			return "✓"
		}
		return "✗"
	}

	passed, warned, failed := 0, 0, 0
	for _, res := range report.Results {
		switch {
		case res.Passed:
			passed++
		case res.Check.Severity == SeverityWarn:
			warned++
		default:
			failed++
		}
	}
	fmt.Fprintf(&b, "Checks: %d passed, %d warned, %d failed\n\n", passed, warned, failed)

	for _, res := range report.Results {
		if res.Passed {
			continue
		}
		if res.Err != "" {
			fmt.Fprintf(&b, "  ✗ %-48s error: %s\n", res.Check.Name, res.Err)
			continue
		}
		fmt.Fprintf(&b, "  %s %-48s %d violations (%s)\n",
			check(false), res.Check.Name, res.Failures, res.Check.Severity)
	}
	if failed == 0 && warned == 0 {
		b.WriteString("  ✓ all checks clean\n")
	}

	if f := report.Freshness; f != nil {
		b.WriteString("\nSource Freshness:\n")
		if f.LatestPurchase == nil {
			b.WriteString("  ✗ no fact rows materialized\n")
		} else {
			fmt.Fprintf(&b, "  %s latest purchase %s (%.1fh old, status=%s)\n",
				check(f.Status == "fresh"),
				f.LatestPurchase.Format("2006-01-02 15:04:05"),
				f.Age.Hours(), f.Status)
		}
	}

	if h := report.Health; h != nil {
		b.WriteString("\nData Health:\n")
		fmt.Fprintf(&b, "  orders total:          %d\n", h.TotalOrders)
		fmt.Fprintf(&b, "  orders delivered:      %d\n", h.DeliveredOrders)
		if h.AvgDeliveryDays != nil {
			fmt.Fprintf(&b, "  avg delivery days:     %.1f\n", *h.AvgDeliveryDays)
		}
		fmt.Fprintf(&b, "  payment mismatches:    %d\n", h.PaymentMismatch)
		fmt.Fprintf(&b, "  quality-flagged:       %d\n", h.QualityIssues)
		fmt.Fprintf(&b, "  delivered, no review:  %d\n", h.MissingReviews)

		b.WriteString("  status breakdown:\n")
		for _, status := range sortedKeys(h.StatusBreakdown) {
			n := h.StatusBreakdown[status]
			pct := 0.0
			if h.TotalOrders > 0 {
				pct = float64(n) / float64(h.TotalOrders) * 100
			}
			fmt.Fprintf(&b, "    %-14s %6d  %5.1f%%\n", status, n, pct)
		}

		b.WriteString("  delivery speed:\n")
		for _, bucket := range deliveryBuckets {
			stats := h.DeliveryBuckets[bucket.label]
			review := "n/a"
			if stats.AvgReview != nil {
				review = fmt.Sprintf("%.2f", *stats.AvgReview)
			}
			fmt.Fprintf(&b, "    %-14s %6d  avg review %s\n", bucket.label, stats.Orders, review)
		}
	}

	b.WriteString("\n")
	if report.Passed() {
		b.WriteString("Quality Verdict: PASS\n")
	} else {
		b.WriteString("Quality Verdict: FAIL (see details above)\n")
	}

	return b.String()
}

// FormatJSON returns the report as indented JSON.
func FormatJSON(report *Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
