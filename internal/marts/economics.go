package marts

import (
	"sort"

	"github.com/azniosman/project-samba-insight/internal/warehouse"
)

// CACProvider supplies the customer acquisition cost for a state. Real
// marketing spend is an external input; nothing in this module hardcodes
// per-state figures.
type CACProvider interface {
	CAC(state string) float64
}

// StaticCAC is a table-backed CACProvider, typically loaded from config.
type StaticCAC struct {
	Default float64
	ByState map[string]float64
}

func (s StaticCAC) CAC(state string) float64 {
	if v, ok := s.ByState[state]; ok {
		return v
	}
	return s.Default
}

// EconomicsRow is one row of mart_unit_economics, one per customer state.
type EconomicsRow struct {
	State     string  `json:"customer_state"`
	Customers int     `json:"customers"`
	Orders    int     `json:"orders"`
	Revenue   float64 `json:"revenue"`

	LTV         *float64 `json:"ltv"`
	CAC         float64  `json:"cac"`
	LTVCACRatio *float64 `json:"ltv_cac_ratio"`
	Viability   string   `json:"viability"`
}

// BuildUnitEconomics computes LTV per state from countable orders and
// pairs it with the provided acquisition cost.
func BuildUnitEconomics(facts []warehouse.FactOrder, cac CACProvider) []EconomicsRow {
	type econAgg struct {
		revenue   float64
		orders    int
		customers map[string]struct{}
	}
	byState := make(map[string]*econAgg)
	for _, f := range facts {
		if !f.IsCountable() {
			continue
		}
		state := stateOrUnknown(f.CustomerState)
		agg := byState[state]
		if agg == nil {
			agg = &econAgg{customers: make(map[string]struct{})}
			byState[state] = agg
		}
		agg.revenue += f.TotalOrderValue
		agg.orders++
		agg.customers[f.CustomerID] = struct{}{}
	}

	rows := make([]EconomicsRow, 0, len(byState))
	for state, agg := range byState {
		row := EconomicsRow{
			State:     state,
			Customers: len(agg.customers),
			Orders:    agg.orders,
			Revenue:   agg.revenue,
			LTV:       divide(agg.revenue, float64(len(agg.customers))),
			CAC:       cac.CAC(state),
		}
		if row.LTV != nil {
			row.LTVCACRatio = divide(*row.LTV, row.CAC)
		}
		row.Viability = viability(row.LTVCACRatio)
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].State < rows[j].State })
	return rows
}

func viability(ratio *float64) string {
	switch {
	case ratio == nil:
		return "unknown"
	case *ratio >= 3:
		return "healthy"
	case *ratio >= 1:
		return "marginal"
	default:
		return "unprofitable"
	}
}
