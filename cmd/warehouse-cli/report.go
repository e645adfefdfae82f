package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/azniosman/project-samba-insight/internal/storage"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the executive summary from the materialized marts",
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	executive, err := store.LoadExecutive()
	if err != nil {
		return err
	}
	if len(executive) == 0 {
		fmt.Println("No executive rows materialized. Run `warehouse-cli build` first.")
		return nil
	}

	fmt.Println("Executive Summary")
	fmt.Println("=================")
	fmt.Println()
	fmt.Printf("%-8s %12s %8s %10s %8s %8s %8s %7s\n",
		"Quarter", "Revenue", "Orders", "Customers", "QoQ%", "YoY%", "OnTime%", "Health")
	for _, row := range executive {
		fmt.Printf("%d-Q%d %12.2f %8d %10d %8s %8s %8s %7d\n",
			row.Year, row.Quarter, row.Revenue, row.Orders, row.Customers,
			pct(row.QoQGrowthPct), pct(row.YoYGrowthPct), pct(row.OnTimePct),
			row.StrategicHealthScore)
	}

	geo, err := store.LoadGeo()
	if err != nil {
		return err
	}
	if len(geo) > 0 {
		fmt.Println("\nTop Markets:")
		limit := 5
		if len(geo) < limit {
			limit = len(geo)
		}
		for _, row := range geo[:limit] {
			fmt.Printf("  #%d %-4s %12.2f (%s share, %s)\n",
				row.RevenueRank, row.State, row.Revenue,
				pct(row.RevenueSharePct), row.StrategicTier)
		}
	}

	churn, err := store.LoadChurn()
	if err != nil {
		return err
	}
	if len(churn) > 0 {
		byRisk := map[string]int{}
		for _, row := range churn {
			byRisk[row.RiskSegment]++
		}
		fmt.Println("\nChurn Risk:")
		for _, segment := range []string{"Critical", "High", "Medium", "Low", "Healthy"} {
			if n := byRisk[segment]; n > 0 {
				fmt.Printf("  %-10s %d customers\n", segment, n)
			}
		}
	}

	return nil
}

func pct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", *v)
}
