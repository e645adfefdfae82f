package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/op/go-logging"

	"github.com/azniosman/project-samba-insight/internal/config"
	"github.com/azniosman/project-samba-insight/internal/marts"
	"github.com/azniosman/project-samba-insight/internal/source"
	"github.com/azniosman/project-samba-insight/internal/staging"
	"github.com/azniosman/project-samba-insight/internal/storage"
	"github.com/azniosman/project-samba-insight/internal/warehouse"
)

var log = logging.MustGetLogger("pipeline")

// Engine orchestrates one warehouse build: load, stage, model, persist.
type Engine struct {
	cfg   *config.Config
	store *storage.Store
	load  func(dir string) (*source.Dataset, error)
	now   func() time.Time
}

// Deps holds dependencies for constructing an Engine.
type Deps struct {
	Config *config.Config
	Store  *storage.Store
	Load   func(dir string) (*source.Dataset, error)
	Now    func() time.Time
}

// New opens the configured warehouse database and returns a ready engine.
func New(cfg *config.Config) (*Engine, error) {
	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}
	return NewWithDeps(Deps{Config: cfg, Store: store}), nil
}

// NewWithDeps creates an engine with explicit dependencies (for testing).
func NewWithDeps(deps Deps) *Engine {
	e := &Engine{
		cfg:   deps.Config,
		store: deps.Store,
		load:  deps.Load,
		now:   deps.Now,
	}
	if e.load == nil {
		e.load = source.LoadDataset
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Close releases the underlying store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store exposes the warehouse store to downstream consumers (quality
// runner, HTTP API).
func (e *Engine) Store() *storage.Store {
	return e.store
}

// BuildResult summarizes one completed build.
type BuildResult struct {
	RunID       string
	FullRebuild bool
	FactsBuilt  int
	TotalFacts  int
	Duration    time.Duration
	TableCounts map[string]int
}

// Build runs the full pipeline. With fullRebuild false only orders past
// the stored fact watermark are re-derived; dimensions and marts are
// always rebuilt from the merged fact set.
func (e *Engine) Build(ctx context.Context, fullRebuild bool) (*BuildResult, error) {
	started := e.now()
	runID := uuid.NewString()

	result, err := e.build(ctx, fullRebuild, runID)
	finished := e.now()

	run := storage.BuildRun{
		ID:          runID,
		StartedAt:   started,
		FinishedAt:  finished,
		FullRebuild: fullRebuild,
	}
	if err != nil {
		run.Error = err.Error()
	} else {
		run.FactsBuilt = result.FactsBuilt
	}
	if wm, wmErr := e.store.FactWatermark(); wmErr == nil {
		run.SourceLatest = wm
	}
	if recErr := e.store.RecordRun(run); recErr != nil {
		log.Errorf("record build run: %v", recErr)
	}

	if err != nil {
		return nil, err
	}
	result.Duration = finished.Sub(started)
	return result, nil
}

func (e *Engine) build(ctx context.Context, fullRebuild bool, runID string) (*BuildResult, error) {
	log.Infof("build %s starting (full_rebuild=%v, data=%s)", runID, fullRebuild, e.cfg.Data.Dir)

	ds, err := e.load(e.cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("load source data: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := staging.Normalize(ds)
	log.Infof("staged %d orders, %d items, %d customers", len(snap.Orders), len(snap.Items), len(snap.Customers))

	var after *time.Time
	var prior []warehouse.FactOrder
	if !fullRebuild {
		after, err = e.store.FactWatermark()
		if err != nil {
			return nil, fmt.Errorf("read watermark: %w", err)
		}
		prior, err = e.store.LoadFacts()
		if err != nil {
			return nil, fmt.Errorf("load prior facts: %w", err)
		}
	}

	fresh := warehouse.BuildFacts(snap, after)
	facts := warehouse.MergeFacts(prior, fresh)
	if after != nil {
		log.Infof("incremental build: %d new facts past %s, %d total", len(fresh), after.Format("2006-01-02 15:04:05"), len(facts))
	} else {
		log.Infof("full build: %d facts", len(facts))
	}
	if err := e.store.UpsertFacts(fresh); err != nil {
		return nil, fmt.Errorf("persist facts: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	customerDims := warehouse.BuildCustomerDim(snap.Customers, facts)
	productDims := warehouse.BuildProductDim(snap.Products, snap.Items, snap.CategoryNames)
	sellerDims := warehouse.BuildSellerDim(snap.Sellers, snap.Items)
	dateDims := warehouse.BuildDateDim(facts)

	if err := e.store.ReplaceCustomerDims(customerDims); err != nil {
		return nil, fmt.Errorf("persist dim_customer: %w", err)
	}
	if err := e.store.ReplaceProductDims(productDims); err != nil {
		return nil, fmt.Errorf("persist dim_product: %w", err)
	}
	if err := e.store.ReplaceSellerDims(sellerDims); err != nil {
		return nil, fmt.Errorf("persist dim_seller: %w", err)
	}
	if err := e.store.ReplaceDateDims(dateDims); err != nil {
		return nil, fmt.Errorf("persist dim_date: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	orderCategories := orderCategoryRevenue(snap.Items, productDims)

	// Churn recency is measured against the newest purchase in the data,
	// not the wall clock, so historical extracts score sensibly.
	scoringTime := e.now()
	if wm := warehouse.Watermark(facts); wm != nil {
		scoringTime = *wm
	}

	monthly := marts.BuildCohorts(facts, marts.GranularityMonth)
	quarterly := marts.BuildCohorts(facts, marts.GranularityQuarter)
	churn := marts.ScoreChurn(facts, scoringTime)
	geo := marts.BuildGeoPerformance(facts)
	categories := marts.BuildCategoryPerformance(facts, orderCategories)
	economics := marts.BuildUnitEconomics(facts, marts.StaticCAC{
		Default: e.cfg.Economics.DefaultCAC,
		ByState: e.cfg.Economics.CACByState,
	})
	executive := marts.BuildExecutiveRollup(marts.ExecutiveInputs{
		Facts:            facts,
		QuarterlyCohorts: quarterly,
		Churn:            churn,
		OrderCategories:  orderCategories,
	})

	if err := e.store.ReplaceCohorts(marts.GranularityMonth, monthly); err != nil {
		return nil, fmt.Errorf("persist monthly cohorts: %w", err)
	}
	if err := e.store.ReplaceCohorts(marts.GranularityQuarter, quarterly); err != nil {
		return nil, fmt.Errorf("persist quarterly cohorts: %w", err)
	}
	if err := e.store.ReplaceChurn(churn); err != nil {
		return nil, fmt.Errorf("persist churn mart: %w", err)
	}
	if err := e.store.ReplaceGeo(geo); err != nil {
		return nil, fmt.Errorf("persist geo mart: %w", err)
	}
	if err := e.store.ReplaceCategories(categories); err != nil {
		return nil, fmt.Errorf("persist category mart: %w", err)
	}
	if err := e.store.ReplaceEconomics(economics); err != nil {
		return nil, fmt.Errorf("persist economics mart: %w", err)
	}
	if err := e.store.ReplaceExecutive(executive); err != nil {
		return nil, fmt.Errorf("persist executive mart: %w", err)
	}

	counts, err := e.store.TableCounts()
	if err != nil {
		return nil, fmt.Errorf("count tables: %w", err)
	}

	log.Infof("build %s complete: %d facts written, %d total", runID, len(fresh), len(facts))
	return &BuildResult{
		RunID:       runID,
		FullRebuild: fullRebuild,
		FactsBuilt:  len(fresh),
		TotalFacts:  len(facts),
		TableCounts: counts,
	}, nil
}

// orderCategoryRevenue maps order ID to category label to item revenue
// (price plus freight). Labels come from the product dimension, which
// already falls back to "unknown" for uncategorized products.
func orderCategoryRevenue(items []staging.OrderItem, products []warehouse.ProductDim) map[string]map[string]float64 {
	labels := make(map[string]string, len(products))
	for _, p := range products {
		labels[p.ProductID] = p.CategoryEnglish
	}

	out := make(map[string]map[string]float64)
	for _, item := range items {
		label, ok := labels[item.ProductID]
		if !ok || label == "" {
			label = "unknown"
		}
		if out[item.OrderID] == nil {
			out[item.OrderID] = make(map[string]float64)
		}
		out[item.OrderID][label] += item.Price + item.FreightValue
	}
	return out
}
