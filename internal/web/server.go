package web

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/azniosman/project-samba-insight/internal/marts"
	"github.com/azniosman/project-samba-insight/internal/storage"
)

// Warehouse is the read surface the API serves. *storage.Store satisfies it.
type Warehouse interface {
	LoadCohorts(g marts.Granularity) ([]marts.CohortRow, error)
	LoadChurn() ([]marts.ChurnRow, error)
	LoadExecutive() ([]marts.ExecutiveRow, error)
	LoadGeo() ([]marts.GeoRow, error)
	LoadCategories() ([]marts.CategoryRow, error)
	LoadEconomics() ([]marts.EconomicsRow, error)
	LastRun() (*storage.BuildRun, error)
	TableCounts() (map[string]int, error)
	FactWatermark() (*time.Time, error)
}

// Server exposes the materialized marts over HTTP, read-only.
type Server struct {
	warehouse Warehouse
	router    *gin.Engine
}

// NewServer creates a new API server.
func NewServer(warehouse Warehouse) *Server {
	router := gin.Default()

	s := &Server{
		warehouse: warehouse,
		router:    router,
	}

	api := router.Group("/api")
	{
		api.GET("/status", s.handleStatus)

		m := api.Group("/marts")
		{
			m.GET("/cohorts", s.handleCohorts)
			m.GET("/churn", s.handleChurn)
			m.GET("/executive", s.handleExecutive)
			m.GET("/geography", s.handleGeography)
			m.GET("/categories", s.handleCategories)
			m.GET("/economics", s.handleEconomics)
		}
	}

	return s
}

// Run starts the API server.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
