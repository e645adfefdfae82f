package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/azniosman/project-samba-insight/internal/marts"
)

func (s *Server) handleStatus(c *gin.Context) {
	run, err := s.warehouse.LastRun()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	counts, err := s.warehouse.TableCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	watermark, err := s.warehouse.FactWatermark()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	status := gin.H{
		"success":      true,
		"table_counts": counts,
	}
	if watermark != nil {
		status["fact_watermark"] = watermark.Format(time.RFC3339)
	}
	if run != nil {
		status["last_run"] = gin.H{
			"id":           run.ID,
			"started_at":   run.StartedAt.Format(time.RFC3339),
			"finished_at":  run.FinishedAt.Format(time.RFC3339),
			"full_rebuild": run.FullRebuild,
			"facts_built":  run.FactsBuilt,
			"error":        run.Error,
		}
	}

	c.JSON(http.StatusOK, status)
}

func (s *Server) handleCohorts(c *gin.Context) {
	g := marts.Granularity(c.DefaultQuery("granularity", string(marts.GranularityMonth)))
	if g != marts.GranularityMonth && g != marts.GranularityQuarter {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "granularity must be month or quarter",
		})
		return
	}

	rows, err := s.warehouse.LoadCohorts(g)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	state := strings.ToUpper(c.Query("state"))
	if state != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if row.State == state {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	respondRows(c, rows, len(rows))
}

func (s *Server) handleChurn(c *gin.Context) {
	rows, err := s.warehouse.LoadChurn()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	if segment := c.Query("risk"); segment != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if strings.EqualFold(row.RiskSegment, segment) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	respondRows(c, rows, len(rows))
}

func (s *Server) handleExecutive(c *gin.Context) {
	rows, err := s.warehouse.LoadExecutive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	respondRows(c, rows, len(rows))
}

func (s *Server) handleGeography(c *gin.Context) {
	rows, err := s.warehouse.LoadGeo()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	respondRows(c, rows, len(rows))
}

func (s *Server) handleCategories(c *gin.Context) {
	rows, err := s.warehouse.LoadCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	respondRows(c, rows, len(rows))
}

func (s *Server) handleEconomics(c *gin.Context) {
	rows, err := s.warehouse.LoadEconomics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	respondRows(c, rows, len(rows))
}

func respondRows(c *gin.Context, rows any, count int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   count,
		"rows":    rows,
	})
}
