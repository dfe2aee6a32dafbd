package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dbdesign/internal/dsl"
)

// ===== META HANDLERS =====

type tableListItem struct {
	Name    string `json:"name"`
	File    string `json:"file"`
	Columns int    `json:"columns"`
	Indexes int    `json:"indexes"`
	FKs     int    `json:"fks"`
}

// GET /api/migrations/tables
func TableListHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		reg, err := storage.Snapshot()
		if err != nil {
			fail(c, http.StatusInternalServerError, "Failed to read migrations", err)
			return
		}
		out := make([]tableListItem, 0, reg.Len())
		for _, t := range reg.Tables() {
			out = append(out, tableListItem{
				Name:    t.Name,
				File:    t.File,
				Columns: t.Columns.Len(),
				Indexes: t.Indexes.Len(),
				FKs:     t.FKs.Len(),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

// GET /api/migrations/tables/:name
func TableHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		reg, err := storage.Snapshot()
		if err != nil {
			fail(c, http.StatusInternalServerError, "Failed to read migrations", err)
			return
		}
		t, ok := findTable(reg, c.Param("name"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// findTable looks a table up by exact name, then case-insensitively when
// exactly one table matches.
func findTable(reg *dsl.Registry, name string) (*dsl.Table, bool) {
	if t, ok := reg.Get(name); ok {
		return t, true
	}
	var found *dsl.Table
	for _, t := range reg.Tables() {
		if strings.EqualFold(t.Name, name) {
			if found != nil {
				return nil, false
			}
			found = t
		}
	}
	return found, found != nil
}
