package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"dbdesign/internal/dsl"
	"dbdesign/internal/typemap"
)

type SchemaIssue struct {
	Table   string `json:"table"`
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SchemaLint reports references that do not resolve inside the snapshot.
// Issues are informational; the snapshot itself is still valid.
func SchemaLint(reg *dsl.Registry, vocab *typemap.Vocabulary) []SchemaIssue {
	issues := []SchemaIssue{}

	for _, t := range reg.Tables() {
		autoIncrements := 0
		for _, k := range t.Columns.Keys() {
			col, _ := t.Columns.Get(k)
			if col.AutoIncrement {
				autoIncrements++
			}
			if !vocab.KnownStorage(col.Type) {
				issues = append(issues, SchemaIssue{
					Table:   t.Name,
					Field:   k,
					Code:    "type_unmapped",
					Message: fmt.Sprintf("type %s has no builder method and renders as %s", col.Type, typemap.FallbackFramework),
				})
			}
		}
		if autoIncrements > 1 {
			issues = append(issues, SchemaIssue{
				Table:   t.Name,
				Code:    "multiple_auto_increment",
				Message: fmt.Sprintf("%d auto-increment columns; only one is allowed", autoIncrements),
			})
		}

		for _, k := range t.Indexes.Keys() {
			ix, _ := t.Indexes.Get(k)
			for _, ic := range ix.Columns {
				if !t.Columns.Has(ic.Name) {
					issues = append(issues, SchemaIssue{
						Table:   t.Name,
						Field:   ic.Name,
						Code:    "index_column_unknown",
						Message: fmt.Sprintf("index %q uses unknown column %q", k, ic.Name),
					})
				}
			}
		}

		for _, k := range t.FKs.Keys() {
			fk, _ := t.FKs.Get(k)
			if !t.Columns.Has(fk.Column) {
				issues = append(issues, SchemaIssue{
					Table:   t.Name,
					Field:   fk.Column,
					Code:    "fk_column_unknown",
					Message: fmt.Sprintf("foreign key column %q is not declared", fk.Column),
				})
			}
			ref, ok := reg.Get(fk.ReferencedTable)
			switch {
			case !ok:
				issues = append(issues, SchemaIssue{
					Table:   t.Name,
					Field:   fk.Column,
					Code:    "fk_table_unknown",
					Message: fmt.Sprintf("references unknown table %q", fk.ReferencedTable),
				})
			case !ref.Columns.Has(fk.ReferencedColumn):
				issues = append(issues, SchemaIssue{
					Table:   t.Name,
					Field:   fk.Column,
					Code:    "fk_column_missing",
					Message: fmt.Sprintf("references unknown column %s.%s", fk.ReferencedTable, fk.ReferencedColumn),
				})
			}
		}
	}
	return issues
}

// GET /api/migrations/lint
func LintHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		reg, err := storage.Snapshot()
		if err != nil {
			fail(c, http.StatusInternalServerError, "Failed to read migrations", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"issues": SchemaLint(reg, storage.Vocabulary())})
	}
}
