package pg

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// duplicate_object, duplicate_table
var skippable = map[string]bool{"42710": true, "42P07": true}

// ApplyDDL executes the groups of GenerateDDL in key order. Statements that
// fail because the object already exists are skipped.
func ApplyDDL(ctx context.Context, db *sql.DB, ddl map[string]string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	keys := make([]string, 0, len(ddl))
	for k := range ddl {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, stmt := range splitStatements(ddl[k]) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && skippable[pgErr.Code] {
					log.Info("DDL skipped (already exists)",
						zap.String("group", k), zap.String("code", pgErr.Code),
						zap.String("message", strings.TrimSpace(pgErr.Message)))
					continue
				}
				return errors.Wrapf(err, "DDL apply failed (%s)", k)
			}
		}
	}
	return nil
}

// splitStatements splits on statement terminators at line ends, which is
// how GenerateDDL writes them.
func splitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";\n") {
		if s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(part), ";")); s != "" {
			out = append(out, s)
		}
	}
	return out
}
