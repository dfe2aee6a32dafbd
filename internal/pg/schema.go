package pg

import (
	"fmt"
	"sort"
	"strings"

	"dbdesign/internal/dsl"
)

// Statement groups, applied in key order by ApplyDDL.
const (
	KeyTables      = "000_tables"
	KeyIndexes     = "100_indexes"
	KeyForeignKeys = "200_foreign_keys"
)

var reserved = map[string]struct{}{
	"user": {}, "select": {}, "table": {}, "insert": {}, "update": {}, "delete": {},
	"where": {}, "join": {}, "group": {}, "order": {}, "limit": {}, "offset": {},
	"primary": {}, "foreign": {}, "key": {}, "constraint": {}, "default": {},
	"from": {}, "into": {}, "values": {}, "unique": {}, "index": {}, "create": {},
	"drop": {}, "alter": {}, "schema": {}, "grant": {}, "revoke": {},
}

func isReserved(s string) bool { _, ok := reserved[strings.ToLower(s)]; return ok }

func sqlIdent(s string) string {
	return `"` + strings.ReplaceAll(strings.ToLower(s), `"`, `""`) + `"`
}

// constraint names are not quoted; keep them to identifier characters
func constraintName(parts ...string) string {
	name := strings.ToLower(strings.Join(parts, "_"))
	name = strings.Map(func(r rune) rune {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, name)
	if isReserved(name) {
		name = "c_" + name
	}
	return name
}

// mapType converts a storage (MySQL) column type to PostgreSQL.
func mapType(c *dsl.Column) string {
	switch strings.ToUpper(c.Type) {
	case "VARCHAR":
		return "varchar(" + lengthOr(c, "255") + ")"
	case "CHAR":
		return "char(" + lengthOr(c, "255") + ")"
	case "TEXT", "MEDIUMTEXT", "LONGTEXT", "ENUM":
		return "text"
	case "INT", "MEDIUMINT":
		return "integer"
	case "BIGINT":
		return "bigint"
	case "TINYINT", "SMALLINT", "YEAR":
		return "smallint"
	case "FLOAT":
		return "real"
	case "DOUBLE":
		return "double precision"
	case "DECIMAL":
		return "numeric(" + lengthOr(c, "8,2") + ")"
	case "DATE":
		return "date"
	case "DATETIME", "TIMESTAMP":
		return "timestamp(0) without time zone"
	case "TIME":
		return "time(0) without time zone"
	case "BLOB":
		return "bytea"
	case "JSON":
		return "json"
	case "BOOLEAN":
		return "boolean"
	default:
		return "text"
	}
}

func lengthOr(c *dsl.Column, def string) string {
	if l := strings.TrimSpace(c.Length); l != "" {
		return l
	}
	return def
}

func columnDef(c *dsl.Column) string {
	var b strings.Builder
	b.WriteString(sqlIdent(c.Name))
	b.WriteByte(' ')
	typ := mapType(c)
	b.WriteString(typ)
	identity := c.AutoIncrement && (typ == "integer" || typ == "bigint" || typ == "smallint")
	if identity {
		b.WriteString(" generated by default as identity")
	}
	// primary keys and identity columns are implicitly not null
	if c.NotNull || c.PrimaryKey || identity {
		b.WriteString(" not null")
	}
	if c.Default != "" && !identity {
		fmt.Fprintf(&b, " default '%s'", strings.ReplaceAll(c.Default, "'", "''"))
	}
	return b.String()
}

// GenerateDDL renders the registry as PostgreSQL statements grouped by phase:
// tables first, then indexes, then foreign keys once every table exists.
// Tables are emitted in name order.
func GenerateDDL(reg *dsl.Registry) map[string]string {
	names := reg.Names()
	sort.Strings(names)

	var tables, indexes, fks strings.Builder
	for _, name := range names {
		t, _ := reg.Get(name)

		var cols, pk []string
		for _, k := range t.Columns.Keys() {
			c, _ := t.Columns.Get(k)
			if c.Dropped() {
				continue
			}
			cols = append(cols, columnDef(c))
			if c.PrimaryKey {
				pk = append(pk, sqlIdent(c.Name))
			}
		}
		if len(pk) > 0 {
			cols = append(cols, "primary key ("+strings.Join(pk, ", ")+")")
		}
		fmt.Fprintf(&tables, "create table if not exists %s (\n  %s\n);\n",
			sqlIdent(name), strings.Join(cols, ",\n  "))

		for _, k := range t.Columns.Keys() {
			c, _ := t.Columns.Get(k)
			if c.Dropped() || !c.Unique {
				continue
			}
			fmt.Fprintf(&indexes, "create unique index if not exists %s on %s(%s);\n",
				constraintName(name, c.Name, "uq"), sqlIdent(name), sqlIdent(c.Name))
		}
		for _, k := range t.Indexes.Keys() {
			ix, _ := t.Indexes.Get(k)
			if ix == nil || len(ix.Columns) == 0 {
				continue
			}
			kind := "index"
			if strings.HasPrefix(k, "unique_") {
				kind = "unique index"
			}
			parts := make([]string, 0, len(ix.Columns))
			colNames := make([]string, 0, len(ix.Columns))
			for _, ic := range ix.Columns {
				parts = append(parts, sqlIdent(ic.Name))
				colNames = append(colNames, ic.Name)
			}
			fmt.Fprintf(&indexes, "create %s if not exists %s on %s(%s);\n",
				kind, constraintName(name, strings.Join(colNames, "_"), "idx"),
				sqlIdent(name), strings.Join(parts, ", "))
		}

		for _, k := range t.FKs.Keys() {
			fk, _ := t.FKs.Get(k)
			if fk == nil {
				continue
			}
			fmt.Fprintf(&fks, "alter table %s add constraint %s foreign key (%s) references %s(%s)",
				sqlIdent(name), constraintName(name, fk.Column, "fk"),
				sqlIdent(fk.Column), sqlIdent(fk.ReferencedTable), sqlIdent(fk.ReferencedColumn))
			if fk.OnDelete != "" {
				fmt.Fprintf(&fks, " on delete %s", strings.ToLower(fk.OnDelete))
			}
			if fk.OnUpdate != "" {
				fmt.Fprintf(&fks, " on update %s", strings.ToLower(fk.OnUpdate))
			}
			fks.WriteString(";\n")
		}
	}

	out := map[string]string{}
	if tables.Len() > 0 {
		out[KeyTables] = tables.String()
	}
	if indexes.Len() > 0 {
		out[KeyIndexes] = indexes.String()
	}
	if fks.Len() > 0 {
		out[KeyForeignKeys] = fks.String()
	}
	return out
}

// Script joins the groups of GenerateDDL in apply order.
func Script(ddl map[string]string) string {
	keys := make([]string, 0, len(ddl))
	for k := range ddl {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "-- %s\n%s", k, ddl[k])
	}
	return b.String()
}
