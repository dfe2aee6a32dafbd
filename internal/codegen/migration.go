// Package codegen renders Laravel migration documents and Eloquent model
// files from change requests.
package codegen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"dbdesign/internal/dsl"
	"dbdesign/internal/typemap"
)

var ErrInvalidRequest = errors.New("invalid change request")

const (
	ActionCreate   = "create"
	ActionModeling = "modeling" // rendered like create
	ActionAlter    = "alter"
	ActionRename   = "rename"
	ActionRemove   = "remove"
)

// ChangeRequest asks for one migration document.
type ChangeRequest struct {
	Action   string                          `json:"action"`
	Name     string                          `json:"name"`
	OldName  string                          `json:"oldName,omitempty"`
	Columns  dsl.OrderedMap[*dsl.Column]     `json:"columns"`
	FKs      dsl.OrderedMap[*dsl.ForeignKey] `json:"fks"`
	Indexes  dsl.OrderedMap[*dsl.Index]      `json:"indexes"`
	Modeling *dsl.Modeling                   `json:"modeling,omitempty"`
}

var (
	// names end up inside PHP single-quoted literals
	identRe    = regexp.MustCompile(`^\w+$`)
	fkActionRe = regexp.MustCompile(`^[A-Za-z]+(?: [A-Za-z]+)*$`)
	// modeling values end up inside a doc comment
	modelingRe = regexp.MustCompile(`^[\w.%-]*$`)
)

func invalid(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidRequest, format, args...)
}

func checkIdent(what, v string) error {
	if !identRe.MatchString(v) {
		return invalid("%s %q must be letters, digits or underscores", what, v)
	}
	return nil
}

// Validate rejects requests that cannot be rendered into a well-formed document.
func (r *ChangeRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name is required")
	}
	switch r.Action {
	case ActionCreate, ActionModeling, ActionAlter, ActionRemove:
	case ActionRename:
		if strings.TrimSpace(r.OldName) == "" {
			return invalid("rename of %q needs oldName", r.Name)
		}
		if err := checkIdent("table", r.OldName); err != nil {
			return err
		}
	default:
		return invalid("unknown action %q", r.Action)
	}
	if err := checkIdent("table", r.Name); err != nil {
		return err
	}

	for _, k := range r.Columns.Keys() {
		if err := checkIdent("column", k); err != nil {
			return err
		}
		if c, _ := r.Columns.Get(k); c != nil && c.Name != "" {
			if err := checkIdent("column", c.Name); err != nil {
				return err
			}
		}
	}
	for _, k := range r.FKs.Keys() {
		fk, _ := r.FKs.Get(k)
		if fk == nil {
			continue
		}
		for _, v := range []string{fk.Column, fk.ReferencedTable, fk.ReferencedColumn} {
			if err := checkIdent("foreign key "+k, v); err != nil {
				return err
			}
		}
		for _, v := range []string{fk.OnDelete, fk.OnUpdate} {
			if v != "" && !fkActionRe.MatchString(v) {
				return invalid("foreign key %s: bad referential action %q", k, v)
			}
		}
	}
	if m := r.Modeling; m != nil {
		for _, v := range []string{m.Left, m.Top, m.Width, m.Height} {
			if !modelingRe.MatchString(v) {
				return invalid("modeling value %q", v)
			}
		}
	}
	return nil
}

const header = `<?php

use Illuminate\Database\Migrations\Migration;
use Illuminate\Database\Schema\Blueprint;
use Illuminate\Support\Facades\Schema;

return new class extends Migration
{
`

// Generator renders migrations. It only depends on its vocabulary.
type Generator struct {
	vocab *typemap.Vocabulary
}

func NewGenerator(vocab *typemap.Vocabulary) *Generator {
	if vocab == nil {
		vocab = typemap.Default()
	}
	return &Generator{vocab: vocab}
}

// Render returns the whole migration document for req.
func (g *Generator) Render(req *ChangeRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(header)
	if m := req.Modeling; m != nil {
		b.WriteString("    /**\n")
		b.WriteString("    * Modeling information:\n")
		fmt.Fprintf(&b, "    * Left: %s\n", m.Left)
		fmt.Fprintf(&b, "    * Top: %s\n", m.Top)
		fmt.Fprintf(&b, "    * Width: %s\n", m.Width)
		fmt.Fprintf(&b, "    * Height: %s\n", m.Height)
		b.WriteString("    */\n")
	}
	b.WriteString("    public function up()\n    {\n")
	b.WriteString(g.Up(req))
	b.WriteString("    }\n\n    public function down()\n    {\n")
	b.WriteString(g.Down(req))
	b.WriteString("    }\n};\n")
	return b.String(), nil
}

// Up returns the body of up().
func (g *Generator) Up(req *ChangeRequest) string {
	var b strings.Builder
	switch req.Action {
	case ActionCreate, ActionModeling:
		fmt.Fprintf(&b, "        Schema::create('%s', function (Blueprint $table) {\n", req.Name)
		for _, k := range req.Columns.Keys() {
			c, _ := req.Columns.Get(k)
			if c.Dropped() {
				continue
			}
			b.WriteString(g.columnLine(k, c))
			b.WriteString(";\n")
		}
		writeForeignKeys(&b, &req.FKs)
		b.WriteString("        });\n")

	case ActionAlter:
		fmt.Fprintf(&b, "        Schema::table('%s', function (Blueprint $table) {\n", req.Name)
		for _, k := range req.Columns.Keys() {
			c, _ := req.Columns.Get(k)
			if c.Dropped() {
				fmt.Fprintf(&b, "            $table->dropColumn('%s');\n", k)
				continue
			}
			b.WriteString(g.columnLine(k, c))
			b.WriteString("->change();\n")
		}
		writeForeignKeys(&b, &req.FKs)
		b.WriteString("        });\n")

	case ActionRename:
		fmt.Fprintf(&b, "        Schema::rename('%s', '%s');\n", req.OldName, req.Name)

	case ActionRemove:
		fmt.Fprintf(&b, "        Schema::dropIfExists('%s');\n", req.Name)
	}
	return b.String()
}

// Down returns the body of down(). Alter and remove are not reversed
// automatically; they get a placeholder comment.
func (g *Generator) Down(req *ChangeRequest) string {
	switch req.Action {
	case ActionCreate, ActionModeling:
		return fmt.Sprintf("        Schema::dropIfExists('%s');\n", req.Name)
	case ActionAlter:
		return "        // Revert the changes made in up()\n"
	case ActionRename:
		return fmt.Sprintf("        Schema::rename('%s', '%s');\n", req.Name, req.OldName)
	case ActionRemove:
		return "        // Recreate the table here if needed\n"
	}
	return ""
}

// columnLine renders "$table->type('name')->modifiers" without terminator.
func (g *Generator) columnLine(key string, c *dsl.Column) string {
	name := c.Name
	if name == "" {
		name = key
	}
	var b strings.Builder
	fmt.Fprintf(&b, "            $table->%s('%s')", g.vocab.ToFramework(c.Type, c.Unsigned), name)
	if c.PrimaryKey {
		b.WriteString("->primary()")
	}
	if !c.NotNull {
		b.WriteString("->nullable()")
	}
	if c.Unique {
		b.WriteString("->unique()")
	}
	if c.AutoIncrement {
		b.WriteString("->autoIncrement()")
	}
	return b.String()
}

func writeForeignKeys(b *strings.Builder, fks *dsl.OrderedMap[*dsl.ForeignKey]) {
	for _, k := range fks.Keys() {
		fk, _ := fks.Get(k)
		if fk == nil {
			continue
		}
		fmt.Fprintf(b, "            $table->foreign('%s')->references('%s')->on('%s')",
			fk.Column, fk.ReferencedColumn, fk.ReferencedTable)
		if fk.OnDelete != "" {
			fmt.Fprintf(b, "->onDelete('%s')", fk.OnDelete)
		}
		if fk.OnUpdate != "" {
			fmt.Fprintf(b, "->onUpdate('%s')", fk.OnUpdate)
		}
		b.WriteString(";\n")
	}
}
