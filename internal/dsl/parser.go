package dsl

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"

	"dbdesign/internal/typemap"
)

// blueprintVar is the closure parameter the column statements are called on.
const blueprintVar = "$table"

type Action string

const (
	ActionNone   Action = "none"
	ActionCreate Action = "create"
	ActionAlter  Action = "alter"
	ActionRename Action = "rename"
	ActionDrop   Action = "drop"
)

type ColumnRename struct {
	From string
	To   string
}

// Declaration is what one migration document says about one table.
type Declaration struct {
	Action Action
	Table  string

	// rename only
	OldName string
	NewName string

	Columns  OrderedMap[*Column]
	Indexes  OrderedMap[*Index]
	FKs      OrderedMap[*ForeignKey]
	Renames  []ColumnRename
	Modeling *Modeling
}

// Extractor pulls declarations out of migration documents.
type Extractor struct {
	vocab *typemap.Vocabulary
}

func NewExtractor(vocab *typemap.Vocabulary) *Extractor {
	if vocab == nil {
		vocab = typemap.Default()
	}
	return &Extractor{vocab: vocab}
}

// Extract reads one document. Statements it does not recognize are skipped;
// a document with no table statement at all yields ErrParseMismatch.
func (e *Extractor) Extract(text string) (*Declaration, error) {
	toks, err := tokenize(text)
	if err != nil {
		return &Declaration{Action: ActionNone}, errors.Wrap(ErrParseMismatch, err.Error())
	}
	s := &scanner{
		text:   text,
		toks:   toks,
		vocab:  e.vocab,
		schema: map[string][]string{},
	}
	s.run()
	return s.declaration()
}

type scanner struct {
	text  string
	toks  []lexer.Token
	vocab *typemap.Vocabulary

	schema   map[string][]string // first Schema::<method>(...) string args, by method
	columns  OrderedMap[*Column]
	indexes  OrderedMap[*Index]
	fks      OrderedMap[*ForeignKey]
	renames  []ColumnRename
	modeling *Modeling
}

type call struct {
	name string
	args []lexer.Token
}

func (s *scanner) tok(i int) lexer.Token {
	if i < 0 || i >= len(s.toks) {
		return lexer.Token{Type: lexer.EOF}
	}
	return s.toks[i]
}

func (s *scanner) is(i int, typ lexer.TokenType, value string) bool {
	t := s.tok(i)
	return t.Type == typ && t.Value == value
}

func (s *scanner) punct(i int, value string) bool { return s.is(i, tokPunct, value) }

func (s *scanner) str(i int) (string, bool) {
	t := s.tok(i)
	if t.Type != tokString {
		return "", false
	}
	return unquote(t.Value), true
}

func (s *scanner) run() {
	for i := 0; i < len(s.toks); {
		t := s.toks[i]
		switch {
		case t.Type == tokComment:
			if s.modeling == nil {
				s.modeling = parseModeling(t.Value)
			}
		case t.Type == tokIdent && t.Value == "function" && s.is(i+1, tokIdent, "down") && s.punct(i+2, "("):
			// down() undoes up(); its statements say nothing about the table state
			i = s.skipBody(i + 3)
			continue
		case t.Type == tokIdent && t.Value == "Schema":
			if next, ok := s.schemaCall(i); ok {
				i = next
				continue
			}
		case t.Type == tokVariable && t.Value == blueprintVar:
			if next, ok := s.blueprintCall(i); ok {
				i = next
				continue
			}
		}
		i++
	}
}

// skipBody returns the index after the brace block that starts at or after j.
func (s *scanner) skipBody(j int) int {
	for j < len(s.toks) && !s.punct(j, "{") {
		j++
	}
	depth := 0
	for ; j < len(s.toks); j++ {
		switch {
		case s.punct(j, "{"):
			depth++
		case s.punct(j, "}"):
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return j
}

func (s *scanner) declaration() (*Declaration, error) {
	d := &Declaration{Modeling: s.modeling}
	if args, ok := s.schema["create"]; ok {
		d.Action, d.Table = ActionCreate, args[0]
	} else if args, ok := s.schema["table"]; ok {
		d.Action, d.Table = ActionAlter, args[0]
	} else if args, ok := s.schema["rename"]; ok && len(args) >= 2 {
		return &Declaration{Action: ActionRename, Table: args[1], OldName: args[0], NewName: args[1]}, nil
	} else if args, ok := s.schema["dropIfExists"]; ok {
		return &Declaration{Action: ActionDrop, Table: args[0]}, nil
	} else if args, ok := s.schema["drop"]; ok {
		return &Declaration{Action: ActionDrop, Table: args[0]}, nil
	} else {
		return &Declaration{Action: ActionNone}, ErrParseMismatch
	}
	d.Columns = s.columns
	d.Indexes = s.indexes
	d.FKs = s.fks
	d.Renames = s.renames
	return d, nil
}

// Schema::<method>('<a>'[, '<b>' ...]
func (s *scanner) schemaCall(i int) (int, bool) {
	if !s.is(i+1, tokScope, "::") || s.tok(i+2).Type != tokIdent || !s.punct(i+3, "(") {
		return 0, false
	}
	method := s.tok(i + 2).Value
	j := i + 4
	var args []string
	for {
		v, ok := s.str(j)
		if !ok {
			break
		}
		args = append(args, v)
		j++
		if !s.punct(j, ",") {
			break
		}
		j++
	}
	if len(args) == 0 {
		return 0, false
	}
	if _, seen := s.schema[method]; !seen {
		s.schema[method] = args
	}
	return j, true
}

// $table-><method>(...) ... ;
func (s *scanner) blueprintCall(i int) (int, bool) {
	if !s.is(i+1, tokArrow, "->") || s.tok(i+2).Type != tokIdent || !s.punct(i+3, "(") {
		return 0, false
	}
	method := s.tok(i + 2).Value
	j := i + 4
	switch {
	case s.punct(j, "["):
		return s.indexDecl(method, j)
	case method == "foreign":
		return s.foreignDecl(j)
	case method == "renameColumn":
		return s.renameDecl(j)
	default:
		return s.columnDecl(method, j)
	}
}

func (s *scanner) columnDecl(method string, j int) (int, bool) {
	name, ok := s.str(j)
	if !ok || !s.punct(j+1, ")") {
		return 0, false
	}
	mods, end, ok := s.chain(j + 2)
	if !ok {
		return 0, false
	}
	if method == "dropColumn" {
		s.columns.Set(name, &Column{Name: name})
		return end, true
	}

	typ, unsigned := s.vocab.ToStorage(method)
	col := &Column{Name: name, Type: typ, Unsigned: unsigned, NotNull: true}
	for _, m := range mods {
		switch m.name {
		case "primary":
			col.PrimaryKey = col.PrimaryKey || len(m.args) == 0
		case "unique":
			col.Unique = col.Unique || len(m.args) == 0
		case "autoIncrement":
			col.AutoIncrement = col.AutoIncrement || len(m.args) == 0
		case "nullable":
			if len(m.args) == 0 || (len(m.args) == 1 && m.args[0].Type == tokIdent && m.args[0].Value == "true") {
				col.NotNull = false
			}
		}
	}
	s.columns.Set(name, col)
	return end, true
}

var quoteStripper = strings.NewReplacer("'", "", `"`, "")

// $table-><method>(['a', 'b'])...; the key keeps the bracket text verbatim
// apart from quotes, so spacing differences give different keys.
func (s *scanner) indexDecl(method string, j int) (int, bool) {
	open := s.tok(j)
	k := j + 1
	var cols []IndexColumn
	for {
		v, ok := s.str(k)
		if !ok {
			break
		}
		cols = append(cols, IndexColumn{Name: strings.TrimSpace(v)})
		k++
		if !s.punct(k, ",") {
			break
		}
		k++
	}
	if len(cols) == 0 || !s.punct(k, "]") || !s.punct(k+1, ")") {
		return 0, false
	}
	closing := s.tok(k)
	_, end, ok := s.chain(k + 2)
	if !ok {
		return 0, false
	}

	if method == "dropColumn" {
		for _, c := range cols {
			s.columns.Set(c.Name, &Column{Name: c.Name})
		}
		return end, true
	}
	key := method + "_" + quoteStripper.Replace(s.text[open.Pos.Offset+1:closing.Pos.Offset])
	s.indexes.Set(key, &Index{Name: key, Columns: cols})
	return end, true
}

// $table->foreign('c')->references('rc')->on('rt');
// Any further call after on() (onDelete, onUpdate) leaves the statement unmatched.
func (s *scanner) foreignDecl(j int) (int, bool) {
	col, ok := s.str(j)
	if !ok || !s.punct(j+1, ")") {
		return 0, false
	}
	refCol, k, ok := s.callArg(j+2, "references")
	if !ok {
		return 0, false
	}
	refTable, k, ok := s.callArg(k, "on")
	if !ok || !s.punct(k, ";") {
		return 0, false
	}
	end := k + 1
	key := "fk_" + col
	s.fks.Set(key, &ForeignKey{
		Name:             key,
		Column:           col,
		ReferencedTable:  refTable,
		ReferencedColumn: refCol,
	})
	return end, true
}

// $table->renameColumn('old', 'new');
func (s *scanner) renameDecl(j int) (int, bool) {
	from, ok := s.str(j)
	if !ok || !s.punct(j+1, ",") {
		return 0, false
	}
	to, ok := s.str(j + 2)
	if !ok || !s.punct(j+3, ")") || !s.punct(j+4, ";") {
		return 0, false
	}
	s.renames = append(s.renames, ColumnRename{From: from, To: to})
	return j + 5, true
}

// ->name('value')
func (s *scanner) callArg(i int, name string) (string, int, bool) {
	if !s.is(i, tokArrow, "->") || !s.is(i+1, tokIdent, name) || !s.punct(i+2, "(") {
		return "", 0, false
	}
	v, ok := s.str(i + 3)
	if !ok || !s.punct(i+4, ")") {
		return "", 0, false
	}
	return v, i + 5, true
}

// chain collects the ->name(args) calls up to the closing semicolon and
// returns the index after it.
func (s *scanner) chain(j int) ([]call, int, bool) {
	var calls []call
	depth := 0
	for ; j < len(s.toks); j++ {
		t := s.toks[j]
		if t.Type == tokPunct {
			switch t.Value {
			case ";":
				if depth <= 0 {
					return calls, j + 1, true
				}
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				depth--
			}
			continue
		}
		if depth != 0 || t.Type != tokArrow || s.tok(j+1).Type != tokIdent || !s.punct(j+2, "(") {
			continue
		}
		c := call{name: s.tok(j + 1).Value}
		k, open := j+3, 1
		for ; k < len(s.toks) && open > 0; k++ {
			switch {
			case s.punct(k, "("):
				open++
			case s.punct(k, ")"):
				open--
			}
			if open > 0 {
				c.args = append(c.args, s.toks[k])
			}
		}
		calls = append(calls, c)
		j = k - 1
	}
	return nil, 0, false
}

var modelingLabels = [...]string{"Left", "Top", "Width", "Height"}

// parseModeling reads the "Modeling information:" doc comment, nil otherwise.
func parseModeling(comment string) *Modeling {
	if !strings.HasPrefix(comment, "/**") {
		return nil
	}
	body := strings.TrimSuffix(strings.TrimPrefix(comment, "/**"), "*/")
	var lines []string
	for _, l := range strings.Split(body, "\n") {
		l = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "*"))
		if l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) != 1+len(modelingLabels) || lines[0] != "Modeling information:" {
		return nil
	}
	var vals [len(modelingLabels)]string
	for i, label := range modelingLabels {
		v, ok := strings.CutPrefix(lines[i+1], label+":")
		v = strings.TrimSpace(v)
		if !ok || v == "" || strings.ContainsAny(v, " \t") {
			return nil
		}
		vals[i] = v
	}
	return &Modeling{Left: vals[0], Top: vals[1], Width: vals[2], Height: vals[3]}
}
