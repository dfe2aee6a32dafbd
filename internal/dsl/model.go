package dsl

// Column describes one table column. A nil column or one without a type is a
// drop marker inside an alter declaration.
type Column struct {
	Name          string `json:"name"`
	Type          string `json:"type"`   // storage type: VARCHAR, INT, ...
	Length        string `json:"length"` // not populated by extraction
	PrimaryKey    bool   `json:"pk"`
	NotNull       bool   `json:"nn"`
	Unique        bool   `json:"uq"`
	Binary        bool   `json:"b"`
	Unsigned      bool   `json:"un"`
	ZeroFill      bool   `json:"zf"`
	AutoIncrement bool   `json:"ai"`
	Generated     bool   `json:"g"`
	Default       string `json:"default"`
}

// Dropped reports whether the entry asks for the column to be removed.
func (c *Column) Dropped() bool {
	return c == nil || c.Type == ""
}

type IndexColumn struct {
	Name string `json:"name"`
}

// Index is keyed by "<method>_<raw column list>".
type Index struct {
	Name    string        `json:"name"`
	Columns []IndexColumn `json:"columns"`
}

// ForeignKey is keyed by "fk_<column>".
type ForeignKey struct {
	Name             string `json:"name"`
	Column           string `json:"column"`
	ReferencedTable  string `json:"referencedTable"`
	ReferencedColumn string `json:"referencedColumn"`
	OnDelete         string `json:"onDelete,omitempty"`
	OnUpdate         string `json:"onUpdate,omitempty"`
}

// Modeling is the diagram layout carried in the migration doc comment.
// Values are opaque ("50px").
type Modeling struct {
	Left   string `json:"left"`
	Top    string `json:"top"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

func DefaultModeling() *Modeling {
	return &Modeling{Left: "50px", Top: "50px", Width: "200px", Height: "300px"}
}

// Table is the accumulated state of one table.
type Table struct {
	Name     string                  `json:"name"`
	Columns  OrderedMap[*Column]     `json:"columns"`
	Indexes  OrderedMap[*Index]      `json:"indexes"`
	FKs      OrderedMap[*ForeignKey] `json:"fks"`
	File     string                  `json:"file"`
	Modeling *Modeling               `json:"modeling"`
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, File: t.File}
	for _, k := range t.Columns.Keys() {
		c, _ := t.Columns.Get(k)
		if c != nil {
			cc := *c
			c = &cc
		}
		out.Columns.Set(k, c)
	}
	for _, k := range t.Indexes.Keys() {
		ix, _ := t.Indexes.Get(k)
		if ix != nil {
			cp := *ix
			cp.Columns = append([]IndexColumn(nil), ix.Columns...)
			ix = &cp
		}
		out.Indexes.Set(k, ix)
	}
	for _, k := range t.FKs.Keys() {
		fk, _ := t.FKs.Get(k)
		if fk != nil {
			cp := *fk
			fk = &cp
		}
		out.FKs.Set(k, fk)
	}
	if t.Modeling != nil {
		m := *t.Modeling
		out.Modeling = &m
	}
	return out
}
