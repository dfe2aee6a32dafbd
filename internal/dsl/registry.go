package dsl

import (
	"sort"

	"go.uber.org/zap"

	"dbdesign/internal/typemap"
)

// Document is one migration file: its identifier (file name) and contents.
type Document struct {
	ID   string
	Text string
}

// SortDocuments orders documents by identifier. Migration file names carry a
// timestamp prefix, so this is also their chronological order.
func SortDocuments(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}

// Registry maps table name to table state for one run.
type Registry struct {
	tables OrderedMap[*Table]
}

func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) Get(name string) (*Table, bool) { return r.tables.Get(name) }

func (r *Registry) Len() int { return r.tables.Len() }

// Names returns table names in the order they entered the registry.
func (r *Registry) Names() []string { return r.tables.Keys() }

// Tables returns the tables in registry order.
func (r *Registry) Tables() []*Table {
	out := make([]*Table, 0, r.tables.Len())
	for _, k := range r.tables.keys {
		out = append(out, r.tables.vals[k])
	}
	return out
}

func (r *Registry) MarshalJSON() ([]byte, error) { return r.tables.MarshalJSON() }

// Accumulator folds documents, in the order given, into a Registry.
type Accumulator struct {
	extractor *Extractor
	log       *zap.Logger
	reg       *Registry
}

func NewAccumulator(vocab *typemap.Vocabulary, log *zap.Logger) *Accumulator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Accumulator{
		extractor: NewExtractor(vocab),
		log:       log,
		reg:       NewRegistry(),
	}
}

func (a *Accumulator) Registry() *Registry { return a.reg }

// Accumulate sorts docs by identifier and folds them into a fresh registry.
// The input slice is not modified.
func Accumulate(docs []Document, vocab *typemap.Vocabulary, log *zap.Logger) *Registry {
	sorted := append([]Document(nil), docs...)
	SortDocuments(sorted)
	a := NewAccumulator(vocab, log)
	for _, d := range sorted {
		a.Apply(d)
	}
	return a.Registry()
}

// Apply folds one document and returns the action it declared.
func (a *Accumulator) Apply(doc Document) Action {
	d, err := a.extractor.Extract(doc.Text)
	if err != nil {
		a.log.Debug("document skipped", zap.String("file", doc.ID), zap.Error(err))
		return ActionNone
	}
	switch d.Action {
	case ActionCreate, ActionAlter:
		a.merge(doc.ID, d)
	case ActionRename:
		a.renameTable(doc.ID, d.OldName, d.NewName)
	case ActionDrop:
		// The snapshot only shrinks through alter drops; whole-table drops are
		// left to the documents themselves.
		a.log.Debug("table drop not folded", zap.String("file", doc.ID), zap.String("table", d.Table))
	}
	return d.Action
}

func (a *Accumulator) merge(file string, d *Declaration) {
	t, ok := a.reg.tables.Get(d.Table)
	if !ok {
		t = &Table{Name: d.Table}
	}

	t.Columns.Merge(&d.Columns)
	for _, r := range d.Renames {
		if !t.Columns.Rename(r.From, r.To) {
			a.log.Debug("column rename ignored",
				zap.String("file", file), zap.String("table", d.Table),
				zap.String("from", r.From), zap.String("to", r.To),
				zap.Error(ErrDanglingRename))
			continue
		}
		if c, _ := t.Columns.Get(r.To); c != nil {
			cp := *c
			cp.Name = r.To
			t.Columns.Set(r.To, &cp)
		}
	}
	for _, k := range t.Columns.Keys() {
		if c, _ := t.Columns.Get(k); c.Dropped() {
			t.Columns.Delete(k)
		}
	}

	t.Indexes.Merge(&d.Indexes)
	t.FKs.Merge(&d.FKs)

	switch {
	case d.Modeling != nil:
		m := *d.Modeling
		t.Modeling = &m
	case t.Modeling == nil:
		t.Modeling = DefaultModeling()
	}
	t.File = file
	a.reg.tables.Set(d.Table, t)
}

func (a *Accumulator) renameTable(file, from, to string) {
	t, ok := a.reg.tables.Get(from)
	if !ok {
		a.log.Debug("table rename ignored",
			zap.String("file", file), zap.String("from", from), zap.String("to", to),
			zap.Error(ErrDanglingRename))
		return
	}
	moved := t.Clone()
	moved.Name = to
	moved.File = file
	a.reg.tables.Delete(from)
	a.reg.tables.Set(to, moved)
}
