// Package typemap translates between storage-engine column types (MySQL
// vocabulary) and schema builder methods (Laravel vocabulary).
package typemap

import "strings"

const (
	// FallbackFramework is returned for storage types missing from the forward table.
	FallbackFramework = "string"
	// FallbackStorage is returned for builder methods missing from the inverse table.
	FallbackStorage = "VARCHAR"

	unsignedPrefix = "unsigned"
)

var defaultForward = map[string]string{
	"VARCHAR":    "string",
	"CHAR":       "char",
	"TEXT":       "text",
	"MEDIUMTEXT": "mediumText",
	"LONGTEXT":   "longText",
	"INT":        "integer",
	"BIGINT":     "bigInteger",
	"TINYINT":    "tinyInteger",
	"SMALLINT":   "smallInteger",
	"MEDIUMINT":  "mediumInteger",
	"FLOAT":      "float",
	"DOUBLE":     "double",
	"DECIMAL":    "decimal",
	"DATE":       "date",
	"DATETIME":   "dateTime",
	"TIMESTAMP":  "timestamp",
	"TIME":       "time",
	"YEAR":       "year",
	"BLOB":       "binary",
	"JSON":       "json",
	"ENUM":       "enum",
	"BOOLEAN":    "boolean",
}

// inverse keys are lower-case: lookups lower-case the builder method first.
var defaultInverse = map[string]string{
	"string":        "VARCHAR",
	"char":          "CHAR",
	"text":          "TEXT",
	"mediumtext":    "MEDIUMTEXT",
	"longtext":      "LONGTEXT",
	"integer":       "INT",
	"biginteger":    "BIGINT",
	"tinyinteger":   "TINYINT",
	"smallinteger":  "SMALLINT",
	"mediuminteger": "MEDIUMINT",
	"float":         "FLOAT",
	"double":        "DOUBLE",
	"decimal":       "DECIMAL",
	"date":          "DATE",
	"datetime":      "DATETIME",
	"timestamp":     "TIMESTAMP",
	"time":          "TIME",
	"year":          "YEAR",
	"binary":        "BLOB",
	"json":          "JSON",
	"enum":          "ENUM",
	"boolean":       "BOOLEAN",
}

// Vocabulary is an immutable pair of lookup tables. The two tables are
// independent; they are not required to be inverses of each other.
type Vocabulary struct {
	forward map[string]string // STORAGE -> builderMethod
	inverse map[string]string // buildermethod -> STORAGE
}

// New copies the given tables into a Vocabulary. Forward keys are
// upper-cased and inverse keys lower-cased.
func New(forward, inverse map[string]string) *Vocabulary {
	v := &Vocabulary{
		forward: make(map[string]string, len(forward)),
		inverse: make(map[string]string, len(inverse)),
	}
	for k, t := range forward {
		v.forward[strings.ToUpper(k)] = t
	}
	for k, t := range inverse {
		v.inverse[strings.ToLower(k)] = strings.ToUpper(t)
	}
	return v
}

// Default returns the built-in MySQL <-> Laravel vocabulary.
func Default() *Vocabulary {
	return New(defaultForward, defaultInverse)
}

// ToFramework returns the builder method for a storage type. Unsigned types
// get the "unsigned" prefix with the method name capitalized.
func (v *Vocabulary) ToFramework(storageType string, unsigned bool) string {
	t, ok := v.forward[strings.ToUpper(storageType)]
	if !ok || t == "" {
		t = FallbackFramework
	}
	if unsigned {
		t = unsignedPrefix + strings.ToUpper(t[:1]) + t[1:]
	}
	return t
}

// ToStorage returns the storage type for a builder method and whether the
// method carried the unsigned prefix.
func (v *Vocabulary) ToStorage(method string) (storageType string, unsigned bool) {
	m := strings.ToLower(method)
	if strings.HasPrefix(m, unsignedPrefix) {
		unsigned = true
		m = strings.TrimPrefix(m, unsignedPrefix)
	}
	storageType, ok := v.inverse[m]
	if !ok {
		storageType = FallbackStorage
	}
	return storageType, unsigned
}

// KnownStorage reports whether a storage type has a builder method of its
// own, i.e. whether it survives rendering and re-reading.
func (v *Vocabulary) KnownStorage(storageType string) bool {
	_, ok := v.forward[strings.ToUpper(storageType)]
	return ok
}
