package codegen

import (
	"strings"
	"text/template"

	"github.com/go-openapi/inflect"
)

var modelTmpl = template.Must(template.New("model").Parse(`<?php

namespace App\Models;

use Illuminate\Database\Eloquent\Factories\HasFactory;
use Illuminate\Database\Eloquent\Model;

class {{.Class}} extends Model
{
    use HasFactory;

    protected $table = '{{.Table}}';
}
`))

// ModelName turns a table name into a model class name: order_items -> OrderItem.
func ModelName(table string) string {
	return inflect.Camelize(inflect.Singularize(table))
}

// ModelFile is the file name of the model class for table.
func ModelFile(table string) string {
	return ModelName(table) + ".php"
}

// ModelSource renders the Eloquent model class for table.
func ModelSource(table string) (string, error) {
	var b strings.Builder
	err := modelTmpl.Execute(&b, struct{ Class, Table string }{ModelName(table), table})
	return b.String(), err
}
