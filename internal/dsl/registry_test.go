package dsl_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"dbdesign/internal/dsl"
	"dbdesign/internal/typemap"
)

func docs() []dsl.Document {
	return []dsl.Document{
		{ID: "2024_01_01_000000_create_users_table.php", Text: `<?php
        Schema::create('users', function (Blueprint $table) {
            $table->bigInteger('id')->primary()->autoIncrement();
            $table->string('email');
            $table->integer('age');
        });`},
		{ID: "2024_01_02_000000_alter_users_table.php", Text: `<?php
        Schema::table('users', function (Blueprint $table) {
            $table->string('nickname')->nullable();
            $table->dropColumn('age');
            $table->renameColumn('email', 'mail');
        });`},
		{ID: "2024_01_03_000000_rename_users_table.php", Text: `<?php
        Schema::rename('users', 'customers');`},
	}
}

func accumulate(t *testing.T, in []dsl.Document) *dsl.Registry {
	t.Helper()
	return dsl.Accumulate(in, typemap.Default(), zaptest.NewLogger(t))
}

func TestAccumulateScenario(t *testing.T) {
	reg := accumulate(t, docs())

	require.Equal(t, []string{"customers"}, reg.Names())
	_, ok := reg.Get("users")
	require.False(t, ok)

	tbl, ok := reg.Get("customers")
	require.True(t, ok)
	assert.Equal(t, "customers", tbl.Name)
	assert.Equal(t, "2024_01_03_000000_rename_users_table.php", tbl.File)
	assert.Equal(t, []string{"id", "mail", "nickname"}, tbl.Columns.Keys())

	mail, _ := tbl.Columns.Get("mail")
	assert.Equal(t, "mail", mail.Name)
	assert.Equal(t, "VARCHAR", mail.Type)
	assert.Equal(t, dsl.DefaultModeling(), tbl.Modeling)
}

func TestAccumulateAddColumnWithDown(t *testing.T) {
	reg := accumulate(t, []dsl.Document{
		{ID: "2024_01_01_000000_create_users_table.php", Text: `<?php
return new class extends Migration
{
    public function up()
    {
        Schema::create('users', function (Blueprint $table) {
            $table->integer('id')->primary()->autoIncrement();
            $table->string('email')->nullable();
        });
    }

    public function down()
    {
        Schema::dropIfExists('users');
    }
};`},
		{ID: "2024_01_02_000000_add_age_to_users_table.php", Text: `<?php
return new class extends Migration
{
    public function up()
    {
        Schema::table('users', function (Blueprint $table) {
            $table->integer('age');
        });
    }

    public function down()
    {
        Schema::table('users', function (Blueprint $table) {
            $table->dropColumn('age');
        });
    }
};`},
		{ID: "2024_01_03_000000_rename_users_table.php", Text: `<?php
return new class extends Migration
{
    public function up()
    {
        Schema::rename('users', 'customers');
    }

    public function down()
    {
        Schema::rename('customers', 'users');
    }
};`},
	})

	require.Equal(t, []string{"customers"}, reg.Names())
	tbl, _ := reg.Get("customers")
	assert.Equal(t, []string{"id", "email", "age"}, tbl.Columns.Keys())
	email, _ := tbl.Columns.Get("email")
	assert.False(t, email.NotNull)
	age, _ := tbl.Columns.Get("age")
	assert.Equal(t, "INT", age.Type)
}

func TestAccumulateSortsByIdentifier(t *testing.T) {
	in := docs()
	reversed := []dsl.Document{in[2], in[1], in[0]}

	want, err := json.Marshal(accumulate(t, in))
	require.NoError(t, err)
	got, err := json.Marshal(accumulate(t, reversed))
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
	assert.Equal(t, in[2].ID, reversed[0].ID, "input slice must not be reordered")
}

func TestAccumulateIdempotentCreate(t *testing.T) {
	doc := docs()[0]
	once := accumulate(t, []dsl.Document{doc})

	a := dsl.NewAccumulator(typemap.Default(), zaptest.NewLogger(t))
	a.Apply(doc)
	a.Apply(doc)

	want, err := json.Marshal(once)
	require.NoError(t, err)
	got, err := json.Marshal(a.Registry())
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestAccumulateDanglingRenames(t *testing.T) {
	a := dsl.NewAccumulator(nil, nil)
	assert.Equal(t, dsl.ActionRename, a.Apply(dsl.Document{ID: "1.php", Text: `<?php Schema::rename('ghosts', 'spirits');`}))
	assert.Zero(t, a.Registry().Len())

	a.Apply(dsl.Document{ID: "2.php", Text: `<?php Schema::create('t', function (Blueprint $table) {
        $table->string('a');
        $table->renameColumn('missing', 'b');
    });`})
	tbl, ok := a.Registry().Get("t")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, tbl.Columns.Keys())
}

func TestAccumulateModeling(t *testing.T) {
	a := dsl.NewAccumulator(nil, zaptest.NewLogger(t))
	a.Apply(dsl.Document{ID: "1.php", Text: createUsers})
	tbl, _ := a.Registry().Get("users")
	require.Equal(t, "120px", tbl.Modeling.Left)

	a.Apply(dsl.Document{ID: "2.php", Text: `<?php Schema::table('users', function (Blueprint $table) {
        $table->string('x');
    });`})
	tbl, _ = a.Registry().Get("users")
	assert.Equal(t, "120px", tbl.Modeling.Left)

	a.Apply(dsl.Document{ID: "3.php", Text: `<?php
    /**
    * Modeling information:
    * Left: 400px
    * Top: 10px
    * Width: 250px
    * Height: 100px
    */
    Schema::table('users', function (Blueprint $table) {
        $table->string('y');
    });`})
	tbl, _ = a.Registry().Get("users")
	assert.Equal(t, &dsl.Modeling{Left: "400px", Top: "10px", Width: "250px", Height: "100px"}, tbl.Modeling)
	assert.Equal(t, "3.php", tbl.File)
}

func TestAccumulateDropNotFolded(t *testing.T) {
	in := append(docs()[:1], dsl.Document{ID: "2024_02_01_000000_drop_users_table.php", Text: `<?php Schema::dropIfExists('users');`})
	reg := accumulate(t, in)
	_, ok := reg.Get("users")
	assert.True(t, ok)
}

func TestAccumulateSkipsUnparseable(t *testing.T) {
	in := append(docs()[:1], dsl.Document{ID: "2024_01_01_500000_seed.php", Text: `<?php DB::table('users')->insert([]);`})
	reg := accumulate(t, in)
	assert.Equal(t, []string{"users"}, reg.Names())
}

func TestRegistryJSONShape(t *testing.T) {
	reg := accumulate(t, docs()[:1])
	b, err := json.Marshal(reg)
	require.NoError(t, err)

	var out map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &out))
	require.Contains(t, out, "users")
	for _, k := range []string{"name", "columns", "indexes", "fks", "file", "modeling"} {
		assert.Contains(t, out["users"], k)
	}
	assert.JSONEq(t,
		`{"name":"id","type":"BIGINT","length":"","pk":true,"nn":true,"uq":false,"b":false,"un":false,"zf":false,"ai":true,"g":false,"default":""}`,
		string(mustField(t, out["users"]["columns"], "id")))
}

func mustField(t *testing.T, raw json.RawMessage, key string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	return m[key]
}

func TestTableClone(t *testing.T) {
	reg := accumulate(t, docs()[:1])
	orig, _ := reg.Get("users")
	cp := orig.Clone()
	c, _ := cp.Columns.Get("email")
	c.Type = "TEXT"
	cp.Modeling.Left = "1px"

	oc, _ := orig.Columns.Get("email")
	assert.Equal(t, "VARCHAR", oc.Type)
	assert.Equal(t, "50px", orig.Modeling.Left)
}
