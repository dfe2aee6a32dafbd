package dsl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbdesign/internal/dsl"
	"dbdesign/internal/typemap"
)

const createUsers = `<?php

use Illuminate\Database\Migrations\Migration;
use Illuminate\Database\Schema\Blueprint;
use Illuminate\Support\Facades\Schema;

return new class extends Migration
{
    /**
    * Modeling information:
    * Left: 120px
    * Top: 80px
    * Width: 200px
    * Height: 300px
    */
    public function up()
    {
        // users of the app
        Schema::create('users', function (Blueprint $table) {
            $table->bigInteger('id')->primary()->autoIncrement();
            $table->string('email')->unique();
            $table->unsignedInteger('age')->nullable();
            $table->string('nick')->nullable(false);
            $table->text('bio')->nullable(true);
            $table->index(['email', 'age']);
            $table->foreign('team_id')->references('id')->on('teams');
            $table->foreign('owner_id')->references('id')->on('users')->onDelete('cascade');
        });
    }

    public function down()
    {
        Schema::dropIfExists('users');
    }
};
`

func extract(t *testing.T, text string) *dsl.Declaration {
	t.Helper()
	d, err := dsl.NewExtractor(typemap.Default()).Extract(text)
	require.NoError(t, err)
	return d
}

func TestExtractCreate(t *testing.T) {
	d := extract(t, createUsers)
	require.Equal(t, dsl.ActionCreate, d.Action)
	require.Equal(t, "users", d.Table)
	require.Equal(t, []string{"id", "email", "age", "nick", "bio"}, d.Columns.Keys())

	id, _ := d.Columns.Get("id")
	assert.Equal(t, &dsl.Column{Name: "id", Type: "BIGINT", PrimaryKey: true, NotNull: true, AutoIncrement: true}, id)

	email, _ := d.Columns.Get("email")
	assert.Equal(t, &dsl.Column{Name: "email", Type: "VARCHAR", NotNull: true, Unique: true}, email)

	age, _ := d.Columns.Get("age")
	assert.Equal(t, &dsl.Column{Name: "age", Type: "INT", Unsigned: true}, age)

	nick, _ := d.Columns.Get("nick")
	assert.True(t, nick.NotNull)

	bio, _ := d.Columns.Get("bio")
	assert.Equal(t, &dsl.Column{Name: "bio", Type: "TEXT"}, bio)

	ix, ok := d.Indexes.Get("index_email, age")
	require.True(t, ok)
	assert.Equal(t, []dsl.IndexColumn{{Name: "email"}, {Name: "age"}}, ix.Columns)

	fk, ok := d.FKs.Get("fk_team_id")
	require.True(t, ok)
	assert.Equal(t, &dsl.ForeignKey{Name: "fk_team_id", Column: "team_id", ReferencedTable: "teams", ReferencedColumn: "id"}, fk)
	// a chain that continues past on() is not a foreign key declaration
	assert.Equal(t, []string{"fk_team_id"}, d.FKs.Keys())

	assert.Equal(t, &dsl.Modeling{Left: "120px", Top: "80px", Width: "200px", Height: "300px"}, d.Modeling)
}

func TestExtractAlter(t *testing.T) {
	d := extract(t, `<?php
        Schema::table('users', function (Blueprint $table) {
            $table->string('nickname')->nullable()->change();
            $table->dropColumn('age');
            $table->renameColumn('email', 'mail');
        });`)
	require.Equal(t, dsl.ActionAlter, d.Action)
	require.Equal(t, "users", d.Table)
	require.Equal(t, []string{"nickname", "age"}, d.Columns.Keys())

	age, _ := d.Columns.Get("age")
	assert.True(t, age.Dropped())
	nickname, _ := d.Columns.Get("nickname")
	assert.False(t, nickname.Dropped())
	assert.False(t, nickname.NotNull)

	assert.Equal(t, []dsl.ColumnRename{{From: "email", To: "mail"}}, d.Renames)
	assert.Nil(t, d.Modeling)
}

func TestExtractDropColumnList(t *testing.T) {
	d := extract(t, `<?php Schema::table('users', function (Blueprint $table) {
        $table->dropColumn(['a', 'b']);
    });`)
	require.Equal(t, []string{"a", "b"}, d.Columns.Keys())
	for _, k := range d.Columns.Keys() {
		c, _ := d.Columns.Get(k)
		assert.True(t, c.Dropped(), k)
	}
	assert.Zero(t, d.Indexes.Len())
}

func TestExtractIndexKeyKeepsSpacing(t *testing.T) {
	d := extract(t, `<?php Schema::table('t', function (Blueprint $table) {
        $table->unique(['a','b']);
        $table->unique(['a', 'b']);
        $table->index(["c"]);
    });`)
	assert.Equal(t, []string{"unique_a,b", "unique_a, b", "index_c"}, d.Indexes.Keys())
}

func TestExtractRename(t *testing.T) {
	d := extract(t, `<?php
    public function up() { Schema::rename('users', 'customers'); }
    public function down() { Schema::rename('customers', 'users'); }`)
	assert.Equal(t, dsl.ActionRename, d.Action)
	assert.Equal(t, "users", d.OldName)
	assert.Equal(t, "customers", d.NewName)
	assert.Equal(t, "customers", d.Table)
}

func TestExtractDrop(t *testing.T) {
	d := extract(t, `<?php public function up() { Schema::dropIfExists('users'); }`)
	assert.Equal(t, dsl.ActionDrop, d.Action)
	assert.Equal(t, "users", d.Table)

	d = extract(t, `<?php Schema::drop('users');`)
	assert.Equal(t, dsl.ActionDrop, d.Action)
}

func TestExtractIgnoresDown(t *testing.T) {
	d := extract(t, createUsers)
	assert.Equal(t, dsl.ActionCreate, d.Action)

	d = extract(t, `<?php
return new class extends Migration
{
    public function up(): void
    {
        Schema::table('users', function (Blueprint $table) {
            $table->integer('age');
        });
    }

    public function down(): void
    {
        Schema::table('users', function (Blueprint $table) {
            $table->dropColumn('age');
            $table->renameColumn('age', 'years');
        });
    }
};`)
	require.Equal(t, dsl.ActionAlter, d.Action)
	age, ok := d.Columns.Get("age")
	require.True(t, ok)
	assert.False(t, age.Dropped())
	assert.Empty(t, d.Renames)

	d = extract(t, `<?php
    public function up() { Schema::dropIfExists('users'); }
    public function down() {
        Schema::create('users', function (Blueprint $table) {
            $table->increments('id');
        });
    }`)
	assert.Equal(t, dsl.ActionDrop, d.Action)
	assert.Zero(t, d.Columns.Len())
}

func TestExtractMismatch(t *testing.T) {
	for _, text := range []string{
		"",
		"<?php echo 'hello';",
		"<?php $table->string('orphan');",
	} {
		d, err := dsl.NewExtractor(nil).Extract(text)
		require.ErrorIs(t, err, dsl.ErrParseMismatch, text)
		assert.Equal(t, dsl.ActionNone, d.Action)
	}
}

func TestExtractIgnoresMalformedModeling(t *testing.T) {
	d := extract(t, `<?php
    /**
    * Modeling information:
    * Left: 10px
    * Top: 20px
    */
    Schema::create('t', function (Blueprint $table) {
        $table->string('a');
    });`)
	assert.Nil(t, d.Modeling)
}

func TestExtractUnknownMethodFallsBack(t *testing.T) {
	d := extract(t, `<?php Schema::create('t', function (Blueprint $table) {
        $table->ipAddress('ip');
    });`)
	c, ok := d.Columns.Get("ip")
	require.True(t, ok)
	assert.Equal(t, typemap.FallbackStorage, c.Type)
}
