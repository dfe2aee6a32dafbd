// Command dbdesign works on a migrations directory without the HTTP server.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"dbdesign/internal/api"
	"dbdesign/internal/codegen"
	"dbdesign/internal/dsl"
	"dbdesign/internal/logger"
	"dbdesign/internal/pg"
	"dbdesign/internal/typemap"
)

const version = "0.1.0"

var CLI struct {
	Vocabulary string `name:"vocabulary" help:"YAML type vocabulary file" type:"path"`
	LogLevel   string `name:"log-level" default:"warn" help:"Log level (debug/info/warn/error)"`

	Snapshot SnapshotCmd `cmd:"" help:"Print the schema snapshot of a migrations directory as JSON"`
	Generate GenerateCmd `cmd:"" help:"Write migrations (and model files) from a JSON change request file"`
	Lint     LintCmd     `cmd:"" help:"Report unresolved references in the snapshot"`
	DDL      DDLCmd      `cmd:"" name:"ddl" help:"Print PostgreSQL DDL for the snapshot"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

type env struct {
	log   *zap.Logger
	vocab *typemap.Vocabulary
}

func (e *env) storage(migrations, models string) *api.Storage {
	return api.NewStorage(migrations, models, "", e.vocab, e.log)
}

type SnapshotCmd struct {
	Dir     string `arg:"" optional:"" default:"database/migrations" type:"path" help:"Migrations directory"`
	Compact bool   `help:"Print JSON on one line"`
}

func (c *SnapshotCmd) Run(e *env) error {
	reg, err := e.storage(c.Dir, "").Snapshot()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	if !c.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(reg)
}

type GenerateCmd struct {
	Requests string `arg:"" type:"existingfile" help:"JSON file: {\"<file name>\": {change request}, ...}"`
	Dir      string `default:"database/migrations" type:"path" help:"Migrations directory"`
	Models   string `default:"app/Models" type:"path" help:"Model classes directory"`
}

func (c *GenerateCmd) Run(e *env) error {
	b, err := os.ReadFile(c.Requests)
	if err != nil {
		return err
	}
	var reqs dsl.OrderedMap[*codegen.ChangeRequest]
	if err := json.Unmarshal(b, &reqs); err != nil {
		return errors.Wrapf(err, "parse %s", c.Requests)
	}
	files, err := e.storage(c.Dir, c.Models).Generate(&reqs)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Println(f)
	}
	return nil
}

type LintCmd struct {
	Dir string `arg:"" optional:"" default:"database/migrations" type:"path" help:"Migrations directory"`
}

func (c *LintCmd) Run(e *env) error {
	reg, err := e.storage(c.Dir, "").Snapshot()
	if err != nil {
		return err
	}
	issues := api.SchemaLint(reg, e.vocab)
	for _, it := range issues {
		fmt.Printf("%s\t%s\t%s\t%s\n", it.Table, it.Field, it.Code, it.Message)
	}
	if len(issues) > 0 {
		return errors.Errorf("%d issue(s)", len(issues))
	}
	return nil
}

type DDLCmd struct {
	Dir string `arg:"" optional:"" default:"database/migrations" type:"path" help:"Migrations directory"`
}

func (c *DDLCmd) Run(e *env) error {
	reg, err := e.storage(c.Dir, "").Snapshot()
	if err != nil {
		return err
	}
	fmt.Print(pg.Script(pg.GenerateDDL(reg)))
	return nil
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("dbdesign version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("dbdesign"),
		kong.Description("Schema snapshots from Laravel migrations, and migrations from change requests"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	lg, err := logger.New(CLI.LogLevel, "")
	ctx.FatalIfErrorf(err)
	defer func() { _ = lg.Sync() }()

	vocab := typemap.Default()
	if CLI.Vocabulary != "" {
		vocab, err = typemap.Load(CLI.Vocabulary)
		ctx.FatalIfErrorf(err)
	}

	ctx.FatalIfErrorf(ctx.Run(&env{log: lg, vocab: vocab}))
}
