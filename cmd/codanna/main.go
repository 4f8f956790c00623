// Command codanna is the CLI frontend from spec §6: index, search,
// query, update, profile subcommands, each returning one of the nine
// structured exit codes. Grounded on the teacher's cmd/lci/main.go (one
// urfave/cli/v2 App, global --root/--config flags layered over
// per-command flags, a package-level indexer held across one process
// run) — generalized from the teacher's MasterIndex-holding main to this
// domain's Pipeline/query.Engine pair.
//
// SymbolStore and DocumentIndex have no on-disk format of their own in
// this implementation (only VectorStore segments and the IVFFlat index
// persist across process runs, per spec §6's persisted-layout list); a
// scope decision recorded in DESIGN.md. Every subcommand below therefore
// re-runs a full Pipeline.Run over Project.Root at the start of the
// process rather than loading a prior run's symbol table from disk.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/bartolli/codanna-go/internal/config"
	"github.com/bartolli/codanna-go/internal/errs"
	"github.com/bartolli/codanna-go/internal/pipeline"
	"github.com/bartolli/codanna-go/internal/progress"
	"github.com/bartolli/codanna-go/internal/query"
	"github.com/bartolli/codanna-go/internal/symbol"
	"github.com/bartolli/codanna-go/internal/update"
)

func main() {
	app := &cli.App{
		Name:                   "codanna",
		Usage:                  "multi-language code indexing and semantic search",
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "accepted but not read: config is always loaded from ~/.codanna.kdl and PROJECT_ROOT/.codanna.kdl"},
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "project root directory to index", Value: "."},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "machine-readable JSON output"},
		},
		Commands: []*cli.Command{
			indexCommand,
			searchCommand,
			queryCommand,
			updateCommand,
			profileCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(exitCodeFor(err)))
	}
}

// exitCodeFor implements spec §7's "CLI maps each error to its exit
// code": any *errs.Error carries its own kind-derived code; anything
// else (flag parsing, an unwrapped stdlib error) falls back to
// GeneralError.
func exitCodeFor(err error) errs.ExitCode {
	var appErr *errs.Error
	if errors.As(err, &appErr) {
		return appErr.ExitCode()
	}
	return errs.ExitGeneralError
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	cfg, err := config.Load(root)
	if err != nil {
		return nil, errs.Config("main.loadConfig", err)
	}
	return cfg, nil
}

// buildPipeline runs a fresh index over cfg.Project.Root, the
// re-index-per-invocation scope decision this package's doc comment
// explains.
func buildPipeline(ctx context.Context, cfg *config.Config, vectorDir string, showProgress bool) (*pipeline.Pipeline, *pipeline.Result, error) {
	p := pipeline.New(cfg, vectorDir)
	var bars *progress.DualProgressBar
	if showProgress {
		bars = progress.NewDualProgressBar(os.Stderr)
	}
	result, err := p.Run(ctx, cfg.Project.Root, bars)
	if err != nil {
		return nil, nil, err
	}
	return p, result, nil
}

func vectorDirFor(cfg *config.Config) string {
	home := os.Getenv("CODANNA_HOME")
	if home == "" {
		home = ".codanna"
	}
	dir := home + "/vectors"
	_ = os.MkdirAll(dir, 0o755)
	return dir
}

var indexCommand = &cli.Command{
	Name:  "index",
	Usage: "index the project and persist its vector store",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		vectorDir := vectorDirFor(cfg)

		p, result, err := buildPipeline(c.Context, cfg, vectorDir, !c.Bool("json"))
		if err != nil {
			return err
		}
		if err := p.Vectors.Flush(p.SegmentID()); err != nil {
			return err
		}
		if _, err := p.BuildIVFFlat(vectorDir); err != nil {
			return err
		}

		return emit(c, result)
	},
}

var profileCommand = &cli.Command{
	Name:  "profile",
	Usage: "index the project and report file/symbol counts and total elapsed time without persisting anything",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		tmpVectorDir, err := os.MkdirTemp("", "codanna-profile-")
		if err != nil {
			return errs.IO("cmd.profile", tmpVectorDir, err)
		}
		defer os.RemoveAll(tmpVectorDir)

		_, result, err := buildPipeline(c.Context, cfg, tmpVectorDir, !c.Bool("json"))
		if err != nil {
			return err
		}
		return emit(c, result)
	},
}

var searchCommand = &cli.Command{
	Name:      "search",
	Usage:     "search the indexed project",
	ArgsUsage: "<query>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "mode", Usage: "name | semantic | hybrid", Value: "hybrid"},
		&cli.IntFlag{Name: "k", Usage: "max results (0 = config default)"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return cli.Exit("missing <query> argument", int(errs.ExitGeneralError))
		}
		q := c.Args().First()

		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		vectorDir := vectorDirFor(cfg)
		p, _, err := buildPipeline(c.Context, cfg, vectorDir, false)
		if err != nil {
			return err
		}
		idx, err := p.BuildIVFFlat(vectorDir)
		if err != nil {
			return err
		}
		eng := query.New(p, cfg, idx)

		var hits []query.Hit
		switch c.String("mode") {
		case "name":
			hits = eng.Name(q, c.Int("k"))
		case "semantic":
			hits, err = eng.Semantic(c.Context, q, c.Int("k"))
		case "hybrid":
			hits, err = eng.Hybrid(c.Context, q, c.Int("k"))
		default:
			return cli.Exit(fmt.Sprintf("unknown mode %q", c.String("mode")), int(errs.ExitGeneralError))
		}
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			return cli.Exit("no matches", int(errs.ExitNotFound))
		}
		return emit(c, hits)
	},
}

var queryCommand = &cli.Command{
	Name:      "query",
	Usage:     "traverse relationships from a named symbol",
	ArgsUsage: "<symbol-name> <calls|called_by|extends|extended_by|implements|implemented_by|uses|used_by|defines|defined_in|references|referenced_by>",
	Action: func(c *cli.Context) error {
		if c.NArg() < 2 {
			return cli.Exit("expected <symbol-name> <relationship-kind>", int(errs.ExitGeneralError))
		}
		name, kindStr := c.Args().Get(0), c.Args().Get(1)
		kind, ok := parseRelationshipKind(kindStr)
		if !ok {
			return cli.Exit(fmt.Sprintf("unknown relationship kind %q", kindStr), int(errs.ExitGeneralError))
		}

		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		p, _, err := buildPipeline(c.Context, cfg, vectorDirFor(cfg), false)
		if err != nil {
			return err
		}

		matches := p.Symbols.ByName(name)
		if len(matches) == 0 {
			return cli.Exit(fmt.Sprintf("no symbol named %q", name), int(errs.ExitNotFound))
		}

		eng := query.New(p, cfg, nil)
		var out []*symbol.Symbol
		for _, m := range matches {
			out = append(out, eng.Relationships(m.ID, kind, 0)...)
		}
		return emit(c, out)
	},
}

var updateCommand = &cli.Command{
	Name:      "update",
	Usage:     "re-index a single changed file against a freshly built index",
	ArgsUsage: "<path>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "rebuild-threshold", Usage: "vector churn before a full IVFFlat re-cluster", Value: 0},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return cli.Exit("missing <path> argument", int(errs.ExitGeneralError))
		}
		path := c.Args().First()

		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		vectorDir := vectorDirFor(cfg)
		p, _, err := buildPipeline(c.Context, cfg, vectorDir, false)
		if err != nil {
			return err
		}

		coord := update.New(p, cfg, vectorDir, c.Int("rebuild-threshold"))
		stats, err := coord.UpdateFile(c.Context, path)
		if err != nil {
			return err
		}
		return emit(c, stats)
	},
}

func parseRelationshipKind(s string) (symbol.RelationshipKind, bool) {
	switch s {
	case "calls":
		return symbol.Calls, true
	case "called_by":
		return symbol.CalledBy, true
	case "extends":
		return symbol.Extends, true
	case "extended_by":
		return symbol.ExtendedBy, true
	case "implements":
		return symbol.Implements, true
	case "implemented_by":
		return symbol.ImplementedBy, true
	case "uses":
		return symbol.Uses, true
	case "used_by":
		return symbol.UsedBy, true
	case "defines":
		return symbol.Defines, true
	case "defined_in":
		return symbol.DefinedIn, true
	case "references":
		return symbol.References, true
	case "referenced_by":
		return symbol.ReferencedBy, true
	default:
		return 0, false
	}
}

// emit writes v as JSON when --json is set, otherwise a plain one-line
// summary — spec §6's "machine-readable (JSON) output is available for
// every user-facing operation" without making it the only option.
func emit(c *cli.Context, v any) error {
	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	fmt.Fprintf(os.Stdout, "%+v\n", v)
	return nil
}
