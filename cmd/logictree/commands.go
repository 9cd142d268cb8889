package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rendis/logictree/internal/expressions"
	"github.com/rendis/logictree/pkg/catalog"
	"github.com/rendis/logictree/pkg/schema"
	"github.com/rendis/logictree/pkg/tree"
)

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// readInput reads a file, or stdin when path is "-".
func (c *cli) readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(c.stdin)
	}
	return os.ReadFile(path)
}

func (c *cli) runEval(args []string) int {
	fs := newFlagSet("eval", c.stderr)
	logicPath := fs.String("logic", "", "tree JSON file, or - for stdin")
	dataPath := fs.String("data", "", "context data JSON file, or - for stdin")
	query := fs.String("select", "", "jq filter applied to the data before evaluation")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *logicPath == "" {
		fmt.Fprintln(c.stderr, "eval: -logic is required")
		return 2
	}
	if *logicPath == "-" && *dataPath == "-" {
		fmt.Fprintln(c.stderr, "eval: -logic and -data cannot both read stdin")
		return 2
	}

	engine, err := c.engine()
	if err != nil {
		return c.fail(err)
	}

	rawLogic, err := c.readInput(*logicPath)
	if err != nil {
		return c.fail(err)
	}
	if result := engine.ValidateJSON(rawLogic); !result.Valid() {
		return c.fail(result.ToError())
	}
	root, err := tree.Parse(rawLogic)
	if err != nil {
		return c.fail(err)
	}

	var data tree.Value = tree.Null{}
	if *dataPath != "" {
		raw, err := c.readInput(*dataPath)
		if err != nil {
			return c.fail(err)
		}
		if data, err = tree.Parse(raw); err != nil {
			return c.fail(err)
		}
	}
	if *query != "" {
		if data, err = expressions.NewJQEngine().Select(context.Background(), *query, data); err != nil {
			return c.fail(err)
		}
	}

	out, err := engine.Evaluate(root, data)
	if err != nil {
		return c.fail(err)
	}
	b, err := tree.Marshal(out)
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintln(c.stdout, string(b))
	return 0
}

func (c *cli) runValidate(args []string) int {
	fs := newFlagSet("validate", c.stderr)
	logicPath := fs.String("logic", "", "tree JSON file, or - for stdin")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *logicPath == "" {
		fmt.Fprintln(c.stderr, "validate: -logic is required")
		return 2
	}

	engine, err := c.engine()
	if err != nil {
		return c.fail(err)
	}
	raw, err := c.readInput(*logicPath)
	if err != nil {
		return c.fail(err)
	}

	result := engine.ValidateJSON(raw)
	report := struct {
		Valid    bool                     `json:"valid"`
		Errors   []schema.ValidationIssue `json:"errors"`
		Warnings []schema.ValidationIssue `json:"warnings"`
	}{
		Valid:    result.Valid(),
		Errors:   orEmpty(result.Errors),
		Warnings: orEmpty(result.Warnings),
	}
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintln(c.stdout, string(b))

	if !report.Valid {
		return 1
	}
	return 0
}

func (c *cli) runOps(args []string) int {
	fs := newFlagSet("ops", c.stderr)
	category := fs.String("category", "", "only list this category: logic, data, numeric, array, string")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	engine, err := c.engine()
	if err != nil {
		return c.fail(err)
	}
	cat := engine.Catalog()

	var specs []catalog.OperationSpec
	if *category != "" {
		specs = cat.ByCategory(catalog.Category(*category))
		if len(specs) == 0 {
			return c.fail(fmt.Errorf("unknown category %q", *category))
		}
	} else {
		specs = cat.List()
	}

	if *asJSON {
		b, err := json.MarshalIndent(specs, "", "  ")
		if err != nil {
			return c.fail(err)
		}
		fmt.Fprintln(c.stdout, string(b))
		return 0
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tCATEGORY\tARITY\tDESCRIPTION")
	for _, s := range specs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Tag, s.Category, s.Arity, s.Description)
	}
	if err := tw.Flush(); err != nil {
		return c.fail(err)
	}
	return 0
}

func orEmpty(issues []schema.ValidationIssue) []schema.ValidationIssue {
	if issues == nil {
		return []schema.ValidationIssue{}
	}
	return issues
}
