// Package cmd holds the pyrite CLI subcommands.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/pyrite-lang/pyrite/infer"
	"github.com/pyrite-lang/pyrite/internal/log"
	"github.com/pyrite-lang/pyrite/narrow"
	"github.com/pyrite-lang/pyrite/parser"
	"github.com/pyrite-lang/pyrite/semindex"
	"github.com/spf13/cobra"
)

var NarrowCmd = &cobra.Command{
	Use:          "narrow 'condition'",
	Short:        "Show how a condition narrows the type of each place it mentions",
	RunE:         runNarrow,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var (
	envPath  *string
	logLevel *int
)

func init() {
	envPath = NarrowCmd.Flags().StringP("env", "e", "", "YAML file declaring variable, class and function types")
	logLevel = NarrowCmd.Flags().IntP("log-level", "l", int(slog.LevelError), "log level")
}

func runNarrow(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*logLevel))

	scope := semindex.NewScope("<condition>")
	env := infer.NewEnv(scope)
	if *envPath != "" {
		if err := loadEnvironment(*envPath, env); err != nil {
			return err
		}
	}

	condition, err := parser.ParseExpression(args[0])
	if err != nil {
		return errors.Wrapf(err, "parsing condition %q", args[0])
	}
	scope.IndexExpression(condition)

	evaluator := narrow.NewEvaluator(env)
	node := &semindex.ExpressionPredicate{Expr: condition, InScope: scope}

	out := cmd.OutOrStdout()
	colored := isColorTerminal(out)
	predicate := semindex.Predicate{Node: node, IsPositive: true}
	for _, p := range []semindex.Predicate{predicate, predicate.Negated()} {
		printConstraints(out, scope, evaluator.ConstraintsFor(p), p.IsPositive, colored)
	}
	return nil
}

func isColorTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func printConstraints(w io.Writer, scope *semindex.Scope, constraints *narrow.Constraints, positive, colored bool) {
	branch := "false"
	if positive {
		branch = "true"
	}
	_, _ = fmt.Fprintf(w, "when %s:\n", branch)
	if constraints.Len() == 0 {
		_, _ = fmt.Fprintln(w, "  (no narrowing)")
		return
	}
	// place ids are dense, so walking them in order keeps output stable
	for id := 0; id < scope.PlaceCount(); id++ {
		t, ok := constraints.Get(semindex.ScopedPlaceID(id))
		if !ok {
			continue
		}
		rendered := t.String()
		if colored {
			rendered = "\x1b[36m" + rendered + "\x1b[0m"
		}
		_, _ = fmt.Fprintf(w, "  %s: %s\n", scope.Place(semindex.ScopedPlaceID(id)), rendered)
	}
}
