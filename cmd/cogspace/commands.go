package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/cogspace/pkg/cogspace"
	"github.com/cognicore/cogspace/pkg/cogspace/atomspace"
	"github.com/cognicore/cogspace/pkg/cogspace/inference"
	"github.com/cognicore/cogspace/pkg/cogspace/pattern"
)

// withSpace opens the CogSpace for one command and closes it afterwards.
func (a *app) withSpace(cmd *cobra.Command, fn func(cs *cogspace.CogSpace) error) error {
	cs, err := a.open(cmd.Context())
	if err != nil {
		return err
	}
	defer cs.Close()
	return fn(cs)
}

func newRunCmd(a *app) *cobra.Command {
	var (
		maxInferences int
		label         string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Forward chain to a fixpoint and checkpoint the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSpace(cmd, func(cs *cogspace.CogSpace) error {
				out := cmd.OutOrStdout()
				results := cs.Think(maxInferences)
				printInferences(out, cs.Space(), results)

				if cs.Store() == nil {
					return nil
				}
				snap, err := cs.Checkpoint(cmd.Context(), label)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Snapshot %s saved (%d atoms)\n", snap.ID, cs.Space().Size())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&maxInferences, "max", 100, "maximum number of inferences")
	cmd.Flags().StringVar(&label, "label", "run", "snapshot label")
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query <text>",
		Short: "List atoms whose name contains text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSpace(cmd, func(cs *cogspace.CogSpace) error {
				printKnowledge(cmd.OutOrStdout(), cs.Ask(strings.Join(args, " ")))
				return nil
			})
		},
	}
}

func newMatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "match <query>",
		Short: `Match a pattern such as "ConceptNode($x)" or a bare name`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSpace(cmd, func(cs *cogspace.CogSpace) error {
				printMatches(cmd.OutOrStdout(), cs.Matcher(), cs.Match(strings.Join(args, " ")))
				return nil
			})
		},
	}
}

func newProveCmd(a *app) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "prove <goal>",
		Short: `Backward chain to prove a goal such as "InheritanceLink(Dog, Thing)"`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSpace(cmd, func(cs *cogspace.CogSpace) error {
				proof, err := cs.Prove(strings.Join(args, " "), depth)
				if err != nil {
					return err
				}
				printProof(cmd.OutOrStdout(), cs.Space(), proof)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 5, "maximum proof depth")
	return cmd
}

func newSimilarCmd(a *app) *cobra.Command {
	var threshold float64
	cmd := &cobra.Command{
		Use:   "similar <name>",
		Short: "Find atoms similar to the named atom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSpace(cmd, func(cs *cogspace.CogSpace) error {
				results, err := cs.Similar(args[0], threshold)
				if err != nil {
					return err
				}
				printMatches(cmd.OutOrStdout(), cs.Matcher(), results)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 0.6, "minimum similarity")
	return cmd
}

func newPathCmd(a *app) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "path <from> <to>",
		Short: "Show the shortest inheritance chain between two concepts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSpace(cmd, func(cs *cogspace.CogSpace) error {
				printPath(cmd.OutOrStdout(), cs.Path(args[0], args[1], depth))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 5, "maximum number of links")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print atom counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSpace(cmd, func(cs *cogspace.CogSpace) error {
				printStats(cmd.OutOrStdout(), cs.Space().Stats(), len(cs.Engine().Rules()))
				return nil
			})
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the atomspace as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSpace(cmd, func(cs *cogspace.CogSpace) error {
				raw, err := cs.Space().ExportJSON()
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
					return err
				}
				return os.WriteFile(output, raw, 0644)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load an exported JSON atomspace and checkpoint it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return a.withSpace(cmd, func(cs *cogspace.CogSpace) error {
				if err := cs.Space().ImportJSON(raw); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Imported %d atoms\n", cs.Space().Size())
				if cs.Store() == nil {
					return nil
				}
				snap, err := cs.Checkpoint(cmd.Context(), label)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Snapshot %s saved\n", snap.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&label, "label", "import", "snapshot label")
	return cmd
}

func newSnapshotsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List saved snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSpace(cmd, func(cs *cogspace.CogSpace) error {
				if cs.Store() == nil {
					return fmt.Errorf("no snapshot backend configured")
				}
				infos, err := cs.Store().List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(infos) == 0 {
					fmt.Fprintln(out, "No snapshots.")
				}
				for _, info := range infos {
					fmt.Fprintf(out, "%s  %-12s %5d atoms  %s\n",
						info.ID, info.Label, info.Atoms, info.CreatedAt.Format("2006-01-02 15:04:05"))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of snapshots")
	return cmd
}

func newRulesCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Write the active rule set in rule-file format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSpace(cmd, func(cs *cogspace.CogSpace) error {
				rules := cs.Engine().Rules()
				if output == "" || output == "-" {
					return inference.WriteRules(cmd.OutOrStdout(), rules)
				}
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				if err := inference.WriteRules(f, rules); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func describe(s *atomspace.Space, id atomspace.ID) string {
	a, ok := s.Get(id)
	if !ok {
		return fmt.Sprintf("#%d", id)
	}
	if !a.IsLink() {
		return a.Name
	}
	parts := make([]string, len(a.Outgoing))
	for i, out := range a.Outgoing {
		parts[i] = describe(s, out)
	}
	return fmt.Sprintf("%s(%s)", a.Type, strings.Join(parts, ", "))
}

func printInferences(w io.Writer, s *atomspace.Space, results []inference.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No new inferences.")
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "  %-28s %s (%.3f)\n", r.RuleName, describe(s, r.AtomID), r.Confidence)
	}
	fmt.Fprintf(w, "%d inferences\n", len(results))
}

func printProof(w io.Writer, s *atomspace.Space, proof inference.Proof) {
	if !proof.Proved {
		fmt.Fprintln(w, "Not proved.")
		return
	}
	fmt.Fprintln(w, "Proved.")
	for _, r := range proof.Results {
		fmt.Fprintf(w, "  %-28s %s (%.3f)\n", r.RuleName, describe(s, r.AtomID), r.Confidence)
	}
}

func printKnowledge(w io.Writer, hits []inference.Knowledge) {
	if len(hits) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}
	for _, k := range hits {
		fmt.Fprintf(w, "  #%-5d %-16s %s %s\n", k.AtomID, k.Type, k.Name, k.Truth)
	}
}

func printMatches(w io.Writer, m *pattern.Matcher, results []pattern.MatchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No matches.")
		return
	}
	for _, r := range results {
		exp, ok := m.Explain(r)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %s\n", exp)
	}
}

func printPath(w io.Writer, steps []inference.Step) {
	if len(steps) == 0 {
		fmt.Fprintln(w, "No path found.")
		return
	}
	for _, st := range steps {
		fmt.Fprintf(w, "  %d. %s\n", st.Depth+1, st.Rule)
	}
}

func printStats(w io.Writer, st atomspace.Stats, rules int) {
	fmt.Fprintf(w, "Atoms:  %d (%d nodes, %d links)\n", st.Atoms, st.Nodes, st.Links)
	fmt.Fprintf(w, "NextID: %d\n", st.NextID)
	fmt.Fprintf(w, "Rules:  %d\n", rules)
	for _, typ := range slices.Sorted(maps.Keys(st.ByType)) {
		fmt.Fprintf(w, "  %-16s %d\n", typ, st.ByType[typ])
	}
}
