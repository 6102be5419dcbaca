package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/cogspace/pkg/cogspace"
)

const replHelp = `Commands:
  think [n]              forward chain, at most n inferences
  prove <goal>           backward chain, e.g. prove InheritanceLink(Dog, Thing)
  ask <text>             atoms whose name contains text
  match <query>          pattern query, e.g. match ConceptNode($x)
  similar <name>         atoms similar to name
  path <from> <to>       inheritance chain between two concepts
  isa <child> <parent>   assert an inheritance link
  stats                  atom counts
  save [label]           checkpoint to the snapshot store
  restore <id>           restore a snapshot
  help                   this text
  quit                   leave`

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive reasoning session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSpace(cmd, func(cs *cogspace.CogSpace) error {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "cogspace interactive session")
				fmt.Fprintf(out, "%d atoms, %d rules. Type 'help' for commands (Ctrl+D to exit).\n\n",
					cs.Space().Size(), len(cs.Engine().Rules()))

				r := &repl{ctx: cmd.Context(), cs: cs, out: out, depth: 5, threshold: 0.6}
				r.run(cmd.InOrStdin())
				fmt.Fprintln(out, "\nGoodbye!")
				return nil
			})
		},
	}
}

type repl struct {
	ctx       context.Context
	cs        *cogspace.CogSpace
	out       io.Writer
	depth     int
	threshold float64
}

func (r *repl) run(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := r.handle(line); quit {
			return
		}
	}
}

// handle executes one line and reports whether the session should end.
func (r *repl) handle(line string) bool {
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch strings.ToLower(verb) {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(r.out, replHelp)
	case "think":
		n := 100
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v <= 0 {
				fmt.Fprintln(r.out, "Error: think takes a positive count")
				return false
			}
			n = v
		}
		printInferences(r.out, r.cs.Space(), r.cs.Think(n))
	case "prove":
		proof, err := r.cs.Prove(rest, r.depth)
		if err != nil {
			fmt.Fprintln(r.out, "Error:", err)
			return false
		}
		printProof(r.out, r.cs.Space(), proof)
	case "ask":
		printKnowledge(r.out, r.cs.Ask(rest))
	case "match":
		printMatches(r.out, r.cs.Matcher(), r.cs.Match(rest))
	case "similar":
		results, err := r.cs.Similar(rest, r.threshold)
		if err != nil {
			fmt.Fprintln(r.out, "Error:", err)
			return false
		}
		printMatches(r.out, r.cs.Matcher(), results)
	case "path":
		if len(args) != 2 {
			fmt.Fprintln(r.out, "Error: path takes two names")
			return false
		}
		printPath(r.out, r.cs.Path(args[0], args[1], r.depth))
	case "isa":
		if len(args) != 2 {
			fmt.Fprintln(r.out, "Error: isa takes a child and a parent")
			return false
		}
		id := r.cs.Space().AddInheritance(args[0], args[1])
		fmt.Fprintf(r.out, "  #%d %s\n", id, describe(r.cs.Space(), id))
	case "stats":
		printStats(r.out, r.cs.Space().Stats(), len(r.cs.Engine().Rules()))
	case "save":
		snap, err := r.cs.Checkpoint(r.ctx, rest)
		if err != nil {
			fmt.Fprintln(r.out, "Error:", err)
			return false
		}
		fmt.Fprintf(r.out, "Snapshot %s saved\n", snap.ID)
	case "restore":
		if err := r.cs.Restore(r.ctx, rest); err != nil {
			fmt.Fprintln(r.out, "Error:", err)
			return false
		}
		fmt.Fprintf(r.out, "Restored %d atoms\n", r.cs.Space().Size())
	default:
		fmt.Fprintf(r.out, "Unknown command %q. Type 'help'.\n", verb)
	}
	return false
}
