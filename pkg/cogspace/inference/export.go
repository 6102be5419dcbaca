package inference

import (
	"bufio"
	"fmt"
	"io"
)

// WriteRules renders rules in the format ParseRules reads, one per line.
func WriteRules(w io.Writer, rules []Rule) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %d rules: name confidence: premise & premise => conclusion\n", len(rules))
	for _, r := range rules {
		fmt.Fprintln(bw, r.String())
	}
	return bw.Flush()
}
