// Command flowkit-graph builds the sum-two-inputs example flow and
// prints its graph description as indented JSON, exercising the
// graph-export component end-to-end.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flowkit-go/flowkit"
	"github.com/flowkit-go/flowkit/examples/sum"
)

func main() {
	flow := sum.Build()
	if res := flow.Validate(); !res.OK() {
		fmt.Fprintf(os.Stderr, "validation failed: %d error(s)\n", len(res.Errors))
		os.Exit(1)
	}

	desc := flowkit.Export(flow.Raw())
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(desc); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
