package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sharksforarms/deku/internal/decl"
	"github.com/sharksforarms/deku/internal/dekuinfo"
	"gopkg.in/yaml.v3"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("dekuinfo", flag.ContinueOnError)
	name := fs.String("name", "", "only dump the Declaration with this name")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	registerExamples()

	var docs []dekuinfo.Doc
	for _, d := range decl.All() {
		if *name != "" && d.Name != *name {
			continue
		}
		docs = append(docs, dekuinfo.Describe(d))
	}
	if len(docs) == 0 {
		fmt.Fprintf(os.Stderr, "dekuinfo: no matching Declaration\n")
		return 1
	}

	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			fmt.Fprintf(os.Stderr, "dekuinfo: %v\n", err)
			return 2
		}
	}
	return 0
}
