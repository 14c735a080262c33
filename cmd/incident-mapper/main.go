package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/miradorstack/mirador-meltsim/internal/mapper"
)

func main() {
	var (
		dataDir     string
		listAll     bool
		showSummary bool
	)
	flag.StringVar(&dataDir, "data-dir", "melt_data", "Path to the generated data directory")
	flag.BoolVar(&listAll, "list", false, "List all incidents")
	flag.BoolVar(&showSummary, "summary", false, "Show summary statistics")
	flag.Parse()

	m, err := mapper.Open(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case listAll:
		fmt.Print(m.ListText())
	case showSummary:
		fmt.Print(m.SummaryText())
	case flag.NArg() > 0:
		mapping, err := m.MapIncident(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(mapping.Describe())
	default:
		flag.Usage()
		fmt.Fprintln(os.Stderr, "\nExample:")
		fmt.Fprintln(os.Stderr, "  incident-mapper --list")
		fmt.Fprintln(os.Stderr, "  incident-mapper <incident-id>")
		os.Exit(2)
	}
}
