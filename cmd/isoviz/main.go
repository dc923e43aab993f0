// Package main provides the isoviz command-line tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/lindelab/isoviz/internal/clustalo"
	"github.com/lindelab/isoviz/internal/ensembl"
	"github.com/lindelab/isoviz/internal/output"
	"github.com/lindelab/isoviz/internal/pipeline"
	"github.com/lindelab/isoviz/internal/store"
	"github.com/lindelab/isoviz/internal/xena"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Global flags
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	// Parse global flags first
	flag.Parse()

	if showVersion {
		fmt.Printf("isoviz version %s (%s) built %s\n", version, commit, date)
		return ExitSuccess
	}

	initConfig()

	// Check for subcommand
	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		return ExitUsage
	}

	switch args[0] {
	case "build":
		return runBuild(args[1:])
	case "expression":
		return runExpression(args[1:])
	case "config":
		cmd := newConfigCmd()
		cmd.SetArgs(args[1:])
		if err := cmd.Execute(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitError
		}
		return ExitSuccess
	case "help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		printUsage()
		return ExitUsage
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `isoviz - Protein isoform topology and expression pipeline

Usage:
  isoviz [options] <command> [arguments]

Commands:
  build       Fetch transcripts, group isoforms, align, and build topology artifacts
  expression  Fetch expression data and compute per-isoform boxplot statistics
  config      Manage isoviz configuration
  help        Show this help message

Global Options:
  --version   Show version information

Examples:
  # Fetch and align isoforms (run DeepTMHMM on isoforms.fasta afterwards)
  isoviz build --genes CD20=ENSG00000156738 --fetch-only

  # Build topology artifacts once DeepTMHMM predictions are in place
  isoviz build --genes CD20=ENSG00000156738

  # Aggregate expression statistics for a built protein
  isoviz expression --protein CD20

For more information on a command, use:
  isoviz <command> --help
`)
}

func runBuild(args []string) int {
	fs := flag.NewFlagSet("build", flag.ExitOnError)

	var (
		genesSpec string
		outputDir string
		email     string
		workers   int
		fetchOnly bool
		verbose   bool
	)

	fs.StringVar(&genesSpec, "genes", "", "Genes to build as NAME=ENSEMBL_ID pairs, comma separated (default: config key 'genes')")
	fs.StringVar(&outputDir, "o", "", "Output directory (default: config key 'output', else ./data)")
	fs.StringVar(&outputDir, "output", "", "Output directory (default: config key 'output', else ./data)")
	fs.StringVar(&email, "email", "", "Contact email for the EBI Clustal Omega service (default: config key 'email')")
	fs.IntVar(&workers, "workers", 0, "Number of concurrent protein builds (default: number of CPUs)")
	fs.BoolVar(&fetchOnly, "fetch-only", false, "Stop after writing isoforms.fasta and the alignment (before topology)")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Fetch transcripts from Ensembl, group identical protein sequences into
isoforms, align them with Clustal Omega, and reconcile DeepTMHMM
predictions into topology artifacts.

Usage:
  isoviz build [options]

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  isoviz build --genes CD20=ENSG00000156738
  isoviz build --genes CD20=ENSG00000156738,CD19=ENSG00000177455 --workers 2
  isoviz build --fetch-only

The full build expects DeepTMHMM predictions at
<output>/<protein>/DeepTMHMM_results/predicted_topologies.3line.
Use --fetch-only first, submit isoforms.fasta to DeepTMHMM, then run
build again without --fetch-only.
`)
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	genes, err := resolveGenes(genesSpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Hint: Pass --genes NAME=ENSG..., or set them with: isoviz config set genes.CD20 ENSG00000156738\n")
		return ExitUsage
	}

	logger := newLogger(verbose)
	defer logger.Sync()

	layout := pipeline.Layout{Root: resolveOutputDir(outputDir)}

	source := ensembl.NewClient("")
	source.SetLogger(logger)

	aligner := clustalo.NewClient("", resolveEmail(email))
	aligner.SetLogger(logger)

	builder := pipeline.NewBuilder(source, aligner, layout)
	builder.SetLogger(logger)

	ctx := context.Background()

	if fetchOnly {
		for _, g := range genes {
			if _, err := builder.FetchAndAlign(ctx, g); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return ExitError
			}
			fmt.Printf("%s: wrote %s\n", g.Name, layout.Path(g.Name, pipeline.FileIsoformsFASTA))
		}
		fmt.Printf("\nSubmit each isoforms.fasta to DeepTMHMM, place the results at\n")
		fmt.Printf("<output>/<protein>/%s, then run build again.\n", pipeline.FilePredictions)
		return ExitSuccess
	}

	items := make(chan pipeline.WorkItem, len(genes))
	for i, g := range genes {
		items <- pipeline.WorkItem{Seq: i, Gene: g}
	}
	close(items)

	results := builder.ParallelBuild(ctx, items, workers)

	err = pipeline.OrderedCollect(results, func(r pipeline.WorkResult) error {
		if r.Err != nil {
			return fmt.Errorf("build %s: %w", r.Gene.Name, r.Err)
		}
		fmt.Printf("%s: %d isoforms, artifacts in %s\n",
			r.Gene.Name, len(r.Artifacts.Isoforms), filepath.Join(layout.Root, r.Gene.Name))
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}

	return ExitSuccess
}

func runExpression(args []string) int {
	fs := flag.NewFlagSet("expression", flag.ExitOnError)

	var (
		protein   string
		outputDir string
		hub       string
		dbPath    string
		verbose   bool
	)

	fs.StringVar(&protein, "protein", "", "Protein name (a directory under the output root)")
	fs.StringVar(&outputDir, "o", "", "Output directory (default: config key 'output', else ./data)")
	fs.StringVar(&outputDir, "output", "", "Output directory (default: config key 'output', else ./data)")
	fs.StringVar(&hub, "hub", "", "Xena hub URL (default: config key 'xena.hub', else the Kids First hub)")
	fs.StringVar(&dbPath, "db", "", "DuckDB database to persist samples and statistics (optional)")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Fetch per-transcript expression from a UCSC Xena hub, map transcripts to
isoforms using the saved mapping, and write boxplot statistics.

Usage:
  isoviz expression [options] --protein <name>

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  isoviz expression --protein CD20
  isoviz expression --protein CD20 --db isoviz.duckdb
`)
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	layout := pipeline.Layout{Root: resolveOutputDir(outputDir)}

	if protein == "" {
		fmt.Fprintf(os.Stderr, "Error: --protein is required\n")
		if proteins, err := layout.Proteins(); err == nil && len(proteins) > 0 {
			fmt.Fprintf(os.Stderr, "Built proteins: %s\n", strings.Join(proteins, ", "))
		}
		fmt.Fprintln(os.Stderr)
		fs.Usage()
		return ExitUsage
	}

	logger := newLogger(verbose)
	defer logger.Sync()

	mappingPath := layout.Path(protein, pipeline.FileMappingCSV)
	f, err := os.Open(mappingPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Hint: Run 'isoviz build' for %s first\n", protein)
		}
		return ExitError
	}
	labels, err := output.ReadMappingCSV(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading mapping: %v\n", err)
		return ExitError
	}

	client := xena.NewClient(resolveHub(hub))
	client.SetLogger(logger)

	ctx := context.Background()

	cfg := xena.DefaultTableConfig()
	samples, err := client.ExpressionTable(ctx, cfg, labels)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching expression: %v\n", err)
		return ExitError
	}
	fmt.Fprintf(os.Stderr, "Fetched %d expression samples for %s\n", len(samples), protein)

	builder := pipeline.NewBuilder(nil, nil, layout)
	builder.SetLogger(logger)

	records, err := builder.WriteExpressionStats(pipeline.Gene{Name: protein}, samples)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	fmt.Printf("%s: %d boxplot groups, stats in %s\n",
		protein, len(records), layout.Path(protein, pipeline.FileStatsCSV))

	if dbPath == "" {
		return ExitSuccess
	}

	st, err := store.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return ExitError
	}
	defer st.Close()

	if err := st.WriteSamples(protein, samples); err != nil {
		fmt.Fprintf(os.Stderr, "Error persisting samples: %v\n", err)
		return ExitError
	}
	if err := st.WriteStats(protein, records); err != nil {
		fmt.Fprintf(os.Stderr, "Error persisting statistics: %v\n", err)
		return ExitError
	}

	// Remember what the statistics were computed from, so a later run can
	// tell whether the mapping changed underneath them.
	fp, err := store.StatFile(mappingPath)
	if err == nil {
		err = st.SaveFingerprint(protein, pipeline.FileMappingCSV, fp)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not record input fingerprint: %v\n", err)
	}

	fmt.Printf("Persisted %d samples and %d groups to %s\n", len(samples), len(records), dbPath)
	return ExitSuccess
}

// newLogger builds the process logger. Non-verbose runs only log
// warnings so the progress output stays readable.
func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// parseGenes parses a NAME=ENSEMBL_ID,NAME=ENSEMBL_ID spec.
func parseGenes(spec string) ([]pipeline.Gene, error) {
	var genes []pipeline.Gene
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, id, ok := strings.Cut(part, "=")
		if !ok || name == "" || id == "" {
			return nil, fmt.Errorf("invalid gene spec %q, want NAME=ENSEMBL_ID", part)
		}
		genes = append(genes, pipeline.Gene{Name: name, EnsemblID: id})
	}
	if len(genes) == 0 {
		return nil, fmt.Errorf("no genes specified")
	}
	return genes, nil
}

// resolveGenes takes genes from the flag, falling back to the config
// file. Config genes are sorted by name for a stable build order.
func resolveGenes(spec string) ([]pipeline.Gene, error) {
	if spec != "" {
		return parseGenes(spec)
	}

	configured := configuredGenes()
	if len(configured) == 0 {
		return nil, fmt.Errorf("no genes specified")
	}

	names := make([]string, 0, len(configured))
	for name := range configured {
		names = append(names, name)
	}
	sort.Strings(names)

	genes := make([]pipeline.Gene, 0, len(names))
	for _, name := range names {
		genes = append(genes, pipeline.Gene{Name: name, EnsemblID: configured[name]})
	}
	return genes, nil
}
