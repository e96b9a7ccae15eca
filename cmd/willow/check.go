package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Gobusters/ectolinq"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/willow/config"
	"github.com/Ramsey-B/willow/pkg/logging"
	"github.com/Ramsey-B/willow/pkg/matching"
	"github.com/Ramsey-B/willow/pkg/models"
	"github.com/Ramsey-B/willow/pkg/pool"
)

type checkOptions struct {
	candidateFile string
	poolFile      string
	demo          bool
	threshold     float64
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check one memorial against a pool without a database",
		Example: `  willow check --candidate john.yaml --demo
  willow check --candidate john.yaml --pool memorials.yaml --threshold 0.7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.candidateFile, "candidate", "", "yaml file with the memorial to check")
	cmd.Flags().StringVar(&opts.poolFile, "pool", "", "yaml file with existing memorials under 'memorials:'")
	cmd.Flags().BoolVar(&opts.demo, "demo", false, "check against the built-in demo memorials")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", -1, "minimum score for a match (default from MATCH_THRESHOLD)")
	_ = cmd.MarkFlagRequired("candidate")
	cmd.MarkFlagsMutuallyExclusive("pool", "demo")
	cmd.MarkFlagsOneRequired("pool", "demo")

	return cmd
}

func runCheck(cmd *cobra.Command, root *rootOptions, opts *checkOptions) error {
	cfg, err := config.Load(root.configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	candidate, err := readCandidateFile(opts.candidateFile)
	if err != nil {
		return err
	}

	source, err := loadPoolSource(opts)
	if err != nil {
		return err
	}

	scorer, err := matching.NewSimilarityScorer(cfg.SimilarityConfig())
	if err != nil {
		return err
	}
	service := matching.NewService(logging.Silent(), matching.NewDuplicateFinder(scorer), source, cfg.MatchingConfig())

	var threshold *float64
	if cmd.Flags().Changed("threshold") {
		threshold = &opts.threshold
	}

	report, err := service.CheckDuplicates(cmd.Context(), candidate, threshold)
	if err != nil {
		return err
	}

	printReport(cmd.OutOrStdout(), candidate, report)
	return nil
}

func readCandidateFile(path string) (models.MemorialCandidate, error) {
	var candidate models.MemorialCandidate

	f, err := os.Open(path)
	if err != nil {
		return candidate, fmt.Errorf("failed to open candidate file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&candidate); err != nil && !errors.Is(err, io.EOF) {
		return candidate, fmt.Errorf("failed to decode candidate file %s: %w", path, err)
	}
	return candidate, nil
}

func loadPoolSource(opts *checkOptions) (*pool.MemorySource, error) {
	if opts.demo {
		return pool.LoadDemo()
	}

	f, err := os.Open(opts.poolFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool file: %w", err)
	}
	defer f.Close()

	candidates, err := pool.ReadCandidates(f)
	if err != nil {
		return nil, err
	}

	source := pool.NewMemorySource()
	if err := source.Load(candidates); err != nil {
		return nil, err
	}
	return source, nil
}

func printReport(w io.Writer, candidate models.MemorialCandidate, report *models.DuplicateReport) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "%s %s\n", bold("Candidate:"), fullName(candidate))
	fmt.Fprintf(w, "%s %s\n", gray("Canonical hash:"), report.CanonicalHash)
	fmt.Fprintf(w, "%s %.2f  %s %d\n\n", gray("Threshold:"), report.Threshold, gray("Pool size:"), report.PoolSize)

	if len(report.Matches) == 0 {
		fmt.Fprintln(w, green("No potential duplicates found"))
		return
	}

	fmt.Fprintf(w, "%s\n", yellow(fmt.Sprintf("%d potential duplicate(s):", len(report.Matches))))
	for _, m := range report.Matches {
		score := yellow(fmt.Sprintf("%.3f", m.Score))
		if m.CanonicalMatch {
			score = red(fmt.Sprintf("%.3f exact", m.Score))
		}
		fmt.Fprintf(w, "  %s  %s  %s\n", score, fullName(m.Candidate), gray(m.Candidate.ID))

		fields := ectolinq.Map(m.MatchedFields, func(f models.FieldSimilarity) string {
			return fmt.Sprintf("%s=%.2f", f.Field, f.Similarity)
		})
		fmt.Fprintf(w, "         %s\n", gray(strings.Join(fields, " ")))
	}
}

func fullName(c models.MemorialCandidate) string {
	parts := []string{c.FirstName}
	if c.Nickname != "" {
		parts = append(parts, fmt.Sprintf("%q", c.Nickname))
	}
	if c.MiddleName != "" {
		parts = append(parts, c.MiddleName)
	}
	parts = append(parts, c.LastName)

	name := strings.Join(parts, " ")
	if c.BirthDate != "" || c.DeathDate != "" {
		name += fmt.Sprintf(" (%s to %s)", orUnknown(c.BirthDate), orUnknown(c.DeathDate))
	}
	return name
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
