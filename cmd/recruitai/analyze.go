package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kiranshivaraju/recruitai/internal/batch"
	"github.com/kiranshivaraju/recruitai/internal/export"
	"github.com/kiranshivaraju/recruitai/internal/extract"
	"github.com/kiranshivaraju/recruitai/internal/store"
	"github.com/kiranshivaraju/recruitai/pkg/models"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

type analyzeOptions struct {
	direction   string
	counterpart string
	company     string
	minScore    float64
	maxMissing  int
	emails      bool
	xlsx        string
	yes         bool
	record      bool
}

var analyzeOpts analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze --job FILE [flags] FILE...",
	Short: "Analyze and rank a batch of resumes or job postings from local files",
	Long: `With --direction resumes (the default) every FILE is a resume and --job is
the job description. With --direction jobs every FILE is a job posting and
--resume is the candidate resume.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return analyze(ctx, cmd.OutOrStdout(), analyzeOpts, args)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	f := analyzeCmd.Flags()
	f.StringVar(&analyzeOpts.counterpart, "job", "", "job description file (resumes direction)")
	f.StringVar(&analyzeOpts.counterpart, "resume", "", "candidate resume file (jobs direction)")
	f.StringVar(&analyzeOpts.direction, "direction", string(models.DirectionResumes), "resumes or jobs")
	f.StringVar(&analyzeOpts.company, "company", "", "company name used in generated emails")
	f.Float64Var(&analyzeOpts.minScore, "min-score", -1, "minimum acceptable score (default from BATCH_MIN_SCORE)")
	f.IntVar(&analyzeOpts.maxMissing, "max-missing", -1, "maximum missing skills (default from BATCH_MAX_MISSING_SKILLS)")
	f.BoolVar(&analyzeOpts.emails, "emails", true, "generate follow-up emails")
	f.StringVarP(&analyzeOpts.xlsx, "xlsx", "o", "", "write the ranked batch to this spreadsheet")
	f.BoolVarP(&analyzeOpts.yes, "yes", "y", false, "do not ask for confirmation")
	f.BoolVar(&analyzeOpts.record, "record", false, "save the batch to the configured database")

	analyzeCmd.MarkFlagsMutuallyExclusive("job", "resume")
	analyzeCmd.MarkFlagsOneRequired("job", "resume")
}

func analyze(ctx context.Context, out io.Writer, opts analyzeOptions, files []string) error {
	dir := models.Direction(opts.direction)
	if !dir.Valid() {
		return fmt.Errorf("--direction must be resumes or jobs, got %q", opts.direction)
	}
	if opts.counterpart == "" {
		return fmt.Errorf("--%s is required", counterpartFlag(dir))
	}
	for _, path := range append([]string{opts.counterpart}, files...) {
		if !extract.Supported(path) {
			return fmt.Errorf("%s: %w", path, extract.ErrUnsupportedFormat)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	counterpart, err := readFile(opts.counterpart)
	if err != nil {
		return err
	}

	th := a.thresholds()
	if opts.minScore >= 0 {
		th.MinimumScore = opts.minScore
	}
	if opts.maxMissing >= 0 {
		th.MaxMissingSkills = opts.maxMissing
	}

	rec := batch.Recorder(batch.NopRecorder{})
	if opts.record {
		st, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		rec = batch.NewStoreRecorder(st, a.cache)
	}
	runner := a.newRunner(rec, batch.WithPace(0))

	req := batch.Request{
		BatchID:        uuid.New(),
		Direction:      dir,
		Items:          fileItems(files),
		Counterpart:    counterpart,
		CompanyName:    opts.company,
		Thresholds:     th,
		GenerateEmails: opts.emails,
	}
	if err := runner.Validate(req); err != nil {
		return err
	}

	if !opts.yes {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Analyze %d %s against %s?", len(files), dir, filepath.Base(opts.counterpart)),
			Items: []string{PromptYes, PromptNo},
		}
		_, answer, err := prompt.Run()
		if err != nil {
			return err
		}
		if answer != PromptYes {
			a.zap.Info("aborted")
			return nil
		}
	}

	progress := batch.SinkFunc(func(_ context.Context, ev models.ProgressEvent) error {
		if ev.Type == models.EventError {
			fmt.Fprintf(out, "[%3d%%] error: %s\n", ev.Percentage, ev.Message)
			return nil
		}
		fmt.Fprintf(out, "[%3d%%] %s\n", ev.Percentage, ev.Status)
		return nil
	})

	b, err := runner.Run(ctx, req, progress)
	if err != nil {
		return err
	}

	printResults(out, b)

	if opts.xlsx != "" {
		path, err := export.SaveBatch(opts.xlsx, b)
		if err != nil {
			return fmt.Errorf("export batch: %w", err)
		}
		a.zap.Info("batch exported", zap.String("file", path))
	}
	return nil
}

func fileItems(paths []string) []batch.Item {
	items := make([]batch.Item, 0, len(paths))
	for _, path := range paths {
		items = append(items, batch.Item{
			Identifier: filepath.Base(path),
			Load: func(context.Context) (string, error) {
				return readFile(path)
			},
		})
	}
	return items
}

func readFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return extract.Text(path, f)
}

func printResults(out io.Writer, b *models.Batch) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "IDENTIFIER\tSCORE\tMISSING\tACCEPTABLE\tBEST\tEMAIL")
	for _, it := range b.Items {
		if it.Failed() {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t%s\n", it.Identifier, it.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%.0f\t%s\t%s\t%s\t%s\n",
			it.Identifier,
			it.Analysis.Score,
			orDash(strings.Join(it.Analysis.MissingSkills, ", ")),
			yesNo(it.Acceptable),
			yesNo(it.IsBestMatch),
			orDash(string(it.EmailType)))
	}
	tw.Flush()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func counterpartFlag(dir models.Direction) string {
	if dir == models.DirectionJobs {
		return "resume"
	}
	return "job"
}
