package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ashishsumanth1/Resume-Council/internal/config"
	"github.com/ashishsumanth1/Resume-Council/internal/council"
	"github.com/ashishsumanth1/Resume-Council/internal/export"
	"github.com/ashishsumanth1/Resume-Council/internal/observability"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the resume council pipeline end-to-end",
	Long: `Drafts a tailored resume with every configured backend in parallel, ranks
the anonymized drafts by peer vote, and synthesizes the winner into the final
resume. The result is written as markdown to stdout (or --out).`,
	RunE: runCouncilCmd,
}

var (
	runConfigPath    string
	runJobPath       string
	runProfilePath   string
	runCompany       string
	runNoPeerRanking bool
	runOutPath       string
	runDocxPath      string
	runVerbose       bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by environment)")
	runCommand.Flags().StringVarP(&runJobPath, "job", "j", "", "Path to job description text file (required)")
	runCommand.Flags().StringVarP(&runProfilePath, "profile", "p", "", "Path to master profile text file (required)")
	runCommand.Flags().StringVarP(&runCompany, "company", "c", "", "Company details (inline text, optional)")
	runCommand.Flags().BoolVar(&runNoPeerRanking, "no-peer-ranking", false, "Skip peer ranking; first successful draft is the candidate")
	runCommand.Flags().StringVarP(&runOutPath, "out", "o", "", "Write the final resume markdown to this file instead of stdout")
	runCommand.Flags().StringVar(&runDocxPath, "docx", "", "Also write the final resume as a .docx to this path")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print per-stage progress boxes")

	_ = runCommand.MarkFlagRequired("job")
	_ = runCommand.MarkFlagRequired("profile")

	rootCmd.AddCommand(runCommand)
}

func runCouncilCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return err
	}

	job, err := os.ReadFile(runJobPath)
	if err != nil {
		return fmt.Errorf("failed to read job description: %w", err)
	}
	profile, err := os.ReadFile(runProfilePath)
	if err != nil {
		return fmt.Errorf("failed to read master profile: %w", err)
	}
	if strings.TrimSpace(string(job)) == "" {
		return fmt.Errorf("job description file is empty")
	}
	if strings.TrimSpace(string(profile)) == "" {
		return fmt.Errorf("master profile file is empty")
	}

	log := newLogger(true, runVerbose)
	pipeline, registry, err := buildCouncil(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer registry.Close() //nolint:errcheck

	input := council.RunInput{
		JobDescription: string(job),
		MasterProfile:  string(profile),
		CompanyDetails: runCompany,
	}
	if runNoPeerRanking {
		off := false
		input.UsePeerRanking = &off
	}

	var result *council.RunResult
	if runVerbose {
		printer := observability.NewPrinter(os.Stderr)
		result, err = pipeline.RunWithProgress(ctx, input, func(stage string, payload any) {
			switch stage {
			case "stage1_complete":
				if drafts, ok := payload.([]council.Draft); ok {
					printer.PrintDrafts(drafts)
				}
			case "stage2_complete":
				if stage2, ok := payload.(council.Stage2); ok {
					printer.PrintRanking(stage2)
				}
			}
		})
		if err == nil {
			printer.PrintFinal(result.Stage3, result.Metadata)
		}
	} else {
		result, err = pipeline.Run(ctx, input)
	}
	if err != nil {
		return err
	}

	if runOutPath != "" {
		if err := os.WriteFile(runOutPath, []byte(result.Stage3.Response), 0o644); err != nil {
			return fmt.Errorf("failed to write resume: %w", err)
		}
	} else {
		fmt.Fprintln(os.Stdout, result.Stage3.Response)
	}

	if runDocxPath != "" {
		raw, err := export.Bytes(result.Stage3.Response)
		if err != nil {
			return fmt.Errorf("failed to build docx: %w", err)
		}
		if err := os.WriteFile(runDocxPath, raw, 0o644); err != nil {
			return fmt.Errorf("failed to write docx: %w", err)
		}
	}
	return nil
}
