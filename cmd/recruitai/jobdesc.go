package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/recruitai/internal/ai"
	"github.com/kiranshivaraju/recruitai/internal/analysis"
)

var (
	jobSpec   ai.JobSpec
	jobSkills string
)

var jobDescriptionCmd = &cobra.Command{
	Use:   "job-description",
	Short: "Generate a job description",
	RunE: func(cmd *cobra.Command, args []string) error {
		jobSpec.MustHaveSkills = analysis.SplitList(jobSkills)
		if err := jobSpec.Validate(); err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		text, err := a.service.GenerateJobDescription(cmd.Context(), jobSpec)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(jobDescriptionCmd)

	f := jobDescriptionCmd.Flags()
	f.StringVar(&jobSpec.Title, "title", "", "job title")
	f.StringVar(&jobSpec.CompanyName, "company", "", "company name")
	f.StringVar(&jobSkills, "skills", "", "comma separated must-have skills")
	f.IntVar(&jobSpec.YearsExperience, "years", 0, "years of experience")
	f.StringVar(&jobSpec.EmploymentType, "employment-type", "", "full-time, contract, ...")
	f.StringVar(&jobSpec.Industry, "industry", "", "industry")
	f.StringVar(&jobSpec.Location, "location", "", "location")
}
