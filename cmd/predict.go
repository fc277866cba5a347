package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/salarylens/salarylens/internal/model"
)

var (
	predictCSVPath string
	predictTitle   string
	predictLevel   string
	predictType    string
	predictSize    string
	predictRemote  int
	predictYear    int
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the salary for a hypothetical job profile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if model.ExperienceIndex(predictLevel) == model.UnknownIndex {
			return eris.Errorf("unknown experience level %q (want EN, MI, SE, or EX)", predictLevel)
		}
		if model.EmploymentIndex(predictType) == model.UnknownIndex {
			return eris.Errorf("unknown employment type %q (want FT, PT, CT, or FL)", predictType)
		}
		if model.CompanySizeIndex(predictSize) == model.UnknownIndex {
			return eris.Errorf("unknown company size %q (want S, M, or L)", predictSize)
		}

		e, err := initPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		path := predictCSVPath
		if path == "" {
			path = cfg.Dataset.Path
		}

		pred, _, err := readyPredictor(ctx, e, path, epochLogger())
		if err != nil {
			return err
		}

		profile := model.JobRecord{
			WorkYear:        predictYear,
			ExperienceLevel: predictLevel,
			EmploymentType:  predictType,
			JobTitle:        predictTitle,
			CompanySize:     predictSize,
			RemoteRatio:     predictRemote,
		}
		out, err := pred.Predict(pred.EncodeProfile(profile))
		if err != nil {
			return err
		}

		p := message.NewPrinter(language.English)
		p.Printf("Estimated salary: $%d\n", out.Salary)
		p.Printf("Confidence band:  $%d to $%d\n", out.Low, out.High)
		return nil
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictCSVPath, "csv", "", "dataset path (default from config)")
	predictCmd.Flags().StringVar(&predictTitle, "title", "", "job title (required)")
	predictCmd.Flags().StringVar(&predictLevel, "level", "SE", "experience level: EN, MI, SE, EX")
	predictCmd.Flags().StringVar(&predictType, "type", "FT", "employment type: FT, PT, CT, FL")
	predictCmd.Flags().StringVar(&predictSize, "size", "M", "company size: S, M, L")
	predictCmd.Flags().IntVar(&predictRemote, "remote", 0, "remote ratio 0-100")
	predictCmd.Flags().IntVar(&predictYear, "year", 2024, "work year")
	_ = predictCmd.MarkFlagRequired("title")
	rootCmd.AddCommand(predictCmd)
}
