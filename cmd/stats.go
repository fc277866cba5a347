package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/salarylens/salarylens/internal/model"
)

var (
	statsCSVPath string
	statsBy      string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-dimension salary statistics for the dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		e, err := initPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		path := statsCSVPath
		if path == "" {
			path = cfg.Dataset.Path
		}
		pd, err := processDataset(ctx, e, path)
		if err != nil {
			return err
		}

		tables := map[string][]model.GroupStat{
			"experience": pd.Stats.ByExperience,
			"location":   pd.Stats.ByLocation,
			"year":       pd.Stats.ByYear,
			"size":       pd.Stats.ByCompanySize,
			"title":      pd.Stats.ByJobTitle,
			"remote":     pd.Stats.ByRemoteRatio,
			"employment": pd.Stats.ByEmploymentType,
		}
		order := []string{"experience", "location", "year", "size", "title", "remote", "employment"}

		if statsBy != "all" {
			if _, ok := tables[statsBy]; !ok {
				return eris.Errorf("unknown dimension %q (want one of experience, location, year, size, title, remote, employment, all)", statsBy)
			}
			order = []string{statsBy}
		}

		p := message.NewPrinter(language.English)
		for _, name := range order {
			p.Printf("\n%s\n", name)
			for _, g := range tables[name] {
				p.Printf("  %-40s %6d records  avg $%d\n", g.Key, g.Count, g.AvgSalary)
			}
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsCSVPath, "csv", "", "dataset path (default from config)")
	statsCmd.Flags().StringVar(&statsBy, "by", "all", "dimension to show")
	rootCmd.AddCommand(statsCmd)
}
