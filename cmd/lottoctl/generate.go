package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rickgao/lotto-engine/internal/app"
	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/recommend"
)

var (
	genStrategy   string
	genCount      int
	genWindow     int
	genInclude    []int
	genExclude    []int
	genSimilarity float64
	genUser       string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate combinations against the configured store",
	Long: `Generate combinations locally, reading draw history and metrics from
the configured database. Sets are saved only when --user is given.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genStrategy, "strategy", "s", string(model.StrategyBalanced), "strategy id")
	generateCmd.Flags().IntVarP(&genCount, "count", "n", 5, "number of sets")
	generateCmd.Flags().IntVarP(&genWindow, "window", "w", model.DefaultWindow, "window size (20, 50 or 100)")
	generateCmd.Flags().IntSliceVar(&genInclude, "include", nil, "numbers every set must contain")
	generateCmd.Flags().IntSliceVar(&genExclude, "exclude", nil, "numbers no set may contain")
	generateCmd.Flags().Float64Var(&genSimilarity, "similarity", 0, "max Jaccard similarity between sets (0 disables)")
	generateCmd.Flags().StringVar(&genUser, "user", "", "save the sets for this user id")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	id := model.StrategyID(strings.ToUpper(genStrategy))
	if !id.Valid() {
		return fmt.Errorf("unknown strategy %q", genStrategy)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Recommend.Recommend(ctx, recommend.Request{
		Strategy: id,
		Count:    genCount,
		Window:   genWindow,
		UserID:   genUser,
		Constraints: model.Constraints{
			Include:             genInclude,
			Exclude:             genExclude,
			SimilarityThreshold: genSimilarity,
		},
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !res.HasData {
		fmt.Fprintln(out, "no draw history stored; sets are unweighted")
	}
	for _, s := range res.Sets {
		fmt.Fprintf(out, "%2d  %s  %s\n", s.Index+1, formatNumbers(s.Numbers), strings.Join(s.Tags, " "))
	}
	return nil
}

func formatNumbers(nums [6]int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%2d", n)
	}
	return strings.Join(parts, " ")
}
