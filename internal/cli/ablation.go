package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wwwzy/DeskAgent/internal/ablation"
)

var (
	ablationSample  int
	ablationWorkers int
	ablationDataset string
)

var ablationCmd = &cobra.Command{
	Use:   "ablation",
	Short: "运行消融实验",
	Long: `在同一批评测样本上依次运行五种系统配置
（full_system/no_followup/action_only/minimal/baseline），
统计平均耗时、平均步骤数、解决率与升级率，结果落库并打印汇总表。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.close()

		study, err := ablation.NewStudy(rt.handlers, rt.store, log)
		if err != nil {
			return fmt.Errorf("init ablation study: %w", err)
		}

		sample := ablationSample
		if sample <= 0 {
			sample = cfg.Eval.SampleSize
		}
		workers := ablationWorkers
		if workers <= 0 {
			workers = cfg.Eval.Concurrency
		}
		dataset := ablationDataset
		if dataset == "" {
			dataset = cfg.Eval.Dataset
		}

		report, err := study.Run(ctx, ablation.Config{
			DatasetPath: dataset,
			SampleSize:  sample,
			Workers:     workers,
		})
		if err != nil {
			return fmt.Errorf("run ablation study: %w", err)
		}

		fmt.Println()
		fmt.Print(report.Format())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ablationCmd)
	ablationCmd.Flags().IntVar(&ablationSample, "sample", 0, "每个配置评测的样本数（默认取配置文件 eval.sample_size）")
	ablationCmd.Flags().IntVar(&ablationWorkers, "workers", 0, "单配置内的并发数（默认取配置文件 eval.concurrency）")
	ablationCmd.Flags().StringVar(&ablationDataset, "dataset", "", "评测样本 JSON 文件路径（默认使用内置样本集）")
}
