package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/wwwzy/DeskAgent/internal/agent"
)

var runVariant string

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "处理单条客户咨询并退出",
	Long: `一次性处理一条客户咨询，打印最终回复与处理链路信息。
适合脚本化调用和快速验证配置。`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		query := strings.Join(args, " ")

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.close()

		backend, err := rt.newBackend(ctx, runVariant)
		if err != nil {
			return err
		}

		res, err := backend.Run(ctx, query, nil)
		if err != nil {
			return fmt.Errorf("process query: %w", err)
		}

		fmt.Println(res.Response)
		fmt.Println()
		fmt.Printf("trace:      %s\n", res.TraceID)
		fmt.Printf("intent:     %s\n", res.Intent)
		fmt.Printf("sentiment:  %s\n", res.Sentiment)
		fmt.Printf("status:     %s\n", res.Status)
		fmt.Printf("steps:      %s\n", strings.Join(res.AgentSequence, " > "))
		fmt.Printf("confidence: %.2f\n", res.Confidence)
		fmt.Printf("duration:   %s\n", res.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runVariant, "variant", agent.VariantFull, "系统变体: full_system/no_followup/action_only/minimal/baseline")
}
