package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wwwzy/DeskAgent/internal/agent"
	"github.com/wwwzy/DeskAgent/internal/tui"
	"github.com/wwwzy/DeskAgent/internal/ui"
)

var (
	chatUI        string
	chatVariant   string
	chatShowTrace bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "进入交互式客服对话模式",
	Long: `进入一个控制台 REPL，像客户一样提问。
系统按 分诊 -> 知识/动作 -> 跟进 的流程处理，并在需要时升级人工。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.close()

		backend, err := rt.newBackend(ctx, chatVariant)
		if err != nil {
			return err
		}

		var uiImpl ui.ChatUI
		switch chatUI {
		case "console", "":
			uiImpl = &ui.ConsoleChatUI{In: os.Stdin, Out: os.Stdout}
		case "tui":
			uiImpl = &tui.ChatUI{}
		default:
			return fmt.Errorf("未知 ui 类型: %s (支持: console, tui)", chatUI)
		}

		return uiImpl.Run(ctx, backend, ui.ChatOptions{
			HistoryWindow: cfg.HistoryWindow,
			ShowTrace:     chatShowTrace,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatUI, "ui", "console", "交互界面类型: console/tui")
	chatCmd.Flags().StringVar(&chatVariant, "variant", agent.VariantFull, "系统变体: full_system/no_followup/action_only/minimal/baseline")
	chatCmd.Flags().BoolVar(&chatShowTrace, "show-trace", false, "回复后打印意图与步骤序列")
}
