package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/wwwzy/DeskAgent/internal/storage"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "查看与维护会话记录",
	Long:  `提供查看历史咨询、数据库概况和清理旧记录的命令。`,
}

var (
	historyLimit     int
	historyIntent    string
	historyStatus    string
	historyTrace     string
	historyEscalated bool
	pruneDays        int
)

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出最近的咨询记录",
	Run:   runHistoryList,
}

var historyInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "显示数据库统计概况",
	Run:   runHistoryInfo,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "清理过期的会话记录",
	Long:  `按保留天数分批删除旧的会话记录，避免单次大事务锁库。`,
	Run:   runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyInfoCmd)
	historyCmd.AddCommand(historyPruneCmd)

	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "返回条数上限")
	historyListCmd.Flags().StringVar(&historyIntent, "intent", "", "按意图过滤")
	historyListCmd.Flags().StringVar(&historyStatus, "status", "", "按处理终态过滤 (resolved/partial/escalated/failed)")
	historyListCmd.Flags().StringVar(&historyTrace, "trace", "", "按链路 ID 精确过滤")
	historyListCmd.Flags().BoolVar(&historyEscalated, "escalated-only", false, "只看移交人工的记录")

	historyPruneCmd.Flags().IntVar(&pruneDays, "days", 0, "保留最近 N 天的记录（默认取配置文件 retention_days）")
}

func runHistoryList(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if cfg == nil {
		fmt.Println("Config not loaded")
		os.Exit(1)
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	q := storage.ConversationQuery{
		TraceID: historyTrace,
		Intent:  historyIntent,
		Status:  historyStatus,
		Limit:   historyLimit,
		Desc:    true,
	}
	if historyEscalated {
		yes := true
		q.Escalated = &yes
	}

	recs, err := store.QueryConversationRecords(ctx, q)
	if err != nil {
		fmt.Printf("Error querying records: %v\n", err)
		os.Exit(1)
	}
	if len(recs) == 0 {
		fmt.Println("No records found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "Time\tIntent\tStatus\tSteps\tDuration\tQuery")
	fmt.Fprintln(w, "----\t------\t------\t-----\t--------\t-----")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Intent,
			r.Status,
			r.SequenceJSON,
			r.DurationMS,
			truncate(r.Query, 48))
	}
	w.Flush()
}

func runHistoryInfo(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if cfg == nil {
		fmt.Println("Config not loaded")
		os.Exit(1)
	}

	dbPath := cfg.Storage.Path
	if !filepath.IsAbs(dbPath) {
		if absPath, err := filepath.Abs(dbPath); err == nil {
			dbPath = absPath
		}
	}

	var dbSizeStr string
	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			dbSizeStr = "Not Found (Will be created on first run)"
		} else {
			dbSizeStr = fmt.Sprintf("Error: %v", err)
		}
	} else {
		sizeMB := float64(info.Size()) / 1024 / 1024
		dbSizeStr = fmt.Sprintf("%.2f MB (%s)", sizeMB, dbPath)
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		fmt.Printf("Database File: %s\n", dbSizeStr)
		fmt.Printf("Error opening database: %v\n", err)
		return
	}
	defer store.Close()

	convCount, err := store.CountConversationRecords(ctx)
	if err != nil {
		fmt.Printf("Error counting conversations: %v\n", err)
	}
	ablCount, err := store.CountAblationResults(ctx)
	if err != nil {
		fmt.Printf("Error counting ablation results: %v\n", err)
	}

	fmt.Printf("Database File: %s\n\n", dbSizeStr)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "Table\tCount")
	fmt.Fprintln(w, "-----\t-----")
	fmt.Fprintf(w, "ConversationRecords\t%d\n", convCount)
	fmt.Fprintf(w, "AblationResults\t%d\n", ablCount)
	w.Flush()
}

func runHistoryPrune(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if cfg == nil {
		fmt.Println("Config not loaded")
		os.Exit(1)
	}

	days := pruneDays
	if days <= 0 {
		days = cfg.RetentionDays
	}
	if days <= 0 {
		fmt.Println("Error: must specify --days or set retention_days in config")
		cmd.Usage()
		os.Exit(1)
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	before := time.Now().UTC().AddDate(0, 0, -days)
	fmt.Printf("Pruning conversation records older than %d days (before %s)...\n", days, before.Format(time.RFC3339))

	var deleted int64
	for {
		affected, err := store.DeleteConversationRecordsBeforeLimited(ctx, before, 0)
		if err != nil {
			fmt.Printf("Error pruning: %v\n", err)
			os.Exit(1)
		}
		deleted += affected
		if affected == 0 {
			break
		}
	}

	fmt.Printf("Prune completed. Deleted %d records.\n", deleted)
	if count, err := store.CountConversationRecords(ctx); err == nil {
		fmt.Printf("Remaining Conversation Records: %d\n", count)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
