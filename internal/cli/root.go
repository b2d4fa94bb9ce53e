package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"github.com/wwwzy/DeskAgent/internal/config"
	"github.com/wwwzy/DeskAgent/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *zap.Logger
)

// rootCmd 是没有子命令时调用的基础命令。
var rootCmd = &cobra.Command{
	Use:   "deskagent",
	Short: "DeskAgent 是一个多步客服支持系统",
	Long: `DeskAgent 通过分诊/知识/动作/跟进/升级五个处理步骤
自动处理客户咨询，并提供单步对照系统与消融实验工具。`,
}

// Execute 将所有子命令添加到根命令并适当设置标志。
// 这由 main.main() 调用。它只需要对 rootCmd 调用一次。
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件（默认按 ./config.yaml、$HOME/.deskagent/config.yaml 搜索）")
}

// initConfig 读取配置文件和环境变量（如果已设置）。
func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	log = logging.New(cfg.LogLevel)
}
