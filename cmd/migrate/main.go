package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"storyframe-server/internal/config"
	"storyframe-server/internal/database"
	"storyframe-server/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFile  string
	migrator *database.Migrator
	log      *zap.Logger
	closeDB  func()
)

var rootCmd = &cobra.Command{
	Use:               "migrate",
	Short:             "Управление схемой базы данных storyframe",
	SilenceUsage:      true,
	PersistentPreRunE: connect,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeDB != nil {
			closeDB()
		}
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Применить все новые миграции",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrator.Up(cmd.Context())
	},
}

var downCmd = &cobra.Command{
	Use:     "down [steps]",
	Short:   "Откатить миграции (без аргумента - все)",
	Args:    cobra.MaximumNArgs(1),
	Example: "  migrate down 1",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 0
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("steps должен быть положительным числом, получено %q", args[0])
			}
			steps = n
		}
		return migrator.Down(cmd.Context(), steps)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Показать текущую версию схемы",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		version, dirty, err := migrator.Version(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
		return nil
	},
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Принудительно выставить версию схемы (снимает флаг dirty)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("некорректная версия %q: %w", args[0], err)
		}
		return migrator.ForceVersion(cmd.Context(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "путь к .env файлу (необязательный)")
	rootCmd.AddCommand(upCmd, downCmd, versionCmd, forceCmd)
}

func connect(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return err
	}
	logCfg := cfg.LoggerConfig()
	logCfg.Encoding = "console"
	log, err = logger.New(logCfg)
	if err != nil {
		return err
	}

	pool, err := database.Connect(cmd.Context(), database.PoolConfig{
		DSN:        cfg.GetDSN(),
		MaxConns:   2,
		MaxRetries: 5,
		RetryDelay: 2 * time.Second,
	}, log)
	if err != nil {
		return err
	}
	closeDB = pool.Close
	migrator = database.NewMigrator(pool, log)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
