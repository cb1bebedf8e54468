package cmd

import (
	"fmt"
	"log"
	"os"
	"syscall"

	spellstrconfig "github.com/lai323/spellstr/config"
	"github.com/lai323/spellstr/practice"
	"github.com/lai323/spellstr/utils"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	storagePath string
	logLevel    string
	UnlockDb    bool
	pracOpt     practice.Options

	config  spellstrconfig.Config
	rootCmd = &cobra.Command{
		Use:   "spellstr",
		Short: "listen to a word, then spell it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if UnlockDb {
				return unlockdb()
			}
			cmd.Help()
			return nil
		},
	}

	practiceCmd = &cobra.Command{
		Use:   "prac",
		Short: "spelling practice",
		Args:  cobra.NoArgs,
		RunE:  practice.Run(&config, &pracOpt),
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", fmt.Sprintf("config file (default is %s)", spellstrconfig.DefaultConfigPath))
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", fmt.Sprintf("storage dir (default is %s)", spellstrconfig.DefaultStorageDir))
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&UnlockDb, "unlockdb", false, "unlock db files left locked by a crashed run")

	practiceCmd.Flags().StringVar(&pracOpt.Import, "import", "", "import word list file (JSON array of {word, exampleSentence})")
	practiceCmd.Flags().BoolVar(&pracOpt.List, "list", false, "list words")
	practiceCmd.Flags().BoolVar(&pracOpt.Stats, "stats", false, "show stats")
	practiceCmd.Flags().BoolVar(&pracOpt.Clean, "clean", false, "reset stats")
	practiceCmd.Flags().BoolVar(&pracOpt.ResetWords, "reset-words", false, "go back to the default word list")
	practiceCmd.Flags().StringVar(&pracOpt.Voice, "voice", "", "preferred voice name")

	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(proxyCmd)
	rootCmd.AddCommand(cacheCmd)
}

func initConfig() {
	var err error
	config, err = spellstrconfig.InitConfig(afero.NewOsFs(), utils.ExpandPath(configPath))
	if err != nil {
		log.Fatal(err)
	}
	config.StoragePath = utils.ExpandPath(spellstrconfig.GetStringOption(storagePath, config.StoragePath))
	config.LogLevel = spellstrconfig.GetStringOption(logLevel, config.LogLevel)
	if err := os.MkdirAll(config.StoragePath, 0755); err != nil {
		log.Fatal(err)
	}
}

func unlockdb() error {
	for _, p := range []string{config.DbFile(), config.CacheFile()} {
		file, err := os.Open(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		err = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		if err != nil {
			return err
		}
		fmt.Printf("unlock %s\n", p)
	}
	return nil
}
