package practice

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lai323/spellstr/config"
	"github.com/lai323/spellstr/db"
	"github.com/lai323/spellstr/speech"
	"github.com/lai323/spellstr/utils"
	"github.com/lai323/spellstr/wordset"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type Options struct {
	Import     string
	List       bool
	Stats      bool
	Clean      bool
	ResetWords bool
	Voice      string
}

func Run(cfg *config.Config, options *Options) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		*cfg = mergeConfig(*cfg, *options)
		store, err := db.NewStore(cfg.DbFile())
		if err != nil {
			return err
		}
		defer store.Close()
		out := cmd.OutOrStdout()

		if options.Import != "" {
			list, err := wordset.Import(afero.NewOsFs(), utils.ExpandPath(options.Import))
			if err != nil {
				return err
			}
			if err := NewEngine(store, nil, EngineConfig{}).ReplaceWords(list); err != nil {
				return err
			}
			fmt.Fprintf(out, "imported %d words\n", len(list))
			return nil
		}
		if options.List {
			for _, w := range NewEngine(store, nil, EngineConfig{}).Words() {
				fmt.Fprintf(out, "%-16s %s\n", w.Word, w.ExampleSentence)
			}
			return nil
		}
		if options.Stats {
			fmt.Fprintln(out, NewEngine(store, nil, EngineConfig{}).Stats())
			return nil
		}
		if options.Clean {
			return store.Delete(StatsKey)
		}
		if options.ResetWords {
			return store.Delete(WordListKey)
		}

		logger, closeLog, err := utils.OpenLogFile(config.DefaultLogPath, cfg.LogLevel, "prac")
		if err != nil {
			return err
		}
		defer closeLog()

		svc := newSpeech(cfg, logger)
		defer svc.Stop()

		engine := NewEngine(store, svc, EngineConfig{
			SuccessDelay: cfg.Practice.SuccessDelay,
			ConfirmDelay: cfg.Practice.ConfirmDelay,
			SpeechOptions: speech.Options{
				Rate:  cfg.Speech.Rate,
				Pitch: cfg.Speech.Pitch,
			},
			Logger: logger,
		})
		logger.Info("practice started", "words", len(engine.Words()), "speech", svc.Available())
		return Start(engine)
	}
}

func newSpeech(cfg *config.Config, logger *log.Logger) *speech.Service {
	var synth speech.Synthesizer
	if es, err := speech.NewEspeak(cfg.Speech.Command); err != nil {
		logger.Warn("speech disabled", "error", err)
	} else {
		synth = es
	}
	svc := speech.NewService(synth, cfg.Speech.Voice, logger)
	if svc.Available() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		svc.LoadVoices(ctx)
	}
	return svc
}

func mergeConfig(cfg config.Config, options Options) config.Config {
	cfg.Speech.Voice = config.GetStringOption(options.Voice, cfg.Speech.Voice)
	return cfg
}
