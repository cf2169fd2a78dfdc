package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/coldmail/internal/compose"
	"github.com/spigell/coldmail/internal/filtering"
	"github.com/spigell/coldmail/internal/logger"
	"github.com/spigell/coldmail/internal/pipeline"
	"github.com/spigell/coldmail/internal/postings"
	"github.com/spigell/coldmail/internal/ranking"
)

const (
	PromptAll  = "Write emails for all postings"
	PromptOne  = "Write an email for one posting"
	PromptDump = "Dump postings to file"
	PromptQuit = "Quit"
	PromptBack = "back"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptAll, PromptOne, PromptDump, PromptQuit},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Extract job postings and write an application email for each of them",
	Run: func(cmd *cobra.Command, _ []string) {
		generate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	addJobFlags(generateCmd)
	generateCmd.Flags().StringP("resume", "r", "", "resume file (txt, md, pdf or docx)")
	generateCmd.Flags().StringP("name", "n", "", "applicant name used in the signature")
	generateCmd.Flags().StringP("title", "t", "", "applicant title placed under the name in the signature")
	generateCmd.Flags().StringP("output-dir", "o", "", "directory to store emails as markdown files")
	generateCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation, write emails for all postings")
	generateCmd.Flags().Bool("no-history", false, "neither skip nor record postings in the history file")

	viper.BindPFlag("resume", generateCmd.Flags().Lookup("resume"))
	viper.BindPFlag("applicant.name", generateCmd.Flags().Lookup("name"))
	viper.BindPFlag("applicant.title", generateCmd.Flags().Lookup("title"))
	viper.BindPFlag("output-dir", generateCmd.Flags().Lookup("output-dir"))
}

// generate is the main command for the cli.
func generate(cmd *cobra.Command) {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	runLogger := logger.WithRun(zlog, uuid.NewString())

	config, err := getConfig()
	if err != nil {
		runLogger.Fatal("getting a config", zap.Error(err))
	}

	runLogger.Info("starting the coldmail", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	runLogger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	resume, err := readResume(config, runLogger)
	if err != nil {
		runLogger.Fatal("loading resume", zap.Error(err),
			zap.String("hint", "set --resume or the 'resume' key in the configuration file"),
		)
	}

	jobText, err := readJobText(ctx, cmd, config, runLogger)
	if err != nil {
		runLogger.Fatal("loading job text", zap.Error(err))
	}

	noHistory, _ := cmd.Flags().GetBool("no-history")
	run, err := newRun(ctx, config, noHistory, runLogger)
	if err != nil {
		runLogger.Fatal("preparing the pipeline", zap.Error(err))
	}

	found, err := run.pipeline.Extract(ctx, jobText)
	if err != nil {
		runLogger.Fatal("extracting job postings", zap.Error(err))
	}

	if found.Len() == 0 {
		runLogger.Info("exiting", zap.String("reason", "no job postings left"))
		return
	}

	runLogger.Info("job postings found", zap.Int("count", found.Len()), zap.Strings("roles", found.Titles()))

	autoApprove, _ := cmd.Flags().GetBool("yes")
	for found.Len() > 0 {
		action := PromptAll
		if !autoApprove && found.Len() > 1 {
			_, action, err = prompt.Run()
			if err != nil {
				runLogger.Fatal("exiting", zap.Error(err))
			}
		}

		if err := run.handleAction(ctx, action, found, resume); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			runLogger.Fatal("exiting", zap.Error(err))
		}
	}
}

// generateRun carries what the menu actions of one generate invocation share.
type generateRun struct {
	pipeline    *pipeline.Pipeline
	writer      *emailWriter
	historyFile string
	logger      *zap.Logger
}

func newRun(ctx context.Context, config *Config, noHistory bool, logger *zap.Logger) (*generateRun, error) {
	p, err := newPipeline(ctx, config, noHistory, logger)
	if err != nil {
		return nil, err
	}

	run := &generateRun{
		pipeline: p,
		writer:   &emailWriter{out: os.Stdout, dir: config.OutputDir},
		logger:   logger,
	}
	if !noHistory {
		run.historyFile = config.HistoryFile
	}
	return run, nil
}

func newPipeline(ctx context.Context, config *Config, noHistory bool, logger *zap.Logger) (*pipeline.Pipeline, error) {
	caps, err := newProviders(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	var ranker compose.FragmentRanker
	if caps.scorer != nil {
		ranker = ranking.NewRanker(caps.scorer, ranking.Options{MaxFragmentChars: config.Ranking.MaxFragmentChars}, logger)
	}

	extractor := postings.NewExtractor(caps.completer, postings.ExtractorOptions{
		MaxInputChars: config.Extraction.MaxInputChars,
	}, logger)

	composer := compose.NewComposer(caps.completer, ranker, compose.Options{
		TopK:           config.Ranking.TopK,
		FallbackChars:  config.Ranking.FallbackChars,
		ApplicantName:  config.Applicant.Name,
		ApplicantTitle: config.Applicant.Title,
	}, logger)

	filters := filtering.Default()
	if noHistory {
		filtering.DisableByName(filters, "history", "--no-history flag is set")
	}

	return pipeline.New(extractor, composer, pipeline.Options{
		Concurrency: config.Concurrency,
		Filters:     filters,
		Filter: filtering.Config{
			ExcludeRoles: config.ExcludeRoles,
			HistoryFile:  config.HistoryFile,
		},
	}, logger), nil
}

func (r *generateRun) handleAction(ctx context.Context, action string, found *postings.Postings, resume string) error {
	switch action {
	case PromptAll:
		if err := r.compose(ctx, found, resume); err != nil {
			return err
		}
		return errExit
	case PromptOne:
		return r.composeOne(ctx, found, resume)
	case PromptDump:
		filename, err := found.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump postings to file: %w", err)
		}
		r.logger.Info("dumping postings to file", zap.String("filename", filename))
		return nil
	case PromptQuit:
		r.logger.Info("exiting", zap.String("reason", "got quit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (r *generateRun) composeOne(ctx context.Context, found *postings.Postings, resume string) error {
	items := append(found.Titles(), PromptBack)
	choose := promptui.Select{
		Label: "Choose a posting and press ENTER",
		Items: items,
	}

	index, selected, err := choose.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return nil
	}

	posting := found.Items[index]
	if err := r.compose(ctx, &postings.Postings{Items: []*postings.Posting{posting}}, resume); err != nil {
		return err
	}

	found.Exclude(func(p *postings.Posting) bool { return p == posting })
	return nil
}

func (r *generateRun) compose(ctx context.Context, selected *postings.Postings, resume string) error {
	results, err := r.pipeline.ComposeAll(ctx, selected, resume)
	if err != nil {
		return err
	}

	files, err := r.writer.Write(results)
	if err != nil {
		return fmt.Errorf("writing emails: %w", err)
	}
	if len(files) > 0 {
		r.logger.Info("emails stored", zap.Strings("files", files))
	}

	if err := pipeline.RecordHistory(r.historyFile, results); err != nil {
		return err
	}
	if r.historyFile != "" {
		r.logger.Info("appended postings to history file", zap.String("filename", r.historyFile))
	}

	return nil
}
