package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/NamiCreative/Lemniscate/ai"
	"github.com/NamiCreative/Lemniscate/ai/autoreply"
	"github.com/NamiCreative/Lemniscate/ai/autotweet"
	"github.com/NamiCreative/Lemniscate/bot"
	"github.com/NamiCreative/Lemniscate/config"
	database "github.com/NamiCreative/Lemniscate/database"
	"github.com/NamiCreative/Lemniscate/journal"
	"github.com/NamiCreative/Lemniscate/keepalive"
	"github.com/NamiCreative/Lemniscate/logging"
	"github.com/NamiCreative/Lemniscate/memory"
	"github.com/NamiCreative/Lemniscate/metrics"
	"github.com/NamiCreative/Lemniscate/personality"
	"github.com/NamiCreative/Lemniscate/prompts"
	"github.com/NamiCreative/Lemniscate/publisher"
	"github.com/NamiCreative/Lemniscate/secrets"
	"github.com/NamiCreative/Lemniscate/twitter"
	"github.com/jonboulle/clockwork"
)

type options struct {
	configPath string
	test       bool
	iterations int
	verbose    bool
	logLevel   string
	model      string
}

func parseFlags(args []string) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("autotweet", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "Path to the bot config file (e.g., 'configs/bot.yaml')")
	fs.BoolVar(&o.test, "test", false, "Run a bounded number of cycles and exit")
	fs.IntVar(&o.iterations, "iterations", 0, "Cycles to run in test mode (default from config)")
	fs.BoolVar(&o.verbose, "verbose", false, "Enable debug logging")
	fs.StringVar(&o.logLevel, "errorLevel", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&o.model, "model", "", "The model to use for the LLM (overrides MODEL)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.iterations < 0 {
		return nil, fmt.Errorf("iterations must not be negative")
	}
	return o, nil
}

func (o *options) level() logging.LogLevel {
	if o.verbose {
		return logging.LogLevelDebug
	}
	return logging.LogLevel(o.logLevel)
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, opts)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, opts *options) int {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logging.NewLogger(opts.level(), os.Stdout).Error("failed to load config", "error", err.Error())
		return 1
	}
	if opts.model != "" {
		cfg.Env.Model = opts.model
	}

	logger := logging.NewLogger(opts.level(), os.Stdout)
	if cfg.Bot.LogFile != "" {
		var closer io.Closer
		logger, closer, err = logging.NewFileLogger(opts.level(), cfg.Bot.LogFile)
		if err != nil {
			logging.NewLogger(opts.level(), os.Stdout).Error("failed to open log file", "error", err.Error())
			return 1
		}
		defer closer.Close()
	}

	if err := secrets.Init(ctx, &cfg.Env, logger); err != nil {
		logger.Error("failed to resolve secrets", "error", err.Error())
		return 1
	}
	if err := cfg.Env.Validate(); err != nil {
		logger.Error("configuration error", "error", err.Error())
		return 1
	}

	// listen and serve for metrics server.
	status := metrics.NewStatusBoard()
	server := metrics.SetupServer(cfg.Bot.MetricsAddr, status)
	go server.Run()
	defer server.Close()

	var failures journal.Multi
	failures = append(failures, journal.NewFile(cfg.Bot.JournalPath))

	mem := memory.NewTweetMemory(cfg.Bot.MemoryCapacity)

	var posts database.PostWriter
	if cfg.Env.PostgresURL != "" {
		db, err := database.NewPostgres(ctx, cfg.Env.PostgresURL, logger)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err.Error())
			return 1
		}
		defer db.Close()
		posts = db
		failures = append(failures, db)

		recent, err := db.RecentPostTexts(ctx, mem.Capacity())
		if err != nil {
			logger.Warn("failed to load post history", "error", err.Error())
		}
		for _, text := range recent {
			mem.Add(text)
		}
		logger.Info("seeded tweet memory", "entries", mem.Len())
	}

	var alerter keepalive.Alerter = keepalive.NewLogAlerter(logger)
	if cfg.Env.DiscordSecret != "" {
		da, err := keepalive.NewDiscordAlerter(cfg.Env.DiscordSecret, cfg.Env.DiscordAlertChannelID, cfg.Env.DiscordAlertUserID, logger)
		if err != nil {
			logger.Warn("failed to create Discord alerter, alerts go to the log", "error", err.Error())
		} else {
			defer func() {
				if err := da.Close(); err != nil {
					logger.Error("failed to close Discord session", "error", err.Error())
				}
			}()
			alerter = da
		}
	}

	app, err := setupApp(ctx, cfg, mem, failures, logger)
	if err != nil {
		logger.Error("failed to set up bot", "error", err.Error())
		return 1
	}
	app.Alerter = alerter
	app.Posts = posts
	app.Status = status

	if opts.test {
		n := opts.iterations
		if n == 0 {
			n = cfg.Bot.TestIterations
		}
		logger.Info("starting test run", "iterations", n, "delay", cfg.Bot.TestDelay.String())
		if err := app.RunBounded(ctx, n, cfg.Bot.TestDelay); err != nil {
			logger.Error("test run failed", "error", err.Error())
			return 1
		}
		logger.Info("test run finished")
		return 0
	}

	logger.Info("starting bot", "interval", cfg.Bot.Interval.String(), "mood", cfg.Bot.StartMood)
	err = app.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bot stopped", "error", err.Error())
		return 1
	}
	logger.Info("received shutdown signal, bot stopped")
	return 0
}

func setupApp(ctx context.Context, cfg *config.Config, mem *memory.TweetMemory, failures journal.Writer, logger *logging.Logger) (*bot.App, error) {
	bc := cfg.Bot

	catalogPrompts := prompts.Default()
	if bc.PromptCatalog != "" {
		loaded, err := prompts.Load(bc.PromptCatalog)
		if err != nil {
			return nil, err
		}
		catalogPrompts = loaded
	}
	catalog := prompts.New(catalogPrompts, bc.RecentPromptWindow, nil)
	logger.Info("loaded prompt catalog", "prompts", catalog.Len(), "categories", catalog.Categories())

	state := personality.NewState(personality.Mood(bc.StartMood), nil, logger)
	cooldown := memory.NewPhraseCooldown(bc.CooldownPhrases, bc.CooldownWindow)

	llm, err := ai.NewOpenAI(ai.LLMConfig{
		BaseURL: cfg.Env.OpenAIBaseURL,
		Token:   cfg.Env.OpenAIKey,
		Model:   cfg.Env.Model,
	}, logger)
	if err != nil {
		return nil, err
	}

	gen := autotweet.Setup(llm, catalog, state, mem, cooldown, autotweet.Options{
		MaxAttempts:  bc.Generation.MaxAttempts,
		MaxTokens:    bc.Generation.MaxTokens,
		Temperature:  bc.Generation.Temperature,
		MaxLength:    ai.MaxTweetLength,
		Starters:     bc.Generation.Starters,
		AttemptPause: bc.Generation.AttemptPause,
	}, logger)

	replier := autoreply.Setup(llm, state, autoreply.Options{
		MaxTokens:   bc.Replies.MaxTokens,
		Temperature: bc.Generation.Temperature,
		Starters:    bc.Generation.Starters,
	}, logger)

	client := twitter.NewClient(ctx, twitter.Credentials{
		ClientID:     cfg.Env.TwitterClientID,
		ClientSecret: cfg.Env.TwitterClientSecret,
		AccessToken:  cfg.Env.TwitterAccessToken,
		RefreshToken: cfg.Env.TwitterRefreshToken,
	}, logger)

	clock := clockwork.NewRealClock()
	pub := publisher.New(client, failures, publisher.Options{
		PrePublishDelay:      bc.Publisher.PrePublishDelay,
		MinInterval:          bc.Publisher.MinInterval,
		DefaultRateLimitWait: bc.Publisher.DefaultRateLimitWait,
		ServerErrorCooldown:  bc.Publisher.ServerErrorCooldown,
		MaxAttempts:          bc.Publisher.MaxAttempts,
		MaxTotalWait:         bc.Publisher.MaxTotalWait,
	}, clock, logger)

	checker := keepalive.NewChecker([]keepalive.Service{
		{Name: "openai", URL: cfg.Env.OpenAIBaseURL},
		{Name: "twitter", URL: bc.Reachability.TwitterURL},
	}, logger, keepalive.WithBackoff(bc.Reachability.Attempts, bc.Reachability.Backoff))

	return &bot.App{
		Config:    cfg,
		Generator: gen,
		Replier:   replier,
		Publisher: pub,
		Platform:  client,
		Checker:   checker,
		Clock:     clock,
		Logger:    logger,
	}, nil
}
