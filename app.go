package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"auto_x_thread_publisher/config"
	"auto_x_thread_publisher/forecast"
	"auto_x_thread_publisher/generator"
	"auto_x_thread_publisher/history"
	"auto_x_thread_publisher/publisher"
	"auto_x_thread_publisher/scheduler"
	"auto_x_thread_publisher/segmenter"
)

// app holds the shared pieces the subcommands assemble on demand. The store
// stays nil until openStore is called so read-only commands do not create
// database files as a side effect.
type app struct {
	cfg    config.Config
	loc    *time.Location
	logger *log.Logger
	store  *history.Store
}

func newApp(cfgPath string, logger *log.Logger) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, loc: loc, logger: logger}, nil
}

func (a *app) openStore() (*history.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := history.Open(a.cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open state %s: %w", a.cfg.StatePath, err)
	}
	a.store = store
	return store, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
}

func (a *app) newLLM(settings config.LLM) (generator.LLMClient, error) {
	apiKey, err := config.APIKeyForProvider(settings.Provider)
	if err != nil {
		return nil, err
	}
	llm, err := generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
		Provider: settings.Provider,
		Model:    settings.Model,
		APIKey:   apiKey,
		BaseURL:  settings.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	return llm, nil
}

// newPipeline wires the generation pipeline. store may be nil (preview
// without duplicate avoidance is still useful when the state file is
// unavailable).
func (a *app) newPipeline(store *history.Store) (*generator.Pipeline, error) {
	writer, err := a.newLLM(a.cfg.Post.Writer)
	if err != nil {
		return nil, fmt.Errorf("writer llm: %w", err)
	}
	editor, err := a.newLLM(a.cfg.Post.Editor)
	if err != nil {
		// the pipeline degrades to unedited drafts without an editor
		a.logger.Printf("editor llm unavailable, polish pass disabled: %v", err)
		editor = nil
	}
	var hs generator.HistoryStore
	if store != nil {
		hs = store
	}
	p := a.cfg.Post
	return generator.NewPipeline(writer, editor, hs, generator.Options{
		MaxTries:            p.MaxTries,
		MaxTotalChars:       p.MaxTotalChars,
		MinChars:            p.MinChars,
		SimilarityThreshold: p.SimilarityThreshold,
		HistoryLookback:     p.HistoryLookback,
		HistoryCap:          p.HistoryCap,
		Forbidden:           p.Forbidden,
		Angles:              p.Angles,
		FallbackText:        p.FallbackText,
		ThemeTemperature:    p.ThemeTemperature,
		WriterTemperature:   p.WriterTemperature,
		EditorTemperature:   p.EditorTemperature,
	}, a.logger), nil
}

func (a *app) newPublisher(verbose bool) (*publisher.Client, error) {
	creds, err := config.CredentialsFromEnv()
	if err != nil {
		return nil, err
	}
	return publisher.New(publisher.Config{
		APIKey:            creds.APIKey,
		APISecret:         creds.APISecret,
		AccessToken:       creds.AccessToken,
		AccessTokenSecret: creds.AccessTokenSecret,
	}, nil, verbose, a.logger)
}

func (a *app) newForecastBot(pub *publisher.Client) (*forecast.Bot, error) {
	f := a.cfg.Forecast
	llm, err := a.newLLM(f.Body)
	if err != nil {
		a.logger.Printf("forecast llm unavailable, using deterministic body: %v", err)
		llm = nil
	}
	return forecast.NewBot(forecast.NewWeatherClient(nil), llm, pub, forecast.Options{
		Latitude:   f.Latitude,
		Longitude:  f.Longitude,
		BannerPath: f.BannerPath,
		TweetLimit: f.TweetLimit,
	}, a.loc, a.logger)
}

// splitPost segments one finished post text per the configured limits.
func (a *app) splitPost(text string) []string {
	return segmenter.Split(text, segmenter.Options{
		Limit:    a.cfg.Post.TweetLimit,
		MaxParts: a.cfg.Post.MaxParts,
	})
}

// postJob is the scheduled unit of work for one theme-post slot: generate,
// segment, publish. The returned ID is the confirmed head post, which is
// what the guard records as the day's success.
func (a *app) postJob(pipe *generator.Pipeline, pub *publisher.Client) scheduler.Job {
	return func(ctx context.Context, slot scheduler.Slot) (string, error) {
		text := pipe.Run(ctx)
		parts := a.splitPost(text)
		if len(parts) == 0 {
			return "", fmt.Errorf("slot %s: nothing to publish", slot.Name)
		}
		return pub.PublishThread(ctx, parts, nil)
	}
}

// entries assembles the full daily schedule: one guarded slot per post time
// plus the forecast slot when enabled.
func (a *app) entries(store *history.Store, pipe *generator.Pipeline, pub *publisher.Client) ([]scheduler.Entry, error) {
	var entries []scheduler.Entry
	catchUp := time.Duration(a.cfg.Post.CatchUpMinutes) * time.Minute
	for _, at := range a.cfg.Post.SlotTimes {
		guard, err := scheduler.NewGuard(store, scheduler.Slot{
			Name:    "post:" + at,
			At:      at,
			CatchUp: catchUp,
		}, a.loc, a.logger)
		if err != nil {
			return nil, err
		}
		entries = append(entries, scheduler.Entry{Guard: guard, Job: a.postJob(pipe, pub)})
	}

	if a.cfg.Forecast.Enabled {
		bot, err := a.newForecastBot(pub)
		if err != nil {
			return nil, err
		}
		guard, err := scheduler.NewGuard(store, scheduler.Slot{
			Name:    "forecast",
			At:      a.cfg.Forecast.SlotTime,
			CatchUp: time.Duration(a.cfg.Forecast.CatchUpMinutes) * time.Minute,
		}, a.loc, a.logger)
		if err != nil {
			return nil, err
		}
		entries = append(entries, scheduler.Entry{
			Guard: guard,
			Job: func(ctx context.Context, _ scheduler.Slot) (string, error) {
				return bot.Publish(ctx, time.Now().In(a.loc))
			},
		})
	}
	return entries, nil
}
