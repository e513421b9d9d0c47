package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"auto_x_thread_publisher/scheduler"
	"auto_x_thread_publisher/textmetrics"
)

var (
	cfgPath      string
	verbose      bool
	statusRecent int
)

var rootCmd = &cobra.Command{
	Use:          "auto-x-thread-publisher",
	Short:        "Automated X thread publisher for the Sendai seitai account",
	Long:         "Generates themed posts through a writer/editor LLM pipeline, guards against duplicates and double posting, and publishes them as threads on a daily slot schedule. Also posts the daily Sendai pressure-pain forecast.",
	SilenceUsage: true,
}

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable info logs")
	statusCmd.Flags().IntVar(&statusRecent, "recent", 10, "number of recent posts to show")
	rootCmd.AddCommand(runCmd, postCmd, previewCmd, forecastCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduling daemon for both bots",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgPath, log.Default())
		if err != nil {
			return err
		}
		defer a.close()

		store, err := a.openStore()
		if err != nil {
			return err
		}
		pipe, err := a.newPipeline(store)
		if err != nil {
			return err
		}
		pub, err := a.newPublisher(verbose)
		if err != nil {
			return err
		}
		entries, err := a.entries(store, pipe, pub)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a.logger.Printf("daemon started: %d slot(s), timezone %s", len(entries), a.cfg.Timezone)
		if err := scheduler.NewRunner(entries, time.Minute, a.logger).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Generate and publish one post now, bypassing the slot guard",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgPath, log.Default())
		if err != nil {
			return err
		}
		defer a.close()

		store, err := a.openStore()
		if err != nil {
			return err
		}
		pipe, err := a.newPipeline(store)
		if err != nil {
			return err
		}
		pub, err := a.newPublisher(verbose)
		if err != nil {
			return err
		}

		firstID, err := a.postJob(pipe, pub)(cmd.Context(), scheduler.Slot{Name: "manual"})
		if err != nil {
			if firstID != "" {
				a.logger.Printf("thread broke after head post %s: %v", firstID, err)
				fmt.Println(firstID)
				return nil
			}
			return err
		}
		fmt.Println(firstID)
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Generate a post and print its segmentation without publishing",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgPath, log.Default())
		if err != nil {
			return err
		}
		defer a.close()

		// Preview must not mutate history or rotation state, so the
		// pipeline runs storeless here.
		pipe, err := a.newPipeline(nil)
		if err != nil {
			return err
		}

		text := pipe.Run(cmd.Context())
		parts := a.splitPost(text)

		heading := color.New(color.FgCyan, color.Bold)
		heading.Printf("generated text (%d runes)\n", textmetrics.RuneLen(text))
		fmt.Println(text)
		fmt.Println()
		heading.Printf("thread segmentation (%d part(s), limit %d)\n", len(parts), a.cfg.Post.TweetLimit)
		for i, p := range parts {
			color.New(color.FgYellow).Printf("--- part %d/%d (%d runes)\n", i+1, len(parts), textmetrics.RuneLen(p))
			fmt.Println(p)
		}
		return nil
	},
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Publish the pressure forecast thread now, bypassing the slot guard",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgPath, log.Default())
		if err != nil {
			return err
		}
		defer a.close()

		pub, err := a.newPublisher(verbose)
		if err != nil {
			return err
		}
		bot, err := a.newForecastBot(pub)
		if err != nil {
			return err
		}

		firstID, err := bot.Publish(cmd.Context(), time.Now().In(a.loc))
		if err != nil {
			if firstID != "" {
				a.logger.Printf("forecast thread broke after head post %s: %v", firstID, err)
				fmt.Println(firstID)
				return nil
			}
			return err
		}
		fmt.Println(firstID)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent posts, rotation counters and slot guard state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgPath, log.Default())
		if err != nil {
			return err
		}
		defer a.close()

		store, err := a.openStore()
		if err != nil {
			return err
		}
		return printStatus(os.Stdout, a, store)
	},
}
