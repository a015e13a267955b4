// Command tracker follows one customer's current order from the terminal, the way a
// customer client would: it polls the API, prints every status change and clears the
// order once delivered or cancelled.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fulfillment/cmd"
	"fulfillment/internal/adapters/out/orderapi"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/telemetry"
	"fulfillment/internal/tracking"

	"github.com/urfave/cli/v3"
)

// consoleView prints what a customer screen would show.
type consoleView struct {
	out io.Writer
}

func (v consoleView) Show(obs tracking.Observation) {
	fmt.Fprintf(v.out, "%s  order %s is %s\n", time.Now().Format(time.TimeOnly), obs.OrderID, obs.Status)
}

func (v consoleView) Clear() {
	fmt.Fprintf(v.out, "%s  no order to track\n", time.Now().Format(time.TimeOnly))
}

func main() {
	cmd.LoadDotEnv()
	defaults := tracking.DefaultConfig()

	app := &cli.Command{
		Name:  "tracker",
		Usage: "Follow a customer's current order",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Value:   "http://localhost:8080",
				Usage:   "Base URL of the fulfillment API",
				Sources: cli.EnvVars("ORDER_API_URL"),
			},
			&cli.StringFlag{
				Name:     "customer",
				Aliases:  []string{"c"},
				Usage:    "Customer channel reference to track",
				Required: true,
				Sources:  cli.EnvVars("CUSTOMER_REF"),
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Value:   defaults.PollInterval,
				Usage:   "Delay between polls",
				Sources: cli.EnvVars("TRACKING_POLL_INTERVAL"),
			},
			&cli.DurationFlag{
				Name:    "auto-clear-delay",
				Value:   defaults.AutoClearDelay,
				Usage:   "How long a delivered order stays visible",
				Sources: cli.EnvVars("TRACKING_AUTO_CLEAR_DELAY"),
			},
			&cli.DurationFlag{
				Name:    "fetch-timeout",
				Value:   defaults.FetchTimeout,
				Usage:   "Deadline of every API call",
				Sources: cli.EnvVars("TRACKING_FETCH_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *cli.Command) error {
	logger, err := telemetry.NewLogger(os.Stderr, c.String("log-level"), "text")
	if err != nil {
		return err
	}

	customer, err := kernel.ChannelRefFromString(c.String("customer"))
	if err != nil {
		return err
	}

	client, err := orderapi.NewClient(c.String("api-url"), nil)
	if err != nil {
		return err
	}

	tracker := tracking.NewTracker(client, tracking.Config{
		PollInterval:   c.Duration("poll-interval"),
		AutoClearDelay: c.Duration("auto-clear-delay"),
		FetchTimeout:   c.Duration("fetch-timeout"),
	}, logger)
	defer tracker.StopAll()

	if _, err := tracker.Start(ctx, customer, consoleView{out: os.Stdout}); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Debug("Tracker interrupted")
	return nil
}
