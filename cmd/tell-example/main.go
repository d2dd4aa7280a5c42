// Command tell-example emits demo analytics events and logs against a local
// collector (see cmd/tell-sink). Run the sink first, then this binary.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tell-rs/tell-go/pkg/tell"
	"github.com/tell-rs/tell-go/pkg/tell/config"
	"github.com/tell-rs/tell-go/pkg/tell/errs"
	"github.com/tell-rs/tell-go/pkg/tell/events"
	"github.com/tell-rs/tell-go/pkg/tell/props"
)

func main() {
	var (
		apiKey   = flag.String("api-key", "0123456789abcdef0123456789abcdef", "32-hex-char API key")
		endpoint = flag.String("endpoint", config.DevEndpoint, "collector host:port")
		interval = flag.Duration("interval", 500*time.Millisecond, "time between demo events")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.New(*apiKey).
		Service("tell-example").
		Endpoint(*endpoint).
		BatchSize(config.DevBatchSize).
		FlushInterval(config.DevFlushInterval).
		OnError(func(e errs.Error) {
			logger.Warn().Str("kind", e.Kind.String()).Msg(e.Message)
		}).
		Logger(logger).
		Build()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	client, err := tell.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create client")
	}
	defer client.Close()

	client.Register(props.New().
		Str("app_version", "1.4.2").
		Str("platform", "linux"))

	logger.Info().Str("endpoint", *endpoint).Msg("emitting demo traffic, ctrl-c to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	users := []string{"alice", "bob", "carol", "dave"}
	pages := []string{"/", "/pricing", "/docs", "/blog"}
	n := 0

	for {
		select {
		case <-quit:
			logger.Info().Msg("shutting down")
			client.Flush()
			return
		case <-ticker.C:
			user := users[rand.Intn(len(users))]
			switch n % 10 {
			case 0:
				client.Identify(user, props.New().
					Str("email", user+"@example.com").
					Bool("beta", rand.Intn(2) == 0))
			case 1:
				client.Revenue(user, 10+rand.Float64()*90, "USD",
					fmt.Sprintf("order-%d", n), nil)
			case 2:
				client.Group(user, "acme", nil)
			case 3:
				client.LogError("simulated failure", "tell-example",
					props.New().Int("attempt", int64(n)))
			case 4:
				client.LogInfo("heartbeat", "tell-example",
					props.New().Int("seq", int64(n)))
			default:
				client.Track(user, events.PageViewed, props.New().
					Str("path", pages[rand.Intn(len(pages))]).
					Int("load_ms", int64(rand.Intn(400))))
			}
			if n%25 == 24 {
				client.ResetSession()
			}
			n++
		}
	}
}
