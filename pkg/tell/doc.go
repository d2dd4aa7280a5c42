/*
Package tell is a client-side telemetry SDK for product analytics events and
structured logs.

Ingestion calls serialize their payload on the calling goroutine, snapshot
the session state, and enqueue; a single background worker batches records
and delivers them as framed binary batches over a persistent TCP connection.
No ingestion call ever performs I/O or blocks on the network.

# Quick Start

	cfg, err := config.New("0123456789abcdef0123456789abcdef").
	    Service("checkout").
	    Build()
	if err != nil {
	    log.Fatal(err)
	}

	client, err := tell.New(cfg)
	if err != nil {
	    log.Fatal(err)
	}
	defer client.Close()

	client.Track("user-42", events.PageViewed, props.New().
	    Str("path", "/pricing").
	    Int("load_ms", 87))

	client.LogError("payment declined", "checkout", props.New().
	    Str("processor", "stripe"))

# Super-properties

Properties registered on the client are merged into every track, group, and
revenue payload, before the per-call properties so call-site keys win:

	client.Register(props.New().Str("plan", "pro"))
	client.Track("user-42", "Feature Used", props.New().Str("plan", "trial"))
	// payload carries plan=trial under last-key-wins

# Delivery and errors

Batches flush when they reach the configured size or on the flush interval.
Failed sends are retried on separate connections with exponential backoff.
All asynchronous faults (network, validation) are reported through the
config.OnError callback; nothing is raised to the ingestion caller.

Flush and Close wait for delivery of everything enqueued before them, up to
the configured close timeout. Both return silently on expiry.
*/
package tell
