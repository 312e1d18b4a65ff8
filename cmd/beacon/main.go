package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/wadjakorntonsri/go-event-beacon/pkg/adapters/kvstore"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/beacon"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/config"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/logger"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/ports"
)

const usage = `usage: beacon <command> [flags]

commands:
  config <url>                          save the endpoint URL
  endpoint                              print the saved endpoint URL
  id                                    print this client's user id
  send -event X [-variant A] [-meta k=v]
  click [-variant A]
  heartbeat`

func main() {
	cfg := config.LoadBeacon()
	log := logger.New("beacon", cfg.AppEnv, cfg.LogLevel)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Error("failed to open storage", "storage", cfg.Storage, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	status := beacon.NewStatus(beacon.SuccessClearDelay, func(text string, kind beacon.StatusKind) {
		if text != "" {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", kind, text)
		}
	})
	b := beacon.New(store, beacon.Options{
		Page:         cfg.Page,
		ExpectedHost: cfg.ExpectedHost,
		Status:       status,
	})

	if err := run(context.Background(), b, os.Args[1:], os.Stdout, log); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, b *beacon.Beacon, args []string, out io.Writer, log *slog.Logger) error {
	if len(args) < 1 {
		fmt.Fprintln(out, usage)
		return flag.ErrHelp
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "config":
		if len(rest) != 1 {
			fmt.Fprintln(out, usage)
			return flag.ErrHelp
		}
		warning, err := b.SaveEndpoint(ctx, rest[0])
		if err != nil {
			return err
		}
		if warning != "" {
			log.Warn("endpoint saved with warning", "warning", warning)
			fmt.Fprintln(out, "warning:", warning)
		}
		return nil

	case "endpoint":
		fmt.Fprintln(out, b.LoadEndpoint(ctx))
		return nil

	case "id":
		fmt.Fprintln(out, b.UserID(ctx))
		return nil

	case "send":
		fs := flag.NewFlagSet("send", flag.ContinueOnError)
		fs.SetOutput(out)
		kind := fs.String("event", "", "event name")
		variant := fs.String("variant", "", "experiment variant")
		meta := metaFlags{}
		fs.Var(meta, "meta", "extra meta field as key=value, repeatable")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *kind == "" {
			fs.PrintDefaults()
			return flag.ErrHelp
		}
		return b.Send(ctx, beacon.Event{Kind: *kind, Variant: *variant, Meta: meta})

	case "click":
		fs := flag.NewFlagSet("click", flag.ContinueOnError)
		fs.SetOutput(out)
		variant := fs.String("variant", "", "experiment variant")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return b.Click(ctx, *variant)

	case "heartbeat":
		return b.Heartbeat(ctx)

	default:
		fmt.Fprintln(out, usage)
		return flag.ErrHelp
	}
}

func openStore(cfg *config.BeaconConfig) (ports.KeyValueStorage, func(), error) {
	switch cfg.Storage {
	case "redis":
		rs := kvstore.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		return rs, func() { rs.Close() }, nil
	case "file", "":
		path := cfg.StorePath
		if path == "" {
			p, err := kvstore.DefaultPath()
			if err != nil {
				return nil, nil, err
			}
			path = p
		}
		return kvstore.NewFileStore(path), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

// metaFlags collects -meta key=value pairs.
type metaFlags map[string]any

func (m metaFlags) String() string {
	pairs := make([]string, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(pairs, ",")
}

func (m metaFlags) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("meta must be key=value, got %q", s)
	}
	m[k] = v
	return nil
}
