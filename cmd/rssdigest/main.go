package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/rssdigest/pkg/config"
	"github.com/umputun/rssdigest/pkg/feed"
	"github.com/umputun/rssdigest/pkg/mailer"
	"github.com/umputun/rssdigest/pkg/service"
	"github.com/umputun/rssdigest/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" description:"optional yaml configuration file"`

	SMTP struct {
		Host     string `long:"host" env:"HOST" description:"SMTP relay host"`
		Port     int    `long:"port" env:"PORT" description:"SMTP relay port"`
		User     string `long:"user" env:"USER" description:"SMTP user name, also the default sender"`
		Password string `long:"password" env:"PASSWORD" description:"SMTP password"`
		From     string `long:"from" env:"FROM" description:"sender address, defaults to SMTP user"`
		TLS      string `long:"tls" env:"TLS" choice:"mandatory" choice:"opportunistic" choice:"none" description:"STARTTLS policy (default: mandatory)"`
		SSL      bool   `long:"ssl" env:"SSL" description:"use implicit TLS"`
	} `group:"smtp" namespace:"smtp" env-namespace:"SMTP"`

	Recipient string `short:"r" long:"recipient" env:"RECIPIENT_EMAIL" description:"digest recipient address"`
	OPML      string `long:"opml" env:"OPML_FILE" description:"OPML subscription file (default: feeds.opml)"`
	Batch     int    `long:"batch" env:"BATCH_SIZE" description:"max feeds fetched concurrently (default: 10)"`
	Timeout   int    `long:"timeout" env:"FEED_TIMEOUT" description:"per-feed timeout in seconds (default: 15)"`
	UserAgent string `long:"user-agent" env:"USER_AGENT" description:"user agent for feed requests"`

	Send    SendCmd    `command:"send" description:"build yesterday's digest and email it (default)"`
	Check   CheckCmd   `command:"check" description:"fetch a single feed and show its latest entries"`
	Preview PreviewCmd `command:"preview" description:"serve the digest over HTTP"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

// SendCmd options of the send command
type SendCmd struct {
	DryRun bool `long:"dry-run" description:"print the plain-text digest instead of sending it"`
}

// PreviewCmd options of the preview command
type PreviewCmd struct {
	Listen string `short:"l" long:"listen" env:"LISTEN" description:"listen address (default: 127.0.0.1:8080)"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if opts.NoColor {
		color.NoColor = true
	}
	setupLog(opts.Debug, opts.SMTP.Password)

	command := "send"
	if parser.Active != nil {
		command = parser.Active.Name
	}

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, command, opts)
	cancel()

	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// run executes the selected command
func run(ctx context.Context, command string, opts Opts) error {
	switch command {
	case "check":
		fetcher := feed.NewHTTPFetcher(time.Duration(opts.Timeout)*time.Second, opts.UserAgent)
		return checkFeed(ctx, os.Stdout, fetcher, opts.Check, time.Now())
	case "preview":
		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}
		svc := service.NewDigestService(feed.OPMLFile(cfg.Feeds.OPML), makeCollector(cfg), nil)
		srv := server.New(cfg, svc, revision, opts.Debug)
		return srv.Run(ctx)
	case "send", "":
		return runSend(ctx, opts, os.Stdout)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// runSend builds yesterday's digest and delivers it, or prints it in dry-run mode
func runSend(ctx context.Context, opts Opts, out io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if opts.Send.DryRun {
		svc := service.NewDigestService(feed.OPMLFile(cfg.Feeds.OPML), makeCollector(cfg), nil)
		d, _, err := svc.Build(ctx, svc.Day())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Subject: %s\n\n%s\n", d.Subject, d.Text)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	lgr.Printf("[INFO] starting rssdigest version %s", revision)
	sender := mailer.NewSMTPSender(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		To:       cfg.Recipient,
		TLS:      cfg.SMTP.TLS,
		SSL:      cfg.SMTP.SSL,
		Timeout:  cfg.SMTP.Timeout,
	})
	svc := service.NewDigestService(feed.OPMLFile(cfg.Feeds.OPML), makeCollector(cfg), sender)
	return svc.Run(ctx)
}

// loadConfig reads the optional config file and applies CLI and environment values on top
func loadConfig(opts Opts) (*config.Config, error) {
	cfg := &config.Config{}
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	setIf(&cfg.SMTP.Host, opts.SMTP.Host)
	setIf(&cfg.SMTP.Username, opts.SMTP.User)
	setIf(&cfg.SMTP.Password, opts.SMTP.Password)
	setIf(&cfg.SMTP.From, opts.SMTP.From)
	setIf(&cfg.SMTP.TLS, opts.SMTP.TLS)
	setIf(&cfg.Recipient, opts.Recipient)
	setIf(&cfg.Feeds.OPML, opts.OPML)
	setIf(&cfg.Feeds.UserAgent, opts.UserAgent)
	setIf(&cfg.Preview.Listen, opts.Preview.Listen)
	if opts.SMTP.Port != 0 {
		cfg.SMTP.Port = opts.SMTP.Port
	}
	if opts.SMTP.SSL {
		cfg.SMTP.SSL = true
	}
	if opts.Batch != 0 {
		cfg.Feeds.BatchSize = opts.Batch
	}
	if opts.Timeout != 0 {
		cfg.Feeds.Timeout = time.Duration(opts.Timeout) * time.Second
	}

	cfg.SetDefaults()
	return cfg, nil
}

func setIf(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

func makeCollector(cfg *config.Config) *feed.Collector {
	return feed.NewCollector(feed.NewHTTPFetcher(cfg.Feeds.Timeout, cfg.Feeds.UserAgent), cfg.Feeds.BatchSize)
}

// reportError logs the failure with a hint matching its kind
func reportError(err error) {
	switch {
	case errors.Is(err, config.ErrMissing):
		lgr.Printf("[ERROR] %v", err)
	case errors.Is(err, feed.ErrSubscriptionsNotFound):
		lgr.Printf("[ERROR] %v, create an OPML file with your subscriptions or set OPML_FILE", err)
	case errors.Is(err, mailer.ErrAuth):
		lgr.Printf("[ERROR] authentication failure, check SMTP_USER and SMTP_PASSWORD: %v", err)
	case errors.Is(err, mailer.ErrConnection):
		lgr.Printf("[ERROR] connection failure, check SMTP_HOST and SMTP_PORT: %v", err)
	default:
		lgr.Printf("[ERROR] %v", err)
	}
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError, lgr.CallerFunc}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	secrets := make([]string, 0, len(secs))
	for _, s := range secs {
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
