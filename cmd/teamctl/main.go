// teamctl drives a team server from the terminal: sign in once, then list
// tasks and chats, move tasks between statuses and post messages. The
// session token is kept in a file (default) or in Redis so that several
// shells or hosts can share one sign-in.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	goTeam "github.com/MrEthical07/goTeam"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var fv flagValues
	var password string
	var limit, offset int

	flags := pflag.NewFlagSet("teamctl", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	fv.register(flags)
	flags.StringVar(&password, "password", "", "password for login (env TEAM_PASSWORD, else read from stdin)")
	flags.IntVar(&limit, "limit", 20, "page size for tasks")
	flags.IntVar(&offset, "offset", 0, "page offset for tasks and message history")
	flags.SetInterspersed(true)
	flags.Usage = func() { printUsage(stderr, flags) }

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	rest := flags.Args()
	if len(rest) == 0 {
		printUsage(stderr, flags)
		return errUsage
	}

	cfg, err := loadConfig(flags, fv)
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()

	storage, closeStorage, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStorage(); err != nil {
			logger.Warn().Err(err).Msg("close token storage")
		}
	}()

	clientCfg := goTeam.DefaultConfig()
	clientCfg.HTTP.BaseURL = cfg.APIURL
	clientCfg.HTTP.Timeout = cfg.Timeout
	clientCfg.HTTP.UserAgent = "teamctl"
	clientCfg.Session.StorageKey = cfg.StorageKey
	for _, w := range clientCfg.Lint() {
		logger.Warn().Str("code", w.Code).Msg(w.Message)
	}

	client, err := goTeam.New().
		WithConfig(clientCfg).
		WithLogger(logger).
		WithStorage(storage).
		Build()
	if err != nil {
		return err
	}
	defer client.Close()

	cmd := &command{
		client:   client,
		stdin:    stdin,
		out:      stdout,
		password: password,
		limit:    limit,
		offset:   offset,
	}
	return cmd.dispatch(ctx, rest[0], rest[1:])
}

func printUsage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintln(w, "usage: teamctl [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commandHelp {
		fmt.Fprintf(w, "  %-28s %s\n", c[0], c[1])
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "flags:")
	fmt.Fprint(w, flags.FlagUsages())
}
