package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/jrsteele09/bluewater-portal/apierr"
	"github.com/jrsteele09/bluewater-portal/internal/config"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		var expired *apierr.SessionExpiredError
		if errors.As(err, &expired) {
			fmt.Fprintln(os.Stderr, "Session expired, run `portal login` again")
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	setupLogger(c)

	if len(args) == 0 {
		printUsage(out)
		return errors.New("no command given")
	}
	name, args := args[0], args[1:]

	if name == "serve-fake" {
		return serveFake(c, args)
	}

	cmd, ok := commands[name]
	if !ok {
		printUsage(out)
		return fmt.Errorf("unknown command %q", name)
	}

	a, err := newApp(ctx, c, out)
	if err != nil {
		return err
	}
	defer a.close()
	return cmd.run(ctx, a, args)
}

func setupLogger(c config.EnvConfig) {
	zerolog.SetGlobalLevel(c.GetLogLevel())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "usage: portal <command> [arguments]")
	fmt.Fprintln(out)
	names := make([]string, 0, len(commands)+1)
	for name := range commands {
		names = append(names, name)
	}
	names = append(names, "serve-fake")
	sort.Strings(names)
	for _, name := range names {
		usage := serveFakeUsage
		if cmd, ok := commands[name]; ok {
			usage = cmd.usage
		}
		fmt.Fprintf(out, "  %-13s %s\n", name, strings.TrimSpace(usage))
	}
}
