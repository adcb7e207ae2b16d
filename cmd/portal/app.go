package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jrsteele09/bluewater-portal/client"
	"github.com/jrsteele09/bluewater-portal/internal/config"
	"github.com/jrsteele09/bluewater-portal/resources"
	"github.com/jrsteele09/bluewater-portal/session"
	"github.com/jrsteele09/bluewater-portal/token"
	"github.com/jrsteele09/bluewater-portal/token/filestore"
	"github.com/jrsteele09/bluewater-portal/token/redisstore"
	tokenfakerepo "github.com/jrsteele09/bluewater-portal/token/repofake"
	"github.com/rs/zerolog/log"
)

// app holds what every command needs: a restored session and a client
// bound to it.
type app struct {
	out     io.Writer
	manager *session.Manager
	client  *client.Client
	portal  *resources.Portal
	closers []io.Closer
}

func newApp(ctx context.Context, c config.Config, out io.Writer) (*app, error) {
	a := &app{out: out}

	store, err := a.newStore(ctx, c)
	if err != nil {
		return nil, err
	}

	a.manager, err = session.NewManager(c.GetAPIURL(), store,
		session.WithLogger(log.Logger),
		session.WithTimeout(c.GetHTTPTimeout()),
	)
	if err != nil {
		return nil, err
	}
	if err := a.manager.Restore(ctx); err != nil {
		return nil, err
	}

	a.client, err = client.New(c.GetAPIURL(), a.manager,
		client.WithLogger(log.Logger),
		client.WithTimeout(c.GetHTTPTimeout()),
	)
	if err != nil {
		return nil, err
	}
	a.portal = resources.New(a.client)
	return a, nil
}

func (a *app) newStore(ctx context.Context, c config.Config) (token.Store, error) {
	switch c.GetStoreType() {
	case config.StoreTypeMemory:
		return tokenfakerepo.NewFakeStore(), nil
	case config.StoreTypeRedis:
		rc, err := redisstore.Connect(ctx, c.GetRedisURL())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rc)
		return redisstore.New(rc, c.GetRedisPrefix())
	default:
		fs, err := filestore.New(c.GetSessionFile(c.GetDataFolder()))
		if err != nil {
			return nil, err
		}
		log.Debug().Str("path", fs.Path()).Msg("using session file")
		return fs, nil
	}
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Err(err).Msg("close failed")
		}
	}
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
