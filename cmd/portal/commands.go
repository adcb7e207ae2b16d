package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jrsteele09/bluewater-portal/apimodel"
	"github.com/jrsteele09/bluewater-portal/client"
	"github.com/jrsteele09/bluewater-portal/internal/utils"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":        {usage: "-email E -password P", run: loginCmd},
	"logout":       {usage: "", run: logoutCmd},
	"register":     {usage: "-email E -password P -first F -last L [-adult=true] [-admin=false]", run: registerCmd},
	"whoami":       {usage: "", run: whoamiCmd},
	"check":        {usage: "", run: checkCmd},
	"permissions":  {usage: "", run: permissionsCmd},
	"list":         {usage: "[-page N] [-page-size N] [-sort F] [-order asc|desc] [-filter k=v]... RESOURCE", run: listCmd},
	"get":          {usage: "RESOURCE ID", run: getCmd},
	"create":       {usage: "RESOURCE JSON", run: createCmd},
	"update":       {usage: "RESOURCE ID JSON", run: updateCmd},
	"delete":       {usage: "RESOURCE ID", run: deleteCmd},
	"toggle-admin": {usage: "PROFILE_ID", run: toggleAdminCmd},
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func positional(fs *flag.FlagSet, args []string, want int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != want {
		return nil, fmt.Errorf("%s: expected %d arguments, got %d", fs.Name(), want, fs.NArg())
	}
	return fs.Args(), nil
}

func loginCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if _, err := positional(fs, args, 0); err != nil {
		return err
	}

	if _, err := a.manager.Login(ctx, *email, *password); err != nil {
		return err
	}
	if id, ok := a.manager.Identity(ctx); ok {
		a.printf("Logged in as %s <%s>\n", id.Name, utils.RedactEmail(id.Email))
		return nil
	}
	a.printf("Logged in\n")
	return nil
}

func logoutCmd(ctx context.Context, a *app, args []string) error {
	if _, err := positional(newFlagSet("logout"), args, 0); err != nil {
		return err
	}
	a.manager.Logout(ctx)
	a.printf("Logged out\n")
	return nil
}

func registerCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("register")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	adult := fs.Bool("adult", true, "account holder is an adult")
	admin := fs.Bool("admin", false, "request admin rights")
	if _, err := positional(fs, args, 0); err != nil {
		return err
	}

	_, err := a.manager.Register(ctx, apimodel.RegisterRequest{
		Email:     *email,
		Password:  *password,
		FirstName: *first,
		LastName:  *last,
		IsAdult:   adult,
		IsAdmin:   admin,
	})
	if err != nil {
		return err
	}
	a.printf("Registered %s, run `portal login` to sign in\n", utils.RedactEmail(*email))
	return nil
}

func whoamiCmd(ctx context.Context, a *app, args []string) error {
	if _, err := positional(newFlagSet("whoami"), args, 0); err != nil {
		return err
	}
	id, ok := a.manager.Identity(ctx)
	if !ok {
		return errors.New("not logged in")
	}
	return a.printJSON(id)
}

func checkCmd(ctx context.Context, a *app, args []string) error {
	if _, err := positional(newFlagSet("check"), args, 0); err != nil {
		return err
	}
	return a.printJSON(a.manager.CheckAuthenticated(ctx))
}

func permissionsCmd(ctx context.Context, a *app, args []string) error {
	if _, err := positional(newFlagSet("permissions"), args, 0); err != nil {
		return err
	}
	perms, ok := a.manager.Permissions(ctx)
	if !ok {
		return errors.New("not logged in")
	}
	return a.printJSON(perms)
}

// filterFlag collects repeated -filter key=value flags.
type filterFlag map[string][]string

func (f filterFlag) String() string { return fmt.Sprint(map[string][]string(f)) }

func (f filterFlag) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("filter %q is not key=value", s)
	}
	f[key] = append(f[key], value)
	return nil
}

func listCmd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("list")
	page := fs.Int("page", 0, "1-based page")
	pageSize := fs.Int("page-size", 0, "page size")
	sortField := fs.String("sort", "", "sort field")
	order := fs.String("order", string(client.Asc), "asc or desc")
	filters := filterFlag{}
	fs.Var(filters, "filter", "key=value, repeatable")
	rest, err := positional(fs, args, 1)
	if err != nil {
		return err
	}

	params := client.ListParams{Page: *page, PageSize: *pageSize, Filters: map[string]any{}}
	if *sortField != "" {
		params.Sort = []client.SortKey{{Field: *sortField, Order: client.SortOrder(*order)}}
	}
	for k, v := range filters {
		params.Filters[k] = v
	}

	res, err := a.client.List(ctx, rest[0], params)
	if err != nil {
		return err
	}
	return a.printJSON(map[string]any{"total": res.Total, "items": res.Items})
}

func getCmd(ctx context.Context, a *app, args []string) error {
	rest, err := positional(newFlagSet("get"), args, 2)
	if err != nil {
		return err
	}
	rec, err := a.client.GetOne(ctx, rest[0], rest[1])
	if err != nil {
		return err
	}
	return a.printJSON(rec)
}

func createCmd(ctx context.Context, a *app, args []string) error {
	rest, err := positional(newFlagSet("create"), args, 2)
	if err != nil {
		return err
	}
	values, err := parseValues(rest[1])
	if err != nil {
		return err
	}
	rec, err := a.client.Create(ctx, rest[0], values)
	if err != nil {
		return err
	}
	return a.printJSON(rec)
}

func updateCmd(ctx context.Context, a *app, args []string) error {
	rest, err := positional(newFlagSet("update"), args, 3)
	if err != nil {
		return err
	}
	values, err := parseValues(rest[2])
	if err != nil {
		return err
	}
	rec, err := a.client.Update(ctx, rest[0], rest[1], values)
	if err != nil {
		return err
	}
	return a.printJSON(rec)
}

func deleteCmd(ctx context.Context, a *app, args []string) error {
	rest, err := positional(newFlagSet("delete"), args, 2)
	if err != nil {
		return err
	}
	if _, err := a.client.DeleteOne(ctx, rest[0], rest[1]); err != nil {
		return err
	}
	a.printf("Deleted %s/%s\n", rest[0], rest[1])
	return nil
}

func toggleAdminCmd(ctx context.Context, a *app, args []string) error {
	rest, err := positional(newFlagSet("toggle-admin"), args, 1)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(rest[0])
	if err != nil {
		return fmt.Errorf("toggle-admin: profile id %q is not a number", rest[0])
	}
	profile, err := a.portal.ToggleAdmin(ctx, id)
	if err != nil {
		return err
	}
	return a.printJSON(profile)
}

func parseValues(raw string) (map[string]any, error) {
	values := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("values must be a JSON object: %w", err)
	}
	return values, nil
}
