// Command watch is a terminal client for the mentorship service. It logs
// in, then either runs one relationship action or polls and prints views
// as they change.
//
//	watch --user alice --password secret profile
//	watch --user alice --password secret pair bob
//	watch --user alice --password secret request-mentor bob
//	watch --user alice --password secret accept 12
//	watch --user alice --password secret follow bob
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"mentorship/backend/internal/config"
	"mentorship/backend/internal/logger"
	"mentorship/backend/pkg/client"
	"mentorship/backend/pkg/mentorship"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

const usage = `usage: watch [flags] <command> [args]

commands:
  profile                    print my mentors, mentees and pending requests
  pair <username>            print my relationship with username
  request-mentor <username>  ask username to be my mentee
  request-mentee <username>  ask username to be my mentor
  accept <id>                accept a request I received
  reject <id>                reject a request I received
  cancel <id>                cancel a request I sent
  terminate <id>             end an accepted relationship
  follow [username]          poll and print changes to the pair view, or my profile

flags:
`

func main() {
	fs := pflag.NewFlagSet("watch", pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	fs.String("base-url", "", "store API base URL")
	fs.Duration("poll-interval", 0, "poll interval, clamped to 1s..5s")
	fs.String("cache", "", "relationship cache: memory or redis")
	fs.String("log-level", "", "log level")
	username := fs.StringP("user", "u", os.Getenv("MENTORSHIP_USER"), "login username or email")
	password := fs.StringP("password", "p", os.Getenv("MENTORSHIP_PASSWORD"), "login password")
	fs.Parse(os.Args[1:])

	v := config.New()
	v.BindPFlag("client.base_url", fs.Lookup("base-url"))
	v.BindPFlag("client.poll_interval", fs.Lookup("poll-interval"))
	v.BindPFlag("client.cache", fs.Lookup("cache"))
	v.BindPFlag("log.level", fs.Lookup("log-level"))

	cfg, err := config.Load(v)
	if err != nil {
		l := logger.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: true, ServiceName: "watch"})

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg.Client, *username, *password, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start client")
	}
	defer app.close()

	if err := app.run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, mentorship.Describe(err))
		log.Debug().Err(err).Str("command", args[0]).Msg("command failed")
		os.Exit(1)
	}
}

type app struct {
	engine *client.Engine
	repo   *client.Repository
	dir    *client.Directory
	cfg    config.ClientConfig
	log    zerolog.Logger
	close  func()
}

func newApp(ctx context.Context, cfg config.ClientConfig, username, password string, log zerolog.Logger) (*app, error) {
	if username == "" || password == "" {
		return nil, errors.New("--user and --password are required")
	}

	api := client.NewAPI(cfg.BaseURL, cfg.Timeout)
	session, err := api.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	log = log.With().Uint(logger.FieldUserID, session.User.ID).Logger()

	var (
		cache   client.Cache
		closeFn = func() {}
	)
	switch cfg.Cache {
	case "redis":
		rc, err := client.NewRedisCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		cache = rc
		closeFn = func() { rc.Close() }
	default:
		cache = client.NewMemoryCache(cfg.CacheTTL)
	}

	repo := client.NewRepository(api, cache, session.User.ID, log)
	dir := client.NewDirectory(api)
	return &app{
		engine: client.NewEngine(repo, dir, log),
		repo:   repo,
		dir:    dir,
		cfg:    cfg,
		log:    log,
		close:  closeFn,
	}, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "profile":
		p, err := a.engine.Profile(ctx)
		if err != nil {
			return err
		}
		return printJSON(p)

	case "pair":
		other, err := a.lookup(ctx, args)
		if err != nil {
			return err
		}
		view, err := a.engine.PairView(ctx, other)
		if err != nil {
			return err
		}
		return printPair(view)

	case "request-mentor", "request-mentee":
		if len(args) != 1 {
			return fmt.Errorf("%w: %s needs a username", mentorship.ErrInvalidRequest, command)
		}
		request := a.engine.RequestAsMentor
		if command == "request-mentee" {
			request = a.engine.RequestAsMentee
		}
		r, err := request(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(r)

	case "accept", "reject", "cancel", "terminate":
		id, err := relationshipID(args)
		if err != nil {
			return err
		}
		actions := map[string]func(context.Context, uint) (mentorship.Relationship, error){
			"accept":    a.engine.Accept,
			"reject":    a.engine.Reject,
			"cancel":    a.engine.Cancel,
			"terminate": a.engine.Terminate,
		}
		r, err := actions[command](ctx, id)
		if err != nil {
			return err
		}
		return printJSON(r)

	case "follow":
		topic := client.ProfileTopic
		if len(args) > 0 {
			other, err := a.lookup(ctx, args)
			if err != nil {
				return err
			}
			topic = other
		}
		return a.follow(ctx, topic)

	default:
		return fmt.Errorf("%w: unknown command %q", mentorship.ErrInvalidRequest, command)
	}
}

func (a *app) follow(ctx context.Context, topic uint) error {
	poller := client.NewPoller(a.repo, client.NewHub(), a.cfg.PollInterval, a.log)
	sub, unsubscribe := poller.Watch(topic, 8)
	defer unsubscribe()

	poller.Start(ctx)
	a.log.Info().Dur("interval", poller.Interval()).Uint("topic", topic).Msg("polling")
	defer func() {
		poller.Stop()
		<-poller.Done()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-sub:
			var err error
			if ev.Pair != nil {
				err = printPair(*ev.Pair)
			} else {
				err = printJSON(ev.Profile)
			}
			if err != nil {
				return err
			}
		}
	}
}

func (a *app) lookup(ctx context.Context, args []string) (uint, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: expected one username", mentorship.ErrInvalidRequest)
	}
	return a.dir.LookupUsername(ctx, args[0])
}

func relationshipID(args []string) (uint, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: expected one relationship id", mentorship.ErrInvalidRequest)
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad relationship id %q", mentorship.ErrInvalidRequest, args[0])
	}
	return uint(id), nil
}

func printPair(view mentorship.PairView) error {
	return printJSON(struct {
		mentorship.PairView
		Actions mentorship.Actions `json:"actions"`
	}{view, view.Actions()})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
