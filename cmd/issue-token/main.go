// issue-token mints a bearer token for a CRM staff member, creating the user
// first when asked to. It reads the same environment as the API.
//
//	issue-token --email sam@crm.test
//	issue-token --email pat@crm.test --create --team SUPPORT --first-name Pat --last-name Helper
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/upb/crm-control-plane/auth"
	"github.com/upb/crm-control-plane/config"
	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/repositories"
	"github.com/upb/crm-control-plane/repositories/postgres"
	"github.com/upb/crm-control-plane/services"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "issue-token: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	userID    string
	email     string
	create    bool
	team      string
	firstName string
	lastName  string
}

func parseFlags(args []string) (options, error) {
	var opts options
	flags := pflag.NewFlagSet("issue-token", pflag.ContinueOnError)
	flags.StringVar(&opts.userID, "user-id", "", "id of an existing user")
	flags.StringVar(&opts.email, "email", "", "email of the user")
	flags.BoolVar(&opts.create, "create", false, "create the user when no user has --email")
	flags.StringVar(&opts.team, "team", "", "team of a created user: MANAGEMENT, SALES or SUPPORT")
	flags.StringVar(&opts.firstName, "first-name", "", "first name of a created user")
	flags.StringVar(&opts.lastName, "last-name", "", "last name of a created user")

	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	if (opts.userID == "") == (opts.email == "") {
		return opts, errors.New("exactly one of --user-id or --email is required")
	}
	if opts.create && opts.email == "" {
		return opts, errors.New("--create requires --email")
	}
	return opts, nil
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cfg, err := config.New(ctx)
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return err
	}
	defer factory.Close()

	user, err := resolveUser(ctx, factory.NewRepositories().Users, opts)
	if err != nil {
		return err
	}

	token, expiresAt, err := auth.NewIssuer(cfg.Auth).Issue(user)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "user %s (%s, %s), expires %s\n",
		user.ID, user.Email, user.Team, expiresAt.Format(time.RFC3339))
	_, err = fmt.Fprintln(stdout, token)
	return err
}

// resolveUser loads the user named by opts, creating it when --create is set
// and the email is unknown
func resolveUser(ctx context.Context, users repositories.UserRepository, opts options) (*models.User, error) {
	if opts.userID != "" {
		id, err := uuid.Parse(opts.userID)
		if err != nil {
			return nil, fmt.Errorf("invalid --user-id: %w", err)
		}
		return users.GetByID(ctx, id)
	}

	user, err := users.GetByEmail(ctx, opts.email)
	if err == nil || !opts.create || !errors.Is(err, services.ErrUserNotFound) {
		return user, err
	}

	team, err := models.ParseTeam(opts.team)
	if err != nil {
		return nil, fmt.Errorf("invalid --team: %w", err)
	}
	if opts.firstName == "" || opts.lastName == "" {
		return nil, errors.New("--first-name and --last-name are required with --create")
	}

	user = models.NewUser(opts.email, opts.firstName, opts.lastName, team)
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
