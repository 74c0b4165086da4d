// Command manage administers users and roles from the shell.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ahmetcoskunkizilkaya/item-admin/internal/config"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/database"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/logging"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/services"
	"github.com/spf13/pflag"
)

var errUsage = errors.New("usage error")

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close(database.DB)
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	identity := services.NewIdentityService(database.DB, services.NewPasswordHasher(cfg.PasswordSalt, cfg.BcryptCost))
	if err := run(os.Args[1:], identity, os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(os.Stdout)
			return
		}
		if errors.Is(err, errUsage) {
			printHelp(os.Stderr)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, identity *services.IdentityService, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	command, rest := args[0], args[1:]

	switch command {
	case "create-user":
		var password string
		var roles []string
		var inactive bool
		flagSet := pflag.NewFlagSet(command, pflag.ContinueOnError)
		flagSet.StringVarP(&password, "password", "p", "", "password for the new user")
		flagSet.StringSliceVarP(&roles, "role", "r", nil, "role to grant (repeatable)")
		flagSet.BoolVar(&inactive, "inactive", false, "create the user deactivated")
		email, err := parseOne(flagSet, rest)
		if err != nil {
			return err
		}
		user, err := identity.CreateUser(email, password, !inactive, roles...)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created user %s (id %d)\n", user.Email, user.ID)
		return nil

	case "create-role":
		var description string
		flagSet := pflag.NewFlagSet(command, pflag.ContinueOnError)
		flagSet.StringVarP(&description, "description", "d", "", "role description")
		name, err := parseOne(flagSet, rest)
		if err != nil {
			return err
		}
		role, err := identity.CreateRole(name, description)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created role %s (id %d)\n", role.Name, role.ID)
		return nil

	case "add-role", "remove-role":
		flagSet := pflag.NewFlagSet(command, pflag.ContinueOnError)
		if err := flagSet.Parse(rest); err != nil {
			return err
		}
		if flagSet.NArg() != 2 {
			return fmt.Errorf("%w: %s takes <email> <role>", errUsage, command)
		}
		email, role := flagSet.Arg(0), flagSet.Arg(1)
		if command == "add-role" {
			if err := identity.AddRoleToUser(email, role); err != nil {
				return err
			}
			fmt.Fprintf(out, "role %s added to %s\n", role, email)
			return nil
		}
		if err := identity.RemoveRoleFromUser(email, role); err != nil {
			return err
		}
		fmt.Fprintf(out, "role %s removed from %s\n", role, email)
		return nil

	case "activate", "deactivate":
		flagSet := pflag.NewFlagSet(command, pflag.ContinueOnError)
		email, err := parseOne(flagSet, rest)
		if err != nil {
			return err
		}
		if err := identity.SetActive(email, command == "activate"); err != nil {
			return err
		}
		fmt.Fprintf(out, "user %s %sd\n", email, command)
		return nil
	}

	return fmt.Errorf("%w: unknown command %q", errUsage, command)
}

// parseOne parses flags and returns the single positional argument.
func parseOne(flagSet *pflag.FlagSet, args []string) (string, error) {
	if err := flagSet.Parse(args); err != nil {
		return "", err
	}
	if flagSet.NArg() != 1 {
		return "", fmt.Errorf("%w: %s takes exactly one argument", errUsage, flagSet.Name())
	}
	return flagSet.Arg(0), nil
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `Manage users and roles.

Usage:
  manage create-user <email> --password <pw> [--role <name>]... [--inactive]
  manage create-role <name> [--description <text>]
  manage add-role <email> <role>
  manage remove-role <email> <role>
  manage activate <email>
  manage deactivate <email>

Configuration is read from the same environment variables as the server.
`)
}
