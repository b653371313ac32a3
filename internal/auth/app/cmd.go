package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aussiebroadwan/smartlegal/internal/auth/service"
	"github.com/aussiebroadwan/smartlegal/pkg/cryptox"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the smartlegal CLI. Without a subcommand it serves.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "smartlegal",
		Short:         "SmartLegal authentication service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE:  runMigrate,
		},
		newCreateUserCommand(),
		&cobra.Command{
			Use:   "hash-password [password]",
			Short: "Print the hash of a password (read from stdin when omitted)",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runHashPassword,
		},
	)

	return root
}

// Execute runs the CLI with os.Args.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	application, err := New(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run()
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := NewLogger(cfg)

	db, err := OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	logger.Info("database migrations applied successfully", "driver", cfg.DBDriver)
	return db.Close()
}

func newCreateUserCommand() *cobra.Command {
	var reg service.Registration

	c := &cobra.Command{
		Use:   "create-user",
		Short: "Register a lawyer account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			if reg.Password == "" {
				if reg.Password, err = readPassword(cmd); err != nil {
					return err
				}
			}

			hasher, err := loadHasher(cfg)
			if err != nil {
				return err
			}

			db, err := OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			users := &service.UserService{Principals: db.Principals(), Hasher: hasher}
			p, err := users.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s>\n", p.ID, p.Email)
			return nil
		},
	}

	c.Flags().StringVar(&reg.Name, "name", "", "display name")
	c.Flags().StringVar(&reg.Email, "email", "", "login email")
	c.Flags().StringVar(&reg.Password, "password", "", "password (read from stdin when omitted)")
	c.Flags().StringVar(&reg.OAB, "oab", "", "bar registration number")
	c.Flags().StringVar(&reg.Phone, "phone", "", "phone number")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("name")

	return c
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	password := ""
	if len(args) == 1 {
		password = args[0]
	} else if password, err = readPassword(cmd); err != nil {
		return err
	}

	hasher, err := loadHasher(cfg)
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func loadHasher(cfg Config) (*cryptox.PasswordHasher, error) {
	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	return cryptox.NewPasswordHasher(pepper), nil
}

func readPassword(cmd *cobra.Command) (string, error) {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", errors.New("empty password")
	}
	return password, nil
}
