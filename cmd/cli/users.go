package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/backupgw/internal/config"
	"github.com/turtacn/backupgw/internal/domain/models"
	"github.com/turtacn/backupgw/internal/infrastructure/crypto"
	"github.com/turtacn/backupgw/internal/infrastructure/persistence"
	"github.com/turtacn/backupgw/pkg/constants"
	"github.com/turtacn/backupgw/pkg/errors"
	"github.com/turtacn/backupgw/pkg/logger"
)

func newCreateUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-user <username>",
		Short: "Create a gateway user; the password is read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbCfg, err := databaseConfig(cmd)
			if err != nil {
				return err
			}
			roles, _ := cmd.Flags().GetStringSlice("roles")
			password, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx := context.Background()
			log := logger.NewNoopLogger()
			db, err := persistence.NewDBConnection(ctx, dbCfg, log)
			if err != nil {
				return err
			}
			if err := persistence.AutoMigrate(ctx, db); err != nil {
				return err
			}

			hash, err := crypto.NewCredentialService().HashPassword(password)
			if err != nil {
				return err
			}
			user := &models.User{Username: args[0], PasswordHash: hash}
			user.SetRoles(normalizeRoles(roles))
			if err := persistence.NewUserRepository(db, log).Create(ctx, user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s) roles=%s\n", user.Username, user.ID, user.Roles)
			return nil
		},
	}
	cmd.Flags().String("config", "", "gateway config file; database settings are taken from it")
	cmd.Flags().String("db-driver", "", "database driver override (sqlite, postgres)")
	cmd.Flags().String("db-dsn", "", "database DSN override")
	cmd.Flags().StringSlice("roles", []string{constants.RoleUser}, "roles granted to the user")
	return cmd
}

// databaseConfig takes database settings from flags, falling back to the gateway config.
func databaseConfig(cmd *cobra.Command) (*config.DatabaseConfig, error) {
	driver, _ := cmd.Flags().GetString("db-driver")
	dsn, _ := cmd.Flags().GetString("db-dsn")
	if driver != "" && dsn != "" {
		return &config.DatabaseConfig{Driver: driver, DSN: dsn}, nil
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configFile, logger.NewNoopLogger())
	if err != nil {
		return nil, errors.ErrConfiguration("cannot determine database settings").WithError(err)
	}
	if driver != "" {
		cfg.Database.Driver = driver
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}
	return &cfg.Database, nil
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if !strings.HasPrefix(r, "ROLE_") {
			r = "ROLE_" + r
		}
		out = append(out, r)
	}
	return out
}
