package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/group-expenses/internal/group"
	groupPostgres "github.com/frahmantamala/group-expenses/internal/group/postgres"
	"github.com/frahmantamala/group-expenses/internal/user"
	userPostgres "github.com/frahmantamala/group-expenses/internal/user/postgres"
	"github.com/frahmantamala/group-expenses/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

const seedPassword = "password"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed a host, a member and a shared group for development and testing purposes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := bootstrap()
		if err != nil {
			return err
		}
		lg := logger.LoggerWrapper()

		db, err := initDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer db.Close()

		gdb, err := initGorm(db)
		if err != nil {
			return fmt.Errorf("failed to init gorm: %w", err)
		}

		if clearData {
			for _, table := range []string{"activities", "transactions", "payment_methods", "expenses", "user_groups", "groups", "users"} {
				if err := gdb.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
					return fmt.Errorf("clear %s: %w", table, err)
				}
			}
			lg.Info("Cleared existing data")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), cfg.Security.BCryptCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		users := userPostgres.NewUserRepository(gdb)
		groups := groupPostgres.NewGroupRepository(db)

		host, created, err := ensureUser(ctx, users, "host@mail.com", "Host", string(hash))
		if err != nil {
			return err
		}
		member, _, err := ensureUser(ctx, users, "member@mail.com", "Member", string(hash))
		if err != nil {
			return err
		}

		if !created {
			lg.Info("Seed users already exist; skipping group", "host", host.Email)
			return nil
		}

		g := &group.Group{Name: "Weekend trip", Currency: cfg.Currency.Base}
		if err := groups.Create(ctx, g); err != nil {
			return err
		}
		if err := groups.AddMember(ctx, g.ID, host.ID, group.RoleHost); err != nil {
			return err
		}
		if err := groups.AddMember(ctx, g.ID, member.ID, group.RoleMember); err != nil {
			return err
		}

		lg.Info("Seeded group", "group_id", g.ID, "host", host.Email, "member", member.Email)
		return nil
	},
}

// ensureUser reports whether the user had to be created.
func ensureUser(ctx context.Context, users user.Repository, email, name, hash string) (*user.User, bool, error) {
	existing, err := users.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return nil, false, err
	}

	u := &user.User{Email: email, Name: name, PasswordHash: hash}
	if err := users.Create(ctx, u); err != nil {
		return nil, false, fmt.Errorf("create user %s: %w", email, err)
	}
	return u, true, nil
}
