// Command admin manages user roles from the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Thejus-u/charity-forum/internal/config"
	"github.com/Thejus-u/charity-forum/internal/database"
	"github.com/Thejus-u/charity-forum/internal/models"
	"github.com/Thejus-u/charity-forum/internal/repository"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	var db *gorm.DB
	connect := func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err = database.ConnectWithOptions(postgres.Open(database.DSN(cfg)), cfg, false)
		return err
	}
	dbFn := func() *gorm.DB { return db }

	rootCmd := &cobra.Command{
		Use:               "admin",
		Short:             "Manage charity forum user roles",
		PersistentPreRunE: connect,
		SilenceUsage:      true,
	}
	rootCmd.AddCommand(
		roleCmd("promote <user_id>", "Promote a user to admin", models.RoleAdmin, dbFn),
		roleCmd("demote <user_id>", "Demote a user to member", models.RoleMember, dbFn),
		setRoleCmd(dbFn),
		listCmd(dbFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func roleCmd(use, short string, role models.Role, db func() *gorm.DB) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setRole(cmd.Context(), cmd.OutOrStdout(), db(), args[0], role)
		},
	}
}

func setRoleCmd(db func() *gorm.DB) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <user_id> <member|moderator|admin>",
		Short: "Set a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setRole(cmd.Context(), cmd.OutOrStdout(), db(), args[0], models.Role(args[1]))
		},
	}
}

func listCmd(db func() *gorm.DB) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users holding a role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := cmd.Flags().GetString("role")
			return listUsers(cmd.Context(), cmd.OutOrStdout(), db(), models.Role(role))
		},
	}
	cmd.Flags().StringP("role", "r", string(models.RoleAdmin), "Role to list (member, moderator, admin)")
	return cmd
}

func setRole(ctx context.Context, out io.Writer, db *gorm.DB, rawID string, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid user id %q", rawID)
	}

	users := repository.NewUserRepository(db)
	user, err := users.GetByID(ctx, uint(id))
	if err != nil {
		return err
	}
	if user.Role == role {
		fmt.Fprintf(out, "User %s (ID: %d) is already %s\n", user.Username, user.ID, role)
		return nil
	}
	if err := users.UpdateRole(ctx, user.ID, role); err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	fmt.Fprintf(out, "Updated %s (ID: %d) from %s to %s\n", user.Username, user.ID, user.Role, role)
	return nil
}

func listUsers(ctx context.Context, out io.Writer, db *gorm.DB, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}

	var users []models.User
	if err := db.WithContext(ctx).Where("role = ?", role).Order("id").Find(&users).Error; err != nil {
		return fmt.Errorf("fetch users: %w", err)
	}
	if len(users) == 0 {
		fmt.Fprintf(out, "No users with role %s\n", role)
		return nil
	}

	for _, u := range users {
		fmt.Fprintf(out, "ID: %d | Username: %s | Email: %s\n", u.ID, u.Username, u.Email)
	}
	return nil
}
