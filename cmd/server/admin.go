package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/config"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/internal/infrastructure/auth"
	"github.com/zosarillana/prs-be/internal/infrastructure/persistence/repository"
	"github.com/zosarillana/prs-be/migrations"
	"github.com/zosarillana/prs-be/pkg/database"
)

var (
	tokenUserID int64

	userName        string
	userEmail       string
	userRoles       []string
	userDepartments []string
	userLarkOpenID  string

	departmentName string
	departmentDesc string

	tagDepartmentID int64
	tagDescription  string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(ctx context.Context, env cmdEnv) error {
			u, err := repository.NewUserRepository(env.db, env.logger).GetByID(ctx, tokenUserID)
			if err != nil {
				return err
			}

			a := env.cfg.Auth
			tm, err := auth.NewTokenManager(a.JWTSecret, a.Issuer, a.TokenTTL)
			if err != nil {
				return err
			}
			token, err := tm.Issue(u.ID, u.Name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		})
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		roles, err := entity.NewRoleSet(userRoles...)
		if err != nil {
			return err
		}
		u := &entity.User{
			Name:        strings.TrimSpace(userName),
			Email:       strings.TrimSpace(userEmail),
			Roles:       roles,
			Departments: entity.NewDepartmentSet(userDepartments...),
			LarkOpenID:  userLarkOpenID,
		}
		if u.Name == "" {
			return fmt.Errorf("--name is required")
		}

		return withDB(func(ctx context.Context, env cmdEnv) error {
			if err := repository.NewUserRepository(env.db, env.logger).Create(ctx, u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d\n", u.ID)
			return nil
		})
	},
}

var departmentCmd = &cobra.Command{
	Use:   "department",
	Short: "Manage departments",
}

var departmentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a department",
	RunE: func(cmd *cobra.Command, args []string) error {
		d := &entity.Department{Name: strings.TrimSpace(departmentName), Description: departmentDesc}
		if d.Name == "" {
			return fmt.Errorf("--name is required")
		}
		return withDB(func(ctx context.Context, env cmdEnv) error {
			if err := repository.NewTagRepository(env.db, env.logger).CreateDepartment(ctx, d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created department %d\n", d.ID)
			return nil
		})
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage item tags",
}

var tagAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a tag routed to a department's technical reviewers",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := &entity.Tag{DepartmentID: tagDepartmentID, Description: strings.TrimSpace(tagDescription)}
		if t.DepartmentID == 0 || t.Description == "" {
			return fmt.Errorf("--department-id and --description are required")
		}
		return withDB(func(ctx context.Context, env cmdEnv) error {
			if err := repository.NewTagRepository(env.db, env.logger).Create(ctx, t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created tag %d\n", t.ID)
			return nil
		})
	},
}

func init() {
	tokenCmd.Flags().Int64Var(&tokenUserID, "user-id", 0, "id of the user to sign for")
	_ = tokenCmd.MarkFlagRequired("user-id")

	userAddCmd.Flags().StringVar(&userName, "name", "", "display name")
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "email address")
	userAddCmd.Flags().StringSliceVar(&userRoles, "role", []string{string(entity.RoleUser)}, "roles (admin, hod, purchasing, technical_reviewer, user)")
	userAddCmd.Flags().StringSliceVar(&userDepartments, "department", nil, "department names")
	userAddCmd.Flags().StringVar(&userLarkOpenID, "lark-open-id", "", "Lark open_id for direct messages")
	userCmd.AddCommand(userAddCmd)

	departmentAddCmd.Flags().StringVar(&departmentName, "name", "", "department name")
	departmentAddCmd.Flags().StringVar(&departmentDesc, "description", "", "department description")
	departmentCmd.AddCommand(departmentAddCmd)

	tagAddCmd.Flags().Int64Var(&tagDepartmentID, "department-id", 0, "owning department")
	tagAddCmd.Flags().StringVar(&tagDescription, "description", "", "tag description")
	tagCmd.AddCommand(tagAddCmd)
}

type cmdEnv struct {
	cfg    *config.Config
	db     *sql.DB
	logger *zap.Logger
}

// withDB opens the migrated database for a one-shot admin command
func withDB(fn func(ctx context.Context, env cmdEnv) error) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.Open(database.Config{Path: cfg.Database.Path}, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := database.NewMigrator(db, migrations.FS, logger).Run(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return fn(context.Background(), cmdEnv{cfg: cfg, db: db, logger: logger})
}
