package cmd

import (
	"errors"
	"fmt"

	"ieltsprep/backend/config"
	"ieltsprep/backend/models"
	"ieltsprep/backend/utils"
	"ieltsprep/backend/validators"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger := utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

			db, err := utils.InitDB(cfg)
			if err != nil {
				return err
			}
			defer utils.CloseDB(db)

			if err := utils.Migrate(db); err != nil {
				return err
			}
			logger.Info().Str("driver", cfg.DBDriver).Msg("Migration complete")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var input validators.SignupRequest

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator or promote an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger := utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

			db, err := utils.InitDB(cfg)
			if err != nil {
				return err
			}
			defer utils.CloseDB(db)
			if err := utils.Migrate(db); err != nil {
				return err
			}

			user, created, err := ensureAdmin(db, cfg, input)
			if err != nil {
				return err
			}
			logger.Info().Uint("user_id", user.ID).Str("email", user.Email).Bool("created", created).Msg("Administrator ready")
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Name, "name", "Administrator", "Display name")
	cmd.Flags().StringVar(&input.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&input.Password, "password", "", "Password for a new account")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// ensureAdmin promotes the account with the given email, creating it when missing.
func ensureAdmin(db *gorm.DB, cfg *config.Config, input validators.SignupRequest) (*models.User, bool, error) {
	input.Normalize()

	var user models.User
	err := db.Where("email = ?", input.Email).First(&user).Error
	if err == nil {
		if err := db.Model(&user).Updates(map[string]interface{}{"role": models.RoleAdmin, "is_active": true}).Error; err != nil {
			return nil, false, err
		}
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if fields := validators.Struct(&input); fields != nil {
		return nil, false, fmt.Errorf("invalid admin account: %s %s", fields[0].Field, fields[0].Message)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), cfg.BcryptCost)
	if err != nil {
		return nil, false, err
	}

	user = models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, false, err
	}
	return &user, true, nil
}
