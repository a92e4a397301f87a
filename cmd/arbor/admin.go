package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"arbor/internal/auth"
	"arbor/internal/database"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative commands",
}

var adminUserCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage editor accounts",
}

var (
	userCreateUsername string
	userCreateName     string
	userCreatePassword string
)

var adminUserCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an editor account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.New(cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		service := auth.NewService(auth.NewRepository(db))
		user, err := service.RegisterUser(userCreateUsername, userCreateName, userCreatePassword)
		if err != nil {
			return err
		}
		fmt.Printf("created user %s (id %d)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	adminUserCreateCmd.Flags().StringVar(&userCreateUsername, "username", "", "login name")
	adminUserCreateCmd.Flags().StringVar(&userCreateName, "name", "", "display name")
	adminUserCreateCmd.Flags().StringVar(&userCreatePassword, "password", "", "password")
	adminUserCreateCmd.MarkFlagRequired("username")
	adminUserCreateCmd.MarkFlagRequired("name")
	adminUserCreateCmd.MarkFlagRequired("password")

	adminUserCmd.AddCommand(adminUserCreateCmd)
	adminCmd.AddCommand(adminUserCmd)
}
