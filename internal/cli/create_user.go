package cli // import "jobwatch.app/internal/cli"

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"jobwatch.app/internal/model"
	"jobwatch.app/internal/storage"
	"jobwatch.app/internal/validator"
)

var flagAdminUser bool

var createUserCmd = cobra.Command{
	Use:   "create-user username",
	Short: "Create a new user",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(
			func(ctx context.Context, store *storage.Storage) error {
				return createUser(ctx, store, args[0], flagAdminUser)
			})
	},
}

var createAPIKeyCmd = cobra.Command{
	Use:   "create-api-key username description",
	Short: "Create an API key for the given user",
	Args:  cobra.ExactArgs(2),

	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(
			func(ctx context.Context, store *storage.Storage) error {
				return createAPIKey(ctx, store, args[0], args[1])
			})
	},
}

func init() {
	createUserCmd.Flags().BoolVarP(&flagAdminUser, "admin", "", false,
		"Grant admin privileges")
}

func createUser(ctx context.Context, store *storage.Storage, username string,
	isAdmin bool,
) error {
	user, err := store.UserByUsername(ctx, username)
	if err != nil {
		return err
	} else if user != nil {
		slog.Info("Skipping user creation because it already exists",
			slog.String("username", username))
		return nil
	}

	newUser := &model.User{Username: username, IsAdmin: isAdmin}
	if err := validator.ValidateUserCreation(newUser); err != nil {
		return err
	}

	if err := store.CreateUser(ctx, newUser); err != nil {
		return err
	}
	slog.Info("User created",
		slog.Int64("user_id", newUser.ID),
		slog.String("username", newUser.Username),
		slog.Bool("is_admin", newUser.IsAdmin))
	return nil
}

func createAPIKey(ctx context.Context, store *storage.Storage, username,
	description string,
) error {
	user, err := store.UserByUsername(ctx, username)
	if err != nil {
		return err
	} else if user == nil {
		return fmt.Errorf("cli: user %q not found", username)
	}

	if err := validator.ValidateAPIKeyCreation(description); err != nil {
		return err
	}

	key, err := store.CreateAPIKey(ctx, user.ID, description)
	if err != nil {
		return err
	}
	fmt.Println(key.Token)
	return nil
}
