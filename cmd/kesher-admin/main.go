// kesher-admin is the operator-run provisioning CLI. It creates the first
// manager account directly in MongoDB, outside the HTTP surface.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	userstore "github.com/kesherteam/kesher/internal/app/store/users"
	"github.com/kesherteam/kesher/internal/app/system/auth"
	"github.com/kesherteam/kesher/internal/app/system/indexes"
	"github.com/kesherteam/kesher/internal/app/system/inputval"
	"github.com/kesherteam/kesher/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kesher-admin",
		Short: "Kesher provisioning CLI",
		Long:  "Operator tooling for the Kesher coordination service.",
	}
	rootCmd.AddCommand(createManagerCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func createManagerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-manager",
		Short: "Interactively create a manager account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uri := os.Getenv("KESHER_MONGO_URI")
			dbName := os.Getenv("KESHER_MONGO_DATABASE")
			if uri == "" || dbName == "" {
				return errors.New("KESHER_MONGO_URI and KESHER_MONGO_DATABASE must be set")
			}

			in := bufio.NewReader(os.Stdin)
			username, err := promptUsername(in)
			if err != nil {
				return err
			}
			fullName, err := promptFullName(in)
			if err != nil {
				return err
			}
			password, err := promptPassword(in)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
			if err != nil {
				return fmt.Errorf("connect to mongo: %w", err)
			}
			defer func() { _ = client.Disconnect(ctx) }()
			if err := client.Ping(ctx, readpref.Primary()); err != nil {
				return fmt.Errorf("ping mongo: %w", err)
			}

			db := client.Database(dbName)
			if err := indexes.EnsureAll(ctx, db); err != nil {
				return fmt.Errorf("ensure indexes: %w", err)
			}

			user, err := userstore.New(db).Create(ctx, models.User{
				Username:     username,
				PasswordHash: auth.LegacyHash(password),
				FullName:     fullName,
				Role:         models.RoleManager,
				IsActive:     true,
			})
			if err != nil {
				if errors.Is(err, userstore.ErrDuplicateUsername) {
					return fmt.Errorf("username %q is already taken", username)
				}
				return fmt.Errorf("create manager: %w", err)
			}

			fmt.Printf("Created manager %q (%s)\n", user.Username, user.ID.Hex())
			return nil
		},
	}
}

func promptUsername(in *bufio.Reader) (string, error) {
	for {
		fmt.Printf("Username (%d-%d chars, letters/digits/_/-): ",
			inputval.UsernameMinLen, inputval.UsernameMaxLen)
		line, err := readLine(in)
		if err != nil {
			return "", err
		}
		if inputval.IsValidUsername(line) {
			return line, nil
		}
		fmt.Println("Invalid username, try again.")
	}
}

func promptFullName(in *bufio.Reader) (string, error) {
	for {
		fmt.Print("Full name: ")
		line, err := readLine(in)
		if err != nil {
			return "", err
		}
		if inputval.IsValidFullName(line) {
			return line, nil
		}
		fmt.Println("Invalid full name, try again.")
	}
}

func promptPassword(in *bufio.Reader) (string, error) {
	for {
		fmt.Printf("Password (%d-%d chars): ", inputval.PasswordMinLen, inputval.PasswordMaxLen)
		password, err := readLine(in)
		if err != nil {
			return "", err
		}
		if !inputval.IsValidPassword(password) {
			fmt.Println("Invalid password length, try again.")
			continue
		}
		fmt.Print("Confirm password: ")
		confirm, err := readLine(in)
		if err != nil {
			return "", err
		}
		if password != confirm {
			fmt.Println("Passwords do not match, try again.")
			continue
		}
		return password, nil
	}
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
