package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/nultr/nultr/backend/go/internal/v1/auth"
	"github.com/nultr/nultr/backend/go/internal/v1/cli"
	"github.com/nultr/nultr/backend/go/internal/v1/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Printf("Error occurred: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	if len(args) != 2 {
		return errors.New("usage: manager <add-user|delete-user> <username>")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	st, err := store.Open(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.Migrate(); err != nil {
		return err
	}

	m := cli.NewManager(st.Users, auth.NewPasswordHasher(), os.Stdout)
	ctx := context.Background()

	switch args[0] {
	case "add-user":
		return m.AddUser(ctx, args[1])
	case "delete-user":
		return m.DeleteUser(ctx, args[1])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
