package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hongminglow/authgate/internal/auth"
)

func hashPasswordCmd() *cobra.Command {
	var scheme string

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a password hash for seeding the user store",
		Long: `Hashes a password with bcrypt (default) or argon2id. The password is read
from the first argument, or from the first line of stdin when no argument is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, args)
			if err != nil {
				return err
			}
			hash, err := hashWith(scheme, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&scheme, "scheme", "bcrypt", "hash scheme: bcrypt or argon2id")
	return cmd
}

func readPassword(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func hashWith(scheme, password string) (string, error) {
	switch strings.ToLower(scheme) {
	case "bcrypt":
		return auth.HashPassword(password)
	case "argon2id", "argon2":
		return auth.HashPasswordArgon2(password)
	default:
		return "", fmt.Errorf("unknown scheme %q", scheme)
	}
}
