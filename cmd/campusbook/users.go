package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/campusbook/campusbook/internal/auth"
	"github.com/campusbook/campusbook/internal/config"
	"github.com/campusbook/campusbook/internal/store"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage campusbook accounts.",
}

var (
	bootstrapTeacherUsername     string
	bootstrapTeacherName         string
	bootstrapTeacherEmail        string
	bootstrapTeacherPassword     string
	bootstrapTeacherPassStdin    bool
	bootstrapTeacherGeneratePass bool
)

var bootstrapTeacherCmd = &cobra.Command{
	Use:   "bootstrap-teacher",
	Short: "Create the first teacher account (idempotent if a teacher already exists).",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		username := auth.NormalizeUsername(bootstrapTeacherUsername)
		if username == "" {
			return errors.New("--username is required")
		}
		displayName := strings.TrimSpace(bootstrapTeacherName)
		if displayName == "" {
			displayName = username
		}

		password, generated, err := resolveBootstrapPassword(cmd)
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		users := store.NewUserRepo(pool)

		teacherCount, err := users.CountByRole(ctx, auth.RoleTeacher)
		if err != nil {
			return err
		}
		if teacherCount > 0 {
			cmd.Println("teacher account already exists; nothing to do")
			return nil
		}

		resolver := auth.NewResolver(users)
		_, err = resolver.Register(ctx, auth.RegisterInput{
			Username:        username,
			Password:        password,
			ConfirmPassword: password,
			DisplayName:     displayName,
			Email:           strings.TrimSpace(bootstrapTeacherEmail),
			Role:            auth.RoleTeacher,
		})
		if err != nil {
			if errors.Is(err, auth.ErrUsernameTaken) {
				return fmt.Errorf("user already exists: %s", username)
			}
			return err
		}

		cmd.Printf("created teacher account: %s\n", username)
		if generated {
			cmd.Printf("generated password: %s\n", password)
		}
		return nil
	},
}

func resolveBootstrapPassword(cmd *cobra.Command) (string, bool, error) {
	if bootstrapTeacherPassStdin && bootstrapTeacherGeneratePass {
		return "", false, errors.New("--password-stdin and --generate-password are mutually exclusive")
	}
	if bootstrapTeacherPassStdin && bootstrapTeacherPassword != "" {
		return "", false, errors.New("--password-stdin and --password are mutually exclusive")
	}
	if bootstrapTeacherGeneratePass && bootstrapTeacherPassword != "" {
		return "", false, errors.New("--generate-password and --password are mutually exclusive")
	}

	if bootstrapTeacherPassStdin {
		raw, err := readAllStdin()
		if err != nil {
			return "", false, err
		}
		password := strings.TrimRight(raw, "\r\n")
		if password == "" {
			return "", false, errors.New("password is empty")
		}
		return password, false, nil
	}

	if bootstrapTeacherGeneratePass {
		password, err := generatePassword(24)
		if err != nil {
			return "", false, err
		}
		return password, true, nil
	}

	if bootstrapTeacherPassword != "" {
		return bootstrapTeacherPassword, false, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", false, errors.New("no password provided (use --password, --password-stdin, or --generate-password)")
	}

	cmd.Print("Password: ")
	pass1, err := term.ReadPassword(int(os.Stdin.Fd()))
	cmd.Println()
	if err != nil {
		return "", false, err
	}
	if len(pass1) == 0 {
		return "", false, errors.New("password is empty")
	}

	cmd.Print("Confirm password: ")
	pass2, err := term.ReadPassword(int(os.Stdin.Fd()))
	cmd.Println()
	if err != nil {
		return "", false, err
	}

	if string(pass1) != string(pass2) {
		return "", false, errors.New("passwords do not match")
	}

	return string(pass1), false, nil
}

func readAllStdin() (string, error) {
	in, err := os.Stdin.Stat()
	if err != nil {
		return "", err
	}
	if in.Mode()&os.ModeCharDevice != 0 {
		return "", errors.New("stdin is a terminal; use --password or omit to prompt")
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return scanner.Text(), nil
}

func generatePassword(length int) (string, error) {
	if length < 16 {
		return "", errors.New("password length too short")
	}
	const alphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const alphabetLen = byte(len(alphabet))
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = alphabet[b[i]%alphabetLen]
	}
	return string(b), nil
}

func init() {
	usersCmd.AddCommand(bootstrapTeacherCmd)
	bootstrapTeacherCmd.Flags().StringVar(&bootstrapTeacherUsername, "username", "", "Username for the teacher account")
	bootstrapTeacherCmd.Flags().StringVar(&bootstrapTeacherName, "name", "", "Display name for the teacher account")
	bootstrapTeacherCmd.Flags().StringVar(&bootstrapTeacherEmail, "email", "", "Email address for the teacher account")
	bootstrapTeacherCmd.Flags().StringVar(&bootstrapTeacherPassword, "password", "", "Password for the teacher account (discouraged; prefer --password-stdin)")
	bootstrapTeacherCmd.Flags().BoolVar(&bootstrapTeacherPassStdin, "password-stdin", false, "Read the password from stdin")
	bootstrapTeacherCmd.Flags().BoolVar(&bootstrapTeacherGeneratePass, "generate-password", false, "Generate a random password and print it")
	_ = bootstrapTeacherCmd.MarkFlagRequired("username")
}
