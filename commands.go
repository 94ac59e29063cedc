package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "スキーマを作成する（既存テーブルはそのまま）",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			if err := db.Migrate(ctx, conn); err != nil {
				return err
			}
			log.Println("[INFO] migrate done")
			return nil
		},
	}
}

func accountCmd() *cobra.Command {
	account := &cobra.Command{Use: "account", Short: "会員アカウント管理"}

	var email, name, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "アカウントを作成する（admin の初期作成用）",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := auth.Role(role)
			if !r.Valid() {
				return fmt.Errorf("role は admin か member: %q", role)
			}
			password, err := readPassword()
			if err != nil {
				return err
			}
			if len(password) < 8 {
				return errors.New("password は8文字以上")
			}

			cfg, conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			svcs, err := newServices(cfg, conn)
			if err != nil {
				return err
			}
			m, err := svcs.auth.Register(cmd.Context(), email, name, password, r)
			if err != nil {
				return err
			}
			log.Printf("[INFO] account created id=%d email=%s role=%s", m.ID, m.Email, m.Role)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "メールアドレス")
	create.Flags().StringVar(&name, "name", "", "表示名")
	create.Flags().StringVar(&role, "role", string(auth.RoleMember), "admin | member")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("name")

	account.AddCommand(create)
	return account
}

// readPassword: 端末ならエコーなしで入力、パイプなら1行読む
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("password の読み込みに失敗: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-overdue",
		Short: "期限切れの未返却貸出の status を overdue に更新する",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			svcs, err := newServices(cfg, conn)
			if err != nil {
				return err
			}
			n, err := svcs.circulation.SweepOverdue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("updated %d transaction(s)\n", n)
			return nil
		},
	}
}
