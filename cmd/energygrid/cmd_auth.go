package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/auth"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/gridapi"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

var (
	loginEmail    string
	loginPassword string
)

// loginCmd starts a session against the configured server
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the EnergyGrid server",
	Long: `Log in with your EnergyGrid account and store the session locally.

Email and password are prompted when not passed as flags. The session
(access and refresh token) is written to the config directory and
refreshed automatically by later commands until it fully expires.`,
	RunE: runLogin,
}

// logoutCmd ends the current session
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and discard the stored session",
	RunE:  runLogout,
}

// whoamiCmd shows the active account
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prompted when omitted; prompting keeps it out of shell history)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}

	email := strings.TrimSpace(loginEmail)
	if email == "" {
		fmt.Print("Email: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	password := loginPassword
	if password == "" {
		fmt.Print("Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		password = string(raw)
	}

	ctx, cancel := commandContext()
	defer cancel()

	res, err := client.Login(ctx, types.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	if err := cliApp.mgr.SetSession(res.TokenPair, &res.User, cliApp.cfg.Server.BaseURL); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	logger.Debug("session stored",
		zap.String("email", res.User.Email),
		zap.String("role", string(res.User.Role)))

	if flagJSON {
		return printJSON(res.User)
	}
	fmt.Printf("Logged in as %s (%s) on %s\n", res.User.DisplayName(), res.User.Role, cliApp.cfg.Server.BaseURL)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	_, err := cliApp.store.Load()
	if errors.Is(err, auth.ErrNoSession) {
		fmt.Println("Not logged in.")
		return nil
	}

	// Revoke server-side first; local state goes regardless.
	if client, cErr := cliApp.api(); cErr == nil {
		ctx, cancel := commandContext()
		defer cancel()
		if rErr := client.Logout(ctx); rErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: server-side revoke failed: %v\n", rErr)
		}
	}

	if err := cliApp.mgr.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	sess, err := cliApp.mgr.Current()
	if err != nil {
		return err
	}

	client, err := cliApp.api()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	user, err := client.Me(ctx)
	if err != nil {
		var apiErr *gridapi.APIError
		if errors.As(err, &apiErr) {
			return err
		}
		// Offline is fine for whoami; the stored session still answers it.
		fmt.Fprintln(os.Stderr, "(server unreachable; showing stored session)")
		if flagJSON {
			return printJSON(sess)
		}
		fmt.Printf("Email:   %s\n", sess.Email)
		fmt.Printf("Role:    %s\n", sess.Role)
		fmt.Printf("Server:  %s\n", sess.Server)
		fmt.Printf("Expires: %s\n", fmtTimeVal(sess.ExpiresAt))
		return nil
	}

	if flagJSON {
		return printJSON(user)
	}
	fmt.Printf("Name:    %s\n", user.DisplayName())
	fmt.Printf("Email:   %s\n", user.Email)
	fmt.Printf("Role:    %s\n", user.Role)
	fmt.Printf("Server:  %s\n", sess.Server)
	if user.LastLoginAt != nil {
		fmt.Printf("Last login: %s\n", fmtTime(user.LastLoginAt))
	}
	fmt.Printf("Session expires: %s (%s)\n", fmtTimeVal(sess.ExpiresAt), humanAge(time.Until(sess.ExpiresAt)))
	return nil
}
