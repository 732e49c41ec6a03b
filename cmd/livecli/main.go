package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	_ "github.com/joho/godotenv/autoload"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/auth"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/endpoints"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/internal/config"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/token"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/token/refresh"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand(os.Stdin, os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the flags shared by every command.
type app struct {
	config  config.Config
	in      io.Reader
	out     io.Writer
	store   string
	folder  string
	host    string
	verbose bool
}

func newRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{config: config.New(), in: in, out: out}

	cmd := &cobra.Command{
		Use:           "livecli",
		Short:         "Sign in to a Live Connect account from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.WarnLevel
			if a.verbose {
				level = zerolog.DebugLevel
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(level).With().Timestamp().Logger()
		},
	}

	cmd.PersistentFlags().StringVar(&a.store, "store", refresh.KindFile, "Where the refresh token is kept: memory, file or sqlite")
	cmd.PersistentFlags().StringVar(&a.folder, "folder", a.config.GetDataFolder(), "Folder for the token file or database")
	cmd.PersistentFlags().StringVar(&a.host, "host", a.config.GetAuthHost(), "Authorization server, login.live.com when empty")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging")

	cmd.AddCommand(newLoginCommand(a))
	cmd.AddCommand(newStatusCommand(a))
	cmd.AddCommand(newTokenCommand(a))
	cmd.AddCommand(newLogoutCommand(a))
	return cmd
}

func newLoginCommand(a *app) *cobra.Command {
	var (
		scopes   []string
		appState string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in, silently when a stored refresh token still works",
		RunE: func(cmd *cobra.Command, args []string) error {
			displayAppname(a.out, a.config.GetAppName())
			client, closeStore, err := a.client()
			if err != nil {
				return err
			}
			defer closeStore()

			result, err := client.Login(cmd.Context(), scopes, appState)
			if err != nil {
				return err
			}
			return a.printResult(client, result)
		},
	}

	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "Scopes to request (repeatable), LIVE_SCOPES when empty")
	cmd.Flags().StringVar(&appState, "state", "", "Application state to round trip through the consent page")
	return cmd
}

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Restore the session from the stored refresh token and describe it",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeStore, err := a.client()
			if err != nil {
				return err
			}
			defer closeStore()

			result, err := client.Initialize(cmd.Context(), nil)
			if err != nil {
				return err
			}
			return a.printResult(client, result)
		},
	}
}

func newTokenCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a valid access token, refreshing it if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeStore, err := a.client()
			if err != nil {
				return err
			}
			defer closeStore()

			tok, err := client.TokenSource(cmd.Context()).Token()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, tok.AccessToken)
			return nil
		},
	}
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored refresh token",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeStore, err := a.client()
			if err != nil {
				return err
			}
			defer closeStore()

			if err := client.ClearSession(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Signed out. To end the browser session as well, open:\n\n  %s\n", client.LogoutURL())
			return nil
		},
	}
}

// client wires an auth.Client to the configured store and the terminal consent prompt.
func (a *app) client() (*auth.Client, func(), error) {
	if a.store != refresh.KindMemory {
		if err := os.MkdirAll(a.folder, 0o700); err != nil {
			return nil, nil, errors.Wrap(err, "[app.client] failed to create the data folder")
		}
	}
	clientID := a.config.GetClientID()
	store, err := refresh.Open(a.store, a.folder, clientID, a.config.GetTokenPassphrase())
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if closer, ok := store.(io.Closer); ok {
			_ = closer.Close()
		}
	}

	urls := endpoints.New(a.host)
	exchanger := token.NewClient(token.NewHTTPTransport(token.WithTimeout(a.config.GetHTTPTimeout())), urls)
	client, err := auth.NewClient(auth.Config{
		ClientID:     clientID,
		ClientSecret: a.config.GetClientSecret(),
		RedirectURL:  config.GetEnv("LIVE_REDIRECT_URL", urls.DesktopRedirectURL()),
		Scopes:       a.config.GetScopes(),
	}, exchanger,
		auth.WithEndpoints(urls),
		auth.WithTokenStore(store),
		auth.WithConsentUI(terminalConsent(a.in, a.out)),
	)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return client, closeStore, nil
}

func (a *app) printResult(client *auth.Client, result *oauth2.LoginResult) error {
	fmt.Fprintf(a.out, "status:  %s\n", result.Status)
	if result.Error != nil {
		fmt.Fprintf(a.out, "error:   %s\n", result.Error)
	}
	if result.Status != oauth2.StatusConnected {
		return nil
	}
	if userID, err := client.UserID(); err == nil {
		fmt.Fprintf(a.out, "user:    %s\n", userID)
	}
	fmt.Fprintf(a.out, "scopes:  %s\n", strings.Join(result.Session.Scopes, " "))
	fmt.Fprintf(a.out, "expires: %s\n", result.Session.ExpiresAt.Local().Format(time.RFC1123))
	if result.AppState != "" {
		fmt.Fprintf(a.out, "state:   %s\n", result.AppState)
	}
	return nil
}

func displayAppname(out io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(out, myFigure.String())
}
