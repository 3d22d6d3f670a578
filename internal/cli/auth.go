package cli

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/holly-cummins/extensions.io/pkg/integrations/github"
	"github.com/holly-cummins/extensions.io/pkg/session"
)

const loginTimeout = 5 * time.Minute

func (c *CLI) githubCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "github",
		Short: "Manage GitHub credentials",
		Long: `Log in to GitHub with the device flow. The token is stored under the user
config directory and used whenever GITHUB_TOKEN is not set.`,
	}
	cmd.AddCommand(c.githubLoginCommand())
	cmd.AddCommand(c.githubLogoutCommand())
	cmd.AddCommand(c.githubWhoamiCommand())
	return cmd
}

func (c *CLI) githubLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate with GitHub using the device flow",
		Long: `Start the GitHub device authorization flow. Enter the code shown at
https://github.com/login/device; the session is then saved locally.

The OAuth app is taken from github.client_id or GITHUB_CLIENT_ID.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := session.NewCLIStore("")
			if err != nil {
				return err
			}
			if existing, _ := store.Load(ctx); existing != nil {
				printInfo("Already logged in as @%s", existing.Login())
				printDetail("Run 'enricher github logout' first to re-authenticate")
				return nil
			}
			return c.runGitHubLogin(ctx, store)
		},
	}
}

func (c *CLI) githubLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored GitHub credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := session.NewCLIStore("")
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Logged out")
			return nil
		},
	}
}

func (c *CLI) githubWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show which GitHub user the token belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			token := c.githubToken(ctx)
			if token == "" {
				return fmt.Errorf("not logged in (run 'enricher github login' or set GITHUB_TOKEN)")
			}

			spinner := newSpinnerWithContext(ctx, "Verifying token...")
			spinner.Start()
			user, err := c.newGitHubClient(token).Viewer(ctx)
			if err != nil {
				spinner.StopWithError("Token rejected")
				return err
			}
			spinner.Stop()

			printSuccess("GitHub user")
			printKeyValue("Login", "@"+user.Login)
			if user.Name != "" {
				printKeyValue("Name", user.Name)
			}
			source := "GITHUB_TOKEN"
			if c.cfg.GitHub.Token == "" {
				source = "stored session"
			}
			printKeyValue("Token from", source)
			return nil
		},
	}
}

func (c *CLI) runGitHubLogin(ctx context.Context, store *session.CLIStore) error {
	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	flow := github.NewDeviceFlow(c.cfg.GitHub.ClientID, "")
	code, err := flow.RequestCode(ctx)
	if err != nil {
		return fmt.Errorf("request device code: %w", err)
	}

	printNewline()
	fmt.Println(StyleTitle.Render("GitHub Device Authorization"))
	printNewline()
	printKeyValue("Code", StyleNumber.Render(code.UserCode))
	printKeyValue("URL", StyleLink.Render(code.VerificationURI))
	printNewline()
	if err := openBrowser(code.VerificationURI); err != nil {
		printDetail("Copy the URL above and paste it in your browser")
	} else {
		printDetail("Opening browser...")
	}
	printInline("Waiting for authorization...")

	token, err := flow.PollToken(ctx, code)
	printNewline()
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	user, err := c.newGitHubClient(token.AccessToken).Viewer(ctx)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	sess, err := session.New(token.AccessToken, user, session.DefaultTTL)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, sess); err != nil {
		return err
	}

	printSuccess("Logged in as @%s", user.Login)
	printDetail("Session: %s", store.Path())
	return nil
}

func openBrowser(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "linux":
		cmd = exec.Command("xdg-open", rawURL)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", rawURL)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
