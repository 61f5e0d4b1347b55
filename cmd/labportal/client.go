package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HerbHall/labportal/internal/config"
	"github.com/HerbHall/labportal/internal/fetch"
	"github.com/HerbHall/labportal/internal/portal"
	"github.com/HerbHall/labportal/internal/server"
	"github.com/HerbHall/labportal/internal/theme"
	"github.com/HerbHall/labportal/internal/version"
)

const clientTimeout = 10 * time.Second

// loadClientConfig reads configuration the same way serve does, so client
// commands find the server without extra flags.
func loadClientConfig() (*config.Config, error) {
	v, err := server.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return config.New(v)
}

// baseURL resolves --server, falling back to the configured listen address.
func baseURL() (string, error) {
	if serverURL != "" {
		return strings.TrimSuffix(serverURL, "/"), nil
	}
	cfg, err := loadClientConfig()
	if err != nil {
		return "", err
	}
	return cfg.Server.BaseURL(), nil
}

func newFetchClient() *fetch.Client {
	return fetch.NewClient(nil, "labportal-cli/"+version.Short())
}

func newFetchConfigCmd() *cobra.Command {
	var (
		url    string
		retry  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "fetch-config",
		Short: "Fetch and summarise the portal configuration document",
		Long: `Fetch the portal configuration document the way the server does and
print a summary of its sections, badges and presence entities.

With --retry the exponential backoff policy is used; otherwise a single
deadline-bounded request is made.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if url == "" {
				base, err := baseURL()
				if err != nil {
					return err
				}
				url = base + portal.DefaultConfigPath
			}
			doc, err := fetchDocument(cmd.Context(), url, retry)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			}
			printDocument(cmd.OutOrStdout(), doc)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "config document URL (default: the server's own endpoint)")
	cmd.Flags().BoolVar(&retry, "retry", false, "retry with exponential backoff")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the document as JSON")
	return cmd
}

func fetchDocument(ctx context.Context, url string, retry bool) (*portal.Document, error) {
	fc := newFetchClient()
	if !retry {
		return portal.NewLoader(fc, url).Load(ctx, portal.LoadOptions{})
	}
	store := portal.NewStore(nil)
	loader := portal.NewResilientLoader(fc, portal.ResilientConfig{ConfigURL: url}, store, zap.NewNop())
	doc, ok := loader.Fetch(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: %s", fetch.ErrExhausted, url)
	}
	return doc, nil
}

func printDocument(w io.Writer, doc *portal.Document) {
	head := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.FgHiBlack)

	title := doc.Title
	if title == "" {
		title = "(untitled)"
	}
	_, _ = head.Fprintln(w, title)
	if doc.Appearance.Theme != "" || doc.Appearance.HAThemeEntity != "" {
		_, _ = fmt.Fprintf(w, "  theme: %s", orDefault(doc.Appearance.Theme, "-"))
		if doc.Appearance.HAThemeEntity != "" {
			_, _ = fmt.Fprintf(w, " (entity %s)", doc.Appearance.HAThemeEntity)
		}
		_, _ = fmt.Fprintln(w)
	}

	for _, s := range doc.Sections {
		_, _ = head.Fprintf(w, "\n[%s] %s\n", s.ID, s.Title)
		for _, t := range s.Tiles {
			_, _ = fmt.Fprintf(w, "  %s %-16s %s", portal.IconFor(t.Icon), t.Label, t.Href)
			_, _ = dim.Fprintf(w, " (%s)\n", t.LinkTarget())
		}
	}

	if badges := doc.Badges(); len(badges) > 0 {
		_, _ = head.Fprintln(w, "\nbadges")
		for _, b := range badges {
			_, _ = fmt.Fprintf(w, "  %-16s %s\n", b.Label, b.Source)
		}
	}
	if len(doc.Presence) > 0 {
		_, _ = head.Fprintln(w, "\npresence")
		for _, p := range doc.Presence {
			_, _ = fmt.Fprintf(w, "  %s\n", p.Entity)
		}
	}
}

func newPingCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the portal auth gate answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if url == "" {
				base, err := baseURL()
				if err != nil {
					return err
				}
				url = base + portal.DefaultPingPath
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), fetch.DefaultTimeout)
			defer cancel()
			if !newFetchClient().Ping(ctx, url) {
				_, _ = color.New(color.FgRed, color.Bold).Fprintf(cmd.OutOrStdout(), "unreachable %s\n", url)
				return fmt.Errorf("ping %s failed", url)
			}
			_, _ = color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(), "ok %s\n", url)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "ping URL (default: the server's ping page)")
	return cmd
}

func newThemeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Inspect or change the theme of a running server",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Show the active theme",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return themeRequest(cmd, http.MethodGet, "/api/v1/theme", nil)
			},
		},
		&cobra.Command{
			Use:       "set light|dark",
			Short:     "Apply and persist a theme",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{string(theme.Light), string(theme.Dark)},
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := theme.Parse(args[0])
				if err != nil {
					return err
				}
				return themeRequest(cmd, http.MethodPut, "/api/v1/theme", theme.SetRequest{Theme: string(t)})
			},
		},
		&cobra.Command{
			Use:   "toggle",
			Short: "Switch between light and dark",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return themeRequest(cmd, http.MethodPost, "/api/v1/theme/toggle", nil)
			},
		},
	)
	return cmd
}

func themeRequest(cmd *cobra.Command, method, path string, body any) error {
	base, err := baseURL()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), clientTimeout)
	defer cancel()

	var state theme.StateResponse
	if err := callJSON(ctx, method, base+path, body, &state); err != nil {
		return err
	}
	printThemeState(cmd.OutOrStdout(), state)
	return nil
}

// callJSON sends body as JSON and decodes a 2xx response into out. Problem
// responses are reported by their detail.
func callJSON(ctx context.Context, method, url string, body, out any) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var p server.Problem
		if json.NewDecoder(resp.Body).Decode(&p) == nil && p.Detail != "" {
			return fmt.Errorf("%s %s: %s", method, url, p.Detail)
		}
		return fmt.Errorf("%s %s: status %d: %w", method, url, resp.StatusCode, fetch.ErrHTTPStatus)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", fetch.ErrParse, err)
	}
	return nil
}

func printThemeState(w io.Writer, s theme.StateResponse) {
	c := color.New(color.FgYellow, color.Bold)
	if s.Theme == theme.Dark {
		c = color.New(color.FgBlue, color.Bold)
	}
	active := string(s.Theme)
	if active == "" {
		active = "none"
	}
	_, _ = fmt.Fprint(w, "theme: ")
	_, _ = c.Fprintln(w, active)
	following := "no"
	if s.Following {
		following = "yes"
	}
	_, _ = fmt.Fprintf(w, "following system: %s (system prefers %s)\n", following, s.System)
}
