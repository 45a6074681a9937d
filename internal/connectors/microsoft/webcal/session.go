// Package webcal implements the interactive session variant: a real
// browser session against the Outlook web calendar, driven via chromedp.
// It needs no app registration or admin consent; the user signs in the
// way they normally would, two-factor prompts included.
package webcal

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/custodia-labs/outcal/internal/core/domain"
	"github.com/custodia-labs/outcal/internal/core/ports/driven"
	"github.com/custodia-labs/outcal/internal/logger"
)

const (
	calendarURL = "https://outlook.office.com/calendar/view/month"
	logoutURL   = "https://login.microsoftonline.com/common/oauth2/v2.0/logout"

	// DefaultLoginTimeout bounds the whole sign-in, two-factor approval
	// included. Matches the patience of a human doing MFA on a phone.
	DefaultLoginTimeout = 10 * time.Minute
)

// loginHosts identify an in-progress Microsoft sign-in redirect.
var loginHosts = []string{
	"login.microsoftonline.com",
	"login.live.com",
	"login.microsoft.com",
}

// calendarHosts identify a loaded Outlook calendar.
var calendarHosts = []string{
	"outlook.office.com/calendar",
	"outlook.office365.com/calendar",
}

// AuthConfig configures the browser authenticator.
type AuthConfig struct {
	// Engine selects the browser: "chromium" (default), "chrome", "edge",
	// or an explicit executable path.
	Engine string

	// Headless hides the browser window. Only useful once a previous
	// visible run has established a signed-in profile.
	Headless bool

	// ProfileDir overrides the browser profile location. Empty selects
	// ~/.outcal/browser-<engine>.
	ProfileDir string

	// LoginTimeout bounds the interactive sign-in wait.
	LoginTimeout time.Duration
}

// Authenticator drives the Outlook web sign-in inside a browser.
type Authenticator struct {
	cfg AuthConfig
}

var _ driven.Authenticator = (*Authenticator)(nil)

// NewAuthenticator creates a browser authenticator.
func NewAuthenticator(cfg AuthConfig) *Authenticator {
	if cfg.Engine == "" {
		cfg.Engine = "chromium"
	}
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = DefaultLoginTimeout
	}
	return &Authenticator{cfg: cfg}
}

// Authenticate opens the Outlook calendar, runs the login flow if the
// provider redirects to a sign-in page, and blocks until the calendar is
// reachable or the login timeout expires.
func (a *Authenticator) Authenticate(ctx context.Context, profile domain.TargetProfile) (driven.Session, error) {
	execPath, err := resolveEngine(a.cfg.Engine)
	if err != nil {
		return nil, err
	}

	profileDir := a.cfg.ProfileDir
	if profileDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		profileDir = filepath.Join(home, ".outcal", "browser-"+filepath.Base(a.cfg.Engine))
	}
	if err := os.MkdirAll(profileDir, 0o700); err != nil {
		return nil, fmt.Errorf("create browser profile dir: %w", err)
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.UserDataDir(profileDir),
		chromedp.WindowSize(1280, 900),
		chromedp.ExecPath(execPath),
	}
	if a.cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	sess := &Session{
		ctx:        browserCtx,
		cancel:     func() { browserCancel(); allocCancel() },
		profileDir: profileDir,
	}

	logger.Info("opening Outlook calendar (%s)", a.cfg.Engine)
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(calendarURL),
		chromedp.Sleep(2*time.Second),
	); err != nil {
		sess.cancel()
		return nil, fmt.Errorf("%w: launch browser: %v", domain.ErrAuthNetwork, err)
	}

	loc, err := currentURL(browserCtx)
	if err != nil {
		sess.cancel()
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthNetwork, err)
	}

	if hostMatches(loc, loginHosts) {
		if err := a.login(browserCtx, profile); err != nil {
			sess.cancel()
			return nil, err
		}
	}

	return sess, nil
}

// login fills the sign-in form as far as the configured credentials
// allow, surfaces any two-factor number, and blocks until the provider
// redirects back to the calendar.
func (a *Authenticator) login(ctx context.Context, profile domain.TargetProfile) error {
	if profile.Username != "" {
		a.autofill(ctx, profile)
	}

	// Re-check: the autofill may have been enough, or the user may still
	// have to finish in the browser window.
	loc, _ := currentURL(ctx)
	if hostMatches(loc, loginHosts) {
		fmt.Fprintln(os.Stderr, "Sign-in required: please complete login in the browser window.")
		fmt.Fprintln(os.Stderr, "If a two-factor prompt appears, approve it on your trusted device.")
	}

	a.surfaceTwoFactorNumber(ctx)

	if err := waitForCalendar(ctx, a.cfg.LoginTimeout); err != nil {
		return err
	}

	logger.Info("sign-in complete")
	return nil
}

// autofill types the configured credentials into the login form. Any
// failure here is non-fatal; the user can always finish by hand.
func (a *Authenticator) autofill(ctx context.Context, profile domain.TargetProfile) {
	logger.Debug("webcal: attempting auto-login for %s", profile.Username)

	short, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	err := chromedp.Run(short,
		chromedp.WaitVisible(`input[type="email"], input[name="loginfmt"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[type="email"], input[name="loginfmt"]`, profile.Username, chromedp.ByQuery),
		chromedp.Click(`input[type="submit"], button[type="submit"]`, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		logger.Warn("auto-login could not fill the username field; continue manually")
		return
	}

	if profile.Password == "" {
		// GUI mode with no stored password: the user types it into the
		// rendered form.
		return
	}

	err = chromedp.Run(short,
		chromedp.WaitVisible(`input[type="password"], input[name="passwd"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[type="password"], input[name="passwd"]`, profile.Password, chromedp.ByQuery),
		chromedp.Click(`input[type="submit"], button[type="submit"]`, chromedp.ByQuery),
		chromedp.Sleep(3*time.Second),
	)
	if err != nil {
		logger.Warn("auto-login could not submit the password; continue manually")
		return
	}

	// Dismiss the "Stay signed in?" interstitial if it shows up.
	dismiss, dcancel := context.WithTimeout(ctx, 3*time.Second)
	defer dcancel()
	_ = chromedp.Run(dismiss, chromedp.Click(`input[id="idBtn_Back"]`, chromedp.ByQuery))
}

// surfaceTwoFactorNumber scrapes the number-matching prompt, if one is
// being displayed, and prints it so the user knows what to confirm on
// their trusted device.
func (a *Authenticator) surfaceTwoFactorNumber(ctx context.Context) {
	short, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var number string
	err := chromedp.Run(short, chromedp.Evaluate(`(() => {
		const el = document.querySelector('#idRichContext_DisplaySign');
		return el ? el.innerText.trim() : "";
	})()`, &number))
	if err == nil && number != "" {
		fmt.Fprintf(os.Stderr, "\nTwo-factor sign-in: confirm the number %s on your trusted device.\n\n", number)
	}
}

// waitForCalendar polls the page URL until it lands back on the Outlook
// calendar. On deadline the authentication fails; no retry.
func waitForCalendar(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		loc, err := currentURL(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return domain.ErrAuthTimeout
			}
			return fmt.Errorf("%w: %v", domain.ErrAuthNetwork, err)
		}
		if hostMatches(loc, calendarHosts) {
			return nil
		}
		if time.Now().After(deadline) {
			return domain.ErrAuthTimeout
		}

		select {
		case <-ctx.Done():
			return domain.ErrAuthTimeout
		case <-time.After(2 * time.Second):
		}
	}
}

func currentURL(ctx context.Context) (string, error) {
	var loc string
	if err := chromedp.Run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

func hostMatches(url string, hosts []string) bool {
	for _, h := range hosts {
		if strings.Contains(url, h) {
			return true
		}
	}
	return false
}

// resolveEngine maps an engine name to a browser executable. A value
// containing a path separator is used verbatim.
func resolveEngine(engine string) (string, error) {
	if strings.ContainsRune(engine, os.PathSeparator) {
		return engine, nil
	}

	candidates, ok := map[string][]string{
		"chromium": {"chromium", "chromium-browser"},
		"chrome":   {"google-chrome", "google-chrome-stable", "chrome"},
		"edge":     {"microsoft-edge", "msedge"},
	}[engine]
	if !ok {
		return "", fmt.Errorf("unsupported browser engine %q (chromium, chrome, edge)", engine)
	}

	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no %s executable found in PATH", engine)
}

// extractScript collects the aria-labels of rendered calendar events.
// The month view annotates each event tile with a label carrying the
// subject, time range and date.
const extractScript = `(() => {
	const labels = [];
	document.querySelectorAll('[aria-label]').forEach(el => {
		const label = el.getAttribute('aria-label') || '';
		const timed = label.includes(' to ') && (label.includes('AM') || label.includes('PM'));
		const allDay = label.toLowerCase().includes('all day');
		if (timed || allDay) labels.push(label);
	});
	return labels;
})()`

// Session is a signed-in browser page on the Outlook calendar.
type Session struct {
	ctx        context.Context
	cancel     func()
	profileDir string
	closed     bool
}

var _ driven.Session = (*Session)(nil)

// FetchEvents waits for the month view to finish rendering, scrapes the
// visible event labels, and returns the parsed batch clamped to the
// window and sorted by start time.
func (s *Session) FetchEvents(ctx context.Context, window domain.Window) (domain.EventBatch, error) {
	runCtx, cancel := context.WithTimeout(s.ctx, 60*time.Second)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("%w: calendar page not ready: %v", domain.ErrSessionExpired, err)
	}

	labels, err := s.stableLabels(runCtx)
	if err != nil {
		return nil, err
	}

	logger.Debug("webcal: scraped %d candidate labels", len(labels))

	batch := ParseAriaLabels(labels)
	if len(labels) > 0 && len(batch) == 0 {
		return nil, fmt.Errorf("%w: no labels matched the expected event format", domain.ErrParseFailure)
	}

	batch = batch.Clamp(window)
	batch.SortByStart()
	return batch, nil
}

// stableLabels polls the event labels until two consecutive reads agree,
// tolerating partially rendered views. Bounded: after a few attempts the
// last read wins.
func (s *Session) stableLabels(ctx context.Context) ([]string, error) {
	const attempts = 5

	var prev []string
	for i := 0; i < attempts; i++ {
		var labels []string
		if err := chromedp.Run(ctx, chromedp.Evaluate(extractScript, &labels)); err != nil {
			return nil, fmt.Errorf("%w: scrape event labels: %v", domain.ErrSessionExpired, err)
		}

		if prev != nil && len(labels) == len(prev) && len(labels) > 0 {
			return labels, nil
		}
		prev = labels

		select {
		case <-ctx.Done():
			return prev, nil
		case <-time.After(1500 * time.Millisecond):
		}
	}
	return prev, nil
}

// Close signs out so accounts can be switched between runs, then shuts
// the browser down and removes the session's profile state.
func (s *Session) Close(_ context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	signOut, cancel := context.WithTimeout(s.ctx, 15*time.Second)
	err := chromedp.Run(signOut,
		chromedp.Navigate(logoutURL),
		chromedp.Sleep(2*time.Second),
	)
	cancel()
	if err != nil {
		// The data was already extracted; an incomplete logout is not
		// worth failing the run over.
		logger.Warn("sign-out may be incomplete: %v", err)
	}

	s.cancel()

	if s.profileDir != "" {
		if err := os.RemoveAll(s.profileDir); err != nil {
			logger.Warn("could not remove browser profile: %v", err)
		}
	}
	return nil
}
