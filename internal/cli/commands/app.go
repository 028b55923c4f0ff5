package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/capitalhub-dev/capitalhub/internal/cli/auth"
	"github.com/capitalhub-dev/capitalhub/internal/cli/client"
	"github.com/capitalhub-dev/capitalhub/internal/cli/config"
	"github.com/capitalhub-dev/capitalhub/internal/cli/fetch"
	"github.com/capitalhub-dev/capitalhub/internal/cli/guard"
	"github.com/capitalhub-dev/capitalhub/internal/cli/prompt"
	"github.com/capitalhub-dev/capitalhub/internal/cli/session"
	"github.com/capitalhub-dev/capitalhub/internal/logger"
)

// Output formats accepted by --output
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// App carries the dependencies every command shares. Anything not supplied
// through an Option is built from configuration in Init.
type App struct {
	cfg      *config.Config
	log      *zerolog.Logger
	store    *session.Store
	api      *client.Client
	auth     *auth.Context
	prompter prompt.Prompter
	registry *prometheus.Registry
	out      io.Writer
	format   string

	ready bool
}

// Option configures an App
type Option func(*App)

// WithConfig uses cfg instead of reading the environment
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.cfg = cfg
	}
}

// WithLogger uses log instead of initializing the global logger
func WithLogger(log zerolog.Logger) Option {
	return func(a *App) {
		a.log = &log
	}
}

// WithStore uses a prepared session store
func WithStore(store *session.Store) Option {
	return func(a *App) {
		a.store = store
	}
}

// WithClient uses a prepared API client
func WithClient(api *client.Client) Option {
	return func(a *App) {
		a.api = api
	}
}

// WithPrompter replaces the terminal prompts
func WithPrompter(p prompt.Prompter) Option {
	return func(a *App) {
		a.prompter = p
	}
}

// WithOutput redirects command output
func WithOutput(w io.Writer) Option {
	return func(a *App) {
		a.out = w
	}
}

// WithRegistry collects client metrics on reg
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *App) {
		a.registry = reg
	}
}

// NewApp creates an App. Nothing is loaded until Init.
func NewApp(opts ...Option) *App {
	a := &App{
		out:    os.Stdout,
		format: FormatTable,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BindFlags registers the flags shared by every command
func (a *App) BindFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&a.format, "output", "o", FormatTable, "Output format: table, json or yaml")
}

// Init builds the dependency graph and hydrates the session. Calling it
// again is a no-op.
func (a *App) Init() error {
	if a.ready {
		return nil
	}

	switch a.format {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("invalid output format %q, must be one of: table, json, yaml", a.format)
	}

	if a.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		a.cfg = cfg
	}

	if a.log == nil {
		log := logger.Init(a.cfg.Logging.Level, a.cfg.Logging.Format)
		a.log = &log
	}

	if a.store == nil {
		backend, err := newBackend(a.cfg.Session)
		if err != nil {
			return err
		}
		a.store = session.NewStore(backend, session.KeyFor(a.cfg.API.BaseURL), a.log.With().Str("component", "session").Logger())
	}

	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
	}

	if a.api == nil {
		a.api = client.New(a.cfg.API.BaseURL,
			client.WithTimeout(a.cfg.API.Timeout),
			client.WithCredentials(session.Chain(a.store, session.EnvCredential{})),
			client.WithMetrics(client.NewMetrics(a.registry)),
			client.WithLogger(a.log.With().Str("component", "client").Logger()),
		)
	}

	if a.prompter == nil {
		a.prompter = prompt.NewTerminal()
	}

	a.auth = auth.NewContext(a.store, a.api, auth.WithLogger(a.log.With().Str("component", "auth").Logger()))

	var policy client.Policy = client.LogPolicy(*a.log)
	if a.cfg.Session.LogoutOnDenied {
		policy = client.Policies(policy, a.auth.LogoutOnDenied())
	}
	a.api.SetPolicy(policy)

	snap := a.auth.Hydrate()
	a.log.Debug().Str("state", snap.State.String()).Str("email", snap.Identity.Email).Msg("Session hydrated")

	a.ready = true
	return nil
}

func newBackend(cfg config.SessionConfig) (session.Backend, error) {
	switch cfg.Store {
	case config.StoreFile:
		path, err := session.DefaultFilePath(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return session.NewFileBackend(path), nil
	case config.StoreMemory:
		return session.NewMemoryBackend(), nil
	default:
		return session.NewKeyringBackend(), nil
	}
}

// Require runs the route guard for a command group
func (a *App) Require(allowed []session.Role) error {
	if err := a.Init(); err != nil {
		return err
	}
	return guard.Require(a.auth.Snapshot(), allowed)
}

// LogMetrics writes the request counters gathered during the run at debug level
func (a *App) LogMetrics() {
	if a.registry == nil || a.log == nil {
		return
	}
	families, err := a.registry.Gather()
	if err != nil {
		a.log.Debug().Err(err).Msg("Failed to gather metrics")
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			ev := a.log.Debug().Str("metric", mf.GetName())
			for _, lp := range m.GetLabel() {
				ev = ev.Str(lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				ev = ev.Float64("value", m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				ev = ev.Uint64("count", m.GetHistogram().GetSampleCount()).
					Float64("sum_seconds", m.GetHistogram().GetSampleSum())
			}
			ev.Msg("Client metrics")
		}
	}
}

// load reads one resource through a fetcher bound to ctx
func load[T any](ctx context.Context, a *App, path string) (*T, error) {
	f := fetch.New[T](ctx, a.api, path, fetch.Options[T]{Immediate: true, Logger: a.log})
	defer f.Close()
	f.Wait()

	st := f.State()
	if st.Error != "" {
		return nil, errors.New(st.Error)
	}
	if st.Data == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New(fetch.GenericErrorMessage)
	}
	return st.Data, nil
}

// render writes v in the selected format. table draws the human readable
// version.
func (a *App) render(v any, table func(w io.Writer)) error {
	switch a.format {
	case FormatJSON:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		// Round trip through JSON so yaml keys match the API field names.
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return enc.Close()
	default:
		w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		table(w)
		return w.Flush()
	}
}

// printf writes a human message. Structured formats stay clean.
func (a *App) printf(format string, args ...any) {
	if a.format != FormatTable && a.format != "" {
		return
	}
	fmt.Fprintf(a.out, format, args...)
}

func header(w io.Writer, columns ...string) {
	fmt.Fprintln(w, strings.Join(columns, "\t"))
	rules := make([]string, len(columns))
	for i, c := range columns {
		rules[i] = strings.Repeat("─", len([]rune(c)))
	}
	fmt.Fprintln(w, strings.Join(rules, "\t"))
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
