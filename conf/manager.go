package conf

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	// DefaultPrefix is the environment variable prefix when none is set.
	DefaultPrefix = "APP"

	// DefaultProfile is used when no profile is selected anywhere.
	DefaultProfile = "dev"

	// profileKey is the config path that may select the active profile.
	profileKey = "profile"
)

// Manager loads ordered configuration layers and deep-merges them into one
// Tree. Precedence is fixed, lowest to highest: built-in defaults, base
// file, profile-specific file, environment (dotenv files below real
// process variables). The merged tree is immutable; Reload builds a new
// tree and swaps it atomically, so readers never see a partial merge.
type Manager struct {
	mu sync.Mutex // serializes Load/Reload

	tree atomic.Pointer[Tree]

	prefix          string
	explicitProfile string
	profile         atomic.Pointer[string]
	defaults        map[string]any
	baseFile        string
	baseRequired    bool
	dotenvPaths     []string
	envEnabled      bool
	custom          []Source
	logger          *slog.Logger

	watchPaths []string // files feeding the current tree
}

// Option configures a Manager.
type Option func(*Manager)

// WithPrefix sets the environment variable prefix (default "APP"). The
// profile may be selected through <PREFIX>_PROFILE.
func WithPrefix(prefix string) Option {
	return func(m *Manager) { m.prefix = prefix }
}

// WithProfile pins the active profile, overriding the environment variable
// and the "profile" config path.
func WithProfile(profile string) Option {
	return func(m *Manager) { m.explicitProfile = profile }
}

// WithDefaults sets the built-in defaults layer, the lowest precedence.
func WithDefaults(values map[string]any) Option {
	return func(m *Manager) { m.defaults = values }
}

// WithFile sets the base configuration file. The profile file is derived
// from it: application.yaml becomes application-prod.yaml for the "prod"
// profile. The base file is optional unless WithRequiredFile is used.
func WithFile(path string) Option {
	return func(m *Manager) { m.baseFile = path }
}

// WithRequiredFile is WithFile but a missing base file fails the load.
func WithRequiredFile(path string) Option {
	return func(m *Manager) {
		m.baseFile = path
		m.baseRequired = true
	}
}

// WithDotenv adds .env files to the environment layer. They sit below the
// real process environment: a variable set in both places resolves to the
// process value.
func WithDotenv(paths ...string) Option {
	return func(m *Manager) { m.dotenvPaths = append(m.dotenvPaths, paths...) }
}

// WithoutEnv disables the process environment layer.
func WithoutEnv() Option {
	return func(m *Manager) { m.envEnabled = false }
}

// WithSources replaces the standard layer chain entirely. Sources merge
// left to right, later layers overriding earlier leaves.
func WithSources(sources ...Source) Option {
	return func(m *Manager) { m.custom = sources }
}

// WithLogger sets the logger; defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// New builds a Manager and performs the initial load.
func New(opts ...Option) (*Manager, error) {
	m := &Manager{
		prefix:     DefaultPrefix,
		envEnabled: true,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load merges all layers into a fresh tree and swaps it in. On failure the
// previously loaded tree, if any, remains readable.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tree, profile, watch, err := m.build()
	if err != nil {
		return err
	}

	m.tree.Store(tree)
	m.profile.Store(&profile)
	m.watchPaths = watch

	m.logger.Debug("configuration loaded",
		"profile", profile, "keys", len(tree.Keys()))
	return nil
}

// Reload re-reads every layer. Callers holding the previous Tree keep a
// consistent snapshot.
func (m *Manager) Reload() error {
	return m.Load()
}

func (m *Manager) build() (*Tree, string, []string, error) {
	if len(m.custom) > 0 {
		tree, err := m.fold(Empty(), m.custom)
		if err != nil {
			return nil, "", nil, err
		}
		return tree, m.resolveProfile(tree), nil, nil
	}

	base := Empty()
	if m.defaults != nil {
		base = Merge(base, FromMap(m.defaults))
	}

	var watch []string
	if m.baseFile != "" {
		var err error
		base, err = m.apply(base, YAMLFile(m.baseFile, m.baseRequired))
		if err != nil {
			return nil, "", nil, err
		}
		watch = append(watch, m.baseFile)
	}

	// The profile can come from the layers merged so far, so it resolves
	// after defaults+base and before the profile file is chosen.
	profile := m.resolveProfile(base)

	tree := base
	if m.baseFile != "" && profile != "" {
		profileFile := profileFilePath(m.baseFile, profile)
		var err error
		tree, err = m.apply(tree, YAMLFile(profileFile, false))
		if err != nil {
			return nil, "", nil, err
		}
		watch = append(watch, profileFile)
	}

	if len(m.dotenvPaths) > 0 {
		var err error
		tree, err = m.apply(tree, Dotenv(m.prefix, m.dotenvPaths...))
		if err != nil {
			return nil, "", nil, err
		}
		watch = append(watch, m.dotenvPaths...)
	}

	if m.envEnabled && m.prefix != "" {
		var err error
		tree, err = m.apply(tree, Env(m.prefix))
		if err != nil {
			return nil, "", nil, err
		}
	}

	return tree, profile, watch, nil
}

func (m *Manager) fold(tree *Tree, sources []Source) (*Tree, error) {
	for _, src := range sources {
		var err error
		tree, err = m.apply(tree, src)
		if err != nil {
			return nil, err
		}
	}
	return tree, nil
}

func (m *Manager) apply(tree *Tree, src Source) (*Tree, error) {
	layer, err := src.Load()
	if err != nil {
		return nil, err
	}
	if layer == nil {
		m.logger.Debug("config layer absent, skipped", "source", src.Name())
		return tree, nil
	}
	return Merge(tree, FromMap(layer)), nil
}

func (m *Manager) resolveProfile(tree *Tree) string {
	if m.explicitProfile != "" {
		return m.explicitProfile
	}
	if m.prefix != "" {
		if p := os.Getenv(strings.ToUpper(m.prefix) + "_PROFILE"); p != "" {
			return p
		}
	}
	if p, err := tree.GetString(profileKey); err == nil && p != "" {
		return p
	}
	return DefaultProfile
}

// profileFilePath derives application-prod.yaml from application.yaml.
func profileFilePath(base, profile string) string {
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-" + profile + ext
}

// Tree returns the current merged configuration tree, never nil.
func (m *Manager) Tree() *Tree {
	if t := m.tree.Load(); t != nil {
		return t
	}
	return Empty()
}

// Profile returns the active profile name.
func (m *Manager) Profile() string {
	if p := m.profile.Load(); p != nil {
		return *p
	}
	return DefaultProfile
}

// Prefix returns the environment variable prefix.
func (m *Manager) Prefix() string {
	return m.prefix
}

// Has reports whether the path resolves in the current tree.
func (m *Manager) Has(path string) bool {
	return m.Tree().Has(path)
}

// Keys returns every addressable dot-path in the current tree.
func (m *Manager) Keys() []string {
	return m.Tree().Keys()
}

// KeysWithPrefix returns the addressable paths beginning with prefix.
func (m *Manager) KeysWithPrefix(prefix string) []string {
	return m.Tree().KeysWithPrefix(prefix)
}

// GetString reads a string at path from the current tree.
func (m *Manager) GetString(path string) (string, error) {
	return m.Tree().GetString(path)
}

// GetInt reads an integer at path from the current tree.
func (m *Manager) GetInt(path string) (int64, error) {
	return m.Tree().GetInt(path)
}

// GetBool reads a boolean at path from the current tree.
func (m *Manager) GetBool(path string) (bool, error) {
	return m.Tree().GetBool(path)
}

// GetFloat reads a float at path from the current tree.
func (m *Manager) GetFloat(path string) (float64, error) {
	return m.Tree().GetFloat(path)
}
