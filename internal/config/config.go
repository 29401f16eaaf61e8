package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"issueboard/internal/debug"
	appErrors "issueboard/internal/errors"
)

const (
	KeyPollIntervalSeconds = "poll-interval-seconds"
	KeyPollInterval        = "poll-interval" // Duration form, e.g. "15s". Deprecated: use KeyPollIntervalSeconds.
	KeyNoPoll              = "no-poll"       // Deprecated: use KeyPollIntervalSeconds: 0.
	KeyRankBias            = "rank-bias"
	KeyCommitDelay         = "commit-delay"

	KeySynthEnabled  = "synth.enabled"
	KeySynthInterval = "synth.interval"
	KeySynthChance   = "synth.chance"

	KeyRemoteMode      = "remote.mode"
	KeyDatabasePath    = "database.path"
	KeyMockLatency     = "mock.latency"
	KeyMockFailureRate = "mock.failure-rate"

	KeyRecentPath       = "recent.path"
	KeyTelemetryEnabled = "telemetry.enabled"
	KeyUserRole         = "user.role"
)

const (
	// DefaultPollIntervalSeconds is the poll period used when nothing is configured.
	DefaultPollIntervalSeconds = 10
	MinPollIntervalSeconds     = 1
	MaxPollIntervalSeconds     = 100

	RemoteModeMock   = "mock"
	RemoteModeSQLite = "sqlite"

	RoleAdmin  = "admin"
	RoleViewer = "viewer"

	// DirName holds both the user and the project config.
	DirName = ".issueboard"

	envPrefix = "IB"
)

type initSettings struct {
	workingDir        string
	projectConfigPath string
	userConfigPath    string
}

// Option configures Initialize behaviour. Useful for tests to override paths.
type Option func(*initSettings)

// WithWorkingDir overrides the directory used for project config discovery.
func WithWorkingDir(dir string) Option {
	return func(cfg *initSettings) {
		cfg.workingDir = dir
	}
}

// WithProjectConfig explicitly sets the project config path instead of discovery.
func WithProjectConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.projectConfigPath = path
	}
}

// WithUserConfig overrides the default user config path.
func WithUserConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.userConfigPath = path
	}
}

var (
	configOnce sync.Once
	configMu   sync.RWMutex
	configInst *viper.Viper
	initErr    error

	// Paths resolved by the last Initialize, used when persisting settings.
	resolvedProjectPath string
	resolvedUserPath    string
)

// Initialize loads configuration using the precedence:
// defaults < user config < project config < environment variables < overrides.
func Initialize(opts ...Option) error {
	configOnce.Do(func() {
		settings := initSettings{}
		for _, opt := range opts {
			opt(&settings)
		}
		initErr = configure(&settings)
	})
	return initErr
}

// ApplyOverrides injects values typically coming from CLI flags.
func ApplyOverrides(overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	if err := Initialize(); err != nil {
		return err
	}
	configMu.Lock()
	defer configMu.Unlock()
	if configInst == nil {
		return fmt.Errorf("configuration not initialized")
	}
	if err := validateOverrides(overrides); err != nil {
		return err
	}
	for k, v := range overrides {
		configInst.Set(k, v)
	}
	return nil
}

// validateOverrides rejects the whole batch when any entry is out of range,
// so a bad flag never leaves half the overrides applied.
func validateOverrides(overrides map[string]any) error {
	raw, ok := overrides[KeyPollIntervalSeconds]
	if !ok {
		return nil
	}
	seconds, err := cast.ToIntE(raw)
	if err != nil {
		return appErrors.Validation(fmt.Sprintf("poll interval must be a whole number of seconds, got %v", raw))
	}
	if seconds <= 0 {
		return nil
	}
	return ValidatePollInterval(seconds)
}

// GetString fetches a string configuration value, initializing on demand.
func GetString(key string) string {
	v, err := getViper()
	if err != nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool fetches a bool configuration value, initializing on demand.
func GetBool(key string) bool {
	v, err := getViper()
	if err != nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt fetches an integer configuration value, initializing on demand.
func GetInt(key string) int {
	v, err := getViper()
	if err != nil {
		return 0
	}
	return v.GetInt(key)
}

// GetFloat64 fetches a float configuration value, initializing on demand.
func GetFloat64(key string) float64 {
	v, err := getViper()
	if err != nil {
		return 0
	}
	return v.GetFloat64(key)
}

// GetDuration fetches a duration configuration value, initializing on demand.
func GetDuration(key string) time.Duration {
	v, err := getViper()
	if err != nil {
		return 0
	}
	return v.GetDuration(key)
}

// Set updates a configuration key at runtime, initializing on demand.
func Set(key string, value any) error {
	if err := Initialize(); err != nil {
		return err
	}
	configMu.Lock()
	defer configMu.Unlock()
	if configInst == nil {
		return fmt.Errorf("configuration not initialized")
	}
	configInst.Set(key, value)
	return nil
}

// Keys lists every known key in sorted order.
func Keys() []string {
	v, err := getViper()
	if err != nil {
		return nil
	}
	keys := v.AllKeys()
	sort.Strings(keys)
	return keys
}

// IsAdmin reports whether the configured role may use admin actions.
func IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(GetString(KeyUserRole)), RoleAdmin)
}

// ValidatePollInterval accepts 1..100 seconds.
func ValidatePollInterval(seconds int) error {
	if seconds < MinPollIntervalSeconds || seconds > MaxPollIntervalSeconds {
		return appErrors.Validation(fmt.Sprintf("poll interval must be between %d and %d seconds, got %d",
			MinPollIntervalSeconds, MaxPollIntervalSeconds, seconds))
	}
	return nil
}

// SetPollInterval validates seconds and makes it the active poll interval.
// Rejected values leave the current setting untouched.
func SetPollInterval(seconds int) error {
	if err := ValidatePollInterval(seconds); err != nil {
		return err
	}
	return Set(KeyPollIntervalSeconds, seconds)
}

func configure(settings *initSettings) error {
	workingDir := strings.TrimSpace(settings.workingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		workingDir = wd
	}

	userConfigPath := strings.TrimSpace(settings.userConfigPath)
	if userConfigPath == "" {
		path, err := defaultUserConfigPath()
		if err != nil {
			return err
		}
		userConfigPath = path
	}

	projectConfigPath := strings.TrimSpace(settings.projectConfigPath)
	if projectConfigPath == "" {
		path, err := findProjectConfig(workingDir)
		if err != nil {
			return err
		}
		projectConfigPath = path
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, filepath.Dir(userConfigPath))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := mergeConfigFile(v, userConfigPath); err != nil {
		return appErrors.New(appErrors.CodeConfigurationError, "load user config", err)
	}
	if err := mergeConfigFile(v, projectConfigPath); err != nil {
		return appErrors.New(appErrors.CodeConfigurationError, "load project config", err)
	}
	applyLegacyPollConfig(v)
	clampPollInterval(v)

	configMu.Lock()
	defer configMu.Unlock()
	configInst = v
	resolvedUserPath = userConfigPath
	resolvedProjectPath = projectConfigPath
	return nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	//nolint:gosec // G304: Config loader intentionally reads user and project config files
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, DirName, "config.yaml"), nil
}

func findProjectConfig(startDir string) (string, error) {
	if strings.TrimSpace(startDir) == "" {
		return "", nil
	}
	dir := startDir
	for {
		candidate := filepath.Join(dir, DirName, "config.yaml")
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config path %s is a directory", candidate)
			}
			return candidate, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func setDefaults(v *viper.Viper, userDir string) {
	v.SetDefault(KeyPollIntervalSeconds, DefaultPollIntervalSeconds)
	v.SetDefault(KeyRankBias, 1)
	v.SetDefault(KeyCommitDelay, 5*time.Second)

	v.SetDefault(KeySynthEnabled, true)
	v.SetDefault(KeySynthInterval, 10*time.Second)
	v.SetDefault(KeySynthChance, 0.5)

	v.SetDefault(KeyRemoteMode, RemoteModeMock)
	v.SetDefault(KeyDatabasePath, filepath.Join(userDir, "issues.db"))
	v.SetDefault(KeyMockLatency, 500*time.Millisecond)
	v.SetDefault(KeyMockFailureRate, 0.1)

	v.SetDefault(KeyRecentPath, filepath.Join(userDir, "recent.json"))
	v.SetDefault(KeyTelemetryEnabled, false)
	v.SetDefault(KeyUserRole, RoleAdmin)
}

func getViper() (*viper.Viper, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	configMu.RLock()
	defer configMu.RUnlock()
	if configInst == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return configInst, nil
}

// reset clears package state for tests.
func reset() {
	configMu.Lock()
	defer configMu.Unlock()
	configInst = nil
	initErr = nil
	configOnce = sync.Once{}
	resolvedUserPath = ""
	resolvedProjectPath = ""
}

// ResetForTesting clears package state for tests in other packages and
// initializes against an empty temp directory. The returned func resets again.
func ResetForTesting(t interface{ TempDir() string }) func() {
	reset()
	tmp := t.TempDir()
	_ = Initialize(WithWorkingDir(tmp), WithUserConfig(filepath.Join(tmp, DirName, "config.yaml")))
	return reset
}

func applyLegacyPollConfig(v *viper.Viper) {
	if v == nil {
		return
	}
	if hasExplicitPollSeconds(v) {
		return
	}
	if v.IsSet(KeyNoPoll) && v.GetBool(KeyNoPoll) {
		v.Set(KeyPollIntervalSeconds, 0)
		return
	}
	if v.IsSet(KeyPollInterval) {
		v.Set(KeyPollIntervalSeconds, durationToSeconds(v.GetDuration(KeyPollInterval)))
	}
}

// clampPollInterval replaces an out-of-range interval from a file or the
// environment with the default. Zero and below still mean disabled.
func clampPollInterval(v *viper.Viper) {
	seconds := v.GetInt(KeyPollIntervalSeconds)
	if seconds <= 0 {
		return
	}
	if err := ValidatePollInterval(seconds); err != nil {
		debug.Logf("config: %v; using %ds", err, DefaultPollIntervalSeconds)
		v.Set(KeyPollIntervalSeconds, DefaultPollIntervalSeconds)
	}
}

func hasExplicitPollSeconds(v *viper.Viper) bool {
	if v.InConfig(KeyPollIntervalSeconds) {
		return true
	}
	_, ok := os.LookupEnv(envKey(KeyPollIntervalSeconds))
	return ok
}

func envKey(key string) string {
	replacer := strings.NewReplacer(".", "_", "-", "_")
	return strings.ToUpper(envPrefix) + "_" + strings.ToUpper(replacer.Replace(key))
}

func durationToSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	seconds := int(d / time.Second)
	if d%time.Second != 0 {
		seconds++
	}
	if seconds <= 0 {
		seconds = 1
	}
	return seconds
}

// SavePollInterval validates seconds and persists it to the project config
// if one exists, otherwise to the user config. The in-memory value changes
// only once the write succeeded.
func SavePollInterval(seconds int) error {
	if err := ValidatePollInterval(seconds); err != nil {
		return err
	}
	if err := saveKey(KeyPollIntervalSeconds, seconds); err != nil {
		return err
	}
	return Set(KeyPollIntervalSeconds, seconds)
}

// saveKey writes one key into the writable config file, preserving the
// other settings in it. The user config directory is created if needed;
// project config directories are never created.
func saveKey(key string, value any) error {
	targetPath, err := findWritableConfigPath()
	if err != nil {
		return fmt.Errorf("find config path: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(targetPath)

	// Read existing config (if any) to preserve other settings
	_ = v.ReadInConfig()

	v.Set(key, value)

	dir := filepath.Dir(targetPath)
	//nolint:gosec // G301: User config directory needs standard permissions
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := v.WriteConfigAs(targetPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// findWritableConfigPath returns the project config path if one was found,
// otherwise the user config path.
func findWritableConfigPath() (string, error) {
	configMu.RLock()
	project, user := resolvedProjectPath, resolvedUserPath
	configMu.RUnlock()

	if project != "" {
		return project, nil
	}
	if user != "" {
		return user, nil
	}
	return defaultUserConfigPath()
}
