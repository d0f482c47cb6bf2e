package app

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// fileConfig mirrors the TOML config file. Pointer fields distinguish
// "absent" from an explicit false/zero so layering stays additive.
type fileConfig struct {
	Backend     string `toml:"backend"`
	TZ          string `toml:"tz"`
	Profile     string `toml:"profile"`
	Width       int    `toml:"width"`
	Monday      *bool  `toml:"monday"`
	Weekend     *bool  `toml:"weekend"`
	Military    *bool  `toml:"military"`
	LineArt     string `toml:"lineart"`
	PastYears   *int   `toml:"past_years"`
	FutureYears *int   `toml:"future_years"`

	Colors  colorsConfig  `toml:"colors"`
	Outputs outputsConfig `toml:"outputs"`
	ICS     icsConfig     `toml:"ics"`
	SQLite  sqliteConfig  `toml:"sqlite"`

	Profiles map[string]fileConfig `toml:"profiles"`
}

type colorsConfig struct {
	Date      string `toml:"date"`
	NowMarker string `toml:"now_marker"`
	Border    string `toml:"border"`
	Title     string `toml:"title"`
}

type outputsConfig struct {
	Location    *bool `toml:"location"`
	End         *bool `toml:"end"`
	Alarms      *bool `toml:"alarms"`
	Description *bool `toml:"description"`
	FreeBusy    *bool `toml:"freebusy"`
	UID         *bool `toml:"uid"`
	Width       int   `toml:"width"`
}

type icsConfig struct {
	Path   string   `toml:"path"`
	Paths  []string `toml:"paths"`
	Backup *bool    `toml:"backup"`
}

type sqliteConfig struct {
	Path string `toml:"path"`
}

// resolveGlobalOptions layers, weakest first: defaults, user config,
// project config, explicit config file, environment, changed flags.
func resolveGlobalOptions(cmd *cobra.Command, defaults *globalOptions) (*globalOptions, error) {
	resolved := *defaults

	profile := firstNonEmpty(env("ECAL_PROFILE"), defaults.Profile)
	if flagValueChanged(cmd, "profile") {
		profile = defaults.Profile
	}
	if profile == "" {
		profile = "default"
	}
	resolved.Profile = profile

	userPath := defaultUserConfigPath()
	projectPath := ".ecal.toml"
	configPath := firstNonEmpty(env("ECAL_CONFIG"), userPath)
	if flagValueChanged(cmd, "config") {
		configPath = defaults.Config
	}

	if cfg, ok := readConfigFile(userPath); ok {
		applyFileConfig(&resolved, cfg, profile)
	}
	if cfg, ok := readConfigFile(projectPath); ok {
		applyFileConfig(&resolved, cfg, profile)
	}
	if configPath != "" && configPath != userPath && configPath != projectPath {
		if cfg, ok := readConfigFile(configPath); ok {
			applyFileConfig(&resolved, cfg, profile)
		}
	}

	applyEnv(&resolved)
	applyFlags(cmd, &resolved, defaults)

	if resolved.Config == "" {
		resolved.Config = configPath
	}
	return &resolved, nil
}

func applyFileConfig(dst *globalOptions, cfg fileConfig, profile string) {
	if p, ok := cfg.Profiles[profile]; ok {
		cfg = mergeFileConfig(cfg, p)
	}
	if cfg.Backend != "" {
		dst.Backend = cfg.Backend
	}
	if cfg.TZ != "" {
		dst.TZ = cfg.TZ
	}
	if cfg.Width > 0 {
		dst.Width = cfg.Width
	}
	if cfg.Monday != nil {
		dst.Monday = *cfg.Monday
	}
	if cfg.Weekend != nil {
		dst.NoWeekend = !*cfg.Weekend
	}
	if cfg.Military != nil {
		dst.Military = *cfg.Military
	}
	if cfg.LineArt != "" {
		dst.LineArt = cfg.LineArt
	}
	if cfg.PastYears != nil {
		dst.PastYears = *cfg.PastYears
	}
	if cfg.FutureYears != nil {
		dst.FutureYears = *cfg.FutureYears
	}

	if cfg.Colors.Date != "" {
		dst.ColorDate = cfg.Colors.Date
	}
	if cfg.Colors.NowMarker != "" {
		dst.ColorNowMarker = cfg.Colors.NowMarker
	}
	if cfg.Colors.Border != "" {
		dst.ColorBorder = cfg.Colors.Border
	}
	if cfg.Colors.Title != "" {
		dst.ColorTitle = cfg.Colors.Title
	}

	if cfg.Outputs.Location != nil {
		dst.Outputs.Location = *cfg.Outputs.Location
	}
	if cfg.Outputs.End != nil {
		dst.Outputs.End = *cfg.Outputs.End
	}
	if cfg.Outputs.Alarms != nil {
		dst.Outputs.Alarms = *cfg.Outputs.Alarms
	}
	if cfg.Outputs.Description != nil {
		dst.Outputs.Description = *cfg.Outputs.Description
	}
	if cfg.Outputs.FreeBusy != nil {
		dst.Outputs.FreeBusy = *cfg.Outputs.FreeBusy
	}
	if cfg.Outputs.UID != nil {
		dst.Outputs.UID = *cfg.Outputs.UID
	}
	if cfg.Outputs.Width > 0 {
		dst.Outputs.Width = cfg.Outputs.Width
	}

	if len(cfg.ICS.Paths) > 0 {
		dst.ICSPaths = cfg.ICS.Paths
	} else if cfg.ICS.Path != "" {
		dst.ICSPaths = []string{cfg.ICS.Path}
	}
	if cfg.ICS.Backup != nil {
		dst.ICSBackup = *cfg.ICS.Backup
	}
	if cfg.SQLite.Path != "" {
		dst.SQLitePath = cfg.SQLite.Path
	}
}

func mergeFileConfig(base, overlay fileConfig) fileConfig {
	if overlay.Backend != "" {
		base.Backend = overlay.Backend
	}
	if overlay.TZ != "" {
		base.TZ = overlay.TZ
	}
	if overlay.Width > 0 {
		base.Width = overlay.Width
	}
	if overlay.Monday != nil {
		base.Monday = overlay.Monday
	}
	if overlay.Weekend != nil {
		base.Weekend = overlay.Weekend
	}
	if overlay.Military != nil {
		base.Military = overlay.Military
	}
	if overlay.LineArt != "" {
		base.LineArt = overlay.LineArt
	}
	if overlay.PastYears != nil {
		base.PastYears = overlay.PastYears
	}
	if overlay.FutureYears != nil {
		base.FutureYears = overlay.FutureYears
	}
	if overlay.Colors.Date != "" {
		base.Colors.Date = overlay.Colors.Date
	}
	if overlay.Colors.NowMarker != "" {
		base.Colors.NowMarker = overlay.Colors.NowMarker
	}
	if overlay.Colors.Border != "" {
		base.Colors.Border = overlay.Colors.Border
	}
	if overlay.Colors.Title != "" {
		base.Colors.Title = overlay.Colors.Title
	}
	if overlay.Outputs.Location != nil {
		base.Outputs.Location = overlay.Outputs.Location
	}
	if overlay.Outputs.End != nil {
		base.Outputs.End = overlay.Outputs.End
	}
	if overlay.Outputs.Alarms != nil {
		base.Outputs.Alarms = overlay.Outputs.Alarms
	}
	if overlay.Outputs.Description != nil {
		base.Outputs.Description = overlay.Outputs.Description
	}
	if overlay.Outputs.FreeBusy != nil {
		base.Outputs.FreeBusy = overlay.Outputs.FreeBusy
	}
	if overlay.Outputs.UID != nil {
		base.Outputs.UID = overlay.Outputs.UID
	}
	if overlay.Outputs.Width > 0 {
		base.Outputs.Width = overlay.Outputs.Width
	}
	if len(overlay.ICS.Paths) > 0 {
		base.ICS.Paths = overlay.ICS.Paths
	}
	if overlay.ICS.Path != "" {
		base.ICS.Path = overlay.ICS.Path
	}
	if overlay.ICS.Backup != nil {
		base.ICS.Backup = overlay.ICS.Backup
	}
	if overlay.SQLite.Path != "" {
		base.SQLite.Path = overlay.SQLite.Path
	}
	return base
}

func applyEnv(dst *globalOptions) {
	if v := env("ECAL_BACKEND"); v != "" {
		dst.Backend = v
	}
	if v := env("ECAL_TIMEZONE"); v != "" {
		dst.TZ = v
	}
	if v := env("ECAL_ICS_PATH"); v != "" {
		dst.ICSPaths = strings.Split(v, string(os.PathListSeparator))
	}
	if v := env("ECAL_DB_PATH"); v != "" {
		dst.SQLitePath = v
	}
	if v := env("ECAL_NO_COLOR"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			dst.NoColor = b
		}
	}
}

func applyFlags(cmd *cobra.Command, dst, fromFlags *globalOptions) {
	copyIfChanged(cmd, "config", func() { dst.Config = fromFlags.Config })
	copyIfChanged(cmd, "profile", func() { dst.Profile = fromFlags.Profile })
	copyIfChanged(cmd, "backend", func() { dst.Backend = fromFlags.Backend })
	copyIfChanged(cmd, "tz", func() { dst.TZ = fromFlags.TZ })
	copyIfChanged(cmd, "ics", func() { dst.ICSPaths = fromFlags.ICSPaths })
	copyIfChanged(cmd, "db", func() { dst.SQLitePath = fromFlags.SQLitePath })
	copyIfChanged(cmd, "nocolor", func() { dst.NoColor = fromFlags.NoColor })
	copyIfChanged(cmd, "lineart", func() { dst.LineArt = fromFlags.LineArt })
	copyIfChanged(cmd, "monday", func() { dst.Monday = fromFlags.Monday })
	copyIfChanged(cmd, "noweekend", func() { dst.NoWeekend = fromFlags.NoWeekend })
	copyIfChanged(cmd, "nostarted", func() { dst.NoStarted = fromFlags.NoStarted })
	copyIfChanged(cmd, "nodeclined", func() { dst.NoDeclined = fromFlags.NoDeclined })
	copyIfChanged(cmd, "width", func() { dst.Width = fromFlags.Width })
	copyIfChanged(cmd, "military", func() { dst.Military = fromFlags.Military })
	copyIfChanged(cmd, "details", func() { dst.Details = fromFlags.Details })
	copyIfChanged(cmd, "color-date", func() { dst.ColorDate = fromFlags.ColorDate })
	copyIfChanged(cmd, "color-now-marker", func() { dst.ColorNowMarker = fromFlags.ColorNowMarker })
	copyIfChanged(cmd, "color-border", func() { dst.ColorBorder = fromFlags.ColorBorder })
	copyIfChanged(cmd, "color-title", func() { dst.ColorTitle = fromFlags.ColorTitle })
}

func copyIfChanged(cmd *cobra.Command, name string, fn func()) {
	if flagValueChanged(cmd, name) {
		fn()
	}
}

func flagValueChanged(cmd *cobra.Command, name string) bool {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := cmd.InheritedFlags().Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

func readConfigFile(path string) (fileConfig, bool) {
	if strings.TrimSpace(path) == "" {
		return fileConfig{}, false
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, false
	}
	var cfg fileConfig
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return fileConfig{}, false
	}
	return cfg, true
}

func defaultUserConfigPath() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "ecal", "config.toml")
	}
	home := strings.TrimSpace(os.Getenv("HOME"))
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "ecal", "config.toml")
}

func env(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
