package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

const appName = "tstserve"

// PathResolver locates data, store and config directories relative to the
// running binary, the working directory and the user's config directory.
type PathResolver struct {
	executablePath string
	executableDir  string
	homeDir        string
	configDir      string
}

// NewPathResolver creates a new path resolver that determines the executable location
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	// symlinked installs should resolve to the real binary
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executablePath: execPath,
		executableDir:  filepath.Dir(execPath),
		homeDir:        homeDir,
		configDir:      userConfigDir(homeDir),
	}
	log.Debugf("PathResolver initialized: exec=%s, configDir=%s", execPath, pr.configDir)
	return pr, nil
}

// userConfigDir returns the appropriate config directory for the platform
func userConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, appName)
		}
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", appName)
	}
	return filepath.Join(homeDir, ".config", appName)
}

// GetDataDir resolves the directory holding dictionary sources.
// Candidates, in order:
//  1. userSpecifiedPath if absolute
//  2. relative to the executable
//  3. relative to the working directory
//  4. data/ next to the executable, its parent, or the config dir
//
// The executable-relative path is returned when no candidate holds dictionaries.
func (pr *PathResolver) GetDataDir(userSpecifiedPath string) string {
	candidates := pr.dataDirCandidates(userSpecifiedPath)
	for _, path := range candidates {
		if HasDictionaries(path) {
			log.Debugf("Found valid data directory: %s", path)
			return path
		}
		log.Debugf("Data directory candidate not valid: %s", path)
	}
	return filepath.Join(pr.executableDir, userSpecifiedPath)
}

func (pr *PathResolver) dataDirCandidates(userSpecifiedPath string) []string {
	var candidates []string
	if filepath.IsAbs(userSpecifiedPath) {
		candidates = append(candidates, userSpecifiedPath)
	} else {
		candidates = append(candidates, filepath.Join(pr.executableDir, userSpecifiedPath))
		if cwd, err := os.Getwd(); err == nil {
			candidates = append(candidates, filepath.Join(cwd, userSpecifiedPath))
		}
	}
	return append(candidates,
		filepath.Join(pr.executableDir, "data"),
		filepath.Join(filepath.Dir(pr.executableDir), "data"),
		filepath.Join(pr.configDir, "data"),
	)
}

// HasDictionaries reports whether dir contains chunk or text dictionaries.
func HasDictionaries(dir string) bool {
	if stat, err := os.Stat(dir); err != nil || !stat.IsDir() {
		return false
	}
	for _, pattern := range []string{"dict_*.bin", "*.txt"} {
		if matches, err := filepath.Glob(filepath.Join(dir, pattern)); err == nil && len(matches) > 0 {
			return true
		}
	}
	return false
}

// GetStoreDir resolves where the persisted trie lives. An empty path means
// the config directory; relative paths are taken from the working directory.
func (pr *PathResolver) GetStoreDir(userSpecifiedPath string) string {
	if userSpecifiedPath == "" {
		return pr.configDir
	}
	return GetAbsolutePath(userSpecifiedPath)
}

// GetConfigDir returns the config directory
func (pr *PathResolver) GetConfigDir() string {
	return pr.configDir
}

// GetRuntimeInfo returns debug information about the current runtime environment
func (pr *PathResolver) GetRuntimeInfo() map[string]string {
	cwd, _ := os.Getwd()
	info := map[string]string{
		"executable_path": pr.executablePath,
		"executable_dir":  pr.executableDir,
		"current_dir":     cwd,
		"home_dir":        pr.homeDir,
		"config_dir":      pr.configDir,
		"os":              runtime.GOOS,
		"arch":            runtime.GOARCH,
	}
	for _, envVar := range []string{"HOME", "XDG_CONFIG_HOME", "APPDATA"} {
		if value := os.Getenv(envVar); value != "" {
			info["env_"+strings.ToLower(envVar)] = value
		}
	}
	return info
}
