// Package install copies the plugin bundle into a host plugin directory.
package install

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// PluginFile is the bundle's file name inside a plugin directory.
const PluginFile = "chutes-plugin.js"

// ErrBundleNotFound is returned when the built bundle is missing.
var ErrBundleNotFound = errors.New("plugin bundle not found, build it first")

// Target is where the plugin gets installed.
type Target int

const (
	TargetProject Target = iota // ./.opencode/plugin
	TargetGlobal                // ~/.config/opencode/plugin
	TargetCancel
)

func (t Target) String() string {
	switch t {
	case TargetProject:
		return "project"
	case TargetGlobal:
		return "global"
	default:
		return "cancel"
	}
}

// ProjectDir is the project-level plugin directory under workDir.
func ProjectDir(workDir string) string {
	return filepath.Join(workDir, ".opencode", "plugin")
}

// GlobalDir is the user-level plugin directory under home.
func GlobalDir(home string) string {
	return filepath.Join(home, ".config", "opencode", "plugin")
}

// Options configures an installation.
type Options struct {
	Bundle  string    // path of the built bundle
	WorkDir string    // project directory
	HomeDir string    // user home directory
	In      io.Reader // answers to the target prompt
	Out     io.Writer // prompt output
	Fs      afero.Fs  // defaults to the OS filesystem
}

// Result describes a finished installation.
type Result struct {
	Target Target
	Path   string
}

// Run installs the bundle. When the project has an opencode.json the user
// is asked for a target; otherwise the project target is used. A cancelled
// prompt returns a Result with TargetCancel and no error.
func Run(opts Options) (*Result, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if ok, _ := afero.Exists(fs, opts.Bundle); !ok {
		return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, opts.Bundle)
	}

	target := TargetProject
	if ok, _ := afero.Exists(fs, filepath.Join(opts.WorkDir, "opencode.json")); ok {
		var err error
		target, err = ChooseTarget(opts.In, opts.Out)
		if err != nil {
			return nil, err
		}
	}

	var dir string
	switch target {
	case TargetProject:
		dir = ProjectDir(opts.WorkDir)
	case TargetGlobal:
		dir = GlobalDir(opts.HomeDir)
	default:
		return &Result{Target: TargetCancel}, nil
	}

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating plugin directory: %w", err)
	}

	data, err := afero.ReadFile(fs, opts.Bundle)
	if err != nil {
		return nil, fmt.Errorf("reading bundle: %w", err)
	}
	dest := filepath.Join(dir, PluginFile)
	if err := afero.WriteFile(fs, dest, data, 0o644); err != nil {
		return nil, fmt.Errorf("copying plugin: %w", err)
	}

	return &Result{Target: target, Path: dest}, nil
}

// ChooseTarget asks where to install. An empty answer or end of input
// selects the project target.
func ChooseTarget(in io.Reader, out io.Writer) (Target, error) {
	fmt.Fprintln(out, "Detected opencode.json in current directory.")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Where would you like to install the plugin?")
	fmt.Fprintln(out, "  [1] Project (./.opencode/plugin/)")
	fmt.Fprintln(out, "  [2] Global (~/.config/opencode/plugin/)")
	fmt.Fprintln(out, "  [c] Cancel")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Select option [1/2/c]: ")

	if in == nil {
		return TargetProject, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return TargetCancel, fmt.Errorf("reading answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "1":
		return TargetProject, nil
	case "2":
		return TargetGlobal, nil
	default:
		return TargetCancel, nil
	}
}

// Installed reports whether the plugin is present in the project
// directory and returns its path.
func Installed(fs afero.Fs, workDir string) (string, bool) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	path := filepath.Join(ProjectDir(workDir), PluginFile)
	ok, _ := afero.Exists(fs, path)
	return path, ok
}
