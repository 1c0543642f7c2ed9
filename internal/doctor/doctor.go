// Package doctor runs installation, credential and connectivity checks.
package doctor

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/everstacklabs/chutes-plugin/internal/config"
	"github.com/everstacklabs/chutes-plugin/internal/console"
	"github.com/everstacklabs/chutes-plugin/internal/fetcher"
	"github.com/everstacklabs/chutes-plugin/internal/install"
	"github.com/everstacklabs/chutes-plugin/internal/validate"
)

// Section groups checks in the rendered report.
type Section string

const (
	SectionInstall Section = "Installation Checks"
	SectionAPI     Section = "API Checks"
	SectionNetwork Section = "Network Checks"
)

// Check is the outcome of one diagnostic.
type Check struct {
	Section Section
	Name    string
	Passed  bool
	Detail  string
}

// Report collects every check in run order.
type Report struct {
	Checks     []Check
	ModelCount int
	Listing    *validate.Result
}

func (r *Report) add(section Section, name string, passed bool, detail string) {
	r.Checks = append(r.Checks, Check{Section: section, Name: name, Passed: passed, Detail: detail})
}

// Passed returns the number of passed checks.
func (r *Report) Passed() int {
	n := 0
	for _, c := range r.Checks {
		if c.Passed {
			n++
		}
	}
	return n
}

// Total returns the number of checks run.
func (r *Report) Total() int { return len(r.Checks) }

// OK reports whether every check passed.
func (r *Report) OK() bool { return r.Passed() == r.Total() }

// Options configures a doctor run.
type Options struct {
	WorkDir  string
	AuthPath string
	Fs       afero.Fs
	Fetcher  *fetcher.Fetcher
}

// Run executes all checks. Failures are recorded in the report, never
// returned.
func Run(ctx context.Context, opts Options) *Report {
	r := &Report{}

	path, ok := install.Installed(opts.Fs, opts.WorkDir)
	if ok {
		r.add(SectionInstall, "Plugin installed", true, "Location: "+path)
	} else {
		r.add(SectionInstall, "Plugin installed", false, "Run: chutes-plugin install")
	}

	hasAuth := config.HasChutesAuth(opts.AuthPath) || opts.Fetcher.APIToken() != ""
	authDetail := ""
	if !hasAuth {
		authDetail = "Run: opencode, then type: /connect chutes"
	}
	r.add(SectionAPI, "API token connected", hasAuth, authDetail)

	models, err := opts.Fetcher.RefreshModels(ctx, true)
	if err != nil {
		r.add(SectionNetwork, "Can reach Chutes API", false, err.Error())
		return r
	}
	r.ModelCount = len(models)
	r.add(SectionNetwork, "Can reach Chutes API", true, fmt.Sprintf("Found %d models available", len(models)))

	r.Listing = validate.ValidateListing(models)
	detail := fmt.Sprintf("%d warnings", len(r.Listing.Warnings()))
	if r.Listing.HasErrors() {
		detail = fmt.Sprintf("%d errors, %s", len(r.Listing.Errors()), detail)
	}
	r.add(SectionNetwork, "Model listing valid", !r.Listing.HasErrors(), detail)

	return r
}

// Render writes the report for a terminal.
func Render(w io.Writer, r *Report) {
	console.Title(w, "chutes-plugin doctor")
	fmt.Fprintln(w)

	var current Section
	for _, c := range r.Checks {
		if c.Section != current {
			if current != "" {
				fmt.Fprintln(w)
			}
			console.Section(w, "%s:", c.Section)
			current = c.Section
		}
		if c.Passed {
			console.Success(w, "%s", c.Name)
			if c.Detail != "" {
				console.Hint(w, "%s", c.Detail)
			}
		} else {
			console.Failure(w, "%s", c.Name)
			console.Hint(w, "%s", c.Detail)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Results: %d/%d checks passed\n", r.Passed(), r.Total())
	if r.OK() {
		console.Success(w, "Everything looks good! You're ready to use chutes-plugin.")
	} else {
		console.Warning(w, "Some checks failed. Please address the issues above.")
	}
}
