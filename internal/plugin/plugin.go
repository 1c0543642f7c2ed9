// Package plugin adapts the model fetcher to a host application's plugin
// hooks: provider configuration and the list/refresh/status tools.
package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/everstacklabs/chutes-plugin/internal/catalog"
	"github.com/everstacklabs/chutes-plugin/internal/config"
	"github.com/everstacklabs/chutes-plugin/internal/diff"
	"github.com/everstacklabs/chutes-plugin/internal/fetcher"
)

const (
	ProviderID   = "chutes"
	ProviderName = "Chutes"
	TokenEnv     = "CHUTES_API_TOKEN"

	hostOutputLimit = 16384
	hostReleaseDate = "2024-01-01"
)

// Plugin owns a Fetcher and the configuration resolved from the host.
// Like the Fetcher, it has a single owner.
type Plugin struct {
	cfg      *config.Config
	fetcher  *fetcher.Fetcher
	authPath string
	known    []catalog.Model
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithFetcher replaces the Fetcher built from config.
func WithFetcher(f *fetcher.Fetcher) Option {
	return func(p *Plugin) { p.fetcher = f }
}

// WithAuthPath overrides the host auth file location.
func WithAuthPath(path string) Option {
	return func(p *Plugin) { p.authPath = path }
}

// New creates a Plugin.
func New(cfg *config.Config, opts ...Option) *Plugin {
	p := &Plugin{cfg: cfg, authPath: config.AuthPath()}
	for _, opt := range opts {
		opt(p)
	}
	if p.fetcher == nil {
		p.fetcher = fetcher.NewFromConfig(cfg)
	}
	if cfg.APIToken != "" && p.fetcher.APIToken() == "" {
		p.fetcher.SetAPIToken(cfg.APIToken)
	}
	return p
}

// Fetcher returns the underlying Fetcher.
func (p *Plugin) Fetcher() *fetcher.Fetcher { return p.fetcher }

// Config returns the resolved configuration.
func (p *Plugin) Config() *config.Config { return p.cfg }

// Configure applies the host's configuration and injects the provider
// block into it. The token is taken from chutes.apiToken, then from
// provider.chutes.options.apiKey, then from the host auth file, then from
// the plugin's own configuration.
//
// When auto-refresh is on the models are fetched and listed under
// provider.chutes.models; a failed fetch is logged and the block is left
// without models. Only an invalid chutes block is returned as an error.
func (p *Plugin) Configure(ctx context.Context, hostConfig map[string]any) error {
	var token string

	if block, ok := hostConfig["chutes"].(map[string]any); ok {
		hostCfg, err := config.FromHost(block)
		if err != nil {
			return fmt.Errorf("invalid chutes config: %w", err)
		}
		token = hostCfg.APIToken
		if _, set := block["autoRefresh"]; set {
			p.cfg.AutoRefresh = hostCfg.AutoRefresh
		}
		if hostCfg.DefaultModel != "" {
			p.cfg.DefaultModel = hostCfg.DefaultModel
		}
		if len(hostCfg.ModelFilter) > 0 {
			p.cfg.ModelFilter = hostCfg.ModelFilter
		}
	}

	providers, _ := hostConfig["provider"].(map[string]any)
	if token == "" {
		token = providerAPIKey(providers)
	}
	if token == "" {
		token = config.ChutesAPIKeyFromAuth(p.authPath)
	}
	if token == "" {
		token = p.cfg.APIToken
	}

	p.cfg.APIToken = token
	if token != "" {
		p.fetcher.SetAPIToken(token)
	}

	if providers == nil {
		providers = map[string]any{}
		hostConfig["provider"] = providers
	}

	options := map[string]any{"baseURL": p.fetcher.BaseURL()}
	if token != "" {
		options["apiKey"] = token
	}
	models := map[string]any{}
	providers[ProviderID] = map[string]any{
		"api":     p.fetcher.BaseURL(),
		"name":    ProviderName,
		"env":     []string{TokenEnv},
		"id":      ProviderID,
		"models":  models,
		"options": options,
	}

	if p.cfg.DefaultModel != "" {
		if _, set := hostConfig["model"]; !set {
			hostConfig["model"] = p.cfg.DefaultModel
		}
	}

	if !p.cfg.AutoRefresh {
		return nil
	}

	if _, _, err := p.refresh(ctx, false); err != nil {
		slog.Warn("model refresh failed during configure", "error", err)
		return nil
	}
	for _, d := range p.visibleModels() {
		hm := ToHostModel(d)
		models[hm.ID] = hm
	}
	return nil
}

func providerAPIKey(providers map[string]any) string {
	chutes, ok := providers[ProviderID].(map[string]any)
	if !ok {
		return ""
	}
	options, ok := chutes["options"].(map[string]any)
	if !ok {
		return ""
	}
	key, _ := options["apiKey"].(string)
	return key
}

// refresh fetches through the cache and reports how the listing changed
// since the previous fetch this plugin saw.
func (p *Plugin) refresh(ctx context.Context, force bool) ([]catalog.Model, *diff.ChangeSet, error) {
	models, err := p.fetcher.RefreshModels(ctx, force)
	if err != nil {
		return nil, nil, err
	}

	var cs *diff.ChangeSet
	if p.known != nil {
		cs = diff.Compute(p.known, models)
		if cs.HasChanges() {
			slog.Info("model listing changed", "summary", cs.Summary())
		}
		for _, u := range cs.Updated {
			slog.Debug("model updated", "model", u.ID, "changes", u.String())
		}
		for _, rp := range cs.PossibleRenames {
			slog.Debug("possible rename", "old", rp.OldID, "new", rp.NewID, "reason", rp.Reason)
		}
	}
	p.known = models
	return models, cs, nil
}

// visibleModels returns the registry's display entries narrowed by the
// configured model filter.
func (p *Plugin) visibleModels() []catalog.DisplayInfo {
	all := p.fetcher.Registry().AllDisplayInfo()
	if len(p.cfg.ModelFilter) == 0 {
		return all
	}

	var out []catalog.DisplayInfo
	for _, d := range all {
		name := strings.ToLower(d.DisplayName)
		for _, f := range p.cfg.ModelFilter {
			if strings.Contains(name, strings.ToLower(f)) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

func (p *Plugin) isDefault(d catalog.DisplayInfo) bool {
	return p.cfg.DefaultModel != "" && (d.ID == p.cfg.DefaultModel || d.OriginalID == p.cfg.DefaultModel)
}

// HostModel is a model entry in the host's provider configuration.
type HostModel struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Attachment  bool           `json:"attachment"`
	Reasoning   bool           `json:"reasoning"`
	Temperature bool           `json:"temperature"`
	ToolCall    bool           `json:"tool_call"`
	Cost        HostCost       `json:"cost"`
	Limit       HostLimit      `json:"limit"`
	Modalities  HostModalities `json:"modalities"`
	Options     map[string]any `json:"options"`
}

// HostCost is in USD per million tokens.
type HostCost struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

// HostLimit holds token limits.
type HostLimit struct {
	Context int `json:"context"`
	Output  int `json:"output"`
}

// HostModalities lists accepted and produced modalities.
type HostModalities struct {
	Input  []string `json:"input"`
	Output []string `json:"output"`
}

// ToHostModel converts display info to the host's model format, keyed by
// the native model ID.
func ToHostModel(d catalog.DisplayInfo) HostModel {
	return HostModel{
		ID:          d.OriginalID,
		Name:        d.DisplayName,
		ReleaseDate: hostReleaseDate,
		Attachment:  d.HasInputModality("image") || d.HasInputModality("file"),
		Reasoning:   d.HasFeature("reasoning"),
		Temperature: true,
		ToolCall:    d.HasFeature("tools"),
		Cost: HostCost{
			Input:  d.Pricing.PromptPer1M,
			Output: d.Pricing.CompletionPer1M,
		},
		Limit: HostLimit{
			Context: d.ContextLength,
			Output:  hostOutputLimit,
		},
		Modalities: HostModalities{
			Input:  nonNil(d.InputModalities),
			Output: nonNil(d.OutputModalities),
		},
		Options: map[string]any{},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
