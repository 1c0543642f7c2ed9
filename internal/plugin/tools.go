package plugin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/everstacklabs/chutes-plugin/internal/catalog"
)

const (
	noTokenList    = `[ERROR] No CHUTES_API_TOKEN configured. Please add "chutes": { "apiToken": "your-token" } to your OpenCode config to fetch models.`
	noTokenRefresh = `[ERROR] No CHUTES_API_TOKEN configured. Please add "chutes": { "apiToken": "your-token" } to your OpenCode config.`
)

var printer = message.NewPrinter(language.English)

// ErrNoToken is returned when a fetch is needed but no token is set.
var ErrNoToken = errors.New("no " + TokenEnv + " configured")

// ListArgs narrows the model listing. Empty fields match everything.
type ListArgs struct {
	Filter      string `json:"filter,omitempty"`
	OwnedBy     string `json:"owned_by,omitempty"`
	Feature     string `json:"feature,omitempty"`
	ShowPricing *bool  `json:"show_pricing,omitempty"`
}

// RefreshArgs controls a refresh.
type RefreshArgs struct {
	Force bool `json:"force,omitempty"`
}

// Select returns the visible models matching args, fetching first when the
// cache is empty or stale.
func (p *Plugin) Select(ctx context.Context, args ListArgs) ([]catalog.DisplayInfo, error) {
	if _, ok := p.fetcher.CachedModels(); !ok || p.fetcher.IsCacheStale() {
		if p.fetcher.APIToken() == "" {
			return nil, ErrNoToken
		}
		if _, _, err := p.refresh(ctx, false); err != nil {
			return nil, err
		}
	}

	models := p.visibleModels()

	if args.Filter != "" {
		filter := strings.ToLower(args.Filter)
		models = keep(models, func(d catalog.DisplayInfo) bool {
			return strings.Contains(strings.ToLower(d.DisplayName), filter)
		})
	}
	if args.OwnedBy != "" {
		owner := strings.ToLower(args.OwnedBy)
		models = keep(models, func(d catalog.DisplayInfo) bool {
			return strings.Contains(strings.ToLower(d.OwnedBy), owner)
		})
	}
	if feature := strings.TrimSpace(args.Feature); feature != "" {
		models = keep(models, func(d catalog.DisplayInfo) bool { return d.HasFeature(feature) })
	}
	return models, nil
}

func keep(in []catalog.DisplayInfo, pred func(catalog.DisplayInfo) bool) []catalog.DisplayInfo {
	var out []catalog.DisplayInfo
	for _, d := range in {
		if pred(d) {
			out = append(out, d)
		}
	}
	return out
}

// ListModels renders the available models as markdown. Failures are
// rendered as "[ERROR] ..." text rather than returned.
func (p *Plugin) ListModels(ctx context.Context, args ListArgs) string {
	models, err := p.Select(ctx, args)
	if errors.Is(err, ErrNoToken) {
		return noTokenList
	}
	if err != nil {
		return "[ERROR] Failed to list models: " + err.Error()
	}
	if len(models) == 0 {
		return "No models found matching the specified criteria."
	}

	showPricing := args.ShowPricing == nil || *args.ShowPricing

	var b strings.Builder
	fmt.Fprintf(&b, "# Available Chutes Models (%d)\n\n", len(models))

	for _, m := range models {
		if p.isDefault(m) {
			fmt.Fprintf(&b, "## %s (default)\n", m.DisplayName)
		} else {
			fmt.Fprintf(&b, "## %s\n", m.DisplayName)
		}
		fmt.Fprintf(&b, "- **ID**: `%s`\n", m.ID)
		fmt.Fprintf(&b, "- **Provider**: %s\n", m.OwnedBy)
		if m.Quantization != "" {
			fmt.Fprintf(&b, "- **Quantization**: %s\n", m.Quantization)
		}
		fmt.Fprintf(&b, "- **Context Length**: %s tokens\n", printer.Sprintf("%d", m.ContextLength))
		if showPricing {
			fmt.Fprintf(&b, "- **Pricing**: $%.2f/1M input, $%.2f/1M output\n",
				m.Pricing.PromptPer1M, m.Pricing.CompletionPer1M)
		}
		fmt.Fprintf(&b, "- **Features**: %s\n", strings.Join(m.Features, ", "))
		if m.SupportsConfidentialCompute {
			b.WriteString("- **Confidential Compute**: Yes\n")
		}
		b.WriteString("\n")
	}

	if age, ok := p.fetcher.CacheAge(); ok {
		fmt.Fprintf(&b, "---\n*Cache age: %ds ago*", seconds(age))
	}

	return b.String()
}

// RefreshModels refreshes the model list and describes what happened.
func (p *Plugin) RefreshModels(ctx context.Context, args RefreshArgs) string {
	if p.fetcher.APIToken() == "" {
		return noTokenRefresh
	}

	wasStale := p.fetcher.IsCacheStale()
	_, cs, err := p.refresh(ctx, args.Force)
	if err != nil {
		return "[ERROR] Failed to refresh models: " + err.Error()
	}
	size := p.fetcher.Registry().Size()

	var msg string
	switch {
	case args.Force && !wasStale:
		msg = fmt.Sprintf("Forced refresh completed. Found %d models.", size)
	case wasStale:
		msg = fmt.Sprintf("Cache was stale, refreshed. Found %d models.", size)
	default:
		remaining, _ := p.fetcher.CacheRemainingTTL()
		msg = fmt.Sprintf("Cache still valid (%ds remaining). Found %d models.", seconds(remaining), size)
	}

	if cs != nil && cs.HasChanges() && (args.Force || wasStale) {
		msg += fmt.Sprintf(" Changes since last fetch: %s.", cs.Summary())
	}

	return msg + "\n\nUse the chutes_list_models tool to see available models."
}

// Status describes the cache and token state as markdown.
func (p *Plugin) Status() string {
	var b strings.Builder
	b.WriteString("# Chutes Plugin Status\n\n")
	fmt.Fprintf(&b, "- **Models Cached**: %d\n", p.fetcher.Registry().Size())

	if p.fetcher.IsCacheValid() {
		age, _ := p.fetcher.CacheAge()
		remaining, _ := p.fetcher.CacheRemainingTTL()
		b.WriteString("- **Cache Valid**: Yes\n")
		fmt.Fprintf(&b, "- **Cache Age**: %ds\n", seconds(age))
		fmt.Fprintf(&b, "- **Remaining TTL**: %ds\n", seconds(remaining))
	} else {
		b.WriteString("- **Cache Valid**: No\n")
	}

	if p.cfg.DefaultModel != "" {
		fmt.Fprintf(&b, "- **Default Model**: `%s`\n", p.cfg.DefaultModel)
	}

	if p.fetcher.APIToken() == "" {
		b.WriteString("\n⚠️ **Warning**: No API token configured. Add \"chutes\": { \"apiToken\": \"your-token\" } to your config.\n")
	}

	return b.String()
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
