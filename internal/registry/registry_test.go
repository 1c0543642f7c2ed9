package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everstacklabs/chutes-plugin/internal/catalog"
)

func intPtr(n int) *int { return &n }

func mockModel(mutate ...func(*catalog.Model)) catalog.Model {
	m := catalog.Model{
		ID:                "Qwen/Qwen3-32B",
		Root:              "Qwen/Qwen3-32B",
		Pricing:           catalog.Pricing{Prompt: 0.08, Completion: 0.24},
		Object:            "model",
		Created:           1767182873,
		ChuteID:           "0d7184a2-32a3-53e0-9607-058c37edaab5",
		OwnedBy:           "sglang",
		Quantization:      "bf16",
		MaxModelLen:       intPtr(40960),
		ContextLength:     intPtr(40960),
		InputModalities:   []string{"text"},
		MaxOutputLength:   intPtr(40960),
		OutputModalities:  []string{"text"},
		SupportedFeatures: []string{"json_mode", "tools", "structured_outputs", "reasoning"},
	}
	for _, fn := range mutate {
		fn(&m)
	}
	return m
}

func withID(id string) func(*catalog.Model) {
	return func(m *catalog.Model) { m.ID = id }
}

func withOwner(owner string) func(*catalog.Model) {
	return func(m *catalog.Model) { m.OwnedBy = owner }
}

func withFeatures(features ...string) func(*catalog.Model) {
	return func(m *catalog.Model) { m.SupportedFeatures = features }
}

func TestRegister(t *testing.T) {
	r := New()
	m := mockModel()

	r.Register(m)

	assert.Equal(t, 1, r.Size())
	got, ok := r.Get("Qwen/Qwen3-32B")
	require.True(t, ok)
	assert.Equal(t, m, got)
}

func TestRegisterAll(t *testing.T) {
	r := New()
	r.RegisterAll([]catalog.Model{
		mockModel(withID("Qwen/Qwen3-32B")),
		mockModel(withID("DeepSeek/DeepSeek-R1")),
		mockModel(withID("Mistral/Mistral-Small")),
	})

	assert.Equal(t, 3, r.Size())
	assert.Len(t, r.AllDisplayInfo(), 3)
}

func TestRegisterLastWriteWins(t *testing.T) {
	r := New()
	r.Register(mockModel(withOwner("sglang")))
	r.Register(mockModel(withOwner("vllm")))

	assert.Equal(t, 1, r.Size())
	got, ok := r.Get("Qwen/Qwen3-32B")
	require.True(t, ok)
	assert.Equal(t, "vllm", got.OwnedBy)

	info, ok := r.DisplayInfo("chutes/Qwen/Qwen3-32B")
	require.True(t, ok)
	assert.Equal(t, "vllm", info.OwnedBy)
	assert.Len(t, r.AllDisplayInfo(), 1)
}

func TestRegisterKeepsPosition(t *testing.T) {
	r := New()
	r.RegisterAll([]catalog.Model{
		mockModel(withID("A/A")),
		mockModel(withID("B/B")),
	})
	r.Register(mockModel(withID("A/A"), withOwner("vllm")))

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "A/A", all[0].ID)
	assert.Equal(t, "vllm", all[0].OwnedBy)
}

func TestUnregister(t *testing.T) {
	r := New()
	r.Register(mockModel())

	assert.True(t, r.Unregister("Qwen/Qwen3-32B"))
	assert.Equal(t, 0, r.Size())

	_, ok := r.Get("Qwen/Qwen3-32B")
	assert.False(t, ok)
	_, ok = r.DisplayInfo("chutes/Qwen/Qwen3-32B")
	assert.False(t, ok)
	assert.Empty(t, r.AllDisplayInfo())
}

func TestUnregisterUnknown(t *testing.T) {
	r := New()
	r.Register(mockModel())

	assert.False(t, r.Unregister("NonExistent/Model"))
	assert.Equal(t, 1, r.Size())
}

func TestDisplayIDConversion(t *testing.T) {
	r := New()
	r.SetPrefix("chutes")

	assert.Equal(t, "chutes/Qwen/Qwen3-32B", r.DisplayID("Qwen/Qwen3-32B"))

	id, ok := r.OriginalID("chutes/Qwen/Qwen3-32B")
	require.True(t, ok)
	assert.Equal(t, "Qwen/Qwen3-32B", id)

	_, ok = r.OriginalID("NotChutes/Model")
	assert.False(t, ok)

	assert.True(t, r.IsChutesModel("chutes/Qwen/Qwen3-32B"))
	assert.False(t, r.IsChutesModel("Qwen/Qwen3-32B"))
}

func TestOriginalIDRoundTrip(t *testing.T) {
	prefixes := []string{"chutes", "c", "my-org/chutes", "x y"}
	ids := []string{"Qwen/Qwen3-32B", "gpt-oss-120b", "", "chutes/nested", "a/b/c/d"}

	for _, p := range prefixes {
		for _, id := range ids {
			t.Run(p+"|"+id, func(t *testing.T) {
				r := New(WithPrefix(p))
				got, ok := r.OriginalID(r.DisplayID(id))
				if !ok || got != id {
					t.Errorf("OriginalID(DisplayID(%q)) = %q, %v; want %q, true", id, got, ok, id)
				}
			})
		}
	}
}

func TestOriginalIDRequiresSeparator(t *testing.T) {
	tests := []struct {
		displayID string
		want      string
		ok        bool
	}{
		{"chutes/A", "A", true},
		{"chutes/", "", true},
		{"chutes", "", false},
		{"chutesA/B", "", false},
		{"Chutes/A", "", false},
		{"", "", false},
	}

	r := New()
	for _, tt := range tests {
		t.Run(tt.displayID, func(t *testing.T) {
			got, ok := r.OriginalID(tt.displayID)
			if got != tt.want || ok != tt.ok {
				t.Errorf("OriginalID(%q) = %q, %v; want %q, %v", tt.displayID, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestOriginalIDIgnoresRegistration(t *testing.T) {
	r := New()
	id, ok := r.OriginalID("chutes/Unregistered/Model")
	require.True(t, ok)
	assert.Equal(t, "Unregistered/Model", id)
}

func TestAllInsertionOrder(t *testing.T) {
	r := New()
	r.RegisterAll([]catalog.Model{
		mockModel(withID("C/C")),
		mockModel(withID("A/A")),
		mockModel(withID("B/B")),
	})

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"C/C", "A/A", "B/B"}, []string{all[0].ID, all[1].ID, all[2].ID})

	infos := r.AllDisplayInfo()
	require.Len(t, infos, 3)
	assert.Equal(t, "chutes/C/C", infos[0].ID)
	assert.Equal(t, "chutes/A/A", infos[1].ID)
	assert.Equal(t, "chutes/B/B", infos[2].ID)
}

func TestFilter(t *testing.T) {
	r := New()
	r.RegisterAll([]catalog.Model{
		mockModel(withID("A/A"), withOwner("sglang")),
		mockModel(withID("B/B"), withOwner("vllm")),
		mockModel(withID("C/C"), withOwner("sglang")),
	})

	got := r.Filter(func(m catalog.Model) bool { return m.OwnedBy == "sglang" })
	assert.Len(t, got, 2)

	assert.Len(t, r.FindByOwner("sglang"), 2)
	assert.Len(t, r.FindByOwner("vllm"), 1)
	assert.Empty(t, r.FindByOwner("tgi"))
}

func TestFindByFeature(t *testing.T) {
	r := New()
	r.RegisterAll([]catalog.Model{
		mockModel(withID("A/A"), withFeatures("json_mode")),
		mockModel(withID("B/B"), withFeatures("tools")),
		mockModel(withID("C/C"), withFeatures("json_mode", "tools")),
		mockModel(withID("D/D"), withFeatures()),
	})
	r.Register(mockModel(withID("E/E"), func(m *catalog.Model) { m.SupportedFeatures = nil }))

	got := r.FindByFeature("json_mode")
	require.Len(t, got, 2)
	assert.Equal(t, "A/A", got[0].ID)
	assert.Equal(t, "C/C", got[1].ID)

	assert.Len(t, r.FindByFeature("tools"), 2)
	assert.Empty(t, r.FindByFeature("reasoning"))
}

func TestMissingFeaturesDefaultToEmpty(t *testing.T) {
	r := New()
	r.RegisterAll([]catalog.Model{
		mockModel(withID("A/A"), withFeatures("json_mode")),
		mockModel(withID("B/B"), func(m *catalog.Model) { m.SupportedFeatures = nil }),
	})

	infos := r.AllDisplayInfo()
	require.Len(t, infos, 2)
	assert.Equal(t, []string{"json_mode"}, infos[0].Features)
	assert.NotNil(t, infos[1].Features)
	assert.Empty(t, infos[1].Features)
}

func TestClear(t *testing.T) {
	r := New()
	r.RegisterAll([]catalog.Model{mockModel(withID("A/A")), mockModel(withID("B/B"))})
	require.Equal(t, 2, r.Size())

	r.Clear()

	assert.Equal(t, 0, r.Size())
	assert.Empty(t, r.All())
	assert.Empty(t, r.AllDisplayInfo())
	_, ok := r.DisplayInfo("chutes/A/A")
	assert.False(t, ok)
}

func TestGetDisplayInfo(t *testing.T) {
	r := New()
	r.Register(mockModel())

	info, ok := r.DisplayInfo("chutes/Qwen/Qwen3-32B")
	require.True(t, ok)
	assert.Equal(t, "Qwen/Qwen3-32B", info.OriginalID)
	assert.Equal(t, "Qwen/Qwen3-32B", info.DisplayName)
	assert.Equal(t, "sglang", info.OwnedBy)
	assert.Equal(t, 0.08, info.Pricing.PromptPer1M)
	assert.Equal(t, 0.24, info.Pricing.CompletionPer1M)
	assert.Equal(t, "bf16", info.Quantization)

	_, ok = r.DisplayInfo("chutes/NonExistent/Model")
	assert.False(t, ok)
}

func TestContextLengthFallback(t *testing.T) {
	tests := []struct {
		name          string
		maxModelLen   *int
		contextLength *int
		want          int
	}{
		{"max_model_len wins", intPtr(40960), intPtr(8192), 40960},
		{"context_length fallback", nil, intPtr(8192), 8192},
		{"zero max_model_len falls through", intPtr(0), intPtr(8192), 8192},
		{"default", nil, nil, catalog.DefaultContextLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			info := r.ToDisplayInfo(mockModel(func(m *catalog.Model) {
				m.MaxModelLen = tt.maxModelLen
				m.ContextLength = tt.contextLength
			}))
			if info.ContextLength != tt.want {
				t.Errorf("ContextLength = %d, want %d", info.ContextLength, tt.want)
			}
		})
	}
}

func TestSetPrefixIsNotRetroactive(t *testing.T) {
	r := New()
	r.RegisterAll([]catalog.Model{mockModel(withID("A/A")), mockModel(withID("B/B"))})

	r.SetPrefix("other")

	// Conversions follow the new prefix immediately.
	assert.Equal(t, "other/A/A", r.DisplayID("A/A"))
	_, ok := r.OriginalID("chutes/A/A")
	assert.False(t, ok)

	// Stored display entries keep the old IDs.
	_, ok = r.DisplayInfo("chutes/A/A")
	assert.True(t, ok)
	_, ok = r.DisplayInfo("other/A/A")
	assert.False(t, ok)

	infos := r.AllDisplayInfo()
	require.Len(t, infos, 2)
	assert.Equal(t, "chutes/A/A", infos[0].ID)
}

func TestRebuildDisplayIndex(t *testing.T) {
	r := New()
	r.RegisterAll([]catalog.Model{mockModel(withID("A/A")), mockModel(withID("B/B"))})
	r.SetPrefix("other")

	r.RebuildDisplayIndex()

	_, ok := r.DisplayInfo("chutes/A/A")
	assert.False(t, ok)
	info, ok := r.DisplayInfo("other/A/A")
	require.True(t, ok)
	assert.Equal(t, "A/A", info.OriginalID)

	infos := r.AllDisplayInfo()
	require.Len(t, infos, 2)
	assert.Equal(t, "other/A/A", infos[0].ID)
	assert.Equal(t, "other/B/B", infos[1].ID)
	assert.Equal(t, r.Size(), len(infos))
}

func TestReRegisterAfterPrefixChange(t *testing.T) {
	r := New()
	r.Register(mockModel(withID("A/A")))
	r.SetPrefix("other")

	r.Register(mockModel(withID("A/A"), withOwner("vllm")))

	assert.Equal(t, 1, r.Size())
	assert.Len(t, r.AllDisplayInfo(), 1)
	_, ok := r.DisplayInfo("chutes/A/A")
	assert.False(t, ok)
	info, ok := r.DisplayInfo("other/A/A")
	require.True(t, ok)
	assert.Equal(t, "vllm", info.OwnedBy)

	// Unregister removes the entry stored under the new prefix.
	assert.True(t, r.Unregister("A/A"))
	assert.Empty(t, r.AllDisplayInfo())
}

func TestUnregisterAfterPrefixChange(t *testing.T) {
	r := New()
	r.Register(mockModel(withID("A/A")))
	r.SetPrefix("other")

	assert.True(t, r.Unregister("A/A"))
	_, ok := r.DisplayInfo("chutes/A/A")
	assert.False(t, ok)
	assert.Empty(t, r.AllDisplayInfo())
}

func TestRegisterDisplayCollisionAfterPrefixChange(t *testing.T) {
	r := New(WithPrefix("a"))
	r.Register(mockModel(withID("b/x")))
	r.SetPrefix("a/b")

	// "x" under "a/b" and "b/x" under "a" share the display ID "a/b/x".
	r.Register(mockModel(withID("x"), withOwner("vllm")))

	assert.Equal(t, 1, r.Size())
	assert.Len(t, r.AllDisplayInfo(), 1)
	_, ok := r.Get("b/x")
	assert.False(t, ok)
	info, ok := r.DisplayInfo("a/b/x")
	require.True(t, ok)
	assert.Equal(t, "x", info.OriginalID)
	assert.Equal(t, "vllm", info.OwnedBy)

	assert.False(t, r.Unregister("b/x"))
	_, ok = r.DisplayInfo("a/b/x")
	assert.True(t, ok)

	assert.True(t, r.Unregister("x"))
	assert.Equal(t, 0, r.Size())
	assert.Empty(t, r.AllDisplayInfo())
}

func TestReRegisterAfterPrefixChangeKeepsDisplayOrder(t *testing.T) {
	r := New()
	r.RegisterAll([]catalog.Model{mockModel(withID("A/A")), mockModel(withID("B/B"))})
	r.SetPrefix("other")

	r.Register(mockModel(withID("A/A")))

	all := r.All()
	infos := r.AllDisplayInfo()
	require.Len(t, infos, 2)
	for i := range all {
		assert.Equal(t, all[i].ID, infos[i].OriginalID)
	}
	assert.Equal(t, "other/A/A", infos[0].ID)
	assert.Equal(t, "chutes/B/B", infos[1].ID)
}
