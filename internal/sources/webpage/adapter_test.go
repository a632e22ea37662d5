package webpage

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// fakeTab is a scripted ScriptContext that records the calls made on it.
type fakeTab struct {
	mu       sync.Mutex
	calls    []string
	values   map[string]string
	options  map[string][]string
	cards    []extractedItem
	failWait map[string]error
	location string
}

var _ driven.ScriptContext = (*fakeTab)(nil)

func newFakeTab() *fakeTab {
	return &fakeTab{
		values:   make(map[string]string),
		options:  make(map[string][]string),
		failWait: make(map[string]error),
	}
}

var (
	selectorArg = regexp.MustCompile(`document\.querySelector\(("(?:[^"\\]|\\.)*")\)`)
	wantArg     = regexp.MustCompile(`const want = ("(?:[^"\\]|\\.)*")`)
)

func unquote(s string) string {
	var out string
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

func (f *fakeTab) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeTab) ID() string               { return "tab-1" }
func (f *fakeTab) Kind() domain.ContextKind { return domain.ContextBrowser }
func (f *fakeTab) Location() string         { return f.location }

func (f *fakeTab) Navigate(_ context.Context, locator string) error {
	f.record("navigate " + locator)
	f.location = locator
	return nil
}

func (f *fakeTab) WaitVisible(_ context.Context, selector string) error {
	f.record("wait " + selector)
	return f.failWait[selector]
}

func (f *fakeTab) SetValue(_ context.Context, selector, value string) error {
	f.record("set " + selector + "=" + value)
	f.values[selector] = value
	return nil
}

func (f *fakeTab) Click(_ context.Context, selector string) error {
	f.record("click " + selector)
	return nil
}

func (f *fakeTab) Evaluate(_ context.Context, script string, out any) error {
	var result any
	switch {
	case strings.Contains(script, "const want"):
		sel := unquote(selectorArg.FindStringSubmatch(script)[1])
		want := strings.ToUpper(unquote(wantArg.FindStringSubmatch(script)[1]))
		offered, found := f.options[sel]
		match := optionMatch{Found: found}
		for _, o := range offered {
			if strings.ToUpper(o) == want {
				match.Value = o
			}
		}
		result = match
	case strings.Contains(script, "dispatchEvent"):
		f.record("change " + unquote(selectorArg.FindStringSubmatch(script)[1]))
		result = true
	case strings.Contains(script, "const spec"):
		result = f.cards
	default:
		return errors.New("unexpected script")
	}

	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func testSource(opts map[string]string) domain.SourceDescriptor {
	options := map[string]string{
		OptLanding:        "https://motors.test/search",
		"select.make":     "#make",
		"select.model":    "#model",
		"input.price_max": "input[name=max]",
		OptSubmit:         "button.search",
		OptItem:           "article.result",
		OptOptionWait:     "0s",
	}
	for k, v := range opts {
		options[k] = v
	}
	return domain.SourceDescriptor{Name: "motors", Type: "webpage", Context: domain.ContextBrowser, Options: options}
}

func build(t *testing.T, source domain.SourceDescriptor) *Adapter {
	t.Helper()
	adapter, err := Build(source)
	require.NoError(t, err)
	return adapter.(*Adapter)
}

func TestAdapter_ApplyRefinements(t *testing.T) {
	adapter := build(t, testSource(nil))
	tab := newFakeTab()
	tab.options["#make"] = []string{"ford", "vauxhall"}
	tab.options["#model"] = []string{"focus", "fiesta"}

	assert.Equal(t, "https://motors.test/search", adapter.LandingPage())

	refinement, err := adapter.ApplyRefinements(context.Background(), tab, domain.SearchCriteria{
		Make:  "FORD",
		Model: "FOCUS",
		Price: domain.Range{Max: 9000},
	})
	require.NoError(t, err)
	assert.False(t, refinement.Skipped)

	assert.Equal(t, []string{
		"set #make=ford",
		"change #make",
		"set #model=focus",
		"change #model",
		"set input[name=max]=9000",
		"change input[name=max]",
		"click button.search",
	}, tab.calls)
}

func TestAdapter_ApplyRefinements_Skips(t *testing.T) {
	tests := []struct {
		name     string
		opts     map[string]string
		criteria domain.SearchCriteria
		reason   string
	}{
		{
			name:     "make not offered",
			criteria: domain.SearchCriteria{Make: "BMW"},
			reason:   "make BMW not offered by motors",
		},
		{
			name:     "model not offered",
			criteria: domain.SearchCriteria{Make: "FORD", Model: "PUMA"},
			reason:   "model PUMA not offered by motors",
		},
		{
			name:     "no model control",
			opts:     map[string]string{"select.model": ""},
			criteria: domain.SearchCriteria{Make: "FORD", Model: "FOCUS"},
			reason:   "motors cannot filter by model",
		},
		{
			name:     "strict without colour control",
			opts:     map[string]string{OptStrict: "true"},
			criteria: domain.SearchCriteria{Make: "FORD", Colour: "red"},
			reason:   "motors cannot filter by colour",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := build(t, testSource(tt.opts))
			tab := newFakeTab()
			tab.options["#make"] = []string{"FORD"}
			tab.options["#model"] = []string{"FOCUS"}

			refinement, err := adapter.ApplyRefinements(context.Background(), tab, tt.criteria)
			require.NoError(t, err)
			assert.True(t, refinement.Skipped)
			assert.Equal(t, tt.reason, refinement.Reason)
			assert.NotContains(t, tab.calls, "click button.search")
		})
	}
}

func TestAdapter_ApplyRefinements_NonStrictIgnoresUncontrolled(t *testing.T) {
	adapter := build(t, testSource(nil))
	tab := newFakeTab()
	tab.options["#make"] = []string{"FORD"}

	refinement, err := adapter.ApplyRefinements(context.Background(), tab,
		domain.SearchCriteria{Make: "FORD", Colour: "red"})
	require.NoError(t, err)
	assert.False(t, refinement.Skipped)
}

func TestAdapter_ApplyRefinements_MissingControl(t *testing.T) {
	adapter := build(t, testSource(nil))
	tab := newFakeTab()

	_, err := adapter.ApplyRefinements(context.Background(), tab, domain.SearchCriteria{Make: "FORD"})
	assert.ErrorIs(t, err, domain.ErrNavigation)
}

func TestAdapter_FindOptionWaitsForDependentDropdown(t *testing.T) {
	adapter := build(t, testSource(map[string]string{OptOptionWait: "2s"}))
	tab := newFakeTab()
	tab.options["#make"] = []string{"FORD"}

	go func() {
		time.Sleep(300 * time.Millisecond)
		tab.mu.Lock()
		defer tab.mu.Unlock()
		tab.options["#model"] = []string{"FOCUS"}
	}()

	value, err := adapter.findOption(context.Background(), &lockedTab{tab}, "#model", "focus")
	require.NoError(t, err)
	assert.Equal(t, "FOCUS", value)
}

// lockedTab serialises Evaluate so options can change concurrently.
type lockedTab struct{ *fakeTab }

func (l *lockedTab) Evaluate(ctx context.Context, script string, out any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fakeTab.Evaluate(ctx, script, out)
}

func TestAdapter_FindOptionHonoursContext(t *testing.T) {
	adapter := build(t, testSource(map[string]string{OptOptionWait: "1m"}))
	tab := newFakeTab()
	tab.options["#model"] = []string{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := adapter.findOption(ctx, tab, "#model", "focus")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAdapter_ExtractItems(t *testing.T) {
	adapter := build(t, testSource(map[string]string{"extra.fuel": "li.fuel"}))
	tab := newFakeTab()
	tab.cards = []extractedItem{
		{
			Fields: map[string]string{"url": "https://motors.test/ad/1", "title": "Ford Focus", "price": "£7,250"},
			Extra:  map[string]string{"fuel": "Diesel"},
		},
		{Fields: map[string]string{"url": "", "title": "sponsored"}},
		{
			Fields: map[string]string{"url": "https://motors.test/ad/2", "title": "Ford Focus ST"},
			Extra:  map[string]string{"fuel": ""},
		},
	}

	items, err := adapter.ExtractItems(context.Background(), tab)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "https://motors.test/ad/1", items[0].URL)
	assert.Equal(t, "£7,250", items[0].Price)
	assert.Equal(t, "motors", items[0].SourceName)
	assert.Equal(t, map[string]string{"fuel": "Diesel"}, items[0].Extra)
	assert.Nil(t, items[1].Extra)
	assert.Contains(t, tab.calls, "wait article.result")
}

func TestAdapter_ExtractItems_ResultsNeverAppear(t *testing.T) {
	adapter := build(t, testSource(map[string]string{OptResults: "#results"}))
	tab := newFakeTab()
	tab.failWait["#results"] = errors.New("timeout")

	_, err := adapter.ExtractItems(context.Background(), tab)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestAdapter_Authenticate(t *testing.T) {
	source := testSource(map[string]string{
		OptLoginURL:     "https://motors.test/login",
		OptLoginSuccess: ".account",
	})
	ctx := context.Background()
	creds := domain.Credentials{Username: "alice", Secret: "pw"}

	t.Run("public source", func(t *testing.T) {
		adapter := build(t, testSource(nil))
		assert.NoError(t, adapter.Authenticate(ctx, nil, domain.Credentials{}))
	})

	t.Run("missing credentials", func(t *testing.T) {
		adapter := build(t, source)
		assert.ErrorIs(t, adapter.Authenticate(ctx, newFakeTab(), domain.Credentials{}), domain.ErrAuth)
	})

	t.Run("fills the form", func(t *testing.T) {
		adapter := build(t, source)
		tab := newFakeTab()
		require.NoError(t, adapter.Authenticate(ctx, tab, creds))
		assert.Equal(t, []string{
			"navigate https://motors.test/login",
			"wait input[name=username]",
			"set input[name=username]=alice",
			"set input[type=password]=pw",
			"click button[type=submit]",
			"wait .account",
		}, tab.calls)
	})

	t.Run("sign-in not confirmed", func(t *testing.T) {
		adapter := build(t, source)
		tab := newFakeTab()
		tab.failWait[".account"] = errors.New("timeout")
		assert.ErrorIs(t, adapter.Authenticate(ctx, tab, creds), domain.ErrAuth)
	})
}

func TestAdapter_RejectsNonScriptContext(t *testing.T) {
	adapter := build(t, testSource(nil))
	_, err := adapter.ApplyRefinements(context.Background(), nil, domain.SearchCriteria{Make: "FORD"})
	assert.ErrorIs(t, err, ErrNotScriptContext)
	_, err = adapter.ExtractItems(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotScriptContext)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(testSource(map[string]string{
		"field.url":  "a.title@href",
		"field.year": ".specs .year",
	}))
	require.NoError(t, err)
	assert.Equal(t, Field{Selector: "a.title", Attr: "href"}, cfg.Fields["url"])
	assert.Equal(t, Field{Selector: ".specs .year"}, cfg.Fields["year"])
	assert.Equal(t, Field{Selector: "img", Attr: "src"}, cfg.Fields["image"])
	assert.Equal(t, "article.result", cfg.Results)
	assert.Equal(t, time.Duration(0), cfg.OptionWait)
	assert.Equal(t, []string{"make", "model"}, cfg.selectKeys())

	tests := []struct {
		name string
		opts map[string]string
	}{
		{"no landing", map[string]string{OptLanding: ""}},
		{"no item", map[string]string{OptItem: ""}},
		{"no make control", map[string]string{"select.make": ""}},
		{"bad strict", map[string]string{OptStrict: "maybe"}},
		{"bad wait", map[string]string{OptOptionWait: "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(testSource(tt.opts))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestExtractScriptEmbedsSpec(t *testing.T) {
	script, err := extractScript(extractSpec{
		Item:   `div[data-kind="ad"]`,
		Fields: map[string]Field{"url": {Selector: "a", Attr: "href"}},
	})
	require.NoError(t, err)
	assert.Contains(t, script, `"item":"div[data-kind=\"ad\"]"`)
	assert.Contains(t, script, `"url":{"sel":"a","attr":"href"}`)
}
