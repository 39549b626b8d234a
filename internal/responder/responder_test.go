package responder

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/saferstep/internal/model"
)

type fixedRandom struct {
	mu   sync.Mutex
	vals []int
	next int
}

func (f *fixedRandom) IntN(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.vals[f.next%len(f.vals)]
	f.next++
	return v % n
}

type recordingScheduler struct {
	mu    sync.Mutex
	funcs []func()
}

func (s *recordingScheduler) Schedule(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funcs = append(s.funcs, fn)
}

func (s *recordingScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.funcs)
}

type stubGenerator struct {
	text  string
	err   error
	calls int
}

func (g *stubGenerator) Generate(_ context.Context, _ string) (string, error) {
	g.calls++
	return g.text, g.err
}

var scorePattern = regexp.MustCompile(`(\d+)/100`)

func extractScore(t *testing.T, text string) int {
	t.Helper()
	m := scorePattern.FindStringSubmatch(text)
	require.Len(t, m, 2, "no score in %q", text)
	score, err := strconv.Atoi(m[1])
	require.NoError(t, err)
	return score
}

func TestClassify(t *testing.T) {
	tests := []struct {
		utterance string
		want      model.Intent
	}{
		{"SOS", model.IntentEmergency},
		{"This is an EMERGENCY", model.IntentEmergency},
		{"please help me", model.IntentEmergency},
		{"Trigger SOS and alert my contacts", model.IntentEmergency},
		{"What's the safety score of my current location?", model.IntentSafetyScore},
		{"give me the score of this street", model.IntentSafetyScore},
		{"what is the safety at my location", model.IntentSafetyScore},
		{"Is there a safer path?", model.IntentSaferPath},
		{"I want to avoid the dark alley", model.IntentSaferPath},
		{"any harassment nearby?", model.IntentAreaReports},
		{"show reports for my area", model.IntentAreaReports},
		{"Is this area safe right now?", model.IntentAreaSafety},
		{"is it safe here", model.IntentAreaSafety},
		{"Is this area safe? What's the safety score?", model.IntentSafetyScore},
		{"Show me the safest way home", model.IntentRouteQuery},
		{"start navigation", model.IntentRouteQuery},
		{"Where am I?", model.IntentLocationQuery},
		{"current position please", model.IntentLocationQuery},
		{"any tips for tonight", model.IntentTips},
		{"how to stay alert", model.IntentTips},
		{"Hello", model.IntentGreeting},
		{"hey", model.IntentGreeting},
		{"42", model.IntentFallback},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.utterance))
		})
	}
}

func TestRespond_EmergencyTriggersOneCallback(t *testing.T) {
	for _, utterance := range []string{"sos", "EMERGENCY!", "Help me please", "trigger emergency now"} {
		t.Run(utterance, func(t *testing.T) {
			sched := &recordingScheduler{}
			r := New(Options{Scheduler: sched})

			fired := 0
			resp, err := r.Respond(context.Background(), utterance, Context{OnEmergency: func() { fired++ }})
			require.NoError(t, err)

			assert.Equal(t, model.CategoryEmergency, resp.Category)
			assert.Equal(t, model.IntentEmergency, resp.Intent)
			require.Equal(t, 1, sched.count())
			assert.Zero(t, fired, "callback must not run synchronously")

			sched.funcs[0]()
			assert.Equal(t, 1, fired)
		})
	}
}

func TestRespond_SafetyScoreRangeAndTier(t *testing.T) {
	r := New(Options{})
	for i := 0; i < 300; i++ {
		resp, err := r.Respond(context.Background(), "What's the safety score of my current location?", Context{})
		require.NoError(t, err)

		score := extractScore(t, resp.Content)
		require.GreaterOrEqual(t, score, 70)
		require.LessOrEqual(t, score, 100)
		assert.Contains(t, resp.Content, "Rated "+Tier(score))
		assert.Equal(t, model.CategoryLocation, resp.Category)
	}
}

func TestTierThresholds(t *testing.T) {
	tests := []struct {
		draw int
		want string
	}{
		{0, TierModerate},   // 70
		{5, TierModerate},   // 75
		{6, TierGood},       // 76
		{15, TierGood},      // 85
		{16, TierExcellent}, // 86
		{30, TierExcellent}, // 100
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("score-%d", 70+tt.draw), func(t *testing.T) {
			r := New(Options{Random: &fixedRandom{vals: []int{tt.draw}}})
			resp, err := r.Respond(context.Background(), "safety score please", Context{})
			require.NoError(t, err)
			assert.Equal(t, 70+tt.draw, extractScore(t, resp.Content))
			assert.Contains(t, resp.Content, "Rated "+tt.want)
		})
	}
}

func TestRespond_AreaSafetyUsesOwnWording(t *testing.T) {
	r := New(Options{Random: &fixedRandom{vals: []int{20}}})

	area, err := r.Respond(context.Background(), "Is this area safe right now?", Context{})
	require.NoError(t, err)
	score, err := r.Respond(context.Background(), "What's the safety score of my current location?", Context{})
	require.NoError(t, err)

	assert.Equal(t, model.IntentAreaSafety, area.Intent)
	assert.Equal(t, model.IntentSafetyScore, score.Intent)
	assert.NotEqual(t, area.Content, score.Content)
	assert.Equal(t, 90, extractScore(t, area.Content))
	assert.Equal(t, 90, extractScore(t, score.Content))
}

func TestRespond_AreaReports(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		r := New(Options{Random: &fixedRandom{vals: []int{0}}})
		resp, err := r.Respond(context.Background(), "any harassment around?", Context{})
		require.NoError(t, err)
		assert.Equal(t, noReportsText, resp.Content)
	})

	t.Run("some", func(t *testing.T) {
		r := New(Options{Random: &fixedRandom{vals: []int{3, 3}}})
		resp, err := r.Respond(context.Background(), "any harassment around?", Context{})
		require.NoError(t, err)
		assert.Contains(t, resp.Content, "3 community reports")
		assert.Contains(t, resp.Content, "4 days ago")
	})

	t.Run("single", func(t *testing.T) {
		r := New(Options{Random: &fixedRandom{vals: []int{1, 0}}})
		resp, err := r.Respond(context.Background(), "harassment reports", Context{})
		require.NoError(t, err)
		assert.Contains(t, resp.Content, "There is 1 community report of")
		assert.Contains(t, resp.Content, "1 day ago")
	})
}

func TestRespond_GreetingHasNoSideEffects(t *testing.T) {
	sched := &recordingScheduler{}
	gen := &stubGenerator{text: "remote"}
	r := New(Options{Scheduler: sched, Generator: gen})

	resp, err := r.Respond(context.Background(), "Hello", Context{OnEmergency: func() { t.Fatal("unexpected emergency") }})
	require.NoError(t, err)

	assert.Equal(t, model.IntentGreeting, resp.Intent)
	assert.Equal(t, model.CategoryNormal, resp.Category)
	assert.Zero(t, sched.count())
	assert.Zero(t, gen.calls, "generator must not be called when delegation is off")
}

func TestRespond_EmptyInputRejected(t *testing.T) {
	r := New(Options{})
	for _, utterance := range []string{"", "   ", "\t\n"} {
		_, err := r.Respond(context.Background(), utterance, Context{})
		assert.ErrorIs(t, err, model.ErrEmptyInput)
	}
}

func TestRespond_RuleSelectionIsDeterministic(t *testing.T) {
	r := New(Options{})
	utterances := []string{
		"What's the safety score of my current location?",
		"Is this area safe right now?",
		"harassment reports in my area",
		"Where am I?",
	}
	for _, u := range utterances {
		first, err := r.Respond(context.Background(), u, Context{})
		require.NoError(t, err)
		second, err := r.Respond(context.Background(), u, Context{})
		require.NoError(t, err)

		assert.Equal(t, first.Intent, second.Intent)
		assert.Equal(t, first.Category, second.Category)
		assert.NotEqual(t, first.ID, second.ID)
	}
}

func TestRespond_FailedDelegationMatchesLocal(t *testing.T) {
	utterances := []string{
		"What's the safety score of my current location?",
		"harassment reports in my area",
		"Show me the safest way home",
		"Hello",
		"something unrelated",
	}
	for _, u := range utterances {
		t.Run(u, func(t *testing.T) {
			local := New(Options{Random: NewSeededRandom(7)})
			delegating := New(Options{
				Random:    NewSeededRandom(7),
				Generator: &stubGenerator{err: fmt.Errorf("%w: dial tcp: connection refused", model.ErrRemoteCallFailed)},
			})

			want, err := local.Respond(context.Background(), u, Context{})
			require.NoError(t, err)
			got, err := delegating.Respond(context.Background(), u, Context{ExternalGeneration: true})
			require.NoError(t, err)

			assert.Equal(t, want.Content, got.Content)
			assert.Equal(t, want.Category, got.Category)
			assert.Equal(t, want.Intent, got.Intent)
			assert.Equal(t, model.SourceLocal, got.Source)
		})
	}
}

func TestRespond_DelegationSuccessSkipsEmergencyCallback(t *testing.T) {
	sched := &recordingScheduler{}
	gen := &stubGenerator{text: "  🚨 Call your local emergency number right away.  "}
	r := New(Options{Scheduler: sched, Generator: gen})

	resp, err := r.Respond(context.Background(), "SOS help me", Context{
		ExternalGeneration: true,
		OnEmergency:        func() {},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, model.SourceRemote, resp.Source)
	assert.Equal(t, model.IntentDelegated, resp.Intent)
	assert.Equal(t, "🚨 Call your local emergency number right away.", resp.Content)
	assert.Equal(t, model.CategoryEmergency, resp.Category)
	assert.Zero(t, sched.count())
}

func TestRespond_DelegationFallbacks(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
	}{
		{"no credential", &stubGenerator{err: model.ErrNoCredential}},
		{"generic error", &stubGenerator{err: errors.New("boom")}},
		{"blank text", &stubGenerator{text: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Options{Generator: tt.gen})
			resp, err := r.Respond(context.Background(), "Hello", Context{ExternalGeneration: true})
			require.NoError(t, err)
			assert.Equal(t, greetingText, resp.Content)
			assert.Equal(t, model.SourceLocal, resp.Source)
		})
	}
}

func TestRespond_LocationQuery(t *testing.T) {
	r := New(Options{})

	resp, err := r.Respond(context.Background(), "Where am I?", Context{})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryLocation, resp.Category)
	assert.Equal(t, LocationUnavailableText, resp.Content)

	loc := &model.Location{Latitude: 28.6139, Longitude: 77.2090}
	rc := Context{Location: loc}
	require.True(t, rc.HasLocation())

	resp, err = r.Respond(context.Background(), "Where am I?", rc)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryLocation, resp.Category)
	assert.Contains(t, resp.Content, "28.6139, 77.2090")
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		text string
		want model.Category
	}{
		{"🚨 alarm with a route and location", model.CategoryEmergency},
		{"📍 pinned", model.CategoryLocation},
		{"Your Location is known", model.CategoryLocation},
		{"🗺️ map", model.CategoryRoute},
		{"Take this ROUTE", model.CategoryRoute},
		{"just chatting", model.CategoryNormal},
		{WelcomeText, model.CategoryNormal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Categorize(tt.text), tt.text)
	}
}
