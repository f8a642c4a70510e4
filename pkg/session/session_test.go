package session_test

import (
	"testing"

	"github.com/germanamz/nbask/pkg/modeladapter/usage"
	"github.com/germanamz/nbask/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) session.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestNew_Defaults(t *testing.T) {
	s := session.New(session.Defaults{}, lookupFrom(nil))

	assert.Equal(t, session.DefaultModel, s.Model())
	assert.Equal(t, session.DefaultSystemPrompt, s.SystemPrompt())
}

func TestNew_NilLookup(t *testing.T) {
	s := session.New(session.Defaults{Model: "gpt-4o"}, nil)

	assert.Equal(t, "gpt-4o", s.Model())
	assert.Equal(t, session.DefaultSystemPrompt, s.SystemPrompt())
}

func TestNew_EnvironmentWins(t *testing.T) {
	s := session.New(
		session.Defaults{Model: "gpt-4o", SystemPrompt: "configured"},
		lookupFrom(map[string]string{
			session.EnvModel:        "gemini-2.5-pro",
			session.EnvSystemPrompt: "from env",
		}),
	)

	assert.Equal(t, "gemini-2.5-pro", s.Model())
	assert.Equal(t, "from env", s.SystemPrompt())
}

func TestNew_BlankEnvironmentIgnored(t *testing.T) {
	s := session.New(session.Defaults{Model: "gpt-4o"}, lookupFrom(map[string]string{session.EnvModel: "  "}))

	assert.Equal(t, "gpt-4o", s.Model())
}

func TestSetModel(t *testing.T) {
	s := session.New(session.Defaults{}, nil)

	require.NoError(t, s.SetModel("  gpt-4o-mini \n"))
	assert.Equal(t, "gpt-4o-mini", s.Model())

	require.ErrorIs(t, s.SetModel("   "), session.ErrEmptyModel)
	assert.Equal(t, "gpt-4o-mini", s.Model())
}

func TestSetSystemPrompt(t *testing.T) {
	s := session.New(session.Defaults{}, nil)

	require.NoError(t, s.SetSystemPrompt("\nBe terse.\nAnswer in French.\n"))
	assert.Equal(t, "Be terse.\nAnswer in French.", s.SystemPrompt())

	require.ErrorIs(t, s.SetSystemPrompt("\n\n"), session.ErrEmptyPrompt)
	assert.Equal(t, "Be terse.\nAnswer in French.", s.SystemPrompt())
}

func TestSetModel_LastWriteWins(t *testing.T) {
	s := session.New(session.Defaults{}, nil)

	require.NoError(t, s.SetModel("a"))
	require.NoError(t, s.SetModel("b"))
	assert.Equal(t, "b", s.Model())
}

func TestUsage_LivesWithSession(t *testing.T) {
	s := session.New(session.Defaults{}, nil)
	assert.Zero(t, s.Usage().Asks())

	s.Usage().Record("gpt-4o", usage.TokenCount{InputTokens: 10, OutputTokens: 2})
	s.Usage().Record("gpt-4o", usage.TokenCount{InputTokens: 5, OutputTokens: 1})

	assert.Same(t, s.Usage(), s.Usage())
	assert.Equal(t, 2, s.Usage().Asks())
	assert.Equal(t, usage.TokenCount{InputTokens: 15, OutputTokens: 3}, s.Usage().Total())
}
