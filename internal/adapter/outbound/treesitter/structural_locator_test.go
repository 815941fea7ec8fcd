package treesitter

import (
	"context"
	"errors"
	"testing"

	"evalops/internal/domain/entity"
	domainerrors "evalops/internal/domain/errors/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const markerCallSource = `const setup = makeSetup();

evalops_test({ description: 'Summarize the diff', tags: ['review'] }, function () {
  function summarize(diff) {
    return diff.slice(0, 100);
  }
  return summarize;
});
`

func newTestLocator(t *testing.T) *Locator {
	t.Helper()
	locator, err := NewLocator()
	require.NoError(t, err)
	return locator
}

func TestStructuralLocateDeclarations(t *testing.T) {
	ctx := context.Background()

	t.Run("should discover a marker call from the syntax tree", func(t *testing.T) {
		locator := newTestLocator(t)

		cases, err := locator.LocateDeclarations(ctx, "review.eval.js", []byte(markerCallSource))
		require.NoError(t, err)
		require.Len(t, cases, 1)

		testCase := cases[0]
		assert.Equal(t, "Summarize the diff", testCase.Description)
		assert.Equal(t, entity.InlineFunctionName, testCase.Metadata.FunctionName)
		assert.Equal(t, 3, testCase.Metadata.LineNumber)
		assert.Equal(t, []string{"review"}, testCase.Metadata.Tags)
		assert.Contains(t, testCase.Variables["code"], "summarize")
	})

	t.Run("should discover marker calls in TypeScript files", func(t *testing.T) {
		locator := newTestLocator(t)
		source := `evalops_test({ description: 'Typed' }, function () { return 1; });`

		cases, err := locator.LocateDeclarations(ctx, "typed.eval.ts", []byte(source))
		require.NoError(t, err)
		require.Len(t, cases, 1)
		assert.Equal(t, "Typed", cases[0].Description)
	})

	t.Run("should skip files whose language has no grammar", func(t *testing.T) {
		locator := newTestLocator(t)

		cases, err := locator.LocateDeclarations(ctx, "notes.md", []byte("evalops_test"))
		require.NoError(t, err)

		assert.Empty(t, cases)
	})

	t.Run("should skip member-access calls that merely end in the marker name", func(t *testing.T) {
		locator := newTestLocator(t)
		source := `runner.evalops_test({ description: 'member' }, function () {});`

		cases, err := locator.LocateDeclarations(ctx, "member.eval.js", []byte(source))
		require.NoError(t, err)

		assert.Empty(t, cases)
	})

	t.Run("should drop marker calls with fewer than two arguments", func(t *testing.T) {
		locator := newTestLocator(t)
		source := `evalops_test({ description: 'lonely' });`

		cases, err := locator.LocateDeclarations(ctx, "lonely.eval.js", []byte(source))
		require.NoError(t, err)

		assert.Empty(t, cases)
	})

	t.Run("should drop a declaration whose literal does not evaluate", func(t *testing.T) {
		locator := newTestLocator(t)
		source := `
evalops_test({ description: notALiteral }, function () {});
evalops_test({ description: 'valid' }, function () { return 2; });
`
		cases, err := locator.LocateDeclarations(ctx, "mixed.eval.js", []byte(source))
		require.NoError(t, err)
		require.Len(t, cases, 1)

		assert.Equal(t, "valid", cases[0].Description)
	})

	t.Run("should produce identical results on repeated scans", func(t *testing.T) {
		locator := newTestLocator(t)

		first, err := locator.LocateDeclarations(ctx, "review.eval.js", []byte(markerCallSource))
		require.NoError(t, err)
		second, err := locator.LocateDeclarations(ctx, "review.eval.js", []byte(markerCallSource))
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}

func TestIsGrammarUnavailable(t *testing.T) {
	assert.True(t, IsGrammarUnavailable(domainerrors.NewGrammarUnavailableError("TypeScript", nil)))
	assert.True(t, IsGrammarUnavailable(domainerrors.ErrGrammarUnavailable))
	assert.False(t, IsGrammarUnavailable(errors.New("unrelated")))
	assert.False(t, IsGrammarUnavailable(nil))
}
