package diagnosis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/examlens/internal/llm"
	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/problem"
)

var beltProblem = &problem.Record{
	OriginalText:       "Three wheels A, B, C with radii r, 2r, r share a belt. Find the ratio of angular speeds.",
	Subject:            "Physics",
	Grade:              "10",
	StandardSolution:   []string{"Rim speeds are equal.", "omega = v/r gives 2:1:2."},
	FinalAnswer:        "2:1:2",
	KeyKnowledgePoints: []string{"circular motion"},
	ProblemType:        "physics: circular motion",
}

const comparisonJSON = `{
	"analysis_text": "You used the radius ratio directly as the angular speed ratio.",
	"discrepancies": ["Angular speed is inversely proportional to radius at equal rim speed."],
	"weak_points": ["belt drive linear speed", "omega = v / r"],
	"textbook_reference": {"title": "Physics 10", "chapter": "4", "section": "4.2", "excerpt": "", "uri": "http://insecure.example.com"}
}`

func newComparator(high, low *llm.MockProvider) *Comparator {
	return NewComparator(high, low, DefaultComparatorConfig(), logger.Nop())
}

func TestCompare_GroundedPrimary(t *testing.T) {
	high := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(comparisonJSON),
		Citations: []llm.Citation{
			{Title: "Belt drives", URI: "https://example.org/belt"},
			{Title: "Old page", URI: "http://example.org/old"},
		},
	})
	low := llm.NewMockProvider()

	cmp, err := newComparator(high, low).Compare(context.Background(), beltProblem, "radius ratio 1:2:1")
	require.NoError(t, err)

	assert.NotEmpty(t, cmp.WeakPoints)
	assert.Equal(t, []problem.Reference{{Title: "Belt drives", URI: "https://example.org/belt"}}, cmp.GroundingReferences)
	require.NotNil(t, cmp.TextbookReference)
	assert.Empty(t, cmp.TextbookReference.URI)
	assert.Equal(t, 0, low.CallCount())

	req := high.Call(0)
	assert.True(t, req.Grounding)
	assert.Same(t, ComparisonSchema, req.Schema)
	msg := req.Messages[0].Content
	assert.Contains(t, msg, "radius ratio 1:2:1")
	assert.Contains(t, msg, "2. omega = v/r gives 2:1:2.")
	assert.Contains(t, msg, "Knowledge points: circular motion")
}

func TestCompare_CapabilityUnavailableSkipsFallback(t *testing.T) {
	high := llm.NewMockProvider(llm.MockResponse{
		Err: &llm.ErrCapabilityUnavailable{Model: "gemini-2.5-pro", Err: errors.New("Requested entity was not found")},
	})
	low := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(comparisonJSON)})

	cmp, err := newComparator(high, low).Compare(context.Background(), beltProblem, "my reasoning")
	assert.Nil(t, cmp)

	var cu *CapabilityUnavailableError
	require.ErrorAs(t, err, &cu)
	assert.NotEmpty(t, cu.Remediation)
	assert.True(t, llm.IsCapabilityUnavailable(err))
	assert.Equal(t, 0, low.CallCount(), "capability errors must not fall back")
}

func TestCompare_FallbackWithoutGrounding(t *testing.T) {
	high := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	low := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(comparisonJSON)})

	cmp, err := newComparator(high, low).Compare(context.Background(), beltProblem, "my reasoning")
	require.NoError(t, err)
	assert.Len(t, cmp.WeakPoints, 2)
	assert.Empty(t, cmp.GroundingReferences)

	require.Equal(t, 1, low.CallCount())
	assert.False(t, low.Call(0).Grounding)
}

func TestCompare_BadPrimaryPayloadFallsBack(t *testing.T) {
	high := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"analysis_text": ""}`)})
	low := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(comparisonJSON)})

	_, err := newComparator(high, low).Compare(context.Background(), beltProblem, "my reasoning")
	require.NoError(t, err)
	assert.Equal(t, 1, low.CallCount())
}

func TestCompare_HardFailure(t *testing.T) {
	primary := &llm.ErrRateLimit{Err: errors.New("quota")}
	high := llm.NewMockProvider(llm.MockResponse{Err: primary})
	low := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`not json`)})

	cmp, err := newComparator(high, low).Compare(context.Background(), beltProblem, "my reasoning")
	assert.Nil(t, cmp)

	var hard *ComparisonHardFailure
	require.ErrorAs(t, err, &hard)
	assert.ErrorIs(t, err, primary)
	assert.True(t, strings.Contains(hard.Fallback.Error(), "parse comparison response"))
	assert.Equal(t, 1, low.CallCount())
}

func TestCompare_EmptyInputMakesNoCall(t *testing.T) {
	high := llm.NewMockProvider()
	low := llm.NewMockProvider()

	_, err := newComparator(high, low).Compare(context.Background(), beltProblem, " \n\t")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Equal(t, 0, high.CallCount()+low.CallCount())
}

func TestCompare_CancelledContextDoesNotFallBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	high := llm.NewMockProvider(llm.MockResponse{Err: context.Canceled})
	low := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(comparisonJSON)})

	_, err := newComparator(high, low).Compare(ctx, beltProblem, "my reasoning")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, low.CallCount())
}
