package reconcile

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"employee-assistant/cmd/assistant/apperr"
	"employee-assistant/cmd/assistant/clients/assistantclient"
)

func strPtr(s string) *string { return &s }

func TestMessagesFlattensRecordsInOrder(t *testing.T) {
	records := []assistantclient.TurnRecord{
		{UserQuery: strPtr("How many vacation days?"), Response: strPtr("25 days."), ThinkingSteps: []string{"search hr kb"}},
		{UserQuery: strPtr("And sick leave?")},
		{Response: strPtr("Unprompted notice")},
		{},
		{UserQuery: strPtr(""), Response: strPtr("   ")},
	}

	got, err := Messages(records)
	require.NoError(t, err)

	want := []Message{
		UserMessage("How many vacation days?"),
		AssistantMessage("25 days.", []string{"search hr kb"}),
		UserMessage("And sick leave?"),
		AssistantMessage("Unprompted notice", []string{}),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Messages mismatch (-want +got):\n%s", diff)
	}
}

func TestMessagesEmptyIsNoContent(t *testing.T) {
	testCases := []struct {
		name    string
		records []assistantclient.TurnRecord
	}{
		{name: "nil", records: nil},
		{name: "empty", records: []assistantclient.TurnRecord{}},
		{name: "all blank", records: []assistantclient.TurnRecord{{}, {UserQuery: strPtr(" ")}}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := Messages(testCase.records)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, apperr.ErrNoContent)
		})
	}
}

func TestMessagesDoesNotAliasThinkingSteps(t *testing.T) {
	steps := []string{"a"}
	got, err := Messages([]assistantclient.TurnRecord{{Response: strPtr("r"), ThinkingSteps: steps}})
	require.NoError(t, err)

	steps[0] = "mutated"
	assert.Equal(t, []string{"a"}, got[0].ReasoningTrace)
}

// 질문/답변 필드를 무작위로 채운 기록에 대해 순서와 1:1 대응을 확인한다.
func TestMessagesRandomizedOrderAndMapping(t *testing.T) {
	rng := rand.New(rand.NewSource(20261016))

	for iter := 0; iter < 500; iter++ {
		n := rng.Intn(12)
		records := make([]assistantclient.TurnRecord, n)
		var want []Message
		for i := range records {
			if rng.Intn(2) == 0 {
				q := randomText(rng)
				records[i].UserQuery = strPtr(q)
				want = append(want, UserMessage(q))
			}
			if rng.Intn(2) == 0 {
				a := randomText(rng)
				steps := make([]string, rng.Intn(3))
				for j := range steps {
					steps[j] = randomText(rng)
				}
				records[i].Response = strPtr(a)
				records[i].ThinkingSteps = steps
				want = append(want, AssistantMessage(a, steps))
			}
		}

		got, err := Messages(records)
		if len(want) == 0 {
			require.ErrorIs(t, err, apperr.ErrNoContent)
			continue
		}
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("iteration %d (-want +got):\n%s", iter, diff)
		}
	}
}

func randomText(rng *rand.Rand) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 1+rng.Intn(8))
	for i := range b {
		b[i] = letters[rng.Intn(len(letters))]
	}
	return string(b)
}

func TestSummariesPreservesServerOrder(t *testing.T) {
	got := Summaries([]assistantclient.ConversationRecord{
		{SessionID: "s2", LatestMessage: "newer", Timestamp: "2026-10-02 09:00:00"},
		{SessionID: "s1", LatestMessage: "older", Timestamp: "2026-10-01 09:00:00"},
	})

	assert.Equal(t, []Summary{
		{SessionID: "s2", LatestMessagePreview: "newer", Timestamp: "2026-10-02 09:00:00"},
		{SessionID: "s1", LatestMessagePreview: "older", Timestamp: "2026-10-01 09:00:00"},
	}, got)
	assert.NotNil(t, Summaries(nil))
}
