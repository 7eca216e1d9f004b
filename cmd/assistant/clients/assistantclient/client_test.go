package assistantclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"employee-assistant/cmd/assistant/apperr"
	"employee-assistant/cmd/assistant/auth"
	"employee-assistant/cmd/internal/httpclient"
)

var testEndpoints = Endpoints{
	Message:  "/api/v1/message",
	History:  "/api/v1/conversations",
	Messages: "/api/v1/messages",
	Upload:   "/api/v1/upload",
}

type stubProvider struct {
	token       string
	err         error
	invalidated atomic.Int32
}

func (p *stubProvider) Credential(context.Context) (auth.Credential, error) {
	if p.err != nil {
		return auth.Credential{}, p.err
	}
	return auth.Credential{Token: p.token}, nil
}

func (p *stubProvider) Invalidate() { p.invalidated.Add(1) }

func newTestClient(t *testing.T, handler http.HandlerFunc, provider auth.Provider) (*Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	base := httpclient.NewBaseClient(srv.URL, httpclient.Config{Timeout: 500 * time.Millisecond})
	return New(base, testEndpoints, provider), &hits
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestSendTurnAdoptsServerSessionAndAttachesBearer(t *testing.T) {
	var gotAuth string
	var gotBody SendTurnRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/message", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, map[string]any{
			"sessionId":     "server-S",
			"response":      "hi",
			"thinkingSteps": []string{"look up policy"},
		})
	}, &stubProvider{token: "tok-1"})

	reply, err := client.SendTurn(context.Background(), "client-A", "hello")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, SendTurnRequest{Message: "hello", SessionID: "client-A"}, gotBody)
	assert.Equal(t, "server-S", reply.SessionID)
	assert.Equal(t, "hi", reply.Response)
	assert.Equal(t, []string{"look up policy"}, reply.ReasoningTrace)
}

func TestSendTurnKeepsSessionWhenServerOmitsIt(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"response": "ok"})
	}, nil)

	reply, err := client.SendTurn(context.Background(), "client-A", "hello")
	require.NoError(t, err)
	assert.Equal(t, "client-A", reply.SessionID)
	assert.NotNil(t, reply.ReasoningTrace)
	assert.Empty(t, reply.ReasoningTrace)
}

func TestSendTurnWithoutProviderSendsNoAuthorization(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"sessionId": "s", "response": "ok"})
	}, nil)

	_, err := client.SendTurn(context.Background(), "s", "hello")
	require.NoError(t, err)
}

func TestSendTurnRejectsBlankTextWithoutNetwork(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, nil)

	_, err := client.SendTurn(context.Background(), "s", "   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, int32(0), hits.Load())
}

func TestErrorNormalization(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		body        string
		wantErr     error
		wantMessage string
	}{
		{
			name:        "rejected with error field",
			status:      http.StatusBadRequest,
			body:        `{"error":"Message is required"}`,
			wantErr:     apperr.ErrRejected,
			wantMessage: "Message is required",
		},
		{
			name:        "rejected with message field",
			status:      http.StatusForbidden,
			body:        `{"message":"User is not authorized"}`,
			wantErr:     apperr.ErrRejected,
			wantMessage: "User is not authorized",
		},
		{
			name:        "rejected without body",
			status:      http.StatusNotFound,
			body:        ``,
			wantErr:     apperr.ErrRejected,
			wantMessage: "request failed with status 404",
		},
		{
			name:        "server fault",
			status:      http.StatusInternalServerError,
			body:        `{"error":"Failed after 5 attempts: throttled"}`,
			wantErr:     apperr.ErrServerFault,
			wantMessage: "Failed after 5 attempts: throttled",
		},
		{
			name:        "malformed success body",
			status:      http.StatusOK,
			body:        `{not json`,
			wantErr:     apperr.ErrServerFault,
			wantMessage: "malformed response from assistant service",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(testCase.status)
				_, _ = w.Write([]byte(testCase.body))
			}, nil)

			_, err := client.SendTurn(context.Background(), "s", "hello")
			require.Error(t, err)
			assert.ErrorIs(t, err, testCase.wantErr)

			var appErr *apperr.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, testCase.wantMessage, appErr.Message)
			assert.Equal(t, testCase.status, appErr.StatusCode)
		})
	}
}

func TestUnreachableOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := New(httpclient.NewBaseClient(url, httpclient.Config{Timeout: time.Second}), testEndpoints, nil)
	_, err := client.ListConversations(context.Background(), 10)
	assert.ErrorIs(t, err, apperr.ErrUnreachable)
}

func TestUnreachableOnTimeout(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, nil)
	defer close(release)

	_, err := client.SendTurn(context.Background(), "s", "hello")
	assert.ErrorIs(t, err, apperr.ErrUnreachable)
}

func TestAuthUnavailableAbortsBeforeNetwork(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, &stubProvider{err: errors.New("refresh failed")})

	_, err := client.SendTurn(context.Background(), "s", "hello")
	assert.ErrorIs(t, err, apperr.ErrAuthUnavailable)

	_, err = client.Upload(context.Background(), UploadRequest{Folder: "HR"})
	assert.ErrorIs(t, err, apperr.ErrAuthUnavailable)
	assert.Equal(t, int32(0), hits.Load())
}

func TestUnauthorizedInvalidatesCredential(t *testing.T) {
	provider := &stubProvider{token: "expired"}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
	}, provider)

	_, err := client.ListConversations(context.Background(), 5)
	assert.ErrorIs(t, err, apperr.ErrRejected)
	assert.Equal(t, int32(1), provider.invalidated.Load())
}

func TestListConversationsSendsLimit(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/conversations", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, map[string]any{
			"conversations": []map[string]string{
				{"sessionId": "s2", "latestMessage": "payroll date?", "timestamp": "2026-10-02 09:00:00"},
				{"sessionId": "s1", "latestMessage": "vpn", "timestamp": "2026-10-01 09:00:00"},
			},
		})
	}, nil)

	got, err := client.ListConversations(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s2", got[0].SessionID)
	assert.Equal(t, "payroll date?", got[0].LatestMessage)
}

func TestFetchMessagesDecodesOptionalFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/messages/abc-123", r.URL.Path)
		_, _ = w.Write([]byte(`{"sessionId":"abc-123","messages":[
			{"userQuery":"q1","response":"a1","thinkingSteps":["t1"]},
			{"userQuery":"q2"},
			{}
		]}`))
	}, nil)

	got, err := client.FetchMessages(context.Background(), "abc-123")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.NotNil(t, got[0].UserQuery)
	assert.Equal(t, "a1", *got[0].Response)
	assert.Nil(t, got[1].Response)
	assert.Nil(t, got[2].UserQuery)
}

func TestFetchMessagesEscapesSessionID(t *testing.T) {
	testCases := []struct {
		sessionID string
		wantPath  string
	}{
		{"../conversations", "/api/v1/messages/..%2Fconversations"},
		{"a/b", "/api/v1/messages/a%2Fb"},
		{"team chat", "/api/v1/messages/team%20chat"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.sessionID, func(t *testing.T) {
			var gotPath string
			client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.EscapedPath()
				_, _ = w.Write([]byte(`{"messages":[{"userQuery":"q"}]}`))
			}, nil)

			_, err := client.FetchMessages(context.Background(), testCase.sessionID)
			require.NoError(t, err)
			assert.Equal(t, int32(1), hits.Load())
			assert.Equal(t, testCase.wantPath, gotPath)
		})
	}
}

func TestFetchMessagesRejectsDotSegments(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}, nil)

	for _, id := range []string{".", ".."} {
		_, err := client.FetchMessages(context.Background(), id)
		assert.ErrorIs(t, err, apperr.ErrValidation, id)
	}
	assert.Equal(t, int32(0), hits.Load())
}

func TestFetchMessagesEmptyIsSuccess(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"messages":[]}`))
	}, nil)

	got, err := client.FetchMessages(context.Background(), "s")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestUploadPostsFolderAndFiles(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req UploadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "IT Helpdesk", req.Folder)
		require.Len(t, req.Files, 1)
		assert.Equal(t, "data:application/pdf;base64,JVBERg==", req.Files[0].Content)
		writeJSON(w, http.StatusOK, UploadResponse{Success: true, Files: []string{"vpn.pdf"}, Folder: "it_helpdesk"})
	}, nil)

	resp, err := client.Upload(context.Background(), UploadRequest{
		Folder: "IT Helpdesk",
		Files:  []UploadFile{{Name: "vpn.pdf", Type: "application/pdf", Content: "data:application/pdf;base64,JVBERg=="}},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"vpn.pdf"}, resp.Files)
}
