package main

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"waveclip/audio"
	"waveclip/cmd"
	"waveclip/services"
	"waveclip/types"
	ws "waveclip/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// TestHelper provides utilities for testing the waveclip server
type TestHelper struct {
	Server   *httptest.Server
	Sessions services.SessionService
	JobQueue services.JobQueue
	Hub      ws.Hub
	Router   *gin.Engine
}

// NewTestHelper spins up the full server stack against an httptest server
func NewTestHelper(t *testing.T) *TestHelper {
	gin.SetMode(gin.TestMode)

	hub := ws.NewHub()
	go hub.Run()

	jobQueue := services.NewJobQueue(2, hub, "ffmpeg")
	jobQueue.Start()

	sessions := services.NewSessionService()

	router := cmd.NewRouter(sessions, jobQueue, hub)
	server := httptest.NewServer(router)

	helper := &TestHelper{
		Server:   server,
		Sessions: sessions,
		JobQueue: jobQueue,
		Hub:      hub,
		Router:   router,
	}

	t.Cleanup(func() {
		server.Close()
	})

	return helper
}

// MakeRequest makes an HTTP request to the test server
func (h *TestHelper) MakeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, h.Server.URL+path, reqBody)
	require.NoError(t, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

// GetJSON makes a GET request and unmarshals the JSON response
func (h *TestHelper) GetJSON(t *testing.T, path string, target interface{}) *http.Response {
	resp := h.MakeRequest(t, "GET", path, nil)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close()

	if target != nil {
		err = json.Unmarshal(body, target)
		require.NoError(t, err)
	}

	return resp
}

// PostJSON makes a POST request with a JSON body and unmarshals the response
func (h *TestHelper) PostJSON(t *testing.T, path string, requestBody interface{}, target interface{}) *http.Response {
	resp := h.MakeRequest(t, "POST", path, requestBody)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close()

	if target != nil {
		err = json.Unmarshal(body, target)
		require.NoError(t, err)
	}

	return resp
}

// CreateSession creates a session over the API and returns its state
func (h *TestHelper) CreateSession(t *testing.T) types.SessionState {
	var response struct {
		State types.SessionState `json:"state"`
	}
	resp := h.PostJSON(t, "/api/sessions", nil, &response)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, response.State.SessionID)
	return response.State
}

// UploadFile posts file bytes as a multipart upload to a session's source
// endpoint and returns the raw response.
func (h *TestHelper) UploadFile(t *testing.T, sessionID, filename string, content []byte) *http.Response {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest("POST", h.Server.URL+"/api/sessions/"+sessionID+"/source", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// UploadAndDecode uploads a file and waits for its decode job to complete
func (h *TestHelper) UploadAndDecode(t *testing.T, sessionID, filename string, content []byte) *types.Job {
	resp := h.UploadFile(t, sessionID, filename, content)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var response struct {
		Job *types.Job `json:"job"`
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.NoError(t, json.Unmarshal(body, &response))
	require.NotNil(t, response.Job)

	job := h.WaitForJobCompletion(t, response.Job.ID, 5*time.Second)
	require.Equal(t, types.JobStatusCompleted, job.Status)
	return job
}

// WaitForJobCompletion polls a job until it reaches a terminal state
func (h *TestHelper) WaitForJobCompletion(t *testing.T, jobID string, timeout time.Duration) *types.Job {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		var response struct {
			Job *types.Job `json:"job"`
		}

		resp := h.GetJSON(t, "/api/jobs/"+jobID, &response)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		switch response.Job.Status {
		case types.JobStatusCompleted, types.JobStatusFailed, types.JobStatusCancelled:
			return response.Job
		}

		time.Sleep(20 * time.Millisecond)
	}

	t.Fatalf("Job %s did not complete within timeout", jobID)
	return nil
}

// ConnectWebSocket connects to a WebSocket endpoint on the test server
func (h *TestHelper) ConnectWebSocket(t *testing.T, path string) *websocket.Conn {
	wsURL := "ws" + h.Server.URL[4:] + path // Replace http:// with ws://

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	return conn
}

// makeTestWAV builds an in-memory mono WAV file of the given duration: a
// 440 Hz sine at 44.1 kHz, the shape most of the integration tests upload.
func makeTestWAV(t *testing.T, seconds float64) []byte {
	const sampleRate = 44100
	frames := int(seconds * sampleRate)
	samples := make([]float64, frames)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/sampleRate)
	}

	data, err := audio.EncodeWAV(&audio.Source{
		Channels:   [][]float64{samples},
		SampleRate: sampleRate,
	})
	require.NoError(t, err)
	return data
}
