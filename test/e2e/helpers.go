//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Aashrithhh/Legal-Assistant/internal/api/handlers"
	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/Aashrithhh/Legal-Assistant/internal/extract"
	"github.com/Aashrithhh/Legal-Assistant/internal/jobs"
	"github.com/Aashrithhh/Legal-Assistant/internal/repository"
	"github.com/Aashrithhh/Legal-Assistant/internal/server"
	"github.com/Aashrithhh/Legal-Assistant/internal/service"
	"github.com/Aashrithhh/Legal-Assistant/internal/storage"
	"github.com/Aashrithhh/Legal-Assistant/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	BinaryDir    string
	ConfigHome   string
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers and server
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	// Start PostgreSQL container
	pgC := testutil.NewPostgresContainer(ctx, t)

	// Start RustFS container
	s3C := testutil.NewRustFSContainer(ctx, t)

	// Create connection pool and run migrations
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	// Create S3 client
	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-uploads",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}

	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	// Find free port for server
	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	// Start HTTP server
	serverURL, serverCloser := startServer(t, pool, s3Client, port)

	env := &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		S3Client:     s3Client,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}

	return env
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
	// Clean up binaries
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// BuildBinaries builds the legalassist and legalassistd binaries
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "legalassist-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	// Keep CLI config writes inside the temp dir
	e.ConfigHome = filepath.Join(tmpDir, "config")
	if err := os.MkdirAll(e.ConfigHome, 0755); err != nil {
		e.T.Fatalf("failed to create config home: %v", err)
	}

	// Build legalassistd
	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "legalassistd"), "./cmd/legalassistd")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build legalassistd: %v\n%s", err, out)
	}

	// Build legalassist
	cmd = exec.Command("go", "build", "-o", filepath.Join(tmpDir, "legalassist"), "./cmd/legalassist")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build legalassist: %v\n%s", err, out)
	}
}

// RunLegalassist runs the legalassist CLI command
func (e *E2ETestEnv) RunLegalassist(workDir string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "legalassist"), args...)
	cmd.Dir = workDir
	cmd.Env = e.cliEnv()
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// RunLegalassistWithInput runs the legalassist CLI command with stdin input
func (e *E2ETestEnv) RunLegalassistWithInput(workDir string, input string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "legalassist"), args...)
	cmd.Dir = workDir
	cmd.Stdin = bytes.NewReader([]byte(input))
	cmd.Env = e.cliEnv()
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func (e *E2ETestEnv) cliEnv() []string {
	return append(os.Environ(),
		fmt.Sprintf("LEGALASSIST_API_URL=%s", e.ServerURL),
		fmt.Sprintf("XDG_CONFIG_HOME=%s", e.ConfigHome),
		fmt.Sprintf("HOME=%s", e.ConfigHome),
	)
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

// Put performs a PUT request
func (e *E2ETestEnv) Put(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("PUT", path, body)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path string) (*APIResponse, error) {
	return e.doRequest("DELETE", path, nil)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// UploadFiles posts the given files as one multipart request to the case
// documents endpoint
func (e *E2ETestEnv) UploadFiles(caseID string, files map[string][]byte) (*APIResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(content); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/v1/cases/%s/documents", e.ServerURL, caseID)
	req, err := http.NewRequest("POST", url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}
	return &apiResp, nil
}

// WaitForEmbeddings polls the case status endpoint until the background
// worker has embedded every chunk
func (e *E2ETestEnv) WaitForEmbeddings(caseID string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := e.Get(fmt.Sprintf("/api/v1/cases/%s/status", caseID))
		if err == nil {
			var status struct {
				ChunksReady   int `json:"chunks_ready"`
				ChunksPending int `json:"chunks_pending"`
			}
			if err := json.Unmarshal(resp.Data, &status); err == nil {
				if status.ChunksPending == 0 && status.ChunksReady > 0 {
					return
				}
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	e.T.Fatalf("chunks for case %s were not embedded within %v", caseID, timeout)
}

// startServer starts the HTTP server with the full service stack. Provider
// calls are served by local stubs so tests run without OpenAI credentials.
func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, port int) (string, func()) {
	// Initialize repositories
	caseRepo := repository.NewCaseRepository(pool)
	documentRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	embeddingJobRepo := repository.NewEmbeddingJobRepository(pool)
	analysisRepo := repository.NewAnalysisRepository(pool)
	questionLogRepo := repository.NewQuestionLogRepository(pool)
	searchRepo := repository.NewSearchRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	embedder := wordHashEmbedder{}
	chat := echoChatClient{}

	extractor := extract.NewRouter(extract.RouterConfig{
		Audio:           extract.NewAudioExtractor(scriptedTranscriber{}),
		PDFMinTextChars: 1,
	})

	// Initialize services
	ingestSvc, err := service.NewIngestionService(extractor, caseRepo, documentRepo, chunkRepo, txRunner, service.IngestionOptions{
		ChunkConfig: service.ChunkConfig{MaxWords: 60, OverlapWords: 10},
		Workers:     2,
		Storage:     s3Client,
	})
	if err != nil {
		t.Fatalf("failed to create ingestion service: %v", err)
	}

	// Embed through the background worker, as in production
	embeddingSvc, err := service.NewEmbeddingServiceWithConcurrency(embedder, chunkRepo, 2)
	if err != nil {
		t.Fatalf("failed to create embedding service: %v", err)
	}
	embeddingWorker := jobs.NewWorker(jobs.NewEmbeddingWorker(embeddingJobRepo, embeddingSvc), 100*time.Millisecond)
	go embeddingWorker.Start(context.Background())

	retriever := service.NewRetrievalService(embedder, searchRepo, chunkRepo, service.RetrievalConfig{
		AnalysisTopK: 6,
		QuestionTopK: 4,
		AudioBoost:   2.0,
	})

	caseSvc := service.NewCaseServiceWithStorage(caseRepo, s3Client)
	analysisSvc := service.NewAnalysisService(caseRepo, documentRepo, retriever, chat, analysisRepo, "scripted-model")
	conversationSvc := service.NewConversationServiceWithLog(caseRepo, retriever, chat, questionLogRepo)

	cfg := server.RouterConfig{
		CaseHandler:     handlers.NewCaseHandler(caseSvc),
		DocumentHandler: handlers.NewDocumentHandler(ingestSvc),
		AnalysisHandler: handlers.NewAnalysisHandler(analysisSvc),
		QuestionHandler: handlers.NewQuestionHandler(conversationSvc),
		MaxBodyBytes:    32 * 1024 * 1024,
	}

	router := server.NewRouter(cfg)
	addr := fmt.Sprintf(":%d", port)

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to start
	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		embeddingWorker.Stop()
		ingestSvc.Release()
		embeddingSvc.Release()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// wordHashEmbedder maps text to a deterministic bag-of-words vector. Chunks
// sharing words with a query land closer to it than unrelated chunks, so
// retrieval ranking behaves realistically without a provider.
type wordHashEmbedder struct{}

func (wordHashEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 1536)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		v[h.Sum32()%1536]++
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		v[0] = 1
		return v, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v, nil
}

// echoChatClient plays the chat provider. Complete echoes the composed user
// prompt so tests can assert the retrieved context reached it; CompleteJSON
// returns a fixed, valid analysis payload.
type echoChatClient struct{}

func (echoChatClient) Complete(_ context.Context, _ string, user string, _ []domain.Exchange) (string, error) {
	return user, nil
}

func (echoChatClient) CompleteJSON(_ context.Context, _ string, _ string) (string, error) {
	return `{
		"analysis": "The retainer dispute centers on an unsigned fee amendment.",
		"issues": [
			{
				"title": "Unsigned fee amendment",
				"description": "The amended retainer was sent but never countersigned.",
				"riskLevel": "high",
				"category": "contract",
				"partiesInvolved": "R. Smith, Acme LLP",
				"citations": "retainer.txt"
			},
			{
				"title": "Backdated invoice",
				"description": "The call recording mentions an invoice being backdated.",
				"riskLevel": "medium",
				"category": "fraud"
			}
		]
	}`, nil
}

// scriptedTranscriber stands in for Whisper so audio uploads exercise the
// transcript-to-chunks path without a provider.
type scriptedTranscriber struct{}

func (scriptedTranscriber) Name() string { return "scripted" }

func (scriptedTranscriber) Transcribe(_ context.Context, _ string, _ []byte) (*extract.Transcription, error) {
	return &extract.Transcription{
		Text:            "Recorded call between R. Smith and the bookkeeper. Smith asks whether the March invoice can be backdated and the bookkeeper agrees to change the date.",
		Language:        "en",
		DurationSeconds: 42,
		Model:           "whisper-stub",
	}, nil
}
