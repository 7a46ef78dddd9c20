package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// WorkflowResponse — workflow из API.
type WorkflowResponse struct {
	ID             string `json:"id"`
	ProjectID      string `json:"project_id"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	JobCount       int    `json:"job_count,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// JobResponse — задача из API.
type JobResponse struct {
	ID          string            `json:"id"`
	Sample      string            `json:"sample"`
	Stage       string            `json:"stage"`
	Name        string            `json:"name"`
	Definition  string            `json:"definition"`
	Queue       string            `json:"queue"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Outputs     []string          `json:"outputs"`
	RemoteID    string            `json:"remote_id,omitempty"`
	State       string            `json:"state"`
	CompletedBy string            `json:"completed_by,omitempty"`
	Error       string            `json:"error,omitempty"`
	SubmittedAt string            `json:"submitted_at,omitempty"`
	FinishedAt  string            `json:"finished_at,omitempty"`
	CreatedAt   string            `json:"created_at"`
}

// SummaryWorkflow — строка сводки из API.
type SummaryWorkflow struct {
	WorkflowID   string         `json:"workflow_id"`
	Name         string         `json:"name"`
	Status       string         `json:"status"`
	Total        int            `json:"total"`
	ByState      map[string]int `json:"by_state"`
	DoneByExit   int            `json:"done_by_exit"`
	DoneByOutput int            `json:"done_by_output"`
	Unknown      int            `json:"unknown"`
}

// SummaryResponse — сводка из API.
type SummaryResponse struct {
	GeneratedAt string            `json:"generated_at"`
	Workflows   []SummaryWorkflow `json:"workflows"`
}

// ListWorkflowsOpts — параметры фильтрации workflows.
type ListWorkflowsOpts struct {
	ProjectID string
	Status    string
	Limit     int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для API монитора Conveyor.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListWorkflows возвращает список workflows с фильтрацией.
func (c *Client) ListWorkflows(opts ListWorkflowsOpts) ([]WorkflowResponse, error) {
	params := url.Values{}
	if opts.ProjectID != "" {
		params.Set("project_id", opts.ProjectID)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var workflows []WorkflowResponse
	err := c.list("/api/v1/workflows", params, &workflows)
	return workflows, err
}

// GetWorkflow возвращает workflow по ID.
func (c *Client) GetWorkflow(id string) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.get("/api/v1/workflows/"+id, &wf)
	return &wf, err
}

// ListJobs возвращает задачи workflow.
func (c *Client) ListJobs(workflowID string) ([]JobResponse, error) {
	var jobs []JobResponse
	err := c.list("/api/v1/workflows/"+workflowID+"/jobs", nil, &jobs)
	return jobs, err
}

// Summary возвращает сводку по отслеживаемым workflow.
func (c *Client) Summary() (*SummaryResponse, error) {
	var summary SummaryResponse
	err := c.get("/api/v1/summary", &summary)
	return &summary, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	resp, err := c.do(path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(dr.Data, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) do(path string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
