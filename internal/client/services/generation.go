package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/bdocctl/internal/client/api"
	"github.com/dmitrijs2005/bdocctl/internal/client/delivery"
	"github.com/dmitrijs2005/bdocctl/internal/client/models"
	"github.com/dmitrijs2005/bdocctl/internal/common"
	"github.com/dmitrijs2005/bdocctl/internal/logging"
)

// GenState is the lifecycle state of the generation controller.
type GenState string

const (
	StateIdle       GenState = "idle"
	StateSubmitting GenState = "submitting"
	StateSuccess    GenState = "success"
	StateError      GenState = "error"
)

// GenericFailureMessage is shown when the backend gave no message of its own.
const GenericFailureMessage = "Document generation failed. Please try again."

// Terminal statuses of the generator's task queue.
const (
	taskCompleted = "completed"
	taskFailed    = "failed"
)

// GenerationController drives one generation-and-download cycle:
// idle -> submitting -> success or error. At most one request is in flight
// at any time; a Submit during submitting is rejected before any network
// call. A successful result stays cached in memory so Redownload can
// replay delivery without touching the backend.
type GenerationController struct {
	client       api.Client
	deliverer    delivery.Deliverer
	log          logging.Logger
	pollInterval time.Duration
	timeout      time.Duration
	now          func() time.Time

	mu     sync.Mutex
	state  GenState
	result *models.GenerationResult
	errMsg string
}

func NewGenerationController(client api.Client, deliverer delivery.Deliverer, log logging.Logger, pollInterval, timeout time.Duration) *GenerationController {
	return &GenerationController{
		client:       client,
		deliverer:    deliverer,
		log:          log,
		pollInterval: pollInterval,
		timeout:      timeout,
		now:          time.Now,
		state:        StateIdle,
	}
}

// Submit validates req, runs the backend call (polling the task queue when
// the backend answers with a queue ticket) and delivers the resulting file.
// Invalid input and overlapping submissions are rejected synchronously
// without leaving the current state.
func (g *GenerationController) Submit(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	if g.state == StateSubmitting {
		g.mu.Unlock()
		return nil, common.ErrRequestInFlight
	}
	g.state = StateSubmitting
	g.result = nil
	g.errMsg = ""
	g.mu.Unlock()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.Generate(ctx, req)
	if err != nil {
		return nil, g.fail(ctx, err)
	}

	if resp.Queued() {
		resp, err = g.awaitTask(ctx, resp.TaskID)
		if err != nil {
			return nil, g.fail(ctx, err)
		}
	}

	result := g.buildResult(resp, req)

	g.mu.Lock()
	g.state = StateSuccess
	g.result = result
	g.mu.Unlock()

	if _, err := g.deliverer.Deliver(result); err != nil {
		// The generation itself succeeded and the result stays cached, so
		// Redownload can retry the local write.
		g.log.Error(ctx, "delivering generated document failed", "error", err)
		return result, err
	}
	return result, nil
}

// awaitTask polls the task queue until the generation settles. The ctx
// deadline set by Submit bounds the wait.
func (g *GenerationController) awaitTask(ctx context.Context, taskID string) (*api.GenerateResponse, error) {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	g.log.Debug(ctx, "generation queued, polling", "task_id", taskID)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		ts, err := g.client.TaskStatus(ctx, taskID)
		if err != nil {
			return nil, err
		}

		switch ts.Status {
		case taskCompleted:
			if ts.Result != nil {
				return ts.Result, nil
			}
			return &api.GenerateResponse{}, nil
		case taskFailed:
			msg := ts.Error
			if msg == "" {
				msg = GenericFailureMessage
			}
			return nil, &api.ServerError{StatusCode: 500, Message: msg}
		}
	}
}

// fail records the error state with a user-facing message and returns the
// original error for the caller.
func (g *GenerationController) fail(ctx context.Context, err error) error {
	msg := GenericFailureMessage
	var serr *api.ServerError
	if errors.As(err, &serr) && serr.Message != "" {
		msg = serr.Message
	}

	g.log.Warn(ctx, "generation request failed", "error", err)

	g.mu.Lock()
	g.state = StateError
	g.errMsg = msg
	g.mu.Unlock()

	return err
}

// buildResult maps the backend reply onto a GenerationResult, filling in
// client-side defaults for fields the backend omitted. Backend values
// always take precedence.
func (g *GenerationController) buildResult(resp *api.GenerateResponse, req models.GenerationRequest) *models.GenerationResult {
	now := g.now()

	documentID := resp.DocumentID
	if documentID == "" {
		documentID = fmt.Sprintf("DOC-%d", now.Unix())
	}

	fileName := resp.FileName
	if fileName == "" {
		fileName = fmt.Sprintf("%s_analysis_%s.pdf", req.BusinessDomain, now.Format("2006-01-02"))
	}

	generatedAt := now
	if resp.GeneratedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, resp.GeneratedAt); err == nil {
			generatedAt = parsed
		}
	}

	return &models.GenerationResult{
		DocumentID:     documentID,
		FileName:       fileName,
		FileSize:       resp.FileSize,
		GeneratedAt:    generatedAt,
		DownloadURL:    resp.DownloadURL,
		Message:        resp.Message,
		Content:        resp.Content,
		SQLQuery:       req.SQLQuery,
		BusinessDomain: req.BusinessDomain,
	}
}

// Redownload replays file delivery from the cached result. It never issues
// a backend call.
func (g *GenerationController) Redownload() (string, error) {
	g.mu.Lock()
	result := g.result
	ok := g.state == StateSuccess && result != nil
	g.mu.Unlock()

	if !ok {
		return "", common.ErrNoResult
	}
	return g.deliverer.Deliver(result)
}

// NewQuery drops the cached result and error message and returns the
// controller to idle, ready for a fresh request. Rejected while a
// submission is in flight.
func (g *GenerationController) NewQuery() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateSubmitting {
		return common.ErrRequestInFlight
	}
	g.state = StateIdle
	g.result = nil
	g.errMsg = ""
	return nil
}

// State returns the current lifecycle state.
func (g *GenerationController) State() GenState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Result returns the cached result, or nil outside the success state.
func (g *GenerationController) Result() *models.GenerationResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.result
}

// ErrorMessage returns the user-facing message of the error state, or "".
func (g *GenerationController) ErrorMessage() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.errMsg
}
