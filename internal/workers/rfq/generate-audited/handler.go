// internal/workers/rfq/generate-audited/handler.go
package generateaudited

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/metrics"
	"rfq-workers/internal/common/validation"
	"rfq-workers/internal/models"
	"rfq-workers/internal/orchestrator"
)

const (
	TaskType = "rfq-generate-audited"
)

type AuditedGenerator interface {
	GenerateAudited(ctx context.Context, history models.History, category models.Category, creds models.Credentials) (*orchestrator.AuditedResult, error)
}

type Handler struct {
	config       *Config
	engine       AuditedGenerator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

// NewHandler builds the handler. engine is the orchestrator itself or a
// cache.AuditedGenerator wrapping it.
func NewHandler(config *Config, engine AuditedGenerator, log logger.Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       engine,
		errorHandler: apperrors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	result, err := h.engine.GenerateAudited(ctx, input.History, input.Category, input.Credentials)
	if err != nil {
		return nil, err
	}

	return &Output{
		Document: models.Wrap(result.Document),
		Summary:  models.Summary(result.Document),
		Outcome:  result.Outcome(),
		Audited:  result.Audited,
		Refined:  result.Refined,
		Fallback: result.Fallback,
		Cached:   result.Cached,
		Issues:   issues(result.Verdict),
	}, nil
}

func issues(v *models.AuditVerdict) []string {
	if v == nil || v.Issues == nil {
		return []string{}
	}
	return v.Issues
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
