// internal/workers/rfq/archive-document/handler.go
package archivedocument

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/metrics"
	"rfq-workers/internal/common/validation"
	"rfq-workers/internal/repository"
	"rfq-workers/internal/search"
)

const (
	TaskType = "rfq-archive-document"
)

type Archive interface {
	Save(ctx context.Context, rec *repository.Record) (string, error)
}

type Index interface {
	Index(ctx context.Context, id string, entry search.Entry) error
}

type Handler struct {
	config       *Config
	archive      Archive
	index        Index
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

// NewHandler builds the handler. index may be nil when search is not configured.
func NewHandler(config *Config, archive Archive, index Index, log logger.Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		archive:      archive,
		index:        index,
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
	doc, err := input.Document.Document()
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	rec := &repository.Record{
		Category:  input.Category,
		Document:  input.Document,
		Verdict:   input.Verdict,
		Audited:   input.Audited,
		Refined:   input.Refined,
		CreatedAt: time.Now().UTC(),
	}
	id, err := h.archive.Save(ctx, rec)
	if err != nil {
		return nil, err
	}

	// Indexing is best effort; the archive is the system of record.
	indexed := false
	if h.index != nil {
		if err := h.index.Index(ctx, id, search.NewEntry(input.Category, doc, rec.CreatedAt)); err != nil {
			h.logger.Warn("document index failed", map[string]interface{}{
				"documentId": id,
				"error":      err,
			})
		} else {
			indexed = true
		}
	}

	return &Output{
		DocumentID: id,
		Indexed:    indexed,
		ArchivedAt: rec.CreatedAt.Format(time.RFC3339),
	}, nil
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
