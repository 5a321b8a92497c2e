// internal/workers/conversation/process-message/handler.go
package processmessage

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"voice-agent-workers/internal/chat"
	"voice-agent-workers/internal/common/camunda"
	apperrors "voice-agent-workers/internal/common/errors"
	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/common/metrics"
	"voice-agent-workers/internal/common/validation"
	"voice-agent-workers/internal/conversation/pipeline"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "process-message"

	// reportTimeout bounds the fail/throw command sent after the job's own
	// deadline may already have passed.
	reportTimeout = 10 * time.Second
)

type ChatService interface {
	Handle(ctx context.Context, req chat.Request) (*chat.Reply, error)
}

type JobErrorHandler interface {
	HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error)
}

type Handler struct {
	config     *Config
	chat       ChatService
	errHandler JobErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, svc ChatService, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		chat:       svc,
		errHandler: apperrors.NewErrorHandler(scoped),
		logger:     scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, job.Variables)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.fail(client, job, apperrors.NewInvalidInputError("encode output: "+err.Error()))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.fail(client, job, camunda.MapError(err, "complete job"))
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":         job.Key,
		"conversationId": output.ConversationID,
		"nextStep":       output.NextStep,
	})
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()
	h.errHandler.HandleJobError(ctx, client, job, err)
}

// Execute validates the job variables and runs one chat turn.
func (h *Handler) Execute(ctx context.Context, variables string) (*Output, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return nil, apperrors.NewInvalidInputError("parse variables: " + err.Error())
	}

	if result := validation.ValidateInput(raw, GetInputSchema()); !result.Valid {
		return nil, apperrors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidInputError("decode variables: " + err.Error())
	}

	reply, err := h.chat.Handle(ctx, chat.Request{
		ConversationID: input.ConversationID,
		PersonaKey:     input.Persona,
		Message:        input.Message,
		CustomerName:   input.CustomerName,
		CustomerPhone:  input.CustomerPhone,
		Metadata:       input.Metadata,
		Channel:        "zeebe",
	})
	if err != nil {
		return nil, err
	}

	res := reply.Result
	entitiesOut := make(map[string]string, len(res.Entities))
	for k, v := range res.Entities {
		entitiesOut[k] = v
	}

	return &Output{
		ConversationID: reply.ConversationID,
		MessageID:      reply.MessageID,
		Response:       reply.Response,
		ActionsTaken:   res.ActionsTaken,
		NextStep:       res.NextStep,
		Entities:       entitiesOut,
		Intent:         res.Intent.String(),
		Confidence:     res.Confidence,
		NeedsHuman:     res.NextStep == pipeline.NextWaitingForHumanAgent,
	}, nil
}
