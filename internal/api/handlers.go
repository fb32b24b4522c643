package api

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/satriahrh/voxpense/adapters/encoder"
	"github.com/satriahrh/voxpense/domain/capture"
	"github.com/satriahrh/voxpense/domain/entities"
	"github.com/satriahrh/voxpense/domain/extraction"
	"github.com/satriahrh/voxpense/domain/repositories"
	"github.com/satriahrh/voxpense/usecase"
)

// ChangeNotifier is told when the stored expenses change outside a session
type ChangeNotifier interface {
	NotifyExpensesChanged(expense *entities.Expense)
}

// Handler serves the expense HTTP API
type Handler struct {
	expenses     repositories.ExpenseRepository
	coordinator  *usecase.SubmissionCoordinator
	stt          repositories.SpeechToText
	audio        repositories.AudioConfig
	recentWindow time.Duration
	notifier     ChangeNotifier
	logger       *zap.Logger
}

// HandlerOptions holds the optional collaborators of a Handler
type HandlerOptions struct {
	// STT may be nil; speech endpoints then answer 503
	STT repositories.SpeechToText
	// Audio is the default format of uploaded audio
	Audio        repositories.AudioConfig
	RecentWindow time.Duration
	Notifier     ChangeNotifier
}

// NewHandler creates the API handler
func NewHandler(expenses repositories.ExpenseRepository, coordinator *usecase.SubmissionCoordinator, opts HandlerOptions, logger *zap.Logger) *Handler {
	if opts.RecentWindow <= 0 {
		opts.RecentWindow = entities.RecentWindow
	}
	return &Handler{
		expenses:     expenses,
		coordinator:  coordinator,
		stt:          opts.STT,
		audio:        opts.Audio,
		recentWindow: opts.RecentWindow,
		notifier:     opts.Notifier,
		logger:       logger,
	}
}

func (h *Handler) health(c echo.Context) error {
	speech := "unavailable"
	if h.stt != nil {
		speech = "available"
	}
	return c.JSON(http.StatusOK, HealthResponse{
		Status:        "healthy",
		Service:       "voxpense",
		SpeechService: speech,
	})
}

func (h *Handler) listExpenses(c echo.Context) error {
	expenses, err := h.expenses.List(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to list expenses", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to fetch expenses",
		})
	}
	return c.JSON(http.StatusOK, expenses)
}

func (h *Handler) createExpense(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateExpenseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	voiceText := strings.TrimSpace(req.VoiceText)
	if req.AudioData != "" && voiceText == "" {
		text, status, resp := h.transcribeBase64(ctx, req.AudioData, req.AudioFormat)
		if resp != nil {
			return c.JSON(status, resp)
		}
		voiceText = text
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = voiceText
	}

	// category always follows the description
	result := extraction.Extract(description)
	result.Amount = decimal.NullDecimal{}
	switch {
	case req.Amount != nil:
		result.Amount = decimal.NewNullDecimal(*req.Amount)
	case voiceText != "":
		result.Amount = extraction.ExtractAmount(voiceText)
	}

	draft, ok := result.Draft()
	if !ok || description == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Amount and description are required",
		})
	}
	if err := draft.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_expense",
			Message: err.Error(),
		})
	}

	expense, err := h.coordinator.Submit(ctx, result)
	if err != nil {
		h.logger.Error("Failed to add expense", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to add expense",
		})
	}

	return c.JSON(http.StatusCreated, CreateExpenseResponse{
		Expense:         expense,
		TranscribedText: voiceText,
		Message:         "Expense added successfully",
	})
}

// submitText runs a transcript through a text-input session with
// auto-submit, answering 201 once stored or 200 with the result held for
// review when no amount was found.
func (h *Handler) submitText(c echo.Context) error {
	var req TextExpenseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	ctx := c.Request().Context()
	session := usecase.NewTextInputSession(h.coordinator, h.logger, usecase.SessionOptions{})
	if err := session.SubmitTranscript(ctx, req.Text); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "empty_transcript",
			Message: err.Error(),
		})
	}

	snapshot, err := session.Wait(ctx)
	if err != nil {
		return c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Error:   "timeout",
			Message: err.Error(),
		})
	}

	switch {
	case snapshot.Phase.Terminal():
		return c.JSON(http.StatusCreated, snapshot)
	case snapshot.Error != "":
		return c.JSON(http.StatusInternalServerError, snapshot)
	default:
		return c.JSON(http.StatusOK, snapshot)
	}
}

func (h *Handler) expenseStats(c echo.Context) error {
	since := entities.RecentSince(time.Now(), h.recentWindow)
	stats, err := h.expenses.Stats(c.Request().Context(), since)
	if err != nil {
		h.logger.Error("Failed to fetch stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "stats_failed",
			Message: "Failed to fetch statistics",
		})
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) deleteExpense(c echo.Context) error {
	id := c.Param("id")
	err := h.expenses.Delete(c.Request().Context(), id)
	switch {
	case errors.Is(err, entities.ErrExpenseNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Expense not found",
		})
	case err != nil:
		h.logger.Error("Failed to delete expense", zap.String("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "delete_failed",
			Message: "Failed to delete expense",
		})
	}

	h.logger.Info("Expense deleted", zap.String("id", id))
	if h.notifier != nil {
		go h.notifier.NotifyExpensesChanged(nil)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Expense deleted successfully"})
}

func (h *Handler) transcribe(c echo.Context) error {
	var req TranscribeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.AudioData == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Audio data is required",
		})
	}

	text, status, resp := h.transcribeBase64(c.Request().Context(), req.AudioData, req.AudioFormat)
	if resp != nil {
		return c.JSON(status, resp)
	}

	result := extraction.Extract(text)
	return c.JSON(http.StatusOK, TranscribeResponse{
		TranscribedText: result.Description,
		Amount:          result.Amount,
		Category:        result.Category,
	})
}

// transcribeBase64 returns the transcript, or the status and body to answer with
func (h *Handler) transcribeBase64(ctx context.Context, data string, format AudioFormat) (string, int, *ErrorResponse) {
	if h.stt == nil {
		return "", http.StatusServiceUnavailable, &ErrorResponse{
			Error:   "speech_unavailable",
			Message: "Speech transcription is not configured",
		}
	}

	audio, err := base64.StdEncoding.DecodeString(data)
	if err != nil || len(audio) == 0 {
		return "", http.StatusBadRequest, &ErrorResponse{
			Error:   "invalid_audio",
			Message: "Audio data must be non-empty base64",
		}
	}

	config := h.audio
	if format.Encoding != "" {
		config.Encoding = strings.ToUpper(format.Encoding)
	}
	if format.SampleRate > 0 {
		config.SampleRate = format.SampleRate
	}
	if format.Language != "" {
		config.Language = format.Language
	}

	payload, config, err := encoder.ForConfig(config).Package(audio)
	if err != nil {
		h.logger.Error("Failed to package audio", zap.Error(err))
		return "", http.StatusBadRequest, &ErrorResponse{Error: "invalid_audio", Message: err.Error()}
	}

	text, err := h.stt.TranscribeAudio(ctx, payload, config)
	if err != nil {
		h.logger.Error("Failed to transcribe audio", zap.Error(err))
		return "", http.StatusBadGateway, &ErrorResponse{
			Error:   "transcription_failed",
			Message: "Failed to transcribe audio",
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", http.StatusBadRequest, &ErrorResponse{
			Error:   "no_speech",
			Message: entities.ErrUnintelligibleAudio.Error(),
		}
	}

	h.logger.Info("Transcribed audio", zap.String("text", text))
	return text, 0, nil
}
