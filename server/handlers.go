package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/poiesic/docchat"
	"github.com/poiesic/docchat/conversation"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/ingestion"
)

// SessionService is the part of docchat.Session the API needs.
type SessionService interface {
	Submit(ctx context.Context, files []core.File) (*ingestion.Batch, error)
	Ask(ctx context.Context, question string) (core.ChatTurn, error)
	Clear(ctx context.Context) error
	Snapshot(ctx context.Context) (docchat.Snapshot, error)
	Ready() bool
}

var _ SessionService = (*docchat.Session)(nil)

type documentsResponse struct {
	Files   []core.FileRecord `json:"files"`
	Ready   bool              `json:"ready"`
	Message string            `json:"message,omitempty"`
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Reply core.ChatTurn   `json:"reply"`
	Turns []core.ChatTurn `json:"turns"`
}

// handleSubmitDocuments ingests the multipart "files" field as a new batch.
func (s *Server) handleSubmitDocuments(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("expected a multipart form", err)
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return NewBadRequestError("no files provided", nil)
	}

	files := make([]core.File, 0, len(headers))
	for _, fh := range headers {
		file, err := readFormFile(fh)
		if err != nil {
			return NewBadRequestError(fmt.Sprintf("cannot read %s", fh.Filename), err)
		}
		files = append(files, file)
	}

	ctx := c.Request().Context()
	batch, err := s.session.Submit(ctx, files)
	switch {
	case errors.Is(err, ingestion.ErrNoDocumentsProcessed):
		return c.JSON(http.StatusUnprocessableEntity, documentsResponse{
			Files:   batch.Records,
			Message: docchat.BatchFailureMessage,
		})
	case errors.Is(err, docchat.ErrBusy):
		return NewConflictError("documents are still being processed", err)
	case errors.Is(err, docchat.ErrBatchDiscarded):
		return NewConflictError("the session was cleared while processing", err)
	case err != nil:
		return NewInternalError("failed to process documents", err)
	}

	return c.JSON(http.StatusOK, documentsResponse{
		Files: batch.Records,
		Ready: s.session.Ready(),
	})
}

func readFormFile(fh *multipart.FileHeader) (core.File, error) {
	src, err := fh.Open()
	if err != nil {
		return core.File{}, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return core.File{}, err
	}
	return core.File{Name: fh.Filename, Data: data}, nil
}

// handleAsk asks one question and returns the reply with the full history.
func (s *Server) handleAsk(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	// A client disconnect must not abort an inference already dispatched.
	ctx := context.WithoutCancel(c.Request().Context())
	reply, err := s.session.Ask(ctx, req.Question)
	switch {
	case errors.Is(err, conversation.ErrQuestionRejected):
		return NewConflictError(rejectionMessage(err), err)
	case errors.Is(err, conversation.ErrReplyDiscarded):
		return NewConflictError("the conversation was reset before the reply arrived", err)
	case err != nil:
		return NewInternalError("failed to ask question", err)
	}

	snap, err := s.session.Snapshot(ctx)
	if err != nil {
		return NewInternalError("failed to read history", err)
	}
	return c.JSON(http.StatusOK, askResponse{Reply: reply, Turns: snap.Turns})
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, conversation.ErrNoContext):
		return "upload documents before asking questions"
	case errors.Is(err, conversation.ErrAwaitingReply):
		return "wait for the previous answer"
	case errors.Is(err, conversation.ErrBlankQuestion):
		return "question must not be blank"
	}
	return strings.TrimSpace(err.Error())
}

// handleGetSession returns the files, turns and flags of the session.
func (s *Server) handleGetSession(c echo.Context) error {
	snap, err := s.session.Snapshot(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to read session", err)
	}
	return c.JSON(http.StatusOK, snap)
}

// handleClearSession drops documents and chat.
func (s *Server) handleClearSession(c echo.Context) error {
	if err := s.session.Clear(c.Request().Context()); err != nil {
		return NewInternalError("failed to clear session", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleHealth returns server health status
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
