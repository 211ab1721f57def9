// Command treelai-lambda serves document translations as an AWS Lambda function.
//
// The event payload is the same envelope accepted by POST /v1/translate.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/ZaguanLabs/treelai"
	"github.com/ZaguanLabs/treelai/internal/backend"
	"github.com/ZaguanLabs/treelai/internal/config"
	"github.com/ZaguanLabs/treelai/internal/logging"
	"github.com/ZaguanLabs/treelai/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(
		logging.WithLevel(level),
		logging.WithFormat(logging.Format(cfg.Log.Format)),
		logging.WithAttr(slog.String("service", treelai.Name+"-lambda")),
	)

	b, err := backend.New(ctx, cfg, backend.WithLogger(logger))
	if err != nil {
		logger.Error("building backend", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	translatorOpts := append(cfg.TranslatorOptions(), treelai.WithLogger(logger))
	h := &handler{
		translator: treelai.NewTranslator(b.Leaf, translatorOpts...),
		logger:     logger,
		warmer:     newSelfWarmer(),
	}

	lambda.Start(h.handleRequest)
}

type handler struct {
	translator *treelai.Translator
	logger     *slog.Logger
	warmer     *selfWarmer
}

// handleRequest answers warmup pings first and translates everything else.
// Translation failures are reported in the response body, not as Lambda
// errors, so that callers can tell a bad document from a broken function.
func (h *handler) handleRequest(ctx context.Context, event json.RawMessage) (any, error) {
	if warmup, ok := IsWarmupEvent(event); ok {
		return h.warmer.HandleWarmup(ctx, warmup)
	}

	var req server.TranslateRequest
	if err := json.Unmarshal(event, &req); err != nil {
		return server.ErrorResponse{
			Error: "event is not a valid translate request: " + err.Error(),
			Kind:  "InvalidRequest",
		}, nil
	}

	result, err := h.translator.Translate(ctx, req.Request())
	if err != nil {
		h.logger.WarnContext(ctx, "document translation failed", "error", err)
		return errorResponse(err), nil
	}

	return server.NewTranslateResponse(result), nil
}

func errorResponse(err error) server.ErrorResponse {
	resp := server.ErrorResponse{Error: err.Error()}

	var validationErr *treelai.ValidationError
	var leafErr *treelai.LeafError
	switch {
	case treelai.IsClientError(err):
		resp.Kind = string(treelai.KindOf(err))
		if errors.As(err, &validationErr) {
			resp.Path = validationErr.Path
		}
	case errors.As(err, &leafErr):
		resp.Kind = server.LeafTranslationFailure
		resp.Path = leafErr.Path
	case errors.Is(err, context.DeadlineExceeded):
		resp.Kind = "Timeout"
	}

	return resp
}
