package httpapi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driving"
	"github.com/custodia-labs/vpm/internal/logger"
)

type analyzeScopeRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Mode    string `json:"mode"`
}

type analyzeFrameworkRequest struct {
	Scope    json.RawMessage `json:"scope"`
	RawInput string          `json:"raw_input"`
	Mode     string          `json:"mode"`
}

type feedbackRequest struct {
	Scope     json.RawMessage `json:"scope"`
	Framework json.RawMessage `json:"framework"`
	Record    json.RawMessage `json:"record"`
	Feedback  string          `json:"feedback"`
}

type exampleRequest struct {
	ID       string `json:"id"`
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Client   string `json:"client"`
}

type matchRequest struct {
	Text string `json:"text"`
}

type mergeRequest struct {
	A json.RawMessage `json:"a"`
	B json.RawMessage `json:"b"`
}

type evaluateRequest struct {
	Generated string `json:"generated"`
	Expected  string `json:"expected"`
	Input     string `json:"input"`
}

func (s *Server) handleRoot(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": AppName + " is online"})
}

func (s *Server) handleAnalyzeScope(c fiber.Ctx) error {
	var body analyzeScopeRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c)
	}
	logger.Debug("analyze scope %q (%d chars)", body.Title, len(body.Content))

	rec, err := s.ports.Generation.GenerateRecord(c.Context(), driving.GenerateRequest{
		Schema:   domain.SchemaScope,
		RawInput: body.Content,
		Mode:     domain.GenerationMode(body.Mode),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rec)
}

func (s *Server) handleAnalyzeFramework(c fiber.Ctx) error {
	var body analyzeFrameworkRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c)
	}

	var hint string
	if len(body.Scope) > 0 && string(body.Scope) != "null" {
		scope, err := domain.DecodeRecord(domain.SchemaScope, body.Scope)
		if err != nil {
			return writeError(c, fmt.Errorf("scope: %w", err))
		}
		data, err := domain.EncodeRecord(scope)
		if err != nil {
			return writeError(c, err)
		}
		hint = string(data)
	}

	rec, err := s.ports.Generation.GenerateRecord(c.Context(), driving.GenerateRequest{
		Schema:      domain.SchemaFramework,
		RawInput:    body.RawInput,
		ContextHint: hint,
		Mode:        domain.GenerationMode(body.Mode),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rec)
}

func (s *Server) handleIngestFeedback(c fiber.Ctx) error {
	if s.ports.Knowledge == nil {
		return writeError(c, domain.ErrVectorIndexUnavailable)
	}
	var body feedbackRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c)
	}
	if strings.TrimSpace(body.Feedback) == "" {
		return writeError(c, fmt.Errorf("%w: feedback is empty", domain.ErrInvalidInput))
	}

	var (
		id  string
		err error
	)
	switch {
	case present(body.Scope) && present(body.Framework):
		id, err = s.ports.Knowledge.IndexReviewFeedback(c.Context(), string(body.Scope), string(body.Framework), body.Feedback)
	case present(body.Record):
		id, err = s.ports.Knowledge.IndexFeedback(c.Context(), string(body.Record), body.Feedback)
	default:
		err = fmt.Errorf("%w: provide record, or scope and framework", domain.ErrInvalidInput)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "message": "Feedback indexed", "id": id})
}

func (s *Server) handleIngestExample(c fiber.Ctx) error {
	if s.ports.Knowledge == nil {
		return writeError(c, domain.ErrVectorIndexUnavailable)
	}
	var body exampleRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c)
	}

	id, err := s.ports.Knowledge.AddExample(c.Context(), body.ID, body.Input, body.Expected, body.Client)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "id": id})
}

func (s *Server) handleMatch(c fiber.Ctx) error {
	if s.ports.Knowledge == nil {
		return writeError(c, domain.ErrVectorIndexUnavailable)
	}
	var body matchRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c)
	}

	match, err := s.ports.Knowledge.FindBestHistoricalMatch(c.Context(), body.Text)
	if err != nil {
		return writeError(c, err)
	}
	if match == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "reference store is empty"})
	}
	return c.JSON(match)
}

func (s *Server) handleMerge(c fiber.Ctx) error {
	schema, err := domain.ParseSchema(c.Params("schema"))
	if err != nil {
		return writeError(c, err)
	}
	var body mergeRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c)
	}

	a, err := domain.DecodeRecord(schema, body.A)
	if err != nil {
		return writeError(c, fmt.Errorf("record a: %w", err))
	}
	b, err := domain.DecodeRecord(schema, body.B)
	if err != nil {
		return writeError(c, fmt.Errorf("record b: %w", err))
	}

	merged, err := s.ports.Generation.MergeRecords(a, b)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(merged)
}

func (s *Server) handleQuality(c fiber.Ctx) error {
	schema, err := domain.ParseSchema(c.Params("schema"))
	if err != nil {
		return writeError(c, err)
	}
	rec, err := domain.DecodeRecord(schema, c.Body())
	if err != nil {
		return writeError(c, err)
	}
	report, err := domain.AssessRecord(rec)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

func (s *Server) handleEvaluate(c fiber.Ctx) error {
	if s.ports.Evaluation == nil {
		return writeError(c, domain.ErrEmbeddingUnavailable)
	}
	var body evaluateRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c)
	}

	if body.Expected != "" {
		res, err := s.ports.Evaluation.Evaluate(c.Context(), body.Generated, body.Expected)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"found": true, "result": res})
	}
	if body.Input == "" {
		return writeError(c, fmt.Errorf("%w: provide expected or input", domain.ErrInvalidInput))
	}

	res, found, err := s.ports.Evaluation.EvaluateAgainstReference(c.Context(), body.Input, body.Generated)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"found": found, "result": res})
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
