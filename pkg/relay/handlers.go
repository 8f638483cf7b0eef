package relay

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"

	"github.com/teslashibe/go-analyst/pkg/protocol"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleSessions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"sessions": s.sessions.list(),
		"count":    s.sessions.count(),
	})
}

// handleSearch proxies to Tavily /search. Identical requests within the
// cache TTL are answered from memory.
func (s *Server) handleSearch(c *fiber.Ctx) error {
	if s.config.TavilyAPIKey == "" {
		return detail(c, fiber.StatusInternalServerError, notConfigured("TAVILY_API_KEY"))
	}

	var req protocol.SearchRequest
	if err := protocol.Unmarshal(c.Body(), &req); err != nil {
		return detail(c, fiber.StatusBadRequest, errInvalidBody.Error())
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return detail(c, fiber.StatusBadRequest, errEmptyQuery.Error())
	}
	req = req.WithDefaults()

	key, err := protocol.Marshal(req)
	if err != nil {
		return err
	}
	if cached, ok := s.searches.Get(string(key)); ok {
		s.metrics.CacheHits.Inc()
		return rawJSON(c, cached.([]byte))
	}

	body, err := s.tavily.post(c.UserContext(), "/search", req)
	if err != nil {
		return s.upstreamFailure(c, "tavily", err)
	}
	s.searches.Set(string(key), body, cache.DefaultExpiration)
	s.logger.Debug("search proxied", "query", req.Query)
	return rawJSON(c, body)
}

// handleScrape proxies to Firecrawl /v1/scrape, always asking for markdown.
func (s *Server) handleScrape(c *fiber.Ctx) error {
	if s.config.FirecrawlAPIKey == "" {
		return detail(c, fiber.StatusInternalServerError, notConfigured("FIRECRAWL_API_KEY"))
	}

	var req protocol.ScrapeRequest
	if err := protocol.Unmarshal(c.Body(), &req); err != nil {
		return detail(c, fiber.StatusBadRequest, errInvalidBody.Error())
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return detail(c, fiber.StatusBadRequest, errEmptyURL.Error())
	}
	req.Formats = []string{"markdown"}

	body, err := s.firecrawl.post(c.UserContext(), "/v1/scrape", req)
	if err != nil {
		return s.upstreamFailure(c, "firecrawl", err)
	}
	return rawJSON(c, body)
}

func (s *Server) handleGenerate(c *fiber.Ctx) error {
	if s.generator == nil {
		return detail(c, fiber.StatusInternalServerError, notConfigured("GOOGLE_API_KEY"))
	}

	var req protocol.GenerateRequest
	if err := protocol.Unmarshal(c.Body(), &req); err != nil {
		return detail(c, fiber.StatusBadRequest, errInvalidBody.Error())
	}
	contents, err := protocol.NormalizeContents(req.Contents)
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid contents format: "+err.Error())
	}
	model := req.Model
	if model == "" {
		model = protocol.DefaultGenerateModel
	}

	text, err := s.generator.Generate(c.UserContext(), GenerateCall{
		Model:             model,
		Contents:          contents,
		Tools:             req.Tools,
		Config:            req.GenerationConfig,
		SystemInstruction: req.SystemInstruction,
	})
	if errors.Is(err, errInvalidBody) {
		return detail(c, fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return s.upstreamFailure(c, "gemini", err)
	}
	return c.JSON(protocol.GenerateResponse{Text: text})
}

// upstreamFailure forwards upstream status codes; transport failures map
// to 502.
func (s *Server) upstreamFailure(c *fiber.Ctx, provider string, err error) error {
	s.metrics.UpstreamErrors.WithLabelValues(provider).Inc()
	if ue, ok := IsUpstreamError(err); ok && ue.StatusCode >= 400 {
		s.logger.Warn("upstream error", "provider", provider, "status", ue.StatusCode)
		return detail(c, ue.StatusCode, ue.Detail)
	}
	s.logger.Error("upstream request failed", "provider", provider, "error", err)
	return detail(c, fiber.StatusBadGateway, err.Error())
}

func detail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(protocol.ErrorResponse{Detail: msg})
}

func rawJSON(c *fiber.Ctx, body []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}
