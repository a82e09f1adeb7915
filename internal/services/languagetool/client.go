// Package languagetool talks to a LanguageTool server's /v2/check endpoint
// and applies its suggested corrections to transcript text.
package languagetool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"scribe/internal/config"
	langpkg "scribe/internal/language"
	"scribe/internal/logging"
	"scribe/internal/refiner"
)

const defaultTimeout = 30 * time.Second

// checkCodes maps ISO 639-1 codes to the regional variants LanguageTool
// expects. Codes without an entry are passed through unchanged.
var checkCodes = map[string]string{
	"en": "en-US",
	"de": "de-DE",
	"pt": "pt-PT",
}

// Client is a LanguageTool HTTP API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := defaultTimeout
	if cfg.LanguageTool.Timeout > 0 {
		timeout = time.Duration(cfg.LanguageTool.Timeout) * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.LanguageTool.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(logging.String(logging.FieldComponent, "languagetool")),
	}
}

// CorrectorFactory adapts the client to the refiner's per-language registry.
// Languages that cannot be checked (auto, unparseable) yield a nil corrector,
// which the refiner treats as pass-through.
func (c *Client) CorrectorFactory() refiner.CorrectorFactory {
	return func(language string) (refiner.GrammarCorrector, error) {
		code := langpkg.Normalize(language)
		if code == "" || code == langpkg.Auto {
			return nil, nil
		}
		if mapped, ok := checkCodes[code]; ok {
			code = mapped
		}
		return &corrector{client: c, code: code}, nil
	}
}

// corrector binds the client to one language.
type corrector struct {
	client *Client
	code   string
}

func (c *corrector) Correct(ctx context.Context, text string) (refiner.GrammarResult, error) {
	matches, err := c.client.check(ctx, text, c.code)
	if err != nil {
		return refiner.GrammarResult{}, err
	}

	result := refiner.GrammarResult{Text: applyMatches(text, matches)}
	runes := []rune(text)
	for _, match := range matches {
		original := ""
		if match.Offset >= 0 && match.Offset+match.Length <= len(runes) {
			original = string(runes[match.Offset : match.Offset+match.Length])
		}
		replacement := ""
		if len(match.Replacements) > 0 {
			replacement = match.Replacements[0].Value
		}
		result.Corrections = append(result.Corrections, refiner.Correction{
			Original:    original,
			Replacement: replacement,
			Message:     match.Message,
			Rule:        match.Rule.ID,
		})
	}
	return result, nil
}

type replacement struct {
	Value string `json:"value"`
}

type matchRule struct {
	ID string `json:"id"`
}

type match struct {
	Message      string        `json:"message"`
	Offset       int           `json:"offset"`
	Length       int           `json:"length"`
	Replacements []replacement `json:"replacements"`
	Rule         matchRule     `json:"rule"`
}

type checkResponse struct {
	Matches []match `json:"matches"`
}

func (c *Client) check(ctx context.Context, text, code string) ([]match, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("language", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/check", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build check request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("languagetool request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("languagetool returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parse check response: %w", err)
	}
	return payload.Matches, nil
}

// applyMatches rewrites text with the first suggested replacement of each
// match. Matches without replacements and matches overlapping an already
// applied one are skipped. Offsets are interpreted over runes.
func applyMatches(text string, matches []match) string {
	if len(matches) == 0 {
		return text
	}

	ordered := make([]match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Offset < ordered[j].Offset })

	runes := []rune(text)
	var out strings.Builder
	pos := 0
	for _, m := range ordered {
		if len(m.Replacements) == 0 {
			continue
		}
		if m.Offset < pos || m.Offset+m.Length > len(runes) {
			continue
		}
		out.WriteString(string(runes[pos:m.Offset]))
		out.WriteString(m.Replacements[0].Value)
		pos = m.Offset + m.Length
	}
	out.WriteString(string(runes[pos:]))
	return out.String()
}
