package datatruck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/dkchapman16/loadwatch/internal/models"
)

// maxPages ограничивает обход пагинации: next-курсор upstream'а нам не
// подконтролен и может зациклиться.
const maxPages = 10

// ErrNotConfigured — деградация по дизайну: без endpoint/ключа живой фетч
// выключен и вызывающая сторона подставляет fallback-набор.
var ErrNotConfigured = errors.New("datatruck endpoint or api key not configured")

type Client struct {
	endpoint string
	apiKey   string
	httpc    *http.Client
}

func New(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type pageEnvelope struct {
	Results    []RawLoad `json:"results"`
	Data       []RawLoad `json:"data"`
	Loads      []RawLoad `json:"loads"`
	Next       string    `json:"next"`
	Pagination *struct {
		Next string `json:"next"`
	} `json:"pagination"`
}

func (e pageEnvelope) records() []RawLoad {
	switch {
	case e.Results != nil:
		return e.Results
	case e.Data != nil:
		return e.Data
	default:
		return e.Loads
	}
}

func (e pageEnvelope) next() string {
	if e.Next != "" {
		return e.Next
	}
	if e.Pagination != nil {
		return e.Pagination.Next
	}
	return ""
}

// FetchLoads обходит страницы Datatruck (не больше maxPages), нормализуя
// каждую запись. Страницы идут строго последовательно: курсор следующей
// зависит от ответа предыдущей.
func (c *Client) FetchLoads(ctx context.Context) ([]*models.Load, error) {
	if c.endpoint == "" || c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	pageURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "parse endpoint")
	}

	var out []*models.Load
	for page := 0; page < maxPages && pageURL != nil; page++ {
		raws, next, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		for _, r := range raws {
			out = append(out, Normalize(r))
		}

		if next == "" {
			break
		}
		nextURL, err := url.Parse(next)
		if err != nil {
			// Кривой курсор не должен терять уже накопленные страницы.
			slog.Warn("datatruck: malformed next cursor, stopping pagination", "next", next, "error", err.Error())
			break
		}
		pageURL = pageURL.ResolveReference(nextURL)
	}

	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, u *url.URL) ([]RawLoad, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", errors.Wrap(err, "new request")
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, "", errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, "", fmt.Errorf("datatruck http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.Wrap(err, "read body")
	}

	// Ответ бывает голым массивом или конвертом с results/data/loads.
	if isJSONArray(body) {
		var raws []RawLoad
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, "", errors.Wrap(err, "decode page array")
		}
		return raws, "", nil
	}

	var env pageEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, "", errors.Wrap(err, "decode page envelope")
	}
	return env.records(), env.next(), nil
}

func isJSONArray(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '['
}
