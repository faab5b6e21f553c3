package captcha

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"gopkg.in/h2non/gentleman.v2"
	"gopkg.in/h2non/gentleman.v2/plugins/body"
	"gopkg.in/h2non/gentleman.v2/plugins/query"
	"gopkg.in/h2non/gentleman.v2/plugins/timeout"
)

// httpTimeout bounds every single HTTP call to a solving service.
const httpTimeout = 30 * time.Second

// apiClient is the HTTP layer shared by all backends. Gentleman requests
// do not carry a context.Context, so cancellation is checked before each
// call and between poll attempts; the per-call bound is httpTimeout.
type apiClient struct {
	cli *gentleman.Client
}

func newAPIClient() *apiClient {
	cli := gentleman.New()
	cli.Use(timeout.Request(httpTimeout))
	return &apiClient{cli: cli}
}

// getJSON issues a GET with query parameters and decodes a JSON body.
func (a *apiClient) getJSON(ctx context.Context, backend, rawURL string, params url.Values, out any) error {
	req := a.cli.Request().URL(rawURL)
	for key := range params {
		req.Use(query.Set(key, params.Get(key)))
	}
	return a.send(ctx, backend, req, out)
}

// postJSON issues a POST with a JSON payload and decodes a JSON body.
func (a *apiClient) postJSON(ctx context.Context, backend, rawURL string, payload, out any) error {
	req := a.cli.Request().URL(rawURL).Method("POST")
	req.Use(body.JSON(payload))
	return a.send(ctx, backend, req, out)
}

// postForm issues a form-encoded POST and decodes a JSON body.
func (a *apiClient) postForm(ctx context.Context, backend, rawURL string, form url.Values, out any) error {
	req := a.cli.Request().URL(rawURL).Method("POST")
	req.Use(body.String(form.Encode()))
	req.SetHeader("Content-Type", "application/x-www-form-urlencoded")
	return a.send(ctx, backend, req, out)
}

// getBytes fetches a raw resource, used for image-by-URL challenges.
func (a *apiClient) getBytes(ctx context.Context, backend, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := a.cli.Request().URL(rawURL).Send()
	if err != nil {
		return nil, backendErr(backend, ErrTransport, err, "fetch image")
	}
	if !res.Ok {
		return nil, backendErr(backend, ErrTransport, nil, "fetch image: HTTP %d", res.StatusCode)
	}
	return res.Bytes(), nil
}

func (a *apiClient) send(ctx context.Context, backend string, req *gentleman.Request, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := req.Send()
	if err != nil {
		return backendErr(backend, ErrTransport, err, "")
	}
	raw := res.Bytes()
	if !res.Ok {
		return backendErr(backend, ErrTransport, nil, "HTTP %d: %s", res.StatusCode, snippet(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return backendErr(backend, ErrMalformedResponse, err, "%s", snippet(raw))
	}
	return nil
}

func snippet(raw []byte) string {
	if len(raw) > 200 {
		raw = raw[:200]
	}
	return string(raw)
}
