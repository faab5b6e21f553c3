package captcha

import (
	"context"
	"os"
)

// defaultMinScore is applied to reCAPTCHA v3 requests that do not set one.
const defaultMinScore = 0.7

// Request describes one captcha challenge. Build it with one of the New*
// constructors; a Request is immutable once constructed.
type Request struct {
	Kind Kind

	// ImagePath and ImageURL are the image challenge sources. Exactly one
	// is required; when both are set, ImagePath takes precedence and
	// ImageURL is ignored.
	ImagePath string
	ImageURL  string

	// SiteKey and PageURL identify token challenges (reCAPTCHA, hCaptcha).
	SiteKey string
	PageURL string

	// Action and MinScore apply to reCAPTCHA v3 only. A zero MinScore
	// means the default of 0.7.
	Action   string
	MinScore float64
}

// NewImage builds an image-to-text challenge from a local file path and/or
// a remote image URL.
func NewImage(path, url string) Request {
	return Request{Kind: KindImage, ImagePath: path, ImageURL: url}
}

// NewRecaptchaV2 builds a reCAPTCHA v2 challenge.
func NewRecaptchaV2(siteKey, pageURL string) Request {
	return Request{Kind: KindRecaptchaV2, SiteKey: siteKey, PageURL: pageURL}
}

// NewRecaptchaV3 builds a reCAPTCHA v3 challenge. action is the expected
// page action; minScore may be zero to use the default.
func NewRecaptchaV3(siteKey, pageURL, action string, minScore float64) Request {
	return Request{Kind: KindRecaptchaV3, SiteKey: siteKey, PageURL: pageURL, Action: action, MinScore: minScore}
}

// NewHCaptcha builds an hCaptcha challenge.
func NewHCaptcha(siteKey, pageURL string) Request {
	return Request{Kind: KindHCaptcha, SiteKey: siteKey, PageURL: pageURL}
}

// minScore resolves the effective reCAPTCHA v3 minimum score.
func (r Request) minScore() float64 {
	if r.MinScore == 0 {
		return defaultMinScore
	}
	return r.MinScore
}

// imageData resolves the raw image payload for an image challenge.
// ImagePath wins over ImageURL when both are set; with neither set the
// request fails with ErrMissingImageSource.
func (r Request) imageData(ctx context.Context, api *apiClient, backend string) ([]byte, error) {
	switch {
	case r.ImagePath != "":
		data, err := os.ReadFile(r.ImagePath)
		if err != nil {
			return nil, backendErr(backend, ErrSubmission, err, "read image file")
		}
		return data, nil
	case r.ImageURL != "":
		return api.getBytes(ctx, backend, r.ImageURL)
	default:
		return nil, backendErr(backend, ErrMissingImageSource, nil, "")
	}
}
