package captcha

import (
	"context"
	"encoding/base64"
	"net/url"
	"strconv"
)

const (
	twoCaptchaSubmitURL = "https://2captcha.com/in.php"
	twoCaptchaResultURL = "https://2captcha.com/res.php"

	twoCaptchaNotReady = "CAPCHA_NOT_READY"
)

// twoCaptcha talks to the 2captcha.com query-string API: in.php for
// submission, res.php for results and balance, always with the json=1
// envelope {"status": 0|1, "request": payload-or-error-code}.
type twoCaptcha struct {
	apiKey    string
	submitURL string
	resultURL string
	api       *apiClient
}

func newTwoCaptcha(apiKey string, api *apiClient) *twoCaptcha {
	return &twoCaptcha{
		apiKey:    apiKey,
		submitURL: twoCaptchaSubmitURL,
		resultURL: twoCaptchaResultURL,
		api:       api,
	}
}

func (t *twoCaptcha) Name() string { return ServiceTwoCaptcha }

// twoCaptchaResponse is the json=1 envelope shared by both endpoints.
// On success Request carries the payload (task id, solution, balance);
// on failure it carries an ERROR_* code.
type twoCaptchaResponse struct {
	Status    int    `json:"status"`
	Request   string `json:"request"`
	ErrorText string `json:"error_text"`
}

func (t *twoCaptcha) Submit(ctx context.Context, req Request) (JobHandle, error) {
	form := url.Values{}
	form.Set("key", t.apiKey)
	form.Set("json", "1")

	switch req.Kind {
	case KindImage:
		data, err := req.imageData(ctx, t.api, t.Name())
		if err != nil {
			return "", err
		}
		form.Set("method", "base64")
		form.Set("body", base64.StdEncoding.EncodeToString(data))
	case KindRecaptchaV2:
		form.Set("method", "userrecaptcha")
		form.Set("googlekey", req.SiteKey)
		form.Set("pageurl", req.PageURL)
	case KindRecaptchaV3:
		form.Set("method", "userrecaptcha")
		form.Set("version", "v3")
		form.Set("googlekey", req.SiteKey)
		form.Set("pageurl", req.PageURL)
		form.Set("action", req.Action)
		form.Set("min_score", strconv.FormatFloat(req.minScore(), 'f', -1, 64))
	case KindHCaptcha:
		form.Set("method", "hcaptcha")
		form.Set("sitekey", req.SiteKey)
		form.Set("pageurl", req.PageURL)
	default:
		return "", backendErr(t.Name(), ErrUnsupportedType, nil, "%s", req.Kind)
	}

	var resp twoCaptchaResponse
	if err := t.api.postForm(ctx, t.Name(), t.submitURL, form, &resp); err != nil {
		return "", err
	}
	if resp.Status != 1 {
		return "", backendErr(t.Name(), ErrSubmission, nil, "%s", firstNonEmpty(resp.ErrorText, resp.Request))
	}
	return JobHandle(resp.Request), nil
}

func (t *twoCaptcha) Poll(ctx context.Context, handle JobHandle) (PollStatus, error) {
	params := url.Values{}
	params.Set("key", t.apiKey)
	params.Set("action", "get")
	params.Set("id", string(handle))
	params.Set("json", "1")

	var resp twoCaptchaResponse
	if err := t.api.getJSON(ctx, t.Name(), t.resultURL, params, &resp); err != nil {
		return PollStatus{}, err
	}
	if resp.Status == 1 {
		if resp.Request == "" {
			return PollStatus{}, backendErr(t.Name(), ErrUnknownSolutionFormat, nil, "ready with empty solution")
		}
		return PollStatus{State: StateReady, Solution: resp.Request}, nil
	}
	if resp.Request == twoCaptchaNotReady {
		return PollStatus{State: StatePending}, nil
	}
	return PollStatus{}, backendErr(t.Name(), ErrTaskFailed, nil, "%s", firstNonEmpty(resp.ErrorText, resp.Request))
}

func (t *twoCaptcha) Balance(ctx context.Context) (float64, error) {
	params := url.Values{}
	params.Set("key", t.apiKey)
	params.Set("action", "getbalance")
	params.Set("json", "1")

	var resp twoCaptchaResponse
	if err := t.api.getJSON(ctx, t.Name(), t.resultURL, params, &resp); err != nil {
		return 0, backendErr(t.Name(), ErrBalance, err, "")
	}
	if resp.Status != 1 {
		return 0, backendErr(t.Name(), ErrBalance, nil, "%s", firstNonEmpty(resp.ErrorText, resp.Request))
	}
	amount, err := strconv.ParseFloat(resp.Request, 64)
	if err != nil {
		return 0, backendErr(t.Name(), ErrBalance, err, "parse balance %q", resp.Request)
	}
	return amount, nil
}
