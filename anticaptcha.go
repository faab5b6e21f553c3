package captcha

import (
	"context"
	"encoding/base64"
	"strconv"
)

const antiCaptchaBaseURL = "https://api.anti-captcha.com"

// antiCaptcha talks to the anti-captcha.com JSON task API: createTask,
// getTaskResult and getBalance, all POSTs with an {errorId,
// errorDescription} envelope.
type antiCaptcha struct {
	apiKey  string
	baseURL string
	api     *apiClient
}

func newAntiCaptcha(apiKey string, api *apiClient) *antiCaptcha {
	return &antiCaptcha{apiKey: apiKey, baseURL: antiCaptchaBaseURL, api: api}
}

func (a *antiCaptcha) Name() string { return ServiceAntiCaptcha }

// solutionFields is the extraction order for solution payloads: plain
// text first, then the reCAPTCHA response token, then a generic token.
// A payload with none of these means the service changed its response
// shape and must not pass as an empty solution.
var solutionFields = []string{"text", "gRecaptchaResponse", "token"}

func extractSolution(backend string, solution map[string]any) (string, error) {
	for _, field := range solutionFields {
		if s, ok := solution[field].(string); ok && s != "" {
			return s, nil
		}
	}
	return "", backendErr(backend, ErrUnknownSolutionFormat, nil, "no known solution field")
}

func (a *antiCaptcha) Submit(ctx context.Context, req Request) (JobHandle, error) {
	var task map[string]any
	switch req.Kind {
	case KindImage:
		data, err := req.imageData(ctx, a.api, a.Name())
		if err != nil {
			return "", err
		}
		task = map[string]any{
			"type": "ImageToTextTask",
			"body": base64.StdEncoding.EncodeToString(data),
		}
	case KindRecaptchaV2:
		task = map[string]any{
			"type":       "RecaptchaV2TaskProxyless",
			"websiteURL": req.PageURL,
			"websiteKey": req.SiteKey,
		}
	case KindRecaptchaV3:
		task = map[string]any{
			"type":       "RecaptchaV3TaskProxyless",
			"websiteURL": req.PageURL,
			"websiteKey": req.SiteKey,
			"minScore":   req.minScore(),
			"pageAction": req.Action,
		}
	case KindHCaptcha:
		task = map[string]any{
			"type":       "HCaptchaTaskProxyless",
			"websiteURL": req.PageURL,
			"websiteKey": req.SiteKey,
		}
	default:
		return "", backendErr(a.Name(), ErrUnsupportedType, nil, "%s", req.Kind)
	}

	payload := map[string]any{"clientKey": a.apiKey, "task": task}
	var resp struct {
		ErrorID          int    `json:"errorId"`
		ErrorDescription string `json:"errorDescription"`
		TaskID           int64  `json:"taskId"`
	}
	if err := a.api.postJSON(ctx, a.Name(), a.baseURL+"/createTask", payload, &resp); err != nil {
		return "", err
	}
	if resp.ErrorID != 0 {
		return "", backendErr(a.Name(), ErrSubmission, nil, "%s", resp.ErrorDescription)
	}
	return JobHandle(strconv.FormatInt(resp.TaskID, 10)), nil
}

func (a *antiCaptcha) Poll(ctx context.Context, handle JobHandle) (PollStatus, error) {
	taskID, err := strconv.ParseInt(string(handle), 10, 64)
	if err != nil {
		return PollStatus{}, backendErr(a.Name(), ErrMalformedResponse, err, "task id %q", handle)
	}

	payload := map[string]any{"clientKey": a.apiKey, "taskId": taskID}
	var resp struct {
		ErrorID          int            `json:"errorId"`
		ErrorDescription string         `json:"errorDescription"`
		Status           string         `json:"status"`
		Solution         map[string]any `json:"solution"`
	}
	if err := a.api.postJSON(ctx, a.Name(), a.baseURL+"/getTaskResult", payload, &resp); err != nil {
		return PollStatus{}, err
	}
	if resp.ErrorID != 0 {
		return PollStatus{}, backendErr(a.Name(), ErrTaskFailed, nil, "%s", resp.ErrorDescription)
	}
	switch resp.Status {
	case "ready":
		solution, err := extractSolution(a.Name(), resp.Solution)
		if err != nil {
			return PollStatus{}, err
		}
		return PollStatus{State: StateReady, Solution: solution}, nil
	case "processing":
		return PollStatus{State: StatePending}, nil
	default:
		return PollStatus{}, backendErr(a.Name(), ErrMalformedResponse, nil, "unexpected status %q", resp.Status)
	}
}

func (a *antiCaptcha) Balance(ctx context.Context) (float64, error) {
	payload := map[string]any{"clientKey": a.apiKey}
	var resp struct {
		ErrorID          int     `json:"errorId"`
		ErrorDescription string  `json:"errorDescription"`
		Balance          float64 `json:"balance"`
	}
	if err := a.api.postJSON(ctx, a.Name(), a.baseURL+"/getBalance", payload, &resp); err != nil {
		return 0, backendErr(a.Name(), ErrBalance, err, "")
	}
	if resp.ErrorID != 0 {
		return 0, backendErr(a.Name(), ErrBalance, nil, "%s", resp.ErrorDescription)
	}
	return resp.Balance, nil
}
