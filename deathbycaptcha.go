package captcha

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

const deathByCaptchaBaseURL = "https://api.dbcapi.me/api"

// dbc token-captcha type codes.
const (
	dbcTypeRecaptcha = "4"
	dbcTypeHCaptcha  = "7"
)

// deathByCaptcha talks to the deathbycaptcha.com form API. It is the one
// service authenticated with a username:password pair instead of an API
// key, and the one that reports balances in US cents.
type deathByCaptcha struct {
	username string
	password string
	baseURL  string
	api      *apiClient
}

// newDeathByCaptcha splits the combined "username:password" credential.
// A credential missing either part is rejected here, not on first use.
func newDeathByCaptcha(credential string, api *apiClient) (*deathByCaptcha, error) {
	username, password, ok := strings.Cut(credential, ":")
	if !ok || username == "" || password == "" {
		return nil, backendErr(ServiceDeathByCaptcha, ErrBadCredential, nil, "want username:password")
	}
	return &deathByCaptcha{
		username: username,
		password: password,
		baseURL:  deathByCaptchaBaseURL,
		api:      api,
	}, nil
}

func (d *deathByCaptcha) Name() string { return ServiceDeathByCaptcha }

// dbcCaptchaResponse covers both the submit and the poll responses of
// the /captcha endpoints.
type dbcCaptchaResponse struct {
	Captcha   int64  `json:"captcha"`
	IsCorrect bool   `json:"is_correct"`
	Text      string `json:"text"`
	Token     string `json:"token"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
}

func (d *deathByCaptcha) Submit(ctx context.Context, req Request) (JobHandle, error) {
	form := url.Values{}
	form.Set("username", d.username)
	form.Set("password", d.password)

	switch req.Kind {
	case KindImage:
		data, err := req.imageData(ctx, d.api, d.Name())
		if err != nil {
			return "", err
		}
		form.Set("captchafile", base64.StdEncoding.EncodeToString(data))
	case KindRecaptchaV2, KindRecaptchaV3:
		tokenParams := map[string]any{
			"googlekey": req.SiteKey,
			"pageurl":   req.PageURL,
		}
		if req.Kind == KindRecaptchaV3 {
			tokenParams["action"] = req.Action
			tokenParams["min_score"] = req.minScore()
			tokenParams["version"] = "v3"
		}
		raw, err := json.Marshal(tokenParams)
		if err != nil {
			return "", backendErr(d.Name(), ErrSubmission, err, "encode token params")
		}
		form.Set("type", dbcTypeRecaptcha)
		form.Set("token_params", string(raw))
	case KindHCaptcha:
		raw, err := json.Marshal(map[string]string{
			"sitekey": req.SiteKey,
			"pageurl": req.PageURL,
		})
		if err != nil {
			return "", backendErr(d.Name(), ErrSubmission, err, "encode token params")
		}
		form.Set("type", dbcTypeHCaptcha)
		form.Set("token_params", string(raw))
	default:
		return "", backendErr(d.Name(), ErrUnsupportedType, nil, "%s", req.Kind)
	}

	var resp dbcCaptchaResponse
	if err := d.api.postForm(ctx, d.Name(), d.baseURL+"/captcha", form, &resp); err != nil {
		return "", err
	}
	if resp.Captcha == 0 {
		return "", backendErr(d.Name(), ErrSubmission, nil, "%s", resp.Error)
	}
	return JobHandle(strconv.FormatInt(resp.Captcha, 10)), nil
}

func (d *deathByCaptcha) Poll(ctx context.Context, handle JobHandle) (PollStatus, error) {
	params := url.Values{}
	params.Set("username", d.username)
	params.Set("password", d.password)

	var resp dbcCaptchaResponse
	if err := d.api.getJSON(ctx, d.Name(), d.baseURL+"/captcha/"+string(handle), params, &resp); err != nil {
		return PollStatus{}, err
	}
	// Text outranks token, same priority as the other services' solution
	// fields. An unsolved task carries an empty text.
	switch {
	case resp.IsCorrect && resp.Text != "":
		return PollStatus{State: StateReady, Solution: resp.Text}, nil
	case resp.IsCorrect && resp.Token != "":
		return PollStatus{State: StateReady, Solution: resp.Token}, nil
	case resp.Status != 0:
		return PollStatus{}, backendErr(d.Name(), ErrTaskFailed, nil, "%s", resp.Error)
	default:
		return PollStatus{State: StatePending}, nil
	}
}

// Balance reports the account balance. The service returns US cents;
// normalized to dollars here.
func (d *deathByCaptcha) Balance(ctx context.Context) (float64, error) {
	form := url.Values{}
	form.Set("username", d.username)
	form.Set("password", d.password)

	var resp struct {
		Balance json.Number `json:"balance"`
		Error   string      `json:"error"`
	}
	if err := d.api.postForm(ctx, d.Name(), d.baseURL+"/user", form, &resp); err != nil {
		return 0, backendErr(d.Name(), ErrBalance, err, "")
	}
	cents, err := resp.Balance.Float64()
	if err != nil {
		return 0, backendErr(d.Name(), ErrBalance, nil, "%s", firstNonEmpty(resp.Error, "missing balance field"))
	}
	return cents / 100, nil
}
