package horizon

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// requestDoer binds one call's context to every request the SDK issues and
// remembers the last status code, so replies without a problem document can
// still be classified.
type requestDoer struct {
	ctx        context.Context
	client     *http.Client
	statusCode int
}

func (doer *requestDoer) Do(request *http.Request) (*http.Response, error) {
	response, err := doer.client.Do(request.WithContext(doer.ctx))
	if response != nil {
		doer.statusCode = response.StatusCode
	}
	return response, err
}

func (doer *requestDoer) Get(target string) (*http.Response, error) {
	request, err := http.NewRequestWithContext(doer.ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	return doer.Do(request)
}

func (doer *requestDoer) PostForm(target string, data url.Values) (*http.Response, error) {
	request, err := http.NewRequestWithContext(doer.ctx, http.MethodPost, target, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return doer.Do(request)
}
