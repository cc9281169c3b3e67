package client

import (
	"context"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/billing-client/internal/http"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// joinPath builds a resource path from a collection and escaped segments.
func joinPath(collection string, segments ...string) string {
	var builder strings.Builder

	builder.WriteString(collection)

	for _, segment := range segments {
		builder.WriteString("/")
		builder.WriteString(url.PathEscape(segment))
	}

	return builder.String()
}

func requireID(values ...string) error {
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			return billing.ErrIDRequired
		}
	}

	return nil
}

func fetchList[T any](ctx context.Context, httpClient *http.Client, path string) ([]T, error) {
	list, err := http.Fetch[[]T](ctx, httpClient, &http.Request{
		Method: nethttp.MethodGet,
		Path:   path,
	})
	if err != nil {
		return nil, err
	}

	if list == nil {
		list = []T{}
	}

	return list, nil
}

func fetchOne[T any](ctx context.Context, httpClient *http.Client, path string) (*T, error) {
	return send[T](ctx, httpClient, nethttp.MethodGet, path, nil)
}

func send[T any](ctx context.Context, httpClient *http.Client, method, path string, body interface{}) (*T, error) {
	result, err := http.Fetch[*T](ctx, httpClient, &http.Request{
		Method: method,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	if result == nil {
		result = new(T)
	}

	return result, nil
}

func remove(ctx context.Context, httpClient *http.Client, path string) error {
	_, err := httpClient.Delete(ctx, path)

	return err
}
