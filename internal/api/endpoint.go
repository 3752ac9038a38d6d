package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Endpoint identifies one server operation as "METHOD /path". Path segments
// wrapped in braces are captures filled from the call parameters by name.
type Endpoint string

// Method returns the HTTP method part of the endpoint, or "" when the
// endpoint is malformed.
func (e Endpoint) Method() string {
	method, _, _ := strings.Cut(string(e), " ")
	return method
}

// PathTemplate returns the path part of the endpoint with captures intact.
func (e Endpoint) PathTemplate() string {
	_, path, _ := strings.Cut(string(e), " ")
	return path
}

func (e Endpoint) parts() (method, path string, err error) {
	method, path, ok := strings.Cut(string(e), " ")
	if !ok || method == "" || !strings.HasPrefix(path, "/") {
		return "", "", fmt.Errorf("malformed endpoint %q", string(e))
	}
	return method, path, nil
}

// Params carries the named values for one call. Values matching a path
// capture fill the URL; the remaining keys become the query string on GET
// requests or the JSON body otherwise.
type Params map[string]any

// buildPath substitutes path captures from p and reports which keys were
// consumed. A capture with no matching key (or a nil value) fails before any
// request is made.
func (e Endpoint) buildPath(p Params) (string, map[string]bool, error) {
	_, template, err := e.parts()
	if err != nil {
		return "", nil, err
	}

	consumed := make(map[string]bool)
	segments := strings.Split(template, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		name := seg[1 : len(seg)-1]
		v, ok := p[name]
		if !ok || v == nil {
			return "", nil, &MissingParamError{Endpoint: e, Param: name}
		}
		segments[i] = url.PathEscape(paramString(v))
		consumed[name] = true
	}
	return strings.Join(segments, "/"), consumed, nil
}

// encodeQuery renders the non-capture keys of p as a query string. Slice
// values repeat the key once per element; nil values are dropped. Keys are
// emitted in sorted order.
func encodeQuery(p Params, consumed map[string]bool) string {
	if len(p) == 0 {
		return ""
	}
	values := url.Values{}
	for key, v := range p {
		if consumed[key] || v == nil {
			continue
		}
		switch vv := v.(type) {
		case []string:
			for _, item := range vv {
				values.Add(key, item)
			}
		case []any:
			for _, item := range vv {
				if item != nil {
					values.Add(key, paramString(item))
				}
			}
		default:
			values.Add(key, paramString(v))
		}
	}
	return values.Encode()
}

// bodyParams returns a copy of p without the keys consumed by path captures.
func bodyParams(p Params, consumed map[string]bool) Params {
	body := make(Params, len(p))
	for key, v := range p {
		if !consumed[key] {
			body[key] = v
		}
	}
	return body
}

func paramString(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case fmt.Stringer:
		return vv.String()
	case int:
		return strconv.Itoa(vv)
	case int64:
		return strconv.FormatInt(vv, 10)
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(vv)
	default:
		return fmt.Sprintf("%v", vv)
	}
}
