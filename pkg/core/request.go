package core

// Request is an exchange-neutral description of a REST call before it is
// signed and dispatched.
type Request struct {
	Operation   Operation         `json:"operation"`
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Query       *Params           `json:"-"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequireAuth bool              `json:"require_auth"`
}

func NewRequest(op Operation, method, path string) *Request {
	return &Request{
		Operation: op,
		Method:    method,
		Path:      path,
		Query:     NewParams(),
		Headers:   make(map[string]string),
	}
}

func (r *Request) SetQuery(key, value string) *Request {
	if r.Query == nil {
		r.Query = NewParams()
	}
	r.Query.Set(key, value)
	return r
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

func (r *Request) SetRequireAuth(require bool) *Request {
	r.RequireAuth = require
	return r
}

// SetQueryParams appends every parameter from params that is not already set,
// preserving params' order.
func (r *Request) SetQueryParams(params *Params) *Request {
	if r.Query == nil {
		r.Query = NewParams()
	}
	r.Query.Merge(params)
	return r
}

// URL returns path with the encoded query appended, for unsigned requests.
func (r *Request) URL(baseURL string) string {
	if r.Query.Len() == 0 {
		return baseURL + r.Path
	}
	return baseURL + r.Path + "?" + r.Query.Encode()
}
