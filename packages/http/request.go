package http

// Request is one fully resolved request: interpolation has already happened
// and the headers hold final wire values. ContentType is carried next to the
// body rather than inside Headers so exactly one Content-Type goes out,
// bound to the payload.
type Request struct {
	Method      string
	URL         string
	Headers     map[string]string
	Body        string
	ContentType string
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Headers: make(map[string]string),
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

func (r *Request) SetBody(body, contentType string) *Request {
	r.Body = body
	r.ContentType = contentType
	return r
}
