package request

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/lbcore/internal/server"
)

// Request is a carrier for one unit of work to be routed to a backend.
// The payload is opaque to the load balancer. ClientIP is the client
// identifier used by affinity strategies; extracting it is the embedder's
// concern.
type Request struct {
	ID        string
	Method    string
	Path      string
	ClientIP  string
	Timestamp time.Time
	Payload   any
}

// New creates a request with a generated id and the current timestamp.
func New(method, path, clientIP string, payload any) *Request {
	return &Request{
		ID:        uuid.NewString(),
		Method:    method,
		Path:      path,
		ClientIP:  clientIP,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

func (r *Request) String() string {
	return fmt.Sprintf("Request{id=%s, method=%s, path=%s}", r.ID, r.Method, r.Path)
}

// Response carries the outcome of routing a request. Server is nil exactly
// when StatusCode signals that no backend was available.
type Response struct {
	RequestID      string
	StatusCode     int
	Data           any
	Server         *server.Server
	ProcessingTime time.Duration
}

func (r *Response) String() string {
	source := "none"
	if r.Server != nil {
		source = r.Server.ID()
	}
	return fmt.Sprintf("Response{requestId=%s, statusCode=%d, sourceServer=%s, processingTime=%s}",
		r.RequestID, r.StatusCode, source, r.ProcessingTime)
}
