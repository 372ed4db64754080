package interfaces

import "context"

// Tracer for trace
type Tracer interface {
	Context() context.Context
	SetTag(key string, value interface{})
	InjectRequestHeader(header map[string]string)
	SetError(err error)
	Log(key string, value interface{})
	Finish(additionalTags ...map[string]interface{})
}
