package feishu

import "fmt"

// RemoteError reports a non-success response from the Feishu API. It
// terminates processing of the one event that triggered the call; the
// caller logs and does not retry.
type RemoteError struct {
	Endpoint   string
	StatusCode int
	Code       int
	Msg        string
}

func (e *RemoteError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("feishu API error on %s: status=%d code=%d msg=%s",
			e.Endpoint, e.StatusCode, e.Code, e.Msg)
	}
	return fmt.Sprintf("feishu API error on %s: status=%d", e.Endpoint, e.StatusCode)
}
