package onebot

import (
	"encoding/json"
	"fmt"
)

// APIRequest is the wire shape of an outbound API call.
type APIRequest struct {
	Action string      `json:"action"`
	Params interface{} `json:"params,omitempty"`
	Echo   string      `json:"echo"`
}

// APIResponse is the wire shape of an API result. Retcode 0 means ok;
// retcode 1 means the implementation accepted the call asynchronously
// and the outcome is unknown, which is also treated as success.
type APIResponse struct {
	Status  string          `json:"status"`
	Retcode int64           `json:"retcode"`
	Data    json.RawMessage `json:"data"`
	Echo    string          `json:"echo"`
}

// ActionFailedError reports a non-success retcode from the gateway.
type ActionFailedError struct {
	Action  string
	Retcode int64
	Status  string
}

func (e *ActionFailedError) Error() string {
	return fmt.Sprintf("onebot: action %s failed: status=%s retcode=%d", e.Action, e.Status, e.Retcode)
}

// HandleAPIResult unwraps a raw API result into its data payload,
// returning an ActionFailedError on non-success retcodes.
func HandleAPIResult(action string, raw json.RawMessage) (json.RawMessage, error) {
	var resp APIResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("onebot: malformed api result: %w", err)
	}
	if resp.Retcode != 0 && resp.Retcode != 1 {
		return nil, &ActionFailedError{Action: action, Retcode: resp.Retcode, Status: resp.Status}
	}
	return resp.Data, nil
}
