package discord

import (
	"encoding/json"
	"fmt"
)

// Activity is the rich-presence object accepted by SET_ACTIVITY.
type Activity struct {
	Details    string      `json:"details,omitempty"`
	State      string      `json:"state,omitempty"`
	Timestamps *Timestamps `json:"timestamps,omitempty"`
	Assets     *Assets     `json:"assets,omitempty"`
}

// Timestamps holds Unix seconds.
type Timestamps struct {
	Start int64 `json:"start,omitempty"`
}

type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
}

type handshake struct {
	V        int    `json:"v"`
	ClientID string `json:"client_id"`
}

type command struct {
	Cmd   string `json:"cmd"`
	Args  any    `json:"args,omitempty"`
	Nonce string `json:"nonce,omitempty"`
}

type activityArgs struct {
	PID      int       `json:"pid"`
	Activity *Activity `json:"activity"`
}

type response struct {
	Cmd   string          `json:"cmd"`
	Evt   string          `json:"evt"`
	Nonce string          `json:"nonce"`
	Data  json.RawMessage `json:"data"`
}

// ResponseError is an ERROR event or CLOSE frame sent by the Discord client.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("discord error %d: %s", e.Code, e.Message)
}

const (
	cmdDispatch    = "DISPATCH"
	cmdSetActivity = "SET_ACTIVITY"
	evtReady       = "READY"
	evtError       = "ERROR"
)

func decodeError(data []byte) *ResponseError {
	var re ResponseError
	if err := json.Unmarshal(data, &re); err != nil || (re.Code == 0 && re.Message == "") {
		return &ResponseError{Message: string(data)}
	}
	return &re
}
