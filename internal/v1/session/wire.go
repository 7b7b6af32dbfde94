// Package session - wire.go
//
// JSON wire format for the chat socket. Client frames are a tagged union
// discriminated by a "type" field; server frames are an Ok/Err envelope whose
// Ok side carries exactly one payload variant. The discriminator strings are
// load-bearing: deployed clients match on them literally.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// wireTimeLayout renders a naive UTC datetime with no zone suffix. Fractional
// seconds appear only when nonzero.
const wireTimeLayout = "2006-01-02T15:04:05.999999999"

// Timestamp serializes as a naive UTC datetime, e.g.
// "2025-06-01T12:00:00.123456789".
type Timestamp time.Time

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(wireTimeLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(wireTimeLayout, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// MessageRequest asks the session to persist one chat message and fan it out
// to the other members of the room. The uuid is client-generated and is the
// canonical message identifier across the wire, history, and read receipts.
type MessageRequest struct {
	UUID    uuid.UUID `json:"uuid"`
	RoomID  int64     `json:"room_id"`
	Content string    `json:"content"`
}

// MessagesReadRequest flips the read flag on the listed messages and fans the
// receipt out to the other members of the room.
type MessagesReadRequest struct {
	RoomID       int64       `json:"room_id"`
	MessageUUIDs []uuid.UUID `json:"message_uuids"`
}

// ParseRequest decodes a client text frame by its "type" discriminator.
func ParseRequest(data []byte) (any, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch probe.Type {
	case "Message":
		var req MessageRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, err
		}
		return req, nil
	case "MessagesRead":
		var req MessagesReadRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, err
		}
		return req, nil
	default:
		return nil, fmt.Errorf("unknown request type %q", probe.Type)
	}
}

// ErrorCode is the wire tag of an error response.
type ErrorCode string

const (
	ErrWrongFormat     ErrorCode = "WrongFormat"
	ErrUserNotFound    ErrorCode = "UserNotFound"
	ErrNotMemberOfRoom ErrorCode = "NotMemberOfRoom"
	ErrFatal           ErrorCode = "Fatal"
)

// MessagePayload is a chat message delivered to a live recipient. CreatedAt
// is the fan-out timestamp; the persisted row's created_at is authoritative
// when the client reloads history.
type MessagePayload struct {
	UUID      uuid.UUID `json:"uuid"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"created_at"`
	Read      bool      `json:"read"`
}

// OkPayload holds exactly one of the success variants.
type OkPayload struct {
	Message         *MessagePayload      `json:"Message,omitempty"`
	MessageReceived *uuid.UUID           `json:"MessageReceived,omitempty"`
	MessagesRead    *MessagesReadRequest `json:"MessagesRead,omitempty"`
}

// Response is a server-to-client frame: {"Ok":{...}} or {"Err":"<tag>"}.
type Response struct {
	Ok  *OkPayload `json:"Ok,omitempty"`
	Err ErrorCode  `json:"Err,omitempty"`
}

func okMessage(p MessagePayload) Response {
	return Response{Ok: &OkPayload{Message: &p}}
}

func okMessageReceived(id uuid.UUID) Response {
	return Response{Ok: &OkPayload{MessageReceived: &id}}
}

func okMessagesRead(req MessagesReadRequest) Response {
	return Response{Ok: &OkPayload{MessagesRead: &req}}
}

func errResponse(code ErrorCode) Response {
	return Response{Err: code}
}
