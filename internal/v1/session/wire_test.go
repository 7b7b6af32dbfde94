package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUUID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func TestParseRequestMessage(t *testing.T) {
	frame := `{"type":"Message","uuid":"11111111-1111-1111-1111-111111111111","room_id":7,"content":"hi"}`

	req, err := ParseRequest([]byte(frame))
	require.NoError(t, err)

	msg, ok := req.(MessageRequest)
	require.True(t, ok)
	assert.Equal(t, testUUID, msg.UUID)
	assert.Equal(t, int64(7), msg.RoomID)
	assert.Equal(t, "hi", msg.Content)
}

func TestParseRequestMessagesRead(t *testing.T) {
	frame := `{"type":"MessagesRead","room_id":7,"message_uuids":["11111111-1111-1111-1111-111111111111"]}`

	req, err := ParseRequest([]byte(frame))
	require.NoError(t, err)

	read, ok := req.(MessagesReadRequest)
	require.True(t, ok)
	assert.Equal(t, int64(7), read.RoomID)
	assert.Equal(t, []uuid.UUID{testUUID}, read.MessageUUIDs)
}

func TestParseRequestRejects(t *testing.T) {
	cases := map[string]string{
		"not json":      `hello`,
		"not an object": `"hello"`,
		"unknown type":  `{"type":"Ping"}`,
		"missing type":  `{"room_id":7}`,
		"bad uuid":      `{"type":"Message","uuid":"not-a-uuid","room_id":7,"content":"hi"}`,
		"bad uuid list": `{"type":"MessagesRead","room_id":7,"message_uuids":["nope"]}`,
	}

	for name, frame := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRequest([]byte(frame))
			assert.Error(t, err)
		})
	}
}

func TestResponseEncoding(t *testing.T) {
	ts := Timestamp(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	cases := []struct {
		name string
		resp Response
		want string
	}{
		{
			name: "error",
			resp: errResponse(ErrWrongFormat),
			want: `{"Err":"WrongFormat"}`,
		},
		{
			name: "message received",
			resp: okMessageReceived(testUUID),
			want: `{"Ok":{"MessageReceived":"11111111-1111-1111-1111-111111111111"}}`,
		},
		{
			name: "message delivery",
			resp: okMessage(MessagePayload{
				UUID:      testUUID,
				UserID:    1,
				Content:   "hi",
				CreatedAt: ts,
				Read:      false,
			}),
			want: `{"Ok":{"Message":{"uuid":"11111111-1111-1111-1111-111111111111","user_id":1,"content":"hi","created_at":"2025-06-01T12:00:00","read":false}}}`,
		},
		{
			name: "messages read",
			resp: okMessagesRead(MessagesReadRequest{RoomID: 7, MessageUUIDs: []uuid.UUID{testUUID}}),
			want: `{"Ok":{"MessagesRead":{"room_id":7,"message_uuids":["11111111-1111-1111-1111-111111111111"]}}}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.resp)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(data))
		})
	}
}

// Timestamps are naive UTC with the fraction omitted when zero.
func TestTimestampFormat(t *testing.T) {
	whole := Timestamp(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	data, err := json.Marshal(whole)
	require.NoError(t, err)
	assert.Equal(t, `"2025-06-01T12:00:00"`, string(data))

	millis := Timestamp(time.Date(2025, 6, 1, 12, 0, 0, 125_000_000, time.UTC))
	data, err = json.Marshal(millis)
	require.NoError(t, err)
	assert.Equal(t, `"2025-06-01T12:00:00.125"`, string(data))
}

func TestTimestampRoundTrip(t *testing.T) {
	orig := Timestamp(time.Date(2025, 6, 1, 12, 0, 0, 125_000_000, time.UTC))
	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var back Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, time.Time(orig).Equal(time.Time(back)))
}
