package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-queue/pkg/logger"
)

func newTestHub() *Hub {
	return NewHub(logger.NewLogger(nil), nil)
}

func client(scope Scope) *Client {
	return &Client{
		ID:    uuid.NewString(),
		Send:  make(chan []byte, 4),
		Scope: scope,
	}
}

func TestBroadcastMatchesScope(t *testing.T) {
	hub := newTestHub()
	hospitalID := uuid.New()
	doctorID := uuid.New()

	doctor := client(Scope{HospitalID: hospitalID, DoctorID: doctorID})
	hospital := client(Scope{HospitalID: hospitalID})
	other := client(Scope{HospitalID: uuid.New()})
	wildcard := client(Scope{})

	for _, c := range []*Client{doctor, hospital, other, wildcard} {
		hub.Register(c)
	}

	hub.Broadcast([]byte("next"), Scope{HospitalID: hospitalID, DoctorID: doctorID})

	assert.Len(t, doctor.Send, 1)
	assert.Len(t, hospital.Send, 1)
	assert.Len(t, other.Send, 0)
	assert.Len(t, wildcard.Send, 1)
}

func TestBroadcastDoctorScopeFiltersOtherDoctors(t *testing.T) {
	hub := newTestHub()
	hospitalID := uuid.New()

	watching := client(Scope{HospitalID: hospitalID, DoctorID: uuid.New()})
	hub.Register(watching)

	hub.Broadcast([]byte("next"), Scope{HospitalID: hospitalID, DoctorID: uuid.New()})
	assert.Len(t, watching.Send, 0)
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := newTestHub()
	slow := &Client{ID: uuid.NewString(), Send: make(chan []byte, 1)}
	hub.Register(slow)

	hub.Broadcast([]byte("a"), Scope{})
	hub.Broadcast([]byte("b"), Scope{})

	// Second frame dropped, the client never blocks the hub.
	assert.Len(t, slow.Send, 1)
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := newTestHub()
	c := client(Scope{})
	hub.Register(c)
	hub.Unregister(c)

	_, open := <-c.Send
	assert.False(t, open)

	// Double unregister must not panic on the closed channel.
	hub.Unregister(c)
}

func TestUpdateScopeRetargets(t *testing.T) {
	hub := newTestHub()
	hospitalA := uuid.New()
	hospitalB := uuid.New()

	c := client(Scope{HospitalID: hospitalA})
	hub.Register(c)
	hub.UpdateScope(c, Scope{HospitalID: hospitalB})

	hub.Broadcast([]byte("x"), Scope{HospitalID: hospitalA})
	assert.Len(t, c.Send, 0)

	hub.Broadcast([]byte("x"), Scope{HospitalID: hospitalB})
	assert.Len(t, c.Send, 1)
}

func TestMuteStopsDeliveryUntilResubscribe(t *testing.T) {
	hub := newTestHub()
	hospitalA := uuid.New()
	hospitalB := uuid.New()

	c := client(Scope{HospitalID: hospitalA})
	hub.Register(c)
	hub.Mute(c)

	// A muted client must not widen to the wildcard scope: events for
	// its own hospital and for other hospitals both stay undelivered.
	hub.Broadcast([]byte("x"), Scope{HospitalID: hospitalA})
	hub.Broadcast([]byte("x"), Scope{HospitalID: hospitalB})
	assert.Len(t, c.Send, 0)

	hub.UpdateScope(c, Scope{HospitalID: hospitalA})
	hub.Broadcast([]byte("x"), Scope{HospitalID: hospitalA})
	assert.Len(t, c.Send, 1)
}

func TestParseSubscribe(t *testing.T) {
	hospitalID := uuid.New()

	msg, ok := ParseSubscribe([]byte(`{"action":"subscribe","hospital_id":"` + hospitalID.String() + `"}`))
	require.True(t, ok)
	assert.Equal(t, hospitalID, msg.HospitalID)

	_, ok = ParseSubscribe([]byte(`{"action":"noop"}`))
	assert.False(t, ok)

	_, ok = ParseSubscribe([]byte(`not json`))
	assert.False(t, ok)
}
