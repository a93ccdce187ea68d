package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gesture_lock/internal/gesture"
	"github.com/relabs-tech/gesture_lock/internal/lock"
	"github.com/relabs-tech/gesture_lock/internal/timeutil"
)

var t0 = time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

type fakeToken struct{ err error }

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.msgs = append(p.msgs, published{topic, qos, retained, payload.([]byte)})
	return &fakeToken{err: p.err}
}

func newMockLock(t *testing.T, clock *timeutil.MockClock) (*lock.Controller, *gesture.MockSensor) {
	t.Helper()
	sensor := gesture.NewMockSensor(clock)
	ctrl, err := lock.New(lock.Options{Params: gesture.DefaultParams(), Sensor: sensor, Clock: clock})
	require.NoError(t, err)
	return ctrl, sensor
}

func TestMQTTReporter_PublishesEventAndRetainedStatus(t *testing.T) {
	clock := timeutil.NewMockClock(t0)
	ctrl, _ := newMockLock(t, clock)
	pub := &fakePublisher{}
	ctrl.AddObserver(newMQTTReporter(pub, "lock/events", "lock/status"))

	require.Equal(t, lock.OutcomeRecorded, ctrl.RecordGesture())

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, "lock/events", pub.msgs[0].topic)
	assert.False(t, pub.msgs[0].retained)
	assert.Equal(t, "lock/status", pub.msgs[1].topic)
	assert.True(t, pub.msgs[1].retained)

	var ev lock.Event
	require.NoError(t, json.Unmarshal(pub.msgs[0].payload, &ev))
	assert.Equal(t, lock.OutcomeRecorded, ev.Outcome)
	assert.Equal(t, lock.Locked, ev.State)
	assert.Equal(t, 50, ev.Samples)

	var st lock.Status
	require.NoError(t, json.Unmarshal(pub.msgs[1].payload, &st))
	assert.Equal(t, 50, st.TemplateLength)
}

func TestMQTTReporter_PublishErrorIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	rep := newMQTTReporter(pub, "e", "s")

	rep.PublishStatus(lock.Status{State: lock.Unlocked})
	assert.Len(t, pub.msgs, 1)
}

type heldControls struct{ left, right, on bool }

func (c heldControls) Left() bool  { return c.left }
func (c heldControls) Right() bool { return c.right }
func (c heldControls) On() bool    { return c.on }

func TestRunLoop_StepsOnTickUntilCancelled(t *testing.T) {
	clock := timeutil.NewMockClock(t0)
	ctrl, _ := newMockLock(t, clock)

	ctx, cancel := context.WithCancel(context.Background())
	tick := make(chan time.Time)
	done := make(chan struct{})
	go func() {
		defer close(done)
		runLoop(ctx, ctrl, heldControls{left: true}, tick)
	}()

	tick <- t0
	cancel()
	<-done

	assert.Equal(t, lock.Locked, ctrl.State())
}

type fakeTarget struct {
	draws int
	err   error
}

func (f *fakeTarget) Bounds() image.Rectangle { return image.Rect(0, 0, 128, 64) }
func (f *fakeTarget) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	f.draws++
	return f.err
}

func TestStatusLines(t *testing.T) {
	assert.Equal(t, []string{"Gesture Lock", "State: UNLOCKED", "Tries: 0/3", "No gesture"},
		statusLines(lock.Status{State: lock.Unlocked, MaxAttempts: 3}))

	assert.Equal(t, "Match: 42%",
		statusLines(lock.Status{State: lock.Locked, HasTemplate: true, LastScore: 0.42})[3])

	assert.Equal(t, "Wait: 210s",
		statusLines(lock.Status{State: lock.Lockout, HasTemplate: true, LockoutRemainingMS: 210_400})[3])
}

func TestRenderStatus_DrawsText(t *testing.T) {
	locked := renderStatus(lock.Status{State: lock.Locked, HasTemplate: true, MaxAttempts: 3})
	unlocked := renderStatus(lock.Status{State: lock.Unlocked, MaxAttempts: 3})

	lit := 0
	for _, b := range locked.Pix {
		if b != 0 {
			lit++
		}
	}
	assert.Positive(t, lit)
	assert.NotEqual(t, locked.Pix, unlocked.Pix)
}

func TestStatusDisplay_RedrawsOnEvent(t *testing.T) {
	target := &fakeTarget{}
	d := &statusDisplay{dev: target}

	d.Observe(lock.Event{Outcome: lock.OutcomeRecorded}, lock.Status{State: lock.Locked})
	assert.Equal(t, 1, target.draws)

	target.err = errors.New("i2c: nack")
	d.Show(lock.Status{State: lock.Unlocked})
	assert.Equal(t, 2, target.draws)

	assert.NoError(t, d.Close())
}

func TestConsoleRig_ButtonsAndSwitch(t *testing.T) {
	clock := timeutil.NewMockClock(t0)
	var out bytes.Buffer
	rig, err := newConsoleRig(&out, clock)
	require.NoError(t, err)

	require.True(t, rig.apply("r"))
	rig.ctrl.Step(rig.controls)
	assert.Equal(t, lock.Locked, rig.ctrl.State())
	assert.Contains(t, out.String(), "[ring O.........] [led off] recording")
	assert.Contains(t, out.String(), "System Locked with new gesture")

	// A key press lasts one tick.
	rig.ctrl.Step(rig.controls)
	assert.Equal(t, lock.Locked, rig.ctrl.State())
	assert.Equal(t, 0, rig.ctrl.Attempts())

	rig.apply("f")
	rig.apply("c")
	rig.ctrl.Step(rig.controls)
	assert.Equal(t, 1, rig.ctrl.Attempts())
	assert.Contains(t, out.String(), "mismatch")

	rig.apply("s")
	rig.apply("c")
	rig.ctrl.Step(rig.controls)
	assert.Equal(t, lock.Unlocked, rig.ctrl.State())
	assert.Contains(t, out.String(), "[ring ..........] [led off] matched")

	rig.apply("r")
	rig.ctrl.Step(rig.controls)
	require.Equal(t, lock.Locked, rig.ctrl.State())

	rig.apply("o")
	rig.ctrl.Step(rig.controls)
	assert.Equal(t, lock.Unlocked, rig.ctrl.State())
	assert.Contains(t, out.String(), "override switch on")

	assert.False(t, rig.apply("q"))
}

func TestConsoleRig_RunStopsOnQuit(t *testing.T) {
	var out bytes.Buffer
	rig, err := newConsoleRig(&out, timeutil.NewMockClock(t0))
	require.NoError(t, err)

	err = rig.run(context.Background(), strings.NewReader("p\nq\nr\n"), nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "state=unlocked attempts=0/3")
	assert.Equal(t, lock.Unlocked, rig.ctrl.State())
}

func TestConsoleRing_String(t *testing.T) {
	r := &consoleRing{}
	r.SetPixel(0, 255, 0, 0)
	r.SetPixel(1, 0, 255, 0)
	r.SetPixel(2, 40, 0, 40)
	r.SetPixel(12, 255, 0, 0)
	assert.Equal(t, "RG*.......", r.String())
}

func TestFormatEvent(t *testing.T) {
	line := formatEvent(lock.Event{
		Time:        t0,
		Outcome:     lock.OutcomeMismatch,
		State:       lock.Locked,
		Attempts:    2,
		MaxAttempts: 3,
		Score:       0.5,
		Samples:     50,
	})
	assert.Contains(t, line, "mismatch")
	assert.Contains(t, line, "attempts=2/3")
	assert.Contains(t, line, "score=50.00%")

	line = formatEvent(lock.Event{Outcome: lock.OutcomeCheckRejectedLockout, State: lock.Lockout, LockoutRemainingMS: 61_000})
	assert.Contains(t, line, "lockout=61s")
	assert.NotContains(t, line, "score=")

	assert.Contains(t, formatStatus(lock.Status{State: lock.Lockout, MaxAttempts: 3}), "state=lockout")
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestDashboard_API(t *testing.T) {
	d := newDashboard()
	srv := httptest.NewServer(d.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	d.handleStatus([]byte("{not json"))
	d.handleStatus(mustJSON(t, lock.Status{State: lock.Locked, Attempts: 1, MaxAttempts: 3}))

	resp, err = http.Get(srv.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var st lock.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, lock.Locked, st.State)
	assert.Equal(t, 1, st.Attempts)
}

func TestDashboard_ServesPage(t *testing.T) {
	srv := httptest.NewServer(newDashboard().routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "/ws")

	resp, err = http.Get(srv.URL + "/nothing-here")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDashboard_EventHistoryIsBounded(t *testing.T) {
	d := newDashboard()
	for i := 0; i < maxRecentEvents+10; i++ {
		d.handleEvent(mustJSON(t, lock.Event{Outcome: lock.OutcomeMismatch, Attempts: i}))
	}
	d.handleEvent([]byte("garbage"))

	rec := httptest.NewRecorder()
	d.serveEvents(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	var events []lock.Event
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&events))
	require.Len(t, events, maxRecentEvents)
	assert.Equal(t, 10, events[0].Attempts)
	assert.Equal(t, maxRecentEvents+9, events[len(events)-1].Attempts)
}

func TestDashboard_WebSocketFeed(t *testing.T) {
	d := newDashboard()
	d.handleStatus(mustJSON(t, lock.Status{State: lock.Locked, MaxAttempts: 3}))
	srv := httptest.NewServer(d.routes())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "status", msg.Type)
	require.NotNil(t, msg.Status)
	assert.Equal(t, lock.Locked, msg.Status.State)

	require.Eventually(t, func() bool { return d.hub.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	d.handleEvent(mustJSON(t, lock.Event{Outcome: lock.OutcomeLockoutEntered, State: lock.Lockout}))

	msg = wsMessage{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "event", msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, lock.OutcomeLockoutEntered, msg.Event.Outcome)
}
