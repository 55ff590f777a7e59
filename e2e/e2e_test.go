//go:build integration

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/haulplan/api/booking"
	"github.com/kilianp07/haulplan/app"
	"github.com/kilianp07/haulplan/config"
	"github.com/kilianp07/haulplan/core/engine"
	"github.com/kilianp07/haulplan/core/fleet"
	"github.com/kilianp07/haulplan/infra/mqtt"
	"github.com/kilianp07/haulplan/infra/store"
)

const (
	influxOrg    = "e2e_org"
	influxBucket = "e2e_bucket"
	influxToken  = "e2e-token"
)

// junitReport is a minimal JUnit XML report so CI can display the run.
type junitReport struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name    string  `xml:"name,attr"`
	Failure *string `xml:"failure,omitempty"`
	Time    float64 `xml:"time,attr"`
}

func writeJUnit(path string, rep junitReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	return enc.Encode(rep)
}

// startInflux starts an InfluxDB 2.7 container initialised with the e2e
// org, bucket and admin token.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return cont, fmt.Sprintf("http://%s:%s", host, port.Port())
}

func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	return cont, fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	return resp
}

// TestBookingFlow books a slot through the HTTP API and checks that the
// commit reaches the MQTT broker and InfluxDB.
func TestBookingFlow(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	started := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	influxCont, influxURL := startInflux(ctx, t)
	defer influxCont.Terminate(ctx) //nolint:errcheck
	mqttCont, broker := startMosquitto(ctx, t)
	defer mqttCont.Terminate(ctx) //nolint:errcheck

	cfg := config.Default()
	cfg.Store.Backend = store.BackendMemory
	cfg.Tides.Offline = true
	cfg.Tides.DataDir = t.TempDir()
	cfg.Metrics.InfluxEnabled = true
	cfg.Metrics.InfluxURL = influxURL
	cfg.Metrics.InfluxToken = influxToken
	cfg.Metrics.InfluxOrg = influxOrg
	cfg.Metrics.InfluxBucket = influxBucket
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker = broker
	cfg.MQTT.ClientID = "haulplan-e2e"
	cfg.MQTT.TopicPrefix = "e2e"
	cfg.MQTT.QoS = 1

	svc, err := app.New(ctx, cfg)
	require.NoError(t, err)
	svc.Start(ctx)
	closed := false
	defer func() {
		if !closed {
			_ = svc.Close()
		}
	}()

	fx, err := fleet.Load("../core/fleet/testdata/yard.yaml")
	require.NoError(t, err)
	_, err = fleet.Apply(ctx, svc.Repo, fx)
	require.NoError(t, err)

	var boatID, rampID int64
	boats, err := svc.Repo.ListBoats(ctx)
	require.NoError(t, err)
	for _, b := range boats {
		if b.Name == "Skiff" {
			boatID = b.ID
		}
	}
	ramps, err := svc.Repo.ListRamps(ctx)
	require.NoError(t, err)
	for _, r := range ramps {
		if r.Name == "Duxbury" {
			rampID = r.ID
		}
	}
	require.NotZero(t, boatID)
	require.NotZero(t, rampID)

	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("e2e-driver"))
	if tok := sub.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscriber connect: %v", tok.Error())
	}
	defer sub.Disconnect(250)
	got := make(chan mqtt.Message, 4)
	tok := sub.Subscribe("e2e/trucks/+/jobs", 1, func(_ paho.Client, m paho.Message) {
		var msg mqtt.Message
		if json.Unmarshal(m.Payload(), &msg) == nil {
			got <- msg
		}
	})
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())

	srv := httptest.NewServer(booking.NewHandler(svc.Engine, svc.Repo, nil))
	defer srv.Close()

	search := booking.SearchRequest{BoatID: boatID, Service: "Launch", Date: "2025-05-06", RampID: rampID}
	resp := postJSON(t, srv.URL+"/api/slots/search", search)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res engine.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	resp.Body.Close()
	require.NotEmpty(t, res.Slots, res.Message)

	resp = postJSON(t, srv.URL+"/api/jobs", booking.BookRequest{Request: search, Slot: res.Slots[0]})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var booked booking.BookResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&booked))
	resp.Body.Close()

	select {
	case msg := <-got:
		assert.Equal(t, "committed", msg.Event)
		assert.Equal(t, booked.JobID, msg.JobID)
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for committed job on MQTT")
	}

	closed = true
	require.NoError(t, svc.Close())

	cli := NewInfluxClient(influxURL, influxOrg, influxBucket, influxToken)
	defer cli.Close()
	for _, m := range []string{"slot_search", "job_commit", "job_state"} {
		n, err := cli.Count(ctx, m)
		require.NoError(t, err)
		assert.Positive(t, n, "no %s points", m)
	}

	rep := junitReport{Name: "e2e", Tests: 1, Cases: []junitTestCase{{Name: t.Name(), Time: time.Since(started).Seconds()}}}
	if err := writeJUnit(filepath.Join(t.TempDir(), "e2e.xml"), rep); err != nil {
		t.Logf("write junit: %v", err)
	}
}
