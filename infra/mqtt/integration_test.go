package mqtt

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/kgc/core/events"
	"github.com/kilianp07/kgc/core/schedule"
)

// TestIntegration publishes a retained update through a real Mosquitto broker.
func TestIntegration(t *testing.T) {
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:1.6",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %v", err)
		}
	}()

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}
	brokerURL := fmt.Sprintf("tcp://%s:%s", host, port.Port())

	var cli *PahoClient
	for i := 0; i < 5; i++ {
		cli, err = NewPahoClient(Config{Broker: brokerURL, ClientID: "kgc-it", TopicPrefix: "it", QoS: 1})
		if err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer cli.Disconnect()

	snap := schedule.NewSnapshot([]schedule.Record{{League: "Alpha"}}, time.Now())
	n := NewNotifier(cli, "it", nil)
	if err := n.Notify(events.ScheduleLoaded{Snapshot: snap, Stats: schedule.ComputeStats(snap.Merged)}); err != nil {
		t.Fatalf("notify: %v", err)
	}

	// the update is retained, a late subscriber still receives it
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(brokerURL).SetClientID("kgc-it-sub"))
	if tok := sub.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscriber connect: %v", tok.Error())
	}
	defer sub.Disconnect(100)
	msgCh := make(chan []byte, 1)
	tok := sub.Subscribe(n.UpdatedTopic(), 1, func(_ paho.Client, m paho.Message) {
		select {
		case msgCh <- m.Payload():
		default:
		}
	})
	if tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}
	select {
	case got := <-msgCh:
		if len(got) == 0 {
			t.Fatal("empty payload")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for retained message")
	}
}
