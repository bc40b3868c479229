package natsfeed

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleDecodesSingleAndBatch(t *testing.T) {
	var got []models.GeoPoint
	s := &Subscriber{
		handler: func(p models.GeoPoint) { got = append(got, p) },
		log:     zerolog.Nop(),
	}

	s.handle(&nats.Msg{Subject: "explored.fixes.phone", Data: []byte(`{"lat": 1, "lon": 2}`)})
	s.handle(&nats.Msg{Subject: "explored.fixes.phone", Data: []byte(`[{"lat": 3, "lon": 4}, {"lat": 5, "lon": 6}]`)})
	s.handle(&nats.Msg{Subject: "explored.fixes.phone", Data: []byte(`nope`)})

	assert.Equal(t, []models.GeoPoint{
		models.NewGeoPoint(1, 2),
		models.NewGeoPoint(3, 4),
		models.NewGeoPoint(5, 6),
	}, got)
}

func TestPublisherSubject(t *testing.T) {
	tests := []struct {
		subject string
		want    string
	}{
		{"explored.fixes.>", "explored.fixes.phone"},
		{"explored.fixes", "explored.fixes.phone"},
		{"fixes.>", "fixes.phone"},
	}
	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			p := NewPublisher(nil, tt.subject)
			assert.Equal(t, tt.want, p.Subject("phone"))
		})
	}
}

func TestPublishSubscribe(t *testing.T) {
	url := os.Getenv("EXPLORED_TEST_NATS_URL")
	if url == "" {
		t.Skip("EXPLORED_TEST_NATS_URL not set")
	}

	subConn, err := Connect(url)
	require.NoError(t, err)

	var (
		mu  sync.Mutex
		got []models.GeoPoint
	)
	sub, err := Subscribe(subConn, "explored.test.>", func(p models.GeoPoint) {
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
	}, zerolog.Nop())
	require.NoError(t, err)
	defer sub.Close()
	require.NoError(t, subConn.Flush())

	pubConn, err := Connect(url)
	require.NoError(t, err)
	pub := NewPublisher(pubConn, "explored.test.>")
	defer pub.Close()

	require.NoError(t, pub.Publish("phone", models.NewGeoPoint(45, 10)))
	require.NoError(t, pub.Publish("phone", models.NewGeoPoint(46, 11), models.NewGeoPoint(47, 12)))
	require.NoError(t, pub.Flush())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, 5*time.Second, 10*time.Millisecond)
}
