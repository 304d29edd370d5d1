package tracking

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/matst80/slask-tyres/pkg/messaging"
)

const trackingTopic messaging.ChangeTopic = "tracking"

type RabbitTracking struct {
	dataset string
	send    func(data any) error
}

func NewRabbitTracking(pub *messaging.Publisher, dataset string) (*RabbitTracking, error) {
	if err := pub.Declare(trackingTopic); err != nil {
		return nil, err
	}
	return &RabbitTracking{
		dataset: dataset,
		send: func(data any) error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pub.Publish(ctx, trackingTopic, data)
		},
	}, nil
}

func (rt *RabbitTracking) TrackSearch(sessionId string, params map[string]string, resultLen int, page int, r *http.Request) {
	if err := rt.send(newSearchEvent(rt.dataset, sessionId, params, resultLen, page, r)); err != nil {
		log.Println("Error sending search event: ", err)
	}
}

func (rt *RabbitTracking) TrackSuggest(sessionId string, query string, resultLen int) {
	if err := rt.send(newSuggestEvent(rt.dataset, sessionId, query, resultLen)); err != nil {
		log.Println("Error sending suggest event: ", err)
	}
}
