package push

import (
	"context"
	"encoding/json"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	log "github.com/sirupsen/logrus"

	"github.com/libroverso/libreria-api/internal/metrics"
)

type payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Badge string `json:"badge"`
	Data  struct {
		URL       string `json:"url"`
		Timestamp int64  `json:"timestamp"`
	} `json:"data"`
}

// Sender delivers Web Push notifications with VAPID authentication.
type Sender struct {
	Repo            Repository
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subject         string
}

func NewSender(repo Repository, publicKey, privateKey, subject string) *Sender {
	return &Sender{
		Repo:            repo,
		VAPIDPublicKey:  publicKey,
		VAPIDPrivateKey: privateKey,
		Subject:         subject,
	}
}

func buildPayload(title, body string) []byte {
	p := payload{
		Title: title,
		Body:  body,
		Icon:  "/icon-192.png",
		Badge: "/icon-192.png",
	}
	if p.Body == "" {
		p.Body = "Nueva notificación de la tienda"
	}
	p.Data.URL = "/"
	p.Data.Timestamp = time.Now().UnixMilli()
	b, _ := json.Marshal(p)
	return b
}

func (s *Sender) send(sub *Subscription, msg []byte) error {
	res, err := webpush.SendNotification(msg, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
	}, &webpush.Options{
		Subscriber:      s.Subject,
		VAPIDPublicKey:  s.VAPIDPublicKey,
		VAPIDPrivateKey: s.VAPIDPrivateKey,
		TTL:             60,
	})
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == 404 || res.StatusCode == 410 {
		return errGone
	}
	return nil
}

var errGone = &goneError{}

type goneError struct{}

func (*goneError) Error() string { return "subscription gone" }

// SendTo delivers a single notification to one subscription.
func (s *Sender) SendTo(ctx context.Context, sub *Subscription, title, body string) error {
	err := s.send(sub, buildPayload(title, body))
	if err == errGone {
		// the push service told us the endpoint no longer exists
		_ = s.Repo.Remove(ctx, sub.Endpoint)
	}
	if err != nil {
		metrics.PushDeliveries.WithLabelValues("failed").Inc()
		_ = s.Repo.RecordDelivery(ctx, 0, 1)
		return err
	}
	metrics.PushDeliveries.WithLabelValues("success").Inc()
	return s.Repo.RecordDelivery(ctx, 1, 0)
}

// Broadcast sends the notification to every stored subscription,
// pruning endpoints the push service reports as gone.
func (s *Sender) Broadcast(ctx context.Context, title, body string) (sent, failed int, err error) {
	subs, err := s.Repo.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	msg := buildPayload(title, body)

	for i := range subs {
		if err := s.send(&subs[i], msg); err != nil {
			failed++
			metrics.PushDeliveries.WithLabelValues("failed").Inc()
			if err == errGone {
				_ = s.Repo.Remove(ctx, subs[i].Endpoint)
				log.WithField("endpoint", subs[i].Endpoint).Info("pruned gone push subscription")
				continue
			}
			log.WithError(err).WithField("endpoint", subs[i].Endpoint).Warn("push delivery failed")
			continue
		}
		sent++
		metrics.PushDeliveries.WithLabelValues("success").Inc()
	}

	if err := s.Repo.RecordDelivery(ctx, sent, failed); err != nil {
		log.WithError(err).Warn("could not record push delivery stats")
	}
	return sent, failed, nil
}
