package push

import "time"

// Subscription is one browser push endpoint. Endpoint is the natural key.
type Subscription struct {
	ID        int64     `json:"-"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats are cumulative delivery counters, shared by every server
// instance because they live in the store, not in process memory.
type Stats struct {
	TotalSubscriptions int        `json:"totalSubscriptions"`
	TotalSent          int64      `json:"notificationsSent"`
	Successful         int64      `json:"successful"`
	Failed             int64      `json:"failed"`
	LastSent           *time.Time `json:"lastNotificationSent"`
}

// SubscribeRequest mirrors the browser PushSubscription JSON.
// swagger:model SubscribeRequest
type SubscribeRequest struct {
	Subscription *struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	} `json:"subscription"`
}

// SendRequest is the admin broadcast payload. When Endpoint is set the
// notification goes to that single subscription only.
// swagger:model SendRequest
type SendRequest struct {
	Title    string `json:"title"    example:"Nuevos ingresos"`
	Body     string `json:"body"     example:"Llegaron novedades a la tienda"`
	Endpoint string `json:"endpoint,omitempty"`
}
