package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/libroverso/libreria-api/internal/httpx"
	"github.com/libroverso/libreria-api/internal/push"
)

// broadcaster is the slice of push.Sender the send endpoint needs;
// tests stub it.
type broadcaster interface {
	Broadcast(ctx context.Context, title, body string) (sent, failed int, err error)
	SendTo(ctx context.Context, sub *push.Subscription, title, body string) error
}

func pushPublicKeyHandler(publicKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"publicKey": publicKey})
	}
}

func pushSubscribeHandler(repo push.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req push.SubscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Subscription == nil || req.Subscription.Endpoint == "" {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "Subscription is required"))
			return
		}
		sub := &push.Subscription{
			Endpoint: req.Subscription.Endpoint,
			P256dh:   req.Subscription.Keys.P256dh,
			Auth:     req.Subscription.Keys.Auth,
		}
		if err := repo.Save(c.Request.Context(), sub); err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":      "Subscription successful",
			"subscription": sub,
		})
	}
}

func pushUnsubscribeHandler(repo push.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req push.SubscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Subscription == nil || req.Subscription.Endpoint == "" {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "Subscription is required"))
			return
		}
		if err := repo.Remove(c.Request.Context(), req.Subscription.Endpoint); err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Subscription removed successfully"})
	}
}

func pushStatsHandler(repo push.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := repo.Stats(c.Request.Context())
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		subs, err := repo.List(c.Request.Context())
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"totalSubscriptions":   stats.TotalSubscriptions,
			"activeSubscriptions":  stats.TotalSubscriptions,
			"notificationsSent":    stats.TotalSent,
			"successful":           stats.Successful,
			"failed":               stats.Failed,
			"lastNotificationSent": stats.LastSent,
			"systemStatus":         "active",
			"subscriptions":        subs,
		})
	}
}

func pushSendHandler(sender broadcaster, repo push.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req push.SendRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "Title is required"))
			return
		}

		if req.Endpoint != "" {
			sub, err := repo.Get(c.Request.Context(), req.Endpoint)
			if err != nil {
				httpx.WriteError(c, httpx.E(httpx.KindNotFound, "Subscription not found"))
				return
			}
			if err := sender.SendTo(c.Request.Context(), sub, req.Title, req.Body); err != nil {
				log.WithError(err).Warn("push send failed")
				httpx.WriteError(c, httpx.E(httpx.KindInternal, "Failed to send notification"))
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "Notification sent successfully"})
			return
		}

		sent, failed, err := sender.Broadcast(c.Request.Context(), req.Title, req.Body)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Notification sent successfully",
			"sent":    sent,
			"failed":  failed,
		})
	}
}
