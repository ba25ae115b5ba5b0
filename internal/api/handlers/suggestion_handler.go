package handlers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"menus4all-staging-api/internal/models"
)

type SuggestionHandler struct {
	DB         *mongo.Database
	WebhookURL string
	Logger     zerolog.Logger
}

type SuggestionRequest struct {
	RestaurantName string `json:"restaurantName" binding:"required"`
	City           string `json:"city"`
	State          string `json:"state"`
	Website        string `json:"website"`
	SubmitterEmail string `json:"submitterEmail" binding:"omitempty,email"`
	Message        string `json:"message"`
}

// SubmitSuggestion handles the public suggestion form: the submission is
// stored, then forwarded to the notification webhook when one is configured.
// A webhook failure is logged, not surfaced; the stored copy is the record.
func (h *SuggestionHandler) SubmitSuggestion(c *gin.Context) {
	var req SuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suggestion := models.Suggestion{
		ID:             uuid.New().String(),
		RestaurantName: req.RestaurantName,
		City:           req.City,
		State:          req.State,
		Website:        req.Website,
		SubmitterEmail: req.SubmitterEmail,
		Message:        req.Message,
		SubmittedAt:    time.Now().UnixMilli(),
	}

	collection := h.DB.Collection("suggestions")
	if _, err := collection.InsertOne(context.Background(), suggestion); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save suggestion"})
		return
	}

	if h.WebhookURL != "" {
		go h.forwardToWebhook(suggestion)
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "id": suggestion.ID})
}

func (h *SuggestionHandler) forwardToWebhook(s models.Suggestion) {
	form := url.Values{
		"subject":        {"New Menu Suggestion for Menus4ALL"},
		"restaurantName": {s.RestaurantName},
		"city":           {s.City},
		"state":          {s.State},
		"website":        {s.Website},
		"email":          {s.SubmitterEmail},
		"message":        {s.Message},
	}

	resp, err := http.PostForm(h.WebhookURL, form)
	if err != nil {
		h.Logger.Warn().Err(err).Str("suggestionID", s.ID).Msg("failed to forward suggestion to webhook")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		h.Logger.Warn().Int("status", resp.StatusCode).Str("suggestionID", s.ID).
			Msg("suggestion webhook returned non-success status")
	}
}
