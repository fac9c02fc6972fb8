package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/proofr/notifier/pkg/mailer"
	"github.com/proofr/notifier/pkg/templates"
)

// DevEmailHandler sends a rendered template straight through the delivery
// client, bypassing the queue. It exists for template iteration during
// development and must not be routed in production.
type DevEmailHandler struct {
	registry *templates.Registry
	sender   mailer.Sender
	log      *slog.Logger
}

// NewDevEmailHandler creates the development send endpoint.
func NewDevEmailHandler(registry *templates.Registry, sender mailer.Sender, log *slog.Logger) *DevEmailHandler {
	if log == nil {
		log = slog.Default()
	}
	return &DevEmailHandler{registry: registry, sender: sender, log: log}
}

type devEmailRequest struct {
	To           string         `json:"to"`
	TemplateID   string         `json:"template_id"`
	TemplateData map[string]any `json:"template_data"`
}

// Send handles POST. The template rendering path is the same one the
// processor uses, so what you see here is what queued mail will look like.
func (h *DevEmailHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req devEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.To == "" || req.TemplateID == "" {
		writeError(w, http.StatusBadRequest, "to and template_id are required")
		return
	}

	tpl := h.registry.Load(r.Context(), req.TemplateID)
	if valid, missing := templates.Validate(tpl, req.TemplateData); !valid {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "missing template variables",
			"missing": missing,
		})
		return
	}

	msg := mailer.Message{
		To:      []string{req.To},
		Subject: h.registry.Render(tpl.Subject, req.TemplateData),
		Tags:    []string{"dev_test"},
	}
	if tpl.HTMLTemplate != "" {
		msg.HTMLBody = h.registry.Render(tpl.HTMLTemplate, req.TemplateData)
	}
	if tpl.TextTemplate != "" {
		msg.TextBody = h.registry.Render(tpl.TextTemplate, req.TemplateData)
	}

	res := h.sender.Send(r.Context(), msg)
	if !res.Success {
		writeJSON(w, http.StatusBadGateway, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
