package web

import (
	"log/slog"
	"net/http"

	"github.com/evcraddock/rent-finder/internal/email"
	"github.com/evcraddock/rent-finder/internal/inquiry"
	"github.com/evcraddock/rent-finder/internal/property"
)

// handleCreateInquiry stores a message for the listing's agent. Anonymous
// senders are allowed. The agent is emailed when SMTP is configured.
func (s *Server) handleCreateInquiry(w http.ResponseWriter, r *http.Request) {
	var q inquiry.Inquiry
	if !decodeBody(w, r, &q) {
		return
	}
	if err := q.Validate(); err != nil {
		apiFail(w, err, "inquiry")
		return
	}

	p, err := s.properties.GetByID(q.PropertyID)
	if err != nil {
		apiFail(w, err, "property")
		return
	}
	q.AgentID = p.OwnerID
	q.SenderID = ""
	if c := claims(r); c != nil {
		q.SenderID = c.UserID
	}

	created, err := s.inquiries.Add(&q)
	if err != nil {
		apiFail(w, err, "sending inquiry")
		return
	}

	s.forwardInquiry(created, p)
	apiData(w, created, http.StatusCreated)
}

func (s *Server) forwardInquiry(q *inquiry.Inquiry, p *property.Property) {
	if s.config.DevMode || !s.config.SMTP.IsConfigured() {
		return
	}
	agent, err := s.users.GetByID(q.AgentID)
	if err != nil {
		slog.Error("looking up agent", "agent", q.AgentID, "err", err)
		return
	}

	body := email.FormatInquiry(q, p, s.config.BaseURL)
	if err := s.sendEmail(s.config.SMTP, []string{agent.Email}, "Rent Finder: inquiry about "+p.Title, body); err != nil {
		slog.Error("forwarding inquiry", "inquiry", q.ID, "err", err)
		return
	}
	slog.Info("inquiry forwarded", "inquiry", q.ID, "agent", agent.ID)
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	list, err := s.inquiries.ListByAgent(claims(r).UserID)
	if err != nil {
		apiFail(w, err, "listing inquiries")
		return
	}
	apiData(w, list, http.StatusOK)
}

func (s *Server) handleSentInquiries(w http.ResponseWriter, r *http.Request) {
	list, err := s.inquiries.ListBySender(claims(r).UserID)
	if err != nil {
		apiFail(w, err, "listing inquiries")
		return
	}
	apiData(w, list, http.StatusOK)
}
