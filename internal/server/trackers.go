package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gracebooks/gracebooks/internal/model"
	"github.com/gracebooks/gracebooks/internal/store"
	"github.com/gracebooks/gracebooks/internal/tracker"
)

func (s *Server) registerTrackers(r *gin.RouterGroup) {
	g := r.Group("/trackers")
	g.GET("/amortization", s.listAmortization)
	g.POST("/amortization", s.saveAmortization)
	g.POST("/amortization/:id/generate", s.generateAmortization)
	g.GET("/prepayments", s.listPrepayments)
	g.POST("/prepayments/:id/:event", s.settlePrepayment)
	g.GET("/received-payments", s.listReceived)
	g.POST("/received-payments/:id/:event", s.settleReceived)
	g.GET("/cards", s.listCards)
}

func (s *Server) listAmortization(c *gin.Context) {
	d, ok := s.active(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, tracker.AmortizationViews(d.Accounts, d.JournalEntries, d.AmortizationItems, s.store.Config().Trackers))
}

func (s *Server) saveAmortization(c *gin.Context) {
	var item model.AmortizationItem
	if err := bind(c, &item); err != nil {
		s.fail(c, err)
		return
	}
	cmd := &store.SaveAmortization{Item: item}
	if err := s.store.Do(c.Request.Context(), cmd); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cmd.Result)
}

type generateRequest struct {
	Date string `json:"date" binding:"required"`
}

func (s *Server) generateAmortization(c *gin.Context) {
	var req generateRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	cmd := &store.GenerateAmortization{ItemID: c.Param("id"), Date: req.Date}
	if err := s.store.Do(c.Request.Context(), cmd); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cmd.Result)
}

func (s *Server) listPrepayments(c *gin.Context) {
	d, ok := s.active(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, tracker.PrepaymentViews(d.Accounts, d.JournalEntries, d.PrepaymentItems, s.store.Config().Trackers))
}

func (s *Server) settlePrepayment(c *gin.Context) {
	cmd := &store.SettlePrepayment{ID: c.Param("id"), Event: c.Param("event")}
	if err := s.store.Do(c.Request.Context(), cmd); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listReceived(c *gin.Context) {
	d, ok := s.active(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, tracker.ReceivedPaymentViews(d.Accounts, d.JournalEntries, d.ReceivedPaymentItems, s.store.Config().Trackers))
}

func (s *Server) settleReceived(c *gin.Context) {
	cmd := &store.SettleReceivedPayment{ID: c.Param("id"), Event: c.Param("event")}
	if err := s.store.Do(c.Request.Context(), cmd); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listCards(c *gin.Context) {
	d, ok := s.active(c)
	if !ok {
		return
	}
	cards := d.CreditCardLedgers
	if cards == nil {
		cards = []model.CreditCardLedger{}
	}
	c.JSON(http.StatusOK, cards)
}
