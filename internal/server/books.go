package server

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gracebooks/gracebooks/internal/accounts"
	"github.com/gracebooks/gracebooks/internal/closing"
	"github.com/gracebooks/gracebooks/internal/model"
	"github.com/gracebooks/gracebooks/internal/store"
)

func (s *Server) registerBooks(r *gin.RouterGroup) {
	r.GET("/accounts", s.listAccounts)
	r.POST("/accounts", s.addAccount)
	r.PUT("/accounts/:id", s.updateAccount)
	r.DELETE("/accounts/:id", s.deleteAccount)

	r.GET("/entries", s.listEntries)
	r.POST("/entries", s.addEntry)
	r.PUT("/entries/:id", s.updateEntry)
	r.DELETE("/entries/:id", s.deleteEntry)

	r.GET("/closing/months", s.closingMonths)
	r.POST("/closing", s.closeMonth)
}

// active returns the active profile's data or writes the error response.
func (s *Server) active(c *gin.Context) (*model.ProfileData, bool) {
	_, d, err := s.store.Active()
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return d, true
}

func bind(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) listAccounts(c *gin.Context) {
	d, ok := s.active(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, accounts.NewRegistry(d.Accounts).Sorted())
}

func (s *Server) addAccount(c *gin.Context) {
	var a model.Account
	if err := bind(c, &a); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.store.Do(c.Request.Context(), &store.AddAccount{Account: a}); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *Server) updateAccount(c *gin.Context) {
	var a model.Account
	if err := bind(c, &a); err != nil {
		s.fail(c, err)
		return
	}
	a.ID = c.Param("id")
	if err := s.store.Do(c.Request.Context(), &store.UpdateAccount{Account: a}); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) deleteAccount(c *gin.Context) {
	if err := s.store.Do(c.Request.Context(), &store.DeleteAccount{ID: c.Param("id")}); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listEntries filters by ?month=YYYY-MM, ?from=, ?to= and ?account=.
func (s *Server) listEntries(c *gin.Context) {
	d, ok := s.active(c)
	if !ok {
		return
	}
	month := c.Query("month")
	from, to := c.Query("from"), c.Query("to")
	account := c.Query("account")

	out := make([]model.JournalEntry, 0, len(d.JournalEntries))
	for _, e := range d.JournalEntries {
		if month != "" && e.Month() != month {
			continue
		}
		if from != "" && e.Date < from || to != "" && e.Date > to {
			continue
		}
		if account != "" && !touches(e, account) {
			continue
		}
		out = append(out, e)
	}
	c.JSON(http.StatusOK, out)
}

func touches(e model.JournalEntry, prefix string) bool {
	for _, l := range e.Lines {
		if strings.HasPrefix(l.AccountID, prefix) {
			return true
		}
	}
	return false
}

func (s *Server) addEntry(c *gin.Context) {
	var e model.JournalEntry
	if err := bind(c, &e); err != nil {
		s.fail(c, err)
		return
	}
	cmd := &store.AddEntry{Entry: e}
	if err := s.store.Do(c.Request.Context(), cmd); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cmd.Result)
}

func (s *Server) updateEntry(c *gin.Context) {
	var e model.JournalEntry
	if err := bind(c, &e); err != nil {
		s.fail(c, err)
		return
	}
	e.ID = c.Param("id")
	cmd := &store.UpdateEntry{Entry: e}
	if err := s.store.Do(c.Request.Context(), cmd); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cmd.Result)
}

func (s *Server) deleteEntry(c *gin.Context) {
	if err := s.store.Do(c.Request.Context(), &store.DeleteEntry{ID: c.Param("id")}); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) closingMonths(c *gin.Context) {
	d, ok := s.active(c)
	if !ok {
		return
	}
	closed := make([]string, 0)
	for m := range closing.ClosedMonths(d.JournalEntries) {
		closed = append(closed, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(closed)))
	available := closing.AvailableMonths(d.JournalEntries)
	if available == nil {
		available = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"closed": closed, "available": available})
}

type closeRequest struct {
	Month string `json:"month" binding:"required"`
}

func (s *Server) closeMonth(c *gin.Context) {
	var req closeRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if _, _, err := model.ParseMonth(req.Month); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	cmd := &store.CloseMonth{Month: req.Month}
	if err := s.store.Do(c.Request.Context(), cmd); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cmd.Result)
}
