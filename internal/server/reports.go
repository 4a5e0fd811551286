package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gracebooks/gracebooks/internal/report"
)

func (s *Server) registerReports(r *gin.RouterGroup) {
	g := r.Group("/reports")
	g.GET("/balance-sheet", s.balanceSheet)
	g.GET("/income-statement", s.incomeStatement)
	g.GET("/dashboard", s.dashboard)
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest(fmt.Errorf("invalid %s %q", key, v))
	}
	return n, nil
}

// balanceSheet reports as of ?month=YYYY-MM, the current month by default.
func (s *Server) balanceSheet(c *gin.Context) {
	d, ok := s.active(c)
	if !ok {
		return
	}
	month := c.DefaultQuery("month", time.Now().Format("2006-01"))
	bs, err := report.BuildBalanceSheet(d.Accounts, d.JournalEntries, month, s.store.Config().Reports)
	if err != nil {
		s.fail(c, badRequest(err))
		return
	}
	c.JSON(http.StatusOK, bs)
}

// incomeStatement takes ?year=&type=monthly|quarterly|half_yearly|yearly&value=&post=true.
func (s *Server) incomeStatement(c *gin.Context) {
	d, ok := s.active(c)
	if !ok {
		return
	}
	now := time.Now()
	year, err := queryInt(c, "year", now.Year())
	if err != nil {
		s.fail(c, err)
		return
	}
	value, err := queryInt(c, "value", int(now.Month()))
	if err != nil {
		s.fail(c, err)
		return
	}
	post, _ := strconv.ParseBool(c.DefaultQuery("post", "false"))
	period := report.PeriodSpec{
		Year:  year,
		Type:  report.PeriodType(c.DefaultQuery("type", string(report.Monthly))),
		Value: value,
	}
	is, err := report.BuildIncomeStatement(d.Accounts, d.JournalEntries, period, post, s.store.Config().Reports)
	if err != nil {
		s.fail(c, badRequest(err))
		return
	}
	c.JSON(http.StatusOK, is)
}

// dashboard takes ?year= and ?month= (0 or absent for the whole year).
func (s *Server) dashboard(c *gin.Context) {
	d, ok := s.active(c)
	if !ok {
		return
	}
	year, err := queryInt(c, "year", time.Now().Year())
	if err != nil {
		s.fail(c, err)
		return
	}
	month, err := queryInt(c, "month", 0)
	if err != nil {
		s.fail(c, err)
		return
	}
	db, err := report.BuildDashboard(d.Accounts, d.JournalEntries, year, month, s.store.Config().Reports)
	if err != nil {
		s.fail(c, badRequest(err))
		return
	}
	c.JSON(http.StatusOK, db)
}
