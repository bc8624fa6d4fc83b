package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"t2e-leaderboard/internal/domain"
)

func traderParam(c *gin.Context) (domain.Pubkey, bool) {
	trader, err := domain.ParsePubkey(c.Param("trader"))
	if err != nil {
		fail(c, err)
		return "", false
	}
	return trader, true
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return false
	}
	return true
}

func queryInt64(c *gin.Context, key string) (int64, bool) {
	v := c.Query(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		fail(c, fmt.Errorf("%w: %s=%q is not an integer", errBadRequest, key, v))
		return 0, false
	}
	return n, true
}

func (s *Server) getLeaderboard(c *gin.Context) {
	lb, err := s.backend.Leaderboard(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toLeaderboard(lb))
}

func (s *Server) getMovements(c *gin.Context) {
	moves, err := s.backend.Movements(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toMovements(moves))
}

func (s *Server) updateLeaderboard(c *gin.Context) {
	var req updateRequest
	if !bindJSON(c, &req) {
		return
	}
	for _, in := range req.Batch {
		if _, err := domain.ParsePubkey(string(in.Trader)); err != nil {
			fail(c, err)
			return
		}
	}
	ranked, err := s.backend.UpdateLeaderboard(c.Request.Context(), req.Batch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRanked(ranked))
}

func (s *Server) refreshLeaderboard(c *gin.Context) {
	ranked, err := s.backend.RefreshLeaderboard(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRanked(ranked))
}

func (s *Server) getHistory(c *gin.Context) {
	from, ok := queryInt64(c, "from")
	if !ok {
		return
	}
	to, ok := queryInt64(c, "to")
	if !ok {
		return
	}
	snaps, err := s.backend.History(c.Request.Context(), from, to)
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]snapshotResponse, len(snaps))
	for i, snap := range snaps {
		out[i] = toSnapshot(snap)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getRunPayouts(c *gin.Context) {
	payouts, err := s.backend.RunPayouts(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPayouts(payouts))
}

func (s *Server) listTraders(c *gin.Context) {
	all, err := s.backend.ListTraderStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]traderStatsResponse, len(all))
	for i, st := range all {
		out[i] = toTraderStats(*st)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getTrader(c *gin.Context) {
	trader, ok := traderParam(c)
	if !ok {
		return
	}
	st, err := s.backend.TraderStats(c.Request.Context(), trader)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toTraderStats(*st))
}

func (s *Server) getTraderPayouts(c *gin.Context) {
	trader, ok := traderParam(c)
	if !ok {
		return
	}
	payouts, err := s.backend.TraderPayouts(c.Request.Context(), trader)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPayouts(payouts))
}

func (s *Server) registerTrader(c *gin.Context) {
	trader, ok := traderParam(c)
	if !ok {
		return
	}
	st, err := s.backend.RegisterTrader(c.Request.Context(), trader)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTraderStats(st))
}

func (s *Server) recordTrade(c *gin.Context) {
	trader, ok := traderParam(c)
	if !ok {
		return
	}
	var req tradeRequest
	if !bindJSON(c, &req) {
		return
	}
	st, err := s.backend.RecordTrade(c.Request.Context(), domain.TradeEvent{
		Trader:        trader,
		Volume:        req.Volume,
		ExecutionTime: req.ExecutionTime,
		PnL:           req.PnL,
		Signature:     req.Signature,
		Source:        "api",
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toTraderStats(st))
}

func (s *Server) stakeTokens(c *gin.Context) {
	trader, ok := traderParam(c)
	if !ok {
		return
	}
	var req stakeRequest
	if !bindJSON(c, &req) {
		return
	}
	st, err := s.backend.StakeTokens(c.Request.Context(), trader, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toTraderStats(st))
}

func (s *Server) calculateFeeDiscount(c *gin.Context) {
	trader, ok := traderParam(c)
	if !ok {
		return
	}
	d, err := s.backend.CalculateFeeDiscount(c.Request.Context(), trader)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trader": trader, "fee_discount": d})
}

func (s *Server) initializeLeaderboard(c *gin.Context) {
	lb, err := s.backend.InitializeLeaderboard(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toLeaderboard(lb))
}

func (s *Server) snapshotLeaderboard(c *gin.Context) {
	snap, err := s.backend.SnapshotLeaderboard(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSnapshot(snap))
}

func (s *Server) setEmergencyPause(c *gin.Context) {
	var req pauseRequest
	if !bindJSON(c, &req) {
		return
	}
	lb, err := s.backend.SetEmergencyPause(c.Request.Context(), *req.Paused)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toLeaderboard(lb))
}

func (s *Server) distributeRewards(c *gin.Context) {
	var req distributeRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.TopN < 0 {
		fail(c, fmt.Errorf("%w: top_n must not be negative", errBadRequest))
		return
	}

	dist, err := s.backend.DistributeRewards(c.Request.Context(), req.TopN, req.Pool)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, toDistribution(dist))
	case dist != nil:
		// Some transfers went through; report them with the failure.
		_ = c.Error(err)
		resp := toDistribution(dist)
		resp.Error = err.Error()
		c.JSON(statusFor(err), resp)
	default:
		fail(c, err)
	}
}
