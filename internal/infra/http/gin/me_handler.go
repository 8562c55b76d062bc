package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/dto"
	meapp "staybook/internal/app/handlers/me"
	"staybook/internal/app/queries"
)

type MeHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h MeHandler) ListBookings(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	upcoming, _ := strconv.ParseBool(c.Query("upcoming"))
	query := meapp.ListGuestReservationsQuery{AccountID: accountID, UpcomingOnly: upcoming}
	result, err := queries.Ask[meapp.ListGuestReservationsQuery, dto.GuestReservationCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("me bookings query failed", "error", err, "account_id", accountID)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load bookings"})
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ MeHTTP = (*MeHandler)(nil)
