package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/supplierspend/internal/observability/context"
)

func (s *Server) GetSupplierSpend(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id <= 0 {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid supplier id"))
		return
	}

	ctx := obscontext.WithSupplierID(c.Request.Context(), id.String())
	resp, err := s.spendSvc.GetTotalSpend(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
