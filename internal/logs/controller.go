package logs

import (
	"errors"
	"net/http"

	"tmi-forms-api/config"
	"tmi-forms-api/internal/util"

	"github.com/gin-gonic/gin"
)

type LogController struct {
	LogService *LogService
}

func (lc *LogController) GetLogs(c *gin.Context) {
	var input LogFilterInput
	if err := c.ShouldBindQuery(&input); err != nil {
		c.JSON(http.StatusBadRequest, util.BindingErrorBody(err))
		return
	}

	page, err := lc.LogService.GetLogs(input)
	if errors.Is(err, ErrInvalidFilter) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		config.Log.WithError(err).Error("log query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, page)
}
