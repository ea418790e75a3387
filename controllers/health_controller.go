package controllers

import (
	"github.com/Govind-619/GreenLedger/utils"
	"github.com/gin-gonic/gin"
)

// Health reports whether the database answers.
func (ctl *Controller) Health(c *gin.Context) {
	sqlDB, err := ctl.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		utils.RespondError(c, utils.ServiceUnavailableError("Database unavailable", err))
		return
	}
	utils.Success(c, "ok", gin.H{"processors": ctl.Initiator.Processors().Names()})
}
