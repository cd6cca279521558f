package actions

import (
	"github.com/gin-gonic/gin"

	"github.com/qgatssdev/nika/model"
)

// TradeWebhook godoc
// swagger:route POST /v1/trade/webhook trades trade_webhook
// Process trade
//
// Settles a filled trade reported by the execution layer: debits the paid token,
// credits the cashback and distributes the referral commissions.
//
//	Consumes:
//	- application/json
//
//	Responses:
//	  200: TradeResult
//	  400: RequestErrorResp
//	  404: RequestErrorResp
//	  500: RequestErrorResp
func (actions *Actions) TradeWebhook(c *gin.Context) {
	request := model.TradeWebhookRequest{}
	if err := c.ShouldBindJSON(&request); err != nil {
		_ = c.Error(err)
		abortWithError(c, BadRequest, err.Error())
		return
	}
	trade, err := request.ToTradeRequest()
	if err != nil {
		abortWithServiceError(c, err, "Unable to process trade")
		return
	}

	result, err := actions.service.ProcessTrade(c.Request.Context(), trade)
	if err != nil {
		abortWithServiceError(c, err, "Unable to process trade")
		return
	}
	c.JSON(OK, result)
}
