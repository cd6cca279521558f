package actions

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qgatssdev/nika/httputils"
	"github.com/qgatssdev/nika/model"
)

// ClaimCommission godoc
// swagger:route POST /v1/referral/claim referrals claim_commission
// Claim commissions
//
// Withdraws every unclaimed commission of the current user in the given token
//
//	Security:
//	  UserToken:
//
//	Responses:
//	  200: ClaimResult
//	  400: RequestErrorResp
//	  404: RequestErrorResp
func (actions *Actions) ClaimCommission(c *gin.Context) {
	userID, _ := getUserID(c)
	request := model.ClaimRequest{}
	if err := c.ShouldBindJSON(&request); err != nil {
		_ = c.Error(err)
		abortWithError(c, BadRequest, "tokenType is required")
		return
	}
	token := model.TokenType(strings.ToUpper(strings.TrimSpace(request.TokenType.String())))

	result, err := actions.service.ClaimCommission(c.Request.Context(), userID, token)
	if err != nil {
		abortWithServiceError(c, err, "Unable to claim commissions")
		return
	}
	c.JSON(OK, result)
}

// GetClaimable returns the unclaimed commission totals of the current user per token
func (actions *Actions) GetClaimable(c *gin.Context) {
	userID, _ := getUserID(c)
	data, err := actions.service.GetClaimable(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err, "Unable to get claimable commissions")
		return
	}
	c.JSON(OK, data)
}

// GetReferralEarnings godoc
// swagger:route GET /v1/referral/earnings referrals referral_earnings
// Get earnings
//
// Returns the commissions earned from the trade fees of referred users
//
//	Security:
//	  UserToken:
//
//	Responses:
//	  200: CommissionList
//	  500: RequestErrorResp
func (actions *Actions) GetReferralEarnings(c *gin.Context) {
	userID, _ := getUserID(c)
	page, limit := getPagination(c)
	data, err := actions.service.GetReferralEarnings(c.Request.Context(), userID, limit, page)
	if err != nil {
		abortWithServiceError(c, err, "Unable to get earnings")
		return
	}
	c.JSON(OK, data)
}

// GetClaims returns the claim history of the current user
func (actions *Actions) GetClaims(c *gin.Context) {
	userID, _ := getUserID(c)
	page, limit := getPagination(c)
	data, err := actions.service.GetClaims(c.Request.Context(), userID, limit, page)
	if err != nil {
		abortWithServiceError(c, err, "Unable to get claims")
		return
	}
	c.JSON(OK, data)
}

// GetReferralNetwork returns the users referred by the current user grouped by level
func (actions *Actions) GetReferralNetwork(c *gin.Context) {
	userID, _ := getUserID(c)
	data, err := actions.service.GetReferralNetwork(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err, "Unable to get referral network")
		return
	}
	c.JSON(OK, data)
}

// GenerateReferralCode returns the referral code of the current user, creating it when missing
func (actions *Actions) GenerateReferralCode(c *gin.Context) {
	userID, _ := getUserID(c)
	code, err := actions.service.GenerateReferralCode(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err, "Unable to generate referral code")
		return
	}
	c.JSON(OK, httputils.ReferralCodeResp{ReferralCode: code})
}

// RegisterReferral godoc
// swagger:route POST /v1/referral/register referrals register_referral
// Register referral
//
// Links a user below the owner of a referral code. A referrer already three levels deep
// results in a successful registration without any link.
//
//	Consumes:
//	- application/json
//
//	Responses:
//	  200: ReferralRegistration
//	  400: RequestErrorResp
//	  404: RequestErrorResp
func (actions *Actions) RegisterReferral(c *gin.Context) {
	request := model.RegisterReferralRequest{}
	if err := c.ShouldBindJSON(&request); err != nil {
		_ = c.Error(err)
		abortWithError(c, BadRequest, "referralCode and userId are required")
		return
	}

	data, err := actions.service.RegisterReferral(c.Request.Context(), strings.TrimSpace(request.ReferralCode), request.UserID)
	if err != nil {
		abortWithServiceError(c, err, "Unable to register referral")
		return
	}
	c.JSON(OK, data)
}
