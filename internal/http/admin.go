package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NayeyYe/BookManage/internal/auth"
	"github.com/NayeyYe/BookManage/internal/entities"
)

const (
	actionActivate = "activate"
	actionSuspend  = "suspend"
	actionDelete   = "delete"
	actionGrant    = "grant"
	actionRevoke   = "revoke"
)

// AdminController serves the dashboard. Every route is behind RequireAdmin.
type AdminController struct {
	borrowers   BorrowerStore
	records     RecordStore
	loginLogs   LoginLogStore
	accounts    Accounts
	circulation Circulation
}

func NewAdminController(borrowers BorrowerStore, records RecordStore, loginLogs LoginLogStore, accounts Accounts, circ Circulation) *AdminController {
	return &AdminController{
		borrowers:   borrowers,
		records:     records,
		loginLogs:   loginLogs,
		accounts:    accounts,
		circulation: circ,
	}
}

type manageRequest struct {
	UID    string `json:"uid" binding:"required"`
	Action string `json:"action" binding:"required"`
}

func (controller *AdminController) BorrowingRecords(c *gin.Context) {
	list, err := controller.records.ListBorrowingRecords(c.Request.Context(), "")
	if err != nil {
		respondInternalError(c, err, "admin borrowing records")
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": list, "count": len(list)})
}

func (controller *AdminController) FineRecords(c *gin.Context) {
	list, err := controller.records.ListFineRecords(c.Request.Context(), "")
	if err != nil {
		respondInternalError(c, err, "admin fine records")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fines": list, "count": len(list)})
}

func (controller *AdminController) LoginLogs(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	list, err := controller.loginLogs.List(c.Request.Context(), limit)
	if err != nil {
		respondInternalError(c, err, "admin login logs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": list, "count": len(list)})
}

func (controller *AdminController) Stats(c *gin.Context) {
	stats, err := controller.records.Stats(c.Request.Context(), controller.circulation.Today())
	if err != nil {
		respondInternalError(c, err, "admin stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (controller *AdminController) Users(c *gin.Context) {
	list, err := controller.borrowers.ListBorrowers(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "admin users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list, "count": len(list)})
}

// ManageUser activates, suspends or deletes a borrower. An admin cannot
// suspend or delete their own account.
func (controller *AdminController) ManageUser(c *gin.Context) {
	var req manageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	ctx := c.Request.Context()
	self := req.UID == auth.GetUserID(c)

	var err error
	switch req.Action {
	case actionActivate:
		err = controller.borrowers.SetStatus(ctx, req.UID, entities.BorrowingStatusActive)
	case actionSuspend:
		if self {
			respondBadRequest(c, "cannot suspend your own account")
			return
		}
		err = controller.borrowers.SetStatus(ctx, req.UID, entities.BorrowingStatusSuspended)
	case actionDelete:
		if self {
			respondBadRequest(c, "cannot delete your own account")
			return
		}
		err = controller.borrowers.DeleteCascade(ctx, req.UID)
	default:
		respondBadRequest(c, "action must be one of: activate, suspend, delete")
		return
	}
	if err != nil {
		respondDomainError(c, err, "manage user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user " + req.Action + " completed", "uid": req.UID})
}

// ManageAdmin grants or revokes the admin capability.
func (controller *AdminController) ManageAdmin(c *gin.Context) {
	var req manageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	var grant bool
	switch req.Action {
	case actionGrant:
		grant = true
	case actionRevoke:
		if req.UID == auth.GetUserID(c) {
			respondBadRequest(c, "cannot revoke your own admin rights")
			return
		}
	default:
		respondBadRequest(c, "action must be one of: grant, revoke")
		return
	}

	if err := controller.accounts.SetAdmin(c.Request.Context(), req.UID, grant); err != nil {
		respondDomainError(c, err, "manage admin")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "admin " + req.Action + " completed", "uid": req.UID})
}

func (controller *AdminController) PayFine(c *gin.Context) {
	fineID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fine, err := controller.records.PayFine(c.Request.Context(), fineID, controller.circulation.Today())
	if err != nil {
		respondDomainError(c, err, "pay fine")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "fine paid", "fine": fine})
}
