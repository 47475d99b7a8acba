package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NayeyYe/BookManage/internal/auth"
)

const dateLayout = "2006-01-02"

// BorrowController opens and closes loans. Non-admins may only borrow for
// themselves and return their own loans.
type BorrowController struct {
	circulation Circulation
	records     RecordStore
}

func NewBorrowController(circ Circulation, records RecordStore) *BorrowController {
	return &BorrowController{
		circulation: circ,
		records:     records,
	}
}

type borrowRequest struct {
	BorrowerID string `json:"borrower_id"`
	BookID     string `json:"book_id" binding:"required"`
}

type returnRequest struct {
	RecordID uint `json:"record_id" binding:"required"`
}

func (controller *BorrowController) Borrow(c *gin.Context) {
	var req borrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if req.BorrowerID == "" {
		req.BorrowerID = auth.GetUserID(c)
	}
	if !auth.CanAccessUser(c, req.BorrowerID) {
		respondForbidden(c, "cannot borrow on behalf of another user")
		return
	}

	result, err := controller.circulation.Borrow(c.Request.Context(), req.BorrowerID, req.BookID)
	if err != nil {
		respondDomainError(c, err, "borrow")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "book borrowed",
		"record_id": result.RecordID,
		"due_date":  result.DueDate.Format(dateLayout),
	})
}

func (controller *BorrowController) Return(c *gin.Context) {
	var req returnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if !auth.IsAdmin(c) {
		record, err := controller.circulation.Record(c.Request.Context(), req.RecordID)
		if err != nil {
			respondDomainError(c, err, "return")
			return
		}
		if record.BorrowerID != auth.GetUserID(c) {
			respondForbidden(c, "cannot return another user's loan")
			return
		}
	}

	result, err := controller.circulation.Return(c.Request.Context(), req.RecordID)
	if err != nil {
		respondDomainError(c, err, "return")
		return
	}

	message := "book returned"
	if result.OverdueDays > 0 {
		message = "book returned late, a fine was recorded"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        message,
		"overdue_days":   result.OverdueDays,
		"fine_amount":    result.FineAmount,
		"fine_record_id": result.FineRecordID,
	})
}

func (controller *BorrowController) ListRecords(c *gin.Context) {
	list, err := controller.records.ListBorrowingRecords(c.Request.Context(), c.Query("borrower_id"))
	if err != nil {
		respondInternalError(c, err, "list borrowing records")
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": list, "count": len(list)})
}

func (controller *BorrowController) ListFines(c *gin.Context) {
	list, err := controller.records.ListFineRecords(c.Request.Context(), c.Query("borrower_id"))
	if err != nil {
		respondInternalError(c, err, "list fine records")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fines": list, "count": len(list)})
}
